package storage

import (
	"context"

	"github.com/slok/instl/internal/model"
)

// InstallRepository is the interface for the install journal persistence.
type InstallRepository interface {
	// SaveInstall creates or replaces the record of an install request.
	SaveInstall(ctx context.Context, r model.InstallRecord) error
	GetInstall(ctx context.Context, id string) (*model.InstallRecord, error)
	// ListInstalls returns the records, newest first.
	ListInstalls(ctx context.Context) ([]model.InstallRecord, error)
}

//go:generate mockery --case underscore --output storagemock --outpkg storagemock --structname MockInstallRepository --name InstallRepository
