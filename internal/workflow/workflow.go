// Package workflow has the install workflow controller, the single owner of the
// install state. Front ends submit destinations and receive progress and status
// through a Bridge.
package workflow

import (
	"context"

	"github.com/slok/instl/internal/extract"
	"github.com/slok/instl/internal/model"
)

// Validator classifies install destinations.
type Validator interface {
	Validate(ctx context.Context, path string) (model.Verdict, error)
}

//go:generate mockery --case underscore --output workflowmock --outpkg workflowmock --structname MockValidator --name Validator

// Installer extracts the payload into a destination.
type Installer interface {
	Install(ctx context.Context, opts extract.InstallOptions) (*model.ExtractResult, error)
}

//go:generate mockery --case underscore --output workflowmock --outpkg workflowmock --structname MockInstaller --name Installer

// Bridge is the front end surface that receives the workflow notifications.
// Notifications are best effort, a returned error never stops an install.
type Bridge interface {
	UpdateProgress(percent int, phase string) error
	ShowWarning(kind model.WarningKind) error
	ShowProgressView() error
	ShowTerminalView(state model.InstallState) error
	EnableContinueButton() error
}

//go:generate mockery --case underscore --output workflowmock --outpkg workflowmock --structname MockBridge --name Bridge

// NoopBridge is a bridge that ignores every notification.
type NoopBridge struct{}

func (NoopBridge) UpdateProgress(int, string) error { return nil }
func (NoopBridge) ShowWarning(model.WarningKind) error { return nil }
func (NoopBridge) ShowProgressView() error { return nil }
func (NoopBridge) ShowTerminalView(model.InstallState) error { return nil }
func (NoopBridge) EnableContinueButton() error { return nil }
