// Package printer renders the installer command outputs.
package printer

import (
	"github.com/slok/instl/internal/model"
	"github.com/slok/instl/internal/payload"
)

// Printer knows how to print installer information in different formats.
type Printer interface {
	PrintHistory(records []model.InstallRecord) error
	PrintInstall(record model.InstallRecord) error
	PrintPayload(p model.ArchivePayload, entries []payload.Entry) error
	PrintMessage(msg string) error
}
