package printer

import (
	"encoding/json"
	"io"
	"time"

	"github.com/slok/instl/internal/model"
	"github.com/slok/instl/internal/payload"
)

// JSONPrinter prints installer information in JSON format.
type JSONPrinter struct {
	writer io.Writer
}

// NewJSONPrinter creates a new JSON printer.
func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{writer: w}
}

type installOutput struct {
	ID          string    `json:"id"`
	Destination string    `json:"destination"`
	State       string    `json:"state"`
	Progress    int       `json:"progress"`
	Reason      string    `json:"reason,omitempty"`
	Warnings    []string  `json:"warnings"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type payloadOutput struct {
	Name    string        `json:"name"`
	BinDir  string        `json:"bin_dir"`
	Size    int64         `json:"size_bytes"`
	Entries []entryOutput `json:"entries"`
}

type entryOutput struct {
	Path string `json:"path"`
	Mode string `json:"mode"`
	Size uint64 `json:"size_bytes"`
	Dir  bool   `json:"dir"`
}

type messageOutput struct {
	Message string `json:"message"`
}

func toInstallOutput(r model.InstallRecord) installOutput {
	warnings := r.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return installOutput{
		ID:          r.ID,
		Destination: r.Destination,
		State:       string(r.State),
		Progress:    r.Progress,
		Reason:      r.Reason,
		Warnings:    warnings,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

// PrintHistory prints the install journal in JSON format.
func (j *JSONPrinter) PrintHistory(records []model.InstallRecord) error {
	items := make([]installOutput, len(records))
	for i, r := range records {
		items[i] = toInstallOutput(r)
	}
	return j.encode(items)
}

// PrintInstall prints the details of an install in JSON format.
func (j *JSONPrinter) PrintInstall(r model.InstallRecord) error {
	return j.encode(toInstallOutput(r))
}

// PrintPayload prints the payload summary and entries in JSON format.
func (j *JSONPrinter) PrintPayload(p model.ArchivePayload, entries []payload.Entry) error {
	out := payloadOutput{
		Name:    p.Name(),
		BinDir:  p.BinDir(),
		Size:    p.Size(),
		Entries: make([]entryOutput, len(entries)),
	}
	for i, e := range entries {
		out.Entries[i] = entryOutput{Path: e.Name, Mode: e.Mode.String(), Size: e.Size, Dir: e.Mode.IsDir()}
	}
	return j.encode(out)
}

// PrintMessage prints a simple message in JSON format.
func (j *JSONPrinter) PrintMessage(msg string) error {
	return j.encode(messageOutput{Message: msg})
}

func (j *JSONPrinter) encode(v any) error {
	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
