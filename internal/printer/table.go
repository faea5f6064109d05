package printer

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/slok/instl/internal/model"
	"github.com/slok/instl/internal/payload"
)

// TablePrinter prints installer information in a table format.
type TablePrinter struct {
	writer io.Writer
	now    func() time.Time
}

// NewTablePrinter creates a new table printer.
func NewTablePrinter(w io.Writer) *TablePrinter {
	return &TablePrinter{writer: w, now: time.Now}
}

// PrintHistory prints the install journal in a table format.
func (t *TablePrinter) PrintHistory(records []model.InstallRecord) error {
	if len(records) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "ID\tDESTINATION\tSTATE\tPROGRESS\tWARNINGS\tCREATED")
	now := t.now()
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d%%\t%d\t%s\n",
			r.ID,
			r.Destination,
			r.State,
			r.Progress,
			len(r.Warnings),
			TimeAgo(r.CreatedAt, now),
		)
	}

	return nil
}

// PrintInstall prints the details of an install.
func (t *TablePrinter) PrintInstall(r model.InstallRecord) error {
	fmt.Fprintf(t.writer, "ID:           %s\n", r.ID)
	fmt.Fprintf(t.writer, "Destination:  %s\n", r.Destination)
	fmt.Fprintf(t.writer, "State:        %s\n", r.State)
	fmt.Fprintf(t.writer, "Progress:     %d%%\n", r.Progress)
	if r.Reason != "" {
		fmt.Fprintf(t.writer, "Reason:       %s\n", r.Reason)
	}
	fmt.Fprintf(t.writer, "Created:      %s\n", FormatTimestamp(r.CreatedAt))
	fmt.Fprintf(t.writer, "Updated:      %s\n", FormatTimestamp(r.UpdatedAt))

	if len(r.Warnings) > 0 {
		fmt.Fprintf(t.writer, "Warnings:\n")
		for _, w := range r.Warnings {
			fmt.Fprintf(t.writer, "  - %s\n", w)
		}
	}

	return nil
}

// PrintPayload prints the payload summary followed by its entries.
func (t *TablePrinter) PrintPayload(p model.ArchivePayload, entries []payload.Entry) error {
	fmt.Fprintf(t.writer, "Name:     %s\n", p.Name())
	fmt.Fprintf(t.writer, "Bin dir:  %s\n", p.BinDir())
	fmt.Fprintf(t.writer, "Size:     %s\n", FormatBytes(p.Size()))
	fmt.Fprintf(t.writer, "Entries:  %d\n", len(entries))

	if len(entries) == 0 {
		return nil
	}

	fmt.Fprintln(t.writer)
	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "MODE\tSIZE\tPATH")
	for _, e := range entries {
		size := "-"
		if !e.Mode.IsDir() {
			size = FormatBytes(int64(e.Size))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Mode, size, strings.TrimSuffix(e.Name, "/"))
	}

	return nil
}

// PrintMessage prints a simple text message.
func (t *TablePrinter) PrintMessage(msg string) error {
	fmt.Fprintln(t.writer, msg)
	return nil
}
