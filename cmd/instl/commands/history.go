package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/instl/internal/printer"
)

type HistoryCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	id     string
	format string
}

// NewHistoryCommand returns the history command.
func NewHistoryCommand(rootCmd *RootCommand, app *kingpin.Application) *HistoryCommand {
	c := &HistoryCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("history", "Show the install journal, or the details of one install.")
	c.Cmd.Arg("id", "Install ID to show.").StringVar(&c.id)
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c HistoryCommand) Name() string { return c.Cmd.FullCommand() }

func (c HistoryCommand) Run(ctx context.Context) error {
	repo, err := c.rootCmd.NewRepository(ctx)
	if err != nil {
		return err
	}
	defer repo.Close()

	var p printer.Printer
	switch c.format {
	case "json":
		p = printer.NewJSONPrinter(c.rootCmd.Stdout)
	default: // table
		p = printer.NewTablePrinter(c.rootCmd.Stdout)
	}

	if c.id != "" {
		rec, err := repo.GetInstall(ctx, c.id)
		if err != nil {
			return fmt.Errorf("could not get install: %w", err)
		}
		if err := p.PrintInstall(*rec); err != nil {
			return fmt.Errorf("could not print install: %w", err)
		}
		return nil
	}

	recs, err := repo.ListInstalls(ctx)
	if err != nil {
		return fmt.Errorf("could not list installs: %w", err)
	}

	if err := p.PrintHistory(recs); err != nil {
		return fmt.Errorf("could not print history: %w", err)
	}

	return nil
}
