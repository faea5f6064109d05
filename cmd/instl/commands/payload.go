package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/instl/internal/printer"
)

// PayloadCommand is the parent command for payload subcommands.
type PayloadCommand struct {
	Cmd *kingpin.CmdClause
}

// NewPayloadCommand returns the payload parent command.
func NewPayloadCommand(app *kingpin.Application) *PayloadCommand {
	return &PayloadCommand{Cmd: app.Command("payload", "Inspect the installation payload.")}
}

type PayloadInspectCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	format string
}

// NewPayloadInspectCommand returns the payload inspect command.
func NewPayloadInspectCommand(rootCmd *RootCommand, payloadCmd *PayloadCommand) *PayloadInspectCommand {
	c := &PayloadInspectCommand{rootCmd: rootCmd}

	c.Cmd = payloadCmd.Cmd.Command("inspect", "Verify the payload archive and list its entries.")
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c PayloadInspectCommand) Name() string { return c.Cmd.FullCommand() }

func (c PayloadInspectCommand) Run(ctx context.Context) error {
	store, err := c.rootCmd.LoadPayload(ctx)
	if err != nil {
		return err
	}

	var p printer.Printer
	switch c.format {
	case "json":
		p = printer.NewJSONPrinter(c.rootCmd.Stdout)
	default: // table
		p = printer.NewTablePrinter(c.rootCmd.Stdout)
	}

	if err := p.PrintPayload(store.Payload(), store.Entries()); err != nil {
		return fmt.Errorf("could not print payload: %w", err)
	}

	return nil
}
