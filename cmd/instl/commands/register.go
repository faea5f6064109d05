package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/instl/internal/registrar"
)

type RegisterCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	dir     string
	product string
}

// NewRegisterCommand returns the register command.
func NewRegisterCommand(rootCmd *RootCommand, app *kingpin.Application) *RegisterCommand {
	c := &RegisterCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("register", "Register a binary directory on the executable search path of future sessions.")
	c.Cmd.Arg("dir", "Binary directory to register.").Required().StringVar(&c.dir)
	c.Cmd.Flag("product", "Product name that owns the registration, defaults to the payload name.").StringVar(&c.product)

	return c
}

func (c RegisterCommand) Name() string { return c.Cmd.FullCommand() }

func (c RegisterCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	dir, err := filepath.Abs(c.dir)
	if err != nil {
		return fmt.Errorf("invalid directory: %w", err)
	}

	product := c.product
	if product == "" {
		store, err := c.rootCmd.LoadPayload(ctx)
		if err != nil {
			return fmt.Errorf("could not get product name, use --product: %w", err)
		}
		product = store.Payload().Name()
	}

	reg, err := registrar.NewDefault(registrar.DefaultConfig{
		HomeDir: c.rootCmd.HomeDir,
		Product: product,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("could not create registrar: %w", err)
	}

	if err := reg.Register(ctx, dir); err != nil {
		return fmt.Errorf("could not register %s: %w", dir, err)
	}

	fmt.Fprintf(c.rootCmd.Stdout, "%s registered, open a new session to use it\n", dir)

	return nil
}
