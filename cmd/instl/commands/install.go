package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/oklog/run"

	"github.com/slok/instl/internal/extract"
	"github.com/slok/instl/internal/model"
	"github.com/slok/instl/internal/pathcheck"
	"github.com/slok/instl/internal/registrar"
	"github.com/slok/instl/internal/storage"
	"github.com/slok/instl/internal/storage/memory"
	"github.com/slok/instl/internal/ui/headless"
	"github.com/slok/instl/internal/ui/tui"
	"github.com/slok/instl/internal/workflow"
)

type InstallCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	dest        string
	headless    bool
	noProgress  bool
	noRegister  bool
	noAltScreen bool
}

// NewInstallCommand returns the install command.
func NewInstallCommand(rootCmd *RootCommand, app *kingpin.Application) *InstallCommand {
	c := &InstallCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("install", "Install the payload.").Default()
	c.Cmd.Flag("dest", "Destination directory, must be empty or not exist. Required on headless mode.").StringVar(&c.dest)
	c.Cmd.Flag("headless", "Install without the interactive UI.").BoolVar(&c.headless)
	c.Cmd.Flag("no-progress", "Disable the progress bar on headless mode.").BoolVar(&c.noProgress)
	c.Cmd.Flag("no-register", "Don't register the binary directory on the executable search path.").BoolVar(&c.noRegister)
	c.Cmd.Flag("no-alt-screen", "Don't use the terminal alternate screen for the interactive UI.").BoolVar(&c.noAltScreen)

	return c
}

func (c InstallCommand) Name() string { return c.Cmd.FullCommand() }

// OwnsTerminal satisfies TerminalOwner.
func (c InstallCommand) OwnsTerminal() bool { return !c.headless }

func (c InstallCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	if c.headless && c.dest == "" {
		return fmt.Errorf("--dest is required on headless mode")
	}

	// A payload that can't be read fails before anything is shown.
	store, err := c.rootCmd.LoadPayload(ctx)
	if err != nil {
		return err
	}
	p := store.Payload()

	// The journal is best effort, without it installs are still possible.
	var repo storage.InstallRepository
	sqliteRepo, err := c.rootCmd.NewRepository(ctx)
	if err != nil {
		logger.Warningf("Install journal not available, using a memory one: %s", err)
		repo, err = memory.NewRepository(memory.RepositoryConfig{Logger: logger})
		if err != nil {
			return fmt.Errorf("could not create memory repository: %w", err)
		}
	} else {
		defer sqliteRepo.Close()
		repo = sqliteRepo
	}

	validator, err := pathcheck.NewValidator(pathcheck.ValidatorConfig{Logger: logger})
	if err != nil {
		return fmt.Errorf("could not create validator: %w", err)
	}

	engine, err := extract.NewEngine(extract.EngineConfig{Logger: logger})
	if err != nil {
		return fmt.Errorf("could not create extraction engine: %w", err)
	}

	var reg registrar.Registrar = registrar.Noop
	if !c.noRegister {
		reg, err = registrar.NewDefault(registrar.DefaultConfig{
			HomeDir: c.rootCmd.HomeDir,
			Product: p.Name(),
			Logger:  logger,
		})
		if err != nil {
			return fmt.Errorf("could not create registrar: %w", err)
		}
	}

	var (
		bridge         workflow.Bridge
		headlessBridge *headless.Bridge
		tuiBridge      *tui.Bridge
	)
	if c.headless {
		headlessBridge, err = headless.NewBridge(headless.BridgeConfig{
			ProductName: p.Name(),
			Out:         c.rootCmd.Stderr,
			NoProgress:  c.noProgress,
			Logger:      logger,
		})
		if err != nil {
			return fmt.Errorf("could not create headless bridge: %w", err)
		}
		bridge = headlessBridge
	} else {
		tuiBridge = tui.NewBridge()
		bridge = tuiBridge
	}

	ctrl, err := workflow.NewController(workflow.ControllerConfig{
		Payload:    p,
		Validator:  validator,
		Installer:  engine,
		Registrar:  reg,
		Bridge:     bridge,
		Repository: repo,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create controller: %w", err)
	}

	var g run.Group

	// Controller.
	{
		ctx, cancel := context.WithCancel(ctx)
		g.Add(
			func() error {
				return ctrl.Run(ctx)
			},
			func(_ error) {
				cancel()
			},
		)
	}

	// Front end.
	{
		ctx, cancel := context.WithCancel(ctx)
		g.Add(
			func() error {
				if c.headless {
					return c.runHeadless(ctx, ctrl)
				}
				return c.runTUI(ctx, ctrl, tuiBridge, p)
			},
			func(_ error) {
				cancel()
			},
		)
	}

	if err := g.Run(); err != nil {
		return err
	}

	// Closing the UI doesn't stop an install in progress.
	state, err := ctrl.Wait(context.Background())
	if err != nil {
		return err
	}
	logger.Debugf("Last install state: %s", state)

	return nil
}

func (c InstallCommand) runTUI(ctx context.Context, ctrl *workflow.Controller, bridge *tui.Bridge, p model.ArchivePayload) error {
	startDir, err := os.Getwd()
	if err != nil {
		startDir = c.rootCmd.HomeDir
	}

	prog, err := tui.NewProgram(tui.ProgramConfig{
		ProductName: p.Name(),
		StartDir:    startDir,
		Destination: c.dest,
		Confirmer:   ctrl,
		Bridge:      bridge,
		In:          c.rootCmd.Stdin,
		Out:         c.rootCmd.Stdout,
		AltScreen:   !c.noAltScreen,
		Logger:      c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create terminal ui: %w", err)
	}

	return prog.Run(ctx)
}

func (c InstallCommand) runHeadless(ctx context.Context, ctrl *workflow.Controller) error {
	id, err := ctrl.Confirm(ctx, c.dest)
	if err != nil {
		return fmt.Errorf("could not start install: %w", err)
	}
	c.rootCmd.Logger.Infof("Install %s started", id)

	state, err := ctrl.Wait(context.WithoutCancel(ctx))
	if err != nil {
		return err
	}

	switch state.Kind {
	case model.StateComplete:
		return nil
	case model.StateFailed:
		return fmt.Errorf("install %s failed: %w", id, state.Reason)
	case model.StateAwaitingConfirmation:
		return fmt.Errorf("destination %s is not empty: %w", state.Destination, model.ErrConflict)
	default:
		return fmt.Errorf("destination %s rejected: %w", state.Destination, state.Reason)
	}
}
