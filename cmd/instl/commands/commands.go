package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/alecthomas/kingpin/v2"
	"k8s.io/client-go/util/homedir"

	"github.com/slok/instl/internal/conventions"
	"github.com/slok/instl/internal/log"
	"github.com/slok/instl/internal/model"
	"github.com/slok/instl/internal/payload"
	"github.com/slok/instl/internal/storage/sqlite"
)

const (
	// LoggerTypeDefault is the logger default type.
	LoggerTypeDefault = "default"
	// LoggerTypeJSON is the logger json type.
	LoggerTypeJSON = "json"
)

// Command represents an application command, all commands that want to be executed
// should implement and setup on main.
type Command interface {
	Name() string
	Run(ctx context.Context) error
}

// TerminalOwner is implemented by commands that take the whole terminal while running,
// logs of these commands must not go to the terminal.
type TerminalOwner interface {
	OwnsTerminal() bool
}

// RootCommand represents the root command configuration and global configuration
// for all the commands.
type RootCommand struct {
	// Global flags.
	Debug      bool
	NoLog      bool
	NoColor    bool
	LoggerType string
	DataDir    string
	HomeDir    string

	// Payload flags.
	ManifestPath string
	ArchivePath  string
	ProductName  string
	BinDir       string

	// Global instances.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger log.Logger
}

// NewRootCommand initializes the main root configuration.
func NewRootCommand(app *kingpin.Application) *RootCommand {
	c := &RootCommand{HomeDir: homedir.HomeDir()}

	app.Flag("debug", "Enable debug mode.").BoolVar(&c.Debug)
	app.Flag("no-log", "Disable logger.").BoolVar(&c.NoLog)
	app.Flag("no-color", "Disable logger color.").BoolVar(&c.NoColor)
	app.Flag("logger", "Selects the logger type.").Default(LoggerTypeDefault).EnumVar(&c.LoggerType, LoggerTypeDefault, LoggerTypeJSON)
	app.Flag("data-dir", "Directory for the install journal and logs.").Default(conventions.DataDir(c.HomeDir)).StringVar(&c.DataDir)

	app.Flag("payload", "Path to the payload manifest (YAML with name, archive and bin_dir).").Default(defaultManifestPath()).StringVar(&c.ManifestPath)
	app.Flag("archive", "Path to the payload zip archive, overrides the manifest.").StringVar(&c.ArchivePath)
	app.Flag("name", "Product name of the payload when using --archive.").StringVar(&c.ProductName)
	app.Flag("bin-dir", "Binary directory inside the installation when using --archive.").Default(model.DefaultBinDir).StringVar(&c.BinDir)

	return c
}

// defaultManifestPath returns the manifest next to the installer executable.
func defaultManifestPath() string {
	exe, err := os.Executable()
	if err != nil {
		return conventions.ManifestFile
	}
	return filepath.Join(filepath.Dir(exe), conventions.ManifestFile)
}

// LoadPayload loads the installation payload and verifies its archive.
func (r *RootCommand) LoadPayload(ctx context.Context) (*payload.Store, error) {
	var (
		p   model.ArchivePayload
		err error
	)

	if r.ArchivePath != "" {
		if r.ProductName == "" {
			return nil, fmt.Errorf("--name is required with --archive")
		}
		data, rerr := os.ReadFile(r.ArchivePath)
		if rerr != nil {
			return nil, fmt.Errorf("could not read archive: %w", rerr)
		}
		p, err = model.NewArchivePayload(r.ProductName, r.BinDir, data)
	} else {
		manifest, aerr := filepath.Abs(r.ManifestPath)
		if aerr != nil {
			return nil, fmt.Errorf("invalid manifest path: %w", aerr)
		}
		repo := payload.NewManifestYAMLRepository(os.DirFS(filepath.Dir(manifest)))
		p, err = repo.GetPayload(ctx, filepath.Base(manifest))
	}
	if err != nil {
		return nil, fmt.Errorf("could not load payload: %w", err)
	}

	store, err := payload.NewStore(p)
	if err != nil {
		return nil, fmt.Errorf("could not verify payload: %w", err)
	}

	r.Logger.Debugf("Payload %s loaded (%d bytes)", p.Name(), p.Size())

	return store, nil
}

// NewRepository returns the install journal repository.
func (r *RootCommand) NewRepository(ctx context.Context) (*sqlite.Repository, error) {
	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: conventions.DBPath(r.DataDir),
		Logger: r.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create repository: %w", err)
	}
	return repo, nil
}
