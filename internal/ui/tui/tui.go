// Package tui is the interactive terminal front end of the installer.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/slok/instl/internal/log"
)

// ProgramConfig is the configuration of the terminal UI program.
type ProgramConfig struct {
	ProductName string
	// StartDir is the initial folder of the folder picker.
	StartDir string
	// Destination prefills the destination input.
	Destination string
	Confirmer   Confirmer
	Bridge      *Bridge
	In          io.Reader
	Out         io.Writer
	AltScreen   bool
	Logger      log.Logger
}

func (c *ProgramConfig) defaults() error {
	if c.ProductName == "" {
		return fmt.Errorf("product name is required")
	}
	if c.Confirmer == nil {
		return fmt.Errorf("confirmer is required")
	}
	if c.Bridge == nil {
		return fmt.Errorf("bridge is required")
	}
	if c.StartDir == "" {
		c.StartDir = "."
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "tui.Program"})
	return nil
}

// Program runs the terminal UI until the user closes it.
type Program struct {
	cfg    ProgramConfig
	logger log.Logger
}

// NewProgram returns a new terminal UI program.
func NewProgram(cfg ProgramConfig) (*Program, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Program{cfg: cfg, logger: cfg.Logger}, nil
}

// Run blocks until the UI is closed or the context cancelled.
func (p *Program) Run(ctx context.Context) error {
	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if p.cfg.In != nil {
		opts = append(opts, tea.WithInput(p.cfg.In))
	}
	if p.cfg.Out != nil {
		opts = append(opts, tea.WithOutput(p.cfg.Out))
	}
	if p.cfg.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}

	m := NewModel(ctx, p.cfg.ProductName, p.cfg.StartDir, p.cfg.Confirmer)
	m.input.SetValue(p.cfg.Destination)
	prog := tea.NewProgram(m, opts...)

	p.cfg.Bridge.Attach(prog)
	defer p.cfg.Bridge.Attach(nil)

	p.logger.Debugf("Terminal UI started")
	_, err := prog.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("terminal ui failed: %w", err)
	}
	p.logger.Debugf("Terminal UI closed")

	return nil
}
