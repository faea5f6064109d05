// Package headless is the non interactive front end of the installer, it
// reports the install progress on a terminal stream.
package headless

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/schollz/progressbar/v3"

	"github.com/slok/instl/internal/log"
	"github.com/slok/instl/internal/model"
)

// BridgeConfig is the configuration of the headless bridge.
type BridgeConfig struct {
	ProductName string
	Out         io.Writer
	// NoProgress disables the progress bar, only the messages are written.
	NoProgress bool
	Logger     log.Logger
}

func (c *BridgeConfig) defaults() error {
	if c.Out == nil {
		c.Out = io.Discard
	}
	if c.ProductName == "" {
		c.ProductName = "payload"
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "headless.Bridge"})
	return nil
}

// Bridge writes the workflow notifications to a stream.
type Bridge struct {
	cfg    BridgeConfig
	logger log.Logger

	mu       sync.Mutex
	bar      *progressbar.ProgressBar
	warnings []model.WarningKind
}

// NewBridge returns a new headless bridge.
func NewBridge(cfg BridgeConfig) (*Bridge, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Bridge{cfg: cfg, logger: cfg.Logger}, nil
}

// Warnings returns the destination warnings shown.
func (b *Bridge) Warnings() []model.WarningKind {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.WarningKind(nil), b.warnings...)
}

func (b *Bridge) ShowProgressView() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := fmt.Fprintf(b.cfg.Out, "Installing %s...\n", b.cfg.ProductName); err != nil {
		return err
	}
	if b.cfg.NoProgress {
		return nil
	}

	b.bar = progressbar.NewOptions(100,
		progressbar.OptionSetWriter(b.cfg.Out),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(b.cfg.Out) }),
	)
	return nil
}

func (b *Bridge) UpdateProgress(percent int, phase string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.bar == nil {
		b.logger.Debugf("%d%% %s", percent, phase)
		return nil
	}
	b.bar.Describe(fmt.Sprintf("%-24s", phase))
	return b.bar.Set(percent)
}

func (b *Bridge) ShowWarning(kind model.WarningKind) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.warnings = append(b.warnings, kind)
	var msg string
	switch kind {
	case model.WarningUnreachable:
		msg = "destination is not reachable, its parent folder doesn't exist"
	case model.WarningConflict:
		msg = "destination already exists and isn't empty"
	default:
		msg = string(kind)
	}
	_, err := fmt.Fprintf(b.cfg.Out, "Warning: %s\n", msg)
	return err
}

func (b *Bridge) ShowTerminalView(state model.InstallState) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.bar != nil {
		if state.Kind == model.StateComplete {
			_ = b.bar.Finish()
		} else {
			_ = b.bar.Exit()
			fmt.Fprintln(b.cfg.Out)
		}
		b.bar = nil
	}

	var sb strings.Builder
	switch state.Kind {
	case model.StateComplete:
		fmt.Fprintf(&sb, "%s installed into %s\n", b.cfg.ProductName, state.Destination)
		if merr := multierror.Append(nil, state.Warnings...).ErrorOrNil(); merr != nil {
			fmt.Fprintf(&sb, "Warning: %s\n", strings.TrimSpace(merr.Error()))
		}
	case model.StateFailed:
		fmt.Fprintf(&sb, "Installation into %s failed: %s\n", state.Destination, state.Reason)
	default:
		fmt.Fprintf(&sb, "Installation ended on %s\n", state)
	}

	_, err := io.WriteString(b.cfg.Out, sb.String())
	return err
}

// EnableContinueButton does nothing, there is nothing to dismiss.
func (b *Bridge) EnableContinueButton() error { return nil }
