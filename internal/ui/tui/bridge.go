package tui

import (
	"errors"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/slok/instl/internal/model"
)

// ErrNotAttached is returned by the bridge when no program is receiving notifications.
var ErrNotAttached = errors.New("terminal ui not attached")

// Sender sends messages to a running program, tea.Program satisfies it.
type Sender interface {
	Send(msg tea.Msg)
}

// Bridge forwards the workflow notifications to the terminal UI program.
// It's created before the program so the controller can be wired first.
type Bridge struct {
	mu     sync.RWMutex
	sender Sender
}

// NewBridge returns a bridge without program attached.
func NewBridge() *Bridge {
	return &Bridge{}
}

// Attach sets the program that receives the notifications. A nil sender detaches it.
func (b *Bridge) Attach(s Sender) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sender = s
}

func (b *Bridge) send(msg tea.Msg) error {
	b.mu.RLock()
	s := b.sender
	b.mu.RUnlock()

	if s == nil {
		return ErrNotAttached
	}
	s.Send(msg)
	return nil
}

func (b *Bridge) UpdateProgress(percent int, phase string) error {
	return b.send(progressMsg{Percent: percent, Phase: phase})
}

func (b *Bridge) ShowWarning(kind model.WarningKind) error {
	return b.send(warningMsg{Kind: kind})
}

func (b *Bridge) ShowProgressView() error {
	return b.send(progressViewMsg{})
}

func (b *Bridge) ShowTerminalView(state model.InstallState) error {
	return b.send(terminalViewMsg{State: state})
}

func (b *Bridge) EnableContinueButton() error {
	return b.send(continueEnabledMsg{})
}
