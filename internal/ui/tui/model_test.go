package tui

import (
	"context"
	"errors"
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/instl/internal/model"
)

type confirmerFunc func(ctx context.Context, path string) (string, error)

func (f confirmerFunc) Confirm(ctx context.Context, path string) (string, error) { return f(ctx, path) }

func update(t *testing.T, m Model, msgs ...tea.Msg) (Model, tea.Cmd) {
	t.Helper()

	var cmd tea.Cmd
	for _, msg := range msgs {
		var tm tea.Model
		tm, cmd = m.Update(msg)
		m = tm.(Model)
	}
	return m, cmd
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestModelSubmitDestination(t *testing.T) {
	tests := map[string]struct {
		confirmErr  error
		expWarning  string
		expReqID    string
		expConfirms []string
	}{
		"An accepted destination should store the request.": {
			expReqID:    "req-1",
			expConfirms: []string{"/opt/kube"},
		},

		"A busy controller should show a warning.": {
			confirmErr:  fmt.Errorf("install req-0 is extracting: %w", model.ErrBusy),
			expWarning:  "An installation is already running.",
			expConfirms: []string{"/opt/kube"},
		},

		"Resubmitting an occupied destination should show the conflict warning.": {
			confirmErr:  fmt.Errorf("something: %w", model.ErrConflict),
			expWarning:  warningText(model.WarningConflict),
			expConfirms: []string{"/opt/kube"},
		},

		"An unexpected error should be shown.": {
			confirmErr:  errors.New("whatever"),
			expWarning:  "Could not start the installation: whatever",
			expConfirms: []string{"/opt/kube"},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			var got []string
			c := confirmerFunc(func(_ context.Context, path string) (string, error) {
				got = append(got, path)
				if test.confirmErr != nil {
					return "", test.confirmErr
				}
				return "req-1", nil
			})

			m := NewModel(context.Background(), "kube", t.TempDir(), c)
			m.input.SetValue("/opt/kube")

			m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
			require.NotNil(cmd)
			assert.True(m.submitting)

			// Submitting twice while waiting does nothing.
			m, again := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
			assert.Nil(again)

			m, _ = update(t, m, cmd())
			assert.False(m.submitting)
			assert.Equal(test.expConfirms, got)
			assert.Equal(test.expReqID, m.requestID)
			assert.Equal(test.expWarning, m.warning)
			if test.expWarning != "" {
				assert.Contains(m.View(), test.expWarning)
			}
		})
	}
}

func TestModelWarnings(t *testing.T) {
	tests := map[string]struct {
		kind   model.WarningKind
		expMsg string
	}{
		"An unreachable destination should tell the parent is missing.": {
			kind:   model.WarningUnreachable,
			expMsg: "The parent folder doesn't exist",
		},

		"An occupied destination should tell the folder isn't empty.": {
			kind:   model.WarningConflict,
			expMsg: "already exists and isn't empty",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			m := NewModel(context.Background(), "kube", t.TempDir(), confirmerFunc(nil))
			m, _ = update(t, m, warningMsg{Kind: test.kind})

			assert.Equal(t, viewDestination, m.view)
			assert.Contains(t, m.View(), test.expMsg)
		})
	}
}

func TestModelInstallLifecycle(t *testing.T) {
	assert := assert.New(t)

	m := NewModel(context.Background(), "kube", t.TempDir(), confirmerFunc(nil))
	m.input.SetValue("/opt/kube")

	m, _ = update(t, m, progressViewMsg{}, progressMsg{Percent: 20, Phase: "Archive written"})
	assert.Equal(viewProgress, m.view)
	assert.Equal(20, m.percent)
	assert.Contains(m.View(), "Archive written")

	// Keys don't leave the progress view.
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(viewProgress, m.view)
	assert.Nil(cmd)

	state := model.InstallState{Kind: model.StateComplete, Destination: "/opt/kube", Progress: 100}
	m, _ = update(t, m, progressMsg{Percent: 100}, terminalViewMsg{State: state})
	assert.Equal(viewTerminal, m.view)
	assert.Contains(m.View(), "kube installed into /opt/kube")

	// Finish is disabled until enabled by the controller.
	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(isQuit(cmd))

	m, _ = update(t, m, continueEnabledMsg{})
	assert.Contains(m.View(), "[enter] Exit")
	_, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(isQuit(cmd))
}

func TestModelFailedInstall(t *testing.T) {
	m := NewModel(context.Background(), "kube", t.TempDir(), confirmerFunc(nil))

	state := model.InstallState{Kind: model.StateFailed, Reason: fmt.Errorf("bad archive: %w", model.ErrCorrupt)}
	m, _ = update(t, m, progressViewMsg{}, terminalViewMsg{State: state}, continueEnabledMsg{})

	view := m.View()
	assert.Contains(t, view, "Installation failed")
	assert.Contains(t, view, "bad archive")
}

func TestModelCancelView(t *testing.T) {
	tests := map[string]struct {
		msgs []tea.Msg
	}{
		"Closing on the destination view should quit.": {
			msgs: []tea.Msg{tea.KeyMsg{Type: tea.KeyCtrlC}},
		},

		"Closing while installing should quit.": {
			msgs: []tea.Msg{progressViewMsg{}, tea.KeyMsg{Type: tea.KeyCtrlC}},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			m := NewModel(context.Background(), "kube", t.TempDir(), confirmerFunc(nil))
			m, cmd := update(t, m, test.msgs...)

			assert.True(t, isQuit(cmd))
			assert.Empty(t, m.View())
		})
	}
}

func TestModelOpenAndCancelPicker(t *testing.T) {
	assert := assert.New(t)

	m := NewModel(context.Background(), "kube", t.TempDir(), confirmerFunc(nil))
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlO})
	assert.Equal(viewPicker, m.view)
	assert.NotNil(cmd)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(viewDestination, m.view)
}
