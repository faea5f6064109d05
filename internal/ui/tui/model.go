package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/hashicorp/go-multierror"

	"github.com/slok/instl/internal/model"
)

// Confirmer submits install destinations, the workflow controller satisfies it.
type Confirmer interface {
	Confirm(ctx context.Context, path string) (string, error)
}

type view int

const (
	viewDestination view = iota
	viewPicker
	viewProgress
	viewTerminal
)

// Model is the installer terminal UI.
type Model struct {
	ctx       context.Context
	product   string
	confirmer Confirmer

	view       view
	input      textinput.Model
	picker     filepicker.Model
	progress   progress.Model
	submitting bool
	warning    string

	requestID       string
	percent         int
	phase           string
	final           *model.InstallState
	continueEnabled bool
	quitting        bool
}

// NewModel returns the installer UI model. startDir is where the folder picker starts.
func NewModel(ctx context.Context, product, startDir string, c Confirmer) Model {
	in := textinput.New()
	in.Placeholder = "/path/to/" + product
	in.Prompt = "Destination: "
	in.CharLimit = 4096
	in.Width = 60
	in.Focus()

	fp := filepicker.New()
	fp.CurrentDirectory = startDir
	fp.DirAllowed = true
	fp.FileAllowed = false
	fp.AutoHeight = false
	fp.Height = 12

	return Model{
		ctx:       ctx,
		product:   product,
		confirmer: c,
		view:      viewDestination,
		input:     in,
		picker:    fp,
		progress:  progress.New(progress.WithDefaultGradient()),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.progress.Width = min(msg.Width-4, 80)
		m.input.Width = min(msg.Width-len(m.input.Prompt)-2, 80)

	case tea.KeyMsg:
		// Closing the view never stops an install that already started.
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		return m.updateKey(msg)

	case confirmResultMsg:
		m.submitting = false
		switch {
		case msg.Err == nil:
			m.requestID = msg.RequestID
			m.warning = ""
		case errors.Is(msg.Err, model.ErrBusy):
			m.warning = "An installation is already running."
		case errors.Is(msg.Err, model.ErrConflict):
			m.warning = warningText(model.WarningConflict)
		default:
			m.warning = fmt.Sprintf("Could not start the installation: %s", msg.Err)
		}

	case warningMsg:
		m.warning = warningText(msg.Kind)

	case progressViewMsg:
		m.view = viewProgress
		m.warning = ""
		m.input.Blur()

	case progressMsg:
		m.percent = msg.Percent
		m.phase = msg.Phase

	case terminalViewMsg:
		st := msg.State
		m.final = &st
		m.view = viewTerminal

	case continueEnabledMsg:
		m.continueEnabled = true

	default:
		var cmd tea.Cmd
		switch m.view {
		case viewPicker:
			m.picker, cmd = m.picker.Update(msg)
		case viewDestination:
			m.input, cmd = m.input.Update(msg)
		}
		return m, cmd
	}

	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.view {
	case viewDestination:
		switch msg.String() {
		case "esc":
			m.quitting = true
			return m, tea.Quit
		case "ctrl+o":
			m.view = viewPicker
			m.picker.Path = ""
			return m, m.picker.Init()
		case "enter":
			if m.submitting {
				return m, nil
			}
			m.submitting = true
			m.warning = ""
			return m, m.confirmCmd(m.input.Value())
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case viewPicker:
		if msg.String() == "esc" {
			m.view = viewDestination
			return m, nil
		}
		// The picker sets its path when a folder is selected.
		prev := m.picker.Path
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		if path := m.picker.Path; path != "" && path != prev {
			m.input.SetValue(path)
			m.input.CursorEnd()
			m.view = viewDestination
			return m, nil
		}
		return m, cmd

	case viewTerminal:
		switch msg.String() {
		case "enter", "q", "esc":
			if m.continueEnabled {
				m.quitting = true
				return m, tea.Quit
			}
		}
	}

	return m, nil
}

func (m Model) confirmCmd(path string) tea.Cmd {
	ctx, c := m.ctx, m.confirmer
	return func() tea.Msg {
		id, err := c.Confirm(ctx, path)
		return confirmResultMsg{RequestID: id, Err: err}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	sections := []string{headerStyle.Render(fmt.Sprintf("%s installer", m.product))}

	switch m.view {
	case viewDestination:
		sections = append(sections,
			"Choose where to install "+m.product+". The folder must be empty or not exist yet.",
			m.input.View(),
		)
		if m.warning != "" {
			sections = append(sections, warningStyle.Render(m.warning))
		}
		help := "[enter] Install  [ctrl+o] Browse folders  [esc] Exit"
		if m.submitting {
			help = "Checking destination..."
		}
		sections = append(sections, helpStyle.Render(help))

	case viewPicker:
		sections = append(sections,
			infoStyle.Render(m.picker.CurrentDirectory),
			m.picker.View(),
			helpStyle.Render("[enter] Select folder  [l] Open  [h] Back  [esc] Cancel"),
		)

	case viewProgress:
		sections = append(sections,
			fmt.Sprintf("Installing into %s", m.input.Value()),
			m.progress.ViewAs(float64(m.percent)/100),
			infoStyle.Render(m.phase),
		)

	case viewTerminal:
		sections = append(sections, m.terminalView())
	}

	return strings.Join(sections, "\n\n") + "\n"
}

func (m Model) terminalView() string {
	var lines []string
	if m.final != nil {
		switch m.final.Kind {
		case model.StateComplete:
			lines = append(lines,
				m.progress.ViewAs(1),
				successStyle.Render(fmt.Sprintf("%s installed into %s", m.product, m.final.Destination)),
			)
			if merr := multierror.Append(nil, m.final.Warnings...).ErrorOrNil(); merr != nil {
				lines = append(lines, warningStyle.Render(strings.TrimSpace(merr.Error())))
			}
		case model.StateFailed:
			lines = append(lines,
				errorStyle.Render("Installation failed"),
				fmt.Sprint(m.final.Reason),
				helpStyle.Render("Files already extracted were left in place, restart the installer with an empty folder."),
			)
		}
	}

	if m.continueEnabled {
		lines = append(lines, buttonStyle.Render("Finish"), helpStyle.Render("[enter] Exit"))
	} else {
		lines = append(lines, disabledButtonStyle.Render("Finish"))
	}

	return strings.Join(lines, "\n\n")
}

func warningText(k model.WarningKind) string {
	switch k {
	case model.WarningUnreachable:
		return "The parent folder doesn't exist, choose a reachable destination."
	case model.WarningConflict:
		return "The folder already exists and isn't empty, choose a different one."
	default:
		return string(k)
	}
}
