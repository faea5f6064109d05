package tui

import "github.com/slok/instl/internal/model"

// Messages sent by the bridge to the program.
type progressMsg struct {
	Percent int
	Phase   string
}

type warningMsg struct {
	Kind model.WarningKind
}

type progressViewMsg struct{}

type terminalViewMsg struct {
	State model.InstallState
}

type continueEnabledMsg struct{}

// confirmResultMsg is the result of submitting a destination.
type confirmResultMsg struct {
	RequestID string
	Err       error
}
