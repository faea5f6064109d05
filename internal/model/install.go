package model

import (
	"fmt"
	"time"
)

// Verdict is the Path Validator classification of a destination.
type Verdict int

const (
	// VerdictInvalid means the destination has no reachable parent.
	VerdictInvalid Verdict = iota
	// VerdictProceed means the destination is an existing empty directory.
	VerdictProceed
	// VerdictProceedAfterCreate means the destination doesn't exist and must be created.
	VerdictProceedAfterCreate
	// VerdictConflict means the destination exists and has content.
	VerdictConflict
)

func (v Verdict) String() string {
	switch v {
	case VerdictInvalid:
		return "invalid"
	case VerdictProceed:
		return "proceed"
	case VerdictProceedAfterCreate:
		return "proceed-after-create"
	case VerdictConflict:
		return "conflict"
	default:
		return fmt.Sprintf("unknown(%d)", int(v))
	}
}

// CanProceed returns true when the install can go on with this verdict.
func (v Verdict) CanProceed() bool {
	return v == VerdictProceed || v == VerdictProceedAfterCreate
}

// InstallRequest is an accepted request to install the payload on a destination.
type InstallRequest struct {
	ID              string
	DestinationPath string
	CreatedAt       time.Time
}

// StateKind is the kind of an install workflow state.
type StateKind string

const (
	StateIdle                 StateKind = "idle"
	StateValidating           StateKind = "validating"
	StateAwaitingConfirmation StateKind = "awaiting-confirmation"
	StateExtracting           StateKind = "extracting"
	StateRegistering          StateKind = "registering"
	StateComplete             StateKind = "complete"
	StateFailed               StateKind = "failed"
)

// Rank returns the order of the state inside a single request lifecycle.
func (k StateKind) Rank() int {
	switch k {
	case StateIdle:
		return 0
	case StateValidating:
		return 1
	case StateAwaitingConfirmation:
		return 2
	case StateExtracting:
		return 3
	case StateRegistering:
		return 4
	case StateComplete:
		return 5
	case StateFailed:
		return 6
	default:
		return -1
	}
}

// Busy returns true while a request is being processed and new requests must be rejected.
func (k StateKind) Busy() bool {
	return k == StateValidating || k == StateExtracting || k == StateRegistering
}

// Terminal returns true for the final states of a request.
func (k StateKind) Terminal() bool {
	return k == StateComplete || k == StateFailed
}

// InstallState is the single source of truth of the install workflow.
type InstallState struct {
	Kind        StateKind
	RequestID   string
	Destination string
	// Progress is only meaningful on extracting and later states.
	Progress int
	// Conflict is the occupied path when awaiting confirmation.
	Conflict string
	// Reason is set when failed.
	Reason error
	// Warnings are the non-fatal problems found while processing the request.
	Warnings []error
}

func (s InstallState) String() string {
	switch s.Kind {
	case StateExtracting:
		return fmt.Sprintf("%s(%d)", s.Kind, s.Progress)
	case StateAwaitingConfirmation:
		return fmt.Sprintf("%s(%s)", s.Kind, s.Conflict)
	case StateFailed:
		return fmt.Sprintf("%s(%v)", s.Kind, s.Reason)
	default:
		return string(s.Kind)
	}
}

// Checkpoint is a progress milestone emitted while extracting.
type Checkpoint struct {
	Percent int
	Phase   string
}

var (
	CheckpointStart          = Checkpoint{Percent: 0, Phase: "Starting installation"}
	CheckpointArchiveWritten = Checkpoint{Percent: 20, Phase: "Archive written"}
	CheckpointExtracted      = Checkpoint{Percent: 80, Phase: "Archive extracted"}
	CheckpointCleaned        = Checkpoint{Percent: 100, Phase: "Temporary files removed"}
)

// WarningKind is the kind of a destination warning shown to the user.
type WarningKind string

const (
	WarningUnreachable WarningKind = "unreachable"
	WarningConflict    WarningKind = "conflict"
)

// ExtractResult is the result of a successful extraction.
type ExtractResult struct {
	Destination string
	Files       int
	TempArchive string
	// CleanupErr is set when the temporary archive could not be removed. It's not fatal.
	CleanupErr error
}
