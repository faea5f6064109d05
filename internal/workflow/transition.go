package workflow

import (
	"fmt"

	"github.com/slok/instl/internal/model"
)

// EventKind is the kind of an event that drives the install workflow.
type EventKind int

const (
	// EventRequest is a new destination submitted by the user.
	EventRequest EventKind = iota
	// EventInvalid is a destination rejected by the validator as unreachable.
	EventInvalid
	// EventConflict is a destination rejected by the validator as occupied.
	EventConflict
	// EventAccepted is a destination accepted by the validator.
	EventAccepted
	// EventCheckpoint is a progress checkpoint emitted while extracting.
	EventCheckpoint
	// EventExtracted is the extraction finished successfully.
	EventExtracted
	// EventExtractFailed is the extraction aborted.
	EventExtractFailed
	// EventRegistered is the binary directory registration succeeded.
	EventRegistered
	// EventRegisterFailed is the binary directory registration failed.
	EventRegisterFailed
)

func (k EventKind) String() string {
	switch k {
	case EventRequest:
		return "request"
	case EventInvalid:
		return "invalid"
	case EventConflict:
		return "conflict"
	case EventAccepted:
		return "accepted"
	case EventCheckpoint:
		return "checkpoint"
	case EventExtracted:
		return "extracted"
	case EventExtractFailed:
		return "extract-failed"
	case EventRegistered:
		return "registered"
	case EventRegisterFailed:
		return "register-failed"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Event is an input of the install workflow state machine.
type Event struct {
	Kind      EventKind
	RequestID string
	// Path is the destination, only on request events.
	Path       string
	Checkpoint model.Checkpoint
	// Err is the cause on failure and warning events.
	Err error
}

type transition struct {
	from  []model.StateKind
	apply func(s model.InstallState, e Event) (model.InstallState, error)
}

// transitions is the state machine, keyed by event kind.
var transitions = map[EventKind]transition{
	EventRequest: {
		from: []model.StateKind{model.StateIdle, model.StateAwaitingConfirmation, model.StateComplete, model.StateFailed},
		apply: func(s model.InstallState, e Event) (model.InstallState, error) {
			if e.RequestID == "" {
				return s, fmt.Errorf("request id is required: %w", model.ErrNotValid)
			}
			// An occupied destination is never overridden, only a different one is accepted.
			if s.Kind == model.StateAwaitingConfirmation && e.Path == s.Conflict {
				return s, fmt.Errorf("destination %s is not empty: %w", e.Path, model.ErrConflict)
			}
			return model.InstallState{Kind: model.StateValidating, RequestID: e.RequestID, Destination: e.Path}, nil
		},
	},
	EventInvalid: {
		from: []model.StateKind{model.StateValidating},
		apply: func(s model.InstallState, e Event) (model.InstallState, error) {
			s.Kind = model.StateIdle
			s.Reason = e.Err
			if s.Reason == nil {
				s.Reason = fmt.Errorf("destination %s is not reachable: %w", s.Destination, model.ErrUnreachable)
			}
			return s, nil
		},
	},
	EventConflict: {
		from: []model.StateKind{model.StateValidating},
		apply: func(s model.InstallState, e Event) (model.InstallState, error) {
			s.Kind = model.StateAwaitingConfirmation
			s.Conflict = s.Destination
			return s, nil
		},
	},
	EventAccepted: {
		from: []model.StateKind{model.StateValidating},
		apply: func(s model.InstallState, e Event) (model.InstallState, error) {
			s.Kind = model.StateExtracting
			s.Progress = 0
			return s, nil
		},
	},
	EventCheckpoint: {
		from: []model.StateKind{model.StateExtracting},
		apply: func(s model.InstallState, e Event) (model.InstallState, error) {
			p := e.Checkpoint.Percent
			if p < 0 || p > 100 {
				return s, fmt.Errorf("checkpoint %d out of range: %w", p, model.ErrNotValid)
			}
			if p < s.Progress {
				return s, fmt.Errorf("checkpoint %d is behind progress %d: %w", p, s.Progress, model.ErrNotValid)
			}
			s.Progress = p
			return s, nil
		},
	},
	EventExtracted: {
		from: []model.StateKind{model.StateExtracting},
		apply: func(s model.InstallState, e Event) (model.InstallState, error) {
			if s.Progress != 100 {
				return s, fmt.Errorf("extraction finished at %d: %w", s.Progress, model.ErrNotValid)
			}
			s.Kind = model.StateRegistering
			s.Warnings = appendWarning(s.Warnings, e.Err)
			return s, nil
		},
	},
	EventExtractFailed: {
		from: []model.StateKind{model.StateExtracting},
		apply: func(s model.InstallState, e Event) (model.InstallState, error) {
			s.Kind = model.StateFailed
			s.Reason = e.Err
			if s.Reason == nil {
				s.Reason = fmt.Errorf("extraction failed: %w", model.ErrIO)
			}
			return s, nil
		},
	},
	EventRegistered: {
		from: []model.StateKind{model.StateRegistering},
		apply: func(s model.InstallState, e Event) (model.InstallState, error) {
			s.Kind = model.StateComplete
			return s, nil
		},
	},
	EventRegisterFailed: {
		from: []model.StateKind{model.StateRegistering},
		apply: func(s model.InstallState, e Event) (model.InstallState, error) {
			s.Kind = model.StateComplete
			s.Warnings = appendWarning(s.Warnings, e.Err)
			return s, nil
		},
	},
}

// Transition returns the state that results of applying the event to the state.
// The input state is never modified. Within a request, states only move forward;
// the exceptions are failed, which is final, and idle, which drops the request.
func Transition(s model.InstallState, e Event) (model.InstallState, error) {
	t, ok := transitions[e.Kind]
	if !ok {
		return s, fmt.Errorf("unknown event %s: %w", e.Kind, model.ErrNotValid)
	}

	if !stateIn(s.Kind, t.from) {
		if e.Kind == EventRequest && s.Kind.Busy() {
			return s, fmt.Errorf("install %s is %s: %w", s.RequestID, s.Kind, model.ErrBusy)
		}
		return s, fmt.Errorf("event %s not allowed on state %s: %w", e.Kind, s.Kind, model.ErrNotValid)
	}

	if e.Kind != EventRequest && e.RequestID != s.RequestID {
		return s, fmt.Errorf("event %s belongs to request %q, current is %q: %w", e.Kind, e.RequestID, s.RequestID, model.ErrNotValid)
	}

	next, err := t.apply(cloneState(s), e)
	if err != nil {
		return s, err
	}

	if next.RequestID == s.RequestID && next.Kind != model.StateFailed && next.Kind != model.StateIdle && next.Kind.Rank() < s.Kind.Rank() {
		return s, fmt.Errorf("transition %s -> %s moves backwards: %w", s.Kind, next.Kind, model.ErrNotValid)
	}

	return next, nil
}

func stateIn(k model.StateKind, ks []model.StateKind) bool {
	for _, kk := range ks {
		if k == kk {
			return true
		}
	}
	return false
}

func cloneState(s model.InstallState) model.InstallState {
	if s.Warnings != nil {
		s.Warnings = append([]error(nil), s.Warnings...)
	}
	return s
}

func appendWarning(ws []error, err error) []error {
	if err == nil {
		return ws
	}
	return append(ws, err)
}
