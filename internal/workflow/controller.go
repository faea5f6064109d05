package workflow

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/oklog/ulid/v2"

	"github.com/slok/instl/internal/extract"
	"github.com/slok/instl/internal/log"
	"github.com/slok/instl/internal/model"
	"github.com/slok/instl/internal/pathcheck"
	"github.com/slok/instl/internal/registrar"
	"github.com/slok/instl/internal/storage"
)

// ErrStopped is returned when a request is submitted to a controller that is not running.
var ErrStopped = errors.New("controller stopped")

// ControllerConfig is the configuration for the install workflow controller.
type ControllerConfig struct {
	Payload   model.ArchivePayload
	Validator Validator
	Installer Installer
	Registrar registrar.Registrar
	Bridge    Bridge
	// Repository is optional, when set every state change is journaled.
	Repository storage.InstallRepository
	IDGen      func() string
	TimeNow    func() time.Time
	Logger     log.Logger
}

func (c *ControllerConfig) defaults() error {
	if err := c.Payload.Validate(); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	if c.Validator == nil {
		return fmt.Errorf("validator is required")
	}
	if c.Installer == nil {
		return fmt.Errorf("installer is required")
	}
	if c.Registrar == nil {
		c.Registrar = registrar.Noop
	}
	if c.Bridge == nil {
		c.Bridge = NoopBridge{}
	}
	if c.IDGen == nil {
		c.IDGen = func() string { return ulid.Make().String() }
	}
	if c.TimeNow == nil {
		c.TimeNow = func() time.Time { return time.Now().UTC() }
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "workflow.Controller"})
	return nil
}

type request struct {
	id    string
	path  string
	reply chan error
}

type workerEvent struct {
	Event
	// last is set on the final event of a request worker.
	last bool
}

// Controller runs the install workflow. A single goroutine (Run) owns the state
// and applies every transition, the steps of an install run on a worker goroutine
// that reports back with events. At most one install runs at a time.
type Controller struct {
	cfg    ControllerConfig
	logger log.Logger

	requests chan request
	events   chan workerEvent
	stopped  chan struct{}

	// Only written by the Run goroutine, mu is for the readers.
	mu        sync.RWMutex
	state     model.InstallState
	idle      chan struct{}
	createdAt time.Time
}

// NewController returns a new install workflow controller.
func NewController(cfg ControllerConfig) (*Controller, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	idle := make(chan struct{})
	close(idle)

	return &Controller{
		cfg:      cfg,
		logger:   cfg.Logger,
		requests: make(chan request),
		events:   make(chan workerEvent),
		stopped:  make(chan struct{}),
		state:    model.InstallState{Kind: model.StateIdle},
		idle:     idle,
	}, nil
}

// State returns a copy of the current install state.
func (c *Controller) State() model.InstallState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneState(c.state)
}

// Confirm submits a destination for installation and returns the request ID.
// The install continues in background, the result is notified on the bridge.
// Returns model.ErrBusy when another request is being processed.
func (c *Controller) Confirm(ctx context.Context, path string) (string, error) {
	// Unresolvable paths go through as they are, validation rejects them.
	dst, err := pathcheck.Normalize(path)
	if err != nil {
		dst = strings.TrimSpace(path)
	}

	r := request{id: c.cfg.IDGen(), path: dst, reply: make(chan error, 1)}
	select {
	case c.requests <- r:
	case <-c.stopped:
		return "", ErrStopped
	case <-ctx.Done():
		return "", ctx.Err()
	}

	select {
	case err := <-r.reply:
		if err != nil {
			return "", err
		}
		return r.id, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Wait blocks until no request is in flight and returns the current state.
func (c *Controller) Wait(ctx context.Context) (model.InstallState, error) {
	c.mu.RLock()
	idle := c.idle
	c.mu.RUnlock()

	select {
	case <-idle:
		return c.State(), nil
	case <-ctx.Done():
		return c.State(), ctx.Err()
	}
}

// Run processes requests and workflow events until the context is cancelled.
// An install that already started is not cancelled, Run returns when it ends.
func (c *Controller) Run(ctx context.Context) error {
	defer close(c.stopped)

	logger := c.logger.WithCtxValues(ctx)
	logger.Debugf("Controller started")

	done := ctx.Done()
	inFlight := false
	for {
		select {
		case <-done:
			if !inFlight {
				logger.Debugf("Controller stopped")
				return nil
			}
			logger.Infof("Waiting for install %s to finish", c.State().RequestID)
			done = nil

		case r := <-c.requests:
			if done == nil {
				r.reply <- ErrStopped
				continue
			}
			err := c.handleRequest(ctx, r)
			r.reply <- err
			if err == nil {
				inFlight = true
			}

		case e := <-c.events:
			c.handleEvent(ctx, e.Event)
			if e.last {
				inFlight = false
				c.mu.Lock()
				close(c.idle)
				c.mu.Unlock()

				if done == nil {
					logger.Debugf("Controller stopped")
					return nil
				}
			}
		}
	}
}

func (c *Controller) handleRequest(ctx context.Context, r request) error {
	prev := c.State()
	next, err := Transition(prev, Event{Kind: EventRequest, RequestID: r.id, Path: r.path})
	if err != nil {
		c.logger.Warningf("Request for %s rejected: %s", r.path, err)
		if errors.Is(err, model.ErrConflict) {
			c.notify("show_warning", c.cfg.Bridge.ShowWarning(model.WarningConflict))
		}
		return err
	}

	c.mu.Lock()
	c.idle = make(chan struct{})
	c.createdAt = c.cfg.TimeNow()
	c.mu.Unlock()

	c.setState(ctx, next)

	// The install can't be cancelled once accepted.
	go c.work(context.WithoutCancel(ctx), next.RequestID, next.Destination)

	return nil
}

func (c *Controller) handleEvent(ctx context.Context, e Event) {
	prev := c.State()
	next, err := Transition(prev, e)
	if err != nil {
		c.logger.Errorf("Could not apply event %s on %s: %s", e.Kind, prev, err)
		return
	}
	c.setState(ctx, next)

	b := c.cfg.Bridge
	switch e.Kind {
	case EventInvalid:
		c.notify("show_warning", b.ShowWarning(model.WarningUnreachable))
	case EventConflict:
		c.notify("show_warning", b.ShowWarning(model.WarningConflict))
	case EventAccepted:
		c.notify("show_progress_view", b.ShowProgressView())
	case EventCheckpoint:
		c.notify("update_progress", b.UpdateProgress(e.Checkpoint.Percent, e.Checkpoint.Phase))
	}

	if next.Kind.Terminal() {
		if merr := multierror.Append(nil, next.Warnings...).ErrorOrNil(); merr != nil {
			c.logger.Warningf("Install %s finished with warnings: %s", next.RequestID, merr)
		}
		c.notify("show_terminal_view", b.ShowTerminalView(cloneState(next)))
		c.notify("enable_continue_button", b.EnableContinueButton())
	}
}

func (c *Controller) setState(ctx context.Context, s model.InstallState) {
	c.mu.Lock()
	c.state = s
	createdAt := c.createdAt
	c.mu.Unlock()

	c.logger.Debugf("Install %s: %s", s.RequestID, s)

	if c.cfg.Repository == nil {
		return
	}
	// Journal the final states even when stopping.
	err := c.cfg.Repository.SaveInstall(context.WithoutCancel(ctx), stateRecord(s, createdAt, c.cfg.TimeNow()))
	if err != nil {
		c.logger.Warningf("Could not journal install %s: %s", s.RequestID, err)
	}
}

func (c *Controller) notify(callback string, err error) {
	if err != nil {
		c.logger.Warningf("Front end %s notification failed: %s", callback, err)
	}
}

// work runs the steps of a request in order, reporting every result as an event.
func (c *Controller) work(ctx context.Context, id, dst string) {
	logger := c.logger.WithValues(log.Kv{"request": id})
	ctx = logger.SetValuesOnCtx(ctx, log.Kv{"request": id})

	send := func(e Event, last bool) {
		e.RequestID = id
		c.events <- workerEvent{Event: e, last: last}
	}

	verdict, err := c.cfg.Validator.Validate(ctx, dst)
	if err != nil {
		logger.Warningf("Could not validate %s: %s", dst, err)
		send(Event{Kind: EventInvalid, Err: fmt.Errorf("destination %s is not reachable: %w: %w", dst, model.ErrUnreachable, err)}, true)
		return
	}

	logger.Infof("Destination %s verdict: %s", dst, verdict)
	switch {
	case verdict.CanProceed():
		send(Event{Kind: EventAccepted}, false)
	case verdict == model.VerdictConflict:
		send(Event{Kind: EventConflict}, true)
		return
	default:
		send(Event{Kind: EventInvalid}, true)
		return
	}

	res, err := c.cfg.Installer.Install(ctx, extract.InstallOptions{
		Payload:     c.cfg.Payload,
		Destination: dst,
		Create:      verdict == model.VerdictProceedAfterCreate,
		OnCheckpoint: func(cp model.Checkpoint) {
			send(Event{Kind: EventCheckpoint, Checkpoint: cp}, false)
		},
	})
	if err != nil {
		logger.Errorf("Install into %s failed: %s", dst, err)
		send(Event{Kind: EventExtractFailed, Err: err}, true)
		return
	}

	var cleanupErr error
	if res != nil && res.CleanupErr != nil {
		cleanupErr = fmt.Errorf("temporary archive %s was not removed: %w", res.TempArchive, res.CleanupErr)
	}
	send(Event{Kind: EventExtracted, Err: cleanupErr}, false)

	binDir := filepath.Join(dst, c.cfg.Payload.BinDir())
	if err := c.cfg.Registrar.Register(ctx, binDir); err != nil {
		logger.Warningf("Could not register %s: %s", binDir, err)
		send(Event{Kind: EventRegisterFailed, Err: fmt.Errorf("could not register %s: %w", binDir, err)}, true)
		return
	}

	logger.Infof("Installed into %s", dst)
	send(Event{Kind: EventRegistered}, true)
}

func stateRecord(s model.InstallState, createdAt, now time.Time) model.InstallRecord {
	rec := model.InstallRecord{
		ID:          s.RequestID,
		Destination: s.Destination,
		State:       s.Kind,
		Progress:    s.Progress,
		CreatedAt:   createdAt,
		UpdatedAt:   now,
	}
	if s.Reason != nil {
		rec.Reason = s.Reason.Error()
	}
	for _, w := range s.Warnings {
		rec.Warnings = append(rec.Warnings, w.Error())
	}
	return rec
}
