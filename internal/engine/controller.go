/*
PURPOSE:
  Orchestrates the request/response cycle against the solver.
  Owns the run state machine and the current/previous result pair.

REQUIREMENTS:
  User-specified:
  - Idle -> Requesting -> {Success, Failure} -> Idle.
  - On start, the current result becomes the previous one before the call is made.
  - At most one request in flight; a second start is ignored, not queued.
  - A failure never touches the result slots.

  Implementation-discovered:
  - The busy flag is checked here, not in the UI, so correctness does not depend
    on a button staying disabled.
  - Each request carries a sequence number; a resolution for anything but the
    latest sequence is dropped, so a late response cannot clobber a newer one.
  - Start is split into Begin/Resolve so surfaces can run the call themselves.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine (Session), internal/server, tests
  - Uses: internal/params, internal/metrics, internal/timeutil, internal/output

ERROR HANDLING:
  - Begin: ErrBusy, or a KindInvalidRequest failure under the reject bounds policy.
  - Resolve: ErrStaleResponse, or the run's *SimulationError.

IMPLEMENTATION RULES:
  - Observers and run hooks are called outside the lock.
  - No cancellation and no timeout; the transport owns timeouts.

USAGE:
  c := engine.NewController(client, store)
  res, err := c.Start(ctx)

RELATED FILES:
  - internal/engine/client.go
  - internal/engine/session.go
*/

package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/daryltucker/pfr-console/internal/metrics"
	"github.com/daryltucker/pfr-console/internal/model"
	"github.com/daryltucker/pfr-console/internal/output"
	"github.com/daryltucker/pfr-console/internal/params"
	"github.com/daryltucker/pfr-console/internal/timeutil"
)

// State is a controller state.
type State int

const (
	StateIdle State = iota
	StateRequesting
	StateSuccess
	StateFailure
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequesting:
		return "requesting"
	case StateSuccess:
		return "success"
	case StateFailure:
		return "failure"
	}
	return "unknown"
}

// ParameterSource supplies the request payload.
type ParameterSource interface {
	Get() model.SimulationParameters
}

// Ticket identifies one issued request.
type Ticket struct {
	Seq     uint64
	RunID   string
	Params  model.SimulationParameters
	Started time.Time
}

// slot is a result together with the inputs that produced it.
type slot struct {
	result *model.SimulationResult
	params model.SimulationParameters
}

// history holds at most one current and one previous result.
type history struct {
	current, previous *slot
}

func (h *history) demote() {
	if h.current != nil {
		h.previous = h.current
	}
}

func (h *history) commit(r *model.SimulationResult, p model.SimulationParameters) {
	h.current = &slot{result: r, params: p}
}

// Snapshot is a consistent view of the controller.
type Snapshot struct {
	State          State                       `json:"state"`
	LastOutcome    State                       `json:"last_outcome"`
	Seq            uint64                      `json:"seq"`
	Current        *model.SimulationResult     `json:"current,omitempty"`
	CurrentParams  *model.SimulationParameters `json:"current_params,omitempty"`
	Previous       *model.SimulationResult     `json:"previous,omitempty"`
	PreviousParams *model.SimulationParameters `json:"previous_params,omitempty"`
	LastError      string                      `json:"last_error,omitempty"`
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock sets the clock used for run timestamps.
func WithClock(c timeutil.Clock) Option {
	return func(ctl *Controller) { ctl.clock = c }
}

// WithBounds sets the domain and policy applied to the payload at Begin.
func WithBounds(d params.Domain, p params.Policy) Option {
	return func(ctl *Controller) {
		ctl.domain = d
		ctl.policy = p
	}
}

// WithObserver registers fn to receive a Snapshot after every transition.
func WithObserver(fn func(Snapshot)) Option {
	return func(ctl *Controller) { ctl.observers = append(ctl.observers, fn) }
}

// WithRunHook registers fn to receive a RunRecord for every resolved run.
func WithRunHook(fn func(model.RunRecord)) Option {
	return func(ctl *Controller) { ctl.hooks = append(ctl.hooks, fn) }
}

// Controller runs simulations one at a time.
type Controller struct {
	solver    Solver
	source    ParameterSource
	clock     timeutil.Clock
	domain    params.Domain
	policy    params.Policy
	observers []func(Snapshot)
	hooks     []func(model.RunRecord)

	mu          sync.Mutex
	state       State
	lastOutcome State
	seq         uint64
	hist        history
	lastErr     *SimulationError
}

// NewController creates an idle Controller.
func NewController(solver Solver, source ParameterSource, opts ...Option) *Controller {
	c := &Controller{
		solver: solver,
		source: source,
		clock:  timeutil.RealClock{},
		domain: params.DefaultDomain(),
		policy: params.PolicyPass,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start issues one request and blocks until it resolves.
// While another request is outstanding it returns ErrBusy and changes nothing.
func (c *Controller) Start(ctx context.Context) (*model.SimulationResult, error) {
	t, err := c.Begin()
	if err != nil {
		return nil, err
	}
	res, callErr := c.solver.Simulate(ctx, t.Params)
	if err := c.Resolve(t, res, callErr); err != nil {
		return nil, err
	}
	return res, nil
}

// Begin moves Idle -> Requesting, capturing the payload and demoting the current
// result to previous.
func (c *Controller) Begin() (Ticket, error) {
	p := c.source.Get()

	c.mu.Lock()
	if c.state == StateRequesting {
		seq := c.seq
		c.mu.Unlock()
		output.Logger.WithField("seq", seq).Debug("Simulation start ignored: request in flight")
		return Ticket{}, ErrBusy
	}

	payload, err := c.domain.Enforce(p, c.policy)
	if err != nil {
		failure := &SimulationError{Kind: KindInvalidRequest, Err: err}
		c.lastErr = failure
		c.lastOutcome = StateFailure
		snap, obs := c.snapshotLocked(), c.observers
		c.mu.Unlock()

		output.Logger.WithFields(logrus.Fields{"error": err, "policy": c.policy}).Warn("Simulation rejected before send")
		notifyAll(obs, snap)
		return Ticket{}, failure
	}

	c.seq++
	t := Ticket{
		Seq:     c.seq,
		RunID:   uuid.NewString(),
		Params:  payload,
		Started: c.clock.Now(),
	}
	c.state = StateRequesting
	c.lastErr = nil
	c.hist.demote()
	snap, obs := c.snapshotLocked(), c.observers
	c.mu.Unlock()

	output.Logger.WithFields(logrus.Fields{
		"seq":           t.Seq,
		"run_id":        t.RunID,
		"T_in":          payload.TIn,
		"Flow_Velocity": payload.FlowVelocity,
		"T_jacket":      payload.TJacket,
	}).Info("Simulation started")
	notifyAll(obs, snap)
	return t, nil
}

// Resolve completes the request identified by t with either res or callErr.
// It returns nil on success, the run's *SimulationError on failure, or
// ErrStaleResponse when t is not the outstanding request.
func (c *Controller) Resolve(t Ticket, res *model.SimulationResult, callErr error) error {
	if callErr == nil {
		if err := res.Validate(); err != nil {
			callErr = &SimulationError{Kind: KindMalformed, Err: err}
		}
	}

	c.mu.Lock()
	if c.state != StateRequesting || t.Seq != c.seq {
		latest := c.seq
		c.mu.Unlock()
		output.Logger.WithFields(logrus.Fields{"seq": t.Seq, "latest": latest}).Warn("Discarding stale simulation response")
		return ErrStaleResponse
	}

	rec := model.RunRecord{
		ID:         t.RunID,
		Seq:        t.Seq,
		Timestamp:  t.Started,
		Duration:   c.clock.Since(t.Started),
		Parameters: t.Params,
	}

	var failure *SimulationError
	if callErr != nil {
		failure = asSimulationError(callErr)
		c.lastErr = failure
		c.lastOutcome = StateFailure
		rec.Outcome = StateFailure.String()
		rec.Error = failure.Error()
	} else {
		stored := res.Clone()
		c.hist.commit(stored, t.Params)
		c.lastErr = nil
		c.lastOutcome = StateSuccess
		rec.Outcome = StateSuccess.String()
		rec.Steps = stored.Len()
		rec.FinalConversion = stored.FinalConversion
		rec.MaxTemperature = stored.MaxTemperature
		rec.HourlyProfit = metrics.Economics(stored, t.Params).HourlyProfit
		rec.EfficiencyIndex = metrics.EfficiencyIndex(stored)
	}
	c.state = StateIdle
	snap, obs := c.snapshotLocked(), c.observers
	c.mu.Unlock()

	fields := logrus.Fields{"seq": t.Seq, "run_id": t.RunID, "duration": rec.Duration}
	if failure != nil {
		fields["kind"] = failure.Kind.String()
		fields["error"] = failure.Message()
		output.Logger.WithFields(fields).Error("Simulation failed")
	} else {
		fields["steps"] = rec.Steps
		fields["conversion"] = rec.FinalConversion
		output.Logger.WithFields(fields).Info("Simulation succeeded")
	}

	notifyAll(obs, snap)
	for _, h := range c.hooks {
		h(rec)
	}
	if failure != nil {
		return failure
	}
	return nil
}

// CurrentResult returns the latest successful result, or nil.
func (c *Controller) CurrentResult() *model.SimulationResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hist.current == nil {
		return nil
	}
	return c.hist.current.result.Clone()
}

// PreviousResult returns the result that was current when the latest request began, or nil.
func (c *Controller) PreviousResult() *model.SimulationResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hist.previous == nil {
		return nil
	}
	return c.hist.previous.result.Clone()
}

// IsBusy reports whether a request is outstanding.
func (c *Controller) IsBusy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateRequesting
}

// LastError returns the operator-facing message of the latest failure, or "".
func (c *Controller) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastErr == nil {
		return ""
	}
	return c.lastErr.Error()
}

// Err returns the latest failure, or nil.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastErr == nil {
		return nil
	}
	return c.lastErr
}

// Snapshot returns a consistent view of the controller.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	s := Snapshot{
		State:       c.state,
		LastOutcome: c.lastOutcome,
		Seq:         c.seq,
	}
	if cur := c.hist.current; cur != nil {
		p := cur.params
		s.Current, s.CurrentParams = cur.result.Clone(), &p
	}
	if prev := c.hist.previous; prev != nil {
		p := prev.params
		s.Previous, s.PreviousParams = prev.result.Clone(), &p
	}
	if c.lastErr != nil {
		s.LastError = c.lastErr.Error()
	}
	return s
}

// Subscribe registers fn to receive a Snapshot after every transition.
func (c *Controller) Subscribe(fn func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

func notifyAll(obs []func(Snapshot), s Snapshot) {
	for _, fn := range obs {
		fn(s)
	}
}
