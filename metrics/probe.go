package metrics

import (
	"context"
	"log/slog"

	"braces.dev/errtrace"
	"github.com/qmuntal/stateless"

	"github.com/ghettovoice/sinkuri/internal/types"
	"github.com/ghettovoice/sinkuri/uri"
)

// ProbeState is a startup state of a sink host observed by [Probe].
type ProbeState string

const (
	// ProbePending means the host has not reported that it started yet.
	ProbePending ProbeState = "pending"
	// ProbeStarted means the started gauge is set, but no events were processed since.
	ProbeStarted ProbeState = "started"
	// ProbeProcessing means the processed events counter grows.
	ProbeProcessing ProbeState = "processing"
	// ProbeFailed means the processed events counter went down, the host was restarted.
	// The state is final.
	ProbeFailed ProbeState = "failed"

	probeRunning ProbeState = "running"
)

type probeTrigger string

const (
	triggerNotStarted probeTrigger = "not_started"
	triggerStarted    probeTrigger = "started"
	triggerProgress   probeTrigger = "progress"
	triggerRegress    probeTrigger = "regress"
)

// Probe tracks the startup of a sink host through its metrics endpoint:
//
//	pending -> started -> processing
//	started, processing -> failed
//
// Each [Probe.Check] performs a single load, polling is up to the caller.
// Probe is not safe for concurrent use.
type Probe struct {
	client    *Client
	endpoint  uri.URI
	sm        *stateless.StateMachine
	processed uint64
	onChange  types.Callbacks[ProbeStateFunc]
}

// ProbeStateFunc is called by [Probe.Check] after the probe state has changed.
type ProbeStateFunc func(ctx context.Context, from, to ProbeState)

// NewProbe creates a probe of the endpoint in the [ProbePending] state.
// A nil client means the zero [Client].
func NewProbe(client *Client, endpoint uri.URI) *Probe {
	if client == nil {
		client = &Client{}
	}
	p := &Probe{
		client:   client,
		endpoint: endpoint,
		sm:       stateless.NewStateMachine(ProbePending),
	}

	p.sm.Configure(ProbePending).
		Permit(triggerStarted, ProbeStarted).
		Permit(triggerProgress, ProbeStarted).
		Ignore(triggerNotStarted).
		Ignore(triggerRegress)

	p.sm.Configure(probeRunning).
		Permit(triggerRegress, ProbeFailed).
		Ignore(triggerNotStarted)

	p.sm.Configure(ProbeStarted).
		SubstateOf(probeRunning).
		Permit(triggerProgress, ProbeProcessing).
		Ignore(triggerStarted)

	p.sm.Configure(ProbeProcessing).
		SubstateOf(probeRunning).
		Ignore(triggerProgress).
		Ignore(triggerStarted)

	p.sm.Configure(ProbeFailed).
		Ignore(triggerNotStarted).
		Ignore(triggerStarted).
		Ignore(triggerProgress).
		Ignore(triggerRegress)

	p.sm.OnTransitioned(func(ctx context.Context, t stateless.Transition) {
		p.client.logger().LogAttrs(ctx, slog.LevelDebug, "probe state changed",
			slog.Any("endpoint", p.endpoint),
			slog.Any("from", t.Source),
			slog.Any("to", t.Destination),
			slog.Any("trigger", t.Trigger),
		)
		from, to := t.Source.(ProbeState), t.Destination.(ProbeState) //nolint:forcetypeassert
		for fn := range p.onChange.All() {
			fn(ctx, from, to)
		}
	})
	return p
}

// OnStateChange registers a callback of state changes.
// The returned function unregisters it.
func (p *Probe) OnStateChange(fn ProbeStateFunc) (remove func()) { return p.onChange.Add(fn) }

// State returns the current state.
func (p *Probe) State() ProbeState { return p.sm.MustState().(ProbeState) }

// Processed returns the processed events sum seen by the last successful check.
func (p *Probe) Processed() uint64 { return p.processed }

// Check loads the metrics once and advances the state.
// A failed load leaves the state unchanged.
func (p *Probe) Check(ctx context.Context) (ProbeState, error) {
	text, err := p.client.Load(ctx, p.endpoint)
	if err != nil {
		return p.State(), errtrace.Wrap(err)
	}
	n, err := EventsProcessedSum(text)
	if err != nil {
		return p.State(), errtrace.Wrap(err)
	}

	var trigger probeTrigger
	switch {
	case n < p.processed:
		trigger = triggerRegress
	case !Started(text):
		trigger = triggerNotStarted
	case n > p.processed:
		trigger = triggerProgress
	default:
		trigger = triggerStarted
	}
	p.processed = n

	if err := p.sm.FireCtx(ctx, trigger); err != nil {
		return p.State(), errtrace.Wrap(err)
	}
	return p.State(), nil
}
