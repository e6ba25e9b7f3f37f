// Package light models a traffic light as an autonomous concurrent entity.
//
// A TrafficLight owns a background cycling task that toggles between Red and
// Green on a randomized timer and hands every new phase to a blocking message
// queue. Waiters block in WaitForGreen until a Green phase arrives through the
// queue; CurrentPhase is a non-blocking snapshot kept separately.
//
// Basic usage:
//
//	l := light.New(light.WithID("north"))
//	cycle, err := l.Simulate(ctx)
//	if err != nil {
//	    return err
//	}
//	defer cycle.Stop()
//
//	if err := l.WaitForGreenContext(ctx); err != nil {
//	    return err
//	}
package light

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/goclaw/trafficlight/pkg/logger"
	"github.com/goclaw/trafficlight/pkg/notify"
	"github.com/goclaw/trafficlight/pkg/queue"
)

// TrafficLight is a single light. The zero value is not usable; use New.
type TrafficLight struct {
	id       string
	timing   Timing
	log      logger.Logger
	notifier notify.Publisher
	metrics  MetricsRecorder
	rng      *rand.Rand

	phase atomic.Int32
	queue *queue.MessageQueue[Phase]

	started     atomic.Bool
	cycle       atomic.Pointer[Cycle]
	transitions atomic.Uint64
}

// Option configures a TrafficLight.
type Option func(*TrafficLight)

// WithID sets the light's identifier. Empty ids are ignored.
func WithID(id string) Option {
	return func(l *TrafficLight) {
		if id != "" {
			l.id = id
		}
	}
}

// WithTiming overrides the default 4-6 second phase timing.
func WithTiming(t Timing) Option {
	return func(l *TrafficLight) {
		l.timing = t
	}
}

// WithLogger sets the logger. The light adds its own id to every entry.
func WithLogger(log logger.Logger) Option {
	return func(l *TrafficLight) {
		if log != nil {
			l.log = log
		}
	}
}

// WithNotifier publishes every transition to p in addition to the queue.
func WithNotifier(p notify.Publisher) Option {
	return func(l *TrafficLight) {
		if p != nil {
			l.notifier = p
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(l *TrafficLight) {
		if m != nil {
			l.metrics = m
		}
	}
}

// WithRand sets the random source for phase durations. Only the cycling
// goroutine reads from it.
func WithRand(r *rand.Rand) Option {
	return func(l *TrafficLight) {
		if r != nil {
			l.rng = r
		}
	}
}

// New creates a light in the Red phase. Cycling starts with Simulate.
func New(opts ...Option) *TrafficLight {
	l := &TrafficLight{
		id:       uuid.NewString(),
		timing:   DefaultTiming(),
		notifier: notify.Nop{},
		metrics:  nopMetrics{},
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.log == nil {
		l.log = logger.Global()
	}
	l.log = l.log.With("component", "light", "light_id", l.id)
	if l.rng == nil {
		l.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	var qopts []queue.Option
	if qm, ok := l.metrics.(queue.MetricsRecorder); ok {
		qopts = append(qopts, queue.WithMetrics("light:"+l.id, qm))
	}
	l.queue = queue.New[Phase](qopts...)
	l.phase.Store(int32(Red))
	return l
}

// ID returns the light's identifier.
func (l *TrafficLight) ID() string {
	return l.id
}

// Timing returns the light's phase timing.
func (l *TrafficLight) Timing() Timing {
	return l.timing
}

// CurrentPhase returns a snapshot of the current phase without blocking.
func (l *TrafficLight) CurrentPhase() Phase {
	return Phase(l.phase.Load())
}

// Cycle returns the handle of the running cycling task, or nil before Simulate.
func (l *TrafficLight) Cycle() *Cycle {
	return l.cycle.Load()
}

// WaitForGreen blocks until a Green phase is received from the light's queue.
// Red phases received on the way are discarded. It returns early only if the
// light stops cycling.
func (l *TrafficLight) WaitForGreen() {
	_ = l.WaitForGreenContext(context.Background())
}

// WaitForGreenContext is WaitForGreen with cancellation. It returns ctx.Err()
// if ctx ends first and ErrStopped if the light stops with no Green pending.
func (l *TrafficLight) WaitForGreenContext(ctx context.Context) error {
	ctx, span := tracer().Start(ctx, spanWaitForGreen,
		trace.WithAttributes(attribute.String("light.id", l.id)))
	defer span.End()

	l.metrics.IncWaiters(l.id)
	defer l.metrics.DecWaiters(l.id)

	start := time.Now()
	discarded := 0
	for {
		p, err := l.queue.ReceiveContext(ctx)
		if err != nil {
			if errors.Is(err, queue.ErrClosed) {
				err = ErrStopped
			}
			l.metrics.RecordWait(l.id, waitResult(err), time.Since(start))
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
		if p == Green {
			span.SetAttributes(attribute.Int("light.discarded_red", discarded))
			l.metrics.RecordWait(l.id, "green", time.Since(start))
			return nil
		}
		discarded++
	}
}

func waitResult(err error) string {
	switch {
	case errors.Is(err, ErrStopped):
		return "stopped"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "cancelled"
	}
}

// Simulate starts the cycling task and returns its handle without blocking.
// A light cycles at most once; later calls return ErrAlreadyStarted. The task
// runs until ctx ends or the handle is stopped.
func (l *TrafficLight) Simulate(ctx context.Context) (*Cycle, error) {
	if err := l.timing.Validate(); err != nil {
		return nil, err
	}
	if !l.started.CompareAndSwap(false, true) {
		return nil, ErrAlreadyStarted
	}

	runCtx, cancel := context.WithCancelCause(ctx)
	c := &Cycle{
		lightID: l.id,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	l.cycle.Store(c)
	l.metrics.RecordPhase(l.id, l.CurrentPhase().String())

	l.log.Info("Traffic light started",
		"min_cycle", l.timing.MinCycle,
		"max_cycle", l.timing.MaxCycle,
		"phase", l.CurrentPhase().String(),
	)
	go c.run(runCtx, l.cycleThroughPhases)
	return c, nil
}

// toggle flips the phase field and returns the new phase. Only the cycling
// goroutine writes the field.
func (l *TrafficLight) toggle() Phase {
	next := Phase(l.phase.Load()).Toggle()
	l.phase.Store(int32(next))
	return next
}
