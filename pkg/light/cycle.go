package light

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/goclaw/trafficlight/pkg/notify"
)

// Cycle is the handle of a light's cycling task.
type Cycle struct {
	lightID string
	cancel  context.CancelCauseFunc
	done    chan struct{}

	mu  sync.Mutex
	err error
}

// Stop asks the cycling task to finish. It returns immediately; use Wait to
// block until the task has exited. Stop is idempotent.
func (c *Cycle) Stop() {
	c.cancel(errStopRequested)
}

// Done is closed once the cycling task has exited.
func (c *Cycle) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the cycling task exits and returns Err, or returns
// ctx.Err() if ctx ends first.
func (c *Cycle) Wait(ctx context.Context) error {
	select {
	case <-c.done:
		return c.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the reason the task ended: nil after Stop, the parent
// context's cause when it was cancelled, or a recovered panic.
func (c *Cycle) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Cycle) run(ctx context.Context, fn func(context.Context) error) {
	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("traffic light %s cycle panic: %v", c.lightID, r)
		}
		c.mu.Lock()
		c.err = err
		c.mu.Unlock()
		c.cancel(errStopRequested)
		close(c.done)
	}()
	err = fn(ctx)
}

// cycleThroughPhases toggles the phase until ctx ends. The phase field is
// always written before the matching message is queued.
func (l *TrafficLight) cycleThroughPhases(ctx context.Context) error {
	defer l.queue.Close()

	for {
		start := time.Now()
		if !sleep(ctx, l.timing.draw(l.rng)) {
			return l.exitReason(ctx)
		}

		spanCtx, span := tracer().Start(ctx, spanCycle)
		next := l.toggle()
		elapsed := time.Since(start)

		var g errgroup.Group
		g.Go(func() error {
			l.queue.Send(next)
			return nil
		})
		_ = g.Wait()

		seq := l.transitions.Add(1)
		l.metrics.RecordTransition(l.id, next.String(), elapsed)
		span.SetAttributes(
			attribute.String("light.id", l.id),
			attribute.String("light.phase", next.String()),
			attribute.Int64("light.seq", int64(seq)),
		)
		l.log.DebugContext(spanCtx, "Phase changed",
			"phase", next.String(),
			"seq", seq,
			"elapsed_ms", elapsed.Milliseconds(),
		)
		l.publish(spanCtx, next, seq, elapsed)
		span.End()

		if !sleep(ctx, l.timing.Throttle) {
			return l.exitReason(ctx)
		}
	}
}

func (l *TrafficLight) publish(ctx context.Context, p Phase, seq uint64, elapsed time.Duration) {
	err := l.notifier.Publish(ctx, &notify.Transition{
		LightID: l.id,
		Phase:   p.String(),
		Seq:     seq,
		Elapsed: elapsed,
		At:      time.Now(),
	})
	if err != nil {
		l.log.WarnContext(ctx, "Failed to publish transition", "phase", p.String(), "seq", seq, "error", err)
	}
}

func (l *TrafficLight) exitReason(ctx context.Context) error {
	cause := context.Cause(ctx)
	l.log.Info("Traffic light stopped",
		"transitions", l.transitions.Load(),
		"phase", l.CurrentPhase().String(),
	)
	if errors.Is(cause, errStopRequested) {
		return nil
	}
	return cause
}

// sleep waits for d and reports whether it elapsed before ctx ended.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
