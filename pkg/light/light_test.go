package light

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goclaw/trafficlight/pkg/logger"
	"github.com/goclaw/trafficlight/pkg/notify"
)

var fastTiming = Timing{
	MinCycle: 20 * time.Millisecond,
	MaxCycle: 30 * time.Millisecond,
	Throttle: time.Millisecond,
}

// slowTiming leaves enough room after a transition to inspect the light
// before the next one.
var slowTiming = Timing{
	MinCycle: 200 * time.Millisecond,
	MaxCycle: 300 * time.Millisecond,
	Throttle: time.Millisecond,
}

func newTestLight(t *testing.T, timing Timing, opts ...Option) *TrafficLight {
	t.Helper()
	opts = append([]Option{
		WithTiming(timing),
		WithLogger(logger.NewDiscard()),
		WithRand(rand.New(rand.NewPCG(1, 2))),
	}, opts...)
	return New(opts...)
}

func startLight(t *testing.T, l *TrafficLight) *Cycle {
	t.Helper()
	c, err := l.Simulate(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() {
		c.Stop()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = c.Wait(ctx)
	})
	return c
}

func TestNew_Defaults(t *testing.T) {
	l := New(WithLogger(logger.NewDiscard()))

	assert.Equal(t, Red, l.CurrentPhase())
	assert.NotEmpty(t, l.ID())
	assert.Equal(t, DefaultTiming(), l.Timing())
	assert.Nil(t, l.Cycle())
}

func TestNew_WithID(t *testing.T) {
	l := New(WithID("north"), WithID(""), WithLogger(logger.NewDiscard()))
	assert.Equal(t, "north", l.ID())
}

func TestSimulate_Twice(t *testing.T) {
	l := newTestLight(t, fastTiming)
	c := startLight(t, l)
	assert.Same(t, c, l.Cycle())

	_, err := l.Simulate(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyStarted)
}

func TestSimulate_AfterStopStillRejected(t *testing.T) {
	l := newTestLight(t, fastTiming)
	c, err := l.Simulate(context.Background())
	require.NoError(t, err)
	c.Stop()
	require.NoError(t, c.Wait(context.Background()))

	_, err = l.Simulate(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyStarted)
}

func TestSimulate_InvalidTiming(t *testing.T) {
	l := newTestLight(t, Timing{MinCycle: 50 * time.Millisecond, MaxCycle: 10 * time.Millisecond, Throttle: time.Millisecond})

	_, err := l.Simulate(context.Background())
	assert.ErrorIs(t, err, ErrInvalidTiming)
	assert.Nil(t, l.Cycle())
}

func TestSimulate_DoesNotBlock(t *testing.T) {
	l := New(WithLogger(logger.NewDiscard()))

	start := time.Now()
	c, err := l.Simulate(context.Background())
	require.NoError(t, err)
	defer c.Stop()

	assert.Less(t, time.Since(start), 100*time.Millisecond)
	assert.Equal(t, Red, l.CurrentPhase())
}

func TestWaitForGreen_ReturnsOnGreen(t *testing.T) {
	l := newTestLight(t, slowTiming)
	require.Equal(t, Red, l.CurrentPhase())
	startLight(t, l)

	ctx, cancel := context.WithTimeout(context.Background(), 15*slowTiming.MaxCycle)
	defer cancel()

	require.NoError(t, l.WaitForGreenContext(ctx))
	assert.Equal(t, Green, l.CurrentPhase())
}

func TestWaitForGreen_DefaultTiming(t *testing.T) {
	if testing.Short() {
		t.Skip("runs a full default-length phase")
	}
	l := New(WithLogger(logger.NewDiscard()))
	startLight(t, l)

	done := make(chan struct{})
	go func() {
		defer close(done)
		l.WaitForGreen()
	}()

	select {
	case <-done:
		assert.Equal(t, Green, l.CurrentPhase())
	case <-time.After(15 * time.Second):
		t.Fatal("WaitForGreen did not return within 15s")
	}
}

func TestWaitForGreen_IgnoresRed(t *testing.T) {
	l := newTestLight(t, fastTiming)
	l.queue.Send(Red)
	l.queue.Send(Red)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.WaitForGreenContext(ctx), context.DeadlineExceeded)
	assert.Equal(t, 0, l.queue.Len())

	l.queue.Send(Red)
	l.queue.Send(Green)
	l.queue.Send(Red)
	require.NoError(t, l.WaitForGreenContext(context.Background()))
	assert.Equal(t, 1, l.queue.Len(), "messages after the first green stay queued")
}

func TestWaitForGreen_ManyWaitersAllReturn(t *testing.T) {
	l := newTestLight(t, fastTiming)
	const waiters = 5

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	errs := make(chan error, waiters)
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- l.WaitForGreenContext(ctx)
		}()
	}

	// All waiters are blocked before the first toggle.
	time.Sleep(10 * time.Millisecond)
	require.Equal(t, Red, l.CurrentPhase())
	startLight(t, l)

	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestCycle_Alternation(t *testing.T) {
	l := newTestLight(t, fastTiming)
	startLight(t, l)

	prev := Red
	for i := 0; i < 12; i++ {
		got := l.queue.Receive()
		require.NotEqual(t, prev, got, "message %d repeats phase %s", i, got)
		prev = got
	}
}

func TestCycle_FieldUpdatedBeforeMessage(t *testing.T) {
	l := newTestLight(t, slowTiming)
	startLight(t, l)

	for i := 0; i < 3; i++ {
		got := l.queue.Receive()
		assert.Equal(t, got, l.CurrentPhase())
	}
}

func TestCycle_TimingBounds(t *testing.T) {
	timing := Timing{
		MinCycle: 100 * time.Millisecond,
		MaxCycle: 150 * time.Millisecond,
		Throttle: time.Millisecond,
	}
	const tolerance = 50 * time.Millisecond

	bus := notify.NewLocalBus(32)
	defer bus.Close()
	sub, err := bus.Subscribe("timing")
	require.NoError(t, err)

	l := newTestLight(t, timing, WithNotifier(bus))
	startLight(t, l)

	var transitions []*notify.Transition
	deadline := time.After(5 * time.Second)
	for len(transitions) < 8 {
		select {
		case tr := <-sub:
			transitions = append(transitions, tr)
		case <-deadline:
			t.Fatalf("only %d transitions received", len(transitions))
		}
	}

	var total time.Duration
	for i, tr := range transitions {
		assert.Equal(t, uint64(i+1), tr.Seq)
		assert.Equal(t, l.ID(), tr.LightID)
		assert.GreaterOrEqual(t, tr.Elapsed, timing.MinCycle)
		assert.LessOrEqual(t, tr.Elapsed, timing.MaxCycle+tolerance)
		if i == 0 {
			continue
		}
		gap := tr.At.Sub(transitions[i-1].At)
		total += gap
		assert.GreaterOrEqual(t, gap, timing.MinCycle)
		assert.LessOrEqual(t, gap, timing.MaxCycle+timing.Throttle+tolerance)
	}

	mean := total / time.Duration(len(transitions)-1)
	assert.GreaterOrEqual(t, mean, timing.MinCycle)
	assert.LessOrEqual(t, mean, timing.MaxCycle+timing.Throttle+tolerance)
}

func TestCycle_StopWakesWaiters(t *testing.T) {
	l := newTestLight(t, Timing{MinCycle: time.Hour, MaxCycle: time.Hour, Throttle: time.Millisecond})
	c, err := l.Simulate(context.Background())
	require.NoError(t, err)

	errs := make(chan error, 3)
	for i := 0; i < 3; i++ {
		go func() {
			errs <- l.WaitForGreenContext(context.Background())
		}()
	}
	time.Sleep(20 * time.Millisecond)

	c.Stop()
	c.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, c.Wait(ctx))

	select {
	case <-c.Done():
	default:
		t.Fatal("Done not closed after Wait")
	}

	for i := 0; i < 3; i++ {
		select {
		case err := <-errs:
			assert.ErrorIs(t, err, ErrStopped)
		case <-time.After(time.Second):
			t.Fatal("waiter not released by stop")
		}
	}
	assert.Equal(t, Red, l.CurrentPhase())
}

func TestCycle_ParentContextCancel(t *testing.T) {
	l := newTestLight(t, fastTiming)
	ctx, cancel := context.WithCancel(context.Background())

	c, err := l.Simulate(ctx)
	require.NoError(t, err)
	cancel()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), time.Second)
	defer waitCancel()
	err = c.Wait(waitCtx)
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
	assert.ErrorIs(t, c.Err(), context.Canceled)
}

func TestCycle_WaitTimeout(t *testing.T) {
	l := newTestLight(t, fastTiming)
	c := startLight(t, l)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.Wait(ctx), context.DeadlineExceeded)
}

func TestWaitForGreen_Cancelled(t *testing.T) {
	l := newTestLight(t, fastTiming)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, l.WaitForGreenContext(ctx), context.DeadlineExceeded)
}

type failingPublisher struct {
	mu    sync.Mutex
	calls int
}

func (p *failingPublisher) Publish(context.Context, *notify.Transition) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return errors.New("observer unavailable")
}

func (p *failingPublisher) Close() error { return nil }

func TestCycle_NotifierFailureIsNotFatal(t *testing.T) {
	pub := &failingPublisher{}
	l := newTestLight(t, fastTiming, WithNotifier(pub))
	c := startLight(t, l)

	// The fifth send happens after the fourth publish.
	for i := 0; i < 5; i++ {
		l.queue.Receive()
	}
	select {
	case <-c.Done():
		t.Fatal("cycle exited after notifier failure")
	default:
	}

	pub.mu.Lock()
	defer pub.mu.Unlock()
	assert.GreaterOrEqual(t, pub.calls, 4)
}

type recordingMetrics struct {
	mu          sync.Mutex
	phases      []string
	transitions []string
	waiters     int
	waits       []string
	depths      []int
}

func (m *recordingMetrics) RecordPhase(_ string, phase string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.phases = append(m.phases, phase)
}

func (m *recordingMetrics) RecordTransition(_ string, phase string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions = append(m.transitions, phase)
}

func (m *recordingMetrics) IncWaiters(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.waiters++
}

func (m *recordingMetrics) DecWaiters(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.waiters--
}

func (m *recordingMetrics) RecordWait(_ string, result string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.waits = append(m.waits, result)
}

func (m *recordingMetrics) SetQueueDepth(_ string, depth int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.depths = append(m.depths, depth)
}

func (m *recordingMetrics) RecordQueueDrop(string) {}

func TestLight_Metrics(t *testing.T) {
	rec := &recordingMetrics{}
	l := newTestLight(t, fastTiming, WithMetrics(rec))
	c := startLight(t, l)

	require.NoError(t, l.WaitForGreenContext(context.Background()))
	c.Stop()
	require.NoError(t, c.Wait(context.Background()))

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.NotEmpty(t, rec.transitions)
	assert.Equal(t, "green", rec.transitions[0])
	assert.Equal(t, 0, rec.waiters)
	assert.Equal(t, []string{"green"}, rec.waits)
	assert.NotEmpty(t, rec.depths)
}

func TestLight_MetricsInitialPhase(t *testing.T) {
	rec := &recordingMetrics{}
	l := newTestLight(t, Timing{MinCycle: time.Hour, MaxCycle: time.Hour, Throttle: time.Millisecond}, WithMetrics(rec))

	rec.mu.Lock()
	assert.Empty(t, rec.phases, "nothing recorded before Simulate")
	rec.mu.Unlock()

	startLight(t, l)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, []string{"red"}, rec.phases)
	assert.Empty(t, rec.transitions)
}
