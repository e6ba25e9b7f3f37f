package light

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "red", Red.String())
	assert.Equal(t, "green", Green.String())
	assert.Equal(t, "unknown", Phase(7).String())
}

func TestPhase_Toggle(t *testing.T) {
	assert.Equal(t, Green, Red.Toggle())
	assert.Equal(t, Red, Green.Toggle())
}

func TestTiming_Validate(t *testing.T) {
	tests := []struct {
		name    string
		timing  Timing
		wantErr bool
	}{
		{"default", DefaultTiming(), false},
		{"equal bounds", Timing{MinCycle: time.Second, MaxCycle: time.Second, Throttle: time.Millisecond}, false},
		{"inverted", Timing{MinCycle: 2 * time.Second, MaxCycle: time.Second, Throttle: time.Millisecond}, true},
		{"zero min", Timing{MaxCycle: time.Second, Throttle: time.Millisecond}, true},
		{"negative max", Timing{MinCycle: time.Second, MaxCycle: -time.Second, Throttle: time.Millisecond}, true},
		{"zero throttle", Timing{MinCycle: time.Second, MaxCycle: time.Second}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.timing.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTiming)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTiming_DrawWithinBounds(t *testing.T) {
	timing := DefaultTiming()
	r := rand.New(rand.NewPCG(42, 7))

	var sawLow, sawHigh bool
	for i := 0; i < 5000; i++ {
		d := timing.draw(r)
		assert.GreaterOrEqual(t, d, timing.MinCycle)
		assert.LessOrEqual(t, d, timing.MaxCycle)
		assert.Zero(t, d%time.Millisecond, "draw %s is not whole milliseconds", d)
		if d < timing.MinCycle+500*time.Millisecond {
			sawLow = true
		}
		if d > timing.MaxCycle-500*time.Millisecond {
			sawHigh = true
		}
	}
	assert.True(t, sawLow, "no draw in the lower quarter")
	assert.True(t, sawHigh, "no draw in the upper quarter")
}

func TestTiming_DrawDeterministic(t *testing.T) {
	timing := DefaultTiming()
	a := rand.New(rand.NewPCG(1, 2))
	b := rand.New(rand.NewPCG(1, 2))

	for i := 0; i < 20; i++ {
		assert.Equal(t, timing.draw(a), timing.draw(b))
	}
}

func TestTiming_DrawNarrowRange(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))

	fixed := Timing{MinCycle: 5 * time.Millisecond, MaxCycle: 5 * time.Millisecond, Throttle: time.Millisecond}
	assert.Equal(t, 5*time.Millisecond, fixed.draw(r))

	narrow := Timing{MinCycle: time.Millisecond, MaxCycle: time.Millisecond + 500*time.Microsecond, Throttle: time.Millisecond}
	for i := 0; i < 100; i++ {
		d := narrow.draw(r)
		assert.GreaterOrEqual(t, d, narrow.MinCycle)
		assert.LessOrEqual(t, d, narrow.MaxCycle)
	}
}
