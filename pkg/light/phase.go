package light

// Phase is the signal state of a light.
type Phase int32

const (
	Red Phase = iota
	Green
)

// String returns "red" or "green".
func (p Phase) String() string {
	switch p {
	case Red:
		return "red"
	case Green:
		return "green"
	default:
		return "unknown"
	}
}

// Toggle returns the other phase.
func (p Phase) Toggle() Phase {
	if p == Red {
		return Green
	}
	return Red
}
