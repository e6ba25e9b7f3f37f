package light

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "trafficlight.light"

const (
	spanCycle        = "light.cycle"
	spanWaitForGreen = "light.wait_for_green"
)

func tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}
