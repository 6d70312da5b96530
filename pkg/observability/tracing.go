package observability

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName is the tracer name used by all casserver packages
const InstrumentationName = "github.com/platinummonkey/casserver"

// Tracer returns the tracer from the global provider.
// Callers resolve it per use so a provider installed after package init is honored.
func Tracer() trace.Tracer {
	return otel.Tracer(InstrumentationName)
}
