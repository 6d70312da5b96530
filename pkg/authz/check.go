package authz

import (
	"context"
	"net/url"

	"github.com/platinummonkey/casserver/pkg/observability"
	"github.com/platinummonkey/casserver/pkg/services"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// RedirectSink records the unauthorized redirect URL for the current request
type RedirectSink interface {
	SetUnauthorizedRedirectURL(u *url.URL)
}

// RedirectSinkFunc adapts a function to RedirectSink
type RedirectSinkFunc func(u *url.URL)

// SetUnauthorizedRedirectURL calls f(u)
func (f RedirectSinkFunc) SetUnauthorizedRedirectURL(u *url.URL) {
	f(u)
}

// Check runs the admission decision for the login flow: it resolves the
// service, decides, logs and counts denials, and hands the redirect URL of
// an access denial to the request's sink.
type Check struct {
	registry  services.Registry
	selection services.SelectionStrategy
	log       *logrus.Logger
	metrics   *observability.Metrics
}

// NewCheck creates a new admission check
func NewCheck(registry services.Registry, selection services.SelectionStrategy, log *logrus.Logger, metrics *observability.Metrics) *Check {
	if selection == nil {
		selection = services.DefaultSelectionStrategy{}
	}
	if log == nil {
		log = logrus.New()
	}

	return &Check{
		registry:  registry,
		selection: selection,
		log:       log,
		metrics:   metrics,
	}
}

// Execute decides whether the request for service may proceed.
// It returns nil when allowed and an *UnauthorizedServiceError otherwise.
// sink may be nil.
func (c *Check) Execute(ctx context.Context, service *services.Service, sink RedirectSink) error {
	_, span := observability.Tracer().Start(ctx, "cas.authz.check")
	defer span.End()

	resolved := c.selection.ResolveService(service)
	outcome := Decide(resolved, c.registry)

	c.metrics.RecordAccessDecision(outcome.Allowed(), string(outcome.Code()))

	if resolved != nil {
		span.SetAttributes(attribute.String("cas.service.id", resolved.ID))
	}
	span.SetAttributes(attribute.Bool("cas.access.allowed", outcome.Allowed()))

	if outcome.Allowed() {
		return nil
	}

	denial := outcome.Denial
	span.SetAttributes(attribute.String("cas.access.code", string(denial.Code)))

	c.log.WithContext(ctx).WithFields(logrus.Fields{
		"service": denial.ServiceID,
		"code":    denial.Code,
	}).Warn(denial.Message)

	if denial.Code == CodeAccessDenied && sink != nil {
		sink.SetUnauthorizedRedirectURL(denial.RedirectURL)
	}

	return denial
}
