package authz

import (
	"github.com/platinummonkey/casserver/pkg/services"
)

// Outcome is the result of an admission decision.
// The zero value allows the request.
type Outcome struct {
	Denial *UnauthorizedServiceError
}

// Allowed reports whether the request may proceed
func (o Outcome) Allowed() bool {
	return o.Denial == nil
}

// Err returns the denial as an error, or nil when allowed
func (o Outcome) Err() error {
	if o.Denial == nil {
		return nil
	}
	return o.Denial
}

// Code returns the denial code, or "" when allowed
func (o Outcome) Code() ErrorCode {
	if o.Denial == nil {
		return ""
	}
	return o.Denial.Code
}

// Decide determines whether an authentication request for the resolved
// service may proceed. A nil service has no context to authorize and is
// allowed. Decide has no side effects.
func Decide(service *services.Service, registry services.Registry) Outcome {
	if service == nil {
		return Outcome{}
	}

	if registry == nil || !registry.HasServices() {
		return Outcome{Denial: newEmptyRegistryError(service.ID)}
	}

	registered := registry.FindService(*service)
	if registered == nil {
		return Outcome{Denial: newServiceNotFoundError(service.ID)}
	}

	strategy := registered.Strategy()
	if !strategy.IsAccessAllowed() {
		return Outcome{Denial: newAccessDeniedError(service.ID, strategy.UnauthorizedRedirectURL())}
	}

	return Outcome{}
}
