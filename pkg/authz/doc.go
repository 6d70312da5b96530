// Package authz decides whether an authentication request for a service may proceed.
//
// # Overview
//
// Decide is a pure function over an already-resolved service and a
// services.Registry. Rules are evaluated in order:
//
//  1. no service: allow
//  2. empty registry: deny EMPTY_REGISTRY
//  3. no matching definition: deny SERVICE_NOT_FOUND
//  4. access strategy refuses: deny ACCESS_DENIED with the strategy's redirect URL
//  5. otherwise: allow
//
// Every denial is an *UnauthorizedServiceError carrying the service id.
//
// # Login Flow Integration
//
// Check wraps Decide for the flow orchestrator:
//
//	check := authz.NewCheck(registry, services.DefaultSelectionStrategy{}, logger, metrics)
//	if err := check.Execute(ctx, service, sink); err != nil {
//		var denial *authz.UnauthorizedServiceError
//		errors.As(err, &denial)
//		// redirect or render a failure
//	}
//
// # Related Packages
//
//   - pkg/services: Registry and access strategies
//   - pkg/casweb: HTTP middleware built on Check
package authz
