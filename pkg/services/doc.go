// Package services models the applications allowed to use the authentication server.
//
// # Overview
//
// A Service is the opaque identity of an application requesting
// authentication. A RegisteredService is an administrator-defined record that
// matches service ids by regular expression and carries an AccessStrategy.
//
// # Registry
//
// Registry is the lookup capability consumed by the admission check:
//
//	registry := services.NewInMemoryRegistry(defs...)
//	def := registry.FindService(services.Service{ID: "https://app.example.com/"})
//
// Definitions are evaluated by ascending EvaluationOrder, then ID; the first
// match wins. CachingRegistry decorates any Registry with an expiring LRU:
//
//	cached := services.NewCachingRegistry(registry, 1024, 5*time.Minute, metrics)
//
// # Access Strategies
//
//   - DefaultAccessStrategy: static enabled flag and unauthorized redirect URL
//   - TimeBasedAccessStrategy: enabled only inside a start/end window
//
// # Related Packages
//
//   - pkg/authz: Admission decision over a Registry
package services
