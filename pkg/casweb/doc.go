// Package casweb adapts the admission check and response builder to HTTP.
//
// ServiceAccessMiddleware guards the login route: the injected
// ServiceExtractor names the service, authz.Check decides, and denials are
// answered with either a 302 to the service's unauthorized redirect URL or
// an INVALID_SERVICE failure document.
//
// WriteSuccess and WriteFailure write protocol documents with the
// application/xml content type. Protocol failures use HTTP 200, as CAS
// clients read the outcome from the body; only a response that cannot be
// produced at all uses 500.
//
//	srv, err := casweb.NewServer(casweb.Config{
//		Check:     check,
//		Builder:   builder,
//		Validator: validator,
//	})
//	http.ListenAndServe(":8443", srv.Handler())
package casweb
