// Package validation builds CAS protocol service responses.
//
// # Overview
//
// A ResponseBuilder turns the Model produced by a successful ticket
// validation into the XML fragment returned to the calling service:
//
//	<cas:serviceResponse xmlns:cas="http://www.yale.edu/tp/cas">
//	  <cas:authenticationSuccess>
//	    <cas:user>alice</cas:user>
//	    <cas:proxyGrantingTicket>PGTIOU-1</cas:proxyGrantingTicket>
//	    <cas:proxies>
//	      <cas:proxy>https://proxy.example.com</cas:proxy>
//	    </cas:proxies>
//	    <cas:attributes>
//	      <cas:isFromNewLogin>true</cas:isFromNewLogin>
//	      <cas:authenticationDate>2024-05-01T10:00:00.000Z</cas:authenticationDate>
//	      <cas:longTermAuthenticationRequestTokenUsed>true</cas:longTermAuthenticationRequestTokenUsed>
//	      <cas:email>alice@example.com</cas:email>
//	    </cas:attributes>
//	  </cas:authenticationSuccess>
//	</cas:serviceResponse>
//
// The proxy-granting ticket and proxies elements are omitted when the model
// has no PGT-IOU or chain. Only the new-login path is supported, so both
// boolean flags are always true.
//
// # Extension Attributes
//
// Extra elements inside cas:attributes come from AttributeReleasers:
//
//	builder := validation.NewResponseBuilder(validation.BuilderConfig{
//		Releasers: []validation.AttributeReleaser{
//			validation.PrincipalAttributeReleaser{Allowed: []string{"email", "memberOf"}},
//		},
//	})
//
// # Errors
//
//   - ErrMissingPrincipal: no principal id in the model
//   - ErrInvalidModelData: wrong-typed model values or bad attribute names
//   - ErrMarshalFailure: the document could not be serialized
//
// # Related Packages
//
//   - pkg/casweb: writes responses over HTTP
package validation
