// Package cli provides the cas-payload command-line interface.
//
// # Commands
//
// authorize: Run the admission check for a service id
//
//	cas-payload authorize \
//		--services ./services.yaml \
//		--service https://app.example.com/home
//
// render: Print the success response for a validation model
//
//	cas-payload render --model ./model.yaml --at 2024-05-01T10:00:00Z
//
// failure: Print a failure response
//
//	cas-payload failure --code INVALID_TICKET --message "Ticket ST-1 not recognized"
//
// # Fixture Formats
//
// Registered services:
//
//	services:
//	  - id: 1
//	    name: app
//	    serviceId: "https://app\\.example\\.com/.*"
//	    evaluationOrder: 10
//	    accessStrategy:
//	      type: timeBased
//	      enabled: true
//	      unauthorizedRedirectUrl: https://portal.example.com/denied
//	      startingDateTime: 2024-01-01T00:00:00Z
//
// Validation model:
//
//	principal:
//	  id: alice
//	  attributes:
//	    email: [alice@example.com]
//	pgtIou: PGTIOU-1
//	chainedAuthentications:
//	  - principal: {id: https://proxy.example.com}
//	releasedAttributes: [email]
//
// # Configuration
//
// CAS_* environment variables are read through pkg/config; --log-level and
// --log-format override them.
package cli
