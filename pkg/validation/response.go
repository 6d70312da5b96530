package validation

import "time"

// Namespace is the CAS protocol XML namespace bound to the "cas" prefix
const (
	Namespace       = "http://www.yale.edu/tp/cas"
	NamespacePrefix = "cas"
)

// FailureCode identifies a CAS protocol failure
type FailureCode string

const (
	FailureInvalidRequest           FailureCode = "INVALID_REQUEST"
	FailureInvalidTicket            FailureCode = "INVALID_TICKET"
	FailureInvalidService           FailureCode = "INVALID_SERVICE"
	FailureInternalError            FailureCode = "INTERNAL_ERROR"
	FailureUnauthorizedServiceProxy FailureCode = "UNAUTHORIZED_SERVICE_PROXY"
)

// ServiceResponse is the protocol response. Exactly one of Success or Failure is set.
type ServiceResponse struct {
	Success *AuthenticationSuccess
	Failure *AuthenticationFailure
}

// AuthenticationSuccess is the success variant
type AuthenticationSuccess struct {
	User                string
	ProxyGrantingTicket string   // Omitted when empty
	Proxies             []string // Omitted when empty
	Attributes          Attributes
}

// Attributes is the cas:attributes block
type Attributes struct {
	IsFromNewLogin                         bool
	AuthenticationDate                     time.Time
	LongTermAuthenticationRequestTokenUsed bool
	Extensions                             []Attribute
}

// AuthenticationFailure is the failure variant
type AuthenticationFailure struct {
	Code        FailureCode
	Description string
}
