package authz

import (
	"fmt"
	"net/url"
)

// ErrorCode is a stable, protocol-relevant denial identifier
type ErrorCode string

const (
	CodeEmptyRegistry   ErrorCode = "EMPTY_REGISTRY"
	CodeServiceNotFound ErrorCode = "SERVICE_NOT_FOUND"
	CodeAccessDenied    ErrorCode = "ACCESS_DENIED"
)

// Message bundle keys rendered by the login views
const (
	MessageKeyEmptyRegistry       = "screen.service.empty.error.message"
	MessageKeyUnauthorizedService = "screen.service.error.message"
)

// ProtocolFailureCode is the CAS failure code every denial maps to
const ProtocolFailureCode = "INVALID_SERVICE"

// UnauthorizedServiceError describes why a service was refused
type UnauthorizedServiceError struct {
	Code        ErrorCode
	ServiceID   string
	Message     string
	RedirectURL *url.URL // Only set for CodeAccessDenied, may still be nil
}

// Error implements the error interface
func (e *UnauthorizedServiceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MessageKey returns the message bundle key for this denial
func (e *UnauthorizedServiceError) MessageKey() string {
	if e.Code == CodeEmptyRegistry {
		return MessageKeyEmptyRegistry
	}
	return MessageKeyUnauthorizedService
}

// ProtocolFailureCode returns the CAS protocol failure code for this denial
func (e *UnauthorizedServiceError) ProtocolFailureCode() string {
	return ProtocolFailureCode
}

func newEmptyRegistryError(serviceID string) *UnauthorizedServiceError {
	return &UnauthorizedServiceError{
		Code:      CodeEmptyRegistry,
		ServiceID: serviceID,
		Message: fmt.Sprintf("No service definitions are found in the service registry. "+
			"Service [%s] will not be automatically authorized to request authentication.", serviceID),
	}
}

func newServiceNotFoundError(serviceID string) *UnauthorizedServiceError {
	return &UnauthorizedServiceError{
		Code:      CodeServiceNotFound,
		ServiceID: serviceID,
		Message:   fmt.Sprintf("Service [%s] is not found in service registry.", serviceID),
	}
}

func newAccessDeniedError(serviceID string, redirect *url.URL) *UnauthorizedServiceError {
	return &UnauthorizedServiceError{
		Code:        CodeAccessDenied,
		ServiceID:   serviceID,
		Message:     fmt.Sprintf("Service [%s] is not allowed access via the service registry.", serviceID),
		RedirectURL: redirect,
	}
}
