package validation

import "errors"

var (
	// ErrMissingPrincipal is returned when the model carries no principal id
	ErrMissingPrincipal = errors.New("validation model has no principal")

	// ErrInvalidModelData is returned when a model value has an unexpected type or content
	ErrInvalidModelData = errors.New("invalid validation model data")

	// ErrMarshalFailure is returned when the response document cannot be built or serialized
	ErrMarshalFailure = errors.New("failed to marshal service response")
)
