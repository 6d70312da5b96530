package validation

import (
	"fmt"
	"time"
)

// Model keys supplied by the login flow
const (
	ModelKeyPrincipal              = "principal"
	ModelKeyPgtIou                 = "pgtIou"
	ModelKeyChainedAuthentications = "chainedAuthentications"
)

// Model is the attribute bag describing a successful validation.
//
// The principal entry may be a string, a Principal or a *Principal.
// The pgtIou entry must be a string.
// The chainedAuthentications entry may be []Authentication or []*Authentication.
type Model map[string]any

// Principal is an authenticated subject
type Principal struct {
	ID         string              `yaml:"id"`
	Attributes map[string][]string `yaml:"attributes,omitempty"`
}

// Authentication is one completed authentication event in a proxy chain
type Authentication struct {
	Principal       Principal `yaml:"principal"`
	AuthenticatedAt time.Time `yaml:"authenticatedAt,omitempty"`
}

// Principal returns the principal stored in the model.
// It fails with ErrMissingPrincipal when absent or when the id is empty.
func (m Model) Principal() (*Principal, error) {
	raw, ok := m[ModelKeyPrincipal]
	if !ok || raw == nil {
		return nil, ErrMissingPrincipal
	}

	var p *Principal
	switch v := raw.(type) {
	case string:
		p = &Principal{ID: v}
	case Principal:
		p = &v
	case *Principal:
		p = v
	default:
		return nil, fmt.Errorf("%w: %s has type %T", ErrInvalidModelData, ModelKeyPrincipal, raw)
	}

	if p == nil || p.ID == "" {
		return nil, ErrMissingPrincipal
	}
	return p, nil
}

// ProxyGrantingTicketIOU returns the PGT-IOU, or "" when none was issued
func (m Model) ProxyGrantingTicketIOU() (string, error) {
	raw, ok := m[ModelKeyPgtIou]
	if !ok || raw == nil {
		return "", nil
	}

	iou, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s has type %T", ErrInvalidModelData, ModelKeyPgtIou, raw)
	}
	return iou, nil
}

// ChainedAuthentications returns the proxy chain in the order supplied
func (m Model) ChainedAuthentications() ([]Authentication, error) {
	raw, ok := m[ModelKeyChainedAuthentications]
	if !ok || raw == nil {
		return nil, nil
	}

	switch v := raw.(type) {
	case []Authentication:
		return v, nil
	case []*Authentication:
		chain := make([]Authentication, 0, len(v))
		for i, auth := range v {
			if auth == nil {
				return nil, fmt.Errorf("%w: %s[%d] is nil", ErrInvalidModelData, ModelKeyChainedAuthentications, i)
			}
			chain = append(chain, *auth)
		}
		return chain, nil
	default:
		return nil, fmt.Errorf("%w: %s has type %T", ErrInvalidModelData, ModelKeyChainedAuthentications, raw)
	}
}
