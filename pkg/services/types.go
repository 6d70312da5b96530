package services

import (
	"fmt"
	"regexp"
)

// Service identifies the application requesting authentication
type Service struct {
	ID string `json:"id" yaml:"id"`
}

// NewService creates a new service
func NewService(id string) *Service {
	return &Service{ID: id}
}

// String returns the service identifier
func (s Service) String() string {
	return s.ID
}

// RegisteredService is an administrator-defined record describing an
// application permitted to use the authentication server
type RegisteredService struct {
	ID               int64          `json:"id"`
	Name             string         `json:"name"`
	Description      string         `json:"description,omitempty"`
	ServiceIDPattern string         `json:"service_id"` // Regular expression matched against Service.ID
	EvaluationOrder  int            `json:"evaluation_order"`
	AccessStrategy   AccessStrategy `json:"-"`

	pattern *regexp.Regexp
}

// NewRegisteredService creates a registered service matching the given pattern.
// The pattern must match the whole service id.
func NewRegisteredService(id int64, name, pattern string, strategy AccessStrategy) (*RegisteredService, error) {
	if pattern == "" {
		return nil, fmt.Errorf("service id pattern is required")
	}

	compiled, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return nil, fmt.Errorf("invalid service id pattern %q: %w", pattern, err)
	}

	if strategy == nil {
		strategy = NewDefaultAccessStrategy()
	}

	return &RegisteredService{
		ID:               id,
		Name:             name,
		ServiceIDPattern: pattern,
		AccessStrategy:   strategy,
		pattern:          compiled,
	}, nil
}

// Matches reports whether the service id is covered by this definition
func (r *RegisteredService) Matches(service Service) bool {
	if r.pattern == nil {
		return false
	}
	return r.pattern.MatchString(service.ID)
}

// Strategy returns the access strategy, defaulting to an enabled one
func (r *RegisteredService) Strategy() AccessStrategy {
	if r.AccessStrategy == nil {
		return NewDefaultAccessStrategy()
	}
	return r.AccessStrategy
}
