package services

import (
	"net/url"
	"time"

	"github.com/jonboulle/clockwork"
)

// AccessStrategy decides whether a registered service may currently
// authenticate, and where to send the user when it may not
type AccessStrategy interface {
	// IsAccessAllowed reports whether access is currently allowed
	IsAccessAllowed() bool

	// UnauthorizedRedirectURL returns the redirect target on denial, or nil
	UnauthorizedRedirectURL() *url.URL
}

// DefaultAccessStrategy is a static enabled/disabled switch
type DefaultAccessStrategy struct {
	Enabled     bool
	SSOEnabled  bool
	RedirectURL *url.URL
}

// NewDefaultAccessStrategy creates an enabled strategy that participates in SSO
func NewDefaultAccessStrategy() *DefaultAccessStrategy {
	return &DefaultAccessStrategy{
		Enabled:    true,
		SSOEnabled: true,
	}
}

// NewDisabledAccessStrategy creates a strategy that denies access and
// optionally redirects to the given URL
func NewDisabledAccessStrategy(redirect *url.URL) *DefaultAccessStrategy {
	return &DefaultAccessStrategy{
		Enabled:     false,
		RedirectURL: redirect,
	}
}

// IsAccessAllowed reports whether the service is enabled
func (s *DefaultAccessStrategy) IsAccessAllowed() bool {
	return s.Enabled
}

// IsSSOAllowed reports whether an existing SSO session may be reused
func (s *DefaultAccessStrategy) IsSSOAllowed() bool {
	return s.Enabled && s.SSOEnabled
}

// UnauthorizedRedirectURL returns a copy of the configured redirect URL
func (s *DefaultAccessStrategy) UnauthorizedRedirectURL() *url.URL {
	if s.RedirectURL == nil {
		return nil
	}
	u := *s.RedirectURL
	return &u
}

// TimeBasedAccessStrategy allows access only inside a time window.
// A zero bound leaves that side of the window open.
type TimeBasedAccessStrategy struct {
	DefaultAccessStrategy
	StartingAt time.Time
	EndingAt   time.Time

	clock clockwork.Clock
}

// NewTimeBasedAccessStrategy creates an enabled time-window strategy
func NewTimeBasedAccessStrategy(start, end time.Time, clock clockwork.Clock) *TimeBasedAccessStrategy {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &TimeBasedAccessStrategy{
		DefaultAccessStrategy: *NewDefaultAccessStrategy(),
		StartingAt:            start,
		EndingAt:              end,
		clock:                 clock,
	}
}

// IsAccessAllowed reports whether the service is enabled and the clock is inside the window
func (s *TimeBasedAccessStrategy) IsAccessAllowed() bool {
	if !s.DefaultAccessStrategy.IsAccessAllowed() {
		return false
	}

	clock := s.clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	now := clock.Now()

	if !s.StartingAt.IsZero() && now.Before(s.StartingAt) {
		return false
	}
	if !s.EndingAt.IsZero() && now.After(s.EndingAt) {
		return false
	}
	return true
}
