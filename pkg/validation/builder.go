package validation

import (
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/platinummonkey/casserver/pkg/observability"
)

// Build results recorded in metrics
const (
	resultSuccess       = "success"
	resultInvalidModel  = "invalid_model"
	resultMarshalFailed = "marshal_failure"
)

// BuilderConfig configures a ResponseBuilder
type BuilderConfig struct {
	// Clock stamps authenticationDate. Defaults to the real clock.
	Clock clockwork.Clock

	// Releasers supply extension attributes, applied in order
	Releasers []AttributeReleaser

	// Indent is the number of spaces per nesting level
	Indent int

	// Metrics is optional
	Metrics *observability.Metrics
}

// ResponseBuilder turns a validation model into a CAS service response.
// It is safe for concurrent use.
type ResponseBuilder struct {
	clock      clockwork.Clock
	releasers  []AttributeReleaser
	marshaller *Marshaller
	metrics    *observability.Metrics
}

// NewResponseBuilder creates a new response builder
func NewResponseBuilder(cfg BuilderConfig) *ResponseBuilder {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &ResponseBuilder{
		clock:      clock,
		releasers:  append([]AttributeReleaser(nil), cfg.Releasers...),
		marshaller: NewMarshaller(cfg.Indent),
		metrics:    cfg.Metrics,
	}
}

// NewSuccess builds the success response structure for model
func (b *ResponseBuilder) NewSuccess(model Model) (*ServiceResponse, error) {
	principal, err := model.Principal()
	if err != nil {
		return nil, err
	}
	if err := validateText("principal id", principal.ID); err != nil {
		return nil, err
	}

	iou, err := model.ProxyGrantingTicketIOU()
	if err != nil {
		return nil, err
	}
	if err := validateText(ModelKeyPgtIou, iou); err != nil {
		return nil, err
	}

	chain, err := model.ChainedAuthentications()
	if err != nil {
		return nil, err
	}

	var proxies []string
	for i, auth := range chain {
		if auth.Principal.ID == "" {
			return nil, fmt.Errorf("%w: %s[%d] has no principal id", ErrInvalidModelData, ModelKeyChainedAuthentications, i)
		}
		if err := validateText(fmt.Sprintf("%s[%d]", ModelKeyChainedAuthentications, i), auth.Principal.ID); err != nil {
			return nil, err
		}
		proxies = append(proxies, auth.Principal.ID)
	}

	extensions, err := b.release(model)
	if err != nil {
		return nil, err
	}

	return &ServiceResponse{
		Success: &AuthenticationSuccess{
			User:                principal.ID,
			ProxyGrantingTicket: iou,
			Proxies:             proxies,
			Attributes: Attributes{
				IsFromNewLogin:                         true,
				AuthenticationDate:                     b.clock.Now().UTC(),
				LongTermAuthenticationRequestTokenUsed: true,
				Extensions:                             extensions,
			},
		},
	}, nil
}

// Build produces the success XML fragment for model.
// Errors wrap ErrMissingPrincipal, ErrInvalidModelData or ErrMarshalFailure.
func (b *ResponseBuilder) Build(model Model) ([]byte, error) {
	start := b.clock.Now()

	resp, err := b.NewSuccess(model)
	if err != nil {
		b.metrics.RecordResponseBuild(resultInvalidModel, b.clock.Since(start))
		return nil, err
	}

	out, err := b.marshaller.Marshal(resp)
	if err != nil {
		b.metrics.RecordResponseBuild(classify(err), b.clock.Since(start))
		return nil, err
	}

	b.metrics.RecordResponseBuild(resultSuccess, b.clock.Since(start))
	return out, nil
}

// BuildFailure produces a failure XML fragment
func (b *ResponseBuilder) BuildFailure(code FailureCode, description string) ([]byte, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: failure code is required", ErrInvalidModelData)
	}

	return b.marshaller.Marshal(&ServiceResponse{
		Failure: &AuthenticationFailure{Code: code, Description: description},
	})
}

func (b *ResponseBuilder) release(model Model) ([]Attribute, error) {
	var out []Attribute
	seen := make(map[string]bool)

	for _, releaser := range b.releasers {
		attrs, err := releaser.Release(model)
		if err != nil {
			return nil, err
		}
		for _, attr := range attrs {
			if err := validateAttribute(attr); err != nil {
				return nil, err
			}
			if seen[attr.Name] {
				return nil, fmt.Errorf("%w: attribute %q released more than once", ErrInvalidModelData, attr.Name)
			}
			seen[attr.Name] = true
			out = append(out, attr)
		}
	}
	return out, nil
}

func classify(err error) string {
	if errors.Is(err, ErrMarshalFailure) {
		return resultMarshalFailed
	}
	return resultInvalidModel
}
