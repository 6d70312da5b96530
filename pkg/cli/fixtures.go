package cli

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/platinummonkey/casserver/pkg/services"
	"github.com/platinummonkey/casserver/pkg/validation"
	"gopkg.in/yaml.v3"
)

// Access strategy types accepted in service fixtures
const (
	strategyDefault   = "default"
	strategyTimeBased = "timeBased"
)

// ServicesFile is the YAML layout of a registered services fixture
type ServicesFile struct {
	Services []ServiceFixture `yaml:"services"`
}

// ServiceFixture describes one registered service
type ServiceFixture struct {
	ID              int64           `yaml:"id"`
	Name            string          `yaml:"name"`
	Description     string          `yaml:"description"`
	ServiceID       string          `yaml:"serviceId"`
	EvaluationOrder int             `yaml:"evaluationOrder"`
	AccessStrategy  *StrategyConfig `yaml:"accessStrategy"`
}

// StrategyConfig describes an access strategy. Omitted booleans default to true.
type StrategyConfig struct {
	Type                    string    `yaml:"type"`
	Enabled                 *bool     `yaml:"enabled"`
	SSOEnabled              *bool     `yaml:"ssoEnabled"`
	UnauthorizedRedirectURL string    `yaml:"unauthorizedRedirectUrl"`
	StartingDateTime        time.Time `yaml:"startingDateTime"`
	EndingDateTime          time.Time `yaml:"endingDateTime"`
}

// ModelFile is the YAML layout of a validation model fixture
type ModelFile struct {
	Principal              *validation.Principal      `yaml:"principal"`
	PgtIou                 string                     `yaml:"pgtIou"`
	ChainedAuthentications []validation.Authentication `yaml:"chainedAuthentications"`
	ReleasedAttributes     []string                   `yaml:"releasedAttributes"`
	StaticAttributes       []validation.Attribute     `yaml:"staticAttributes"`
}

// LoadServices reads a services fixture
func LoadServices(path string, clock clockwork.Clock) ([]*services.RegisteredService, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read services file: %w", err)
	}

	var file ServicesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse services file: %w", err)
	}

	defs := make([]*services.RegisteredService, 0, len(file.Services))
	for i, fixture := range file.Services {
		def, err := fixture.toRegisteredService(clock)
		if err != nil {
			return nil, fmt.Errorf("service %d (%s): %w", i, fixture.Name, err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func (f ServiceFixture) toRegisteredService(clock clockwork.Clock) (*services.RegisteredService, error) {
	strategy, err := f.AccessStrategy.build(clock)
	if err != nil {
		return nil, err
	}

	def, err := services.NewRegisteredService(f.ID, f.Name, f.ServiceID, strategy)
	if err != nil {
		return nil, err
	}
	def.Description = f.Description
	def.EvaluationOrder = f.EvaluationOrder
	return def, nil
}

func (c *StrategyConfig) build(clock clockwork.Clock) (services.AccessStrategy, error) {
	if c == nil {
		return services.NewDefaultAccessStrategy(), nil
	}

	base := services.NewDefaultAccessStrategy()
	if c.Enabled != nil {
		base.Enabled = *c.Enabled
	}
	if c.SSOEnabled != nil {
		base.SSOEnabled = *c.SSOEnabled
	}
	if c.UnauthorizedRedirectURL != "" {
		u, err := url.Parse(c.UnauthorizedRedirectURL)
		if err != nil {
			return nil, fmt.Errorf("invalid unauthorizedRedirectUrl: %w", err)
		}
		base.RedirectURL = u
	}

	switch c.Type {
	case "", strategyDefault:
		return base, nil
	case strategyTimeBased:
		strategy := services.NewTimeBasedAccessStrategy(c.StartingDateTime, c.EndingDateTime, clock)
		strategy.DefaultAccessStrategy = *base
		return strategy, nil
	default:
		return nil, fmt.Errorf("unknown access strategy type %q", c.Type)
	}
}

// LoadModel reads a validation model fixture and the releasers it names
func LoadModel(path string) (validation.Model, []validation.AttributeReleaser, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read model file: %w", err)
	}

	var file ModelFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, nil, fmt.Errorf("failed to parse model file: %w", err)
	}

	model := validation.Model{}
	if file.Principal != nil {
		model[validation.ModelKeyPrincipal] = file.Principal
	}
	if file.PgtIou != "" {
		model[validation.ModelKeyPgtIou] = file.PgtIou
	}
	if len(file.ChainedAuthentications) > 0 {
		model[validation.ModelKeyChainedAuthentications] = file.ChainedAuthentications
	}

	var releasers []validation.AttributeReleaser
	if len(file.StaticAttributes) > 0 {
		releasers = append(releasers, validation.StaticAttributes(file.StaticAttributes))
	}
	if len(file.ReleasedAttributes) > 0 {
		releasers = append(releasers, validation.PrincipalAttributeReleaser{Allowed: file.ReleasedAttributes})
	}

	return model, releasers, nil
}
