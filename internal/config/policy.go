package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Endpoint names used as policy keys
const (
	EndpointOverview      = "overview"
	EndpointAgencyStats   = "agency-stats"
	EndpointHistory       = "history"
	EndpointTrend         = "trend"
	EndpointServices      = "services"
	EndpointStats         = "stats"
	EndpointAgencyHistory = "agency-history"
)

// EndpointPolicy is the caching and degraded-mode behavior of one endpoint
type EndpointPolicy struct {
	MaxAge               int  `yaml:"max_age"`
	StaleWhileRevalidate int  `yaml:"stale_while_revalidate"`
	SampleFallback       bool `yaml:"sample_fallback"`
}

// CacheControl renders the Cache-Control header value
func (p EndpointPolicy) CacheControl() string {
	return fmt.Sprintf("public, s-maxage=%d, stale-while-revalidate=%d", p.MaxAge, p.StaleWhileRevalidate)
}

// Policies maps endpoint names to their policy
type Policies struct {
	Endpoints map[string]EndpointPolicy
}

// DefaultPolicies returns the built-in policy set
func DefaultPolicies() *Policies {
	return &Policies{Endpoints: map[string]EndpointPolicy{
		EndpointOverview:      {MaxAge: 180, StaleWhileRevalidate: 0, SampleFallback: true},
		EndpointAgencyStats:   {MaxAge: 180, StaleWhileRevalidate: 0, SampleFallback: true},
		EndpointHistory:       {MaxAge: 300, StaleWhileRevalidate: 60},
		EndpointTrend:         {MaxAge: 300, StaleWhileRevalidate: 60},
		EndpointServices:      {MaxAge: 180, StaleWhileRevalidate: 0, SampleFallback: true},
		EndpointStats:         {MaxAge: 600, StaleWhileRevalidate: 300},
		EndpointAgencyHistory: {MaxAge: 180, StaleWhileRevalidate: 0},
	}}
}

// For returns the policy of endpoint, or a no-cache policy if unknown
func (p *Policies) For(endpoint string) EndpointPolicy {
	if policy, ok := p.Endpoints[endpoint]; ok {
		return policy
	}
	return EndpointPolicy{}
}

// Names returns the configured endpoint names, sorted
func (p *Policies) Names() []string {
	names := make([]string, 0, len(p.Endpoints))
	for name := range p.Endpoints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// policyOverride is the file form; absent fields keep the default
type policyOverride struct {
	MaxAge               *int  `yaml:"max_age"`
	StaleWhileRevalidate *int  `yaml:"stale_while_revalidate"`
	SampleFallback       *bool `yaml:"sample_fallback"`
}

type policyFile struct {
	Endpoints map[string]policyOverride `yaml:"endpoints"`
}

// LoadPolicies reads a YAML policy file and applies it over the defaults:
//
//	endpoints:
//	  history:
//	    max_age: 600
//	    stale_while_revalidate: 120
//	  services:
//	    sample_fallback: false
func LoadPolicies(path string) (*Policies, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var file policyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	policies := DefaultPolicies()
	for name, o := range file.Endpoints {
		current, ok := policies.Endpoints[name]
		if !ok {
			return nil, fmt.Errorf("config: unknown endpoint %q", name)
		}
		if o.MaxAge != nil {
			current.MaxAge = *o.MaxAge
		}
		if o.StaleWhileRevalidate != nil {
			current.StaleWhileRevalidate = *o.StaleWhileRevalidate
		}
		if o.SampleFallback != nil {
			current.SampleFallback = *o.SampleFallback
		}
		policies.Endpoints[name] = current
	}

	if err := policies.validate(); err != nil {
		return nil, err
	}
	return policies, nil
}

func (p *Policies) validate() error {
	for _, name := range p.Names() {
		policy := p.Endpoints[name]
		if policy.MaxAge < 0 {
			return fmt.Errorf("config: %s.max_age must not be negative", name)
		}
		if policy.StaleWhileRevalidate < 0 {
			return fmt.Errorf("config: %s.stale_while_revalidate must not be negative", name)
		}
	}
	return nil
}
