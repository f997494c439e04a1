package handlers

import (
	"sync/atomic"

	"github.com/ruby-kim/gov-status/internal/config"
)

// PolicyStore holds the active endpoint policies and can be swapped while
// requests are being served
type PolicyStore struct {
	current atomic.Pointer[config.Policies]
}

func NewPolicyStore(p *config.Policies) *PolicyStore {
	s := &PolicyStore{}
	s.Set(p)
	return s
}

// Set replaces the active policies; nil restores the defaults
func (s *PolicyStore) Set(p *config.Policies) {
	if p == nil {
		p = config.DefaultPolicies()
	}
	s.current.Store(p)
}

func (s *PolicyStore) For(endpoint string) config.EndpointPolicy {
	return s.current.Load().For(endpoint)
}
