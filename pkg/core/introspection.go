package core

import (
	"sort"

	"github.com/aretw0/introspection"
)

// ServiceState exposes internal state for observability.
type ServiceState struct {
	StoreType   string   `json:"store_type"`
	ReadOnly    bool     `json:"read_only"`
	HasDelivery bool     `json:"has_delivery"`
	HasFetcher  bool     `json:"has_fetcher"`
	Protected   []string `json:"protected,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Service) State() any {
	storeType := "none"
	if s.store != nil {
		storeType = "store"
		if comp, ok := s.store.(introspection.Component); ok {
			storeType = comp.ComponentType()
		}
	}

	protected := make([]string, 0, len(s.protected))
	for f := range s.protected {
		protected = append(protected, f)
	}
	sort.Strings(protected)

	return ServiceState{
		StoreType:   storeType,
		ReadOnly:    s.readOnly,
		HasDelivery: s.delivery != nil,
		HasFetcher:  s.fetcher != nil,
		Protected:   protected,
	}
}

// ComponentType implements introspection.Component.
func (s *Service) ComponentType() string {
	return "service"
}

var _ introspection.Introspectable = (*Service)(nil)
var _ introspection.Component = (*Service)(nil)
