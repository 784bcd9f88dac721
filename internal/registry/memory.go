package registry

import (
	"context"
	"slices"
	"strings"
	"sync"
)

// Memory is an in-process Registry.
type Memory struct {
	mu            sync.RWMutex
	registrations []Registration
}

// NewMemory returns an empty registry.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Register(_ context.Context, reg Registration) error {
	reg.Scheme = strings.ToLower(reg.Scheme)
	reg.Host = strings.ToLower(reg.Host)

	m.mu.Lock()
	defer m.mu.Unlock()
	if !slices.Contains(m.registrations, reg) {
		m.registrations = append(m.registrations, reg)
	}
	return nil
}

func (m *Memory) QueryBrowsableHandlers(_ context.Context, scheme, host string) ([]Component, error) {
	scheme, host = strings.ToLower(scheme), strings.ToLower(host)

	m.mu.RLock()
	defer m.mu.RUnlock()

	var components []Component
	for _, reg := range m.registrations {
		if reg.Action != ActionView || !reg.Browsable || reg.Scheme != scheme {
			continue
		}
		if reg.Host != "" && reg.Host != host {
			continue
		}
		if !slices.Contains(components, reg.Component) {
			components = append(components, reg.Component)
		}
	}
	return components, nil
}
