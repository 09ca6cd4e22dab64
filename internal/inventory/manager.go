package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	ErrNotFound        = errors.New("product not found")
	ErrInvalidArgument = errors.New("invalid argument")
)

// Manager holds product records keyed by SKU. Records go in and come out as
// copies, so callers never alias stored state.
type Manager struct {
	mu sync.RWMutex
	m  map[string]Product
}

func NewManager() *Manager {
	return &Manager{m: map[string]Product{}}
}

func (m *Manager) Ping(ctx context.Context) error { return nil }

// AddProduct stores p under sku, replacing any previous record.
func (m *Manager) AddProduct(sku string, p Product) error {
	if strings.TrimSpace(sku) == "" {
		return fmt.Errorf("%w: sku is required", ErrInvalidArgument)
	}
	if err := p.validate(); err != nil {
		return err
	}

	p = p.Clone()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.m[sku] = p
	return nil
}

func (m *Manager) GetProduct(sku string) (Product, error) {
	m.mu.RLock()
	p, ok := m.m[sku]
	m.mu.RUnlock()

	if !ok {
		return Product{}, fmt.Errorf("%w: sku %q", ErrNotFound, sku)
	}
	return p.Clone(), nil
}

func (m *Manager) List() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Entry, 0, len(m.m))
	for sku, p := range m.m {
		out = append(out, Entry{SKU: sku, Product: p.Clone()})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.m)
}
