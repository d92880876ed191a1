package scanner

import (
	"context"
	"fmt"

	"EnergyAnalyst/internal/domain"
)

// Page is a named source document configured for a company (earnings, investor_relations).
type Page struct {
	Name string
	URL  string
}

// Request carries all parameters required to acquire figures for one company.
type Request struct {
	Company domain.Company
	Pages   []Page
	Options map[string]string
}

// Page returns the configured page with the given name.
func (r Request) Page(name string) (Page, bool) {
	for _, p := range r.Pages {
		if p.Name == name {
			return p, true
		}
	}
	return Page{}, false
}

// Scanner captures a single acquisition strategy (earnings page, local dataset).
type Scanner interface {
	Name() string
	Scan(ctx context.Context, req Request) (domain.Acquisition, error)
}

// Registry keeps a mapping from scanner names to their implementations.
type Registry struct {
	scanners map[string]Scanner
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{scanners: map[string]Scanner{}}
}

// Register adds or replaces a scanner implementation.
func (r *Registry) Register(scanner Scanner) {
	if r.scanners == nil {
		r.scanners = map[string]Scanner{}
	}
	r.scanners[scanner.Name()] = scanner
}

// Resolve returns a scanner by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Scanner, error) {
	if scanner, ok := r.scanners[name]; ok {
		return scanner, nil
	}
	return nil, fmt.Errorf("scanner %s is not registered", name)
}
