package fetch

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/schemaflow/schemaflow/internal/apperror"
)

// Registry maps database descriptor schemes to Fetcher implementations.
// Engines register a capability instead of being cases in a central
// switch, so adding an engine does not touch dispatch code.
type Registry struct {
	mu       sync.RWMutex
	fetchers map[string]Fetcher
}

// NewRegistry creates an empty fetcher registry
func NewRegistry() *Registry {
	return &Registry{
		fetchers: make(map[string]Fetcher),
	}
}

// Register binds a fetcher to one or more descriptor schemes
func (r *Registry) Register(fetcher Fetcher, schemes ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, scheme := range schemes {
		r.fetchers[strings.ToLower(scheme)] = fetcher
	}
}

// Lookup resolves the fetcher for a database descriptor by its URL
// scheme. An unknown scheme yields an UnsupportedEngineError.
func (r *Registry) Lookup(descriptor string) (Fetcher, error) {
	scheme := Scheme(descriptor)
	if scheme == "" {
		return nil, apperror.NewValidationError("descriptor", "database descriptor must be a URL with a scheme")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	fetcher, ok := r.fetchers[scheme]
	if !ok {
		return nil, apperror.NewUnsupportedEngineError(scheme)
	}
	return fetcher, nil
}

// Fetch resolves the fetcher for the descriptor and runs it
func (r *Registry) Fetch(ctx context.Context, descriptor string) (string, error) {
	fetcher, err := r.Lookup(descriptor)
	if err != nil {
		return "", err
	}
	return fetcher.Fetch(ctx, descriptor)
}

// Scheme extracts the lower-cased URL scheme from a database descriptor
func Scheme(descriptor string) string {
	u, err := url.Parse(descriptor)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Scheme)
}
