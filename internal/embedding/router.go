package embedding

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/domain"
	"golang.org/x/time/rate"
)

// Options bound every adapter created by a Router
type Options struct {
	Timeout   time.Duration
	BatchSize int
	// RateLimit is requests per second per provider; zero disables throttling.
	RateLimit float64
	RateBurst int
}

// Router manages embedding providers and their request limiters
type Router struct {
	providers map[string]Provider
	limiters  map[string]*rate.Limiter
	opts      Options
	mu        sync.RWMutex
}

// NewRouter creates a new embedding router
func NewRouter(opts Options) *Router {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 64
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = 1
	}
	return &Router{
		providers: make(map[string]Provider),
		limiters:  make(map[string]*rate.Limiter),
		opts:      opts,
	}
}

// RegisterProvider registers an embedding provider
func (r *Router) RegisterProvider(provider Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[provider.Name()] = provider
	if r.opts.RateLimit > 0 {
		r.limiters[provider.Name()] = rate.NewLimiter(rate.Limit(r.opts.RateLimit), r.opts.RateBurst)
	}
}

// GetProvider returns a configured provider by name
func (r *Router) GetProvider(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: provider not found: %s", domain.ErrEmbeddingProvider, name)
	}
	if !p.IsConfigured() {
		return nil, fmt.Errorf("%w: provider not configured: %s", domain.ErrEmbeddingProvider, name)
	}
	return p, nil
}

// Adapter binds the provider and model of an embedding configuration.
func (r *Router) Adapter(cfg *domain.EmbeddingModel) (*Adapter, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: embedding configuration", domain.ErrNotFound)
	}

	p, err := r.GetProvider(cfg.Provider)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	limiter := r.limiters[cfg.Provider]
	r.mu.RUnlock()

	model := cfg.ModelName
	if model == "" {
		model = p.DefaultModel()
	}

	return &Adapter{
		provider:  p,
		model:     model,
		timeout:   r.opts.Timeout,
		batchSize: r.opts.BatchSize,
		limiter:   limiter,
	}, nil
}

// Embedder implements Source.
func (r *Router) Embedder(cfg *domain.EmbeddingModel) (Embedder, error) {
	a, err := r.Adapter(cfg)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ListProviders returns the names of configured providers
func (r *Router) ListProviders() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	for name, p := range r.providers {
		if p.IsConfigured() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
