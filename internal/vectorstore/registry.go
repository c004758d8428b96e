package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/domain"
)

// Registry maps locator schemes to backends and pools open stores by locator
type Registry struct {
	factories map[string]StoreFactory
	pool      map[string]Handle
	timeout   time.Duration
	mu        sync.RWMutex
}

// NewRegistry creates a registry. Every store operation it hands out is
// bounded by timeout when positive.
func NewRegistry(timeout time.Duration) *Registry {
	return &Registry{
		factories: make(map[string]StoreFactory),
		pool:      make(map[string]Handle),
		timeout:   timeout,
	}
}

// Register registers a store factory for a locator scheme
func (r *Registry) Register(scheme string, factory StoreFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[scheme] = factory
}

// Schemes returns the registered locator schemes
func (r *Registry) Schemes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schemes := make([]string, 0, len(r.factories))
	for scheme := range r.factories {
		schemes = append(schemes, scheme)
	}
	sort.Strings(schemes)
	return schemes
}

// Supports reports whether scheme has a registered backend
func (r *Registry) Supports(scheme string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[scheme]
	return ok
}

// Open returns a connected store for the locator, reusing a pooled one when
// it is still healthy. Unknown schemes and locators without a collection fail
// with domain.ErrUnsupportedBackend; connection failures with
// domain.ErrRetrievalBackend.
func (r *Registry) Open(ctx context.Context, raw string) (Handle, error) {
	loc, err := ParseLocator(raw)
	if err != nil {
		return nil, err
	}
	if loc.Collection == "" {
		return nil, fmt.Errorf("%w: locator has no collection", domain.ErrUnsupportedBackend)
	}
	key := loc.String()

	// Check for existing healthy store
	r.mu.RLock()
	if store, ok := r.pool[key]; ok {
		r.mu.RUnlock()
		if err := store.HealthCheck(ctx); err == nil {
			return store, nil
		}
		r.mu.Lock()
		if r.pool[key] == store {
			store.Close()
			delete(r.pool, key)
		}
		r.mu.Unlock()
	} else {
		r.mu.RUnlock()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock
	if store, ok := r.pool[key]; ok {
		return store, nil
	}

	factory, ok := r.factories[loc.Scheme]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedBackend, loc.Scheme)
	}

	store := &timedStore{Store: factory(), loc: loc, timeout: r.timeout}
	if err := store.Connect(ctx, loc); err != nil {
		return nil, err
	}

	r.pool[key] = store
	return store, nil
}

// Release closes and forgets the pooled store for a locator
func (r *Registry) Release(raw string) error {
	loc, err := ParseLocator(raw)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if store, ok := r.pool[loc.String()]; ok {
		delete(r.pool, loc.String())
		return store.Close()
	}
	return nil
}

// CloseAll closes all pooled stores
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, store := range r.pool {
		store.Close()
		delete(r.pool, key)
	}
}

// PoolSize returns the current number of pooled stores
func (r *Registry) PoolSize() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pool)
}

// timedStore bounds each call and classifies backend failures.
type timedStore struct {
	Store
	loc     Locator
	timeout time.Duration
}

func (s *timedStore) Describe() string {
	return s.loc.String()
}

func (s *timedStore) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *timedStore) Connect(ctx context.Context, loc Locator) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	return classify(s.Store.Connect(ctx, loc), s.Backend(), "connect")
}

func (s *timedStore) HealthCheck(ctx context.Context) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	return s.Store.HealthCheck(ctx)
}

func (s *timedStore) Index(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()
	return classify(s.Store.Index(ctx, records), s.Backend(), "index")
}

func (s *timedStore) Search(ctx context.Context, query []float32, k int) ([]Match, error) {
	if k <= 0 {
		return nil, nil
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()
	matches, err := s.Store.Search(ctx, query, k)
	if err != nil {
		return nil, classify(err, s.Backend(), "search")
	}
	return matches, nil
}

func (s *timedStore) Count(ctx context.Context) (int, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	n, err := s.Store.Count(ctx)
	return n, classify(err, s.Backend(), "count")
}

func (s *timedStore) Drop(ctx context.Context) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	return classify(s.Store.Drop(ctx), s.Backend(), "drop")
}

func classify(err error, backend, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrUnsupportedBackend) || errors.Is(err, domain.ErrRetrievalBackend) {
		return err
	}
	return fmt.Errorf("%w: %s %s: %w", domain.ErrRetrievalBackend, backend, op, err)
}
