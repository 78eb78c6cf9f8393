package service

import (
	"context"
	"errors"
	"sync"

	pv "github.com/gofhir/profileval"
	"github.com/gofhir/profileval/element"
)

// ErrNotFound is returned when a referenced resource cannot be found.
var ErrNotFound = errors.New("resource not found")

// ErrNotSupported is returned when a fetcher does not handle a reference form.
var ErrNotSupported = errors.New("operation not supported")

// --- Fetcher Chain ---

// FetcherChain implements ReferenceFetcher by trying multiple fetchers in
// order. This follows the chain-of-responsibility pattern used by HAPI FHIR
// for resolver stacks.
type FetcherChain struct {
	fetchers []ReferenceFetcher
}

// NewFetcherChain creates a new fetcher chain.
func NewFetcherChain(fetchers ...ReferenceFetcher) *FetcherChain {
	return &FetcherChain{fetchers: fetchers}
}

// Fetch tries each fetcher until one succeeds.
func (c *FetcherChain) Fetch(ctx context.Context, reference, originPath string) (element.Node, error) {
	for _, f := range c.fetchers {
		node, err := f.Fetch(ctx, reference, originPath)
		if err == nil && node != nil {
			return node, nil
		}
		// Continue to the next fetcher only when this one opted out
		if err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrNotSupported) {
			return nil, err
		}
	}
	return nil, ErrNotFound
}

// Add appends a fetcher to the chain.
func (c *FetcherChain) Add(f ReferenceFetcher) {
	c.fetchers = append(c.fetchers, f)
}

// --- Caching Wrapper ---

// CachingFetcher wraps a ReferenceFetcher and memoizes successful fetches by
// reference string. Failed fetches are not cached, so transient errors can
// recover on a later call.
type CachingFetcher struct {
	fetcher ReferenceFetcher

	mu    sync.RWMutex
	cache map[string]element.Node
}

// NewCachingFetcher creates a caching wrapper.
func NewCachingFetcher(fetcher ReferenceFetcher) *CachingFetcher {
	return &CachingFetcher{
		fetcher: fetcher,
		cache:   make(map[string]element.Node),
	}
}

// Fetch checks the cache first, then calls the wrapped fetcher.
func (c *CachingFetcher) Fetch(ctx context.Context, reference, originPath string) (element.Node, error) {
	c.mu.RLock()
	node, ok := c.cache[reference]
	c.mu.RUnlock()
	if ok {
		return node, nil
	}

	node, err := c.fetcher.Fetch(ctx, reference, originPath)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cache[reference] = node
	c.mu.Unlock()
	return node, nil
}

// --- Null Implementations ---

// NullFetcher is a no-op fetcher that always reports not found.
type NullFetcher struct{}

// Fetch always returns ErrNotFound.
func (NullFetcher) Fetch(_ context.Context, _, _ string) (element.Node, error) {
	return nil, ErrNotFound
}

// NullProfileValidator is a permissive structural validator that accepts
// every node. Useful when only choice and reference semantics matter.
type NullProfileValidator struct{}

// ValidateAgainstProfile always returns a successful outcome.
func (NullProfileValidator) ValidateAgainstProfile(_ context.Context, _ element.Node, _ string) *pv.Outcome {
	return pv.NewOutcome()
}

// Verify interface compliance.
var (
	_ ReferenceFetcher = (*FetcherChain)(nil)
	_ ReferenceFetcher = (*CachingFetcher)(nil)
	_ ReferenceFetcher = NullFetcher{}
	_ ProfileValidator = NullProfileValidator{}
)
