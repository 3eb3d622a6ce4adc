package card

import (
	"context"
	"sync"
	"time"
)

// RangeService supplies BIN-range metadata for card number prefixes. The
// validator asks it before classifying a number; while a fetch for the
// current prefix is outstanding the field reports a pending state.
type RangeService interface {
	// HasCachedRange reports whether metadata for the prefix is already
	// available locally.
	HasCachedRange(prefix string) bool
	// IsLoading reports whether a fetch for the prefix is in flight.
	IsLoading(prefix string) bool
	// FetchRange resolves metadata for the prefix and invokes done exactly
	// once when the result (or its absence) is cached.
	FetchRange(ctx context.Context, prefix string, done func())
}

// Range is an issuer BIN range resolved from remote metadata.
type Range struct {
	Low    string `json:"account_range_low"`
	High   string `json:"account_range_high"`
	Brand  Brand  `json:"brand"`
	Length int    `json:"pan_length"`
}

func (r Range) contains(digits string) bool {
	n := len(r.Low)
	if len(digits) < n {
		return false
	}
	head := digits[:n]
	return head >= r.Low && head <= r.High
}

// Matcher is implemented by range services that can resolve an exact brand
// and number length for the digits entered so far.
type Matcher interface {
	Match(digits string) (Range, bool)
}

// StaticRanges serves the built-in brand table only. Every prefix counts as
// cached, so lookups never leave the process.
type StaticRanges struct{}

// HasCachedRange always reports true.
func (StaticRanges) HasCachedRange(string) bool { return true }

// IsLoading always reports false.
func (StaticRanges) IsLoading(string) bool { return false }

// FetchRange completes immediately.
func (StaticRanges) FetchRange(_ context.Context, _ string, done func()) {
	if done != nil {
		done()
	}
}

// RemoteRanges caches BIN ranges fetched from a metadata backend keyed by
// the first six digits. A failed or timed-out fetch caches an empty result,
// so a prefix never stays in the loading state: callers fall back to the
// static brand table.
type RemoteRanges struct {
	fetch   func(ctx context.Context, prefix string) ([]Range, error)
	timeout time.Duration

	mu      sync.Mutex
	cached  map[string][]Range
	pending map[string][]func()
}

// RangeOption customizes a [RemoteRanges] service.
type RangeOption func(*RemoteRanges)

// WithFetchTimeout bounds each metadata fetch. Defaults to ten seconds.
func WithFetchTimeout(d time.Duration) RangeOption {
	if d <= 0 {
		panic("card: fetch timeout must be positive")
	}
	return func(r *RemoteRanges) {
		r.timeout = d
	}
}

// NewRemoteRanges builds a caching range service on top of the given fetch
// function.
func NewRemoteRanges(fetch func(ctx context.Context, prefix string) ([]Range, error), opts ...RangeOption) *RemoteRanges {
	if fetch == nil {
		panic("card: fetch function is required")
	}
	r := &RemoteRanges{
		fetch:   fetch,
		timeout: 10 * time.Second,
		cached:  make(map[string][]Range),
		pending: make(map[string][]func()),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(r)
	}
	return r
}

func binKey(prefix string) string {
	if len(prefix) > 6 {
		return prefix[:6]
	}
	return prefix
}

// HasCachedRange reports whether metadata for the prefix was already
// fetched, successfully or not.
func (r *RemoteRanges) HasCachedRange(prefix string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.cached[binKey(prefix)]
	return ok
}

// IsLoading reports whether a fetch for the prefix is in flight.
func (r *RemoteRanges) IsLoading(prefix string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.pending[binKey(prefix)]
	return ok
}

// FetchRange resolves metadata for the prefix. Concurrent requests for the
// same prefix share one fetch; every done callback fires once the result is
// cached.
func (r *RemoteRanges) FetchRange(ctx context.Context, prefix string, done func()) {
	key := binKey(prefix)
	r.mu.Lock()
	if _, ok := r.cached[key]; ok {
		r.mu.Unlock()
		if done != nil {
			done()
		}
		return
	}
	if waiters, ok := r.pending[key]; ok {
		if done != nil {
			r.pending[key] = append(waiters, done)
		}
		r.mu.Unlock()
		return
	}
	if done != nil {
		r.pending[key] = []func(){done}
	} else {
		r.pending[key] = nil
	}
	r.mu.Unlock()

	go func() {
		fctx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()
		ranges, err := r.fetch(fctx, key)
		if err != nil {
			ranges = nil
		}
		r.mu.Lock()
		r.cached[key] = ranges
		waiters := r.pending[key]
		delete(r.pending, key)
		r.mu.Unlock()
		for _, w := range waiters {
			w()
		}
	}()
}

// Match implements [Matcher] over the cached ranges for the digits' BIN.
func (r *RemoteRanges) Match(digits string) (Range, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rng := range r.cached[binKey(digits)] {
		if rng.contains(digits) {
			return rng, true
		}
	}
	return Range{}, false
}
