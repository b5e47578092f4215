package scheduler

import (
	"sync"
)

// ActiveCurrencyTracker records which currencies currently have subscribers,
// so the refresh loop only spends upstream budget on rates someone is
// watching. State is process-local; across instances the set is approximate,
// which is acceptable because refreshing an unwatched currency is merely
// wasteful, never incorrect.
type ActiveCurrencyTracker struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewActiveCurrencyTracker creates an empty tracker.
func NewActiveCurrencyTracker() *ActiveCurrencyTracker {
	return &ActiveCurrencyTracker{counts: make(map[string]int)}
}

// Subscribe records one subscriber for a currency code.
func (t *ActiveCurrencyTracker) Subscribe(currencyCode string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts[currencyCode]++
}

// Unsubscribe removes one subscriber for a currency code.
func (t *ActiveCurrencyTracker) Unsubscribe(currencyCode string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.counts[currencyCode] <= 1 {
		delete(t.counts, currencyCode)
		return
	}
	t.counts[currencyCode]--
}

// Active returns the currency codes that currently have subscribers.
func (t *ActiveCurrencyTracker) Active() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	codes := make([]string, 0, len(t.counts))
	for code := range t.counts {
		codes = append(codes, code)
	}
	return codes
}
