package scheduler

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracker_SubscribeUnsubscribe(t *testing.T) {
	tracker := NewActiveCurrencyTracker()

	assert.Empty(t, tracker.Active())

	tracker.Subscribe("USD")
	tracker.Subscribe("USD")
	tracker.Subscribe("EUR")

	active := tracker.Active()
	assert.Len(t, active, 2)
	assert.Contains(t, active, "USD")
	assert.Contains(t, active, "EUR")

	// Two subscribers: one leaving keeps the currency active.
	tracker.Unsubscribe("USD")
	assert.Contains(t, tracker.Active(), "USD")

	tracker.Unsubscribe("USD")
	assert.NotContains(t, tracker.Active(), "USD")

	tracker.Unsubscribe("EUR")
	assert.Empty(t, tracker.Active())
}

func TestTracker_UnsubscribeUnknownIsNoop(t *testing.T) {
	tracker := NewActiveCurrencyTracker()
	tracker.Unsubscribe("USD")
	assert.Empty(t, tracker.Active())
}

func TestTracker_ConcurrentAccess(t *testing.T) {
	tracker := NewActiveCurrencyTracker()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			tracker.Subscribe("USD")
		}()
		go func() {
			defer wg.Done()
			tracker.Active()
		}()
	}
	wg.Wait()

	assert.Contains(t, tracker.Active(), "USD")
}
