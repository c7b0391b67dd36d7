package service

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

const (
	recordedEventsCapacity = 100_000
	recordedEventsFPRate   = 0.0001
)

// eventFilter remembers the ids of recently recorded visit events. It holds
// two generations: when the current one is full it becomes the previous one
// and a fresh filter takes its place, so memory stays bounded and the false
// positive rate never exceeds the configured one by much.
type eventFilter struct {
	mu       sync.Mutex
	capacity uint
	count    uint
	current  *bloom.BloomFilter
	previous *bloom.BloomFilter
}

func newEventFilter(capacity uint) *eventFilter {
	return &eventFilter{
		capacity: capacity,
		current:  bloom.NewWithEstimates(capacity, recordedEventsFPRate),
	}
}

// Add marks id as recorded.
func (f *eventFilter) Add(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.count >= f.capacity {
		f.previous = f.current
		f.current = bloom.NewWithEstimates(f.capacity, recordedEventsFPRate)
		f.count = 0
	}
	f.current.AddString(id)
	f.count++
}

// Seen reports whether id was probably recorded. False means it definitely
// was not recorded within the last two generations.
func (f *eventFilter) Seen(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.current.TestString(id) {
		return true
	}
	return f.previous != nil && f.previous.TestString(id)
}
