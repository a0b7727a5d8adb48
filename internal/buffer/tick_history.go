package buffer

import (
	"sort"
	"sync"

	"github.com/gunuduru/assignment-auth/internal/model"
)

// TickHistory is a fixed-size ring of the most recent dispatch tick results.
type TickHistory struct {
	mu      sync.RWMutex
	results []model.DispatchTickResult
	size    int
	head    int
	isFull  bool
	nextSeq int64
}

func NewTickHistory(size int) *TickHistory {
	if size <= 0 {
		size = 100
	}
	return &TickHistory{
		results: make([]model.DispatchTickResult, size),
		size:    size,
		nextSeq: 1,
	}
}

// Add stamps r with the next sequence number, stores it and returns the stamped copy.
func (b *TickHistory) Add(r model.DispatchTickResult) model.DispatchTickResult {
	b.mu.Lock()
	defer b.mu.Unlock()

	r.Seq = b.nextSeq
	b.nextSeq++

	b.results[b.head] = r
	b.head = (b.head + 1) % b.size
	if b.head == 0 {
		b.isFull = true
	}
	return r
}

// Recent returns up to n results, newest first.
func (b *TickHistory) Recent(n int) []model.DispatchTickResult {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := b.count()
	if n <= 0 || n > count {
		n = count
	}
	out := make([]model.DispatchTickResult, 0, n)
	for i := 1; i <= n; i++ {
		idx := (b.head - i + b.size) % b.size
		out = append(out, b.results[idx])
	}
	return out
}

// GetSince returns the results with Seq > lastSeq in order. ok is false when
// lastSeq has already been overwritten and the caller missed ticks.
func (b *TickHistory) GetSince(lastSeq int64) ([]model.DispatchTickResult, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := b.count()
	if count == 0 {
		return nil, true
	}
	start := 0
	if b.isFull {
		start = b.head
	}

	oldest := b.results[start].Seq
	if lastSeq < oldest-1 {
		return nil, false
	}

	idx := sort.Search(count, func(i int) bool {
		return b.results[(start+i)%b.size].Seq > lastSeq
	})
	if idx == count {
		return nil, true
	}

	out := make([]model.DispatchTickResult, 0, count-idx)
	for i := idx; i < count; i++ {
		out = append(out, b.results[(start+i)%b.size])
	}
	return out, true
}

func (b *TickHistory) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count()
}

func (b *TickHistory) count() int {
	if b.isFull {
		return b.size
	}
	return b.head
}
