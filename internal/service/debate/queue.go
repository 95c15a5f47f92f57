package debate

import (
	"sync"

	model "github.com/zhouzirui/roundtable/backend/internal/model/debate"
)

// ResultQueue is an unbounded FIFO between the engine and pollers.
// Neither Push nor TryPop ever waits.
type ResultQueue struct {
	mu    sync.Mutex
	items []model.ResultEntry
}

// NewResultQueue returns an empty queue.
func NewResultQueue() *ResultQueue {
	return &ResultQueue{}
}

// Push appends an entry.
func (q *ResultQueue) Push(entry model.ResultEntry) {
	q.mu.Lock()
	q.items = append(q.items, entry)
	q.mu.Unlock()
}

// TryPop removes the oldest entry. ok is false when the queue is empty.
func (q *ResultQueue) TryPop() (entry model.ResultEntry, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return model.ResultEntry{}, false
	}
	entry = q.items[0]
	q.items[0] = model.ResultEntry{}
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = nil
	}
	return entry, true
}

// Drain empties the queue and returns what it held, oldest first.
func (q *ResultQueue) Drain() []model.ResultEntry {
	q.mu.Lock()
	defer q.mu.Unlock()

	drained := q.items
	q.items = nil
	return drained
}

// Len reports the number of queued entries.
func (q *ResultQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
