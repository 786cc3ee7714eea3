package engine

import "sync"

// workQueue is an unbounded FIFO with join semantics: pending counts items
// that are queued or in flight, and the drained channel closes the moment
// pending returns to zero. A worker that is still processing keeps the
// queue "open" even while it is momentarily empty, so siblings are never
// judged idle prematurely.
type workQueue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	items   []string
	pending int
	closed  bool
	drained chan struct{}
	once    sync.Once
}

func newWorkQueue() *workQueue {
	q := &workQueue{drained: make(chan struct{})}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push appends an item and accounts for it in pending. Items pushed after
// close are dropped.
func (q *workQueue) push(item string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.items = append(q.items, item)
	q.pending++
	q.cond.Signal()
}

// pop blocks until an item is available or the queue is closed. The second
// return value is false only on close.
func (q *workQueue) pop() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return "", false
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item, true
}

// taskDone acknowledges one popped item. When the last outstanding item is
// acknowledged the drained channel closes.
func (q *workQueue) taskDone() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending--
	if q.pending == 0 {
		q.once.Do(func() { close(q.drained) })
	}
}

// close wakes all blocked pop calls. Idempotent.
func (q *workQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}

// empty reports whether nothing is queued or in flight.
func (q *workQueue) empty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending == 0
}
