package indicator

import "sync"

// Scheduler runs fn on a later turn of the host loop.
type Scheduler interface {
	Post(fn func())
}

// Coalescer collapses bursts of recompute requests into a single run per
// scheduler turn.
type Coalescer struct {
	mu      sync.Mutex
	pending bool
	sched   Scheduler
	fn      func()
}

// NewCoalescer creates a coalescer. A nil scheduler runs fn inline on
// every Request.
func NewCoalescer(sched Scheduler, fn func()) *Coalescer {
	return &Coalescer{sched: sched, fn: fn}
}

// Request marks a recompute as needed.
func (c *Coalescer) Request() {
	if c.sched == nil {
		c.fn()
		return
	}

	c.mu.Lock()
	if c.pending {
		c.mu.Unlock()
		return
	}
	c.pending = true
	c.mu.Unlock()

	c.sched.Post(c.drain)
}

// Pending reports whether a recompute is queued but not yet run.
func (c *Coalescer) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

func (c *Coalescer) drain() {
	c.mu.Lock()
	c.pending = false
	c.mu.Unlock()
	c.fn()
}

// Queue is a Scheduler drained explicitly by the owner of the loop.
type Queue struct {
	mu    sync.Mutex
	tasks []func()
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Post appends fn to the queue.
func (q *Queue) Post(fn func()) {
	q.mu.Lock()
	q.tasks = append(q.tasks, fn)
	q.mu.Unlock()
}

// Drain runs every task queued before the call and returns how many ran.
// Tasks posted while draining run on the next Drain.
func (q *Queue) Drain() int {
	q.mu.Lock()
	tasks := q.tasks
	q.tasks = nil
	q.mu.Unlock()

	for _, fn := range tasks {
		fn()
	}
	return len(tasks)
}

// Len returns the number of queued tasks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}
