package render

import "sync"

// Deferrer runs tasks of the rendering loop at some later point.
// Implementations must run the tasks in the order they were deferred.
type Deferrer interface {
	Defer(task func())
}

// Go runs every task in a new goroutine.
type Go struct{}

// Defer implements Deferrer.
func (Go) Defer(task func()) {
	go task()
}

// Queue runs tasks one by one in a single worker goroutine.
type Queue struct {
	mu     sync.Mutex
	tasks  []func()
	closed bool
	wakec  chan struct{}
	donec  chan struct{}
}

// NewQueue starts a worker goroutine. Close must be called to stop it.
func NewQueue() *Queue {
	q := Queue{
		wakec: make(chan struct{}, 1),
		donec: make(chan struct{}),
	}
	go q.run()
	return &q
}

// Defer implements Deferrer. Tasks deferred after Close are dropped.
func (q *Queue) Defer(task func()) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.tasks = append(q.tasks, task)
	q.mu.Unlock()
	q.wake()
}

// Close stops accepting new tasks, waits for already deferred tasks to
// complete and stops the worker.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.donec
		return
	}
	q.closed = true
	q.mu.Unlock()
	q.wake()
	<-q.donec
}

func (q *Queue) wake() {
	select {
	case q.wakec <- struct{}{}:
	default:
	}
}

func (q *Queue) run() {
	defer close(q.donec)
	for {
		q.mu.Lock()
		if len(q.tasks) == 0 {
			closed := q.closed
			q.mu.Unlock()
			if closed {
				return
			}
			<-q.wakec
			continue
		}
		task := q.tasks[0]
		q.tasks[0] = nil
		q.tasks = q.tasks[1:]
		q.mu.Unlock()
		task()
	}
}

// Manual keeps deferred tasks until the host runs them. It allows to
// drive rendering from a polling loop.
type Manual struct {
	mu    sync.Mutex
	tasks []func()
}

// Defer implements Deferrer.
func (m *Manual) Defer(task func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = append(m.tasks, task)
}

// Len returns the number of pending tasks.
func (m *Manual) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// Step runs the first pending task. It returns false if there was none.
func (m *Manual) Step() bool {
	m.mu.Lock()
	if len(m.tasks) == 0 {
		m.mu.Unlock()
		return false
	}
	task := m.tasks[0]
	m.tasks[0] = nil
	m.tasks = m.tasks[1:]
	m.mu.Unlock()
	task()
	return true
}

// Drain runs tasks until there are no pending ones, including the tasks
// deferred while draining. It returns the number of executed tasks.
func (m *Manual) Drain() int {
	var n int
	for m.Step() {
		n++
	}
	return n
}
