package event

import "sync"

// Queue is a deferred task queue drained once per processing cycle. It
// replaces implicit "defer until next tick" scheduling with an explicit
// drain point owned by the processing loop.
type Queue struct {
	mu    sync.Mutex
	tasks []func()
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Schedule enqueues a task for the next drain. Tasks run in the order
// scheduled.
func (q *Queue) Schedule(fn func()) {
	if fn == nil {
		return
	}
	q.mu.Lock()
	q.tasks = append(q.tasks, fn)
	q.mu.Unlock()
}

// Drain runs the tasks scheduled so far and returns the count executed.
// The task list is snapshotted once, so a task that schedules another
// task defers it to the next cycle and a self-rescheduling task cannot
// wedge the processing loop.
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

// Len returns the number of tasks currently pending.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}
