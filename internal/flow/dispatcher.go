package flow

import (
	"sync"
)

// Executor runs functions on a designated goroutine.
type Executor interface {
	Post(fn func())
}

// Loop is an Executor that runs posted functions in order on a single goroutine.
type Loop struct {
	tasks chan func()
	done  chan struct{}
	once  sync.Once
}

// NewLoop starts a loop.
func NewLoop() *Loop {
	l := &Loop{tasks: make(chan func(), 16), done: make(chan struct{})}
	go l.run()
	return l
}

func (l *Loop) run() {
	for {
		select {
		case fn := <-l.tasks:
			fn()
		case <-l.done:
			return
		}
	}
}

// Post queues fn. It is dropped if the loop is closed.
func (l *Loop) Post(fn func()) {
	select {
	case l.tasks <- fn:
	case <-l.done:
	}
}

// Close stops the loop. Queued functions that did not run yet are dropped.
func (l *Loop) Close() {
	l.once.Do(func() { close(l.done) })
}

// Dispatcher delivers results through a single-slot mailbox.
//
// Schedule writes the slot, replacing an undelivered result. A single fire is posted to the
// Executor per filled slot, it reads and clears the slot under the lock. After Close the slot is
// cleared and stays empty, and a result already claimed by a fire is dropped unless its delivery
// has begun. Close does not wait for a delivery in progress, so it may be called from a callback.
type Dispatcher struct {
	executor Executor

	mu      sync.Mutex
	pending func()
	closed  bool

	// claimed runs between claiming a result and delivering it. Nil outside tests.
	claimed func()
}

// NewDispatcher returns a dispatcher delivering on the given executor.
func NewDispatcher(executor Executor) *Dispatcher {
	return &Dispatcher{executor: executor}
}

// Schedule stores fn as the pending delivery. It reports false if the dispatcher is closed.
func (d *Dispatcher) Schedule(fn func()) bool {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return false
	}
	// A fire is already on its way if the slot is taken, it will pick up the new value.
	post := d.pending == nil
	d.pending = fn
	d.mu.Unlock()

	if post {
		d.executor.Post(d.fire)
	}
	return true
}

func (d *Dispatcher) fire() {
	d.mu.Lock()
	fn := d.pending
	d.pending = nil
	d.mu.Unlock()

	if fn == nil {
		return
	}
	if d.claimed != nil {
		d.claimed()
	}
	if d.isClosed() {
		return
	}
	fn()
}

func (d *Dispatcher) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// Close disables delivery and drops the pending result.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.pending = nil
}
