package queue

import (
	"sync"
	"time"
)

// Dispatcher is the in-memory FIFO of job ids awaiting the worker. It is
// unbounded so Push never blocks, and deliberately non-durable: on startup
// the queue is rebuilt from the job store, which is the source of truth.
type Dispatcher struct {
	mu     sync.Mutex
	ids    []string
	signal chan struct{}
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{signal: make(chan struct{}, 1)}
}

// Push appends a job id. It never blocks, whatever the depth.
func (d *Dispatcher) Push(id string) {
	d.mu.Lock()
	d.ids = append(d.ids, id)
	dispatchDepth.Set(float64(len(d.ids)))
	d.mu.Unlock()

	select {
	case d.signal <- struct{}{}:
	default:
	}
}

// Pop returns the oldest id, waiting up to timeout for one to arrive. The
// bounded wait lets the worker loop check its stop signal between attempts.
func (d *Dispatcher) Pop(timeout time.Duration) (string, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		if id, ok := d.tryPop(); ok {
			return id, true
		}
		select {
		case <-d.signal:
		case <-timer.C:
			return "", false
		}
	}
}

// Len reports the current queue depth.
func (d *Dispatcher) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.ids)
}

func (d *Dispatcher) tryPop() (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.ids) == 0 {
		return "", false
	}
	id := d.ids[0]
	d.ids = d.ids[1:]
	dispatchDepth.Set(float64(len(d.ids)))
	return id, true
}
