package ui

import "sync"

// Dispatcher forwards UI mutations to the application goroutine in the
// order they were posted. Post never blocks, so it is safe to call while
// holding locks the UI goroutine may also take.
type Dispatcher struct {
	run  func(func())
	mu   sync.Mutex
	ops  []func()
	wake chan struct{}
	quit chan struct{}
	done chan struct{}
}

// NewDispatcher creates a dispatcher that hands each op to run, usually
// tview.Application.QueueUpdateDraw.
func NewDispatcher(run func(func())) *Dispatcher {
	return &Dispatcher{
		run:  run,
		wake: make(chan struct{}, 1),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Post queues op.
func (d *Dispatcher) Post(op func()) {
	d.mu.Lock()
	d.ops = append(d.ops, op)
	d.mu.Unlock()
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Start runs the forwarding loop until Stop.
func (d *Dispatcher) Start() {
	go func() {
		defer close(d.done)
		for {
			select {
			case <-d.quit:
				return
			case <-d.wake:
			}
			d.mu.Lock()
			ops := d.ops
			d.ops = nil
			d.mu.Unlock()
			for _, op := range ops {
				select {
				case <-d.quit:
					return
				default:
				}
				d.run(op)
			}
		}
	}()
}

// Stop ends the loop. Ops still queued are dropped.
func (d *Dispatcher) Stop() {
	close(d.quit)
	<-d.done
}
