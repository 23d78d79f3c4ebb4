package notification

import (
	"context"
	"log"
	"sync"
	"time"
)

const sendTimeout = 15 * time.Second

// Dispatcher queues events and delivers them from a single background
// worker, so request paths never wait on the mail provider.
type Dispatcher struct {
	svc   *Service
	queue chan Event
	wg    sync.WaitGroup

	mu      sync.RWMutex
	stopped bool
}

func NewDispatcher(svc *Service, buffer int) *Dispatcher {
	if buffer <= 0 {
		buffer = 256
	}
	return &Dispatcher{svc: svc, queue: make(chan Event, buffer)}
}

// Start runs the worker until Stop is called.
func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for ev := range d.queue {
			ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
			if err := d.svc.Send(ctx, ev); err != nil {
				log.Printf("notification_send_failed template=%s user_id=%d file_id=%s err=%v", ev.Template, ev.UserID, ev.FileID, err)
			}
			cancel()
		}
	}()
}

// Notify enqueues ev. When the queue is full or the dispatcher has been
// stopped the event is dropped and logged.
func (d *Dispatcher) Notify(_ context.Context, ev Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		log.Printf("notification_dropped template=%s file_id=%s err=%v", ev.Template, ev.FileID, ErrDispatcherStopped)
		return
	}
	select {
	case d.queue <- ev:
	default:
		log.Printf("notification_dropped template=%s file_id=%s err=%v", ev.Template, ev.FileID, ErrQueueFull)
	}
}

// Stop drains queued events and waits for the worker to exit. Later calls
// to Notify are dropped, so handlers still running after a shutdown
// timeout never send on the closed queue.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.stopped {
		d.stopped = true
		close(d.queue)
	}
	d.mu.Unlock()
	d.wg.Wait()
}
