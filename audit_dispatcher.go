package goAccount

import (
	"context"
	"sync"
	"sync/atomic"
)

// auditDispatcher hands audit events to the sink on its own goroutine so a
// slow sink never holds up register, login or reset requests. A nil
// dispatcher is valid and discards everything.
type auditDispatcher struct {
	sink       AuditSink
	dropIfFull bool
	queue      chan AuditEvent
	stop       chan struct{}
	stopOnce   sync.Once
	closed     atomic.Bool
	worker     sync.WaitGroup

	dropped atomic.Uint64
	mu      sync.Mutex
	byEvent map[string]uint64
}

func newAuditDispatcher(cfg AuditConfig, sink AuditSink) *auditDispatcher {
	if !cfg.Enabled {
		return nil
	}
	size := cfg.BufferSize
	if size <= 0 {
		size = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &auditDispatcher{
		sink:       sink,
		dropIfFull: cfg.DropIfFull,
		queue:      make(chan AuditEvent, size),
		stop:       make(chan struct{}),
		byEvent:    make(map[string]uint64),
	}
	d.worker.Add(1)
	go d.loop()
	return d
}

func (d *auditDispatcher) loop() {
	defer d.worker.Done()
	for {
		select {
		case event := <-d.queue:
			d.sink.Emit(context.Background(), event)
		case <-d.stop:
			// Flush what was accepted before Close.
			for {
				select {
				case event := <-d.queue:
					d.sink.Emit(context.Background(), event)
				default:
					return
				}
			}
		}
	}
}

// Emit queues event for the sink. When the buffer is full, DropIfFull
// discards the event at once; otherwise Emit waits until there is room, ctx
// ends or the dispatcher closes. Only the first two outcomes count as drops.
func (d *auditDispatcher) Emit(ctx context.Context, event AuditEvent) {
	if d == nil || d.closed.Load() {
		return
	}

	if d.dropIfFull {
		select {
		case d.queue <- event:
		case <-d.stop:
		default:
			d.drop(event.EventType)
		}
		return
	}

	var cancelled <-chan struct{}
	if ctx != nil {
		cancelled = ctx.Done()
	}
	select {
	case d.queue <- event:
	case <-cancelled:
		d.drop(event.EventType)
	case <-d.stop:
	}
}

func (d *auditDispatcher) drop(eventType string) {
	d.dropped.Add(1)
	d.mu.Lock()
	d.byEvent[eventType]++
	d.mu.Unlock()
}

// Close stops accepting events, delivers the queued ones and waits for the
// worker. Repeated calls are no-ops.
func (d *auditDispatcher) Close() {
	if d == nil {
		return
	}
	d.stopOnce.Do(func() {
		d.closed.Store(true)
		close(d.stop)
		d.worker.Wait()
	})
}

func (d *auditDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

// DroppedByEvent returns a copy of the drop counts keyed by event type.
func (d *auditDispatcher) DroppedByEvent() map[string]uint64 {
	out := make(map[string]uint64)
	if d == nil {
		return out
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for event, n := range d.byEvent {
		out[event] = n
	}
	return out
}
