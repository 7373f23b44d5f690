package stream

import (
	"sync"
)

// Hub is the shared broadcast point between the transport connection and its
// consumers. Every subscriber receives every event matching its filter —
// fan-out, not fan-in. A momentarily slow consumer is buffered, not dropped;
// unbounded growth is the accepted risk, bounded by practical event rates.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]func(any)
	nextID uint64
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]func(any))}
}

// Publish delivers ev to every subscriber. Safe for concurrent producers.
func (h *Hub) Publish(ev any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, offer := range h.subs {
		offer(ev)
	}
}

func (h *Hub) attach(offer func(any)) uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	id := h.nextID
	h.subs[id] = offer
	return id
}

func (h *Hub) detach(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, id)
}

// Feed is a lazily-consumed sequence of typed events. Close releases the
// subscription; the event channel is closed afterwards.
type Feed[T any] struct {
	hub *Hub
	id  uint64

	mu     sync.Mutex
	queue  []T
	closed bool

	notify chan struct{}
	done   chan struct{}
	out    chan T

	closeOnce sync.Once
}

// Subscribe attaches a typed feed to the hub. Only events assignable to T
// and passing match (nil matches everything) are delivered.
func Subscribe[T any](h *Hub, match func(T) bool) *Feed[T] {
	f := &Feed[T]{
		hub:    h,
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
		out:    make(chan T, 64),
	}
	f.id = h.attach(func(ev any) {
		v, ok := ev.(T)
		if !ok {
			return
		}
		if match != nil && !match(v) {
			return
		}
		f.offer(v)
	})
	go f.pump()
	return f
}

// C is the event channel. It is closed after Close.
func (f *Feed[T]) C() <-chan T { return f.out }

// Close detaches from the hub and terminates the event channel.
func (f *Feed[T]) Close() {
	f.closeOnce.Do(func() {
		f.hub.detach(f.id)
		f.mu.Lock()
		f.closed = true
		f.mu.Unlock()
		close(f.done)
	})
}

func (f *Feed[T]) offer(v T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.queue = append(f.queue, v)
	select {
	case f.notify <- struct{}{}:
	default:
	}
}

// pump moves events from the unbounded queue to the outbound channel,
// decoupling publisher speed from consumer speed.
func (f *Feed[T]) pump() {
	defer close(f.out)
	for {
		select {
		case <-f.done:
			return
		case <-f.notify:
		}

		for {
			f.mu.Lock()
			if len(f.queue) == 0 {
				f.mu.Unlock()
				break
			}
			v := f.queue[0]
			f.queue = f.queue[1:]
			f.mu.Unlock()

			select {
			case f.out <- v:
			case <-f.done:
				return
			}
		}
	}
}
