package stream

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// tuple addresses one channel+param subscription set.
type tuple struct {
	Channel Channel
	Param   string
}

// tupleState is the active instrument set for one tuple. Each tuple carries
// its own mutex so reconciles for different tuples run concurrently while
// updates to the same tuple never interleave.
type tupleState struct {
	mu     sync.Mutex
	active map[string]bool
}

// Registry tracks the set of outstanding subscriptions per logical channel.
// Its active map is the single source of truth for what must be re-sent
// after a reconnect.
//
// ReplayAll holds the registry exclusively so a fresh Reconcile never races
// a stale replay.
type Registry struct {
	send   func(Key, bool) error
	logger *logrus.Logger

	replayMu sync.RWMutex

	mu     sync.Mutex
	tuples map[tuple]*tupleState
}

// NewRegistry creates a registry that issues control messages through send.
// Sends are best-effort: a failure is logged, bookkeeping is updated anyway,
// and the next reconnect's full replay is the recovery mechanism.
func NewRegistry(send func(key Key, subscribe bool) error, logger *logrus.Logger) *Registry {
	return &Registry{
		send:   send,
		logger: logger,
		tuples: make(map[tuple]*tupleState),
	}
}

func (r *Registry) state(t tuple) *tupleState {
	r.mu.Lock()
	defer r.mu.Unlock()
	ts, ok := r.tuples[t]
	if !ok {
		ts = &tupleState{active: make(map[string]bool)}
		r.tuples[t] = ts
	}
	return ts
}

// Reconcile moves the tuple's active set to the desired set: it subscribes
// desired-minus-active, unsubscribes active-minus-desired, and leaves the
// rest untouched. Calling it again with the same desired set sends nothing.
func (r *Registry) Reconcile(channel Channel, param string, desired []string) {
	r.replayMu.RLock()
	defer r.replayMu.RUnlock()

	ts := r.state(tuple{Channel: channel, Param: param})
	ts.mu.Lock()
	defer ts.mu.Unlock()

	want := make(map[string]bool, len(desired))
	for _, figi := range desired {
		want[figi] = true
	}

	for figi := range want {
		if ts.active[figi] {
			continue
		}
		key := Key{Channel: channel, FIGI: figi, Param: param}
		if err := r.send(key, true); err != nil {
			r.logger.WithField("figi", figi).Warnf("subscribe %s failed: %v", channel, err)
		}
		ts.active[figi] = true
	}

	for figi := range ts.active {
		if want[figi] {
			continue
		}
		key := Key{Channel: channel, FIGI: figi, Param: param}
		if err := r.send(key, false); err != nil {
			r.logger.WithField("figi", figi).Warnf("unsubscribe %s failed: %v", channel, err)
		}
		delete(ts.active, figi)
	}
}

// Remove unsubscribes a single key, e.g. dropping one instrument's day-candle
// feed after its first day candle arrived.
func (r *Registry) Remove(channel Channel, param, figi string) {
	r.replayMu.RLock()
	defer r.replayMu.RUnlock()

	ts := r.state(tuple{Channel: channel, Param: param})
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if !ts.active[figi] {
		return
	}
	key := Key{Channel: channel, FIGI: figi, Param: param}
	if err := r.send(key, false); err != nil {
		r.logger.WithField("figi", figi).Warnf("unsubscribe %s failed: %v", channel, err)
	}
	delete(ts.active, figi)
}

// ReplayAll re-issues subscribe for every active key without mutating the
// active sets. Used exactly once per reconnect, before any new reconcile is
// accepted.
func (r *Registry) ReplayAll() {
	r.replayMu.Lock()
	defer r.replayMu.Unlock()

	for _, key := range r.activeKeysLocked() {
		if err := r.send(key, true); err != nil {
			r.logger.WithField("figi", key.FIGI).Warnf("replay %s failed: %v", key.Channel, err)
		}
	}
}

// ActiveKeys returns a snapshot of every outstanding subscription key.
func (r *Registry) ActiveKeys() []Key {
	r.replayMu.RLock()
	defer r.replayMu.RUnlock()
	return r.activeKeysLocked()
}

func (r *Registry) activeKeysLocked() []Key {
	r.mu.Lock()
	states := make(map[tuple]*tupleState, len(r.tuples))
	for t, ts := range r.tuples {
		states[t] = ts
	}
	r.mu.Unlock()

	var keys []Key
	for t, ts := range states {
		ts.mu.Lock()
		for figi := range ts.active {
			keys = append(keys, Key{Channel: t.Channel, FIGI: figi, Param: t.Param})
		}
		ts.mu.Unlock()
	}
	return keys
}

// Clear drops all bookkeeping without sending unsubscribes. Called on
// explicit disconnect.
func (r *Registry) Clear() {
	r.replayMu.Lock()
	defer r.replayMu.Unlock()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tuples = make(map[tuple]*tupleState)
}
