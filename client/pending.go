package client

import (
	"sync"

	"github.com/aashishbishow/quicserve/wire"
)

// result is delivered to exactly one waiting call, either with a payload
// or with an error (RpcFailed or ConnectionClosed). Timeouts are not
// delivered through a result; Call returns them directly.
type result struct {
	payload []byte
	err     error
}

// pendingTable is the client's pending call table (spec.md section 3): a
// mapping from request id to a one-shot result channel. A channel is
// written only by whoever removed its entry from the table (the
// demultiplexer on response arrival, or failConnection on connection
// failure), so it receives at most one result; the caller that registered
// the entry is the sole consumer.
type pendingTable struct {
	mu      sync.Mutex
	entries map[uint64]chan result
	nextID  uint64
}

func newPendingTable() *pendingTable {
	return &pendingTable{entries: make(map[uint64]chan result)}
}

// register allocates the next free id, monotonically, with wraparound on
// overflow and skip-if-still-pending (spec.md section 3 "Identifier
// allocation"), and inserts a fresh result channel for it atomically with
// the allocation.
func (t *pendingTable) register() (uint64, chan result) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for {
		id := t.nextID
		t.nextID++
		if _, taken := t.entries[id]; !taken {
			ch := make(chan result, 1)
			t.entries[id] = ch
			return id, ch
		}
	}
}

// take removes and returns the entry for id, if present. Used by both the
// demultiplexer (on response arrival) and the caller (on timeout/cancel),
// whichever gets there first.
func (t *pendingTable) take(id uint64) (chan result, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ch, ok := t.entries[id]
	if ok {
		delete(t.entries, id)
	}
	return ch, ok
}

// drain removes every pending entry and returns their channels, used when
// the connection fails and every outstanding call must be failed with
// ConnectionClosed.
func (t *pendingTable) drain() []chan result {
	t.mu.Lock()
	defer t.mu.Unlock()
	chans := make([]chan result, 0, len(t.entries))
	for id, ch := range t.entries {
		chans = append(chans, ch)
		delete(t.entries, id)
	}
	return chans
}

// responseToResult converts a decoded wire.Response into the result
// delivered to the waiting caller.
func responseToResult(resp wire.Response) result {
	if resp.Error != "" {
		return result{err: newRPCFailedError(resp.Error)}
	}
	return result{payload: resp.Payload}
}
