package queue

import (
	"sync"

	"github.com/bnema/tonebridge/internal/protocol"
)

// Priority orders outbound messages for eviction. Higher survives longer.
type Priority int

const (
	PriorityRoutine Priority = iota
	PriorityReply
	PriorityHandshake
)

func PriorityOf(msg protocol.Message) Priority {
	switch msg.MessageType() {
	case protocol.MessageHandshake:
		return PriorityHandshake
	case protocol.MessageAck, protocol.MessageError:
		return PriorityReply
	default:
		return PriorityRoutine
	}
}

// Envelope is an outbound message addressed to one session.
type Envelope struct {
	Token    string
	Message  protocol.Message
	Priority Priority
}

// Outbound is the bounded host to network queue. Push never blocks.
type Outbound struct {
	mu       sync.Mutex
	items    []Envelope
	capacity int
	dropped  uint64
	ready    chan struct{}
}

func NewOutbound(capacity int) *Outbound {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	return &Outbound{
		items:    make([]Envelope, 0, capacity),
		capacity: capacity,
		ready:    make(chan struct{}, 1),
	}
}

// Push enqueues msg for the session identified by token and reports whether
// it was kept. On a full queue the oldest message of the lowest pending
// priority is evicted when that priority does not exceed msg's; otherwise msg
// is dropped. A project_changed already pending for the same session absorbs
// a new one.
func (q *Outbound) Push(token string, msg protocol.Message) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	env := Envelope{Token: token, Message: msg, Priority: PriorityOf(msg)}

	if msg.MessageType() == protocol.MessageProjectChanged {
		for _, pending := range q.items {
			if pending.Token == token && pending.Message.MessageType() == protocol.MessageProjectChanged {
				return true
			}
		}
	}

	if len(q.items) >= q.capacity {
		victim := q.lowestOldest()
		if victim < 0 || q.items[victim].Priority > env.Priority {
			q.dropped++
			return false
		}
		q.items = append(q.items[:victim], q.items[victim+1:]...)
		q.dropped++
	}

	q.items = append(q.items, env)
	select {
	case q.ready <- struct{}{}:
	default:
	}

	return true
}

func (q *Outbound) lowestOldest() int {
	victim := -1
	for i, env := range q.items {
		if victim < 0 || env.Priority < q.items[victim].Priority {
			victim = i
		}
	}

	return victim
}

func (q *Outbound) Drain() []Envelope {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = make([]Envelope, 0, q.capacity)

	return out
}

func (q *Outbound) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.items)
}

// Dropped counts messages lost to eviction or rejection.
func (q *Outbound) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.dropped
}

func (q *Outbound) Ready() <-chan struct{} {
	return q.ready
}
