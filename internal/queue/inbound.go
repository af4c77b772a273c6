package queue

import (
	"fmt"
	"sync"

	"github.com/bnema/tonebridge/internal/domain"
	"github.com/bnema/tonebridge/internal/protocol"
)

const DefaultCapacity = 256

type EventKind int

const (
	EventCommand EventKind = iota
	EventConnected
	EventDisconnected
)

func (k EventKind) String() string {
	switch k {
	case EventCommand:
		return "command"
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is what the network actor hands to the host actor. Connected and
// Disconnected carry only the session token; Command carries the decoded
// frame.
type Event struct {
	Kind    EventKind
	Token   string
	Command protocol.Command
}

// Inbound is the bounded network to host queue. Push never blocks.
type Inbound struct {
	mu       sync.Mutex
	items    []Event
	capacity int
}

func NewInbound(capacity int) *Inbound {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	return &Inbound{
		items:    make([]Event, 0, capacity),
		capacity: capacity,
	}
}

// PushCommand enqueues a decoded command. A set_tone on a full queue returns
// an error matching domain.ErrBusy. Refresh-class commands coalesce with an
// equivalent pending command for the same session and are discarded without
// error when the queue is full.
func (q *Inbound) PushCommand(cmd protocol.Command) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	switch cmd.CommandType() {
	case protocol.CommandSetTone:
		if len(q.items) >= q.capacity {
			return fmt.Errorf("push set_tone: %w", domain.ErrBusy)
		}
	default:
		for _, pending := range q.items {
			if pending.Kind == EventCommand &&
				pending.Command.CommandType() == cmd.CommandType() &&
				pending.Token == cmd.Token() {
				return nil
			}
		}
		if len(q.items) >= q.capacity {
			return nil
		}
	}

	q.items = append(q.items, Event{Kind: EventCommand, Token: cmd.Token(), Command: cmd})

	return nil
}

// PushLifecycle records a connection event. These are always accepted: there
// is at most one per accepted socket and the host actor must see them to
// keep its session view correct.
func (q *Inbound) PushLifecycle(kind EventKind, token string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.items = append(q.items, Event{Kind: kind, Token: token})
}

// Drain removes and returns every pending event in arrival order.
func (q *Inbound) Drain() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = make([]Event, 0, q.capacity)

	return out
}

func (q *Inbound) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.items)
}

