package events

import (
	"sync"

	"github.com/tolelom/cryptowarriors/internal/logger"
)

// EventType labels what happened.
type EventType string

const (
	EventBlockCommit     EventType = "block_commit"
	EventTxExecuted      EventType = "tx_executed"
	EventTxFailed        EventType = "tx_failed"
	EventTokenPurchase   EventType = "token_purchase"
	EventTokenReward     EventType = "token_reward"
	EventTokenTransfer   EventType = "token_transfer"
	EventTokenSpent      EventType = "token_spent"
	EventCallerSet       EventType = "game_contract_set"
	EventWarriorCreated  EventType = "warrior_created"
	EventWarriorHealed   EventType = "warrior_healed"
	EventWarriorTransfer EventType = "warrior_transfer"
	EventWarriorApproval EventType = "warrior_approval"
	EventQueueEntered    EventType = "queue_entered"
	EventBattleResolved  EventType = "battle_resolved"
	EventListingCreated  EventType = "listing_created"
	EventListingRemoved  EventType = "listing_cancelled"
	EventWarriorSold     EventType = "warrior_sold"
)

// Event carries a typed payload emitted after a state change.
type Event struct {
	Type        EventType      `json:"type"`
	TxID        string         `json:"tx_id"`
	BlockHeight int64          `json:"block_height"`
	Data        map[string]any `json:"data"`
}

// Handler is a callback invoked for matching events.
type Handler func(Event)

// Emitter is a simple pub/sub broker. Subscribe before Emit.
type Emitter struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	all      []Handler
}

// NewEmitter creates an Emitter with no subscribers.
func NewEmitter() *Emitter {
	return &Emitter{handlers: make(map[EventType][]Handler)}
}

// Subscribe registers h to be called whenever typ is emitted.
func (e *Emitter) Subscribe(typ EventType, h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[typ] = append(e.handlers[typ], h)
}

// SubscribeAll registers h for every event type.
func (e *Emitter) SubscribeAll(h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.all = append(e.all, h)
}

// Emit delivers ev to all subscribers for ev.Type synchronously.
// A panicking subscriber is recovered and logged.
func (e *Emitter) Emit(ev Event) {
	e.mu.RLock()
	handlers := make([]Handler, 0, len(e.handlers[ev.Type])+len(e.all))
	handlers = append(handlers, e.handlers[ev.Type]...)
	handlers = append(handlers, e.all...)
	e.mu.RUnlock()
	for _, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("event handler panicked", "event", ev.Type, "panic", r)
				}
			}()
			h(ev)
		}()
	}
}

// EmitAll delivers evs in order.
func (e *Emitter) EmitAll(evs []Event) {
	for _, ev := range evs {
		e.Emit(ev)
	}
}
