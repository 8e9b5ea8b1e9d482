package vm

import (
	"github.com/tolelom/cryptowarriors/core"
	"github.com/tolelom/cryptowarriors/events"
)

// Context is passed to every Handler. It carries the state, the game
// parameters and the identity, payment and id of the triggering call.
type Context struct {
	State  core.State
	Params core.GameParams

	Caller    string
	Value     uint64 // native payment attached to the call
	TxID      string
	Height    int64
	Timestamp int64

	// Result is set by the handler and returned to the caller.
	Result any

	valueTaken bool
	events     []events.Event
}

// TakeValue moves the attached payment out of the caller's native balance and
// returns it. Payable handlers must call it exactly once; a call that carries
// value its handler never took is rejected.
func (c *Context) TakeValue() (uint64, error) {
	if c.valueTaken {
		return c.Value, nil
	}
	c.valueTaken = true
	if c.Value == 0 {
		return 0, nil
	}
	acc, err := c.State.GetAccount(c.Caller)
	if err != nil {
		return 0, err
	}
	if acc.Native < c.Value {
		return 0, core.ErrInsufficientBalance
	}
	acc.Native -= c.Value
	if err := c.State.SetAccount(acc); err != nil {
		return 0, err
	}
	return c.Value, nil
}

// Emit buffers an event. Buffered events are published only if the whole
// call succeeds and its state is committed.
func (c *Context) Emit(typ events.EventType, data map[string]any) {
	c.events = append(c.events, events.Event{
		Type:        typ,
		TxID:        c.TxID,
		BlockHeight: c.Height,
		Data:        data,
	})
}

// Events returns the events buffered so far.
func (c *Context) Events() []events.Event {
	return c.events
}
