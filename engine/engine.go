// Package engine is the single coordinator of the game state. Every public
// call holds one mutex, runs atomically through the VM and commits before
// returning; signed transactions are applied the same way, one block at a
// time.
package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/bits"
	"sync"
	"time"

	"github.com/tolelom/cryptowarriors/core"
	"github.com/tolelom/cryptowarriors/events"
	"github.com/tolelom/cryptowarriors/internal/logger"
	"github.com/tolelom/cryptowarriors/vm"

	// Transaction modules self-register their handlers.
	_ "github.com/tolelom/cryptowarriors/vm/modules/arena"
	_ "github.com/tolelom/cryptowarriors/vm/modules/economy"
	_ "github.com/tolelom/cryptowarriors/vm/modules/market"
	_ "github.com/tolelom/cryptowarriors/vm/modules/warrior"
)

// Engine serializes all access to the game state.
type Engine struct {
	mu      sync.Mutex
	state   core.State
	exec    *vm.Executor
	emitter *events.Emitter
	params  core.GameParams
	now     func() time.Time
}

// New creates an Engine over state. emitter may be nil.
func New(state core.State, chainID string, params core.GameParams, emitter *events.Emitter) *Engine {
	if emitter == nil {
		emitter = events.NewEmitter()
	}
	return &Engine{
		state:   state,
		exec:    vm.NewExecutor(state, params, chainID),
		emitter: emitter,
		params:  params,
		now:     time.Now,
	}
}

// SetClock replaces the time source used to stamp in-process calls.
func (e *Engine) SetClock(now func() time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = now
}

// Params returns the game parameters.
func (e *Engine) Params() core.GameParams { return e.params }

// Emitter returns the event emitter that receives committed events.
func (e *Engine) Emitter() *events.Emitter { return e.emitter }

// InitGenesis seeds a fresh state with the administrator, the authorized
// callers and the balance allocations. It is a no-op once an administrator
// exists.
func (e *Engine) InitGenesis(g core.Genesis) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	admin, err := e.state.GetAdmin()
	if err != nil {
		return err
	}
	if admin != "" {
		return nil
	}
	if g.Admin == "" {
		return errors.New("genesis: admin required")
	}
	if err := e.state.SetAdmin(g.Admin); err != nil {
		return err
	}
	for _, c := range g.AuthorizedCallers {
		if err := e.state.SetAuthorized(c, true); err != nil {
			return err
		}
	}
	for addr, alloc := range g.Alloc {
		acc, err := e.state.GetAccount(addr)
		if err != nil {
			return err
		}
		var carryWar, carryNative uint64
		acc.Balance, carryWar = bits.Add64(acc.Balance, alloc.War, 0)
		acc.Native, carryNative = bits.Add64(acc.Native, alloc.Native, 0)
		if carryWar != 0 || carryNative != 0 {
			return fmt.Errorf("genesis alloc %s: %w", addr, core.ErrOverflow)
		}
		if err := e.state.SetAccount(acc); err != nil {
			return err
		}
	}
	if err := e.state.Commit(); err != nil {
		return fmt.Errorf("commit genesis: %w", err)
	}
	logger.Info("genesis applied", "admin", g.Admin, "callers", len(g.AuthorizedCallers), "accounts", len(g.Alloc))
	return nil
}

// Submit executes an in-process call by a trusted caller identity and
// returns the handler result.
func (e *Engine) Submit(caller string, typ core.TxType, value uint64, payload any) (any, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	ctx, err := e.exec.Execute(vm.Call{
		Caller:    caller,
		Type:      typ,
		Value:     value,
		Payload:   raw,
		Timestamp: e.now().UnixNano(),
	})
	if err != nil {
		e.emitter.Emit(failedEvent("", 0, typ, caller, err))
		return nil, err
	}
	if err := e.state.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	e.emitter.EmitAll(ctx.Events())
	e.emitter.Emit(events.Event{
		Type: events.EventTxExecuted,
		TxID: ctx.TxID,
		Data: map[string]any{"type": string(typ), "from": caller},
	})
	return ctx.Result, nil
}

// ApplyBlock executes the block's transactions in order, fills in receipts
// and the state and receipt roots, and hands the block to seal for signing
// and storage. State is committed only when seal succeeds; otherwise every
// transaction in the block is rolled back.
func (e *Engine) ApplyBlock(block *core.Block, seal func(*core.Block) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	snapID, err := e.state.Snapshot()
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	var pending []events.Event
	block.Receipts = make([]*core.Receipt, 0, len(block.Transactions))
	for _, tx := range block.Transactions {
		receipt, ctx, err := e.exec.ExecuteTx(tx, block.Header.Height, block.Header.Timestamp)
		block.Receipts = append(block.Receipts, receipt)
		if err != nil {
			pending = append(pending, failedEvent(tx.ID, block.Header.Height, tx.Type, tx.From, err))
			continue
		}
		pending = append(pending, ctx.Events()...)
		pending = append(pending, events.Event{
			Type:        events.EventTxExecuted,
			TxID:        tx.ID,
			BlockHeight: block.Header.Height,
			Data:        map[string]any{"type": string(tx.Type), "from": tx.From},
		})
	}
	block.Header.StateRoot = e.state.ComputeRoot()
	block.Header.ReceiptRoot = core.ComputeReceiptRoot(block.Receipts)

	if err := seal(block); err != nil {
		if revertErr := e.state.RevertToSnapshot(snapID); revertErr != nil {
			return fmt.Errorf("seal block: %w (revert: %v)", err, revertErr)
		}
		return fmt.Errorf("seal block: %w", err)
	}
	if err := e.state.Commit(); err != nil {
		return fmt.Errorf("commit state: %w", err)
	}

	e.emitter.EmitAll(pending)
	e.emitter.Emit(events.Event{
		Type:        events.EventBlockCommit,
		BlockHeight: block.Header.Height,
		Data:        map[string]any{"hash": block.Hash, "tx_count": len(block.Transactions)},
	})
	return nil
}

func failedEvent(txID string, height int64, typ core.TxType, from string, err error) events.Event {
	kind := "internal"
	if k := core.KindOf(err); k != nil {
		kind = k.Error()
	}
	return events.Event{
		Type:        events.EventTxFailed,
		TxID:        txID,
		BlockHeight: height,
		Data:        map[string]any{"type": string(typ), "from": from, "kind": kind, "error": err.Error()},
	}
}
