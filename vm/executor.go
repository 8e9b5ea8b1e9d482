package vm

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/tolelom/cryptowarriors/core"
	"github.com/tolelom/cryptowarriors/crypto"
)

// Executor applies calls and signed transactions to the state through the
// global Handler registry. Every call runs inside a state snapshot and leaves
// no trace when it fails.
type Executor struct {
	state    core.State
	params   core.GameParams
	chainID  string
	registry *Registry
}

// NewExecutor creates an Executor over state.
func NewExecutor(state core.State, params core.GameParams, chainID string) *Executor {
	return &Executor{state: state, params: params, chainID: chainID, registry: globalRegistry}
}

// Params returns the game parameters handlers run with.
func (e *Executor) Params() core.GameParams { return e.params }

// Call describes one operation by a caller.
type Call struct {
	Caller    string
	Type      core.TxType
	Value     uint64
	Payload   json.RawMessage
	TxID      string // empty: derived from the call counter
	Height    int64
	Timestamp int64
}

// Execute runs call atomically and returns the handler context, whose Result
// and buffered events are valid only when err is nil.
func (e *Executor) Execute(call Call) (*Context, error) {
	snapID, err := e.state.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	ctx, err := e.apply(call, nil)
	if err != nil {
		if revertErr := e.state.RevertToSnapshot(snapID); revertErr != nil {
			return nil, fmt.Errorf("revert snapshot after call failure: %w (revert: %v)", err, revertErr)
		}
		return nil, err
	}
	return ctx, nil
}

// ExecuteTx verifies and executes a signed transaction at height. It always
// returns a receipt; a failed transaction leaves state and nonce untouched and
// its cause is returned as the error.
func (e *Executor) ExecuteTx(tx *core.Transaction, height, timestamp int64) (*core.Receipt, *Context, error) {
	receipt := &core.Receipt{TxID: tx.ID, Type: tx.Type, From: tx.From, BlockHeight: height}
	fail := func(err error) (*core.Receipt, *Context, error) {
		receipt.Error = err.Error()
		return receipt, nil, err
	}
	if tx.ChainID != e.chainID {
		return fail(fmt.Errorf("chain ID mismatch: got %q want %q", tx.ChainID, e.chainID))
	}
	if err := tx.Verify(); err != nil {
		return fail(fmt.Errorf("signature: %w", err))
	}

	snapID, err := e.state.Snapshot()
	if err != nil {
		return fail(fmt.Errorf("snapshot: %w", err))
	}
	call := Call{
		Caller:    tx.From,
		Type:      tx.Type,
		Value:     tx.Value,
		Payload:   tx.Payload,
		TxID:      tx.ID,
		Height:    height,
		Timestamp: timestamp,
	}
	ctx, err := e.apply(call, tx)
	if err != nil {
		if revertErr := e.state.RevertToSnapshot(snapID); revertErr != nil {
			return fail(fmt.Errorf("%w (revert: %v)", err, revertErr))
		}
		return fail(err)
	}
	receipt.Success = true
	receipt.Result = ctx.Result
	return receipt, ctx, nil
}

// apply bumps the nonce of signed transactions, assigns ids to in-process
// calls, then dispatches to the handler.
func (e *Executor) apply(call Call, tx *core.Transaction) (*Context, error) {
	if call.Caller == "" {
		return nil, fmt.Errorf("missing caller: %w", core.ErrUnauthorized)
	}
	if tx != nil {
		acc, err := e.state.GetAccount(tx.From)
		if err != nil {
			return nil, fmt.Errorf("get account: %w", err)
		}
		if acc.Nonce != tx.Nonce {
			return nil, fmt.Errorf("invalid nonce: expected %d got %d", acc.Nonce, tx.Nonce)
		}
		if acc.Nonce == math.MaxUint64 {
			return nil, fmt.Errorf("nonce overflow for account %s", tx.From)
		}
		acc.Nonce++
		if err := e.state.SetAccount(acc); err != nil {
			return nil, err
		}
	}
	if call.TxID == "" {
		seq, err := core.NextID(e.state, core.CounterCalls)
		if err != nil {
			return nil, err
		}
		call.TxID = callID(call, seq)
	}

	ctx := &Context{
		State:     e.state,
		Params:    e.params,
		Caller:    call.Caller,
		Value:     call.Value,
		TxID:      call.TxID,
		Height:    call.Height,
		Timestamp: call.Timestamp,
	}
	if err := e.registry.Execute(call.Type, ctx, call.Payload); err != nil {
		return nil, err
	}
	if ctx.Value > 0 && !ctx.valueTaken {
		return nil, core.ErrValueRejected
	}
	return ctx, nil
}

// callID derives a deterministic id for an in-process call from its content
// and its position in the call sequence.
func callID(call Call, seq uint64) string {
	data, _ := json.Marshal(struct {
		Caller  string          `json:"caller"`
		Type    core.TxType     `json:"type"`
		Value   uint64          `json:"value"`
		Payload json.RawMessage `json:"payload"`
		Seq     uint64          `json:"seq"`
	}{call.Caller, call.Type, call.Value, call.Payload, seq})
	return crypto.Hash(data)
}
