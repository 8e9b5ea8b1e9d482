package vm_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tolelom/cryptowarriors/core"
	"github.com/tolelom/cryptowarriors/events"
	"github.com/tolelom/cryptowarriors/internal/testutil"
	"github.com/tolelom/cryptowarriors/vm"
)

const (
	chainID = "test-chain"

	txBump    core.TxType = "test_bump"
	txBumpErr core.TxType = "test_bump_then_fail"
	txPay     core.TxType = "test_pay"
)

var errBoom = errors.New("boom")

func init() {
	vm.Register(txBump, func(ctx *vm.Context, _ json.RawMessage) error {
		if _, err := core.NextID(ctx.State, "test"); err != nil {
			return err
		}
		ctx.Result = ctx.TxID
		ctx.Emit(events.EventType("test_bumped"), map[string]any{"caller": ctx.Caller})
		return nil
	})
	vm.Register(txBumpErr, func(ctx *vm.Context, _ json.RawMessage) error {
		if _, err := core.NextID(ctx.State, "test"); err != nil {
			return err
		}
		return errBoom
	})
	vm.Register(txPay, func(ctx *vm.Context, _ json.RawMessage) error {
		paid, err := ctx.TakeValue()
		if err != nil {
			return err
		}
		ctx.Result = paid
		return nil
	})
}

func counter(t *testing.T, s core.State) uint64 {
	t.Helper()
	v, err := s.GetCounter("test")
	require.NoError(t, err)
	return v
}

func TestExecuteCommitsOnSuccess(t *testing.T) {
	s := testutil.NewStateDB()
	exec := vm.NewExecutor(s, core.DefaultGameParams(), chainID)

	ctx, err := exec.Execute(vm.Call{Caller: "alice", Type: txBump})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), counter(t, s))
	assert.NotEmpty(t, ctx.TxID)
	require.Len(t, ctx.Events(), 1)
	assert.Equal(t, ctx.TxID, ctx.Events()[0].TxID)
}

func TestExecuteRevertsOnFailure(t *testing.T) {
	s := testutil.NewStateDB()
	exec := vm.NewExecutor(s, core.DefaultGameParams(), chainID)
	root := s.ComputeRoot()

	_, err := exec.Execute(vm.Call{Caller: "alice", Type: txBumpErr})
	assert.ErrorIs(t, err, errBoom)
	assert.Zero(t, counter(t, s))
	assert.Equal(t, root, s.ComputeRoot())
}

func TestInProcessCallIDsAreUnique(t *testing.T) {
	s := testutil.NewStateDB()
	exec := vm.NewExecutor(s, core.DefaultGameParams(), chainID)

	a, err := exec.Execute(vm.Call{Caller: "alice", Type: txBump})
	require.NoError(t, err)
	b, err := exec.Execute(vm.Call{Caller: "alice", Type: txBump})
	require.NoError(t, err)
	assert.NotEqual(t, a.TxID, b.TxID)
}

func TestExecuteRejectsBadCalls(t *testing.T) {
	s := testutil.NewStateDB()
	exec := vm.NewExecutor(s, core.DefaultGameParams(), chainID)

	_, err := exec.Execute(vm.Call{Type: txBump})
	assert.ErrorIs(t, err, core.ErrUnauthorized)

	_, err = exec.Execute(vm.Call{Caller: "alice", Type: "no_such_type"})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestValueMustBeTaken(t *testing.T) {
	s := testutil.NewStateDB()
	testutil.Fund(t, s, "alice", 0, 100)
	exec := vm.NewExecutor(s, core.DefaultGameParams(), chainID)

	_, err := exec.Execute(vm.Call{Caller: "alice", Type: txBump, Value: 10})
	assert.ErrorIs(t, err, core.ErrValueRejected)
	assert.Equal(t, uint64(100), testutil.Native(t, s, "alice"))
	assert.Zero(t, counter(t, s))

	ctx, err := exec.Execute(vm.Call{Caller: "alice", Type: txPay, Value: 10})
	require.NoError(t, err)
	assert.Equal(t, uint64(10), ctx.Result)
	assert.Equal(t, uint64(90), testutil.Native(t, s, "alice"))

	_, err = exec.Execute(vm.Call{Caller: "alice", Type: txPay, Value: 1000})
	assert.ErrorIs(t, err, core.ErrInsufficientFunds)
	assert.Equal(t, uint64(90), testutil.Native(t, s, "alice"))
}

func TestExecuteTx(t *testing.T) {
	s := testutil.NewStateDB()
	exec := vm.NewExecutor(s, core.DefaultGameParams(), chainID)
	priv, addr := testutil.KeyPair(t)

	tx, err := core.NewTransaction(chainID, txBump, addr, 0, 0, struct{}{})
	require.NoError(t, err)
	tx.Sign(priv)

	receipt, ctx, err := exec.ExecuteTx(tx, 1, 0)
	require.NoError(t, err)
	assert.True(t, receipt.Success)
	assert.Equal(t, tx.ID, ctx.TxID)
	assert.Equal(t, tx.ID, receipt.Result)

	acc, err := s.GetAccount(addr)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), acc.Nonce)

	// Replaying the same nonce fails and leaves the nonce alone.
	receipt, _, err = exec.ExecuteTx(tx, 2, 0)
	require.Error(t, err)
	assert.False(t, receipt.Success)
	assert.Contains(t, receipt.Error, "invalid nonce")
	acc, err = s.GetAccount(addr)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), acc.Nonce)
}

func TestExecuteTxFailureKeepsNonce(t *testing.T) {
	s := testutil.NewStateDB()
	exec := vm.NewExecutor(s, core.DefaultGameParams(), chainID)
	priv, addr := testutil.KeyPair(t)

	tx, err := core.NewTransaction(chainID, txBumpErr, addr, 0, 0, struct{}{})
	require.NoError(t, err)
	tx.Sign(priv)

	receipt, ctx, err := exec.ExecuteTx(tx, 1, 0)
	assert.ErrorIs(t, err, errBoom)
	assert.Nil(t, ctx)
	assert.Equal(t, "boom", receipt.Error)
	acc, err := s.GetAccount(addr)
	require.NoError(t, err)
	assert.Zero(t, acc.Nonce)
}

func TestExecuteTxChecksChainAndSignature(t *testing.T) {
	s := testutil.NewStateDB()
	exec := vm.NewExecutor(s, core.DefaultGameParams(), chainID)
	priv, addr := testutil.KeyPair(t)

	other, err := core.NewTransaction("other-chain", txBump, addr, 0, 0, struct{}{})
	require.NoError(t, err)
	other.Sign(priv)
	_, _, err = exec.ExecuteTx(other, 1, 0)
	assert.ErrorContains(t, err, "chain ID mismatch")

	tx, err := core.NewTransaction(chainID, txBump, addr, 0, 0, struct{}{})
	require.NoError(t, err)
	tx.Sign(priv)
	tx.Nonce = 5
	_, _, err = exec.ExecuteTx(tx, 1, 0)
	assert.ErrorContains(t, err, "signature")
}
