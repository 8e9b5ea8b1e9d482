package economy

import (
	"encoding/json"
	"fmt"
	"math/bits"

	"github.com/tolelom/cryptowarriors/core"
	"github.com/tolelom/cryptowarriors/events"
	"github.com/tolelom/cryptowarriors/vm"
)

func init() {
	vm.Register(core.TxPurchaseCurrency, handlePurchase)
	vm.Register(core.TxRewardPlayer, handleReward)
	vm.Register(core.TxSetGameContract, handleSetGameContract)
	vm.Register(core.TxTransfer, handleTransfer)
}

func handlePurchase(ctx *vm.Context, _ json.RawMessage) error {
	paid, err := ctx.TakeValue()
	if err != nil {
		return err
	}
	if paid == 0 {
		return core.ErrInvalidAmount
	}
	hi, credited := bits.Mul64(paid, ctx.Params.TokensPerNative)
	if hi != 0 {
		return fmt.Errorf("purchase of %d: %w", paid, core.ErrOverflow)
	}
	if err := Credit(ctx.State, ctx.Caller, credited); err != nil {
		return err
	}
	if err := CreditNative(ctx.State, ctx.Params.Treasury, paid); err != nil {
		return err
	}
	ctx.Result = core.PurchaseResult{Paid: paid, Credited: credited}
	ctx.Emit(events.EventTokenPurchase, map[string]any{
		"buyer":    ctx.Caller,
		"paid":     paid,
		"credited": credited,
	})
	return nil
}

func handleReward(ctx *vm.Context, payload json.RawMessage) error {
	var p core.RewardPlayerPayload
	if err := vm.Decode(payload, &p); err != nil {
		return err
	}
	return Reward(ctx, ctx.Caller, p.To, p.Amount, p.Reason)
}

func handleSetGameContract(ctx *vm.Context, payload json.RawMessage) error {
	var p core.SetGameContractPayload
	if err := vm.Decode(payload, &p); err != nil {
		return err
	}
	admin, err := ctx.State.GetAdmin()
	if err != nil {
		return err
	}
	if admin == "" || ctx.Caller != admin {
		return core.ErrNotAdmin
	}
	if p.Caller == "" {
		return core.ErrInvalidAddress
	}
	if err := ctx.State.SetAuthorized(p.Caller, p.Allowed); err != nil {
		return err
	}
	ctx.Emit(events.EventCallerSet, map[string]any{"caller": p.Caller, "allowed": p.Allowed})
	return nil
}

func handleTransfer(ctx *vm.Context, payload json.RawMessage) error {
	var p core.TransferPayload
	if err := vm.Decode(payload, &p); err != nil {
		return err
	}
	if p.Amount == 0 {
		return core.ErrInvalidAmount
	}
	if p.To == "" {
		return core.ErrInvalidAddress
	}
	if p.To == ctx.Caller {
		return core.ErrSelfDealing
	}
	if err := Debit(ctx.State, ctx.Caller, p.Amount); err != nil {
		return err
	}
	if err := Credit(ctx.State, p.To, p.Amount); err != nil {
		return err
	}
	ctx.Emit(events.EventTokenTransfer, map[string]any{
		"from":   ctx.Caller,
		"to":     p.To,
		"amount": p.Amount,
	})
	return nil
}
