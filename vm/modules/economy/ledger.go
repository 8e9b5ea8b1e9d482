// Package economy implements the WAR token ledger: purchases, authorized
// rewards, transfers, game-action spending and the caller allow-list.
package economy

import (
	"fmt"
	"math/bits"

	"github.com/tolelom/cryptowarriors/core"
	"github.com/tolelom/cryptowarriors/events"
	"github.com/tolelom/cryptowarriors/vm"
)

// Credit adds amount WAR to address.
func Credit(s core.State, address string, amount uint64) error {
	acc, err := s.GetAccount(address)
	if err != nil {
		return err
	}
	sum, carry := bits.Add64(acc.Balance, amount, 0)
	if carry != 0 {
		return fmt.Errorf("credit %d to %s: %w", amount, address, core.ErrOverflow)
	}
	acc.Balance = sum
	return s.SetAccount(acc)
}

// Debit removes amount WAR from address.
func Debit(s core.State, address string, amount uint64) error {
	acc, err := s.GetAccount(address)
	if err != nil {
		return err
	}
	if acc.Balance < amount {
		return fmt.Errorf("have %d, need %d: %w", acc.Balance, amount, core.ErrInsufficientBalance)
	}
	acc.Balance -= amount
	return s.SetAccount(acc)
}

// CreditNative adds amount native units to address.
func CreditNative(s core.State, address string, amount uint64) error {
	if amount == 0 {
		return nil
	}
	acc, err := s.GetAccount(address)
	if err != nil {
		return err
	}
	sum, carry := bits.Add64(acc.Native, amount, 0)
	if carry != 0 {
		return fmt.Errorf("credit native %d to %s: %w", amount, address, core.ErrOverflow)
	}
	acc.Native = sum
	return s.SetAccount(acc)
}

// Spend burns amount WAR from the caller for a game action.
func Spend(ctx *vm.Context, amount uint64, reason string) error {
	if amount == 0 {
		return nil
	}
	if err := Debit(ctx.State, ctx.Caller, amount); err != nil {
		return err
	}
	ctx.Emit(events.EventTokenSpent, map[string]any{
		"from":   ctx.Caller,
		"amount": amount,
		"reason": reason,
	})
	return nil
}

// Reward mints amount WAR to recipient on behalf of caller, which must be on
// the authorized-caller list.
func Reward(ctx *vm.Context, caller, recipient string, amount uint64, reason string) error {
	ok, err := ctx.State.IsAuthorized(caller)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s: %w", caller, core.ErrNotAuthorizedCaller)
	}
	if amount == 0 {
		return core.ErrInvalidAmount
	}
	if recipient == "" {
		return core.ErrInvalidAddress
	}
	if err := Credit(ctx.State, recipient, amount); err != nil {
		return err
	}
	ctx.Emit(events.EventTokenReward, map[string]any{
		"caller": caller,
		"to":     recipient,
		"amount": amount,
		"reason": reason,
	})
	return nil
}

// SplitPayment pays price native units to seller, minus the creator royalty
// of RoyaltyBps. When creator and seller coincide the seller receives all of
// it. It returns the royalty paid to the creator.
func SplitPayment(ctx *vm.Context, creator, seller string, price uint64) (uint64, error) {
	var royalty uint64
	if creator != seller {
		hi, lo := bits.Mul64(price, ctx.Params.RoyaltyBps)
		royalty, _ = bits.Div64(hi, lo, 10_000)
	}
	if err := CreditNative(ctx.State, creator, royalty); err != nil {
		return 0, err
	}
	if err := CreditNative(ctx.State, seller, price-royalty); err != nil {
		return 0, err
	}
	return royalty, nil
}
