// Package warrior implements the warrior registry: creation, healing,
// approval, royalty transfers and the battle stat updates.
package warrior

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/tolelom/cryptowarriors/core"
	"github.com/tolelom/cryptowarriors/events"
	"github.com/tolelom/cryptowarriors/vm"
	"github.com/tolelom/cryptowarriors/vm/modules/economy"
)

func init() {
	vm.Register(core.TxCreateWarrior, handleCreate)
	vm.Register(core.TxHealWarrior, handleHeal)
	vm.Register(core.TxTransferWarrior, handleTransfer)
	vm.Register(core.TxApproveWarrior, handleApprove)
}

func handleCreate(ctx *vm.Context, payload json.RawMessage) error {
	var p core.CreateWarriorPayload
	if err := vm.Decode(payload, &p); err != nil {
		return err
	}
	if p.Name == "" || len(p.Name) > ctx.Params.MaxNameLength {
		return core.ErrInvalidName
	}
	if !p.Class.Valid() {
		return fmt.Errorf("%q: %w", p.Class, core.ErrInvalidClass)
	}
	if err := economy.Spend(ctx, ctx.Params.MintWarriorCost, "create_warrior"); err != nil {
		return err
	}

	id, err := core.NextID(ctx.State, core.CounterWarriors)
	if err != nil {
		return err
	}
	attack, defense, health := rollStats(p.Class, ctx.TxID, id)
	w := &core.Warrior{
		ID:        id,
		Name:      p.Name,
		Class:     p.Class,
		Attack:    attack,
		Defense:   defense,
		Health:    health,
		MaxHealth: health,
		Level:     1,
		Creator:   ctx.Caller,
		Owner:     ctx.Caller,
		History:   []string{ctx.Caller},
		CreatedAt: ctx.Timestamp,
	}
	if err := ctx.State.SetWarrior(w); err != nil {
		return err
	}
	if err := addOwned(ctx.State, ctx.Caller, id); err != nil {
		return err
	}

	ctx.Result = core.WarriorResult{WarriorID: id}
	ctx.Emit(events.EventWarriorCreated, map[string]any{
		"warrior_id": id,
		"owner":      ctx.Caller,
		"name":       p.Name,
		"class":      string(p.Class),
	})
	return nil
}

func handleHeal(ctx *vm.Context, payload json.RawMessage) error {
	var p core.WarriorPayload
	if err := vm.Decode(payload, &p); err != nil {
		return err
	}
	w, err := LoadOwned(ctx.State, p.WarriorID, ctx.Caller)
	if err != nil {
		return err
	}
	if err := economy.Spend(ctx, ctx.Params.HealCost, "heal_warrior"); err != nil {
		return err
	}
	w.Health = w.MaxHealth
	if err := ctx.State.SetWarrior(w); err != nil {
		return err
	}
	ctx.Emit(events.EventWarriorHealed, map[string]any{"warrior_id": w.ID, "owner": w.Owner})
	return nil
}

// handleTransfer moves a warrior to a new owner against an attached payment,
// which is split as royalty between the creator and the current owner.
func handleTransfer(ctx *vm.Context, payload json.RawMessage) error {
	var p core.TransferWarriorPayload
	if err := vm.Decode(payload, &p); err != nil {
		return err
	}
	w, err := LoadOwned(ctx.State, p.WarriorID, ctx.Caller)
	if err != nil {
		return err
	}
	price, err := ctx.TakeValue()
	if err != nil {
		return err
	}
	if price == 0 {
		return core.ErrPaymentRequired
	}
	if p.To == "" {
		return core.ErrInvalidAddress
	}
	if p.To == ctx.Caller {
		return core.ErrSelfDealing
	}
	queued, err := IsQueued(ctx.State, w.ID)
	if err != nil {
		return err
	}
	if queued {
		return core.ErrWarriorBusy
	}

	from := w.Owner
	royalty, err := economy.SplitPayment(ctx, w.Creator, from, price)
	if err != nil {
		return err
	}
	if err := ChangeOwner(ctx.State, w, p.To); err != nil {
		return err
	}

	ctx.Result = core.SaleResult{WarriorID: w.ID, From: from, To: p.To, Price: price, Royalty: royalty, Creator: w.Creator}
	ctx.Emit(events.EventWarriorTransfer, map[string]any{
		"warrior_id": w.ID,
		"from":       from,
		"to":         p.To,
		"price":      price,
		"royalty":    royalty,
	})
	return nil
}

func handleApprove(ctx *vm.Context, payload json.RawMessage) error {
	var p core.ApproveWarriorPayload
	if err := vm.Decode(payload, &p); err != nil {
		return err
	}
	w, err := LoadOwned(ctx.State, p.WarriorID, ctx.Caller)
	if err != nil {
		return err
	}
	if p.Operator == ctx.Caller {
		return core.ErrSelfDealing
	}
	w.Approved = p.Operator
	if err := ctx.State.SetWarrior(w); err != nil {
		return err
	}
	ctx.Emit(events.EventWarriorApproval, map[string]any{
		"warrior_id": w.ID,
		"owner":      w.Owner,
		"operator":   p.Operator,
	})
	return nil
}

// ---- helpers shared with the arena and market modules ----

// LoadOwned returns warrior id, failing unless owner currently owns it.
func LoadOwned(s core.State, id uint64, owner string) (*core.Warrior, error) {
	w, err := s.GetWarrior(id)
	if err != nil {
		return nil, err
	}
	if w.Owner != owner {
		return nil, fmt.Errorf("warrior %d: %w", id, core.ErrNotOwner)
	}
	return w, nil
}

// IsQueued reports whether warrior id waits in the matchmaking queue.
func IsQueued(s core.State, id uint64) (bool, error) {
	q, err := s.GetQueue()
	if err != nil {
		return false, err
	}
	return slices.ContainsFunc(q, func(e core.QueueEntry) bool { return e.WarriorID == id }), nil
}

// IsListed reports whether w has an active listing by its current owner.
// A listing left behind by a previous owner does not count.
func IsListed(s core.State, w *core.Warrior) (bool, error) {
	l, err := s.GetListing(w.ID)
	if err != nil {
		return false, err
	}
	return l.Active && l.Seller == w.Owner, nil
}

// ChangeOwner hands w to newOwner: it updates both owner index entries,
// appends to the ownership history and clears the per-token approval.
func ChangeOwner(s core.State, w *core.Warrior, newOwner string) error {
	if err := removeOwned(s, w.Owner, w.ID); err != nil {
		return err
	}
	if err := addOwned(s, newOwner, w.ID); err != nil {
		return err
	}
	w.Owner = newOwner
	w.History = append(w.History, newOwner)
	w.Approved = ""
	return s.SetWarrior(w)
}

// ApplyBattleOutcome applies damage to both warriors, floored at 1 health,
// records the win and loss, and grants xp to the winner with level-ups.
// The caller persists both warriors.
func ApplyBattleOutcome(winner, loser *core.Warrior, damageWinner, damageLoser, xp uint64) {
	winner.Health = damage(winner.Health, damageWinner)
	loser.Health = damage(loser.Health, damageLoser)
	winner.Wins++
	loser.Losses++
	winner.Experience += xp
	for winner.Experience >= winner.Level*XPPerLevel {
		winner.Experience -= winner.Level * XPPerLevel
		winner.Level++
		winner.MaxHealth += MaxHealthPerLevel
		winner.Attack += AttackPerLevel
		winner.Defense += DefensePerLevel
		winner.Health = min(winner.Health+HealPerLevel, winner.MaxHealth)
	}
}

func damage(health, dmg uint64) uint64 {
	if dmg >= health {
		return 1
	}
	return max(1, health-dmg)
}

func addOwned(s core.State, owner string, id uint64) error {
	ids, err := s.GetOwnedWarriors(owner)
	if err != nil {
		return err
	}
	if slices.Contains(ids, id) {
		return nil
	}
	ids = append(ids, id)
	slices.Sort(ids)
	return s.SetOwnedWarriors(owner, ids)
}

func removeOwned(s core.State, owner string, id uint64) error {
	ids, err := s.GetOwnedWarriors(owner)
	if err != nil {
		return err
	}
	return s.SetOwnedWarriors(owner, slices.DeleteFunc(ids, func(v uint64) bool { return v == id }))
}
