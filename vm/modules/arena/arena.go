// Package arena implements the matchmaking queue. The second entrant is
// paired with the waiting warrior and the fight is resolved in the same call.
package arena

import (
	"encoding/json"

	"github.com/tolelom/cryptowarriors/combat"
	"github.com/tolelom/cryptowarriors/core"
	"github.com/tolelom/cryptowarriors/events"
	"github.com/tolelom/cryptowarriors/leaderboard"
	"github.com/tolelom/cryptowarriors/vm"
	"github.com/tolelom/cryptowarriors/vm/modules/economy"
	"github.com/tolelom/cryptowarriors/vm/modules/warrior"
)

func init() {
	vm.Register(core.TxEnterBattleQueue, handleEnterQueue)
}

func handleEnterQueue(ctx *vm.Context, payload json.RawMessage) error {
	var p core.WarriorPayload
	if err := vm.Decode(payload, &p); err != nil {
		return err
	}
	w, err := warrior.LoadOwned(ctx.State, p.WarriorID, ctx.Caller)
	if err != nil {
		return err
	}
	queue, err := ctx.State.GetQueue()
	if err != nil {
		return err
	}
	for _, e := range queue {
		if e.WarriorID == w.ID {
			return core.ErrAlreadyQueued
		}
	}
	listed, err := warrior.IsListed(ctx.State, w)
	if err != nil {
		return err
	}
	if listed {
		return core.ErrWarriorBusy
	}
	if w.Health < ctx.Params.MinBattleHealth {
		return core.ErrLowHealth
	}
	if err := economy.Spend(ctx, ctx.Params.BattleEntryFee, "battle_entry"); err != nil {
		return err
	}

	if len(queue) == 0 {
		entry := core.QueueEntry{WarriorID: w.ID, Owner: w.Owner, EnteredAt: ctx.Timestamp}
		if err := ctx.State.SetQueue([]core.QueueEntry{entry}); err != nil {
			return err
		}
		ctx.Result = core.QueueResult{Queued: true}
		ctx.Emit(events.EventQueueEntered, map[string]any{"warrior_id": w.ID, "owner": w.Owner})
		return nil
	}

	waiting := queue[0]
	if err := ctx.State.SetQueue(queue[1:]); err != nil {
		return err
	}
	opponent, err := ctx.State.GetWarrior(waiting.WarriorID)
	if err != nil {
		return err
	}
	battle, err := resolveBattle(ctx, opponent, w)
	if err != nil {
		return err
	}
	ctx.Result = core.QueueResult{Battle: battle}
	return nil
}

// resolveBattle fights a (the waiting warrior) against b, applies the
// outcome, pays the reward through the ledger as the game engine, updates the
// leaderboard and stores the battle record.
func resolveBattle(ctx *vm.Context, a, b *core.Warrior) (*core.Battle, error) {
	battleID, err := core.NextID(ctx.State, core.CounterBattles)
	if err != nil {
		return nil, err
	}
	seed := combat.Seed(battleID, a.ID, b.ID, ctx.TxID)
	out := combat.Resolve(fighter(a), fighter(b), seed)

	winner, loser := a, b
	if out.WinnerID == b.ID {
		winner, loser = b, a
	}
	warrior.ApplyBattleOutcome(winner, loser, out.DamageToWinner, out.DamageToLoser, out.XP)
	if err := ctx.State.SetWarrior(winner); err != nil {
		return nil, err
	}
	if err := ctx.State.SetWarrior(loser); err != nil {
		return nil, err
	}

	// A zero reward still resolves the battle; there is nothing to mint.
	reward := ctx.Params.BattleReward
	if reward > 0 {
		if err := economy.Reward(ctx, core.GameEngineAddress, winner.Owner, reward, "battle_victory"); err != nil {
			return nil, err
		}
	}
	if err := leaderboard.RecordBattle(ctx.State, winner.Owner, loser.Owner, reward); err != nil {
		return nil, err
	}

	battle := &core.Battle{
		ID:             battleID,
		WarriorA:       a.ID,
		WarriorB:       b.ID,
		OwnerA:         a.Owner,
		OwnerB:         b.Owner,
		WinnerWarrior:  winner.ID,
		LoserWarrior:   loser.ID,
		Winner:         winner.Owner,
		Loser:          loser.Owner,
		Reward:         reward,
		DamageToWinner: out.DamageToWinner,
		DamageToLoser:  out.DamageToLoser,
		XPGained:       out.XP,
		Seed:           combat.SeedHex(seed),
		Completed:      true,
		Timestamp:      ctx.Timestamp,
	}
	if err := ctx.State.SetBattle(battle); err != nil {
		return nil, err
	}

	ctx.Emit(events.EventBattleResolved, map[string]any{
		"battle_id":      battle.ID,
		"warrior_a":      battle.WarriorA,
		"warrior_b":      battle.WarriorB,
		"owner_a":        battle.OwnerA,
		"owner_b":        battle.OwnerB,
		"winner":         battle.Winner,
		"loser":          battle.Loser,
		"winner_warrior": battle.WinnerWarrior,
		"reward":         reward,
	})
	return battle, nil
}

func fighter(w *core.Warrior) combat.Fighter {
	return combat.Fighter{ID: w.ID, Attack: w.Attack, Defense: w.Defense, Health: w.Health, Level: w.Level}
}
