package warrior

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tolelom/cryptowarriors/core"
)

func knight(health, maxHealth uint64) *core.Warrior {
	return &core.Warrior{
		Class:     core.ClassKnight,
		Level:     1,
		Attack:    50,
		Defense:   70,
		Health:    health,
		MaxHealth: maxHealth,
	}
}

func TestApplyBattleOutcome(t *testing.T) {
	tests := []struct {
		name         string
		winner       *core.Warrior
		loserHealth  uint64
		damageWinner uint64
		damageLoser  uint64
		xp           uint64

		wantLevel, wantXP         uint64
		wantHealth, wantMaxHealth uint64
		wantAttack, wantDefense   uint64
		wantLoserHealth           uint64
	}{
		{
			name: "below threshold",
			winner: knight(100, 100), loserHealth: 80, damageWinner: 10, damageLoser: 30, xp: 99,
			wantLevel: 1, wantXP: 99, wantHealth: 90, wantMaxHealth: 100,
			wantAttack: 50, wantDefense: 70, wantLoserHealth: 50,
		},
		{
			name: "exactly at threshold",
			winner: knight(100, 100), loserHealth: 80, damageWinner: 0, damageLoser: 10, xp: 100,
			wantLevel: 2, wantXP: 0, wantHealth: 110, wantMaxHealth: 110,
			wantAttack: 55, wantDefense: 73, wantLoserHealth: 70,
		},
		{
			name: "two levels in one call",
			winner: knight(50, 100), loserHealth: 80, damageWinner: 0, damageLoser: 10, xp: 300,
			wantLevel: 3, wantXP: 0, wantHealth: 70, wantMaxHealth: 120,
			wantAttack: 60, wantDefense: 76, wantLoserHealth: 70,
		},
		{
			name: "experience carries over",
			winner: knight(100, 100), loserHealth: 80, damageWinner: 5, damageLoser: 500, xp: 250,
			wantLevel: 2, wantXP: 150, wantHealth: 105, wantMaxHealth: 110,
			wantAttack: 55, wantDefense: 73, wantLoserHealth: 1,
		},
		{
			name: "level-up heal capped at max health",
			winner: knight(100, 100), loserHealth: 80, damageWinner: 0, damageLoser: 10, xp: 1000,
			wantLevel: 5, wantXP: 0, wantHealth: 140, wantMaxHealth: 140,
			wantAttack: 70, wantDefense: 82, wantLoserHealth: 70,
		},
		{
			name: "damage equal to health floors at 1",
			winner: knight(40, 100), loserHealth: 30, damageWinner: 40, damageLoser: 30, xp: 0,
			wantLevel: 1, wantXP: 0, wantHealth: 1, wantMaxHealth: 100,
			wantAttack: 50, wantDefense: 70, wantLoserHealth: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loser := knight(tt.loserHealth, 100)
			ApplyBattleOutcome(tt.winner, loser, tt.damageWinner, tt.damageLoser, tt.xp)

			w := tt.winner
			assert.Equal(t, tt.wantLevel, w.Level, "level")
			assert.Equal(t, tt.wantXP, w.Experience, "experience")
			assert.Equal(t, tt.wantHealth, w.Health, "health")
			assert.Equal(t, tt.wantMaxHealth, w.MaxHealth, "max health")
			assert.Equal(t, tt.wantAttack, w.Attack, "attack")
			assert.Equal(t, tt.wantDefense, w.Defense, "defense")
			assert.LessOrEqual(t, w.Health, w.MaxHealth)
			assert.Equal(t, uint64(1), w.Wins)

			assert.Equal(t, tt.wantLoserHealth, loser.Health, "loser health")
			assert.Equal(t, uint64(1), loser.Losses)
			assert.Equal(t, uint64(1), loser.Level)
			assert.Zero(t, loser.Experience)
		})
	}
}
