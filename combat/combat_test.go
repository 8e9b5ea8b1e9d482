package combat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func knight(id uint64) Fighter {
	return Fighter{ID: id, Attack: 50, Defense: 70, Health: 150, Level: 1}
}

func TestResolveIsDeterministic(t *testing.T) {
	seed := Seed(0, 0, 1, "tx")
	a, b := knight(0), Fighter{ID: 1, Attack: 80, Defense: 40, Health: 100, Level: 1}
	assert.Equal(t, Resolve(a, b, seed), Resolve(a, b, seed))
}

func TestSeedDependsOnEveryInput(t *testing.T) {
	base := Seed(1, 2, 3, "tx")
	assert.NotEqual(t, base, Seed(2, 2, 3, "tx"))
	assert.NotEqual(t, base, Seed(1, 3, 2, "tx"))
	assert.NotEqual(t, base, Seed(1, 2, 3, "tx2"))
	assert.Len(t, SeedHex(base), 64)
}

func TestOverwhelmingPowerWins(t *testing.T) {
	strong := Fighter{ID: 5, Attack: 500, Defense: 500, Health: 500, Level: 10}
	weak := Fighter{ID: 1, Attack: 10, Defense: 10, Health: 10, Level: 1}
	for i := range uint64(20) {
		out := Resolve(weak, strong, Seed(i, 1, 5, "x"))
		require.Equal(t, uint64(5), out.WinnerID)
		require.Equal(t, uint64(1), out.LoserID)
	}
}

func TestTieGoesToLowerID(t *testing.T) {
	// Identical fighters: whenever rolls tie, the lower id must win.
	found := false
	for i := range uint64(5000) {
		seed := Seed(i, 7, 3, "tie")
		out := Resolve(knight(7), knight(3), seed)
		if out.PowerA == out.PowerB {
			found = true
			assert.Equal(t, uint64(3), out.WinnerID)
		}
	}
	assert.True(t, found, "expected at least one tied roll")
}

func TestDamageFloorsAndXP(t *testing.T) {
	tank := Fighter{ID: 0, Attack: 1, Defense: 1000, Health: 1000, Level: 1}
	glass := Fighter{ID: 1, Attack: 1, Defense: 0, Health: 1, Level: 4}
	out := Resolve(tank, glass, Seed(0, 0, 1, "d"))
	require.Equal(t, uint64(0), out.WinnerID)
	assert.Equal(t, uint64(MinLoserDamage), out.DamageToLoser)
	assert.Equal(t, uint64(MinWinnerDamage), out.DamageToWinner)
	assert.Equal(t, uint64(BaseXP+3*XPPerLevelUp), out.XP)
}

func TestDamageFormula(t *testing.T) {
	winner := Fighter{ID: 0, Attack: 200, Defense: 40, Health: 500, Level: 5}
	loser := Fighter{ID: 1, Attack: 60, Defense: 30, Health: 10, Level: 1}
	out := Resolve(winner, loser, Seed(9, 0, 1, "f"))
	require.Equal(t, uint64(0), out.WinnerID)
	assert.Equal(t, uint64(200-15), out.DamageToLoser)
	assert.Equal(t, uint64((60-20)/2), out.DamageToWinner)
	assert.Equal(t, uint64(BaseXP), out.XP)
}
