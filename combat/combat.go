// Package combat resolves a fight between two warriors. Resolution is a pure
// function of the fighters and a seed, so any battle can be replayed from
// its recorded seed.
package combat

import (
	"encoding/binary"
	"encoding/hex"
	"math/rand/v2"

	"github.com/tolelom/cryptowarriors/crypto"
)

// Combat constants.
const (
	AttackWeight  = 3
	DefenseWeight = 2
	LevelWeight   = 10
	RollRange     = 100 // power roll is uniform in [0, RollRange)

	MinLoserDamage  = 10
	MinWinnerDamage = 5

	BaseXP       = 50
	XPPerLevelUp = 10 // bonus per level the loser is above the winner
)

// Fighter is the slice of a warrior that combat reads.
type Fighter struct {
	ID      uint64
	Attack  uint64
	Defense uint64
	Health  uint64
	Level   uint64
}

// Outcome is the result of one fight.
type Outcome struct {
	WinnerID       uint64
	LoserID        uint64
	PowerA         uint64
	PowerB         uint64
	DamageToWinner uint64
	DamageToLoser  uint64
	XP             uint64
}

// Seed derives the battle seed from the battle id, both warrior ids and the
// id of the triggering transaction.
func Seed(battleID, warriorA, warriorB uint64, txID string) [32]byte {
	return crypto.Seed(
		crypto.Uint64Bytes(battleID),
		crypto.Uint64Bytes(warriorA),
		crypto.Uint64Bytes(warriorB),
		[]byte(txID),
	)
}

// SeedHex renders a seed as stored on the battle record.
func SeedHex(seed [32]byte) string {
	return hex.EncodeToString(seed[:])
}

// NewRand returns the PCG generator for seed.
func NewRand(seed [32]byte) *rand.Rand {
	return rand.New(rand.NewPCG(
		binary.BigEndian.Uint64(seed[0:8]),
		binary.BigEndian.Uint64(seed[8:16]),
	))
}

// Power is the fighter's effective power before the roll.
func Power(f Fighter) uint64 {
	return AttackWeight*f.Attack + DefenseWeight*f.Defense + LevelWeight*f.Level + f.Health/2
}

// Resolve fights a against b. The higher power wins; on equal power the lower
// warrior id wins.
func Resolve(a, b Fighter, seed [32]byte) Outcome {
	r := NewRand(seed)
	powerA := Power(a) + r.Uint64N(RollRange)
	powerB := Power(b) + r.Uint64N(RollRange)

	winner, loser := a, b
	if powerB > powerA || (powerB == powerA && b.ID < a.ID) {
		winner, loser = b, a
	}

	return Outcome{
		WinnerID:       winner.ID,
		LoserID:        loser.ID,
		PowerA:         powerA,
		PowerB:         powerB,
		DamageToLoser:  max(MinLoserDamage, sub(winner.Attack, loser.Defense/2)),
		DamageToWinner: max(MinWinnerDamage, sub(loser.Attack, winner.Defense/2)/2),
		XP:             BaseXP + XPPerLevelUp*sub(loser.Level, winner.Level),
	}
}

// sub is saturating subtraction.
func sub(a, b uint64) uint64 {
	if a < b {
		return 0
	}
	return a - b
}
