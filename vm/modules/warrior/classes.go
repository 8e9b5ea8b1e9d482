package warrior

import (
	"github.com/tolelom/cryptowarriors/combat"
	"github.com/tolelom/cryptowarriors/core"
	"github.com/tolelom/cryptowarriors/crypto"
)

// classTemplate is a class's base stats and the half-width of the uniform
// spread applied to each at creation.
type classTemplate struct {
	Attack, Defense, Health                   uint64
	AttackSpread, DefenseSpread, HealthSpread uint64
}

var classTemplates = map[core.WarriorClass]classTemplate{
	core.ClassKnight: {Attack: 50, Defense: 70, Health: 150, AttackSpread: 10, DefenseSpread: 10, HealthSpread: 20},
	core.ClassMage:   {Attack: 80, Defense: 40, Health: 100, AttackSpread: 10, DefenseSpread: 10, HealthSpread: 20},
	core.ClassArcher: {Attack: 65, Defense: 55, Health: 120, AttackSpread: 10, DefenseSpread: 10, HealthSpread: 20},
}

// Level-up increments.
const (
	XPPerLevel        = 100
	MaxHealthPerLevel = 10
	AttackPerLevel    = 5
	DefensePerLevel   = 3
	HealPerLevel      = 10
)

// rollStats draws attack, defense and health for class from a seed bound to
// the creating transaction and the new warrior id.
func rollStats(class core.WarriorClass, txID string, id uint64) (attack, defense, health uint64) {
	t := classTemplates[class]
	r := combat.NewRand(crypto.Seed([]byte("warrior"), []byte(txID), crypto.Uint64Bytes(id)))
	spread := func(base, w uint64) uint64 {
		return base - w + r.Uint64N(2*w+1)
	}
	return spread(t.Attack, t.AttackSpread), spread(t.Defense, t.DefenseSpread), spread(t.Health, t.HealthSpread)
}
