package config

import (
	"slices"

	"github.com/tolelom/cryptowarriors/core"
)

// ResolveGenesis returns the genesis used to seed a fresh chain. The admin
// defaults to the sequencer, and the arena's engine identity is always
// authorized so battle rewards can mint.
func (c *Config) ResolveGenesis(sequencer string) core.Genesis {
	g := core.Genesis{
		ChainID:           c.Genesis.ChainID,
		Admin:             c.Genesis.Admin,
		AuthorizedCallers: slices.Clone(c.Genesis.AuthorizedCallers),
		Alloc:             make(map[string]core.Allocation, len(c.Genesis.Alloc)),
	}
	if g.Admin == "" {
		g.Admin = sequencer
	}
	if !slices.Contains(g.AuthorizedCallers, core.GameEngineAddress) {
		g.AuthorizedCallers = append(g.AuthorizedCallers, core.GameEngineAddress)
	}
	for addr, a := range c.Genesis.Alloc {
		g.Alloc[addr] = a
	}
	return g
}
