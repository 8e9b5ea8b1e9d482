package indexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tolelom/cryptowarriors/core"
	"github.com/tolelom/cryptowarriors/engine"
	"github.com/tolelom/cryptowarriors/events"
	"github.com/tolelom/cryptowarriors/internal/testutil"
)

func TestIndexesCommittedBattles(t *testing.T) {
	db := testutil.NewMemDB()
	emitter := events.NewEmitter()
	idx := New(db, emitter)
	eng := engine.New(testutil.NewStateDB(), "test", core.DefaultGameParams(), emitter)
	require.NoError(t, eng.InitGenesis(core.Genesis{
		Admin:             "admin",
		AuthorizedCallers: []string{core.GameEngineAddress},
		Alloc: map[string]core.Allocation{
			"alice": {War: 1000},
			"bob":   {War: 1000},
		},
	}))

	a, err := eng.CreateWarrior("alice", "A", core.ClassKnight)
	require.NoError(t, err)
	b, err := eng.CreateWarrior("bob", "B", core.ClassArcher)
	require.NoError(t, err)
	c, err := eng.CreateWarrior("alice", "C", core.ClassMage)
	require.NoError(t, err)

	_, err = eng.EnterBattleQueue("alice", a)
	require.NoError(t, err)
	_, err = eng.EnterBattleQueue("bob", b)
	require.NoError(t, err)
	_, err = eng.EnterBattleQueue("alice", a)
	require.NoError(t, err)
	_, err = eng.EnterBattleQueue("alice", c)
	require.NoError(t, err)

	got, err := idx.GetBattlesByPlayer("alice")
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 1}, got)
	got, err = idx.GetBattlesByPlayer("bob")
	require.NoError(t, err)
	assert.Equal(t, []uint64{0}, got)
	got, err = idx.GetBattlesByWarrior(c)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1}, got)
	got, err = idx.GetBattlesByPlayer("nobody")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFailedBattleIsNotIndexed(t *testing.T) {
	db := testutil.NewMemDB()
	emitter := events.NewEmitter()
	idx := New(db, emitter)
	eng := engine.New(testutil.NewStateDB(), "test", core.DefaultGameParams(), emitter)
	// No authorized game engine: pairing fails and rolls back.
	require.NoError(t, eng.InitGenesis(core.Genesis{
		Admin: "admin",
		Alloc: map[string]core.Allocation{"alice": {War: 1000}, "bob": {War: 1000}},
	}))
	a, err := eng.CreateWarrior("alice", "A", core.ClassKnight)
	require.NoError(t, err)
	b, err := eng.CreateWarrior("bob", "B", core.ClassKnight)
	require.NoError(t, err)
	_, err = eng.EnterBattleQueue("alice", a)
	require.NoError(t, err)
	_, err = eng.EnterBattleQueue("bob", b)
	require.ErrorIs(t, err, core.ErrNotAuthorizedCaller)

	got, err := idx.GetBattlesByPlayer("alice")
	require.NoError(t, err)
	assert.Empty(t, got)
}
