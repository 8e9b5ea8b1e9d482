package storage_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tolelom/cryptowarriors/core"
	"github.com/tolelom/cryptowarriors/storage"
)

func openLevelDB(t *testing.T) *storage.LevelDB {
	t.Helper()
	db, err := storage.NewLevelDB(filepath.Join(t.TempDir(), "chain"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestLevelDBBasics(t *testing.T) {
	db := openLevelDB(t)

	_, err := db.Get([]byte("missing"))
	assert.ErrorIs(t, err, core.ErrNotFound)

	require.NoError(t, db.Set([]byte("acct:b"), []byte("2")))
	require.NoError(t, db.Set([]byte("acct:a"), []byte("1")))
	require.NoError(t, db.Set([]byte("other"), []byte("x")))

	it := db.NewIterator([]byte("acct:"))
	var keys []string
	for it.Next() {
		keys = append(keys, string(it.Key()))
	}
	it.Release()
	assert.Equal(t, []string{"acct:a", "acct:b"}, keys)

	require.NoError(t, db.Delete([]byte("acct:a")))
	_, err = db.Get([]byte("acct:a"))
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestStateDBOverLevelDB(t *testing.T) {
	db := openLevelDB(t)
	s := storage.NewStateDB(db)
	require.NoError(t, s.SetAccount(&core.Account{Address: "alice", Balance: 5}))
	root := s.ComputeRoot()
	require.NoError(t, s.Commit())

	reopened := storage.NewStateDB(db)
	assert.Equal(t, root, reopened.ComputeRoot())
}

func TestBlockStore(t *testing.T) {
	bs := storage.NewBlockStore(openLevelDB(t))

	tip, err := bs.GetTip()
	require.NoError(t, err)
	assert.Empty(t, tip)

	block := core.NewBlock(1, "prev", "seq", nil)
	block.Receipts = []*core.Receipt{{TxID: "tx1", Success: true, BlockHeight: 1}}
	block.Hash = block.ComputeHash()
	require.NoError(t, bs.CommitBlock(block))

	tip, err = bs.GetTip()
	require.NoError(t, err)
	assert.Equal(t, block.Hash, tip)

	got, err := bs.GetBlockByHeight(1)
	require.NoError(t, err)
	assert.Equal(t, block.Header, got.Header)

	r, err := bs.GetReceipt("tx1")
	require.NoError(t, err)
	assert.True(t, r.Success)

	_, err = bs.GetReceipt("tx2")
	assert.ErrorIs(t, err, core.ErrNotFound)
}
