package sequencer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tolelom/cryptowarriors/core"
	"github.com/tolelom/cryptowarriors/crypto"
	"github.com/tolelom/cryptowarriors/engine"
	"github.com/tolelom/cryptowarriors/internal/testutil"
)

const chainID = "test-chain"

type harness struct {
	eng     *engine.Engine
	bc      *core.Blockchain
	mempool *core.Mempool
	seq     *Sequencer
}

func newHarness(t *testing.T, funded ...string) *harness {
	t.Helper()
	eng := engine.New(testutil.NewStateDB(), chainID, core.DefaultGameParams(), nil)
	alloc := map[string]core.Allocation{}
	for _, a := range funded {
		alloc[a] = core.Allocation{War: 1000, Native: core.NativeUnit}
	}
	require.NoError(t, eng.InitGenesis(core.Genesis{
		ChainID:           chainID,
		Admin:             "admin",
		AuthorizedCallers: []string{core.GameEngineAddress},
		Alloc:             alloc,
	}))
	bc := core.NewBlockchain(testutil.NewBlockStore())
	require.NoError(t, bc.Init())
	mp := core.NewMempool(chainID)
	seqKey, _ := testutil.KeyPair(t)
	return &harness{eng: eng, bc: bc, mempool: mp, seq: New(eng, bc, mp, seqKey, 0)}
}

func (h *harness) submit(t *testing.T, priv crypto.PrivateKey, typ core.TxType, nonce, value uint64, payload any) *core.Transaction {
	t.Helper()
	tx, err := core.NewTransaction(chainID, typ, priv.Public().Hex(), nonce, value, payload)
	require.NoError(t, err)
	tx.Sign(priv)
	require.NoError(t, h.mempool.Add(tx))
	return tx
}

func TestProduceBlockAppliesInSubmissionOrder(t *testing.T) {
	k1, a1 := testutil.KeyPair(t)
	k2, a2 := testutil.KeyPair(t)
	h := newHarness(t, a1, a2)

	h.submit(t, k1, core.TxCreateWarrior, 0, 0, core.CreateWarriorPayload{Name: "Aldric", Class: core.ClassKnight})
	bad := h.submit(t, k1, core.TxCreateWarrior, 1, 0, core.CreateWarriorPayload{Name: "", Class: core.ClassKnight})
	h.submit(t, k1, core.TxEnterBattleQueue, 1, 0, core.WarriorPayload{WarriorID: 0})
	h.submit(t, k2, core.TxCreateWarrior, 0, 0, core.CreateWarriorPayload{Name: "Brom", Class: core.ClassMage})
	h.submit(t, k2, core.TxEnterBattleQueue, 1, 0, core.WarriorPayload{WarriorID: 1})

	block, err := h.seq.ProduceBlock()
	require.NoError(t, err)
	require.NotNil(t, block)
	assert.Equal(t, int64(1), block.Header.Height)
	assert.Equal(t, GenesisPrevHash, block.Header.PrevHash)
	require.Len(t, block.Receipts, 5)
	for i, r := range block.Receipts {
		if i == 1 {
			assert.False(t, r.Success)
			assert.NotEmpty(t, r.Error)
			continue
		}
		assert.True(t, r.Success, "receipt %d: %s", i, r.Error)
	}
	require.NoError(t, h.seq.VerifyBlock(block))
	assert.Equal(t, h.eng.StateRoot(), block.Header.StateRoot)

	acc, err := h.eng.Account(a1)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), acc.Nonce)

	count, err := h.eng.GetBattleCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
	n, err := h.eng.GetQueueLength()
	require.NoError(t, err)
	assert.Zero(t, n)

	r, err := h.bc.GetReceipt(bad.ID)
	require.NoError(t, err)
	assert.False(t, r.Success)
	assert.Zero(t, h.mempool.Size())

	empty, err := h.seq.ProduceBlock()
	require.NoError(t, err)
	assert.Nil(t, empty)
}

func TestBlocksChain(t *testing.T) {
	k1, a1 := testutil.KeyPair(t)
	_, a2 := testutil.KeyPair(t)
	h := newHarness(t, a1)

	h.submit(t, k1, core.TxTransfer, 0, 0, core.TransferPayload{To: a2, Amount: 100})
	first, err := h.seq.ProduceBlock()
	require.NoError(t, err)

	h.submit(t, k1, core.TxPurchaseCurrency, 1, 5, core.PurchaseCurrencyPayload{})
	second, err := h.seq.ProduceBlock()
	require.NoError(t, err)

	assert.Equal(t, int64(2), second.Header.Height)
	assert.Equal(t, first.Hash, second.Header.PrevHash)
	require.NoError(t, h.seq.VerifyBlock(second))

	stored, err := h.bc.GetBlockByHeight(2)
	require.NoError(t, err)
	require.NoError(t, h.seq.VerifyBlock(stored))

	bal, err := h.eng.BalanceOf(a1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000-100+5000), bal)
	bal, err = h.eng.BalanceOf(a2)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), bal)
}

func TestReplayedNonceFails(t *testing.T) {
	k1, a1 := testutil.KeyPair(t)
	h := newHarness(t, a1)

	h.submit(t, k1, core.TxTransfer, 0, 0, core.TransferPayload{To: "x", Amount: 1})
	h.submit(t, k1, core.TxTransfer, 0, 0, core.TransferPayload{To: "y", Amount: 1})
	block, err := h.seq.ProduceBlock()
	require.NoError(t, err)
	assert.True(t, block.Receipts[0].Success)
	assert.False(t, block.Receipts[1].Success)
	assert.Contains(t, block.Receipts[1].Error, "invalid nonce")
}

func TestVerifyBlockRejectsTampering(t *testing.T) {
	k1, a1 := testutil.KeyPair(t)
	h := newHarness(t, a1)
	h.submit(t, k1, core.TxTransfer, 0, 0, core.TransferPayload{To: "x", Amount: 1})
	block, err := h.seq.ProduceBlock()
	require.NoError(t, err)

	forged := *block
	forged.Header.StateRoot = "bogus"
	assert.Error(t, h.seq.VerifyBlock(&forged))

	other, _ := testutil.KeyPair(t)
	stranger := New(h.eng, h.bc, h.mempool, other, 0)
	assert.Error(t, stranger.VerifyBlock(block))
}
