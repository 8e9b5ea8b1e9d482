// Package sequencer is the single-authority block producer. It drains the
// mempool in submission order, applies the transactions through the engine
// and seals each batch into a signed, hash-linked block.
package sequencer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tolelom/cryptowarriors/core"
	"github.com/tolelom/cryptowarriors/crypto"
	"github.com/tolelom/cryptowarriors/engine"
	"github.com/tolelom/cryptowarriors/internal/logger"
)

// GenesisPrevHash is the PrevHash of the first block.
var GenesisPrevHash = strings.Repeat("0", 64)

const defaultMaxBlockTxs = 500

// Sequencer produces blocks for the local authority key.
type Sequencer struct {
	engine  *engine.Engine
	bc      *core.Blockchain
	mempool *core.Mempool
	privKey crypto.PrivateKey
	pubKey  crypto.PublicKey
	maxTxs  int
}

// New creates a Sequencer signing with privKey. maxTxs <= 0 selects the
// default block size.
func New(eng *engine.Engine, bc *core.Blockchain, mempool *core.Mempool, privKey crypto.PrivateKey, maxTxs int) *Sequencer {
	if maxTxs <= 0 {
		maxTxs = defaultMaxBlockTxs
	}
	return &Sequencer{
		engine:  eng,
		bc:      bc,
		mempool: mempool,
		privKey: privKey,
		pubKey:  privKey.Public(),
		maxTxs:  maxTxs,
	}
}

// Address returns the sequencer's public key hex.
func (s *Sequencer) Address() string { return s.pubKey.Hex() }

// ProduceBlock applies up to maxTxs pending transactions and commits them as
// the next block. It returns (nil, nil) when the mempool is empty.
func (s *Sequencer) ProduceBlock() (*core.Block, error) {
	txs := s.mempool.Pending(s.maxTxs)
	if len(txs) == 0 {
		return nil, nil
	}

	prevHash, height := GenesisPrevHash, int64(1)
	if tip := s.bc.Tip(); tip != nil {
		prevHash, height = tip.Hash, tip.Header.Height+1
	}
	block := core.NewBlock(height, prevHash, s.pubKey.Hex(), txs)

	// The block is stored before state is flushed, so a storage failure
	// leaves neither behind.
	err := s.engine.ApplyBlock(block, func(b *core.Block) error {
		b.Sign(s.privKey)
		return s.bc.AddBlock(b)
	})
	if err != nil {
		return nil, fmt.Errorf("apply block %d: %w", height, err)
	}

	ids := make([]string, len(txs))
	failed := 0
	for i, tx := range txs {
		ids[i] = tx.ID
		if !block.Receipts[i].Success {
			failed++
		}
	}
	s.mempool.Remove(ids)

	logger.Info("block produced",
		"height", block.Header.Height,
		"hash", block.Hash,
		"txs", len(txs),
		"failed", failed,
	)
	return block, nil
}

// VerifyBlock checks that block was sealed by this sequencer and links to
// its predecessor.
func (s *Sequencer) VerifyBlock(block *core.Block) error {
	if block.Header.Sequencer != s.pubKey.Hex() {
		return fmt.Errorf("wrong sequencer: got %s want %s", block.Header.Sequencer, s.pubKey.Hex())
	}
	if block.Hash != block.ComputeHash() {
		return errors.New("block hash does not match header")
	}
	if err := block.Verify(s.pubKey); err != nil {
		return fmt.Errorf("block signature invalid: %w", err)
	}
	if block.Header.TxRoot != core.ComputeTxRoot(block.Transactions) {
		return errors.New("tx root mismatch")
	}
	if block.Header.ReceiptRoot != core.ComputeReceiptRoot(block.Receipts) {
		return errors.New("receipt root mismatch")
	}
	if block.Header.Height == 1 {
		if block.Header.PrevHash != GenesisPrevHash {
			return errors.New("first block must reference the genesis prev-hash")
		}
		return nil
	}
	prev, err := s.bc.GetBlockByHeight(block.Header.Height - 1)
	if err != nil {
		return fmt.Errorf("load block %d: %w", block.Header.Height-1, err)
	}
	if block.Header.PrevHash != prev.Hash {
		return fmt.Errorf("prev_hash mismatch: got %s want %s", block.Header.PrevHash, prev.Hash)
	}
	return nil
}

// Run produces a block every interval until ctx is cancelled.
func (s *Sequencer) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.ProduceBlock(); err != nil {
				logger.Error("produce block", "err", err)
			}
		}
	}
}
