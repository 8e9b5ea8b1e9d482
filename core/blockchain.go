package core

import (
	"fmt"
	"sync"
)

// BlockStore persists sealed blocks together with their receipts. The
// storage package backs it with LevelDB; internal/testutil keeps it in memory.
type BlockStore interface {
	GetBlock(hash string) (*Block, error)
	GetBlockByHeight(height int64) (*Block, error)
	GetReceipt(txID string) (*Receipt, error)
	// GetTip yields "" with a nil error before the first block is sealed.
	GetTip() (string, error)
	// CommitBlock stores the block, its height entry, every receipt and the
	// new tip in one write.
	CommitBlock(block *Block) error
}

// Blockchain is the sequencer's append-only log of sealed blocks.
type Blockchain struct {
	store BlockStore

	mu  sync.RWMutex
	tip *Block
}

// NewBlockchain wraps store. Init must run before the first AddBlock on a
// store that already holds blocks.
func NewBlockchain(store BlockStore) *Blockchain {
	return &Blockchain{store: store}
}

// Init restores the tip recorded in the store, if any.
func (bc *Blockchain) Init() error {
	hash, err := bc.store.GetTip()
	if err != nil {
		return fmt.Errorf("read tip: %w", err)
	}
	if hash == "" {
		return nil
	}
	tip, err := bc.store.GetBlock(hash)
	if err != nil {
		return fmt.Errorf("read tip block %s: %w", hash, err)
	}

	bc.mu.Lock()
	bc.tip = tip
	bc.mu.Unlock()
	return nil
}

// AddBlock appends a sealed block. The block must sit directly on top of the
// current tip; the first block is accepted as is.
func (bc *Blockchain) AddBlock(block *Block) error {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	if err := extends(bc.tip, block); err != nil {
		return err
	}
	if err := bc.store.CommitBlock(block); err != nil {
		return fmt.Errorf("store block %d: %w", block.Header.Height, err)
	}
	bc.tip = block
	return nil
}

func extends(tip, next *Block) error {
	if tip == nil {
		return nil
	}
	if want := tip.Header.Height + 1; next.Header.Height != want {
		return fmt.Errorf("block height %d, expected %d", next.Header.Height, want)
	}
	if next.Header.PrevHash != tip.Hash {
		return fmt.Errorf("block %d links to %s, tip is %s", next.Header.Height, next.Header.PrevHash, tip.Hash)
	}
	return nil
}

func (bc *Blockchain) GetBlock(hash string) (*Block, error) {
	return bc.store.GetBlock(hash)
}

func (bc *Blockchain) GetBlockByHeight(height int64) (*Block, error) {
	return bc.store.GetBlockByHeight(height)
}

// GetReceipt looks up the outcome of a sealed transaction.
func (bc *Blockchain) GetReceipt(txID string) (*Receipt, error) {
	return bc.store.GetReceipt(txID)
}

// Tip is nil until the first block is sealed.
func (bc *Blockchain) Tip() *Block {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.tip
}

// Height is the tip height, or 0 before the first block.
func (bc *Blockchain) Height() int64 {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	if bc.tip == nil {
		return 0
	}
	return bc.tip.Header.Height
}
