package core

import (
	"fmt"
	"sync"
	"time"
)

const (
	maxMempoolSize = 10_000
	maxTxAge       = time.Hour
	maxTxSkew      = 5 * time.Minute
)

// Admission failures returned by Mempool.Add.
var (
	ErrWrongChain   = newError(ErrInvalidInput, "transaction targets another chain")
	ErrTxExpired    = newError(ErrInvalidInput, "transaction expired")
	ErrTxFromFuture = newError(ErrInvalidInput, "transaction timestamp too far in the future")
	ErrMempoolFull  = newError(ErrStateConflict, "mempool full")
	ErrDuplicateTx  = newError(ErrStateConflict, "transaction already pending")
)

// Mempool queues signed transactions until the sequencer seals them. The
// queue order is the submission order and decides which of two conflicting
// transactions wins.
type Mempool struct {
	chainID string

	mu      sync.Mutex
	queue   []*Transaction
	pending map[string]struct{}
}

// NewMempool returns an empty queue for transactions signed for chainID.
func NewMempool(chainID string) *Mempool {
	return &Mempool{chainID: chainID, pending: make(map[string]struct{})}
}

// Add admits tx to the back of the queue after checking its chain, signature
// and timestamp window.
func (m *Mempool) Add(tx *Transaction) error {
	if tx.ChainID != m.chainID {
		return fmt.Errorf("%w: got %q", ErrWrongChain, tx.ChainID)
	}
	if err := tx.Verify(); err != nil {
		return fmt.Errorf("verify %s: %w", tx.ID, err)
	}
	if err := checkTimestamp(tx.Timestamp, time.Now()); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pending[tx.ID]; ok {
		return ErrDuplicateTx
	}
	if len(m.queue) >= maxMempoolSize {
		return ErrMempoolFull
	}
	m.pending[tx.ID] = struct{}{}
	m.queue = append(m.queue, tx)
	return nil
}

func checkTimestamp(ts int64, now time.Time) error {
	at := time.Unix(0, ts)
	switch {
	case now.Sub(at) > maxTxAge:
		return ErrTxExpired
	case at.Sub(now) > maxTxSkew:
		return ErrTxFromFuture
	}
	return nil
}

// Pending returns the n oldest queued transactions without removing them.
func (m *Mempool) Pending(n int) []*Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	n = max(0, min(n, len(m.queue)))
	out := make([]*Transaction, n)
	copy(out, m.queue[:n])
	return out
}

// Remove drops the given transactions once they are sealed into a block.
func (m *Mempool) Remove(ids []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.pending, id)
	}
	kept := m.queue[:0]
	for _, tx := range m.queue {
		if _, ok := m.pending[tx.ID]; ok {
			kept = append(kept, tx)
		}
	}
	clear(m.queue[len(kept):])
	m.queue = kept
}

// Size reports how many transactions are waiting.
func (m *Mempool) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}
