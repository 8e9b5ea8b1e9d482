package core

import (
	"encoding/json"
	"time"

	"github.com/tolelom/cryptowarriors/crypto"
)

// BlockHeader contains the block metadata that is hashed and signed.
type BlockHeader struct {
	Height      int64  `json:"height"`
	PrevHash    string `json:"prev_hash"`
	StateRoot   string `json:"state_root"`
	TxRoot      string `json:"tx_root"`
	ReceiptRoot string `json:"receipt_root"`
	Timestamp   int64  `json:"timestamp"`
	Sequencer   string `json:"sequencer"` // sequencer pubkey hex
}

// Block is an ordered batch of transactions with their receipts. Failed
// transactions are included with a failure receipt and no state effect.
type Block struct {
	Header       BlockHeader    `json:"header"`
	Transactions []*Transaction `json:"transactions"`
	Receipts     []*Receipt     `json:"receipts"`
	Hash         string         `json:"hash"`
	Signature    string         `json:"signature"`
}

// ComputeHash returns the SHA-256 hash of the serialised header.
func (b *Block) ComputeHash() string {
	data, err := json.Marshal(b.Header)
	if err != nil {
		return ""
	}
	return crypto.Hash(data)
}

// Sign sets Hash and signs the block with the sequencer's private key.
func (b *Block) Sign(priv crypto.PrivateKey) {
	b.Hash = b.ComputeHash()
	b.Signature = crypto.Sign(priv, []byte(b.Hash))
}

// Verify checks the block signature against the given public key.
func (b *Block) Verify(pub crypto.PublicKey) error {
	return crypto.Verify(pub, []byte(b.Hash), b.Signature)
}

// ComputeTxRoot builds a deterministic root hash from all transaction IDs.
func ComputeTxRoot(txs []*Transaction) string {
	if len(txs) == 0 {
		return crypto.Hash([]byte("empty"))
	}
	var ids []byte
	for _, tx := range txs {
		ids = append(ids, []byte(tx.ID)...)
	}
	return crypto.Hash(ids)
}

// ComputeReceiptRoot commits to the tx id, success flag and error of every
// receipt. Results are left out so the root survives a JSON round trip.
func ComputeReceiptRoot(receipts []*Receipt) string {
	type entry struct {
		TxID    string `json:"tx_id"`
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	entries := make([]entry, len(receipts))
	for i, r := range receipts {
		entries[i] = entry{r.TxID, r.Success, r.Error}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return ""
	}
	return crypto.Hash(data)
}

// NewBlock creates an unsigned block with the given parameters.
func NewBlock(height int64, prevHash, sequencer string, txs []*Transaction) *Block {
	return &Block{
		Header: BlockHeader{
			Height:    height,
			PrevHash:  prevHash,
			TxRoot:    ComputeTxRoot(txs),
			Timestamp: time.Now().UnixNano(),
			Sequencer: sequencer,
		},
		Transactions: txs,
	}
}
