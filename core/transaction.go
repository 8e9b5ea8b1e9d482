package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tolelom/cryptowarriors/crypto"
)

// TxType identifies the kind of operation a transaction performs.
type TxType string

const (
	TxPurchaseCurrency TxType = "purchase_currency"
	TxRewardPlayer     TxType = "reward_player"
	TxSetGameContract  TxType = "set_game_contract"
	TxTransfer         TxType = "transfer"
	TxCreateWarrior    TxType = "create_warrior"
	TxHealWarrior      TxType = "heal_warrior"
	TxTransferWarrior  TxType = "transfer_warrior"
	TxApproveWarrior   TxType = "approve_warrior"
	TxEnterBattleQueue TxType = "enter_battle_queue"
	TxListWarrior      TxType = "list_warrior"
	TxDelistWarrior    TxType = "delist_warrior"
	TxBuyWarrior       TxType = "buy_warrior"
)

// Transaction is the atomic unit of work on the chain.
// From holds the sender's hex-encoded ed25519 public key; Value is the native
// payment attached to the call. Signature covers all fields except ID and
// Signature.
type Transaction struct {
	ID        string          `json:"id"`
	ChainID   string          `json:"chain_id"`
	Type      TxType          `json:"type"`
	From      string          `json:"from"`
	Nonce     uint64          `json:"nonce"`
	Value     uint64          `json:"value"`
	Timestamp int64           `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
	Signature string          `json:"signature"`
}

type signingBody struct {
	ChainID   string          `json:"chain_id"`
	Type      TxType          `json:"type"`
	From      string          `json:"from"`
	Nonce     uint64          `json:"nonce"`
	Value     uint64          `json:"value"`
	Timestamp int64           `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// Hash returns a deterministic hash of the transaction (sans Signature).
func (tx *Transaction) Hash() string {
	data, err := json.Marshal(signingBody{
		ChainID:   tx.ChainID,
		Type:      tx.Type,
		From:      tx.From,
		Nonce:     tx.Nonce,
		Value:     tx.Value,
		Timestamp: tx.Timestamp,
		Payload:   tx.Payload,
	})
	if err != nil {
		return ""
	}
	return crypto.Hash(data)
}

// Sign computes the signature and sets ID.
func (tx *Transaction) Sign(priv crypto.PrivateKey) {
	hash := tx.Hash()
	tx.Signature = crypto.Sign(priv, []byte(hash))
	tx.ID = hash
}

// Verify checks the signature and that From is a valid public key.
func (tx *Transaction) Verify() error {
	if tx.From == "" {
		return errors.New("missing from field")
	}
	pub, err := crypto.PubKeyFromHex(tx.From)
	if err != nil {
		return fmt.Errorf("invalid from (must be ed25519 pubkey hex): %w", err)
	}
	return crypto.Verify(pub, []byte(tx.Hash()), tx.Signature)
}

// NewTransaction creates an unsigned transaction with the current timestamp.
func NewTransaction(chainID string, typ TxType, from string, nonce, value uint64, payload any) (*Transaction, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return &Transaction{
		ChainID:   chainID,
		Type:      typ,
		From:      from,
		Nonce:     nonce,
		Value:     value,
		Timestamp: time.Now().UnixNano(),
		Payload:   raw,
	}, nil
}

// Receipt records the outcome of one executed transaction or call.
type Receipt struct {
	TxID        string `json:"tx_id"`
	Type        TxType `json:"type"`
	From        string `json:"from"`
	BlockHeight int64  `json:"block_height"`
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
	Result      any    `json:"result,omitempty"`
}

// ---- Payload types ----

// PurchaseCurrencyPayload is empty: the payment is the transaction Value.
type PurchaseCurrencyPayload struct{}

// RewardPlayerPayload mints WAR to a player; caller must be authorized.
type RewardPlayerPayload struct {
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
	Reason string `json:"reason"`
}

// SetGameContractPayload edits the authorized-caller list (admin only).
type SetGameContractPayload struct {
	Caller  string `json:"caller"`
	Allowed bool   `json:"allowed"`
}

// TransferPayload moves WAR tokens between accounts.
type TransferPayload struct {
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

// CreateWarriorPayload mints a warrior for the sender.
type CreateWarriorPayload struct {
	Name  string       `json:"name"`
	Class WarriorClass `json:"class"`
}

// WarriorPayload targets a single warrior (heal, queue, delist, buy).
type WarriorPayload struct {
	WarriorID uint64 `json:"warrior_id"`
}

// TransferWarriorPayload moves a warrior with the attached Value split as
// royalty between creator and owner.
type TransferWarriorPayload struct {
	WarriorID uint64 `json:"warrior_id"`
	To        string `json:"to"`
}

// ApproveWarriorPayload grants (or, with empty Operator, revokes) the
// per-token transfer capability.
type ApproveWarriorPayload struct {
	WarriorID uint64 `json:"warrior_id"`
	Operator  string `json:"operator"`
}

// ListWarriorPayload offers a warrior through the marketplace escrow.
type ListWarriorPayload struct {
	WarriorID uint64 `json:"warrior_id"`
	Price     uint64 `json:"price"`
}
