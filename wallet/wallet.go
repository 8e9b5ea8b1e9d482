package wallet

import (
	"github.com/tolelom/cryptowarriors/core"
	"github.com/tolelom/cryptowarriors/crypto"
)

// Wallet holds a player's key pair and builds signed game transactions for
// one chain.
type Wallet struct {
	priv    crypto.PrivateKey
	pub     crypto.PublicKey
	chainID string
}

// New creates a Wallet for chainID from an existing private key.
func New(priv crypto.PrivateKey, chainID string) *Wallet {
	return &Wallet{priv: priv, pub: priv.Public(), chainID: chainID}
}

// Generate creates a Wallet with a freshly generated key pair.
func Generate(chainID string) (*Wallet, error) {
	priv, _, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	return New(priv, chainID), nil
}

// PrivKey returns the raw private key (handle with care).
func (w *Wallet) PrivKey() crypto.PrivateKey {
	return w.priv
}

// Address returns the hex-encoded public key, which is the account address.
func (w *Wallet) Address() string {
	return w.pub.Hex()
}

// NewTx creates a signed transaction carrying value native units.
// nonce must match the account's current nonce.
func (w *Wallet) NewTx(typ core.TxType, nonce, value uint64, payload any) (*core.Transaction, error) {
	tx, err := core.NewTransaction(w.chainID, typ, w.pub.Hex(), nonce, value, payload)
	if err != nil {
		return nil, err
	}
	tx.Sign(w.priv)
	return tx, nil
}

// PurchaseCurrency pays value native units for WAR at the fixed rate.
func (w *Wallet) PurchaseCurrency(nonce, value uint64) (*core.Transaction, error) {
	return w.NewTx(core.TxPurchaseCurrency, nonce, value, core.PurchaseCurrencyPayload{})
}

// Transfer sends WAR tokens to another account.
func (w *Wallet) Transfer(nonce uint64, to string, amount uint64) (*core.Transaction, error) {
	return w.NewTx(core.TxTransfer, nonce, 0, core.TransferPayload{To: to, Amount: amount})
}

// RewardPlayer mints WAR to a player; the wallet must be an authorized caller.
func (w *Wallet) RewardPlayer(nonce uint64, to string, amount uint64, reason string) (*core.Transaction, error) {
	return w.NewTx(core.TxRewardPlayer, nonce, 0, core.RewardPlayerPayload{To: to, Amount: amount, Reason: reason})
}

// SetGameContract edits the authorized-caller list; the wallet must be admin.
func (w *Wallet) SetGameContract(nonce uint64, caller string, allowed bool) (*core.Transaction, error) {
	return w.NewTx(core.TxSetGameContract, nonce, 0, core.SetGameContractPayload{Caller: caller, Allowed: allowed})
}

// CreateWarrior mints a new warrior.
func (w *Wallet) CreateWarrior(nonce uint64, name string, class core.WarriorClass) (*core.Transaction, error) {
	return w.NewTx(core.TxCreateWarrior, nonce, 0, core.CreateWarriorPayload{Name: name, Class: class})
}

func (w *Wallet) HealWarrior(nonce, warriorID uint64) (*core.Transaction, error) {
	return w.NewTx(core.TxHealWarrior, nonce, 0, core.WarriorPayload{WarriorID: warriorID})
}

func (w *Wallet) EnterBattleQueue(nonce, warriorID uint64) (*core.Transaction, error) {
	return w.NewTx(core.TxEnterBattleQueue, nonce, 0, core.WarriorPayload{WarriorID: warriorID})
}

// TransferWarrior gives a warrior away, splitting value between its creator
// and the wallet.
func (w *Wallet) TransferWarrior(nonce, warriorID uint64, to string, value uint64) (*core.Transaction, error) {
	return w.NewTx(core.TxTransferWarrior, nonce, value, core.TransferWarriorPayload{WarriorID: warriorID, To: to})
}

// ApproveWarrior grants operator the transfer capability; an empty operator
// revokes it.
func (w *Wallet) ApproveWarrior(nonce, warriorID uint64, operator string) (*core.Transaction, error) {
	return w.NewTx(core.TxApproveWarrior, nonce, 0, core.ApproveWarriorPayload{WarriorID: warriorID, Operator: operator})
}

// ListWarrior returns the marketplace approval and the listing, to be
// submitted in that order.
func (w *Wallet) ListWarrior(nonce, warriorID, price uint64) ([]*core.Transaction, error) {
	approve, err := w.ApproveWarrior(nonce, warriorID, core.MarketplaceAddress)
	if err != nil {
		return nil, err
	}
	list, err := w.NewTx(core.TxListWarrior, nonce+1, 0, core.ListWarriorPayload{WarriorID: warriorID, Price: price})
	if err != nil {
		return nil, err
	}
	return []*core.Transaction{approve, list}, nil
}

func (w *Wallet) DelistWarrior(nonce, warriorID uint64) (*core.Transaction, error) {
	return w.NewTx(core.TxDelistWarrior, nonce, 0, core.WarriorPayload{WarriorID: warriorID})
}

// BuyWarrior pays price native units for a listed warrior.
func (w *Wallet) BuyWarrior(nonce, warriorID, price uint64) (*core.Transaction, error) {
	return w.NewTx(core.TxBuyWarrior, nonce, price, core.WarriorPayload{WarriorID: warriorID})
}
