package core

// PurchaseResult is returned by purchase_currency.
type PurchaseResult struct {
	Paid     uint64 `json:"paid"`
	Credited uint64 `json:"credited"`
}

// WarriorResult is returned by create_warrior.
type WarriorResult struct {
	WarriorID uint64 `json:"warrior_id"`
}

// QueueResult is returned by enter_battle_queue. Battle is set when the call
// paired the warrior and resolved a fight.
type QueueResult struct {
	Queued bool    `json:"queued"`
	Battle *Battle `json:"battle,omitempty"`
}

// SaleResult is returned by transfer_warrior and buy_warrior.
type SaleResult struct {
	WarriorID uint64 `json:"warrior_id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Price     uint64 `json:"price"`
	Royalty   uint64 `json:"royalty"`
	Creator   string `json:"creator"`
}
