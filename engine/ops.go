package engine

import "github.com/tolelom/cryptowarriors/core"

// PurchaseCurrency converts value native units into WAR for caller.
func (e *Engine) PurchaseCurrency(caller string, value uint64) (core.PurchaseResult, error) {
	res, err := e.Submit(caller, core.TxPurchaseCurrency, value, core.PurchaseCurrencyPayload{})
	if err != nil {
		return core.PurchaseResult{}, err
	}
	return res.(core.PurchaseResult), nil
}

// RewardPlayer mints amount WAR to recipient. caller must be authorized.
func (e *Engine) RewardPlayer(caller, recipient string, amount uint64, reason string) error {
	_, err := e.Submit(caller, core.TxRewardPlayer, 0, core.RewardPlayerPayload{To: recipient, Amount: amount, Reason: reason})
	return err
}

// SetGameContract adds or removes target from the authorized-caller list.
// Only the administrator may call it.
func (e *Engine) SetGameContract(admin, target string, allowed bool) error {
	_, err := e.Submit(admin, core.TxSetGameContract, 0, core.SetGameContractPayload{Caller: target, Allowed: allowed})
	return err
}

// TransferTokens moves amount WAR from one account to another.
func (e *Engine) TransferTokens(from, to string, amount uint64) error {
	_, err := e.Submit(from, core.TxTransfer, 0, core.TransferPayload{To: to, Amount: amount})
	return err
}

// CreateWarrior mints a warrior for owner and returns its id.
func (e *Engine) CreateWarrior(owner, name string, class core.WarriorClass) (uint64, error) {
	res, err := e.Submit(owner, core.TxCreateWarrior, 0, core.CreateWarriorPayload{Name: name, Class: class})
	if err != nil {
		return 0, err
	}
	return res.(core.WarriorResult).WarriorID, nil
}

// EnterBattleQueue queues warrior id, or fights the waiting warrior.
func (e *Engine) EnterBattleQueue(owner string, id uint64) (core.QueueResult, error) {
	res, err := e.Submit(owner, core.TxEnterBattleQueue, 0, core.WarriorPayload{WarriorID: id})
	if err != nil {
		return core.QueueResult{}, err
	}
	return res.(core.QueueResult), nil
}

// HealWarrior restores warrior id to full health.
func (e *Engine) HealWarrior(owner string, id uint64) error {
	_, err := e.Submit(owner, core.TxHealWarrior, 0, core.WarriorPayload{WarriorID: id})
	return err
}

// TransferWarriorWithRoyalty sells warrior id to `to` for value native
// units paid by caller, the current owner.
func (e *Engine) TransferWarriorWithRoyalty(caller string, id uint64, to string, value uint64) (core.SaleResult, error) {
	res, err := e.Submit(caller, core.TxTransferWarrior, value, core.TransferWarriorPayload{WarriorID: id, To: to})
	if err != nil {
		return core.SaleResult{}, err
	}
	return res.(core.SaleResult), nil
}

// ApproveWarrior grants operator the transfer capability for warrior id.
// An empty operator revokes it.
func (e *Engine) ApproveWarrior(owner string, id uint64, operator string) error {
	_, err := e.Submit(owner, core.TxApproveWarrior, 0, core.ApproveWarriorPayload{WarriorID: id, Operator: operator})
	return err
}

// ListWarrior offers warrior id at price native units.
func (e *Engine) ListWarrior(seller string, id, price uint64) error {
	_, err := e.Submit(seller, core.TxListWarrior, 0, core.ListWarriorPayload{WarriorID: id, Price: price})
	return err
}

// DelistWarrior cancels the active listing of warrior id.
func (e *Engine) DelistWarrior(caller string, id uint64) error {
	_, err := e.Submit(caller, core.TxDelistWarrior, 0, core.WarriorPayload{WarriorID: id})
	return err
}

// BuyWarrior purchases listed warrior id, paying value native units.
func (e *Engine) BuyWarrior(buyer string, id, value uint64) (core.SaleResult, error) {
	res, err := e.Submit(buyer, core.TxBuyWarrior, value, core.WarriorPayload{WarriorID: id})
	if err != nil {
		return core.SaleResult{}, err
	}
	return res.(core.SaleResult), nil
}
