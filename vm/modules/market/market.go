// Package market implements the marketplace escrow. Sellers approve the
// marketplace identity for a warrior, list it at a native price, and buyers
// pay exactly that price, split between seller and creator.
package market

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/tolelom/cryptowarriors/core"
	"github.com/tolelom/cryptowarriors/events"
	"github.com/tolelom/cryptowarriors/vm"
	"github.com/tolelom/cryptowarriors/vm/modules/economy"
	"github.com/tolelom/cryptowarriors/vm/modules/warrior"
)

func init() {
	vm.Register(core.TxListWarrior, handleList)
	vm.Register(core.TxDelistWarrior, handleDelist)
	vm.Register(core.TxBuyWarrior, handleBuy)
}

func handleList(ctx *vm.Context, payload json.RawMessage) error {
	var p core.ListWarriorPayload
	if err := vm.Decode(payload, &p); err != nil {
		return err
	}
	w, err := warrior.LoadOwned(ctx.State, p.WarriorID, ctx.Caller)
	if err != nil {
		return err
	}
	listed, err := warrior.IsListed(ctx.State, w)
	if err != nil {
		return err
	}
	if listed {
		return core.ErrAlreadyListed
	}
	if p.Price < ctx.Params.MinListingPrice {
		return fmt.Errorf("price %d < %d: %w", p.Price, ctx.Params.MinListingPrice, core.ErrPriceTooLow)
	}
	queued, err := warrior.IsQueued(ctx.State, w.ID)
	if err != nil {
		return err
	}
	if queued {
		return core.ErrWarriorBusy
	}
	if w.Approved != core.MarketplaceAddress {
		return core.ErrNotApproved
	}

	listing := &core.Listing{
		WarriorID: w.ID,
		Seller:    ctx.Caller,
		Price:     p.Price,
		Active:    true,
		CreatedAt: ctx.Timestamp,
	}
	if err := ctx.State.SetListing(listing); err != nil {
		return err
	}
	if err := addActive(ctx.State, w.ID); err != nil {
		return err
	}

	ctx.Emit(events.EventListingCreated, map[string]any{
		"warrior_id": w.ID,
		"seller":     ctx.Caller,
		"price":      p.Price,
	})
	return nil
}

func handleDelist(ctx *vm.Context, payload json.RawMessage) error {
	var p core.WarriorPayload
	if err := vm.Decode(payload, &p); err != nil {
		return err
	}
	listing, err := ctx.State.GetListing(p.WarriorID)
	if err != nil {
		return err
	}
	if !listing.Active {
		return core.ErrNotListed
	}
	if listing.Seller != ctx.Caller {
		return core.ErrNotSeller
	}
	if err := deactivate(ctx.State, listing); err != nil {
		return err
	}
	ctx.Emit(events.EventListingRemoved, map[string]any{"warrior_id": p.WarriorID, "seller": listing.Seller})
	return nil
}

func handleBuy(ctx *vm.Context, payload json.RawMessage) error {
	var p core.WarriorPayload
	if err := vm.Decode(payload, &p); err != nil {
		return err
	}
	listing, err := ctx.State.GetListing(p.WarriorID)
	if err != nil {
		return err
	}
	if !listing.Active {
		return core.ErrNotListed
	}
	paid, err := ctx.TakeValue()
	if err != nil {
		return err
	}
	if paid != listing.Price {
		return fmt.Errorf("paid %d, price %d: %w", paid, listing.Price, core.ErrIncorrectPrice)
	}
	if ctx.Caller == listing.Seller {
		return core.ErrSelfDealing
	}
	w, err := ctx.State.GetWarrior(p.WarriorID)
	if err != nil {
		return err
	}
	if w.Owner != listing.Seller {
		return core.ErrSellerNoLongerOwner
	}
	if w.Approved != core.MarketplaceAddress {
		return core.ErrApprovalRevoked
	}

	royalty, err := economy.SplitPayment(ctx, w.Creator, listing.Seller, paid)
	if err != nil {
		return err
	}
	if err := warrior.ChangeOwner(ctx.State, w, ctx.Caller); err != nil {
		return err
	}
	if err := deactivate(ctx.State, listing); err != nil {
		return err
	}

	ctx.Result = core.SaleResult{
		WarriorID: w.ID,
		From:      listing.Seller,
		To:        ctx.Caller,
		Price:     paid,
		Royalty:   royalty,
		Creator:   w.Creator,
	}
	ctx.Emit(events.EventWarriorSold, map[string]any{
		"warrior_id": w.ID,
		"seller":     listing.Seller,
		"buyer":      ctx.Caller,
		"price":      paid,
		"royalty":    royalty,
	})
	return nil
}

func deactivate(s core.State, l *core.Listing) error {
	l.Active = false
	if err := s.SetListing(l); err != nil {
		return err
	}
	ids, err := s.GetActiveListings()
	if err != nil {
		return err
	}
	return s.SetActiveListings(slices.DeleteFunc(ids, func(v uint64) bool { return v == l.WarriorID }))
}

func addActive(s core.State, id uint64) error {
	ids, err := s.GetActiveListings()
	if err != nil {
		return err
	}
	if slices.Contains(ids, id) {
		return nil
	}
	return s.SetActiveListings(append(ids, id))
}
