package core

import "errors"

// NativeUnit is the number of smallest native units in one payment coin.
const NativeUnit = 1_000_000_000

// GameParams are the economic and combat constants of the game. All amounts
// are in smallest units: WAR for costs and rewards, native for prices.
type GameParams struct {
	Treasury        string `json:"treasury"`          // receives purchase payments
	TokensPerNative uint64 `json:"tokens_per_native"` // WAR credited per native unit
	MintWarriorCost uint64 `json:"mint_warrior_cost"`
	HealCost        uint64 `json:"heal_cost"`
	BattleEntryFee  uint64 `json:"battle_entry_fee"`
	BattleReward    uint64 `json:"battle_reward"`
	MinBattleHealth uint64 `json:"min_battle_health"`
	MinListingPrice uint64 `json:"min_listing_price"`
	RoyaltyBps      uint64 `json:"royalty_bps"` // creator share in basis points
	MaxNameLength   int    `json:"max_name_length"`
}

// DefaultGameParams returns the deployed game's constants.
func DefaultGameParams() GameParams {
	return GameParams{
		Treasury:        "treasury",
		TokensPerNative: 1000,
		MintWarriorCost: 100,
		HealCost:        5,
		BattleEntryFee:  10,
		BattleReward:    20,
		MinBattleHealth: 20,
		MinListingPrice: NativeUnit / 1000,
		RoyaltyBps:      1000,
		MaxNameLength:   32,
	}
}

// Validate rejects parameter sets the game cannot run with.
func (p GameParams) Validate() error {
	switch {
	case p.Treasury == "":
		return errors.New("treasury must be set")
	case p.TokensPerNative == 0:
		return errors.New("tokens_per_native must be > 0")
	case p.RoyaltyBps > 10_000:
		return errors.New("royalty_bps must be <= 10000")
	case p.MinListingPrice == 0:
		return errors.New("min_listing_price must be > 0")
	case p.MaxNameLength <= 0:
		return errors.New("max_name_length must be > 0")
	}
	return nil
}

// Allocation is a genesis balance grant.
type Allocation struct {
	War    uint64 `json:"war"`
	Native uint64 `json:"native"`
}

// Genesis seeds a fresh chain: the administrator of the caller allow-list,
// the initially authorized callers and the starting balances.
type Genesis struct {
	ChainID           string                `json:"chain_id"`
	Admin             string                `json:"admin"`
	AuthorizedCallers []string              `json:"authorized_callers"`
	Alloc             map[string]Allocation `json:"alloc"`
}
