package core

import "fmt"

// Well-known identities that act on the ledger without a key pair.
const (
	// GameEngineAddress is the identity the arena uses when it mints battle
	// rewards. It must be on the authorized-caller list for battles to settle.
	GameEngineAddress = "game-engine"
	// MarketplaceAddress is the escrow identity owners approve before listing.
	MarketplaceAddress = "marketplace"
)

// Account holds a participant's WAR balance, native payment-coin balance and
// replay-protection nonce. Address is the hex-encoded ed25519 public key.
type Account struct {
	Address string `json:"address"`
	Balance uint64 `json:"balance"` // WAR tokens
	Native  uint64 `json:"native"`  // payment coin used for purchases and sales
	Nonce   uint64 `json:"nonce"`
}

// WarriorClass is the immutable archetype chosen at creation.
type WarriorClass string

const (
	ClassKnight WarriorClass = "Knight"
	ClassMage   WarriorClass = "Mage"
	ClassArcher WarriorClass = "Archer"
)

// Valid reports whether c is one of the three supported classes.
func (c WarriorClass) Valid() bool {
	switch c {
	case ClassKnight, ClassMage, ClassArcher:
		return true
	}
	return false
}

// Warrior is a non-fungible game character. Records are never deleted.
type Warrior struct {
	ID         uint64       `json:"id"`
	Name       string       `json:"name"`
	Class      WarriorClass `json:"class"`
	Attack     uint64       `json:"attack"`
	Defense    uint64       `json:"defense"`
	Health     uint64       `json:"health"`
	MaxHealth  uint64       `json:"max_health"`
	Level      uint64       `json:"level"`
	Experience uint64       `json:"experience"`
	Wins       uint64       `json:"wins"`
	Losses     uint64       `json:"losses"`
	Creator    string       `json:"creator"` // royalty recipient
	Owner      string       `json:"owner"`
	History    []string     `json:"history"`            // append-only, History[0] == Creator
	Approved   string       `json:"approved,omitempty"` // per-token transfer capability
	CreatedAt  int64        `json:"created_at"`
}

// QueueEntry is a warrior waiting for an opponent.
type QueueEntry struct {
	WarriorID uint64 `json:"warrior_id"`
	Owner     string `json:"owner"`
	EnteredAt int64  `json:"entered_at"`
}

// Battle is a resolved pairing. Completed is always true once stored.
type Battle struct {
	ID             uint64 `json:"id"`
	WarriorA       uint64 `json:"warrior_a"`
	WarriorB       uint64 `json:"warrior_b"`
	OwnerA         string `json:"owner_a"`
	OwnerB         string `json:"owner_b"`
	WinnerWarrior  uint64 `json:"winner_warrior"`
	LoserWarrior   uint64 `json:"loser_warrior"`
	Winner         string `json:"winner"`
	Loser          string `json:"loser"`
	Reward         uint64 `json:"reward"`
	DamageToWinner uint64 `json:"damage_to_winner"`
	DamageToLoser  uint64 `json:"damage_to_loser"`
	XPGained       uint64 `json:"xp_gained"`
	Seed           string `json:"seed"` // hex, reproduces the combat rolls
	Completed      bool   `json:"completed"`
	Timestamp      int64  `json:"timestamp"`
}

// Listing is a seller's escrow offer, keyed by warrior id.
type Listing struct {
	WarriorID uint64 `json:"warrior_id"`
	Seller    string `json:"seller"`
	Price     uint64 `json:"price"` // native units
	Active    bool   `json:"active"`
	CreatedAt int64  `json:"created_at"`
}

// PlayerStats is the per-account battle aggregate behind the leaderboard.
// Seq records first-seen order and breaks ties between equal win counts.
type PlayerStats struct {
	Address  string `json:"address"`
	Wins     uint64 `json:"wins"`
	Losses   uint64 `json:"losses"`
	Earnings uint64 `json:"earnings"`
	Seq      uint64 `json:"seq"`
}

// Counter names used with State.GetCounter / SetCounter.
const (
	CounterWarriors = "warriors"
	CounterBattles  = "battles"
	CounterPlayers  = "players"
	CounterCalls    = "calls" // in-process calls, feeds their deterministic ids
)

// State is the full game state interface. Implementations must be
// snapshot-able so the executor can roll back failed operations.
type State interface {
	// Accounts
	GetAccount(address string) (*Account, error)
	SetAccount(account *Account) error

	// Warriors and the owner -> warrior ids index
	GetWarrior(id uint64) (*Warrior, error)
	SetWarrior(w *Warrior) error
	GetOwnedWarriors(owner string) ([]uint64, error)
	SetOwnedWarriors(owner string, ids []uint64) error

	// Matchmaking queue
	GetQueue() ([]QueueEntry, error)
	SetQueue(q []QueueEntry) error

	// Battles
	GetBattle(id uint64) (*Battle, error)
	SetBattle(b *Battle) error

	// Market
	GetListing(warriorID uint64) (*Listing, error)
	SetListing(l *Listing) error
	GetActiveListings() ([]uint64, error)
	SetActiveListings(ids []uint64) error

	// Leaderboard
	GetPlayerStats(address string) (*PlayerStats, error)
	SetPlayerStats(ps *PlayerStats) error
	GetPlayers() ([]string, error)
	SetPlayers(players []string) error

	// Capability list and administrator
	IsAuthorized(caller string) (bool, error)
	SetAuthorized(caller string, allowed bool) error
	GetAdmin() (string, error)
	SetAdmin(address string) error

	// Monotonic counters
	GetCounter(name string) (uint64, error)
	SetCounter(name string, v uint64) error

	// Snapshot / rollback / commit
	Snapshot() (int, error)
	RevertToSnapshot(id int) error
	// ComputeRoot returns the deterministic state root from the current write
	// buffer without flushing.
	ComputeRoot() string
	// Commit flushes the write buffer to the underlying DB and clears it.
	Commit() error
}

// NextID reads counter name, bumps it, and returns the pre-increment value,
// so ids start at 0.
func NextID(s State, name string) (uint64, error) {
	n, err := s.GetCounter(name)
	if err != nil {
		return 0, fmt.Errorf("read counter %s: %w", name, err)
	}
	if err := s.SetCounter(name, n+1); err != nil {
		return 0, err
	}
	return n, nil
}
