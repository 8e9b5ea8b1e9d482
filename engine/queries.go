package engine

import (
	"slices"

	"github.com/tolelom/cryptowarriors/core"
	"github.com/tolelom/cryptowarriors/leaderboard"
)

// BalanceOf returns the WAR balance of address.
func (e *Engine) BalanceOf(address string) (uint64, error) {
	acc, err := e.Account(address)
	if err != nil {
		return 0, err
	}
	return acc.Balance, nil
}

// Account returns the full account record of address.
func (e *Engine) Account(address string) (*core.Account, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.GetAccount(address)
}

// IsAuthorized reports whether caller is on the authorized-caller list.
func (e *Engine) IsAuthorized(caller string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.IsAuthorized(caller)
}

// GetWarrior returns warrior id.
func (e *Engine) GetWarrior(id uint64) (*core.Warrior, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.GetWarrior(id)
}

// OwnerOf returns the current owner of warrior id.
func (e *Engine) OwnerOf(id uint64) (string, error) {
	w, err := e.GetWarrior(id)
	if err != nil {
		return "", err
	}
	return w.Owner, nil
}

// GetApproved returns the operator approved for warrior id, if any.
func (e *Engine) GetApproved(id uint64) (string, error) {
	w, err := e.GetWarrior(id)
	if err != nil {
		return "", err
	}
	return w.Approved, nil
}

// GetOwnershipHistory returns every owner of warrior id, creator first.
func (e *Engine) GetOwnershipHistory(id uint64) ([]string, error) {
	w, err := e.GetWarrior(id)
	if err != nil {
		return nil, err
	}
	return slices.Clone(w.History), nil
}

// GetWarriorsByOwner returns the ids owned by owner in ascending order.
func (e *Engine) GetWarriorsByOwner(owner string) ([]uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids, err := e.state.GetOwnedWarriors(owner)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []uint64{}
	}
	return ids, nil
}

// TotalWarriors returns the number of warriors ever created.
func (e *Engine) TotalWarriors() (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.GetCounter(core.CounterWarriors)
}

// GetQueueLength returns the number of waiting warriors (0 or 1).
func (e *Engine) GetQueueLength() (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	q, err := e.state.GetQueue()
	if err != nil {
		return 0, err
	}
	return len(q), nil
}

// GetQueue returns the waiting entries.
func (e *Engine) GetQueue() ([]core.QueueEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.GetQueue()
}

// GetBattle returns battle id.
func (e *Engine) GetBattle(id uint64) (*core.Battle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.GetBattle(id)
}

// GetBattleCount returns the number of resolved battles.
func (e *Engine) GetBattleCount() (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.GetCounter(core.CounterBattles)
}

// GetPlayerStats returns the standing of address.
func (e *Engine) GetPlayerStats(address string) (*leaderboard.Standing, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return leaderboard.Stats(e.state, address)
}

// GetLeaderboard returns up to limit accounts by descending wins alongside
// their win counts.
func (e *Engine) GetLeaderboard(limit int) ([]string, []uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return leaderboard.Top(e.state, limit)
}

// GetListing returns the listing of warrior id; unknown ids yield an
// inactive zero listing.
func (e *Engine) GetListing(id uint64) (*core.Listing, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.GetListing(id)
}

// GetActiveListings returns every active listing in listing order.
func (e *Engine) GetActiveListings() ([]*core.Listing, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids, err := e.state.GetActiveListings()
	if err != nil {
		return nil, err
	}
	out := make([]*core.Listing, 0, len(ids))
	for _, id := range ids {
		l, err := e.state.GetListing(id)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

// StateRoot returns the root of the committed state.
func (e *Engine) StateRoot() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.ComputeRoot()
}
