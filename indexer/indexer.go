// Package indexer maintains secondary indexes over committed battles so
// clients can list a player's or a warrior's fights without scanning state.
package indexer

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/tolelom/cryptowarriors/core"
	"github.com/tolelom/cryptowarriors/events"
	"github.com/tolelom/cryptowarriors/internal/logger"
	"github.com/tolelom/cryptowarriors/storage"
)

const (
	prefixPlayerBattles  = "idx:player:battle:"
	prefixWarriorBattles = "idx:warrior:battle:"
)

// Indexer subscribes to committed battle events and updates lookup tables.
type Indexer struct {
	db storage.DB
}

// New creates an Indexer backed by db and subscribes it to emitter.
func New(db storage.DB, emitter *events.Emitter) *Indexer {
	idx := &Indexer{db: db}
	emitter.Subscribe(events.EventBattleResolved, idx.onBattle)
	return idx
}

// GetBattlesByPlayer returns the ids of battles the player fought in,
// oldest first.
func (idx *Indexer) GetBattlesByPlayer(player string) ([]uint64, error) {
	return idx.getList(prefixPlayerBattles + player)
}

// GetBattlesByWarrior returns the ids of battles the warrior fought in.
func (idx *Indexer) GetBattlesByWarrior(id uint64) ([]uint64, error) {
	return idx.getList(fmt.Sprintf("%s%d", prefixWarriorBattles, id))
}

func (idx *Indexer) onBattle(ev events.Event) {
	battleID, ok := ev.Data["battle_id"].(uint64)
	if !ok {
		return
	}
	ownerA, _ := ev.Data["owner_a"].(string)
	ownerB, _ := ev.Data["owner_b"].(string)
	for _, p := range []string{ownerA, ownerB} {
		if p == "" {
			continue
		}
		if err := idx.addToList(prefixPlayerBattles+p, battleID); err != nil {
			logger.Error("index battle", "battle_id", battleID, "player", p, "err", err)
		}
	}
	for _, k := range []string{"warrior_a", "warrior_b"} {
		if wid, ok := ev.Data[k].(uint64); ok {
			if err := idx.addToList(fmt.Sprintf("%s%d", prefixWarriorBattles, wid), battleID); err != nil {
				logger.Error("index battle", "battle_id", battleID, "warrior_id", wid, "err", err)
			}
		}
	}
}

// ---- list helpers ----

func (idx *Indexer) getList(key string) ([]uint64, error) {
	data, err := idx.db.Get([]byte(key))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return []uint64{}, nil
		}
		return nil, err
	}
	var ids []uint64
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("indexer unmarshal: %w", err)
	}
	return ids, nil
}

// addToList appends value once; a same-owner battle lists the player once.
func (idx *Indexer) addToList(key string, value uint64) error {
	ids, err := idx.getList(key)
	if err != nil {
		return err
	}
	if slices.Contains(ids, value) {
		return nil
	}
	data, err := json.Marshal(append(ids, value))
	if err != nil {
		return err
	}
	return idx.db.Set([]byte(key), data)
}
