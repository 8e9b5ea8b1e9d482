package storage

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/tolelom/cryptowarriors/core"
	"github.com/tolelom/cryptowarriors/crypto"
)

// registerPrefix records a state-key prefix into statePrefixes so that
// ComputeRoot() always covers it.
func registerPrefix(p string) string {
	statePrefixes = append(statePrefixes, p)
	return p
}

var statePrefixes []string

var (
	prefixAccount = registerPrefix("acct:")
	prefixWarrior = registerPrefix("warrior:")
	prefixOwned   = registerPrefix("owned:")
	prefixQueue   = registerPrefix("queue:")
	prefixBattle  = registerPrefix("battle:")
	prefixListing = registerPrefix("listing:")
	prefixMarket  = registerPrefix("market:")
	prefixStats   = registerPrefix("stats:")
	prefixAuth    = registerPrefix("auth:")
	prefixMeta    = registerPrefix("meta:")
	prefixCounter = registerPrefix("counter:")
)

var (
	keyQueue          = prefixQueue + "entries"
	keyActiveListings = prefixMarket + "active"
	keyPlayers        = prefixMeta + "players"
	keyAdmin          = prefixMeta + "admin"
)

// idKey zero-pads ids so that keys sort numerically.
func idKey(prefix string, id uint64) string {
	return fmt.Sprintf("%s%020d", prefix, id)
}

type stateSnapshot struct {
	dirty   map[string][]byte
	deleted map[string]bool
}

// StateDB implements core.State on top of a DB with in-memory write buffer,
// snapshot/rollback, and deterministic state-root computation.
type StateDB struct {
	db        DB
	dirty     map[string][]byte
	deleted   map[string]bool
	snapshots []stateSnapshot
}

// NewStateDB creates a StateDB backed by db.
func NewStateDB(db DB) *StateDB {
	return &StateDB{
		db:      db,
		dirty:   make(map[string][]byte),
		deleted: make(map[string]bool),
	}
}

// ---- internal helpers ----

func (s *StateDB) get(key string) ([]byte, error) {
	if s.deleted[key] {
		return nil, core.ErrNotFound
	}
	if v, ok := s.dirty[key]; ok {
		return v, nil
	}
	return s.db.Get([]byte(key))
}

func (s *StateDB) set(key string, val []byte) {
	delete(s.deleted, key)
	s.dirty[key] = val
}

func (s *StateDB) del(key string) {
	delete(s.dirty, key)
	s.deleted[key] = true
}

// getJSON decodes key into v. found is false when the key is absent.
func (s *StateDB) getJSON(key string, v any) (found bool, err error) {
	data, err := s.get(key)
	if errors.Is(err, core.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *StateDB) setJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.set(key, data)
	return nil
}

// ---- Account ----

func (s *StateDB) GetAccount(address string) (*core.Account, error) {
	acc := &core.Account{Address: address}
	if _, err := s.getJSON(prefixAccount+address, acc); err != nil {
		return nil, err
	}
	return acc, nil
}

func (s *StateDB) SetAccount(acc *core.Account) error {
	return s.setJSON(prefixAccount+acc.Address, acc)
}

// ---- Warrior ----

func (s *StateDB) GetWarrior(id uint64) (*core.Warrior, error) {
	var w core.Warrior
	found, err := s.getJSON(idKey(prefixWarrior, id), &w)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("warrior %d: %w", id, core.ErrWarriorNotFound)
	}
	return &w, nil
}

func (s *StateDB) SetWarrior(w *core.Warrior) error {
	return s.setJSON(idKey(prefixWarrior, w.ID), w)
}

func (s *StateDB) GetOwnedWarriors(owner string) ([]uint64, error) {
	var ids []uint64
	if _, err := s.getJSON(prefixOwned+owner, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *StateDB) SetOwnedWarriors(owner string, ids []uint64) error {
	if len(ids) == 0 {
		s.del(prefixOwned + owner)
		return nil
	}
	return s.setJSON(prefixOwned+owner, ids)
}

// ---- Queue ----

func (s *StateDB) GetQueue() ([]core.QueueEntry, error) {
	var q []core.QueueEntry
	if _, err := s.getJSON(keyQueue, &q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *StateDB) SetQueue(q []core.QueueEntry) error {
	if len(q) == 0 {
		s.del(keyQueue)
		return nil
	}
	return s.setJSON(keyQueue, q)
}

// ---- Battle ----

func (s *StateDB) GetBattle(id uint64) (*core.Battle, error) {
	var b core.Battle
	found, err := s.getJSON(idKey(prefixBattle, id), &b)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("battle %d: %w", id, core.ErrBattleNotFound)
	}
	return &b, nil
}

func (s *StateDB) SetBattle(b *core.Battle) error {
	return s.setJSON(idKey(prefixBattle, b.ID), b)
}

// ---- Market ----

// GetListing returns an inactive zero listing when none was ever created.
func (s *StateDB) GetListing(warriorID uint64) (*core.Listing, error) {
	l := &core.Listing{WarriorID: warriorID}
	if _, err := s.getJSON(idKey(prefixListing, warriorID), l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *StateDB) SetListing(l *core.Listing) error {
	return s.setJSON(idKey(prefixListing, l.WarriorID), l)
}

func (s *StateDB) GetActiveListings() ([]uint64, error) {
	var ids []uint64
	if _, err := s.getJSON(keyActiveListings, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *StateDB) SetActiveListings(ids []uint64) error {
	if len(ids) == 0 {
		s.del(keyActiveListings)
		return nil
	}
	return s.setJSON(keyActiveListings, ids)
}

// ---- Leaderboard ----

func (s *StateDB) GetPlayerStats(address string) (*core.PlayerStats, error) {
	ps := &core.PlayerStats{Address: address}
	if _, err := s.getJSON(prefixStats+address, ps); err != nil {
		return nil, err
	}
	return ps, nil
}

func (s *StateDB) SetPlayerStats(ps *core.PlayerStats) error {
	return s.setJSON(prefixStats+ps.Address, ps)
}

func (s *StateDB) GetPlayers() ([]string, error) {
	var players []string
	if _, err := s.getJSON(keyPlayers, &players); err != nil {
		return nil, err
	}
	return players, nil
}

func (s *StateDB) SetPlayers(players []string) error {
	return s.setJSON(keyPlayers, players)
}

// ---- Capabilities ----

func (s *StateDB) IsAuthorized(caller string) (bool, error) {
	_, err := s.get(prefixAuth + caller)
	if errors.Is(err, core.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *StateDB) SetAuthorized(caller string, allowed bool) error {
	if allowed {
		s.set(prefixAuth+caller, []byte{1})
	} else {
		s.del(prefixAuth + caller)
	}
	return nil
}

func (s *StateDB) GetAdmin() (string, error) {
	v, err := s.get(keyAdmin)
	if errors.Is(err, core.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(v), nil
}

func (s *StateDB) SetAdmin(address string) error {
	s.set(keyAdmin, []byte(address))
	return nil
}

// ---- Counters ----

func (s *StateDB) GetCounter(name string) (uint64, error) {
	v, err := s.get(prefixCounter + name)
	if errors.Is(err, core.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(string(v), 10, 64)
}

func (s *StateDB) SetCounter(name string, v uint64) error {
	s.set(prefixCounter+name, []byte(strconv.FormatUint(v, 10)))
	return nil
}

// ---- Snapshot / Rollback / Commit ----

// Snapshot saves the current write buffer and returns a snapshot ID.
func (s *StateDB) Snapshot() (int, error) {
	snap := stateSnapshot{
		dirty:   make(map[string][]byte, len(s.dirty)),
		deleted: make(map[string]bool, len(s.deleted)),
	}
	for k, v := range s.dirty {
		snap.dirty[k] = bytes.Clone(v)
	}
	for k, v := range s.deleted {
		snap.deleted[k] = v
	}
	s.snapshots = append(s.snapshots, snap)
	return len(s.snapshots) - 1, nil
}

// RevertToSnapshot restores the write buffer to a previously saved snapshot
// and discards it along with every later snapshot.
func (s *StateDB) RevertToSnapshot(id int) error {
	if id < 0 || id >= len(s.snapshots) {
		return fmt.Errorf("invalid snapshot id %d", id)
	}
	snap := s.snapshots[id]
	s.dirty = snap.dirty
	s.deleted = snap.deleted
	s.snapshots = s.snapshots[:id]
	return nil
}

// ComputeRoot returns the deterministic hash of the complete world state:
// persisted entries under the state prefixes merged with the write buffer,
// sorted by key and length-prefix encoded.
func (s *StateDB) ComputeRoot() string {
	merged := make(map[string][]byte)
	for _, prefix := range statePrefixes {
		it := s.db.NewIterator([]byte(prefix))
		for it.Next() {
			merged[string(it.Key())] = bytes.Clone(it.Value())
		}
		it.Release()
	}
	for k, v := range s.dirty {
		merged[k] = v
	}
	for k := range s.deleted {
		delete(merged, k)
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	var lenBuf [4]byte
	for _, k := range keys {
		v := merged[k]
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(k)))
		buf.Write(lenBuf[:])
		buf.WriteString(k)
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(v)))
		buf.Write(lenBuf[:])
		buf.Write(v)
	}
	return crypto.Hash(buf.Bytes())
}

// Commit atomically flushes the write buffer to the underlying DB and clears it.
func (s *StateDB) Commit() error {
	batch := s.db.NewBatch()
	for k, v := range s.dirty {
		batch.Set([]byte(k), v)
	}
	for k := range s.deleted {
		batch.Delete([]byte(k))
	}
	if err := batch.Write(); err != nil {
		return err
	}
	s.dirty = make(map[string][]byte)
	s.deleted = make(map[string]bool)
	s.snapshots = nil
	return nil
}
