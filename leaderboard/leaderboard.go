// Package leaderboard aggregates per-account battle results and ranks players
// by wins. Players keep their first-seen position among equal win counts.
package leaderboard

import (
	"slices"
	"sort"

	"github.com/tolelom/cryptowarriors/core"
)

// Standing is a player's stats with their 1-based rank.
type Standing struct {
	Address  string `json:"address"`
	Wins     uint64 `json:"wins"`
	Losses   uint64 `json:"losses"`
	Earnings uint64 `json:"earnings"`
	Rank     int    `json:"rank"`
}

// RecordBattle credits a win and reward to winner and a loss to loser.
func RecordBattle(s core.State, winner, loser string, reward uint64) error {
	ws, err := load(s, winner)
	if err != nil {
		return err
	}
	ws.Wins++
	ws.Earnings += reward
	if err := s.SetPlayerStats(ws); err != nil {
		return err
	}

	ls, err := load(s, loser)
	if err != nil {
		return err
	}
	ls.Losses++
	return s.SetPlayerStats(ls)
}

// load returns address's stats, registering it as a player on first sight.
func load(s core.State, address string) (*core.PlayerStats, error) {
	players, err := s.GetPlayers()
	if err != nil {
		return nil, err
	}
	if !slices.Contains(players, address) {
		seq, err := core.NextID(s, core.CounterPlayers)
		if err != nil {
			return nil, err
		}
		if err := s.SetPlayers(append(players, address)); err != nil {
			return nil, err
		}
		ps := &core.PlayerStats{Address: address, Seq: seq}
		return ps, s.SetPlayerStats(ps)
	}
	return s.GetPlayerStats(address)
}

// ranked returns every player's stats ordered by descending wins, ties kept in
// first-seen order.
func ranked(s core.State) ([]*core.PlayerStats, error) {
	players, err := s.GetPlayers()
	if err != nil {
		return nil, err
	}
	all := make([]*core.PlayerStats, 0, len(players))
	for _, addr := range players {
		ps, err := s.GetPlayerStats(addr)
		if err != nil {
			return nil, err
		}
		all = append(all, ps)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Wins > all[j].Wins })
	return all, nil
}

// Top returns up to limit accounts by descending wins with their win counts.
func Top(s core.State, limit int) ([]string, []uint64, error) {
	all, err := ranked(s)
	if err != nil {
		return nil, nil, err
	}
	if limit < 0 {
		limit = 0
	}
	n := min(limit, len(all))
	accounts := make([]string, n)
	wins := make([]uint64, n)
	for i, ps := range all[:n] {
		accounts[i] = ps.Address
		wins[i] = ps.Wins
	}
	return accounts, wins, nil
}

// Stats returns address's standing. Accounts that never fought resolve to
// zero stats ranked after every known player.
func Stats(s core.State, address string) (*Standing, error) {
	all, err := ranked(s)
	if err != nil {
		return nil, err
	}
	for i, ps := range all {
		if ps.Address == address {
			return &Standing{
				Address:  address,
				Wins:     ps.Wins,
				Losses:   ps.Losses,
				Earnings: ps.Earnings,
				Rank:     i + 1,
			}, nil
		}
	}
	return &Standing{Address: address, Rank: len(all) + 1}, nil
}
