package stats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/padel-weekly/internal/database"
)

type store struct {
	db  *sql.DB
	mu  sync.RWMutex
	now func() time.Time
}

func New(db *sql.DB) Store {
	return &store{db: db, now: time.Now}
}

type decided struct {
	winner int
	teams  [3][]string
	games  [3]int
	sets   [3]int
}

type pairKey struct{ a, b string }

func orderedPair(x, y string) pairKey {
	if y < x {
		x, y = y, x
	}
	return pairKey{x, y}
}

func (s *store) Refresh(ctx context.Context, groupID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	return database.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		matches, err := loadDecided(ctx, tx, groupID)
		if err != nil {
			return err
		}

		players := map[string]*PlayerStats{}
		pairs := map[pairKey]*PairStats{}
		for _, m := range matches {
			for team := 1; team <= 2; team++ {
				other := 3 - team
				won := m.winner == team
				for _, id := range m.teams[team] {
					ps, ok := players[id]
					if !ok {
						ps = &PlayerStats{PlayerID: id, GroupID: groupID}
						players[id] = ps
					}
					ps.MatchesPlayed++
					if won {
						ps.MatchesWon++
					} else {
						ps.MatchesLost++
					}
					ps.SetsWon += m.sets[team]
					ps.SetsLost += m.sets[other]
					ps.GamesWon += m.games[team]
					ps.GamesLost += m.games[other]
				}
				if len(m.teams[team]) == 2 {
					key := orderedPair(m.teams[team][0], m.teams[team][1])
					pair, ok := pairs[key]
					if !ok {
						pair = &PairStats{PlayerA: key.a, PlayerB: key.b}
						pairs[key] = pair
					}
					pair.MatchesPlayed++
					if won {
						pair.MatchesWon++
					}
				}
			}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM player_stats WHERE group_id = ?`, groupID); err != nil {
			return fmt.Errorf("failed to clear player stats: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM pair_stats WHERE group_id = ?`, groupID); err != nil {
			return fmt.Errorf("failed to clear pair stats: %w", err)
		}
		for _, ps := range players {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO player_stats (player_id, group_id, matches_played, matches_won, matches_lost,
					sets_won, sets_lost, games_won, games_lost, refreshed_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				ps.PlayerID, groupID, ps.MatchesPlayed, ps.MatchesWon, ps.MatchesLost,
				ps.SetsWon, ps.SetsLost, ps.GamesWon, ps.GamesLost, now.Unix())
			if err != nil {
				return fmt.Errorf("failed to write player stats: %w", err)
			}
		}
		for _, p := range pairs {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO pair_stats (group_id, player_a, player_b, matches_played, matches_won, refreshed_at)
				VALUES (?, ?, ?, ?, ?, ?)`,
				groupID, p.PlayerA, p.PlayerB, p.MatchesPlayed, p.MatchesWon, now.Unix())
			if err != nil {
				return fmt.Errorf("failed to write pair stats: %w", err)
			}
		}
		log.Info("Refreshed stats", "group", groupID, "matches", len(matches), "players", len(players), "pairs", len(pairs))
		return nil
	})
}

func loadDecided(ctx context.Context, q database.DBTX, groupID string) (map[string]*decided, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT m.id, m.winner_team, mt.team_number, mtp.player_id
		FROM matches m
		JOIN match_teams mt ON mt.match_id = m.id
		JOIN match_team_players mtp ON mtp.match_team_id = mt.id
		WHERE m.group_id = ? AND m.winner_team IS NOT NULL`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load decided matches: %w", err)
	}
	out := map[string]*decided{}
	for rows.Next() {
		var id, player string
		var winner, team int
		if err := rows.Scan(&id, &winner, &team, &player); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan match player: %w", err)
		}
		m, ok := out[id]
		if !ok {
			m = &decided{winner: winner}
			out[id] = m
		}
		m.teams[team] = append(m.teams[team], player)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = q.QueryContext(ctx, `
		SELECT ms.match_id, ms.team1_games, ms.team2_games
		FROM match_sets ms JOIN matches m ON m.id = ms.match_id
		WHERE m.group_id = ? AND m.winner_team IS NOT NULL`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load sets: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var g1, g2 int
		if err := rows.Scan(&id, &g1, &g2); err != nil {
			return nil, fmt.Errorf("failed to scan set: %w", err)
		}
		m, ok := out[id]
		if !ok {
			continue
		}
		m.games[1] += g1
		m.games[2] += g2
		switch {
		case g1 > g2:
			m.sets[1]++
		case g2 > g1:
			m.sets[2]++
		}
	}
	return out, rows.Err()
}

const statsColumns = `player_id, group_id, matches_played, matches_won, matches_lost, sets_won, sets_lost, games_won, games_lost, refreshed_at`

func scanStats(scan func(dest ...any) error) (PlayerStats, error) {
	var ps PlayerStats
	var refreshed int64
	err := scan(&ps.PlayerID, &ps.GroupID, &ps.MatchesPlayed, &ps.MatchesWon, &ps.MatchesLost,
		&ps.SetsWon, &ps.SetsLost, &ps.GamesWon, &ps.GamesLost, &refreshed)
	ps.RefreshedAt = time.Unix(refreshed, 0).UTC()
	return ps, err
}

func (s *store) PlayerStats(ctx context.Context, groupID string) (map[string]PlayerStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT `+statsColumns+` FROM player_stats WHERE group_id = ?`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load player stats: %w", err)
	}
	defer rows.Close()

	out := map[string]PlayerStats{}
	for rows.Next() {
		ps, err := scanStats(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player stats: %w", err)
		}
		out[ps.PlayerID] = ps
	}
	return out, rows.Err()
}

// Player returns zeroed stats for a player without decided matches.
func (s *store) Player(ctx context.Context, playerID string) (PlayerStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ps, err := scanStats(s.db.QueryRowContext(ctx, `SELECT `+statsColumns+` FROM player_stats WHERE player_id = ?`, playerID).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return PlayerStats{PlayerID: playerID}, nil
	}
	if err != nil {
		return PlayerStats{}, fmt.Errorf("failed to load player stats: %w", err)
	}
	return ps, nil
}

// Pairs returns pairs with at least minMatches together, best win rate
// first.
func (s *store) Pairs(ctx context.Context, groupID string, minMatches int) ([]PairStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT ps.player_a, pa.name, ps.player_b, pb.name, ps.matches_played, ps.matches_won
		FROM pair_stats ps
		JOIN players pa ON pa.id = ps.player_a
		JOIN players pb ON pb.id = ps.player_b
		WHERE ps.group_id = ? AND ps.matches_played >= ?`, groupID, minMatches)
	if err != nil {
		return nil, fmt.Errorf("failed to load pair stats: %w", err)
	}
	defer rows.Close()

	var out []PairStats
	for rows.Next() {
		var p PairStats
		if err := rows.Scan(&p.PlayerA, &p.NameA, &p.PlayerB, &p.NameB, &p.MatchesPlayed, &p.MatchesWon); err != nil {
			return nil, fmt.Errorf("failed to scan pair stats: %w", err)
		}
		if p.MatchesPlayed > 0 {
			p.WinRate = float64(p.MatchesWon) / float64(p.MatchesPlayed)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].WinRate != out[j].WinRate {
			return out[i].WinRate > out[j].WinRate
		}
		if out[i].MatchesPlayed != out[j].MatchesPlayed {
			return out[i].MatchesPlayed > out[j].MatchesPlayed
		}
		return out[i].NameA+out[i].NameB < out[j].NameA+out[j].NameB
	})
	return out, nil
}
