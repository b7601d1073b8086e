package group

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/padel-weekly/internal/apperr"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

type store struct {
	db  *sql.DB
	mu  sync.RWMutex
	now func() time.Time
}

// New creates a new Store.
func New(db *sql.DB) Store {
	return &store{db: db, now: time.Now}
}

func (s *store) CreateGroup(ctx context.Context, name, slug string) (*Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("group name is required")
	}
	if !slugPattern.MatchString(slug) {
		return nil, apperr.Validation("invalid group slug %q", slug)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	g := &Group{ID: uuid.NewString(), Name: name, Slug: slug, CreatedAt: s.now().UTC().Truncate(time.Second)}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO groups (id, name, slug, created_at) VALUES (?, ?, ?, ?)`,
		g.ID, g.Name, g.Slug, g.CreatedAt.Unix())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, apperr.Conflict("group slug %q is already taken", slug)
		}
		return nil, fmt.Errorf("failed to create group: %w", err)
	}
	log.Info("Created group", "id", g.ID, "slug", slug)
	return g, nil
}

func (s *store) GetGroup(ctx context.Context, id string) (*Group, error) {
	return s.getGroup(ctx, `SELECT id, name, slug, created_at FROM groups WHERE id = ?`, id)
}

func (s *store) GetGroupBySlug(ctx context.Context, slug string) (*Group, error) {
	return s.getGroup(ctx, `SELECT id, name, slug, created_at FROM groups WHERE slug = ?`, slug)
}

func (s *store) getGroup(ctx context.Context, query, arg string) (*Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var g Group
	var created int64
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&g.ID, &g.Name, &g.Slug, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("group not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load group: %w", err)
	}
	g.CreatedAt = time.Unix(created, 0).UTC()
	return &g, nil
}

func (s *store) ListGroups(ctx context.Context) ([]Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id, name, slug, created_at FROM groups ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []Group
	for rows.Next() {
		var g Group
		var created int64
		if err := rows.Scan(&g.ID, &g.Name, &g.Slug, &created); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		g.CreatedAt = time.Unix(created, 0).UTC()
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (s *store) AddMember(ctx context.Context, groupID, userID string, role Role) error {
	if userID == "" {
		return apperr.Validation("user id is required")
	}
	if role == "" {
		role = RoleMember
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO group_members (group_id, user_id, role, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(group_id, user_id) DO UPDATE SET role = excluded.role`,
		groupID, userID, role, s.now().Unix())
	if err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}

func (s *store) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM group_members WHERE group_id = ? AND user_id = ?`, groupID, userID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return n > 0, nil
}

func (s *store) MemberRole(ctx context.Context, groupID, userID string) (Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var role Role
	err := s.db.QueryRowContext(ctx,
		`SELECT role FROM group_members WHERE group_id = ? AND user_id = ?`, groupID, userID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load member role: %w", err)
	}
	return role, nil
}

func (s *store) AddPlayer(ctx context.Context, groupID string, p NewPlayer) (*Player, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return nil, apperr.Validation("player name is required")
	}
	if p.Status == "" {
		p.Status = PlayerUsual
	}
	if !p.Status.Valid() {
		return nil, apperr.Validation("invalid player status %q", p.Status)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	player := &Player{
		ID:          uuid.NewString(),
		GroupID:     groupID,
		Name:        p.Name,
		Status:      p.Status,
		UserID:      p.UserID,
		PlaytomicID: p.PlaytomicID,
		CreatedAt:   s.now().UTC().Truncate(time.Second),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO players (id, group_id, name, status, user_id, playtomic_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		player.ID, groupID, player.Name, player.Status, nullString(player.UserID), nullString(player.PlaytomicID), player.CreatedAt.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to add player: %w", err)
	}
	log.Debug("Added player", "group", groupID, "player", player.ID, "name", player.Name)
	return player, nil
}

func (s *store) UpdatePlayerStatus(ctx context.Context, groupID, playerID string, status PlayerStatus) error {
	if !status.Valid() {
		return apperr.Validation("invalid player status %q", status)
	}
	return s.updatePlayer(ctx, `UPDATE players SET status = ? WHERE id = ? AND group_id = ?`, string(status), playerID, groupID)
}

func (s *store) LinkPlaytomic(ctx context.Context, groupID, playerID, playtomicID string) error {
	return s.updatePlayer(ctx, `UPDATE players SET playtomic_id = ? WHERE id = ? AND group_id = ?`, nullString(playtomicID), playerID, groupID)
}

func (s *store) updatePlayer(ctx context.Context, query string, args ...any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update player: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("player not found")
	}
	return nil
}

const playerColumns = `id, group_id, name, status, COALESCE(user_id, ''), COALESCE(playtomic_id, ''), created_at`

func scanPlayer(scan func(dest ...any) error) (Player, error) {
	var p Player
	var created int64
	err := scan(&p.ID, &p.GroupID, &p.Name, &p.Status, &p.UserID, &p.PlaytomicID, &created)
	p.CreatedAt = time.Unix(created, 0).UTC()
	return p, err
}

func (s *store) GetPlayer(ctx context.Context, playerID string) (*Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, err := scanPlayer(s.db.QueryRowContext(ctx, `SELECT `+playerColumns+` FROM players WHERE id = ?`, playerID).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("player not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load player: %w", err)
	}
	return &p, nil
}

// ListPlayers returns the players of a group ordered by name. An empty
// status returns every player.
func (s *store) ListPlayers(ctx context.Context, groupID string, status PlayerStatus) ([]Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + playerColumns + ` FROM players WHERE group_id = ?`
	args := []any{groupID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY name COLLATE NOCASE`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	var players []Player
	for rows.Next() {
		p, err := scanPlayer(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

func (s *store) PlayersByPlaytomicID(ctx context.Context, groupID string) (map[string]Player, error) {
	players, err := s.ListPlayers(ctx, groupID, "")
	if err != nil {
		return nil, err
	}
	out := make(map[string]Player)
	for _, p := range players {
		if p.PlaytomicID != "" {
			out[p.PlaytomicID] = p
		}
	}
	return out, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
