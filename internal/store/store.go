// Package store handles SQLite persistence for leaderboard partitions,
// round history, and participant profiles.
package store

import (
	"context"
	"database/sql"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/ryotaka/kanasprint/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// TopLimit is the leaderboard read size.
const TopLimit = 10

// HistoryLimit caps history fetches for analytics.
const HistoryLimit = 300

// Store wraps SQLite access. Leaderboard rows are addressed by partition
// name; history rows by actor id.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		// Best-effort close on migration failure.
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS board_entries (
			id INTEGER PRIMARY KEY,
			board TEXT NOT NULL,
			player TEXT NOT NULL,
			cpm INTEGER NOT NULL,
			kpm INTEGER NOT NULL,
			wpm INTEGER NOT NULL,
			diff INTEGER NOT NULL,
			eff REAL NOT NULL,
			rank TEXT NOT NULL,
			score INTEGER NOT NULL,
			category TEXT NOT NULL,
			theme TEXT NOT NULL,
			difficulty TEXT NOT NULL,
			length INTEGER NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS history (
			id INTEGER PRIMARY KEY,
			actor TEXT NOT NULL,
			cpm INTEGER NOT NULL,
			kpm INTEGER NOT NULL,
			wpm INTEGER NOT NULL,
			diff INTEGER NOT NULL,
			eff REAL NOT NULL,
			rank TEXT NOT NULL,
			score INTEGER NOT NULL,
			category TEXT NOT NULL,
			theme TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS profiles (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_board_entries_board_score ON board_entries(board, score DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_history_actor_created ON history(actor, created_at DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// EnsureProfile returns the stable actor id for a display name, creating
// the profile if absent. Create-if-absent runs inside one transaction.
func (s *Store) EnsureProfile(ctx context.Context, name string) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			// Best-effort rollback.
			_ = tx.Rollback()
		}
	}()

	var id string
	err = tx.QueryRowContext(ctx, `SELECT id FROM profiles WHERE name = ?`, name).Scan(&id)
	if err == sql.ErrNoRows {
		id = uuid.NewString()
		_, err = tx.ExecContext(ctx,
			`INSERT INTO profiles (id, name, created_at) VALUES (?, ?, ?)`,
			id, name, time.Now().Format(time.RFC3339Nano))
	}
	if err != nil {
		return "", err
	}
	if err = tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

// AppendBoardEntry writes one leaderboard row into a partition. The
// creation timestamp is store-assigned and eff is stored rounded to four
// decimal places.
func (s *Store) AppendBoardEntry(ctx context.Context, boardKey string, e model.BoardEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO board_entries (board, player, cpm, kpm, wpm, diff, eff, rank, score, category, theme, difficulty, length, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		boardKey, e.Player, e.CPM, e.KPM, e.WPM, e.Diff, roundEff(e.Eff),
		string(e.Rank), e.Score, e.Category, e.Theme, string(e.Difficulty),
		e.Length, time.Now().Format(time.RFC3339Nano))
	return err
}

// TopEntries returns a partition's top rows ordered by ranking score.
func (s *Store) TopEntries(ctx context.Context, boardKey string, limit int) ([]model.BoardEntry, error) {
	if limit <= 0 {
		limit = TopLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT player, cpm, kpm, wpm, diff, eff, rank, score, category, theme, difficulty, length, created_at
		 FROM board_entries
		 WHERE board = ?
		 ORDER BY score DESC, created_at ASC
		 LIMIT ?`, boardKey, limit)
	if err != nil {
		return nil, err
	}
	// Best-effort rows close.
	defer func() { _ = rows.Close() }()

	var entries []model.BoardEntry
	for rows.Next() {
		var e model.BoardEntry
		var rank, difficulty, createdAt string
		if err := rows.Scan(&e.Player, &e.CPM, &e.KPM, &e.WPM, &e.Diff, &e.Eff,
			&rank, &e.Score, &e.Category, &e.Theme, &difficulty, &e.Length, &createdAt); err != nil {
			return nil, err
		}
		e.Rank = model.Rank(rank)
		e.Difficulty = model.Difficulty(difficulty)
		parsed, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, err
		}
		e.CreatedAt = parsed
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// AppendHistory appends one completed round to an actor's history.
func (s *Store) AppendHistory(ctx context.Context, e model.HistoryEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO history (actor, cpm, kpm, wpm, diff, eff, rank, score, category, theme, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Actor, e.CPM, e.KPM, e.WPM, e.Diff, roundEff(e.Eff),
		string(e.Rank), e.Score, e.Category, e.Theme,
		time.Now().Format(time.RFC3339Nano))
	return err
}

// ListHistory returns an actor's rounds in descending creation order.
func (s *Store) ListHistory(ctx context.Context, actor string, limit int) ([]model.HistoryEntry, error) {
	if limit <= 0 || limit > HistoryLimit {
		limit = HistoryLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT actor, cpm, kpm, wpm, diff, eff, rank, score, category, theme, created_at
		 FROM history
		 WHERE actor = ?
		 ORDER BY created_at DESC
		 LIMIT ?`, actor, limit)
	if err != nil {
		return nil, err
	}
	// Best-effort rows close.
	defer func() { _ = rows.Close() }()

	var entries []model.HistoryEntry
	for rows.Next() {
		var e model.HistoryEntry
		var rank, createdAt string
		if err := rows.Scan(&e.Actor, &e.CPM, &e.KPM, &e.WPM, &e.Diff, &e.Eff,
			&rank, &e.Score, &e.Category, &e.Theme, &createdAt); err != nil {
			return nil, err
		}
		e.Rank = model.Rank(rank)
		parsed, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, err
		}
		e.CreatedAt = parsed
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func roundEff(eff float64) float64 {
	return math.Round(eff*10000) / 10000
}
