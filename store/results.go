package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // pure Go driver, registers "sqlite"
)

// Outcome is how a game ended for our snake.
type Outcome string

const (
	OutcomeWon  Outcome = "won"
	OutcomeLost Outcome = "lost"
	OutcomeDraw Outcome = "draw"
)

// GameRecord is one row of the games table.
type GameRecord struct {
	ID        string
	Ruleset   string
	Map       string
	SnakeID   string
	StartedAt time.Time
	EndedAt   time.Time // zero while the game is running
	Turns     int
	Outcome   Outcome // empty while the game is running
}

// Summary counts games by outcome.
type Summary struct {
	Won        int
	Lost       int
	Draw       int
	Unfinished int
}

func (s Summary) Total() int { return s.Won + s.Lost + s.Draw + s.Unfinished }

// Results is the SQLite-backed game book kept by the API server.
type Results struct {
	db *sql.DB
}

// OpenResults opens or creates the database at path. A leading ~ expands to
// the home directory and parent directories are created.
func OpenResults(path string) (*Results, error) {
	if path == "" {
		return nil, errors.New("results: path is required")
	}
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("results: expand home: %w", err)
		}
		path = filepath.Join(home, path[1:])
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("results: create dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("results: open: %w", err)
	}
	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("results: connect: %w", err)
	}

	r := &Results{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("results: migrate: %w", err)
	}
	return r, nil
}

func (r *Results) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS games (
		id         TEXT PRIMARY KEY,
		ruleset    TEXT NOT NULL DEFAULT '',
		map        TEXT NOT NULL DEFAULT '',
		snake_id   TEXT NOT NULL DEFAULT '',
		started_ms INTEGER NOT NULL,
		ended_ms   INTEGER NOT NULL DEFAULT 0,
		turns      INTEGER NOT NULL DEFAULT 0,
		outcome    TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_games_outcome ON games(outcome);
	CREATE INDEX IF NOT EXISTS idx_games_started ON games(started_ms DESC);
	`
	_, err := r.db.Exec(schema)
	return err
}

func (r *Results) Close() error {
	return r.db.Close()
}

// RecordStart inserts a running game. Repeated starts for one id are ignored.
func (r *Results) RecordStart(ctx context.Context, rec GameRecord) error {
	if rec.ID == "" {
		return errors.New("results: game id is empty")
	}
	started := rec.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO games (id, ruleset, map, snake_id, started_ms) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.Ruleset, rec.Map, rec.SnakeID, started.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("results: record start %s: %w", rec.ID, err)
	}
	return nil
}

// RecordEnd stores the outcome. A game that never reported a start is
// inserted with its start time set to the end time.
func (r *Results) RecordEnd(ctx context.Context, id string, turns int, outcome Outcome) error {
	if id == "" {
		return errors.New("results: game id is empty")
	}
	now := time.Now().UnixMilli()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO games (id, started_ms, ended_ms, turns, outcome) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET ended_ms = excluded.ended_ms, turns = excluded.turns, outcome = excluded.outcome`,
		id, now, now, turns, string(outcome),
	)
	if err != nil {
		return fmt.Errorf("results: record end %s: %w", id, err)
	}
	return nil
}

func (r *Results) Summary(ctx context.Context) (Summary, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT outcome, COUNT(*) FROM games GROUP BY outcome`)
	if err != nil {
		return Summary{}, fmt.Errorf("results: summary: %w", err)
	}
	defer rows.Close()

	var s Summary
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return Summary{}, fmt.Errorf("results: scan summary: %w", err)
		}
		switch Outcome(outcome) {
		case OutcomeWon:
			s.Won = n
		case OutcomeLost:
			s.Lost = n
		case OutcomeDraw:
			s.Draw = n
		default:
			s.Unfinished += n
		}
	}
	return s, rows.Err()
}

// Recent returns up to limit games, newest first.
func (r *Results) Recent(ctx context.Context, limit int) ([]GameRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, ruleset, map, snake_id, started_ms, ended_ms, turns, outcome
		FROM games ORDER BY started_ms DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("results: recent: %w", err)
	}
	defer rows.Close()

	var out []GameRecord
	for rows.Next() {
		var rec GameRecord
		var started, ended int64
		var outcome string
		if err := rows.Scan(&rec.ID, &rec.Ruleset, &rec.Map, &rec.SnakeID, &started, &ended, &rec.Turns, &outcome); err != nil {
			return nil, fmt.Errorf("results: scan recent: %w", err)
		}
		rec.StartedAt = time.UnixMilli(started)
		if ended > 0 {
			rec.EndedAt = time.UnixMilli(ended)
		}
		rec.Outcome = Outcome(outcome)
		out = append(out, rec)
	}
	return out, rows.Err()
}
