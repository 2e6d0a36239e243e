// Package history keeps an append-only journal of listening activity in
// SQLite. Checkpoints answer "where was I"; the journal answers "what have I
// listened to", which feeds stats and recent-activity views.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/audiotruyenapp/audiotruyen-player/internal/domain"
	"github.com/audiotruyenapp/audiotruyen-player/internal/id"
)

//go:embed schema.sql
var schemaSQL string

// Journal provides SQLite-backed listening history.
type Journal struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open creates a journal at the given path. It configures WAL mode, sets
// pragmas, and runs schema migrations.
func Open(path string, logger *slog.Logger) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	return &Journal{db: db, logger: logger}, nil
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record appends one listening event. An event arriving without an ID or
// created-at stamp gets them here.
func (j *Journal) Record(ctx context.Context, ev domain.ListeningEvent) error {
	if ev.ID == "" {
		ev.ID = id.MustGenerate("evt")
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO listening_events
			(id, story_id, chapter_number, start_seconds, end_seconds,
			 playback_rate, started_at, ended_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.StoryID, ev.ChapterNumber, ev.StartSeconds, ev.EndSeconds,
		ev.PlaybackRate, formatTime(ev.StartedAt), formatTime(ev.EndedAt),
		formatTime(ev.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert listening event: %w", err)
	}
	return nil
}

// ListRecent returns the newest events, most recent first. A non-positive
// limit defaults to 50.
func (j *Journal) ListRecent(ctx context.Context, limit int) ([]domain.ListeningEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT id, story_id, chapter_number, start_seconds, end_seconds,
		       playback_rate, started_at, ended_at, created_at
		FROM listening_events
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query listening events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ListForStory returns one story's events, most recent first.
func (j *Journal) ListForStory(ctx context.Context, storyID int64, limit int) ([]domain.ListeningEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT id, story_id, chapter_number, start_seconds, end_seconds,
		       playback_rate, started_at, ended_at, created_at
		FROM listening_events
		WHERE story_id = ?
		ORDER BY created_at DESC
		LIMIT ?`, storyID, limit)
	if err != nil {
		return nil, fmt.Errorf("query listening events for story: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// StatsForStory aggregates one story's journal. A story with no events
// returns zeroed stats, not an error.
func (j *Journal) StatsForStory(ctx context.Context, storyID int64) (*domain.StoryListenStats, error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(end_seconds - start_seconds), 0),
		       COALESCE(MAX(created_at), '')
		FROM listening_events
		WHERE story_id = ?`, storyID)

	stats := &domain.StoryListenStats{StoryID: storyID}
	var lastRaw string
	if err := row.Scan(&stats.EventCount, &stats.TotalContentSeconds, &lastRaw); err != nil {
		return nil, fmt.Errorf("scan story stats: %w", err)
	}

	if lastRaw != "" {
		last, err := parseTime(lastRaw)
		if err != nil {
			return nil, fmt.Errorf("parse last listened time: %w", err)
		}
		stats.LastListenedAt = last
	}
	return stats, nil
}

func scanEvents(rows *sql.Rows) ([]domain.ListeningEvent, error) {
	var events []domain.ListeningEvent
	for rows.Next() {
		var ev domain.ListeningEvent
		var startedRaw, endedRaw, createdRaw string
		if err := rows.Scan(&ev.ID, &ev.StoryID, &ev.ChapterNumber, &ev.StartSeconds,
			&ev.EndSeconds, &ev.PlaybackRate, &startedRaw, &endedRaw, &createdRaw); err != nil {
			return nil, fmt.Errorf("scan listening event: %w", err)
		}

		var err error
		if ev.StartedAt, err = parseTime(startedRaw); err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		if ev.EndedAt, err = parseTime(endedRaw); err != nil {
			return nil, fmt.Errorf("parse ended_at: %w", err)
		}
		if ev.CreatedAt, err = parseTime(createdRaw); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// formatTime formats a time.Time to RFC3339Nano for storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime parses a RFC3339Nano string back to time.Time.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
