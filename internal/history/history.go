// Package history keeps a log of resolutions in a local SQLite database.
// The resolution pipeline itself is stateless; only the CLI and server
// record into this log, and only when history is enabled.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure Go driver, registers "sqlite"

	"streamscout/internal/media"
)

const schemaVersion = 1

// ErrNotFound is returned by Remove when no entry has the given ID.
var ErrNotFound = errors.New("history entry not found")

// Store is a resolution log backed by SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating history dir: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("opening history: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("opening history: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrating history: %w", err)
	}
	return s, nil
}

// dsn builds a file: URI for path. Characters such as '?' and '#' in the
// path are percent-encoded so they cannot leak into the query.
func dsn(path string) string {
	u := url.URL{
		Scheme:   "file",
		Path:     path,
		OmitHost: true,
		RawQuery: fmt.Sprintf("_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)",
			(5 * time.Second).Milliseconds()),
	}
	return u.String()
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return err
	}
	if version >= schemaVersion {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	schema := `
	CREATE TABLE IF NOT EXISTS resolutions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		provider TEXT NOT NULL,
		media_type TEXT NOT NULL,
		media_id TEXT NOT NULL,
		season INTEGER NOT NULL DEFAULT 0,
		episode INTEGER NOT NULL DEFAULT 0,
		source_count INTEGER NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		resolved_at_ms INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_resolutions_time ON resolutions(resolved_at_ms);
	`
	if _, err := tx.Exec(schema); err != nil {
		return err
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}

// Record appends an entry and returns its row ID. A zero ResolvedAt is
// replaced by the current time.
func (s *Store) Record(ctx context.Context, e media.HistoryEntry) (int64, error) {
	if e.ResolvedAt.IsZero() {
		e.ResolvedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx, `
	INSERT INTO resolutions (provider, media_type, media_id, season, episode, source_count, error, resolved_at_ms)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Provider, e.Type.String(), e.MediaID, e.Season, e.Episode, e.SourceCount, e.Error, e.ResolvedAt.UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("recording history: %w", err)
	}
	return res.LastInsertId()
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]media.HistoryEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, provider, media_type, media_id, season, episode, source_count, error, resolved_at_ms
	FROM resolutions ORDER BY resolved_at_ms DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	defer rows.Close()

	var entries []media.HistoryEntry
	for rows.Next() {
		var (
			e         media.HistoryEntry
			mediaType string
			atMillis  int64
		)
		if err := rows.Scan(&e.ID, &e.Provider, &mediaType, &e.MediaID, &e.Season, &e.Episode,
			&e.SourceCount, &e.Error, &atMillis); err != nil {
			return nil, fmt.Errorf("reading history: %w", err)
		}
		mt, err := media.ParseMediaType(mediaType)
		if err != nil {
			continue // Skip rows written with an unknown type
		}
		e.Type = mt
		e.ResolvedAt = time.UnixMilli(atMillis)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	return entries, nil
}

// Remove deletes the entry with the given row ID.
func (s *Store) Remove(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM resolutions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("removing history entry: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("removing history entry %d: %w", id, ErrNotFound)
	}
	return nil
}

// Clear deletes every entry.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM resolutions`); err != nil {
		return fmt.Errorf("clearing history: %w", err)
	}
	return nil
}

// FormatForDisplay renders entries as one line each.
func FormatForDisplay(entries []media.HistoryEntry) []string {
	var items []string
	for _, e := range entries {
		target := fmt.Sprintf("%s %s", e.Type, e.MediaID)
		if e.Type.Episodic() && e.Season > 0 && e.Episode > 0 {
			target += fmt.Sprintf(" S%02dE%02d", e.Season, e.Episode)
		}
		line := fmt.Sprintf("%s  %-8s %s  sources=%d",
			e.ResolvedAt.Format("2006-01-02 15:04"), e.Provider, target, e.SourceCount)
		if e.ID > 0 {
			line = fmt.Sprintf("#%-4d %s", e.ID, line)
		}
		if e.Error != "" {
			line += fmt.Sprintf(" error=%q", e.Error)
		}
		items = append(items, line)
	}
	return items
}
