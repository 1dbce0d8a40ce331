package index

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/starford/folio/internal/models"
)

// Entry is one indexed content file.
type Entry struct {
	Key           string
	Kind          models.ContentType
	Locale        string
	Slug          string
	Format        models.Format
	ID            string
	Title         string
	Body          string
	Excerpt       string
	Status        string
	Date          time.Time
	ScheduledDate *time.Time
	Checksum      string
}

// Post rebuilds the lifecycle-relevant part of a post from the entry.
func (e *Entry) Post() models.Post {
	return models.Post{
		ID:            e.ID,
		Title:         e.Title,
		Slug:          e.Slug,
		Content:       e.Body,
		Excerpt:       e.Excerpt,
		Date:          e.Date,
		Status:        e.Status,
		ScheduledDate: e.ScheduledDate,
		Categories:    []string{},
		Tags:          []string{},
	}
}

// Upsert inserts or replaces the entry stored under e.Key.
func (db *DB) Upsert(ctx context.Context, e Entry) error {
	var sched sql.NullTime
	if e.ScheduledDate != nil {
		sched = sql.NullTime{Time: *e.ScheduledDate, Valid: true}
	}
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO documents (key, kind, locale, slug, format, id, title, body, excerpt,
			status, date, scheduled_date, checksum, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			kind           = excluded.kind,
			locale         = excluded.locale,
			slug           = excluded.slug,
			format         = excluded.format,
			id             = excluded.id,
			title          = excluded.title,
			body           = excluded.body,
			excerpt        = excluded.excerpt,
			status         = excluded.status,
			date           = excluded.date,
			scheduled_date = excluded.scheduled_date,
			checksum       = excluded.checksum,
			indexed_at     = excluded.indexed_at
	`, e.Key, string(e.Kind), e.Locale, e.Slug, string(e.Format), e.ID, e.Title, e.Body, e.Excerpt,
		e.Status, sql.NullTime{Time: e.Date, Valid: !e.Date.IsZero()}, sched, e.Checksum, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("index: upsert %s: %w", e.Key, err)
	}
	return nil
}

// Delete removes the entry stored under key. Deleting a missing key is not an error.
func (db *DB) Delete(ctx context.Context, key string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM documents WHERE key = ?`, key); err != nil {
		return fmt.Errorf("index: delete %s: %w", key, err)
	}
	return nil
}

// Checksums returns the stored checksum of every indexed key.
func (db *DB) Checksums(ctx context.Context) (map[string]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT key, checksum FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("index: checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var k, cs string
		if err := rows.Scan(&k, &cs); err != nil {
			return nil, err
		}
		out[k] = cs
	}
	return out, rows.Err()
}

// Documents returns one entry per (kind, locale, slug), preferring the
// Markdown file when both formats are indexed. Entries are ordered by key.
func (db *DB) Documents(ctx context.Context) ([]Entry, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT key, kind, locale, slug, format, id, title, body, excerpt, status, date, scheduled_date, checksum
		FROM documents
		ORDER BY kind, locale, slug, format DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("index: documents: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e            Entry
			kind, format string
			date, sched  sql.NullTime
		)
		if err := rows.Scan(&e.Key, &kind, &e.Locale, &e.Slug, &format, &e.ID, &e.Title, &e.Body,
			&e.Excerpt, &e.Status, &date, &sched, &e.Checksum); err != nil {
			return nil, err
		}
		e.Kind = models.ContentType(kind)
		e.Format = models.Format(format)
		if date.Valid {
			e.Date = date.Time
		}
		if sched.Valid {
			t := sched.Time
			e.ScheduledDate = &t
		}
		if n := len(out); n > 0 && out[n-1].Kind == e.Kind && out[n-1].Locale == e.Locale && out[n-1].Slug == e.Slug {
			continue
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of indexed files.
func (db *DB) Count(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("index: count: %w", err)
	}
	return n, nil
}
