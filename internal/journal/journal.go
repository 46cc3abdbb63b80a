package journal

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Status values recorded for an operation.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Entry is one journaled operation.
type Entry struct {
	ID         string `json:"id"`
	Op         string `json:"op"`
	Target     string `json:"target,omitempty"`
	Status     string `json:"status"`
	ErrorCode  string `json:"error_code,omitempty"`
	Message    string `json:"message,omitempty"`
	DurationMS int64  `json:"duration_ms"`
	CreatedAt  int64  `json:"created_at"`
}

// ListInput filters List.
type ListInput struct {
	Limit int    // default 50, max 500
	Op    string // optional exact op name
}

// Journal records admin operations for one gallery.
type Journal struct {
	db      *sql.DB
	gallery string
	now     func() time.Time

	mu      sync.Mutex
	entropy io.Reader
}

// Open initializes the database in baseDir and returns a journal scoped to gallery.
func Open(baseDir, gallery string) (*Journal, error) {
	db, err := Init(baseDir)
	if err != nil {
		return nil, err
	}
	return New(db, gallery), nil
}

// New returns a journal over an initialized database.
func New(db *sql.DB, gallery string) *Journal {
	return &Journal{db: db, gallery: gallery, now: time.Now, entropy: ulid.Monotonic(rand.Reader, 0)}
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record stores e. ID and CreatedAt are filled in when empty.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	now := j.now()
	if e.ID == "" {
		// Shared monotonic entropy keeps ids ordered within one millisecond.
		j.mu.Lock()
		id, err := ulid.New(ulid.Timestamp(now), j.entropy)
		j.mu.Unlock()
		if err != nil {
			return fmt.Errorf("generate id: %w", err)
		}
		e.ID = id.String()
	}
	if e.CreatedAt == 0 {
		e.CreatedAt = now.Unix()
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO activity (id, gallery, op, target, status, error_code, message, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, j.gallery, e.Op, nullString(e.Target), e.Status, nullString(e.ErrorCode),
		nullString(e.Message), e.DurationMS, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("record %s: %w", e.Op, err)
	}
	return nil
}

// List returns the most recent entries first.
func (j *Journal) List(ctx context.Context, in ListInput) ([]Entry, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}

	query := `
		SELECT id, op, target, status, error_code, message, duration_ms, created_at
		FROM activity
		WHERE gallery = ?
	`
	args := []any{j.gallery}
	if in.Op != "" {
		query += " AND op = ?"
		args = append(args, in.Op)
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var target, code, msg sql.NullString
		if err := rows.Scan(&e.ID, &e.Op, &target, &e.Status, &code, &msg, &e.DurationMS, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		e.Target = target.String
		e.ErrorCode = code.String
		e.Message = msg.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
