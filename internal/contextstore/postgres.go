package contextstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

// PostgresStore is the relational context backend. Search falls back to
// substring match ordered by recency; schema lives in migrations/.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a Postgres connection and verifies it with a ping.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromDB wraps an existing connection (used by tests).
func NewPostgresStoreFromDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Append persists an entry.
func (s *PostgresStore) Append(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO context_entries (id, session_id, kind, content, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.SessionID, entry.Kind, entry.Content, metadata, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert context entry: %w", err)
	}
	return nil
}

// Search matches entries by substring, newest first.
func (s *PostgresStore) Search(ctx context.Context, sessionID, query string, limit int) ([]Entry, error) {
	if query == "" {
		return nil, fmt.Errorf("query required")
	}
	if limit <= 0 {
		limit = 5
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, kind, content, metadata, created_at
		 FROM context_entries
		 WHERE session_id = $1 AND content ILIKE '%' || $2 || '%'
		 ORDER BY created_at DESC
		 LIMIT $3`,
		sessionID, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query context entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var entry Entry
		var metadata []byte
		if err := rows.Scan(&entry.ID, &entry.SessionID, &entry.Kind, &entry.Content, &metadata, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan context entry: %w", err)
		}
		if len(metadata) > 0 {
			_ = json.Unmarshal(metadata, &entry.Metadata)
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error { return s.db.Close() }
