package contextstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/philippgille/chromem-go"
)

// ChromemStore is the managed/vector context backend: an embedded chromem
// database with per-session metadata filtering and similarity search.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
}

// NewChromemStore opens (or creates) a persistent chromem database at path.
// The embedding func may be nil, in which case chromem's default is used.
func NewChromemStore(path, collection string, compress bool, embed chromem.EmbeddingFunc) (*ChromemStore, error) {
	if path == "" {
		return nil, fmt.Errorf("chromem path required")
	}
	db, err := chromem.NewPersistentDB(path, compress)
	if err != nil {
		return nil, fmt.Errorf("open chromem db: %w", err)
	}
	if collection == "" {
		collection = "axon-context"
	}
	col, err := db.GetOrCreateCollection(collection, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("open chromem collection: %w", err)
	}
	return &ChromemStore{db: db, collection: col}, nil
}

// Append persists an entry as one embedded document.
func (s *ChromemStore) Append(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	metadata := map[string]string{
		"session_id": entry.SessionID,
		"kind":       entry.Kind,
		"created_at": entry.CreatedAt.Format(time.RFC3339Nano),
	}
	for k, v := range entry.Metadata {
		metadata[k] = v
	}
	doc := chromem.Document{
		ID:       entry.ID,
		Metadata: metadata,
		Content:  entry.Content,
	}
	if err := s.collection.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("add context document: %w", err)
	}
	return nil
}

// Search ranks session entries by vector similarity to the query.
func (s *ChromemStore) Search(ctx context.Context, sessionID, query string, limit int) ([]Entry, error) {
	if query == "" {
		return nil, fmt.Errorf("query required")
	}
	if limit <= 0 {
		limit = 5
	}
	// chromem requires nResults <= document count
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if limit > count {
		limit = count
	}
	where := map[string]string{"session_id": sessionID}
	results, err := s.collection.Query(ctx, query, limit, where, nil)
	if err != nil {
		return nil, fmt.Errorf("query context: %w", err)
	}
	out := make([]Entry, 0, len(results))
	for _, r := range results {
		out = append(out, entryFromMetadata(r.ID, r.Content, r.Metadata))
	}
	return out, nil
}

// Close is a no-op: chromem persists on write.
func (s *ChromemStore) Close() error { return nil }

func entryFromMetadata(id, content string, metadata map[string]string) Entry {
	entry := Entry{ID: id, Content: content, Metadata: make(map[string]string)}
	for k, v := range metadata {
		switch k {
		case "session_id":
			entry.SessionID = v
		case "kind":
			entry.Kind = v
		case "created_at":
			if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
				entry.CreatedAt = t
			}
		default:
			entry.Metadata[k] = v
		}
	}
	return entry
}
