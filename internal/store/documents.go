package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Document is one stored record with its collection bookkeeping.
type Document struct {
	ID         string
	Collection string
	Body       json.RawMessage
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Decode unmarshals the document body into the provided value.
func (d *Document) Decode(v any) error {
	if d == nil {
		return errors.New("document is nil")
	}
	return json.Unmarshal(d.Body, v)
}

var fieldNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// Create inserts a new document with a generated identifier.
func (s *Store) Create(ctx context.Context, collection string, body any) (*Document, error) {
	return s.CreateWithID(ctx, collection, uuid.NewString(), body)
}

// CreateWithID inserts a new document under the caller's identifier.
func (s *Store) CreateWithID(ctx context.Context, collection, id string, body any) (*Document, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	_, err = s.execWithRetry(
		ctx,
		`INSERT INTO documents (collection, id, body, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		collection,
		id,
		string(encoded),
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert document: %w", err)
	}

	return &Document{
		ID:         id,
		Collection: collection,
		Body:       encoded,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Get fetches a document by identifier. Returns ErrNotFound when absent.
func (s *Store) Get(ctx context.Context, collection, id string) (*Document, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT collection, id, body, created_at, updated_at FROM documents WHERE collection = ? AND id = ?`,
		collection,
		id,
	)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// Update replaces a document's body. Returns ErrNotFound when absent.
func (s *Store) Update(ctx context.Context, collection, id string, body any) (*Document, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	now := time.Now().UTC()

	res, err := s.execWithRetry(
		ctx,
		`UPDATE documents SET body = ?, updated_at = ? WHERE collection = ? AND id = ?`,
		string(encoded),
		now.Format(time.RFC3339Nano),
		collection,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("update document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
	}
	return s.Get(ctx, collection, id)
}

// QueryField returns documents whose top-level JSON field equals the supplied
// value, ordered by creation time.
func (s *Store) QueryField(ctx context.Context, collection, field, value string) ([]*Document, error) {
	if !fieldNamePattern.MatchString(field) {
		return nil, fmt.Errorf("invalid query field %q", field)
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT collection, id, body, created_at, updated_at FROM documents
         WHERE collection = ? AND json_extract(body, '$.`+field+`') = ?
         ORDER BY created_at, id`,
		collection,
		value,
	)
	if err != nil {
		return nil, fmt.Errorf("query by field: %w", err)
	}
	defer rows.Close()
	return collectDocuments(rows)
}

// CountField returns how many documents match a top-level JSON field equality.
func (s *Store) CountField(ctx context.Context, collection, field, value string) (int, error) {
	if !fieldNamePattern.MatchString(field) {
		return 0, fmt.Errorf("invalid query field %q", field)
	}
	row := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM documents WHERE collection = ? AND json_extract(body, '$.`+field+`') = ?`,
		collection,
		value,
	)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count by field: %w", err)
	}
	return count, nil
}

// List returns every document in a collection ordered by creation time.
func (s *Store) List(ctx context.Context, collection string) ([]*Document, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT collection, id, body, created_at, updated_at FROM documents WHERE collection = ? ORDER BY created_at, id`,
		collection,
	)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()
	return collectDocuments(rows)
}

// Remove deletes a document by identifier.
func (s *Store) Remove(ctx context.Context, collection, id string) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id)
	if err != nil {
		return false, fmt.Errorf("delete document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Stats returns a count of documents grouped by collection.
func (s *Store) Stats(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT collection, COUNT(1) FROM documents GROUP BY collection`)
	if err != nil {
		return nil, fmt.Errorf("document stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var collection string
		var count int
		if err := rows.Scan(&collection, &count); err != nil {
			return nil, err
		}
		stats[collection] = count
	}
	return stats, rows.Err()
}

func collectDocuments(rows *sql.Rows) ([]*Document, error) {
	var docs []*Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func scanDocument(scanner interface{ Scan(dest ...any) error }) (*Document, error) {
	var (
		collection string
		id         string
		body       string
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(&collection, &id, &body, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}

	doc := &Document{
		ID:         id,
		Collection: collection,
		Body:       json.RawMessage(body),
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		doc.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		doc.UpdatedAt = updated
	}
	return doc, nil
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
