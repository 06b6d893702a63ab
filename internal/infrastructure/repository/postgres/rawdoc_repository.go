package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mkravets/rag-assistant/internal/core/domain"
)

type RawDocumentRepository struct {
	db *sql.DB
}

func NewRawDocumentRepository(db *sql.DB) *RawDocumentRepository {
	return &RawDocumentRepository{db: db}
}

// Insert upserts by (collection, url) so re-ingesting a source refreshes
// its content instead of duplicating it.
func (r *RawDocumentRepository) Insert(ctx context.Context, doc *domain.RawDocument) error {
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO raw_documents (id, collection_name, url, title, content, source_category, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (collection_name, url)
DO UPDATE SET title = EXCLUDED.title, content = EXCLUDED.content, source_category = EXCLUDED.source_category
`,
		doc.ID, doc.CollectionName, doc.URL, doc.Title, doc.Content, doc.SourceCategory, doc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert raw document: %w", err)
	}
	return nil
}

func (r *RawDocumentRepository) ListByCollection(ctx context.Context, collection string) ([]domain.RawDocument, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, collection_name, url, title, content, source_category, created_at
FROM raw_documents
WHERE collection_name = $1
ORDER BY created_at
`, collection)
	if err != nil {
		return nil, fmt.Errorf("query raw documents: %w", err)
	}
	defer rows.Close()

	var out []domain.RawDocument
	for rows.Next() {
		var doc domain.RawDocument
		err := rows.Scan(
			&doc.ID, &doc.CollectionName, &doc.URL, &doc.Title, &doc.Content, &doc.SourceCategory, &doc.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan raw document: %w", err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate raw documents: %w", err)
	}
	return out, nil
}

func (r *RawDocumentRepository) DeleteByURL(ctx context.Context, collection, url string) error {
	_, err := r.db.ExecContext(ctx, `
DELETE FROM raw_documents WHERE collection_name = $1 AND url = $2
`, collection, url)
	if err != nil {
		return fmt.Errorf("delete raw document: %w", err)
	}
	return nil
}

func (r *RawDocumentRepository) DeleteByCollection(ctx context.Context, collection string) error {
	_, err := r.db.ExecContext(ctx, `
DELETE FROM raw_documents WHERE collection_name = $1
`, collection)
	if err != nil {
		return fmt.Errorf("delete raw documents: %w", err)
	}
	return nil
}
