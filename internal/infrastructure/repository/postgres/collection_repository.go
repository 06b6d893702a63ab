package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/mkravets/rag-assistant/internal/core/domain"
)

type CollectionRepository struct {
	db *sql.DB
}

func NewCollectionRepository(db *sql.DB) *CollectionRepository {
	return &CollectionRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *CollectionRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083101)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS collections (
	name TEXT PRIMARY KEY,
	chunk_size INTEGER NOT NULL,
	chunk_overlap INTEGER NOT NULL,
	dense_embedding_model TEXT NOT NULL,
	distance_metric TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS raw_documents (
	id TEXT PRIMARY KEY,
	collection_name TEXT NOT NULL REFERENCES collections(name) ON DELETE CASCADE,
	url TEXT NOT NULL,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	source_category TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_raw_documents_collection ON raw_documents(collection_name);
CREATE UNIQUE INDEX IF NOT EXISTS idx_raw_documents_collection_url ON raw_documents(collection_name, url);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *CollectionRepository) CreateCollection(ctx context.Context, cfg *domain.CollectionConfig) error {
	now := time.Now().UTC()
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = now
	}
	cfg.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
INSERT INTO collections (name, chunk_size, chunk_overlap, dense_embedding_model, distance_metric, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`,
		cfg.Name, cfg.ChunkSize, cfg.ChunkOverlap, cfg.DenseEmbeddingModel, cfg.DistanceMetric, cfg.CreatedAt, cfg.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert collection: %w", err)
	}
	return nil
}

func (r *CollectionRepository) GetCollection(ctx context.Context, name string) (*domain.CollectionConfig, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT name, chunk_size, chunk_overlap, dense_embedding_model, distance_metric, created_at, updated_at
FROM collections
WHERE name = $1
`, name)

	var cfg domain.CollectionConfig
	err := row.Scan(
		&cfg.Name, &cfg.ChunkSize, &cfg.ChunkOverlap, &cfg.DenseEmbeddingModel, &cfg.DistanceMetric,
		&cfg.CreatedAt, &cfg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrCollectionNotFound, "get collection",
				fmt.Errorf("collection %q", name))
		}
		return nil, fmt.Errorf("scan collection: %w", err)
	}
	return &cfg, nil
}

func (r *CollectionRepository) ListCollections(ctx context.Context) ([]domain.CollectionConfig, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT name, chunk_size, chunk_overlap, dense_embedding_model, distance_metric, created_at, updated_at
FROM collections
ORDER BY name
`)
	if err != nil {
		return nil, fmt.Errorf("query collections: %w", err)
	}
	defer rows.Close()

	var out []domain.CollectionConfig
	for rows.Next() {
		var cfg domain.CollectionConfig
		err := rows.Scan(
			&cfg.Name, &cfg.ChunkSize, &cfg.ChunkOverlap, &cfg.DenseEmbeddingModel, &cfg.DistanceMetric,
			&cfg.CreatedAt, &cfg.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}
		out = append(out, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate collections: %w", err)
	}
	return out, nil
}

func (r *CollectionRepository) UpdateChunking(ctx context.Context, name string, chunkSize, chunkOverlap int) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE collections
SET chunk_size = $2, chunk_overlap = $3, updated_at = $4
WHERE name = $1
`, name, chunkSize, chunkOverlap, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update chunking: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update chunking rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrCollectionNotFound, "update chunking",
			fmt.Errorf("collection %q", name))
	}
	return nil
}

func (r *CollectionRepository) DeleteCollection(ctx context.Context, name string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM collections WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	return nil
}
