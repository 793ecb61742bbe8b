package rag

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog/log"
)

// VectorStore keeps message embeddings in pgvector and finds translated
// messages similar to a query.
type VectorStore struct {
	pool *pgxpool.Pool
}

// NewVectorStore creates a new vector store.
func NewVectorStore(pool *pgxpool.Pool) *VectorStore {
	return &VectorStore{pool: pool}
}

// EmbeddingRecord is the embedding of one message id.
type EmbeddingRecord struct {
	Hash   string
	MsgID  string
	Vector []float32
}

// SearchResult is a translated message similar to the query.
type SearchResult struct {
	MsgID  string
	MsgStr string
	Score  float64
}

// EnsureSchema creates the pgvector extension and the embedding table.
// The table references the message catalog, so the catalog schema must
// exist first.
func (vs *VectorStore) EnsureSchema(ctx context.Context, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("ensure vector schema: invalid dimensions %d", dimensions)
	}

	stmts := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS nugget_embeddings (
			hash      TEXT PRIMARY KEY REFERENCES nugget_messages(hash) ON DELETE CASCADE,
			msgid     TEXT NOT NULL,
			embedding vector(%d) NOT NULL
		)`, dimensions),
		`CREATE INDEX IF NOT EXISTS nugget_embeddings_hnsw
			ON nugget_embeddings USING hnsw (embedding vector_cosine_ops)`,
	}

	for _, stmt := range stmts {
		if _, err := vs.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure vector schema: %w", err)
		}
	}

	log.Info().Int("dimensions", dimensions).Msg("Vector schema ensured")
	return nil
}

// Store upserts embedding records in one batch.
func (vs *VectorStore) Store(ctx context.Context, records []EmbeddingRecord) error {
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(`
			INSERT INTO nugget_embeddings (hash, msgid, embedding)
			VALUES ($1, $2, $3)
			ON CONFLICT (hash) DO UPDATE SET embedding = EXCLUDED.embedding`,
			r.Hash, r.MsgID, pgvector.NewVector(r.Vector))
	}

	if err := vs.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert embeddings: %w", err)
	}

	log.Info().Int("count", len(records)).Msg("Stored embeddings")
	return nil
}

// Search finds the topK messages most similar to the query vector that have
// a reviewed translation in lang.
func (vs *VectorStore) Search(ctx context.Context, lang string, queryVector []float32, topK int) ([]SearchResult, error) {
	rows, err := vs.pool.Query(ctx, `
		SELECT e.msgid, t.msgstr, 1 - (e.embedding <=> $1) AS similarity
		FROM nugget_embeddings e
		JOIN nugget_translations t ON t.hash = e.hash AND t.lang = $2
		WHERE t.msgstr <> '' AND NOT t.fuzzy
		ORDER BY e.embedding <=> $1
		LIMIT $3`,
		pgvector.NewVector(queryVector), lang, topK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (SearchResult, error) {
		var r SearchResult
		err := row.Scan(&r.MsgID, &r.MsgStr, &r.Score)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan vector search: %w", err)
	}

	return results, nil
}
