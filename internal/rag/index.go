package rag

import (
	"context"
	"fmt"

	"nugget-translator/internal/textutil"

	"github.com/rs/zerolog/log"
)

// BatchEmbedder embeds many texts at once.
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string, batchSize int) ([][]float32, error)
}

// RecordStore persists embedding records.
type RecordStore interface {
	Store(ctx context.Context, records []EmbeddingRecord) error
}

// Indexer embeds message ids into the translation memory.
type Indexer struct {
	embedder BatchEmbedder
	store    RecordStore
}

// NewIndexer creates a new indexer.
func NewIndexer(embedder BatchEmbedder, store RecordStore) *Indexer {
	return &Indexer{embedder: embedder, store: store}
}

// Index embeds and stores the given message ids. Duplicates and empty ids
// are skipped. It returns the number of stored records.
func (ix *Indexer) Index(ctx context.Context, msgIDs []string, batchSize int) (int, error) {
	seen := make(map[string]bool, len(msgIDs))
	var unique []string
	for _, id := range msgIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return 0, nil
	}

	vectors, err := ix.embedder.EmbedBatch(ctx, unique, batchSize)
	if err != nil {
		return 0, fmt.Errorf("embed messages: %w", err)
	}
	if len(vectors) != len(unique) {
		return 0, fmt.Errorf("embed messages: got %d vectors for %d messages", len(vectors), len(unique))
	}

	records := make([]EmbeddingRecord, len(unique))
	for i, id := range unique {
		records[i] = EmbeddingRecord{Hash: textutil.Hash(id), MsgID: id, Vector: vectors[i]}
	}

	if err := ix.store.Store(ctx, records); err != nil {
		return 0, err
	}

	log.Info().Int("messages", len(records)).Msg("Indexed messages")
	return len(records), nil
}
