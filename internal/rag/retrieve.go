package rag

import (
	"context"
	"fmt"
	"strings"

	"nugget-translator/internal/graph"
	"nugget-translator/internal/textutil"

	"github.com/rs/zerolog/log"
)

// QueryEmbedder embeds a single search query.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Searcher finds translated messages near a query vector.
type Searcher interface {
	Search(ctx context.Context, lang string, queryVector []float32, topK int) ([]SearchResult, error)
}

// NeighborFinder finds messages used alongside a message.
type NeighborFinder interface {
	Neighbors(ctx context.Context, msgID string, limit int) ([]graph.Neighbor, error)
}

// RetrievalResult is the translation context gathered for one message.
type RetrievalResult struct {
	// Matches are similar messages already translated into the target language.
	Matches []SearchResult
	// Neighbors are messages that appear in the same source files.
	Neighbors []graph.Neighbor
}

// Retriever combines the translation memory and the usage graph.
type Retriever struct {
	embedder  QueryEmbedder
	searcher  Searcher
	neighbors NeighborFinder // optional
}

// NewRetriever creates a new combined retriever. neighbors may be nil when
// no usage graph is available.
func NewRetriever(embedder QueryEmbedder, searcher Searcher, neighbors NeighborFinder) *Retriever {
	return &Retriever{
		embedder:  embedder,
		searcher:  searcher,
		neighbors: neighbors,
	}
}

// Retrieve gathers context for translating msgID into lang. Failures of
// either source are logged and leave that part empty.
func (r *Retriever) Retrieve(ctx context.Context, lang, msgID string, topK int) *RetrievalResult {
	result := &RetrievalResult{}

	queryVec, err := r.embedder.EmbedQuery(ctx, msgID)
	if err != nil {
		log.Warn().Err(err).Str("msgid", textutil.Truncate(msgID, 50)).Msg("Failed to embed query, skipping vector search")
	} else {
		matches, err := r.searcher.Search(ctx, lang, queryVec, topK)
		if err != nil {
			log.Warn().Err(err).Msg("Vector search failed")
		}
		for _, m := range matches {
			if m.MsgID != msgID {
				result.Matches = append(result.Matches, m)
			}
		}
	}

	if r.neighbors != nil {
		neighbors, err := r.neighbors.Neighbors(ctx, msgID, topK)
		if err != nil {
			log.Warn().Err(err).Msg("Graph query failed")
		} else {
			result.Neighbors = neighbors
		}
	}

	return result
}

// BuildContextString formats retrieval results for the translation prompt.
func BuildContextString(result *RetrievalResult) string {
	if result == nil {
		return ""
	}

	var sb strings.Builder

	if len(result.Matches) > 0 {
		sb.WriteString("=== Similar Translations ===\n")
		for i, m := range result.Matches {
			fmt.Fprintf(&sb, "%d. [Score: %.3f] %s → %s\n", i+1, m.Score, m.MsgID, m.MsgStr)
		}
		sb.WriteString("\n")
	}

	if len(result.Neighbors) > 0 {
		sb.WriteString("=== Used Together With ===\n")
		for _, n := range result.Neighbors {
			fmt.Fprintf(&sb, "• %s", n.MsgID)
			if n.Comment != "" {
				fmt.Fprintf(&sb, " (%s)", n.Comment)
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
