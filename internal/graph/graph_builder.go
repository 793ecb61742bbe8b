package graph

import (
	"context"
	"fmt"

	"nugget-translator/internal/extract"
	"nugget-translator/internal/textutil"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog/log"
)

// UsageGraph records which source files use which messages. Messages that
// share a file give translators context for each other.
type UsageGraph struct {
	driver neo4j.DriverWithContext
}

// NewUsageGraph creates a new usage graph writer.
func NewUsageGraph(driver neo4j.DriverWithContext) *UsageGraph {
	return &UsageGraph{driver: driver}
}

// EnsureSchema creates constraints on the Neo4j database.
func (g *UsageGraph) EnsureSchema(ctx context.Context) error {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	constraints := []string{
		"CREATE CONSTRAINT IF NOT EXISTS FOR (m:Message) REQUIRE m.hash IS UNIQUE",
		"CREATE CONSTRAINT IF NOT EXISTS FOR (f:File) REQUIRE f.path IS UNIQUE",
	}

	for _, c := range constraints {
		if _, err := session.Run(ctx, c, nil); err != nil {
			return fmt.Errorf("create constraint: %w", err)
		}
	}

	log.Info().Msg("Graph schema ensured")
	return nil
}

// RecordFile replaces the usages of one file with the messages found in it.
func (g *UsageGraph) RecordFile(ctx context.Context, file extract.FileResult) error {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	_, err := session.Run(ctx, `
		MERGE (f:File {path: $path})
		WITH f
		OPTIONAL MATCH (:Message)-[r:APPEARS_IN]->(f)
		DELETE r
	`, map[string]any{"path": file.Path})
	if err != nil {
		return fmt.Errorf("reset file %s: %w", file.Path, err)
	}

	for _, m := range file.Messages {
		line := 0
		if len(m.References) > 0 {
			line = m.References[0].Line
		}

		_, err := session.Run(ctx, `
			MERGE (m:Message {hash: $hash})
			SET m.msgid = $msgid,
			    m.comment = $comment
			WITH m
			MATCH (f:File {path: $path})
			MERGE (m)-[r:APPEARS_IN {line: $line}]->(f)
		`, map[string]any{
			"hash":    textutil.Hash(m.MsgID),
			"msgid":   m.MsgID,
			"comment": m.Comment,
			"path":    file.Path,
			"line":    line,
		})
		if err != nil {
			log.Warn().Err(err).
				Str("file", file.Path).
				Str("msgid", textutil.Truncate(m.MsgID, 40)).
				Msg("Failed to record message usage")
		}
	}

	log.Debug().Str("file", file.Path).Int("messages", len(file.Messages)).Msg("Recorded file usages")
	return nil
}
