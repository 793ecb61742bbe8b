package graph

import (
	"context"
	"fmt"

	"nugget-translator/internal/textutil"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog/log"
)

// Neighbor is a message that appears in a file together with another one.
type Neighbor struct {
	MsgID   string
	Comment string
	// Shared is the number of files both messages appear in.
	Shared int64
}

// Querier reads the usage graph for translation context.
type Querier struct {
	driver neo4j.DriverWithContext
}

// NewQuerier creates a new graph querier.
func NewQuerier(driver neo4j.DriverWithContext) *Querier {
	return &Querier{driver: driver}
}

// Neighbors returns up to limit messages sharing a file with msgID, most
// shared first.
func (q *Querier) Neighbors(ctx context.Context, msgID string, limit int) ([]Neighbor, error) {
	session := q.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (m:Message {hash: $hash})-[:APPEARS_IN]->(f:File)<-[:APPEARS_IN]-(n:Message)
		WHERE n <> m
		RETURN n.msgid AS msgid, n.comment AS comment, count(DISTINCT f) AS shared
		ORDER BY shared DESC, msgid
		LIMIT $limit
	`, map[string]any{
		"hash":  textutil.Hash(msgID),
		"limit": limit,
	})
	if err != nil {
		return nil, fmt.Errorf("query neighbors: %w", err)
	}

	var out []Neighbor
	for result.Next(ctx) {
		record := result.Record()
		id, _ := record.Get("msgid")
		comment, _ := record.Get("comment")
		shared, _ := record.Get("shared")

		n := Neighbor{MsgID: fmt.Sprintf("%v", id)}
		if comment != nil {
			n.Comment = fmt.Sprintf("%v", comment)
		}
		if v, ok := shared.(int64); ok {
			n.Shared = v
		}
		out = append(out, n)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("read neighbors: %w", err)
	}

	log.Debug().Str("msgid", textutil.Truncate(msgID, 40)).Int("neighbors", len(out)).Msg("Graph query complete")
	return out, nil
}
