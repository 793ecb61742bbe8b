package catalog

import (
	"context"
	"fmt"

	"nugget-translator/internal/textutil"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS nugget_messages (
	hash       TEXT PRIMARY KEY,
	msgid      TEXT NOT NULL,
	comment    TEXT NOT NULL DEFAULT '',
	refs       TEXT[] NOT NULL DEFAULT '{}',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS nugget_translations (
	hash       TEXT NOT NULL REFERENCES nugget_messages(hash) ON DELETE CASCADE,
	lang       TEXT NOT NULL,
	msgstr     TEXT NOT NULL,
	fuzzy      BOOLEAN NOT NULL DEFAULT false,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (hash, lang)
);
`

const upsertMessageSQL = `
INSERT INTO nugget_messages (hash, msgid, comment, refs)
VALUES ($1, $2, $3, $4)
ON CONFLICT (hash) DO UPDATE
SET comment = EXCLUDED.comment, refs = EXCLUDED.refs, updated_at = now()`

const upsertTranslationSQL = `
INSERT INTO nugget_translations (hash, lang, msgstr, fuzzy)
VALUES ($1, $2, $3, $4)
ON CONFLICT (hash, lang) DO UPDATE
SET msgstr = EXCLUDED.msgstr, fuzzy = EXCLUDED.fuzzy, updated_at = now()`

const entriesSQL = `
SELECT m.msgid, m.comment, m.refs, COALESCE(t.msgstr, ''), COALESCE(t.fuzzy, false)
FROM nugget_messages m
LEFT JOIN nugget_translations t ON t.hash = m.hash AND t.lang = $1
ORDER BY m.msgid`

const untranslatedSQL = `
SELECT m.msgid, m.comment, m.refs, '', false
FROM nugget_messages m
WHERE NOT EXISTS (
	SELECT 1 FROM nugget_translations t
	WHERE t.hash = m.hash AND t.lang = $1 AND t.msgstr <> ''
)
ORDER BY m.msgid`

// Store persists messages and their translations in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new store backed by PostgreSQL.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema creates the message and translation tables.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure catalog schema: %w", err)
	}
	log.Info().Msg("Catalog schema ensured")
	return nil
}

// UpsertMessages stores extracted messages, keyed by the hash of their msgid.
func (s *Store) UpsertMessages(ctx context.Context, entries []Entry) (int, error) {
	batch := &pgx.Batch{}
	for _, e := range entries {
		if e.MsgID == "" {
			continue
		}
		refs := e.References
		if refs == nil {
			refs = []string{}
		}
		batch.Queue(upsertMessageSQL, textutil.Hash(e.MsgID), e.MsgID, e.Comment, refs)
	}
	if batch.Len() == 0 {
		return 0, nil
	}

	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return 0, fmt.Errorf("upsert messages: %w", err)
	}

	log.Info().Int("messages", batch.Len()).Msg("Upserted messages")
	return batch.Len(), nil
}

// UpsertTranslations stores translations of lang. Messages that are not yet
// known are created without references.
func (s *Store) UpsertTranslations(ctx context.Context, lang string, entries []Entry) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin translation upsert: %w", err)
	}
	defer tx.Rollback(ctx)

	stored := 0
	for _, e := range entries {
		if e.MsgID == "" || e.MsgStr == "" {
			continue
		}
		hash := textutil.Hash(e.MsgID)

		if _, err := tx.Exec(ctx, `
			INSERT INTO nugget_messages (hash, msgid, comment)
			VALUES ($1, $2, $3)
			ON CONFLICT (hash) DO NOTHING`, hash, e.MsgID, e.Comment); err != nil {
			return stored, fmt.Errorf("ensure message %s: %w", textutil.Truncate(e.MsgID, 30), err)
		}

		if _, err := tx.Exec(ctx, upsertTranslationSQL, hash, lang, e.MsgStr, e.Fuzzy); err != nil {
			return stored, fmt.Errorf("upsert translation %s: %w", textutil.Truncate(e.MsgID, 30), err)
		}
		stored++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit translations: %w", err)
	}

	log.Info().Str("lang", lang).Int("stored", stored).Msg("Upserted translations")
	return stored, nil
}

// Entries returns every known message with its translation in lang, if any.
func (s *Store) Entries(ctx context.Context, lang string) ([]Entry, error) {
	return s.query(ctx, entriesSQL, lang)
}

// Untranslated returns the messages that have no translation in lang.
func (s *Store) Untranslated(ctx context.Context, lang string) ([]Entry, error) {
	return s.query(ctx, untranslatedSQL, lang)
}

func (s *Store) query(ctx context.Context, sql, lang string) ([]Entry, error) {
	rows, err := s.pool.Query(ctx, sql, lang)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Entry, error) {
		var e Entry
		err := row.Scan(&e.MsgID, &e.Comment, &e.References, &e.MsgStr, &e.Fuzzy)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan catalog rows: %w", err)
	}
	return entries, nil
}

// Preload loads all translations of lang into cat.
func (s *Store) Preload(ctx context.Context, cat *Catalog, lang string) error {
	entries, err := s.Entries(ctx, lang)
	if err != nil {
		return fmt.Errorf("preload catalog: %w", err)
	}

	cat.Add(lang, entries)

	log.Info().Str("lang", lang).Int("count", len(entries)).Msg("Preloaded catalog")
	return nil
}
