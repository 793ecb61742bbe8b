package translation

import (
	"context"

	"nugget-translator/internal/catalog"
	"nugget-translator/internal/interpolation"
	"nugget-translator/internal/rag"
	"nugget-translator/internal/textutil"
	"nugget-translator/internal/worker"

	"github.com/rs/zerolog/log"
)

// Client sends prompts to a translation model.
type Client interface {
	Translate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	TranslateBatch(ctx context.Context, systemPrompt, userPrompt, separator string, count int) ([]string, error)
}

// ContextRetriever gathers translation context for a message.
type ContextRetriever interface {
	Retrieve(ctx context.Context, lang, msgID string, topK int) *rag.RetrievalResult
}

// Translator machine-translates catalog entries.
type Translator struct {
	client    Client
	retriever ContextRetriever // optional
	batchSize int
	workers   int
	topK      int
}

// NewTranslator creates a translator. retriever may be nil.
func NewTranslator(client Client, retriever ContextRetriever, batchSize, workers int) *Translator {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Translator{
		client:    client,
		retriever: retriever,
		batchSize: batchSize,
		workers:   workers,
		topK:      3,
	}
}

// pending is an entry whose message id has its placeholders protected.
type pending struct {
	entry    catalog.Entry
	item     Item
	mappings []interpolation.Mapping
}

// TranslateEntries translates entries into lang and returns the ones that got
// a translation. A translation that lost a placeholder is marked fuzzy.
func (t *Translator) TranslateEntries(ctx context.Context, lang, separator string, entries []catalog.Entry) []catalog.Entry {
	pb := NewPromptBuilder(lang, separator)

	pool := worker.NewPool[[]catalog.Entry, []catalog.Entry]("translate", t.workers, func(ctx context.Context, batch []catalog.Entry) ([]catalog.Entry, error) {
		return t.translateBatch(ctx, pb, lang, batch), nil
	})

	var out []catalog.Entry
	for _, task := range pool.Execute(ctx, worker.Batch(entries, t.batchSize)) {
		if task.Err != nil {
			log.Warn().Err(task.Err).Int("entries", len(task.Input)).Msg("Batch not translated")
			continue
		}
		out = append(out, task.Result...)
	}

	log.Info().Str("lang", lang).Int("translated", len(out)).Int("total", len(entries)).Msg("Translation finished")
	return out
}

func (t *Translator) translateBatch(ctx context.Context, pb *PromptBuilder, lang string, batch []catalog.Entry) []catalog.Entry {
	items := make([]pending, len(batch))
	for i, e := range batch {
		safe, mappings := interpolation.Protect(e.MsgID)
		items[i] = pending{
			entry:    e,
			item:     Item{Text: safe, Comment: e.Comment, Context: t.context(ctx, lang, e.MsgID)},
			mappings: mappings,
		}
	}

	var replies []string
	if len(items) > 1 {
		prompt := make([]Item, len(items))
		for i, p := range items {
			prompt[i] = p.item
		}
		var err error
		replies, err = t.client.TranslateBatch(ctx, pb.SystemPrompt(), pb.BuildBatchUserPrompt(prompt), pb.Separator(), len(items))
		if err != nil {
			log.Warn().Err(err).Int("entries", len(items)).Msg("Batch translation failed, translating one by one")
			replies = nil
		}
	}

	var out []catalog.Entry
	for i, p := range items {
		var reply string
		if replies != nil {
			reply = replies[i]
		} else {
			r, err := t.client.Translate(ctx, pb.SystemPrompt(), pb.BuildUserPrompt(p.item))
			if err != nil {
				log.Warn().Err(err).Str("msgid", textutil.Truncate(p.entry.MsgID, 40)).Msg("Translation failed")
				continue
			}
			reply = r
		}

		if e, ok := finalize(p, reply); ok {
			out = append(out, e)
		}
	}
	return out
}

func (t *Translator) context(ctx context.Context, lang, msgID string) string {
	if t.retriever == nil {
		return ""
	}
	return rag.BuildContextString(t.retriever.Retrieve(ctx, lang, msgID, t.topK))
}

// finalize restores the placeholders of a reply into a catalog entry.
func finalize(p pending, reply string) (catalog.Entry, bool) {
	if reply == "" {
		return catalog.Entry{}, false
	}

	e := p.entry
	e.MsgStr = interpolation.Restore(reply, p.mappings)
	e.Fuzzy = false

	if missing := interpolation.Missing(reply, p.mappings); len(missing) > 0 {
		e.Fuzzy = true
		log.Warn().
			Str("msgid", textutil.Truncate(e.MsgID, 40)).
			Strs("missing", missing).
			Msg("Translation dropped placeholders, marked fuzzy")
	}
	return e, true
}
