package localize

import (
	"fmt"
	"sync/atomic"

	"nugget-translator/internal/interpolation"
	"nugget-translator/internal/nugget"

	"github.com/rs/zerolog/log"
)

// Translations looks up the translation of a message in a language.
// *catalog.Catalog implements it.
type Translations interface {
	Lookup(lang, msgID string) (string, bool)
}

// Stats counts catalog lookups made by a Localizer.
type Stats struct {
	Hits   int64
	Misses int64
}

// Localizer replaces the nuggets of rendered text with their translations.
// It is safe for concurrent use.
type Localizer struct {
	parser       *nugget.Parser
	translations Translations
	lang         string

	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a localizer for lang. The parser must use ResponseProcessing.
func New(parser *nugget.Parser, translations Translations, lang string) (*Localizer, error) {
	if parser.Context() != nugget.ResponseProcessing {
		return nil, fmt.Errorf("localizer needs a %s parser, got %s", nugget.ResponseProcessing, parser.Context())
	}
	return &Localizer{parser: parser, translations: translations, lang: lang}, nil
}

// Lang returns the target language.
func (l *Localizer) Lang() string { return l.lang }

// Localize substitutes every nugget of text. Messages without a translation
// fall back to their message id; format items fill the %N slots either way.
func (l *Localizer) Localize(text string) string {
	return l.parser.Parse(text, l.translate)
}

func (l *Localizer) translate(_ string, _ int, n *nugget.Nugget, _ string) (string, bool) {
	msg, ok := l.translations.Lookup(l.lang, n.MsgID)
	if ok {
		l.hits.Add(1)
	} else {
		l.misses.Add(1)
		msg = n.MsgID
		log.Debug().Str("lang", l.lang).Str("msgid", n.MsgID).Msg("No translation, using message id")
	}

	if n.IsFormatted() {
		msg = interpolation.Format(msg, n.FormatItems)
	}
	return msg, true
}

// Stats returns the lookup counters so far.
func (l *Localizer) Stats() Stats {
	return Stats{Hits: l.hits.Load(), Misses: l.misses.Load()}
}
