package catalog

import (
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
)

// Entry is one message of a catalog, with or without its translation.
type Entry struct {
	MsgID string `json:"msgid"`
	// MsgStr is the translation; empty means untranslated.
	MsgStr string `json:"msgstr,omitempty"`
	// Comment is the developer comment taken from the nugget.
	Comment string `json:"comment,omitempty"`
	// References are "file:line" locations where the message occurs.
	References []string `json:"references,omitempty"`
	// Fuzzy marks a translation that still needs review.
	Fuzzy bool `json:"fuzzy,omitempty"`
}

// Translated reports whether the entry has a usable translation.
func (e Entry) Translated() bool {
	return e.MsgStr != ""
}

// Catalog is an in-memory set of translations per language. It is safe for
// concurrent use.
type Catalog struct {
	mu    sync.RWMutex
	langs map[string]map[string]Entry // lang -> msgid -> entry
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{langs: make(map[string]map[string]Entry)}
}

// Add stores entries for lang, replacing entries with the same msgid.
// The PO header entry (empty msgid) is skipped.
func (c *Catalog) Add(lang string, entries []Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.langs[lang]
	if !ok {
		m = make(map[string]Entry, len(entries))
		c.langs[lang] = m
	}
	for _, e := range entries {
		if e.MsgID == "" {
			continue
		}
		m[e.MsgID] = e
	}

	log.Debug().Str("lang", lang).Int("entries", len(entries)).Msg("Catalog updated")
}

// Lookup returns the translation of msgID in lang. Untranslated and fuzzy
// entries are reported as missing.
func (c *Catalog) Lookup(lang, msgID string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.langs[lang][msgID]
	if !ok || !e.Translated() || e.Fuzzy {
		return "", false
	}
	return e.MsgStr, true
}

// Entries returns all entries of lang sorted by msgid.
func (c *Catalog) Entries(lang string) []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	m := c.langs[lang]
	out := make([]Entry, 0, len(m))
	for _, e := range m {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MsgID < out[j].MsgID })
	return out
}

// Languages returns the languages present in the catalog, sorted.
func (c *Catalog) Languages() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, 0, len(c.langs))
	for lang := range c.langs {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}
