package nugget

import (
	"html"
	"regexp"
	"sort"
	"strings"
)

// unescaper rewrites a message id extracted from source code into the text a
// translator sees.
type unescaper interface {
	unescape(s string) string
}

// tableUnescaper replaces escape sequences using a single alternation whose
// candidates are ordered longest-first.
type tableUnescaper struct {
	re    *regexp.Regexp
	table map[string]string
}

func newTableUnescaper(table map[string]string) *tableUnescaper {
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	quoted := make([]string, len(keys))
	for i, k := range keys {
		quoted[i] = regexp.QuoteMeta(k)
	}

	return &tableUnescaper{
		re:    regexp.MustCompile(strings.Join(quoted, "|")),
		table: table,
	}
}

func (u *tableUnescaper) unescape(s string) string {
	return u.re.ReplaceAllStringFunc(s, func(seq string) string {
		return u.table[seq]
	})
}

// markupUnescaper decodes character entity references.
type markupUnescaper struct{}

func (markupUnescaper) unescape(s string) string {
	return html.UnescapeString(s)
}

// A literal "\n" escape in C# or JavaScript source becomes a CRLF line break,
// the same as a raw LF inside a verbatim string. An existing CRLF is kept.
var (
	sqlEscapes = map[string]string{
		`%%`: `%`,
		// Suspicious mapping kept as-is; conventional SQL would give a single quote.
		`''`: `,`,
	}

	csEscapes = map[string]string{
		`\n`:   "\r\n",
		"\r\n": "\r\n",
		"\n":   "\r\n",
		`\t`:   "\t",
		`\"`:   `"`,
		`\\`:   `\`,
		`""`:   `"`,
	}

	jsEscapes = map[string]string{
		`\n`:   "\r\n",
		"\r\n": "\r\n",
		"\n":   "\r\n",
		`\t`:   "\t",
		`\"`:   `"`,
		`\\`:   `\`,
		`\'`:   `'`,
	}
)

// escapeRegistry maps a lower-cased file extension to its unescaper. It is
// built once and only read afterwards.
var escapeRegistry = func() map[string]unescaper {
	markup := markupUnescaper{}
	return map[string]unescaper{
		".sql":  newTableUnescaper(sqlEscapes),
		".cs":   newTableUnescaper(csEscapes),
		".js":   newTableUnescaper(jsEscapes),
		".xml":  markup,
		".html": markup,
		".resx": markup,
	}
}()

// unescaperFor returns the unescaper registered for ext, or nil when the
// extension is unknown or empty.
func unescaperFor(ext string) unescaper {
	if ext == "" {
		return nil
	}
	return escapeRegistry[strings.ToLower(ext)]
}

// Unescape applies the escape table registered for ext to s. Unknown
// extensions leave s unchanged.
func Unescape(s, ext string) string {
	u := unescaperFor(ext)
	if u == nil {
		return s
	}
	return u.unescape(s)
}
