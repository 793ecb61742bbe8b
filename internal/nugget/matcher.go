package nugget

import (
	"regexp"
	"strings"
)

// lexKind identifies a lexeme recognised inside a document.
type lexKind int

const (
	lexNone lexKind = iota
	lexParamOpen  // Delimiter + ParamBegin
	lexParamNext  // ParamEnd + Delimiter
	lexParamClose // ParamEnd + End
	lexBegin
	lexDelimiter
	lexComment
	lexEnd
)

func (k lexKind) String() string {
	switch k {
	case lexParamOpen:
		return "param-open"
	case lexParamNext:
		return "param-next"
	case lexParamClose:
		return "param-close"
	case lexBegin:
		return "begin"
	case lexDelimiter:
		return "delimiter"
	case lexComment:
		return "comment"
	case lexEnd:
		return "end"
	default:
		return "none"
	}
}

// lexeme is one match found by the matcher; start and end are absolute offsets.
type lexeme struct {
	kind  lexKind
	start int
	end   int
}

// matcher finds the next lexeme in a document. The alternation order is the
// priority order: RE2 alternation is leftmost-first, so at any one position
// the combined two-token lexemes win over their single-token parts.
type matcher struct {
	re    *regexp.Regexp
	kinds []lexKind // kinds[i] belongs to capture group i+1
}

func newMatcher(t Tokens) *matcher {
	candidates := []struct {
		kind    lexKind
		literal string
	}{
		{lexParamOpen, t.Delimiter + t.ParamBegin},
		{lexParamNext, t.ParamEnd + t.Delimiter},
		{lexParamClose, t.ParamEnd + t.End},
		{lexBegin, t.Begin},
		{lexDelimiter, t.Delimiter},
		{lexComment, t.Comment},
		{lexEnd, t.End},
	}

	groups := make([]string, len(candidates))
	kinds := make([]lexKind, len(candidates))
	for i, c := range candidates {
		groups[i] = "(" + regexp.QuoteMeta(c.literal) + ")"
		kinds[i] = c.kind
	}

	return &matcher{
		re:    regexp.MustCompile(strings.Join(groups, "|")),
		kinds: kinds,
	}
}

// next returns the first lexeme at or after offset. ok is false when the rest
// of the document holds no lexeme.
func (m *matcher) next(text string, offset int) (lexeme, bool) {
	if offset >= len(text) {
		return lexeme{}, false
	}

	loc := m.re.FindStringSubmatchIndex(text[offset:])
	if loc == nil {
		return lexeme{}, false
	}

	for i, kind := range m.kinds {
		if loc[2*(i+1)] >= 0 {
			return lexeme{
				kind:  kind,
				start: offset + loc[0],
				end:   offset + loc[1],
			}, true
		}
	}
	return lexeme{}, false
}
