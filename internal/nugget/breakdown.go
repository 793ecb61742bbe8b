package nugget

import "strings"

// Breakdown splits one isolated nugget string into its parts without
// substituting anything. It reports false when text is not a single
// well-formed nugget, which includes one without a message id. Under
// SourceProcessing a nugget with an empty parameter slot is also rejected,
// and format items are not exposed.
func (p *Parser) Breakdown(text string) (*Nugget, bool) {
	t := p.tokens
	if len(text) < len(t.Begin)+len(t.End) ||
		!strings.HasPrefix(text, t.Begin) ||
		!strings.HasSuffix(text, t.End) {
		return nil, false
	}

	inner := text[len(t.Begin) : len(text)-len(t.End)]
	n := &Nugget{}

	if i := strings.Index(inner, t.Comment); i >= 0 {
		n.Comment = inner[i+len(t.Comment):]
		inner = inner[:i]
		if strings.Contains(n.Comment, t.End) {
			return nil, false
		}
	}

	// Nested nuggets are not decomposed here.
	if strings.Contains(inner, t.Begin) || strings.Contains(inner, t.End) {
		return nil, false
	}

	parts := strings.Split(inner, t.Delimiter)
	if parts[0] == "" {
		return nil, false
	}
	n.MsgID = parts[0]
	items := parts[1:]

	switch p.context {
	case SourceProcessing:
		for _, item := range items {
			if item == "" {
				return nil, false
			}
		}
	case ResponseProcessing:
		if len(items) > 0 {
			n.FormatItems = items
		}
	}

	return n, true
}

// RawMsgID returns the message id of the nugget that text starts with,
// exactly as written and before any unescaping. It reports false when text
// does not start with Begin or the id is never closed.
func (p *Parser) RawMsgID(text string) (string, bool) {
	if !strings.HasPrefix(text, p.tokens.Begin) {
		return "", false
	}

	start := len(p.tokens.Begin)
	cur := start
	for {
		lex, ok := p.matcher.next(text, cur)
		if !ok {
			return "", false
		}
		switch lex.kind {
		case lexDelimiter, lexParamOpen, lexComment, lexEnd:
			return text[start:lex.start], true
		}
		cur = lex.end
	}
}
