package nugget

import (
	"strings"

	"github.com/rs/zerolog/log"
)

// DefaultMaxDepth is the number of nested parameter zones a nugget may open
// before the rest of the document is passed through as literal text.
const DefaultMaxDepth = 32

// Option configures a Parser.
type Option func(*Parser)

// WithMaxDepth overrides DefaultMaxDepth. Values below 1 are ignored.
func WithMaxDepth(depth int) Option {
	return func(p *Parser) {
		if depth > 0 {
			p.maxDepth = depth
		}
	}
}

// Parser finds nuggets in a document and replaces each one with the output
// of a Func. A Parser is immutable and may be shared between goroutines.
type Parser struct {
	tokens   Tokens
	context  Context
	matcher  *matcher
	maxDepth int
}

// NewParser compiles a parser for the given tokens and context.
func NewParser(tokens Tokens, ctx Context, opts ...Option) (*Parser, error) {
	if err := tokens.Validate(); err != nil {
		return nil, err
	}

	p := &Parser{
		tokens:   tokens,
		context:  ctx,
		matcher:  newMatcher(tokens),
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Tokens returns the token set the parser was built with.
func (p *Parser) Tokens() Tokens { return p.tokens }

// Context returns the processing context of the parser.
func (p *Parser) Context() Context { return p.context }

// Parse replaces every nugget in entity with the result of fn.
func (p *Parser) Parse(entity string, fn Func) string {
	return p.ParseFile(entity, fn, "")
}

// ParseFile is Parse for a document read from a file with extension ext
// (".cs", ".js", ...). Under SourceProcessing the extension selects how
// message ids are unescaped before fn sees them.
func (p *Parser) ParseFile(entity string, fn Func, ext string) string {
	ps := &pass{Parser: p, entity: entity, fn: fn}
	if p.context == SourceProcessing {
		ps.unescaper = unescaperFor(ext)
	}
	return ps.topLevel()
}

// Canonical renders n back into nugget syntax:
// Begin MsgID [Comment comment] (Delimiter item)* End.
func (p *Parser) Canonical(n *Nugget) string {
	return p.canonical(n.MsgID, n.Comment, n.Comment != "", n.FormatItems)
}

func (p *Parser) canonical(msgID, comment string, hasComment bool, items []string) string {
	var sb strings.Builder
	sb.WriteString(p.tokens.Begin)
	sb.WriteString(msgID)
	if hasComment {
		sb.WriteString(p.tokens.Comment)
		sb.WriteString(comment)
	}
	for _, item := range items {
		sb.WriteString(p.tokens.Delimiter)
		sb.WriteString(item)
	}
	sb.WriteString(p.tokens.End)
	return sb.String()
}

// result is what every recursive step hands back to its caller.
type result struct {
	replacement string
	next        int
	// nugget is set when the step closed a well-formed nugget.
	nugget bool
}

// pass holds the state of one Parse call.
type pass struct {
	*Parser
	entity    string
	fn        Func
	unescaper unescaper
}

func (ps *pass) topLevel() string {
	var sb strings.Builder
	sb.Grow(len(ps.entity))

	cur := 0
	for {
		lex, ok := ps.matcher.next(ps.entity, cur)
		if !ok {
			break
		}
		if lex.kind != lexBegin {
			sb.WriteString(ps.entity[cur:lex.end])
			cur = lex.end
			continue
		}

		sb.WriteString(ps.entity[cur:lex.start])
		r := ps.parseNugget(lex, false, 0)
		sb.WriteString(r.replacement)
		cur = r.next
	}

	sb.WriteString(ps.entity[cur:])
	return sb.String()
}

// parseZone scans one nested parameter starting at start. It stops on
// ParamEnd+Delimiter or ParamEnd+End and consumes only the ParamEnd part, so
// the enclosing nugget body sees the Delimiter or End that follows.
func (ps *pass) parseZone(start, depth int) result {
	var sb strings.Builder
	cur := start
	found := false

	for {
		lex, ok := ps.matcher.next(ps.entity, cur)
		if !ok {
			sb.WriteString(ps.entity[cur:])
			return result{replacement: sb.String(), next: len(ps.entity), nugget: found}
		}

		switch lex.kind {
		case lexBegin:
			sb.WriteString(ps.entity[cur:lex.start])
			r := ps.parseNugget(lex, true, depth)
			sb.WriteString(r.replacement)
			found = found || r.nugget
			cur = r.next

		case lexParamNext, lexParamClose:
			sb.WriteString(ps.entity[cur:lex.start])
			next := lex.start + len(ps.tokens.ParamEnd)
			if found {
				return result{replacement: sb.String(), next: next, nugget: true}
			}
			return result{replacement: ps.bareParam(sb.String()), next: next}

		default:
			sb.WriteString(ps.entity[cur:lex.end])
			cur = lex.end
		}
	}
}

// body accumulates the parts of one nugget while it is scanned.
type body struct {
	start      int // offset of Begin
	msgID      string
	haveID     bool
	comment    string
	hasComment bool
	items      []string
	itemStart  int // start of the pending simple item, -1 if none
	fromNest   bool
}

func (b *body) captureID(entity string, textStart, at int) {
	if !b.haveID {
		b.msgID = entity[textStart:at]
		b.haveID = true
	}
}

func (b *body) flushItem(entity string, at int) {
	if b.itemStart >= 0 {
		b.items = append(b.items, entity[b.itemStart:at])
		b.itemStart = -1
	}
}

// parseNugget scans the body of a nugget whose Begin lexeme is open.
func (ps *pass) parseNugget(open lexeme, nested bool, depth int) result {
	b := &body{start: open.start, itemStart: -1}
	cur := open.end

	for {
		lex, ok := ps.matcher.next(ps.entity, cur)
		if !ok {
			return ps.unterminated(b.start)
		}

		switch lex.kind {
		case lexBegin:
			// A Begin inside a body is ordinary text.
			cur = lex.end

		case lexParamNext, lexParamClose:
			if nested {
				// Ends the enclosing zone; leave the lexeme for it.
				return result{replacement: ps.entity[b.start:lex.start], next: lex.start}
			}
			// Stray; the whole lexeme is body text.
			cur = lex.end

		case lexDelimiter:
			b.captureID(ps.entity, open.end, lex.start)
			b.flushItem(ps.entity, lex.start)
			b.itemStart = lex.end
			cur = lex.end

		case lexParamOpen:
			b.captureID(ps.entity, open.end, lex.start)
			b.flushItem(ps.entity, lex.start)
			if depth+1 > ps.maxDepth {
				log.Debug().
					Int("offset", b.start).
					Int("max_depth", ps.maxDepth).
					Msg("Nugget nesting limit exceeded")
				return ps.unterminated(b.start)
			}
			zone := ps.parseZone(lex.end, depth+1)
			b.items = append(b.items, zone.replacement)
			b.fromNest = true
			cur = zone.next

		case lexComment:
			b.captureID(ps.entity, open.end, lex.start)
			b.flushItem(ps.entity, lex.start)
			endAt, ok := ps.commentEnd(lex.end)
			if !ok {
				return ps.unterminated(b.start)
			}
			b.comment = ps.entity[lex.end:endAt]
			b.hasComment = true
			return ps.finish(b, endAt+len(ps.tokens.End))

		case lexEnd:
			b.captureID(ps.entity, open.end, lex.start)
			b.flushItem(ps.entity, lex.start)
			return ps.finish(b, lex.end)
		}
	}
}

// commentEnd returns the offset of the End lexeme that closes a comment
// region starting at from. Every other lexeme, ParamEnd+End included, is
// comment text.
func (ps *pass) commentEnd(from int) (int, bool) {
	cur := from
	for {
		lex, ok := ps.matcher.next(ps.entity, cur)
		if !ok {
			return 0, false
		}
		if lex.kind == lexEnd {
			return lex.start, true
		}
		cur = lex.end
	}
}

// finish hands a complete nugget to the callback. end is the offset just
// past its End lexeme.
func (ps *pass) finish(b *body, end int) result {
	if b.msgID == "" {
		return result{next: end, nugget: true}
	}

	text, offset, entity := ps.entity[b.start:end], b.start, ps.entity
	if b.fromNest {
		// Nested items were already substituted, so the source span is stale.
		text = ps.canonical(b.msgID, b.comment, b.hasComment, b.items)
		offset, entity = 0, text
	}

	n := &Nugget{MsgID: b.msgID, Comment: b.comment}
	if ps.context == ResponseProcessing {
		n.FormatItems = b.items
	}
	if ps.unescaper != nil {
		n.MsgID = ps.unescaper.unescape(b.msgID)
	}

	replacement := b.msgID
	if ps.fn != nil {
		if out, ok := ps.fn(text, offset, n, entity); ok {
			replacement = out
		}
	}
	return result{replacement: replacement, next: end, nugget: true}
}

// bareParam handles a nested zone that held no nugget.
func (ps *pass) bareParam(literal string) string {
	if ps.context == ResponseProcessing || literal == "" {
		return literal
	}

	n := &Nugget{MsgID: literal}
	if ps.unescaper != nil {
		n.MsgID = ps.unescaper.unescape(literal)
	}

	text := ps.tokens.Begin + literal + ps.tokens.End
	if ps.fn != nil {
		if out, ok := ps.fn(text, 0, n, text); ok {
			return out
		}
	}
	return literal
}

func (ps *pass) unterminated(start int) result {
	log.Debug().Int("offset", start).Msg("Unterminated nugget, copying remainder verbatim")
	return result{replacement: ps.entity[start:], next: len(ps.entity)}
}
