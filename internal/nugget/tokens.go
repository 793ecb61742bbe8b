package nugget

import (
	"errors"
	"fmt"
)

// ErrInvalidTokens is returned when a token set is empty or ambiguous.
var ErrInvalidTokens = errors.New("invalid nugget tokens")

// Tokens holds the literal strings that delimit nuggets in a document.
type Tokens struct {
	// Begin opens a nugget, e.g. "[[[".
	Begin string
	// End closes a nugget, e.g. "]]]".
	End string
	// Delimiter separates the message id from each format item, e.g. "|||".
	Delimiter string
	// Comment introduces a translator comment, e.g. "///".
	Comment string
	// ParamBegin opens a nugget-valued parameter after a Delimiter, e.g. "(((".
	ParamBegin string
	// ParamEnd closes a nugget-valued parameter, e.g. ")))".
	ParamEnd string
}

// DefaultTokens returns the token set used by most templates:
// [[[msgid|||item///comment]]] with (((...))) for nested parameters.
func DefaultTokens() Tokens {
	return Tokens{
		Begin:      "[[[",
		End:        "]]]",
		Delimiter:  "|||",
		Comment:    "///",
		ParamBegin: "(((",
		ParamEnd:   ")))",
	}
}

// Validate checks that every token is non-empty and that no two tokens are equal.
func (t Tokens) Validate() error {
	named := []struct {
		name  string
		value string
	}{
		{"begin", t.Begin},
		{"end", t.End},
		{"delimiter", t.Delimiter},
		{"comment", t.Comment},
		{"param begin", t.ParamBegin},
		{"param end", t.ParamEnd},
	}

	seen := make(map[string]string, len(named))
	for _, n := range named {
		if n.value == "" {
			return fmt.Errorf("%w: %s token is empty", ErrInvalidTokens, n.name)
		}
		if other, dup := seen[n.value]; dup {
			return fmt.Errorf("%w: %s and %s tokens are both %q", ErrInvalidTokens, other, n.name, n.value)
		}
		seen[n.value] = n.name
	}
	return nil
}
