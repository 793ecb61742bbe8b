package nugget

// Context selects how a Parser treats the nuggets it finds.
type Context int

const (
	// SourceProcessing extracts messages from program source. Message ids
	// are unescaped per file type and bare parameters are reported as
	// nuggets of their own.
	SourceProcessing Context = iota
	// ResponseProcessing substitutes translations into rendered text.
	// Format items are exposed on each Nugget; bare parameters pass through.
	ResponseProcessing
)

func (c Context) String() string {
	switch c {
	case SourceProcessing:
		return "source"
	case ResponseProcessing:
		return "response"
	default:
		return "unknown"
	}
}

// Nugget is one parsed nugget occurrence.
type Nugget struct {
	// MsgID is the message identifier and default text. An empty MsgID
	// removes the nugget from the output.
	MsgID string
	// Comment is the optional translator comment.
	Comment string
	// FormatItems are the parameters in order. Items that held nested
	// nuggets contain their already substituted text.
	FormatItems []string
}

// IsFormatted reports whether the nugget carries format items.
func (n *Nugget) IsFormatted() bool {
	return len(n.FormatItems) > 0
}

// Func produces the replacement for one nugget. nuggetText is the nugget as
// it appears at offset within entity. Returning false keeps the raw message
// id as the replacement.
type Func func(nuggetText string, offset int, n *Nugget, entity string) (string, bool)
