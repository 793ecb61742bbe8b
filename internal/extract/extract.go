package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"nugget-translator/internal/catalog"
	"nugget-translator/internal/filewalker"
	"nugget-translator/internal/nugget"
	"nugget-translator/internal/textutil"
	"nugget-translator/internal/worker"

	"github.com/rs/zerolog/log"
)

// Reference is a source location of a message.
type Reference struct {
	File string
	// Line is 1-based; 0 means the line is unknown.
	Line int
}

func (r Reference) String() string {
	if r.Line == 0 {
		return r.File
	}
	return fmt.Sprintf("%s:%d", r.File, r.Line)
}

// Message is a translatable message found in source code.
type Message struct {
	MsgID      string
	Comment    string
	References []Reference
}

// Entry converts the message to an untranslated catalog entry.
func (m Message) Entry() catalog.Entry {
	e := catalog.Entry{MsgID: m.MsgID, Comment: m.Comment}
	for _, r := range m.References {
		e.References = append(e.References, r.String())
	}
	return e
}

// FileResult holds the messages found in one file.
type FileResult struct {
	Path     string
	Messages []Message
}

// Extractor collects messages from source files.
type Extractor struct {
	parser *nugget.Parser
}

// New creates an extractor. The parser must use SourceProcessing.
func New(parser *nugget.Parser) (*Extractor, error) {
	if parser.Context() != nugget.SourceProcessing {
		return nil, fmt.Errorf("extractor needs a %s parser, got %s", nugget.SourceProcessing, parser.Context())
	}
	return &Extractor{parser: parser}, nil
}

// ParseFile returns the messages of one file in the order the parser
// completes them. ext selects the escape rules of the file type.
func (x *Extractor) ParseFile(path, content, ext string) []Message {
	var msgs []Message

	x.parser.ParseFile(content, func(nuggetText string, offset int, n *nugget.Nugget, entity string) (string, bool) {
		line := 0
		if entity == content {
			line = textutil.LineAt(content, offset)
		} else if raw, ok := x.parser.RawMsgID(nuggetText); ok {
			// Nested nuggets are reported against a rebuilt string, which
			// keeps the message id as written in the file.
			if idx := strings.Index(content, raw); idx >= 0 {
				line = textutil.LineAt(content, idx)
			}
		}

		msgs = append(msgs, Message{
			MsgID:      n.MsgID,
			Comment:    n.Comment,
			References: []Reference{{File: path, Line: line}},
		})
		return "", false
	}, ext)

	log.Debug().Str("file", path).Int("messages", len(msgs)).Msg("Parsed file")
	return msgs
}

// Files extracts messages from the given files concurrently. Paths in
// references are made relative to root when possible.
func (x *Extractor) Files(ctx context.Context, root string, files []filewalker.FileEntry, workers int) []FileResult {
	pool := worker.NewPool[filewalker.FileEntry, FileResult]("extract", workers, func(ctx context.Context, f filewalker.FileEntry) (FileResult, error) {
		content, err := filewalker.Read(f)
		if err != nil {
			return FileResult{}, err
		}
		path := relPath(root, f.Path)
		return FileResult{Path: path, Messages: x.ParseFile(path, content, f.Ext)}, nil
	})

	var out []FileResult
	for _, task := range pool.Execute(ctx, files) {
		if task.Err != nil {
			log.Warn().Err(task.Err).Str("file", task.Input.Path).Msg("Skipping file")
			continue
		}
		out = append(out, task.Result)
	}
	return out
}

// Merge deduplicates messages by MsgID, keeping first-seen order. The first
// non-empty comment wins and references accumulate without duplicates.
func Merge(groups ...[]Message) []Message {
	index := make(map[string]int)
	var out []Message

	for _, msgs := range groups {
		for _, m := range msgs {
			i, ok := index[m.MsgID]
			if !ok {
				index[m.MsgID] = len(out)
				out = append(out, Message{MsgID: m.MsgID, Comment: m.Comment})
				i = len(out) - 1
			}

			merged := &out[i]
			if merged.Comment == "" {
				merged.Comment = m.Comment
			}
			for _, r := range m.References {
				if !hasReference(merged.References, r) {
					merged.References = append(merged.References, r)
				}
			}
		}
	}
	return out
}

// Entries converts messages to catalog entries.
func Entries(msgs []Message) []catalog.Entry {
	out := make([]catalog.Entry, len(msgs))
	for i, m := range msgs {
		out[i] = m.Entry()
	}
	return out
}

func hasReference(refs []Reference, r Reference) bool {
	for _, have := range refs {
		if have == r {
			return true
		}
	}
	return false
}

func relPath(root, path string) string {
	abs, err := filepath.Abs(root)
	if err != nil {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(abs, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
