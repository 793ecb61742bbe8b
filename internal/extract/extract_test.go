package extract_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"nugget-translator/internal/extract"
	"nugget-translator/internal/filewalker"
	"nugget-translator/internal/nugget"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newExtractor(t *testing.T) *extract.Extractor {
	t.Helper()
	p, err := nugget.NewParser(nugget.DefaultTokens(), nugget.SourceProcessing)
	require.NoError(t, err)
	x, err := extract.New(p)
	require.NoError(t, err)
	return x
}

func TestNew_RejectsResponseParser(t *testing.T) {
	p, err := nugget.NewParser(nugget.DefaultTokens(), nugget.ResponseProcessing)
	require.NoError(t, err)

	_, err = extract.New(p)
	assert.Error(t, err)
}

func TestParseFile(t *testing.T) {
	x := newExtractor(t)

	t.Run("messages with lines and comments", func(t *testing.T) {
		src := "var a = \"[[[Hello]]]\";\n\nvar b = \"[[[Save|||%0///button label]]]\";\n"

		msgs := x.ParseFile("app.cs", src, ".cs")
		require.Len(t, msgs, 2)

		assert.Equal(t, "Hello", msgs[0].MsgID)
		assert.Equal(t, []extract.Reference{{File: "app.cs", Line: 1}}, msgs[0].References)

		assert.Equal(t, "Save", msgs[1].MsgID)
		assert.Equal(t, "button label", msgs[1].Comment)
		assert.Equal(t, 3, msgs[1].References[0].Line)
	})

	t.Run("nested nuggets are extracted inner first", func(t *testing.T) {
		src := "x\n[[[Color %0|||(((Red)))]]]"

		msgs := x.ParseFile("view.cshtml", src, ".cshtml")
		require.Len(t, msgs, 2)
		assert.Equal(t, "Red", msgs[0].MsgID)
		assert.Equal(t, "Color %0", msgs[1].MsgID)
		assert.Equal(t, 2, msgs[1].References[0].Line)
	})

	t.Run("nested nugget line uses the id as written", func(t *testing.T) {
		src := "x\ny\n[[[Line1\\nLine2 %0|||(((Red)))]]]"

		msgs := x.ParseFile("app.cs", src, ".cs")
		require.Len(t, msgs, 2)
		assert.Equal(t, "Line1\r\nLine2 %0", msgs[1].MsgID)
		assert.Equal(t, 3, msgs[1].References[0].Line)
	})

	t.Run("message ids are unescaped per file type", func(t *testing.T) {
		msgs := x.ParseFile("app.js", `"[[[It\'s here]]]"`, ".js")
		require.Len(t, msgs, 1)
		assert.Equal(t, "It's here", msgs[0].MsgID)
	})

	t.Run("no nuggets", func(t *testing.T) {
		assert.Empty(t, x.ParseFile("empty.cs", "plain text", ".cs"))
	})
}

func TestFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "views"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.cs"), []byte("[[[One]]]"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "views", "b.cshtml"), []byte("\n[[[Two]]] [[[One]]]"), 0o644))

	files, err := filewalker.NewWalker([]string{".cs", ".cshtml"}).Walk(root)
	require.NoError(t, err)

	x := newExtractor(t)
	results := x.Files(context.Background(), root, files, 2)
	require.Len(t, results, 2)

	var groups [][]extract.Message
	for _, r := range results {
		groups = append(groups, r.Messages)
	}
	merged := extract.Merge(groups...)
	require.Len(t, merged, 2)

	byID := map[string]extract.Message{}
	for _, m := range merged {
		byID[m.MsgID] = m
	}
	assert.ElementsMatch(t, []extract.Reference{
		{File: "a.cs", Line: 1},
		{File: "views/b.cshtml", Line: 2},
	}, byID["One"].References)
	assert.Equal(t, []extract.Reference{{File: "views/b.cshtml", Line: 2}}, byID["Two"].References)
}

func TestMerge(t *testing.T) {
	a := []extract.Message{
		{MsgID: "Hello", References: []extract.Reference{{File: "a.cs", Line: 1}}},
		{MsgID: "Bye", Comment: "farewell", References: []extract.Reference{{File: "a.cs", Line: 2}}},
	}
	b := []extract.Message{
		{MsgID: "Hello", Comment: "greeting", References: []extract.Reference{{File: "b.cs", Line: 4}}},
		{MsgID: "Hello", Comment: "other", References: []extract.Reference{{File: "b.cs", Line: 4}}},
		{MsgID: "Bye", Comment: "ignored"},
	}

	merged := extract.Merge(a, b)
	require.Len(t, merged, 2)

	assert.Equal(t, "Hello", merged[0].MsgID)
	assert.Equal(t, "greeting", merged[0].Comment)
	assert.Equal(t, []extract.Reference{{File: "a.cs", Line: 1}, {File: "b.cs", Line: 4}}, merged[0].References)

	assert.Equal(t, "Bye", merged[1].MsgID)
	assert.Equal(t, "farewell", merged[1].Comment)
	assert.Len(t, merged[1].References, 1)
}

func TestMessage_Entry(t *testing.T) {
	m := extract.Message{
		MsgID:   "Hello",
		Comment: "greeting",
		References: []extract.Reference{
			{File: "a.cs", Line: 3},
			{File: "generated.cs"},
		},
	}

	e := m.Entry()
	assert.Equal(t, "Hello", e.MsgID)
	assert.Equal(t, "greeting", e.Comment)
	assert.Equal(t, []string{"a.cs:3", "generated.cs"}, e.References)
	assert.False(t, e.Translated())

	entries := extract.Entries([]extract.Message{m})
	require.Len(t, entries, 1)
	assert.Equal(t, e, entries[0])
}
