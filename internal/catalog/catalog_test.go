package catalog_test

import (
	"bytes"
	"strings"
	"testing"

	"nugget-translator/internal/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog(t *testing.T) {
	c := catalog.New()
	c.Add("fr", []catalog.Entry{
		{MsgID: "", MsgStr: "header"},
		{MsgID: "Hello", MsgStr: "Bonjour"},
		{MsgID: "Bye", MsgStr: "Au revoir", Fuzzy: true},
		{MsgID: "Later"},
	})

	t.Run("lookup translated entry", func(t *testing.T) {
		got, ok := c.Lookup("fr", "Hello")
		require.True(t, ok)
		assert.Equal(t, "Bonjour", got)
	})

	t.Run("fuzzy and untranslated entries are missing", func(t *testing.T) {
		_, ok := c.Lookup("fr", "Bye")
		assert.False(t, ok)
		_, ok = c.Lookup("fr", "Later")
		assert.False(t, ok)
	})

	t.Run("unknown language", func(t *testing.T) {
		_, ok := c.Lookup("de", "Hello")
		assert.False(t, ok)
	})

	t.Run("entries are sorted and skip the header", func(t *testing.T) {
		entries := c.Entries("fr")
		require.Len(t, entries, 3)
		assert.Equal(t, "Bye", entries[0].MsgID)
		assert.Equal(t, "Later", entries[2].MsgID)
		assert.Equal(t, []string{"fr"}, c.Languages())
	})

	t.Run("later entries replace earlier ones", func(t *testing.T) {
		c.Add("fr", []catalog.Entry{{MsgID: "Hello", MsgStr: "Salut"}})
		got, _ := c.Lookup("fr", "Hello")
		assert.Equal(t, "Salut", got)
	})
}

func TestNormalizeLang(t *testing.T) {
	got, err := catalog.NormalizeLang("pt_br")
	require.NoError(t, err)
	assert.Equal(t, "pt-BR", got)

	got, err = catalog.NormalizeLang("fr")
	require.NoError(t, err)
	assert.Equal(t, "fr", got)

	_, err = catalog.NormalizeLang("not a tag")
	assert.Error(t, err)

	_, err = catalog.NormalizeLang("und")
	assert.Error(t, err)
}

func TestWritePO(t *testing.T) {
	var buf bytes.Buffer
	err := catalog.WritePO(&buf, "fr", []catalog.Entry{
		{
			MsgID:      "Hello \"%0\"",
			MsgStr:     "Bonjour «%0»",
			Comment:    "greeting\non two lines",
			References: []string{"Views/Home.cshtml:3", "app.js:10"},
		},
		{MsgID: "Line1\nLine2", Fuzzy: true},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "\"Language: fr\\n\"\n")
	assert.Contains(t, out, "#. greeting\n#. on two lines\n")
	assert.Contains(t, out, "#: Views/Home.cshtml:3 app.js:10\n")
	assert.Contains(t, out, "msgid \"Hello \\\"%0\\\"\"\nmsgstr \"Bonjour «%0»\"\n")
	assert.Contains(t, out, "#, fuzzy\nmsgid \"Line1\\n\"\n\"Line2\"\nmsgstr \"\"\n")
	assert.Less(t, strings.Index(out, "Hello"), strings.Index(out, "Line1"))
}

func TestWritePO_Template(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, catalog.WritePO(&buf, "", []catalog.Entry{
		{MsgID: "", MsgStr: "dropped"},
		{MsgID: "Generated", References: []string{"gen.cs"}},
	}))

	out := buf.String()
	assert.Contains(t, out, "\"Language: \\n\"\n")
	assert.NotContains(t, out, "dropped")

	entries, err := catalog.ReadPO(&buf)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, []string{"gen.cs"}, entries[0].References)
}

func TestReadPO(t *testing.T) {
	po := `# translator comment
msgid ""
msgstr ""
"Content-Type: text/plain; charset=UTF-8\n"
"Language: fr\n"

#. greeting
#: Views/Home.cshtml:3 app.js:10
msgid "Hello %0"
msgstr "Bonjour %0"

#, fuzzy
msgctxt "menu"
msgid ""
"Line1\n"
"Line2"
msgstr "Ligne1\nLigne2"

msgid "apple"
msgid_plural "apples"
msgstr[0] "pomme"
msgstr[1] "pommes"

#~ msgid "old"
#~ msgstr "vieux"
msgid "tab\there"
msgstr "tab\t\"ici\""
`

	entries, err := catalog.ReadPO(strings.NewReader(po))
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, catalog.Entry{
		MsgID:      "Hello %0",
		MsgStr:     "Bonjour %0",
		Comment:    "greeting",
		References: []string{"Views/Home.cshtml:3", "app.js:10"},
	}, entries[0])

	assert.Equal(t, "Line1\nLine2", entries[1].MsgID)
	assert.Equal(t, "Ligne1\nLigne2", entries[1].MsgStr)
	assert.True(t, entries[1].Fuzzy)

	assert.Equal(t, "tab\there", entries[2].MsgID)
	assert.Equal(t, "tab\t\"ici\"", entries[2].MsgStr)
}

func TestReadPO_Malformed(t *testing.T) {
	for _, po := range []string{
		"msgid \"unterminated\nmsgstr \"\"\n",
		"msgid \"a\"\nmsgstr \"b\"\ngarbage\n",
		"\"orphan string\"\n",
		"msgid \"a\"\nmsgstr[x] \"b\"\n",
		"#. note\n\"no keyword\"\nmsgid \"a\"\nmsgstr \"\"\n",
	} {
		_, err := catalog.ReadPO(strings.NewReader(po))
		require.Error(t, err, po)
		assert.ErrorIs(t, err, catalog.ErrMalformedPO)
	}
}

func TestPORoundTrip(t *testing.T) {
	in := []catalog.Entry{
		{MsgID: "Say \\ \"hi\"", MsgStr: "Dis \"salut\"", References: []string{"a.cs:1"}},
		{MsgID: "Multi\nline\n", Comment: "note", Fuzzy: true},
	}

	var buf bytes.Buffer
	require.NoError(t, catalog.WritePO(&buf, "", in))

	out, err := catalog.ReadPO(&buf)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
