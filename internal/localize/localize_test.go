package localize_test

import (
	"sync"
	"testing"

	"nugget-translator/internal/catalog"
	"nugget-translator/internal/localize"
	"nugget-translator/internal/nugget"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocalizer(t *testing.T) *localize.Localizer {
	t.Helper()

	cat := catalog.New()
	cat.Add("fr", []catalog.Entry{
		{MsgID: "Hello", MsgStr: "Bonjour"},
		{MsgID: "Color %0", MsgStr: "Couleur %0"},
		{MsgID: "Red", MsgStr: "Rouge"},
		{MsgID: "%0 of %1", MsgStr: "%0 sur %1"},
		{MsgID: "Draft", MsgStr: "Brouillon", Fuzzy: true},
	})

	p, err := nugget.NewParser(nugget.DefaultTokens(), nugget.ResponseProcessing)
	require.NoError(t, err)

	l, err := localize.New(p, cat, "fr")
	require.NoError(t, err)
	return l
}

func TestNew_RejectsSourceParser(t *testing.T) {
	p, err := nugget.NewParser(nugget.DefaultTokens(), nugget.SourceProcessing)
	require.NoError(t, err)

	_, err = localize.New(p, catalog.New(), "fr")
	assert.Error(t, err)
}

func TestLocalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no nuggets", "plain <b>text</b>", "plain <b>text</b>"},
		{"translated", "<h1>[[[Hello]]]</h1>", "<h1>Bonjour</h1>"},
		{"comment is dropped", "[[[Hello///greeting]]]!", "Bonjour!"},
		{"missing falls back to msgid", "[[[Goodbye]]]", "Goodbye"},
		{"fuzzy counts as missing", "[[[Draft]]]", "Draft"},
		{"format items", "[[[%0 of %1|||3|||10]]]", "3 sur 10"},
		{"untranslated format items", "[[[Page %0|||2]]]", "Page 2"},
		{"nested nugget", "[[[Color %0|||((([[[Red]]])))]]]", "Couleur Rouge"},
		{"bare nested param passes through", "[[[Color %0|||(((Red)))]]]", "Couleur Red"},
		{"empty nugget removed", "a[[[]]]b", "ab"},
		{"unterminated kept", "x [[[Hello", "x [[[Hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newLocalizer(t)
			assert.Equal(t, tt.want, l.Localize(tt.in))
		})
	}
}

func TestStats(t *testing.T) {
	l := newLocalizer(t)

	l.Localize("[[[Hello]]] [[[Goodbye]]] [[[Color %0|||((([[[Red]]])))]]]")

	assert.Equal(t, localize.Stats{Hits: 3, Misses: 1}, l.Stats())
	assert.Equal(t, "fr", l.Lang())
}

func TestLocalize_Concurrent(t *testing.T) {
	l := newLocalizer(t)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, "Bonjour Goodbye", l.Localize("[[[Hello]]] [[[Goodbye]]]"))
		}()
	}
	wg.Wait()

	assert.Equal(t, localize.Stats{Hits: 16, Misses: 16}, l.Stats())
}
