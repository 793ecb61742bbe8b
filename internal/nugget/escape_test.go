package nugget_test

import (
	"testing"

	"nugget-translator/internal/nugget"

	"github.com/stretchr/testify/assert"
)

func TestUnescape(t *testing.T) {
	tests := []struct {
		name string
		ext  string
		in   string
		want string
	}{
		{"sql percent", ".sql", "100%% sure", "100% sure"},
		{"sql doubled quote keeps legacy mapping", ".sql", "it''s", "it,s"},
		{"cs escaped newline", ".cs", `a\nb`, "a\r\nb"},
		{"cs raw newline", ".cs", "a\nb", "a\r\nb"},
		{"cs existing crlf", ".cs", "a\r\nb", "a\r\nb"},
		{"cs tab and quotes", ".cs", `say \"hi\"\t`, "say \"hi\"\t"},
		{"cs backslash", ".cs", `C:\\temp`, `C:\temp`},
		{"cs escaped backslash before n", ".cs", `\\n`, `\n`},
		{"cs verbatim quote", ".cs", `""quoted""`, `"quoted"`},
		{"js single quote", ".js", `it\'s`, "it's"},
		{"js keeps doubled quote", ".js", `""`, `""`},
		{"xml entities", ".xml", "Fish &amp; Chips &lt;b&gt;", "Fish & Chips <b>"},
		{"html numeric entity", ".html", "caf&#233;", "café"},
		{"resx entities", ".resx", "&quot;x&quot;", `"x"`},
		{"upper case extension", ".JS", `it\'s`, "it's"},
		{"unknown extension", ".txt", `a\nb&amp;`, `a\nb&amp;`},
		{"no extension", "", `a\nb`, `a\nb`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nugget.Unescape(tt.in, tt.ext))
		})
	}
}
