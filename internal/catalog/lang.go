package catalog

import (
	"fmt"

	"golang.org/x/text/language"
)

// NormalizeLang validates a BCP 47 language tag and returns its canonical
// form ("pt_br" becomes "pt-BR").
func NormalizeLang(tag string) (string, error) {
	t, err := language.Parse(tag)
	if err != nil {
		return "", fmt.Errorf("parse language %q: %w", tag, err)
	}
	if t == language.Und {
		return "", fmt.Errorf("parse language %q: undetermined language", tag)
	}
	return t.String(), nil
}
