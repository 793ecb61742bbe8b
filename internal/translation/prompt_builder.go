package translation

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// numberPrefix matches the "[N] " numbering used in batch prompts.
var numberPrefix = regexp.MustCompile(`^\[\d+\]\s*`)

// Item is one message of a prompt. Text has its placeholders protected.
type Item struct {
	Text    string
	Comment string
	// Context is retrieved translation context, already formatted.
	Context string
}

// PromptBuilder constructs system and user prompts for one target language.
type PromptBuilder struct {
	lang      string
	name      string
	separator string
}

// NewPromptBuilder creates a prompt builder for lang. separator divides
// translations in batch replies.
func NewPromptBuilder(lang, separator string) *PromptBuilder {
	name := lang
	if tag, err := language.Parse(lang); err == nil {
		if n := display.English.Tags().Name(tag); n != "" {
			name = n
		}
	}
	return &PromptBuilder{lang: lang, name: name, separator: separator}
}

// Separator returns the batch separator.
func (pb *PromptBuilder) Separator() string { return pb.separator }

const systemPromptTemplate = `You are a professional software localizer translating user interface text from English into %s (%s).

Rules:
1. Translate the message text into %s.
2. Preserve ALL placeholders like {{var_1}}, {{var_2}}, etc. Copy them exactly as-is into your translation.
3. Placeholders may move to where the grammar of %s needs them, but none may be dropped or added.
4. Preserve leading and trailing whitespace, punctuation style and line breaks.
5. Use the translator notes and similar translations for tone and terminology.
6. Output ONLY the translation, nothing else.
7. Do NOT add explanations, notes, quotes or extra text.
8. Keep UI text concise and natural.`

// SystemPrompt returns the system prompt for translation.
func (pb *PromptBuilder) SystemPrompt() string {
	return fmt.Sprintf(systemPromptTemplate, pb.name, pb.lang, pb.name, pb.name)
}

// BuildUserPrompt constructs the prompt for a single message.
func (pb *PromptBuilder) BuildUserPrompt(item Item) string {
	var sb strings.Builder

	if item.Context != "" {
		sb.WriteString(item.Context)
	}
	if item.Comment != "" {
		fmt.Fprintf(&sb, "Translator note: %s\n\n", item.Comment)
	}
	fmt.Fprintf(&sb, "Text to translate:\n%s", item.Text)

	return sb.String()
}

// BuildBatchUserPrompt constructs a prompt for several messages. Replies are
// expected in order, divided by the separator.
func (pb *PromptBuilder) BuildBatchUserPrompt(items []Item) string {
	var sb strings.Builder

	for _, item := range items {
		if item.Context != "" {
			sb.WriteString(item.Context)
		}
	}

	fmt.Fprintf(&sb, "Translate each text below. Return ONLY the translations, separated by %s, in the same order.\n\n", pb.separator)
	for i, item := range items {
		fmt.Fprintf(&sb, "[%d] %s", i+1, item.Text)
		if item.Comment != "" {
			fmt.Fprintf(&sb, "  (note: %s)", item.Comment)
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
