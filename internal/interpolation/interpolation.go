package interpolation

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Mapping stores the original placeholder and its safe replacement.
type Mapping struct {
	Original    string
	Placeholder string
	Index       int
}

// varMatch stores a detected interpolation variable position.
type varMatch struct {
	start, end int
	value      string
}

// formatItemPattern matches the %0, %1, ... slots that nugget format items fill.
var formatItemPattern = regexp.MustCompile(`%([0-9]+)`)

// patterns detect placeholders that must survive machine translation.
var patterns = []*regexp.Regexp{
	formatItemPattern,
	regexp.MustCompile(`\{[0-9]+(?::[^}]*)?\}`),                // {0}, {0:N2}
	regexp.MustCompile(`%[-+0-9]*\.?[0-9]*[dsfieEgGxXoubcpq]`), // printf verbs
	regexp.MustCompile(`%%`),                                   // escaped percent literal
	regexp.MustCompile(`</?[a-zA-Z][^>]*>`),                    // inline markup
}

// Format fills the %N slots of msg with items. Slots without a matching
// item are left as they are.
func Format(msg string, items []string) string {
	if len(items) == 0 {
		return msg
	}
	return formatItemPattern.ReplaceAllStringFunc(msg, func(slot string) string {
		idx, err := strconv.Atoi(slot[1:])
		if err != nil || idx >= len(items) {
			return slot
		}
		return items[idx]
	})
}

// Slots returns the distinct %N indices referenced by msg in ascending order.
func Slots(msg string) []int {
	seen := make(map[int]bool)
	var out []int
	for _, m := range formatItemPattern.FindAllStringSubmatch(msg, -1) {
		idx, err := strconv.Atoi(m[1])
		if err != nil || seen[idx] {
			continue
		}
		seen[idx] = true
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

// Protect replaces all placeholders with safe {{var_N}} markers.
// Returns the safe string and a mapping to restore originals after translation.
func Protect(text string) (string, []Mapping) {
	var allMatches []varMatch
	for _, p := range patterns {
		for _, loc := range p.FindAllStringIndex(text, -1) {
			allMatches = append(allMatches, varMatch{
				start: loc[0],
				end:   loc[1],
				value: text[loc[0]:loc[1]],
			})
		}
	}

	if len(allMatches) == 0 {
		return text, nil
	}

	// By position, longest first on ties.
	sort.SliceStable(allMatches, func(i, j int) bool {
		if allMatches[i].start != allMatches[j].start {
			return allMatches[i].start < allMatches[j].start
		}
		return allMatches[i].end-allMatches[i].start > allMatches[j].end-allMatches[j].start
	})

	var filtered []varMatch
	lastEnd := -1
	for _, m := range allMatches {
		if m.start >= lastEnd {
			filtered = append(filtered, m)
			lastEnd = m.end
		}
	}

	mappings := make([]Mapping, len(filtered))
	var sb strings.Builder
	prev := 0
	for i, m := range filtered {
		placeholder := fmt.Sprintf("{{var_%d}}", i+1)
		mappings[i] = Mapping{
			Original:    m.value,
			Placeholder: placeholder,
			Index:       i + 1,
		}
		sb.WriteString(text[prev:m.start])
		sb.WriteString(placeholder)
		prev = m.end
	}
	sb.WriteString(text[prev:])

	return sb.String(), mappings
}

// Restore replaces {{var_N}} markers back with the original placeholders.
func Restore(translated string, mappings []Mapping) string {
	result := translated
	for _, m := range mappings {
		result = strings.Replace(result, m.Placeholder, m.Original, 1)
	}
	return result
}

// Missing returns the original placeholders of mappings that translated no
// longer contains.
func Missing(translated string, mappings []Mapping) []string {
	var out []string
	for _, m := range mappings {
		if !strings.Contains(translated, m.Placeholder) {
			out = append(out, m.Original)
		}
	}
	return out
}
