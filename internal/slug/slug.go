// Package slug turns product, category and post names into URL slugs.
package slug

import (
	"regexp"
	"strings"
)

var (
	// dropped matches everything that is not a lowercase letter, digit,
	// whitespace or hyphen.
	dropped = regexp.MustCompile(`[^a-z0-9\s-]`)
	// hyphenRun collapses runs introduced by "name - detail" inputs.
	hyphenRun = regexp.MustCompile(`-{2,}`)
)

// polishFold maps Polish diacritics to ASCII before slugging, so catalog
// names like "Drożdże gorzelnicze" produce readable slugs.
var polishFold = strings.NewReplacer(
	"ą", "a", "ć", "c", "ę", "e", "ł", "l", "ń", "n",
	"ó", "o", "ś", "s", "ź", "z", "ż", "z",
)

// Generate creates a URL slug from the given name.
// Example: "Świeże drożdże 2026" → "swieze-drozdze-2026"
func Generate(s string) string {
	s = polishFold.Replace(strings.ToLower(s))
	s = dropped.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), "-")
	s = hyphenRun.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
