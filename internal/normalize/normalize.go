// Package normalize canonicalizes extracted document text before
// chunking: it joins soft-hyphenated line breaks, collapses excess blank
// lines, flattens exotic whitespace, and trims trailing whitespace per
// line.
package normalize

import (
	"regexp"
	"strings"
)

var (
	// softHyphenBreak matches "word-\nword" so it can be joined into
	// "wordword".
	softHyphenBreak = regexp.MustCompile(`(\p{L})-\n(\p{L})`)

	// excessNewlines matches runs of 3+ consecutive newlines to collapse
	// to exactly two; newlines separated by other whitespace are not
	// joined into one run.
	excessNewlines = regexp.MustCompile(`\n{3,}`)

	// miscWhitespace matches tabs, vertical tab, form feed, and carriage
	// return. Other Unicode spaces (e.g. no-break space) are left as they
	// are.
	miscWhitespace = regexp.MustCompile(`[\t\v\f\r]`)
)

// Text canonicalizes s:
//  1. joins soft-hyphenated line breaks (word-\nword -> wordword)
//  2. replaces tabs/vertical-whitespace/CR with single spaces
//  3. collapses runs of 3+ newlines to exactly 2
//  4. right-trims every line
//  5. strips leading/trailing whitespace from the whole text
func Text(s string) string {
	s = softHyphenBreak.ReplaceAllString(s, "$1$2")
	s = miscWhitespace.ReplaceAllString(s, " ")
	s = excessNewlines.ReplaceAllString(s, "\n\n")
	s = rightTrimLines(s)
	return strings.TrimSpace(s)
}

func rightTrimLines(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	return strings.Join(lines, "\n")
}
