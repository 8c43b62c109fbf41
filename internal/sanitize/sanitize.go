// Package sanitize cleans free text that arrives from MCP clients before it
// is echoed back in tool results or written to the audit log. It strips
// control characters, XML/HTML tags and code fences so a scenario supplied
// by one model cannot smuggle instructions into another model's context.
package sanitize

import (
	"regexp"
	"strings"
)

// MaxDescriptionLength is the maximum allowed length for a scenario description.
const MaxDescriptionLength = 500

// MaxNameLength is the maximum allowed length for a scenario name.
const MaxNameLength = 64

var (
	// reXMLTag matches XML/HTML tags including those with attributes and self-closing tags.
	// It also matches XML processing instructions like <?xml ...?>.
	reXMLTag = regexp.MustCompile(`<[/?!]?[a-zA-Z][a-zA-Z0-9]*(?:\s+[^>]*)?/?>|<\?[^?]*\?>`)

	// reMarkdownHeading matches markdown headings at the start of a line.
	reMarkdownHeading = regexp.MustCompile(`(?m)^#{1,6}\s+`)

	reBackticks = regexp.MustCompile("`+")

	reSpaces = regexp.MustCompile(`\s+`)

	reRepeatedHyphens = regexp.MustCompile(`-{2,}`)
)

// Description sanitizes a scenario description. The result is a single
// line: control characters and tags are removed, whitespace runs collapse
// to one space, and the text is truncated to MaxDescriptionLength.
func Description(input string) string {
	if input == "" {
		return ""
	}

	s := stripControlChars(input)
	s = reXMLTag.ReplaceAllString(s, "")
	s = reMarkdownHeading.ReplaceAllString(s, "")
	s = reBackticks.ReplaceAllString(s, "'")
	s = reSpaces.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	if len(s) > MaxDescriptionLength {
		s = truncateRunes(s, MaxDescriptionLength) + "..."
	}
	return s
}

// Name sanitizes a scenario name, keeping only [a-zA-Z0-9._-] and
// enforcing MaxNameLength. Spaces become hyphens and repeated hyphens collapse.
func Name(input string) string {
	if input == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range strings.TrimSpace(input) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'),
			r == '-', r == '_', r == '.':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('-')
		}
	}
	s := reRepeatedHyphens.ReplaceAllString(b.String(), "-")

	if len(s) > MaxNameLength {
		s = s[:MaxNameLength]
	}
	return s
}

// stripControlChars removes ASCII control characters (0x00-0x1F, 0x7F),
// except newline and tab.
func stripControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r < 0x20 && r != '\n' && r != '\t') || r == 0x7F {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// truncateRunes cuts s to at most n bytes without splitting a rune.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := 0
	for i := range s {
		if i > n {
			break
		}
		cut = i
	}
	return s[:cut]
}
