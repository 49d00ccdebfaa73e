package search

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// contentBudget caps the scraped content carried into the model prompt.
const contentBudget = 4000

// renderMarkdown produces the model-facing form of a result:
// a heading link, the description, and truncated content as a quote.
func (f *Fallback) renderMarkdown(r Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "### [%s](%s)\n%s", r.Title, r.URL, r.Description)

	content := strings.TrimSpace(r.Content)
	if content == "" {
		return b.String()
	}

	if looksLikeHTML(content) {
		if converted, err := f.converter.ConvertString(content); err == nil {
			content = strings.TrimSpace(converted)
		}
	}

	content = truncate(content, contentBudget)

	b.WriteString("\n\n")
	for _, line := range strings.Split(content, "\n") {
		b.WriteString("> ")
		b.WriteString(line)
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

// truncate cuts s to at most budget bytes without splitting a rune.
func truncate(s string, budget int) string {
	if len(s) <= budget {
		return s
	}
	cut := budget
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func looksLikeHTML(s string) bool {
	return strings.Contains(s, "<html") ||
		strings.Contains(s, "<body") ||
		strings.Contains(s, "<div") ||
		strings.Contains(s, "<p>")
}
