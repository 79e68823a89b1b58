// Package prompt renders job prompt templates.
package prompt

import "strings"

// Placeholder is the token in a prompt template that stands for the matched text.
const Placeholder = "%%"

// Build replaces every occurrence of Placeholder in template with text.
// No escaping is performed.
func Build(template, text string) string {
	return strings.ReplaceAll(template, Placeholder, text)
}

// HasPlaceholder reports whether template references the matched text at all.
func HasPlaceholder(template string) bool {
	return strings.Contains(template, Placeholder)
}
