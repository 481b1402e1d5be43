package service

import (
	"html"

	"github.com/microcosm-cc/bluemonday"
)

// sanitizeText strips markup from user input while leaving the text itself
// untouched. StrictPolicy entity-escapes its output, so the escape is undone
// before the value is stored.
func sanitizeText(policy *bluemonday.Policy, input string) string {
	return html.UnescapeString(policy.Sanitize(input))
}
