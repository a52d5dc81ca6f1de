// Package prompts renders the text prompts sent to the language model.
// Rendering is pure: the same input always yields the same prompt.
package prompts

import (
	"regexp"
	"strings"
)

// NotInformed replaces any placeholder whose field is missing or blank.
const NotInformed = "Não informado"

var placeholder = regexp.MustCompile(`\{([A-Za-z][A-Za-z0-9]*)\}`)

// Render substitutes every {name} placeholder in tpl. Values are inserted
// verbatim and never rescanned, so document text containing braces is safe.
func Render(tpl string, fields map[string]string) string {
	return placeholder.ReplaceAllStringFunc(tpl, func(match string) string {
		key := match[1 : len(match)-1]
		if v, ok := fields[key]; ok && strings.TrimSpace(v) != "" {
			return v
		}
		return NotInformed
	})
}

// Placeholders lists the placeholder names referenced by tpl, in order of appearance.
func Placeholders(tpl string) []string {
	matches := placeholder.FindAllStringSubmatch(tpl, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}
