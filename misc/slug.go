package misc

import (
	"regexp"
	"strings"
)

var nonSlugChars = regexp.MustCompile(`[^\w\s-]`)
var slugSeparators = regexp.MustCompile(`[-\s]+`)

// Slugify converts a string to a url safe slug
func Slugify(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	value = nonSlugChars.ReplaceAllString(value, "")
	return slugSeparators.ReplaceAllString(value, "-")
}
