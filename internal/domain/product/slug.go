package product

import (
	"strings"
	"unicode"
)

// Slugify derives a URL slug from a category name: lower-cased, every run
// of non-alphanumeric characters collapsed into one hyphen, and leading or
// trailing hyphens trimmed. "Summer Sale!!" becomes "summer-sale".
func Slugify(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	pendingHyphen := false
	for _, r := range strings.ToLower(name) {
		if isSlugRune(r) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

func isSlugRune(r rune) bool {
	return r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r))
}
