package ingest

import "strings"

var nameReplacer = strings.NewReplacer(
	"/", "_slash_",
	"@", "_at_",
	".", "_",
	" ", "_",
)

// SanitizeMetricName maps a raw counter name to the exposition charset:
// lowercase alphanumerics separated by single underscores, with no leading
// or trailing underscore. Distinct inputs may map to the same output.
// Lowercasing is per rune, so "İ" becomes a plain "i" rather than "i" plus a
// combining dot.
func SanitizeMetricName(name string) string {
	name = strings.ToLower(nameReplacer.Replace(name))

	var b strings.Builder
	b.Grow(len(name))
	pending := false
	for _, r := range name {
		if isNameRune(r) {
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		// '_' and every other rune collapse into one separator, emitted
		// lazily so that leading and trailing runs disappear.
		pending = true
	}
	return b.String()
}

func isNameRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
