package wiki

import "strings"

// Slugify derives the URL-safe key for a page title: lowercase, strip
// everything but letters, digits, spaces and hyphens, collapse whitespace
// runs to single hyphens, collapse hyphen runs.
func Slugify(title string) string {
	lower := strings.ToLower(strings.TrimSpace(title))

	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ', r == '-':
			b.WriteRune(r)
		}
	}

	fields := strings.Fields(b.String())
	slug := strings.Join(fields, "-")

	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}

	return strings.Trim(slug, "-")
}
