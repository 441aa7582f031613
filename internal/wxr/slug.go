package wxr

import "strings"

const maxSlugLen = 200

// trashedSuffix is appended by WordPress to the post_name of trashed posts.
const trashedSuffix = "__trashed"

// Slugify lowercases s, collapses every run of characters outside [a-z0-9]
// into one hyphen, strips leading and trailing hyphens and truncates the
// result to 200 characters.
func Slugify(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	prevWasSep := false
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			prevWasSep = false
			continue
		}
		if !prevWasSep && b.Len() > 0 {
			b.WriteByte('-')
		}
		prevWasSep = true
	}
	result := strings.TrimRight(b.String(), "-")
	if len(result) > maxSlugLen {
		result = strings.TrimRight(result[:maxSlugLen], "-")
	}
	return result
}

// postSlug derives a post slug from the source post_name, falling back to
// the title when the name is empty.
func postSlug(postName, title string) string {
	name := strings.ReplaceAll(postName, trashedSuffix, "")
	if slug := Slugify(name); slug != "" {
		return slug
	}
	return Slugify(title)
}
