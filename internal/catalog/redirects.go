package catalog

import (
	"net/url"
	"strings"
)

// PostRedirects returns the redirects for one post: its old permalink path
// when that differs from the new path, then the /?p=<id> form.
func PostRedirects(post *Post, prefix string) []Redirect {
	dest := prefix + post.Slug.Current
	var out []Redirect

	if oldPath := PermalinkPath(post.Original.WordPressURL); oldPath != "" && oldPath != dest {
		out = append(out, Redirect{
			Source:      oldPath,
			Destination: dest,
			Permanent:   true,
			Description: "WordPress post: " + post.Title,
		})
	}

	if id := post.Original.WordPressID; id != "" {
		out = append(out, Redirect{
			Source:      "/?p=" + id,
			Destination: dest,
			Permanent:   true,
			Description: "WordPress post ID: " + post.Title,
		})
	}
	return out
}

// PermalinkPath returns the escaped path of an absolute permalink, or ""
// when link is not an absolute URL. Percent-encoding is kept so the path
// matches what browsers request.
func PermalinkPath(link string) string {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil || u.Host == "" {
		return ""
	}
	if p := u.EscapedPath(); p != "" {
		return p
	}
	return "/"
}
