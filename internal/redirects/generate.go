// Package redirects builds the old-URL to new-URL table for a migrated
// site and writes it out for Next.js, Apache and Vercel.
package redirects

import (
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/blackwell-systems/wpmigrate/internal/catalog"
	"github.com/blackwell-systems/wpmigrate/internal/images"
)

// Prefixes is the new site's URL layout.
type Prefixes struct {
	Post     string
	Category string
	Image    string
}

// DefaultPrefixes matches the Next.js app's routes.
var DefaultPrefixes = Prefixes{Post: "/posts/", Category: "/categories/", Image: "/images/"}

// Input is everything the generator reads.
type Input struct {
	// Redirects are the parser's post redirects. Nil means none were
	// recorded and they are rebuilt from Posts.
	Redirects  []catalog.Redirect
	Posts      []catalog.Post
	Categories []catalog.Category
	Mapping    images.Mapping
}

// Table holds the generated redirects grouped by origin. Nothing is
// deduplicated across or within groups.
type Table struct {
	Posts      []catalog.Redirect `json:"posts"`
	Categories []catalog.Redirect `json:"categories"`
	Images     []catalog.Redirect `json:"images"`
}

// Combined returns post, category and image redirects in that order.
func (t *Table) Combined() []catalog.Redirect {
	out := make([]catalog.Redirect, 0, t.Len())
	out = append(out, t.Posts...)
	out = append(out, t.Categories...)
	return append(out, t.Images...)
}

// Len returns the total number of redirects.
func (t *Table) Len() int {
	return len(t.Posts) + len(t.Categories) + len(t.Images)
}

// Generator builds redirect tables.
type Generator struct {
	log      zerolog.Logger
	prefixes Prefixes
}

// New returns a Generator for the given layout. Empty prefixes fall back
// to DefaultPrefixes.
func New(log zerolog.Logger, p Prefixes) *Generator {
	if p.Post == "" {
		p.Post = DefaultPrefixes.Post
	}
	if p.Category == "" {
		p.Category = DefaultPrefixes.Category
	}
	if p.Image == "" {
		p.Image = DefaultPrefixes.Image
	}
	return &Generator{log: log.With().Str("stage", "redirects").Logger(), prefixes: p}
}

// Generate builds a table with the default layout and no logging.
func Generate(in Input) *Table {
	return New(zerolog.Nop(), DefaultPrefixes).Generate(in)
}

// Generate builds the combined table from in.
func (g *Generator) Generate(in Input) *Table {
	t := &Table{
		Posts:      g.posts(in),
		Categories: g.categories(in.Categories),
		Images:     g.images(in.Mapping),
	}
	g.log.Info().
		Int("posts", len(t.Posts)).
		Int("categories", len(t.Categories)).
		Int("images", len(t.Images)).
		Msg("redirects generated")
	return t
}

func (g *Generator) posts(in Input) []catalog.Redirect {
	if in.Redirects != nil {
		out := make([]catalog.Redirect, 0, len(in.Redirects))
		for _, r := range in.Redirects {
			if strings.ContainsAny(r.Source, " \t\r\n") {
				g.log.Warn().Str("source", r.Source).Msg("redirect source contains whitespace, skipped")
				continue
			}
			out = append(out, r)
		}
		return out
	}
	out := []catalog.Redirect{}
	for i := range in.Posts {
		p := &in.Posts[i]
		if p.Original.WordPressURL == "" {
			continue
		}
		if catalog.PermalinkPath(p.Original.WordPressURL) == "" {
			g.log.Warn().Str("post_id", p.ID).Str("url", p.Original.WordPressURL).Msg("unusable permalink, skipped")
			continue
		}
		out = append(out, catalog.PostRedirects(p, g.prefixes.Post)...)
	}
	return out
}

func (g *Generator) categories(categories []catalog.Category) []catalog.Redirect {
	out := []catalog.Redirect{}
	for _, c := range categories {
		slug := c.Slug.Current
		dest := g.prefixes.Category + slug
		out = append(out,
			catalog.Redirect{
				Source:      "/category/" + slug,
				Destination: dest,
				Permanent:   true,
				Description: "Category: " + c.Title,
			},
			catalog.Redirect{
				Source:      "/category/" + slug + "/page/:page",
				Destination: dest + "?page=:page",
				Permanent:   true,
				Description: "Category pagination: " + c.Title,
			},
		)
	}
	return append(out, catalog.Redirect{
		Source:      "/category/:slug*",
		Destination: g.prefixes.Category + ":slug*",
		Permanent:   true,
		Description: "Generic category redirect",
	})
}

func (g *Generator) images(m images.Mapping) []catalog.Redirect {
	out := []catalog.Redirect{}
	for _, src := range m.URLs() {
		entry := m[src]
		u, err := url.Parse(strings.TrimSpace(src))
		if err != nil || u.EscapedPath() == "" {
			g.log.Warn().Str("url", src).Msg("malformed image URL, no redirect")
			continue
		}
		out = append(out, catalog.Redirect{
			Source:      u.EscapedPath(),
			Destination: g.prefixes.Image + entry.Filename,
			Permanent:   true,
			Description: "Image: " + entry.Filename,
		})
	}
	return out
}
