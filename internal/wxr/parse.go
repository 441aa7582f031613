package wxr

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/blackwell-systems/wpmigrate/internal/catalog"
	"github.com/blackwell-systems/wpmigrate/internal/portable"
	"github.com/rs/zerolog"
	"golang.org/x/net/html/charset"
)

// ExcerptLength is the length of a derived excerpt before the ellipsis.
const ExcerptLength = 160

const (
	wpDateLayout = "2006-01-02 15:04:05"
	isoLayout    = "2006-01-02T15:04:05.000Z"
	zeroDate     = "0000-00-00 00:00:00"
)

// ParseError reports an export that cannot be read at all.
type ParseError struct {
	Msg string
	Err error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse export: %s: %v", e.Msg, e.Err)
	}
	return "parse export: " + e.Msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parser converts a WXR document into catalog entities.
type Parser struct {
	log zerolog.Logger
	// PostPrefix is the new site's path prefix for posts.
	PostPrefix string
}

// New returns a Parser that logs to log.
func New(log zerolog.Logger) *Parser {
	return &Parser{
		log:        log.With().Str("stage", "parse").Logger(),
		PostPrefix: "/posts/",
	}
}

// Parse reads a WXR export with a Parser that does not log.
func Parse(r io.Reader) (*catalog.Bundle, error) {
	return New(zerolog.Nop()).Parse(r)
}

// Parse reads the whole export from r. It fails only when the document is
// not well-formed or has no rss/channel structure; individual posts that
// cannot be converted are logged, counted in Bundle.Skipped and left out.
func (p *Parser) Parse(r io.Reader) (*catalog.Bundle, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel
	dec.Entity = xml.HTMLEntity

	var doc rawRSS
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Msg: "empty document"}
		}
		return nil, &ParseError{Msg: "malformed XML", Err: err}
	}
	if doc.Channel == nil {
		return nil, &ParseError{Msg: "no <channel> element under <rss>"}
	}
	ch := doc.Channel

	b := &catalog.Bundle{
		Site: catalog.SiteInfo{
			Title:   strings.TrimSpace(ch.Title),
			Link:    strings.TrimSpace(ch.Link),
			BaseURL: strings.TrimSpace(firstNonEmpty(ch.BaseBlogURL, ch.BaseSiteURL)),
		},
		Authors:     p.authors(ch.Authors),
		Categories:  p.categories(ch.Categories),
		Attachments: []catalog.Attachment{},
		Posts:       []catalog.Post{},
		Redirects:   []catalog.Redirect{},
	}

	for i := range ch.Items {
		if ch.Items[i].PostType == "attachment" {
			b.Attachments = append(b.Attachments, attachment(&ch.Items[i]))
		}
	}

	for i := range ch.Items {
		it := &ch.Items[i]
		if it.PostType != "post" || it.Status != "publish" {
			continue
		}
		post, err := p.post(it, b)
		if err != nil {
			b.Skipped++
			p.log.Warn().Err(err).Str("post_id", it.PostID).Str("title", it.Title).Msg("skipping post")
			continue
		}
		b.Posts = append(b.Posts, *post)
		b.Redirects = append(b.Redirects, p.postRedirects(it, post)...)
	}

	p.log.Info().
		Int("authors", len(b.Authors)).
		Int("categories", len(b.Categories)).
		Int("posts", len(b.Posts)).
		Int("attachments", len(b.Attachments)).
		Int("redirects", len(b.Redirects)).
		Int("skipped", b.Skipped).
		Msg("export parsed")
	return b, nil
}

func (p *Parser) authors(raw []rawAuthor) []catalog.Author {
	out := make([]catalog.Author, 0, len(raw))
	for _, a := range raw {
		name := strings.TrimSpace(a.DisplayName)
		if name == "" {
			name = a.Login
		}
		var bio string
		first, last := strings.TrimSpace(a.FirstName), strings.TrimSpace(a.LastName)
		if first != "" && last != "" {
			bio = first + " " + last
		}
		out = append(out, catalog.Author{
			ID:    "author-" + strings.TrimSpace(a.ID),
			Type:  catalog.TypeAuthor,
			Name:  name,
			Email: strings.TrimSpace(a.Email),
			Slug:  catalog.Slug{Current: Slugify(a.Login)},
			Bio:   bio,
		})
	}
	return out
}

func (p *Parser) categories(raw []rawCategory) []catalog.Category {
	out := make([]catalog.Category, 0, len(raw))
	for _, c := range raw {
		out = append(out, catalog.Category{
			ID:          "category-" + strings.TrimSpace(c.TermID),
			Type:        catalog.TypeCategory,
			Title:       c.Name,
			Slug:        catalog.Slug{Current: c.NiceName},
			Description: firstNonEmpty(c.Description, c.LegacyDescript),
		})
	}
	return out
}

func (p *Parser) post(it *rawItem, b *catalog.Bundle) (*catalog.Post, error) {
	if len(b.Authors) == 0 {
		return nil, errors.New("export declares no authors")
	}

	content := it.content()
	body, err := portable.Convert(content)
	if err != nil {
		return nil, err
	}

	published, err := publishedAt(it)
	if err != nil {
		return nil, err
	}

	id := "post-" + strings.TrimSpace(it.PostID)
	author := catalog.AuthorByEmail(b.Authors, it.Creator)
	if author == nil {
		author = &b.Authors[0]
		p.log.Warn().
			Str("post_id", id).
			Str("creator", it.Creator).
			Str("author", author.ID).
			Msg("no author email matches creator; using first author")
	}

	excerpt := strings.TrimSpace(it.excerpt())
	if excerpt == "" {
		excerpt = portable.Excerpt(content, ExcerptLength)
	}

	post := &catalog.Post{
		ID:          id,
		Type:        catalog.TypePost,
		Title:       it.Title,
		Slug:        catalog.Slug{Current: postSlug(it.PostName, it.Title)},
		Author:      portable.NewReference(author.ID),
		Categories:  postCategories(it.Terms, b.Categories),
		PublishedAt: published,
		Excerpt:     excerpt,
		Body:        body,
		Featured:    it.IsSticky == "1",
		SEO: catalog.SEO{
			MetaTitle:       it.Title,
			MetaDescription: excerpt,
		},
		Original: catalog.Provenance{
			WordPressID:   strings.TrimSpace(it.PostID),
			WordPressSlug: it.PostName,
			WordPressURL:  it.Link,
			LastModified:  it.PostModGMT,
		},
	}
	if post.Slug.Current == "" {
		return nil, errors.New("cannot derive a slug from post name or title")
	}

	if thumb := strings.TrimSpace(it.meta("_thumbnail_id")); thumb != "" {
		for _, a := range b.Attachments {
			if a.ID == thumb && a.URL != "" {
				post.MainImage = &catalog.Image{Type: portable.TypeImage, Alt: a.Alt, OriginalSrc: a.URL}
				break
			}
		}
	}
	return post, nil
}

func postCategories(terms []rawTerm, categories []catalog.Category) []catalog.KeyedReference {
	out := []catalog.KeyedReference{}
	for _, t := range terms {
		if t.Domain != "category" {
			continue
		}
		c := catalog.CategoryBySlug(categories, t.NiceName)
		if c == nil {
			continue
		}
		out = append(out, catalog.KeyedReference{
			Type: portable.TypeReference,
			Ref:  c.ID,
			Key:  portable.NewKey(),
		})
	}
	return out
}

// publishedAt reads post_date_gmt as UTC. Unscheduled drafts that were
// later published can carry a zero GMT date; post_date is used then.
func publishedAt(it *rawItem) (string, error) {
	raw := strings.TrimSpace(it.PostDateGMT)
	if raw == "" || raw == zeroDate {
		raw = strings.TrimSpace(it.PostDate)
	}
	t, err := time.ParseInLocation(wpDateLayout, raw, time.UTC)
	if err != nil {
		return "", fmt.Errorf("bad publish date %q: %w", raw, err)
	}
	return t.UTC().Format(isoLayout), nil
}

func (p *Parser) postRedirects(it *rawItem, post *catalog.Post) []catalog.Redirect {
	if catalog.PermalinkPath(it.Link) == "" && it.Link != "" {
		p.log.Debug().Str("post_id", post.ID).Str("link", it.Link).Msg("unusable permalink, no path redirect")
	}
	return catalog.PostRedirects(post, p.PostPrefix)
}

var mimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
}

func attachment(it *rawItem) catalog.Attachment {
	u := strings.TrimSpace(it.AttachmentURL)
	name := u
	if parsed, err := url.Parse(u); err == nil && parsed.Path != "" {
		name = parsed.Path
	}
	name = path.Base(name)
	if name == "." || name == "/" {
		name = ""
	}

	mime, ok := mimeTypes[strings.ToLower(path.Ext(name))]
	if !ok {
		mime = "application/octet-stream"
	}
	return catalog.Attachment{
		ID:         strings.TrimSpace(it.PostID),
		Title:      it.Title,
		URL:        u,
		UploadDate: it.PostDate,
		MimeType:   mime,
		Filename:   name,
		Alt:        strings.TrimSpace(it.meta("_wp_attachment_image_alt")),
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
