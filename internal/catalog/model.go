package catalog

import "github.com/blackwell-systems/wpmigrate/internal/portable"

// Document type names in the store.
const (
	TypeAuthor   = "author"
	TypeCategory = "category"
	TypePost     = "post"
)

// Slug is the store's slug object.
type Slug struct {
	Current string `json:"current"`
}

// Author is one blog author.
type Author struct {
	ID    string `json:"_id"`
	Type  string `json:"_type"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Slug  Slug   `json:"slug"`
	Bio   string `json:"bio,omitempty"`
}

// Category is one taxonomy term.
type Category struct {
	ID          string `json:"_id"`
	Type        string `json:"_type"`
	Title       string `json:"title"`
	Slug        Slug   `json:"slug"`
	Description string `json:"description,omitempty"`
}

// KeyedReference is a reference stored inside an array, which needs a key.
type KeyedReference struct {
	Type string `json:"_type"`
	Ref  string `json:"_ref"`
	Key  string `json:"_key"`
}

// SEO holds per-post search metadata overrides.
type SEO struct {
	MetaTitle       string `json:"metaTitle,omitempty"`
	MetaDescription string `json:"metaDescription,omitempty"`
}

// Provenance keeps the WordPress fields needed for tracing and redirects.
type Provenance struct {
	WordPressID   string `json:"wordpressId"`
	WordPressSlug string `json:"wordpressSlug,omitempty"`
	WordPressURL  string `json:"wordpressUrl,omitempty"`
	LastModified  string `json:"lastModified,omitempty"`
}

// Image is a standalone image field such as a post's main image. Asset is
// nil until the source image has been uploaded.
type Image struct {
	Type        string              `json:"_type"`
	Asset       *portable.Reference `json:"asset,omitempty"`
	Alt         string              `json:"alt,omitempty"`
	OriginalSrc string              `json:"_originalSrc,omitempty"`
}

// Pending reports whether the image still points at its source URL.
func (i *Image) Pending() bool {
	return i != nil && i.Asset == nil && i.OriginalSrc != ""
}

// Resolve points the image at an uploaded asset.
func (i *Image) Resolve(assetID string) {
	i.Asset = portable.NewReference(assetID)
	i.OriginalSrc = ""
}

// Post is the central content document.
type Post struct {
	ID          string              `json:"_id"`
	Type        string              `json:"_type"`
	Title       string              `json:"title"`
	Slug        Slug                `json:"slug"`
	Author      *portable.Reference `json:"author,omitempty"`
	Categories  []KeyedReference    `json:"categories"`
	PublishedAt string              `json:"publishedAt"`
	Excerpt     string              `json:"excerpt"`
	MainImage   *Image              `json:"mainImage,omitempty"`
	Body        []portable.Block    `json:"body"`
	Featured    bool                `json:"featured"`
	SEO         SEO                 `json:"seo"`
	Original    Provenance          `json:"_originalData"`
}

// Attachment is a media item declared in the export.
type Attachment struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	UploadDate string `json:"uploadDate"`
	MimeType   string `json:"mimeType"`
	Filename   string `json:"filename"`
	Alt        string `json:"alt,omitempty"`
}

// Redirect maps an old site path to a new one.
type Redirect struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Permanent   bool   `json:"permanent"`
	Description string `json:"description,omitempty"`
}

// StatusCode returns the HTTP status for the redirect.
func (r Redirect) StatusCode() int {
	if r.Permanent {
		return 301
	}
	return 302
}

// SiteInfo is the export's channel metadata.
type SiteInfo struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	BaseURL string `json:"baseUrl,omitempty"`
}

// Bundle is everything the parser extracted from one export.
type Bundle struct {
	Site        SiteInfo     `json:"site"`
	Authors     []Author     `json:"authors"`
	Categories  []Category   `json:"categories"`
	Posts       []Post       `json:"posts"`
	Attachments []Attachment `json:"attachments"`
	Redirects   []Redirect   `json:"redirects"`
	// Skipped counts qualifying posts that failed conversion.
	Skipped int `json:"skipped"`
}
