// Package importer writes parsed WordPress content into the Sanity
// dataset with create-or-update semantics.
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/blackwell-systems/wpmigrate/internal/catalog"
	"github.com/blackwell-systems/wpmigrate/internal/images"
	"github.com/blackwell-systems/wpmigrate/internal/sanity"
)

// CreditLine is attached to every uploaded image.
const CreditLine = "Imported from WordPress"

// Store is the subset of the Sanity API the importer uses.
type Store interface {
	GetDocument(ctx context.Context, id string, out interface{}) (bool, error)
	Create(ctx context.Context, doc interface{}) error
	PatchSet(ctx context.Context, id string, set map[string]interface{}) error
	Count(ctx context.Context, filter string, params map[string]interface{}) (int, error)
	UploadImage(ctx context.Context, filename string, data []byte, meta sanity.AssetMeta) (*sanity.Asset, error)
	FindImageAsset(ctx context.Context, filename string) (string, error)
}

// UploadLog remembers which source URLs already have an uploaded asset.
type UploadLog interface {
	Lookup(url string) (assetID string, ok bool)
	Record(url, filename, assetID string) error
}

// Tally counts outcomes for one document type.
type Tally struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

// Result is the outcome of a full import.
type Result struct {
	Authors    Tally `json:"authors"`
	Categories Tally `json:"categories"`
	Images     Tally `json:"images"`
	Posts      Tally `json:"posts"`
	// Unresolved counts image references left pointing at their source.
	Unresolved int `json:"unresolved"`
}

// Errors returns the number of failed documents across all types.
func (r *Result) Errors() int {
	return r.Authors.Errors + r.Categories.Errors + r.Images.Errors + r.Posts.Errors
}

// Importer performs the import stage.
type Importer struct {
	store   Store
	uploads UploadLog
	log     zerolog.Logger
}

// New creates an Importer. uploads may be nil.
func New(store Store, uploads UploadLog, log zerolog.Logger) *Importer {
	return &Importer{
		store:   store,
		uploads: uploads,
		log:     log.With().Str("stage", "import").Logger(),
	}
}

// Ping checks that the dataset is reachable with the configured token.
func (im *Importer) Ping(ctx context.Context) (int, error) {
	n, err := im.store.Count(ctx, "*", nil)
	if err != nil {
		return 0, fmt.Errorf("connecting to store: %w", err)
	}
	return n, nil
}

// Run imports authors, categories, images and posts in that order.
// Per-document failures are counted; only an unreachable store is fatal.
// mapping is updated in place with uploaded asset ids.
func (im *Importer) Run(ctx context.Context, b *catalog.Bundle, mapping images.Mapping) (*Result, error) {
	n, err := im.Ping(ctx)
	if err != nil {
		return nil, err
	}
	im.log.Info().Int("documents", n).Msg("connected")

	res := &Result{}
	res.Authors = im.ImportAuthors(ctx, b.Authors)
	res.Categories = im.ImportCategories(ctx, b.Categories)
	res.Images = im.ImportImages(ctx, mapping)
	res.Posts, res.Unresolved = im.ImportPosts(ctx, b.Posts, mapping)
	return res, nil
}

// ImportAuthors upserts every author.
func (im *Importer) ImportAuthors(ctx context.Context, authors []catalog.Author) Tally {
	var t Tally
	for _, a := range authors {
		created, err := im.upsert(ctx, a.ID, a)
		im.count(&t, a.ID, a.Name, created, err)
	}
	im.logTally("authors", t)
	return t
}

// ImportCategories upserts every category.
func (im *Importer) ImportCategories(ctx context.Context, categories []catalog.Category) Tally {
	var t Tally
	for _, c := range categories {
		created, err := im.upsert(ctx, c.ID, c)
		im.count(&t, c.ID, c.Title, created, err)
	}
	im.logTally("categories", t)
	return t
}

// ImportPosts resolves image references and upserts every post. It returns
// the tally and the number of image references left unresolved.
func (im *Importer) ImportPosts(ctx context.Context, posts []catalog.Post, mapping images.Mapping) (Tally, int) {
	var t Tally
	unresolved := 0
	for i := range posts {
		post, n := im.ResolveImages(ctx, posts[i], mapping)
		unresolved += n
		created, err := im.upsert(ctx, post.ID, post)
		im.count(&t, post.ID, post.Title, created, err)
	}
	im.logTally("posts", t)
	return t, unresolved
}

func (im *Importer) count(t *Tally, id, label string, created bool, err error) {
	switch {
	case err != nil:
		t.Errors++
		im.log.Error().Err(err).Str("id", id).Str("title", label).Msg("import failed")
	case created:
		t.Created++
		im.log.Debug().Str("id", id).Msg("created")
	default:
		t.Updated++
		im.log.Debug().Str("id", id).Msg("updated")
	}
}

func (im *Importer) logTally(kind string, t Tally) {
	im.log.Info().
		Str("type", kind).
		Int("created", t.Created).
		Int("updated", t.Updated).
		Int("skipped", t.Skipped).
		Int("errors", t.Errors).
		Msg("imported")
}

// upsert creates doc when id is new, otherwise sets all of its fields
// except _id and _type. It reports whether the document was created.
func (im *Importer) upsert(ctx context.Context, id string, doc interface{}) (bool, error) {
	exists, err := im.store.GetDocument(ctx, id, nil)
	if err != nil {
		return false, err
	}
	if !exists {
		return true, im.store.Create(ctx, doc)
	}
	set, err := fields(doc)
	if err != nil {
		return false, err
	}
	return false, im.store.PatchSet(ctx, id, set)
}

// fields returns doc's JSON fields without the identity keys.
func fields(doc interface{}) (map[string]interface{}, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	delete(m, "_id")
	delete(m, "_type")
	return m, nil
}

// ImportImages uploads every mapped image that has no asset yet, recording
// the asset id in mapping and the upload log.
func (im *Importer) ImportImages(ctx context.Context, mapping images.Mapping) Tally {
	var t Tally
	for _, src := range mapping.URLs() {
		entry := mapping[src]
		if entry.AssetID != "" {
			t.Skipped++
			continue
		}
		if im.uploads != nil {
			if id, ok := im.uploads.Lookup(src); ok {
				entry.AssetID = id
				t.Skipped++
				im.log.Debug().Str("file", entry.Filename).Str("asset", id).Msg("already uploaded")
				continue
			}
		}

		id, err := im.upload(ctx, entry)
		if err != nil {
			t.Errors++
			im.log.Error().Err(err).Str("url", src).Str("file", entry.Filename).Msg("upload failed")
			continue
		}
		entry.AssetID = id
		t.Created++
		if im.uploads != nil {
			if err := im.uploads.Record(src, entry.Filename, id); err != nil {
				im.log.Warn().Err(err).Str("url", src).Msg("could not record upload")
			}
		}
	}
	im.logTally("images", t)
	return t
}

func (im *Importer) upload(ctx context.Context, entry *images.MappingEntry) (string, error) {
	data, err := os.ReadFile(entry.Filepath)
	if err != nil {
		return "", err
	}
	title := entry.Title
	if title == "" {
		title = entry.Filename
	}
	asset, err := im.store.UploadImage(ctx, entry.Filename, data, sanity.AssetMeta{
		Title:       title,
		Description: entry.Alt,
		CreditLine:  CreditLine,
	})
	if err != nil {
		return "", err
	}
	return asset.ID, nil
}
