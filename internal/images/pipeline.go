package images

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/blackwell-systems/wpmigrate/internal/cache"
	"github.com/blackwell-systems/wpmigrate/internal/catalog"
	"github.com/blackwell-systems/wpmigrate/internal/ingest"
	"github.com/blackwell-systems/wpmigrate/internal/util"
)

// Metadata describes where a target image came from.
type Metadata struct {
	AttachmentID string `json:"id,omitempty"`
	Title        string `json:"title,omitempty"`
	Alt          string `json:"alt,omitempty"`
	PostID       string `json:"postId,omitempty"`
	BlockKey     string `json:"blockKey,omitempty"`
	// References lists every body block that embeds the image.
	References []catalog.ImageLocation `json:"references,omitempty"`
}

// Target is one image to download. URL is the key as it appears in the
// export; fetchURL is URL resolved against the site base.
type Target struct {
	URL      string
	Meta     Metadata
	fetchURL string
	err      error
}

// Downloaded is one successful (or skipped) image in the results file.
type Downloaded struct {
	OriginalURL   string      `json:"originalUrl"`
	Filename      string      `json:"filename"`
	Filepath      string      `json:"filepath"`
	Metadata      Metadata    `json:"metadata"`
	Dimensions    *Dimensions `json:"dimensions,omitempty"`
	Variants      []Variant   `json:"variants,omitempty"`
	SanityImageID string      `json:"sanityImageId,omitempty"`
	Skipped       bool        `json:"skipped,omitempty"`
}

// Failure is one image that could not be stored.
type Failure struct {
	URL      string   `json:"url"`
	Error    string   `json:"error"`
	Metadata Metadata `json:"metadata"`
}

// Summary aggregates a run.
type Summary struct {
	TotalAttempts int `json:"totalAttempts"`
	Successful    int `json:"successful"`
	Failed        int `json:"failed"`
	Skipped       int `json:"skipped"`
}

// Report is written to image-download-results.json.
type Report struct {
	Downloaded []Downloaded `json:"downloaded"`
	Failed     []Failure    `json:"failed"`
	Summary    Summary      `json:"summary"`
}

// SaveReport writes r into dir.
func SaveReport(dir string, r *Report) error {
	return util.WriteJSON(filepath.Join(dir, ResultsFile), r)
}

// Options configures a Pipeline.
type Options struct {
	// BaseURL resolves relative image sources.
	BaseURL string
	// Previous is the mapping from an earlier run. Entries for files that
	// are still on disk are carried over unchanged.
	Previous Mapping
}

// Pipeline downloads, normalizes and stores images one at a time.
type Pipeline struct {
	fetcher  *ingest.Fetcher
	store    *cache.Manager
	proc     *Processor
	log      zerolog.Logger
	base     *url.URL
	previous Mapping
}

// New creates a Pipeline writing into store.
func New(f *ingest.Fetcher, store *cache.Manager, proc *Processor, log zerolog.Logger, opts Options) *Pipeline {
	p := &Pipeline{
		fetcher:  f,
		store:    store,
		proc:     proc,
		log:      log,
		previous: opts.Previous,
	}
	if opts.BaseURL != "" {
		if u, err := url.Parse(opts.BaseURL); err == nil && u.IsAbs() {
			p.base = u
		}
	}
	return p
}

// Targets lists the images to fetch: image attachments first, then every
// pending image source in post bodies and main images, deduplicated by URL.
// The metadata names the first place an image was seen and references
// every body block using it.
func (p *Pipeline) Targets(attachments []catalog.Attachment, posts []catalog.Post) []Target {
	locations := catalog.ImageLocations(posts)
	seen := make(map[string]bool)
	var out []Target
	add := func(raw string, meta Metadata) {
		if raw == "" || seen[raw] {
			return
		}
		seen[raw] = true
		meta.References = locations[raw]
		t := Target{URL: raw, Meta: meta}
		t.fetchURL, t.err = p.resolve(raw)
		out = append(out, t)
	}

	for _, a := range attachments {
		if a.URL == "" || !IsImageURL(a.URL) {
			continue
		}
		add(a.URL, Metadata{AttachmentID: a.ID, Title: a.Title, Alt: a.Alt})
	}
	for _, post := range posts {
		if post.MainImage.Pending() {
			add(post.MainImage.OriginalSrc, Metadata{Alt: post.MainImage.Alt, PostID: post.ID})
		}
		for _, b := range post.Body {
			if b.Pending() {
				add(b.OriginalSrc, Metadata{Alt: b.Alt, PostID: post.ID, BlockKey: b.Key})
			}
		}
	}
	return out
}

func (p *Pipeline) resolve(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("invalid image URL: %w", err)
	}
	if u.IsAbs() {
		return u.String(), nil
	}
	if p.base == nil {
		return "", fmt.Errorf("relative image URL %q and no base URL", raw)
	}
	return p.base.ResolveReference(u).String(), nil
}

// Run processes every target sequentially. Per-image failures are
// recorded in the report and never stop the run.
func (p *Pipeline) Run(ctx context.Context, attachments []catalog.Attachment, posts []catalog.Post) (*Report, Mapping) {
	report := &Report{Downloaded: []Downloaded{}, Failed: []Failure{}}
	mapping := Mapping{}

	for _, t := range p.Targets(attachments, posts) {
		if ctx.Err() != nil {
			p.fail(report, t, ctx.Err())
			continue
		}
		d, err := p.process(ctx, t)
		if err != nil {
			p.fail(report, t, err)
			continue
		}
		report.Downloaded = append(report.Downloaded, *d)
		mapping[t.URL] = &MappingEntry{
			SanityID:   d.SanityImageID,
			Filename:   d.Filename,
			Filepath:   d.Filepath,
			Dimensions: d.Dimensions,
			Variants:   d.Variants,
			Title:      t.Meta.Title,
			Alt:        t.Meta.Alt,
		}
		if d.Skipped {
			if prev := p.previousEntry(t.URL, d.Filename); prev != nil {
				mapping[t.URL] = prev
			}
		}
	}

	report.Summary = Summary{
		TotalAttempts: len(report.Downloaded) + len(report.Failed),
		Successful:    len(report.Downloaded),
		Failed:        len(report.Failed),
	}
	for _, d := range report.Downloaded {
		if d.Skipped {
			report.Summary.Skipped++
		}
	}
	return report, mapping
}

func (p *Pipeline) fail(r *Report, t Target, err error) {
	p.log.Warn().Err(err).Str("url", t.URL).Msg("image failed")
	r.Failed = append(r.Failed, Failure{URL: t.URL, Error: err.Error(), Metadata: t.Meta})
}

func (p *Pipeline) process(ctx context.Context, t Target) (*Downloaded, error) {
	if t.err != nil {
		return nil, t.err
	}
	key := t.URL
	if !strings.Contains(key, "://") {
		key = t.fetchURL
	}
	filename := Filename(key)
	d := &Downloaded{
		OriginalURL:   t.URL,
		Filename:      filename,
		Filepath:      p.store.Path(filename),
		Metadata:      t.Meta,
		SanityImageID: AssetID(filename),
	}

	if p.store.Exists(filename) {
		p.log.Debug().Str("file", filename).Msg("skipping existing file")
		d.Skipped = true
		p.describeStored(d)
		return d, nil
	}

	dl, err := p.fetcher.Fetch(ctx, t.fetchURL)
	if err != nil {
		return nil, err
	}

	img := p.proc.Normalize(dl.Data)
	if !img.Decoded() && img.Info.Format == FormatUnknown {
		p.log.Warn().Str("url", t.URL).Msg("could not decode image, storing original bytes")
	}
	if _, err := p.store.StoreBytes(filename, img.Data); err != nil {
		return nil, fmt.Errorf("storing %s: %w", filename, err)
	}
	info := img.Info
	d.Dimensions = &info
	d.Variants = p.variants(img, filename)

	p.log.Info().
		Str("file", filename).
		Int("width", info.Width).
		Int("height", info.Height).
		Int("variants", len(d.Variants)).
		Msg("downloaded")
	return d, nil
}

func (p *Pipeline) variants(img *Processed, filename string) []Variant {
	if !img.Decoded() {
		return []Variant{}
	}
	out := []Variant{}
	for _, vs := range VariantSizes {
		data, w, h, err := p.proc.Resize(img, vs.Width)
		if err != nil {
			p.log.Warn().Err(err).Str("file", filename).Str("variant", vs.Name).Msg("variant failed")
			continue
		}
		name := VariantFilename(filename, vs.Name)
		if _, err := p.store.StoreBytes(name, data); err != nil {
			p.log.Warn().Err(err).Str("file", name).Msg("variant failed")
			continue
		}
		out = append(out, Variant{Name: vs.Name, Filename: name, Width: w, Height: h, Size: int64(len(data))})
	}
	return out
}

// describeStored fills in dimensions and variants for a file left by an
// earlier run, reading only what is on disk.
func (p *Pipeline) describeStored(d *Downloaded) {
	data, err := os.ReadFile(d.Filepath)
	if err != nil {
		return
	}
	info := Inspect(data)
	d.Dimensions = &info
	d.Variants = []Variant{}
	for _, vs := range VariantSizes {
		name := VariantFilename(d.Filename, vs.Name)
		vdata, err := os.ReadFile(p.store.Path(name))
		if err != nil {
			continue
		}
		vi := Inspect(vdata)
		d.Variants = append(d.Variants, Variant{Name: vs.Name, Filename: name, Width: vi.Width, Height: vi.Height, Size: vi.Size})
	}
}

func (p *Pipeline) previousEntry(url, filename string) *MappingEntry {
	if p.previous == nil {
		return nil
	}
	prev, ok := p.previous[url]
	if !ok || prev.Filename != filename {
		return nil
	}
	return prev
}
