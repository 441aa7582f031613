// Package migrate runs the WordPress to Sanity pipeline: parse, images,
// import and redirects, each stage reading the artifacts of the last.
package migrate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/blackwell-systems/wpmigrate/internal/cache"
	"github.com/blackwell-systems/wpmigrate/internal/catalog"
	"github.com/blackwell-systems/wpmigrate/internal/config"
	"github.com/blackwell-systems/wpmigrate/internal/images"
	"github.com/blackwell-systems/wpmigrate/internal/importer"
	"github.com/blackwell-systems/wpmigrate/internal/ingest"
	"github.com/blackwell-systems/wpmigrate/internal/redirects"
	"github.com/blackwell-systems/wpmigrate/internal/sanity"
	"github.com/blackwell-systems/wpmigrate/internal/wxr"
)

// Fatal prerequisite failures.
var (
	ErrExportMissing = errors.New("WordPress export not found")
	ErrNoToken       = errors.New("no Sanity token: set SANITY_API_TOKEN or pass --skip-import")
)

// Options selects which stages Run performs.
type Options struct {
	SkipImages    bool
	SkipImport    bool
	SkipRedirects bool
	// DryRun parses the export and stops.
	DryRun bool
}

// Summary collects the outcome of each stage that ran.
type Summary struct {
	Bundle            *catalog.Bundle
	Images            *images.Report
	Import            *importer.Result
	Redirects         *redirects.Table
	NextConfigCreated bool
	Elapsed           time.Duration
}

// Store is everything the stages need from the content store.
type Store interface {
	importer.Store
	Cleaner
}

// Runner executes pipeline stages against one configuration.
type Runner struct {
	cfg *config.Config
	log zerolog.Logger

	// Store replaces the Sanity client built from the config.
	Store Store
}

// NewRunner creates a Runner.
func NewRunner(cfg *config.Config, log zerolog.Logger) *Runner {
	return &Runner{cfg: cfg, log: log}
}

// Config returns the runner's configuration.
func (r *Runner) Config() *config.Config { return r.cfg }

func (r *Runner) fetcher() *ingest.Fetcher {
	return ingest.NewFetcher(r.cfg.Images.Timeout, r.cfg.Images.UserAgent)
}

// Client returns the configured store, building a Sanity client if none
// was injected.
func (r *Runner) Client() Store {
	if r.Store != nil {
		return r.Store
	}
	s := r.cfg.Sanity
	return sanity.New(sanity.Options{
		ProjectID:  s.ProjectID,
		Dataset:    s.Dataset,
		APIVersion: s.APIVersion,
		APIHost:    s.APIHost,
		Token:      s.Token,
	})
}

// CheckPrerequisites fails fast on a missing export file, or a missing
// token when the import stage will run.
func (r *Runner) CheckPrerequisites(opts Options) error {
	needStore := !opts.SkipImport && !opts.DryRun
	if err := r.cfg.Validate(false); err != nil {
		return err
	}
	if err := r.checkExport(); err != nil {
		return err
	}
	if needStore && r.Store == nil {
		if !r.cfg.HasToken() {
			return ErrNoToken
		}
		return r.cfg.Validate(true)
	}
	return nil
}

func (r *Runner) checkExport() error {
	p := r.cfg.Source.ExportPath
	if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return nil
	}
	fi, err := os.Stat(config.ExpandHome(p))
	if err != nil || fi.IsDir() {
		return fmt.Errorf("%w: %s", ErrExportMissing, p)
	}
	return nil
}

// Run performs the stages opts selects. A failing stage aborts the run;
// per-item failures inside a stage do not.
func (r *Runner) Run(ctx context.Context, opts Options) (*Summary, error) {
	start := time.Now()
	if err := r.CheckPrerequisites(opts); err != nil {
		return nil, err
	}

	sum := &Summary{}
	b, err := r.Parse(ctx)
	if err != nil {
		return nil, err
	}
	sum.Bundle = b
	if opts.DryRun {
		r.log.Info().Msg("dry run, stopping after parse")
		sum.Elapsed = time.Since(start)
		return sum, nil
	}

	mapping := images.Mapping{}
	if opts.SkipImages {
		r.log.Info().Msg("skipping image download")
		if mapping, err = images.LoadMapping(r.cfg.Output.DataDir); err != nil {
			return nil, err
		}
	} else {
		sum.Images, mapping, err = r.Images(ctx, b)
		if err != nil {
			return nil, err
		}
	}

	if opts.SkipImport {
		r.log.Info().Msg("skipping store import")
	} else {
		if sum.Import, err = r.Import(ctx, b, mapping); err != nil {
			return nil, err
		}
	}

	if opts.SkipRedirects {
		r.log.Info().Msg("skipping redirect generation")
	} else {
		if sum.Redirects, sum.NextConfigCreated, err = r.Redirects(b, mapping); err != nil {
			return nil, err
		}
	}

	sum.Elapsed = time.Since(start)
	return sum, nil
}

// Parse reads the export and writes the entity artifacts.
func (r *Runner) Parse(ctx context.Context) (*catalog.Bundle, error) {
	src, err := ingest.Resolve(ctx, config.ExpandHome(r.cfg.Source.ExportPath), r.fetcher())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExportMissing, err)
	}
	rc, err := src.Open()
	if err != nil {
		return nil, fmt.Errorf("opening export: %w", err)
	}
	defer func() { _ = rc.Close() }()

	p := wxr.New(r.log)
	p.PostPrefix = r.cfg.Redirects.PostPrefix
	b, err := p.Parse(rc)
	if err != nil {
		return nil, err
	}
	if err := catalog.Save(r.cfg.Output.DataDir, b); err != nil {
		return nil, fmt.Errorf("saving parsed data: %w", err)
	}
	return b, nil
}

// Images downloads every referenced image and writes the mapping and
// results artifacts.
func (r *Runner) Images(ctx context.Context, b *catalog.Bundle) (*images.Report, images.Mapping, error) {
	dataDir := r.cfg.Output.DataDir
	prev, err := images.LoadMapping(dataDir)
	if err != nil {
		return nil, nil, err
	}

	base := r.cfg.Source.BaseURL
	if base == "" {
		base = b.Site.Link
	}
	p := images.New(
		r.fetcher(),
		cache.New(r.cfg.Output.ImagesDir),
		&images.Processor{Quality: r.cfg.Images.Quality, VariantQuality: r.cfg.Images.VariantQuality},
		r.log.With().Str("stage", "images").Logger(),
		images.Options{BaseURL: base, Previous: prev},
	)
	report, mapping := p.Run(ctx, b.Attachments, b.Posts)

	if err := images.SaveMapping(dataDir, mapping); err != nil {
		return nil, nil, err
	}
	if err := images.SaveReport(dataDir, report); err != nil {
		return nil, nil, err
	}
	return report, mapping, nil
}

// Import uploads images and upserts documents, then saves the mapping
// with the asset ids it learned.
func (r *Runner) Import(ctx context.Context, b *catalog.Bundle, mapping images.Mapping) (*importer.Result, error) {
	ledger, err := OpenLedger(DefaultLedgerPath(r.cfg.Output.DataDir))
	if err != nil {
		return nil, err
	}
	res, err := importer.New(r.Client(), ledger, r.log).Run(ctx, b, mapping)
	if err != nil {
		return nil, err
	}
	if err := ledger.Err(); err != nil {
		r.log.Warn().Err(err).Str("path", ledger.Path()).Msg("upload ledger unreadable")
	}
	if err := images.SaveMapping(r.cfg.Output.DataDir, mapping); err != nil {
		return nil, err
	}
	return res, nil
}

// Redirects generates the redirect table and writes every format. It
// reports whether a new Next.js config was created.
func (r *Runner) Redirects(b *catalog.Bundle, mapping images.Mapping) (*redirects.Table, bool, error) {
	rc := r.cfg.Redirects
	g := redirects.New(r.log, redirects.Prefixes{
		Post:     rc.PostPrefix,
		Category: rc.CategoryPrefix,
		Image:    rc.ImagePrefix,
	})
	t := g.Generate(redirects.Input{
		Redirects:  b.Redirects,
		Posts:      b.Posts,
		Categories: b.Categories,
		Mapping:    mapping,
	})
	created, err := redirects.WriteAll(r.cfg.Output.DataDir, r.cfg.Output.NextConfig, t)
	if err != nil {
		return nil, false, fmt.Errorf("writing redirects: %w", err)
	}
	return t, created, nil
}

// LoadArtifacts reads a previous parse and image run from the data
// directory, for running a single stage.
func (r *Runner) LoadArtifacts() (*catalog.Bundle, images.Mapping, error) {
	b, err := catalog.Load(r.cfg.Output.DataDir)
	if err != nil {
		return nil, nil, err
	}
	m, err := images.LoadMapping(r.cfg.Output.DataDir)
	if err != nil {
		return nil, nil, err
	}
	return b, m, nil
}
