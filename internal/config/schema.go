package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the top-level wpmigrate configuration.
type Config struct {
	Source    SourceConfig    `mapstructure:"source" yaml:"source"`
	Output    OutputConfig    `mapstructure:"output" yaml:"output"`
	Sanity    SanityConfig    `mapstructure:"sanity" yaml:"sanity"`
	Images    ImagesConfig    `mapstructure:"images" yaml:"images"`
	Redirects RedirectsConfig `mapstructure:"redirects" yaml:"redirects"`
}

// SourceConfig locates the WordPress export.
type SourceConfig struct {
	ExportPath string `mapstructure:"export_path" yaml:"export_path"`
	// BaseURL resolves relative <img src> values. Empty means the
	// channel link from the export.
	BaseURL string `mapstructure:"base_url" yaml:"base_url,omitempty"`
}

// OutputConfig holds the local artifact locations.
type OutputConfig struct {
	DataDir    string `mapstructure:"data_dir" yaml:"data_dir"`
	ImagesDir  string `mapstructure:"images_dir" yaml:"images_dir"`
	NextConfig string `mapstructure:"next_config" yaml:"next_config"`
}

// SanityConfig holds content store connection settings.
type SanityConfig struct {
	ProjectID  string `mapstructure:"project_id" yaml:"project_id"`
	Dataset    string `mapstructure:"dataset" yaml:"dataset"`
	APIVersion string `mapstructure:"api_version" yaml:"api_version"`
	APIHost    string `mapstructure:"api_host" yaml:"api_host,omitempty"`
	TokenEnv   string `mapstructure:"token_env" yaml:"token_env"`
	Token      string `mapstructure:"-" yaml:"-"` // resolved at runtime, never written
}

// ImagesConfig tunes the asset pipeline.
type ImagesConfig struct {
	Timeout        time.Duration `mapstructure:"timeout" yaml:"timeout"`
	UserAgent      string        `mapstructure:"user_agent" yaml:"user_agent"`
	Quality        int           `mapstructure:"quality" yaml:"quality"`
	VariantQuality int           `mapstructure:"variant_quality" yaml:"variant_quality"`
}

// RedirectsConfig holds the new site's URL layout.
type RedirectsConfig struct {
	PostPrefix     string `mapstructure:"post_prefix" yaml:"post_prefix"`
	CategoryPrefix string `mapstructure:"category_prefix" yaml:"category_prefix"`
	ImagePrefix    string `mapstructure:"image_prefix" yaml:"image_prefix"`
	SiteURL        string `mapstructure:"site_url" yaml:"site_url,omitempty"`
}

// Validate reports every missing or out-of-range setting at once.
// requireStore adds the checks only the import and cleanup stages need.
func (c *Config) Validate(requireStore bool) error {
	var problems []string

	if c.Source.ExportPath == "" {
		problems = append(problems, "source.export_path is empty")
	}
	if c.Output.DataDir == "" {
		problems = append(problems, "output.data_dir is empty")
	}
	if c.Output.ImagesDir == "" {
		problems = append(problems, "output.images_dir is empty")
	}
	if c.Images.Quality < 1 || c.Images.Quality > 100 {
		problems = append(problems, fmt.Sprintf("images.quality %d out of range 1-100", c.Images.Quality))
	}
	if c.Images.VariantQuality < 1 || c.Images.VariantQuality > 100 {
		problems = append(problems, fmt.Sprintf("images.variant_quality %d out of range 1-100", c.Images.VariantQuality))
	}
	if c.Images.Timeout <= 0 {
		problems = append(problems, "images.timeout must be positive")
	}

	if requireStore {
		if c.Sanity.ProjectID == "" {
			problems = append(problems, "sanity.project_id is empty (set NEXT_PUBLIC_SANITY_PROJECT_ID)")
		}
		if c.Sanity.Dataset == "" {
			problems = append(problems, "sanity.dataset is empty")
		}
		if c.Sanity.Token == "" {
			problems = append(problems, fmt.Sprintf("no store token found (set %s)", c.Sanity.TokenEnv))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// HasToken reports whether a store credential was resolved.
func (c *Config) HasToken() bool {
	return c.Sanity.Token != ""
}
