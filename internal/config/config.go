package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultPath returns the default config file path. The tool runs from a
// project checkout, so the file lives in the working directory.
func DefaultPath() string {
	if p := os.Getenv("WPMIGRATE_CONFIG"); p != "" {
		return p
	}
	return "wpmigrate.yml"
}

// Load reads the config from path (or DefaultPath when empty) and the
// environment. A missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("source.export_path", "wordpress-export.xml")
	v.SetDefault("output.data_dir", filepath.Join("migration", "data"))
	v.SetDefault("output.images_dir", filepath.Join("migration", "images"))
	v.SetDefault("output.next_config", "next.config.ts")
	v.SetDefault("sanity.dataset", "production")
	v.SetDefault("sanity.api_version", "2023-05-03")
	v.SetDefault("sanity.token_env", "SANITY_API_TOKEN")
	v.SetDefault("images.timeout", 30*time.Second)
	v.SetDefault("images.user_agent", "WordPress-to-Sanity-Migration/1.0")
	v.SetDefault("images.quality", 90)
	v.SetDefault("images.variant_quality", 85)
	v.SetDefault("redirects.post_prefix", "/posts/")
	v.SetDefault("redirects.category_prefix", "/categories/")
	v.SetDefault("redirects.image_prefix", "/images/")

	v.SetEnvPrefix("WPMIGRATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The front-end's env names are the ones people already have set.
	_ = v.BindEnv("sanity.project_id", "WPMIGRATE_SANITY_PROJECT_ID", "NEXT_PUBLIC_SANITY_PROJECT_ID")
	_ = v.BindEnv("sanity.dataset", "WPMIGRATE_SANITY_DATASET", "NEXT_PUBLIC_SANITY_DATASET")

	if path == "" {
		path = DefaultPath()
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		// Not finding the config file is fine; the init command creates it.
		if !os.IsNotExist(err) {
			if _, isCfgNotFound := err.(viper.ConfigFileNotFoundError); !isCfgNotFound {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Resolve token from env (never stored in file).
	tokenEnv := cfg.Sanity.TokenEnv
	if tokenEnv == "" {
		tokenEnv = "SANITY_API_TOKEN"
	}
	cfg.Sanity.Token = os.Getenv(tokenEnv)
	if cfg.Sanity.Token == "" {
		cfg.Sanity.Token = os.Getenv("WPMIGRATE_SANITY_TOKEN")
	}

	cfg.Source.ExportPath = ExpandHome(cfg.Source.ExportPath)
	cfg.Output.DataDir = ExpandHome(cfg.Output.DataDir)
	cfg.Output.ImagesDir = ExpandHome(cfg.Output.ImagesDir)
	cfg.Output.NextConfig = ExpandHome(cfg.Output.NextConfig)

	return &cfg, nil
}

// Save writes the config to path as YAML.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = DefaultPath()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	return enc.Encode(cfg)
}

// ExpandHome expands a leading ~/ in a path.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}
