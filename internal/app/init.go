package app

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/wpmigrate/internal/config"
	"github.com/blackwell-systems/wpmigrate/internal/util"
)

func newInitCmd() *cobra.Command {
	var (
		exportPath string
		projectID  string
		dataset    string
		siteURL    string
		force      bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default settings",
		Long: `Write wpmigrate.yml (or the --config path) with every setting at its
default, plus any values given as flags.

The Sanity token is never written to the file. Set it in the environment
as SANITY_API_TOKEN.`,
		Example: `  wpmigrate init --export ~/Downloads/blog.xml --project-id abc123`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := flagConfig
			if path == "" {
				path = config.DefaultPath()
			}
			if util.FileExists(path) && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			if exportPath != "" {
				cfg.Source.ExportPath = exportPath
			}
			if projectID != "" {
				cfg.Sanity.ProjectID = projectID
			}
			if dataset != "" {
				cfg.Sanity.Dataset = dataset
			}
			if siteURL != "" {
				cfg.Redirects.SiteURL = siteURL
			}

			if err := config.Save(cfg, path); err != nil {
				return fmt.Errorf("writing config: %w", err)
			}
			ok("Wrote %s", path)

			if cfg.Sanity.ProjectID == "" {
				warn("sanity.project_id is empty; set it in %s or NEXT_PUBLIC_SANITY_PROJECT_ID", path)
			}
			if !cfg.HasToken() {
				fmt.Println()
				fmt.Println("Before importing, set your token:")
				fmt.Printf("  %s\n", color.CyanString("export %s=sk...", cfg.Sanity.TokenEnv))
			}
			if _, err := os.Stat(cfg.Source.ExportPath); err != nil {
				warn("export %s not found yet", cfg.Source.ExportPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&exportPath, "export", "", "Path or URL of the WordPress export")
	cmd.Flags().StringVar(&projectID, "project-id", "", "Sanity project id")
	cmd.Flags().StringVar(&dataset, "dataset", "", "Sanity dataset")
	cmd.Flags().StringVar(&siteURL, "site-url", "", "URL of the new site")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")

	return cmd
}
