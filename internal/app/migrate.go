package app

import (
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/wpmigrate/internal/migrate"
)

func newMigrateCmd() *cobra.Command {
	var opts migrate.Options

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run the full migration pipeline",
		Long: `Run every stage in order: parse the export, download images, import
into Sanity, and generate redirects.

The import stage needs SANITY_API_TOKEN. Use --skip-import to run the
other stages without it.`,
		Example: `  # Full migration
  wpmigrate migrate

  # Check the export parses, touch nothing else
  wpmigrate migrate --dry-run

  # Reuse images downloaded by an earlier run
  wpmigrate migrate --skip-images`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			header("Migrating %s", cfg.Source.ExportPath)
			sum, err := runner.Run(cmd.Context(), opts)
			if err != nil {
				return err
			}
			printSummary(sum)

			if opts.DryRun {
				ok("Dry run complete, %d posts parsed", len(sum.Bundle.Posts))
				return nil
			}
			if sum.NextConfigCreated {
				ok("Created %s", cfg.Output.NextConfig)
			}
			if sum.Import != nil && sum.Import.Errors() > 0 {
				warn("%d documents failed to import; rerun to retry them", sum.Import.Errors())
			}
			ok("Migration complete")
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.SkipImages, "skip-images", false, "Reuse the existing image mapping instead of downloading")
	cmd.Flags().BoolVar(&opts.SkipImport, "skip-import", false, "Do not write to Sanity")
	cmd.Flags().BoolVar(&opts.SkipRedirects, "skip-redirects", false, "Do not generate redirects")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Parse the export and stop")

	return cmd
}
