package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/wpmigrate/internal/catalog"
	"github.com/blackwell-systems/wpmigrate/internal/images"
	"github.com/blackwell-systems/wpmigrate/internal/migrate"
	"github.com/blackwell-systems/wpmigrate/internal/redirects"
)

func newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse",
		Short: "Parse the WordPress export into JSON artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runner.CheckPrerequisites(migrate.Options{DryRun: true}); err != nil {
				return err
			}
			b, err := runner.Parse(cmd.Context())
			if err != nil {
				return err
			}
			printBundle(b)
			ok("Wrote artifacts to %s", cfg.Output.DataDir)
			return nil
		},
	}
}

// loadParsed reads the parse artifacts, failing when there are none.
func loadParsed() (*catalog.Bundle, images.Mapping, error) {
	b, m, err := runner.LoadArtifacts()
	if err != nil {
		return nil, nil, err
	}
	if len(b.Posts) == 0 && len(b.Authors) == 0 {
		return nil, nil, fmt.Errorf("no parsed data in %s (run: wpmigrate parse)", cfg.Output.DataDir)
	}
	return b, m, nil
}

func newImagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "images",
		Short: "Download and normalize every image the posts reference",
		Long: `Download every image referenced by the parsed posts and attachments.

Images already in the images directory are not downloaded again. Each
image is normalized and gets thumbnail, medium and large variants.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, _, err := loadParsed()
			if err != nil {
				return err
			}
			report, _, err := runner.Images(cmd.Context(), b)
			if err != nil {
				return err
			}
			printImages(report)
			ok("Saved %s", images.MappingFile)
			return nil
		},
	}
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Upload images and upsert documents into Sanity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireStore(); err != nil {
				return err
			}
			b, m, err := loadParsed()
			if err != nil {
				return err
			}
			res, err := runner.Import(cmd.Context(), b, m)
			if err != nil {
				return err
			}
			printImport(res)
			if n := res.Errors(); n > 0 {
				warn("%d documents failed; rerun to retry them", n)
				return nil
			}
			ok("Imported into dataset %s", cfg.Sanity.Dataset)
			return nil
		},
	}
}

func newRedirectsCmd() *cobra.Command {
	var (
		test    bool
		siteURL string
	)

	cmd := &cobra.Command{
		Use:   "redirects",
		Short: "Generate redirect rules for the new site",
		Long: `Generate redirects from old WordPress URLs to the new site and write
them as JSON, a Vercel config, an .htaccess file, and a redirects()
function in the Next.js config.

With --test every generated rule is checked against the site URL.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, m, err := loadParsed()
			if err != nil {
				return err
			}
			t, created, err := runner.Redirects(b, m)
			if err != nil {
				return err
			}
			printRedirects(t)
			if created {
				ok("Created %s", cfg.Output.NextConfig)
			} else {
				ok("Updated %s", cfg.Output.NextConfig)
			}

			if !test {
				return nil
			}
			if siteURL == "" {
				siteURL = cfg.Redirects.SiteURL
			}
			if siteURL == "" {
				siteURL = "http://localhost:3000"
			}
			v, err := redirects.Validate(t.Combined(), siteURL)
			if err != nil {
				return err
			}
			for i, p := range v.Problems {
				if i == maxListed {
					warn("... and %d more", len(v.Problems)-maxListed)
					break
				}
				fail("%s", p)
			}
			if v.Invalid > 0 {
				return fmt.Errorf("%d of %d redirects are invalid", v.Invalid, v.Valid+v.Invalid)
			}
			ok("All %d redirects are valid", v.Valid)
			return nil
		},
	}

	cmd.Flags().BoolVar(&test, "test", false, "Validate the generated redirects")
	cmd.Flags().StringVar(&siteURL, "site-url", "", "Site URL to validate against (default: redirects.site_url or http://localhost:3000)")

	return cmd
}
