package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/wpmigrate/internal/migrate"
	"github.com/blackwell-systems/wpmigrate/internal/tui"
)

func cleanupRows(targets []migrate.CleanupTarget) [][]string {
	rows := make([][]string, 0, len(targets))
	for _, t := range targets {
		rows = append(rows, []string{t.Type, itoa(t.Found), itoa(t.Deleted)})
	}
	return rows
}

func newCleanupCmd() *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete imported posts, categories and authors from Sanity",
		Long: `Delete every document the import created: posts, categories and
authors whose ids carry the import prefixes. Uploaded image assets are kept.

Without --confirm nothing is deleted; the command only reports what would
be removed.`,
		Example: `  # See what would be deleted
  wpmigrate cleanup

  # Delete it
  wpmigrate cleanup --confirm`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireStore(); err != nil {
				return err
			}
			if confirm {
				header("Deleting imported documents from %s", cfg.Sanity.Dataset)
			} else {
				header("Imported documents in %s", cfg.Sanity.Dataset)
			}

			targets, err := migrate.Cleanup(cmd.Context(), runner.Client(), confirm)
			if len(targets) > 0 {
				printCleanup(targets)
			}
			if err != nil {
				return err
			}

			if !confirm {
				warn("Nothing deleted. Rerun with --confirm to delete these documents.")
				return nil
			}
			ok("Cleanup complete")
			return nil
		},
	}

	cmd.Flags().BoolVar(&confirm, "confirm", false, "Actually delete the documents")

	return cmd
}

func printCleanup(targets []migrate.CleanupTarget) {
	fmt.Println(tui.Table([]string{"Type", "Found", "Deleted"}, cleanupRows(targets)))
}
