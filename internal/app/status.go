package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/wpmigrate/internal/cache"
	"github.com/blackwell-systems/wpmigrate/internal/catalog"
	"github.com/blackwell-systems/wpmigrate/internal/migrate"
	"github.com/blackwell-systems/wpmigrate/internal/tui"
)

// statusRows counts the local artifacts of earlier runs.
func statusRows() ([][]string, error) {
	b, m, err := runner.LoadArtifacts()
	if err != nil {
		return nil, err
	}
	files, err := cache.New(cfg.Output.ImagesDir).Files()
	if err != nil {
		return nil, fmt.Errorf("listing images: %w", err)
	}
	ledger, err := migrate.OpenLedger(migrate.DefaultLedgerPath(cfg.Output.DataDir))
	if err != nil {
		return nil, err
	}
	uploads, err := ledger.Entries()
	if err != nil {
		return nil, err
	}

	uploaded := 0
	for _, e := range m {
		if e.AssetID != "" {
			uploaded++
		}
	}

	rows := bundleRows(b)
	rows = append(rows,
		[]string{"referenced images", itoa(len(catalog.PendingImageSources(b.Posts)))},
		[]string{"mapped images", itoa(len(m))},
		[]string{"mapped with asset id", itoa(uploaded)},
		[]string{"files in images dir", itoa(len(files))},
		[]string{"ledger uploads", itoa(len(uploads))},
	)
	return rows, nil
}

func newStatusCmd() *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show what earlier runs produced",
		Long: `Show counts of the artifacts in the data and images directories.

With --remote the imported documents in the Sanity dataset are counted too.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			header("Local artifacts in %s", cfg.Output.DataDir)
			rows, err := statusRows()
			if err != nil {
				return err
			}
			fmt.Println(tui.Table([]string{"Artifact", "Count"}, rows))

			if !remote {
				return nil
			}
			if err := requireStore(); err != nil {
				return err
			}
			header("Documents in %s", cfg.Sanity.Dataset)
			targets, err := migrate.Cleanup(cmd.Context(), runner.Client(), false)
			if err != nil {
				return err
			}
			remoteRows := make([][]string, 0, len(targets))
			for _, t := range targets {
				remoteRows = append(remoteRows, []string{t.Type, itoa(t.Found)})
			}
			fmt.Println(tui.Table([]string{"Type", "Count"}, remoteRows))
			return nil
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "Also count imported documents in Sanity")

	return cmd
}
