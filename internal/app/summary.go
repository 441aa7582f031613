package app

import (
	"fmt"
	"strconv"
	"time"

	"github.com/blackwell-systems/wpmigrate/internal/catalog"
	"github.com/blackwell-systems/wpmigrate/internal/images"
	"github.com/blackwell-systems/wpmigrate/internal/importer"
	"github.com/blackwell-systems/wpmigrate/internal/migrate"
	"github.com/blackwell-systems/wpmigrate/internal/redirects"
	"github.com/blackwell-systems/wpmigrate/internal/tui"
)

// maxListed caps how many failures are printed under a table.
const maxListed = 10

var tallyHeaders = []string{"Type", "Created", "Updated", "Skipped", "Errors"}

func itoa(n int) string { return strconv.Itoa(n) }

func tallyRow(name string, t importer.Tally) []string {
	return []string{name, itoa(t.Created), itoa(t.Updated), itoa(t.Skipped), itoa(t.Errors)}
}

func importRows(res *importer.Result) [][]string {
	return [][]string{
		tallyRow("authors", res.Authors),
		tallyRow("categories", res.Categories),
		tallyRow("images", res.Images),
		tallyRow("posts", res.Posts),
	}
}

func bundleRows(b *catalog.Bundle) [][]string {
	return [][]string{
		{"authors", itoa(len(b.Authors))},
		{"categories", itoa(len(b.Categories))},
		{"posts", itoa(len(b.Posts))},
		{"attachments", itoa(len(b.Attachments))},
		{"redirects", itoa(len(b.Redirects))},
		{"skipped posts", itoa(b.Skipped)},
	}
}

func redirectRows(t *redirects.Table) [][]string {
	s := t.Summarize()
	return [][]string{
		{"posts", itoa(s.PostRedirects)},
		{"categories", itoa(s.CategoryRedirects)},
		{"images", itoa(s.ImageRedirects)},
		{"total", itoa(s.TotalRedirects)},
	}
}

// stageRows is the one-line-per-stage overview printed after a full run.
func stageRows(sum *migrate.Summary) [][]string {
	rows := [][]string{}
	if b := sum.Bundle; b != nil {
		rows = append(rows, []string{"parse", fmt.Sprintf("%d posts, %d authors, %d categories", len(b.Posts), len(b.Authors), len(b.Categories)), itoa(b.Skipped)})
	}
	if r := sum.Images; r != nil {
		s := r.Summary
		rows = append(rows, []string{"images", fmt.Sprintf("%d downloaded, %d on disk", s.Successful-s.Skipped, s.Skipped), itoa(s.Failed)})
	}
	if res := sum.Import; res != nil {
		created := res.Authors.Created + res.Categories.Created + res.Posts.Created
		updated := res.Authors.Updated + res.Categories.Updated + res.Posts.Updated
		rows = append(rows, []string{"import", fmt.Sprintf("%d created, %d updated, %d assets", created, updated, res.Images.Created+res.Images.Skipped), itoa(res.Errors())})
	}
	if t := sum.Redirects; t != nil {
		rows = append(rows, []string{"redirects", fmt.Sprintf("%d rules", t.Len()), "0"})
	}
	return rows
}

func printBundle(b *catalog.Bundle) {
	fmt.Println(tui.Table([]string{"Entity", "Count"}, bundleRows(b)))
}

func printImages(r *images.Report) {
	s := r.Summary
	fmt.Println(tui.Table(
		[]string{"Attempted", "Successful", "Skipped", "Failed"},
		[][]string{{itoa(s.TotalAttempts), itoa(s.Successful), itoa(s.Skipped), itoa(s.Failed)}},
	))
	for i, f := range r.Failed {
		if i == maxListed {
			warn("... and %d more failures in %s", len(r.Failed)-maxListed, images.ResultsFile)
			break
		}
		fail("%s: %s", tui.Truncate(f.URL, tui.MaxCell), f.Error)
	}
}

func printImport(res *importer.Result) {
	fmt.Println(tui.Table(tallyHeaders, importRows(res)))
	if res.Unresolved > 0 {
		warn("%d image references could not be resolved and were left pointing at the old site", res.Unresolved)
	}
}

func printRedirects(t *redirects.Table) {
	fmt.Println(tui.Table([]string{"Origin", "Rules"}, redirectRows(t)))
}

func printSummary(sum *migrate.Summary) {
	header("Migration summary")
	fmt.Println(tui.Table([]string{"Stage", "Result", "Failed"}, stageRows(sum)))
	fmt.Println(tui.StyleHelp.Render(fmt.Sprintf("finished in %s", sum.Elapsed.Round(time.Millisecond))))
}
