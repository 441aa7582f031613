package redirects

import (
	"path/filepath"

	"github.com/blackwell-systems/wpmigrate/internal/catalog"
	"github.com/blackwell-systems/wpmigrate/internal/util"
)

// Artifact names written into the data directory.
const (
	BundleFile   = "all-redirects.json"
	VercelFile   = "vercel-redirects.json"
	HtaccessFile = ".htaccess"
)

// Summary counts a table by origin.
type Summary struct {
	TotalRedirects    int `json:"totalRedirects"`
	PostRedirects     int `json:"postRedirects"`
	CategoryRedirects int `json:"categoryRedirects"`
	ImageRedirects    int `json:"imageRedirects"`
}

// Summarize counts t.
func (t *Table) Summarize() Summary {
	return Summary{
		TotalRedirects:    t.Len(),
		PostRedirects:     len(t.Posts),
		CategoryRedirects: len(t.Categories),
		ImageRedirects:    len(t.Images),
	}
}

// Bundle is the all-redirects.json document.
type Bundle struct {
	Posts      []catalog.Redirect `json:"posts"`
	Categories []catalog.Redirect `json:"categories"`
	Images     []catalog.Redirect `json:"images"`
	Combined   []catalog.Redirect `json:"combined"`
	Summary    Summary            `json:"summary"`
}

// WriteBundle writes the grouped and combined table to path.
func WriteBundle(path string, t *Table) error {
	return util.WriteJSON(path, Bundle{
		Posts:      nonNil(t.Posts),
		Categories: nonNil(t.Categories),
		Images:     nonNil(t.Images),
		Combined:   t.Combined(),
		Summary:    t.Summarize(),
	})
}

// WriteAll writes the bundle, Vercel and Apache files into dataDir and
// updates the Next.js config at nextConfig. It reports whether the Next.js
// config was created.
func WriteAll(dataDir, nextConfig string, t *Table) (bool, error) {
	combined := t.Combined()
	if err := WriteBundle(filepath.Join(dataDir, BundleFile), t); err != nil {
		return false, err
	}
	if err := WriteVercel(filepath.Join(dataDir, VercelFile), combined); err != nil {
		return false, err
	}
	if err := WriteHtaccess(filepath.Join(dataDir, HtaccessFile), combined); err != nil {
		return false, err
	}
	return WriteNextConfig(nextConfig, combined)
}

func nonNil(rs []catalog.Redirect) []catalog.Redirect {
	if rs == nil {
		return []catalog.Redirect{}
	}
	return rs
}
