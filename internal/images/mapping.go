package images

import (
	"errors"
	"os"
	"path/filepath"
	"sort"

	"github.com/blackwell-systems/wpmigrate/internal/util"
)

// Artifact names written by the pipeline.
const (
	MappingFile = "image-mapping.json"
	ResultsFile = "image-download-results.json"
)

// MappingEntry is everything later stages need to know about one source
// image. AssetID stays empty until the image has been uploaded.
type MappingEntry struct {
	SanityID   string      `json:"sanityId"`
	Filename   string      `json:"filename"`
	Filepath   string      `json:"filepath"`
	Dimensions *Dimensions `json:"dimensions,omitempty"`
	Variants   []Variant   `json:"variants"`
	Title      string      `json:"title,omitempty"`
	Alt        string      `json:"alt,omitempty"`
	AssetID    string      `json:"assetId,omitempty"`
}

// Mapping joins source image URLs to their stored files. It is passed
// from the pipeline to the importer and redirect generator.
type Mapping map[string]*MappingEntry

// URLs returns the mapping keys in lexical order.
func (m Mapping) URLs() []string {
	urls := make([]string, 0, len(m))
	for u := range m {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}

// AssetID returns the uploaded asset id recorded for url, if any.
func (m Mapping) AssetID(url string) string {
	if e, ok := m[url]; ok {
		return e.AssetID
	}
	return ""
}

// LoadMapping reads image-mapping.json from dir. A missing file yields an
// empty mapping.
func LoadMapping(dir string) (Mapping, error) {
	m := Mapping{}
	err := util.ReadJSON(filepath.Join(dir, MappingFile), &m)
	if errors.Is(err, os.ErrNotExist) {
		return Mapping{}, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// SaveMapping writes image-mapping.json into dir.
func SaveMapping(dir string, m Mapping) error {
	if m == nil {
		m = Mapping{}
	}
	return util.WriteJSON(filepath.Join(dir, MappingFile), m)
}
