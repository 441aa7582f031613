// Package images downloads the images a WordPress export references,
// normalizes them for the web and writes resized variants next to them.
package images

import (
	"path"
	"regexp"
	"strings"

	"github.com/blackwell-systems/wpmigrate/internal/ingest"
	"github.com/blackwell-systems/wpmigrate/internal/util"
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

// imageExts are the attachment extensions treated as images.
var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
	".svg": true, ".bmp": true, ".tif": true, ".tiff": true, ".heic": true,
}

// transcodeExts are stored as JPEG, so their filename is rewritten to match.
var transcodeExts = map[string]bool{
	".bmp": true, ".tif": true, ".tiff": true, ".webp": true,
}

// IsImageURL reports whether rawURL's path ends in a known image extension.
func IsImageURL(rawURL string) bool {
	return imageExts[strings.ToLower(path.Ext(ingest.FilenameFromURL(rawURL)))]
}

// Filename derives the local filename for an image URL. The URL basename
// is used when it has an extension, otherwise image-<md5 prefix>.jpg.
// Characters outside [a-zA-Z0-9.-] become underscores.
func Filename(rawURL string) string {
	name := ingest.FilenameFromURL(rawURL)
	if name == "" || path.Ext(name) == "" {
		name = "image-" + util.MD5Hex(rawURL)[:8] + ".jpg"
	}
	name = unsafeChars.ReplaceAllString(name, "_")

	ext := path.Ext(name)
	if transcodeExts[strings.ToLower(ext)] {
		name = strings.TrimSuffix(name, ext) + ".jpg"
	}
	return name
}

// AssetID is the stable identifier recorded for a stored image.
func AssetID(filename string) string {
	return "image-" + util.MD5Hex(filename)
}

// VariantFilename names the resized copy of filename for variant name.
func VariantFilename(filename, name string) string {
	ext := path.Ext(filename)
	return strings.TrimSuffix(filename, ext) + "-" + name + ext
}
