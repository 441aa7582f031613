package importer

import (
	"context"

	"github.com/blackwell-systems/wpmigrate/internal/catalog"
	"github.com/blackwell-systems/wpmigrate/internal/images"
	"github.com/blackwell-systems/wpmigrate/internal/portable"
)

// ResolveImages returns a copy of post whose pending images point at
// uploaded assets where one can be found, and the number that could not.
// The caller's post is not modified.
func (im *Importer) ResolveImages(ctx context.Context, post catalog.Post, mapping images.Mapping) (catalog.Post, int) {
	unresolved := 0

	if post.MainImage.Pending() {
		img := *post.MainImage
		if id := im.assetFor(ctx, post.ID, img.OriginalSrc, mapping); id != "" {
			img.Resolve(id)
		} else {
			unresolved++
		}
		post.MainImage = &img
	}

	body := make([]portable.Block, len(post.Body))
	copy(body, post.Body)
	for i := range body {
		b := &body[i]
		if !b.Pending() {
			continue
		}
		if id := im.assetFor(ctx, post.ID, b.OriginalSrc, mapping); id != "" {
			b.Resolve(id)
			continue
		}
		unresolved++
	}
	post.Body = body
	return post, unresolved
}

// assetFor looks up the uploaded asset for src: first the id recorded at
// upload, then a store query by the stored filename.
func (im *Importer) assetFor(ctx context.Context, postID, src string, mapping images.Mapping) string {
	entry, ok := mapping[src]
	if !ok {
		im.log.Debug().Str("post_id", postID).Str("src", src).Msg("image not in mapping")
		return ""
	}
	if entry.AssetID != "" {
		return entry.AssetID
	}
	id, err := im.store.FindImageAsset(ctx, entry.Filename)
	if err != nil {
		im.log.Warn().Err(err).Str("post_id", postID).Str("file", entry.Filename).Msg("asset lookup failed")
		return ""
	}
	if id == "" {
		im.log.Warn().Str("post_id", postID).Str("file", entry.Filename).Msg("no uploaded asset for image")
	}
	return id
}
