package migrate

import (
	"context"
	"fmt"
)

// Cleaner is what the cleanup needs from the store.
type Cleaner interface {
	Count(ctx context.Context, filter string, params map[string]interface{}) (int, error)
	DeleteByQuery(ctx context.Context, groq string, params map[string]interface{}) (int, error)
}

// CleanupTarget is one document family removed by Cleanup.
type CleanupTarget struct {
	Type  string
	Found int
	// Deleted stays zero unless the cleanup was confirmed.
	Deleted int
}

// cleanupTypes are deleted in this order so posts go before the authors
// and categories they reference.
var cleanupTypes = []string{"post", "category", "author"}

func cleanupFilter(typ string) string {
	return fmt.Sprintf(`*[_type == "%s" && _id in path("%s-*")]`, typ, typ)
}

// Cleanup counts the imported posts, categories and authors, and deletes
// them when confirm is set. Uploaded image assets are left alone.
func Cleanup(ctx context.Context, store Cleaner, confirm bool) ([]CleanupTarget, error) {
	var out []CleanupTarget
	for _, typ := range cleanupTypes {
		filter := cleanupFilter(typ)
		n, err := store.Count(ctx, filter, nil)
		if err != nil {
			return out, fmt.Errorf("counting %s documents: %w", typ, err)
		}
		t := CleanupTarget{Type: typ, Found: n}
		if confirm && n > 0 {
			deleted, err := store.DeleteByQuery(ctx, filter, nil)
			if err != nil {
				return append(out, t), fmt.Errorf("deleting %s documents: %w", typ, err)
			}
			t.Deleted = deleted
		}
		out = append(out, t)
	}
	return out, nil
}
