package redirects

import (
	"github.com/blackwell-systems/wpmigrate/internal/catalog"
	"github.com/blackwell-systems/wpmigrate/internal/util"
)

type vercelRedirect struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	StatusCode  int    `json:"statusCode"`
}

// WriteVercel writes rs in vercel.json's redirects shape.
func WriteVercel(path string, rs []catalog.Redirect) error {
	out := struct {
		Redirects []vercelRedirect `json:"redirects"`
	}{Redirects: make([]vercelRedirect, 0, len(rs))}
	for _, r := range rs {
		out.Redirects = append(out.Redirects, vercelRedirect{
			Source:      r.Source,
			Destination: r.Destination,
			StatusCode:  r.StatusCode(),
		})
	}
	return util.WriteJSON(path, out)
}
