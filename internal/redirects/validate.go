package redirects

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/blackwell-systems/wpmigrate/internal/catalog"
)

// Validation is the outcome of checking a redirect list.
type Validation struct {
	Valid    int
	Invalid  int
	Problems []string
}

// Validate checks that every source is a site-relative path and that every
// source and destination resolves against base.
func Validate(rs []catalog.Redirect, base string) (*Validation, error) {
	b, err := url.Parse(base)
	if err != nil || !b.IsAbs() {
		return nil, fmt.Errorf("invalid site URL %q", base)
	}
	v := &Validation{}
	for _, r := range rs {
		if problem := check(b, r); problem != "" {
			v.Invalid++
			v.Problems = append(v.Problems, fmt.Sprintf("%s -> %s: %s", r.Source, r.Destination, problem))
			continue
		}
		v.Valid++
	}
	return v, nil
}

func check(base *url.URL, r catalog.Redirect) string {
	if !strings.HasPrefix(r.Source, "/") {
		return "source is not a site path"
	}
	for _, s := range []string{r.Source, r.Destination} {
		if s == "" {
			return "empty URL"
		}
		if strings.ContainsAny(s, " \t\r\n") {
			return fmt.Sprintf("%q contains whitespace", s)
		}
		if _, err := base.Parse(s); err != nil {
			return err.Error()
		}
	}
	return ""
}
