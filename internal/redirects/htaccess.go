package redirects

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/blackwell-systems/wpmigrate/internal/catalog"
	"github.com/blackwell-systems/wpmigrate/internal/util"
)

// namedParam matches :name and :name* path parameters.
var namedParam = regexp.MustCompile(`:(\w+)\*?`)

const htaccessHeader = `# WordPress to Next.js Migration Redirects
# Generated automatically by wpmigrate

# Enable rewrite engine
RewriteEngine On

# WordPress post redirects
`

// Htaccess renders Apache rewrite rules for rs. Named parameters become
// capture groups in the pattern and backreferences in the target. A
// /?key=value source is matched on the query string.
func Htaccess(rs []catalog.Redirect) string {
	var b strings.Builder
	b.WriteString(htaccessHeader)
	for _, r := range rs {
		desc := r.Description
		if desc == "" {
			desc = "Redirect"
		}
		fmt.Fprintf(&b, "# %s\n", desc)

		flags := fmt.Sprintf("[R=%d,L]", r.StatusCode())
		path, query, hasQuery := strings.Cut(r.Source, "?")
		pattern, dst := rewritePair(strings.TrimPrefix(path, "/"), r.Destination)

		if hasQuery {
			fmt.Fprintf(&b, "RewriteCond %%{QUERY_STRING} ^%s$\n", literal(query, false))
			fmt.Fprintf(&b, "RewriteRule ^%s$ %s? %s\n\n", pattern, dst, flags)
			continue
		}
		fmt.Fprintf(&b, "RewriteRule ^%s$ %s %s\n\n", pattern, dst, flags)
	}
	return b.String()
}

// rewritePair turns each source parameter into (.+) and each matching
// destination parameter into its $N backreference. The literal parts of
// the source are quoted so they only match themselves.
func rewritePair(src, dst string) (string, string) {
	index := make(map[string]int)
	var pattern strings.Builder
	last := 0
	for _, loc := range namedParam.FindAllStringIndex(src, -1) {
		pattern.WriteString(literal(src[last:loc[0]], true))
		index[paramName(src[loc[0]:loc[1]])] = len(index) + 1
		pattern.WriteString("(.+)")
		last = loc[1]
	}
	pattern.WriteString(literal(src[last:], true))

	target := namedParam.ReplaceAllStringFunc(dst, func(m string) string {
		if i, ok := index[paramName(m)]; ok {
			return "$" + strconv.Itoa(i)
		}
		return m
	})
	return pattern.String(), target
}

// literal quotes s for a rewrite pattern. RewriteRule matches the decoded
// URL path, so path segments are percent-decoded first; the query string
// is matched as sent. Whitespace is written as a \xNN escape because a
// bare space would end the pattern argument.
func literal(s string, decode bool) string {
	if decode {
		if d, err := url.PathUnescape(s); err == nil {
			s = d
		}
	}
	var b strings.Builder
	for _, r := range regexp.QuoteMeta(s) {
		if unicode.IsSpace(r) && r < utf8.RuneSelf {
			fmt.Fprintf(&b, `\x%02x`, r)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func paramName(m string) string {
	return strings.TrimSuffix(strings.TrimPrefix(m, ":"), "*")
}

// WriteHtaccess writes Htaccess(rs) to path.
func WriteHtaccess(path string, rs []catalog.Redirect) error {
	return util.WriteFileAtomic(path, []byte(Htaccess(rs)))
}
