package redirects

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/blackwell-systems/wpmigrate/internal/catalog"
	"github.com/blackwell-systems/wpmigrate/internal/util"
)

const redirectsMarker = "async redirects()"

var configDecl = regexp.MustCompile(`(?:const|let|var)\s+nextConfig\b[^=]*=\s*\{`)

const freshNextConfig = `import type { NextConfig } from "next";

const nextConfig: NextConfig = {
  typedRoutes: true,
  typescript: {
    ignoreBuildErrors: false,
  },
  eslint: {
    dirs: ['src'],
  },
%s
};

export default nextConfig;
`

// RedirectsCode renders the Next.js redirects() method for rs.
func RedirectsCode(rs []catalog.Redirect) string {
	var b strings.Builder
	b.WriteString("  async redirects() {\n    return [\n")
	for i, r := range rs {
		fmt.Fprintf(&b, "      {\n        source: %s,\n        destination: %s,\n        permanent: %t\n      }",
			jsString(r.Source), jsString(r.Destination), r.Permanent)
		if i < len(rs)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("    ];\n  }")
	return b.String()
}

// SpliceNextConfig replaces the redirects() method in a Next.js config, or
// adds one as the last property of the nextConfig object.
func SpliceNextConfig(content string, rs []catalog.Redirect) (string, error) {
	code := RedirectsCode(rs)

	if idx := strings.Index(content, redirectsMarker); idx >= 0 {
		open := strings.Index(content[idx:], "{")
		if open < 0 {
			return "", errors.New("redirects() has no body")
		}
		end := matchBrace(content, idx+open)
		if end < 0 {
			return "", errors.New("unbalanced braces in redirects()")
		}
		return content[:idx] + strings.TrimLeft(code, " ") + content[end+1:], nil
	}

	closeAt := -1
	if loc := configDecl.FindStringIndex(content); loc != nil {
		closeAt = matchBrace(content, loc[1]-1)
	}
	if closeAt < 0 {
		closeAt = strings.LastIndex(content, "}")
	}
	if closeAt < 0 {
		return "", errors.New("no config object found")
	}

	head := strings.TrimRight(content[:closeAt], " \t\r\n")
	if !strings.HasSuffix(head, "{") && !strings.HasSuffix(head, ",") {
		head += ","
	}
	return head + "\n" + code + "\n" + content[closeAt:], nil
}

// WriteNextConfig updates the config at path with rs, creating a fresh
// config when the file does not exist. It reports whether it created one.
func WriteNextConfig(path string, rs []catalog.Redirect) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		content := fmt.Sprintf(freshNextConfig, RedirectsCode(rs))
		return true, util.WriteFileAtomic(path, []byte(content))
	}
	if err != nil {
		return false, err
	}
	content, err := SpliceNextConfig(string(data), rs)
	if err != nil {
		return false, fmt.Errorf("updating %s: %w", path, err)
	}
	return false, util.WriteFileAtomic(path, []byte(content))
}

// matchBrace returns the index of the brace closing the one at open,
// skipping string literals and comments, or -1.
func matchBrace(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch c := s[i]; c {
		case '"', '\'', '`':
			i = skipString(s, i)
			if i < 0 {
				return -1
			}
		case '/':
			if i+1 < len(s) && s[i+1] == '/' {
				nl := strings.IndexByte(s[i:], '\n')
				if nl < 0 {
					return -1
				}
				i += nl
			} else if i+1 < len(s) && s[i+1] == '*' {
				end := strings.Index(s[i+2:], "*/")
				if end < 0 {
					return -1
				}
				i += end + 3
			}
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func skipString(s string, start int) int {
	quote := s[start]
	for i := start + 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case quote:
			return i
		}
	}
	return -1
}

func jsString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`)
	return "'" + r.Replace(s) + "'"
}
