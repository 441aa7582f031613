package portable_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/blackwell-systems/wpmigrate/internal/portable"
)

func TestPlainText(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", ""},
		{"<p>Hello</p><p>World</p>", "Hello World"},
		{"Fish &amp; chips", "Fish & chips"},
		{"<p>a</p><script>var x = 1;</script>", "a"},
		{"  lots\n\n of   space ", "lots of space"},
	}
	for _, c := range cases {
		if got := portable.PlainText(c.in); got != c.want {
			t.Errorf("PlainText(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestExcerpt_Short(t *testing.T) {
	if got := portable.Excerpt("<p>Short body</p>", 160); got != "Short body" {
		t.Errorf("Excerpt = %q", got)
	}
}

func TestExcerpt_TruncatesTo160PlusEllipsis(t *testing.T) {
	body := "<p>" + strings.Repeat("word ", 100) + "</p>"
	got := portable.Excerpt(body, 160)
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("excerpt %q missing ellipsis", got)
	}
	text := strings.TrimSuffix(got, "...")
	if n := utf8.RuneCountInString(text); n != 160 {
		t.Errorf("excerpt text length = %d, want 160", n)
	}
	if !strings.HasPrefix(portable.PlainText(body), text) {
		t.Error("excerpt is not a prefix of the stripped body")
	}
}

func TestExcerpt_CountsRunes(t *testing.T) {
	body := strings.Repeat("é", 200)
	got := portable.Excerpt(body, 160)
	if n := utf8.RuneCountInString(got); n != 163 {
		t.Errorf("rune count = %d, want 163", n)
	}
}
