package wxr_test

import (
	"strings"
	"testing"

	"github.com/blackwell-systems/wpmigrate/internal/wxr"
)

func TestSlugify(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Hello World", "hello-world"},
		{"  --Leading and trailing--  ", "leading-and-trailing"},
		{"Don't Stop!!", "don-t-stop"},
		{"C++ & Go: 2024", "c-go-2024"},
		{"already-a-slug", "already-a-slug"},
		{"Ünïcödé", "n-c-d"},
		{"", ""},
		{"!!!", ""},
	}
	for _, c := range cases {
		if got := wxr.Slugify(c.in); got != c.want {
			t.Errorf("Slugify(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSlugify_Truncates(t *testing.T) {
	long := strings.Repeat("abcd ", 100)
	got := wxr.Slugify(long)
	if len(got) > 200 {
		t.Errorf("len = %d, want <= 200", len(got))
	}
	if strings.HasSuffix(got, "-") || strings.HasPrefix(got, "-") {
		t.Errorf("slug %q has edge hyphen after truncation", got)
	}
}
