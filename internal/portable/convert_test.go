package portable_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/blackwell-systems/wpmigrate/internal/portable"
)

func mustConvert(t *testing.T, markup string) []portable.Block {
	t.Helper()
	blocks, err := portable.Convert(markup)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	return blocks
}

func TestConvert_Empty(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\t\n"} {
		blocks := mustConvert(t, in)
		if blocks == nil || len(blocks) != 0 {
			t.Errorf("Convert(%q) = %v, want empty non-nil slice", in, blocks)
		}
	}
}

func TestConvert_RoundTripShapes(t *testing.T) {
	markup := `<p>Intro text</p>
<h2>Heading</h2>
<ul>
  <li>One</li>
  <li>Two</li>
</ul>
<img src="http://old.site/a.jpg" alt="A picture">`

	blocks := mustConvert(t, markup)
	if len(blocks) != 5 {
		t.Fatalf("got %d blocks, want 5: %+v", len(blocks), blocks)
	}

	want := []struct {
		typ, style, listItem string
	}{
		{portable.TypeBlock, "normal", ""},
		{portable.TypeBlock, "h2", ""},
		{portable.TypeBlock, "normal", "bullet"},
		{portable.TypeBlock, "normal", "bullet"},
		{portable.TypeImage, "", ""},
	}
	for i, w := range want {
		b := blocks[i]
		if b.Type != w.typ || b.Style != w.style || b.ListItem != w.listItem {
			t.Errorf("block %d = {%s %s %s}, want {%s %s %s}",
				i, b.Type, b.Style, b.ListItem, w.typ, w.style, w.listItem)
		}
	}

	if got := blocks[2].Text(); got != "One" {
		t.Errorf("first item text = %q, want One", got)
	}
	img := blocks[4]
	if img.OriginalSrc != "http://old.site/a.jpg" || img.Alt != "A picture" {
		t.Errorf("image = %+v", img)
	}
	if len(img.Children) != 0 {
		t.Error("image block carries children")
	}
	if !img.Pending() {
		t.Error("new image block should be pending")
	}
}

func TestConvert_KeysUnique(t *testing.T) {
	blocks := mustConvert(t, `<p>a <em>b</em> c</p><p>d</p><img src="x.png">`)
	seen := map[string]bool{}
	for _, b := range blocks {
		if b.Key == "" || seen[b.Key] {
			t.Errorf("block key %q empty or duplicated", b.Key)
		}
		seen[b.Key] = true
		for _, sp := range b.Children {
			if sp.Key == "" || seen[sp.Key] {
				t.Errorf("span key %q empty or duplicated", sp.Key)
			}
			seen[sp.Key] = true
		}
	}
}

func TestConvert_BareTextStartsImplicitBlock(t *testing.T) {
	blocks := mustConvert(t, "Hello <b>world</b> again")
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(blocks))
	}
	b := blocks[0]
	if b.Style != "normal" {
		t.Errorf("style = %q, want normal", b.Style)
	}
	if got := b.Text(); got != "Hello world again" {
		t.Errorf("text = %q", got)
	}
	if len(b.Children) != 3 {
		t.Fatalf("got %d spans, want 3", len(b.Children))
	}
	if len(b.Children[1].Marks) != 1 || b.Children[1].Marks[0] != "strong" {
		t.Errorf("bold span marks = %v", b.Children[1].Marks)
	}
}

func TestConvert_BlankLinesSplitBareText(t *testing.T) {
	blocks := mustConvert(t, "First paragraph.\n\nSecond paragraph.")
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(blocks))
	}
	if blocks[1].Text() != "Second paragraph." {
		t.Errorf("second = %q", blocks[1].Text())
	}
}

func TestConvert_TransparentContainers(t *testing.T) {
	blocks := mustConvert(t, `<div><section><p>Inside</p></section></div>`)
	if len(blocks) != 1 || blocks[0].Text() != "Inside" {
		t.Fatalf("blocks = %+v", blocks)
	}
}

func TestConvert_ImageInsideParagraph(t *testing.T) {
	blocks := mustConvert(t, `<p>Before <img src="/a.jpg"> after</p>`)
	if len(blocks) != 3 {
		t.Fatalf("got %d blocks, want 3", len(blocks))
	}
	if blocks[0].Text() != "Before" || !blocks[1].IsImage() || blocks[2].Text() != "after" {
		t.Errorf("order wrong: %q, %s, %q", blocks[0].Text(), blocks[1].Type, blocks[2].Text())
	}
}

func TestConvert_EmptyParagraphDropped(t *testing.T) {
	blocks := mustConvert(t, `<p><img src="a.jpg"></p><p>  </p>`)
	if len(blocks) != 1 || !blocks[0].IsImage() {
		t.Fatalf("blocks = %+v", blocks)
	}
}

func TestConvert_NestedListLevels(t *testing.T) {
	blocks := mustConvert(t, `<ol><li>One<ul><li>Sub</li></ul></li><li>Two</li></ol>`)
	if len(blocks) != 3 {
		t.Fatalf("got %d blocks, want 3", len(blocks))
	}
	cases := []struct {
		text, item string
		level      int
	}{
		{"One", "number", 1},
		{"Sub", "bullet", 2},
		{"Two", "number", 1},
	}
	for i, c := range cases {
		b := blocks[i]
		if b.Text() != c.text || b.ListItem != c.item || b.Level != c.level {
			t.Errorf("block %d = {%q %s %d}, want {%q %s %d}",
				i, b.Text(), b.ListItem, b.Level, c.text, c.item, c.level)
		}
	}
}

func TestConvert_TextAfterNestedListKeepsOrder(t *testing.T) {
	blocks := mustConvert(t, `<ul><li>one<ul><li>inner</li></ul>tail</li><li>two</li></ul>`)
	cases := []struct {
		text  string
		level int
	}{
		{"one", 1},
		{"inner", 2},
		{"tail", 1},
		{"two", 1},
	}
	if len(blocks) != len(cases) {
		t.Fatalf("got %d blocks, want %d", len(blocks), len(cases))
	}
	for i, c := range cases {
		b := blocks[i]
		if b.Text() != c.text || b.ListItem != "bullet" || b.Level != c.level {
			t.Errorf("block %d = {%q %s %d}, want {%q bullet %d}",
				i, b.Text(), b.ListItem, b.Level, c.text, c.level)
		}
	}
}

func TestConvert_ParagraphInsideListItem(t *testing.T) {
	blocks := mustConvert(t, `<ul><li><p>Item</p></li></ul>`)
	if len(blocks) != 1 || blocks[0].ListItem != "bullet" || blocks[0].Text() != "Item" {
		t.Fatalf("blocks = %+v", blocks)
	}
}

func TestConvert_Blockquote(t *testing.T) {
	blocks := mustConvert(t, `<blockquote><p>Quoted</p></blockquote>`)
	if len(blocks) != 1 || blocks[0].Style != "blockquote" {
		t.Fatalf("blocks = %+v", blocks)
	}
}

func TestConvert_LinkMarkDef(t *testing.T) {
	blocks := mustConvert(t, `<p>See <a href="https://example.com">this</a>.</p>`)
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks", len(blocks))
	}
	b := blocks[0]
	if len(b.MarkDefs) != 1 || b.MarkDefs[0].Href != "https://example.com" {
		t.Fatalf("markDefs = %+v", b.MarkDefs)
	}
	linked := b.Children[1]
	if linked.Text != "this" || len(linked.Marks) != 1 || linked.Marks[0] != b.MarkDefs[0].Key {
		t.Errorf("linked span = %+v", linked)
	}
}

func TestConvert_ScriptIgnored(t *testing.T) {
	blocks := mustConvert(t, `<p>Text</p><script>alert(1)</script>`)
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(blocks))
	}
}

func TestBlockJSON_Variants(t *testing.T) {
	blocks := mustConvert(t, `<p>Hi</p><img src="a.jpg">`)
	data, err := json.Marshal(blocks)
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	if !strings.Contains(s, `"markDefs":[]`) {
		t.Errorf("text block should carry an empty markDefs array: %s", s)
	}
	if !strings.Contains(s, `"_originalSrc":"a.jpg"`) {
		t.Errorf("image block missing pending source: %s", s)
	}

	blocks[1].Resolve("image-abc-100x100-jpg")
	data, _ = json.Marshal(blocks[1])
	s = string(data)
	if strings.Contains(s, "_originalSrc") {
		t.Errorf("resolved image still carries pending source: %s", s)
	}
	if !strings.Contains(s, `"_ref":"image-abc-100x100-jpg"`) {
		t.Errorf("resolved image missing asset ref: %s", s)
	}
	if strings.Contains(s, "children") {
		t.Errorf("image block carries children: %s", s)
	}
}

func TestPendingSources_Dedupes(t *testing.T) {
	blocks := mustConvert(t, `<img src="a.jpg"><p>x</p><img src="b.jpg"><img src="a.jpg">`)
	got := portable.PendingSources(blocks)
	if len(got) != 2 || got[0] != "a.jpg" || got[1] != "b.jpg" {
		t.Errorf("PendingSources = %v", got)
	}
}
