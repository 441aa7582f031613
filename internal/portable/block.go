// Package portable models post bodies as Portable Text blocks and converts
// WordPress post markup into them.
package portable

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

// Block and span type names as the store expects them.
const (
	TypeBlock     = "block"
	TypeImage     = "image"
	TypeSpan      = "span"
	TypeReference = "reference"
	TypeLink      = "link"
)

// Text block styles.
const (
	StyleNormal     = "normal"
	StyleBlockquote = "blockquote"
)

// List item markers.
const (
	ListBullet = "bullet"
	ListNumber = "number"
)

// Span is a run of text with decorator and annotation marks.
type Span struct {
	Type  string   `json:"_type"`
	Key   string   `json:"_key"`
	Text  string   `json:"text"`
	Marks []string `json:"marks"`
}

// MarkDef is an annotation referenced by key from span marks.
type MarkDef struct {
	Type string `json:"_type"`
	Key  string `json:"_key"`
	Href string `json:"href,omitempty"`
}

// Reference points at another store document.
type Reference struct {
	Type string `json:"_type"`
	Ref  string `json:"_ref"`
}

// NewReference returns a store reference to id.
func NewReference(id string) *Reference {
	return &Reference{Type: TypeReference, Ref: id}
}

// Block is one node of a post body: a text block (optionally a list item)
// or an image. Image blocks never carry children.
type Block struct {
	Type string `json:"_type"`
	Key  string `json:"_key"`

	Style    string    `json:"style,omitempty"`
	Children []Span    `json:"children,omitempty"`
	MarkDefs []MarkDef `json:"markDefs,omitempty"`
	ListItem string    `json:"listItem,omitempty"`
	Level    int       `json:"level,omitempty"`

	// Asset is nil while the image is still pending upload.
	Asset       *Reference `json:"asset,omitempty"`
	Alt         string     `json:"alt,omitempty"`
	OriginalSrc string     `json:"_originalSrc,omitempty"`
}

// NewKey returns a process-unique key for a block, span or mark definition.
func NewKey() string {
	return uuid.NewString()
}

// NewTextBlock returns an empty text block with the given style.
func NewTextBlock(style string) Block {
	if style == "" {
		style = StyleNormal
	}
	return Block{
		Type:     TypeBlock,
		Key:      NewKey(),
		Style:    style,
		Children: []Span{},
		MarkDefs: []MarkDef{},
	}
}

// NewImageBlock returns an image block pending resolution of src.
func NewImageBlock(src, alt string) Block {
	return Block{
		Type:        TypeImage,
		Key:         NewKey(),
		Alt:         alt,
		OriginalSrc: src,
	}
}

// IsImage reports whether b is an image block.
func (b *Block) IsImage() bool { return b.Type == TypeImage }

// Pending reports whether b is an image block whose asset is not resolved yet.
func (b *Block) Pending() bool {
	return b.IsImage() && b.Asset == nil && b.OriginalSrc != ""
}

// Resolve points the image block at an uploaded asset and drops the
// pending source.
func (b *Block) Resolve(assetID string) {
	b.Asset = NewReference(assetID)
	b.OriginalSrc = ""
}

// Text returns the concatenated span text of a text block.
func (b *Block) Text() string {
	var sb strings.Builder
	for _, sp := range b.Children {
		sb.WriteString(sp.Text)
	}
	return sb.String()
}

type textBlockJSON struct {
	Type     string    `json:"_type"`
	Key      string    `json:"_key"`
	Style    string    `json:"style"`
	Children []Span    `json:"children"`
	MarkDefs []MarkDef `json:"markDefs"`
	ListItem string    `json:"listItem,omitempty"`
	Level    int       `json:"level,omitempty"`
}

type imageBlockJSON struct {
	Type        string     `json:"_type"`
	Key         string     `json:"_key"`
	Asset       *Reference `json:"asset,omitempty"`
	Alt         string     `json:"alt"`
	OriginalSrc string     `json:"_originalSrc,omitempty"`
}

// MarshalJSON writes only the fields that belong to the block's variant.
// Text blocks always carry children and markDefs arrays.
func (b Block) MarshalJSON() ([]byte, error) {
	if b.IsImage() {
		return json.Marshal(imageBlockJSON{
			Type:        b.Type,
			Key:         b.Key,
			Asset:       b.Asset,
			Alt:         b.Alt,
			OriginalSrc: b.OriginalSrc,
		})
	}
	children := b.Children
	if children == nil {
		children = []Span{}
	}
	markDefs := b.MarkDefs
	if markDefs == nil {
		markDefs = []MarkDef{}
	}
	return json.Marshal(textBlockJSON{
		Type:     b.Type,
		Key:      b.Key,
		Style:    b.Style,
		Children: children,
		MarkDefs: markDefs,
		ListItem: b.ListItem,
		Level:    b.Level,
	})
}

// PendingSources returns the distinct pending image sources in body order.
func PendingSources(body []Block) []string {
	seen := make(map[string]bool)
	var out []string
	for i := range body {
		if !body[i].Pending() {
			continue
		}
		src := body[i].OriginalSrc
		if seen[src] {
			continue
		}
		seen[src] = true
		out = append(out, src)
	}
	return out
}
