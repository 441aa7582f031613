// Package wxr parses WordPress eXtended RSS exports into catalog entities.
package wxr

import (
	"encoding/xml"
	"strings"
)

// Element names are matched without namespaces so 1.0, 1.1 and 1.2
// exports all decode. The two "encoded" elements are told apart by
// namespace in rawItem.

type rawRSS struct {
	XMLName xml.Name    `xml:"rss"`
	Channel *rawChannel `xml:"channel"`
}

type rawChannel struct {
	Title       string        `xml:"title"`
	Link        string        `xml:"link"`
	BaseSiteURL string        `xml:"base_site_url"`
	BaseBlogURL string        `xml:"base_blog_url"`
	Authors     []rawAuthor   `xml:"author"`
	Categories  []rawCategory `xml:"category"`
	Items       []rawItem     `xml:"item"`
}

type rawAuthor struct {
	ID          string `xml:"author_id"`
	Login       string `xml:"author_login"`
	Email       string `xml:"author_email"`
	DisplayName string `xml:"author_display_name"`
	FirstName   string `xml:"author_first_name"`
	LastName    string `xml:"author_last_name"`
}

type rawCategory struct {
	TermID         string `xml:"term_id"`
	NiceName       string `xml:"category_nicename"`
	Parent         string `xml:"category_parent"`
	Name           string `xml:"cat_name"`
	Description    string `xml:"category_description"`
	LegacyDescript string `xml:"cat_description"`
}

type rawTerm struct {
	Domain   string `xml:"domain,attr"`
	NiceName string `xml:"nicename,attr"`
	Name     string `xml:",chardata"`
}

type rawEncoded struct {
	XMLName xml.Name
	Text    string `xml:",chardata"`
}

type rawMeta struct {
	Key   string `xml:"meta_key"`
	Value string `xml:"meta_value"`
}

type rawItem struct {
	Title         string       `xml:"title"`
	Link          string       `xml:"link"`
	Creator       string       `xml:"creator"`
	Encoded       []rawEncoded `xml:"encoded"`
	PostID        string       `xml:"post_id"`
	PostDate      string       `xml:"post_date"`
	PostDateGMT   string       `xml:"post_date_gmt"`
	PostModGMT    string       `xml:"post_modified_gmt"`
	PostName      string       `xml:"post_name"`
	PostType      string       `xml:"post_type"`
	Status        string       `xml:"status"`
	IsSticky      string       `xml:"is_sticky"`
	AttachmentURL string       `xml:"attachment_url"`
	Terms         []rawTerm    `xml:"category"`
	Meta          []rawMeta    `xml:"postmeta"`
}

// content returns the body markup (content:encoded).
func (it *rawItem) content() string {
	return it.encoded("/content/")
}

// excerpt returns the explicit excerpt (excerpt:encoded).
func (it *rawItem) excerpt() string {
	return it.encoded("/excerpt/")
}

func (it *rawItem) encoded(nsFragment string) string {
	for _, e := range it.Encoded {
		if strings.Contains(e.XMLName.Space, nsFragment) {
			return e.Text
		}
	}
	return ""
}

func (it *rawItem) meta(key string) string {
	for _, m := range it.Meta {
		if m.Key == key {
			return m.Value
		}
	}
	return ""
}
