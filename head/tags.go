package head

import (
	"fmt"
)

// TagKind identifies recognized head tag.
type TagKind int

const (
	TagBase TagKind = iota
	TagBody
	TagHead
	TagHTML
	TagLink
	TagMeta
	TagNoscript
	TagScript
	TagStyle
	TagTitle
)

var tagKindNames = [...]string{
	TagBase:     "base",
	TagBody:     "body",
	TagHead:     "head",
	TagHTML:     "html",
	TagLink:     "link",
	TagMeta:     "meta",
	TagNoscript: "noscript",
	TagScript:   "script",
	TagStyle:    "style",
	TagTitle:    "title",
}

// ArrayKinds lists tag kinds which may appear multiple times, in the order
// they are resolved.
var ArrayKinds = []TagKind{TagLink, TagMeta, TagNoscript, TagScript, TagStyle}

func (k TagKind) String() string {
	if k < 0 || int(k) >= len(tagKindNames) {
		return fmt.Sprintf("TagKind(%d)", int(k))
	}
	return tagKindNames[k]
}

// IsArray reports whether tags of this kind accumulate into a list instead
// of overwriting a single value.
func (k TagKind) IsArray() bool {
	switch k {
	case TagLink, TagMeta, TagNoscript, TagScript, TagStyle:
		return true
	}
	return false
}

func (k TagKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *TagKind) UnmarshalText(text []byte) error {
	v, err := ParseTagKind(string(text))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// ParseTagKind resolves tag name to TagKind, names are matched exactly.
func ParseTagKind(name string) (TagKind, error) {
	for i, n := range tagKindNames {
		if n == name {
			return TagKind(i), nil
		}
	}
	return 0, fmt.Errorf("%q is not a recognized head tag", name)
}

// TagNames returns names of all recognized head tags.
func TagNames() []string {
	out := make([]string, len(tagKindNames))
	copy(out, tagKindNames[:])
	return out
}

// Well known attribute names.
const (
	AttrCharset   = "charset"
	AttrCSSText   = "cssText"
	AttrHref      = "href"
	AttrHTTPEquiv = "http-equiv"
	AttrInnerHTML = "innerHTML"
	AttrItemProp  = "itemProp"
	AttrName      = "name"
	AttrProperty  = "property"
	AttrRel       = "rel"
	AttrSrc       = "src"
	AttrType      = "type"
)

// caseSensitiveAttrs are primary attributes which are compared using their
// exact spelling.
var caseSensitiveAttrs = []string{AttrInnerHTML, AttrCSSText, AttrItemProp}

// PrimaryAttributes lists identity defining attributes for every kind of tag
// which is deduplicated. "itemprop" is how itemProp looks after host
// attribute translation.
var PrimaryAttributes = map[TagKind][]string{
	TagBase:     {AttrHref},
	TagLink:     {AttrRel, AttrHref},
	TagMeta:     {AttrName, AttrCharset, AttrHTTPEquiv, AttrProperty, AttrItemProp, "itemprop"},
	TagNoscript: {AttrInnerHTML},
	TagScript:   {AttrSrc, AttrInnerHTML},
	TagStyle:    {AttrCSSText},
}

// hostAttributeNames maps host attribute spelling to HTML attribute
// spelling.
var hostAttributeNames = map[string]string{
	"accessKey":       "accesskey",
	"charSet":         "charset",
	"className":       "class",
	"contentEditable": "contenteditable",
	"contextMenu":     "contextmenu",
	"httpEquiv":       "http-equiv",
	"itemProp":        "itemprop",
	"tabIndex":        "tabindex",
}

// HTMLAttributeName translates host attribute spelling into HTML one.
// Unknown names are returned unchanged.
func HTMLAttributeName(name string) string {
	if n, ok := hostAttributeNames[name]; ok {
		return n
	}
	return name
}

// SEORules maps attribute name to the list of values which make a tag SEO
// critical.
type SEORules map[string][]string

// SEOPriority lists rules for tags which could be emitted before anything
// else in the head.
var SEOPriority = map[TagKind]SEORules{
	TagLink:   {AttrRel: {"amphtml", "canonical", "alternate"}},
	TagScript: {AttrType: {"application/ld+json"}},
	TagMeta: {
		AttrName: {"generator", "robots", "description"},
		AttrProperty: {
			"og:type", "og:title", "og:url", "og:image", "og:image:alt", "og:description",
			"twitter:url", "twitter:title", "twitter:description", "twitter:image",
			"twitter:image:alt", "twitter:card", "twitter:site",
		},
	},
}
