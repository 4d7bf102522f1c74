// Package render produces XHTML document out of resolved head state.
package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"headfold/head"
)

// Options controls document production.
type Options struct {
	// every head tag gets this attribute, nothing is added when empty
	MarkerAttribute string
	MarkerValue     string
	// used when state does not say whether text should be escaped
	Encode     bool
	CompactCSS bool
	// 0 disables indentation
	Indent int
}

type builder struct {
	opts   Options
	encode bool
	head   *etree.Element
	log    *zap.Logger
}

// Document builds XHTML document. Head content goes in the following order:
// SEO priority tags (meta, link, script) when prioritization was requested,
// title, base, meta, link, style, script, noscript.
func Document(s *head.State, opts Options, log *zap.Logger) *etree.Document {
	if log == nil {
		log = zap.NewNop()
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	doc.CreateDirective("DOCTYPE html")

	html := doc.CreateElement("html")
	html.CreateAttr("xmlns", "http://www.w3.org/1999/xhtml")
	setAttrs(html, s.HTMLAttributes)

	b := &builder{opts: opts, encode: opts.Encode, head: html.CreateElement("head"), log: log}
	if s.Encode != nil {
		b.encode = *s.Encode
	}

	meta, link, script := s.Partition(head.TagMeta), s.Partition(head.TagLink), s.Partition(head.TagScript)

	b.tags(head.TagMeta, meta.Priority)
	b.tags(head.TagLink, link.Priority)
	b.tags(head.TagScript, script.Priority)
	b.title(s)
	b.tags(head.TagBase, s.BaseTag)
	b.tags(head.TagMeta, meta.Default)
	b.tags(head.TagLink, link.Default)
	b.tags(head.TagStyle, s.StyleTags)
	b.tags(head.TagScript, script.Default)
	b.tags(head.TagNoscript, s.NoscriptTags)

	body := html.CreateElement("body")
	setAttrs(body, s.BodyAttributes)

	if opts.Indent > 0 {
		doc.Indent(opts.Indent)
	} else {
		doc.Indent(etree.NoIndent)
	}
	return doc
}

// Bytes renders state into serialized XHTML.
func Bytes(s *head.State, opts Options, log *zap.Logger) ([]byte, error) {
	buf := new(bytes.Buffer)
	if _, err := Document(s, opts, log).WriteTo(buf); err != nil {
		return nil, fmt.Errorf("unable to serialize document: %w", err)
	}
	return buf.Bytes(), nil
}

// setAttrs copies attributes to element. Boolean attributes are written in
// XHTML form (async="async") when set and omitted otherwise.
func setAttrs(el *etree.Element, attrs head.AttributeMap) {
	for _, a := range attrs {
		switch {
		case a.Key == head.AttrInnerHTML || a.Key == head.AttrCSSText:
			// content, not attribute
		case a.Value.IsBool():
			if a.Value.Truthy() {
				name := head.HTMLAttributeName(a.Key)
				el.CreateAttr(name, name)
			}
		default:
			el.CreateAttr(head.HTMLAttributeName(a.Key), a.Value.String())
		}
	}
}

func (b *builder) element(kind head.TagKind) *etree.Element {
	el := b.head.CreateElement(kind.String())
	if b.opts.MarkerAttribute != "" {
		el.CreateAttr(b.opts.MarkerAttribute, b.opts.MarkerValue)
	}
	return el
}

func (b *builder) text(el *etree.Element, text string) {
	if len(text) == 0 {
		return
	}
	// CDATA section could not carry its own terminator
	if b.encode || strings.Contains(text, "]]>") {
		el.SetText(text)
		return
	}
	el.SetCData(text)
}

func (b *builder) title(s *head.State) {
	el := b.element(head.TagTitle)
	setAttrs(el, s.TitleAttributes)
	if s.Title != nil {
		b.text(el, *s.Title)
	}
}

func (b *builder) tags(kind head.TagKind, tags []head.AttributeMap) {
	for _, tag := range tags {
		el := b.element(kind)
		setAttrs(el, tag)

		switch kind {
		case head.TagScript, head.TagNoscript:
			if v, ok := tag.Get(head.AttrInnerHTML); ok {
				b.text(el, v.String())
			}
		case head.TagStyle:
			if v, ok := tag.Get(head.AttrCSSText); ok {
				b.text(el, b.css(v.String()))
			}
		}
	}
}

func (b *builder) css(text string) string {
	if !b.opts.CompactCSS {
		return text
	}
	compacted, err := compactCSS(text)
	if err != nil {
		b.log.Warn("Unable to compact style, keeping as is", zap.Error(err))
		return text
	}
	return compacted
}
