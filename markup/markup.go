// Package markup extracts head fragment declarations from HTML or XHTML text.
//
// Every container element (named "helmet" by default) is one fragment, its
// attributes become fragment properties and its content is fragment children.
// Text without any container element is treated as a single fragment.
package markup

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"

	"headfold/fragment"
	"headfold/head"
)

// Options names elements with special meaning.
type Options struct {
	ContainerTag string
	GroupTag     string
}

// Fragment is one fragment declaration found in markup.
type Fragment struct {
	Props    head.Record
	Children []fragment.Node
}

// Flatten converts fragment declaration into record.
func (f *Fragment) Flatten() (*head.Record, error) {
	return fragment.Flatten(f.Props, f.Children)
}

// NewReader returns reader converting markup to UTF-8. Encoding is detected
// from BOM, content type or meta declarations in the first 1024 bytes.
func NewReader(r io.Reader, contentType string) (io.Reader, error) {
	return charset.NewReader(r, contentType)
}

// NewReaderEncoding returns reader converting markup from forced encoding to
// UTF-8.
func NewReaderEncoding(r io.Reader, enc encoding.Encoding) io.Reader {
	return transform.NewReader(r, enc.NewDecoder())
}

// elements which never have content or end tag
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true, "hr": true, "img": true,
	"input": true, "link": true, "meta": true, "source": true, "track": true, "wbr": true,
}

type rawNode struct {
	tag      string
	attrs    head.AttributeMap
	text     string
	children []*rawNode
}

func (n *rawNode) isText() bool { return n.tag == "" }

func convertAttrs(in []html.Attribute) head.AttributeMap {
	out := make(head.AttributeMap, 0, len(in))
	for _, a := range in {
		key := a.Key
		if a.Namespace != "" {
			key = a.Namespace + ":" + key
		}
		out = out.Set(key, head.String(a.Val))
	}
	return out
}

// tokenize builds loose element tree. Unbalanced end tags are ignored, end
// tag closes every element opened after the matching start tag.
func tokenize(r io.Reader) (*rawNode, error) {
	z := html.NewTokenizer(r)
	root := &rawNode{}
	stack := []*rawNode{root}

	for {
		tt := z.Next()
		top := stack[len(stack)-1]
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("unable to tokenize markup: %w", err)
			}
			return root, nil
		case html.TextToken:
			top.children = append(top.children, &rawNode{text: string(z.Text())})
		case html.StartTagToken, html.SelfClosingTagToken:
			t := z.Token()
			n := &rawNode{tag: t.Data, attrs: convertAttrs(t.Attr)}
			top.children = append(top.children, n)
			if tt == html.StartTagToken && !voidElements[t.Data] {
				stack = append(stack, n)
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			for i := len(stack) - 1; i > 0; i-- {
				if stack[i].tag == string(name) {
					stack = stack[:i]
					break
				}
			}
		}
		// comments and doctype carry nothing of interest
	}
}

// Parse reads markup and returns fragment declarations in document order.
func Parse(r io.Reader, opts Options, log *zap.Logger) ([]Fragment, error) {
	if log == nil {
		log = zap.NewNop()
	}
	root, err := tokenize(r)
	if err != nil {
		return nil, err
	}

	var containers []*rawNode
	var find func(n *rawNode)
	find = func(n *rawNode) {
		for _, c := range n.children {
			if c.tag == opts.ContainerTag {
				containers = append(containers, c)
				continue
			}
			find(c)
		}
	}
	find(root)

	if len(containers) == 0 {
		log.Debug("No fragment containers found, using whole text", zap.String("container", opts.ContainerTag))
		return []Fragment{{Children: convertChildren(root.children, opts)}}, nil
	}

	fragments := make([]Fragment, 0, len(containers))
	for i, c := range containers {
		props, err := containerProps(c.attrs, log)
		if err != nil {
			return nil, fmt.Errorf("fragment %d: %w", i, err)
		}
		fragments = append(fragments, Fragment{Props: props, Children: convertChildren(c.children, opts)})
	}
	return fragments, nil
}

func convertChildren(in []*rawNode, opts Options) []fragment.Node {
	out := make([]fragment.Node, 0, len(in))
	for _, n := range in {
		switch {
		case n.isText():
			out = append(out, fragment.Text(n.text))
		case n.tag == opts.ContainerTag:
			out = append(out, &fragment.Nested{Attrs: n.attrs, Children: convertChildren(n.children, opts)})
		case n.tag == opts.GroupTag:
			out = append(out, &fragment.Group{Children: convertChildren(n.children, opts)})
		default:
			out = append(out, &fragment.Element{Tag: n.tag, Attrs: n.attrs, Children: convertChildren(n.children, opts)})
		}
	}
	return out
}

func parseFlag(name string, v head.Value) (bool, error) {
	s := v.String()
	if s == "" || s == name {
		// <helmet defer> or defer="defer"
		return true, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("attribute %s: %w", name, err)
	}
	return b, nil
}

func containerProps(attrs head.AttributeMap, log *zap.Logger) (head.Record, error) {
	var r head.Record
	for _, a := range attrs {
		s := a.Value.String()
		switch a.Key {
		case "title":
			r.Title = &s
		case "title-template":
			r.TitleTemplate = &s
		case "default-title":
			r.DefaultTitle = &s
		case "defer", "encode-special-characters", "prioritize-seo-tags":
			b, err := parseFlag(a.Key, a.Value)
			if err != nil {
				return r, err
			}
			switch a.Key {
			case "defer":
				r.Defer = &b
			case "encode-special-characters":
				r.EncodeSpecialCharacters = &b
			default:
				r.PrioritizeSEOTags = b
			}
		default:
			log.Debug("Ignoring unknown fragment property", zap.String("attribute", a.Key))
		}
	}
	return r, nil
}
