package fragment

import (
	"errors"
	"strings"
	"testing"

	"headfold/head"
)

func el(tag string, attrs head.AttributeMap, children ...Node) *Element {
	return &Element{Tag: tag, Attrs: attrs, Children: children}
}

func equalTags(a, b []head.AttributeMap) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func TestFlatten_ArrayKinds(t *testing.T) {
	r, err := Flatten(head.Record{}, []Node{
		el("meta", head.Attrs("name", "description", "content", "d")),
		Text("\n  "),
		el("meta", head.Attrs("httpEquiv", "refresh", "content", "30")),
		el("link", head.Attrs("rel", "canonical", "href", "/")),
		el("script", head.Attrs("type", "application/ld+json"), Text(`{"a":`), Text(`1}`)),
		el("noscript", nil, Text("<img>")),
		el("style", nil, Text("body{}")),
		el("script", head.Attrs("src", "/a.js")),
	})
	if err != nil {
		t.Fatalf("Flatten() error: %v", err)
	}

	tests := []struct {
		kind head.TagKind
		want []head.AttributeMap
	}{
		{head.TagMeta, []head.AttributeMap{
			head.Attrs("name", "description", "content", "d"),
			head.Attrs("http-equiv", "refresh", "content", "30"),
		}},
		{head.TagLink, []head.AttributeMap{head.Attrs("rel", "canonical", "href", "/")}},
		{head.TagScript, []head.AttributeMap{
			head.Attrs("type", "application/ld+json", "innerHTML", `{"a":1}`),
			head.Attrs("src", "/a.js"),
		}},
		{head.TagNoscript, []head.AttributeMap{head.Attrs("innerHTML", "<img>")}},
		{head.TagStyle, []head.AttributeMap{head.Attrs("cssText", "body{}")}},
	}
	for _, tt := range tests {
		got, _ := r.Tags(tt.kind)
		if !equalTags(got, tt.want) {
			t.Errorf("%s = %v, want %v", tt.kind, got, tt.want)
		}
	}
}

func TestFlatten_ScalarKinds(t *testing.T) {
	r, err := Flatten(head.Record{}, []Node{
		el("title", head.Attrs("itemProp", "name"), Text("Hello, "), Text("World")),
		el("html", head.Attrs("lang", "en")),
		el("body", head.Attrs("className", "dark")),
		el("base", head.Attrs("href", "/", "target", "_blank")),
		el("head", head.Attrs("profile", "x")),
		el("html", head.Attrs("lang", "de")),
	})
	if err != nil {
		t.Fatalf("Flatten() error: %v", err)
	}

	if r.Title == nil || *r.Title != "Hello, World" {
		t.Errorf("Title = %v", r.Title)
	}
	if !r.TitleAttributes.Equal(head.Attrs("itemprop", "name")) {
		t.Errorf("TitleAttributes = %v", r.TitleAttributes)
	}
	if !r.HTMLAttributes.Equal(head.Attrs("lang", "de")) {
		t.Errorf("HTMLAttributes = %v, last declaration must win", r.HTMLAttributes)
	}
	if !r.BodyAttributes.Equal(head.Attrs("class", "dark")) {
		t.Errorf("BodyAttributes = %v", r.BodyAttributes)
	}
	if !r.Base.Equal(head.Attrs("href", "/", "target", "_blank")) {
		t.Errorf("Base = %v", r.Base)
	}
	if !r.Head.Equal(head.Attrs("profile", "x")) {
		t.Errorf("Head = %v", r.Head)
	}
}

func TestFlatten_EmptyTitle(t *testing.T) {
	r, err := Flatten(head.Record{}, []Node{el("title", nil)})
	if err != nil {
		t.Fatal(err)
	}
	if r.Title == nil || *r.Title != "" {
		t.Errorf("Title = %v, want declared empty", r.Title)
	}
}

func TestFlatten_Group(t *testing.T) {
	r, err := Flatten(head.Record{}, []Node{
		el("meta", head.Attrs("name", "a")),
		&Group{Children: []Node{
			el("meta", head.Attrs("name", "b")),
			&Group{Children: []Node{el("title", nil, Text("T"))}},
		}},
		el("meta", head.Attrs("name", "c")),
	})
	if err != nil {
		t.Fatalf("Flatten() error: %v", err)
	}
	want := []head.AttributeMap{head.Attrs("name", "a"), head.Attrs("name", "b"), head.Attrs("name", "c")}
	if !equalTags(r.MetaTags, want) {
		t.Errorf("MetaTags = %v, want %v", r.MetaTags, want)
	}
	if r.Title == nil || *r.Title != "T" {
		t.Errorf("Title = %v", r.Title)
	}
}

func TestFlatten_Props(t *testing.T) {
	title, tmpl := "From props", "%s | Site"
	props := head.Record{
		Title:             &title,
		TitleTemplate:     &tmpl,
		MetaTags:          []head.AttributeMap{head.Attrs("name", "props")},
		LinkTags:          []head.AttributeMap{head.Attrs("rel", "icon", "href", "/i.png")},
		BodyAttributes:    head.Attrs("class", "props"),
		PrioritizeSEOTags: true,
	}

	r, err := Flatten(props, []Node{
		el("meta", head.Attrs("name", "child")),
		el("body", head.Attrs("id", "child")),
	})
	if err != nil {
		t.Fatalf("Flatten() error: %v", err)
	}

	if !equalTags(r.MetaTags, []head.AttributeMap{head.Attrs("name", "child")}) {
		t.Errorf("MetaTags = %v, children must replace props", r.MetaTags)
	}
	if !equalTags(r.LinkTags, props.LinkTags) {
		t.Errorf("LinkTags = %v, props must be kept", r.LinkTags)
	}
	if !r.BodyAttributes.Equal(head.Attrs("id", "child")) {
		t.Errorf("BodyAttributes = %v", r.BodyAttributes)
	}
	if *r.Title != title || *r.TitleTemplate != tmpl || !r.PrioritizeSEOTags {
		t.Error("props not carried over")
	}
}

func TestFlatten_Errors(t *testing.T) {
	tests := []struct {
		name        string
		children    []Node
		invalid     bool
		nested      bool
		selfClosing bool
		msg         string
	}{
		{
			name:     "div",
			children: []Node{el("div", nil)},
			invalid:  true,
			msg:      "<div> is not supported",
		},
		{
			name:     "div inside group",
			children: []Node{&Group{Children: []Node{el("div", nil)}}},
			invalid:  true,
			msg:      "base, body, head, html, link, meta, noscript, script, style, title",
		},
		{
			name:     "nested fragment",
			children: []Node{&Nested{Children: []Node{el("title", nil, Text("x"))}}},
			invalid:  true,
			nested:   true,
			msg:      "nested",
		},
		{
			name:     "element inside script",
			children: []Node{el("script", nil, el("b", nil))},
			msg:      "expected text",
		},
		{
			name:     "element inside title",
			children: []Node{el("title", nil, Text("a"), el("b", nil))},
			msg:      "<title>",
		},
		{
			name:        "text inside meta",
			children:    []Node{el("meta", head.Attrs("name", "x"), Text("oops"))},
			selfClosing: true,
			msg:         "self-closing",
		},
		{
			name:        "text inside base",
			children:    []Node{el("base", head.Attrs("href", "/"), Text("oops"))},
			selfClosing: true,
			msg:         "<base />",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Flatten(head.Record{}, tt.children)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("error %q does not contain %q", err, tt.msg)
			}

			var ice *InvalidChildError
			var cte *InvalidChildrenTypeError
			switch {
			case tt.invalid:
				if !errors.As(err, &ice) {
					t.Fatalf("expected InvalidChildError, got %T", err)
				}
				if ice.Nested != tt.nested {
					t.Errorf("Nested = %v, want %v", ice.Nested, tt.nested)
				}
			default:
				if !errors.As(err, &cte) {
					t.Fatalf("expected InvalidChildrenTypeError, got %T", err)
				}
				if cte.SelfClosing != tt.selfClosing {
					t.Errorf("SelfClosing = %v, want %v", cte.SelfClosing, tt.selfClosing)
				}
			}
		})
	}
}

func TestFlatten_WhitespaceInSelfClosing(t *testing.T) {
	// empty text is not content
	if _, err := Flatten(head.Record{}, []Node{el("link", head.Attrs("rel", "icon"), Text(""))}); err != nil {
		t.Errorf("Flatten() error: %v", err)
	}
}

func TestFlattenText(t *testing.T) {
	if got := FlattenText([]string{"a", "b", "c"}); got != "abc" {
		t.Errorf("FlattenText() = %q", got)
	}
	if got := FlattenText(nil); got != "" {
		t.Errorf("FlattenText(nil) = %q", got)
	}
}

func TestFlattenThenReduce(t *testing.T) {
	outer, err := Flatten(head.Record{}, []Node{
		el("title", nil, Text("Outer")),
		el("meta", head.Attrs("name", "description", "content", "outer")),
	})
	if err != nil {
		t.Fatal(err)
	}
	inner, err := Flatten(head.Record{}, []Node{
		el("title", nil, Text("Inner")),
		el("meta", head.Attrs("name", "description", "content", "inner")),
	})
	if err != nil {
		t.Fatal(err)
	}

	s := head.Reduce(head.PropsList{outer, inner}, nil)
	if *s.Title != "Inner" {
		t.Errorf("Title = %q", *s.Title)
	}
	if !equalTags(s.MetaTags, []head.AttributeMap{head.Attrs("name", "description", "content", "inner")}) {
		t.Errorf("MetaTags = %v", s.MetaTags)
	}
}
