package markup

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"
	"golang.org/x/text/encoding/charmap"

	"headfold/fragment"
	"headfold/head"
)

var testOptions = Options{ContainerTag: "helmet", GroupTag: "fragment"}

func parse(t *testing.T, text string) []Fragment {
	t.Helper()
	fragments, err := Parse(strings.NewReader(text), testOptions, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	return fragments
}

func flatten(t *testing.T, f Fragment) *head.Record {
	t.Helper()
	r, err := f.Flatten()
	if err != nil {
		t.Fatalf("Flatten() error: %v", err)
	}
	return r
}

func TestParse_Containers(t *testing.T) {
	fragments := parse(t, `<!DOCTYPE html>
<html><body>
<div id="app">
  <helmet title-template="%s | Site" default-title="Site" prioritize-seo-tags>
    <meta name="description" content="outer">
    <link rel="canonical" href="https://example.com/">
  </helmet>
  <section>
    <helmet defer="false" encode-special-characters="false">
      <title>Tom &amp; Jerry</title>
      <meta name="description" content="inner"/>
    </helmet>
  </section>
</div>
</body></html>`)

	if len(fragments) != 2 {
		t.Fatalf("got %d fragments, want 2", len(fragments))
	}

	outer := flatten(t, fragments[0])
	if *outer.TitleTemplate != "%s | Site" || *outer.DefaultTitle != "Site" || !outer.PrioritizeSEOTags {
		t.Errorf("outer props not parsed: %+v", outer)
	}
	if len(outer.MetaTags) != 1 || len(outer.LinkTags) != 1 {
		t.Errorf("outer tags: meta %v link %v", outer.MetaTags, outer.LinkTags)
	}

	inner := flatten(t, fragments[1])
	if inner.Title == nil || *inner.Title != "Tom & Jerry" {
		t.Errorf("inner title = %v", inner.Title)
	}
	if inner.Defer == nil || *inner.Defer || inner.EncodeSpecialCharacters == nil || *inner.EncodeSpecialCharacters {
		t.Error("inner flags not parsed")
	}

	s := head.Reduce(head.PropsList{outer, inner}, zaptest.NewLogger(t))
	if *s.Title != "Tom & Jerry | Site" {
		t.Errorf("Title = %q", *s.Title)
	}
	if v, _ := s.MetaTags[0].Get("content"); v.String() != "inner" {
		t.Errorf("MetaTags = %v", s.MetaTags)
	}
}

func TestParse_RawText(t *testing.T) {
	fragments := parse(t, `<helmet>
<script type="application/ld+json">{"name":"<b>x</b> &amp;"}</script>
<noscript><img src="pixel.gif"></noscript>
<style>body > p { color: red }</style>
</helmet>`)

	r := flatten(t, fragments[0])
	tests := []struct {
		kind head.TagKind
		key  string
		want string
	}{
		{head.TagScript, "innerHTML", `{"name":"<b>x</b> &amp;"}`},
		{head.TagNoscript, "innerHTML", `<img src="pixel.gif">`},
		{head.TagStyle, "cssText", `body > p { color: red }`},
	}
	for _, tt := range tests {
		tags, _ := r.Tags(tt.kind)
		if len(tags) != 1 {
			t.Fatalf("%s: got %d tags", tt.kind, len(tags))
		}
		if v, _ := tags[0].Get(tt.key); v.String() != tt.want {
			t.Errorf("%s %s = %q, want %q", tt.kind, tt.key, v, tt.want)
		}
	}
}

func TestParse_NoContainer(t *testing.T) {
	fragments := parse(t, `<title>Plain</title>
<meta charset="utf-8">
<base href="/root/">`)

	if len(fragments) != 1 {
		t.Fatalf("got %d fragments, want 1", len(fragments))
	}
	r := flatten(t, fragments[0])
	if *r.Title != "Plain" {
		t.Errorf("Title = %q", *r.Title)
	}
	if !r.Base.Equal(head.Attrs("href", "/root/")) {
		t.Errorf("Base = %v", r.Base)
	}
}

func TestParse_Group(t *testing.T) {
	fragments := parse(t, `<helmet>
<fragment><meta name="a"><fragment><meta name="b"></fragment></fragment>
<meta name="c">
</helmet>`)

	r := flatten(t, fragments[0])
	var names []string
	for _, m := range r.MetaTags {
		v, _ := m.Get("name")
		names = append(names, v.String())
	}
	if strings.Join(names, ",") != "a,b,c" {
		t.Errorf("meta names = %v", names)
	}
}

func TestParse_NestedContainer(t *testing.T) {
	fragments := parse(t, `<helmet><title>Outer</title><helmet><title>Inner</title></helmet></helmet>`)

	if len(fragments) != 1 {
		t.Fatalf("got %d fragments, nested container must stay inside outer", len(fragments))
	}
	_, err := fragments[0].Flatten()
	var ice *fragment.InvalidChildError
	if !errors.As(err, &ice) || !ice.Nested {
		t.Errorf("expected nested InvalidChildError, got %v", err)
	}
}

func TestParse_InvalidChild(t *testing.T) {
	fragments := parse(t, `<helmet><div>nope</div></helmet>`)
	_, err := fragments[0].Flatten()
	var ice *fragment.InvalidChildError
	if !errors.As(err, &ice) || ice.Tag != "div" {
		t.Errorf("expected InvalidChildError for div, got %v", err)
	}
}

func TestParse_BadFlag(t *testing.T) {
	_, err := Parse(strings.NewReader(`<helmet defer="maybe"></helmet>`), testOptions, nil)
	if err == nil || !strings.Contains(err.Error(), "defer") {
		t.Errorf("expected error about defer, got %v", err)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func TestParse_ReadError(t *testing.T) {
	if _, err := Parse(failingReader{}, testOptions, nil); err == nil {
		t.Error("expected read error")
	}
}

func TestNewReader(t *testing.T) {
	src := "<meta charset=\"windows-1251\"><title>\xcf\xf0\xe8\xe2\xe5\xf2</title>"

	r, err := NewReader(strings.NewReader(src), "")
	if err != nil {
		t.Fatalf("NewReader() error: %v", err)
	}
	fragments, err := Parse(r, testOptions, nil)
	if err != nil {
		t.Fatal(err)
	}
	rec := flatten(t, fragments[0])
	if *rec.Title != "Привет" {
		t.Errorf("Title = %q", *rec.Title)
	}
}

func TestNewReaderEncoding(t *testing.T) {
	encoded, err := charmap.Windows1251.NewEncoder().String("<title>Привет</title>")
	if err != nil {
		t.Fatal(err)
	}
	data, err := io.ReadAll(NewReaderEncoding(bytes.NewReader([]byte(encoded)), charmap.Windows1251))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "<title>Привет</title>" {
		t.Errorf("decoded = %q", data)
	}
}
