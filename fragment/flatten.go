package fragment

import (
	"strings"

	"headfold/head"
)

// FlattenText joins text pieces together without separator.
func FlattenText(parts []string) string {
	return strings.Join(parts, "")
}

// accumulator collects array kinds separately from the record so scalar
// children and array children never overwrite each other.
type accumulator struct {
	record *head.Record
	arrays map[head.TagKind][]head.AttributeMap
}

// Flatten converts children of a fragment declaration into a record. Fields
// already set in props are kept unless children declare the same thing:
// tag lists collected from children replace lists in props, singular tags
// overwrite corresponding fields.
func Flatten(props head.Record, children []Node) (*head.Record, error) {
	acc := &accumulator{
		record: &props,
		arrays: make(map[head.TagKind][]head.AttributeMap),
	}
	if err := acc.walk(children); err != nil {
		return nil, err
	}
	for kind, tags := range acc.arrays {
		acc.record.SetTags(kind, tags)
	}
	return acc.record, nil
}

func (acc *accumulator) walk(children []Node) error {
	for _, child := range children {
		switch c := child.(type) {
		case *Group:
			if err := acc.walk(c.Children); err != nil {
				return err
			}
		case *Nested:
			return &InvalidChildError{Nested: true}
		case *Element:
			if err := acc.element(c); err != nil {
				return err
			}
		}
		// text between elements carries no meaning
	}
	return nil
}

// translateAttrs converts attribute names to their HTML spelling.
func translateAttrs(attrs head.AttributeMap) head.AttributeMap {
	out := make(head.AttributeMap, 0, len(attrs))
	for _, a := range attrs {
		out = out.Set(head.HTMLAttributeName(a.Key), a.Value)
	}
	return out
}

// content returns text content of element and whether element had any.
func content(el *Element) (string, bool, error) {
	if len(el.Children) == 0 {
		return "", false, nil
	}
	parts := make([]string, 0, len(el.Children))
	for _, n := range el.Children {
		t, ok := n.(Text)
		if !ok {
			return "", false, &InvalidChildrenTypeError{Tag: el.Tag}
		}
		parts = append(parts, string(t))
	}
	return FlattenText(parts), true, nil
}

func (acc *accumulator) element(el *Element) error {
	kind, err := head.ParseTagKind(el.Tag)
	if err != nil {
		return &InvalidChildError{Tag: el.Tag}
	}
	text, hasText, err := content(el)
	if err != nil {
		return err
	}
	attrs := translateAttrs(el.Attrs)

	if kind.IsArray() {
		if hasText {
			switch kind {
			case head.TagScript, head.TagNoscript:
				attrs = attrs.Set(head.AttrInnerHTML, head.String(text))
			case head.TagStyle:
				attrs = attrs.Set(head.AttrCSSText, head.String(text))
			default:
				if len(text) > 0 {
					return &InvalidChildrenTypeError{Tag: el.Tag, SelfClosing: true}
				}
			}
		}
		acc.arrays[kind] = append(acc.arrays[kind], attrs)
		return nil
	}

	if kind != head.TagTitle && len(text) > 0 {
		return &InvalidChildrenTypeError{Tag: el.Tag, SelfClosing: true}
	}

	r := acc.record
	switch kind {
	case head.TagTitle:
		r.Title = &text
		r.TitleAttributes = attrs
	case head.TagBody:
		r.BodyAttributes = attrs
	case head.TagHTML:
		r.HTMLAttributes = attrs
	case head.TagBase:
		r.Base = attrs
	case head.TagHead:
		r.Head = attrs
	}
	return nil
}
