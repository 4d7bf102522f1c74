// Package fragment converts a tree of head declarations into a single
// head.Record.
package fragment

import (
	"headfold/head"
)

// Node is a child of fragment declaration. It is one of *Element, Text,
// *Group or *Nested.
type Node interface {
	node()
}

// Element is a regular tag with attributes. Its children are expected to be
// text only.
type Element struct {
	Tag      string
	Attrs    head.AttributeMap
	Children []Node
}

// Text is character data.
type Text string

// Group is transparent grouping element, its children are treated as if they
// were declared in place of the group.
type Group struct {
	Children []Node
}

// Nested is a fragment declaration appearing inside another one.
type Nested struct {
	Attrs    head.AttributeMap
	Children []Node
}

func (*Element) node() {}
func (Text) node()     {}
func (*Group) node()   {}
func (*Nested) node()  {}
