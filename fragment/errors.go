package fragment

import (
	"fmt"
	"strings"

	"headfold/head"
)

// InvalidChildError is returned when fragment contains child which could not
// be part of document head.
type InvalidChildError struct {
	Tag string
	// Nested is set when the child is itself a fragment declaration.
	Nested bool
}

func (e *InvalidChildError) Error() string {
	if e.Nested {
		return "fragment declarations could not be nested within each other"
	}
	return fmt.Sprintf("only elements of types %s are allowed, <%s> is not supported",
		strings.Join(head.TagNames(), ", "), e.Tag)
}

// InvalidChildrenTypeError is returned when child element content is not
// plain text or when element which cannot have content has some.
type InvalidChildrenTypeError struct {
	Tag string
	// SelfClosing is set when element is not allowed to have any content.
	SelfClosing bool
}

func (e *InvalidChildrenTypeError) Error() string {
	if e.SelfClosing {
		return fmt.Sprintf("<%s /> elements are self-closing and could not contain children", e.Tag)
	}
	return fmt.Sprintf("expected text as the only content of <%s>", e.Tag)
}
