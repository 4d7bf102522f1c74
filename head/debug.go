package head

import (
	"headfold/utils/debug"
)

func pairs(m AttributeMap) []string {
	kv := make([]string, 0, len(m)*2)
	for _, a := range m {
		kv = append(kv, a.Key, a.Value.String())
	}
	return kv
}

// String returns a readable tree of the resolved state. It exists solely for
// manual inspection during debugging.
func (s *State) String() string {
	if s == nil {
		return "<nil State>"
	}

	tw := debug.NewTreeWriter()
	tw.Line(0, "State")
	if s.Title != nil {
		tw.TextBlock(1, "title", *s.Title)
	} else {
		tw.Line(1, "title: <undefined>")
	}
	tw.Pairs(1, "titleAttributes", pairs(s.TitleAttributes)...)
	tw.Pairs(1, "htmlAttributes", pairs(s.HTMLAttributes)...)
	tw.Pairs(1, "bodyAttributes", pairs(s.BodyAttributes)...)
	for _, tag := range s.BaseTag {
		tw.Pairs(1, "base", pairs(tag)...)
	}
	for _, kind := range ArrayKinds {
		tags := s.Tags(kind)
		tw.Line(1, "%s (%d)", kind, len(tags))
		for _, tag := range tags {
			tw.Pairs(2, kind.String(), pairs(tag)...)
		}
	}
	tw.Line(1, "prioritizeSeoTags: %t", s.PrioritizeSEOTags)
	if s.Defer != nil {
		tw.Line(1, "defer: %t", *s.Defer)
	}
	if s.Encode != nil {
		tw.Line(1, "encode: %t", *s.Encode)
	}
	return tw.String()
}
