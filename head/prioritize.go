package head

import (
	"slices"
)

// Partition splits tags into those which should be emitted first and the
// rest. Relative order inside each part is preserved.
type Partition struct {
	Priority []AttributeMap
	Default  []AttributeMap
}

// matches reports whether any attribute of the tag has one of the values
// listed for it in rules. Values are compared exactly.
func (rules SEORules) matches(tag AttributeMap) bool {
	for _, a := range tag {
		if values := rules[a.Key]; len(values) > 0 && slices.Contains(values, a.Value.String()) {
			return true
		}
	}
	return false
}

// Prioritize partitions tags according to rules.
func Prioritize(tags []AttributeMap, rules SEORules) Partition {
	p := Partition{
		Priority: make([]AttributeMap, 0),
		Default:  make([]AttributeMap, 0, len(tags)),
	}
	for _, tag := range tags {
		if rules.matches(tag) {
			p.Priority = append(p.Priority, tag)
		} else {
			p.Default = append(p.Default, tag)
		}
	}
	return p
}

// Partition returns resolved tags of requested kind split by SEO priority.
// Unless some fragment asked for SEO tags prioritization everything ends up
// in Default.
func (s *State) Partition(kind TagKind) Partition {
	tags := s.Tags(kind)
	rules, ok := SEOPriority[kind]
	if !s.PrioritizeSEOTags || !ok {
		return Partition{Priority: make([]AttributeMap, 0), Default: tags}
	}
	return Prioritize(tags, rules)
}
