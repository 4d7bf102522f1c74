// Package head reduces ordered list of head fragment declarations into single
// canonical state of the document head.
package head

// ClientStateFunc is a callback fragments may declare to be notified when
// the head changes. It is selected during reduction but never invoked here.
type ClientStateFunc func(newState *State, added, removed map[TagKind][]AttributeMap)

// Record is one fragment's declared intent. Pointer and nil valued fields are
// not declared by the fragment.
type Record struct {
	Title         *string
	TitleTemplate *string
	DefaultTitle  *string

	HTMLAttributes  AttributeMap
	BodyAttributes  AttributeMap
	TitleAttributes AttributeMap

	Base AttributeMap
	Head AttributeMap

	LinkTags     []AttributeMap
	MetaTags     []AttributeMap
	NoscriptTags []AttributeMap
	ScriptTags   []AttributeMap
	StyleTags    []AttributeMap

	OnChangeClientState     ClientStateFunc
	PrioritizeSEOTags       bool
	EncodeSpecialCharacters *bool
	Defer                   *bool

	// tag kinds which were declared with something other than a list,
	// value is the kind of data found
	malformed map[TagKind]string
}

// PropsList is ordered list of records, outermost first.
type PropsList []*Record

// Tags returns list of tags of requested kind and whether it was declared at
// all.
func (r *Record) Tags(kind TagKind) ([]AttributeMap, bool) {
	var tags []AttributeMap
	switch kind {
	case TagLink:
		tags = r.LinkTags
	case TagMeta:
		tags = r.MetaTags
	case TagNoscript:
		tags = r.NoscriptTags
	case TagScript:
		tags = r.ScriptTags
	case TagStyle:
		tags = r.StyleTags
	default:
		return nil, false
	}
	return tags, tags != nil
}

// SetTags replaces list of tags of requested kind. Non array kinds are
// ignored.
func (r *Record) SetTags(kind TagKind, tags []AttributeMap) {
	switch kind {
	case TagLink:
		r.LinkTags = tags
	case TagMeta:
		r.MetaTags = tags
	case TagNoscript:
		r.NoscriptTags = tags
	case TagScript:
		r.ScriptTags = tags
	case TagStyle:
		r.StyleTags = tags
	}
}

// Attributes returns attribute map for html, body and title kinds.
func (r *Record) Attributes(kind TagKind) AttributeMap {
	switch kind {
	case TagHTML:
		return r.HTMLAttributes
	case TagBody:
		return r.BodyAttributes
	case TagTitle:
		return r.TitleAttributes
	}
	return nil
}

// Malformed reports whether tag kind was declared with value other than
// list and what type that value had.
func (r *Record) Malformed(kind TagKind) (string, bool) {
	t, ok := r.malformed[kind]
	return t, ok
}

// MarkMalformed records that tag kind was declared with value of type found.
func (r *Record) MarkMalformed(kind TagKind, found string) {
	if r.malformed == nil {
		r.malformed = make(map[TagKind]string)
	}
	r.malformed[kind] = found
	r.SetTags(kind, nil)
}

// State is the resolved head.
type State struct {
	Title           *string        `yaml:"title,omitempty" json:"title,omitempty"`
	BaseTag         []AttributeMap `yaml:"baseTag" json:"baseTag"`
	BodyAttributes  AttributeMap   `yaml:"bodyAttributes" json:"bodyAttributes"`
	HTMLAttributes  AttributeMap   `yaml:"htmlAttributes" json:"htmlAttributes"`
	TitleAttributes AttributeMap   `yaml:"titleAttributes" json:"titleAttributes"`
	LinkTags        []AttributeMap `yaml:"linkTags" json:"linkTags"`
	MetaTags        []AttributeMap `yaml:"metaTags" json:"metaTags"`
	NoscriptTags    []AttributeMap `yaml:"noscriptTags" json:"noscriptTags"`
	ScriptTags      []AttributeMap `yaml:"scriptTags" json:"scriptTags"`
	StyleTags       []AttributeMap `yaml:"styleTags" json:"styleTags"`

	PrioritizeSEOTags bool  `yaml:"prioritizeSeoTags" json:"prioritizeSeoTags"`
	Defer             *bool `yaml:"defer,omitempty" json:"defer,omitempty"`
	Encode            *bool `yaml:"encode,omitempty" json:"encode,omitempty"`

	OnChangeClientState ClientStateFunc `yaml:"-" json:"-"`
}

// Tags returns resolved list of tags of requested kind.
func (s *State) Tags(kind TagKind) []AttributeMap {
	switch kind {
	case TagBase:
		return s.BaseTag
	case TagLink:
		return s.LinkTags
	case TagMeta:
		return s.MetaTags
	case TagNoscript:
		return s.NoscriptTags
	case TagScript:
		return s.ScriptTags
	case TagStyle:
		return s.StyleTags
	}
	return nil
}
