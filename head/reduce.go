package head

import (
	"slices"
	"strings"

	"go.uber.org/zap"
)

// Reduce computes canonical head state from list of records ordered from
// outermost to innermost. It never fails, problems with individual records
// are reported to log and such records are ignored.
func Reduce(list PropsList, log *zap.Logger) *State {
	if log == nil {
		log = zap.NewNop()
	}

	return &State{
		BaseTag:             baseTag(list),
		BodyAttributes:      mergeAttributes(list, TagBody),
		Defer:               clonePtr(pickInnermost(list, func(r *Record) (*bool, bool) { return r.Defer, r.Defer != nil })),
		Encode:              clonePtr(pickInnermost(list, func(r *Record) (*bool, bool) { return r.EncodeSpecialCharacters, r.EncodeSpecialCharacters != nil })),
		HTMLAttributes:      mergeAttributes(list, TagHTML),
		LinkTags:            resolveTags(list, TagLink, log),
		MetaTags:            resolveTags(list, TagMeta, log),
		NoscriptTags:        resolveTags(list, TagNoscript, log),
		OnChangeClientState: clientState(list),
		ScriptTags:          resolveTags(list, TagScript, log),
		StyleTags:           resolveTags(list, TagStyle, log),
		Title:               title(list),
		TitleAttributes:     mergeAttributes(list, TagTitle),
		PrioritizeSEOTags:   slices.ContainsFunc(list, func(r *Record) bool { return r.PrioritizeSEOTags }),
	}
}

// pickInnermost returns value from the last record which declares it, zero
// value when nobody does.
func pickInnermost[T any](list PropsList, get func(*Record) (T, bool)) T {
	for i := len(list) - 1; i >= 0; i-- {
		if v, ok := get(list[i]); ok {
			return v
		}
	}
	var zero T
	return zero
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func declared(s *string) bool { return s != nil }

func truthy(s *string) bool { return s != nil && len(*s) > 0 }

func title(list PropsList) *string {
	innermost := pickInnermost(list, func(r *Record) (*string, bool) { return r.Title, declared(r.Title) })
	template := pickInnermost(list, func(r *Record) (*string, bool) { return r.TitleTemplate, declared(r.TitleTemplate) })

	if truthy(template) && truthy(innermost) {
		// plain substitution, title text is never interpreted
		s := strings.ReplaceAll(*template, "%s", *innermost)
		return &s
	}
	if truthy(innermost) {
		return clonePtr(innermost)
	}
	if def := pickInnermost(list, func(r *Record) (*string, bool) { return r.DefaultTitle, declared(r.DefaultTitle) }); truthy(def) {
		return clonePtr(def)
	}
	return nil
}

func clientState(list PropsList) ClientStateFunc {
	if fn := pickInnermost(list, func(r *Record) (ClientStateFunc, bool) {
		return r.OnChangeClientState, r.OnChangeClientState != nil
	}); fn != nil {
		return fn
	}
	return func(*State, map[TagKind][]AttributeMap, map[TagKind][]AttributeMap) {}
}

// mergeAttributes folds attribute maps of requested kind from outer to inner,
// inner keys overwrite outer ones.
func mergeAttributes(list PropsList, kind TagKind) AttributeMap {
	merged := AttributeMap{}
	for _, r := range list {
		if attrs := r.Attributes(kind); attrs != nil {
			merged = merged.Merge(attrs)
		}
	}
	return merged
}

// baseTag selects innermost base tag with usable primary attribute. Base
// tags are never merged.
func baseTag(list PropsList) []AttributeMap {
	primary := PrimaryAttributes[TagBase]
	for i := len(list) - 1; i >= 0; i-- {
		tag := list[i].Base
		if tag == nil {
			continue
		}
		for _, key := range tag.Keys() {
			lk := strings.ToLower(key)
			if v, ok := tag.Get(lk); ok && slices.Contains(primary, lk) && v.Truthy() {
				return []AttributeMap{tag.Clone()}
			}
		}
		// innermost declared base without href does not hide outer ones
	}
	return []AttributeMap{}
}

// tagIdentity is what makes two tags of the same kind conflict.
type tagIdentity struct {
	key   string
	value string
}

// tagApproval carries identities of already accepted tags. Tags of a record
// are checked against approved only, identities they introduce are kept in
// pending until the whole record is processed, so siblings never conflict
// with each other.
type tagApproval struct {
	approved map[tagIdentity]struct{}
	pending  map[tagIdentity]struct{}
}

func newTagApproval() *tagApproval {
	return &tagApproval{
		approved: make(map[tagIdentity]struct{}),
		pending:  make(map[tagIdentity]struct{}),
	}
}

func (a *tagApproval) accept(id tagIdentity) bool {
	if _, seen := a.approved[id]; seen {
		return false
	}
	a.pending[id] = struct{}{}
	return true
}

// commit folds identities seen in the current record into approved set.
func (a *tagApproval) commit() {
	for id := range a.pending {
		a.approved[id] = struct{}{}
	}
	clear(a.pending)
}

// primaryIdentity determines which attribute defines identity of the tag.
// For links rel normally wins over href, except that rel=canonical is never
// replaced and rel=stylesheet is never used. innerHTML, cssText and itemProp
// are only recognized with exact spelling.
func primaryIdentity(tag AttributeMap, primary []string) (tagIdentity, bool) {
	var pk string
	for _, key := range tag.Keys() {
		lk := strings.ToLower(key)

		if slices.Contains(primary, lk) &&
			!(pk == AttrRel && strings.ToLower(attrString(tag, pk)) == "canonical") &&
			!(lk == AttrRel && strings.ToLower(attrString(tag, lk)) == "stylesheet") {
			pk = lk
		}
		if slices.Contains(primary, key) && slices.Contains(caseSensitiveAttrs, key) {
			pk = key
		}
	}
	if pk == "" {
		return tagIdentity{}, false
	}
	v, ok := tag.Get(pk)
	if !ok || !v.Truthy() {
		return tagIdentity{}, false
	}
	return tagIdentity{key: pk, value: strings.ToLower(v.String())}, true
}

func attrString(tag AttributeMap, key string) string {
	v, _ := tag.Get(key)
	return v.String()
}

// resolveTags deduplicates tags of requested kind giving priority to the
// innermost records. Result keeps outermost declarations first.
func resolveTags(list PropsList, kind TagKind, log *zap.Logger) []AttributeMap {
	primary := PrimaryAttributes[kind]

	var instances [][]AttributeMap
	for _, r := range list {
		if found, bad := r.Malformed(kind); bad {
			log.Warn("Tags should be a list, ignoring",
				zap.Stringer("kind", kind), zap.String("found", found))
			continue
		}
		if tags, ok := r.Tags(kind); ok {
			instances = append(instances, tags)
		}
	}

	approval := newTagApproval()
	approved := make([]AttributeMap, 0)

	for i := len(instances) - 1; i >= 0; i-- {
		var accepted []AttributeMap
		for _, tag := range instances[i] {
			id, ok := primaryIdentity(tag, primary)
			if !ok {
				continue
			}
			if approval.accept(id) {
				accepted = append(accepted, tag.Clone())
			}
		}
		slices.Reverse(accepted)
		approved = append(approved, accepted...)
		approval.commit()
	}

	slices.Reverse(approved)
	return approved
}
