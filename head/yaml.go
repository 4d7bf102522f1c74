package head

import (
	"fmt"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

// recordFile mirrors Record for (de)serialization, field names follow
// properties fragment declarations traditionally use.
type recordFile struct {
	Title                   *string        `yaml:"title,omitempty"`
	TitleTemplate           *string        `yaml:"titleTemplate,omitempty"`
	DefaultTitle            *string        `yaml:"defaultTitle,omitempty"`
	HTMLAttributes          AttributeMap   `yaml:"htmlAttributes,omitempty"`
	BodyAttributes          AttributeMap   `yaml:"bodyAttributes,omitempty"`
	TitleAttributes         AttributeMap   `yaml:"titleAttributes,omitempty"`
	Base                    AttributeMap   `yaml:"base,omitempty"`
	Head                    AttributeMap   `yaml:"head,omitempty"`
	Link                    []AttributeMap `yaml:"link,omitempty"`
	Meta                    []AttributeMap `yaml:"meta,omitempty"`
	Noscript                []AttributeMap `yaml:"noscript,omitempty"`
	Script                  []AttributeMap `yaml:"script,omitempty"`
	Style                   []AttributeMap `yaml:"style,omitempty"`
	Defer                   *bool          `yaml:"defer,omitempty"`
	EncodeSpecialCharacters *bool          `yaml:"encodeSpecialCharacters,omitempty"`
	PrioritizeSEOTags       bool           `yaml:"prioritizeSeoTags,omitempty"`
}

func (r Record) MarshalYAML() (any, error) {
	return recordFile{
		Title:                   r.Title,
		TitleTemplate:           r.TitleTemplate,
		DefaultTitle:            r.DefaultTitle,
		HTMLAttributes:          r.HTMLAttributes,
		BodyAttributes:          r.BodyAttributes,
		TitleAttributes:         r.TitleAttributes,
		Base:                    r.Base,
		Head:                    r.Head,
		Link:                    r.LinkTags,
		Meta:                    r.MetaTags,
		Noscript:                r.NoscriptTags,
		Script:                  r.ScriptTags,
		Style:                   r.StyleTags,
		Defer:                   r.Defer,
		EncodeSpecialCharacters: r.EncodeSpecialCharacters,
		PrioritizeSEOTags:       r.PrioritizeSEOTags,
	}, nil
}

func yamlKind(node *yaml.Node) string {
	switch node.Kind {
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return strings.TrimPrefix(node.ShortTag(), "!!")
	case yaml.SequenceNode:
		return "sequence"
	case yaml.AliasNode:
		return "alias"
	}
	return "unknown"
}

func isNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null"
}

// decodeTitle accepts either single string or list of strings which are
// joined together.
func decodeTitle(node *yaml.Node) (*string, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		s := node.Value
		return &s, nil
	case yaml.SequenceNode:
		var parts []string
		if err := node.Decode(&parts); err != nil {
			return nil, err
		}
		s := strings.Join(parts, "")
		return &s, nil
	}
	return nil, fmt.Errorf("line %d: title must be string or list of strings", node.Line)
}

// UnmarshalYAML decodes record allowing only known fields. Tag lists
// declared with anything but a sequence are remembered as malformed instead
// of failing the whole record.
func (r *Record) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: fragment record must be a mapping", node.Line)
	}

	var out Record
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i].Value, node.Content[i+1]
		if isNull(val) {
			continue
		}

		var err error
		switch key {
		case "title":
			out.Title, err = decodeTitle(val)
		case "titleTemplate":
			err = val.Decode(&out.TitleTemplate)
		case "defaultTitle":
			err = val.Decode(&out.DefaultTitle)
		case "htmlAttributes":
			err = val.Decode(&out.HTMLAttributes)
		case "bodyAttributes":
			err = val.Decode(&out.BodyAttributes)
		case "titleAttributes":
			err = val.Decode(&out.TitleAttributes)
		case "base":
			err = val.Decode(&out.Base)
		case "head":
			err = val.Decode(&out.Head)
		case "defer":
			err = val.Decode(&out.Defer)
		case "encodeSpecialCharacters":
			err = val.Decode(&out.EncodeSpecialCharacters)
		case "prioritizeSeoTags":
			err = val.Decode(&out.PrioritizeSEOTags)
		default:
			kind, perr := ParseTagKind(key)
			if perr != nil || !kind.IsArray() {
				return fmt.Errorf("line %d: field %s not expected in fragment record", node.Content[i].Line, key)
			}
			if val.Kind != yaml.SequenceNode {
				out.MarkMalformed(kind, yamlKind(val))
				continue
			}
			tags := make([]AttributeMap, 0, len(val.Content))
			if err = val.Decode(&tags); err == nil {
				out.SetTags(kind, tags)
			}
		}
		if err != nil {
			return fmt.Errorf("field %s: %w", key, err)
		}
	}
	*r = out
	return nil
}
