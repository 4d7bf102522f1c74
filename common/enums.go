// Package common keeps enumerations shared between configuration, command
// line and processing code.
package common

import (
	"fmt"
	"strings"
)

// Specification of requested output type.
type OutputFmt int

const (
	OutputFmtXhtml OutputFmt = iota
	OutputFmtYaml
	OutputFmtJson
)

var outputFmtNames = [...]string{
	OutputFmtXhtml: "xhtml",
	OutputFmtYaml:  "yaml",
	OutputFmtJson:  "json",
}

func (o OutputFmt) String() string {
	if o < 0 || int(o) >= len(outputFmtNames) {
		return fmt.Sprintf("OutputFmt(%d)", int(o))
	}
	return outputFmtNames[o]
}

// ParseOutputFmt converts name (case insensitive) into OutputFmt.
func ParseOutputFmt(name string) (OutputFmt, error) {
	for i, n := range outputFmtNames {
		if strings.EqualFold(n, name) {
			return OutputFmt(i), nil
		}
	}
	return OutputFmtXhtml, fmt.Errorf("%s is not a valid OutputFmt, try [%s]", name, strings.Join(OutputFmtNames(), ", "))
}

func OutputFmtNames() []string {
	return append([]string(nil), outputFmtNames[:]...)
}

func (o OutputFmt) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *OutputFmt) UnmarshalText(text []byte) error {
	v, err := ParseOutputFmt(string(text))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

func (o OutputFmt) Ext() string {
	switch o {
	case OutputFmtXhtml:
		return ".xhtml"
	case OutputFmtYaml:
		return ".yaml"
	case OutputFmtJson:
		return ".json"
	default:
		// this should never happen
		panic("unsupported format requested")
	}
}

// Kind of fragment source.
type SourceKind int

const (
	// html or xhtml text with fragment containers
	SourceKindMarkup SourceKind = iota
	// yaml serialized record
	SourceKindRecord
)

func (k SourceKind) String() string {
	switch k {
	case SourceKindMarkup:
		return "markup"
	case SourceKindRecord:
		return "record"
	}
	return fmt.Sprintf("SourceKind(%d)", int(k))
}
