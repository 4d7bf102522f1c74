package reconcile

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"

	"headfold/common"
	"headfold/config"
	"headfold/head"
)

// Values is a struct that holds variables we make available for template expansion
type Values struct {
	Context string
	Title   string
	Format  string
	// base name of the first source without extension
	Source  string
	Sources []string
	RunID   string
}

func baseName(name string) string {
	return strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
}

func buildValues(name config.TemplateFieldName, s *head.State, fragments []Fragment, format common.OutputFmt, runID string) Values {
	v := Values{
		Context: string(name),
		Format:  format.String(),
		Sources: make([]string, 0, len(fragments)),
		RunID:   runID,
	}
	if s != nil && s.Title != nil {
		v.Title = *s.Title
	}
	for _, f := range fragments {
		v.Sources = append(v.Sources, f.Name)
	}
	if len(fragments) > 0 {
		v.Source = baseName(fragments[0].Name)
	}
	return v
}

func expandTemplate(name config.TemplateFieldName, field string, values Values) (string, error) {
	tmpl, err := template.New(string(name)).Funcs(sprig.FuncMap()).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", name, err)
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", err
	}
	return buf.String(), nil
}
