package reconcile

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"go.uber.org/zap/zaptest"

	"headfold/common"
	"headfold/config"
)

func renderConfig(template string, transliterate bool) *config.RenderConfig {
	return &config.RenderConfig{OutputNameTemplate: template, FileNameTransliterate: transliterate}
}

func TestBuildOutputPath(t *testing.T) {
	single := Values{Title: "Книга", Source: "index", Sources: []string{"pages/index.html"}, Format: "xhtml"}
	many := Values{Title: "Книга", Source: "site", Sources: []string{"site.yaml", "index.html"}, Format: "xhtml"}

	tests := []struct {
		name          string
		values        Values
		format        common.OutputFmt
		template      string
		transliterate bool
		want          string
	}{
		{"single source", single, common.OutputFmtXhtml, "", false, "index.xhtml"},
		{"many sources", many, common.OutputFmtYaml, "", false, "head.yaml"},
		{"template", many, common.OutputFmtJson, "{{ .Title }}", false, "Книга.json"},
		{"template transliterated", many, common.OutputFmtJson, "{{ .Title }}", true, "kniga.json"},
		{"template with dirs", many, common.OutputFmtXhtml, "{{ .Format }}/{{ .Source }}", false, filepath.Join("xhtml", "site.xhtml")},
		{"template expands to nothing", many, common.OutputFmtXhtml, "{{ if false }}x{{ end }}", false, "head.xhtml"},
		{"broken template", single, common.OutputFmtXhtml, "{{ .Title", false, "index.xhtml"},
		{"template walking up", many, common.OutputFmtXhtml, "../../{{ .Source }}", false, "site.xhtml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildOutputPath("/output", tt.values, tt.format, renderConfig(tt.template, tt.transliterate), zaptest.NewLogger(t))
			if want := filepath.Join("/output", tt.want); got != want {
				t.Errorf("buildOutputPath() = %q, want %q", got, want)
			}
		})
	}
}

func TestSplitAndCleanPath(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"file", []string{"file"}},
		{filepath.Join("a", "b", "c"), []string{"a", "b", "c"}},
		{filepath.Join("a", "..", "b") + string(os.PathSeparator), []string{"a", "b"}},
		{"", []string{}},
	}
	for _, tt := range tests {
		if got := splitAndCleanPath(tt.in); !slices.Equal(got, tt.want) {
			t.Errorf("splitAndCleanPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsDirDestination(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "out.xhtml")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		dst  string
		want bool
	}{
		{dir, true},
		{file, false},
		{filepath.Join(dir, "new") + string(os.PathSeparator), true},
		{filepath.Join(dir, "new.xhtml"), false},
	}
	for _, tt := range tests {
		if got := isDirDestination(tt.dst); got != tt.want {
			t.Errorf("isDirDestination(%q) = %v, want %v", tt.dst, got, tt.want)
		}
	}
}
