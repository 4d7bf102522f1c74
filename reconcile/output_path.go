package reconcile

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"headfold/common"
	"headfold/config"
)

const defaultOutputName = "head"

// isDirDestination reports whether destination names a directory: either
// existing one or path ending with separator.
func isDirDestination(dst string) bool {
	if strings.HasSuffix(dst, string(os.PathSeparator)) || strings.HasSuffix(dst, "/") {
		return true
	}
	fi, err := os.Stat(dst)
	return err == nil && fi.IsDir()
}

// buildOutputPath returns output file path for destination directory. Name
// comes from user-defined template when configured, otherwise from the only
// source or generic default. Path is cleaned and if requested transliterated.
func buildOutputPath(dir string, values Values, format common.OutputFmt, cfg *config.RenderConfig, log *zap.Logger) string {
	defaultFile := buildDefaultFileName(values, format, cfg)

	if cfg.OutputNameTemplate == "" {
		return filepath.Join(dir, defaultFile)
	}

	expandedName, err := expandTemplate(config.OutputNameTemplateFieldName, cfg.OutputNameTemplate, values)
	if err != nil {
		log.Warn("Unable to prepare output filename", zap.Error(err))
		return filepath.Join(dir, defaultFile)
	}
	expandedName = filepath.FromSlash(strings.TrimSpace(expandedName))
	if expandedName == "" {
		// fallback to default name if template expanded to nothing
		return filepath.Join(dir, defaultFile)
	}
	return assemblePathWithSubdirs(dir, expandedName, format, cfg)
}

func buildDefaultFileName(values Values, format common.OutputFmt, cfg *config.RenderConfig) string {
	name := defaultOutputName
	if len(values.Sources) == 1 {
		name = values.Source
	}
	return cleanPathSegment(name, cfg) + format.Ext()
}

// assemblePathWithSubdirs takes an expanded template name (which may contain
// path separators for subdirectories) and assembles it into a full output path,
// cleaning and transliterating segments as needed
func assemblePathWithSubdirs(outDir, expandedName string, format common.OutputFmt, cfg *config.RenderConfig) string {
	pathSegments := splitAndCleanPath(expandedName)
	if len(pathSegments) == 0 {
		return filepath.Join(outDir, defaultOutputName+format.Ext())
	}

	dirParts := make([]string, 0, len(pathSegments)+1)
	dirParts = append(dirParts, outDir)
	for _, segment := range pathSegments[:len(pathSegments)-1] {
		dirParts = append(dirParts, cleanPathSegment(segment, cfg))
	}
	dirParts = append(dirParts, cleanPathSegment(pathSegments[len(pathSegments)-1], cfg)+format.Ext())
	return filepath.Join(dirParts...)
}

// splitAndCleanPath splits path into segments dropping empty ones and any
// attempt to walk up the tree.
func splitAndCleanPath(path string) []string {
	path = strings.TrimSuffix(path, string(os.PathSeparator))
	segments := make([]string, 0, 8)

	for head, tail := filepath.Split(path); tail != ""; head, tail = filepath.Split(head) {
		if tail != "." && tail != ".." {
			segments = slices.Insert(segments, 0, tail)
		}
		head = strings.TrimSuffix(head, string(os.PathSeparator))
		if head == "" {
			break
		}
	}
	return segments
}

func cleanPathSegment(segment string, cfg *config.RenderConfig) string {
	if cfg.FileNameTransliterate {
		segment = slug.Make(segment)
	}
	return config.CleanFileName(segment)
}
