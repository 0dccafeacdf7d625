// Package loader reads configuration documents from JSON and YAML files.
//
// YAML documents are normalized through JSON so that both formats decode
// with the same rules: numbers become float64, and select values accept a
// scalar or a list.
package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/solatis/vizconf/internal/types"
)

// Source is a document together with the file it came from.
type Source struct {
	Path     string
	Document *types.Document
}

// Supported reports whether path has a recognized document extension.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// LoadFile reads one configuration document.
func LoadFile(path string) (*types.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	doc, err := Decode(path, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// LoadDir reads every supported document directly inside dir, ordered by
// file name. File order determines rule ordinals across documents.
func LoadDir(dir string) ([]Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !Supported(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	slices.Sort(names)

	sources := make([]Source, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		doc, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		sources = append(sources, Source{Path: path, Document: doc})
	}
	return sources, nil
}

// Decode parses data as JSON or YAML depending on the extension of name.
func Decode(name string, data []byte) (*types.Document, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return decodeYAML(data)
	case ".json":
		return types.ParseDocument(data)
	default:
		return nil, fmt.Errorf("unsupported document format %q", filepath.Ext(name))
	}
}

func decodeYAML(data []byte) (*types.Document, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid YAML document: %w", err)
	}
	if raw == nil {
		return &types.Document{}, nil
	}
	normalized, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("YAML document is not JSON-compatible: %w", err)
	}
	return types.ParseDocument(normalized)
}
