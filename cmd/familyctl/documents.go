package main

import (
	"encoding/json"
	"familycore/internal/core"
	"familycore/pkg/domain"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

func checkFormat(format string) error {
	switch format {
	case formatJSON, formatYAML:
		return nil
	}
	return fmt.Errorf("unknown format %q (want json or yaml)", format)
}

// readDocument loads a family document from path, or from stdin when path is
// "-". Files ending in .yaml or .yml are decoded as YAML.
func readDocument(stdin io.Reader, path string) (domain.RawDoc, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return parseYAMLDocument(data)
	}
	return core.ParseDocument(data)
}

// parseYAMLDocument decodes YAML and re-encodes it as JSON so the pipeline
// sees the same value types it gets from JSON input.
func parseYAMLDocument(data []byte) (domain.RawDoc, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parse family: %w: %v", core.ErrUnparseable, err)
	}
	js, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("parse family: %w: %v", core.ErrUnparseable, err)
	}
	return core.ParseDocument(js)
}

// writeFamily renders the sanitized family in the requested format.
func writeFamily(w io.Writer, format string, f *domain.Family) error {
	if format == formatYAML {
		doc, err := core.SanitizeFamily(f)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	}
	data, err := core.ExportFamily(f)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
