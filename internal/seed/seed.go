// Package seed embeds the core families shipped with familycore.
package seed

import (
	_ "embed"
	"encoding/json"
	"familycore/pkg/domain"
	"fmt"
)

//go:embed families.json
var familiesJSON []byte

// Raw returns the embedded seed document bytes.
func Raw() []byte { return familiesJSON }

// Families decodes the embedded seed documents. Each call returns fresh maps.
func Families() ([]domain.RawDoc, error) {
	return Parse(familiesJSON)
}

// Parse decodes a JSON array of family documents.
func Parse(data []byte) ([]domain.RawDoc, error) {
	var docs []domain.RawDoc
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("decode seed families: %w", err)
	}
	out := docs[:0]
	for _, d := range docs {
		if d != nil {
			out = append(out, d)
		}
	}
	return out, nil
}
