package core

import (
	"encoding/json"
	"familycore/pkg/domain"
	"fmt"
	"strings"
)

// derivedPersonKeys are recomputed by every pipeline run and never persisted.
var derivedPersonKeys = []string{"childrenIds", "spousesIds", "_normName"}

// ToRaw renders a family as a raw document, derived fields included.
func ToRaw(f *domain.Family) (domain.RawDoc, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encode family %s: %w", f.Key, err)
	}
	var doc domain.RawDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode family %s: %w", f.Key, err)
	}
	return doc, nil
}

// SanitizeFamily returns the persisted shape of a family: derived adjacency,
// name caches, the flat index and the legacy root wives mirror are stripped.
func SanitizeFamily(f *domain.Family) (domain.RawDoc, error) {
	doc, err := ToRaw(f)
	if err != nil {
		return nil, err
	}
	delete(doc, "persons")
	if root := domain.AsMap(doc["rootPerson"]); root != nil {
		delete(root, "wives")
	}
	walkRawPersons(doc, func(node map[string]any, _ Slot, _ string) {
		for _, k := range derivedPersonKeys {
			delete(node, k)
		}
	})
	return doc, nil
}

// ExportFamily encodes the sanitized family as indented JSON.
func ExportFamily(f *domain.Family) ([]byte, error) {
	doc, err := SanitizeFamily(f)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export family %s: %w", f.Key, err)
	}
	return data, nil
}

// CloneFamily deep copies a normalized family and rebuilds its index.
func CloneFamily(f *domain.Family) *domain.Family {
	if f == nil {
		return nil
	}
	cp := *f
	cp.RootPerson = clonePerson(f.RootPerson)
	cp.Father = clonePerson(f.Father)
	cp.Mother = clonePerson(f.Mother)
	cp.Ancestors = clonePersons(f.Ancestors)
	cp.Wives = clonePersons(f.Wives)
	cp.Persons = BuildPersonsIndex(&cp)
	return &cp
}

func clonePerson(p *domain.Person) *domain.Person {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Bio = p.Bio.Clone()
	cp.SpousesIDs = cloneStrings(p.SpousesIDs)
	cp.ChildrenIDs = cloneStrings(p.ChildrenIDs)
	cp.Father = clonePerson(p.Father)
	cp.Mother = clonePerson(p.Mother)
	if p.Children != nil {
		cp.Children = clonePersons(p.Children)
	}
	return &cp
}

func clonePersons(in []*domain.Person) []*domain.Person {
	if in == nil {
		return nil
	}
	out := make([]*domain.Person, len(in))
	for i, p := range in {
		out[i] = clonePerson(p)
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

// StripPhotosDeep returns a copy of the family without inline data: photo
// payloads. Remote photo URLs are kept.
func StripPhotosDeep(f *domain.Family) *domain.Family {
	cp := CloneFamily(f)
	WalkPersons(cp, func(p *domain.Person) {
		if isInlinePhoto(p.Bio.PhotoURL) {
			p.ApplyPhoto(domain.PhotoPatch{})
		}
		for k, v := range p.Bio.Extra {
			if s, ok := v.(string); ok && isInlinePhoto(s) {
				delete(p.Bio.Extra, k)
			}
		}
	})
	return cp
}

func isInlinePhoto(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "data:")
}
