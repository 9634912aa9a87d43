package core

import (
	"encoding/json"
	"familycore/pkg/domain"
	"strings"
	"testing"
)

func TestSanitizeFamilyStripsDerivedKeys(t *testing.T) {
	f := mustNormalize(t, modernFamily)
	doc, err := SanitizeFamily(f)
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	if _, ok := doc["persons"]; ok {
		t.Fatalf("persons index must be stripped")
	}
	walkRawPersons(doc, func(node map[string]any, _ Slot, path string) {
		for _, k := range derivedPersonKeys {
			if _, ok := node[k]; ok {
				t.Fatalf("%s still carries %s", path, k)
			}
		}
	})
	data := mustExport(t, f)
	if strings.Contains(string(data), "childrenIds") || strings.Contains(string(data), "_normName") {
		t.Fatalf("export leaked derived keys")
	}
}

func TestSanitizeFamilyDropsRootWivesMirror(t *testing.T) {
	f := mustNormalize(t, modernFamily)
	doc, _ := ToRaw(f)
	domain.AsMap(doc["rootPerson"])["wives"] = []any{"x"}
	again, err := NormalizeFamilyPipeline(doc, PipelineOptions{})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	clean, _ := SanitizeFamily(again)
	if _, ok := domain.AsMap(clean["rootPerson"])["wives"]; ok {
		t.Fatalf("rootPerson.wives must not persist")
	}
}

func TestCloneFamilyIsDeep(t *testing.T) {
	f := mustNormalize(t, modernFamily)
	cp := CloneFamily(f)
	cp.Wives[0].Children[0].Name = "changed"
	cp.RootPerson.SpousesIDs[0] = "changed"
	cp.RootPerson.Bio.Achievements = append(cp.RootPerson.Bio.Achievements, "x")
	if f.Wives[0].Children[0].Name == "changed" || f.RootPerson.SpousesIDs[0] == "changed" || len(f.RootPerson.Bio.Achievements) != 0 {
		t.Fatalf("clone shares state with the original")
	}
	if cp.Persons[cp.RootPerson.ID] != cp.RootPerson {
		t.Fatalf("clone index must point into the clone")
	}
	if CloneFamily(nil) != nil {
		t.Fatalf("nil clones to nil")
	}
}

func TestStripPhotosDeep(t *testing.T) {
	f := mustNormalize(t, `{"rootPerson": {"name": "r", "bio": {"photoUrl": "data:image/png;base64,AAAA", "photoVersion": 2, "avatar": "data:image/jpeg;base64,BBBB", "note": "keep"}},
		"wives": [{"name": "w", "bio": {"photoUrl": "https://cdn.example/w.jpg", "photoVersion": 1}}]}`)
	stripped := StripPhotosDeep(f)
	root := stripped.RootPerson
	if root.Bio.PhotoURL != "" || root.Bio.PhotoVersion != 0 {
		t.Fatalf("inline photo must be cleared: %+v", root.Bio)
	}
	if _, ok := root.Bio.Extra["avatar"]; ok || root.Bio.Extra["note"] != "keep" {
		t.Fatalf("unexpected extras %v", root.Bio.Extra)
	}
	if stripped.Wives[0].Bio.PhotoURL != "https://cdn.example/w.jpg" {
		t.Fatalf("remote photos are kept")
	}
	if f.RootPerson.Bio.PhotoURL == "" {
		t.Fatalf("the original must not be modified")
	}
	data := mustExport(t, stripped)
	if strings.Contains(string(data), "data:") {
		t.Fatalf("export still contains inline data")
	}
}

func TestExportIsValidJSON(t *testing.T) {
	data := mustExport(t, mustNormalize(t, legacyFamily))
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("export is not JSON: %v", err)
	}
	if doc["__v"] != float64(CurrentSchemaVersion) {
		t.Fatalf("unexpected version %v", doc["__v"])
	}
}
