package core

import (
	"encoding/json"
	"familycore/pkg/domain"
	"fmt"
	"sync"
	"testing"
)

// sequentialIDs returns a deterministic id generator: id-1, id-2, ...
func sequentialIDs() IDGenerator {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func mustDoc(t *testing.T, src string) domain.RawDoc {
	t.Helper()
	doc, err := ParseDocument([]byte(src))
	if err != nil {
		t.Fatalf("parse document: %v", err)
	}
	return doc
}

func mustNormalize(t *testing.T, src string) *domain.Family {
	t.Helper()
	f, err := NormalizeFamilyPipeline(mustDoc(t, src), PipelineOptions{NewID: sequentialIDs()})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	return f
}

func mustExport(t *testing.T, f *domain.Family) []byte {
	t.Helper()
	data, err := ExportFamily(f)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	return data
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}

const legacyFamily = `{
  "key": "legacy",
  "tribeRule": "father",
  "grandson": {
    "name": "يوسف",
    "birthYear": "1960",
    "tribe": "قحطان",
    "occupation": "مهندس",
    "wives": [
      {
        "name": "مريم",
        "fatherName": "سالم",
        "children": [
          {"name": "أحمد", "role": "ابن", "birthDate": "١٩٨٨-٠٢-٠١", "fatherName": "يوسف", "motherName": "مريم"},
          {"name": "فاطمة", "role": "بنت", "motherName": "خديجة", "photo": "data:image/png;base64,AAAA"}
        ]
      }
    ]
  },
  "father": {"name": "علي", "deathYear": "1999"},
  "ancestors": ["حسن", "", {"name": "حسين", "generation": "x"}]
}`

const modernFamily = `{
  "key": "modern",
  "__v": 5,
  "__meta": {"lineage": {"tribeRule": "father", "clanRule": "mother"}},
  "rootPerson": {"name": "عبدالله", "bio": {"motherName": "نورة", "motherClan": "الحمد", "tribe": "تميم"}},
  "father": {"name": "محمد", "bio": {"tribe": "تميم", "clan": "الصالح"}},
  "ancestors": [{"name": "إبراهيم", "generation": 2}, {"name": "صالح", "generation": 1}],
  "wives": [
    {"name": "منيرة", "bio": {"tribe": "عنزة", "clan": "الرشيد", "fatherName": "ناصر"},
     "children": [{"name": "سارة", "sex": "female", "bio": {"birthDate": "1978-01-12"},
                   "children": [{"name": "ريم", "sex": "female"}]}]},
    {"name": "لطيفة", "children": ["خالد"]}
  ]
}`
