package core

import (
	"familycore/pkg/domain"
	"testing"
)

// assertGraphConsistent checks spouse reciprocity and that every adjacency
// edge points back through a parent id.
func assertGraphConsistent(t *testing.T, f *domain.Family) {
	t.Helper()
	index := BuildPersonsIndex(f)
	WalkPersons(f, func(p *domain.Person) {
		for _, id := range p.SpousesIDs {
			other, ok := index[id]
			if !ok {
				t.Fatalf("%s: dangling spouse %s", p.Name, id)
			}
			if !contains(other.SpousesIDs, p.ID) {
				t.Fatalf("spouse edge %s -> %s is not reciprocal", p.Name, other.Name)
			}
		}
		for _, id := range p.ChildrenIDs {
			c, ok := index[id]
			if !ok {
				t.Fatalf("%s: dangling child %s", p.Name, id)
			}
			if c.FatherID != p.ID && c.MotherID != p.ID {
				t.Fatalf("child %s does not point back to %s", c.Name, p.Name)
			}
		}
		for _, parent := range []string{p.FatherID, p.MotherID} {
			if parent == "" {
				continue
			}
			par, ok := index[parent]
			if !ok {
				t.Fatalf("%s: dangling parent %s", p.Name, parent)
			}
			if !contains(par.ChildrenIDs, p.ID) {
				t.Fatalf("parent %s does not list child %s", par.Name, p.Name)
			}
		}
	})
}

func TestLinkLineageModernFamily(t *testing.T) {
	f := mustNormalize(t, modernFamily)
	assertGraphConsistent(t, f)
	root := f.RootPerson
	if root.FatherID != f.Father.ID || root.MotherID != f.Mother.ID {
		t.Fatalf("root parents not linked")
	}
	if f.Father.FatherID != f.Ancestors[0].ID || f.Ancestors[0].FatherID != f.Ancestors[1].ID || f.Ancestors[1].FatherID != "" {
		t.Fatalf("ancestor chain not linked")
	}
	if len(root.SpousesIDs) != 2 || !contains(f.Father.SpousesIDs, f.Mother.ID) {
		t.Fatalf("unexpected spouses root=%v father=%v", root.SpousesIDs, f.Father.SpousesIDs)
	}
	sara := f.Wives[0].Children[0]
	if sara.FatherID != root.ID || sara.MotherID != f.Wives[0].ID {
		t.Fatalf("child parents not linked")
	}
	reem := sara.Children[0]
	if reem.MotherID != sara.ID || reem.FatherID != "" {
		t.Fatalf("grandchild links through a daughter as mother: %+v", reem)
	}
	if !f.Wives[0].Father.Synthetic || f.Wives[0].FatherID != f.Wives[0].Father.ID {
		t.Fatalf("wife father should be synthesized from bio.fatherName")
	}
}

// Scenario A.
func TestSynthesizedMother(t *testing.T) {
	f := mustNormalize(t, `{"rootPerson": {"name": "خالد", "bio": {"motherName": "عائشة"}}}`)
	if f.Mother == nil || f.Mother.Name != "عائشة" || !f.Mother.Synthetic {
		t.Fatalf("expected synthesized mother, got %+v", f.Mother)
	}
	if f.RootPerson.MotherID != f.Mother.ID || f.Mother.Role != domain.RoleMother {
		t.Fatalf("root.motherId must point at the synthesized mother")
	}
	again, err := NormalizeDocument(mustExport(t, f), PipelineOptions{NewID: sequentialIDs()})
	if err != nil {
		t.Fatalf("renormalize: %v", err)
	}
	if again.Mother == nil || again.Mother.ID != f.Mother.ID {
		t.Fatalf("the synthesized mother must survive a round trip unchanged")
	}
}

// Scenario C.
func TestLegacyFatherNameBridged(t *testing.T) {
	f := mustNormalize(t, `{"rootPerson": {"name": "سعيد"}, "father": {"name": "أحمد"},
		"wives": [{"name": "هند", "children": [{"name": "زيد", "fatherName": "احمد"}]}]}`)
	child := f.Wives[0].Children[0]
	if child.FatherID != f.Father.ID {
		t.Fatalf("expected child.fatherId == father.id, got %s want %s", child.FatherID, f.Father.ID)
	}
	if child.LegacyFatherName != "" || child.Bio.FatherName != "" {
		t.Fatalf("legacy father name must be consumed")
	}
	doc, err := SanitizeFamily(f)
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	raw := domain.AsMap(domain.AsSlice(domain.AsMap(domain.AsSlice(doc["wives"])[0])["children"])[0])
	if _, ok := raw["fatherName"]; ok {
		t.Fatalf("legacy fatherName must be absent from the normalized record: %v", raw)
	}
}

func TestLegacyParentNamesUnmatched(t *testing.T) {
	f := mustNormalize(t, legacyFamily)
	wife := f.Wives[0]
	ahmed, fatima := wife.Children[0], wife.Children[1]
	if ahmed.FatherID != f.RootPerson.ID || ahmed.Bio.MotherName != "" {
		t.Fatalf("matching names become links: %+v", ahmed)
	}
	if fatima.Bio.MotherName != "خديجة" || fatima.MotherID != wife.ID {
		t.Fatalf("a non-matching mother name stays as text: %+v", fatima.Bio)
	}
	unmatched := mustNormalize(t, `{"rootPerson": {"name": "a"}, "wives": [{"name": "w", "children": [{"name": "c", "fatherName": "غريب"}]}]}`)
	c := unmatched.Wives[0].Children[0]
	if c.Bio.FatherName != "غريب" || c.FatherID != unmatched.RootPerson.ID {
		t.Fatalf("unmatched father name is kept as bio text: %+v", c)
	}
}

func TestExplicitFatherIDOutsidePaternalLine(t *testing.T) {
	f := mustNormalize(t, `{"rootPerson": {"id": "r", "name": "a"}, "father": {"id": "f", "name": "b"},
		"wives": [{"id": "w", "name": "w", "children": [
			{"id": "c1", "name": "c1", "fatherId": "f"},
			{"id": "c2", "name": "c2", "fatherId": "w"},
			{"id": "c3", "name": "c3", "fatherId": "missing", "spousesIds": ["missing", "c3", "c1"]}
		]}]}`)
	kids := f.Wives[0].Children
	if kids[0].FatherID != "f" || kids[1].FatherID != "r" || kids[2].FatherID != "r" {
		t.Fatalf("unexpected fathers %s %s %s", kids[0].FatherID, kids[1].FatherID, kids[2].FatherID)
	}
	if len(kids[2].SpousesIDs) != 1 || kids[2].SpousesIDs[0] != "c1" || !contains(kids[0].SpousesIDs, "c3") {
		t.Fatalf("dangling and self spouse ids are dropped, others repaired: %v %v", kids[2].SpousesIDs, kids[0].SpousesIDs)
	}
	assertGraphConsistent(t, f)
}

func TestAncestorOrdering(t *testing.T) {
	f := mustNormalize(t, `{"rootPerson": {"name": "r"},
		"ancestors": [{"name": "third", "generation": 3}, {"name": "first", "generation": 1}, {"name": "second", "generation": 2}, {"name": "also-second", "generation": 2}]}`)
	names := AncestorsNames(SortedAncestors(f))
	want := []string{"first", "second", "also-second", "third"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("unexpected order %v", names)
		}
	}
	if f.RootPerson.FatherID != f.Ancestors[0].ID {
		t.Fatalf("without a father the root links to the nearest ancestor")
	}
	if f.Ancestors[len(f.Ancestors)-1].FatherID != "" {
		t.Fatalf("the eldest ancestor has no father")
	}
	if SortedAncestors(nil) != nil {
		t.Fatalf("nil family has no ancestors")
	}
}

func TestLinkLineageToleratesEmptyFamily(t *testing.T) {
	LinkLineage(nil, nil)
	LinkLineage(&domain.Family{}, nil)
	f := mustNormalize(t, `{}`)
	if f.RootPerson == nil || f.RootPerson.ID == "" || len(f.Persons) != 1 {
		t.Fatalf("an empty document yields a lone root: %+v", f.RootPerson)
	}
}
