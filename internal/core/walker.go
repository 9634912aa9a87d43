package core

import (
	"familycore/pkg/domain"
	"strconv"
	"strings"
)

// SlotKind distinguishes single-person slots from person lists.
type SlotKind int

const (
	// SlotSingle holds at most one person.
	SlotSingle SlotKind = iota
	// SlotList holds an ordered list of persons.
	SlotList
)

// Slot describes one place a person can occupy in a family document.
type Slot struct {
	Name string
	Kind SlotKind
	Role domain.RoleKind
}

// FamilyShape lists the top-level person slots of a family in walk order.
var FamilyShape = []Slot{
	{Name: "rootPerson", Kind: SlotSingle, Role: domain.RoleRoot},
	{Name: "father", Kind: SlotSingle, Role: domain.RoleFather},
	{Name: "mother", Kind: SlotSingle, Role: domain.RoleMother},
	{Name: "ancestors", Kind: SlotList, Role: domain.RoleAncestor},
	{Name: "wives", Kind: SlotList, Role: domain.RoleWife},
}

// PersonShape lists the slots nested under any person. By convention only
// wives fill them, but traversal recurses to any depth.
var PersonShape = []Slot{
	{Name: "father", Kind: SlotSingle, Role: domain.RoleWifeFather},
	{Name: "mother", Kind: SlotSingle, Role: domain.RoleWifeMother},
	{Name: "children", Kind: SlotList, Role: domain.RoleChild},
}

func lookupSlot(shape []Slot, name string) (Slot, bool) {
	for _, s := range shape {
		if s.Name == name {
			return s, true
		}
	}
	return Slot{}, false
}

func familySlot(f *domain.Family, s Slot) []*domain.Person {
	switch s.Name {
	case "rootPerson":
		return single(f.RootPerson)
	case "father":
		return single(f.Father)
	case "mother":
		return single(f.Mother)
	case "ancestors":
		return f.Ancestors
	case "wives":
		return f.Wives
	}
	return nil
}

func personSlot(p *domain.Person, s Slot) []*domain.Person {
	switch s.Name {
	case "father":
		return single(p.Father)
	case "mother":
		return single(p.Mother)
	case "children":
		return p.Children
	}
	return nil
}

func single(p *domain.Person) []*domain.Person {
	if p == nil {
		return nil
	}
	return []*domain.Person{p}
}

func slotPath(prefix string, s Slot, index int) string {
	seg := s.Name
	if s.Kind == SlotList {
		seg += "." + strconv.Itoa(index)
	}
	if prefix == "" {
		return seg
	}
	return prefix + "." + seg
}

// WalkPersons visits every person of the family depth-first: root, father,
// mother, ancestors, then each wife followed by her nested slots.
func WalkPersons(f *domain.Family, visit func(*domain.Person)) {
	WalkPersonsWithPath(f, func(p *domain.Person, _ string) { visit(p) })
}

// WalkPersonsWithPath is WalkPersons with the stable slot address of each
// person, e.g. "wives.1.children.0".
func WalkPersonsWithPath(f *domain.Family, visit func(*domain.Person, string)) {
	if f == nil {
		return
	}
	for _, slot := range FamilyShape {
		for i, p := range familySlot(f, slot) {
			walkPerson(p, slotPath("", slot, i), visit)
		}
	}
}

func walkPerson(p *domain.Person, path string, visit func(*domain.Person, string)) {
	if p == nil {
		return
	}
	visit(p, path)
	for _, slot := range PersonShape {
		for i, c := range personSlot(p, slot) {
			walkPerson(c, slotPath(path, slot, i), visit)
		}
	}
}

// GetByPath resolves a slot address produced by WalkPersonsWithPath.
func GetByPath(f *domain.Family, path string) (*domain.Person, bool) {
	if f == nil || path == "" {
		return nil, false
	}
	segs := strings.Split(path, ".")
	slot, ok := lookupSlot(FamilyShape, segs[0])
	if !ok {
		return nil, false
	}
	p, rest, ok := pick(familySlot(f, slot), slot, segs[1:])
	for ok && len(rest) > 0 {
		slot, ok = lookupSlot(PersonShape, rest[0])
		if !ok {
			return nil, false
		}
		p, rest, ok = pick(personSlot(p, slot), slot, rest[1:])
	}
	if !ok || p == nil {
		return nil, false
	}
	return p, true
}

func pick(persons []*domain.Person, slot Slot, rest []string) (*domain.Person, []string, bool) {
	if slot.Kind == SlotSingle {
		if len(persons) == 0 {
			return nil, nil, false
		}
		return persons[0], rest, true
	}
	if len(rest) == 0 {
		return nil, nil, false
	}
	idx, err := strconv.Atoi(rest[0])
	if err != nil || idx < 0 || idx >= len(persons) || persons[idx] == nil {
		return nil, nil, false
	}
	return persons[idx], rest[1:], true
}

// FindPathByIDInFamily returns the slot address of the person with id.
func FindPathByIDInFamily(f *domain.Family, id string) (string, bool) {
	if id == "" {
		return "", false
	}
	var found string
	WalkPersonsWithPath(f, func(p *domain.Person, path string) {
		if found == "" && p.ID == id {
			found = path
		}
	})
	return found, found != ""
}

// walkRawPersons visits person-shaped maps of an undecoded document using the
// same slot tables as the typed walker.
func walkRawPersons(doc domain.RawDoc, visit func(node map[string]any, slot Slot, path string)) {
	for _, slot := range FamilyShape {
		for i, node := range rawSlot(doc, slot) {
			walkRawPerson(node, slot, slotPath("", slot, i), visit)
		}
	}
}

func walkRawPerson(node map[string]any, slot Slot, path string, visit func(map[string]any, Slot, string)) {
	if node == nil {
		return
	}
	visit(node, slot, path)
	for _, child := range PersonShape {
		for i, n := range rawSlot(node, child) {
			walkRawPerson(n, child, slotPath(path, child, i), visit)
		}
	}
}

// rawSlot returns the maps stored under a slot, keeping list positions so
// raw paths line up with typed paths. Non-map entries become nil.
func rawSlot(node map[string]any, s Slot) []map[string]any {
	v, ok := node[s.Name]
	if !ok || v == nil {
		return nil
	}
	if s.Kind == SlotSingle {
		if m := domain.AsMap(v); m != nil {
			return []map[string]any{m}
		}
		return nil
	}
	items := domain.AsSlice(v)
	out := make([]map[string]any, len(items))
	for i, it := range items {
		out[i] = domain.AsMap(it)
	}
	return out
}
