package core

import (
	"familycore/pkg/domain"
	"sort"
)

// LinkLineage turns the decoded persons of a family into an id-linked graph.
// It orders and chains the ancestors, synthesizes parents known only by
// name, bridges legacy parent name strings, rebuilds adjacency and repairs
// spouse reciprocity. It never fails: anything it cannot resolve is left as
// descriptive text.
func LinkLineage(f *domain.Family, newID IDGenerator) {
	if f == nil || f.RootPerson == nil {
		return
	}
	if newID == nil {
		newID = NewPersonID
	}
	linkAncestorChain(f)
	synthesizeParents(f, newID)
	bridgeLegacyParents(f)
	index := BuildPersonsIndex(f)
	assignChildParents(f, index)
	rebuildAdjacency(f, index)
	repairReciprocity(f, index)
}

func linkAncestorChain(f *domain.Family) {
	f.Ancestors = SortedAncestors(f)
	for i := 0; i+1 < len(f.Ancestors); i++ {
		f.Ancestors[i].FatherID = f.Ancestors[i+1].ID
	}
	var top string
	if n := len(f.Ancestors); n > 0 {
		top = f.Ancestors[0].ID
		f.Ancestors[n-1].FatherID = ""
	}
	switch {
	case f.Father != nil:
		if top != "" {
			f.Father.FatherID = top
		}
		f.RootPerson.FatherID = f.Father.ID
	case top != "":
		f.RootPerson.FatherID = top
	}
}

func synthesizeParents(f *domain.Family, newID IDGenerator) {
	root := f.RootPerson
	taken := takenIDs(f)
	next := func() string { return freshID(newID, taken) }
	if f.Mother == nil && root.Bio.MotherName != "" {
		m := syntheticPerson(root.Bio.MotherName, domain.RoleMother, next)
		m.Bio.Tribe = root.Bio.MotherTribe
		m.Bio.Clan = root.Bio.MotherClan
		f.Mother = m
	}
	if f.Mother != nil {
		root.MotherID = f.Mother.ID
	}
	for _, w := range f.Wives {
		if w.Father == nil && w.Bio.FatherName != "" {
			w.Father = syntheticPerson(w.Bio.FatherName, domain.RoleWifeFather, next)
		}
		if w.Mother == nil && w.Bio.MotherName != "" {
			w.Mother = syntheticPerson(w.Bio.MotherName, domain.RoleWifeMother, next)
		}
		if w.Father != nil {
			w.FatherID = w.Father.ID
		}
		if w.Mother != nil {
			w.MotherID = w.Mother.ID
		}
	}
}

func syntheticPerson(name string, role domain.RoleKind, newID func() string) *domain.Person {
	return &domain.Person{
		ID:        newID(),
		Name:      name,
		Role:      role,
		Bio:       CloneBio(),
		Synthetic: true,
	}
}

// bridgeLegacyParents rewrites legacy child parent strings into ids. A
// father name is matched against the father, the root person and the
// ancestors in that order. The mother is always the containing wife, so a
// mother name matching her is dropped and any other value stays as text.
func bridgeLegacyParents(f *domain.Family) {
	candidates := paternalCandidates(f)
	var visit func(c *domain.Person, mother *domain.Person)
	visit = func(c *domain.Person, mother *domain.Person) {
		if name := c.LegacyFatherName; name != "" {
			if match := matchByName(candidates, name); match != nil {
				c.FatherID = match.ID
			} else if c.Bio.FatherName == "" {
				c.Bio.FatherName = name
			}
			c.LegacyFatherName = ""
		}
		if name := c.LegacyMotherName; name != "" {
			if mother == nil || FoldName(mother.Name) != FoldName(name) {
				if c.Bio.MotherName == "" {
					c.Bio.MotherName = name
				}
			}
			c.LegacyMotherName = ""
		}
		for _, gc := range c.Children {
			visit(gc, nil)
		}
	}
	for _, w := range f.Wives {
		for _, c := range w.Children {
			visit(c, w)
		}
	}
}

// paternalCandidates lists the persons a legacy father name may refer to,
// in match priority order.
func paternalCandidates(f *domain.Family) []*domain.Person {
	out := make([]*domain.Person, 0, len(f.Ancestors)+2)
	if f.Father != nil {
		out = append(out, f.Father)
	}
	out = append(out, f.RootPerson)
	return append(out, f.Ancestors...)
}

func matchByName(candidates []*domain.Person, name string) *domain.Person {
	key := FoldName(name)
	if key == "" {
		return nil
	}
	for _, p := range candidates {
		if p != nil && FoldName(p.Name) == key {
			return p
		}
	}
	return nil
}

// paternalIndex maps ids of the paternal line (root, father, ancestors) to
// their persons. Only these may be named as a child's explicit father.
func paternalIndex(f *domain.Family) map[string]*domain.Person {
	idx := make(map[string]*domain.Person, len(f.Ancestors)+2)
	add := func(p *domain.Person) {
		if p != nil && p.ID != "" {
			idx[p.ID] = p
		}
	}
	add(f.RootPerson)
	add(f.Father)
	for _, a := range f.Ancestors {
		add(a)
	}
	return idx
}

// childFather resolves the father of a child listed under a wife: an
// explicit paternal-line fatherId when it resolves, else the root person.
func childFather(c *domain.Person, paternal map[string]*domain.Person, root *domain.Person) *domain.Person {
	if c.FatherID != "" {
		if p, ok := paternal[c.FatherID]; ok && p != c {
			return p
		}
	}
	return root
}

func assignChildParents(f *domain.Family, index map[string]*domain.Person) {
	paternal := paternalIndex(f)
	for _, w := range f.Wives {
		for _, c := range w.Children {
			c.MotherID = w.ID
			if father := childFather(c, paternal, f.RootPerson); father != nil {
				c.FatherID = father.ID
			}
			assignNestedParents(c, index)
		}
	}
}

// assignNestedParents links children listed under a child: the listing
// parent fills the slot matching its sex, the other slot is kept only when
// it resolves.
func assignNestedParents(parent *domain.Person, index map[string]*domain.Person) {
	for _, gc := range parent.Children {
		if parent.Sex == domain.SexFemale {
			gc.MotherID = parent.ID
			if _, ok := index[gc.FatherID]; !ok || gc.FatherID == gc.ID {
				gc.FatherID = ""
			}
		} else {
			gc.FatherID = parent.ID
			if _, ok := index[gc.MotherID]; !ok || gc.MotherID == gc.ID {
				gc.MotherID = ""
			}
		}
		assignNestedParents(gc, index)
	}
}

func rebuildAdjacency(f *domain.Family, index map[string]*domain.Person) {
	WalkPersons(f, func(p *domain.Person) {
		p.ChildrenIDs = nil
	})
	WalkPersons(f, func(p *domain.Person) {
		p.FatherID = resolvableParent(p, p.FatherID, index)
		p.MotherID = resolvableParent(p, p.MotherID, index)
		if father, ok := index[p.FatherID]; ok {
			father.ChildrenIDs = appendUnique(father.ChildrenIDs, p.ID)
		}
		if mother, ok := index[p.MotherID]; ok {
			mother.ChildrenIDs = appendUnique(mother.ChildrenIDs, p.ID)
		}
		kept := p.SpousesIDs[:0]
		for _, id := range p.SpousesIDs {
			if _, ok := index[id]; ok && id != p.ID && !contains(kept, id) {
				kept = append(kept, id)
			}
		}
		p.SpousesIDs = kept
	})

	root := f.RootPerson
	for _, w := range f.Wives {
		linkSpouses(root, w)
		linkSpouses(w.Father, w.Mother)
	}
	linkSpouses(f.Father, f.Mother)
}

func resolvableParent(p *domain.Person, id string, index map[string]*domain.Person) string {
	if id == "" || id == p.ID {
		return ""
	}
	if _, ok := index[id]; !ok {
		return ""
	}
	return id
}

func linkSpouses(a, b *domain.Person) {
	if a == nil || b == nil || a.ID == b.ID {
		return
	}
	a.SpousesIDs = appendUnique(a.SpousesIDs, b.ID)
	b.SpousesIDs = appendUnique(b.SpousesIDs, a.ID)
}

// repairReciprocity adds the missing side of every spouse edge.
func repairReciprocity(f *domain.Family, index map[string]*domain.Person) {
	WalkPersons(f, func(p *domain.Person) {
		for _, id := range p.SpousesIDs {
			if other, ok := index[id]; ok {
				other.SpousesIDs = appendUnique(other.SpousesIDs, p.ID)
			}
		}
	})
	WalkPersons(f, func(p *domain.Person) {
		if len(p.SpousesIDs) == 0 {
			p.SpousesIDs = nil
		}
	})
}

func appendUnique(list []string, id string) []string {
	if contains(list, id) {
		return list
	}
	return append(list, id)
}

func contains(list []string, id string) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}

// SortedAncestors returns the ancestors ordered by ascending generation.
// Equal generations keep document order.
func SortedAncestors(f *domain.Family) []*domain.Person {
	if f == nil {
		return nil
	}
	out := make([]*domain.Person, 0, len(f.Ancestors))
	for _, a := range f.Ancestors {
		if a != nil {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Generation < out[j].Generation })
	return out
}

// AncestorsNames returns the non-empty names of sorted ancestors.
func AncestorsNames(sorted []*domain.Person) []string {
	out := make([]string, 0, len(sorted))
	for _, a := range sorted {
		if a.Name != "" {
			out = append(out, a.Name)
		}
	}
	return out
}
