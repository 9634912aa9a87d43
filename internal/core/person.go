package core

import (
	"familycore/pkg/domain"
	"strings"
)

// NormalizeChild builds a canonical child from a name string or a map.
// It returns nil for empty slots.
func NormalizeChild(raw any) *domain.Person {
	return decodePerson(raw, domain.RoleChild, false)
}

// NormalizeWife builds a canonical wife, including her children and parent
// slots, from a name string or a map. It returns nil for empty slots.
func NormalizeWife(raw any) *domain.Person {
	return decodePerson(raw, domain.RoleWife, false)
}

// NormalizeChildForLoad is NormalizeChild for stored documents: flat bio keys
// are folded into bio and legacy fatherName/motherName strings are kept for
// lineage bridging.
func NormalizeChildForLoad(raw any) *domain.Person {
	return decodePerson(raw, domain.RoleChild, true)
}

// NormalizeWifeForLoad is NormalizeWife for stored documents. Flat parent
// names on the wife become bio.fatherName/bio.motherName.
func NormalizeWifeForLoad(raw any) *domain.Person {
	return decodePerson(raw, domain.RoleWife, true)
}

// decodeFamily turns a migrated raw document into a typed family. The root
// person always exists; every other slot drops empty entries.
func decodeFamily(doc domain.RawDoc) *domain.Family {
	f := &domain.Family{
		Key:                domain.AsString(doc["key"]),
		Title:              domain.AsString(doc["title"]),
		FamilyName:         domain.AsString(doc["familyName"]),
		FullRootPersonName: domain.AsString(doc["fullRootPersonName"]),
		Version:            domain.AsInt(doc["__v"]),
		Core:               domain.AsBool(doc["__core"]),
		Custom:             domain.AsBool(doc["__custom"]),
		Hidden:             domain.AsBool(doc["hidden"]),
	}
	if meta := domain.AsMap(doc["__meta"]); meta != nil {
		if lineage := domain.AsMap(meta["lineage"]); lineage != nil {
			f.Meta.Lineage = domain.LineageRules{
				TribeRule: normalizeRule(domain.AsString(lineage["tribeRule"])),
				ClanRule:  normalizeRule(domain.AsString(lineage["clanRule"])),
			}
		}
	}
	f.RootPerson = decodePerson(doc["rootPerson"], domain.RoleRoot, true)
	if f.RootPerson == nil {
		f.RootPerson = &domain.Person{Role: domain.RoleRoot}
	}
	f.Father = decodePerson(doc["father"], domain.RoleFather, true)
	f.Mother = decodePerson(doc["mother"], domain.RoleMother, true)

	f.Ancestors = []*domain.Person{}
	for i, it := range domain.AsSlice(doc["ancestors"]) {
		a := decodePerson(it, domain.RoleAncestor, true)
		if a == nil {
			continue
		}
		if a.Generation <= 0 {
			a.Generation = i + 1
		}
		f.Ancestors = append(f.Ancestors, a)
	}
	f.Wives = []*domain.Person{}
	for _, it := range domain.AsSlice(doc["wives"]) {
		if w := NormalizeWifeForLoad(it); w != nil {
			f.Wives = append(f.Wives, w)
		}
	}
	return f
}

func normalizeRule(rule string) string {
	switch strings.ToLower(rule) {
	case "father", "paternal", "أب", "الأب":
		return "father"
	case "mother", "maternal", "أم", "الأم":
		return "mother"
	}
	return ""
}

func decodePerson(raw any, role domain.RoleKind, forLoad bool) *domain.Person {
	if s, ok := raw.(string); ok {
		name := strings.TrimSpace(s)
		if name == "" {
			return nil
		}
		return &domain.Person{Name: name, Role: role, Bio: CloneBio()}
	}
	m := domain.AsMap(raw)
	if m == nil {
		return nil
	}
	p := &domain.Person{
		ID:         domain.AsString(m["id"]),
		Name:       personName(m),
		Role:       role,
		Generation: domain.AsInt(m["generation"]),
		FatherID:   domain.AsString(m["fatherId"]),
		MotherID:   domain.AsString(m["motherId"]),
		SpousesIDs: domain.AsStringList(m["spousesIds"]),
		Synthetic:  domain.AsBool(m["synthetic"]),
	}
	if role != domain.RoleAncestor {
		p.Generation = 0
	}
	bioRaw := domain.AsMap(m["bio"])
	if forLoad {
		bioRaw = mergeFlatBio(m, bioRaw, role)
	}
	p.Bio = domain.BioFromMap(bioRaw)

	switch role {
	case domain.RoleChild:
		p.Sex = parseSex(m["sex"], m["role"], m["gender"])
		if forLoad {
			p.LegacyFatherName = domain.AsString(m["fatherName"])
			p.LegacyMotherName = domain.AsString(m["motherName"])
		}
		p.Children = decodeChildren(m["children"], forLoad)
	case domain.RoleWife:
		p.Father = decodePerson(m["father"], domain.RoleWifeFather, forLoad)
		p.Mother = decodePerson(m["mother"], domain.RoleWifeMother, forLoad)
		p.Children = decodeChildren(m["children"], forLoad)
	}

	if p.Name == "" && p.ID == "" && len(p.Children) == 0 {
		return nil
	}
	return p
}

func decodeChildren(raw any, forLoad bool) []*domain.Person {
	var out []*domain.Person
	for _, it := range domain.AsSlice(raw) {
		if c := decodePerson(it, domain.RoleChild, forLoad); c != nil {
			out = append(out, c)
		}
	}
	return out
}

func personName(m map[string]any) string {
	if name := domain.AsString(m["name"]); name != "" {
		return name
	}
	return domain.AsString(m["fullName"])
}

// mergeFlatBio folds bio keys stored directly on the person into bio. Values
// already present under bio win. Children keep fatherName/motherName out of
// bio so the linker can bridge them.
func mergeFlatBio(node, bio map[string]any, role domain.RoleKind) map[string]any {
	out := make(map[string]any, len(bio))
	for k, v := range bio {
		out[k] = v
	}
	for k, v := range node {
		if !domain.IsBioKey(k) {
			continue
		}
		if role == domain.RoleChild && (k == domain.BioFatherName || k == domain.BioMotherName) {
			continue
		}
		if cur, ok := out[k]; ok && domain.AsString(cur) != "" {
			continue
		}
		out[k] = v
	}
	return out
}

func parseSex(values ...any) domain.Sex {
	for _, v := range values {
		switch strings.ToLower(domain.AsString(v)) {
		case "male", "m", "ذكر", "son", "ابن", "الابن":
			return domain.SexMale
		case "female", "f", "أنثى", "انثى", "daughter", "بنت", "ابنة", "البنت":
			return domain.SexFemale
		}
	}
	return ""
}
