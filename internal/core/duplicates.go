package core

import (
	"familycore/pkg/domain"
	"sort"
)

// Role families used by fingerprints. Persons of different role families
// never collide even when name and birth year agree.
const (
	RoleFamilyPaternal = "paternal"
	RoleFamilyMaternal = "maternal"
	RoleFamilyWife     = "wife"
	RoleFamilyInLaw    = "in_law"
	RoleFamilyChild    = "child"
)

func roleFamily(role domain.RoleKind) string {
	switch role {
	case domain.RoleRoot, domain.RoleFather, domain.RoleAncestor:
		return RoleFamilyPaternal
	case domain.RoleMother:
		return RoleFamilyMaternal
	case domain.RoleWife:
		return RoleFamilyWife
	case domain.RoleWifeFather, domain.RoleWifeMother:
		return RoleFamilyInLaw
	case domain.RoleChild:
		return RoleFamilyChild
	}
	return string(role)
}

// PersonFingerprint returns the duplicate-detection key of a person: folded
// name, role family and birth year. Persons without a name have none.
func PersonFingerprint(p *domain.Person) string {
	if p == nil {
		return ""
	}
	name := FoldName(p.Name)
	if name == "" {
		return ""
	}
	return name + "|" + roleFamily(p.Role) + "|" + birthYear(p.Bio)
}

// FamilyFingerprint qualifies a person fingerprint with its family key.
func FamilyFingerprint(familyKey string, p *domain.Person) string {
	fp := PersonFingerprint(p)
	if fp == "" {
		return ""
	}
	return familyKey + "::" + fp
}

func birthYear(b domain.Bio) string {
	if y := yearOf(b.BirthYear); y != "" {
		return y
	}
	return yearOf(b.BirthDate)
}

// FindDuplicatesInFamily groups persons sharing a fingerprint. Groups are
// reported in walk order of their first member; singletons are omitted.
func FindDuplicatesInFamily(f *domain.Family) [][]*domain.Person {
	var order []string
	groups := make(map[string][]*domain.Person)
	WalkPersons(f, func(p *domain.Person) {
		fp := PersonFingerprint(p)
		if fp == "" {
			return
		}
		if _, ok := groups[fp]; !ok {
			order = append(order, fp)
		}
		groups[fp] = append(groups[fp], p)
	})
	var out [][]*domain.Person
	for _, fp := range order {
		if len(groups[fp]) > 1 {
			out = append(out, groups[fp])
		}
	}
	return out
}

// DuplicateMember is one person of a cross-family duplicate group.
type DuplicateMember struct {
	FamilyKey string
	Path      string
	Person    *domain.Person
}

// DuplicateGroup is a set of probable duplicates sharing a fingerprint.
type DuplicateGroup struct {
	Fingerprint string
	Members     []DuplicateMember
}

// FindDuplicatesAcrossFamilies scans many families using family-qualified
// fingerprints, so unrelated families sharing a name and birth year do not
// collide. Groups are sorted by fingerprint.
func FindDuplicatesAcrossFamilies(families []*domain.Family) []DuplicateGroup {
	groups := make(map[string][]DuplicateMember)
	for _, f := range families {
		if f == nil {
			continue
		}
		WalkPersonsWithPath(f, func(p *domain.Person, path string) {
			fp := FamilyFingerprint(f.Key, p)
			if fp == "" {
				return
			}
			groups[fp] = append(groups[fp], DuplicateMember{FamilyKey: f.Key, Path: path, Person: p})
		})
	}
	keys := make([]string, 0, len(groups))
	for fp, members := range groups {
		if len(members) > 1 {
			keys = append(keys, fp)
		}
	}
	sort.Strings(keys)
	out := make([]DuplicateGroup, 0, len(keys))
	for _, fp := range keys {
		out = append(out, DuplicateGroup{Fingerprint: fp, Members: groups[fp]})
	}
	return out
}
