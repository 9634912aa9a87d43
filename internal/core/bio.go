package core

import (
	"familycore/pkg/domain"
	"strings"
)

// CloneBio returns the canonical default bio: every text field empty and
// every list present but empty.
func CloneBio() domain.Bio {
	return domain.Bio{
		Achievements:     []string{},
		Hobbies:          []string{},
		SiblingsBrothers: []domain.NameEntry{},
		SiblingsSisters:  []domain.NameEntry{},
	}
}

// EnsureBio merges the person's bio over the default so every field has a
// defined value. List fields are re-coerced so text pasted into them is
// split, trimmed and deduplicated.
func EnsureBio(p *domain.Person) {
	if p == nil {
		return
	}
	b := p.Bio
	def := CloneBio()
	b.Achievements = coerceList(b.Achievements, def.Achievements)
	b.Hobbies = coerceList(b.Hobbies, def.Hobbies)
	b.SiblingsBrothers = coerceNames(b.SiblingsBrothers)
	b.SiblingsSisters = coerceNames(b.SiblingsSisters)
	if b.BirthYear == "" {
		b.BirthYear = yearOf(b.BirthDate)
	}
	if b.DeathYear == "" {
		b.DeathYear = yearOf(b.DeathDate)
	}
	p.Bio = b
}

func coerceList(in, def []string) []string {
	if len(in) == 0 {
		return def
	}
	var flat []string
	for _, s := range in {
		flat = append(flat, domain.SplitFreeText(s)...)
	}
	return domain.AsStringList(flat)
}

func coerceNames(in []domain.NameEntry) []domain.NameEntry {
	names := make([]string, 0, len(in))
	for _, n := range in {
		names = append(names, domain.SplitFreeText(n.Name)...)
	}
	return domain.AsNameList(names)
}

// yearOf returns the first run of four digits in a date string.
func yearOf(date string) string {
	d := domain.FoldDigits(date)
	run := 0
	for i := 0; i < len(d); i++ {
		if d[i] >= '0' && d[i] <= '9' {
			run++
			if run == 4 && (i+1 == len(d) || d[i+1] < '0' || d[i+1] > '9') {
				return d[i-3 : i+1]
			}
			continue
		}
		run = 0
	}
	return ""
}

// applyLineageRules fills empty tribe/clan values from a parent according to
// the family's lineage rules. The root inherits from its father or mother
// (falling back to the mother text captured on its bio); children inherit
// from their father or the wife they are listed under.
func applyLineageRules(f *domain.Family) {
	rules := f.Meta.Lineage
	if rules.TribeRule == "" && rules.ClanRule == "" {
		return
	}
	root := f.RootPerson
	if root != nil {
		fatherBio := domain.Bio{}
		if f.Father != nil {
			fatherBio = f.Father.Bio
		}
		motherBio := domain.Bio{Tribe: root.Bio.MotherTribe, Clan: root.Bio.MotherClan}
		if f.Mother != nil {
			motherBio = f.Mother.Bio
		}
		inherit(&root.Bio, rules, fatherBio, motherBio)
	}
	paternal := paternalIndex(f)
	for _, w := range f.Wives {
		for _, c := range w.Children {
			fatherBio := domain.Bio{}
			father := childFather(c, paternal, root)
			if c.LegacyFatherName != "" {
				if match := matchByName(paternalCandidates(f), c.LegacyFatherName); match != nil {
					father = match
				}
			}
			if father != nil {
				fatherBio = father.Bio
			}
			inherit(&c.Bio, rules, fatherBio, w.Bio)
		}
	}
}

func inherit(b *domain.Bio, rules domain.LineageRules, father, mother domain.Bio) {
	if b.Tribe == "" {
		b.Tribe = pickByRule(rules.TribeRule, father.Tribe, mother.Tribe)
	}
	if b.Clan == "" {
		b.Clan = pickByRule(rules.ClanRule, father.Clan, mother.Clan)
	}
}

func pickByRule(rule, fromFather, fromMother string) string {
	switch rule {
	case "father":
		return fromFather
	case "mother":
		return fromMother
	}
	return ""
}

// deriveNames recomputes familyName and fullRootPersonName from the
// paternal chain.
func deriveNames(f *domain.Family) {
	ancestors := SortedAncestors(f)
	chain := make([]string, 0, len(ancestors)+2)
	if f.RootPerson != nil && f.RootPerson.Name != "" {
		chain = append(chain, f.RootPerson.Name)
	}
	if f.Father != nil && f.Father.Name != "" {
		chain = append(chain, f.Father.Name)
	}
	chain = append(chain, AncestorsNames(ancestors)...)

	if len(chain) > 0 {
		f.FamilyName = chain[len(chain)-1]
	}
	if len(chain) > 1 || f.FullRootPersonName == "" {
		f.FullRootPersonName = strings.Join(chain, " بن ")
	}
}
