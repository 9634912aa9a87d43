package core

import "familycore/pkg/domain"

// BuildPersonsIndex returns the flat id index of a family and refreshes each
// person's normalized-name cache. The first person holding an id wins.
func BuildPersonsIndex(f *domain.Family) map[string]*domain.Person {
	index := make(map[string]*domain.Person)
	WalkPersons(f, func(p *domain.Person) {
		p.NormName = FoldName(p.Name)
		if p.ID == "" {
			return
		}
		if _, exists := index[p.ID]; !exists {
			index[p.ID] = p
		}
	})
	return index
}
