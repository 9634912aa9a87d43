package core

import (
	"familycore/pkg/domain"

	"github.com/google/uuid"
)

// IDGenerator produces fresh person ids.
type IDGenerator func() string

// NewPersonID returns a random person id.
func NewPersonID() string {
	return "p_" + uuid.NewString()
}

// maxIDAttempts bounds the draws from an injected generator before
// freshID falls back to random ids.
const maxIDAttempts = 16

// freshID returns a non-empty id not in taken and records it there.
func freshID(newID IDGenerator, taken map[string]struct{}) string {
	for i := 0; i < maxIDAttempts; i++ {
		id := newID()
		if _, used := taken[id]; !used && id != "" {
			taken[id] = struct{}{}
			return id
		}
	}
	for {
		id := NewPersonID()
		if _, used := taken[id]; !used {
			taken[id] = struct{}{}
			return id
		}
	}
}

// takenIDs collects the ids already present in f.
func takenIDs(f *domain.Family) map[string]struct{} {
	taken := make(map[string]struct{})
	WalkPersons(f, func(p *domain.Person) {
		if p.ID != "" {
			taken[p.ID] = struct{}{}
		}
	})
	return taken
}

// EnsureIDs assigns a fresh id to every person lacking one. Existing ids are
// never overwritten, except that a person repeating an id already seen
// earlier in walk order receives a fresh one. It returns the number of ids
// assigned.
func EnsureIDs(f *domain.Family, newID IDGenerator) int {
	if newID == nil {
		newID = NewPersonID
	}
	taken := takenIDs(f)
	seen := make(map[string]struct{}, len(taken))
	assigned := 0
	WalkPersons(f, func(p *domain.Person) {
		if p.ID != "" {
			if _, dup := seen[p.ID]; !dup {
				seen[p.ID] = struct{}{}
				return
			}
		}
		id := freshID(newID, taken)
		p.ID = id
		seen[id] = struct{}{}
		assigned++
	})
	return assigned
}
