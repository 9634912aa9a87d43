// Package domain defines the persisted family records, person roles, and the
// storage contracts shared by the normalization engine and its backends.
package domain

// RawDoc is a dynamically shaped family document as read from storage or an
// import file. Migrations and load normalizers operate on this shape.
type RawDoc = map[string]any

// RoleKind identifies the slot a person occupies within a family.
type RoleKind string

// Supported role kinds. Roles are derived from position during normalization.
const (
	// RoleRoot identifies the person the family tree is centered on.
	RoleRoot RoleKind = "root"
	// RoleFather identifies the root person's father.
	RoleFather RoleKind = "father"
	// RoleMother identifies the root person's mother.
	RoleMother RoleKind = "mother"
	// RoleAncestor identifies a paternal-line forebear above the father.
	RoleAncestor RoleKind = "ancestor"
	// RoleWife identifies a wife of the root person.
	RoleWife RoleKind = "wife"
	// RoleChild identifies a child listed under a wife.
	RoleChild RoleKind = "child"
	// RoleWifeFather identifies the father of a wife.
	RoleWifeFather RoleKind = "wife_father"
	// RoleWifeMother identifies the mother of a wife.
	RoleWifeMother RoleKind = "wife_mother"
)

// Sex captures the recorded sex of a child.
type Sex string

// Recognised sex values; the empty value means unknown.
const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

// NameEntry is a parsed element of a free-text name list such as siblings.
type NameEntry struct {
	Name string `json:"name"`
}

// PhotoPatch carries the photo state persisted for seed families, which are
// otherwise never written to storage.
type PhotoPatch struct {
	PhotoURL     string `json:"photoUrl,omitempty"`
	PhotoVersion int64  `json:"photoVersion,omitempty"`
	HasOriginal  bool   `json:"hasOriginal,omitempty"`
	Rotated      int    `json:"rotated,omitempty"`
	Cropped      bool   `json:"cropped,omitempty"`
}

// IsZero reports whether the patch carries no photo state.
func (p PhotoPatch) IsZero() bool {
	return p == PhotoPatch{}
}

// Person is the atomic entity of a family document. Relationships are stored
// as ids only; nested Children/Father/Mother slots express document position.
type Person struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Role       RoleKind `json:"role,omitempty"`
	Generation int      `json:"generation,omitempty"`
	Sex        Sex      `json:"sex,omitempty"`
	Bio        Bio      `json:"bio"`

	FatherID    string   `json:"fatherId,omitempty"`
	MotherID    string   `json:"motherId,omitempty"`
	SpousesIDs  []string `json:"spousesIds,omitempty"`
	ChildrenIDs []string `json:"childrenIds,omitempty"`

	Father   *Person   `json:"father,omitempty"`
	Mother   *Person   `json:"mother,omitempty"`
	Children []*Person `json:"children,omitempty"`

	Synthetic bool   `json:"synthetic,omitempty"`
	NormName  string `json:"_normName,omitempty"`

	// Legacy flat parent names read by the load normalizers. They are
	// consumed by lineage bridging and never serialized.
	LegacyFatherName string `json:"-"`
	LegacyMotherName string `json:"-"`
}

// Photo returns the photo state recorded on the person's bio.
func (p *Person) Photo() PhotoPatch {
	return PhotoPatch{
		PhotoURL:     p.Bio.PhotoURL,
		PhotoVersion: p.Bio.PhotoVersion,
		HasOriginal:  p.Bio.HasOriginal,
		Rotated:      p.Bio.Rotated,
		Cropped:      p.Bio.Cropped,
	}
}

// ApplyPhoto writes the patch onto the person's bio.
func (p *Person) ApplyPhoto(patch PhotoPatch) {
	p.Bio.PhotoURL = patch.PhotoURL
	p.Bio.PhotoVersion = patch.PhotoVersion
	p.Bio.HasOriginal = patch.HasOriginal
	p.Bio.Rotated = patch.Rotated
	p.Bio.Cropped = patch.Cropped
}

// LineageRules configures tribe/clan inheritance applied during bio defaulting.
// Valid values are "father", "mother" or empty (no inheritance).
type LineageRules struct {
	TribeRule string `json:"tribeRule,omitempty"`
	ClanRule  string `json:"clanRule,omitempty"`
}

// Meta holds per-family configuration that is not part of the person graph.
type Meta struct {
	Lineage LineageRules `json:"lineage"`
}

// Family is the aggregate root of a family document.
type Family struct {
	Key                string    `json:"key"`
	Title              string    `json:"title,omitempty"`
	FamilyName         string    `json:"familyName,omitempty"`
	FullRootPersonName string    `json:"fullRootPersonName,omitempty"`
	RootPerson         *Person   `json:"rootPerson"`
	Father             *Person   `json:"father,omitempty"`
	Mother             *Person   `json:"mother,omitempty"`
	Ancestors          []*Person `json:"ancestors"`
	Wives              []*Person `json:"wives"`
	Meta               Meta      `json:"__meta"`
	Version            int       `json:"__v"`
	Core               bool      `json:"__core,omitempty"`
	Custom             bool      `json:"__custom,omitempty"`
	Hidden             bool      `json:"hidden,omitempty"`

	// Persons is the derived flat id index rebuilt by every pipeline run.
	Persons map[string]*Person `json:"-"`
}

// Person returns the indexed person with the given id.
func (f *Family) Person(id string) (*Person, bool) {
	if f == nil || f.Persons == nil || id == "" {
		return nil, false
	}
	p, ok := f.Persons[id]
	return p, ok
}
