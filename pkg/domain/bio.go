package domain

import (
	"encoding/json"
	"sort"
)

// Bio is the biography record attached to every person. After normalization
// every field is present with a defined, possibly empty, value.
type Bio struct {
	BirthDate  string
	BirthYear  string
	DeathDate  string
	DeathYear  string
	BirthPlace string
	Occupation string
	Cognomen   string
	Remark     string
	Tribe      string
	Clan       string

	Achievements     []string
	Hobbies          []string
	SiblingsBrothers []NameEntry
	SiblingsSisters  []NameEntry

	// Parent names captured as free text, used to synthesize missing parents.
	FatherName  string
	MotherName  string
	MotherTribe string
	MotherClan  string

	PhotoURL     string
	PhotoVersion int64
	HasOriginal  bool
	Rotated      int
	Cropped      bool

	// Extra preserves bio keys this version does not model.
	Extra map[string]any
}

// Bio JSON keys. Order matters only for readability of KnownBioKeys.
const (
	BioBirthDate        = "birthDate"
	BioBirthYear        = "birthYear"
	BioDeathDate        = "deathDate"
	BioDeathYear        = "deathYear"
	BioBirthPlace       = "birthPlace"
	BioOccupation       = "occupation"
	BioCognomen         = "cognomen"
	BioRemark           = "remark"
	BioTribe            = "tribe"
	BioClan             = "clan"
	BioAchievements     = "achievements"
	BioHobbies          = "hobbies"
	BioSiblingsBrothers = "siblingsBrothers"
	BioSiblingsSisters  = "siblingsSisters"
	BioFatherName       = "fatherName"
	BioMotherName       = "motherName"
	BioMotherTribe      = "motherTribe"
	BioMotherClan       = "motherClan"
	BioPhotoURL         = "photoUrl"
	BioPhotoVersion     = "photoVersion"
	BioHasOriginal      = "hasOriginal"
	BioRotated          = "rotated"
	BioCropped          = "cropped"
)

// KnownBioKeys lists every bio key modelled by Bio.
var KnownBioKeys = []string{
	BioBirthDate, BioBirthYear, BioDeathDate, BioDeathYear, BioBirthPlace,
	BioOccupation, BioCognomen, BioRemark, BioTribe, BioClan,
	BioAchievements, BioHobbies, BioSiblingsBrothers, BioSiblingsSisters,
	BioFatherName, BioMotherName, BioMotherTribe, BioMotherClan,
	BioPhotoURL, BioPhotoVersion, BioHasOriginal, BioRotated, BioCropped,
}

var knownBioKeySet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(KnownBioKeys))
	for _, k := range KnownBioKeys {
		m[k] = struct{}{}
	}
	return m
}()

// IsBioKey reports whether key is a modelled bio field.
func IsBioKey(key string) bool {
	_, ok := knownBioKeySet[key]
	return ok
}

// BioFromMap builds a Bio from a loosely typed map. Values of the wrong type
// are coerced where possible and otherwise ignored.
func BioFromMap(raw map[string]any) Bio {
	var b Bio
	if raw == nil {
		return b
	}
	b.BirthDate = AsString(raw[BioBirthDate])
	b.BirthYear = AsString(raw[BioBirthYear])
	b.DeathDate = AsString(raw[BioDeathDate])
	b.DeathYear = AsString(raw[BioDeathYear])
	b.BirthPlace = AsString(raw[BioBirthPlace])
	b.Occupation = AsString(raw[BioOccupation])
	b.Cognomen = AsString(raw[BioCognomen])
	b.Remark = AsString(raw[BioRemark])
	b.Tribe = AsString(raw[BioTribe])
	b.Clan = AsString(raw[BioClan])
	b.Achievements = AsStringList(raw[BioAchievements])
	b.Hobbies = AsStringList(raw[BioHobbies])
	b.SiblingsBrothers = AsNameList(raw[BioSiblingsBrothers])
	b.SiblingsSisters = AsNameList(raw[BioSiblingsSisters])
	b.FatherName = AsString(raw[BioFatherName])
	b.MotherName = AsString(raw[BioMotherName])
	b.MotherTribe = AsString(raw[BioMotherTribe])
	b.MotherClan = AsString(raw[BioMotherClan])
	b.PhotoURL = AsString(raw[BioPhotoURL])
	b.PhotoVersion = int64(AsInt(raw[BioPhotoVersion]))
	b.HasOriginal = AsBool(raw[BioHasOriginal])
	b.Rotated = AsInt(raw[BioRotated])
	b.Cropped = AsBool(raw[BioCropped])
	for k, v := range raw {
		if IsBioKey(k) {
			continue
		}
		if b.Extra == nil {
			b.Extra = make(map[string]any)
		}
		b.Extra[k] = v
	}
	return b
}

// ToMap renders the bio as a plain map, including every modelled key.
func (b Bio) ToMap() map[string]any {
	out := make(map[string]any, len(KnownBioKeys)+len(b.Extra))
	for k, v := range b.Extra {
		out[k] = v
	}
	out[BioBirthDate] = b.BirthDate
	out[BioBirthYear] = b.BirthYear
	out[BioDeathDate] = b.DeathDate
	out[BioDeathYear] = b.DeathYear
	out[BioBirthPlace] = b.BirthPlace
	out[BioOccupation] = b.Occupation
	out[BioCognomen] = b.Cognomen
	out[BioRemark] = b.Remark
	out[BioTribe] = b.Tribe
	out[BioClan] = b.Clan
	out[BioAchievements] = nonNilStrings(b.Achievements)
	out[BioHobbies] = nonNilStrings(b.Hobbies)
	out[BioSiblingsBrothers] = nonNilNames(b.SiblingsBrothers)
	out[BioSiblingsSisters] = nonNilNames(b.SiblingsSisters)
	out[BioFatherName] = b.FatherName
	out[BioMotherName] = b.MotherName
	out[BioMotherTribe] = b.MotherTribe
	out[BioMotherClan] = b.MotherClan
	out[BioPhotoURL] = b.PhotoURL
	out[BioPhotoVersion] = b.PhotoVersion
	out[BioHasOriginal] = b.HasOriginal
	out[BioRotated] = b.Rotated
	out[BioCropped] = b.Cropped
	return out
}

// ExtraKeys returns the preserved unknown keys in sorted order.
func (b Bio) ExtraKeys() []string {
	keys := make([]string, 0, len(b.Extra))
	for k := range b.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MarshalJSON emits modelled fields alongside preserved extra keys.
func (b Bio) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.ToMap())
}

// UnmarshalJSON accepts any object shape and coerces known keys.
func (b *Bio) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*b = BioFromMap(raw)
	return nil
}

// Clone returns a deep copy of the bio.
func (b Bio) Clone() Bio {
	cp := b
	cp.Achievements = append([]string(nil), b.Achievements...)
	cp.Hobbies = append([]string(nil), b.Hobbies...)
	cp.SiblingsBrothers = append([]NameEntry(nil), b.SiblingsBrothers...)
	cp.SiblingsSisters = append([]NameEntry(nil), b.SiblingsSisters...)
	if b.Extra != nil {
		cp.Extra = make(map[string]any, len(b.Extra))
		for k, v := range b.Extra {
			cp.Extra[k] = CloneValue(v)
		}
	}
	return cp
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func nonNilNames(in []NameEntry) []NameEntry {
	if in == nil {
		return []NameEntry{}
	}
	return in
}
