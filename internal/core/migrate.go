package core

import (
	"familycore/pkg/domain"
	"strings"
)

// CurrentSchemaVersion is the document shape produced by the migrator.
const CurrentSchemaVersion = 5

// Migration is a pure structural rewrite that upgrades a document to Target.
type Migration struct {
	Target int
	Name   string
	Apply  func(doc domain.RawDoc)
}

// Migrator applies an ordered list of migrations.
type Migrator struct {
	migrations []Migration
	current    int
}

// NewMigrator returns the migrator for the current schema.
func NewMigrator() *Migrator {
	return &Migrator{migrations: defaultMigrations(), current: CurrentSchemaVersion}
}

// Apply upgrades doc in place from fromVersion and stamps __v. Versions newer
// than current are treated as current. It returns the targets applied.
func (m *Migrator) Apply(doc domain.RawDoc, fromVersion int) []int {
	if doc == nil {
		return nil
	}
	version := fromVersion
	if version > m.current {
		version = m.current
	}
	var applied []int
	for _, mig := range m.migrations {
		if version >= m.current {
			break
		}
		if version >= mig.Target {
			continue
		}
		mig.Apply(doc)
		version = mig.Target
		applied = append(applied, mig.Target)
	}
	doc["__v"] = m.current
	return applied
}

// DocumentVersion reads __v from a raw document, 0 when absent.
func DocumentVersion(doc domain.RawDoc) int {
	if doc == nil {
		return 0
	}
	return domain.AsInt(doc["__v"])
}

func defaultMigrations() []Migration {
	return []Migration{
		{Target: 1, Name: "rename_grandson", Apply: migrateRenameGrandson},
		{Target: 2, Name: "hoist_root_wives", Apply: migrateHoistRootWives},
		{Target: 3, Name: "ancestor_generations", Apply: migrateAncestorGenerations},
		{Target: 4, Name: "nest_flat_bio", Apply: migrateNestFlatBio},
		{Target: 5, Name: "child_roles_and_lineage_meta", Apply: migrateChildRolesAndLineage},
	}
}

func renameKey(doc map[string]any, from, to string) {
	v, ok := doc[from]
	if !ok {
		return
	}
	if _, exists := doc[to]; !exists || doc[to] == nil || doc[to] == "" {
		doc[to] = v
	}
	delete(doc, from)
}

// v1: the root person used to be called the grandson.
func migrateRenameGrandson(doc domain.RawDoc) {
	renameKey(doc, "grandson", "rootPerson")
	renameKey(doc, "fullGrandsonName", "fullRootPersonName")
}

// v2: wives were nested under the root person.
func migrateHoistRootWives(doc domain.RawDoc) {
	root := domain.AsMap(doc["rootPerson"])
	if root == nil {
		return
	}
	nested, ok := root["wives"]
	if !ok {
		return
	}
	if len(domain.AsSlice(doc["wives"])) == 0 {
		doc["wives"] = nested
	}
	delete(root, "wives")
}

// v3: ancestors may be bare names and generations may be missing or textual.
func migrateAncestorGenerations(doc domain.RawDoc) {
	items := domain.AsSlice(doc["ancestors"])
	if items == nil {
		return
	}
	out := make([]any, 0, len(items))
	for i, it := range items {
		var node map[string]any
		if s, ok := it.(string); ok {
			if strings.TrimSpace(s) == "" {
				continue
			}
			node = map[string]any{"name": strings.TrimSpace(s)}
		} else if node = domain.AsMap(it); node == nil {
			continue
		}
		gen := domain.AsInt(node["generation"])
		if gen <= 0 {
			gen = i + 1
		}
		node["generation"] = gen
		out = append(out, node)
	}
	doc["ancestors"] = out
}

// legacyFlatBioKeys are bio fields that older documents stored on the person.
var legacyFlatBioKeys = []string{
	domain.BioBirthDate, domain.BioBirthYear, domain.BioDeathDate, domain.BioDeathYear,
	domain.BioBirthPlace, domain.BioOccupation, domain.BioCognomen, domain.BioRemark,
	domain.BioTribe, domain.BioClan, domain.BioAchievements, domain.BioHobbies,
	domain.BioSiblingsBrothers, domain.BioSiblingsSisters, domain.BioPhotoURL,
}

// v4: biography fields move under bio.
func migrateNestFlatBio(doc domain.RawDoc) {
	walkRawPersons(doc, func(node map[string]any, _ Slot, _ string) {
		bio := domain.AsMap(node["bio"])
		for _, key := range legacyFlatBioKeys {
			v, ok := node[key]
			if !ok {
				continue
			}
			if bio == nil {
				bio = map[string]any{}
			}
			if cur, exists := bio[key]; !exists || cur == nil || cur == "" {
				bio[key] = v
			}
			delete(node, key)
		}
		if alt, ok := node["photo"]; ok {
			if bio == nil {
				bio = map[string]any{}
			}
			if _, exists := bio[domain.BioPhotoURL]; !exists {
				bio[domain.BioPhotoURL] = alt
			}
			delete(node, "photo")
		}
		if bio != nil {
			node["bio"] = bio
		}
	})
}

var legacyChildRoles = map[string]domain.Sex{
	"ابن":      domain.SexMale,
	"الابن":    domain.SexMale,
	"son":      domain.SexMale,
	"بنت":      domain.SexFemale,
	"ابنة":     domain.SexFemale,
	"البنت":    domain.SexFemale,
	"daughter": domain.SexFemale,
}

// v5: children carried a role word instead of sex; lineage rules were top-level.
func migrateChildRolesAndLineage(doc domain.RawDoc) {
	walkRawPersons(doc, func(node map[string]any, slot Slot, _ string) {
		if slot.Role != domain.RoleChild {
			return
		}
		role := strings.ToLower(domain.AsString(node["role"]))
		if sex, ok := legacyChildRoles[role]; ok {
			if domain.AsString(node["sex"]) == "" {
				node["sex"] = string(sex)
			}
			node["role"] = string(domain.RoleChild)
		}
	})
	tribe, hasTribe := doc["tribeRule"]
	clan, hasClan := doc["clanRule"]
	if !hasTribe && !hasClan {
		return
	}
	meta := domain.AsMap(doc["__meta"])
	if meta == nil {
		meta = map[string]any{}
	}
	lineage := domain.AsMap(meta["lineage"])
	if lineage == nil {
		lineage = map[string]any{}
	}
	if hasTribe {
		if _, ok := lineage["tribeRule"]; !ok {
			lineage["tribeRule"] = tribe
		}
		delete(doc, "tribeRule")
	}
	if hasClan {
		if _, ok := lineage["clanRule"]; !ok {
			lineage["clanRule"] = clan
		}
		delete(doc, "clanRule")
	}
	meta["lineage"] = lineage
	doc["__meta"] = meta
}
