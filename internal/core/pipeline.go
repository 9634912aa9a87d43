package core

import (
	"bytes"
	"encoding/json"
	"familycore/pkg/domain"
	"fmt"
)

// PipelineOptions configures a normalization run.
type PipelineOptions struct {
	// FromVersion overrides the document's __v when positive.
	FromVersion int
	// MarkCore flags the result as a seed family.
	MarkCore bool
	NewID    IDGenerator
	Logger   Logger
	Migrator *Migrator
}

// NormalizeFamilyPipeline migrates, decodes, identifies, defaults, links and
// indexes a raw family document. The input document is not modified.
// Malformed content is defaulted; only a missing document is an error.
func NormalizeFamilyPipeline(doc domain.RawDoc, opts PipelineOptions) (*domain.Family, error) {
	if doc == nil {
		return nil, fmt.Errorf("normalize family: %w: empty document", ErrUnparseable)
	}
	log := opts.Logger
	if log == nil {
		log = noopLogger{}
	}
	migrator := opts.Migrator
	if migrator == nil {
		migrator = NewMigrator()
	}

	work := domain.CloneDoc(doc)
	from := opts.FromVersion
	if from <= 0 {
		from = DocumentVersion(work)
	}
	if applied := migrator.Apply(work, from); len(applied) > 0 {
		log.Debug("family migrated", "key", domain.AsString(work["key"]), "from", from, "applied", applied)
	}

	f := decodeFamily(work)
	if opts.MarkCore {
		f.Core = true
		f.Custom = false
	}
	if n := EnsureIDs(f, opts.NewID); n > 0 {
		log.Debug("assigned person ids", "key", f.Key, "count", n)
	}
	WalkPersons(f, EnsureBio)
	applyLineageRules(f)
	deriveNames(f)
	LinkLineage(f, opts.NewID)
	f.Persons = BuildPersonsIndex(f)
	f.Version = CurrentSchemaVersion
	return f, nil
}

// ParseDocument decodes JSON bytes into a raw document. Anything other than
// a JSON object is ErrUnparseable.
func ParseDocument(data []byte) (domain.RawDoc, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("parse family: %w: empty input", ErrUnparseable)
	}
	var doc domain.RawDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse family: %w: %v", ErrUnparseable, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("parse family: %w: not an object", ErrUnparseable)
	}
	return doc, nil
}

// NormalizeDocument parses and normalizes a JSON family document.
func NormalizeDocument(data []byte, opts PipelineOptions) (*domain.Family, error) {
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, err
	}
	return NormalizeFamilyPipeline(doc, opts)
}
