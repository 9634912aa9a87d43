package domain

import (
	"context"
	"encoding/json"
)

// Logical storage keys used by the persistence adapter.
const (
	// KeyFamiliesCustom holds a map of family key to sanitized custom document.
	KeyFamiliesCustom = "families_custom"
	// KeyFamiliesMeta holds the MetaRecord for seed families.
	KeyFamiliesMeta = "families_meta"
)

// MetaStorageVersion is the only meta record version the adapter applies.
// Records written with any other version are discarded whole.
const MetaStorageVersion = 2

// Backend is the byte-oriented storage contract consumed by the persistence
// adapter. Get reports ok=false when the key has never been written.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// MetaRecord stores the deltas persisted for seed (core) families.
type MetaRecord struct {
	StorageVersion int                              `json:"storageVersion"`
	CoreHidden     map[string]bool                  `json:"coreHidden"`
	CorePhotos     map[string]map[string]PhotoPatch `json:"corePhotos"`
}

// NewMetaRecord returns an empty record at the current storage version.
func NewMetaRecord() MetaRecord {
	return MetaRecord{
		StorageVersion: MetaStorageVersion,
		CoreHidden:     map[string]bool{},
		CorePhotos:     map[string]map[string]PhotoPatch{},
	}
}

// CustomRecord maps a family key to its sanitized persisted document.
type CustomRecord map[string]json.RawMessage
