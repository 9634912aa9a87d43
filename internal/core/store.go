package core

import (
	"context"
	"encoding/json"
	"errors"
	"familycore/internal/blob"
	"familycore/pkg/domain"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// StoreOptions configures a FamilyStore.
type StoreOptions struct {
	Backend    domain.Backend
	Blobs      blob.Store
	Logger     Logger
	Metrics    *Metrics
	Debounce   time.Duration
	MaxRetries int
	NewID      IDGenerator
}

// FamilyStore owns the in-memory family map and persists it through a
// backend. Seed families are never written in full: only their hidden flag
// and photo patches are stored in the meta record. Custom families are
// stored sanitized. Writes are debounced and serialized by a write queue.
type FamilyStore struct {
	mu          sync.RWMutex
	families    map[string]*domain.Family
	// pristine holds the normalized seeds before meta is applied.
	pristine    map[string]*domain.Family
	meta        domain.MetaRecord
	customDirty bool
	metaDirty   bool

	backend domain.Backend
	blobs   blob.Store
	log     Logger
	metrics *Metrics
	newID   IDGenerator
	queue   *writeQueue
}

// NewFamilyStore constructs an empty store. Call Init before use.
func NewFamilyStore(opts StoreOptions) (*FamilyStore, error) {
	if opts.Backend == nil {
		return nil, errors.New("family store: backend is required")
	}
	log := opts.Logger
	if log == nil {
		log = noopLogger{}
	}
	newID := opts.NewID
	if newID == nil {
		newID = NewPersonID
	}
	maxRetries := opts.MaxRetries
	if maxRetries == 0 {
		maxRetries = DefaultMaxRetries
	}
	s := &FamilyStore{
		families: make(map[string]*domain.Family),
		meta:     domain.NewMetaRecord(),
		backend:  opts.Backend,
		blobs:    opts.Blobs,
		log:      log,
		metrics:  opts.Metrics,
		newID:    newID,
	}
	s.queue = newWriteQueue(opts.Debounce, maxRetries, log, s.persist)
	return s, nil
}

func (s *FamilyStore) normalize(doc domain.RawDoc, markCore bool, fromVersion int) (*domain.Family, error) {
	return NormalizeFamilyPipeline(doc, PipelineOptions{
		FromVersion: fromVersion,
		MarkCore:    markCore,
		NewID:       s.newID,
		Logger:      s.log,
	})
}

// Init normalizes the seed families, loads the stored custom families and
// seed meta concurrently, and merges them. A custom family replaces a seed
// with the same key. Backend read failures are returned; the seeds stay
// loaded either way.
func (s *FamilyStore) Init(ctx context.Context, seeds []domain.RawDoc) error {
	families, err := s.loadSeeds(seeds)
	if err != nil {
		return err
	}
	pristine := make(map[string]*domain.Family, len(families))
	for key, f := range families {
		pristine[key] = CloneFamily(f)
	}
	s.mu.Lock()
	s.pristine = pristine
	s.mu.Unlock()

	var customData, metaData []byte
	var haveCustom, haveMeta bool
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		data, ok, err := s.backend.Get(gctx, domain.KeyFamiliesCustom)
		if err != nil {
			return fmt.Errorf("load %s: %w", domain.KeyFamiliesCustom, err)
		}
		customData, haveCustom = data, ok
		return nil
	})
	g.Go(func() error {
		data, ok, err := s.backend.Get(gctx, domain.KeyFamiliesMeta)
		if err != nil {
			return fmt.Errorf("load %s: %w", domain.KeyFamiliesMeta, err)
		}
		metaData, haveMeta = data, ok
		return nil
	})
	if err := g.Wait(); err != nil {
		s.log.Error("load stored families failed", "error", err)
		s.publish(families, domain.NewMetaRecord())
		return err
	}

	custom := 0
	if haveCustom {
		var rec domain.CustomRecord
		if err := json.Unmarshal(customData, &rec); err != nil {
			s.log.Error("stored custom families unreadable", "error", err)
			s.publish(families, domain.NewMetaRecord())
			return fmt.Errorf("decode %s: %w: %v", domain.KeyFamiliesCustom, ErrUnparseable, err)
		}
		for key, raw := range rec {
			doc, err := ParseDocument(raw)
			if err != nil {
				s.log.Warn("skipping stored family", "key", key, "error", err)
				continue
			}
			f, err := s.normalize(doc, false, 0)
			if err != nil {
				s.log.Warn("skipping stored family", "key", key, "error", err)
				continue
			}
			f.Key = key
			f.Core = false
			f.Custom = true
			families[key] = f
			custom++
		}
	}

	meta := domain.NewMetaRecord()
	if haveMeta {
		meta = s.decodeMeta(metaData)
	}
	applyMeta(families, meta, s.log)

	s.publish(families, meta)
	s.log.Info("families loaded", "seeds", len(seeds), "custom", custom, "total", len(families))
	return nil
}

// publish swaps in a fully built family map. The map must not be written
// after this call except under s.mu.
func (s *FamilyStore) publish(families map[string]*domain.Family, meta domain.MetaRecord) {
	s.mu.Lock()
	s.families = families
	s.meta = meta
	s.customDirty = false
	s.metaDirty = false
	s.mu.Unlock()
	s.metrics.setFamilies(len(families))
}

func (s *FamilyStore) loadSeeds(seeds []domain.RawDoc) (map[string]*domain.Family, error) {
	families := make(map[string]*domain.Family, len(seeds))
	for i, doc := range seeds {
		f, err := s.normalize(doc, true, 0)
		if err != nil {
			return nil, fmt.Errorf("seed family %d: %w", i, err)
		}
		if f.Key == "" {
			s.log.Warn("skipping seed family without key", "index", i)
			continue
		}
		families[f.Key] = f
	}
	return families, nil
}

// decodeMeta parses a stored meta record. A record of another storage
// version, or one that cannot be decoded, is discarded whole.
func (s *FamilyStore) decodeMeta(data []byte) domain.MetaRecord {
	var rec domain.MetaRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		s.log.Warn("discarding unreadable seed meta", "error", err)
		s.metrics.metaDiscard()
		return domain.NewMetaRecord()
	}
	if rec.StorageVersion != domain.MetaStorageVersion {
		s.log.Warn("discarding seed meta", "storageVersion", rec.StorageVersion, "expected", domain.MetaStorageVersion)
		s.metrics.metaDiscard()
		return domain.NewMetaRecord()
	}
	if rec.CoreHidden == nil {
		rec.CoreHidden = map[string]bool{}
	}
	if rec.CorePhotos == nil {
		rec.CorePhotos = map[string]map[string]domain.PhotoPatch{}
	}
	return rec
}

func applyMeta(families map[string]*domain.Family, meta domain.MetaRecord, log Logger) {
	for key, hidden := range meta.CoreHidden {
		if f, ok := families[key]; ok && f.Core {
			f.Hidden = hidden
		}
	}
	for key, patches := range meta.CorePhotos {
		f, ok := families[key]
		if !ok || !f.Core {
			continue
		}
		applyPhotoPatches(f, patches, log)
	}
}

// applyPhotoPatches resolves each patch by walk path first and by person
// fingerprint second. Unresolved patches are skipped.
func applyPhotoPatches(f *domain.Family, patches map[string]domain.PhotoPatch, log Logger) {
	refs := make([]string, 0, len(patches))
	for ref := range patches {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	for _, ref := range refs {
		p, ok := GetByPath(f, ref)
		if !ok {
			p, ok = findByFingerprint(f, ref)
		}
		if !ok {
			log.Debug("unresolved photo patch", "key", f.Key, "ref", ref)
			continue
		}
		p.ApplyPhoto(patches[ref])
	}
}

func findByFingerprint(f *domain.Family, fp string) (*domain.Person, bool) {
	var found *domain.Person
	WalkPersons(f, func(p *domain.Person) {
		if found == nil && PersonFingerprint(p) == fp {
			found = p
		}
	})
	return found, found != nil
}

// Family returns a copy of the family stored under key.
func (s *FamilyStore) Family(key string) (*domain.Family, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.families[key]
	if !ok {
		return nil, ErrNotFound{Key: key}
	}
	return CloneFamily(f), nil
}

// Families returns copies of every family ordered by key, hidden ones
// included.
func (s *FamilyStore) Families() []*domain.Family {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.families))
	for k := range s.families {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]*domain.Family, 0, len(keys))
	for _, k := range keys {
		out = append(out, CloneFamily(s.families[k]))
	}
	return out
}

// Import normalizes a document as a custom family and schedules a write.
// A document without a key receives a generated one.
func (s *FamilyStore) Import(doc domain.RawDoc) (*domain.Family, error) {
	f, err := s.normalize(doc, false, 0)
	if err != nil {
		return nil, err
	}
	if f.Key == "" {
		f.Key = "family-" + s.newID()
	}
	f.Core = false
	f.Custom = true

	s.mu.Lock()
	s.families[f.Key] = f
	s.customDirty = true
	n := len(s.families)
	s.mu.Unlock()

	s.metrics.setFamilies(n)
	s.queue.Schedule()
	return CloneFamily(f), nil
}

// Update applies an editor command to a copy of the family and re-runs the
// pipeline over the result. An edited seed family becomes a custom family.
func (s *FamilyStore) Update(key string, mutate func(*domain.Family) error) (*domain.Family, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.families[key]
	if !ok {
		return nil, ErrNotFound{Key: key}
	}
	work := CloneFamily(cur)
	if err := mutate(work); err != nil {
		return nil, err
	}
	raw, err := ToRaw(work)
	if err != nil {
		return nil, err
	}
	f, err := s.normalize(raw, false, CurrentSchemaVersion)
	if err != nil {
		return nil, err
	}
	f.Key = key
	f.Core = false
	f.Custom = true
	f.Hidden = work.Hidden
	if cur.Core {
		if _, had := s.meta.CoreHidden[key]; had {
			delete(s.meta.CoreHidden, key)
			s.metaDirty = true
		}
		if _, had := s.meta.CorePhotos[key]; had {
			delete(s.meta.CorePhotos, key)
			s.metaDirty = true
		}
	}
	s.families[key] = f
	s.customDirty = true
	s.queue.Schedule()
	return CloneFamily(f), nil
}

// Remove deletes a custom family. Seed families can only be hidden. When the
// custom family replaced a seed, the seed comes back with its meta applied,
// as it would on the next Init.
func (s *FamilyStore) Remove(key string) error {
	s.mu.Lock()
	f, ok := s.families[key]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound{Key: key}
	}
	if f.Core {
		s.mu.Unlock()
		return fmt.Errorf("remove %s: %w", key, ErrCoreFamily)
	}
	if seed, shadowed := s.pristine[key]; shadowed {
		restored := map[string]*domain.Family{key: CloneFamily(seed)}
		applyMeta(restored, s.meta, s.log)
		s.families[key] = restored[key]
	} else {
		delete(s.families, key)
	}
	s.customDirty = true
	n := len(s.families)
	s.mu.Unlock()

	s.metrics.setFamilies(n)
	s.queue.Schedule()
	return nil
}

// SetHidden toggles a family's hidden flag. For seed families only the meta
// record changes.
func (s *FamilyStore) SetHidden(key string, hidden bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.families[key]
	if !ok {
		return ErrNotFound{Key: key}
	}
	f.Hidden = hidden
	if f.Core {
		if hidden {
			s.meta.CoreHidden[key] = true
		} else {
			delete(s.meta.CoreHidden, key)
		}
		s.metaDirty = true
	} else {
		s.customDirty = true
	}
	s.queue.Schedule()
	return nil
}

// SetPhoto writes a photo patch onto a person. Seed family photos are
// recorded in the meta record under the person's walk path.
func (s *FamilyStore) SetPhoto(key, personID string, patch domain.PhotoPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.families[key]
	if !ok {
		return ErrNotFound{Key: key}
	}
	p, ok := f.Person(personID)
	if !ok {
		return ErrPersonNotFound{FamilyKey: key, PersonID: personID}
	}
	p.ApplyPhoto(patch)
	if f.Core {
		path, _ := FindPathByIDInFamily(f, personID)
		if s.meta.CorePhotos[key] == nil {
			s.meta.CorePhotos[key] = map[string]domain.PhotoPatch{}
		}
		s.meta.CorePhotos[key][path] = patch
		s.metaDirty = true
	} else {
		s.customDirty = true
	}
	s.queue.Schedule()
	return nil
}

// AttachPhoto uploads image bytes to the blob store and patches the person
// with a reference to them.
func (s *FamilyStore) AttachPhoto(ctx context.Context, key, personID, contentType string, data []byte) (domain.PhotoPatch, error) {
	s.mu.RLock()
	f, ok := s.families[key]
	if !ok {
		s.mu.RUnlock()
		return domain.PhotoPatch{}, ErrNotFound{Key: key}
	}
	p, ok := f.Person(personID)
	if !ok {
		s.mu.RUnlock()
		return domain.PhotoPatch{}, ErrPersonNotFound{FamilyKey: key, PersonID: personID}
	}
	snapshot := clonePerson(p)
	s.mu.RUnlock()

	patch, err := uploadPhoto(ctx, s.blobs, key, snapshot, contentType, data)
	if err != nil {
		return domain.PhotoPatch{}, err
	}
	if err := s.SetPhoto(key, personID, patch); err != nil {
		return domain.PhotoPatch{}, err
	}
	s.log.Info("photo attached", "key", key, "person", personID, "url", patch.PhotoURL)
	return patch, nil
}

// Export returns the sanitized JSON of a family, optionally without inline
// photo payloads.
func (s *FamilyStore) Export(key string, stripPhotos bool) ([]byte, error) {
	f, err := s.Family(key)
	if err != nil {
		return nil, err
	}
	if stripPhotos {
		f = StripPhotosDeep(f)
	}
	return ExportFamily(f)
}

// Commit marks the family's storage record dirty and schedules a debounced
// write. Backend failures are handled by the write queue, never returned.
func (s *FamilyStore) Commit(key string) error {
	s.mu.Lock()
	f, ok := s.families[key]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound{Key: key}
	}
	if f.Core {
		s.metaDirty = true
	} else {
		s.customDirty = true
	}
	s.mu.Unlock()
	s.queue.Schedule()
	return nil
}

// Flush writes pending changes now and returns the backend error, if any.
func (s *FamilyStore) Flush(ctx context.Context) error {
	return s.queue.Flush(ctx)
}

// Wipe deletes both storage records and any uploaded photos, then resets
// the store to its seeds.
// Scheduled writes are suppressed for the duration.
func (s *FamilyStore) Wipe(ctx context.Context) error {
	if err := s.queue.BeginWipe(ctx); err != nil {
		s.queue.EndWipe()
		return err
	}
	defer s.queue.EndWipe()

	var errs []error
	for _, key := range []string{domain.KeyFamiliesCustom, domain.KeyFamiliesMeta} {
		if err := s.backend.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", key, err))
		}
	}
	if s.blobs != nil {
		if err := purgePhotos(ctx, s.blobs); err != nil {
			errs = append(errs, err)
		}
	}

	s.mu.Lock()
	families := make(map[string]*domain.Family, len(s.pristine))
	for key, f := range s.pristine {
		families[key] = CloneFamily(f)
	}
	s.families = families
	s.meta = domain.NewMetaRecord()
	s.customDirty = false
	s.metaDirty = false
	n := len(families)
	s.mu.Unlock()

	s.metrics.setFamilies(n)
	s.log.Warn("store wiped", "families", n)
	return errors.Join(errs...)
}

// Shutdown flushes pending writes and closes the backend.
func (s *FamilyStore) Shutdown(ctx context.Context) error {
	flushErr := s.Flush(ctx)
	s.queue.Stop()
	return errors.Join(flushErr, s.backend.Close())
}

// persist writes the dirty records. It runs on the write queue.
func (s *FamilyStore) persist(ctx context.Context) error {
	s.mu.Lock()
	writeCustom, writeMeta := s.customDirty, s.metaDirty
	var customData, metaData []byte
	var encErr error
	if writeCustom {
		customData, encErr = s.encodeCustomLocked()
	}
	if writeMeta && encErr == nil {
		metaData, encErr = json.Marshal(s.meta)
	}
	if encErr == nil {
		s.customDirty, s.metaDirty = false, false
	}
	s.mu.Unlock()
	if encErr != nil {
		return encErr
	}
	if !writeCustom && !writeMeta {
		return nil
	}

	start := time.Now()
	var errs []error
	if writeCustom {
		if err := s.backend.Put(ctx, domain.KeyFamiliesCustom, customData); err != nil {
			errs = append(errs, fmt.Errorf("write %s: %w", domain.KeyFamiliesCustom, err))
			s.markDirty(true, false)
		}
	}
	if writeMeta {
		if err := s.backend.Put(ctx, domain.KeyFamiliesMeta, metaData); err != nil {
			errs = append(errs, fmt.Errorf("write %s: %w", domain.KeyFamiliesMeta, err))
			s.markDirty(false, true)
		}
	}
	err := errors.Join(errs...)
	s.metrics.observeWrite(start, err)
	if err == nil {
		s.log.Debug("store written", "custom", writeCustom, "meta", writeMeta)
	}
	return err
}

func (s *FamilyStore) markDirty(custom, meta bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customDirty = s.customDirty || custom
	s.metaDirty = s.metaDirty || meta
}

func (s *FamilyStore) encodeCustomLocked() ([]byte, error) {
	rec := make(domain.CustomRecord)
	for key, f := range s.families {
		if f.Core || !f.Custom {
			continue
		}
		doc, err := SanitizeFamily(f)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("encode family %s: %w", key, err)
		}
		rec[key] = data
	}
	return json.Marshal(rec)
}
