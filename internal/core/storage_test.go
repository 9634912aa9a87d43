package core

import (
	"context"
	"errors"
	"familycore/internal/blob"
	"familycore/internal/infra/persistence/memory"
	"familycore/internal/infra/persistence/objectstore"
	"familycore/internal/infra/persistence/sqlite"
	"familycore/pkg/domain"
	"path/filepath"
	"testing"
)

func TestOpenBackendDrivers(t *testing.T) {
	ctx := context.Background()

	mem, err := OpenBackend(ctx, StorageConfig{Driver: " Memory "}, nil)
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	if _, ok := mem.(*memory.Store); !ok {
		t.Fatalf("expected memory store, got %T", mem)
	}

	path := filepath.Join(t.TempDir(), "families.db")
	sq, err := OpenBackend(ctx, StorageConfig{SQLitePath: path}, nil)
	if err != nil {
		t.Fatalf("sqlite default: %v", err)
	}
	t.Cleanup(func() { _ = sq.Close() })
	if s, ok := sq.(*sqlite.Store); !ok || s.Path() != path {
		t.Fatalf("expected sqlite store at %s, got %T", path, sq)
	}

	blobs := blob.NewMemory()
	obj, err := OpenBackend(ctx, StorageConfig{Driver: "blob", BlobPrefix: "records"}, blobs)
	if err != nil {
		t.Fatalf("blob: %v", err)
	}
	if _, ok := obj.(*objectstore.Store); !ok {
		t.Fatalf("expected object store, got %T", obj)
	}
	if err := obj.Put(ctx, domain.KeyFamiliesMeta, []byte(`{}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if infos, _ := blobs.List(ctx, "records/"); len(infos) != 1 {
		t.Fatalf("expected record under prefix, got %v", infos)
	}
}

func TestOpenBackendErrors(t *testing.T) {
	ctx := context.Background()
	if _, err := OpenBackend(ctx, StorageConfig{Driver: "blob"}, nil); !errors.Is(err, ErrNoBlobStore) {
		t.Fatalf("expected ErrNoBlobStore, got %v", err)
	}
	if _, err := OpenBackend(ctx, StorageConfig{Driver: "etcd"}, nil); err == nil {
		t.Fatalf("expected unknown driver error")
	}
	if _, err := OpenBackend(ctx, StorageConfig{Driver: "redis"}, nil); err == nil {
		t.Fatalf("expected redis address error")
	}
}

func TestStoreOverSQLiteSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	cfg := StorageConfig{Driver: string(StorageSQLite), SQLitePath: filepath.Join(t.TempDir(), "state.db")}
	open := func() *FamilyStore {
		backend, err := OpenBackend(ctx, cfg, nil)
		if err != nil {
			t.Fatalf("open backend: %v", err)
		}
		s, err := NewFamilyStore(StoreOptions{Backend: backend, NewID: sequentialIDs()})
		if err != nil {
			t.Fatalf("new store: %v", err)
		}
		if err := s.Init(ctx, []domain.RawDoc{mustDoc(t, modernFamily)}); err != nil {
			t.Fatalf("init: %v", err)
		}
		return s
	}

	s := open()
	if _, err := s.Import(mustDoc(t, legacyFamily)); err != nil {
		t.Fatalf("import: %v", err)
	}
	if err := s.SetHidden("modern", true); err != nil {
		t.Fatalf("hide: %v", err)
	}
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	s = open()
	t.Cleanup(func() { _ = s.Shutdown(ctx) })
	if f, err := s.Family("legacy"); err != nil || !f.Custom {
		t.Fatalf("custom family lost: %v", err)
	}
	if f, _ := s.Family("modern"); !f.Hidden {
		t.Fatalf("hidden flag lost")
	}
}
