package objectstore

import (
	"context"
	"errors"
	"familycore/internal/blob"
	"familycore/pkg/domain"
	"io"
	"strings"
	"testing"
)

func TestStoreRoundTripAcrossDrivers(t *testing.T) {
	ctx := context.Background()
	fsStore, err := blob.NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("fs: %v", err)
	}
	for _, blobs := range []blob.Store{blob.NewMemory(), fsStore, blob.NewMockS3ForTests()} {
		t.Run(string(blobs.Driver()), func(t *testing.T) {
			store, err := NewStore(blobs, "")
			if err != nil {
				t.Fatalf("NewStore: %v", err)
			}
			if _, ok, err := store.Get(ctx, domain.KeyFamiliesCustom); err != nil || ok {
				t.Fatalf("expected missing record, got ok=%v err=%v", ok, err)
			}
			if err := store.Put(ctx, domain.KeyFamiliesCustom, []byte(`{"a":{}}`)); err != nil {
				t.Fatalf("put: %v", err)
			}
			if err := store.Put(ctx, domain.KeyFamiliesCustom, []byte(`{"b":{}}`)); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			got, ok, err := store.Get(ctx, domain.KeyFamiliesCustom)
			if err != nil || !ok || string(got) != `{"b":{}}` {
				t.Fatalf("get: %s ok=%v err=%v", got, ok, err)
			}
			if err := store.Delete(ctx, domain.KeyFamiliesCustom); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if err := store.Delete(ctx, domain.KeyFamiliesCustom); err != nil {
				t.Fatalf("delete missing: %v", err)
			}
			if _, ok, _ := store.Get(ctx, domain.KeyFamiliesCustom); ok {
				t.Fatalf("expected record to be gone")
			}
			if err := store.Close(); err != nil {
				t.Fatalf("close: %v", err)
			}
		})
	}
}

func TestStoreKeyLayout(t *testing.T) {
	blobs := blob.NewMemory()
	store, err := NewStore(blobs, "records")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if got := store.ObjectKey(domain.KeyFamiliesMeta); got != "records/families_meta.json" {
		t.Fatalf("unexpected object key %s", got)
	}
	ctx := context.Background()
	if err := store.Put(ctx, domain.KeyFamiliesMeta, []byte(`{}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	info, rc, err := blobs.Get(ctx, "records/families_meta.json")
	if err != nil {
		t.Fatalf("blob get: %v", err)
	}
	defer func() { _ = rc.Close() }()
	body, _ := io.ReadAll(rc)
	if string(body) != `{}` || info.ContentType != "application/json" || info.Metadata["record"] != domain.KeyFamiliesMeta {
		t.Fatalf("unexpected blob %s %+v", body, info)
	}
}

type brokenBlobs struct{ blob.Store }

func (brokenBlobs) Get(context.Context, string) (blob.Info, io.ReadCloser, error) {
	return blob.Info{}, nil, errors.New("disk on fire")
}

func TestStoreSurfacesBlobErrors(t *testing.T) {
	if _, err := NewStore(nil, ""); err == nil {
		t.Fatalf("expected nil store error")
	}
	store, _ := NewStore(brokenBlobs{blob.NewMemory()}, "")
	if _, _, err := store.Get(context.Background(), "k"); err == nil || !strings.Contains(err.Error(), "disk on fire") {
		t.Fatalf("expected wrapped blob error, got %v", err)
	}
}
