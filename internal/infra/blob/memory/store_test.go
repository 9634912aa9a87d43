package memory

import (
	"bytes"
	"context"
	"errors"
	"familycore/internal/blob/core"
	"fmt"
	"io"
	"testing"
)

func TestStoreMissingKey(t *testing.T) {
	store := New()
	ctx := context.Background()
	if _, _, err := store.Get(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if ok, err := store.Delete(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected delete false, got %v %v", ok, err)
	}
}

func TestStorePutOverwrite(t *testing.T) {
	store := New()
	ctx := context.Background()
	meta := map[string]string{"family": "f1"}
	if _, err := store.Put(ctx, "photos/f1/p1/v1.png", bytes.NewReader([]byte("v1")), core.PutOptions{Metadata: meta}); err != nil {
		t.Fatalf("put: %v", err)
	}
	meta["family"] = "mutated"
	if _, err := store.Put(ctx, "photos/f1/p1/v1.png", bytes.NewReader([]byte("v2")), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	if _, err := store.Put(ctx, "photos/f1/p1/v1.png", bytes.NewReader([]byte("v2")), core.PutOptions{Overwrite: true, Metadata: map[string]string{"family": "f1"}}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	info, rc, err := store.Get(ctx, "photos/f1/p1/v1.png")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = rc.Close() }()
	b, _ := io.ReadAll(rc)
	if string(b) != "v2" || info.Size != 2 || info.Metadata["family"] != "f1" {
		t.Fatalf("unexpected blob %q %+v", b, info)
	}
}

func TestStoreListPrefixAndPresign(t *testing.T) {
	store := New()
	ctx := context.Background()
	for _, k := range []string{"photos/b", "photos/a", "state/x.json"} {
		if _, err := store.Put(ctx, k, bytes.NewReader([]byte(k)), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", k, err)
		}
	}
	list, err := store.List(ctx, "photos/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Key != "photos/a" || list[1].Key != "photos/b" {
		t.Fatalf("unexpected list %+v", list)
	}
	if all, _ := store.List(ctx, ""); len(all) != 3 {
		t.Fatalf("expected 3 blobs, got %d", len(all))
	}
	if _, err := store.PresignURL(ctx, "photos/a", core.SignedURLOptions{}); !errors.Is(err, core.ErrUnsupported) {
		t.Fatalf("expected unsupported presign, got %v", err)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, fmt.Errorf("fail") }

func TestStorePutReadErrorAndDriver(t *testing.T) {
	store := New()
	if store.Driver() != core.DriverMemory {
		t.Fatalf("expected memory driver")
	}
	if _, err := store.Put(context.Background(), "bad", failingReader{}, core.PutOptions{}); err == nil {
		t.Fatalf("expected read error")
	}
	if list, _ := store.List(context.Background(), ""); len(list) != 0 {
		t.Fatalf("failed put must not store anything")
	}
}
