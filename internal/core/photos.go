package core

import (
	"bytes"
	"context"
	"errors"
	"familycore/internal/blob"
	"familycore/pkg/domain"
	"fmt"
	"strings"
	"time"
)

// BlobPhotoScheme prefixes photo URLs that reference the configured blob store.
const BlobPhotoScheme = "blob://"

func photoExtension(contentType string) string {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	}
	return ""
}

// PhotoKeyPrefix is the blob key prefix of every uploaded photo.
const PhotoKeyPrefix = "photos/"

// PhotoBlobKey is the blob key of a person's photo at a given version.
func PhotoBlobKey(familyKey, personID string, version int64, contentType string) string {
	return fmt.Sprintf("%s%s/%s/v%d%s", PhotoKeyPrefix, familyKey, personID, version, photoExtension(contentType))
}

// uploadPhoto stores image bytes and returns the patch referencing them.
func uploadPhoto(ctx context.Context, store blob.Store, familyKey string, p *domain.Person, contentType string, data []byte) (domain.PhotoPatch, error) {
	if store == nil {
		return domain.PhotoPatch{}, ErrNoBlobStore
	}
	version := p.Bio.PhotoVersion + 1
	key := PhotoBlobKey(familyKey, p.ID, version, contentType)
	_, err := store.Put(ctx, key, bytes.NewReader(data), blob.PutOptions{
		ContentType: contentType,
		Metadata:    map[string]string{"family": familyKey, "person": p.ID},
	})
	if err != nil {
		return domain.PhotoPatch{}, fmt.Errorf("upload photo %s: %w", key, err)
	}
	return domain.PhotoPatch{
		PhotoURL:     BlobPhotoScheme + key,
		PhotoVersion: version,
		HasOriginal:  true,
	}, nil
}

// ResolvePhotoURL turns a blob:// photo reference into a fetchable URL.
// Other URLs are returned unchanged.
func ResolvePhotoURL(ctx context.Context, store blob.Store, photoURL string, expiry time.Duration) (string, error) {
	key, ok := strings.CutPrefix(photoURL, BlobPhotoScheme)
	if !ok {
		return photoURL, nil
	}
	if store == nil {
		return "", ErrNoBlobStore
	}
	return store.PresignURL(ctx, key, blob.SignedURLOptions{Method: "GET", Expiry: expiry})
}

func purgePhotos(ctx context.Context, store blob.Store) error {
	infos, err := store.List(ctx, PhotoKeyPrefix)
	if err != nil {
		return fmt.Errorf("list photos: %w", err)
	}
	var errs []error
	for _, info := range infos {
		if _, err := store.Delete(ctx, info.Key); err != nil {
			errs = append(errs, fmt.Errorf("delete photo %s: %w", info.Key, err))
		}
	}
	return errors.Join(errs...)
}
