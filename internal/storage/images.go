package storage

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"watchstore/internal/imaging"
)

// ObjectStore is the bucket the image library writes to. *Client
// satisfies it.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Remove(ctx context.Context, key string) error
	URL(key string) string
}

// Images stores uploaded pictures with their listing thumbnail. The key
// of the original is what categories and products record; the thumbnail
// lives next to it under a derived key.
type Images struct {
	objects ObjectStore
	now     func() time.Time
}

// NewImages creates an image library on top of an object store.
func NewImages(objects ObjectStore) *Images {
	return &Images{objects: objects, now: time.Now}
}

// ThumbKey derives the thumbnail key of an original image key.
func ThumbKey(key string) string {
	return strings.TrimSuffix(key, path.Ext(key)) + "_thumb.jpg"
}

// Save validates data as an image, uploads it under
// "<prefix>/<yyyy>/<mm>/<uuid><ext>" with a JPEG thumbnail, and returns
// the key of the original. Nothing is left behind on failure.
func (im *Images) Save(ctx context.Context, prefix string, data []byte) (string, error) {
	contentType, ext, err := imaging.Detect(data)
	if err != nil {
		return "", err
	}
	thumb, err := imaging.Thumbnail(data, imaging.ThumbWidth)
	if err != nil {
		return "", err
	}

	now := im.now()
	key := fmt.Sprintf("%s/%d/%02d/%s%s", prefix, now.Year(), now.Month(), uuid.New(), ext)

	if err := im.objects.Put(ctx, key, contentType, data); err != nil {
		return "", err
	}
	if err := im.objects.Put(ctx, ThumbKey(key), thumb.ContentType, thumb.Data); err != nil {
		im.remove(ctx, key)
		return "", err
	}

	slog.Info("image stored", "key", key, "bytes", len(data), "thumb_width", thumb.Width)
	return key, nil
}

// Delete removes an image and its thumbnail. Failures are logged only:
// an orphaned object is harmless.
func (im *Images) Delete(ctx context.Context, key string) {
	if key == "" {
		return
	}
	im.remove(ctx, key)
	im.remove(ctx, ThumbKey(key))
}

func (im *Images) remove(ctx context.Context, key string) {
	if err := im.objects.Remove(ctx, key); err != nil {
		slog.Warn("image delete failed", "error", err, "key", key)
	}
}

// URL returns the public address of an image key.
func (im *Images) URL(key string) string {
	return im.objects.URL(key)
}

// ThumbURL returns the public address of the thumbnail of an image key.
func (im *Images) ThumbURL(key string) string {
	return im.objects.URL(ThumbKey(key))
}
