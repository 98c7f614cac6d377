// Package storage uploads user files (profile photos, KYC documents) and
// returns the public URL they are served from.
package storage

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

type ObjectStorage interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, url string) error
}

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
	"image/heic": ".heic",
}

// ObjectKey builds a unique key such as "photos/<user>/<uuid>.jpg".
func ObjectKey(folder, userID, contentType string) string {
	ext, ok := imageExtensions[contentType]
	if !ok {
		ext = ".bin"
	}
	return path.Join(folder, userID, uuid.NewString()+ext)
}

// keyFromURL strips the public base URL from url.
func keyFromURL(baseURL, url string) (string, error) {
	prefix := strings.TrimSuffix(baseURL, "/") + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", fmt.Errorf("url %q is not served by this storage", url)
	}
	key := strings.TrimPrefix(url, prefix)
	if key == "" || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid object key in url %q", url)
	}
	return key, nil
}

func publicURL(baseURL, key string) string {
	return strings.TrimSuffix(baseURL, "/") + "/" + key
}
