package unsplash

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/peterbourgon/diskv/v3"
	"github.com/sirupsen/logrus"

	"unsplash-cli/internal/api"
)

// In-memory read cache on top of the disk store, enough for a handful of
// thumbnails.
const cacheSizeMaxBytes = 8 * 1024 * 1024

// PhotoCache downloads photo bytes and keeps them in a disk-backed key-value
// store keyed by photo id and variant, so repeated saves of the same photo
// skip the network.
type PhotoCache struct {
	dv   *diskv.Diskv
	http *api.Client
	log  *logrus.Entry
}

func NewPhotoCache(dir string, httpClient *api.Client) *PhotoCache {
	// Simplest transform function: put all the data files into the base dir.
	flatTransform := func(s string) []string { return []string{} }

	dv := diskv.New(diskv.Options{
		BasePath:     dir,
		Transform:    flatTransform,
		CacheSizeMax: cacheSizeMaxBytes,
	})
	return &PhotoCache{
		dv:   dv,
		http: httpClient,
		log:  logrus.WithField("component", "photocache"),
	}
}

// Fetch returns the bytes of the given photo variant, downloading them on a
// cache miss.
func (c *PhotoCache) Fetch(ctx context.Context, photo Photo, variant string) ([]byte, error) {
	rawURL := photo.FullURL
	if variant == "thumb" {
		rawURL = photo.ThumbURL
	}
	if rawURL == "" {
		return nil, fmt.Errorf("photo %s has no %s URL", photo.ID, variant)
	}

	key := photo.ID + "-" + variant
	if c.dv.Has(key) {
		c.log.WithField("key", key).Debug("cache hit")
		return c.dv.Read(key)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("photo %s has a malformed %s URL: %w", photo.ID, variant, err)
	}
	data, err := c.http.Do(ctx, api.FromURL(http.MethodGet, u))
	if err != nil {
		return nil, fmt.Errorf("failed to download photo %s: %w", photo.ID, err)
	}

	if err := c.dv.Write(key, data); err != nil {
		return nil, fmt.Errorf("failed to cache photo %s: %w", photo.ID, err)
	}
	return data, nil
}

// Evict removes a cached photo variant. Missing keys are not an error.
func (c *PhotoCache) Evict(photoID, variant string) error {
	key := photoID + "-" + variant
	if !c.dv.Has(key) {
		return nil
	}
	return c.dv.Erase(key)
}
