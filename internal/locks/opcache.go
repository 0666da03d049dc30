package locks

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// MediaItemLock serializes processing of one media item and memoizes
// expensive per-file operations for the lifetime of its last guard.
// Unlike the teacher's usual sync.Map-based caches, this registry is
// explicitly reference-counted (see Locks.MediaItem/MediaItemGuard.Release)
// so a lock's op cache is dropped deterministically rather than left to
// GC, which matters here because DynamicImage buffers are large.
type MediaItemLock struct {
	itemID string

	mu      sync.Mutex
	fileOps map[string]*MediaFileOpCache
}

func newMediaItemLock(itemID string) *MediaItemLock {
	return &MediaItemLock{itemID: itemID, fileOps: make(map[string]*MediaFileOpCache)}
}

// ItemID is the media_item.id this lock serializes.
func (l *MediaItemLock) ItemID() string { return l.itemID }

// FileOps returns the op cache for a given media file, creating it on
// first use.
func (l *MediaItemLock) FileOps(fileID string) *MediaFileOpCache {
	l.mu.Lock()
	defer l.mu.Unlock()

	if c, ok := l.fileOps[fileID]; ok {
		return c
	}
	c := newMediaFileOpCache(fileID)
	l.fileOps[fileID] = c
	return c
}

// SocialCardWidth/SocialCardHeight are the target dimensions for the
// crop+resize social-card alternate.
const (
	SocialCardWidth  = 1200
	SocialCardHeight = 630
)

// MediaFileOpCache deduplicates the handful of expensive operations a
// MediaFile's processing steps may need: pulling a local copy, decoding
// the source image, resizing to a given size, and the social-card
// crop+resize. Concurrent callers of the same operation block on one
// in-flight computation via singleflight rather than racing. No result
// is kept once that computation returns, so a call made after it has
// finished computes again, even within the same lock lifetime.
type MediaFileOpCache struct {
	fileID string

	ensureLocal singleflight.Group
	decode      singleflight.Group
	social      singleflight.Group
	resize      singleflight.Group
}

func newMediaFileOpCache(fileID string) *MediaFileOpCache {
	return &MediaFileOpCache{fileID: fileID}
}

// EnsureLocal deduplicates concurrent calls of "pull the file into the
// temp store if it isn't already there", returning the local path.
func (c *MediaFileOpCache) EnsureLocal(ctx context.Context, compute func(ctx context.Context) (string, error)) (string, error) {
	v, err, _ := c.ensureLocal.Do(c.fileID, func() (any, error) {
		return compute(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Decode deduplicates concurrent calls of "decode the source image once
// it's local".
func (c *MediaFileOpCache) Decode(ctx context.Context, compute func(ctx context.Context) (any, error)) (any, error) {
	v, err, _ := c.decode.Do(c.fileID, func() (any, error) {
		return compute(ctx)
	})
	return v, err
}

// Resize deduplicates concurrent calls of "resize the decoded image to
// size x size", keyed by
// size so distinct thumbnail sizes don't collide on the same
// singleflight key.
func (c *MediaFileOpCache) Resize(ctx context.Context, size int, compute func(ctx context.Context) (any, error)) (any, error) {
	v, err, _ := c.resize.Do(resizeKey(size), func() (any, error) {
		return compute(ctx)
	})
	return v, err
}

// ResizeSocial deduplicates concurrent calls of the crop+resize used for
// the 1200x630 social-card alternate.
func (c *MediaFileOpCache) ResizeSocial(ctx context.Context, compute func(ctx context.Context) (any, error)) (any, error) {
	v, err, _ := c.social.Do(c.fileID, func() (any, error) {
		return compute(ctx)
	})
	return v, err
}

func resizeKey(size int) string {
	return strconv.Itoa(size)
}
