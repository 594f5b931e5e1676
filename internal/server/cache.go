package server

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"sync"
	"time"
)

// SnapshotFunc renders the current host view with the overlay on top.
type SnapshotFunc func() (image.Image, error)

// snapshotKey identifies what a rendered frame depends on.
type snapshotKey struct {
	Generation uint64
	Phase      string
	Opacity    float64
}

// snapshotEntry holds an encoded frame with its timestamp.
type snapshotEntry struct {
	key       snapshotKey
	png       []byte
	timestamp time.Time
}

// SnapshotCache keeps the most recent PNG-encoded snapshot for a short TTL so
// polling clients do not re-render an unchanged overlay.
type SnapshotCache struct {
	mu    sync.Mutex
	entry *snapshotEntry
	ttl   time.Duration
}

// NewSnapshotCache creates a new cache. A ttl of 0 disables caching.
func NewSnapshotCache(ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{ttl: ttl}
}

// PNG returns the cached encoding for key if it is within TTL, otherwise
// renders and encodes a fresh frame.
func (c *SnapshotCache) PNG(key snapshotKey, render SnapshotFunc) ([]byte, error) {
	if c.ttl > 0 {
		c.mu.Lock()
		if e := c.entry; e != nil && e.key == key && time.Since(e.timestamp) < c.ttl {
			data := e.png
			c.mu.Unlock()
			return data, nil
		}
		c.mu.Unlock()
	}

	img, err := render()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("png encode: %w", err)
	}
	data := buf.Bytes()

	if c.ttl > 0 {
		c.mu.Lock()
		c.entry = &snapshotEntry{key: key, png: data, timestamp: time.Now()}
		c.mu.Unlock()
	}
	return data, nil
}

// Invalidate drops the cached frame.
func (c *SnapshotCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry = nil
}
