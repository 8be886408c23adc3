// Package metrics provides per-invocation publish metrics collection.
//
// The Collector accumulates counters during a single publish. It is a leaf
// package with no internal dependencies. Asset sync counters are absorbed
// from the sync outcomes at completion rather than recorded live, avoiding
// double-counting.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of publish metrics.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Archive
	ArchiveBytes int64 `json:"archive_bytes"`

	// Asset sync
	AssetsDiscovered int64 `json:"assets_discovered"`
	AssetsUploaded   int64 `json:"assets_uploaded"`
	AssetsFailed     int64 `json:"assets_failed"`

	// Dimensions (informational, set at construction)
	AppID   string `json:"app_id"`
	Version string `json:"version"`
}

// Collector accumulates metrics during a single publish invocation.
// Thread-safe via sync.Mutex. All record methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex

	archiveBytes     int64
	assetsDiscovered int64
	assetsUploaded   int64
	assetsFailed     int64

	appID   string
	version string
}

// NewCollector creates a collector for the given release identity.
func NewCollector(appID, version string) *Collector {
	return &Collector{appID: appID, version: version}
}

// RecordArchive records the produced archive size.
func (c *Collector) RecordArchive(bytes int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.archiveBytes = bytes
}

// RecordDiscovered records the number of eligible assets found.
func (c *Collector) RecordDiscovered(n int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.assetsDiscovered += int64(n)
}

// AbsorbSyncOutcome absorbs per-file upload results at completion.
func (c *Collector) AbsorbSyncOutcome(succeeded, failed int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.assetsUploaded += int64(succeeded)
	c.assetsFailed += int64(failed)
}

// Snapshot returns an immutable view of the current counters.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		ArchiveBytes:     c.archiveBytes,
		AssetsDiscovered: c.assetsDiscovered,
		AssetsUploaded:   c.assetsUploaded,
		AssetsFailed:     c.assetsFailed,
		AppID:            c.appID,
		Version:          c.version,
	}
}
