// Package notify defines the post-publish notification boundary.
//
// Notifiers announce a settled publish to downstream systems. Notification
// is best-effort: a failed delivery never changes the publish outcome.
package notify

import "context"

// ReleasePublishedEvent is the payload published when a publish settles.
type ReleasePublishedEvent struct {
	AppID        string `json:"app_id"`
	Version      string `json:"version"`
	ContentHash  string `json:"content_hash"`
	Outcome      string `json:"outcome"` // published, partial, rejected, failed
	AssetsFailed int    `json:"assets_failed"`
	Timestamp    string `json:"timestamp"` // ISO 8601
}

// Notifier publishes release events to a downstream system.
// Implementations must be safe for single-use per invocation.
type Notifier interface {
	// Publish sends a release event to the downstream system.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *ReleasePublishedEvent) error

	// Close releases notifier resources.
	Close() error
}
