package pipeline

import (
	"time"

	"github.com/pithecene-io/stevedore/assets"
	"github.com/pithecene-io/stevedore/metrics"
	"github.com/pithecene-io/stevedore/types"
)

// Outcome aggregates a settled publish invocation.
type Outcome struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`

	AppID   string `json:"app_id"`
	Version string `json:"version"`

	Archive *types.ArchiveResult `json:"archive,omitempty"`

	// Uploads holds one entry per eligible asset, in discovery order.
	Uploads []assets.UploadOutcome `json:"-"`
	// FailedKeys lists the store keys whose upload failed.
	FailedKeys []string `json:"failed_keys,omitempty"`

	Stats    metrics.Snapshot `json:"stats"`
	Duration time.Duration    `json:"duration"`
}

// Success reports a fully completed publish: registry accepted AND every
// eligible asset upload succeeded.
func (o *Outcome) Success() bool {
	return o.Status == StatusPublished
}

// absorbUploads records the sync results into the outcome.
func (o *Outcome) absorbUploads(uploads []assets.UploadOutcome) {
	o.Uploads = uploads
	for _, u := range uploads {
		if !u.Succeeded {
			o.FailedKeys = append(o.FailedKeys, u.Key)
		}
	}
}
