package assets

import (
	"context"
	"io"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/pithecene-io/stevedore/iox"
	"github.com/pithecene-io/stevedore/log"
)

// DefaultConcurrency bounds in-flight uploads so large asset trees do not
// exhaust file handles or connections.
const DefaultConcurrency = 8

// Uploader is the content store boundary: one PUT per object.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) error
}

// UploadOutcome records the result of a single asset upload.
type UploadOutcome struct {
	// Key is the store key relative to the prefix.
	Key string
	// Succeeded reports whether the upload completed.
	Succeeded bool
	// Err holds the failure when Succeeded is false.
	Err error
}

// Syncer uploads discovered assets concurrently and records per-file
// outcomes. A failed upload never stops sibling uploads: the partial state
// must be reported completely, not left ambiguous.
type Syncer struct {
	uploader    Uploader
	prefix      string
	concurrency int
	logger      *log.SugaredLogger
}

// NewSyncer creates a Syncer writing under the given key prefix.
// concurrency <= 0 selects DefaultConcurrency.
func NewSyncer(uploader Uploader, prefix string, concurrency int, logger *log.SugaredLogger) *Syncer {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Syncer{uploader: uploader, prefix: prefix, concurrency: concurrency, logger: logger}
}

// Sync uploads every asset and waits for all uploads to settle.
// The returned slice has one outcome per asset, in discovery order.
func (s *Syncer) Sync(ctx context.Context, found []Asset) []UploadOutcome {
	outcomes := make([]UploadOutcome, len(found))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, asset := range found {
		g.Go(func() error {
			err := s.uploadOne(gctx, asset)
			outcomes[i] = UploadOutcome{Key: asset.Key, Succeeded: err == nil, Err: err}
			if err != nil && s.logger != nil {
				s.logger.Warnf("upload failed: %s: %v", asset.Key, err)
			}
			// Always nil: per-file failure is recorded, not fatal to siblings.
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func (s *Syncer) uploadOne(ctx context.Context, asset Asset) error {
	f, err := os.Open(asset.Path)
	if err != nil {
		return err
	}
	defer iox.DiscardClose(f)

	return s.uploader.Upload(ctx, s.prefix+asset.Key, ContentTypeFor(asset.Key), f)
}
