package pipeline

import (
	"context"
	"time"

	"github.com/pithecene-io/stevedore/archive"
	"github.com/pithecene-io/stevedore/assets"
	"github.com/pithecene-io/stevedore/credential"
	"github.com/pithecene-io/stevedore/log"
	"github.com/pithecene-io/stevedore/manifest"
	"github.com/pithecene-io/stevedore/metrics"
	"github.com/pithecene-io/stevedore/registry"
	"github.com/pithecene-io/stevedore/signer"
	"github.com/pithecene-io/stevedore/types"
)

// CredentialResolver is the resolver boundary: exactly one pair per
// invocation, or an abort.
type CredentialResolver interface {
	Resolve() (*types.Credentials, error)
}

// Submitter is the registry boundary.
type Submitter interface {
	Submit(ctx context.Context, env *signer.Envelope) error
}

// UploaderFactory builds the content store uploader from the resolved
// credentials. The client is explicit, never process-wide state.
type UploaderFactory func(ctx context.Context, creds *types.Credentials) (assets.Uploader, error)

// Options configures a publish invocation.
type Options struct {
	// Root is the project root directory.
	Root string
	// Latest archives under the fixed "latest" alias.
	Latest bool
	// Force asks the registry to overwrite an existing version.
	Force bool
	// DependencyDir is the third-party dependency directory name.
	DependencyDir string
	// KeyPrefix is the content store prefix; asset keys append their
	// root-relative path.
	KeyPrefix string
	// Concurrency bounds in-flight asset uploads (0 selects the default).
	Concurrency int
}

// Pipeline runs one publish attempt end to end. Stages are strictly
// sequential; the asset fan-out inside the sync stage is the only
// concurrent region.
type Pipeline struct {
	opts        Options
	resolver    CredentialResolver
	signer      *signer.Signer
	submitter   Submitter
	newUploader UploaderFactory
	logger      *log.Logger
}

// New assembles a pipeline from its collaborators.
func New(opts Options, resolver CredentialResolver, sgn *signer.Signer, submitter Submitter, newUploader UploaderFactory, logger *log.Logger) *Pipeline {
	return &Pipeline{
		opts:        opts,
		resolver:    resolver,
		signer:      sgn,
		submitter:   submitter,
		newUploader: newUploader,
		logger:      logger,
	}
}

// Run executes the publish pipeline. The returned Outcome is always
// populated as far as the pipeline progressed; the error classifies why it
// stopped (nil for a full publish). No stage retries automatically.
func (p *Pipeline) Run(ctx context.Context) (*Outcome, error) {
	start := time.Now()
	outcome := &Outcome{}
	defer func() { outcome.Duration = time.Since(start) }()

	fail := func(err error) (*Outcome, error) {
		outcome.Status = Classify(err)
		outcome.Message = err.Error()
		return outcome, err
	}

	desc, sidecar, err := manifest.Load(p.opts.Root)
	if err != nil {
		return fail(wrapStage("manifest", err))
	}
	outcome.AppID = desc.ID
	outcome.Version = desc.Version

	collector := metrics.NewCollector(desc.ID, desc.Version)
	// Every exit from here on reports whatever was counted so far.
	defer func() { outcome.Stats = collector.Snapshot() }()
	sugar := p.sugar(desc)

	result, err := archive.Build(p.opts.Root, desc, archive.Options{
		Latest:        p.opts.Latest,
		DependencyDir: p.opts.DependencyDir,
	})
	if err != nil {
		return fail(wrapStage("archive", err))
	}
	outcome.Archive = result
	collector.RecordArchive(result.Bytes)
	sugar.Infof("archived %s (%d bytes, sha256 %s)", result.FileName, result.Bytes, result.ContentHash)

	bundle := manifest.AssembleLocales(desc, sidecar)

	creds, err := p.resolver.Resolve()
	if err != nil {
		// An abort is a clean halt, not a failure; nothing was sent.
		return fail(wrapStage("credentials", err))
	}

	req := &types.PublishRequest{
		App: types.PublishApp{
			Descriptor: *desc,
			Archive:    *result,
			Locales:    bundle,
		},
		Force: p.opts.Force,
	}

	env, err := p.signer.Sign(ctx, req, creds)
	if err != nil {
		return fail(wrapStage("sign", err))
	}

	if err := p.submitter.Submit(ctx, env); err != nil {
		// Rejected and transport failures halt before any upload side effect.
		return fail(wrapStage("submit", err))
	}
	sugar.Infof("registry accepted %s@%s", desc.ID, desc.Version)

	err = p.syncAssets(ctx, creds, collector, outcome, sugar)
	if err != nil {
		outcome.Status = Classify(err)
		outcome.Message = err.Error()
		return outcome, err
	}

	outcome.Status = StatusPublished
	return outcome, nil
}

// syncAssets discovers and uploads the project's static assets.
// Any single upload failure downgrades the publish to partial.
func (p *Pipeline) syncAssets(ctx context.Context, creds *types.Credentials, collector *metrics.Collector, outcome *Outcome, sugar *log.SugaredLogger) error {
	found, err := assets.Discover(p.opts.Root, p.opts.DependencyDir)
	if err != nil {
		return wrapStage("sync", &PartialError{Cause: err})
	}
	collector.RecordDiscovered(len(found))
	if len(found) == 0 {
		return nil
	}

	uploader, err := p.newUploader(ctx, creds)
	if err != nil {
		// The registry already accepted: every asset is now missing.
		keys := make([]string, len(found))
		for i, a := range found {
			keys[i] = a.Key
		}
		outcome.FailedKeys = keys
		collector.AbsorbSyncOutcome(0, len(found))
		return wrapStage("sync", &PartialError{FailedKeys: keys, Cause: err})
	}

	syncer := assets.NewSyncer(uploader, p.opts.KeyPrefix, p.opts.Concurrency, sugar)
	uploads := syncer.Sync(ctx, found)
	outcome.absorbUploads(uploads)

	succeeded := len(uploads) - len(outcome.FailedKeys)
	collector.AbsorbSyncOutcome(succeeded, len(outcome.FailedKeys))
	sugar.Infof("asset sync: %d uploaded, %d failed", succeeded, len(outcome.FailedKeys))

	if len(outcome.FailedKeys) > 0 {
		return wrapStage("sync", &PartialError{FailedKeys: outcome.FailedKeys})
	}
	return nil
}

func (p *Pipeline) sugar(desc *types.ReleaseDescriptor) *log.SugaredLogger {
	logger := p.logger
	if logger == nil {
		logger = log.NewLogger(desc.ID, desc.Version)
	}
	return logger.Sugar()
}

// Verify the concrete collaborators satisfy the boundaries.
var (
	_ CredentialResolver = (*credential.Resolver)(nil)
	_ Submitter          = (*registry.Client)(nil)
)
