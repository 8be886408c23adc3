package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/stevedore/assets"
	"github.com/pithecene-io/stevedore/cli/config"
	"github.com/pithecene-io/stevedore/cli/render"
	"github.com/pithecene-io/stevedore/credential"
	"github.com/pithecene-io/stevedore/notify"
	redisnotify "github.com/pithecene-io/stevedore/notify/redis"
	"github.com/pithecene-io/stevedore/notify/webhook"
	"github.com/pithecene-io/stevedore/pipeline"
	"github.com/pithecene-io/stevedore/registry"
	"github.com/pithecene-io/stevedore/signer"
	"github.com/pithecene-io/stevedore/types"
)

// Exit codes for publish.
const (
	exitSuccess   = 0
	exitFailure   = 1
	exitRejected  = 2
	exitTransport = 3
	exitPartial   = 4
	exitAborted   = 5
)

// PublishCommand returns the publish command: the full pipeline from
// archive to asset sync.
func PublishCommand() *cli.Command {
	return &cli.Command{
		Name:  "publish",
		Usage: "Package, sign, submit to the registry, and sync assets",
		Flags: append(ReadOnlyFlags(),
			RootFlag,
			LatestFlag,
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Ask the registry to overwrite an existing version",
			},
			&cli.IntFlag{
				Name:  "concurrency",
				Usage: "Max in-flight asset uploads",
				Value: assets.DefaultConcurrency,
			},
		),
		Action: publishAction,
	}
}

func publishAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	cfg, err := config.LoadOrDefault(c.String("config"))
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return cli.Exit(fmt.Sprintf("config: %v", err), exitFailure)
	}

	p := newPipeline(c, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	outcome, runErr := p.Run(ctx)

	// Notification is best-effort and never changes the exit code.
	notifyOutcome(ctx, cfg, outcome)

	if err := r.Render(outcome); err != nil {
		return err
	}
	r.StatusLine(string(outcome.Status), outcome.Message)

	if runErr != nil {
		return cli.Exit("", exitCodeFor(outcome.Status))
	}
	return nil
}

// newPipeline wires the pipeline collaborators from resolved config.
func newPipeline(c *cli.Context, cfg *config.Config) *pipeline.Pipeline {
	endpoint := "https://" + cfg.Registry.Host + cfg.Registry.Path
	sgn := signer.New(endpoint, cfg.Registry.Service, cfg.Registry.Region)

	store := credential.NewHelperStore(cfg.CredentialHelper)
	resolver := credential.NewResolver(store, credential.NewTerminalPrompter())

	factory := func(ctx context.Context, creds *types.Credentials) (assets.Uploader, error) {
		return assets.NewS3Uploader(ctx, creds, assets.StoreConfig{
			Bucket:       cfg.Storage.Bucket,
			Region:       cfg.Storage.Region,
			Endpoint:     cfg.Storage.Endpoint,
			UsePathStyle: cfg.Storage.PathStyle,
		})
	}

	opts := pipeline.Options{
		Root:          c.String("root"),
		Latest:        c.Bool("latest"),
		Force:         c.Bool("force"),
		DependencyDir: cfg.DependencyDir,
		KeyPrefix:     cfg.Storage.Prefix,
		Concurrency:   c.Int("concurrency"),
	}

	return pipeline.New(opts, resolver, sgn, registry.NewClient(nil), factory, nil)
}

// exitCodeFor maps a settled pipeline status to the process exit code.
func exitCodeFor(status pipeline.Status) int {
	switch status {
	case pipeline.StatusPublished:
		return exitSuccess
	case pipeline.StatusRejected:
		return exitRejected
	case pipeline.StatusSubmitFailed:
		return exitTransport
	case pipeline.StatusPartial:
		return exitPartial
	case pipeline.StatusAborted:
		return exitAborted
	default:
		return exitFailure
	}
}

// notifyOutcome publishes the settled outcome to the configured targets.
// Failures are reported on stderr only.
func notifyOutcome(ctx context.Context, cfg *config.Config, outcome *pipeline.Outcome) {
	notifiers := buildNotifiers(cfg)
	if len(notifiers) == 0 {
		return
	}

	event := newReleaseEvent(outcome)
	for _, n := range notifiers {
		if err := n.Publish(ctx, event); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: notification failed: %v\n", err)
		}
		_ = n.Close()
	}
}

func buildNotifiers(cfg *config.Config) []notify.Notifier {
	var notifiers []notify.Notifier

	if wh := cfg.Notify.Webhook; wh != nil {
		n, err := webhook.New(webhook.Config{
			URL:     wh.URL,
			Headers: wh.Headers,
			Timeout: wh.Timeout.Duration,
			Retries: retriesOrDefault(wh.Retries, webhook.DefaultRetries),
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: webhook notifier disabled: %v\n", err)
		} else {
			notifiers = append(notifiers, n)
		}
	}

	if rd := cfg.Notify.Redis; rd != nil {
		n, err := redisnotify.New(redisnotify.Config{
			URL:     rd.URL,
			Channel: rd.Channel,
			Timeout: rd.Timeout.Duration,
			Retries: retriesOrDefault(rd.Retries, redisnotify.DefaultRetries),
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: redis notifier disabled: %v\n", err)
		} else {
			notifiers = append(notifiers, n)
		}
	}

	return notifiers
}

func retriesOrDefault(retries *int, def int) int {
	if retries == nil {
		return def
	}
	return *retries
}

func newReleaseEvent(outcome *pipeline.Outcome) *notify.ReleasePublishedEvent {
	event := &notify.ReleasePublishedEvent{
		AppID:        outcome.AppID,
		Version:      outcome.Version,
		Outcome:      string(outcome.Status),
		AssetsFailed: len(outcome.FailedKeys),
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
	}
	if outcome.Archive != nil {
		event.ContentHash = outcome.Archive.ContentHash
	}
	return event
}
