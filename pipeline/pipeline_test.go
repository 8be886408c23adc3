package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/pithecene-io/stevedore/assets"
	"github.com/pithecene-io/stevedore/credential"
	"github.com/pithecene-io/stevedore/registry"
	"github.com/pithecene-io/stevedore/signer"
	"github.com/pithecene-io/stevedore/types"
)

// fakeResolver returns fixed credentials or an abort.
type fakeResolver struct {
	creds *types.Credentials
	err   error
	calls int
}

func (r *fakeResolver) Resolve() (*types.Credentials, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return r.creds, nil
}

// fakeSubmitter records submissions and returns a scripted result.
type fakeSubmitter struct {
	err   error
	calls int
	body  []byte
}

func (s *fakeSubmitter) Submit(_ context.Context, env *signer.Envelope) error {
	s.calls++
	s.body = env.Body
	return s.err
}

// fakeUploader records uploads and fails for configured keys.
type fakeUploader struct {
	mu       sync.Mutex
	keys     []string
	failKeys map[string]bool
}

func (u *fakeUploader) Upload(_ context.Context, key, _ string, body io.Reader) error {
	_, _ = io.ReadAll(body)
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.failKeys[key] {
		return fmt.Errorf("store refused %s", key)
	}
	u.keys = append(u.keys, key)
	return nil
}

func buildProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"release.yaml": "id: com.example.app\nversion: 1.0.0\ndisplay_name:\n  en: Example\n",
		"src/main.ux":  "component",
		"icon.png":     "png-a",
		"shots/1.webp": "webp-b",
		"shots/2.webp": "webp-c",
	}
	for name, content := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return root
}

func newTestPipeline(root string, resolver CredentialResolver, submitter Submitter, uploader assets.Uploader) *Pipeline {
	opts := Options{
		Root:          root,
		DependencyDir: "node_modules",
		KeyPrefix:     "apps/com.example.app/",
	}
	sgn := signer.New("https://registry.test/v1/app/publish", "appregistry", "us-east-1")
	factory := func(context.Context, *types.Credentials) (assets.Uploader, error) {
		return uploader, nil
	}
	return New(opts, resolver, sgn, submitter, factory, nil)
}

func testCreds() *types.Credentials {
	return &types.Credentials{KeyID: "AKID", Secret: "sec"}
}

func TestRun_FullPublish(t *testing.T) {
	root := buildProject(t)
	resolver := &fakeResolver{creds: testCreds()}
	submitter := &fakeSubmitter{}
	uploader := &fakeUploader{}

	outcome, err := newTestPipeline(root, resolver, submitter, uploader).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !outcome.Success() || outcome.Status != StatusPublished {
		t.Errorf("status = %s, want published", outcome.Status)
	}
	if resolver.calls != 1 {
		t.Errorf("resolver called %d times, want exactly 1", resolver.calls)
	}
	if submitter.calls != 1 {
		t.Errorf("submitter called %d times, want 1", submitter.calls)
	}
	// icon.png, shots/1.webp, shots/2.webp and the freshly built archive.
	if got := len(uploader.keys); got != 4 {
		t.Errorf("uploaded %d assets (%v), want 4", got, uploader.keys)
	}
	if outcome.Archive == nil || outcome.Archive.FileName != "com.example.app-1.0.0.tar.gz" {
		t.Errorf("archive = %+v", outcome.Archive)
	}
	if outcome.Stats.AssetsUploaded != 4 || outcome.Stats.AssetsFailed != 0 {
		t.Errorf("stats = %+v", outcome.Stats)
	}
}

func TestRun_RegistryRejectsBeforeAnyUpload(t *testing.T) {
	root := buildProject(t)
	resolver := &fakeResolver{creds: testCreds()}
	submitter := &fakeSubmitter{err: &registry.RejectionError{Msg: "version exists"}}
	uploader := &fakeUploader{}

	outcome, err := newTestPipeline(root, resolver, submitter, uploader).Run(context.Background())
	if !errors.Is(err, registry.ErrRejected) {
		t.Fatalf("err = %v, want ErrRejected", err)
	}

	if outcome.Status != StatusRejected {
		t.Errorf("status = %s, want rejected", outcome.Status)
	}
	var rej *registry.RejectionError
	if !errors.As(err, &rej) || rej.Msg != "version exists" {
		t.Errorf("rejection message lost: %v", err)
	}
	if len(uploader.keys) != 0 {
		t.Errorf("zero uploads expected after rejection, got %v", uploader.keys)
	}
}

func TestRun_TransportFailureDistinctFromRejection(t *testing.T) {
	root := buildProject(t)
	resolver := &fakeResolver{creds: testCreds()}
	submitter := &fakeSubmitter{err: fmt.Errorf("%w: connection refused", registry.ErrTransport)}
	uploader := &fakeUploader{}

	outcome, err := newTestPipeline(root, resolver, submitter, uploader).Run(context.Background())
	if !errors.Is(err, registry.ErrTransport) {
		t.Fatalf("err = %v, want ErrTransport", err)
	}
	if outcome.Status != StatusSubmitFailed {
		t.Errorf("status = %s, want submission_failed", outcome.Status)
	}
	if len(uploader.keys) != 0 {
		t.Errorf("zero uploads expected, got %v", uploader.keys)
	}
}

func TestRun_CredentialAbortHaltsCleanly(t *testing.T) {
	root := buildProject(t)
	resolver := &fakeResolver{err: credential.ErrAborted}
	submitter := &fakeSubmitter{}
	uploader := &fakeUploader{}

	outcome, err := newTestPipeline(root, resolver, submitter, uploader).Run(context.Background())
	if !errors.Is(err, credential.ErrAborted) {
		t.Fatalf("err = %v, want ErrAborted", err)
	}
	if outcome.Status != StatusAborted {
		t.Errorf("status = %s, want aborted", outcome.Status)
	}
	if submitter.calls != 0 {
		t.Error("nothing must be submitted after a credential abort")
	}
	if len(uploader.keys) != 0 {
		t.Error("nothing must be uploaded after a credential abort")
	}
}

func TestRun_OneUploadFailureIsPartial(t *testing.T) {
	root := buildProject(t)
	resolver := &fakeResolver{creds: testCreds()}
	submitter := &fakeSubmitter{}
	uploader := &fakeUploader{failKeys: map[string]bool{
		"apps/com.example.app/shots/1.webp": true,
	}}

	outcome, err := newTestPipeline(root, resolver, submitter, uploader).Run(context.Background())
	if !errors.Is(err, ErrPartialUpload) {
		t.Fatalf("err = %v, want ErrPartialUpload", err)
	}

	if outcome.Status != StatusPartial {
		t.Errorf("status = %s, want partial", outcome.Status)
	}
	if outcome.Success() {
		t.Error("partial publish must not report success")
	}
	if len(outcome.FailedKeys) != 1 || outcome.FailedKeys[0] != "shots/1.webp" {
		t.Errorf("FailedKeys = %v, want exactly [shots/1.webp]", outcome.FailedKeys)
	}
	var succeeded int
	for _, u := range outcome.Uploads {
		if u.Succeeded {
			succeeded++
		}
	}
	if succeeded != 3 {
		t.Errorf("succeeded = %d, want 3", succeeded)
	}
	if outcome.Stats.AssetsFailed != 1 {
		t.Errorf("stats.AssetsFailed = %d, want 1", outcome.Stats.AssetsFailed)
	}
}

func TestRun_UploaderFactoryFailureIsPartial(t *testing.T) {
	root := buildProject(t)
	resolver := &fakeResolver{creds: testCreds()}
	submitter := &fakeSubmitter{}

	opts := Options{Root: root, DependencyDir: "node_modules"}
	sgn := signer.New("https://registry.test/v1/app/publish", "appregistry", "us-east-1")
	factory := func(context.Context, *types.Credentials) (assets.Uploader, error) {
		return nil, fmt.Errorf("no store credentials")
	}

	outcome, err := New(opts, resolver, sgn, submitter, factory, nil).Run(context.Background())
	if !errors.Is(err, ErrPartialUpload) {
		t.Fatalf("err = %v, want ErrPartialUpload", err)
	}
	if outcome.Status != StatusPartial {
		t.Errorf("status = %s, want partial", outcome.Status)
	}
	// Every discovered asset is missing from the store.
	if len(outcome.FailedKeys) == 0 {
		t.Error("FailedKeys should list all discovered assets")
	}
}

func TestRun_ArchiveFailureStillReportsStats(t *testing.T) {
	root := buildProject(t)
	// A directory squatting on the archive's output path makes os.Create
	// fail regardless of permissions.
	if err := os.Mkdir(filepath.Join(root, "com.example.app-1.0.0.tar.gz"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	resolver := &fakeResolver{creds: testCreds()}
	submitter := &fakeSubmitter{}
	uploader := &fakeUploader{}

	outcome, err := newTestPipeline(root, resolver, submitter, uploader).Run(context.Background())
	if err == nil {
		t.Fatal("expected archive failure")
	}
	if outcome.Status != StatusFailed {
		t.Errorf("status = %s, want failed", outcome.Status)
	}
	if outcome.Stats.AppID != "com.example.app" || outcome.Stats.Version != "1.0.0" {
		t.Errorf("stats must be snapshotted on the archive failure path, got %+v", outcome.Stats)
	}
	if submitter.calls != 0 || len(uploader.keys) != 0 {
		t.Error("no network side effects expected after a packaging failure")
	}
}

func TestRun_SubmittedBodyIncludesLocalesAndHash(t *testing.T) {
	root := buildProject(t)
	resolver := &fakeResolver{creds: testCreds()}
	submitter := &fakeSubmitter{}
	uploader := &fakeUploader{}

	outcome, err := newTestPipeline(root, resolver, submitter, uploader).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	var req types.PublishRequest
	if err := json.Unmarshal(submitter.body, &req); err != nil {
		t.Fatalf("submitted body not a publish request: %v", err)
	}
	if req.App.Descriptor.ID != "com.example.app" {
		t.Errorf("descriptor id = %q", req.App.Descriptor.ID)
	}
	if req.App.Archive.ContentHash != outcome.Archive.ContentHash {
		t.Error("submitted hash differs from archive result")
	}
	if req.App.Locales["en"] == nil || req.App.Locales["en"].Name != "Example" {
		t.Errorf("locales = %+v", req.App.Locales)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want Status
	}{
		{nil, StatusPublished},
		{&PartialError{FailedKeys: []string{"a.png"}}, StatusPartial},
		{&registry.RejectionError{Msg: "nope"}, StatusRejected},
		{fmt.Errorf("%w: refused", registry.ErrTransport), StatusSubmitFailed},
		{credential.ErrAborted, StatusAborted},
		{fmt.Errorf("boom"), StatusFailed},
	}
	for _, tc := range cases {
		if got := Classify(tc.err); got != tc.want {
			t.Errorf("Classify(%v) = %s, want %s", tc.err, got, tc.want)
		}
	}
}
