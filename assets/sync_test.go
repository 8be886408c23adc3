package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// fakeUploader records uploads and fails for keys in failKeys.
type fakeUploader struct {
	mu       sync.Mutex
	uploads  map[string]string // key -> content type
	failKeys map[string]bool
	inFlight int
	maxSeen  int
}

func newFakeUploader(failKeys ...string) *fakeUploader {
	fail := make(map[string]bool, len(failKeys))
	for _, k := range failKeys {
		fail[k] = true
	}
	return &fakeUploader{uploads: make(map[string]string), failKeys: fail}
}

func (u *fakeUploader) Upload(_ context.Context, key, contentType string, body io.Reader) error {
	u.mu.Lock()
	u.inFlight++
	if u.inFlight > u.maxSeen {
		u.maxSeen = u.inFlight
	}
	u.mu.Unlock()

	_, _ = io.ReadAll(body)

	u.mu.Lock()
	defer u.mu.Unlock()
	u.inFlight--
	if u.failKeys[key] {
		return fmt.Errorf("store unavailable for %s", key)
	}
	u.uploads[key] = contentType
	return nil
}

func writeAssets(t *testing.T, names ...string) []Asset {
	t.Helper()
	root := t.TempDir()
	found := make([]Asset, 0, len(names))
	for _, name := range names {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte("asset-bytes"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		found = append(found, Asset{Path: path, Key: filepath.ToSlash(name)})
	}
	return found
}

func TestSync_AllSucceed(t *testing.T) {
	uploader := newFakeUploader()
	found := writeAssets(t, "icon.png", "docs/shot.webp", "app-1.0.0.tar.gz")

	outcomes := NewSyncer(uploader, "apps/com.example.app/", 0, nil).Sync(context.Background(), found)

	if len(outcomes) != 3 {
		t.Fatalf("len(outcomes) = %d, want 3", len(outcomes))
	}
	for _, o := range outcomes {
		if !o.Succeeded || o.Err != nil {
			t.Errorf("outcome %s: succeeded=%v err=%v", o.Key, o.Succeeded, o.Err)
		}
	}
	if ct := uploader.uploads["apps/com.example.app/icon.png"]; ct != "image/png" {
		t.Errorf("icon content type = %q", ct)
	}
	if ct := uploader.uploads["apps/com.example.app/app-1.0.0.tar.gz"]; ct != "application/gzip" {
		t.Errorf("archive content type = %q", ct)
	}
}

func TestSync_OneFailureRecordedSiblingsSettle(t *testing.T) {
	uploader := newFakeUploader("pre/docs/shot.webp")
	found := writeAssets(t, "icon.png", "docs/shot.webp", "banner.jpg")

	outcomes := NewSyncer(uploader, "pre/", 0, nil).Sync(context.Background(), found)

	var failed, succeeded []string
	for _, o := range outcomes {
		if o.Succeeded {
			succeeded = append(succeeded, o.Key)
		} else {
			failed = append(failed, o.Key)
		}
	}
	if len(failed) != 1 || failed[0] != "docs/shot.webp" {
		t.Errorf("failed = %v, want exactly [docs/shot.webp]", failed)
	}
	if len(succeeded) != 2 {
		t.Errorf("succeeded = %v, want 2 entries", succeeded)
	}
	for _, o := range outcomes {
		if !o.Succeeded && o.Err == nil {
			t.Errorf("failed outcome %s carries no error", o.Key)
		}
	}
}

func TestSync_OutcomesInDiscoveryOrder(t *testing.T) {
	uploader := newFakeUploader()
	found := writeAssets(t, "a.png", "b.png", "c.png")

	outcomes := NewSyncer(uploader, "", 0, nil).Sync(context.Background(), found)

	for i, o := range outcomes {
		if o.Key != found[i].Key {
			t.Errorf("outcomes[%d].Key = %q, want %q", i, o.Key, found[i].Key)
		}
	}
}

func TestSync_BoundedConcurrency(t *testing.T) {
	uploader := newFakeUploader()
	names := make([]string, 20)
	for i := range names {
		names[i] = fmt.Sprintf("img-%02d.png", i)
	}
	found := writeAssets(t, names...)

	NewSyncer(uploader, "", 2, nil).Sync(context.Background(), found)

	if uploader.maxSeen > 2 {
		t.Errorf("max in-flight uploads = %d, want <= 2", uploader.maxSeen)
	}
}

func TestSync_MissingFileRecordedAsFailure(t *testing.T) {
	uploader := newFakeUploader()
	found := writeAssets(t, "icon.png")
	found = append(found, Asset{Path: filepath.Join(t.TempDir(), "gone.png"), Key: "gone.png"})

	outcomes := NewSyncer(uploader, "", 0, nil).Sync(context.Background(), found)

	if !outcomes[0].Succeeded {
		t.Errorf("icon.png should succeed: %v", outcomes[0].Err)
	}
	if outcomes[1].Succeeded {
		t.Error("missing file should record a failure")
	}
	if outcomes[1].Err == nil || !errors.Is(outcomes[1].Err, os.ErrNotExist) {
		t.Errorf("err = %v, want os.ErrNotExist", outcomes[1].Err)
	}
}
