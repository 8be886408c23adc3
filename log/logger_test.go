package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLoggerCarriesReleaseContext(t *testing.T) {
	var buf bytes.Buffer
	logger := newLoggerWithWriter("com.example.app", "1.2.0", &buf)

	logger.Info("archived", map[string]any{"bytes": 42})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if entry["app_id"] != "com.example.app" || entry["version"] != "1.2.0" {
		t.Errorf("missing release context: %v", entry)
	}
	if entry["message"] != "archived" {
		t.Errorf("message = %v", entry["message"])
	}
}

func TestWithOutputRedirects(t *testing.T) {
	var first, second bytes.Buffer
	logger := newLoggerWithWriter("com.example.app", "1.2.0", &first)

	redirected := logger.WithOutput(&second)
	redirected.Sugar().Infof("synced %d assets", 3)

	if first.Len() != 0 {
		t.Errorf("original writer received output: %s", first.String())
	}
	if !strings.Contains(second.String(), "synced 3 assets") {
		t.Errorf("redirected output = %s", second.String())
	}
}
