package hook

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/envhound/envhound/internal/config"
	"github.com/envhound/envhound/internal/output"
)

func skipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("test uses sh")
	}
}

func quietLogger(t *testing.T) *output.Logger {
	t.Helper()
	log, err := output.NewLogger(config.ModeQuiet, "", true)
	if err != nil {
		t.Fatal(err)
	}
	return log
}

func TestRunPlaceholderExpansion(t *testing.T) {
	skipWithoutShell(t)
	out := filepath.Join(t.TempDir(), "hook.txt")

	r := NewRunner("echo {url} {status} {title} > "+out, quietLogger(t))
	r.Run("https://dev.example.com", 200, "Home")

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("hook did not run: %v", err)
	}
	if string(data) != "https://dev.example.com 200 Home\n" {
		t.Errorf("hook output = %q", data)
	}
}

func TestRunJSONOnStdin(t *testing.T) {
	skipWithoutShell(t)
	out := filepath.Join(t.TempDir(), "payload.json")

	r := NewRunner("cat > "+out, quietLogger(t))
	r.Run("https://dev.example.com", 403, "Forbidden")

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("hook did not run: %v", err)
	}
	var payload struct {
		URL    string `json:"url"`
		Status int    `json:"status"`
		Title  string `json:"title"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("stdin payload is not JSON: %v (%q)", err, data)
	}
	if payload.URL != "https://dev.example.com" || payload.Status != 403 || payload.Title != "Forbidden" {
		t.Errorf("payload = %+v", payload)
	}
}

func TestRunFailureDoesNotPanic(t *testing.T) {
	skipWithoutShell(t)
	r := NewRunner("exit 3", quietLogger(t))
	r.Run("https://dev.example.com", 200, "")
}

// captureStderr redirects os.Stderr for the duration of fn and returns
// what was written.
func captureStderr(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stderr
	rd, wr, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stderr = wr
	fn()
	wr.Close()
	os.Stderr = old
	data, err := io.ReadAll(rd)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestRunOutputRoutedThroughLogger(t *testing.T) {
	skipWithoutShell(t)

	log, err := output.NewLogger(config.ModeDiscovery, "", true)
	if err != nil {
		t.Fatal(err)
	}
	got := captureStderr(t, func() {
		r := NewRunner("echo hello from hook", log)
		r.Run("https://dev.example.com", 200, "Home")
	})
	if !strings.Contains(got, "[hook] hello from hook") {
		t.Errorf("stderr = %q, want a [hook] line", got)
	}

	// Quiet mode suppresses hook output entirely.
	got = captureStderr(t, func() {
		r := NewRunner("echo hello from hook", quietLogger(t))
		r.Run("https://dev.example.com", 200, "Home")
	})
	if strings.Contains(got, "hook") {
		t.Errorf("quiet stderr = %q, want nothing", got)
	}
}
