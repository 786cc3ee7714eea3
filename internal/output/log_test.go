package output

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/envhound/envhound/internal/config"
)

func TestDiscoverAppendsToFileInEveryMode(t *testing.T) {
	for _, mode := range []string{config.ModeDebug, config.ModeVerbose, config.ModeDiscovery, config.ModeQuiet} {
		dir := t.TempDir()
		path := filepath.Join(dir, "out.txt")

		log, err := NewLogger(mode, path, true)
		if err != nil {
			t.Fatal(err)
		}
		log.Discover("DISCOVERY", "https://dev.example.com [200] Home")
		log.Discover("PARAM", "token")
		if err := log.Close(); err != nil {
			t.Fatal(err)
		}

		data, _ := os.ReadFile(path)
		want := "[DISCOVERY] https://dev.example.com [200] Home\n[PARAM] token\n"
		if string(data) != want {
			t.Errorf("mode %s: file = %q, want %q", mode, data, want)
		}
	}
}

func TestDiscoverFileNotDeduplicated(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	log, err := NewLogger(config.ModeQuiet, path, true)
	if err != nil {
		t.Fatal(err)
	}
	log.Discover("PARAM", "token")
	log.Discover("PARAM", "token")
	log.Close()

	data, _ := os.ReadFile(path)
	if got := strings.Count(string(data), "[PARAM] token"); got != 2 {
		t.Errorf("file lines = %d, want 2; dedup applies to the console only", got)
	}
}

func TestLoggerWithoutFile(t *testing.T) {
	log, err := NewLogger(config.ModeQuiet, "", true)
	if err != nil {
		t.Fatal(err)
	}
	log.Discover("DISCOVERY", "https://example.com [200]")
	log.Info("ignored in quiet")
	log.Warn("ignored in quiet")
	log.Debug("ignored in quiet")
	if err := log.Close(); err != nil {
		t.Errorf("Close without file = %v", err)
	}
}

func TestCloseIdempotent(t *testing.T) {
	dir := t.TempDir()
	log, err := NewLogger(config.ModeQuiet, filepath.Join(dir, "out.txt"), true)
	if err != nil {
		t.Fatal(err)
	}
	if err := log.Close(); err != nil {
		t.Fatal(err)
	}
	if err := log.Close(); err != nil {
		t.Errorf("second Close = %v, want nil", err)
	}
}

func TestLoggerAppendsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	first, err := NewLogger(config.ModeQuiet, path, true)
	if err != nil {
		t.Fatal(err)
	}
	first.Discover("DISCOVERY", "one")
	first.Close()

	second, err := NewLogger(config.ModeQuiet, path, true)
	if err != nil {
		t.Fatal(err)
	}
	second.Discover("DISCOVERY", "two")
	second.Close()

	data, _ := os.ReadFile(path)
	if string(data) != "[DISCOVERY] one\n[DISCOVERY] two\n" {
		t.Errorf("file = %q", data)
	}
}
