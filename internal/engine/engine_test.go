package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/envhound/envhound/internal/config"
	"github.com/envhound/envhound/internal/output"
	"github.com/envhound/envhound/internal/wordlist"
)

// fixtureTransport serves canned responses keyed by full request URL.
// Unrouted URLs fail like a refused connection; URLs in block hang until
// the request context is cancelled.
type fixtureTransport struct {
	mu    sync.Mutex
	pages map[string]fixturePage
	block map[string]struct{}
}

type fixturePage struct {
	status int
	body   string
	ctype  string
}

func (t *fixtureTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	u := req.URL.String()

	t.mu.Lock()
	_, blocked := t.block[u]
	pg, ok := t.pages[u]
	t.mu.Unlock()

	if blocked {
		<-req.Context().Done()
		return nil, req.Context().Err()
	}
	if !ok {
		return nil, fmt.Errorf("connect %s: connection refused", u)
	}

	h := make(http.Header)
	if pg.ctype != "" {
		h.Set("Content-Type", pg.ctype)
	}
	return &http.Response{
		StatusCode: pg.status,
		Header:     h,
		Body:       io.NopCloser(strings.NewReader(pg.body)),
		Request:    req,
	}, nil
}

func testEngine(t *testing.T, ft *fixtureTransport, concurrency int) *Engine {
	t.Helper()
	opts := &config.Options{
		Mode:        config.ModeQuiet,
		JSMode:      config.JSModeRegex,
		Concurrency: concurrency,
		Timeout:     2 * time.Second,
		Transport:   ft,
	}
	log, err := output.NewLogger(config.ModeQuiet, "", true)
	if err != nil {
		t.Fatal(err)
	}
	eng, err := New(opts, &wordlist.Lists{}, log)
	if err != nil {
		t.Fatal(err)
	}
	return eng
}

func TestRunEmptyQueue(t *testing.T) {
	eng := testEngine(t, &fixtureTransport{}, 8)
	if err := eng.Run(context.Background()); err != nil {
		t.Errorf("Run on empty queue = %v, want nil", err)
	}
}

func TestEnqueueDedup(t *testing.T) {
	eng := testEngine(t, &fixtureTransport{}, 8)
	if !eng.Enqueue("https://dev.example.com") {
		t.Fatal("first enqueue rejected")
	}
	if eng.Enqueue("https://dev.example.com") {
		t.Error("duplicate enqueue accepted")
	}
	if eng.Enqueue("  ") {
		t.Error("blank enqueue accepted")
	}
}

func TestRunAliveStatusBoundary(t *testing.T) {
	ft := &fixtureTransport{pages: map[string]fixturePage{
		"https://a.example.com": {status: 200, body: "<title>A</title>"},
		"https://b.example.com": {status: 499, body: ""},
		"https://c.example.com": {status: 500, body: "<title>Err</title>"},
	}}
	eng := testEngine(t, ft, 16)
	eng.Enqueue("https://a.example.com")
	eng.Enqueue("https://b.example.com")
	eng.Enqueue("https://c.example.com")
	eng.Enqueue("https://gone.example.com")

	if err := eng.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	alive := eng.Ledger().Alive()
	if rec, ok := alive["https://a.example.com"]; !ok || rec.Status != 200 || rec.Title != "A" {
		t.Errorf("a.example.com record = %+v, %v", rec, ok)
	}
	if rec, ok := alive["https://b.example.com"]; !ok || rec.Status != 499 {
		t.Errorf("499 should count as alive, got %+v, %v", rec, ok)
	}
	if _, ok := alive["https://c.example.com"]; ok {
		t.Error("500 must not be recorded alive")
	}
	if _, ok := alive["https://gone.example.com"]; ok {
		t.Error("unreachable host must not be recorded alive")
	}
}

func TestRunSchemelessCandidateExpansion(t *testing.T) {
	ft := &fixtureTransport{pages: map[string]fixturePage{
		"http://dev.example.com": {status: 200, body: "<title>Dev</title>"},
	}}
	eng := testEngine(t, ft, 8)
	eng.Enqueue("dev.example.com")

	if err := eng.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	if _, ok := eng.Ledger().Alive()["http://dev.example.com"]; !ok {
		t.Error("http variant of bare host not crawled")
	}
	if eng.Enqueue("https://dev.example.com") {
		t.Error("https variant was never enqueued during the run")
	}
}

func TestRunJSExtractionPipeline(t *testing.T) {
	page := `<html><head><title>Home</title></head><body><script src="/app.js"></script></body></html>`
	app := `fetch("/api/v1/users?token=abc");`

	ft := &fixtureTransport{pages: map[string]fixturePage{
		"https://example.com":        {status: 200, body: page, ctype: "text/html"},
		"https://example.com/app.js": {status: 200, body: app, ctype: "application/javascript"},
	}}
	eng := testEngine(t, ft, 16)
	eng.Enqueue("https://example.com")

	if err := eng.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	rec, ok := eng.Ledger().Alive()["https://example.com"]
	if !ok || rec.Status != 200 || rec.Title != "Home" {
		t.Fatalf("page record = %+v, %v", rec, ok)
	}

	// The gates were consumed during the run, so a fresh report attempt
	// must lose.
	if eng.Ledger().ReportJSEndpoint("https://example.com/api/v1/users?token=abc") {
		t.Error("JS endpoint was not reported during the run")
	}
	if eng.Ledger().ReportParam("token") {
		t.Error("parameter was not reported during the run")
	}

	// The fuzz candidate built from the discovered endpoint must already
	// be in the seen set.
	if eng.Enqueue("https://example.com/api/v1/users?token=FUZZ") {
		t.Error("fuzz candidate was never enqueued during the run")
	}
}

func TestRunSeedCompletesAcrossWorkerCounts(t *testing.T) {
	lists := &wordlist.Lists{
		EnvPrefixes: []string{"dev"},
		CommonPaths: []string{""},
	}
	for _, concurrency := range []int{8, 80, 160} {
		ft := &fixtureTransport{pages: map[string]fixturePage{
			"https://dev.example.com": {status: 200, body: "<title>Dev</title>"},
		}}
		opts := &config.Options{
			Mode:        config.ModeQuiet,
			JSMode:      config.JSModeRegex,
			Concurrency: concurrency,
			Timeout:     time.Second,
			Transport:   ft,
		}
		log, err := output.NewLogger(config.ModeQuiet, "", true)
		if err != nil {
			t.Fatal(err)
		}
		eng, err := New(opts, lists, log)
		if err != nil {
			t.Fatal(err)
		}

		if n := eng.Seed([]string{"example.com", "", "example.com"}, nil); n == 0 {
			t.Fatal("seeding produced no candidates")
		}

		done := make(chan error, 1)
		go func() { done <- eng.Run(context.Background()) }()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("concurrency %d: Run = %v", concurrency, err)
			}
		case <-time.After(10 * time.Second):
			t.Fatalf("concurrency %d: run did not drain", concurrency)
		}
	}
}

func TestNewAppliesDefaultsOnce(t *testing.T) {
	opts := &config.Options{
		Mode:      config.ModeQuiet,
		JSMode:    config.JSModeRegex,
		Transport: &fixtureTransport{},
	}
	log, err := output.NewLogger(config.ModeQuiet, "", true)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := New(opts, &wordlist.Lists{}, log); err != nil {
		t.Fatal(err)
	}

	// Worker count and fetch gate both derive from the normalized value.
	if opts.Concurrency != config.DefaultConcurrency {
		t.Errorf("Concurrency = %d, want %d", opts.Concurrency, config.DefaultConcurrency)
	}
	if opts.Timeout != config.DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", opts.Timeout, config.DefaultTimeout)
	}
}

func TestRunCancelWhilePaused(t *testing.T) {
	ft := &fixtureTransport{pages: map[string]fixturePage{
		"https://a.example.com": {status: 200, body: "<title>A</title>"},
	}}
	eng := testEngine(t, ft, 16)
	pauser := NewPauser()
	eng.SetPauser(pauser)
	eng.Enqueue("https://a.example.com")
	eng.Enqueue("https://b.example.com")

	pauser.Toggle()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- eng.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	// Workers are parked on the pause gate; cancellation must still
	// release them and let Run return.
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation while paused")
	}
}

func TestExtractTitle(t *testing.T) {
	cases := []struct {
		body string
		want string
	}{
		{"<html><head><title>Dev Portal</title></head></html>", "Dev Portal"},
		{"<TITLE>\n  Upper\n</TITLE>", "Upper"},
		{"<html><body>no title</body></html>", ""},
		{"", ""},
	}
	for _, c := range cases {
		if got := extractTitle([]byte(c.body)); got != c.want {
			t.Errorf("extractTitle(%q) = %q, want %q", c.body, got, c.want)
		}
	}
}

func TestParamBase(t *testing.T) {
	endpoints := []string{"/health", "/api/v1/users?token=abc"}
	got := paramBase("https://example.com/page", "token", endpoints)
	if got != "https://example.com/api/v1/users?token=abc" {
		t.Errorf("paramBase = %q", got)
	}

	// A parameter seen outside any endpoint falls back to the page URL.
	got = paramBase("https://example.com/page", "user_id", endpoints)
	if got != "https://example.com/page" {
		t.Errorf("fallback paramBase = %q", got)
	}
}

func TestRunCancellationKeepsPartialResults(t *testing.T) {
	ft := &fixtureTransport{
		pages: map[string]fixturePage{
			"https://fast.example.com": {status: 200, body: "<title>Fast</title>"},
		},
		block: map[string]struct{}{
			"https://slow.example.com": {},
		},
	}
	eng := testEngine(t, ft, 16)
	eng.Enqueue("https://fast.example.com")
	eng.Enqueue("https://slow.example.com")

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	err := eng.Run(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run = %v, want deadline exceeded", err)
	}

	if _, ok := eng.Ledger().Alive()["https://fast.example.com"]; !ok {
		t.Error("result recorded before the interrupt was lost")
	}
	if _, ok := eng.Ledger().Alive()["https://slow.example.com"]; ok {
		t.Error("hung fetch must not produce a record")
	}
}
