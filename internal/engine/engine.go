// Package engine drives the crawl: it owns the work queue, the seen set,
// the global fetch gate, and the worker pool that turns candidate URLs
// into recorded discoveries until the queue drains.
package engine

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/envhound/envhound/internal/config"
	"github.com/envhound/envhound/internal/generate"
	"github.com/envhound/envhound/internal/hook"
	"github.com/envhound/envhound/internal/output"
	"github.com/envhound/envhound/internal/scanner"
	"github.com/envhound/envhound/internal/wordlist"
)

var titleRe = regexp.MustCompile(`(?is)<title>(.*?)</title>`)

// Engine is the crawl core. Construct with New, seed with Seed, then Run
// until the queue drains or the context is cancelled. The ledger's
// contents survive cancellation; whatever was recorded before the
// interrupt feeds the final report.
type Engine struct {
	opts    *config.Options
	lists   *wordlist.Lists
	log     *output.Logger
	ledger  *Ledger
	scan    *scanner.Scanner
	fetcher *Fetcher

	q    *workQueue
	mu   sync.Mutex // guards seen
	seen map[string]struct{}

	maxJSFetch int
	pauser     *Pauser
	hookRunner *hook.Runner
	progress   *output.Progress
}

// New wires an engine from run options. The dynamic evaluator is attached
// only in exec JS mode; regex mode runs with the no-op evaluator.
func New(opts *config.Options, lists *wordlist.Lists, log *output.Logger) (*Engine, error) {
	// Defaults are applied here once; the worker count and the fetch
	// gate must derive from the same concurrency value.
	if opts.Concurrency <= 0 {
		opts.Concurrency = config.DefaultConcurrency
	}
	if opts.Timeout <= 0 {
		opts.Timeout = config.DefaultTimeout
	}

	fetcher, err := NewFetcher(opts)
	if err != nil {
		return nil, err
	}

	var eval scanner.Evaluator
	if opts.JSMode == config.JSModeExec {
		eval = scanner.NewGojaEvaluator()
	}

	maxJS := opts.MaxJSFetch
	if maxJS <= 0 {
		maxJS = config.DefaultMaxJSFetch
	}

	e := &Engine{
		opts:       opts,
		lists:      lists,
		log:        log,
		ledger:     NewLedger(),
		scan:       scanner.New(eval, lists.ParamHints),
		fetcher:    fetcher,
		q:          newWorkQueue(),
		seen:       make(map[string]struct{}),
		maxJSFetch: maxJS,
	}
	if opts.OnDiscoveryCmd != "" {
		e.hookRunner = hook.NewRunner(opts.OnDiscoveryCmd, log)
	}
	return e, nil
}

// Ledger exposes the run's discovery state for the final report.
func (e *Engine) Ledger() *Ledger { return e.ledger }

// SetPauser attaches a cooperative pause gate checked before each dequeue.
func (e *Engine) SetPauser(p *Pauser) { e.pauser = p }

// SetProgress attaches a progress tracker.
func (e *Engine) SetProgress(p *output.Progress) { e.progress = p }

// Enqueue adds a candidate URL unless it was ever enqueued before. The
// seen check and insert happen under one lock, so concurrent workers can
// never both enqueue the same URL.
func (e *Engine) Enqueue(url string) bool {
	url = strings.TrimSpace(url)
	if url == "" {
		return false
	}
	e.mu.Lock()
	if _, ok := e.seen[url]; ok {
		e.mu.Unlock()
		return false
	}
	e.seen[url] = struct{}{}
	e.mu.Unlock()

	e.q.push(url)
	if e.progress != nil {
		e.progress.AddQueued(1)
	}
	return true
}

// Seed fills the queue from raw input lines (host permutation x scheme x
// path) plus any pre-built seed URLs. Runs synchronously before workers
// start; only individual fetches are bounded by the concurrency gate.
func (e *Engine) Seed(hostLines []string, seedURLs []string) int {
	count := 0
	for _, line := range hostLines {
		host := generate.NormalizeHost(line)
		if host == "" {
			continue
		}
		for _, cand := range generate.Candidates(host, e.lists.EnvPrefixes, e.lists.CommonPaths) {
			if e.Enqueue(cand) {
				count++
			}
		}
	}
	for _, u := range seedURLs {
		if e.Enqueue(u) {
			count++
		}
	}
	return count
}

// Run starts the worker pool and blocks until every enqueued URL has been
// processed and acknowledged, or the context is cancelled. Shutdown is
// cooperative: a worker mid-fetch finishes or times out on its own.
func (e *Engine) Run(ctx context.Context) error {
	if e.q.empty() {
		return nil
	}

	workers := config.Workers(e.opts.Concurrency)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.worker(ctx)
		}()
	}

	select {
	case <-e.q.drained:
	case <-ctx.Done():
	}

	// Workers parked on a paused gate must be released before they can
	// observe the closed queue.
	if e.pauser != nil {
		e.pauser.Release()
	}
	e.q.close()
	wg.Wait()
	return ctx.Err()
}

func (e *Engine) worker(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if e.pauser != nil {
			e.pauser.Wait()
		}
		url, ok := e.q.pop()
		if !ok {
			return
		}
		e.process(ctx, url)
		e.q.taskDone()
	}
}

// process handles one dequeued URL: fetch, record, extract, re-enqueue.
func (e *Engine) process(ctx context.Context, url string) {
	if e.progress != nil {
		defer e.progress.Increment()
	}

	// Bare-host strings that slipped past generation get scheme variants
	// instead of a fetch.
	if !strings.HasPrefix(url, "http") {
		e.Enqueue("http://" + url)
		e.Enqueue("https://" + url)
		return
	}

	res, err := e.fetcher.Fetch(ctx, url)
	if err != nil {
		e.log.Warn("fetch %s: %v", url, err)
		if e.progress != nil {
			e.progress.IncrementErrors()
		}
		return
	}

	if res.Status < 500 {
		title := extractTitle(res.Body)
		if e.ledger.RecordAlive(url, res.Status, title) {
			e.log.Discover("DISCOVERY", fmt.Sprintf("%s [%d] %s", url, res.Status, title))
			if e.progress != nil {
				e.progress.IncrementAlive()
			}
			if e.hookRunner != nil {
				e.hookRunner.Run(url, res.Status, title)
			}
		}
	}

	for _, discovered := range e.extract(ctx, url, res) {
		e.Enqueue(discovered)
	}
}

// extract runs the full extraction pipeline for one fetched page and
// returns the candidate URLs to re-seed the queue.
func (e *Engine) extract(ctx context.Context, baseURL string, res *FetchResult) []string {
	body := scanner.ScanBody(baseURL, res.Body, res.Headers)

	discovered := make(map[string]struct{}, len(body.URLs))
	var ordered []string
	add := func(u string) {
		if u == "" {
			return
		}
		if _, ok := discovered[u]; ok {
			return
		}
		discovered[u] = struct{}{}
		ordered = append(ordered, u)
	}
	for _, u := range body.URLs {
		add(u)
	}

	endpoints, params := e.scanJSLinks(ctx, body.JSLinks)

	for _, ep := range endpoints {
		norm := scanner.NormalizeEndpoint(baseURL, ep)
		if norm == "" {
			continue
		}
		if e.ledger.ReportJSEndpoint(norm) {
			e.log.Discover("JS-ENDPOINT", norm)
			if !strings.HasPrefix(norm, scanner.SensitivePrefix) {
				add(norm)
			}
		}
	}
	for _, p := range params {
		if e.ledger.ReportParam(p) {
			e.log.Discover("PARAM", p)
			add(scanner.FuzzURL(paramBase(baseURL, p, endpoints), p))
		}
	}

	for _, u := range ordered {
		if scanner.IsAPIDoc(u) && e.ledger.ReportAPIDoc(u) {
			e.log.Discover("API-DOC", u)
		}
	}
	return ordered
}

// scanJSLinks fetches up to maxJSFetch script files concurrently and
// scans each body. Sub-fetches draw from the same global gate as page
// fetches. Individual failures are dropped.
func (e *Engine) scanJSLinks(ctx context.Context, links []string) (endpoints, params []string) {
	if len(links) == 0 {
		return nil, nil
	}
	if len(links) > e.maxJSFetch {
		links = links[:e.maxJSFetch]
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, link := range links {
		g.Go(func() error {
			res, err := e.fetcher.Fetch(gctx, link)
			if err != nil {
				e.log.Debug("fetch js %s -> %v", link, err)
				return nil
			}
			if res.Status != 200 {
				e.log.Debug("skip js %s: status %d", link, res.Status)
				return nil
			}
			jres := e.scan.ScanJS(res.Body)
			mu.Lock()
			endpoints = append(endpoints, jres.Endpoints...)
			params = append(params, jres.Params...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return endpoints, params
}

// paramBase picks the URL a fuzz candidate is synthesized against: the
// endpoint the parameter was actually seen on when one exists, otherwise
// the page it was discovered from.
func paramBase(baseURL, param string, endpoints []string) string {
	for _, ep := range endpoints {
		if !strings.Contains(ep, "?"+param+"=") && !strings.Contains(ep, "&"+param+"=") {
			continue
		}
		norm := scanner.NormalizeEndpoint(baseURL, ep)
		if norm != "" && !strings.HasPrefix(norm, scanner.SensitivePrefix) {
			return norm
		}
	}
	return baseURL
}

// extractTitle pulls the page title from raw bytes; undecodable or absent
// titles yield "".
func extractTitle(body []byte) string {
	m := titleRe.FindSubmatch(body)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(string(m[1]))
}
