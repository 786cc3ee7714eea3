package engine

import "sync"

// AliveRecord is one row of the final report.
type AliveRecord struct {
	Status int
	Title  string
}

// Ledger is the process-wide record of what has already been reported.
// Four independent report-once gates keep the side-channel log free of
// duplicates, and the alive map feeds the final report. All methods are
// safe for concurrent callers; check-and-insert is atomic, so two workers
// racing on the same item can never both see it as new.
type Ledger struct {
	mu          sync.Mutex
	endpoints   map[string]struct{}
	params      map[string]struct{}
	jsEndpoints map[string]struct{}
	apiDocs     map[string]struct{}
	alive       map[string]AliveRecord
}

func NewLedger() *Ledger {
	return &Ledger{
		endpoints:   make(map[string]struct{}),
		params:      make(map[string]struct{}),
		jsEndpoints: make(map[string]struct{}),
		apiDocs:     make(map[string]struct{}),
		alive:       make(map[string]AliveRecord),
	}
}

// RecordAlive inserts url into the alive map unless already present.
// First success wins; returns whether this call was the first.
func (l *Ledger) RecordAlive(url string, status int, title string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.endpoints[url]; ok {
		return false
	}
	l.endpoints[url] = struct{}{}
	l.alive[url] = AliveRecord{Status: status, Title: title}
	return true
}

// ReportParam marks a parameter name as reported. Returns true on first call.
func (l *Ledger) ReportParam(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return insertOnce(l.params, name)
}

// ReportJSEndpoint marks a JS-discovered endpoint as reported.
func (l *Ledger) ReportJSEndpoint(endpoint string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return insertOnce(l.jsEndpoints, endpoint)
}

// ReportAPIDoc marks an API-documentation URL as reported.
func (l *Ledger) ReportAPIDoc(url string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return insertOnce(l.apiDocs, url)
}

// Alive returns a copy of the alive map.
func (l *Ledger) Alive() map[string]AliveRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]AliveRecord, len(l.alive))
	for k, v := range l.alive {
		out[k] = v
	}
	return out
}

// AliveCount returns the number of recorded alive URLs.
func (l *Ledger) AliveCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.alive)
}

func insertOnce(set map[string]struct{}, item string) bool {
	if _, ok := set[item]; ok {
		return false
	}
	set[item] = struct{}{}
	return true
}
