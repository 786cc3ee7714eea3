package config

import (
	"net/http"
	"time"
)

// Verbosity modes. They gate what reaches the console; discoveries are
// always appended to the output file regardless of mode.
const (
	ModeDebug     = "debug"
	ModeVerbose   = "verbose"
	ModeDiscovery = "discovery"
	ModeQuiet     = "quiet"
)

// JS extraction modes.
const (
	JSModeRegex = "regex"
	JSModeExec  = "exec"
)

// Options holds all configuration for an enumeration run.
type Options struct {
	// Target
	InputFile   string
	CIDRTargets string
	Ports       string

	// Wordlists (empty = embedded defaults)
	EnvWordlist   string
	PathWordlist  string
	ParamWordlist string

	// Behavior
	Mode        string // debug, verbose, discovery, quiet
	JSMode      string // regex, exec
	Concurrency int    // global in-flight fetch limit
	Timeout     time.Duration
	MaxJSFetch  int // JS fetches launched per page

	// Output
	OutputFile   string // empty = env-enum.txt next to the input file
	OutputFormat string // "text", "json"
	NoColor      bool

	// HTTP
	Headers   map[string]string
	UserAgent string
	Proxy     string

	// Hooks
	OnDiscoveryCmd string

	// Transport overrides the HTTP transport when non-nil. Used by tests
	// to point fetches at fixture servers.
	Transport http.RoundTripper
}

// Defaults applied where the CLI leaves fields zero.
const (
	DefaultConcurrency = 80
	DefaultTimeout     = 10 * time.Second
	DefaultMaxJSFetch  = 25
)

// Workers derives the worker pool size from the concurrency limit. Workers
// only hold the fetch gate for the duration of one request, so far fewer
// pullers than permits are needed.
func Workers(concurrency int) int {
	n := concurrency / 8
	if n < 2 {
		n = 2
	}
	return n
}
