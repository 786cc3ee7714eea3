// Package scanner turns fetched bodies into discoveries: candidate URLs,
// external JavaScript references, fuzzable parameter names, and
// API-documentation links. All functions are pure with respect to their
// inputs; only the optional dynamic-evaluation step carries state (an
// isolated JS runtime) and it is best-effort by contract.
package scanner

import (
	"bytes"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	absURLRe    = regexp.MustCompile(`(?i)https?://[^\s"'<>]+`)
	relURLRe    = regexp.MustCompile(`["'](/[^"']+?)["']`)
	jsonRefRe   = regexp.MustCompile(`[A-Za-z0-9_\-/]+\.json`)
	paramRe     = regexp.MustCompile(`[?&]([a-zA-Z0-9_\-]+)=`)
	apiHintRe   = regexp.MustCompile(`(?i)(?:/|\b)(api|v[0-9]+|graphql|openapi|swagger)(?:/|\b)`)
	sensitiveRe = regexp.MustCompile(`(?i)(token|secret|apikey|authorization|bearer|jwt)`)
)

var apiDocMarkers = []string{
	"/swagger", "swagger.json", "openapi", "openapi.json",
	"graphql", "graphiql", "/docs",
}

// SensitivePrefix tags JS hits that look like credentials rather than
// fetchable endpoints.
const SensitivePrefix = "SENSITIVE:"

// BodyResult is what one page body yields before any JS files are fetched.
type BodyResult struct {
	URLs    []string // resolved candidate URLs found in the body
	JSLinks []string // resolved external script references
}

// JSResult is what one fetched JavaScript body yields.
type JSResult struct {
	Endpoints []string // raw endpoint strings, SENSITIVE:-tagged ones included
	Params    []string // query parameter names
}

// Scanner holds the vocabularies and the optional dynamic evaluator.
type Scanner struct {
	eval     Evaluator
	hints    []string
	hintsRes []*regexp.Regexp
}

// New creates a Scanner. eval may be nil to disable dynamic evaluation;
// paramHints extend the query-parameter scan with known-interesting names.
func New(eval Evaluator, paramHints []string) *Scanner {
	if eval == nil {
		eval = NoEvaluator{}
	}
	s := &Scanner{eval: eval, hints: paramHints}
	for _, hint := range paramHints {
		s.hintsRes = append(s.hintsRes, regexp.MustCompile(`\b`+regexp.QuoteMeta(hint)+`\s*[=:]`))
	}
	return s
}

// ScanBody extracts candidate URLs and script references from a fetched
// page body. The HTML-specific passes run only when the body looks like
// HTML (script tag marker or an HTML content type).
func ScanBody(baseURL string, body []byte, headers http.Header) BodyResult {
	var res BodyResult
	urls := newStringSet()
	jsLinks := newStringSet()

	ctype := headers.Get("Content-Type")
	if looksLikeHTML(body, ctype) {
		html := string(body)
		for _, src := range scriptSources(html) {
			if resolved := resolveScriptSrc(baseURL, src); resolved != "" {
				jsLinks.add(resolved)
			}
		}
		for _, m := range relURLRe.FindAllStringSubmatch(html, -1) {
			if resolved := resolveRef(baseURL, m[1]); resolved != "" {
				urls.add(resolved)
			}
		}
	}

	for _, m := range absURLRe.FindAll(body, -1) {
		urls.add(string(m))
	}
	for _, m := range jsonRefRe.FindAll(body, -1) {
		ref := string(m)
		if !strings.HasPrefix(ref, "/") {
			ref = "/" + ref
		}
		if resolved := resolveRef(baseURL, ref); resolved != "" {
			urls.add(resolved)
		}
	}

	res.URLs = urls.items
	res.JSLinks = jsLinks.items
	return res
}

// ScanJS extracts endpoints and parameter names from a JavaScript body.
// Dynamic evaluation, when enabled, contributes extra endpoint strings
// and never fails the scan.
func (s *Scanner) ScanJS(body []byte) JSResult {
	endpoints := newStringSet()
	params := newStringSet()

	for _, m := range absURLRe.FindAll(body, -1) {
		endpoints.add(string(m))
	}
	for _, m := range relURLRe.FindAllSubmatch(body, -1) {
		endpoints.add(string(m[1]))
	}
	for _, m := range jsonRefRe.FindAll(body, -1) {
		endpoints.add(string(m))
	}
	for _, m := range apiHintRe.FindAllSubmatch(body, -1) {
		endpoints.add(string(m[1]))
	}
	for _, m := range sensitiveRe.FindAllSubmatch(body, -1) {
		endpoints.add(SensitivePrefix + string(m[1]))
	}
	for _, m := range paramRe.FindAllSubmatch(body, -1) {
		params.add(string(m[1]))
	}
	for i, re := range s.hintsRes {
		if re.Match(body) {
			params.add(s.hints[i])
		}
	}

	for _, extracted := range EvaluateStrings(s.eval, string(body)) {
		endpoints.add(extracted)
	}

	return JSResult{Endpoints: endpoints.items, Params: params.items}
}

// NormalizeEndpoint resolves a raw JS endpoint string against the page it
// was found on. SENSITIVE-tagged hits pass through untouched.
func NormalizeEndpoint(baseURL, endpoint string) string {
	if strings.HasPrefix(endpoint, SensitivePrefix) || strings.HasPrefix(endpoint, "http") {
		return endpoint
	}
	return resolveRef(baseURL, endpoint)
}

// IsAPIDoc reports whether a URL looks like API documentation.
func IsAPIDoc(u string) bool {
	low := strings.ToLower(u)
	for _, marker := range apiDocMarkers {
		if strings.Contains(low, marker) {
			return true
		}
	}
	return false
}

// FuzzURL synthesizes a probe URL for a discovered parameter name.
func FuzzURL(baseURL, param string) string {
	base, _, _ := strings.Cut(baseURL, "?")
	return base + "?" + param + "=FUZZ"
}

func looksLikeHTML(body []byte, contentType string) bool {
	return bytes.Contains(body, []byte("<script")) ||
		strings.Contains(contentType, "text/html") ||
		strings.Contains(contentType, "application/xhtml+xml")
}

// scriptSources pulls src attributes from script tags. goquery handles the
// well-formed case; a regex fallback covers bodies the parser rejects.
func scriptSources(html string) []string {
	srcs := newStringSet()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err == nil {
		doc.Find("script[src]").Each(func(_ int, sel *goquery.Selection) {
			if src, ok := sel.Attr("src"); ok && src != "" {
				srcs.add(src)
			}
		})
	}
	if err != nil || len(srcs.items) == 0 {
		for _, m := range scriptSrcRe.FindAllStringSubmatch(html, -1) {
			srcs.add(m[1])
		}
	}
	return srcs.items
}

var scriptSrcRe = regexp.MustCompile(`(?i)<script[^>]+src=["']([^"']+)["']`)

// resolveScriptSrc resolves a script reference: protocol-relative inherits
// the base scheme, absolute passes through, relative joins the base URL.
func resolveScriptSrc(baseURL, src string) string {
	if strings.HasPrefix(src, "//") {
		scheme, _, ok := strings.Cut(baseURL, ":")
		if !ok {
			return ""
		}
		return scheme + ":" + src
	}
	if strings.HasPrefix(src, "http") {
		return src
	}
	return resolveRef(baseURL, src)
}

// resolveRef joins ref against base the way a browser would. Returns ""
// when either side is unparseable.
func resolveRef(baseURL, ref string) string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return base.ResolveReference(r).String()
}

type stringSet struct {
	seen  map[string]struct{}
	items []string
}

func newStringSet() *stringSet {
	return &stringSet{seen: make(map[string]struct{})}
}

func (s *stringSet) add(item string) {
	if item == "" {
		return
	}
	if _, ok := s.seen[item]; ok {
		return
	}
	s.seen[item] = struct{}{}
	s.items = append(s.items, item)
}
