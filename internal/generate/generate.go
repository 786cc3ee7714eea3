// Package generate produces the seed candidate URLs for a run: likely
// environment subdomains crossed with common API paths and both schemes.
package generate

import (
	"net/url"
	"strings"
)

var roleLabels = []string{"api", "app", "admin", "panel"}

// NormalizeHost reduces a raw input line (bare host, host:port, or full URL
// with credentials) to a bare hostname. Returns "" for unusable input.
func NormalizeHost(line string) string {
	line = strings.TrimSpace(line)
	if line == "" {
		return ""
	}
	raw := line
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := u.Host
	if host == "" {
		host = u.Path
	}
	if at := strings.Index(host, "@"); at >= 0 {
		host = host[at+1:]
	}
	if colon := strings.Index(host, ":"); colon >= 0 {
		host = host[:colon]
	}
	return host
}

// Subdomains permutes a host with environment prefixes and role labels.
// Hosts with fewer than two dot-separated labels pass through unchanged.
func Subdomains(host string, envPrefixes []string) []string {
	parts := strings.Split(host, ".")
	if len(parts) < 2 {
		return []string{host}
	}
	root := strings.Join(parts[len(parts)-2:], ".")
	left := parts[:len(parts)-2]
	baseLabel := parts[0]

	candidates := newOrderedSet()
	candidates.add(host)
	for _, env := range envPrefixes {
		candidates.add(env + "." + host)
		candidates.add(env + "-" + baseLabel + "." + root)
		candidates.add(baseLabel + "-" + env + "." + root)
		if len(left) > 0 {
			candidates.add(env + "." + strings.Join(left, ".") + "." + root)
			for _, lbl := range roleLabels {
				candidates.add(env + "-" + lbl + "." + host)
				candidates.add(lbl + "-" + env + "." + host)
				candidates.add(lbl + "." + env + "." + host)
			}
		}
	}
	if !strings.Contains(host, "api") {
		candidates.add("api." + host)
		for _, env := range envPrefixes {
			candidates.add("api-" + env + "." + host)
			candidates.add(env + "-api." + host)
		}
	}
	return candidates.items
}

// PathVariants expands the base path vocabulary with single-page-app
// hash-fragment variants. The empty/root path expands to the bare-origin
// fragment forms. Order is deterministic: insertion order with first-seen
// duplicates removed.
func PathVariants(paths []string) []string {
	out := newOrderedSet()
	for _, p := range paths {
		if p == "" || p == "/" {
			out.add("")
			out.add("#")
			out.add("/#")
			out.add("/#/")
			continue
		}
		out.add(p)
		out.add("#/" + p)
		out.add("/#/" + p)
		out.add(p + "#")
		out.add(p + "#/")
	}
	return out.items
}

// ConstructURL assembles scheme, host, and path into a candidate URL.
// Empty or "/" paths yield a bare origin. Fragment-leading paths keep a
// leading slash before "#" only when already present; everything else is
// joined with exactly one slash.
func ConstructURL(scheme, host, path string) string {
	if path == "" || path == "/" {
		return scheme + "://" + host
	}
	if strings.HasPrefix(path, "#") {
		return scheme + "://" + host + "/" + path
	}
	if strings.HasPrefix(path, "/#") {
		return scheme + "://" + host + path
	}
	return scheme + "://" + host + "/" + strings.TrimLeft(path, "/")
}

// Candidates produces the full seed set for one normalized host:
// {subdomain permutations} x {http, https} x {path variants}.
func Candidates(host string, envPrefixes, commonPaths []string) []string {
	paths := PathVariants(commonPaths)
	out := newOrderedSet()
	for _, sub := range Subdomains(host, envPrefixes) {
		for _, scheme := range []string{"http", "https"} {
			for _, p := range paths {
				out.add(ConstructURL(scheme, sub, p))
			}
		}
	}
	return out.items
}

// orderedSet keeps first-seen insertion order while deduplicating.
type orderedSet struct {
	seen  map[string]struct{}
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{})}
}

func (s *orderedSet) add(item string) {
	if _, ok := s.seen[item]; ok {
		return
	}
	s.seen[item] = struct{}{}
	s.items = append(s.items, item)
}
