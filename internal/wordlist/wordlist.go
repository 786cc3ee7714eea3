// Package wordlist provides the curated vocabularies driving candidate
// generation: environment prefixes, common API paths, and parameter hints.
// Each has an embedded default and can be overridden from a file.
package wordlist

import (
	"fmt"
	"os"
	"strings"
)

// Lists bundles the three vocabularies consumed by generation and scanning.
type Lists struct {
	EnvPrefixes []string
	CommonPaths []string
	ParamHints  []string
}

var defaultEnvPrefixes = func() []string {
	prefixes := []string{
		"dev", "stage", "staging", "uat", "qa", "test",
		"beta", "preprod", "preview", "internal", "canary", "sandbox",
	}
	for i := 1; i <= 10; i++ {
		prefixes = append(prefixes, fmt.Sprintf("v%d", i))
	}
	return prefixes
}()

var defaultCommonPaths = []string{
	"", "api", "api/v1", "api/v2", "v1", "v2", "v3",
	"swagger", "swagger.json", "swagger-ui", "api/docs",
	"openapi", "openapi.json", "docs", "doc",
	"graphql", "graphiql", "health", "status", "debug",
	"admin", "dashboard", "portal", "api-docs",
}

var defaultParamHints = []string{
	"id", "page", "limit", "offset", "token", "auth", "user", "q", "query", "search",
}

// Load builds the full vocabulary set. Empty paths select the embedded
// defaults; non-empty paths are read as one entry per line, with blank
// lines and #-comments skipped and duplicates removed in first-seen order.
func Load(envPath, pathPath, paramPath string) (*Lists, error) {
	env, err := loadOrDefault(envPath, defaultEnvPrefixes)
	if err != nil {
		return nil, err
	}
	paths, err := loadOrDefault(pathPath, defaultCommonPaths)
	if err != nil {
		return nil, err
	}
	params, err := loadOrDefault(paramPath, defaultParamHints)
	if err != nil {
		return nil, err
	}
	return &Lists{EnvPrefixes: env, CommonPaths: paths, ParamHints: params}, nil
}

func loadOrDefault(path string, fallback []string) ([]string, error) {
	if path == "" {
		out := make([]string, len(fallback))
		copy(out, fallback)
		return out, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading wordlist %s: %w", path, err)
	}
	lines := strings.Split(string(data), "\n")
	seen := make(map[string]struct{}, len(lines))
	var result []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, ok := seen[line]; !ok {
			seen[line] = struct{}{}
			result = append(result, line)
		}
	}
	return result, nil
}
