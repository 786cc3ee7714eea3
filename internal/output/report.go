package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Record is one alive entry destined for the final report.
type Record struct {
	Status int
	Title  string
}

// Rotate moves a pre-existing output file aside to a ".bak" sibling and
// creates an empty file in its place, so tailing tools see it exist from
// the start of the run. A single backup generation is kept.
func Rotate(path string) error {
	if _, err := os.Stat(path); err == nil {
		bak := bakPath(path)
		if err := os.Rename(path, bak); err != nil {
			return fmt.Errorf("rotating %s: %w", path, err)
		}
	}
	if err := os.WriteFile(path, nil, 0644); err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	return nil
}

func bakPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".bak"
}

// RenderReport produces the canonical final report lines: entries sorted
// by URL, "{url} [{status}] {title}" with title newlines collapsed to
// spaces, identical rendered lines deduplicated in first-seen order.
func RenderReport(alive map[string]Record) []string {
	urls := make([]string, 0, len(alive))
	for u := range alive {
		urls = append(urls, u)
	}
	sort.Strings(urls)

	seen := make(map[string]struct{}, len(urls))
	var lines []string
	for _, u := range urls {
		rec := alive[u]
		title := strings.TrimSpace(strings.ReplaceAll(rec.Title, "\n", " "))
		line := fmt.Sprintf("%s [%d] %s", u, rec.Status, title)
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}
		lines = append(lines, line)
	}
	return lines
}

// WriteReport replaces the output file with the final report, overwriting
// whatever side-channel lines accumulated during the run. format selects
// "text" (canonical) or "json".
func WriteReport(path string, alive map[string]Record, format string) (int, error) {
	switch format {
	case "json":
		return writeJSONReport(path, alive)
	default:
		lines := RenderReport(alive)
		if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0644); err != nil {
			return 0, fmt.Errorf("writing report %s: %w", path, err)
		}
		return len(lines), nil
	}
}

type jsonEntry struct {
	URL    string `json:"url"`
	Status int    `json:"status"`
	Title  string `json:"title,omitempty"`
}

func writeJSONReport(path string, alive map[string]Record) (int, error) {
	urls := make([]string, 0, len(alive))
	for u := range alive {
		urls = append(urls, u)
	}
	sort.Strings(urls)

	entries := make([]jsonEntry, 0, len(urls))
	for _, u := range urls {
		rec := alive[u]
		entries = append(entries, jsonEntry{
			URL:    u,
			Status: rec.Status,
			Title:  strings.TrimSpace(strings.ReplaceAll(rec.Title, "\n", " ")),
		})
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("writing report %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return 0, fmt.Errorf("encoding report: %w", err)
	}
	return len(entries), nil
}
