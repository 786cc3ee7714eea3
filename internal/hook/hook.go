// Package hook runs a user-supplied shell command for each alive
// discovery, feeding it a JSON payload on stdin.
package hook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/envhound/envhound/internal/output"
)

// discoveryJSON is the payload sent to the hook command via stdin.
type discoveryJSON struct {
	URL    string `json:"url"`
	Status int    `json:"status"`
	Title  string `json:"title,omitempty"`
}

// Runner executes a shell command per discovery. Command output and
// errors are reported through the logger so they interleave cleanly with
// the progress line.
type Runner struct {
	cmd string
	log *output.Logger
}

// NewRunner creates a hook runner. cmd is the shell command to execute;
// {url}, {status}, and {title} placeholders are expanded.
func NewRunner(cmd string, log *output.Logger) *Runner {
	return &Runner{cmd: cmd, log: log}
}

// Run executes the hook with the discovery as JSON on stdin. The command
// runs with a 30-second timeout. Errors are logged but never halt the run.
func (r *Runner) Run(url string, status int, title string) {
	payload := discoveryJSON{URL: url, Status: status, Title: title}
	data, err := json.Marshal(payload)
	if err != nil {
		r.log.Hook("marshal error: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	expanded := r.cmd
	expanded = strings.ReplaceAll(expanded, "{url}", url)
	expanded = strings.ReplaceAll(expanded, "{status}", fmt.Sprintf("%d", status))
	expanded = strings.ReplaceAll(expanded, "{title}", title)

	shell, args := shellCommand()
	cmd := exec.CommandContext(ctx, shell, append(args, expanded)...)
	cmd.Stdin = bytes.NewReader(data)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		r.log.Hook("error: %v", err)
	}
	if s := strings.TrimRight(stderr.String(), "\n"); s != "" {
		r.log.Hook("%s", s)
	}
	if s := strings.TrimRight(string(out), "\n"); s != "" {
		r.log.Hook("%s", s)
	}
}

func shellCommand() (string, []string) {
	if runtime.GOOS == "windows" {
		return "cmd", []string{"/C"}
	}
	return "sh", []string{"-c"}
}
