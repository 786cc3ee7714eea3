// Package runner wires a full enumeration run: input parsing, output
// rotation, engine setup, and the final report write.
package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/envhound/envhound/internal/config"
	"github.com/envhound/envhound/internal/engine"
	"github.com/envhound/envhound/internal/netutil"
	"github.com/envhound/envhound/internal/output"
	"github.com/envhound/envhound/internal/scanner"
	"github.com/envhound/envhound/internal/wordlist"
)

// DefaultOutputName is the report file created next to the input file
// when no explicit output path is given.
const DefaultOutputName = "env-enum.txt"

// Run executes one enumeration end to end. A cancelled context is treated
// as a user interrupt: the run stops cleanly and the final report is still
// written from whatever was recorded.
func Run(ctx context.Context, opts *config.Options) error {
	hosts, err := readHostLines(opts.InputFile)
	if err != nil {
		return err
	}

	lists, err := wordlist.Load(opts.EnvWordlist, opts.PathWordlist, opts.ParamWordlist)
	if err != nil {
		return err
	}

	outputPath := opts.OutputFile
	if outputPath == "" {
		outputPath = filepath.Join(filepath.Dir(opts.InputFile), DefaultOutputName)
	}
	if err := output.Rotate(outputPath); err != nil {
		return err
	}

	log, err := output.NewLogger(opts.Mode, outputPath, opts.NoColor)
	if err != nil {
		return err
	}
	defer log.Close()

	// Exec mode downgrades to regex extraction when the sandbox cannot
	// evaluate anything, rather than failing the run.
	if opts.JSMode == config.JSModeExec && !scanner.SandboxAvailable() {
		log.Warn("JS sandbox unavailable, falling back to regex extraction")
		opts.JSMode = config.JSModeRegex
	}

	var seedURLs []string
	if opts.CIDRTargets != "" {
		seedURLs, err = netutil.ExpandTargets(opts.CIDRTargets, opts.Ports)
		if err != nil {
			return fmt.Errorf("expanding CIDR: %w", err)
		}
	}

	eng, err := engine.New(opts, lists, log)
	if err != nil {
		return err
	}

	progress := output.NewProgress(opts.Mode == config.ModeDebug || opts.Mode == config.ModeVerbose)
	eng.SetProgress(progress)
	log.SetProgress(progress)

	pauser, cleanup := startStdinToggle(opts.Mode == config.ModeQuiet)
	defer cleanup()
	if pauser != nil {
		eng.SetPauser(pauser)
	}

	seeded := eng.Seed(hosts, seedURLs)
	log.Info("seeded %d candidate URLs from %d input lines", seeded, len(hosts))

	progress.Start()
	runErr := eng.Run(ctx)
	progress.Stop()

	interrupted := errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded)
	if runErr != nil && !interrupted {
		return runErr
	}

	// The final write replaces the side-channel log accumulated during
	// the run; partial results from an interrupt are flushed, not lost.
	alive := make(map[string]output.Record)
	for url, rec := range eng.Ledger().Alive() {
		alive[url] = output.Record{Status: rec.Status, Title: rec.Title}
	}
	log.Close()
	count, err := output.WriteReport(outputPath, alive, opts.OutputFormat)
	if err != nil {
		return err
	}

	if opts.Mode != config.ModeQuiet {
		if interrupted {
			fmt.Fprintln(os.Stderr, "[INTERRUPT] aborted by user")
		}
		fmt.Fprintf(os.Stderr, "[DONE] Saved %d discoveries to %s\n", count, outputPath)
	}
	return nil
}

// readHostLines loads the seed host list, skipping blank lines. A missing
// file is the one fatal configuration error of a run.
func readHostLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening input file: %w", err)
	}
	defer f.Close()

	var hosts []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if len(line) > 0 {
			hosts = append(hosts, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading input file: %w", err)
	}
	return hosts, nil
}
