package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/envhound/envhound/internal/config"
	"github.com/envhound/envhound/internal/runner"
	"github.com/envhound/envhound/pkg/version"
)

var opts config.Options

type flagGroup struct {
	title string
	flags []string
}

var helpGroups = []flagGroup{
	{"TARGET", []string{"cidr", "ports"}},
	{"WORDLISTS", []string{"env-wordlist", "path-wordlist", "param-wordlist"}},
	{"EXTRACTION", []string{"jsmode", "max-js-fetch"}},
	{"RATE-LIMIT", []string{"concurrency", "timeout"}},
	{"HTTP", []string{"header", "user-agent", "proxy"}},
	{"OUTPUT", []string{"mode", "output", "format", "no-color", "on-discovery"}},
}

var rootCmd = &cobra.Command{
	Use:     "envhound <input-file> [flags]",
	Short:   "Environment subdomain & API surface enumerator with JS crawling",
	Version: version.Version,
	Long: `envhound permutes seed hosts into likely environment subdomains
(dev, staging, qa, ...), probes them across common API paths, and
recursively crawls what answers, following JavaScript files for
embedded endpoints, fuzzable parameters, and API documentation.`,
	Example: `  envhound hosts.txt
  envhound hosts.txt --mode verbose --concurrency 120
  envhound hosts.txt --jsmode exec
  envhound hosts.txt -o report.txt --format json
  envhound hosts.txt --cidr 10.0.0.0/24 --ports 80,443,8080
  envhound hosts.txt --on-discovery "notify-send {url}"`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		opts.InputFile = args[0]
		if _, err := os.Stat(opts.InputFile); err != nil {
			return fmt.Errorf("input file not found: %s", opts.InputFile)
		}
		switch opts.Mode {
		case config.ModeDebug, config.ModeVerbose, config.ModeDiscovery, config.ModeQuiet:
		default:
			return fmt.Errorf("--mode must be one of: debug, verbose, discovery, quiet")
		}
		switch opts.JSMode {
		case config.JSModeRegex, config.JSModeExec:
		default:
			return fmt.Errorf("--jsmode must be one of: regex, exec")
		}
		if opts.OutputFormat != "text" && opts.OutputFormat != "json" {
			return fmt.Errorf("--format must be one of: text, json")
		}
		if opts.Concurrency < 1 {
			return fmt.Errorf("--concurrency must be at least 1")
		}
		headers, _ := cmd.Flags().GetStringSlice("header")
		if len(headers) > 0 {
			opts.Headers = make(map[string]string, len(headers))
			for _, h := range headers {
				key, val, ok := strings.Cut(h, ":")
				if !ok {
					return fmt.Errorf("invalid header format %q, expected 'Key: Value'", h)
				}
				opts.Headers[strings.TrimSpace(key)] = strings.TrimSpace(val)
			}
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		return runner.Run(ctx, &opts)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	f := rootCmd.Flags()

	// Target
	f.StringVar(&opts.CIDRTargets, "cidr", "", "CIDR range to seed additionally (e.g. 10.0.0.0/24)")
	f.StringVar(&opts.Ports, "ports", "", "Ports for CIDR targets (comma-separated, e.g. 80,443,8080)")

	// Wordlists
	f.StringVar(&opts.EnvWordlist, "env-wordlist", "", "Environment prefix list (default: built-in)")
	f.StringVar(&opts.PathWordlist, "path-wordlist", "", "Common path list (default: built-in)")
	f.StringVar(&opts.ParamWordlist, "param-wordlist", "", "Parameter hint list (default: built-in)")

	// Extraction
	f.StringVar(&opts.JSMode, "jsmode", config.JSModeRegex, "JS extraction mode: regex or exec (sandboxed evaluation)")
	f.IntVar(&opts.MaxJSFetch, "max-js-fetch", config.DefaultMaxJSFetch, "Max JS files fetched per page")

	// Performance
	f.IntVarP(&opts.Concurrency, "concurrency", "c", config.DefaultConcurrency, "Global limit on in-flight fetches")
	f.DurationVar(&opts.Timeout, "timeout", config.DefaultTimeout, "Per-request timeout")

	// HTTP
	f.StringSliceP("header", "H", nil, "Custom headers (Key: Value)")
	f.StringVar(&opts.UserAgent, "user-agent", "", "Custom User-Agent string")
	f.StringVar(&opts.Proxy, "proxy", "", "HTTP/SOCKS proxy URL")

	// Output
	f.StringVar(&opts.Mode, "mode", config.ModeDiscovery, "Console verbosity: debug, verbose, discovery, quiet")
	f.StringVarP(&opts.OutputFile, "output", "o", "", "Report file path (default: env-enum.txt next to input)")
	f.StringVar(&opts.OutputFormat, "format", "text", "Final report format: text, json")
	f.BoolVar(&opts.NoColor, "no-color", false, "Disable colored output")
	f.StringVar(&opts.OnDiscoveryCmd, "on-discovery", "", "Shell command to run per alive discovery (receives JSON on stdin)")

	// Custom help: categorized flags.
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		w := os.Stderr
		fmt.Fprint(w, helpBanner(cmd.Version))
		fmt.Fprintf(w, "%s\n\nUsage:\n  %s\n", cmd.Long, cmd.UseLine())
		fmt.Fprintf(w, "\nExamples:\n%s\n", cmd.Example)
		fmt.Fprintf(w, "\nFlags:\n")
		for _, g := range helpGroups {
			fmt.Fprintf(w, "\n%s:\n", g.title)
			for _, name := range g.flags {
				if fl := cmd.Flags().Lookup(name); fl != nil {
					fmt.Fprintln(w, formatFlag(fl))
				}
			}
		}
		fmt.Fprintln(w)
	})
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func formatFlag(f *pflag.Flag) string {
	left := "--" + f.Name
	if f.Shorthand != "" {
		left = "-" + f.Shorthand + ", " + left
	}
	if f.Value.Type() != "bool" {
		left += " " + strings.ToUpper(f.Value.Type())
	}
	left = fmt.Sprintf("%-34s", left)

	right := f.Usage
	def := f.DefValue
	if def != "" && def != "false" && def != "0" && def != "0s" && def != "[]" {
		right += fmt.Sprintf(" (default %s)", def)
	}

	return "   " + left + right
}

func helpBanner(ver string) string {
	if ver != "dev" && ver != "" && !strings.HasPrefix(ver, "v") {
		ver = "v" + ver
	}
	return fmt.Sprintf(`
                     __                          __
   ___  ____ _   __/ /_  ____  __  ______  ____/ /
  / _ \/ __ \ | / / __ \/ __ \/ / / / __ \/ __  /
 /  __/ / / / |/ / / / / /_/ / /_/ / / / / /_/ /
 \___/_/ /_/|___/_/ /_/\____/\__,_/_/ /_/\__,_/   %s

`, ver)
}
