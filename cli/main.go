package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/yijiawu/genstudio/cli/internal/output"
	"github.com/yijiawu/genstudio/internal/analytics"
	"github.com/yijiawu/genstudio/internal/config"
	"github.com/yijiawu/genstudio/internal/identity"
	"github.com/yijiawu/genstudio/internal/logstore"
	"github.com/yijiawu/genstudio/internal/model"
	"github.com/yijiawu/genstudio/internal/recorder"
)

const version = "0.1.0"

func main() {
	// Detect subcommand first
	command := "overview"
	args := os.Args[1:]

	var filteredArgs []string
	for i, arg := range args {
		switch arg {
		case "overview", "audit", "record", "config":
			command = arg
			// Keep remaining args for flag parsing
			filteredArgs = append(args[:i], args[i+1:]...)
		}
		if command != "overview" || arg == "overview" {
			break
		}
	}
	if filteredArgs == nil {
		filteredArgs = args
	}

	// Handle special commands
	switch command {
	case "record":
		runRecord(filteredArgs)
		return
	case "config":
		runConfig(filteredArgs)
		return
	}

	fs := flag.NewFlagSet("genstudio", flag.ExitOnError)

	var (
		month    string
		dataDir  string
		jsonOut  bool
		compact  bool
		showHelp bool
		showVer  bool
	)

	fs.StringVar(&month, "month", "", "Month to report on (YYYY-MM, default current)")
	fs.StringVar(&dataDir, "data-dir", "", "Data directory (default from config or ~/.genstudio)")
	fs.BoolVar(&jsonOut, "json", false, "Output as JSON")
	fs.BoolVar(&compact, "compact", false, "Force compact table output")
	fs.BoolVar(&compact, "c", false, "Force compact table output")
	fs.BoolVar(&showHelp, "help", false, "Show help")
	fs.BoolVar(&showHelp, "h", false, "Show help")
	fs.BoolVar(&showVer, "version", false, "Show version")
	fs.BoolVar(&showVer, "v", false, "Show version")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `genstudio - generation usage overview

Usage: genstudio [command] [options]

Commands:
  overview  Show monthly usage report (default)
  audit     Show per-user per-day drill-down
  record    Record a usage event by hand
  config    Configure settings

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  genstudio                        Show this month's usage
  genstudio overview --month 2026-07
  genstudio audit --month 2026-07 --json
  genstudio record --feature image --metric points --amount 2500
  genstudio config --show
`)
	}

	fs.Parse(filteredArgs)

	if showVer {
		fmt.Printf("genstudio version %s\n", version)
		return
	}

	if showHelp {
		fs.Usage()
		return
	}

	if month == "" {
		month = time.Now().Format("2006-01")
	}

	store, err := openStore(dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	doc, err := store.LoadAll()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading usage log: %v\n", err)
		os.Exit(1)
	}

	summary, err := analytics.Summarize(doc, month, analytics.Options{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	opts := output.TableOptions{ForceCompact: compact}

	switch command {
	case "overview":
		if jsonOut {
			output.PrintJSON(summary)
		} else {
			output.PrintOverview(summary, opts)
		}
	case "audit":
		if jsonOut {
			output.PrintJSON(summary.UserRollups)
		} else {
			output.PrintAudit(summary, opts)
		}
	}
}

// openStore resolves the data directory (flag, then config file, then the
// default) and returns a log store for it.
func openStore(dataDir string) (*logstore.Store, error) {
	if dataDir != "" {
		return logstore.New(dataDir), nil
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return logstore.New(cfg.ResolvedDataDir()), nil
}

func runRecord(args []string) {
	fs := flag.NewFlagSet("record", flag.ExitOnError)
	var (
		feature string
		metric  string
		amount  int64
		dataDir string
	)
	fs.StringVar(&feature, "feature", "", "Feature to record against (text, image, video)")
	fs.StringVar(&metric, "metric", "pageView", "Metric to increment (pageView, points)")
	fs.Int64Var(&amount, "amount", 1, "Amount to add")
	fs.StringVar(&dataDir, "data-dir", "", "Data directory (default from config or ~/.genstudio)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: genstudio record [options]

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  genstudio record --feature text
  genstudio record --feature video --metric points --amount 5000
`)
	}

	fs.Parse(args)

	if feature == "" {
		fs.Usage()
		os.Exit(1)
	}

	f, err := model.ParseFeature(feature)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	m, err := recorder.ParseMetric(metric)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	store, err := openStore(dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	userID, err := identity.Load(store.Dir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	rec := recorder.New(store, userID)
	if err := rec.Record(f, m, amount); err != nil {
		fmt.Fprintf(os.Stderr, "Error recording event: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Recorded %s %s +%d for %s.\n", feature, m, amount, userID)
}

func runConfig(args []string) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	var (
		listen     string
		dataDir    string
		apiKey     string
		apiBaseURL string
		show       bool
	)
	fs.StringVar(&listen, "listen", "", "Server listen address")
	fs.StringVar(&dataDir, "data-dir", "", "Data directory")
	fs.StringVar(&apiKey, "api-key", "", "Generation API key")
	fs.StringVar(&apiBaseURL, "api-base-url", "", "Generation API base URL")
	fs.BoolVar(&show, "show", false, "Show current configuration")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: genstudio config [options]

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  genstudio config --api-key <key>
  genstudio config --data-dir /var/lib/genstudio
  genstudio config --show
`)
	}

	fs.Parse(args)

	if show {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Data dir:     %s\n", cfg.ResolvedDataDir())
		if cfg.Listen != "" {
			fmt.Printf("Listen:       %s\n", cfg.Listen)
		}
		if cfg.APIBaseURL != "" {
			fmt.Printf("API base URL: %s\n", cfg.APIBaseURL)
		}
		if cfg.APIKey != "" {
			fmt.Printf("API key:      %s...%s\n", cfg.APIKey[:min(6, len(cfg.APIKey))], cfg.APIKey[max(0, len(cfg.APIKey)-4):])
		}
		costs := cfg.ResolvedCosts()
		fmt.Printf("Point costs:  text=%d image=%d video=%d\n", costs.Text, costs.Image, costs.Video)
		return
	}

	if listen == "" && dataDir == "" && apiKey == "" && apiBaseURL == "" {
		fs.Usage()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		cfg = &config.Config{}
	}

	if listen != "" {
		cfg.Listen = listen
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if apiKey != "" {
		cfg.APIKey = apiKey
	}
	if apiBaseURL != "" {
		cfg.APIBaseURL = apiBaseURL
	}

	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Configuration saved.")
}
