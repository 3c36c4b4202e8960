package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/granson-io/granson/internal/history"
	"github.com/granson-io/granson/internal/logging"
	"github.com/granson-io/granson/internal/sweep"
	"github.com/granson-io/granson/rotation"
)

func runPrune(args []string) {
	fs := flag.NewFlagSet("prune", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file")
	dryRun := fs.Bool("dry-run", false, "Report deletions without performing them (overrides config)")

	fs.Usage = func() {
		fmt.Println(`Usage: gransond prune [options]

Run a single retention pass against the configured store and exit. Exits
non-zero when any delete fails.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *dryRun {
		cfg.Sweep.DryRun = true
	}

	logger := logging.Configure(cfg.Observability.LogLevel, cfg.Observability.LogFormat)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backupStore, err := buildStore(ctx, cfg)
	if err != nil {
		logger.Errorf("failed to create store", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	defer backupStore.Close()

	policy, err := cfg.Policy.Rotation()
	if err != nil {
		logger.Errorf("invalid policy", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	opts := sweep.Options{
		Store:   backupStore,
		Policy:  policy,
		DryRun:  cfg.Sweep.DryRun,
		Backend: cfg.Store.Backend,
		Logger:  logger,
	}
	if cfg.Sweep.HistoryPath != "" {
		runLog, err := history.Open(cfg.Sweep.HistoryPath)
		if err != nil {
			logger.Errorf("failed to open run history", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
		defer runLog.Close()
		opts.History = runLog
	}

	sweeper, err := sweep.New(opts)
	if err != nil {
		logger.Errorf("failed to create sweeper", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	result, err := sweeper.RunOnce(ctx)
	if err != nil {
		logger.Errorf("prune failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	verb := "deleted"
	if result.DryRun {
		verb = "would delete"
	}
	fmt.Printf("scanned %d, kept %d, %s %d, skipped %d, errors %d\n",
		result.Scanned, result.Kept, verb, result.Deleted, result.Skipped, result.Errors)
	if result.Errors > 0 {
		os.Exit(1)
	}
}

func runPlan(args []string) {
	fs := flag.NewFlagSet("plan", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file")
	input := fs.String("input", "-", "File with one timestamp per line, or - for stdin")
	dates := fs.Bool("dates", false, "Treat input as calendar dates (2006-01-02) instead of RFC 3339 timestamps")
	nowFlag := fs.String("now", "", "Evaluate the policy as of this RFC 3339 instant instead of the current time")

	fs.Usage = func() {
		fmt.Println(`Usage: gransond plan [options]

Read backup timestamps and print the keep/delete decision for each under the
configured policy. Storage is never touched.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	policy, err := cfg.Policy.Rotation()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid policy: %v\n", err)
		os.Exit(1)
	}
	if *nowFlag != "" {
		now, err := time.Parse(time.RFC3339, *nowFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -now value %q: %v\n", *nowFlag, err)
			os.Exit(1)
		}
		policy.Now = now
	}

	var r io.Reader = os.Stdin
	if *input != "-" {
		f, err := os.Open(*input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open input: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		r = f
	}

	timestamps, err := readTimestamps(r, *dates)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	decisions, err := planDecisions(timestamps, policy, *dates)
	if err != nil {
		fmt.Fprintf(os.Stderr, "plan failed: %v\n", err)
		os.Exit(1)
	}

	layout := time.RFC3339
	if *dates {
		layout = "2006-01-02"
	}
	kept := 0
	for _, d := range decisions {
		verdict := "delete"
		if d.keep {
			verdict = "keep  "
			kept++
		}
		fmt.Printf("%s %s\n", verdict, d.ts.Format(layout))
	}
	fmt.Printf("%d of %d kept\n", kept, len(decisions))
}

type decision struct {
	ts   time.Time
	keep bool
}

// readTimestamps parses one instant per non-empty line, RFC 3339 by default
// and 2006-01-02 in dates mode.
func readTimestamps(r io.Reader, dates bool) ([]time.Time, error) {
	layout := time.RFC3339
	if dates {
		layout = "2006-01-02"
	}

	var out []time.Time
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		ts, err := time.Parse(layout, text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %q is not a %s value", line, text, layout)
		}
		out = append(out, ts)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return out, nil
}

// planDecisions evaluates the policy and marks each input instant keep or
// delete, preserving input order.
func planDecisions(timestamps []time.Time, policy rotation.Policy, dates bool) ([]decision, error) {
	var keep []time.Time
	var err error
	if dates {
		keep, err = rotation.DatesToKeep(timestamps, policy)
	} else {
		keep, err = rotation.ToKeep(timestamps, policy)
	}
	if err != nil {
		return nil, err
	}

	keepSet := make(map[int64]struct{}, len(keep))
	for _, ts := range keep {
		keepSet[ts.UnixNano()] = struct{}{}
	}

	decisions := make([]decision, len(timestamps))
	for i, ts := range timestamps {
		key := ts
		if dates {
			key = time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, ts.Location())
		}
		_, kept := keepSet[key.UnixNano()]
		decisions[i] = decision{ts: ts, keep: kept}
	}
	return decisions, nil
}
