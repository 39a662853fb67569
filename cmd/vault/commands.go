package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/subcommands"

	"StockVault/internal/archive"
	"StockVault/internal/config"
	"StockVault/internal/fetcher"
	"StockVault/internal/model"
	"StockVault/internal/refresh"
	"StockVault/internal/scheduler"
)

// app bundles the open archive and loaded config for one command execution.
type app struct {
	cfg   *config.Config
	store *archive.Store
}

func openApp() (*app, error) {
	dir, err := config.FindDir(".")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	store, err := archive.Open(cfg.DatabasePath())
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, store: store}, nil
}

func (a *app) close() { a.store.Close() }

// resolveSymbols applies the configured default tickers when the caller
// passed none. This is the single place that fallback happens.
func (a *app) resolveSymbols(symbols []string) []string {
	if len(symbols) > 0 {
		return symbols
	}
	return a.cfg.Default.Tickers
}

func (a *app) planner() *refresh.Planner {
	return refresh.New(a.store, fetcher.NewYahooFetcher(a.cfg.Proxy), a.cfg.UpdatesPath(), a.cfg.Default.Tickers)
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return subcommands.ExitFailure
}

// windowFlags is the shared date-range flag set of the query commands.
type windowFlags struct {
	begin string
	end   string
	month bool
	year  bool
}

func (w *windowFlags) register(f *flag.FlagSet) {
	f.StringVar(&w.begin, "b", "", "begin date, inclusive (YYYY-MM-DD)")
	f.StringVar(&w.end, "e", "", "end date, exclusive (YYYY-MM-DD)")
	f.BoolVar(&w.month, "m", false, "select the last month")
	f.BoolVar(&w.year, "y", false, "select the last year")
}

func (w *windowFlags) window() (begin, end string, err error) {
	if w.month {
		return time.Now().AddDate(0, -1, 0).Format(model.DateFormat), "", nil
	}
	if w.year {
		return time.Now().AddDate(0, -12, 0).Format(model.DateFormat), "", nil
	}
	for _, d := range []string{w.begin, w.end} {
		if d == "" {
			continue
		}
		if _, perr := time.Parse(model.DateFormat, d); perr != nil {
			return "", "", fmt.Errorf("invalid date %q (want YYYY-MM-DD)", d)
		}
	}
	return w.begin, w.end, nil
}

type initCmd struct{}

func (*initCmd) Name() string     { return "init" }
func (*initCmd) Synopsis() string { return "create a vault.yaml in the current directory" }
func (*initCmd) Usage() string {
	return `init

  Creates a starter vault.yaml and an empty vault.updates.csv. Edit the
  config to list your tickers, then run 'vault refresh'.
`
}
func (*initCmd) SetFlags(*flag.FlagSet) {}

func (c *initCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cwd, err := os.Getwd()
	if err != nil {
		return fail(err)
	}
	path, err := config.Init(cwd)
	if err != nil {
		return fail(err)
	}
	fmt.Printf("Created %s\n", path)
	fmt.Println("\nEdit this file to add your stock tickers, then run:")
	fmt.Println("  vault refresh   # pull history from Yahoo Finance")
	fmt.Println("  vault history   # show the archive")
	return subcommands.ExitSuccess
}

type refreshCmd struct{}

func (*refreshCmd) Name() string     { return "refresh" }
func (*refreshCmd) Synopsis() string { return "sync the archive from Yahoo Finance" }
func (*refreshCmd) Usage() string {
	return `refresh [SYMBOL...]

  Fetches all missing trading days for the given symbols (default: the
  configured tickers) and appends them to the archive. Symbols that fail
  upstream are skipped; the rest still commit.
`
}
func (*refreshCmd) SetFlags(*flag.FlagSet) {}

func (c *refreshCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		return fail(err)
	}
	defer a.close()

	res, err := a.planner().Run(f.Args())
	if err != nil {
		return fail(err)
	}
	printRefreshResult(res)
	return subcommands.ExitSuccess
}

func printRefreshResult(res *refresh.Result) {
	if res.UpToDate {
		fmt.Println("Nothing to do - all symbols are up to date")
		return
	}
	fmt.Printf("Fetched %d bars, inserted %d new rows", res.Fetched, res.Inserted)
	if res.Patched > 0 {
		fmt.Printf(" (%d corrected)", res.Patched)
	}
	fmt.Println()
	for symbol, err := range res.Failures {
		fmt.Printf("Warning: failed to fetch %s: %v\n", symbol, err)
	}
	if len(res.Splits) > 0 {
		fmt.Println("Splits detected:")
		rows := make([][]string, len(res.Splits))
		for i, sp := range res.Splits {
			rows[i] = []string{sp.Date, sp.Symbol, formatFloat(sp.Ratio)}
		}
		writeTable([]string{"Date", "Symbol", "Splits"}, rows)
	}
}

type watchCmd struct {
	runOnStart bool
}

func (*watchCmd) Name() string     { return "watch" }
func (*watchCmd) Synopsis() string { return "refresh the archive on the configured cron schedule" }
func (*watchCmd) Usage() string {
	return `watch [-now] [SYMBOL...]

  Runs until interrupted, refreshing the archive whenever
  schedule.refresh_cron fires.
`
}

func (c *watchCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.runOnStart, "now", false, "run a refresh pass immediately on start")
}

func (c *watchCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		return fail(err)
	}
	defer a.close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.NewScheduler(ctx, a.planner())
	if err := sched.RegisterRefresh(a.cfg.Schedule.RefreshCron, f.Args()); err != nil {
		return fail(err)
	}
	sched.Start()
	defer sched.Stop()

	if c.runOnStart {
		go sched.RunNow(f.Args())
	}

	fmt.Printf("Watching (schedule %q). Press Ctrl+C to stop.\n", a.cfg.Schedule.RefreshCron)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	cancel()
	return subcommands.ExitSuccess
}
