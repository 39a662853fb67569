package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"

	"github.com/google/subcommands"

	"StockVault/internal/query"
)

type historyCmd struct {
	windowFlags
	dividends bool
	splits    bool
	csv       bool
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "show stored price history" }
func (*historyCmd) Usage() string {
	return `history [-b DATE] [-e DATE] [-m|-y] [-d] [-x] [-csv] [SYMBOL...]

  Prints archived rows for the given symbols (default: configured tickers),
  optionally restricted to a date window, dividend days (-d) or split
  days (-x).
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	c.windowFlags.register(f)
	f.BoolVar(&c.dividends, "d", false, "only rows with dividends")
	f.BoolVar(&c.splits, "x", false, "only rows with splits")
	f.BoolVar(&c.csv, "csv", false, "output CSV")
}

func (c *historyCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		return fail(err)
	}
	defer a.close()

	begin, end, err := c.window()
	if err != nil {
		return fail(err)
	}

	bars, err := query.New(a.store).History(a.resolveSymbols(f.Args()), query.HistoryOptions{
		Begin:         begin,
		End:           end,
		DividendsOnly: c.dividends,
		SplitsOnly:    c.splits,
	})
	if err != nil {
		return fail(err)
	}
	if len(bars) == 0 {
		fmt.Println("No data found matching criteria")
		return subcommands.ExitSuccess
	}

	header := []string{"Date", "Symbol", "Open", "High", "Low", "Close", "Volume", "Dividends", "Splits"}
	rows := make([][]string, len(bars))
	for i, b := range bars {
		rows[i] = []string{b.Date, b.Symbol,
			formatFloat(b.Open), formatFloat(b.High), formatFloat(b.Low), formatFloat(b.Close),
			strconv.FormatInt(b.Volume, 10), formatFloat(b.Dividends), formatFloat(b.Splits)}
	}
	c.emit(header, rows)
	return subcommands.ExitSuccess
}

func (c *historyCmd) emit(header []string, rows [][]string) { emit(c.csv, header, rows) }

type closeCmd struct {
	windowFlags
	csv bool
}

func (*closeCmd) Name() string     { return "close" }
func (*closeCmd) Synopsis() string { return "show the latest close per symbol" }
func (*closeCmd) Usage() string {
	return `close [-b DATE] [-e DATE] [-csv] [SYMBOL...]
`
}

func (c *closeCmd) SetFlags(f *flag.FlagSet) {
	c.windowFlags.register(f)
	f.BoolVar(&c.csv, "csv", false, "output CSV")
}

func (c *closeCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		return fail(err)
	}
	defer a.close()

	begin, end, err := c.window()
	if err != nil {
		return fail(err)
	}

	closes, err := query.New(a.store).LatestClose(a.resolveSymbols(f.Args()), begin, end)
	if err != nil {
		return fail(err)
	}

	rows := make([][]string, len(closes))
	for i, cl := range closes {
		rows[i] = []string{cl.Symbol, cl.CloseDate, formatFloat(cl.ClosePrice)}
	}
	emit(c.csv, []string{"Symbol", "CloseDate", "ClosePrice"}, rows)
	return subcommands.ExitSuccess
}

type yieldCmd struct {
	months int
	csv    bool
}

func (*yieldCmd) Name() string     { return "yield" }
func (*yieldCmd) Synopsis() string { return "show trailing dividend yield" }
func (*yieldCmd) Usage() string {
	return `yield [-months N] [-csv] [SYMBOL...]

  Sum of dividends over the trailing window divided by the latest close.
`
}

func (c *yieldCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.months, "months", 0, "lookback window in months (default: config)")
	f.BoolVar(&c.csv, "csv", false, "output CSV")
}

func (c *yieldCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		return fail(err)
	}
	defer a.close()

	months := c.months
	if months == 0 {
		months = a.cfg.History.LookbackMonths
	}

	yields, err := query.New(a.store).DividendYield(a.resolveSymbols(f.Args()), months)
	if err != nil {
		return fail(err)
	}

	rows := make([][]string, len(yields))
	for i, y := range yields {
		rows[i] = []string{y.Symbol, y.Date, formatFloat(y.Close),
			formatFloat(y.Dividends), formatFloat(y.Last), strconv.Itoa(y.Count), formatFloat(y.Yield)}
	}
	emit(c.csv, []string{"Symbol", "Date", "Close", "Dividends", "Last", "Count", "Yield"}, rows)
	return subcommands.ExitSuccess
}

type splitsCmd struct {
	csv bool
}

func (*splitsCmd) Name() string     { return "splits" }
func (*splitsCmd) Synopsis() string { return "show split history with cumulative adjustment" }
func (*splitsCmd) Usage() string {
	return `splits [-csv] [SYMBOL...]

  Lists split events newest first; CumSplits is the factor to apply to
  prices recorded before each date.
`
}

func (c *splitsCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.csv, "csv", false, "output CSV")
}

func (c *splitsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		return fail(err)
	}
	defer a.close()

	splits, err := query.New(a.store).Splits(a.resolveSymbols(f.Args()))
	if err != nil {
		return fail(err)
	}

	rows := make([][]string, len(splits))
	for i, sp := range splits {
		rows[i] = []string{sp.Date, sp.Symbol, formatFloat(sp.Splits), formatFloat(sp.CumSplits)}
	}
	emit(c.csv, []string{"Date", "Symbol", "Splits", "CumSplits"}, rows)
	return subcommands.ExitSuccess
}

type resampleCmd struct {
	windowFlags
	freq string
	csv  bool
}

func (*resampleCmd) Name() string     { return "resample" }
func (*resampleCmd) Synopsis() string { return "resample closes to monthly or weekly" }
func (*resampleCmd) Usage() string {
	return `resample [-freq month|week] [-b DATE] [-e DATE] [-csv] [SYMBOL...]

  Last close per calendar period; periods without observations are dropped.
`
}

func (c *resampleCmd) SetFlags(f *flag.FlagSet) {
	c.windowFlags.register(f)
	f.StringVar(&c.freq, "freq", query.FreqMonth, "resampling frequency: month or week")
	f.BoolVar(&c.csv, "csv", false, "output CSV")
}

func (c *resampleCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		return fail(err)
	}
	defer a.close()

	begin, end, err := c.window()
	if err != nil {
		return fail(err)
	}

	points, err := query.New(a.store).Resample(a.resolveSymbols(f.Args()), c.freq, begin, end)
	if err != nil {
		return fail(err)
	}

	rows := make([][]string, len(points))
	for i, p := range points {
		rows[i] = []string{p.Symbol, p.Period, p.Date, formatFloat(p.Close)}
	}
	emit(c.csv, []string{"Symbol", "Period", "Date", "Close"}, rows)
	return subcommands.ExitSuccess
}

type perfCmd struct {
	windowFlags
	csv bool
}

func (*perfCmd) Name() string     { return "perf" }
func (*perfCmd) Synopsis() string { return "show period performance per symbol" }
func (*perfCmd) Usage() string {
	return `perf [-b DATE] [-e DATE] [-m|-y] [-csv] [SYMBOL...]

  First-to-last close change within the window. With no symbols, every
  symbol present in the window is reported.
`
}

func (c *perfCmd) SetFlags(f *flag.FlagSet) {
	c.windowFlags.register(f)
	f.BoolVar(&c.csv, "csv", false, "output CSV")
}

func (c *perfCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		return fail(err)
	}
	defer a.close()

	begin, end, err := c.window()
	if err != nil {
		return fail(err)
	}

	// No default-ticker fallback here: an empty filter means "all symbols".
	perf, err := query.New(a.store).Performance(f.Args(), begin, end)
	if err != nil {
		return fail(err)
	}

	rows := make([][]string, len(perf))
	for i, p := range perf {
		rows[i] = []string{p.Symbol, p.StartDate, formatFloat(p.StartPrice),
			p.EndDate, formatFloat(p.EndPrice), formatFloat(p.Change), formatFloat(p.ChangePercent)}
	}
	emit(c.csv, []string{"Symbol", "StartDate", "StartPrice", "EndDate", "EndPrice", "Change", "ChangePercent"}, rows)
	return subcommands.ExitSuccess
}
