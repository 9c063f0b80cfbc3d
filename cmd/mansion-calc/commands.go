package main

import (
	"context"
	"fmt"
	"time"

	"github.com/chrissnell/lunarmansion/internal/engine"
	"github.com/chrissnell/lunarmansion/pkg/calendar"
	"github.com/chrissnell/lunarmansion/pkg/mansion"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// maxRangeDays bounds a single range invocation
const maxRangeDays = 366 * 10

func newResolveCmd(c *cli) *cobra.Command {
	var timezone, hour, minute string

	cmd := &cobra.Command{
		Use:   "resolve YYYY-MM-DD",
		Short: "Resolve the full reading for one date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := parseDate(args[0])
			if err != nil {
				return err
			}
			raw.Hour, raw.Minute = hour, minute

			res, err := c.engine.ResolveRaw(cmd.Context(), engine.RawRequest{RawDate: raw, Timezone: timezone})
			if res != nil {
				if c.jsonOutput {
					if perr := c.printJSON(res); perr != nil {
						return perr
					}
				} else {
					c.printResult(res)
				}
			}
			if err != nil {
				return fmt.Errorf("%s: %w", engine.KindOf(err), err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&timezone, "timezone", "", "UTC offset in hours (default 8)")
	cmd.Flags().StringVar(&hour, "hour", "", "Hour of day, 0-23")
	cmd.Flags().StringVar(&minute, "minute", "", "Minute, 0-59")
	return cmd
}

func (c *cli) printResult(res *engine.Result) {
	fmt.Fprintf(c.out, "Solar date:     %s\n", res.SolarDate)
	lunar := res.LunarDate
	if res.LunarLeapMonth {
		lunar += " (leap month)"
	}
	if res.LunarCorrected {
		lunar += " (corrected)"
	}
	fmt.Fprintf(c.out, "Lunar date:     %s\n", lunar)
	fmt.Fprintf(c.out, "BaZi:           %s\n", res.BaZi)
	for _, p := range res.Pillars {
		fmt.Fprintf(c.out, "  %-14s %s%s, %s\n", p.Label(), p.Stem, p.Branch, p.Phrase)
	}
	fmt.Fprintf(c.out, "Day master:     %s (%s)\n", res.DayMaster, res.Element)
	mansionLine := res.LunarMansion
	if res.LunarMansionNative != "" {
		mansionLine += " " + res.LunarMansionNative
	}
	if res.MansionFallback {
		mansionLine += " (fallback)"
	}
	fmt.Fprintf(c.out, "Lunar mansion:  %s\n", mansionLine)
	fmt.Fprintf(c.out, "                %s\n", res.LunarMansionDescription)
	fmt.Fprintf(c.out, "Angle:          %g (base %g, UTC%+g)\n", res.Angle, res.BaseAngle, res.Timezone)
	for _, w := range res.Warnings {
		fmt.Fprintf(c.out, "Warning:        %s\n", w)
	}
}

type rangeRow struct {
	Date   string         `json:"date"`
	Result *engine.Result `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
	Kind   engine.Kind    `json:"error_kind,omitempty"`
}

func newRangeCmd(c *cli) *cobra.Command {
	var timezone string
	var concurrency int

	cmd := &cobra.Command{
		Use:   "range START END",
		Short: "Resolve every date from START to END inclusive (YYYY-MM-DD)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := c.prepareDate(args[0], timezone)
			if err != nil {
				return err
			}
			end, err := c.prepareDate(args[1], timezone)
			if err != nil {
				return err
			}

			dates := expandRange(start.Date, end.Date)
			if len(dates) == 0 {
				return fmt.Errorf("%s is after %s", start.Date, end.Date)
			}
			if len(dates) > maxRangeDays {
				return fmt.Errorf("range covers %d days, the limit is %d", len(dates), maxRangeDays)
			}

			rows, err := c.resolveAll(cmd.Context(), dates, start.Offset, concurrency)
			if err != nil {
				return err
			}

			if c.jsonOutput {
				return c.printJSON(rows)
			}
			for _, r := range rows {
				if r.Error != "" {
					fmt.Fprintf(c.out, "%s  %s: %s\n", r.Date, r.Kind, r.Error)
					continue
				}
				fmt.Fprintf(c.out, "%s  %-24s %-22s %6.2f\n", r.Date, r.Result.BaZi, r.Result.LunarMansion, r.Result.Angle)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&timezone, "timezone", "", "UTC offset in hours (default 8)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 8, "Dates resolved in parallel")
	return cmd
}

func (c *cli) prepareDate(s, timezone string) (engine.Request, error) {
	raw, err := parseDate(s)
	if err != nil {
		return engine.Request{}, err
	}
	return c.engine.Prepare(engine.RawRequest{RawDate: raw, Timezone: timezone})
}

func expandRange(start, end calendar.CalendarDate) []calendar.CalendarDate {
	from := time.Date(start.Year, time.Month(start.Month), start.Day, 0, 0, 0, 0, time.UTC)
	to := time.Date(end.Year, time.Month(end.Month), end.Day, 0, 0, 0, 0, time.UTC)

	var dates []calendar.CalendarDate
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		dates = append(dates, calendar.NewDate(d.Year(), int(d.Month()), d.Day()))
		if len(dates) > maxRangeDays {
			break
		}
	}
	return dates
}

// resolveAll resolves dates with bounded parallelism. Per-date failures are
// reported in their row; only cancellation aborts the run.
func (c *cli) resolveAll(ctx context.Context, dates []calendar.CalendarDate, offset float64, concurrency int) ([]rangeRow, error) {
	if concurrency < 1 {
		concurrency = 1
	}
	rows := make([]rangeRow, len(dates))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, d := range dates {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := c.engine.Resolve(ctx, d, offset)
			rows[i] = rangeRow{Date: d.String(), Result: res}
			if err != nil {
				rows[i].Error = err.Error()
				rows[i].Kind = engine.KindOf(err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

func newMansionsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "mansions",
		Short: "List the 28 lunar mansions in cycle order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cycle := mansion.Cycle()
			if c.jsonOutput {
				return c.printJSON(cycle)
			}
			for i, m := range cycle {
				fmt.Fprintf(c.out, "%2d  %s  %-22s %s\n", i, m.Native, m.Label, m.Description)
			}
			return nil
		},
	}
}

type fallbackRow struct {
	Date    string `json:"date"`
	Index   int    `json:"index"`
	Mansion string `json:"lunar_mansion"`
}

func newFallbackCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "fallback YYYY-MM-DD...",
		Short: "Show the hash-derived fallback mansion for dates",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make([]fallbackRow, 0, len(args))
			for _, a := range args {
				req, err := c.prepareDate(a, "")
				if err != nil {
					return err
				}
				key := req.Date.String()
				rows = append(rows, fallbackRow{
					Date:    key,
					Index:   mansion.FallbackIndex(key),
					Mansion: mansion.Fallback(key).Label,
				})
			}
			if c.jsonOutput {
				return c.printJSON(rows)
			}
			for _, r := range rows {
				fmt.Fprintf(c.out, "%s  %2d  %s\n", r.Date, r.Index, r.Mansion)
			}
			return nil
		},
	}
}
