package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/chrissnell/lunarmansion/internal/app"
	"github.com/chrissnell/lunarmansion/internal/constants"
	"github.com/chrissnell/lunarmansion/internal/conversion"
	"github.com/chrissnell/lunarmansion/internal/engine"
	"github.com/chrissnell/lunarmansion/internal/log"
	"github.com/chrissnell/lunarmansion/pkg/calendar"
	"github.com/chrissnell/lunarmansion/pkg/config"
	"github.com/spf13/cobra"
)

type cli struct {
	out      io.Writer
	calendar conversion.LunarCalendar

	configPath string
	engineData config.EngineData
	jsonOutput bool
	debug      bool

	engine *engine.Engine
}

// newRootCmd builds the command tree. A nil calendar means lunar-go.
func newRootCmd(out io.Writer, cal conversion.LunarCalendar) *cobra.Command {
	c := &cli{out: out, calendar: cal}

	root := &cobra.Command{
		Use:           "mansion-calc",
		Short:         "Resolve BaZi pillars, lunar mansions and lucky angles for Gregorian dates",
		Version:       constants.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}
	root.SetOut(out)
	root.SetErr(out)

	defaults := &config.ConfigData{}
	config.ApplyDefaults(defaults)

	f := root.PersistentFlags()
	f.StringVar(&c.configPath, "config", "", "Optional YAML config; its engine section supplies defaults for the flags below")
	f.StringVar(&c.engineData.MansionStrategy, "strategy", defaults.Engine.MansionStrategy, "Mansion strategy: modulo, table or solar-table")
	f.BoolVar(&c.engineData.StrictComponents, "strict", false, "Reject unrecognised stems and branches")
	f.Float64Var(&c.engineData.MetalAngle, "metal-angle", defaults.Engine.MetalAngle, "Base angle for the Metal element")
	f.IntVar(&c.engineData.MinYear, "min-year", defaults.Engine.MinYear, "Earliest accepted year")
	f.IntVar(&c.engineData.MaxYear, "max-year", defaults.Engine.MaxYear, "Latest accepted year")
	f.BoolVar(&c.jsonOutput, "json", false, "Print results as JSON")
	f.BoolVar(&c.debug, "debug", false, "Turn on debugging output")

	root.AddCommand(
		newResolveCmd(c),
		newRangeCmd(c),
		newMansionsCmd(c),
		newFallbackCmd(c),
	)
	return root
}

func (c *cli) setup(cmd *cobra.Command) error {
	if err := log.Init(c.debug); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}

	ed := c.engineData
	if c.configPath != "" {
		cfg, err := config.Load(config.NewYAMLProvider(c.configPath))
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		// explicit flags win over the file
		fileEngine := cfg.Engine
		flags := cmd.Flags()
		if !flags.Changed("strategy") {
			ed.MansionStrategy = fileEngine.MansionStrategy
		}
		if !flags.Changed("strict") {
			ed.StrictComponents = fileEngine.StrictComponents
		}
		if !flags.Changed("metal-angle") {
			ed.MetalAngle = fileEngine.MetalAngle
		}
		if !flags.Changed("min-year") {
			ed.MinYear = fileEngine.MinYear
		}
		if !flags.Changed("max-year") {
			ed.MaxYear = fileEngine.MaxYear
		}
		ed.Jitter = fileEngine.Jitter
	}

	cal := c.calendar
	if cal == nil {
		cal = conversion.NewLunarGo()
	}

	e, err := engine.New(app.EngineConfig(ed), cal, log.GetSugaredLogger())
	if err != nil {
		return err
	}
	c.engine = e
	return nil
}

// parseDate splits YYYY-MM-DD into a RawDate; validation is left to the engine
func parseDate(s string) (calendar.RawDate, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return calendar.RawDate{}, fmt.Errorf("date %q is not in YYYY-MM-DD form", s)
	}
	return calendar.RawDate{Year: parts[0], Month: parts[1], Day: parts[2]}, nil
}

func (c *cli) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
