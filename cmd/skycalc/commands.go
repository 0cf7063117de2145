package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"text/tabwriter"
	"time"

	sexa "github.com/soniakeys/sexagesimal"
	"github.com/soniakeys/unit"
	"github.com/spf13/cobra"

	"github.com/sky-map-team/stardroid-sub001/internal/cache"
	"github.com/sky-map-team/stardroid-sub001/internal/ephemeris"
	"github.com/sky-map-team/stardroid-sub001/internal/riseset"
	"github.com/sky-map-team/stardroid-sub001/internal/timetravel"
	"github.com/sky-map-team/stardroid-sub001/internal/transform"
)

// rootOptions are shared by every subcommand.
type rootOptions struct {
	json bool
	at   string
}

// observerOptions are the flags of commands that need a location.
type observerOptions struct {
	lat, lon float64
}

func (o *observerOptions) register(cmd *cobra.Command, required bool) {
	cmd.Flags().Float64Var(&o.lat, "lat", 0, "observer latitude in degrees, north positive")
	cmd.Flags().Float64Var(&o.lon, "lon", 0, "observer longitude in degrees, east positive")
	if required {
		cmd.MarkFlagRequired("lat")
		cmd.MarkFlagRequired("lon")
	}
}

func (o *observerOptions) location() (transform.LatLong, error) {
	if math.IsNaN(o.lat) || o.lat < -90 || o.lat > 90 {
		return transform.LatLong{}, fmt.Errorf("--lat %g out of range [-90, 90]", o.lat)
	}
	if math.IsNaN(o.lon) || o.lon < -180 || o.lon > 180 {
		return transform.LatLong{}, fmt.Errorf("--lon %g out of range [-180, 180]", o.lon)
	}
	return transform.NewLatLong(o.lat, o.lon), nil
}

// when resolves --time: RFC 3339, a bare date (UTC midnight), or now.
func (o *rootOptions) when() (time.Time, error) {
	if o.at == "" {
		return time.Now(), nil
	}
	if t, err := time.Parse(time.RFC3339, o.at); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.DateOnly, o.at); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("--time %q: want RFC 3339 or YYYY-MM-DD", o.at)
}

func (o *rootOptions) emit(w io.Writer, v any, text func(io.Writer)) error {
	if o.json {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	text(tw)
	return tw.Flush()
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:          "skycalc",
		Short:        "Solar system ephemeris calculator",
		Long:         `Positions, rise and set times, lunar phase and sidereal time for the Sun, Moon and planets.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVar(&opts.json, "json", false, "print JSON instead of a table")
	root.PersistentFlags().StringVar(&opts.at, "time", "", "instant to compute for (RFC 3339 or YYYY-MM-DD, default now)")

	root.AddCommand(
		newBodiesCmd(opts),
		newPositionCmd(opts),
		newRiseSetCmd(opts),
		newEventsCmd(opts),
		newSiderealCmd(opts),
		newMoonCmd(opts),
		newTimeTravelCmd(opts),
	)
	return root
}

func newBodiesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "bodies",
		Short: "List supported bodies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			type row struct {
				Name           ephemeris.Body `json:"name"`
				Planet         bool           `json:"planet"`
				SizeDeg        float64        `json:"size_deg"`
				UpdateInterval string         `json:"update_interval"`
			}
			rows := make([]row, len(ephemeris.Bodies))
			for i, b := range ephemeris.Bodies {
				rows[i] = row{b, b.IsPlanet(), ephemeris.BodySize(b), ephemeris.UpdateInterval(b).String()}
			}
			return opts.emit(cmd.OutOrStdout(), rows, func(w io.Writer) {
				fmt.Fprintln(w, "BODY\tPLANET\tHORIZON\tUPDATE")
				for _, r := range rows {
					fmt.Fprintf(w, "%s\t%t\t%.2f°\t%s\n", r.Name, r.Planet, r.SizeDeg, r.UpdateInterval)
				}
			})
		},
	}
}

func newPositionCmd(opts *rootOptions) *cobra.Command {
	var obs observerOptions
	cmd := &cobra.Command{
		Use:   "position <body>",
		Short: "Show where a body is in the sky",
		Example: `  skycalc position mars --time 2010-01-01T00:00:00Z
  skycalc position moon --lat 40.44 --lon -79.99`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := ephemeris.ParseBody(args[0])
			if err != nil {
				return err
			}
			t, err := opts.when()
			if err != nil {
				return err
			}
			st, err := ephemeris.State(b, t)
			if err != nil {
				return err
			}

			out := struct {
				Time time.Time `json:"time"`
				ephemeris.BodyState
				Look *transform.LookAngles `json:"look,omitempty"`
			}{Time: t, BodyState: st}

			hasObserver := cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon")
			if hasObserver {
				loc, err := obs.location()
				if err != nil {
					return err
				}
				look := transform.ToLookAngles(st.RaDec, loc, t)
				out.Look = &look
			}

			return opts.emit(cmd.OutOrStdout(), out, func(w io.Writer) {
				fmt.Fprintf(w, "body\t%s\n", b)
				fmt.Fprintf(w, "time\t%s\n", t.Format(time.RFC3339))
				fmt.Fprintf(w, "ra/dec\t%s\t(%.4f°, %.4f°)\n", st.RaDec, st.RaDec.RA, st.RaDec.Dec)
				fmt.Fprintf(w, "distance\t%.6f AU\n", st.DistanceAU)
				fmt.Fprintf(w, "magnitude\t%.2f\n", st.Magnitude)
				fmt.Fprintf(w, "phase angle\t%.2f°\n", st.PhaseAngle)
				fmt.Fprintf(w, "illuminated\t%.1f%%\n", st.Illumination)
				if out.Look != nil {
					fmt.Fprintf(w, "azimuth\t%.2f°\n", out.Look.AzimuthDeg)
					fmt.Fprintf(w, "altitude\t%.2f°\n", out.Look.ElevationDeg)
				}
			})
		},
	}
	obs.register(cmd, false)
	return cmd
}

func newRiseSetCmd(opts *rootOptions) *cobra.Command {
	var (
		obs       observerOptions
		direction string
	)
	cmd := &cobra.Command{
		Use:     "riseset <body>",
		Short:   "Find the next rise and set of a body",
		Example: `  skycalc riseset sun --lat 51.48 --lon 0 --time 2010-06-01T12:00:00Z`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := ephemeris.ParseBody(args[0])
			if err != nil {
				return err
			}
			loc, err := obs.location()
			if err != nil {
				return err
			}
			t, err := opts.when()
			if err != nil {
				return err
			}
			dirs := []riseset.Direction{riseset.Rise, riseset.Set}
			if direction != "" {
				d, err := riseset.ParseDirection(direction)
				if err != nil {
					return err
				}
				dirs = []riseset.Direction{d}
			}

			calc, err := riseset.NewCalculator(b, riseset.DefaultConfig())
			if err != nil {
				return err
			}

			type result struct {
				Direction riseset.Direction `json:"direction"`
				Found     bool              `json:"found"`
				Time      *time.Time        `json:"time,omitempty"`
			}
			out := struct {
				Body       ephemeris.Body     `json:"body"`
				Visibility riseset.Visibility `json:"visibility"`
				Results    []result           `json:"results"`
			}{Body: b, Visibility: calc.Visibility(t, loc)}

			for _, d := range dirs {
				r := result{Direction: d}
				if at, ok := calc.NextRiseSetTime(t, loc, d); ok {
					r.Found, r.Time = true, &at
				}
				out.Results = append(out.Results, r)
			}

			return opts.emit(cmd.OutOrStdout(), out, func(w io.Writer) {
				fmt.Fprintf(w, "%s at %s (%s)\n", b, loc, out.Visibility)
				for _, r := range out.Results {
					if !r.Found {
						fmt.Fprintf(w, "%s\tnone within a day\n", r.Direction)
						continue
					}
					fmt.Fprintf(w, "%s\t%s\n", r.Direction, r.Time.Format(time.RFC3339))
				}
			})
		},
	}
	obs.register(cmd, true)
	cmd.Flags().StringVar(&direction, "direction", "", "rise or set (default both)")
	return cmd
}

func newEventsCmd(opts *rootOptions) *cobra.Command {
	var (
		obs    observerOptions
		days   float64
		bodies []string
	)
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List every rise and set over the coming days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := obs.location()
			if err != nil {
				return err
			}
			t, err := opts.when()
			if err != nil {
				return err
			}
			if days <= 0 || days > 31 {
				return fmt.Errorf("--days %g out of range (0, 31]", days)
			}
			list := ephemeris.Bodies
			if len(bodies) > 0 {
				list = nil
				for _, name := range bodies {
					b, err := ephemeris.ParseBody(name)
					if err != nil {
						return err
					}
					list = append(list, b)
				}
			}

			results := riseset.Predict(context.Background(), riseset.Request{
				Observer: loc,
				Bodies:   list,
				Start:    t,
				Days:     days,
			})

			return opts.emit(cmd.OutOrStdout(), results, func(w io.Writer) {
				fmt.Fprintln(w, "BODY\tEVENT\tTIME\tAZIMUTH")
				for _, be := range results {
					switch {
					case be.Error != "":
						fmt.Fprintf(w, "%s\terror\t%s\t\n", be.Body, be.Error)
					case len(be.Events) == 0:
						fmt.Fprintf(w, "%s\t%s\t\t\n", be.Body, be.Visibility)
					}
					for _, ev := range be.Events {
						fmt.Fprintf(w, "%s\t%s\t%s\t%.1f°\n", be.Body, ev.Type, ev.Time.Format(time.RFC3339), ev.AzimuthDeg)
					}
				}
			})
		},
	}
	obs.register(cmd, true)
	cmd.Flags().Float64Var(&days, "days", 1, "how many days to search")
	cmd.Flags().StringSliceVar(&bodies, "bodies", nil, "comma-separated bodies (default all)")
	return cmd
}

func newSiderealCmd(opts *rootOptions) *cobra.Command {
	var lon float64
	cmd := &cobra.Command{
		Use:   "sidereal",
		Short: "Show Greenwich and local mean sidereal time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if math.IsNaN(lon) || lon < -180 || lon > 180 {
				return fmt.Errorf("--lon %g out of range [-180, 180]", lon)
			}
			t, err := opts.when()
			if err != nil {
				return err
			}
			out := struct {
				Time      time.Time `json:"time"`
				JD        float64   `json:"julian_date"`
				GMSTDeg   float64   `json:"gmst_deg"`
				LMSTDeg   float64   `json:"lmst_deg"`
				Longitude float64   `json:"longitude"`
			}{
				Time:      t,
				JD:        transform.JulianDate(t),
				GMSTDeg:   transform.MeanSiderealTime(t, 0),
				LMSTDeg:   transform.MeanSiderealTime(t, lon),
				Longitude: lon,
			}
			return opts.emit(cmd.OutOrStdout(), out, func(w io.Writer) {
				fmt.Fprintf(w, "julian date\t%.5f\n", out.JD)
				fmt.Fprintf(w, "gmst\t%v\t(%.4f°)\n", sexa.FmtRA(unit.RAFromDeg(out.GMSTDeg)), out.GMSTDeg)
				fmt.Fprintf(w, "lmst\t%v\t(%.4f°)\n", sexa.FmtRA(unit.RAFromDeg(out.LMSTDeg)), out.LMSTDeg)
			})
		},
	}
	cmd.Flags().Float64Var(&lon, "lon", 0, "observer longitude in degrees, east positive")
	return cmd
}

func newMoonCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "moon",
		Short: "Show the lunar phase and the next full moon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := opts.when()
			if err != nil {
				return err
			}
			illum, err := ephemeris.PercentIlluminated(ephemeris.Moon, t)
			if err != nil {
				return err
			}
			out := struct {
				Phase        ephemeris.LunarPhase `json:"phase"`
				Illumination float64              `json:"illumination"`
				Waxing       bool                 `json:"waxing"`
				NextFullMoon time.Time            `json:"next_full_moon"`
			}{
				Phase:        ephemeris.LunarPhaseAt(t),
				Illumination: illum,
				Waxing:       ephemeris.IsWaxing(t),
				NextFullMoon: ephemeris.NextFullMoon(t),
			}
			return opts.emit(cmd.OutOrStdout(), out, func(w io.Writer) {
				trend := "waning"
				if out.Waxing {
					trend = "waxing"
				}
				fmt.Fprintf(w, "phase\t%s\n", out.Phase)
				fmt.Fprintf(w, "illuminated\t%.1f%% (%s)\n", out.Illumination, trend)
				fmt.Fprintf(w, "next full moon\t%s\n", out.NextFullMoon.UTC().Format(time.RFC3339))
			})
		},
	}
}

func newTimeTravelCmd(opts *rootOptions) *cobra.Command {
	var obs observerOptions
	cmd := &cobra.Command{
		Use:   "timetravel [event]",
		Short: "List notable sky events, or find when one happens",
		Example: `  skycalc timetravel
  skycalc timetravel next-sunset --lat 51.48 --lon 0
  skycalc timetravel solar-eclipse-2024`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return opts.emit(cmd.OutOrStdout(), timetravel.Catalog, func(w io.Writer) {
					fmt.Fprintln(w, "ID\tKIND\tNAME")
					for _, e := range timetravel.Catalog {
						fmt.Fprintf(w, "%s\t%s\t%s\n", e.ID, e.Kind, e.Name)
					}
				})
			}

			ev, err := timetravel.Lookup(args[0])
			if err != nil {
				return err
			}
			t, err := opts.when()
			if err != nil {
				return err
			}
			var loc *transform.LatLong
			if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon") {
				l, err := obs.location()
				if err != nil {
					return err
				}
				loc = &l
			}
			finder, err := cache.NewRiseSetCache(len(ephemeris.Bodies), riseset.DefaultConfig())
			if err != nil {
				return err
			}
			at, err := timetravel.Resolve(ev, t, loc, finder)
			if err != nil {
				return err
			}

			out := struct {
				Event  timetravel.Event     `json:"event"`
				Time   time.Time            `json:"time"`
				Target *ephemeris.BodyState `json:"target,omitempty"`
			}{Event: ev, Time: at}
			if ev.Target != nil {
				st, err := ephemeris.State(*ev.Target, at)
				if err != nil {
					return err
				}
				out.Target = &st
			}

			return opts.emit(cmd.OutOrStdout(), out, func(w io.Writer) {
				fmt.Fprintf(w, "event\t%s\n", ev.Name)
				fmt.Fprintf(w, "time\t%s\n", at.UTC().Format(time.RFC3339))
				if out.Target != nil {
					fmt.Fprintf(w, "look at\t%s\t%s\n", out.Target.Body, out.Target.RaDec)
				}
			})
		},
	}
	obs.register(cmd, false)
	return cmd
}
