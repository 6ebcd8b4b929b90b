package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mamadbah2/hatchery/internal/trajectory"
)

type simulateOptions struct {
	weight      float64
	days        int
	start       string
	loss        float64
	known       []string
	rate        float64
	minDay      int
	daysBetween int
	fromKnown   bool
}

func newSimulateCmd() *cobra.Command {
	opts := simulateOptions{}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Interpolate a weight series and recommend pin holes",
		Example: "  hatchctl simulate --weight 60 --days 21 --start 2025-03-01 \\\n" +
			"    --known 5=58.4 --known 9=57.2 --pinhole-rate 0.3",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(cmd.OutOrStdout(), opts, time.Now())
		},
	}

	cmd.Flags().Float64Var(&opts.weight, "weight", 0, "Initial weight in grams")
	cmd.Flags().IntVar(&opts.days, "days", 21, "Incubation length in days")
	cmd.Flags().StringVar(&opts.start, "start", "", "Incubation start date (YYYY-MM-DD, default today)")
	cmd.Flags().Float64Var(&opts.loss, "loss", trajectory.DefaultMidHumidityLossPercent, "Mid humidity loss percent")
	cmd.Flags().StringArrayVar(&opts.known, "known", nil, "Recorded weight as day=grams (repeatable)")
	cmd.Flags().Float64Var(&opts.rate, "pinhole-rate", 0.5, "Daily loss increase of one pin hole in grams")
	cmd.Flags().IntVar(&opts.minDay, "min-day", trajectory.DefaultMinDayForFirstPinHole, "Earliest pin hole day")
	cmd.Flags().IntVar(&opts.daysBetween, "days-between", trajectory.DefaultDaysBetweenPinHoles, "Minimum days between pin holes")
	cmd.Flags().BoolVar(&opts.fromKnown, "from-known-day", false, "Search after the latest recorded day instead of the latest weighed day")
	_ = cmd.MarkFlagRequired("weight")

	return cmd
}

func runSimulate(out io.Writer, opts simulateOptions, now time.Time) error {
	start := now
	if opts.start != "" {
		parsed, err := time.Parse(trajectory.DateLayout, opts.start)
		if err != nil {
			return fmt.Errorf("invalid start date %q: %w", opts.start, err)
		}
		start = parsed
	}

	series, err := trajectory.NewSeries(trajectory.SeriesParams{
		InitialWeight:          opts.weight,
		IncubationDays:         opts.days,
		StartDate:              start,
		MidHumidityLossPercent: opts.loss,
	})
	if err != nil {
		return err
	}

	for _, entry := range opts.known {
		day, weight, err := parseKnown(entry)
		if err != nil {
			return err
		}
		series, err = trajectory.RecordWeight(series, day, &weight)
		if err != nil {
			return fmt.Errorf("known %q: %w", entry, err)
		}
	}
	series = trajectory.Interpolate(series)

	policy := trajectory.PinHoleRecommender{}
	if opts.fromKnown {
		policy.CurrentDay = trajectory.WeightSeries.LatestKnownDay
	}
	pinHole := trajectory.PinHoleType{ID: "cli", Name: "pin hole", DailyLossRateIncrease: opts.rate}
	result := policy.Recommend(series, []trajectory.PinHoleType{pinHole}, trajectory.RecommendationSettings{
		MinDayForFirstPinHole: opts.minDay,
		DaysBetweenPinHoles:   opts.daysBetween,
	})

	printSeries(out, series)
	fmt.Fprintln(out)
	printResult(out, result)
	return nil
}

func parseKnown(entry string) (int, float64, error) {
	dayPart, weightPart, ok := strings.Cut(entry, "=")
	if !ok {
		return 0, 0, fmt.Errorf("known %q: expected day=grams", entry)
	}
	day, err := strconv.Atoi(strings.TrimSpace(dayPart))
	if err != nil {
		return 0, 0, fmt.Errorf("known %q: invalid day: %w", entry, err)
	}
	weight, err := strconv.ParseFloat(strings.TrimSpace(weightPart), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("known %q: invalid weight: %w", entry, err)
	}
	return day, weight, nil
}

func printSeries(out io.Writer, series trajectory.WeightSeries) {
	fmt.Fprintf(out, "%-4s %-10s %9s %9s  %s\n", "DAY", "DATE", "TARGET", "WEIGHT", "")
	for _, rec := range series {
		weight, source := "-", ""
		if rec.Weight != nil {
			weight = strconv.FormatFloat(*rec.Weight, 'f', 2, 64)
			source = "recorded"
			if rec.Interpolated {
				source = "interpolated"
			}
		}
		fmt.Fprintf(out, "%-4d %-10s %9.2f %9s  %s\n", rec.Day, rec.Date, rec.TargetWeight, weight, source)
	}
}

func printResult(out io.Writer, res trajectory.RecommendationResult) {
	fmt.Fprintf(out, "Status: %s\n", res.Status)
	fmt.Fprintf(out, "%s\n", res.Message)
	if res.Status == trajectory.StatusMissingData || res.Status == trajectory.StatusNotReady {
		return
	}
	fmt.Fprintf(out, "Current day: %d\n", res.CurrentDay)
	fmt.Fprintf(out, "Projected end weight: %.2f g (target %.2f g, gap %.2f g)\n",
		res.ProjectedEndWeight, res.TargetEndWeight, res.WeightGap)
	for _, rec := range res.Recommendations {
		fmt.Fprintf(out, "Pin hole on day %d: -%.2f g\n", rec.Day, rec.Effect)
	}
	if len(res.Recommendations) > 0 {
		fmt.Fprintf(out, "Remaining gap: %.2f g\n", res.ResidualGap)
	}
}
