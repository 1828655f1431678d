// ABOUTME: CLI command for server-side analytics: statistics and correlations.
// ABOUTME: Online-only; analytics results are never cached.
package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/feelink/internal/api"
)

var (
	statsFrom         string
	statsTo           string
	statsMetrics      []string
	statsCorrelations bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show metric statistics and correlations",
	Long: `Show per-metric summary statistics computed by the server, or pairwise
correlations with --correlations. Requires a connection.

EXAMPLES:

  feelink stats --from 2024-01-01 --to 2024-06-30
  feelink stats --metrics 1,3 --correlations`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !theApp.engine.Online() {
			return fmt.Errorf("offline: analytics require a connection")
		}

		if statsCorrelations {
			return runCorrelations(cmd)
		}

		stats, err := theApp.client.Statistics(cmd.Context(), statsMetrics, statsFrom, statsTo)
		if err != nil {
			return fmt.Errorf("failed to fetch statistics: %w", err)
		}
		if len(stats) == 0 {
			fmt.Println("No data.")
			return nil
		}
		for _, s := range stats {
			line := fmt.Sprintf("metric %-4d n=%-5d", s.MetricID, s.Count)
			if s.Mean != nil {
				line += fmt.Sprintf(" mean=%.2f", *s.Mean)
			}
			if s.Min != nil && s.Max != nil {
				line += fmt.Sprintf(" range=[%.2f, %.2f]", *s.Min, *s.Max)
			}
			fmt.Println(line)
		}
		return nil
	},
}

func runCorrelations(cmd *cobra.Command) error {
	var params api.CorrelationParams
	params.DateFrom = statsFrom
	params.DateTo = statsTo
	for _, raw := range statsMetrics {
		id, err := parseID(strings.TrimSpace(raw))
		if err != nil {
			return err
		}
		params.MetricIDs = append(params.MetricIDs, id)
	}

	correlations, err := theApp.client.Correlations(cmd.Context(), params)
	if err != nil {
		return fmt.Errorf("failed to fetch correlations: %w", err)
	}
	if len(correlations) == 0 {
		fmt.Println("No correlations found.")
		return nil
	}
	for _, c := range correlations {
		line := fmt.Sprintf("%d ↔ %d  r=%+.3f p=%.4f n=%d", c.MetricAID, c.MetricBID, c.Coefficient, c.PValue, c.SampleSize)
		if c.Significant {
			color.Green("%s *", line)
		} else {
			fmt.Println(line)
		}
	}
	return nil
}

func init() {
	statsCmd.Flags().StringVar(&statsFrom, "from", "", "start date (inclusive)")
	statsCmd.Flags().StringVar(&statsTo, "to", "", "end date (inclusive)")
	statsCmd.Flags().StringSliceVar(&statsMetrics, "metrics", nil, "metric IDs to include")
	statsCmd.Flags().BoolVar(&statsCorrelations, "correlations", false, "show pairwise correlations")
}
