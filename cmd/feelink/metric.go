// ABOUTME: CLI commands for managing metric definitions.
// ABOUTME: List, add, edit, archive, and unarchive tracked metrics.
package main

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/feelink/internal/api"
	"github.com/harperreed/feelink/internal/models"
)

var (
	metricMin         float64
	metricMax         float64
	metricColor       string
	metricIcon        string
	metricDescription string
	metricListAll     bool
)

var metricCmd = &cobra.Command{
	Use:     "metric",
	Aliases: []string{"metrics", "m"},
	Short:   "Manage tracked metrics",
	Long: `Manage the metrics you track.

Metrics have a name key, a category, and a value type:

  Categories   physical, psychological, triggers, medications,
               selfcare, wellness, notes
  Value types  range (bounded scale), number, count, boolean, text

Metrics are archived rather than deleted so history stays intact.

EXAMPLES:

  feelink metric list
  feelink metric add sleep_hours physical number
  feelink metric add mood psychological range --min 1 --max 10
  feelink metric archive 12
  feelink metric unarchive 12`,
}

var metricListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List metrics",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := theApp.metrics.Load(cmd.Context(), metricListAll); err != nil {
			return err
		}
		metrics := theApp.metrics.State().Get().Metrics
		if !metricListAll {
			metrics = theApp.metrics.Active()
		}
		if len(metrics) == 0 {
			fmt.Println("No metrics. Add one with 'feelink metric add'.")
			return nil
		}
		for _, m := range metrics {
			line := fmt.Sprintf("%4d  %-24s %-13s %s", m.ID, m.NameKey, m.Category, m.ValueType)
			if m.Archived {
				line += color.New(color.Faint).Sprint("  (archived)")
			}
			if m.ID < 0 {
				line += color.YellowString("  (pending sync)")
			}
			fmt.Println(line)
		}
		return nil
	},
}

var metricAddCmd = &cobra.Command{
	Use:   "add <name_key> <category> <value_type>",
	Short: "Add a metric",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !models.IsValidValueType(args[2]) {
			return fmt.Errorf("unknown value type: %s (valid: range, number, count, boolean, text)", args[2])
		}
		req := api.MetricCreate{
			NameKey:   args[0],
			Category:  models.Category(args[1]),
			ValueType: models.ValueType(args[2]),
		}
		if cmd.Flags().Changed("min") {
			req.MinValue = &metricMin
		}
		if cmd.Flags().Changed("max") {
			req.MaxValue = &metricMax
		}
		if metricColor != "" {
			req.Color = &metricColor
		}
		if metricIcon != "" {
			req.Icon = &metricIcon
		}
		if metricDescription != "" {
			req.Description = &metricDescription
		}

		m, err := theApp.metrics.Create(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("failed to add metric: %w", err)
		}
		if m.ID < 0 {
			color.Yellow("✓ Added %s locally (queued for sync)", m.NameKey)
		} else {
			color.Green("✓ Added %s", m.NameKey)
		}
		return nil
	},
}

var metricEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit a metric",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		var req api.MetricUpdate
		if metricColor != "" {
			req.Color = &metricColor
		}
		if metricIcon != "" {
			req.Icon = &metricIcon
		}
		if metricDescription != "" {
			req.Description = &metricDescription
		}
		if _, err := theApp.metrics.Update(cmd.Context(), id, req); err != nil {
			return fmt.Errorf("failed to edit metric: %w", err)
		}
		color.Green("✓ Updated metric %d", id)
		return nil
	},
}

var metricArchiveCmd = &cobra.Command{
	Use:   "archive <id>",
	Short: "Archive a metric (soft delete)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := theApp.metrics.Archive(cmd.Context(), id); err != nil {
			return fmt.Errorf("failed to archive metric: %w", err)
		}
		color.Green("✓ Archived metric %d", id)
		return nil
	},
}

var metricUnarchiveCmd = &cobra.Command{
	Use:   "unarchive <id>",
	Short: "Restore an archived metric",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := theApp.metrics.Unarchive(cmd.Context(), id); err != nil {
			return fmt.Errorf("failed to unarchive metric: %w", err)
		}
		color.Green("✓ Restored metric %d", id)
		return nil
	},
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id: %s", s)
	}
	return id, nil
}

func init() {
	metricAddCmd.Flags().Float64Var(&metricMin, "min", 0, "minimum value (range metrics)")
	metricAddCmd.Flags().Float64Var(&metricMax, "max", 0, "maximum value (range metrics)")
	metricAddCmd.Flags().StringVar(&metricColor, "color", "", "display color (#rrggbb)")
	metricAddCmd.Flags().StringVar(&metricIcon, "icon", "", "display icon name")
	metricAddCmd.Flags().StringVar(&metricDescription, "description", "", "metric description")
	metricEditCmd.Flags().StringVar(&metricColor, "color", "", "display color (#rrggbb)")
	metricEditCmd.Flags().StringVar(&metricIcon, "icon", "", "display icon name")
	metricEditCmd.Flags().StringVar(&metricDescription, "description", "", "metric description")
	metricListCmd.Flags().BoolVarP(&metricListAll, "all", "a", false, "include archived metrics")

	metricCmd.AddCommand(metricListCmd)
	metricCmd.AddCommand(metricAddCmd)
	metricCmd.AddCommand(metricEditCmd)
	metricCmd.AddCommand(metricArchiveCmd)
	metricCmd.AddCommand(metricUnarchiveCmd)
}
