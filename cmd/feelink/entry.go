// ABOUTME: CLI commands for daily log entries: log values, list, show, delete.
// ABOUTME: One entry per calendar date; values reference metric IDs.
package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/feelink/internal/api"
	"github.com/harperreed/feelink/internal/models"
)

var (
	logNotes    string
	logSet      []string
	entriesFrom string
	entriesTo   string
	entriesNum  int
)

var logCmd = &cobra.Command{
	Use:   "log [date]",
	Short: "Log metric values for a date",
	Long: `Log metric values for a date (default today). Creates the day's entry
or updates it if one already exists.

Values are given as --set metric_id=value pairs. Booleans accept
true/false, everything else is parsed by the metric's value type.

EXAMPLES:

  feelink log --set 1=7 --set 2=true --notes "Slept well"
  feelink log 2024-06-01 --set 3=6.5`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date := time.Now().Format(models.DateFormat)
		if len(args) == 1 {
			if _, err := time.Parse(models.DateFormat, args[0]); err != nil {
				return fmt.Errorf("invalid date %q, want YYYY-MM-DD", args[0])
			}
			date = args[0]
		}
		if len(logSet) == 0 && logNotes == "" {
			return fmt.Errorf("nothing to log: pass --set and/or --notes")
		}

		values, err := parseSetFlags(logSet)
		if err != nil {
			return err
		}

		existing, err := theApp.entries.GetByDate(cmd.Context(), date)
		if err != nil {
			return err
		}

		if existing != nil {
			var req api.EntryUpdate
			if logNotes != "" {
				req.Notes = &logNotes
			}
			if len(values) > 0 {
				req.Values = values
			}
			if _, err := theApp.entries.Update(cmd.Context(), existing.ID, req); err != nil {
				return fmt.Errorf("failed to update entry: %w", err)
			}
			color.Green("✓ Updated entry for %s", date)
			return nil
		}

		req := api.EntryCreate{EntryDate: date, Values: values}
		if logNotes != "" {
			req.Notes = &logNotes
		}
		e, err := theApp.entries.Create(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("failed to create entry: %w", err)
		}
		if e.ID < 0 {
			color.Yellow("✓ Logged %s locally (queued for sync)", date)
		} else {
			color.Green("✓ Logged %s", date)
		}
		return nil
	},
}

var entriesCmd = &cobra.Command{
	Use:   "entries",
	Short: "List daily entries",
	Long: `List daily entries, most recent first.

Date filters are inclusive on both ends:

  feelink entries --from 2024-06-01 --to 2024-06-30`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		params := api.EntryListParams{
			DateFrom: entriesFrom,
			DateTo:   entriesTo,
			Limit:    entriesNum,
		}
		if err := theApp.entries.Load(cmd.Context(), params); err != nil {
			return err
		}
		st := theApp.entries.State().Get()
		if len(st.Entries) == 0 {
			fmt.Println("No entries.")
			return nil
		}
		for _, e := range st.Entries {
			line := fmt.Sprintf("%s  %2d values", e.EntryDate, len(e.Values))
			if e.Notes != nil && *e.Notes != "" {
				line += "  " + color.New(color.Faint).Sprint(truncate(*e.Notes, 40))
			}
			if e.ID < 0 {
				line += color.YellowString("  (pending sync)")
			}
			fmt.Println(line)
		}
		if st.Total > len(st.Entries) {
			fmt.Printf("(%d of %d)\n", len(st.Entries), st.Total)
		}
		return nil
	},
}

var entryDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := theApp.entries.Delete(cmd.Context(), id); err != nil {
			return fmt.Errorf("failed to delete entry: %w", err)
		}
		color.Green("✓ Deleted entry %d", id)
		return nil
	},
}

var entryShowCmd = &cobra.Command{
	Use:   "show <date>",
	Short: "Show the entry for a date",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := theApp.entries.GetByDate(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if e == nil {
			fmt.Printf("No entry for %s.\n", args[0])
			return nil
		}
		fmt.Printf("%s (id %d)\n", e.EntryDate, e.ID)
		if e.Notes != nil && *e.Notes != "" {
			fmt.Printf("  notes: %s\n", *e.Notes)
		}
		for _, v := range e.Values {
			fmt.Printf("  metric %d: %s\n", v.MetricID, formatValue(v))
		}
		return nil
	},
}

// parseSetFlags turns --set id=value pairs into entry value payloads.
func parseSetFlags(pairs []string) ([]api.EntryValueCreate, error) {
	values := make([]api.EntryValueCreate, 0, len(pairs))
	for _, pair := range pairs {
		key, raw, found := strings.Cut(pair, "=")
		if !found {
			return nil, fmt.Errorf("invalid --set %q, want metric_id=value", pair)
		}
		metricID, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid metric id in --set %q", pair)
		}

		var value any
		switch raw {
		case "true", "false":
			value = raw == "true"
		default:
			if f, err := strconv.ParseFloat(raw, 64); err == nil {
				value = f
			} else {
				value = raw
			}
		}
		values = append(values, api.EntryValueCreate{MetricID: metricID, Value: value})
	}
	return values, nil
}

func formatValue(v models.EntryValue) string {
	switch {
	case v.ValueNumeric != nil:
		return strconv.FormatFloat(*v.ValueNumeric, 'f', -1, 64)
	case v.ValueBoolean != nil:
		return strconv.FormatBool(*v.ValueBoolean)
	case v.ValueText != nil:
		return *v.ValueText
	}
	return "-"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

func init() {
	logCmd.Flags().StringArrayVar(&logSet, "set", nil, "metric value as metric_id=value (repeatable)")
	logCmd.Flags().StringVar(&logNotes, "notes", "", "free-text notes for the day")
	entriesCmd.Flags().StringVar(&entriesFrom, "from", "", "start date (inclusive)")
	entriesCmd.Flags().StringVar(&entriesTo, "to", "", "end date (inclusive)")
	entriesCmd.Flags().IntVarP(&entriesNum, "limit", "n", 0, "maximum entries to fetch")

	entriesCmd.AddCommand(entryDeleteCmd)
	entriesCmd.AddCommand(entryShowCmd)
}
