// ABOUTME: CLI commands for local preferences stored in user settings.
// ABOUTME: Settings are local-only, last-write-wins, never synced.
package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/feelink/internal/storage"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage local preferences",
	Long: `Manage local preferences such as theme and language.

Settings live only on this device and are never synced.`,
}

var settingsGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Show a preference",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := theApp.db.GetSetting(args[0])
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("setting %q is not set", args[0])
			}
			return err
		}
		var value any
		if err := json.Unmarshal(s.Value, &value); err != nil {
			return err
		}
		fmt.Printf("%v\n", value)
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a preference",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := json.Marshal(args[1])
		if err != nil {
			return err
		}
		if err := theApp.db.SetSetting(args[0], value); err != nil {
			return err
		}
		color.Green("✓ %s = %s", args[0], args[1])
		return nil
	},
}

var settingsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List preferences",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := theApp.db.AllSettings()
		if err != nil {
			return err
		}
		if len(settings) == 0 {
			fmt.Println("No settings.")
			return nil
		}
		for _, s := range settings {
			fmt.Printf("%-20s %s\n", s.Key, string(s.Value))
		}
		return nil
	},
}

func init() {
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsListCmd)
}
