// ABOUTME: CLI commands for exporting and importing the local cache as JSON.
// ABOUTME: Export includes the sync queue for inspection; import never restores it.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/feelink/internal/storage"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the local cache as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := theApp.db.ExportJSON()
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		if exportOutput == "" || exportOutput == "-" {
			fmt.Println(string(data))
			return nil
		}
		if err := os.WriteFile(exportOutput, data, 0600); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
		color.Green("✓ Exported to %s", exportOutput)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a JSON export into the local cache",
	Long: `Import a JSON export into the local cache. Records are upserted by ID;
the sync queue in the file is ignored, since replaying another device's
queued mutations is never safe.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read import: %w", err)
		}
		var snap storage.Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			return fmt.Errorf("parse import: %w", err)
		}
		if err := theApp.db.ImportAll(&snap); err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		color.Green("✓ Imported %d metrics, %d entries", len(snap.Metrics), len(snap.Entries))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "write to file instead of stdout")
}
