// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/medcorpus/internal/export"
	"github.com/pdiddy/medcorpus/pkg/types"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the validated corpus to SQLite, YAML or JSON",
	Long: `Export runs the full pipeline and writes the registered entities to
<export-dir>/corpus.db, corpus.yaml or corpus.json for the rendering,
search and localization consumers. Rejected entities are left out unless
--include-invalid is given. The SQLite export also records the run and
every validation error.`,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	includeInvalid, _ := cmd.Flags().GetBool("include-invalid")

	res, err := loadCorpus(cmd.Context())
	if err != nil {
		return err
	}

	path, err := export.Write(cmd.Context(), res, types.ExportFormat(format), export.Options{
		Dir:            viper.GetString("export_dir"),
		IncludeInvalid: includeInvalid,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Exported to %s (%s)\n", path, res.Summary())
	return nil
}

func init() {
	exportCmd.Flags().String("format", "sqlite", "export format: sqlite, yaml or json")
	exportCmd.Flags().String("export-dir", "build", "directory for export artifacts")
	exportCmd.Flags().Bool("include-invalid", false, "also export entities that failed validation")
	viper.BindPFlag("export_dir", exportCmd.Flags().Lookup("export-dir"))

	rootCmd.AddCommand(exportCmd)
}
