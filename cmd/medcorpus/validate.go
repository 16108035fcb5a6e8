// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/medcorpus/internal/pipeline"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Normalize and validate every entity in the content directory",
	Long: `Validate loads every authored entity, normalizes its levels and checks
the full content contract: level completeness, level numbering, required
fields, glossary entries, citations, cross-references and duplicate ids.

Every violation of every entity is reported; the command exits non-zero
when any entity is rejected.`,
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	res, err := loadCorpus(cmd.Context())
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if err := formatValidateOutput(os.Stdout, res, jsonOutput); err != nil {
		return err
	}
	if failed := res.Failed(); failed > 0 {
		return fmt.Errorf("%d entity report(s) failed validation", failed)
	}
	return nil
}

// validateOutput is the JSON document written by validate --json.
type validateOutput struct {
	RunID   string           `json:"run_id"`
	Summary pipeline.Summary `json:"summary"`
	Reports any              `json:"reports"`
}

func formatValidateOutput(w io.Writer, res *pipeline.Result, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(validateOutput{
			RunID:   res.RunID,
			Summary: res.Summary(),
			Reports: res.Reports,
		})
	}

	for _, rep := range res.Reports {
		if rep.Admissible() {
			continue
		}
		id := rep.EntityID
		if id == "" {
			id = "(no id)"
		}
		fmt.Fprintf(w, "rejected %s (%s)\n", id, rep.Source)
		for _, e := range rep.Errors {
			if e.Path != "" {
				fmt.Fprintf(w, "  %-28s %s at %s\n", e.Kind, e.Message, e.Path)
			} else {
				fmt.Fprintf(w, "  %-28s %s\n", e.Kind, e.Message)
			}
		}
	}

	fmt.Fprintf(w, "\n%s\n", res.Summary())
	return nil
}

func init() {
	validateCmd.Flags().Bool("json", false, "output reports as JSON")
	rootCmd.AddCommand(validateCmd)
}
