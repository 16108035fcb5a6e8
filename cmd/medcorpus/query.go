// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/medcorpus/pkg/types"
)

// --- get subcommand ---

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Print one normalized entity",
	Long: `Get prints the normalized form of the entity registered under id, as
YAML by default or JSON with --json. Use --level to print a single level.`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	res, err := loadCorpus(cmd.Context())
	if err != nil {
		return err
	}
	e, err := res.Registry.GetByID(args[0])
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	level, _ := cmd.Flags().GetInt("level")
	if level != 0 {
		l, ok := e.Levels[level]
		if !ok {
			return fmt.Errorf("entity %s has no level %d", e.ID, level)
		}
		return writeLevel(os.Stdout, l, jsonOutput)
	}
	return encode(os.Stdout, e, jsonOutput)
}

func writeLevel(w io.Writer, l types.Level, jsonOutput bool) error {
	if jsonOutput {
		return encode(w, l, true)
	}
	fmt.Fprintf(w, "Level %d: %s\n\n%s\n", l.LevelNumber, l.Title, strings.TrimSpace(l.Body))
	if len(l.Glossary) > 0 {
		fmt.Fprintln(w, "\nGlossary:")
		for _, g := range l.Glossary {
			if g.Pronunciation != "" {
				fmt.Fprintf(w, "  %s (%s): %s\n", g.Term, g.Pronunciation, g.Definition)
			} else {
				fmt.Fprintf(w, "  %s: %s\n", g.Term, g.Definition)
			}
		}
	}
	return nil
}

func encode(w io.Writer, v any, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(v)
}

// --- list subcommand ---

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered entities, optionally by category",
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	res, err := loadCorpus(cmd.Context())
	if err != nil {
		return err
	}

	category, _ := cmd.Flags().GetString("category")
	var cats []types.Category
	if category != "" {
		cats = []types.Category{types.Category(category)}
	} else {
		cats = res.Registry.Categories()
	}

	n := 0
	for _, c := range cats {
		for _, e := range res.Registry.ListByCategory(c) {
			status := "ok"
			if !res.Admissible(e.ID) {
				status = "rejected"
			}
			fmt.Fprintf(os.Stdout, "%-24s  %-40s  %-8s  %s\n", c, e.ID, status, e.Name)
			n++
		}
	}
	fmt.Fprintf(os.Stdout, "\n%d entities\n", n)
	return nil
}

// --- referencing subcommand ---

var referencingCmd = &cobra.Command{
	Use:   "referencing <target-id>",
	Short: "List cross-references pointing at an entity",
	Args:  cobra.ExactArgs(1),
	RunE:  runReferencing,
}

func runReferencing(cmd *cobra.Command, args []string) error {
	res, err := loadCorpus(cmd.Context())
	if err != nil {
		return err
	}

	refs := res.Registry.ListReferencing(args[0])
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return encode(os.Stdout, refs, true)
	}
	if len(refs) == 0 {
		fmt.Println("No references found.")
		return nil
	}
	for _, r := range refs {
		fmt.Fprintf(os.Stdout, "%-40s  %-16s  %s\n", r.SourceID, r.Relationship, r.Label)
	}
	fmt.Fprintf(os.Stdout, "\n%d references\n", len(refs))
	return nil
}

func init() {
	getCmd.Flags().Bool("json", false, "output as JSON")
	getCmd.Flags().Int("level", 0, "print only this level (1-5)")
	listCmd.Flags().String("category", "", "only list this category")
	referencingCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(referencingCmd)
}
