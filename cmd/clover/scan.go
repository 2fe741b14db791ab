package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Gobusters/ectologger"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Ramsey-B/clover/config"
	"github.com/Ramsey-B/clover/internal/repositories/agent"
	"github.com/Ramsey-B/clover/pkg/importer"
	"github.com/Ramsey-B/clover/pkg/models"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan a spreadsheet for duplicates without writing anything",
	Long: `Parse an .xlsx or .csv file of new agents and classify each one against an
existing pool: a second spreadsheet given with --against, or the configured
database otherwise. Nothing is written to the database.

Examples:
  clover scan --file new.xlsx --against registry.xlsx
  clover scan --file new.csv --json
  clover scan --file new.xlsx --output review.xlsx`,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		against, _ := cmd.Flags().GetString("against")
		asJSON, _ := cmd.Flags().GetBool("json")
		output, _ := cmd.Flags().GetString("output")

		cfg, logger, flush, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		defer flush()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		detector, err := newDetector(cfg, logger)
		if err != nil {
			return err
		}
		parser := importer.NewParser(logger, importer.Options{Charset: cfg.ImportCSVCharset})

		incoming, err := parseSpreadsheet(ctx, parser, file)
		if err != nil {
			return err
		}

		pool, err := loadPool(ctx, cfg, logger, parser, against)
		if err != nil {
			return err
		}

		annotated, err := detector.Detect(ctx, incoming.Agents, pool)
		if err != nil {
			return err
		}

		if output != "" {
			if err := writeReportFile(output, annotated); err != nil {
				return err
			}
		}

		if asJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(annotated)
		}

		printScan(os.Stdout, filepath.Base(file), len(pool), annotated, incoming.Warnings)
		if output != "" {
			fmt.Printf("Report written to %s\n", output)
		}
		return nil
	},
}

func init() {
	scanCmd.Flags().String("file", "", "Spreadsheet of new agents (.xlsx or .csv)")
	scanCmd.Flags().String("against", "", "Spreadsheet of existing agents; the database is used when empty")
	scanCmd.Flags().Bool("json", false, "Print the annotated agents as JSON")
	scanCmd.Flags().String("output", "", "Write an .xlsx review report to this path")
	_ = scanCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(scanCmd)
}

func parseSpreadsheet(ctx context.Context, parser *importer.Parser, path string) (*importer.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	result, err := parser.ParseFile(ctx, filepath.Base(path), f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return result, nil
}

// loadPool returns the existing agents. Spreadsheet rows have no stored ID so
// they are identified as "<file>#<n>", n counting parsed agents from 1.
func loadPool(ctx context.Context, cfg *config.Config, logger ectologger.Logger, parser *importer.Parser, against string) ([]models.Agent, error) {
	if against != "" {
		existing, err := parseSpreadsheet(ctx, parser, against)
		if err != nil {
			return nil, err
		}
		return withSheetIDs(filepath.Base(against), existing.Agents), nil
	}

	db, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()

	return agent.NewRepository(db, logger).ListAll(ctx)
}

func withSheetIDs(name string, pool []models.Agent) []models.Agent {
	for i := range pool {
		if pool[i].ID == "" {
			pool[i].ID = fmt.Sprintf("%s#%d", name, i+1)
		}
	}
	return pool
}

func writeReportFile(path string, annotated []models.AnnotatedAgent) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := importer.WriteReport(f, annotated); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func printScan(w io.Writer, name string, poolSize int, annotated []models.AnnotatedAgent, warnings []models.ImportWarning) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	fmt.Fprintf(w, "\n%s\n\n", cyan(fmt.Sprintf("=== Duplicate scan: %s ===", name)))
	fmt.Fprintf(w, "%-4s %-32s %-6s %-20s %s\n", "#", "Agent", "Score", "Matched", "Reason")

	duplicates := 0
	for i, a := range annotated {
		icon := green("✓")
		if a.IsDuplicate {
			icon = red("✗")
			duplicates++
		} else if a.MatchedRecordID != nil {
			icon = yellow("~")
		}

		matched := "-"
		if a.MatchedRecordID != nil {
			matched = *a.MatchedRecordID
		}
		reason := a.DuplicateReason
		if reason == "" {
			reason = gray("no similar agent")
		}

		fmt.Fprintf(w, "%-4d %-32s %-6s %-20s %s %s\n",
			i+1, truncate(a.Agent.FullName(), 32), fmt.Sprintf("%.2f", a.DuplicateScore), truncate(matched, 20), icon, reason)
	}

	if len(warnings) > 0 {
		fmt.Fprintf(w, "\n%s\n", yellow("Warnings:"))
		for _, warning := range warnings {
			fmt.Fprintf(w, "  row %d: %s\n", warning.Row, warning.Message)
		}
	}

	fmt.Fprintf(w, "\nTotal: %d agents, %s duplicates, pool of %d\n", len(annotated), red(fmt.Sprintf("%d", duplicates)), poolSize)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
