// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deckproxy/internal/catalog"
	"github.com/pdiddy/deckproxy/internal/pipeline"
	"github.com/pdiddy/deckproxy/internal/report"
	"github.com/pdiddy/deckproxy/internal/secrets"
	"github.com/pdiddy/deckproxy/pkg/types"
)

var checkCmd = &cobra.Command{
	Use:   "check [files...]",
	Short: "Parse and validate deck lists and write a report",
	Long: `Check runs each deck list through the load, normalize, parse and
validate stages and writes a report in the selected format (text, csv, pdf,
json, yaml or xlsx).

With one input the report goes to --output, or to stdout. With several
inputs, one report per input is written to --output-dir.

The exit status is 0 when every deck was processed (warnings and rejections
included), 1 on a fatal error such as an unreadable or non-PDF input, and 2
when a deck has more rejected records than --max-rejected allows.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

// checkFlags maps check flags to config keys.
var checkFlags = map[string]string{
	"format":       "report.format",
	"output":       "report.output",
	"max-rejected": "report.max_rejected",
	"input-format": "loader.format",
	"strict":       "loader.strict",
	"duplicates":   "validator.duplicates",
	"max-copies":   "validator.max_copies",
	"images":       "catalog.images_dir",
	"catalog":      "catalog.file",
}

func runCheck(cmd *cobra.Command, args []string) error {
	if err := bindFlags(cmd, checkFlags); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("format") && cfg.Report.Output != "" && cfg.Report.Output != "-" {
		if f, ok := report.FormatFromPath(cfg.Report.Output); ok {
			cfg.Report.Format = f
		}
	}

	ctx := context.Background()
	cat, err := openCatalog(ctx, cfg.Catalog, logger)
	if err != nil {
		return err
	}
	if cat != nil {
		defer cat.Close()
	}
	p := newPipeline(cfg, cat)

	outDir, _ := cmd.Flags().GetString("output-dir")
	if len(args) > 1 || outDir != "" {
		return checkBatch(ctx, p, cfg, args, outDir)
	}
	return checkOne(ctx, p, cfg, args[0])
}

// newPipeline builds the pipeline with logging and the PDF password
// configured. cat may be nil.
func newPipeline(cfg types.PipelineConfig, cat *catalog.Catalog) *pipeline.Pipeline {
	opts := []pipeline.Option{
		pipeline.WithObserver(pipeline.NewSlogObserver(logger)),
		pipeline.WithPassword(secretDefault(secrets.PDFPassword, cfg.Loader.Password)),
	}
	if cat != nil {
		opts = append(opts, pipeline.WithCatalog(cat))
	}
	return pipeline.New(cfg, opts...)
}

func checkOne(ctx context.Context, p *pipeline.Pipeline, cfg types.PipelineConfig, path string) error {
	rep, err := p.Run(ctx, pipeline.Input{Path: path})
	if err != nil {
		return err
	}

	out := cfg.Report.Output
	if out == "" || out == "-" {
		err = report.Write(os.Stdout, rep, cfg.Report.Format)
	} else {
		err = report.WriteFile(out, rep, cfg.Report.Format)
	}
	if err != nil {
		return err
	}

	status := pipeline.Status(rep, cfg.Report.MaxRejected)
	s := rep.Summary
	fmt.Fprintf(os.Stderr, "%s: %s (%d records: %d valid, %d warning, %d rejected, %d unparsed)\n",
		path, status, s.Records, s.Valid, s.Warning, s.Rejected, s.Unparsed)
	if code := pipeline.ExitCode(status, nil); code != pipeline.ExitOK {
		return &exitError{code: code}
	}
	return nil
}

func checkBatch(ctx context.Context, p *pipeline.Pipeline, cfg types.PipelineConfig, paths []string, outDir string) error {
	if outDir == "" {
		return fmt.Errorf("--output-dir is required when checking several files")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	ext := "." + string(cfg.Report.Format)
	if cfg.Report.Format == types.FormatText {
		ext = ".txt"
	}
	summary := p.RunBatch(ctx, paths, os.Stdout, func(r pipeline.DocumentResult) error {
		base := strings.TrimSuffix(filepath.Base(r.Path), filepath.Ext(r.Path))
		return report.WriteFile(filepath.Join(outDir, base+ext), r.Report, cfg.Report.Format)
	})
	if code := summary.ExitCode(); code != pipeline.ExitOK {
		return &exitError{code: code}
	}
	return nil
}

func init() {
	checkCmd.Flags().StringP("format", "f", "text", "report format: text, csv, pdf, json, yaml, xlsx")
	checkCmd.Flags().StringP("output", "o", "", "report file (default: stdout); the extension selects the format when --format is not given")
	checkCmd.Flags().String("output-dir", "", "directory for one report per input")
	checkCmd.Flags().Int("max-rejected", -1, "rejected records tolerated before exiting with status 2 (-1 = unlimited)")
	checkCmd.Flags().String("input-format", "auto", "input format: auto, pdf or text")
	checkCmd.Flags().Bool("strict", false, "validate the PDF structure before extracting text")
	checkCmd.Flags().String("duplicates", "reject", "duplicate card policy: reject or warn")
	checkCmd.Flags().Int("max-copies", 0, "warn above this many copies of a card (0 = off)")
	checkCmd.Flags().String("images", "", "folder of card images used to resolve card names")
	checkCmd.Flags().String("catalog", "", "YAML card list used to resolve card names")

	rootCmd.AddCommand(checkCmd)
}
