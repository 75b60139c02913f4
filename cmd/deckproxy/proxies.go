// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deckproxy/internal/pipeline"
	"github.com/pdiddy/deckproxy/internal/proxy"
)

var proxiesCmd = &cobra.Command{
	Use:   "proxies <file>",
	Short: "Lay out the card images of a deck list on printable sheets",
	Long: `Proxies checks a deck list, resolves every accepted card to an image
from --images (and optionally --catalog), and writes a PDF of A4 pages with
3 x 3 cards each. Crypt cards come first, then library cards, each sorted by
image name and repeated as many times as the deck lists them.

Rejected records are never printed. Cards with a warning are printed unless
--skip-warned is set. Cards with no known image are listed on stderr.`,
	Args: cobra.ExactArgs(1),
	RunE: runProxies,
}

var proxiesFlags = map[string]string{
	"output":      "proxy.output",
	"skip-warned": "proxy.skip_warned",
	"images":      "catalog.images_dir",
	"catalog":     "catalog.file",
	"duplicates":  "validator.duplicates",
}

func runProxies(cmd *cobra.Command, args []string) error {
	if err := bindFlags(cmd, proxiesFlags); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Catalog.Enabled() {
		return fmt.Errorf("--images or --catalog is required to find card images")
	}

	ctx := context.Background()
	cat, err := openCatalog(ctx, cfg.Catalog, logger)
	if err != nil {
		return err
	}
	defer cat.Close()

	rep, err := newPipeline(cfg, cat).Run(ctx, pipeline.Input{Path: args[0]})
	if err != nil {
		return err
	}

	cards, missing := proxy.Collect(rep.Records, cat, cfg.Proxy.SkipWarned)
	for _, m := range missing {
		fmt.Fprintf(os.Stderr, "missing image: %s (%s, %d copies)\n", m.Key, m.Section, m.Copies)
	}

	res, err := proxy.New(cfg.Proxy, logger).WriteFile(ctx, cfg.Proxy.Output, cards)
	if err != nil {
		return err
	}
	if res.Placed == 0 {
		fmt.Println("No card images to print.")
		return nil
	}
	fmt.Printf("Wrote %d cards on %d pages to %s\n", res.Placed, res.Pages, cfg.Proxy.Output)
	return nil
}

func init() {
	proxiesCmd.Flags().StringP("output", "o", "output.pdf", "proxy sheet PDF")
	proxiesCmd.Flags().Bool("skip-warned", false, "leave out cards whose record has a warning")
	proxiesCmd.Flags().String("images", "", "folder of card images named by image key")
	proxiesCmd.Flags().String("catalog", "", "YAML card list with image paths")
	proxiesCmd.Flags().String("duplicates", "reject", "duplicate card policy: reject or warn")

	rootCmd.AddCommand(proxiesCmd)
}
