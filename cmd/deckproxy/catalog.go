// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deckproxy/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the card catalog built from --images and --catalog",
	Long: `Catalog builds the in-memory card catalog from an image folder and an
optional YAML card list, then runs queries against it. Use it to check how a
card name resolves before running proxies.`,
}

// --- search subcommand ---

var catalogSearchCmd = &cobra.Command{
	Use:   "search <name...>",
	Short: "Search the catalog by card name",
	Long: `Search matches every word of the query as a name prefix using FTS5
full-text search and prints the best matches with their image keys. When
nothing matches, the closest known name is suggested.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCatalogSearch,
}

var catalogFlags = map[string]string{
	"images":  "catalog.images_dir",
	"catalog": "catalog.file",
}

func runCatalogSearch(cmd *cobra.Command, args []string) error {
	if err := bindFlags(cmd, catalogFlags); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Catalog.Enabled() {
		return fmt.Errorf("--images or --catalog is required")
	}

	ctx := context.Background()
	cat, err := openCatalog(ctx, cfg.Catalog, logger)
	if err != nil {
		return err
	}
	defer cat.Close()

	query := strings.Join(args, " ")
	limit, _ := cmd.Flags().GetInt("limit")
	cards, err := cat.Search(ctx, query, limit)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		if cards == nil {
			cards = []catalog.Card{}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(cards)
	}

	if len(cards) == 0 {
		fmt.Printf("No cards match %q.\n", query)
		if s, ok := cat.Suggest(query); ok {
			fmt.Printf("Did you mean %q?\n", s)
		}
		return nil
	}
	printCards(os.Stdout, cards)
	return nil
}

func printCards(w io.Writer, cards []catalog.Card) {
	fmt.Fprintf(w, "%-4s  %-30s  %-20s  %-8s  %s\n", "Rank", "Name", "Key", "Section", "Image")
	fmt.Fprintln(w, strings.Repeat("-", 90))
	for i, c := range cards {
		name := c.Name
		if len(name) > 30 {
			name = name[:27] + "..."
		}
		section := c.Section
		if section == "" {
			section = "-"
		}
		fmt.Fprintf(w, "%-4d  %-30s  %-20s  %-8s  %s\n", i+1, name, c.Key, section, c.Image)
	}
	fmt.Fprintf(w, "\n%d cards\n", len(cards))
}

func init() {
	catalogSearchCmd.Flags().String("images", "", "folder of card images named by image key")
	catalogSearchCmd.Flags().String("catalog", "", "YAML card list")
	catalogSearchCmd.Flags().Int("limit", 10, "maximum number of results")
	catalogSearchCmd.Flags().Bool("json", false, "output results as JSON")

	catalogCmd.AddCommand(catalogSearchCmd)
	rootCmd.AddCommand(catalogCmd)
}
