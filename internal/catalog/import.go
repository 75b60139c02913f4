// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/deckproxy/internal/parse"
)

// imageExts are the card image formats the proxy writer can place.
var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// IndexImages adds every image file in dir as a card keyed by the image name
// of its base name, so "Anson (G1).jpg" is found as ansong1. Subdirectories are not scanned. When two files share a key, the
// first in name order wins.
func (c *Catalog) IndexImages(ctx context.Context, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("reading image directory %s: %w", dir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	seen := make(map[string]bool)
	n := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if !imageExts[ext] {
			continue
		}
		key := parse.ImageName(strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())))
		if key == "" {
			c.logger.Debug("catalog.image.skipped", "file", entry.Name())
			continue
		}
		if seen[key] {
			c.logger.Debug("catalog.image.shadowed", "key", key, "file", entry.Name())
			continue
		}
		seen[key] = true

		if err := ctx.Err(); err != nil {
			return n, err
		}
		if err := c.Put(ctx, Card{Key: key, Image: filepath.Join(dir, entry.Name())}); err != nil {
			return n, err
		}
		n++
	}
	c.logger.Info("catalog.images.indexed", "dir", dir, "cards", n)
	return n, nil
}

// cardListSchema describes the YAML card list accepted by Import.
const cardListSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["cards"],
	"additionalProperties": false,
	"properties": {
		"cards": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["name"],
				"additionalProperties": false,
				"properties": {
					"name": {"type": "string", "minLength": 1},
					"key": {"type": "string", "pattern": "^[a-z0-9-]+$"},
					"section": {"enum": ["crypt", "library"]},
					"group": {"type": "integer", "minimum": 1, "maximum": 7},
					"image": {"type": "string"}
				}
			}
		}
	}
}`

// cardList is the YAML card list document.
type cardList struct {
	Cards []listEntry `yaml:"cards"`
}

type listEntry struct {
	Name    string `yaml:"name"`
	Key     string `yaml:"key"`
	Section string `yaml:"section"`
	Group   int    `yaml:"group"`
	Image   string `yaml:"image"`
}

var schema = jsonschema.MustCompileString("card-list.json", cardListSchema)

// ImportFile reads a YAML card list from path. Relative image paths are
// resolved against the file's directory.
func (c *Catalog) ImportFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening card list: %w", err)
	}
	defer f.Close()
	return c.Import(ctx, f, filepath.Dir(path))
}

// Import reads a YAML card list, validates it against the card list
// schema and adds its cards. baseDir resolves relative image paths.
func (c *Catalog) Import(ctx context.Context, r io.Reader, baseDir string) (int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("reading card list: %w", err)
	}
	if err := validateList(data); err != nil {
		return 0, err
	}

	var list cardList
	if err := yaml.Unmarshal(data, &list); err != nil {
		return 0, fmt.Errorf("parsing card list: %w", err)
	}

	n := 0
	for _, e := range list.Cards {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		card := e.card(baseDir)
		if card.Key == "" {
			c.logger.Warn("catalog.import.skipped", "name", e.Name, "reason", "no usable key")
			continue
		}
		if err := c.Put(ctx, card); err != nil {
			return n, err
		}
		n++
	}
	c.logger.Info("catalog.list.imported", "cards", n)
	return n, nil
}

func (e listEntry) card(baseDir string) Card {
	key := e.Key
	if key == "" {
		key = parse.ImageName(e.Name)
		if key != "" && e.Group > 0 {
			if _, g := splitGroup(key); g == 0 {
				key = fmt.Sprintf("%sg%d", key, e.Group)
			}
		}
	}
	base, group := splitGroup(key)
	if e.Group > 0 {
		group = e.Group
	}
	image := e.Image
	if image != "" && !filepath.IsAbs(image) && baseDir != "" {
		image = filepath.Join(baseDir, image)
	}
	return Card{Key: key, Name: e.Name, Base: base, Group: group, Section: e.Section, Image: image}
}

// validateList checks YAML data against the card list schema. The YAML is
// round-tripped through JSON so the validator sees JSON value types.
func validateList(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing card list: %w", err)
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("converting card list: %w", err)
	}
	var v any
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("converting card list: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("card list does not match schema: %w", err)
	}
	return nil
}
