// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package proxy lays card images out on printable A4 sheets.
package proxy

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"golang.org/x/image/webp"

	"github.com/pdiddy/deckproxy/pkg/types"
)

// ImageSource resolves an image key to a file path. *catalog.Catalog
// satisfies it.
type ImageSource interface {
	Image(key string) (string, bool)
}

// Card is one distinct card image to print Copies times.
type Card struct {
	Key     string
	Section types.Section
	Image   string
	Copies  int
}

// Missing is a card that could not be printed because no image is known.
type Missing struct {
	Key     string
	Section types.Section
	Copies  int
}

// Collect picks the printable cards from validated records: crypt first,
// then library, each sorted by image key. Rejected records are skipped, as
// are warned ones when skipWarned is set. Quantities of the same key in the
// same section add up.
func Collect(records []types.Record, images ImageSource, skipWarned bool) ([]Card, []Missing) {
	type key struct {
		section types.Section
		image   string
	}
	copies := make(map[key]int)
	for _, r := range records {
		c, ok := r.Card()
		if !ok || c.Quantity < 1 {
			continue
		}
		switch r.Result.Effective() {
		case types.StatusRejected:
			continue
		case types.StatusWarning:
			if skipWarned {
				continue
			}
		}
		img := r.Result.ImageName
		if img == "" {
			img = c.ImageName
		}
		if img == "" {
			continue
		}
		copies[key{section: c.Section, image: img}] += c.Quantity
	}

	keys := make([]key, 0, len(copies))
	for k := range copies {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].section != keys[j].section {
			return keys[i].section == types.SectionCrypt
		}
		return keys[i].image < keys[j].image
	})

	var cards []Card
	var missing []Missing
	for _, k := range keys {
		path, ok := "", false
		if images != nil {
			path, ok = images.Image(k.image)
		}
		if !ok {
			missing = append(missing, Missing{Key: k.image, Section: k.section, Copies: copies[k]})
			continue
		}
		cards = append(cards, Card{Key: k.image, Section: k.section, Image: path, Copies: copies[k]})
	}
	return cards, missing
}

// Result describes a written proxy sheet.
type Result struct {
	Pages  int
	Placed int
}

// Writer renders proxy sheets.
type Writer struct {
	cfg    types.ProxyConfig
	logger *slog.Logger
}

// New creates a Writer. Zero layout values take the defaults. logger may
// be nil.
func New(cfg types.ProxyConfig, logger *slog.Logger) *Writer {
	def := types.DefaultPipelineConfig().Proxy
	if cfg.CardWidth <= 0 {
		cfg.CardWidth = def.CardWidth
	}
	if cfg.CardHeight <= 0 {
		cfg.CardHeight = def.CardHeight
	}
	if cfg.Columns <= 0 {
		cfg.Columns = def.Columns
	}
	if cfg.Rows <= 0 {
		cfg.Rows = def.Rows
	}
	if cfg.Gap < 0 {
		cfg.Gap = def.Gap
	}
	if cfg.OffsetX < 0 {
		cfg.OffsetX = def.OffsetX
	}
	if cfg.OffsetY < 0 {
		cfg.OffsetY = def.OffsetY
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{cfg: cfg, logger: logger}
}

const pointsPerMM = 72 / 25.4

// slot returns the page index and top-left position, in points, of the
// i-th card.
func (w *Writer) slot(i int) (page int, x, y float64) {
	perPage := w.cfg.Columns * w.cfg.Rows
	page = i / perPage
	n := i % perPage
	row, col := n/w.cfg.Columns, n%w.cfg.Columns
	cw, ch := w.cfg.CardWidth*pointsPerMM, w.cfg.CardHeight*pointsPerMM
	x = w.cfg.OffsetX + float64(col)*(cw+w.cfg.Gap)
	y = w.cfg.OffsetY + float64(row)*(ch+w.cfg.Gap)
	return page, x, y
}

var fixedTime = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// Write renders cards, each repeated Copies times, and writes the PDF to
// out. No cards yields no output and no error.
func (w *Writer) Write(ctx context.Context, out io.Writer, cards []Card) (Result, error) {
	total := 0
	for _, c := range cards {
		total += c.Copies
	}
	if total == 0 {
		w.logger.Warn("proxy.sheet.empty")
		return Result{}, nil
	}

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreationDate(fixedTime)
	pdf.SetModificationDate(fixedTime)
	pdf.SetCatalogSort(true)
	pdf.SetCreator("deckproxy", true)

	cw, ch := w.cfg.CardWidth*pointsPerMM, w.cfg.CardHeight*pointsPerMM
	var res Result
	i := 0
	for _, c := range cards {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		opts, err := register(pdf, c.Image)
		if err != nil {
			return res, fmt.Errorf("card %s: %w", c.Key, err)
		}
		for n := 0; n < c.Copies; n++ {
			page, x, y := w.slot(i)
			if page >= res.Pages {
				pdf.AddPage()
				res.Pages++
			}
			pdf.ImageOptions(c.Image, x, y, cw, ch, false, opts, 0, "")
			i++
			res.Placed++
		}
		if err := pdf.Error(); err != nil {
			return res, fmt.Errorf("card %s: placing %s: %w", c.Key, c.Image, err)
		}
	}

	if err := pdf.Output(out); err != nil {
		return res, fmt.Errorf("writing proxy sheet: %w", err)
	}
	w.logger.Info("proxy.sheet.written", "pages", res.Pages, "cards", res.Placed)
	return res, nil
}

// WriteFile writes the proxy sheet to path.
func (w *Writer) WriteFile(ctx context.Context, path string, cards []Card) (Result, error) {
	var buf bytes.Buffer
	res, err := w.Write(ctx, &buf, cards)
	if err != nil || res.Placed == 0 {
		return res, err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return res, fmt.Errorf("writing %s: %w", path, err)
	}
	return res, nil
}

// register makes an image file available under its path. WebP files are
// decoded and re-encoded as PNG since fpdf does not read WebP.
func register(pdf *fpdf.Fpdf, path string) (fpdf.ImageOptions, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return fpdf.ImageOptions{ImageType: "JPG"}, nil
	case ".png":
		return fpdf.ImageOptions{ImageType: "PNG"}, nil
	case ".webp":
		opts := fpdf.ImageOptions{ImageType: "PNG"}
		if pdf.GetImageInfo(path) != nil {
			return opts, nil
		}
		f, err := os.Open(path)
		if err != nil {
			return opts, err
		}
		defer f.Close()
		img, err := webp.Decode(f)
		if err != nil {
			return opts, fmt.Errorf("decoding %s: %w", path, err)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return opts, fmt.Errorf("converting %s: %w", path, err)
		}
		pdf.RegisterImageOptionsReader(path, opts, &buf)
		return opts, nil
	}
	return fpdf.ImageOptions{}, fmt.Errorf("unsupported image type %q", filepath.Ext(path))
}
