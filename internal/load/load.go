// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package load turns a deck-list document into positioned text fragments.
// PDF input is read with github.com/ledongthuc/pdf; plain-text deck lists
// are laid out on a fixed character grid so the later stages see the same
// shape of data.
package load

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/pdiddy/deckproxy/pkg/types"
)

// pdfMagic is the header every PDF file starts with.
const pdfMagic = "%PDF-"

// charWidth is the advance assumed per rune, as a fraction of the font
// size, when a font carries no width table.
const charWidth = 0.5

// Loader reads documents into RawPages.
type Loader struct {
	cfg      types.LoaderConfig
	password string
}

// New creates a Loader. password is used for encrypted PDFs when the config
// does not carry one.
func New(cfg types.LoaderConfig, password string) *Loader {
	if cfg.Format == "" {
		cfg.Format = types.InputAuto
	}
	if cfg.Password != "" {
		password = cfg.Password
	}
	return &Loader{cfg: cfg, password: password}
}

// Document is a loaded input together with its raw bytes, which the
// pipeline hashes for the report digest.
type Document struct {
	Source string
	Data   []byte
	Pages  []types.RawPage
}

// LoadFile reads the file at path. The file is closed on every return path.
func (l *Loader) LoadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &types.LoadError{Source: path, Err: err}
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, &types.LoadError{Source: path, Err: fmt.Errorf("reading: %w", err)}
	}
	return l.LoadBytes(path, data)
}

// LoadBytes loads an in-memory document. source names it in errors and in
// the report.
func (l *Loader) LoadBytes(source string, data []byte) (*Document, error) {
	var (
		pages []types.RawPage
		err   error
	)
	if l.formatFor(source) == types.InputText {
		pages, err = LoadText(bytes.NewReader(data))
	} else {
		pages, err = l.loadPDF(source, data)
	}
	if err != nil {
		var le *types.LoadError
		if errors.As(err, &le) {
			if le.Source == "" {
				le.Source = source
			}
			return nil, le
		}
		return nil, &types.LoadError{Source: source, Err: err}
	}
	return &Document{Source: source, Data: data, Pages: pages}, nil
}

func (l *Loader) formatFor(source string) types.InputFormat {
	if l.cfg.Format != types.InputAuto {
		return l.cfg.Format
	}
	if strings.EqualFold(filepath.Ext(source), ".txt") {
		return types.InputText
	}
	return types.InputPDF
}

func (l *Loader) loadPDF(source string, data []byte) ([]types.RawPage, error) {
	// Readers tolerate a little garbage before the header, as viewers do.
	if !bytes.Contains(data[:min(len(data), 1024)], []byte(pdfMagic)) {
		return nil, types.ErrNotPDF
	}
	r := bytes.NewReader(data)
	if l.cfg.Strict {
		if err := preflight(r, l.password); err != nil {
			return nil, err
		}
	}
	if l.password != "" && encrypted(data) {
		plain, err := decrypt(r, l.password)
		if err != nil {
			return nil, err
		}
		data = plain
	}
	return Load(bytes.NewReader(data), int64(len(data)), l.password)
}

// encrypted reports whether the trailer references an encryption
// dictionary.
func encrypted(data []byte) bool {
	return bytes.Contains(data, []byte("/Encrypt"))
}

// Load extracts the pages of the PDF read from r. An encrypted document
// without a password fails with ErrEncrypted. Stream decryption is left to
// the Loader, which decrypts with pdfcpu before calling Load.
func Load(r io.ReaderAt, size int64, password string) ([]types.RawPage, error) {
	reader, err := pdf.NewReaderEncrypted(r, size, passwordOnce(password))
	if err != nil {
		if errors.Is(err, pdf.ErrInvalidPassword) {
			return nil, types.ErrEncrypted
		}
		return nil, fmt.Errorf("%w: %v", types.ErrNotPDF, err)
	}

	n := reader.NumPage()
	if n == 0 {
		return nil, types.ErrEmptyDocument
	}

	pages := make([]types.RawPage, 0, n)
	for i := 1; i <= n; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, types.RawPage{Number: i})
			continue
		}
		texts, err := pageTexts(page)
		if err != nil {
			return nil, &types.LoadError{Page: i, Err: err}
		}
		pages = append(pages, types.RawPage{Number: i, Fragments: coalesce(texts)})
	}
	return pages, nil
}

// passwordOnce offers the password a single time; the reader stops asking
// once it gets an empty string.
func passwordOnce(password string) func() string {
	offered := false
	return func() string {
		if offered || password == "" {
			return ""
		}
		offered = true
		return password
	}
}

// pageTexts interprets the page content stream. The pdf package panics on
// content it cannot interpret, so the panic is turned into an error.
func pageTexts(page pdf.Page) (texts []pdf.Text, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("interpreting content stream: %v", r)
		}
	}()
	return page.Content().Text, nil
}

// coalesce merges consecutive glyphs of the same show operation into one
// fragment. Glyphs belong together when they share font, size and baseline
// and each starts where the previous one ended, or at the same X when the
// font has no width table.
func coalesce(texts []pdf.Text) []types.Fragment {
	var (
		frags []types.Fragment
		cur   *types.Fragment
		end   float64
		font  string
	)
	flush := func() {
		if cur == nil {
			return
		}
		if cur.Width <= 0 {
			cur.Width = estimateWidth(cur.Text, cur.FontSize)
		}
		frags = append(frags, *cur)
		cur = nil
	}

	for _, t := range texts {
		if t.S == "" {
			continue
		}
		if cur != nil && continues(cur, font, end, t) {
			cur.Text += t.S
			end = math.Max(end, t.X+t.W)
			cur.Width = end - cur.X
			continue
		}
		flush()
		cur = &types.Fragment{
			Text:     t.S,
			X:        t.X,
			Y:        t.Y,
			Width:    t.W,
			FontSize: t.FontSize,
			Seq:      len(frags),
		}
		font = t.Font
		end = t.X + t.W
	}
	flush()
	return frags
}

func continues(cur *types.Fragment, font string, end float64, t pdf.Text) bool {
	if t.Font != font || t.FontSize != cur.FontSize {
		return false
	}
	if math.Abs(t.Y-cur.Y) > 0.01 {
		return false
	}
	slack := 0.1 * math.Max(cur.FontSize, 1)
	return t.X >= cur.X-0.01 && t.X <= end+slack
}

func estimateWidth(s string, fontSize float64) float64 {
	return float64(len([]rune(s))) * fontSize * charWidth
}
