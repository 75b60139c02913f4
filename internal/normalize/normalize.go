// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize groups the positioned fragments of each page into
// logical lines of clean text. Fragments are ordered by a total position
// key before grouping, so the physical order of the content stream never
// changes the result.
package normalize

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pdiddy/deckproxy/pkg/types"
)

// Stage names diagnostics produced here.
const Stage = "normalize"

// fallbackFontSize is used for gap thresholds when a fragment reports no
// font size.
const fallbackFontSize = 10

// Normalizer turns RawPages into NormalizedLines.
type Normalizer struct {
	cfg types.NormalizerConfig
}

// New creates a Normalizer. Zero values in cfg take the defaults.
func New(cfg types.NormalizerConfig) *Normalizer {
	def := types.DefaultPipelineConfig().Normalizer
	if cfg.LineTolerance <= 0 {
		cfg.LineTolerance = def.LineTolerance
	}
	if cfg.WordGap <= 0 {
		cfg.WordGap = def.WordGap
	}
	if cfg.ColumnGap <= 0 {
		cfg.ColumnGap = def.ColumnGap
	}
	if cfg.ColumnGap < cfg.WordGap {
		cfg.ColumnGap = cfg.WordGap
	}
	return &Normalizer{cfg: cfg}
}

// Result is the output of Normalize.
type Result struct {
	Lines       []types.NormalizedLine
	Diagnostics []types.Diagnostic

	// DroppedFragments counts fragments discarded for malformed positions
	// or because their whole line was blank.
	DroppedFragments int

	// Merged counts hyphenation joins.
	Merged int
}

// Normalize processes the pages in order. It never fails: problem
// fragments are dropped with a diagnostic.
func (n *Normalizer) Normalize(pages []types.RawPage) Result {
	var res Result
	var lines []pending
	for _, p := range pages {
		lines = append(lines, n.page(p, &res)...)
	}
	for _, l := range n.join(lines, &res) {
		res.Lines = append(res.Lines, l.finish(len(res.Lines)))
	}
	return res
}

// frag is a fragment that passed the position checks, with cleaned text.
type frag struct {
	types.Fragment
	page int
	text string
}

func (f frag) ref() types.FragmentRef { return types.FragmentRef{Page: f.page, Seq: f.Seq} }

func (f frag) size() float64 {
	if f.FontSize <= 0 {
		return fallbackFontSize
	}
	return f.FontSize
}

// pending is a line under construction. Columns keep their raw spacing
// until finish collapses them.
type pending struct {
	page    int
	columns []string
	sources []types.FragmentRef
}

func (p pending) text() string { return strings.Join(p.columns, " ") }

func (p pending) finish(index int) types.NormalizedLine {
	line := types.NormalizedLine{Page: p.page, Index: index, Sources: p.sources}
	for _, c := range p.columns {
		if c = collapse(c); c != "" {
			line.Columns = append(line.Columns, c)
		}
	}
	line.Text = strings.Join(line.Columns, " ")
	return line
}

func (n *Normalizer) page(p types.RawPage, res *Result) []pending {
	frags := make([]frag, 0, len(p.Fragments))
	for _, f := range p.Fragments {
		if err := checkPosition(f); err != nil {
			ne := &types.NormalizationError{Ref: types.FragmentRef{Page: p.Number, Seq: f.Seq}, Err: err}
			res.DroppedFragments++
			res.Diagnostics = append(res.Diagnostics, types.Diagnostic{Stage: Stage, Page: p.Number, Message: ne.Error()})
			continue
		}
		frags = append(frags, frag{Fragment: f, page: p.Number, text: Clean(f.Text)})
	}

	sort.Slice(frags, func(i, j int) bool {
		a, b := frags[i], frags[j]
		if a.Y != b.Y {
			return a.Y > b.Y
		}
		if a.X != b.X {
			return a.X < b.X
		}
		return a.Seq < b.Seq
	})

	var out []pending
	for _, row := range n.rows(frags) {
		line := n.build(row)
		if collapse(line.text()) == "" {
			res.DroppedFragments += len(row)
			res.Diagnostics = append(res.Diagnostics, types.Diagnostic{
				Stage:   Stage,
				Page:    p.Number,
				Message: fmt.Sprintf("dropped blank line of %d fragment(s) starting at %s", len(row), row[0].ref()),
			})
			continue
		}
		out = append(out, line)
	}
	return out
}

// checkPosition rejects fragments whose geometry cannot be placed.
func checkPosition(f types.Fragment) error {
	for _, v := range []float64{f.X, f.Y, f.Width, f.FontSize} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return types.ErrMalformed
		}
	}
	if f.Width < 0 || f.FontSize < 0 {
		return types.ErrMalformed
	}
	return nil
}

// rows groups Y-sorted fragments into rows. A fragment joins the current row
// when its baseline is within LineTolerance of the row's first fragment.
// Each row is returned in left-to-right order.
func (n *Normalizer) rows(frags []frag) [][]frag {
	var rows [][]frag
	var cur []frag
	for _, f := range frags {
		if len(cur) > 0 && math.Abs(cur[0].Y-f.Y) > n.cfg.LineTolerance {
			rows = append(rows, cur)
			cur = nil
		}
		cur = append(cur, f)
	}
	if len(cur) > 0 {
		rows = append(rows, cur)
	}
	for _, row := range rows {
		sort.SliceStable(row, func(i, j int) bool {
			if row[i].X != row[j].X {
				return row[i].X < row[j].X
			}
			return row[i].Y > row[j].Y
		})
	}
	return rows
}

// build joins a row's fragments. Gaps wider than WordGap font sizes become a
// space and gaps wider than ColumnGap font sizes start a new column.
func (n *Normalizer) build(row []frag) pending {
	line := pending{page: row[0].page}
	var col strings.Builder
	var end float64
	for i, f := range row {
		line.sources = append(line.sources, f.ref())
		if i == 0 {
			end = f.X + f.Width
		} else {
			gap := f.X - end
			size := f.size()
			switch {
			case gap > n.cfg.ColumnGap*size:
				line.columns = append(line.columns, col.String())
				col.Reset()
			case gap > n.cfg.WordGap*size:
				col.WriteByte(' ')
			}
			end = math.Max(end, f.X+f.Width)
		}
		col.WriteString(f.text)
	}
	line.columns = append(line.columns, col.String())
	return line
}

// join merges hyphenated line breaks: a line ending in a soft hyphen, or in
// a hyphen after a letter when the next line starts with a lowercase letter.
func (n *Normalizer) join(lines []pending, res *Result) []pending {
	var out []pending
	for i := 0; i < len(lines); i++ {
		cur := lines[i]
		for i+1 < len(lines) {
			next := lines[i+1]
			head, ok := hyphenated(cur, next)
			if !ok {
				break
			}
			last := len(cur.columns) - 1
			cur.columns[last] = head + strings.TrimLeftFunc(next.columns[0], unicode.IsSpace)
			cur.columns = append(cur.columns, next.columns[1:]...)
			cur.sources = append(cur.sources, next.sources...)
			res.Merged++
			res.Diagnostics = append(res.Diagnostics, types.Diagnostic{
				Stage:   Stage,
				Page:    next.page,
				Message: fmt.Sprintf("merged hyphenated line break at %s", next.sources[0]),
			})
			i++
		}
		out = append(out, cur)
	}
	return out
}

// hyphenated reports whether cur's last column ends in a line-break hyphen
// that next continues, and returns that column without the hyphen.
func hyphenated(cur, next pending) (string, bool) {
	last := strings.TrimRightFunc(cur.columns[len(cur.columns)-1], unicode.IsSpace)
	if strings.HasSuffix(last, string(softHyphen)) {
		return strings.TrimSuffix(last, string(softHyphen)), true
	}
	if !strings.HasSuffix(last, "-") {
		return "", false
	}
	body := strings.TrimSuffix(last, "-")
	r, _ := utf8.DecodeLastRuneInString(body)
	if !unicode.IsLetter(r) {
		return "", false
	}
	first, _ := utf8.DecodeRuneInString(strings.TrimLeftFunc(next.columns[0], unicode.IsSpace))
	if !unicode.IsLower(first) {
		return "", false
	}
	return body, true
}
