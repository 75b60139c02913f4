// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package load

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/pdiddy/deckproxy/pkg/types"
)

// Grid used to position plain-text input: a 10pt monospace font with a
// 6pt advance, 12pt leading, starting at the top of an A4 page.
const (
	textFontSize = 10
	textAdvance  = 6
	textLeading  = 12
	textTop      = 800
	textLeft     = 36
)

// columnSep splits a text line into columns at tabs or runs of two or more
// spaces.
var columnSep = regexp.MustCompile(`\t+| {2,}`)

// LoadText reads a plain-text deck list. Form feeds separate pages. Each
// line is split into columns and every column becomes one fragment placed
// where a monospace rendering of the line would put it.
func LoadText(r io.Reader) ([]types.RawPage, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	pages := []types.RawPage{{Number: 1}}
	row := 0
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		for strings.Contains(line, "\f") {
			i := strings.Index(line, "\f")
			addLine(&pages[len(pages)-1], line[:i], row)
			pages = append(pages, types.RawPage{Number: len(pages) + 1})
			line = line[i+1:]
			row = 0
		}
		addLine(&pages[len(pages)-1], line, row)
		row++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading text: %w", err)
	}
	return pages, nil
}

func addLine(page *types.RawPage, line string, row int) {
	y := float64(textTop - row*textLeading)
	starts := columnStarts(line)
	for _, span := range starts {
		text := line[span[0]:span[1]]
		if strings.TrimSpace(text) == "" {
			continue
		}
		page.Fragments = append(page.Fragments, types.Fragment{
			Text:     text,
			X:        float64(textLeft + expandedColumn(line[:span[0]])*textAdvance),
			Y:        y,
			Width:    float64(len([]rune(text)) * textAdvance),
			FontSize: textFontSize,
			Seq:      len(page.Fragments),
		})
	}
}

// columnStarts returns the byte spans of the non-separator parts of line.
func columnStarts(line string) [][2]int {
	var spans [][2]int
	pos := 0
	for _, sep := range columnSep.FindAllStringIndex(line, -1) {
		if sep[0] > pos {
			spans = append(spans, [2]int{pos, sep[0]})
		}
		pos = sep[1]
	}
	if pos < len(line) {
		spans = append(spans, [2]int{pos, len(line)})
	}
	return spans
}

// expandedColumn is the display column of the end of prefix with tabs
// expanded to multiples of eight.
func expandedColumn(prefix string) int {
	col := 0
	for _, r := range prefix {
		if r == '\t' {
			col = (col/8 + 1) * 8
			continue
		}
		col++
	}
	return col
}
