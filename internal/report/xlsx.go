// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"archive/zip"
	"bytes"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/deckproxy/pkg/types"
)

const (
	recordsSheet     = "Records"
	summarySheet     = "Summary"
	diagnosticsSheet = "Diagnostics"
)

// writeXLSX writes a workbook with a records sheet, a summary sheet and a
// diagnostics sheet. Unparsed rows are filled yellow, rejected rows red.
func writeXLSX(w io.Writer, rep *types.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", recordsSheet); err != nil {
		return err
	}
	for _, name := range []string{summarySheet, diagnosticsSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	unparsed, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Italic: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFF3CD"}},
	})
	if err != nil {
		return err
	}
	rejected, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"F8D7DA"}},
	})
	if err != nil {
		return err
	}

	header := csvHeader()
	if err := setRow(f, recordsSheet, 1, header); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(recordsSheet, "A1", last, bold); err != nil {
		return err
	}

	pos := make(map[string]int, len(fieldColumns))
	for i, name := range fieldColumns {
		pos[name] = 6 + i
	}
	for i, r := range rep.Records {
		row := i + 2
		values := make([]any, len(header))
		values[0], values[1], values[2] = r.Seq, r.Line, r.Page
		values[3], values[4] = string(r.Kind()), string(r.Result.Effective())
		if r.Entry != nil {
			for _, fld := range r.Entry.Fields() {
				if col, ok := pos[fld.Name]; ok {
					values[col-1] = cellValue(fld.Value)
				}
			}
		}
		n := len(header)
		values[n-3], values[n-2], values[n-1] = imageOf(r), reasons(r), sources(r.Source)
		for col, v := range values {
			if v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(recordsSheet, cell, v); err != nil {
				return err
			}
		}

		style := 0
		switch {
		case r.Kind() == types.KindUnparsed:
			style = unparsed
		case r.Result.Effective() == types.StatusRejected:
			style = rejected
		}
		if style != 0 {
			first, _ := excelize.CoordinatesToCellName(1, row)
			end, _ := excelize.CoordinatesToCellName(len(header), row)
			if err := f.SetCellStyle(recordsSheet, first, end, style); err != nil {
				return err
			}
		}
	}
	_ = f.SetColWidth(recordsSheet, "L", "L", 32) // name
	_ = f.SetColWidth(recordsSheet, "O", "O", 40) // text
	_ = f.SetColWidth(recordsSheet, "Q", "Q", 48) // reasons

	meta := [][2]string{
		{"source", rep.Source},
		{"digest", rep.Digest},
		{"run_id", rep.RunID},
	}
	row := 1
	for _, kv := range meta {
		if err := setRow(f, summarySheet, row, []string{kv[0], kv[1]}); err != nil {
			return err
		}
		row++
	}
	cell, _ := excelize.CoordinatesToCellName(1, row)
	if err := f.SetCellValue(summarySheet, cell, "pages"); err != nil {
		return err
	}
	cell, _ = excelize.CoordinatesToCellName(2, row)
	if err := f.SetCellValue(summarySheet, cell, rep.Pages); err != nil {
		return err
	}
	row++
	for _, kv := range summaryRows(rep.Summary) {
		if err := setRow(f, summarySheet, row, []string{kv[0], kv[1]}); err != nil {
			return err
		}
		row++
	}
	_ = f.SetColWidth(summarySheet, "A", "A", 18)
	_ = f.SetColWidth(summarySheet, "B", "B", 66)

	if err := setRow(f, diagnosticsSheet, 1, []string{"stage", "page", "message"}); err != nil {
		return err
	}
	if err := f.SetCellStyle(diagnosticsSheet, "A1", "C1", bold); err != nil {
		return err
	}
	for i, d := range rep.Diagnostics {
		r := i + 2
		for col, v := range []any{d.Stage, d.Page, d.Message} {
			cell, _ := excelize.CoordinatesToCellName(col+1, r)
			if err := f.SetCellValue(diagnosticsSheet, cell, v); err != nil {
				return err
			}
		}
	}
	_ = f.SetColWidth(diagnosticsSheet, "C", "C", 80)

	f.SetActiveSheet(0)
	stamp := fixedTime.Format("2006-01-02T15:04:05Z")
	if err := f.SetDocProps(&excelize.DocProperties{
		Creator:        "deckproxy",
		LastModifiedBy: "deckproxy",
		Title:          "Deck report: " + rep.Source,
		Created:        stamp,
		Modified:       stamp,
	}); err != nil {
		return err
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return err
	}
	return canonicalZip(w, buf.Bytes())
}

// canonicalZip rewrites a workbook archive with its entries sorted by name
// and fixed timestamps, so equal workbooks give equal bytes.
func canonicalZip(w io.Writer, data []byte) error {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return err
	}
	files := append([]*zip.File(nil), zr.File...)
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	zw := zip.NewWriter(w)
	for _, zf := range files {
		dst, err := zw.CreateHeader(&zip.FileHeader{
			Name:     zf.Name,
			Method:   zip.Deflate,
			Modified: fixedTime,
		})
		if err != nil {
			return err
		}
		src, err := zf.Open()
		if err != nil {
			return err
		}
		_, err = io.Copy(dst, src)
		src.Close()
		if err != nil {
			return err
		}
	}
	return zw.Close()
}

func setRow(f *excelize.File, sheet string, row int, values []string) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

// cellValue keeps integers numeric in the sheet.
func cellValue(v any) any {
	switch x := v.(type) {
	case int:
		return x
	case types.Section:
		return string(x)
	case nil:
		return nil
	default:
		return formatValue(x)
	}
}
