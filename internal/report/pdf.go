// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"strconv"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/go-pdf/fpdf"

	"github.com/pdiddy/deckproxy/pkg/types"
)

const (
	pdfMargin     = 10.0
	pdfBottom     = 24.0 // room for the footer and QR code
	pdfFontSize   = 8.0
	pdfLineHeight = 3.8
	pdfPadding    = 1.0
	qrImageName   = "digest-qr"
	qrSize        = 16.0
)

// pdfColumn is one table column, width in millimeters.
type pdfColumn struct {
	title string
	width float64
	value func(types.Record) string
}

var pdfColumns = []pdfColumn{
	{"Seq", 11, func(r types.Record) string { return strconv.Itoa(r.Seq) }},
	{"Line", 11, func(r types.Record) string { return strconv.Itoa(r.Line) }},
	{"Page", 11, func(r types.Record) string { return strconv.Itoa(r.Page) }},
	{"Kind", 18, func(r types.Record) string { return string(r.Kind()) }},
	{"Status", 18, func(r types.Record) string { return string(r.Result.Effective()) }},
	{"Content", 90, describe},
	{"Image", 40, imageCell},
	{"Reasons", 78, reasons},
}

// fixedTime keeps the document metadata, and so the output bytes, stable.
var fixedTime = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// writePDF renders the report as a landscape A4 table. The footer carries
// the page number and a QR code of the input digest.
func writePDF(w io.Writer, rep *types.Report) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreationDate(fixedTime)
	pdf.SetModificationDate(fixedTime)
	pdf.SetCatalogSort(true)
	pdf.SetTitle("Deck report: "+rep.Source, true)
	pdf.SetCreator("deckproxy", true)
	pdf.AliasNbPages("")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	hasQR := false
	if rep.Digest != "" {
		img, err := digestQR(rep.Digest)
		if err != nil {
			return err
		}
		pdf.RegisterImageOptionsReader(qrImageName, fpdf.ImageOptions{ImageType: "PNG"}, img)
		hasQR = true
	}

	pdf.SetFooterFunc(func() {
		_, pageH := pdf.GetPageSize()
		if hasQR {
			pdf.ImageOptions(qrImageName, pdfMargin, pageH-pdfMargin-qrSize, qrSize, qrSize,
				false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
		}
		pdf.SetFont("Helvetica", "", 7)
		pdf.SetTextColor(96, 96, 96)
		pdf.SetXY(pdfMargin+qrSize+2, pageH-pdfMargin-4)
		pdf.CellFormat(0, 4, tr(fmt.Sprintf("sha256 %s", rep.Digest)), "", 0, "L", false, 0, "")
		pdf.SetXY(pdfMargin, pageH-pdfMargin-4)
		pdf.CellFormat(0, 4, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	})

	pdf.AddPage()
	pdfHeading(pdf, tr, rep)
	pdfTableHeader(pdf)

	_, pageH := pdf.GetPageSize()
	pdf.SetFont("Helvetica", "", pdfFontSize)
	for _, r := range rep.Records {
		cells := make([][]string, len(pdfColumns))
		lines := 1
		for i, col := range pdfColumns {
			cells[i] = splitCell(pdf, tr(col.value(r)), col.width-2*pdfPadding)
			if len(cells[i]) > lines {
				lines = len(cells[i])
			}
		}
		height := float64(lines)*pdfLineHeight + 2*pdfPadding

		if pdf.GetY()+height > pageH-pdfBottom {
			pdf.AddPage()
			pdfTableHeader(pdf)
			pdf.SetFont("Helvetica", "", pdfFontSize)
		}
		pdfRow(pdf, r, cells, height)
	}

	pdfSummary(pdf, rep, pageH)

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("rendering pdf: %w", err)
	}
	return pdf.Output(w)
}

// digestQR encodes the digest as a PNG QR code.
func digestQR(digest string) (io.Reader, error) {
	code, err := qr.Encode(digest, qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("encoding digest QR code: %w", err)
	}
	code, err = barcode.Scale(code, 256, 256)
	if err != nil {
		return nil, fmt.Errorf("scaling digest QR code: %w", err)
	}
	// fpdf reads 8-bit PNGs only; the scaled code is 16-bit gray.
	gray := image.NewGray(code.Bounds())
	draw.Draw(gray, gray.Bounds(), code, code.Bounds().Min, draw.Src)
	var buf bytes.Buffer
	if err := png.Encode(&buf, gray); err != nil {
		return nil, fmt.Errorf("encoding digest QR image: %w", err)
	}
	return &buf, nil
}

func pdfHeading(pdf *fpdf.Fpdf, tr func(string) string, rep *types.Report) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, tr("Deck report"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	for _, line := range []string{
		"Source: " + rep.Source,
		"Run: " + rep.RunID,
		fmt.Sprintf("Pages: %d", rep.Pages),
	} {
		pdf.CellFormat(0, 5, tr(line), "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)
}

func pdfTableHeader(pdf *fpdf.Fpdf) {
	pdf.SetFont("Helvetica", "B", pdfFontSize)
	pdf.SetFillColor(220, 220, 220)
	for _, col := range pdfColumns {
		pdf.CellFormat(col.width, pdfLineHeight+2*pdfPadding, col.title, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
}

// pdfRow draws one record. Unparsed rows are shaded yellow, rejected rows
// red.
func pdfRow(pdf *fpdf.Fpdf, r types.Record, cells [][]string, height float64) {
	x0, y0 := pdf.GetX(), pdf.GetY()
	fill := false
	switch {
	case r.Kind() == types.KindUnparsed:
		pdf.SetFillColor(255, 243, 205)
		fill = true
	case r.Result.Effective() == types.StatusRejected:
		pdf.SetFillColor(248, 215, 218)
		fill = true
	}

	x := x0
	for i, col := range pdfColumns {
		style := "D"
		if fill {
			style = "FD"
		}
		pdf.Rect(x, y0, col.width, height, style)
		for j, line := range cells[i] {
			pdf.SetXY(x+pdfPadding, y0+pdfPadding+float64(j)*pdfLineHeight)
			pdf.CellFormat(col.width-2*pdfPadding, pdfLineHeight, line, "", 0, "L", false, 0, "")
		}
		x += col.width
	}
	pdf.SetXY(x0, y0+height)
}

func pdfSummary(pdf *fpdf.Fpdf, rep *types.Report, pageH float64) {
	rows := summaryRows(rep.Summary)
	need := float64(len(rows)+2)*5 + float64(len(rep.Diagnostics))*4
	if pdf.GetY()+min(need, 60) > pageH-pdfBottom {
		pdf.AddPage()
	}
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(0, 6, "Summary", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	for _, kv := range rows {
		pdf.CellFormat(40, 5, kv[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(30, 5, kv[1], "", 1, "R", false, 0, "")
	}

	if len(rep.Diagnostics) == 0 {
		return
	}
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.Ln(3)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(0, 6, "Diagnostics", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	for _, d := range rep.Diagnostics {
		if pdf.GetY()+4 > pageH-pdfBottom {
			pdf.AddPage()
			pdf.SetFont("Helvetica", "", 8)
		}
		pdf.CellFormat(0, 4, tr(fmt.Sprintf("[%s] p%d: %s", d.Stage, d.Page, d.Message)), "", 1, "L", false, 0, "")
	}
}

// splitCell wraps text to width using the current font.
func splitCell(pdf *fpdf.Fpdf, text string, width float64) []string {
	if text == "" {
		return nil
	}
	raw := pdf.SplitLines([]byte(text), width)
	out := make([]string, len(raw))
	for i, b := range raw {
		out[i] = string(b)
	}
	return out
}
