// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report serializes a types.Report. Every format lists every record
// in input order together with the summary counts, and marks unparsed
// records so they cannot be mistaken for parsed ones.
package report

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/deckproxy/pkg/types"
)

// encoder writes one report format.
type encoder func(w io.Writer, rep *types.Report) error

var encoders = map[types.ReportFormat]encoder{
	types.FormatText: writeText,
	types.FormatCSV:  writeCSV,
	types.FormatPDF:  writePDF,
	types.FormatJSON: writeJSON,
	types.FormatYAML: writeYAML,
	types.FormatXLSX: writeXLSX,
}

// ErrUnknownFormat is wrapped by WriteError when no encoder exists.
var ErrUnknownFormat = errors.New("unknown report format")

// Formats returns the supported formats, sorted.
func Formats() []types.ReportFormat {
	out := make([]types.ReportFormat, 0, len(encoders))
	for f := range encoders {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// FormatFromPath guesses a format from a file extension.
func FormatFromPath(path string) (types.ReportFormat, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		return types.FormatText, true
	case ".csv":
		return types.FormatCSV, true
	case ".pdf":
		return types.FormatPDF, true
	case ".json":
		return types.FormatJSON, true
	case ".yaml", ".yml":
		return types.FormatYAML, true
	case ".xlsx":
		return types.FormatXLSX, true
	}
	return "", false
}

// Write serializes rep to w. Any failure is a *types.WriteError.
func Write(w io.Writer, rep *types.Report, format types.ReportFormat) error {
	return write(w, "stream", rep, format)
}

func write(w io.Writer, target string, rep *types.Report, format types.ReportFormat) error {
	enc, ok := encoders[format]
	if !ok {
		return &types.WriteError{Target: target, Format: string(format), Err: ErrUnknownFormat}
	}
	if rep == nil {
		return &types.WriteError{Target: target, Format: string(format), Err: errors.New("nil report")}
	}
	bw := bufio.NewWriter(w)
	if err := enc(bw, rep); err != nil {
		return &types.WriteError{Target: target, Format: string(format), Err: err}
	}
	if err := bw.Flush(); err != nil {
		return &types.WriteError{Target: target, Format: string(format), Err: err}
	}
	return nil
}

// WriteFile writes rep to path through a temporary file in the same
// directory, renamed into place on success. A failed write leaves no file.
func WriteFile(path string, rep *types.Report, format types.ReportFormat) (err error) {
	fail := func(e error) error {
		return &types.WriteError{Target: path, Format: string(format), Err: e}
	}
	if _, ok := encoders[format]; !ok {
		return fail(ErrUnknownFormat)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fail(err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err := write(tmp, path, rep, format); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		return fail(err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fail(err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fail(err)
	}
	return nil
}

// unparsedMarker flags unparsed records in the tabular formats.
const unparsedMarker = "UNPARSED"

// describe renders a record's entry as one line of text.
func describe(r types.Record) string {
	switch e := r.Entry.(type) {
	case types.Metadata:
		return e.Key + ": " + e.Value
	case types.SectionHeader:
		s := "[" + string(e.Section) + "]"
		if e.Category != "" {
			s += " " + e.Category
		}
		if e.Declared >= 0 {
			s += fmt.Sprintf(" (declared %d)", e.Declared)
		}
		return s
	case types.CardEntry:
		where := string(e.Section)
		if e.Category != "" {
			where += "/" + e.Category
		}
		s := fmt.Sprintf("[%s] %dx %s", where, e.Quantity, e.Name)
		if e.Details != "" {
			s += " | " + e.Details
		}
		return s
	case types.Unparsed:
		return unparsedMarker + " " + strconv.Quote(e.Text)
	}
	return unparsedMarker
}

// imageOf returns the resolved image key of a card record, or "".
func imageOf(r types.Record) string {
	if r.Result.ImageName != "" {
		return r.Result.ImageName
	}
	if c, ok := r.Card(); ok {
		return c.ImageName
	}
	return ""
}

// imageCell shows the parsed image key of a card record and, when the
// catalog resolved a different one, the resolved key after an arrow.
func imageCell(r types.Record) string {
	c, ok := r.Card()
	if !ok {
		return ""
	}
	if r.Result.ImageName == "" || r.Result.ImageName == c.ImageName {
		return c.ImageName
	}
	if c.ImageName == "" {
		return r.Result.ImageName
	}
	return c.ImageName + " -> " + r.Result.ImageName
}

func sources(refs []types.FragmentRef) string {
	parts := make([]string, len(refs))
	for i, ref := range refs {
		parts[i] = ref.String()
	}
	return strings.Join(parts, " ")
}

func reasons(r types.Record) string {
	return strings.Join(r.Result.Reasons, "; ")
}

// formatValue renders a Field value as text.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case types.Section:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}

// summaryRows lists the summary as name/value pairs in a fixed order.
func summaryRows(s types.Summary) [][2]string {
	return [][2]string{
		{"records", strconv.Itoa(s.Records)},
		{"valid", strconv.Itoa(s.Valid)},
		{"warning", strconv.Itoa(s.Warning)},
		{"rejected", strconv.Itoa(s.Rejected)},
		{"unparsed", strconv.Itoa(s.Unparsed)},
		{"crypt_cards", strconv.Itoa(s.CryptCards)},
		{"library_cards", strconv.Itoa(s.LibraryCards)},
		{"dropped_fragments", strconv.Itoa(s.DroppedFragments)},
		{"dropped_lines", strconv.Itoa(s.DroppedLines)},
	}
}
