// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/pdiddy/deckproxy/pkg/types"
)

// fieldColumns is the union of every entry variant's field names, in the
// order the CSV header lists them.
var fieldColumns = []string{
	"key", "value", "section", "category", "declared",
	"quantity", "name", "image_name", "details", "text",
}

// csvHeader returns the CSV column names.
func csvHeader() []string {
	h := []string{"seq", "line", "page", "kind", "status"}
	h = append(h, fieldColumns...)
	return append(h, "resolved_image", "reasons", "source")
}

// summaryTag opens the trailing summary rows.
const summaryTag = "#summary"

func writeCSV(w io.Writer, rep *types.Report) error {
	cw := csv.NewWriter(w)
	header := csvHeader()
	if err := cw.Write(header); err != nil {
		return err
	}

	pos := make(map[string]int, len(fieldColumns))
	for i, name := range fieldColumns {
		pos[name] = 5 + i
	}

	for _, r := range rep.Records {
		row := make([]string, len(header))
		row[0] = strconv.Itoa(r.Seq)
		row[1] = strconv.Itoa(r.Line)
		row[2] = strconv.Itoa(r.Page)
		row[3] = string(r.Kind())
		row[4] = string(r.Result.Effective())
		if r.Entry != nil {
			for _, f := range r.Entry.Fields() {
				if i, ok := pos[f.Name]; ok {
					row[i] = formatValue(f.Value)
				}
			}
		}
		n := len(header)
		row[n-3] = imageOf(r)
		row[n-2] = reasons(r)
		row[n-1] = sources(r.Source)
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	for _, kv := range summaryRows(rep.Summary) {
		row := make([]string, len(header))
		row[0], row[1], row[2] = summaryTag, kv[0], kv[1]
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
