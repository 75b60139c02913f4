// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/pdiddy/deckproxy/pkg/types"
)

func writeText(w io.Writer, rep *types.Report) error {
	if _, err := fmt.Fprintf(w, "source:  %s\ndigest:  %s\nrun:     %s\npages:   %d\n\n",
		rep.Source, rep.Digest, rep.RunID, rep.Pages); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Seq", "Line", "Page", "Kind", "Status", "Content", "Image", "Reasons"})
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	for _, r := range rep.Records {
		table.Append([]string{
			strconv.Itoa(r.Seq),
			strconv.Itoa(r.Line),
			strconv.Itoa(r.Page),
			string(r.Kind()),
			string(r.Result.Effective()),
			describe(r),
			imageCell(r),
			reasons(r),
		})
	}
	table.Render()

	s := rep.Summary
	if _, err := fmt.Fprintf(w, "\n%d records: %d valid, %d warning, %d rejected, %d unparsed\n",
		s.Records, s.Valid, s.Warning, s.Rejected, s.Unparsed); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "cards:   crypt %d, library %d\ndropped: %d fragments, %d lines\n",
		s.CryptCards, s.LibraryCards, s.DroppedFragments, s.DroppedLines); err != nil {
		return err
	}

	if len(rep.Diagnostics) > 0 {
		if _, err := fmt.Fprintf(w, "\ndiagnostics:\n"); err != nil {
			return err
		}
		for _, d := range rep.Diagnostics {
			if _, err := fmt.Fprintf(w, "  [%s] p%d: %s\n", d.Stage, d.Page, d.Message); err != nil {
				return err
			}
		}
	}
	return nil
}
