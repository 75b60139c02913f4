// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/pdiddy/deckproxy/pkg/types"
)

// DocumentResult is the outcome for one document of a batch.
type DocumentResult struct {
	Path   string
	Report *types.Report // nil when Err is set
	Status Termination
	Err    error
}

// BatchSummary holds the outcome of a batch run.
type BatchSummary struct {
	Checked int // success
	Partial int
	Failed  int // fatal error or rejection threshold exceeded
	Results []DocumentResult
}

// Total returns the number of documents processed.
func (b BatchSummary) Total() int {
	return b.Checked + b.Partial + b.Failed
}

// HasFailures reports whether any document failed.
func (b BatchSummary) HasFailures() bool {
	return b.Failed > 0
}

// ExitCode is the worst exit code of the batch.
func (b BatchSummary) ExitCode() int {
	code := ExitOK
	for _, r := range b.Results {
		switch c := ExitCode(r.Status, r.Err); {
		case c == ExitFatal:
			return ExitFatal
		case c > code:
			code = c
		}
	}
	return code
}

// RunBatch processes paths one after another, printing one progress line
// per document and a summary line to w. Each document is independent: a
// failure does not stop the batch, but a cancelled context does.
// handle, when non-nil, is called with every successful report (for
// example to write it out); its error marks the document as failed.
func (p *Pipeline) RunBatch(ctx context.Context, paths []string, w io.Writer, handle func(DocumentResult) error) BatchSummary {
	var b BatchSummary
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			b.Failed++
			b.Results = append(b.Results, DocumentResult{Path: path, Err: err})
			fmt.Fprintf(w, "failed:  %s (%v)\n", path, err)
			continue
		}

		res := DocumentResult{Path: path}
		res.Report, res.Err = p.Run(ctx, Input{Path: path})
		if res.Err == nil {
			res.Status = Status(res.Report, p.cfg.Report.MaxRejected)
			if handle != nil {
				if err := handle(res); err != nil {
					res.Err = err
				}
			}
		}

		switch {
		case res.Err != nil:
			b.Failed++
			fmt.Fprintf(w, "failed:  %s (%v)\n", path, res.Err)
		case res.Status == Failure:
			b.Failed++
			fmt.Fprintf(w, "failed:  %s (%d rejected)\n", path, res.Report.Summary.Rejected)
		case res.Status == Partial:
			b.Partial++
			s := res.Report.Summary
			fmt.Fprintf(w, "partial: %s (%d records, %d warning, %d rejected)\n", path, s.Records, s.Warning, s.Rejected)
		default:
			b.Checked++
			fmt.Fprintf(w, "checked: %s (%d records)\n", path, res.Report.Summary.Records)
		}
		b.Results = append(b.Results, res)
	}

	fmt.Fprintf(w, "\nBatch summary: %d checked, %d partial, %d failed (total: %d)\n",
		b.Checked, b.Partial, b.Failed, b.Total())
	return b
}
