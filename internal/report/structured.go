// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"encoding/json"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/deckproxy/pkg/types"
)

// reportView is the JSON and YAML shape of a report. Records carry their
// entry as an ordered field list since types.Record hides Entry.
type reportView struct {
	Source      string             `json:"source" yaml:"source"`
	Digest      string             `json:"digest" yaml:"digest"`
	RunID       string             `json:"run_id" yaml:"run_id"`
	Pages       int                `json:"pages" yaml:"pages"`
	Summary     types.Summary      `json:"summary" yaml:"summary"`
	Records     []recordView       `json:"records" yaml:"records"`
	Diagnostics []types.Diagnostic `json:"diagnostics" yaml:"diagnostics"`
}

type recordView struct {
	Seq       int           `json:"seq" yaml:"seq"`
	Line      int           `json:"line" yaml:"line"`
	Page      int           `json:"page" yaml:"page"`
	Kind      types.Kind    `json:"kind" yaml:"kind"`
	Fields    []types.Field `json:"fields" yaml:"fields"`
	Status    types.Status  `json:"status" yaml:"status"`
	Reasons   []string      `json:"reasons" yaml:"reasons"`
	ImageName string        `json:"image_name,omitempty" yaml:"image_name,omitempty"`
	Source    []string      `json:"source" yaml:"source"`
}

func newReportView(rep *types.Report) reportView {
	v := reportView{
		Source:      rep.Source,
		Digest:      rep.Digest,
		RunID:       rep.RunID,
		Pages:       rep.Pages,
		Summary:     rep.Summary,
		Records:     make([]recordView, len(rep.Records)),
		Diagnostics: rep.Diagnostics,
	}
	if v.Diagnostics == nil {
		v.Diagnostics = []types.Diagnostic{}
	}
	for i, r := range rep.Records {
		rv := recordView{
			Seq:       r.Seq,
			Line:      r.Line,
			Page:      r.Page,
			Kind:      r.Kind(),
			Fields:    []types.Field{},
			Status:    r.Result.Effective(),
			Reasons:   r.Result.Reasons,
			ImageName: imageOf(r),
			Source:    make([]string, len(r.Source)),
		}
		if r.Entry != nil {
			rv.Fields = r.Entry.Fields()
		}
		if rv.Reasons == nil {
			rv.Reasons = []string{}
		}
		for j, ref := range r.Source {
			rv.Source[j] = ref.String()
		}
		v.Records[i] = rv
	}
	return v
}

func writeJSON(w io.Writer, rep *types.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(newReportView(rep))
}

func writeYAML(w io.Writer, rep *types.Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(newReportView(rep)); err != nil {
		return err
	}
	return enc.Close()
}
