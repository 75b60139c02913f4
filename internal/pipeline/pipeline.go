// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs the deck-list stages in order:
//
//	load -> normalize -> parse -> validate
//
// and assembles the resulting types.Report. A fatal error stops the run and
// no report is returned.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/deckproxy/internal/load"
	"github.com/pdiddy/deckproxy/internal/normalize"
	"github.com/pdiddy/deckproxy/internal/parse"
	"github.com/pdiddy/deckproxy/internal/validate"
	"github.com/pdiddy/deckproxy/pkg/types"
)

// runNamespace scopes the name-based run IDs.
var runNamespace = uuid.MustParse("3c2f8e61-5d0a-4a53-9f3e-6b1d7c0e2a94")

// RunID derives the run identifier from an input digest.
func RunID(digest string) string {
	return uuid.NewSHA1(runNamespace, []byte(digest)).String()
}

// Pipeline holds the configured stages. It keeps no per-run state, so runs
// over different documents are independent.
type Pipeline struct {
	cfg        types.PipelineConfig
	password   string
	catalog    validate.Catalog
	observer   Observer
	loader     *load.Loader
	normalizer *normalize.Normalizer
	parser     *parse.Parser
	validator  *validate.Validator
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithObserver sets the event sink. The default is Nop.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) { p.observer = o }
}

// WithCatalog enables the catalog rule against c.
func WithCatalog(c validate.Catalog) Option {
	return func(p *Pipeline) { p.catalog = c }
}

// WithPassword sets the password tried on encrypted PDFs when the loader
// config carries none.
func WithPassword(pw string) Option {
	return func(p *Pipeline) { p.password = pw }
}

// New builds a pipeline from cfg.
func New(cfg types.PipelineConfig, opts ...Option) *Pipeline {
	p := &Pipeline{cfg: cfg, observer: Nop{}}
	for _, o := range opts {
		o(p)
	}
	if p.observer == nil {
		p.observer = Nop{}
	}
	p.loader = load.New(cfg.Loader, p.password)
	p.normalizer = normalize.New(cfg.Normalizer)
	p.parser = parse.New(cfg.Parser)
	p.validator = validate.New(cfg.Validator, p.catalog)
	return p
}

// Input names one document. When Reader is nil the document is read from
// the file at Path; otherwise Path only names it.
type Input struct {
	Path   string
	Reader io.Reader
}

// RunReader runs the pipeline over r, using name as the report source.
func (p *Pipeline) RunReader(ctx context.Context, name string, r io.Reader) (*types.Report, error) {
	return p.Run(ctx, Input{Path: name, Reader: r})
}

// Run processes one document to a report.
func (p *Pipeline) Run(ctx context.Context, in Input) (*types.Report, error) {
	rep, err := p.run(ctx, in)
	if err != nil {
		p.observer.Failed(in.Path, err)
		return nil, err
	}
	p.observer.Finished(rep, Status(rep, p.cfg.Report.MaxRejected))
	return rep, nil
}

func (p *Pipeline) run(ctx context.Context, in Input) (*types.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	doc, err := p.loadInput(in)
	if err != nil {
		return nil, err
	}
	p.stageDone(in.Path, "load", len(doc.Pages), start)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start = time.Now()
	nres := p.normalizer.Normalize(doc.Pages)
	p.stageDone(in.Path, "normalize", len(nres.Lines), start)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start = time.Now()
	pres := p.parser.Parse(nres.Lines)
	p.stageDone(in.Path, "parse", len(pres.Records), start)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start = time.Now()
	records := pres.Records
	vres := p.validator.Validate(records)
	p.stageDone(in.Path, "validate", len(vres.Failures), start)

	var diags []types.Diagnostic
	diags = append(diags, nres.Diagnostics...)
	diags = append(diags, pres.Diagnostics...)
	diags = append(diags, vres.Diagnostics...)
	for _, d := range diags {
		p.observer.Diagnostic(in.Path, d)
	}
	for _, a := range pres.Ambiguities {
		p.observer.Ambiguity(in.Path, a)
	}
	for _, f := range vres.Failures {
		p.observer.Rejected(in.Path, f)
	}

	sum := sha256.Sum256(doc.Data)
	digest := hex.EncodeToString(sum[:])
	return &types.Report{
		Source:  doc.Source,
		Digest:  digest,
		RunID:   RunID(digest),
		Pages:   len(doc.Pages),
		Records: records,
		Summary: types.Summarize(records, types.Summary{
			DroppedFragments: nres.DroppedFragments,
			DroppedLines:     pres.DroppedLines,
		}),
		Diagnostics: diags,
	}, nil
}

// loadInput reads the document. Files are opened and closed by the loader.
func (p *Pipeline) loadInput(in Input) (*load.Document, error) {
	if in.Reader == nil {
		return p.loader.LoadFile(in.Path)
	}
	data, err := io.ReadAll(in.Reader)
	if err != nil {
		return nil, &types.LoadError{Source: in.Path, Err: fmt.Errorf("reading: %w", err)}
	}
	return p.loader.LoadBytes(in.Path, data)
}

func (p *Pipeline) stageDone(source, stage string, count int, start time.Time) {
	p.observer.StageDone(StageEvent{Source: source, Stage: stage, Count: count, Elapsed: time.Since(start)})
}
