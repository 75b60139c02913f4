// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"log/slog"
	"time"

	"github.com/pdiddy/deckproxy/pkg/types"
)

// StageEvent reports a finished stage of one run.
type StageEvent struct {
	Source  string
	Stage   string
	Count   int // items the stage produced
	Elapsed time.Duration
}

// Observer receives progress and problem events from a run. Implementations
// must not block.
type Observer interface {
	StageDone(e StageEvent)
	Diagnostic(source string, d types.Diagnostic)
	Ambiguity(source string, a *types.ParseAmbiguity)
	Rejected(source string, f *types.ValidationFailure)
	Failed(source string, err error)
	Finished(rep *types.Report, status Termination)
}

// Nop discards every event.
type Nop struct{}

func (Nop) StageDone(StageEvent) {}
func (Nop) Diagnostic(string, types.Diagnostic) {}
func (Nop) Ambiguity(string, *types.ParseAmbiguity) {}
func (Nop) Rejected(string, *types.ValidationFailure) {}
func (Nop) Failed(string, error) {}
func (Nop) Finished(*types.Report, Termination) {}

// SlogObserver writes events to a slog.Logger.
type SlogObserver struct {
	Logger *slog.Logger
}

// NewSlogObserver returns an observer on logger, or on slog.Default() when
// logger is nil.
func NewSlogObserver(logger *slog.Logger) *SlogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogObserver{Logger: logger}
}

func (o *SlogObserver) StageDone(e StageEvent) {
	o.Logger.Info("pipeline."+e.Stage+".ok",
		"source", e.Source,
		"count", e.Count,
		"elapsed_ms", e.Elapsed.Milliseconds(),
	)
}

func (o *SlogObserver) Diagnostic(source string, d types.Diagnostic) {
	o.Logger.Debug("pipeline.diagnostic",
		"source", source,
		"stage", d.Stage,
		"page", d.Page,
		"message", d.Message,
	)
}

func (o *SlogObserver) Ambiguity(source string, a *types.ParseAmbiguity) {
	o.Logger.Debug("pipeline.parse.ambiguity",
		"source", source,
		"line", a.Line,
		"text", a.Text,
	)
}

func (o *SlogObserver) Rejected(source string, f *types.ValidationFailure) {
	o.Logger.Debug("pipeline.validate.rejected",
		"source", source,
		"rule", f.Rule,
		"seq", f.Seq,
		"reason", f.Reason,
	)
}

func (o *SlogObserver) Failed(source string, err error) {
	o.Logger.Error("pipeline.run.failed", "source", source, "error", err)
}

func (o *SlogObserver) Finished(rep *types.Report, status Termination) {
	s := rep.Summary
	o.Logger.Info("pipeline.run.ok",
		"source", rep.Source,
		"run_id", rep.RunID,
		"status", string(status),
		"records", s.Records,
		"valid", s.Valid,
		"warning", s.Warning,
		"rejected", s.Rejected,
		"unparsed", s.Unparsed,
	)
}
