package enrich

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// StageReport summarizes what one stage did to a dataset.
type StageReport struct {
	Stage string `json:"stage"`
	Rows  int    `json:"rows"`
	// Filled counts imputed cells.
	Filled int `json:"filled,omitempty"`
	// RemainingMissing counts cells of the imputed feature still missing
	// afterwards. Unresolved imputation is reported here, never as an error.
	RemainingMissing int `json:"remainingMissing,omitempty"`
	// SkippedRows counts rows whose outputs were left missing because the row
	// itself could not be processed (e.g. invalid coordinates).
	SkippedRows int `json:"skippedRows,omitempty"`
}

// Stage is one transformation in the chain. Apply must not modify its input;
// it returns an augmented copy.
type Stage interface {
	Name() string
	Apply(ds *Dataset) (*Dataset, StageReport, error)
}

// RowFeature is a pure function of one record plus shared read-only reference
// state. Derive returns only the new or changed values.
type RowFeature interface {
	Name() string
	Columns() []string
	Derive(r Record) (Record, error)
}

// RowStage adapts a RowFeature into a Stage. A row whose Derive fails with a
// row-level error keeps its output columns missing and is counted as skipped;
// any other error aborts the stage.
type RowStage struct {
	Feature RowFeature
}

// Name implements Stage.
func (s RowStage) Name() string { return s.Feature.Name() }

// Apply implements Stage.
func (s RowStage) Apply(ds *Dataset) (*Dataset, StageReport, error) {
	out := ds.Clone()
	for _, c := range s.Feature.Columns() {
		out.AddColumn(c)
	}
	report := StageReport{Stage: s.Name(), Rows: out.Len()}

	for i, r := range out.Rows() {
		vals, err := s.Feature.Derive(r)
		if err != nil {
			if errors.Is(err, errRowSkipped) {
				report.SkippedRows++
				continue
			}
			return nil, report, fmt.Errorf("%s: row %d: %w", s.Name(), i, err)
		}
		for k, v := range vals {
			r[k] = v
			out.AddColumn(k)
		}
	}
	return out, report, nil
}

// Pipeline runs stages in order, each consuming the previous stage's output.
type Pipeline struct {
	stages []Stage
	logger *zap.Logger
}

// NewPipeline creates a pipeline. A nil logger disables logging.
func NewPipeline(logger *zap.Logger, stages ...Stage) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{stages: stages, logger: logger}
}

// Append adds stages to the end of the chain.
func (p *Pipeline) Append(stages ...Stage) { p.stages = append(p.stages, stages...) }

// Stages returns the stage names in execution order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

// Run applies every stage to ds. The input dataset is left untouched.
func (p *Pipeline) Run(ds *Dataset) (*Dataset, []StageReport, error) {
	reports := make([]StageReport, 0, len(p.stages))
	cur := ds
	for _, s := range p.stages {
		start := time.Now()
		next, report, err := s.Apply(cur)
		if err != nil {
			p.logger.Error("stage failed", zap.String("stage", s.Name()), zap.Error(err))
			return nil, reports, fmt.Errorf("stage %s: %w", s.Name(), err)
		}
		p.logger.Info("stage complete",
			zap.String("stage", report.Stage),
			zap.Int("rows", report.Rows),
			zap.Int("filled", report.Filled),
			zap.Int("remaining_missing", report.RemainingMissing),
			zap.Int("skipped_rows", report.SkippedRows),
			zap.Duration("elapsed", time.Since(start)),
		)
		reports = append(reports, report)
		cur = next
	}
	return cur, reports, nil
}
