package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/shelfbridge/shelfbridge/internal/metrics"
)

// Runner sequences Fetch -> Extract -> Map -> Write for one ISBN. It holds
// no mutable state between runs; credentials are supplied per call by the
// session that owns them.
type Runner struct {
	fetcher   Fetcher
	extractor Extractor
	mapper    Mapper
	writer    Writer
	clock     Clock
	ids       IDGenerator
	logger    *zap.Logger
}

// NewRunner constructs a Runner.
func NewRunner(
	fetcher Fetcher,
	extractor Extractor,
	mapper Mapper,
	writer Writer,
	clock Clock,
	ids IDGenerator,
	logger *zap.Logger,
) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		fetcher:   fetcher,
		extractor: extractor,
		mapper:    mapper,
		writer:    writer,
		clock:     clock,
		ids:       ids,
		logger:    logger,
	}
}

// Run executes the pipeline for one ISBN. On failure it stops at the failing
// stage and returns a *Error tagged with that stage; no compensating actions
// are attempted and at most one external record is created.
func (r *Runner) Run(ctx context.Context, creds Credentials, isbn string) (Report, error) {
	runID, err := r.ids.NewID()
	if err != nil {
		runID = ""
	}
	log := r.logger.With(zap.String("run_id", runID), zap.String("isbn", isbn))
	start := r.clock.Now()

	payload, err := r.fetcher.Fetch(ctx, isbn)
	if err != nil {
		return Report{}, r.fail(log, StageFetch, isbn, err)
	}
	log.Debug("catalog payload fetched",
		zap.Int("status", payload.StatusCode),
		zap.Int("bytes", len(payload.Body)),
		zap.Duration("elapsed", payload.Duration),
	)

	book, err := r.extractor.Extract(payload)
	if err != nil {
		return Report{}, r.fail(log, StageExtract, isbn, err)
	}

	props, err := r.mapper.Map(book)
	if err != nil {
		return Report{}, r.fail(log, StageMap, isbn, err)
	}

	handle, err := r.writer.Write(ctx, creds, props)
	if err != nil {
		return Report{}, r.fail(log, StageWrite, isbn, err)
	}

	elapsed := r.clock.Now().Sub(start)
	metrics.ObserveImport("succeeded", elapsed)
	log.Info("record created",
		zap.String("record_id", handle.ID),
		zap.String("title", book.Title),
		zap.Duration("elapsed", elapsed),
	)

	return Report{
		RunID:      runID,
		ISBN:       isbn,
		Book:       book,
		Properties: props,
		Record:     handle,
		Duration:   elapsed,
	}, nil
}

func (r *Runner) fail(log *zap.Logger, stage Stage, isbn string, err error) error {
	perr := NewError(stage, isbn, err)
	metrics.ObserveStageFailure(string(stage), string(perr.Kind))
	metrics.ObserveImport("failed", 0)
	log.Warn("pipeline run failed",
		zap.String("stage", string(stage)),
		zap.String("kind", string(perr.Kind)),
		zap.Error(err),
	)
	return perr
}
