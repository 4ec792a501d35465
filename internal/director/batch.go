package director

import (
	"context"
	"fmt"
	"time"

	"git.home.luguber.info/inful/slidebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/slidebuilder/internal/logfields"
	"git.home.luguber.info/inful/slidebuilder/internal/metrics"
	"git.home.luguber.info/inful/slidebuilder/internal/observability"
	"git.home.luguber.info/inful/slidebuilder/internal/slide"
)

// Request is a construction request: a content type plus its input.
type Request struct {
	ContentType string
	Input
}

// BatchFailure identifies an input that could not be constructed.
type BatchFailure struct {
	Index   int
	Request Request
	Err     error
}

func (f BatchFailure) Error() string {
	return fmt.Sprintf("batch item %d (%s): %v", f.Index, f.Request.ContentType, f.Err)
}

// BatchResult holds the slides that were built and the inputs that failed.
type BatchResult struct {
	Slides   []*slide.Slide
	Failures []BatchFailure
}

// Batch runs Advanced over every request with a builder resolved per item.
// A failing item is logged and reported in Failures; it never stops the batch.
func (d *Director) Batch(ctx context.Context, requests []Request) BatchResult {
	ctx = observability.WithSequence(ctx, SequenceBatch)
	start := time.Now()
	var res BatchResult
	for i, req := range requests {
		s, err := d.batchItem(ctx, req)
		if err != nil {
			res.Failures = append(res.Failures, BatchFailure{Index: i, Request: req, Err: err})
			d.recorder.IncBatchItem(metrics.ResultFailed)
			observability.NewLogBuilder(ctx).WithLogger(d.logger).
				Attr(logfields.Index(i), logfields.ContentType(req.ContentType), logfields.TenantID(req.TenantID), logfields.Error(err)).
				Warn("batch item failed")
			continue
		}
		res.Slides = append(res.Slides, s)
		d.recorder.IncBatchItem(metrics.ResultSuccess)
	}

	entry := Entry{
		Sequence:  SequenceBatch,
		Input:     fmt.Sprintf("items=%d", len(requests)),
		Success:   len(res.Failures) == 0,
		Valid:     len(res.Failures) == 0,
		Timestamp: timeNow(),
	}
	if len(res.Failures) > 0 {
		entry.Error = fmt.Sprintf("%d of %d items failed", len(res.Failures), len(requests))
	}
	d.history.append(entry)
	outcome := metrics.ResultSuccess
	if len(res.Failures) > 0 {
		outcome = metrics.ResultFailed
	}
	d.recorder.ObserveSequenceDuration(SequenceBatch, time.Since(start))
	d.recorder.IncSequenceOutcome(SequenceBatch, outcome)
	return res
}

func (d *Director) batchItem(ctx context.Context, req Request) (s *slide.Slide, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.InternalError(fmt.Sprintf("batch item panicked: %v", r)).Build()
		}
	}()
	b, err := d.builders.Resolve(req.ContentType, req.TenantID)
	if err != nil {
		return nil, err
	}
	return d.Advanced(ctx, b, req.Input)
}
