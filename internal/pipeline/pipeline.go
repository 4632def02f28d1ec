// Package pipeline feeds host events consumed from a broker through the
// dispatcher and publishes one outcome record per event.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/crm-trigger-service/internal/domain"
	"github.com/couchcryptid/crm-trigger-service/internal/observability"
)

// BatchExtractor reads up to batchSize raw events from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Transformer turns a raw event into the outcome to publish. An error means
// the message could not be decoded and is skipped.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error)
}

// BatchLoader writes multiple output events to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, events []domain.OutputEvent) error
}

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// Pipeline runs the extract, dispatch, publish loop.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	running     atomic.Bool
	batchSize   int
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
	}
}

// CheckReadiness returns an error unless Run is consuming.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.running.Load() {
		return errors.New("event pipeline is not running")
	}
	return nil
}

// Run consumes batches until the context is cancelled. Extract failures are
// retried with exponential backoff; a failed publish retries the same batch.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.running.Store(true)
	p.metrics.PipelineRunning.Set(1)
	defer func() {
		p.running.Store(false)
		p.metrics.PipelineRunning.Set(0)
	}()

	b := backoff{current: initialBackoff}
	for ctx.Err() == nil {
		if !p.processBatch(ctx, &b) {
			break
		}
	}
	p.logger.Info("pipeline stopping", "reason", context.Cause(ctx))
	return nil
}

// processBatch runs one cycle. It returns false when the pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, b *backoff) bool {
	start := time.Now()

	rawBatch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return b.wait(ctx)
	}
	if len(rawBatch) == 0 {
		return true
	}

	p.metrics.MessagesConsumed.Add(float64(len(rawBatch)))
	p.metrics.BatchSize.Observe(float64(len(rawBatch)))
	b.reset()

	outBatch := make([]domain.OutputEvent, 0, len(rawBatch))
	decoded := make([]domain.RawEvent, 0, len(rawBatch))
	for _, raw := range rawBatch {
		out, err := p.transformer.Transform(ctx, raw)
		if err != nil {
			p.logger.Warn("undecodable event, skipping message",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			p.metrics.DecodeErrors.Inc()
			p.commit(ctx, raw)
			continue
		}
		outBatch = append(outBatch, out)
		decoded = append(decoded, raw)
	}
	if len(outBatch) == 0 {
		return true
	}

	// Handlers have already run, so the same outcomes are republished until
	// the broker accepts them. Offsets stay uncommitted in the meantime.
	if !p.publish(ctx, b, outBatch) {
		return false
	}
	p.metrics.MessagesProduced.Add(float64(len(outBatch)))

	for _, raw := range decoded {
		p.commit(ctx, raw)
	}
	p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	return true
}

// publish loads the batch, backing off between failed attempts. It returns
// false if the context was cancelled before the batch was accepted.
func (p *Pipeline) publish(ctx context.Context, b *backoff, batch []domain.OutputEvent) bool {
	for {
		err := p.loader.LoadBatch(ctx, batch)
		if err == nil {
			b.reset()
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("publish outcomes failed", "error", err, "batch_size", len(batch))
		if !b.wait(ctx) {
			return false
		}
	}
}

// commit commits the message offset if a commit function is available.
func (p *Pipeline) commit(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

// backoff doubles from initialBackoff up to maxBackoff.
type backoff struct {
	current time.Duration
}

func (b *backoff) reset() {
	b.current = initialBackoff
}

// wait sleeps for the current delay and advances it. It returns false if the
// context was cancelled first.
func (b *backoff) wait(ctx context.Context) bool {
	timer := time.NewTimer(b.current)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
	}
	b.current = min(b.current*2, maxBackoff)
	return true
}
