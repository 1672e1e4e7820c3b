// Package batch encodes datasets of (question, answer) pairs concurrently and
// aggregates how many examples ended up without supervision.
package batch

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/born-ml/sft/internal/align"
	"github.com/born-ml/sft/internal/parallel"
)

// Pair is one raw training pair.
type Pair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Options configures a Builder.
type Options struct {
	// Parallel controls fan-out across pairs.
	Parallel parallel.Config

	// MaxUnsupervisedRate is the highest tolerated share of SpanNotFound and
	// EmptyAnswer examples. Values >= 1 never fail.
	MaxUnsupervisedRate float64

	// Logger receives one warning per unsupervised example and a summary.
	Logger zerolog.Logger
}

// DefaultOptions returns CPU-sized parallelism, a 5% threshold and a
// disabled logger.
func DefaultOptions() Options {
	return Options{
		Parallel:            parallel.DefaultConfig(),
		MaxUnsupervisedRate: 0.05,
		Logger:              zerolog.Nop(),
	}
}

// Builder encodes batches with a shared Encoder.
type Builder struct {
	enc  *align.Encoder
	opts Options
}

// NewBuilder creates a Builder.
func NewBuilder(enc *align.Encoder, opts Options) (*Builder, error) {
	if enc == nil {
		return nil, errors.New("encoder is nil")
	}
	return &Builder{enc: enc, opts: opts}, nil
}

// Batch is the outcome of Builder.Encode. Results are in input order.
type Batch struct {
	RunID   uuid.UUID
	Results []*align.Result
	Stats   Snapshot
}

// Examples returns the encoded examples in input order, unsupervised ones
// included.
func (b *Batch) Examples() []align.EncodedExample {
	out := make([]align.EncodedExample, len(b.Results))
	for i, res := range b.Results {
		out[i] = res.Example
	}
	return out
}

// Supervised returns only the examples that have at least one label.
func (b *Batch) Supervised() []align.EncodedExample {
	out := make([]align.EncodedExample, 0, len(b.Results))
	for _, res := range b.Results {
		if res.Supervised() {
			out = append(out, res.Example)
		}
	}
	return out
}

// Encode encodes every pair.
//
// Tokenizer failures and context cancellation abort the batch and return a
// nil Batch. When the unsupervised rate exceeds the threshold the complete
// Batch is returned together with a *RateError.
func (b *Builder) Encode(ctx context.Context, pairs []Pair) (*Batch, error) {
	batch := &Batch{
		RunID:   uuid.New(),
		Results: make([]*align.Result, len(pairs)),
	}
	log := b.opts.Logger.With().Str("run_id", batch.RunID.String()).Logger()

	var stats Stats
	err := parallel.ForEach(ctx, len(pairs), b.opts.Parallel, func(_ context.Context, i int) error {
		res, err := b.enc.Encode(pairs[i].Question, pairs[i].Answer)
		if err != nil {
			return fmt.Errorf("failed to encode pair %d: %w", i, err)
		}

		batch.Results[i] = res
		stats.Record(res)

		if !res.Supervised() {
			log.Warn().
				Int("index", i).
				Stringer("status", res.Status).
				Msg("example has no supervised labels")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	batch.Stats = stats.Snapshot()

	log.Info().
		Int64("total", batch.Stats.Total).
		Int64("found", batch.Stats.Found).
		Int64("span_not_found", batch.Stats.SpanNotFound).
		Int64("empty_answer", batch.Stats.EmptyAnswer).
		Int64("truncated", batch.Stats.Truncated).
		Float64("unsupervised_rate", batch.Stats.Rate()).
		Msg("batch encoded")

	if err := batch.Stats.Check(b.opts.MaxUnsupervisedRate); err != nil {
		log.Error().Err(err).Msg("unsupervised rate above threshold")
		return batch, err
	}

	return batch, nil
}
