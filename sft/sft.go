// Package sft builds supervised fine-tuning labels for (question, answer) pairs.
//
// This package wraps the internal alignment, batch, loss and serialization
// implementations and provides a clean public API.
//
// Components:
//   - Encoder: turns one pair into input ids, attention mask and labels
//   - Builder: encodes datasets concurrently and tracks unsupervised examples
//   - CausalLMLoss: next-token cross entropy that honors the ignore index
//   - WriteBatch/ReadBatch: SafeTensors storage for encoded batches
//
// Example usage:
//
//	import (
//	    "github.com/born-ml/sft/sft"
//	    "github.com/born-ml/sft/tokenizer"
//	)
//
//	tok, err := tokenizer.NewTikToken("cl100k_base")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	enc, err := sft.NewEncoder(tok, sft.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := enc.Encode("Q: What is 2+2?\nA: ", "4")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if res.Status != sft.StatusFound {
//	    log.Printf("no supervised tokens: %s", res.Status)
//	}
package sft

import (
	"encoding/json"

	"github.com/born-ml/sft/internal/align"
	"github.com/born-ml/sft/internal/batch"
	"github.com/born-ml/sft/internal/loss"
	"github.com/born-ml/sft/internal/serialization"
	"github.com/born-ml/sft/internal/tokenizer"
)

// Encoding

// DefaultIgnoreIndex is the label value skipped by the loss.
const DefaultIgnoreIndex = align.DefaultIgnoreIndex

// DefaultMaxLength is the sequence length of DefaultConfig.
const DefaultMaxLength = align.DefaultMaxLength

// Config controls label construction.
//
// Fields:
//   - MaxLength: fixed length of every sequence
//   - IgnoreIndex: negative label value excluded from the loss
//   - LeadingSpaceFallback: retry the search with " "+answer
type Config = align.Config

// DefaultConfig returns MaxLength 128, IgnoreIndex -100 and the leading-space
// fallback enabled.
func DefaultConfig() Config {
	return align.DefaultConfig()
}

// Encoder turns (question, answer) pairs into EncodedExamples.
type Encoder = align.Encoder

// NewEncoder creates an encoder over tok.
func NewEncoder(tok tokenizer.Tokenizer, cfg Config) (*Encoder, error) {
	return align.NewEncoder(tok, cfg)
}

// Encode encodes one pair with DefaultConfig and the given length.
func Encode(tok tokenizer.Tokenizer, question, answer string, maxLength int) (*Result, error) {
	return align.Encode(tok, question, answer, maxLength)
}

// EncodedExample holds input ids, attention mask and labels of equal length.
type EncodedExample = align.EncodedExample

// Result is an EncodedExample with its alignment outcome.
type Result = align.Result

// Span is the half-open range of labeled positions.
type Span = align.Span

// Status reports whether an answer span was labeled.
type Status = align.Status

// Alignment outcomes.
const (
	StatusFound        = align.StatusFound
	StatusSpanNotFound = align.StatusSpanNotFound
	StatusEmptyAnswer  = align.StatusEmptyAnswer
)

// FindSpan returns the leftmost start of needle in haystack, or -1.
func FindSpan(haystack, needle []int32) int {
	return align.FindSpan(haystack, needle)
}

// Batches

// Pair is one raw training pair.
type Pair = batch.Pair

// Formatter turns one raw JSON row into a Pair.
type Formatter = batch.Formatter

// FieldFormatter reads the pair from string fields of object rows.
func FieldFormatter(questionField, answerField string) Formatter {
	return batch.FieldFormatter(questionField, answerField)
}

// ColumnFormatter reads the pair from positions of array rows.
func ColumnFormatter(questionColumn, answerColumn int) Formatter {
	return batch.ColumnFormatter(questionColumn, answerColumn)
}

// FormatRows applies f to every row.
func FormatRows(rows []json.RawMessage, f Formatter) ([]Pair, error) {
	return batch.Format(rows, f)
}

// Builder encodes batches of pairs concurrently.
type Builder = batch.Builder

// BuilderOptions configures a Builder.
type BuilderOptions = batch.Options

// Batch is the outcome of Builder.Encode.
type Batch = batch.Batch

// Stats is a snapshot of batch outcomes.
type Stats = batch.Snapshot

// RateError reports a batch with too many unsupervised examples.
type RateError = batch.RateError

// ErrUnsupervisedRate is wrapped by RateError.
var ErrUnsupervisedRate = batch.ErrUnsupervisedRate

// DefaultBuilderOptions returns CPU-sized parallelism and a 5% threshold.
func DefaultBuilderOptions() BuilderOptions {
	return batch.DefaultOptions()
}

// NewBuilder creates a Builder around enc.
func NewBuilder(enc *Encoder, opts BuilderOptions) (*Builder, error) {
	return batch.NewBuilder(enc, opts)
}

// Loss

// LossResult is a summed loss and the number of supervised positions.
type LossResult = loss.Result

// CausalLMLoss scores logits at position t against labels[t+1], skipping
// ignored labels.
func CausalLMLoss(logits [][]float64, labels []int32, ignoreIndex int32) (LossResult, error) {
	return loss.CausalLM(logits, labels, ignoreIndex)
}

// Storage

// WriteBatch stores examples as I32 SafeTensors of shape [N, L].
func WriteBatch(path string, examples []EncodedExample, metadata map[string]string) error {
	return serialization.WriteBatch(path, examples, metadata)
}

// ReadBatch loads examples written by WriteBatch along with the file metadata.
func ReadBatch(path string) ([]EncodedExample, map[string]string, error) {
	examples, h, err := serialization.ReadBatch(path)
	if err != nil {
		return nil, nil, err
	}
	return examples, h.Metadata, nil
}
