package align

import (
	"errors"
	"fmt"
	"slices"

	"github.com/born-ml/sft/internal/tokenizer"
)

// DefaultMaxLength is the fixed sequence length used when none is configured.
const DefaultMaxLength = 128

// Configuration errors.
var (
	ErrNilTokenizer       = errors.New("tokenizer is nil")
	ErrInvalidMaxLength   = errors.New("max length must be positive")
	ErrInvalidIgnoreIndex = errors.New("ignore index must be negative")
)

// Config controls label construction.
type Config struct {
	// MaxLength is the fixed length of every sequence.
	MaxLength int

	// IgnoreIndex marks labels excluded from the loss. It must be negative
	// so it can never collide with a token ID.
	IgnoreIndex int32

	// LeadingSpaceFallback retries the search with " "+answer when the bare
	// answer tokens are not found.
	LeadingSpaceFallback bool
}

// DefaultConfig returns MaxLength 128, IgnoreIndex -100 and the leading-space
// fallback enabled.
func DefaultConfig() Config {
	return Config{
		MaxLength:            DefaultMaxLength,
		IgnoreIndex:          DefaultIgnoreIndex,
		LeadingSpaceFallback: true,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.MaxLength <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidMaxLength, c.MaxLength)
	}
	if c.IgnoreIndex >= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidIgnoreIndex, c.IgnoreIndex)
	}
	return nil
}

// Encoder turns (question, answer) pairs into EncodedExamples.
//
// An Encoder holds no mutable state. It is safe for concurrent use when its
// tokenizer is.
type Encoder struct {
	tok tokenizer.Tokenizer
	cfg Config
}

// NewEncoder creates an encoder over tok.
func NewEncoder(tok tokenizer.Tokenizer, cfg Config) (*Encoder, error) {
	if tok == nil {
		return nil, ErrNilTokenizer
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Encoder{tok: tok, cfg: cfg}, nil
}

// Encode is a convenience wrapper using DefaultConfig with the given length.
func Encode(tok tokenizer.Tokenizer, question, answer string, maxLength int) (*Result, error) {
	cfg := DefaultConfig()
	cfg.MaxLength = maxLength

	enc, err := NewEncoder(tok, cfg)
	if err != nil {
		return nil, err
	}
	return enc.Encode(question, answer)
}

// Config returns the encoder configuration.
func (e *Encoder) Config() Config {
	return e.cfg
}

// Encode builds one training example.
//
// The full text is question+answer+EOS marker with no separator added.
// Conditions that leave nothing to supervise are reported through
// Result.Status. Only tokenizer failures are returned as errors.
func (e *Encoder) Encode(question, answer string) (*Result, error) {
	return e.EncodeWithLength(question, answer, e.cfg.MaxLength)
}

// EncodeWithLength is Encode with a per-call sequence length.
func (e *Encoder) EncodeWithLength(question, answer string, maxLength int) (*Result, error) {
	if maxLength <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidMaxLength, maxLength)
	}

	text := question + answer + e.tok.EosMarker()
	full, err := e.tok.EncodePadded(text, tokenizer.PaddingOptions{
		MaxLength:        maxLength,
		PadToken:         e.padToken(),
		Side:             tokenizer.PadRight,
		AddSpecialTokens: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode full text: %w", err)
	}

	res := &Result{
		Example: EncodedExample{
			InputIDs:      full.IDs,
			AttentionMask: full.AttentionMask,
			Labels:        e.ignored(maxLength),
		},
		Status: StatusEmptyAnswer,
	}

	if answer == "" {
		return res, nil
	}

	answerIDs, err := e.tok.Encode(answer, tokenizer.EncodeOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to encode answer: %w", err)
	}
	if len(answerIDs) == 0 {
		return res, nil
	}

	// Search the whole token run, so an answer cut by truncation is anchored
	// where it really starts.
	haystack := full.IDs[:full.Length]
	if full.Truncated() {
		haystack, err = e.tok.Encode(text, tokenizer.EncodeOptions{AddSpecialTokens: true})
		if err != nil {
			return nil, fmt.Errorf("failed to encode full text: %w", err)
		}
	}

	start := FindSpan(haystack, answerIDs)
	if start < 0 && e.cfg.LeadingSpaceFallback {
		spaced, err := e.tok.Encode(" "+answer, tokenizer.EncodeOptions{})
		if err != nil {
			return nil, fmt.Errorf("failed to encode answer with leading space: %w", err)
		}
		if !slices.Equal(spaced, answerIDs) {
			if start = FindSpan(haystack, spaced); start >= 0 {
				answerIDs = spaced
				res.LeadingSpace = true
			}
		}
	}

	if start < 0 {
		res.Status = StatusSpanNotFound
		return res, nil
	}

	span := Span{Start: start, End: start + len(answerIDs)}
	res.Truncated = span.End > maxLength

	// The answer lies entirely past the window.
	if span.Start >= maxLength {
		res.Status = StatusSpanNotFound
		res.LeadingSpace = false
		return res, nil
	}

	res.Status = StatusFound
	res.Span = span

	e.project(res)

	return res, nil
}

// project copies the located span into the labels, then lets padding
// override any label.
func (e *Encoder) project(res *Result) {
	ex := &res.Example
	end := min(res.Span.End, len(ex.InputIDs))

	for i := res.Span.Start; i < end; i++ {
		ex.Labels[i] = ex.InputIDs[i]
	}

	for i, m := range ex.AttentionMask {
		if m == 0 {
			ex.Labels[i] = e.cfg.IgnoreIndex
		}
	}
}

// padToken picks the tokenizer's pad token, falling back to EOS and then 0.
func (e *Encoder) padToken() int32 {
	if pad := e.tok.PadToken(); pad >= 0 {
		return pad
	}
	if eos := e.tok.EosToken(); eos >= 0 {
		return eos
	}
	return 0
}

func (e *Encoder) ignored(n int) []int32 {
	labels := make([]int32, n)
	for i := range labels {
		labels[i] = e.cfg.IgnoreIndex
	}
	return labels
}
