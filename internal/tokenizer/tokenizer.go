package tokenizer

import "errors"

// ErrInvalidMaxLength is returned when a padded encoding is requested with a
// non-positive length.
var ErrInvalidMaxLength = errors.New("max length must be positive")

// Tokenizer is the core interface for text tokenization.
//
// Implementations must be safe for concurrent use once constructed: every
// option that influences an encoding is passed per call, never stored on the
// tokenizer.
type Tokenizer interface {
	// Encode converts text to token IDs without padding or truncation.
	Encode(text string, opts EncodeOptions) ([]int32, error)

	// EncodePadded converts text to exactly opts.MaxLength token IDs,
	// padding or truncating as needed, together with the attention mask.
	EncodePadded(text string, opts PaddingOptions) (*Encoding, error)

	// Decode converts token IDs back to text.
	Decode(tokens []int32) (string, error)

	// VocabSize returns the total vocabulary size.
	VocabSize() int

	// EosMarker returns the literal text that terminates a sequence
	// (for example "<|endoftext|>" or "</s>").
	EosMarker() string

	// BosToken returns the beginning-of-sequence token ID.
	// Returns -1 if not applicable.
	BosToken() int32

	// EosToken returns the end-of-sequence token ID.
	// Returns -1 if not applicable.
	EosToken() int32

	// PadToken returns the padding token ID.
	// Returns -1 if not applicable.
	PadToken() int32

	// UnkToken returns the unknown token ID.
	// Returns -1 if not applicable.
	UnkToken() int32

	// IsSpecialToken checks if a token ID is a special token.
	IsSpecialToken(token int32) bool
}

// EncodeOptions controls a single unpadded encode call.
type EncodeOptions struct {
	// AddSpecialTokens adds implicit special tokens (BOS and the like) and
	// lets special-token literals in the text map to their special IDs.
	AddSpecialTokens bool
}

// PaddingSide selects where padding tokens are placed.
type PaddingSide int

const (
	// PadRight appends padding after the real tokens.
	PadRight PaddingSide = iota
	// PadLeft prepends padding before the real tokens.
	PadLeft
)

// String returns "right" or "left".
func (s PaddingSide) String() string {
	if s == PadLeft {
		return "left"
	}
	return "right"
}

// PaddingOptions controls a single fixed-length encode call.
//
// Truncation always keeps the leading tokens.
type PaddingOptions struct {
	MaxLength        int
	PadToken         int32
	Side             PaddingSide
	AddSpecialTokens bool
}

// Encoding is the result of a fixed-length encode call.
type Encoding struct {
	// IDs holds exactly MaxLength token IDs.
	IDs []int32

	// AttentionMask is 1 for real tokens and 0 for padding.
	AttentionMask []int32

	// Length is the number of real tokens kept.
	Length int

	// Overflow is the number of tokens dropped by truncation.
	Overflow int
}

// Truncated reports whether tokens were dropped to fit MaxLength.
func (e *Encoding) Truncated() bool {
	return e.Overflow > 0
}
