// Package tokenizer provides the tokenizers used to build supervised labels.
//
// This package wraps the internal tokenizer implementations and provides
// a clean public API.
//
// Supported tokenizers:
//   - TikToken: OpenAI BPE tokenizers (GPT-3, GPT-4)
//   - HuggingFace: tokenizer.json (BPE, WordPiece, Unigram)
//   - BPE: pure Go Byte-Pair Encoding for tokenizer.json BPE vocabularies
//
// Example usage:
//
//	import "github.com/born-ml/sft/tokenizer"
//
//	tok, err := tokenizer.Load(tokenizer.KindAuto, "cl100k_base")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Fixed-length encoding, right padded with the tokenizer's pad token
//	enc, err := tok.EncodePadded("Hello, world!"+tok.EosMarker(), tokenizer.PaddingOptions{
//	    MaxLength:        128,
//	    PadToken:         tok.PadToken(),
//	    AddSpecialTokens: true,
//	})
package tokenizer

import (
	"github.com/born-ml/sft/internal/tokenizer"
)

// Tokenizer is the core interface for text tokenization.
//
// All tokenizer implementations must implement this interface.
type Tokenizer = tokenizer.Tokenizer

// EncodeOptions controls a single Encode call.
type EncodeOptions = tokenizer.EncodeOptions

// PaddingOptions controls a single EncodePadded call.
type PaddingOptions = tokenizer.PaddingOptions

// PaddingSide selects where padding is added.
type PaddingSide = tokenizer.PaddingSide

// Encoding is a fixed-length token sequence with its attention mask.
type Encoding = tokenizer.Encoding

// Kind names a tokenizer backend.
type Kind = tokenizer.Kind

// Padding sides.
const (
	PadRight = tokenizer.PadRight
	PadLeft  = tokenizer.PadLeft
)

// Tokenizer kinds accepted by Load.
const (
	KindAuto     = tokenizer.KindAuto
	KindTikToken = tokenizer.KindTikToken
	KindHF       = tokenizer.KindHF
	KindBPE      = tokenizer.KindBPE
)

// NewTikToken creates a new TikToken tokenizer with the specified encoding.
//
// Supported encodings: "cl100k_base" (GPT-4), "p50k_base" (GPT-3).
func NewTikToken(encodingName string) (Tokenizer, error) {
	return tokenizer.NewTikToken(encodingName)
}

// NewTikTokenForModel creates a TikToken tokenizer for a specific model.
//
// Example models: "gpt-4", "gpt-3.5-turbo", "text-embedding-ada-002".
func NewTikTokenForModel(modelName string) (Tokenizer, error) {
	return tokenizer.NewTikTokenForModel(modelName)
}

// LoadFromHuggingFace loads a tokenizer from a HuggingFace model directory.
//
// The directory should contain tokenizer.json.
func LoadFromHuggingFace(modelPath string) (Tokenizer, error) {
	return tokenizer.LoadFromHuggingFace(modelPath)
}

// AutoLoad attempts to automatically load the correct tokenizer.
//
// It tries multiple strategies:
//  1. Load from HuggingFace model directory (tokenizer.json)
//  2. Load tiktoken by model name
//  3. Load tiktoken by encoding name
func AutoLoad(pathOrName string) (Tokenizer, error) {
	return tokenizer.AutoLoadTokenizer(pathOrName)
}

// Load creates a tokenizer of the given kind from source, which is a model
// directory, a tokenizer.json path, a model name or an encoding name.
func Load(kind Kind, source string) (Tokenizer, error) {
	return tokenizer.Load(kind, source)
}

// Pad right- or left-pads ids to opts.MaxLength, truncating longer input.
func Pad(ids []int32, opts PaddingOptions) (*Encoding, error) {
	return tokenizer.Pad(ids, opts)
}

// ExampleBPE creates a minimal BPE tokenizer for testing and examples.
func ExampleBPE() Tokenizer {
	return tokenizer.ExampleBPEVocab()
}
