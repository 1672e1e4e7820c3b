package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

const (
	// encodingCL100kBase is the encoding name for GPT-4 and GPT-3.5-turbo.
	encodingCL100kBase = "cl100k_base"
	// encodingP50kBase is the encoding name for GPT-3.
	encodingP50kBase = "p50k_base"
	// encodingR50kBase is the encoding name for older GPT-3 models.
	encodingR50kBase = "r50k_base"

	// tiktokenEndOfText terminates documents in every OpenAI encoding.
	tiktokenEndOfText = "<|endoftext|>"
)

// TikToken wraps the pkoukk/tiktoken-go library for OpenAI tokenizers.
//
// Supported encodings:
//   - cl100k_base: GPT-4, GPT-3.5-turbo, text-embedding-ada-002
//   - p50k_base: GPT-3, Codex
//   - r50k_base: GPT-3, davinci-002, babbage-002
//
// tiktoken never adds implicit tokens. EncodeOptions.AddSpecialTokens only
// decides whether literals such as "<|endoftext|>" become special IDs or are
// encoded as plain text.
type TikToken struct {
	encoding *tiktoken.Tiktoken
	name     string
	base     string
}

// NewTikToken creates a new TikToken tokenizer with the specified encoding.
//
// Supported encodings: "cl100k_base" (GPT-4), "p50k_base" (GPT-3).
func NewTikToken(encodingName string) (*TikToken, error) {
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("failed to load tiktoken encoding %q: %w", encodingName, err)
	}

	return &TikToken{
		encoding: encoding,
		name:     encodingName,
		base:     encodingName,
	}, nil
}

// NewTikTokenForModel creates a TikToken tokenizer for a specific model.
//
// Example models: "gpt-4", "gpt-3.5-turbo", "text-embedding-ada-002".
func NewTikTokenForModel(modelName string) (*TikToken, error) {
	encoding, err := tiktoken.EncodingForModel(modelName)
	if err != nil {
		return nil, fmt.Errorf("failed to load tiktoken for model %q: %w", modelName, err)
	}

	base := encodingCL100kBase
	if name, ok := tiktoken.MODEL_TO_ENCODING[modelName]; ok {
		base = name
	}

	return &TikToken{
		encoding: encoding,
		name:     modelName,
		base:     base,
	}, nil
}

// Encode converts text to token IDs.
func (t *TikToken) Encode(text string, opts EncodeOptions) ([]int32, error) {
	var allowed []string
	if opts.AddSpecialTokens {
		allowed = []string{"all"}
	}
	tokens := t.encoding.Encode(text, allowed, nil)

	result := make([]int32, len(tokens))
	for i, tok := range tokens {
		result[i] = int32(tok) //nolint:gosec // G115: Token ID fits in int32 - vocab size < 2^31.
	}

	return result, nil
}

// EncodePadded converts text to a fixed-length encoding.
func (t *TikToken) EncodePadded(text string, opts PaddingOptions) (*Encoding, error) {
	return encodePadded(t, text, opts)
}

// Decode converts token IDs back to text.
func (t *TikToken) Decode(tokens []int32) (string, error) {
	intTokens := make([]int, len(tokens))
	for i, tok := range tokens {
		intTokens[i] = int(tok)
	}

	return t.encoding.Decode(intTokens), nil
}

// VocabSize returns the total vocabulary size.
func (t *TikToken) VocabSize() int {
	// tiktoken-go doesn't expose vocab size directly.
	switch t.base {
	case encodingCL100kBase:
		return 100256
	case encodingP50kBase, encodingR50kBase:
		return 50257
	default:
		return 100000
	}
}

// EosMarker returns "<|endoftext|>".
func (t *TikToken) EosMarker() string {
	return tiktokenEndOfText
}

// BosToken returns -1, tiktoken doesn't use BOS tokens.
func (t *TikToken) BosToken() int32 {
	return -1
}

// EosToken returns the <|endoftext|> token ID.
func (t *TikToken) EosToken() int32 {
	switch t.base {
	case encodingCL100kBase:
		return 100257
	case encodingP50kBase, encodingR50kBase:
		return 50256
	default:
		return -1
	}
}

// PadToken returns -1, tiktoken doesn't define a padding token.
func (t *TikToken) PadToken() int32 {
	return -1
}

// UnkToken returns -1, tiktoken handles unknown text via byte fallback.
func (t *TikToken) UnkToken() int32 {
	return -1
}

// IsSpecialToken checks if a token ID is a special token.
func (t *TikToken) IsSpecialToken(token int32) bool {
	if token == t.EosToken() {
		return true
	}

	// cl100k_base special tokens: 100256-100276 (ChatML tokens).
	if t.base == encodingCL100kBase && token >= 100256 && token <= 100276 {
		return true
	}

	return false
}

// Name returns the tokenizer name.
func (t *TikToken) Name() string {
	return t.name
}
