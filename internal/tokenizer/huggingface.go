package tokenizer

import (
	"fmt"
	"strings"

	tk "github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

// HFTokenizer wraps a full HuggingFace tokenizer pipeline (normalizer,
// pre-tokenizer, model, post-processor) loaded by sugarme/tokenizer.
//
// Padding and truncation configured in tokenizer.json are cleared at load
// time. Encode returns the whole sequence and EncodePadded applies the
// per-call PaddingOptions.
type HFTokenizer struct {
	t         *tk.Tokenizer
	bos       int32
	eos       int32
	pad       int32
	unk       int32
	eosMarker string
	special   map[int32]bool
}

// Candidate special-token spellings, most common first.
var (
	hfBosCandidates = []string{"<s>", "<|begin_of_text|>", "<bos>", "[CLS]"}
	hfEosCandidates = []string{"</s>", "<|endoftext|>", "<|end_of_text|>", "<|im_end|>", "<eos>", "[SEP]"}
	hfPadCandidates = []string{"<pad>", "[PAD]", "<|pad|>"}
	hfUnkCandidates = []string{"<unk>", "[UNK]"}
)

// NewHFTokenizer loads a tokenizer.json file with sugarme/tokenizer.
func NewHFTokenizer(path string) (*HFTokenizer, error) {
	t, err := pretrained.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer %q: %w", path, err)
	}
	t.WithTruncation(nil)
	t.WithPadding(nil)

	h := &HFTokenizer{t: t, special: make(map[int32]bool)}
	h.bos, _ = h.lookup(hfBosCandidates)
	h.eos, h.eosMarker = h.lookup(hfEosCandidates)
	h.pad, _ = h.lookup(hfPadCandidates)
	h.unk, _ = h.lookup(hfUnkCandidates)

	for _, id := range []int32{h.bos, h.eos, h.pad, h.unk} {
		if id >= 0 {
			h.special[id] = true
		}
	}

	return h, nil
}

func (h *HFTokenizer) lookup(candidates []string) (int32, string) {
	for _, token := range candidates {
		if id, ok := h.t.TokenToId(token); ok {
			return int32(id), token //nolint:gosec // G115: Token ID fits in int32 - vocab size < 2^31.
		}
	}
	return -1, ""
}

// Encode converts text to token IDs.
//
// AddSpecialTokens is forwarded to the post-processor, which adds whatever
// the tokenizer.json template prescribes (BOS for LLaMA, CLS/SEP for BERT).
func (h *HFTokenizer) Encode(text string, opts EncodeOptions) ([]int32, error) {
	if text == "" && !opts.AddSpecialTokens {
		return []int32{}, nil
	}

	enc, err := h.t.EncodeSingle(text, opts.AddSpecialTokens)
	if err != nil {
		return nil, fmt.Errorf("failed to encode text: %w", err)
	}

	ids := enc.GetIds()
	result := make([]int32, len(ids))
	for i, id := range ids {
		result[i] = int32(id) //nolint:gosec // G115: Token ID fits in int32 - vocab size < 2^31.
	}

	return result, nil
}

// EncodePadded converts text to a fixed-length encoding.
func (h *HFTokenizer) EncodePadded(text string, opts PaddingOptions) (*Encoding, error) {
	return encodePadded(h, text, opts)
}

// Decode converts token IDs back to text, special tokens included.
func (h *HFTokenizer) Decode(tokens []int32) (string, error) {
	ids := make([]int, len(tokens))
	for i, tok := range tokens {
		ids[i] = int(tok)
	}

	return strings.TrimSpace(h.t.Decode(ids, false)), nil
}

// VocabSize returns the vocabulary size including added tokens.
func (h *HFTokenizer) VocabSize() int {
	return h.t.GetVocabSize(true)
}

// EosMarker returns the text of the detected EOS token.
func (h *HFTokenizer) EosMarker() string {
	return h.eosMarker
}

// BosToken returns the beginning-of-sequence token ID.
func (h *HFTokenizer) BosToken() int32 {
	return h.bos
}

// EosToken returns the end-of-sequence token ID.
func (h *HFTokenizer) EosToken() int32 {
	return h.eos
}

// PadToken returns the padding token ID.
func (h *HFTokenizer) PadToken() int32 {
	return h.pad
}

// UnkToken returns the unknown token ID.
func (h *HFTokenizer) UnkToken() int32 {
	return h.unk
}

// IsSpecialToken checks if a token ID is one of the detected special tokens.
func (h *HFTokenizer) IsSpecialToken(token int32) bool {
	return h.special[token]
}
