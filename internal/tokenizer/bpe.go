package tokenizer

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Space markers used by common HuggingFace BPE vocabularies.
const (
	byteLevelSpace     = "Ġ" // GPT-2, Qwen, SmolLM
	sentencePieceSpace = "▁" // LLaMA, Mistral
)

// BPETokenizer implements Byte-Pair Encoding tokenization.
//
// This is a pure Go implementation that can load HuggingFace tokenizer.json
// files. Text is split into words that keep their leading space, so "world"
// and " world" may map to different tokens, as they do in real vocabularies.
type BPETokenizer struct {
	vocab         map[string]int32 // token -> ID
	reverseVocab  map[int32]string // ID -> token
	ranks         map[pair]int     // merge -> priority
	spaceMarker   string
	bosToken      int32
	eosToken      int32
	padToken      int32
	unkToken      int32
	addBOS        bool
	specialTokens map[int32]bool
	literals      []string // special token contents, longest first
}

type pair struct {
	first  string
	second string
}

// NewBPETokenizer creates a new BPE tokenizer from vocab and merges.
//
// Merges are ranked by position, earlier merges win.
func NewBPETokenizer(vocab map[string]int32, merges []pair) *BPETokenizer {
	reverseVocab := make(map[int32]string, len(vocab))
	for token, id := range vocab {
		reverseVocab[id] = token
	}

	ranks := make(map[pair]int, len(merges))
	for i, m := range merges {
		if _, ok := ranks[m]; !ok {
			ranks[m] = i
		}
	}

	return &BPETokenizer{
		vocab:         vocab,
		reverseVocab:  reverseVocab,
		ranks:         ranks,
		spaceMarker:   detectSpaceMarker(vocab),
		bosToken:      -1,
		eosToken:      -1,
		padToken:      -1,
		unkToken:      -1,
		specialTokens: make(map[int32]bool),
	}
}

// detectSpaceMarker prefers the byte-level marker when a vocabulary carries
// both markers.
func detectSpaceMarker(vocab map[string]int32) string {
	sentencePiece := false
	for token := range vocab {
		if strings.HasPrefix(token, byteLevelSpace) {
			return byteLevelSpace
		}
		if strings.HasPrefix(token, sentencePieceSpace) {
			sentencePiece = true
		}
	}
	if sentencePiece {
		return sentencePieceSpace
	}
	return " "
}

// SetSpecialTokens configures special token IDs.
//
// It is meant to be called while building the tokenizer, before it is shared.
func (b *BPETokenizer) SetSpecialTokens(bos, eos, pad, unk int32) {
	b.bosToken = bos
	b.eosToken = eos
	b.padToken = pad
	b.unkToken = unk

	for _, id := range []int32{bos, eos, pad, unk} {
		if id >= 0 {
			b.markSpecial(id)
		}
	}
}

// SetAddBOS controls whether Encode prepends BOS when special tokens are requested.
func (b *BPETokenizer) SetAddBOS(add bool) {
	b.addBOS = add
}

func (b *BPETokenizer) markSpecial(id int32) {
	if b.specialTokens[id] {
		return
	}
	b.specialTokens[id] = true

	if text, ok := b.reverseVocab[id]; ok && text != "" {
		b.literals = append(b.literals, text)
		sort.SliceStable(b.literals, func(i, j int) bool {
			return len(b.literals[i]) > len(b.literals[j])
		})
	}
}

// Encode converts text to token IDs using BPE.
//
// With AddSpecialTokens, special-token literals in text map to their IDs and
// BOS is prepended when the tokenizer is configured to add it. Without it,
// the same literals are tokenized as ordinary text.
func (b *BPETokenizer) Encode(text string, opts EncodeOptions) ([]int32, error) {
	var tokens []int32
	if opts.AddSpecialTokens && b.addBOS && b.bosToken >= 0 {
		tokens = append(tokens, b.bosToken)
	}

	if text == "" {
		return append([]int32{}, tokens...), nil
	}

	if !opts.AddSpecialTokens || len(b.literals) == 0 {
		return b.encodeText(tokens, text), nil
	}

	for text != "" {
		idx, literal := b.nextLiteral(text)
		if idx < 0 {
			tokens = b.encodeText(tokens, text)
			break
		}
		tokens = b.encodeText(tokens, text[:idx])
		tokens = append(tokens, b.vocab[literal])
		text = text[idx+len(literal):]
	}

	return tokens, nil
}

// nextLiteral finds the earliest special-token literal in text.
func (b *BPETokenizer) nextLiteral(text string) (int, string) {
	bestIdx, best := -1, ""
	for _, lit := range b.literals {
		idx := strings.Index(text, lit)
		if idx < 0 {
			continue
		}
		if bestIdx < 0 || idx < bestIdx {
			bestIdx, best = idx, lit
		}
	}
	return bestIdx, best
}

func (b *BPETokenizer) encodeText(tokens []int32, text string) []int32 {
	for _, word := range splitWords(text) {
		if strings.HasPrefix(word, " ") {
			word = b.spaceMarker + word[1:]
		}
		for _, piece := range b.merge(word) {
			if id, ok := b.vocab[piece]; ok {
				tokens = append(tokens, id)
			} else if b.unkToken >= 0 {
				tokens = append(tokens, b.unkToken)
			}
		}
	}
	return tokens
}

// splitWords splits text so that every word carries at most one leading
// space. Runs of spaces become single-space words.
func splitWords(text string) []string {
	var (
		words   []string
		current strings.Builder
	)

	for _, r := range text {
		if r == ' ' && current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
		current.WriteRune(r)
	}
	if current.Len() > 0 {
		words = append(words, current.String())
	}

	return words
}

// merge applies BPE merges to a single word.
func (b *BPETokenizer) merge(word string) []string {
	chars := make([]string, 0, len(word))
	for _, r := range word {
		chars = append(chars, string(r))
	}

	for len(chars) > 1 {
		bestIdx := -1
		bestRank := len(b.ranks) + 1

		for i := 0; i < len(chars)-1; i++ {
			if rank, ok := b.ranks[pair{chars[i], chars[i+1]}]; ok && rank < bestRank {
				bestIdx = i
				bestRank = rank
			}
		}

		if bestIdx == -1 {
			break
		}

		merged := chars[bestIdx] + chars[bestIdx+1]
		chars = append(chars[:bestIdx+1], chars[bestIdx+2:]...)
		chars[bestIdx] = merged
	}

	return chars
}

// EncodePadded converts text to a fixed-length encoding.
func (b *BPETokenizer) EncodePadded(text string, opts PaddingOptions) (*Encoding, error) {
	return encodePadded(b, text, opts)
}

// Decode converts token IDs back to text.
func (b *BPETokenizer) Decode(tokens []int32) (string, error) {
	var sb strings.Builder

	for _, token := range tokens {
		text, ok := b.reverseVocab[token]
		if !ok {
			return "", fmt.Errorf("failed to decode token %d: not in vocabulary", token)
		}
		sb.WriteString(text)
	}

	out := sb.String()
	if b.spaceMarker != " " {
		out = strings.ReplaceAll(out, b.spaceMarker, " ")
	}
	return out, nil
}

// VocabSize returns the total vocabulary size.
func (b *BPETokenizer) VocabSize() int {
	return len(b.vocab)
}

// EosMarker returns the text of the EOS token, or "" when none is configured.
func (b *BPETokenizer) EosMarker() string {
	return b.reverseVocab[b.eosToken]
}

// BosToken returns the beginning-of-sequence token ID.
func (b *BPETokenizer) BosToken() int32 {
	return b.bosToken
}

// EosToken returns the end-of-sequence token ID.
func (b *BPETokenizer) EosToken() int32 {
	return b.eosToken
}

// PadToken returns the padding token ID.
func (b *BPETokenizer) PadToken() int32 {
	return b.padToken
}

// UnkToken returns the unknown token ID.
func (b *BPETokenizer) UnkToken() int32 {
	return b.unkToken
}

// IsSpecialToken checks if a token ID is a special token.
func (b *BPETokenizer) IsSpecialToken(token int32) bool {
	return b.specialTokens[token]
}

// HuggingFaceTokenizerConfig represents a subset of tokenizer.json structure.
type HuggingFaceTokenizerConfig struct {
	Model struct {
		Vocab  map[string]int `json:"vocab"`
		Merges []string       `json:"merges"`
	} `json:"model"`
	AddedTokens []struct {
		ID      int    `json:"id"`
		Content string `json:"content"`
		Special bool   `json:"special"`
	} `json:"added_tokens"`
}

// LoadBPEFromHuggingFace loads a BPE tokenizer from tokenizer.json.
//
// This is a simplified loader that handles the most common HuggingFace format.
func LoadBPEFromHuggingFace(path string) (*BPETokenizer, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: Path comes from trusted caller
	if err != nil {
		return nil, fmt.Errorf("failed to read tokenizer.json: %w", err)
	}

	var config HuggingFaceTokenizerConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse tokenizer.json: %w", err)
	}

	vocab := make(map[string]int32, len(config.Model.Vocab)+len(config.AddedTokens))
	for token, id := range config.Model.Vocab {
		vocab[token] = int32(id) //nolint:gosec // G115: integer overflow conversion int -> int32
	}
	for _, added := range config.AddedTokens {
		vocab[added.Content] = int32(added.ID) //nolint:gosec // G115: integer overflow conversion int -> int32
	}

	var merges []pair
	for _, mergeStr := range config.Model.Merges {
		parts := strings.Fields(mergeStr)
		if len(parts) == 2 {
			merges = append(merges, pair{parts[0], parts[1]})
		}
	}

	tokenizer := NewBPETokenizer(vocab, merges)

	bos, eos, pad, unk := int32(-1), int32(-1), int32(-1), int32(-1)
	for _, addedToken := range config.AddedTokens {
		if !addedToken.Special {
			continue
		}
		id := int32(addedToken.ID) //nolint:gosec // G115: integer overflow conversion int -> int32
		tokenizer.markSpecial(id)

		content := strings.ToLower(addedToken.Content)
		switch {
		case content == "<s>" || strings.Contains(content, "bos") || strings.Contains(content, "begin_of_text"):
			bos = id
		case content == "</s>" || strings.Contains(content, "eos") ||
			strings.Contains(content, "endoftext") || strings.Contains(content, "end_of_text"):
			if eos < 0 {
				eos = id
			}
		case strings.Contains(content, "pad"):
			pad = id
		case strings.Contains(content, "unk"):
			unk = id
		}
	}

	tokenizer.SetSpecialTokens(bos, eos, pad, unk)
	tokenizer.SetAddBOS(bos >= 0)

	return tokenizer, nil
}

// ExampleBPEVocab creates a minimal BPE tokenizer for testing.
//
// Its vocabulary has distinct tokens for "hello"/" hello" and
// "world"/" world", and the special tokens <unk>, <s>, </s> and <pad>.
// BOS is not added implicitly.
func ExampleBPEVocab() *BPETokenizer {
	vocab := map[string]int32{
		"<unk>":  0,
		"<s>":    1,
		"</s>":   2,
		"<pad>":  3,
		"h":      4,
		"e":      5,
		"l":      6,
		"o":      7,
		"w":      8,
		"r":      9,
		"d":      10,
		"Ġ":      11,
		"!":      12,
		"he":     13,
		"ll":     14,
		"hell":   15,
		"hello":  16,
		"wo":     17,
		"wor":    18,
		"worl":   19,
		"world":  20,
		"Ġworld": 21,
		"Ġhello": 22,
	}

	merges := []pair{
		{"h", "e"},
		{"l", "l"},
		{"he", "ll"},
		{"hell", "o"},
		{"w", "o"},
		{"wo", "r"},
		{"wor", "l"},
		{"worl", "d"},
		{"Ġ", "world"},
		{"Ġ", "hello"},
	}

	tokenizer := NewBPETokenizer(vocab, merges)
	tokenizer.SetSpecialTokens(1, 2, 3, 0)

	return tokenizer
}
