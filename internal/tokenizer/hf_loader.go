package tokenizer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// HFTokenizerType identifies the tokenizer implementation type.
type HFTokenizerType string

const (
	// HFTypeBPE indicates Byte-Pair Encoding tokenizer.
	HFTypeBPE HFTokenizerType = "BPE"

	// HFTypeWordPiece indicates WordPiece tokenizer (BERT-style).
	HFTypeWordPiece HFTokenizerType = "WordPiece"

	// HFTypeUnigram indicates Unigram tokenizer (SentencePiece-style).
	HFTypeUnigram HFTokenizerType = "Unigram"

	// HFTypeWordLevel indicates a whole-word vocabulary lookup.
	HFTypeWordLevel HFTokenizerType = "WordLevel"

	// HFTypeUnknown indicates an unknown or unsupported tokenizer type.
	HFTypeUnknown HFTokenizerType = "Unknown"
)

// Kind selects a tokenizer backend in Load.
type Kind string

const (
	// KindAuto tries a HuggingFace directory, then tiktoken model and encoding names.
	KindAuto Kind = "auto"
	// KindTikToken loads a tiktoken encoding or model name.
	KindTikToken Kind = "tiktoken"
	// KindHF loads tokenizer.json through the full HuggingFace pipeline.
	KindHF Kind = "hf"
	// KindBPE loads tokenizer.json with the in-repo BPE implementation.
	KindBPE Kind = "bpe"
)

// Kinds lists every supported Kind.
var Kinds = []Kind{KindAuto, KindTikToken, KindHF, KindBPE}

// HFTokenizerMetadata contains metadata from tokenizer.json.
type HFTokenizerMetadata struct {
	Type          HFTokenizerType
	VocabSize     int
	HasBOS        bool
	HasEOS        bool
	HasPAD        bool
	HasUNK        bool
	TokenizerType string
}

// DetectHFTokenizerType determines the tokenizer type from tokenizer.json.
//
//nolint:gocognit // JSON parsing requires nested type assertions for complex structures.
func DetectHFTokenizerType(path string) (*HFTokenizerMetadata, error) {
	//nolint:gosec // Loading tokenizer from user-specified path is intentional.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tokenizer.json: %w", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse tokenizer.json: %w", err)
	}

	metadata := &HFTokenizerMetadata{
		Type: HFTypeUnknown,
	}

	if model, ok := raw["model"].(map[string]interface{}); ok {
		if tokType, ok := model["type"].(string); ok {
			metadata.TokenizerType = tokType
			switch tokType {
			case "BPE":
				metadata.Type = HFTypeBPE
			case "WordPiece":
				metadata.Type = HFTypeWordPiece
			case "Unigram":
				metadata.Type = HFTypeUnigram
			case "WordLevel":
				metadata.Type = HFTypeWordLevel
			}
		}

		if vocab, ok := model["vocab"].(map[string]interface{}); ok {
			metadata.VocabSize = len(vocab)
		}
	}

	if addedTokens, ok := raw["added_tokens"].([]interface{}); ok {
		for _, tokenRaw := range addedTokens {
			token, ok := tokenRaw.(map[string]interface{})
			if !ok {
				continue
			}
			content, _ := token["content"].(string)
			switch content {
			case "<s>", "<bos>", "[CLS]", "<|begin_of_text|>":
				metadata.HasBOS = true
			case "</s>", "<eos>", "[SEP]", "<|endoftext|>", "<|end_of_text|>":
				metadata.HasEOS = true
			case "<pad>", "[PAD]":
				metadata.HasPAD = true
			case "<unk>", "[UNK]":
				metadata.HasUNK = true
			}
		}
	}

	return metadata, nil
}

// resolveTokenizerJSON accepts either a model directory or a tokenizer.json path.
func resolveTokenizerJSON(pathOrDir string) string {
	if info, err := os.Stat(pathOrDir); err == nil && info.IsDir() {
		return filepath.Join(pathOrDir, "tokenizer.json")
	}
	return pathOrDir
}

// LoadFromHuggingFace loads a tokenizer from a HuggingFace model directory
// or tokenizer.json file using the full sugarme pipeline.
func LoadFromHuggingFace(modelPath string) (Tokenizer, error) {
	tokenizerPath := resolveTokenizerJSON(modelPath)

	metadata, err := DetectHFTokenizerType(tokenizerPath)
	if err != nil {
		return nil, err
	}

	switch metadata.Type {
	case HFTypeBPE, HFTypeWordPiece, HFTypeUnigram, HFTypeWordLevel:
		return NewHFTokenizer(tokenizerPath)
	default:
		return nil, fmt.Errorf("unknown tokenizer type: %s", metadata.TokenizerType)
	}
}

// TryLoadTikToken attempts to load a tiktoken-compatible tokenizer.
//
// This is a fallback for models that use OpenAI-style tokenizers.
func TryLoadTikToken(modelName string) (Tokenizer, error) {
	encodingMap := map[string]string{
		"gpt-4":                  encodingCL100kBase,
		"gpt-3.5-turbo":          encodingCL100kBase,
		"gpt-3":                  encodingP50kBase,
		"text-davinci-003":       encodingP50kBase,
		"text-embedding-ada-002": encodingCL100kBase,
	}

	if encoding, ok := encodingMap[modelName]; ok {
		return NewTikToken(encoding)
	}

	return NewTikTokenForModel(modelName)
}

// AutoLoadTokenizer attempts to automatically load the correct tokenizer.
//
// It tries multiple strategies:
//  1. Load from HuggingFace model directory or tokenizer.json
//  2. Load tiktoken by model name
//  3. Load tiktoken by encoding name
func AutoLoadTokenizer(pathOrName string) (Tokenizer, error) {
	tokenizerPath := resolveTokenizerJSON(pathOrName)
	if info, err := os.Stat(tokenizerPath); err == nil && !info.IsDir() {
		if tokenizer, err := LoadFromHuggingFace(tokenizerPath); err == nil {
			return tokenizer, nil
		}
		if tokenizer, err := LoadBPEFromHuggingFace(tokenizerPath); err == nil {
			return tokenizer, nil
		}
	}

	if tokenizer, err := TryLoadTikToken(pathOrName); err == nil {
		return tokenizer, nil
	}

	if tokenizer, err := NewTikToken(pathOrName); err == nil {
		return tokenizer, nil
	}

	return nil, fmt.Errorf("failed to auto-load tokenizer from %q", pathOrName)
}

// Load builds a tokenizer of the given kind from source, which is a path for
// the HuggingFace kinds and an encoding or model name for tiktoken.
func Load(kind Kind, source string) (Tokenizer, error) {
	switch kind {
	case KindAuto, "":
		return AutoLoadTokenizer(source)
	case KindTikToken:
		if tokenizer, err := NewTikToken(source); err == nil {
			return tokenizer, nil
		}
		return TryLoadTikToken(source)
	case KindHF:
		return LoadFromHuggingFace(source)
	case KindBPE:
		return LoadBPEFromHuggingFace(resolveTokenizerJSON(source))
	default:
		return nil, fmt.Errorf("unknown tokenizer kind %q", kind)
	}
}
