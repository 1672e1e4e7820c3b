// Package tokenizer provides the tokenization port used to build supervised
// training examples.
//
// The package implements three tokenizers behind one interface:
//   - tiktoken: BPE tokenizer used by GPT-3/GPT-4 (cl100k_base, p50k_base)
//   - BPE: pure Go Byte-Pair Encoding from a HuggingFace tokenizer.json
//   - HF: the full HuggingFace pipeline via github.com/sugarme/tokenizer
//
// Every encode call takes its options explicitly. Nothing about padding side,
// pad token or special-token handling is stored on a tokenizer, so one
// instance can be shared by many goroutines.
//
// Example usage:
//
//	tok, err := tokenizer.NewTikToken("cl100k_base")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Raw encode, no special tokens.
//	ids, err := tok.Encode("Hello, world!", tokenizer.EncodeOptions{})
//
//	// Fixed-length encode, right padded with EOS.
//	enc, err := tok.EncodePadded("Hello<|endoftext|>", tokenizer.PaddingOptions{
//	    MaxLength:        128,
//	    PadToken:         tok.EosToken(),
//	    AddSpecialTokens: true,
//	})
package tokenizer
