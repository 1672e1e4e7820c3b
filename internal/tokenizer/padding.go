package tokenizer

import "fmt"

// Pad fits ids into a fixed-length Encoding according to opts.
//
// The input slice is never modified.
func Pad(ids []int32, opts PaddingOptions) (*Encoding, error) {
	if opts.MaxLength <= 0 {
		return nil, fmt.Errorf("failed to pad to %d tokens: %w", opts.MaxLength, ErrInvalidMaxLength)
	}

	n := min(len(ids), opts.MaxLength)
	enc := &Encoding{
		IDs:           make([]int32, opts.MaxLength),
		AttentionMask: make([]int32, opts.MaxLength),
		Length:        n,
		Overflow:      len(ids) - n,
	}

	offset := 0
	if opts.Side == PadLeft {
		offset = opts.MaxLength - n
	}

	for i := range enc.IDs {
		enc.IDs[i] = opts.PadToken
	}
	for i := 0; i < n; i++ {
		enc.IDs[offset+i] = ids[i]
		enc.AttentionMask[offset+i] = 1
	}

	return enc, nil
}

// encodePadded is the shared EncodePadded implementation for tokenizers
// whose raw Encode already honours AddSpecialTokens.
func encodePadded(tok Tokenizer, text string, opts PaddingOptions) (*Encoding, error) {
	if opts.MaxLength <= 0 {
		return nil, fmt.Errorf("failed to pad to %d tokens: %w", opts.MaxLength, ErrInvalidMaxLength)
	}

	ids, err := tok.Encode(text, EncodeOptions{AddSpecialTokens: opts.AddSpecialTokens})
	if err != nil {
		return nil, err
	}

	return Pad(ids, opts)
}
