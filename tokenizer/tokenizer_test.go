package tokenizer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/sft/tokenizer"
)

func TestExampleBPE(t *testing.T) {
	tok := tokenizer.ExampleBPE()

	ids, err := tok.Encode("hello world", tokenizer.EncodeOptions{})
	require.NoError(t, err)
	assert.Equal(t, []int32{16, 21}, ids)

	enc, err := tok.EncodePadded("hello world"+tok.EosMarker(), tokenizer.PaddingOptions{
		MaxLength:        5,
		PadToken:         tok.PadToken(),
		Side:             tokenizer.PadRight,
		AddSpecialTokens: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []int32{16, 21, 2, 3, 3}, enc.IDs)
	assert.Equal(t, []int32{1, 1, 1, 0, 0}, enc.AttentionMask)
	assert.False(t, enc.Truncated())
}

func TestLoad_UnknownKind(t *testing.T) {
	_, err := tokenizer.Load(tokenizer.Kind("nope"), "x")
	assert.Error(t, err)
}
