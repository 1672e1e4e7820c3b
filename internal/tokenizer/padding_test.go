package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPad(t *testing.T) {
	tests := []struct {
		name     string
		ids      []int32
		opts     PaddingOptions
		wantIDs  []int32
		wantMask []int32
		wantLen  int
		overflow int
	}{
		{
			name:     "right padding",
			ids:      []int32{7, 8},
			opts:     PaddingOptions{MaxLength: 4, PadToken: 0},
			wantIDs:  []int32{7, 8, 0, 0},
			wantMask: []int32{1, 1, 0, 0},
			wantLen:  2,
		},
		{
			name:     "left padding",
			ids:      []int32{7, 8},
			opts:     PaddingOptions{MaxLength: 4, PadToken: 9, Side: PadLeft},
			wantIDs:  []int32{9, 9, 7, 8},
			wantMask: []int32{0, 0, 1, 1},
			wantLen:  2,
		},
		{
			name:     "exact fit",
			ids:      []int32{1, 2, 3},
			opts:     PaddingOptions{MaxLength: 3},
			wantIDs:  []int32{1, 2, 3},
			wantMask: []int32{1, 1, 1},
			wantLen:  3,
		},
		{
			name:     "truncation keeps leading tokens",
			ids:      []int32{1, 2, 3, 4, 5},
			opts:     PaddingOptions{MaxLength: 3, PadToken: 0},
			wantIDs:  []int32{1, 2, 3},
			wantMask: []int32{1, 1, 1},
			wantLen:  3,
			overflow: 2,
		},
		{
			name:     "empty input",
			ids:      nil,
			opts:     PaddingOptions{MaxLength: 2, PadToken: 5},
			wantIDs:  []int32{5, 5},
			wantMask: []int32{0, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := Pad(tt.ids, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.wantIDs, enc.IDs)
			assert.Equal(t, tt.wantMask, enc.AttentionMask)
			assert.Equal(t, tt.wantLen, enc.Length)
			assert.Equal(t, tt.overflow, enc.Overflow)
			assert.Equal(t, tt.overflow > 0, enc.Truncated())
		})
	}
}

func TestPad_DoesNotModifyInput(t *testing.T) {
	ids := []int32{1, 2, 3, 4}
	_, err := Pad(ids, PaddingOptions{MaxLength: 2})
	require.NoError(t, err)
	assert.Equal(t, []int32{1, 2, 3, 4}, ids)
}

func TestPad_InvalidLength(t *testing.T) {
	for _, n := range []int{0, -1} {
		_, err := Pad([]int32{1}, PaddingOptions{MaxLength: n})
		assert.ErrorIs(t, err, ErrInvalidMaxLength)
	}
}

func TestPaddingSide_String(t *testing.T) {
	assert.Equal(t, "right", PadRight.String())
	assert.Equal(t, "left", PadLeft.String())
}
