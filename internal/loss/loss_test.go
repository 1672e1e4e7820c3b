package loss

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/sft/internal/align"
	"github.com/born-ml/sft/internal/parallel"
)

const ignore = align.DefaultIgnoreIndex

func TestCrossEntropy(t *testing.T) {
	// log_softmax([2, 1]) = [-0.3133, -1.3133]
	logits := [][]float64{{2, 1}, {2, 1}, {0, 0}}

	tests := []struct {
		name       string
		labels     []int32
		wantSum    float64
		wantTokens int
	}{
		{name: "all supervised", labels: []int32{0, 1, 0}, wantSum: 0.3133 + 1.3133 + math.Ln2, wantTokens: 3},
		{name: "ignored positions skipped", labels: []int32{ignore, 1, ignore}, wantSum: 1.3133, wantTokens: 1},
		{name: "nothing supervised", labels: []int32{ignore, ignore, ignore}, wantSum: 0, wantTokens: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := CrossEntropy(logits, tt.labels, ignore)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantSum, res.Sum, 1e-3)
			assert.Equal(t, tt.wantTokens, res.Tokens)
		})
	}
}

func TestCrossEntropy_LargeLogits(t *testing.T) {
	res, err := CrossEntropy([][]float64{{1000, 0}}, []int32{0}, ignore)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(res.Sum))
	assert.InDelta(t, 0, res.Sum, 1e-9)
}

func TestCrossEntropy_Errors(t *testing.T) {
	_, err := CrossEntropy([][]float64{{0, 0}}, []int32{0, 1}, ignore)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = CrossEntropy([][]float64{{0, 0}}, []int32{2}, ignore)
	assert.ErrorIs(t, err, ErrLabelOutOfRange)

	_, err = CrossEntropy([][]float64{{0, 0}}, []int32{-1}, ignore)
	assert.ErrorIs(t, err, ErrLabelOutOfRange)
}

func TestCausalLM_Shift(t *testing.T) {
	// Row t is scored against label t+1, so the first label is never used.
	logits := [][]float64{
		{0, 10, 0},
		{0, 0, 10},
		{10, 0, 0},
	}
	labels := []int32{ignore, 1, 2}

	res, err := CausalLM(logits, labels, ignore)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Tokens)
	assert.Less(t, res.Mean(), 1e-3)

	// Unshifted scoring of the same data is poor.
	unshifted, err := CrossEntropy(logits, labels, ignore)
	require.NoError(t, err)
	assert.Greater(t, unshifted.Mean(), 5.0)
}

func TestCausalLM_Short(t *testing.T) {
	res, err := CausalLM([][]float64{{1, 2}}, []int32{0}, ignore)
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
	assert.Zero(t, res.Mean())
}

func TestBatchCausalLM(t *testing.T) {
	row := []float64{0, 0}
	logits := make([][][]float64, 100)
	labels := make([][]int32, 100)
	for i := range logits {
		logits[i] = [][]float64{row, row, row}
		labels[i] = []int32{ignore, 0, ignore}
	}

	cfg := parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 8}
	res, err := BatchCausalLM(logits, labels, ignore, cfg)
	require.NoError(t, err)
	assert.Equal(t, 100, res.Tokens)
	assert.InDelta(t, math.Ln2, res.Mean(), 1e-9)

	labels[42] = []int32{ignore, 7, ignore}
	_, err = BatchCausalLM(logits, labels, ignore, cfg)
	require.ErrorIs(t, err, ErrLabelOutOfRange)
	assert.Contains(t, err.Error(), "example 42")
}
