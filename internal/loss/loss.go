// Package loss computes masked cross-entropy over encoded labels.
//
// Positions whose label equals the ignore index contribute nothing, which is
// how question, padding and EOS positions are excluded from training.
//
// Causal language models predict the next token, so CausalLM compares the
// logits at position t with the label at t+1:
//
//	logits := model.Forward(example.InputIDs) // [L][vocab]
//	res, err := loss.CausalLM(logits, example.Labels, align.DefaultIgnoreIndex)
//	fmt.Println(res.Mean(), res.Tokens)
package loss

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/sft/internal/parallel"
)

// Input errors.
var (
	ErrShapeMismatch   = errors.New("logits and labels have different lengths")
	ErrLabelOutOfRange = errors.New("label outside vocabulary")
)

// Result is a summed loss and the number of positions that contributed.
type Result struct {
	Sum    float64
	Tokens int
}

// Mean returns Sum/Tokens, or 0 when no position was supervised.
func (r Result) Mean() float64 {
	if r.Tokens == 0 {
		return 0
	}
	return r.Sum / float64(r.Tokens)
}

// Add returns the sum of two results.
func (r Result) Add(o Result) Result {
	return Result{Sum: r.Sum + o.Sum, Tokens: r.Tokens + o.Tokens}
}

// CrossEntropy computes -log softmax(logits[i])[labels[i]] summed over every
// position whose label is not ignore.
func CrossEntropy(logits [][]float64, labels []int32, ignore int32) (Result, error) {
	if len(logits) != len(labels) {
		return Result{}, fmt.Errorf("%w: %d logits, %d labels", ErrShapeMismatch, len(logits), len(labels))
	}

	var res Result
	for i, label := range labels {
		if label == ignore {
			continue
		}

		row := logits[i]
		if label < 0 || int(label) >= len(row) {
			return Result{}, fmt.Errorf("%w: label %d at position %d, vocabulary %d",
				ErrLabelOutOfRange, label, i, len(row))
		}

		// log-sum-exp keeps large logits from overflowing.
		res.Sum += floats.LogSumExp(row) - row[label]
		res.Tokens++
	}

	return res, nil
}

// CausalLM computes the next-token loss: logits at position t are scored
// against labels[t+1]. The last logit row has no target and is dropped.
func CausalLM(logits [][]float64, labels []int32, ignore int32) (Result, error) {
	if len(logits) != len(labels) {
		return Result{}, fmt.Errorf("%w: %d logits, %d labels", ErrShapeMismatch, len(logits), len(labels))
	}
	if len(labels) < 2 {
		return Result{}, nil
	}

	return CrossEntropy(logits[:len(logits)-1], labels[1:], ignore)
}

// BatchCausalLM applies CausalLM to every example and sums the results.
// The first error in input order is returned.
func BatchCausalLM(logits [][][]float64, labels [][]int32, ignore int32, cfg parallel.Config) (Result, error) {
	if len(logits) != len(labels) {
		return Result{}, fmt.Errorf("%w: %d examples of logits, %d of labels", ErrShapeMismatch, len(logits), len(labels))
	}

	results := make([]Result, len(labels))
	errs := make([]error, len(labels))

	parallel.For(len(labels), func(i int) {
		results[i], errs[i] = CausalLM(logits[i], labels[i], ignore)
	}, cfg)

	var total Result
	for i, res := range results {
		if errs[i] != nil {
			return Result{}, fmt.Errorf("example %d: %w", i, errs[i])
		}
		total = total.Add(res)
	}

	return total, nil
}
