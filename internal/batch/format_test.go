package batch

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rows(lines ...string) []json.RawMessage {
	out := make([]json.RawMessage, len(lines))
	for i, l := range lines {
		out[i] = json.RawMessage(l)
	}
	return out
}

func TestFieldFormatter(t *testing.T) {
	f := FieldFormatter("prompt", "completion")

	p, err := f(json.RawMessage(`{"prompt":"2+2=","completion":"4","id":7}`))
	require.NoError(t, err)
	assert.Equal(t, Pair{Question: "2+2=", Answer: "4"}, p)

	_, err = f(json.RawMessage(`{"prompt":"2+2="}`))
	assert.ErrorIs(t, err, ErrMissingField)

	_, err = f(json.RawMessage(`{"prompt":"2+2=","completion":4}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `field "completion" is not a string`)

	_, err = f(json.RawMessage(`["2+2=","4"]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row is not an object")
}

func TestColumnFormatter(t *testing.T) {
	// Rejection-sampled rows carry [question, gold, reasoning].
	f := ColumnFormatter(0, 2)

	p, err := f(json.RawMessage(`["How many legs?", 4, "A dog has <answer>4</answer>"]`))
	require.NoError(t, err)
	assert.Equal(t, Pair{Question: "How many legs?", Answer: "A dog has <answer>4</answer>"}, p)

	_, err = f(json.RawMessage(`["How many legs?", 4]`))
	assert.ErrorIs(t, err, ErrMissingField)

	_, err = f(json.RawMessage(`{"question":"q"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row is not an array")
}

func TestFormatterFor(t *testing.T) {
	p, err := FormatterFor("0", "2")(json.RawMessage(`["q","gold","reasoning"]`))
	require.NoError(t, err)
	assert.Equal(t, Pair{Question: "q", Answer: "reasoning"}, p)

	p, err = FormatterFor("question", "answer")(json.RawMessage(`{"question":"q","answer":"a"}`))
	require.NoError(t, err)
	assert.Equal(t, Pair{Question: "q", Answer: "a"}, p)
}

func TestFormat(t *testing.T) {
	pairs, err := Format(rows(`{"question":"a","answer":"b"}`, `{"question":"c","answer":""}`), FieldFormatter("question", "answer"))
	require.NoError(t, err)
	assert.Equal(t, []Pair{{Question: "a", Answer: "b"}, {Question: "c", Answer: ""}}, pairs)

	_, err = Format(rows(`{"question":"a","answer":"b"}`, `{"question":"c"}`), FieldFormatter("question", "answer"))
	assert.ErrorIs(t, err, ErrMissingField)
	assert.Contains(t, err.Error(), "row 2")

	pairs, err = Format(nil, FieldFormatter("question", "answer"))
	require.NoError(t, err)
	assert.Empty(t, pairs)
}
