package batch

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ErrMissingField is returned when a row lacks a field the formatter reads.
var ErrMissingField = errors.New("missing field")

// Formatter turns one raw input row into a training pair.
type Formatter func(row json.RawMessage) (Pair, error)

// FieldFormatter reads the question and answer from string fields of a JSON
// object row.
func FieldFormatter(questionField, answerField string) Formatter {
	return func(row json.RawMessage) (Pair, error) {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(row, &fields); err != nil {
			return Pair{}, fmt.Errorf("row is not an object: %w", err)
		}

		question, err := stringField(fields, questionField)
		if err != nil {
			return Pair{}, err
		}
		answer, err := stringField(fields, answerField)
		if err != nil {
			return Pair{}, err
		}

		return Pair{Question: question, Answer: answer}, nil
	}
}

func stringField(fields map[string]json.RawMessage, name string) (string, error) {
	raw, ok := fields[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrMissingField, name)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("field %q is not a string: %w", name, err)
	}
	return s, nil
}

// ColumnFormatter reads the question and answer from positions of a JSON
// array row, e.g. [question, gold, reasoning] with columns 0 and 2.
func ColumnFormatter(questionColumn, answerColumn int) Formatter {
	return func(row json.RawMessage) (Pair, error) {
		var columns []json.RawMessage
		if err := json.Unmarshal(row, &columns); err != nil {
			return Pair{}, fmt.Errorf("row is not an array: %w", err)
		}

		question, err := stringColumn(columns, questionColumn)
		if err != nil {
			return Pair{}, err
		}
		answer, err := stringColumn(columns, answerColumn)
		if err != nil {
			return Pair{}, err
		}

		return Pair{Question: question, Answer: answer}, nil
	}
}

func stringColumn(columns []json.RawMessage, i int) (string, error) {
	if i < 0 || i >= len(columns) {
		return "", fmt.Errorf("%w: column %d of %d", ErrMissingField, i, len(columns))
	}

	var s string
	if err := json.Unmarshal(columns[i], &s); err != nil {
		return "", fmt.Errorf("column %d is not a string: %w", i, err)
	}
	return s, nil
}

// FormatterFor picks ColumnFormatter when both names are column numbers and
// FieldFormatter otherwise.
func FormatterFor(questionField, answerField string) Formatter {
	q, qErr := strconv.Atoi(questionField)
	a, aErr := strconv.Atoi(answerField)
	if qErr == nil && aErr == nil {
		return ColumnFormatter(q, a)
	}
	return FieldFormatter(questionField, answerField)
}

// Format applies f to every row. Errors name the 1-based row number.
func Format(rows []json.RawMessage, f Formatter) ([]Pair, error) {
	pairs := make([]Pair, len(rows))
	for i, row := range rows {
		p, err := f(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		pairs[i] = p
	}
	return pairs, nil
}
