package serialization

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/born-ml/sft/internal/align"
)

// maxLineSize bounds a single JSONL record.
const maxLineSize = 16 * 1024 * 1024

// WriteJSONL writes one JSON object per line for every record.
func WriteJSONL[T any](w io.Writer, records []T) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)

	for i := range records {
		if err := enc.Encode(records[i]); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	return bw.Flush()
}

// ReadJSONL decodes one T per non-empty line of r.
func ReadJSONL[T any](r io.Reader) ([]T, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	var (
		records []T
		line    int
	)
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}

		var rec T
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			return nil, fmt.Errorf("failed to parse line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	return records, nil
}

// WriteExamples writes encoded examples as JSON lines.
func WriteExamples(w io.Writer, examples []align.EncodedExample) error {
	return WriteJSONL(w, examples)
}
