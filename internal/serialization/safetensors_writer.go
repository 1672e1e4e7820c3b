package serialization

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/born-ml/sft/internal/align"
)

// SafeTensorsWriter writes encoded batches in SafeTensors format.
type SafeTensorsWriter struct {
	file   *os.File
	closed bool
}

// NewSafeTensorsWriter creates a new SafeTensors file writer.
func NewSafeTensorsWriter(path string) (*SafeTensorsWriter, error) {
	//nolint:gosec // G304: output path is chosen by the caller
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	return &SafeTensorsWriter{file: file}, nil
}

// WriteBatch writes examples to a SafeTensors file at path.
//
// Every example must have the same length. metadata is copied into the
// header; the format, example count, length and checksum keys are set by
// WriteBatch and override caller values.
func WriteBatch(path string, examples []align.EncodedExample, metadata map[string]string) error {
	writer, err := NewSafeTensorsWriter(path)
	if err != nil {
		return err
	}

	if err := writer.WriteBatch(examples, metadata); err != nil {
		_ = writer.Close()
		return err
	}
	return writer.Close()
}

// WriteBatch writes the header and tensor data.
func (w *SafeTensorsWriter) WriteBatch(examples []align.EncodedExample, metadata map[string]string) error {
	if w.closed {
		return fmt.Errorf("writer is closed")
	}

	return EncodeBatch(w.file, examples, metadata)
}

// Close closes the writer and the underlying file.
func (w *SafeTensorsWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.file.Close()
}

// EncodeBatch writes examples in SafeTensors format to out.
func EncodeBatch(out io.Writer, examples []align.EncodedExample, metadata map[string]string) error {
	n, length, err := batchShape(examples)
	if err != nil {
		return err
	}

	data := batchData(examples, n, length)

	meta := make(map[string]string, len(metadata)+4)
	for k, v := range metadata {
		meta[k] = v
	}
	meta[MetaFormat] = FormatName
	meta[MetaNumExamples] = strconv.Itoa(n)
	meta[MetaMaxLength] = strconv.Itoa(length)
	meta[MetaChecksum] = ComputeChecksum(data)

	header := map[string]any{metadataKey: meta}
	size := int64(n) * int64(length) * 4
	for i, name := range tensorNames {
		header[name] = TensorInfo{
			DType:       DTypeI32,
			Shape:       []int64{int64(n), int64(length)},
			DataOffsets: [2]int64{int64(i) * size, int64(i+1) * size},
		}
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	bw := bufio.NewWriter(out)
	if err := binary.Write(bw, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return fmt.Errorf("failed to write header size: %w", err)
	}
	if _, err := bw.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if _, err := bw.Write(data); err != nil {
		return fmt.Errorf("failed to write tensor data: %w", err)
	}

	return bw.Flush()
}

func batchShape(examples []align.EncodedExample) (n, length int, err error) {
	if len(examples) == 0 {
		return 0, 0, ErrEmptyBatch
	}

	length = examples[0].Len()
	for i, ex := range examples {
		if ex.Len() != length || len(ex.AttentionMask) != length || len(ex.Labels) != length {
			return 0, 0, fmt.Errorf("%w: example %d has lengths %d/%d/%d, want %d",
				ErrRaggedBatch, i, len(ex.InputIDs), len(ex.AttentionMask), len(ex.Labels), length)
		}
	}

	return len(examples), length, nil
}

// batchData lays out attention_mask, input_ids and labels back to back,
// each row-major [N, L] little-endian int32.
func batchData(examples []align.EncodedExample, n, length int) []byte {
	size := n * length * 4
	data := make([]byte, 3*size)

	for t, name := range tensorNames {
		base := t * size
		for i, ex := range examples {
			row := rowOf(ex, name)
			for j, v := range row {
				binary.LittleEndian.PutUint32(data[base+(i*length+j)*4:], uint32(v)) //nolint:gosec // G115: two's complement round-trip
			}
		}
	}

	return data
}

func rowOf(ex align.EncodedExample, name string) []int32 {
	switch name {
	case TensorAttentionMask:
		return ex.AttentionMask
	case TensorInputIDs:
		return ex.InputIDs
	default:
		return ex.Labels
	}
}
