package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/born-ml/sft/internal/align"
)

// ReadHeader parses and validates the header of a batch file.
func ReadHeader(path string) (*Header, error) {
	file, err := os.Open(path) //nolint:gosec // G304: path is chosen by the caller
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	return DecodeHeader(file, stat.Size())
}

// DecodeHeader parses and validates a header from r, which must be positioned
// at the start of a file of fileSize bytes.
func DecodeHeader(r io.Reader, fileSize int64) (*Header, error) {
	var headerSize uint64
	if err := binary.Read(r, binary.LittleEndian, &headerSize); err != nil {
		return nil, fmt.Errorf("failed to read header size: %w", err)
	}
	if headerSize > MaxHeaderSize || int64(headerSize) > fileSize-8 { //nolint:gosec // G115: bounded by MaxHeaderSize
		return nil, fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, headerSize)
	}

	raw := make([]byte, headerSize)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}

	h := &Header{
		Tensors:    make(map[string]TensorInfo, len(entries)),
		Metadata:   map[string]string{},
		DataOffset: 8 + int64(headerSize), //nolint:gosec // G115: bounded by MaxHeaderSize
	}
	h.DataSize = fileSize - h.DataOffset

	for name, entry := range entries {
		if name == metadataKey {
			if err := json.Unmarshal(entry, &h.Metadata); err != nil {
				return nil, fmt.Errorf("failed to parse metadata: %w", err)
			}
			continue
		}

		var info TensorInfo
		if err := json.Unmarshal(entry, &info); err != nil {
			return nil, fmt.Errorf("failed to parse tensor %s: %w", name, err)
		}
		h.Tensors[name] = info
	}

	if err := ValidateHeader(h); err != nil {
		return nil, err
	}

	return h, nil
}

// ReadBatch reads a batch file written by WriteBatch and verifies its checksum.
func ReadBatch(path string) ([]align.EncodedExample, *Header, error) {
	file, err := os.Open(path) //nolint:gosec // G304: path is chosen by the caller
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to stat file: %w", err)
	}

	h, err := DecodeHeader(file, stat.Size())
	if err != nil {
		return nil, nil, err
	}

	data := make([]byte, h.DataSize)
	if _, err := io.ReadFull(file, data); err != nil {
		return nil, nil, fmt.Errorf("failed to read tensor data: %w", err)
	}

	if err := ValidateChecksum(ComputeChecksum(data), h.Metadata[MetaChecksum]); err != nil {
		return nil, nil, err
	}

	n, length := h.Shape()
	examples := make([]align.EncodedExample, n)
	for i := range examples {
		examples[i] = align.EncodedExample{
			InputIDs:      make([]int32, length),
			AttentionMask: make([]int32, length),
			Labels:        make([]int32, length),
		}
	}

	for _, name := range tensorNames {
		info := h.Tensors[name]
		region := data[info.DataOffsets[0]:info.DataOffsets[1]]
		for i, ex := range examples {
			row := rowOf(ex, name)
			for j := range row {
				row[j] = int32(binary.LittleEndian.Uint32(region[(i*length+j)*4:])) //nolint:gosec // G115: two's complement round-trip
			}
		}
	}

	return examples, h, nil
}
