package serialization

import (
	"fmt"
	"sort"
	"strings"
)

// Validation limits for resource protection.
const (
	MaxHeaderSize    = 100 * 1024 * 1024 // 100MB
	MaxTensorCount   = 1024
	MaxTensorNameLen = 4096
)

// ValidateTensorOffsets checks for negative, overlapping and out-of-bounds
// tensor regions inside a data section of dataSize bytes.
func ValidateTensorOffsets(tensors map[string]TensorInfo, dataSize int64) error {
	if len(tensors) > MaxTensorCount {
		return &ValidationError{
			Type:    "too_many_tensors",
			Details: fmt.Sprintf("got %d, max %d", len(tensors), MaxTensorCount),
		}
	}

	names := make([]string, 0, len(tensors))
	for name := range tensors {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return tensors[names[i]].DataOffsets[0] < tensors[names[j]].DataOffsets[0]
	})

	for i, name := range names {
		t := tensors[name]
		begin, end := t.DataOffsets[0], t.DataOffsets[1]

		if begin < 0 || end < begin {
			return &ValidationError{
				Type:    "negative_offset",
				Tensor:  name,
				Details: fmt.Sprintf("data_offsets [%d, %d]", begin, end),
			}
		}

		if end > dataSize {
			return &ValidationError{
				Type:    "out_of_bounds",
				Tensor:  name,
				Details: fmt.Sprintf("end %d > data_size %d", end, dataSize),
			}
		}

		if i < len(names)-1 {
			next := names[i+1]
			if nextBegin := tensors[next].DataOffsets[0]; end > nextBegin {
				return &ValidationError{
					Type:    "offset_overlap",
					Tensor:  name,
					Tensor2: next,
					Details: fmt.Sprintf("regions [%d-%d] and [%d-%d] overlap",
						begin, end, nextBegin, tensors[next].DataOffsets[1]),
				}
			}
		}
	}

	return nil
}

// ValidateTensorName rejects overlong names and names with path separators,
// ".." or null bytes.
func ValidateTensorName(name string) error {
	if len(name) > MaxTensorNameLen {
		return &ValidationError{
			Type:    "name_too_long",
			Tensor:  name,
			Details: fmt.Sprintf("length %d > max %d", len(name), MaxTensorNameLen),
		}
	}

	switch {
	case strings.Contains(name, ".."):
		return &ValidationError{Type: "invalid_name", Tensor: name, Details: "contains '..'"}
	case strings.ContainsAny(name, `/\`):
		return &ValidationError{Type: "invalid_name", Tensor: name, Details: "contains path separator"}
	case strings.Contains(name, "\x00"):
		return &ValidationError{Type: "invalid_name", Tensor: name, Details: "contains null byte"}
	}

	return nil
}

// ValidateHeader checks that h describes a well-formed batch: the three I32
// tensors share one [N, L] shape, their sizes match that shape and their
// regions fit the data section without overlapping.
func ValidateHeader(h *Header) error {
	for name := range h.Tensors {
		if err := ValidateTensorName(name); err != nil {
			return err
		}
	}

	var shape []int64
	for _, name := range tensorNames {
		info, ok := h.Tensors[name]
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingTensor, name)
		}
		if info.DType != DTypeI32 {
			return fmt.Errorf("%w: tensor %s has %s, want %s", ErrUnsupportedDType, name, info.DType, DTypeI32)
		}
		if len(info.Shape) != 2 || info.Shape[0] < 0 || info.Shape[1] < 0 {
			return &ValidationError{
				Type:    "invalid_shape",
				Tensor:  name,
				Details: fmt.Sprintf("shape %v is not [N, L]", info.Shape),
			}
		}
		if shape == nil {
			shape = info.Shape
		} else if info.Shape[0] != shape[0] || info.Shape[1] != shape[1] {
			return &ValidationError{
				Type:    "shape_mismatch",
				Tensor:  name,
				Details: fmt.Sprintf("shape %v, want %v", info.Shape, shape),
			}
		}
		if n, l := info.Shape[0], info.Shape[1]; n > 0 && l > h.DataSize/4/n {
			return &ValidationError{
				Type:    "invalid_shape",
				Tensor:  name,
				Details: fmt.Sprintf("shape %v exceeds the %d byte data section", info.Shape, h.DataSize),
			}
		}
		if want := info.Shape[0] * info.Shape[1] * 4; info.Size() != want {
			return &ValidationError{
				Type:    "size_mismatch",
				Tensor:  name,
				Details: fmt.Sprintf("%d bytes, shape needs %d", info.Size(), want),
			}
		}
	}

	return ValidateTensorOffsets(h.Tensors, h.DataSize)
}
