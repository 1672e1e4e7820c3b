package serialization

// Tensor names used for batches.
const (
	TensorAttentionMask = "attention_mask"
	TensorInputIDs      = "input_ids"
	TensorLabels        = "labels"
)

// Metadata keys written by WriteBatch.
const (
	MetaFormat      = "format"
	MetaNumExamples = "num_examples"
	MetaMaxLength   = "max_length"
	MetaChecksum    = "sha256"
)

// FormatName is stored under MetaFormat.
const FormatName = "sft-batch"

// DTypeI32 is the SafeTensors dtype of every batch tensor.
const DTypeI32 = "I32"

const metadataKey = "__metadata__"

// tensorNames lists batch tensors in the order they are stored.
var tensorNames = []string{TensorAttentionMask, TensorInputIDs, TensorLabels}

// TensorInfo describes one tensor in a SafeTensors header.
type TensorInfo struct {
	DType       string   `json:"dtype"`
	Shape       []int64  `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"`
}

// Size returns the byte length of the tensor data.
func (t TensorInfo) Size() int64 {
	return t.DataOffsets[1] - t.DataOffsets[0]
}

// Header is a parsed SafeTensors header.
type Header struct {
	Tensors  map[string]TensorInfo
	Metadata map[string]string

	// DataOffset is the file offset of the data section.
	DataOffset int64
	// DataSize is the length of the data section.
	DataSize int64
}

// Shape returns the [N, L] shape shared by the batch tensors.
func (h *Header) Shape() (n, length int) {
	info, ok := h.Tensors[TensorInputIDs]
	if !ok || len(info.Shape) != 2 {
		return 0, 0
	}
	return int(info.Shape[0]), int(info.Shape[1])
}
