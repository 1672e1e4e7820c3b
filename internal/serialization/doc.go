// Package serialization stores encoded batches.
//
// Batches are written as SafeTensors files so they can be loaded directly by
// HuggingFace tooling:
//
//	Format Structure:
//	  [8 bytes: Header Size (uint64 LE)]
//	  [Header: JSON, tensor name -> {dtype, shape, data_offsets}, plus __metadata__]
//	  [Tensor data: raw little-endian bytes, tensors in alphabetical order]
//
// A batch of N examples of length L holds three I32 tensors of shape [N, L]:
// attention_mask, input_ids and labels. The metadata records the example
// count, the sequence length and a SHA-256 of the data section, along with
// any caller-supplied keys such as the ignore index and run id.
//
// Example usage:
//
//	meta := map[string]string{"run_id": b.RunID.String(), "ignore_index": "-100"}
//	if err := serialization.WriteBatch("train.safetensors", b.Examples(), meta); err != nil {
//	    log.Fatal(err)
//	}
//
//	examples, header, err := serialization.ReadBatch("train.safetensors")
//
// Encoded examples can also be streamed as JSON lines with WriteJSONL.
package serialization
