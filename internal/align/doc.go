// Package align builds supervised fine-tuning examples from (question, answer)
// pairs.
//
// The encoder tokenizes question+answer+EOS to a fixed length, locates the
// answer's token run inside that sequence and emits a label sequence that
// supervises only the answer. Every other position, padding included, holds
// the ignore sentinel (-100 by default) that cross-entropy implementations
// skip.
//
// Example usage:
//
//	enc, err := align.NewEncoder(tok, align.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := enc.Encode("2 kg in grams? ", "2000")
//	if err != nil {
//	    log.Fatal(err) // tokenizer failure
//	}
//	if res.Status != align.StatusFound {
//	    // nothing to supervise, count it
//	}
//	batch = append(batch, res.Example)
package align
