package align

import (
	"errors"
	"fmt"
	"sync"

	"github.com/born-ml/sft/internal/tokenizer"
)

var errScripted = errors.New("scripted tokenizer failure")

// scriptedTokenizer returns fixed token IDs per input text. Unknown text
// encodes to no tokens. With bos set, encodings that ask for special tokens
// start with it. Every call is recorded.
type scriptedTokenizer struct {
	texts  map[string][]int32
	failOn map[string]bool
	bos    int32
	eos    int32
	pad    int32
	marker string

	mu    sync.Mutex
	calls []encodeCall
}

type encodeCall struct {
	text    string
	special bool
	padded  bool
}

func newScripted(texts map[string][]int32) *scriptedTokenizer {
	return &scriptedTokenizer{
		texts:  texts,
		failOn: map[string]bool{},
		bos:    -1,
		eos:    2,
		pad:    -1,
		marker: "</s>",
	}
}

func (s *scriptedTokenizer) Encode(text string, opts tokenizer.EncodeOptions) ([]int32, error) {
	s.record(encodeCall{text: text, special: opts.AddSpecialTokens})
	return s.encode(text, opts.AddSpecialTokens)
}

func (s *scriptedTokenizer) EncodePadded(text string, opts tokenizer.PaddingOptions) (*tokenizer.Encoding, error) {
	s.record(encodeCall{text: text, special: opts.AddSpecialTokens, padded: true})
	ids, err := s.encode(text, opts.AddSpecialTokens)
	if err != nil {
		return nil, err
	}
	return tokenizer.Pad(ids, opts)
}

func (s *scriptedTokenizer) encode(text string, special bool) ([]int32, error) {
	if s.failOn[text] {
		return nil, fmt.Errorf("encode %q: %w", text, errScripted)
	}
	ids := make([]int32, 0, len(s.texts[text])+1)
	if special && s.bos >= 0 {
		ids = append(ids, s.bos)
	}
	return append(ids, s.texts[text]...), nil
}

func (s *scriptedTokenizer) record(c encodeCall) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, c)
}

func (s *scriptedTokenizer) recorded() []encodeCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]encodeCall{}, s.calls...)
}

func (s *scriptedTokenizer) Decode([]int32) (string, error) { return "", nil }
func (s *scriptedTokenizer) VocabSize() int                  { return 1000 }
func (s *scriptedTokenizer) EosMarker() string               { return s.marker }
func (s *scriptedTokenizer) BosToken() int32                 { return s.bos }
func (s *scriptedTokenizer) EosToken() int32                 { return s.eos }
func (s *scriptedTokenizer) PadToken() int32                 { return s.pad }
func (s *scriptedTokenizer) UnkToken() int32                 { return -1 }
func (s *scriptedTokenizer) IsSpecialToken(t int32) bool     { return t == s.eos || t == s.bos }
