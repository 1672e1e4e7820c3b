package align

// DefaultIgnoreIndex is the label value skipped by the loss. It matches the
// ignore_index default of common cross-entropy implementations.
const DefaultIgnoreIndex int32 = -100

// EncodedExample is one fixed-length training record.
//
// All three slices have the same length. An example is built by a single
// Encode call and must be treated as read-only afterwards.
type EncodedExample struct {
	InputIDs      []int32 `json:"input_ids"`
	AttentionMask []int32 `json:"attention_mask"`
	Labels        []int32 `json:"labels"`
}

// Len returns the fixed sequence length.
func (e EncodedExample) Len() int {
	return len(e.InputIDs)
}

// Supervised returns the number of labels that are not ignoreIndex.
func (e EncodedExample) Supervised(ignoreIndex int32) int {
	n := 0
	for _, l := range e.Labels {
		if l != ignoreIndex {
			n++
		}
	}
	return n
}

// Status tells whether an encode call found something to supervise.
type Status int

const (
	// StatusFound means the answer span was located and labeled.
	StatusFound Status = iota
	// StatusSpanNotFound means the answer tokens do not occur in the full
	// sequence, even with a leading space. All labels are ignored.
	StatusSpanNotFound
	// StatusEmptyAnswer means the answer produced no tokens. All labels are
	// ignored.
	StatusEmptyAnswer
)

// String returns a snake_case name suitable for logs and metrics.
func (s Status) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusSpanNotFound:
		return "span_not_found"
	case StatusEmptyAnswer:
		return "empty_answer"
	default:
		return "unknown"
	}
}

// Span is a half-open token range [Start, End).
type Span struct {
	Start int
	End   int
}

// Contains reports whether i lies in the span.
func (s Span) Contains(i int) bool {
	return i >= s.Start && i < s.End
}

// Result is the outcome of one encode call.
type Result struct {
	Example EncodedExample

	Status Status

	// Span is the located answer range. End may exceed the sequence length
	// when the answer was truncated. Zero unless Status is StatusFound.
	Span Span

	// Truncated is set when part of the answer fell past the maximum length.
	Truncated bool

	// LeadingSpace is set when the answer was only found after prefixing it
	// with a space.
	LeadingSpace bool
}

// Supervised reports whether the example contributes to the loss.
func (r *Result) Supervised() bool {
	return r.Status == StatusFound
}
