package batch

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/born-ml/sft/internal/align"
)

// ErrUnsupervisedRate is wrapped by RateError.
var ErrUnsupervisedRate = errors.New("unsupervised example rate exceeds threshold")

// RateError reports a batch whose share of unsupervised examples is too high.
// A high rate usually means the tokenizer splits answers differently inside
// the full text than on their own.
type RateError struct {
	Rate      float64
	Threshold float64
	Snapshot  Snapshot
}

// Error implements the error interface.
func (e *RateError) Error() string {
	return fmt.Sprintf("%s: %.4f > %.4f (span_not_found=%d, empty_answer=%d, total=%d)",
		ErrUnsupervisedRate, e.Rate, e.Threshold,
		e.Snapshot.SpanNotFound, e.Snapshot.EmptyAnswer, e.Snapshot.Total)
}

// Unwrap returns ErrUnsupervisedRate.
func (e *RateError) Unwrap() error {
	return ErrUnsupervisedRate
}

// Stats counts encode outcomes. The zero value is ready to use and safe for
// concurrent updates.
type Stats struct {
	total        atomic.Int64
	found        atomic.Int64
	spanNotFound atomic.Int64
	emptyAnswer  atomic.Int64
	truncated    atomic.Int64
	leadingSpace atomic.Int64
}

// Record adds one result.
func (s *Stats) Record(res *align.Result) {
	s.total.Add(1)

	switch res.Status {
	case align.StatusFound:
		s.found.Add(1)
	case align.StatusSpanNotFound:
		s.spanNotFound.Add(1)
	case align.StatusEmptyAnswer:
		s.emptyAnswer.Add(1)
	}

	if res.Truncated {
		s.truncated.Add(1)
	}
	if res.LeadingSpace {
		s.leadingSpace.Add(1)
	}
}

// Snapshot returns the current counts.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Total:        s.total.Load(),
		Found:        s.found.Load(),
		SpanNotFound: s.spanNotFound.Load(),
		EmptyAnswer:  s.emptyAnswer.Load(),
		Truncated:    s.truncated.Load(),
		LeadingSpace: s.leadingSpace.Load(),
	}
}

// Snapshot is a point-in-time copy of Stats.
type Snapshot struct {
	Total        int64 `json:"total"`
	Found        int64 `json:"found"`
	SpanNotFound int64 `json:"span_not_found"`
	EmptyAnswer  int64 `json:"empty_answer"`
	Truncated    int64 `json:"truncated"`
	LeadingSpace int64 `json:"leading_space"`
}

// Unsupervised returns the number of examples with all labels ignored.
func (s Snapshot) Unsupervised() int64 {
	return s.SpanNotFound + s.EmptyAnswer
}

// Rate returns Unsupervised/Total, or 0 for an empty snapshot.
func (s Snapshot) Rate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Unsupervised()) / float64(s.Total)
}

// Check returns a *RateError when Rate exceeds maxRate.
func (s Snapshot) Check(maxRate float64) error {
	if rate := s.Rate(); rate > maxRate {
		return &RateError{Rate: rate, Threshold: maxRate, Snapshot: s}
	}
	return nil
}

// Add returns the element-wise sum of two snapshots.
func (s Snapshot) Add(o Snapshot) Snapshot {
	return Snapshot{
		Total:        s.Total + o.Total,
		Found:        s.Found + o.Found,
		SpanNotFound: s.SpanNotFound + o.SpanNotFound,
		EmptyAnswer:  s.EmptyAnswer + o.EmptyAnswer,
		Truncated:    s.Truncated + o.Truncated,
		LeadingSpace: s.LeadingSpace + o.LeadingSpace,
	}
}
