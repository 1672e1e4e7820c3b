package batch

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/sft/internal/align"
)

func TestStats_Record(t *testing.T) {
	var s Stats

	s.Record(&align.Result{Status: align.StatusFound})
	s.Record(&align.Result{Status: align.StatusFound, Truncated: true, LeadingSpace: true})
	s.Record(&align.Result{Status: align.StatusSpanNotFound})
	s.Record(&align.Result{Status: align.StatusEmptyAnswer})

	snap := s.Snapshot()
	assert.Equal(t, Snapshot{
		Total:        4,
		Found:        2,
		SpanNotFound: 1,
		EmptyAnswer:  1,
		Truncated:    1,
		LeadingSpace: 1,
	}, snap)
	assert.Equal(t, int64(2), snap.Unsupervised())
	assert.InDelta(t, 0.5, snap.Rate(), 1e-12)
}

func TestStats_Concurrent(t *testing.T) {
	var (
		s  Stats
		wg sync.WaitGroup
	)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			status := align.StatusFound
			if i%5 == 0 {
				status = align.StatusSpanNotFound
			}
			s.Record(&align.Result{Status: status})
		}(i)
	}
	wg.Wait()

	snap := s.Snapshot()
	assert.Equal(t, int64(50), snap.Total)
	assert.Equal(t, int64(10), snap.SpanNotFound)
	assert.Equal(t, int64(40), snap.Found)
}

func TestSnapshot_Check(t *testing.T) {
	tests := []struct {
		name    string
		snap    Snapshot
		maxRate float64
		wantErr bool
	}{
		{name: "empty snapshot", snap: Snapshot{}, maxRate: 0},
		{name: "below threshold", snap: Snapshot{Total: 100, Found: 97, SpanNotFound: 3}, maxRate: 0.05},
		{name: "at threshold", snap: Snapshot{Total: 100, Found: 95, SpanNotFound: 5}, maxRate: 0.05},
		{name: "above threshold", snap: Snapshot{Total: 100, Found: 90, SpanNotFound: 6, EmptyAnswer: 4}, maxRate: 0.05, wantErr: true},
		{name: "zero tolerance", snap: Snapshot{Total: 10, Found: 9, EmptyAnswer: 1}, maxRate: 0, wantErr: true},
		{name: "disabled", snap: Snapshot{Total: 10, SpanNotFound: 10}, maxRate: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.snap.Check(tt.maxRate)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}

			require.ErrorIs(t, err, ErrUnsupervisedRate)
			var rateErr *RateError
			require.ErrorAs(t, err, &rateErr)
			assert.Equal(t, tt.snap, rateErr.Snapshot)
			assert.InDelta(t, tt.snap.Rate(), rateErr.Rate, 1e-12)
			assert.Contains(t, err.Error(), "span_not_found=")
		})
	}
}

func TestSnapshot_Add(t *testing.T) {
	a := Snapshot{Total: 3, Found: 2, SpanNotFound: 1}
	b := Snapshot{Total: 2, Found: 1, EmptyAnswer: 1, Truncated: 1}

	assert.Equal(t, Snapshot{Total: 5, Found: 3, SpanNotFound: 1, EmptyAnswer: 1, Truncated: 1}, a.Add(b))
}
