package pipeline

import "sync"

// Source hands out work units to pool workers. Implementations must be
// safe for concurrent use and must deliver every unit to exactly one
// caller: no duplicate dispatch, no skipped unit.
type Source[U any] interface {
	// Next returns the next unit, or ok=false once the source is exhausted.
	Next() (unit U, ok bool)

	// Len returns the total number of units the source will deliver.
	Len() int
}

// PageSource enumerates the dense page range [1, lastPage].
type PageSource struct {
	mu   sync.Mutex
	next int
	last int
}

// NewPageSource creates a source over pages 1..lastPage. A lastPage of
// zero yields an immediately exhausted source.
func NewPageSource(lastPage int) *PageSource {
	return &PageSource{next: 1, last: lastPage}
}

func (s *PageSource) Next() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next > s.last {
		return 0, false
	}
	page := s.next
	s.next++
	return page, true
}

func (s *PageSource) Len() int { return s.last }

// SliceSource delivers each element of a slice exactly once, in slice
// order. Callers that need set semantics de-duplicate before building it.
type SliceSource[U any] struct {
	mu    sync.Mutex
	units []U
	next  int
}

// NewSliceSource creates a source over units. The slice is not copied;
// callers must not mutate it while the pool runs.
func NewSliceSource[U any](units []U) *SliceSource[U] {
	return &SliceSource[U]{units: units}
}

func (s *SliceSource[U]) Next() (U, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next >= len(s.units) {
		var zero U
		return zero, false
	}
	unit := s.units[s.next]
	s.next++
	return unit, true
}

func (s *SliceSource[U]) Len() int { return len(s.units) }
