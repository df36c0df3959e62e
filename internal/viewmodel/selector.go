package viewmodel

import (
	"context"

	"github.com/mesh-intelligence/contactbook/internal/live"
	"github.com/mesh-intelligence/contactbook/pkg/types"
)

// SortSelector holds the active sort criterion.
type SortSelector struct {
	cell *live.Cell[types.SortCriterion]
}

// NewSortSelector creates a selector starting at initial.
func NewSortSelector(initial types.SortCriterion) *SortSelector {
	return &SortSelector{cell: live.NewCell(initial, live.Equal[types.SortCriterion])}
}

// Set replaces the criterion. Setting the active criterion again emits
// nothing.
func (s *SortSelector) Set(c types.SortCriterion) {
	s.cell.Set(c)
}

// Current returns the active criterion.
func (s *SortSelector) Current() types.SortCriterion {
	return s.cell.Get()
}

// Observe returns the active criterion followed by every change.
func (s *SortSelector) Observe(ctx context.Context) <-chan types.SortCriterion {
	return s.cell.Observe(ctx)
}

func (s *SortSelector) close() {
	s.cell.Close()
}
