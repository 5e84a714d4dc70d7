package engine

import (
	"sort"

	"github.com/hantianjz/semhl/internal/host"
)

// MergeRanges batches pending edit ranges into a minimal work list.
// Ranges are sorted by start position and merged when they overlap or
// are adjacent within one row, so a burst of edits produces a few
// larger sweeps instead of many small ones. The one-row adjacency
// tolerance keeps line splits from leaving unprocessed gaps.
func MergeRanges(ranges []host.Range) []host.Range {
	if len(ranges) == 0 {
		return nil
	}
	sorted := append([]host.Range(nil), ranges...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].StartRow != sorted[j].StartRow {
			return sorted[i].StartRow < sorted[j].StartRow
		}
		return sorted[i].StartCol < sorted[j].StartCol
	})

	merged := []host.Range{sorted[0]}
	for _, next := range sorted[1:] {
		cur := &merged[len(merged)-1]
		if next.StartRow <= cur.EndRow+1 && next.EndRow >= cur.StartRow-1 {
			if next.EndRow > cur.EndRow || (next.EndRow == cur.EndRow && next.EndCol > cur.EndCol) {
				cur.EndRow, cur.EndCol = next.EndRow, next.EndCol
			}
			continue
		}
		merged = append(merged, next)
	}
	return merged
}
