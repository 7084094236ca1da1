// Package indextable implements the mapping from edit-unit position to
// byte offset (and B-frame resolution fields) that an MXF index table
// segment encodes.
package indextable

import (
	"fmt"
	"sort"
)

// EntryFlags bits, per SMPTE 377-1 index table segments.
const (
	FlagRandomAccess byte = 1 << 0
)

// Entry is one index-table row for a single edit unit, per spec §6
// "Index entries".
type Entry struct {
	StreamOffset    uint64
	TemporalOffset  int8
	KeyFrameOffset  int8
	Flags           byte
}

// Table is a position-ordered run of index entries, covering the edit
// units [IndexStartPosition, IndexStartPosition+len(Entries)).
type Table struct {
	IndexStartPosition int64
	IndexEditRateNum   int64
	IndexEditRateDen   int64
	Entries            []Entry
}

// ErrOutOfRange is returned when a position falls outside the table.
var ErrOutOfRange = fmt.Errorf("indextable: position out of range")

// Lookup returns the entry for edit-unit position p.
func (t *Table) Lookup(p int64) (Entry, error) {
	idx := p - t.IndexStartPosition
	if idx < 0 || idx >= int64(len(t.Entries)) {
		return Entry{}, ErrOutOfRange
	}
	return t.Entries[idx], nil
}

// LastPosition returns the last edit-unit position covered by the table.
func (t *Table) LastPosition() int64 {
	return t.IndexStartPosition + int64(len(t.Entries)) - 1
}

// FirstPosition returns the first edit-unit position covered by the
// table, per spec §4.2 "Available precharge": a table whose
// IndexStartPosition is negative physically carries precharge frames.
func (t *Table) FirstPosition() int64 {
	return t.IndexStartPosition
}

// AnchorPosition resolves a B-frame entry at position p to the edit-unit
// position of its decode anchor, using the entry's TemporalOffset as
// described in spec §4.2 "Required precharge" / scenario S5: a non-zero
// TemporalOffset means p is not in decode order, and the anchor is p
// shifted by TemporalOffset. Callers then combine the anchor entry's own
// KeyFrameOffset. Returns p unchanged when TemporalOffset == 0.
func (t *Table) AnchorPosition(p int64) (int64, error) {
	e, err := t.Lookup(p)
	if err != nil {
		return 0, err
	}
	if e.TemporalOffset == 0 {
		return p, nil
	}
	return p + int64(e.TemporalOffset), nil
}

// MultiSegment concatenates several Tables covering disjoint position
// ranges — a full file's index table is often several segments, one per
// partition, stitched end to end.
type MultiSegment struct {
	segments []*Table
}

// NewMultiSegment builds a MultiSegment from tables, sorted by start
// position for binary search.
func NewMultiSegment(tables []*Table) *MultiSegment {
	sorted := make([]*Table, len(tables))
	copy(sorted, tables)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].IndexStartPosition < sorted[j].IndexStartPosition
	})
	return &MultiSegment{segments: sorted}
}

// Lookup finds the segment covering position p via binary search over
// segment start positions, then delegates to that segment's Lookup.
func (m *MultiSegment) Lookup(p int64) (Entry, error) {
	i := sort.Search(len(m.segments), func(i int) bool {
		return m.segments[i].IndexStartPosition > p
	})
	i--
	if i < 0 || i >= len(m.segments) {
		return Entry{}, ErrOutOfRange
	}
	return m.segments[i].Lookup(p)
}

// AnchorPosition delegates to the segment covering p.
func (m *MultiSegment) AnchorPosition(p int64) (int64, error) {
	i := sort.Search(len(m.segments), func(i int) bool {
		return m.segments[i].IndexStartPosition > p
	})
	i--
	if i < 0 || i >= len(m.segments) {
		return 0, ErrOutOfRange
	}
	return m.segments[i].AnchorPosition(p)
}

// LastPosition returns the last edit-unit position covered by any
// segment, or -1 if there are none.
func (m *MultiSegment) LastPosition() int64 {
	if len(m.segments) == 0 {
		return -1
	}
	last := m.segments[0].LastPosition()
	for _, s := range m.segments[1:] {
		if p := s.LastPosition(); p > last {
			last = p
		}
	}
	return last
}

// FirstPosition returns the first edit-unit position covered by any
// segment, or -1 if there are none.
func (m *MultiSegment) FirstPosition() int64 {
	if len(m.segments) == 0 {
		return -1
	}
	first := m.segments[0].FirstPosition()
	for _, s := range m.segments[1:] {
		if p := s.FirstPosition(); p < first {
			first = p
		}
	}
	return first
}
