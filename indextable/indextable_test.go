package indextable

import "testing"

func newGOPTable() *Table {
	// positions 0..9, key_frame_offset pattern 0,-1,-2 repeating, all
	// temporal_offset == 0 — matches spec scenario S4.
	kfo := []int8{0, -1, -2, 0, -1, -2, 0, -1, -2, 0}
	entries := make([]Entry, len(kfo))
	for i, k := range kfo {
		entries[i] = Entry{StreamOffset: uint64(i * 1000), KeyFrameOffset: k}
	}
	return &Table{Entries: entries}
}

func TestLookupS4(t *testing.T) {
	table := newGOPTable()
	for i, want := range []int8{0, -1, -2, 0, -1, -2, 0, -1, -2, 0} {
		e, err := table.Lookup(int64(i))
		if err != nil {
			t.Fatalf("Lookup(%d): %v", i, err)
		}
		if e.KeyFrameOffset != want {
			t.Errorf("Lookup(%d).KeyFrameOffset = %d, want %d", i, e.KeyFrameOffset, want)
		}
	}
}

func TestLookupOutOfRange(t *testing.T) {
	table := newGOPTable()
	if _, err := table.Lookup(-1); err != ErrOutOfRange {
		t.Errorf("Lookup(-1) err = %v, want ErrOutOfRange", err)
	}
	if _, err := table.Lookup(10); err != ErrOutOfRange {
		t.Errorf("Lookup(10) err = %v, want ErrOutOfRange", err)
	}
}

func TestAnchorPositionS5(t *testing.T) {
	// entry at position 4 has temporal_offset -2; entry at position 2
	// has key_frame_offset -2, matching spec scenario S5.
	entries := make([]Entry, 6)
	entries[2] = Entry{KeyFrameOffset: -2}
	entries[4] = Entry{TemporalOffset: -2}
	table := &Table{Entries: entries}

	anchor, err := table.AnchorPosition(4)
	if err != nil {
		t.Fatal(err)
	}
	if anchor != 2 {
		t.Errorf("AnchorPosition(4) = %d, want 2", anchor)
	}

	e, err := table.Lookup(anchor)
	if err != nil {
		t.Fatal(err)
	}
	if e.KeyFrameOffset != -2 {
		t.Errorf("anchor KeyFrameOffset = %d, want -2", e.KeyFrameOffset)
	}
}

func TestMultiSegmentLookup(t *testing.T) {
	seg1 := &Table{IndexStartPosition: 0, Entries: []Entry{{StreamOffset: 0}, {StreamOffset: 100}}}
	seg2 := &Table{IndexStartPosition: 2, Entries: []Entry{{StreamOffset: 200}, {StreamOffset: 300}}}
	ms := NewMultiSegment([]*Table{seg2, seg1})

	e, err := ms.Lookup(3)
	if err != nil {
		t.Fatal(err)
	}
	if e.StreamOffset != 300 {
		t.Errorf("Lookup(3).StreamOffset = %d, want 300", e.StreamOffset)
	}
	if ms.LastPosition() != 3 {
		t.Errorf("LastPosition() = %d, want 3", ms.LastPosition())
	}
	if _, err := ms.Lookup(4); err != ErrOutOfRange {
		t.Errorf("Lookup(4) err = %v, want ErrOutOfRange", err)
	}
}
