// Package essencereader defines EssenceReader's IO contract (spec §2
// item 7): from partition layout and an index table, it produces frames
// in KAG/wrapping-aware form. The decode itself — walking KLV units
// inside a partition, honoring the KAG (KLV Alignment Grid) padding
// rules — is an external collaborator (spec §1); this package is the
// thin seam mxfreader holds it through.
package essencereader

import "github.com/mxfclip/mxfclip/klv"

// SamplePull is one frame's worth of essence handed back to the clip
// layer, with the bookkeeping fields mxfreader needs to translate it
// onto the clip timeline.
type SamplePull struct {
	Data              []byte
	EditUnitPosition  int64
	Size              uint32
	KeyFrameOffset    int8
	TemporalOffset    int8
}

// Reader is the capability interface mxfreader depends on for internal
// (in-this-file) essence access, per spec §9 "Polymorphism over
// components".
type Reader interface {
	// Read pulls up to n samples for trackNumber starting at the
	// reader's current position, advancing it by however many were
	// actually returned.
	Read(trackNumber uint32, n int) ([]SamplePull, error)

	// Seek repositions the reader to edit-unit position p (in the
	// reader's own, internal, edit rate).
	Seek(p int64) error

	// Position returns the reader's current edit-unit position.
	Position() int64

	// LegitimisePosition clamps p to the legal essence range this
	// reader can actually serve, per spec §4.2 "limit_to_available".
	LegitimisePosition(p int64) int64

	// Wrapping reports how essence for trackNumber is packaged.
	Wrapping(trackNumber uint32) klv.Wrapping
}
