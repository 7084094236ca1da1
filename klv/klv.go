// Package klv models the MXF Key-Length-Value framing the core consumes
// but does not itself decode. Bit-exact KLV/descriptor decoding is an
// out-of-scope external collaborator (spec §1); this package defines the
// shapes that collaborator hands back to the core: partition packs, the
// primer, and essence KLV unit headers.
package klv

// UL is a 16-byte SMPTE Universal Label, used for essence-container
// labels, the operational pattern, and KLV keys.
type UL [16]byte

// opAtomPrefix is the first 13 bytes shared by every OP-Atom operational
// pattern label (SMPTE 377-1 Annex A, "1.0D.01.02.01.10.xx.xx.xx"); byte
// 13 is the item-complexity qualifier (00/01/02/03), which IsOPAtom does
// not distinguish between.
var opAtomPrefix = UL{0x06, 0x0e, 0x2b, 0x34, 0x04, 0x01, 0x01, 0x01, 0x0d, 0x01, 0x02, 0x01, 0x10}

// IsOPAtom reports whether ul is one of the OP-Atom operational-pattern
// labels, per spec §4.2's "non-zero material SourceClip.start_position
// is... only accepted in OP-Atom" rule.
func (ul UL) IsOPAtom() bool {
	for i := 0; i < 13; i++ {
		if ul[i] != opAtomPrefix[i] {
			return false
		}
	}
	return true
}

// Wrapping classifies how essence is packaged within the container.
type Wrapping int

const (
	WrappingUnknown Wrapping = iota
	WrappingFrame            // one KLV value per edit unit
	WrappingClip             // one KLV value per stream
	WrappingTimedText
)

// PartitionPack is the decoded form of an MXF partition pack, the unit
// that precedes every header/body/footer partition in the file.
type PartitionPack struct {
	ThisPartition      int64
	PreviousPartition  int64
	FooterPartition    int64
	HeaderByteCount    int64
	IndexByteCount     int64
	BodyOffset         int64
	BodySID            uint32
	IndexSID           uint32
	OperationalPattern UL
	EssenceContainers  []UL
	// KLVKey is the 16-byte key that introduced this partition pack in
	// the file (open-header, body, footer, generic-stream — the core
	// only needs to know it was a partition, not which one).
	KLVKey UL
}

// HasHeaderMetadata reports whether this partition carries a non-empty
// header metadata set, per spec §4.2 step 3's "last partition that
// carries non-empty header metadata" scan.
func (p PartitionPack) HasHeaderMetadata() bool {
	return p.HeaderByteCount > 0
}

// PartitionKind classifies a partition as header, body or footer (the
// external decoder sets this explicitly rather than the core inferring
// it from offsets).
type PartitionKind int

const (
	PartitionHeader PartitionKind = iota
	PartitionBody
	PartitionFooter
)

// Filler represents a Filler KLV unit's length in bytes — the core only
// needs to accumulate filler length for lead_filler_offset bookkeeping,
// never its (padding) value.
type Filler struct {
	Length int64
}

// EssenceKey is the decoded key of an essence KLV unit: enough for the
// core to tell essence apart from metadata/index/filler units and to
// recover the element's track number from the key's last four bytes,
// the standard MXF essence-key convention.
type EssenceKey struct {
	UL UL
}

// TrackNumber extracts the generic-container track number encoded in the
// last four bytes of an essence element key.
func (k EssenceKey) TrackNumber() uint32 {
	return uint32(k.UL[12])<<24 | uint32(k.UL[13])<<16 | uint32(k.UL[14])<<8 | uint32(k.UL[15])
}

// Reader is the external collaborator's read-side contract: decode
// partition packs, the primer, and essence/metadata KLV units from a
// byte source. The core depends only on this interface (spec §9
// "Polymorphism over components").
type Reader interface {
	// ReadPartitionPack decodes the partition pack at the reader's
	// current position and advances past it.
	ReadPartitionPack() (PartitionPack, error)

	// ReadHeaderMetadata decodes the header metadata set following the
	// current partition pack, if HasHeaderMetadata() was true, and
	// returns it as an opaque set of properties keyed by the primer's
	// local tags. The metadata package turns this into typed objects.
	ReadHeaderMetadata() (PropertySet, error)

	// NextKLV advances to and decodes the next top-level KLV unit's key
	// and length without reading its value, so the caller can decide
	// whether to consume it as essence, skip it, or hand it to a
	// sub-decoder.
	NextKLV() (key UL, length int64, err error)

	// SkipValue skips length bytes of the most recently returned KLV
	// unit's value.
	SkipValue(length int64) error

	// ReadValue reads length bytes of the most recently returned KLV
	// unit's value into dst.
	ReadValue(dst []byte, length int64) (int, error)
}

// PropertySet is the decoded form of one header-metadata set: local-tag
// to raw-value bytes, before the metadata package resolves local tags to
// named properties via the primer and UL registry.
type PropertySet struct {
	InstanceUID UL
	SetKey      UL
	Properties  map[uint16][]byte
}
