// Package essenceparser implements codec-specific frame-boundary
// detection over a raw byte buffer (spec §4.3), used by rawessence's
// RawEssenceReader to turn an unstructured essence stream into sized
// samples.
package essenceparser

// NullOffset is returned by ParseFrameStart when no recognizable frame
// start is found within the provided window.
const NullOffset = ^uint32(0)

// sizeState tags which of ParsedFrameSize's three states a value is in.
type sizeState int

const (
	stateUnknown sizeState = iota
	stateNull
	stateFrame
	stateFields
)

// ParsedFrameSize is the three-state value spec §3 describes: Unknown
// (need more bytes), Null (not a valid frame boundary, terminal
// failure), or Complete — which is itself either a single Frame size or
// a Fields(first, second) pair, so interlaced-as-two-fields codecs (one
// field per KLV, e.g. MJPEG) are modeled explicitly.
type ParsedFrameSize struct {
	state       sizeState
	firstField  uint32
	secondField uint32
	haveFirst   bool
	haveSecond  bool
}

// Unknown returns the "need more bytes" state.
func Unknown() ParsedFrameSize { return ParsedFrameSize{state: stateUnknown} }

// Null returns the terminal "not a valid frame boundary" state.
func Null() ParsedFrameSize { return ParsedFrameSize{state: stateNull} }

// Frame returns a Complete, single-size result.
func Frame(size uint32) ParsedFrameSize {
	return ParsedFrameSize{state: stateFrame, firstField: size, haveFirst: true}
}

// Fields returns a Complete, two-field result.
func Fields(first, second uint32) ParsedFrameSize {
	return ParsedFrameSize{state: stateFields, firstField: first, secondField: second, haveFirst: true, haveSecond: true}
}

func (p ParsedFrameSize) IsUnknown() bool { return p.state == stateUnknown }
func (p ParsedFrameSize) IsNull() bool    { return p.state == stateNull }
func (p ParsedFrameSize) IsFrame() bool   { return p.state == stateFrame }
func (p ParsedFrameSize) IsFields() bool  { return p.state == stateFields }

// IsComplete reports whether this is a usable size: a Frame, or a
// Fields result with both fields known.
func (p ParsedFrameSize) IsComplete() bool {
	switch p.state {
	case stateFrame:
		return p.haveFirst
	case stateFields:
		return p.haveFirst && p.haveSecond
	default:
		return false
	}
}

// GetSize returns the total frame size: for Frame, the single size; for
// Fields, the sum of both fields. Panics if not IsComplete.
func (p ParsedFrameSize) GetSize() uint32 {
	if !p.IsComplete() {
		panic("essenceparser: GetSize called on an incomplete ParsedFrameSize")
	}
	switch p.state {
	case stateFrame:
		return p.firstField
	default: // stateFields
		return p.firstField + p.secondField
	}
}

// GetFirstFieldSize returns the first field's size (Fields state only).
func (p ParsedFrameSize) GetFirstFieldSize() uint32 { return p.firstField }

// GetSecondFieldSize returns the second field's size (Fields state only).
func (p ParsedFrameSize) GetSecondFieldSize() uint32 { return p.secondField }

// CompleteSize is the parser's EOF last-resort heuristic: given the
// number of bytes actually available, decide whether an Unknown result
// should be accepted as a final Frame of exactly that size. Returns
// false (unchanged) if dataSize is zero.
func (p *ParsedFrameSize) CompleteSize(dataSize uint32) bool {
	if dataSize == 0 {
		return false
	}
	*p = Frame(dataSize)
	return true
}

// Reset returns p to the Unknown state, discarding any partial result.
func (p *ParsedFrameSize) Reset() {
	*p = Unknown()
}
