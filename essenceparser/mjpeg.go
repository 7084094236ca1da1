package essenceparser

// jpegState tags where MJPEGParser's incremental marker scan left off.
type jpegState int

const (
	jpegScanForMarker jpegState = iota // looking for the 0xff lead byte
	jpegReadMarkerCode                 // got 0xff, next byte is the marker code
	jpegReadLenByte1                   // reading a 2-byte segment length
	jpegReadLenByte2
	jpegSkipSegment // skipping a segment's remaining payload bytes
)

// Restart markers (0xD0-0xD7) and standalone markers (0x01, 0xD8 SOI,
// 0xD9 EOI, 0xFF fill bytes) carry no length field.
func jpegMarkerHasLength(code byte) bool {
	if code == 0x01 || code == 0xd8 || code == 0xd9 || code == 0xff || code == 0x00 {
		return false
	}
	if code >= 0xd0 && code <= 0xd7 {
		return false
	}
	return true
}

// MJPEGParser implements Parser for motion-JPEG essence, grounded on
// BMX's MJPEGEssenceParser: a resumable marker scanner that recognizes
// SOI/EOI and treats each JPEG image as one field. When singleField is
// false, two consecutive fields (two back-to-back JPEG images) make up
// one logical edit unit, per spec §4.3's "two-field variants" edge case.
type MJPEGParser struct {
	singleField bool

	offset uint32
	state  jpegState

	skipCount    uint32
	lenByte1     byte
	haveLenByte1 bool

	fieldCount  int
	firstFieldSize uint32
}

// NewMJPEGParser returns an MJPEGParser. singleField selects whether one
// JPEG image is a complete edit unit (true) or two are (false).
func NewMJPEGParser(singleField bool) *MJPEGParser {
	return &MJPEGParser{singleField: singleField}
}

// ParseFrameStart locates a JPEG SOI marker (0xff 0xd8).
func (p *MJPEGParser) ParseFrameStart(buf []byte) uint32 {
	for i := 0; i+1 < len(buf); i++ {
		if buf[i] == 0xff && buf[i+1] == 0xd8 {
			return uint32(i)
		}
	}
	return NullOffset
}

// ResetParseFrameSize discards all incremental scan state, per spec
// §4.3 "reset_parse_frame_size".
func (p *MJPEGParser) ResetParseFrameSize() {
	p.offset = 0
	p.state = jpegScanForMarker
	p.skipCount = 0
	p.haveLenByte1 = false
	p.fieldCount = 0
	p.firstFieldSize = 0
}

// ParseFrameSize resumes the marker scan from p.offset against the
// (possibly longer than last time) buf, stopping at the first EOI for a
// single-field stream, or the second EOI for a two-field stream.
func (p *MJPEGParser) ParseFrameSize(buf []byte) ParsedFrameSize {
	for int(p.offset) < len(buf) {
		b := buf[p.offset]

		switch p.state {
		case jpegScanForMarker:
			if b == 0xff {
				p.state = jpegReadMarkerCode
			}
			p.offset++

		case jpegReadMarkerCode:
			p.offset++
			if b == 0xd9 { // EOI: this field is complete
				size := p.offset
				if p.singleField {
					return Frame(size)
				}
				p.fieldCount++
				if p.fieldCount == 1 {
					p.firstFieldSize = size
					p.state = jpegScanForMarker
					continue
				}
				return Fields(p.firstFieldSize, size-p.firstFieldSize)
			}
			if b == 0xd8 || b == 0xff || b == 0x00 {
				p.state = jpegScanForMarker
				continue
			}
			if b >= 0xd0 && b <= 0xd7 {
				p.state = jpegScanForMarker
				continue
			}
			// SOS (0xda) falls through to the generic length-bearing
			// path below: scan past its header, same as any other
			// segment. The entropy-coded scan data that follows is
			// treated as opaque bytes until the next marker, which is
			// an approximation — stuffed 0xff 0x00 bytes inside scan
			// data are not unstuffed — but is sufficient to find EOI.
			if jpegMarkerHasLength(b) {
				p.state = jpegReadLenByte1
			} else {
				p.state = jpegScanForMarker
			}

		case jpegReadLenByte1:
			p.lenByte1 = b
			p.haveLenByte1 = true
			p.offset++
			p.state = jpegReadLenByte2

		case jpegReadLenByte2:
			length := uint32(p.lenByte1)<<8 | uint32(b)
			p.offset++
			p.haveLenByte1 = false
			if length < 2 {
				return Null()
			}
			p.skipCount = length - 2
			p.state = jpegSkipSegment

		case jpegSkipSegment:
			n := uint32(len(buf)) - p.offset
			if n > p.skipCount {
				n = p.skipCount
			}
			p.offset += n
			p.skipCount -= n
			if p.skipCount == 0 {
				p.state = jpegScanForMarker
			}
		}
	}
	return Unknown()
}

// ParseFrameInfo does nothing for MJPEG: there is no codec-dependent
// side-band info this reader extracts beyond the frame size itself.
func (p *MJPEGParser) ParseFrameInfo(buf []byte, size ParsedFrameSize) {}
