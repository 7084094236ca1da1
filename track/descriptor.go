package track

import "github.com/mxfclip/mxfclip/rational"

// AvidResolutionID legacy DV resolution IDs known to mis-describe their
// picture descriptor (spec §6.4). Grounded on
// MXFFileReader::ProcessPictureDescriptor's avid_resolution_id checks.
const (
	AvidResolutionDV25IEC     = 0x8c
	AvidResolutionDV25DVBased = 0x8d
	AvidResolutionDV50DVBased = 0x8e
)

// CorrectLegacyAvidPicture applies the two corrections the original
// reader applies when it recognizes one of the legacy DV Avid resolution
// IDs: IEC DV-25 / DVBased DV-25 / DVBased DV-50 files describe
// FrameLayout as MixedFields when they mean SeparateFields, and
// DVBased DV-25 in particular describes square horizontal/vertical
// chroma subsampling when it means 4:1:1 (horiz=4, vert=1). Both
// corrections are silent in the original; this keeps them silent too,
// beyond the WARN-worthy conditions already logged elsewhere.
func CorrectLegacyAvidPicture(avidResolutionID int32, p *PictureExtra) {
	isLegacyDV := avidResolutionID == AvidResolutionDV25IEC ||
		avidResolutionID == AvidResolutionDV25DVBased ||
		avidResolutionID == AvidResolutionDV50DVBased

	if isLegacyDV && p.FrameLayout == MixedFields {
		p.FrameLayout = SeparateFields
	}

	if avidResolutionID == AvidResolutionDV25DVBased &&
		p.HorizontalSubsampling == p.VerticalSubsampling {
		p.HorizontalSubsampling = 4
		p.VerticalSubsampling = 1
	}
}

// frameHeightFactor returns the stored/display height multiplier the
// original applies for field-separated layouts, which describe a single
// field's height in the descriptor (MXFFileReader::ProcessPictureDescriptor
// doubles it back out to a full frame height).
func frameHeightFactor(layout FrameLayout) uint32 {
	if layout == SeparateFields {
		return 2
	}
	return 1
}

// ApplyFrameHeightFactor scales storedHeight/displayHeight to full-frame
// terms per frameHeightFactor.
func ApplyFrameHeightFactor(layout FrameLayout, storedHeight, displayHeight uint32) (uint32, uint32) {
	f := frameHeightFactor(layout)
	return storedHeight * f, displayHeight * f
}

// afdAspectRatioTable maps the well-known AFD codes (low nibble of the
// ActiveFormatDescriptor byte) to their historically implied display
// aspect ratio, for MXF versions/descriptors that omit an explicit
// AspectRatio property. An explicit AspectRatio property always takes
// precedence over this implied value (spec §6.3).
var afdAspectRatioTable = map[byte]rational.Rational{
	0x02: rational.New(4, 3),
	0x03: rational.New(14, 9),
	0x04: rational.New(16, 9),
	0x08: rational.New(4, 3),
	0x09: rational.New(14, 9),
	0x0a: rational.New(16, 9),
	0x0b: rational.New(4, 3),
	0x0d: rational.New(4, 3),
	0x0e: rational.New(16, 9),
	0x0f: rational.New(16, 9),
}

// DecodeAFD decodes an ActiveFormatDescriptor byte into its AFD code
// (the low nibble) and its historically implied aspect ratio, per spec
// §6.3. mxfVersion is accepted for parity with the original's
// decode_afd signature (earlier MXF versions packed the AFD code into a
// different bit range) but this implementation only needs the low
// nibble, which is the layout used by every version this reader targets.
func DecodeAFD(afdByte byte, mxfVersion uint16) (afd byte, ratio rational.Rational) {
	afd = afdByte & 0x0f
	ratio = afdAspectRatioTable[afd]
	return afd, ratio
}
