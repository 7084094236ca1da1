// Package track models TrackInfo, the per-track descriptor record spec
// §3 describes as a tagged variant over {Picture, Sound, Data}.
package track

import (
	"github.com/mxfclip/mxfclip/fileindex"
	"github.com/mxfclip/mxfclip/rational"
	"github.com/mxfclip/mxfclip/umid"
)

// Kind tags which Extra variant is populated on an Info.
type Kind int

const (
	Picture Kind = iota
	Sound
	Data
)

func (k Kind) String() string {
	switch k {
	case Picture:
		return "Picture"
	case Sound:
		return "Sound"
	case Data:
		return "Data"
	default:
		return "Unknown"
	}
}

// Info is the shared per-track descriptor record, per spec §3 TrackInfo.
// Exactly one of PictureExtra, SoundExtra, DataExtra is non-nil,
// selected by Kind.
type Info struct {
	Kind Kind

	MaterialPackageUID  umid.UMID
	MaterialTrackID     uint32
	MaterialTrackNumber uint32

	FilePackageUID  umid.UMID
	FileTrackID     uint32
	FileTrackNumber uint32

	EditRate rational.Rational

	// Duration is in this track's own edit rate. A negative value means
	// "unknown", per spec §3.
	Duration int64

	LeadFillerOffset int64

	EssenceContainerLabel [16]byte
	EssenceType            string

	PictureExtra *PictureExtra
	SoundExtra   *SoundExtra
	DataExtra    *DataExtra
}

// DurationKnown reports whether Duration is a real value rather than the
// "unknown" sentinel.
func (i *Info) DurationKnown() bool {
	return i.Duration >= 0
}

// PictureExtra carries picture-specific descriptor fields, per spec §3.
type PictureExtra struct {
	StoredWidth, StoredHeight   uint32
	DisplayWidth, DisplayHeight uint32
	AspectRatio                 rational.Rational
	AFD                         byte
	FrameLayout                 FrameLayout
	HorizontalSubsampling       uint32
	VerticalSubsampling         uint32
	ComponentDepth              uint32
}

// FrameLayout mirrors the MXF FrameLayout property enumeration values
// the core must distinguish to apply the legacy Avid correction (§6.4).
type FrameLayout uint8

const (
	FullFrame        FrameLayout = 0
	SeparateFields    FrameLayout = 1
	SingleField       FrameLayout = 2
	MixedFields       FrameLayout = 3
	SegmentedFrame    FrameLayout = 4
)

// SoundExtra carries sound-specific descriptor fields, per spec §3.
type SoundExtra struct {
	SamplingRate   rational.Rational
	ChannelCount   uint32
	BitsPerSample  uint32
	BlockAlign     uint32
	SequenceOffset uint8
	MCALabels      []*fileindex.MCALabel

	// SoundfieldGroups holds, parallel to MCALabels, each label's
	// dereferenced soundfield-group parent (spec §6.2 "MCA label
	// indexing"/§3 MCALabelIndex), or nil where a label has no
	// SoundfieldGroupLinkID or the parent hasn't been indexed.
	SoundfieldGroups []*fileindex.MCALabel
}

// DataExtra carries data-track manifests, per spec §3: either a
// timed-text manifest or a VBI/ANC manifest, never both.
type DataExtra struct {
	TimedText *TimedTextManifest
	VBIANC    *VBIANCManifest
}

// TimedTextManifest describes a timed-text (subtitle/caption) track's
// resource location and the lead-filler-derived start offset (spec §4.2
// "Lead-filler policy": timed-text tracks fold lead filler into their
// own duration and record it here, in their manifest's `start` field).
type TimedTextManifest struct {
	ResourceID string
	MimeType   string
	Start      int64
}

// VBIANCManifest describes ancillary/VBI data carried on a data track.
type VBIANCManifest struct {
	Wrapping string
}
