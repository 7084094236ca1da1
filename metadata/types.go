package metadata

import (
	"github.com/mxfclip/mxfclip/fileindex"
	"github.com/mxfclip/mxfclip/umid"
)

// Preface is the root object of a HeaderMetadata set.
type Preface struct {
	MXFVersion      uint16
	ContentStorage  NodeID
	OperationalPattern [16]byte
	IsComplete      bool
}

// ContentStorage holds the set of packages and essence-container-data
// entries in a HeaderMetadata set.
type ContentStorage struct {
	Packages            []NodeID
	EssenceContainerData []NodeID
}

// PackageKind distinguishes the three package roles spec §3/§4.2 name.
type PackageKind int

const (
	MaterialPackage PackageKind = iota
	FileSourcePackage
	PhysicalSourcePackage
)

// Package is a Material, File Source, or Physical Source package.
type Package struct {
	Kind     PackageKind
	UID      umid.UMID
	Tracks   []NodeID
	// Descriptor is set only for FileSourcePackage: the EssenceDescriptor
	// NodeID describing the essence this package's tracks reference.
	Descriptor NodeID
}

// GenericTrack is a track within a Package: its own TrackID/TrackNumber
// plus a Sequence of structural components.
type GenericTrack struct {
	TrackID     uint32
	TrackNumber uint32
	EditRate    EditRateRat
	Sequence    NodeID
	// IsStaticTrack marks a static (non-timeline) DM-track carrying a
	// TextBasedDMFramework, per spec §4.2 "Text objects".
	IsStaticTrack bool
	DMFramework   NodeID
}

// EditRateRat avoids metadata importing rational to keep this package's
// dependency surface minimal for the thin facade it is; mxfreader
// converts to rational.Rational at the boundary.
type EditRateRat struct {
	Num, Den int64
}

// ComponentKind tags which StructuralComponent variant a Sequence entry
// is, per spec §4.2 "The track's Sequence may contain...".
type ComponentKind int

const (
	ComponentFiller ComponentKind = iota
	ComponentSourceClip
	ComponentEssenceGroup
	ComponentTimecodeComponent
	ComponentOther // mxfreader drops a track whose Sequence leads with this
)

// Sequence is an ordered list of StructuralComponents making up a
// track's timeline.
type Sequence struct {
	DataDefinition [16]byte
	Duration       int64 // -1 == unknown
	Components     []NodeID
}

// StructuralComponent is one entry of a Sequence.
type StructuralComponent struct {
	Kind     ComponentKind
	Duration int64 // -1 == unknown

	// Filler has no extra fields.

	// SourceClip fields:
	SourcePackageID umid.UMID
	SourceTrackID   uint32
	StartPosition   int64

	// EssenceGroup fields: candidate SourceClip choices, take the first.
	Choices []NodeID

	// TimecodeComponent fields:
	RoundedTimecodeBase uint16
	StartTimecode       int64
	DropFrame           bool
}

// TextObject is a decoded TextBasedDMFramework, per spec §4.2 "Text
// objects".
type TextObject struct {
	ResourceID string
	MimeType   string
	Data       string
}

// EssenceContainerDataEntry links a BodySID/IndexSID pair to the file
// source package it belongs to, per spec §4.2 "BodySID/IndexSID
// discovery".
type EssenceContainerDataEntry struct {
	LinkedPackageUID umid.UMID
	BodySID          uint32
	IndexSID         uint32
	IsTimedText      bool
}

// DescriptorKind tags which of a Descriptor's Picture/Sound/Data field
// groups is populated.
type DescriptorKind int

const (
	DescriptorPicture DescriptorKind = iota
	DescriptorSound
	DescriptorData
)

// Descriptor is a FileSourcePackage's EssenceDescriptor, decoded down to
// exactly the fields mxfreader needs to build a track.Info. The bit-level
// decode of CDCI/RGBA/WAVE/etc. descriptor sets is an external
// collaborator's job (spec §1); this is the shape it hands back, leaving
// the Avid legacy corrections, AFD decode, and frame-height-factor
// adjustments (spec §6.3/§6.4) to mxfreader itself, since those are
// genuinely core interpretive logic rather than bit-exact parsing.
type Descriptor struct {
	Kind                  DescriptorKind
	EssenceContainerLabel [16]byte
	Origin                int64
	Duration              int64 // -1 == unknown

	// AvidResolutionID is the decoded Avid "ResolutionID" extension
	// property, or 0 if absent.
	AvidResolutionID int32

	// Picture fields.
	StoredWidth, StoredHeight     uint32
	DisplayWidth, DisplayHeight   uint32
	HasExplicitAspectRatio        bool
	AspectRatioNum, AspectRatioDen int64
	HasAFD                        bool
	ActiveFormatDescriptor        byte
	MXFVersion                    uint16
	FrameLayout                   uint8
	HorizontalSubsampling         uint32
	VerticalSubsampling           uint32
	ComponentDepth                uint32
	SampleRateNum, SampleRateDen  int64

	// Sound fields.
	AudioSamplingRateNum, AudioSamplingRateDen int64
	ChannelCount                               uint32
	QuantizationBits                            uint32
	BlockAlign                                  uint32
	SequenceOffset                              uint8
	MCALabels                                   []*fileindex.MCALabel

	// Data fields.
	IsTimedText          bool
	TimedTextMimeType    string
	TimedTextResourceID  string
	IsVBIANC             bool
	VBIANCWrapping       string

	// Locators is the EssenceDescriptor's list of NetworkLocator URIs,
	// consulted by the resolver when a SourceClip on another package
	// points at essence not present among the currently open files.
	Locators []string
}
