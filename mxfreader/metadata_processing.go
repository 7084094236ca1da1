package mxfreader

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/mxfclip/mxfclip/fileindex"
	"github.com/mxfclip/mxfclip/metadata"
	"github.com/mxfclip/mxfclip/rational"
	"github.com/mxfclip/mxfclip/resolver"
	"github.com/mxfclip/mxfclip/track"
	"github.com/mxfclip/mxfclip/umid"
)

// processMetadata walks the decoded arena (spec §4.2 steps 4-6): finds
// the material package, discovers this file's own BodySID/IndexSID,
// and builds one TrackReader per timeline track on the material
// package, resolving each track's Sequence down to the SourceClip (or
// first EssenceGroup choice) that actually carries essence.
func (fr *FileReader) processMetadata() error {
	preface := fr.arena.Preface(fr.prefaceID)
	if preface == nil {
		return fmt.Errorf("header metadata has no Preface")
	}
	fr.complete = preface.IsComplete
	fr.operationalPattern = preface.OperationalPattern

	cs := fr.arena.ContentStorage(preface.ContentStorage)
	if cs == nil {
		return fmt.Errorf("Preface has no ContentStorage")
	}

	var materialPkgID metadata.NodeID = metadata.NilNode
	var ownFileSourcePkgIDs []metadata.NodeID
	for _, pkgID := range cs.Packages {
		pkg := fr.arena.Package(pkgID)
		if pkg == nil {
			continue
		}
		switch pkg.Kind {
		case metadata.MaterialPackage:
			materialPkgID = pkgID
		case metadata.FileSourcePackage:
			ownFileSourcePkgIDs = append(ownFileSourcePkgIDs, pkgID)
		}
	}
	if materialPkgID == metadata.NilNode {
		return fmt.Errorf("no MaterialPackage found in ContentStorage")
	}
	fr.materialPackageID = materialPkgID
	materialPkg := fr.arena.Package(materialPkgID)

	matchedNonTT := 0
	for _, eid := range cs.EssenceContainerData {
		e := fr.arena.EssenceContainerDataEntry(eid)
		if e == nil {
			continue
		}
		for _, fspID := range ownFileSourcePkgIDs {
			fsp := fr.arena.Package(fspID)
			if fsp != nil && fsp.UID == e.LinkedPackageUID {
				if !e.IsTimedText {
					matchedNonTT++
				}
				if e.BodySID != 0 {
					fr.bodySID = e.BodySID
				}
				if e.IndexSID != 0 {
					fr.indexSID = e.IndexSID
				}
			}
		}
	}
	if matchedNonTT > 1 {
		return fmt.Errorf("%w: multiple non-timed-text essence containers in one file", ErrNotSupported)
	}

	for _, trackID := range materialPkg.Tracks {
		gt := fr.arena.Track(trackID)
		if gt == nil {
			continue
		}
		if gt.IsStaticTrack {
			fr.extractTextObject(gt)
			continue
		}

		tr, err := fr.buildTrackReader(materialPkg, gt)
		if err != nil {
			if errors.Is(err, ErrNotSupported) {
				// Spec §7 "Unsupported...Fatal for open": these conditions
				// abort the whole Open, not just this one track.
				return err
			}
			fr.logger.Printf("mxfreader: WARN: skipping material track %d: %v", gt.TrackID, err)
			continue
		}
		fr.tracks = append(fr.tracks, tr)
	}
	if len(fr.tracks) == 0 {
		return fmt.Errorf("material package has no usable timeline tracks")
	}
	if err := fr.selectClipEditRate(); err != nil {
		return err
	}

	sort.SliceStable(fr.tracks, func(i, j int) bool {
		a, b := fr.tracks[i].Info, fr.tracks[j].Info
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if an, bn := zeroSortsLast(a.MaterialTrackNumber), zeroSortsLast(b.MaterialTrackNumber); an != bn {
			return an < bn
		}
		return zeroSortsLast(a.MaterialTrackID) < zeroSortsLast(b.MaterialTrackID)
	})

	fr.computeClipDuration()
	return nil
}

// buildTrackReader resolves gt's Sequence down to a SourceClip and turns
// it into a TrackReader, per spec §4.2 "The track's Sequence may
// contain...": Filler (skipped, accumulated into LeadFillerOffset),
// EssenceGroup (first Choice taken), SourceClip (resolved via the
// PackageResolver). Anything else (a timecode track's
// TimecodeComponent, for instance) is returned as a plain error, not
// ErrNotSupported: the caller logs it and drops the track, and Open
// continues without it.
func (fr *FileReader) buildTrackReader(materialPkg *metadata.Package, gt *metadata.GenericTrack) (*TrackReader, error) {
	seq := fr.arena.Sequence(gt.Sequence)
	if seq == nil {
		return nil, fmt.Errorf("track has no Sequence")
	}
	leadFiller := fr.arena.LeadingFillerOffset(seq)

	comp, ok := fr.arena.FirstNonFillerComponent(seq)
	if !ok {
		return nil, fmt.Errorf("track's Sequence is entirely Filler")
	}

	switch comp.Kind {
	case metadata.ComponentSourceClip:
		return fr.buildFromSourceClip(materialPkg, gt, comp, leadFiller)
	case metadata.ComponentEssenceGroup:
		if len(comp.Choices) == 0 {
			return nil, fmt.Errorf("EssenceGroup has no Choices")
		}
		choice := fr.arena.Component(comp.Choices[0])
		if choice == nil || choice.Kind != metadata.ComponentSourceClip {
			return nil, fmt.Errorf("EssenceGroup's first Choice is not a SourceClip")
		}
		return fr.buildFromSourceClip(materialPkg, gt, choice, leadFiller)
	default:
		return nil, fmt.Errorf("unsupported Sequence component kind %v", comp.Kind)
	}
}

func (fr *FileReader) buildFromSourceClip(materialPkg *metadata.Package, gt *metadata.GenericTrack, clip *metadata.StructuralComponent, leadFiller int64) (*TrackReader, error) {
	// Spec §7 "Unsupported...Fatal for open": a negative start_position
	// is never valid, and a non-zero one is only meaningful in OP-Atom,
	// where a SourceClip always addresses the whole of a dedicated
	// essence container rather than a shared, multiplexed one.
	if clip.StartPosition < 0 {
		return nil, fmt.Errorf("%w: SourceClip has negative start_position %d", ErrNotSupported, clip.StartPosition)
	}
	if clip.StartPosition != 0 && !fr.operationalPattern.IsOPAtom() {
		return nil, fmt.Errorf("%w: non-zero SourceClip start_position %d outside OP-Atom", ErrNotSupported, clip.StartPosition)
	}

	locators := fr.localLocatorsFor(clip.SourcePackageID)
	ref := resolver.SourceClipRef{
		SourcePackageID: clip.SourcePackageID,
		SourceTrackID:   clip.SourceTrackID,
		StartPosition:   clip.StartPosition,
	}
	resolved := fr.resolver.ResolveSourceClip(fr.id, ref, locators)
	if len(resolved) == 0 {
		if fr.resolver.IsKnownExternalFileSourcePackage(fr.id, clip.SourcePackageID) {
			// Spec §7: a top-level reference straight to another file's
			// FileSourcePackage, with no local placeholder of our own to
			// license it, is unsupported rather than merely unresolved.
			return nil, fmt.Errorf("%w: external FileSourcePackage %s has no local placeholder", ErrNotSupported, clip.SourcePackageID)
		}
		return nil, fmt.Errorf("could not resolve SourceClip to package %s track %d", clip.SourcePackageID, clip.SourceTrackID)
	}
	rp := resolved[0]

	targetArena := rp.FileReader.Arena()
	targetTrack := targetArena.Track(rp.GenericTrack)
	if targetTrack == nil {
		return nil, fmt.Errorf("resolved track is missing from its own arena")
	}
	targetPkg := targetArena.Package(rp.Package)

	var descriptor *metadata.Descriptor
	if targetPkg != nil {
		descriptor = targetArena.Descriptor(targetPkg.Descriptor)
	}

	// Unify the FileDescriptor's Origin property with the material
	// track's accumulated leading-Filler offset into one effective start
	// offset (the Open Question this reader resolves per the original's
	// policy: only timed-text tracks keep the two separate, folding both
	// into their manifest's own start field and zeroing LeadFillerOffset;
	// every other kind just sums them).
	unifiedOffset := leadFiller
	if descriptor != nil {
		unifiedOffset += descriptor.Origin
	}

	info := &track.Info{
		MaterialPackageUID:  materialPkg.UID,
		MaterialTrackID:     gt.TrackID,
		MaterialTrackNumber: gt.TrackNumber,
		FilePackageUID:      clip.SourcePackageID,
		FileTrackID:         clip.SourceTrackID,
		FileTrackNumber:     targetTrack.TrackNumber,
		EditRate:            rational.New(gt.EditRate.Num, gt.EditRate.Den),
		LeadFillerOffset:    unifiedOffset,
	}
	fr.populateTrackKind(info, clip.SourcePackageID, descriptor)

	if seq := targetArena.Sequence(targetTrack.Sequence); seq != nil && seq.Duration >= 0 {
		info.Duration = seq.Duration
	} else {
		info.Duration = -1
	}

	tr := &TrackReader{Info: info, Internal: rp.FileReader.ID() == fr.id, Enabled: true}
	if !tr.Internal {
		extFR, ok := rp.FileReader.(*FileReader)
		if !ok {
			return nil, fmt.Errorf("external FileReaderHandle is not a *FileReader")
		}
		if rp.IsFileSourcePackage && extFR.bodySID == 0 {
			// Spec §7: a FileSourcePackage that doesn't itself host essence
			// internally is a chained external reference, not a direct one.
			return nil, fmt.Errorf("%w: external FileSourcePackage %s hosts no essence of its own (chained external reference)",
				ErrNotSupported, clip.SourcePackageID)
		}
		tr.external = &externalTrack{
			reader:              extFR,
			startPos:            clip.StartPosition,
			isFileSourcePackage: rp.IsFileSourcePackage,
			fileTrackNumber:     targetTrack.TrackNumber,
			materialTrackID:     rp.TrackID,
		}
	} else {
		origin := int64(0)
		if descriptor != nil {
			origin = descriptor.Origin
		}
		allowZeroOverride := descriptor != nil && descriptor.IsTimedText
		if err := fr.unifyFileOrigin(origin, allowZeroOverride); err != nil {
			return nil, err
		}
	}
	return tr, nil
}

// unifyFileOrigin records this file's essence-level origin the first
// time an internal track supplies one, and enforces that every
// subsequent internal track agrees (spec §7 "non-zero origin mismatch
// across tracks is fatal for open"). A timed-text track is allowed to
// report a zero origin even once a non-zero one has been established by
// another track, per spec §4.2's lead-filler policy for timed text.
func (fr *FileReader) unifyFileOrigin(origin int64, allowZeroOverride bool) error {
	if !fr.fileOriginSet {
		fr.fileOrigin = origin
		fr.fileOriginSet = true
		return nil
	}
	if origin == fr.fileOrigin || (allowZeroOverride && origin == 0) {
		return nil
	}
	return fmt.Errorf("%w: inconsistent essence origin across internal tracks (%d vs %d)", ErrNotSupported, origin, fr.fileOrigin)
}

// localLocatorsFor returns the NetworkLocator URIs attached to a
// FileSourcePackage already present in this file's own arena (a "ghost"
// entry this file carries for a package whose essence lives elsewhere —
// common for low-res proxies that reference full-resolution companion
// media), or nil if this file carries no such package.
func (fr *FileReader) localLocatorsFor(pkgUID umid.UMID) []resolver.Locator {
	pkgID, ok := fr.arena.PackageByUMID(pkgUID)
	if !ok {
		return nil
	}
	pkg := fr.arena.Package(pkgID)
	if pkg == nil || pkg.Kind != metadata.FileSourcePackage {
		return nil
	}
	descriptor := fr.arena.Descriptor(pkg.Descriptor)
	if descriptor == nil {
		return nil
	}
	locs := make([]resolver.Locator, len(descriptor.Locators))
	for i, uri := range descriptor.Locators {
		locs[i] = resolver.Locator{URI: uri}
	}
	return locs
}

// populateTrackKind fills in info's Kind and the matching Extra struct
// from descriptor, applying the legacy Avid corrections and AFD decode
// (spec §6.3/§6.4) along the way. descriptor may be nil (an unresolved
// or un-described reference); info.Kind then defaults to Data with an
// "unknown" EssenceType.
func (fr *FileReader) populateTrackKind(info *track.Info, sourcePkgUID umid.UMID, descriptor *metadata.Descriptor) {
	if descriptor == nil {
		info.Kind = track.Data
		info.EssenceType = "unknown"
		info.Duration = -1
		return
	}

	info.EssenceContainerLabel = descriptor.EssenceContainerLabel

	switch descriptor.Kind {
	case metadata.DescriptorPicture:
		info.Kind = track.Picture
		info.EssenceType = "picture"
		pe := &track.PictureExtra{
			StoredWidth:           descriptor.StoredWidth,
			StoredHeight:          descriptor.StoredHeight,
			DisplayWidth:          descriptor.DisplayWidth,
			DisplayHeight:         descriptor.DisplayHeight,
			FrameLayout:           track.FrameLayout(descriptor.FrameLayout),
			HorizontalSubsampling: descriptor.HorizontalSubsampling,
			VerticalSubsampling:   descriptor.VerticalSubsampling,
			ComponentDepth:        descriptor.ComponentDepth,
		}
		track.CorrectLegacyAvidPicture(descriptor.AvidResolutionID, pe)
		pe.StoredHeight, pe.DisplayHeight = track.ApplyFrameHeightFactor(pe.FrameLayout, pe.StoredHeight, pe.DisplayHeight)

		if descriptor.HasAFD {
			afd, impliedRatio := track.DecodeAFD(descriptor.ActiveFormatDescriptor, descriptor.MXFVersion)
			pe.AFD = afd
			pe.AspectRatio = impliedRatio
		}
		if descriptor.HasExplicitAspectRatio {
			pe.AspectRatio = rational.New(descriptor.AspectRatioNum, descriptor.AspectRatioDen)
		}
		info.PictureExtra = pe

	case metadata.DescriptorSound:
		info.Kind = track.Sound
		info.EssenceType = "sound"
		labels := fr.resolveMCALabels(sourcePkgUID, descriptor)
		se := &track.SoundExtra{
			SamplingRate:     rational.New(descriptor.AudioSamplingRateNum, descriptor.AudioSamplingRateDen),
			ChannelCount:     descriptor.ChannelCount,
			BitsPerSample:    descriptor.QuantizationBits,
			BlockAlign:       descriptor.BlockAlign,
			SequenceOffset:   descriptor.SequenceOffset,
			MCALabels:        labels,
			SoundfieldGroups: fr.resolveSoundfieldGroups(labels),
		}
		info.SoundExtra = se

	case metadata.DescriptorData:
		info.Kind = track.Data
		info.EssenceType = "data"
		de := &track.DataExtra{}
		if descriptor.IsTimedText {
			de.TimedText = &track.TimedTextManifest{
				ResourceID: descriptor.TimedTextResourceID,
				MimeType:   descriptor.TimedTextMimeType,
				Start:      info.LeadFillerOffset,
			}
			// Timed-text tracks fold their lead filler into the manifest's
			// own start offset rather than the generic LeadFillerOffset
			// field, per spec §4.2 "Lead-filler policy".
			info.LeadFillerOffset = 0
		} else if descriptor.IsVBIANC {
			de.VBIANC = &track.VBIANCManifest{Wrapping: descriptor.VBIANCWrapping}
		}
		info.DataExtra = de
	}
}

// resolveMCALabels registers descriptor's MCA sub-descriptors into the
// shared MCALabelIndex the first time sourcePkgUID is seen (spec §6.2
// "MCA label indexing" dedup), then returns them for the track's
// SoundExtra.
func (fr *FileReader) resolveMCALabels(sourcePkgUID umid.UMID, descriptor *metadata.Descriptor) []*fileindex.MCALabel {
	if len(descriptor.MCALabels) == 0 {
		return nil
	}
	if !fr.mcaIndex.AlreadyIndexed(sourcePkgUID) {
		fr.mcaIndex.Add(sourcePkgUID, descriptor.MCALabels)
	}
	return descriptor.MCALabels
}

// resolveSoundfieldGroups dereferences each of labels' soundfield-group
// parent, per spec §6.2: a label with no SoundfieldGroupLinkID, or one
// whose parent hasn't been indexed by any track's resolveMCALabels call
// yet, resolves to nil.
func (fr *FileReader) resolveSoundfieldGroups(labels []*fileindex.MCALabel) []*fileindex.MCALabel {
	if len(labels) == 0 {
		return nil
	}
	groups := make([]*fileindex.MCALabel, len(labels))
	for i, l := range labels {
		if l.SoundfieldGroupLinkID.IsZero() {
			continue
		}
		groups[i] = fr.mcaIndex.Resolve(l.SoundfieldGroupLinkID)
	}
	return groups
}

// extractTextObject decodes a static DM track's TextBasedDMFramework
// into the arena's TextObject list, per spec §4.2 "Text objects".
func (fr *FileReader) extractTextObject(gt *metadata.GenericTrack) {
	if gt.DMFramework == metadata.NilNode {
		return
	}
	if fr.arena.TextObject(gt.DMFramework) == nil {
		return
	}
	fr.textObjects = append(fr.textObjects, gt.DMFramework)
}

// computeClipDuration sets fr.duration to the shortest known duration
// among the clip's tracks, per spec §4.2 "Clip duration": a clip can
// only play back as long as its shortest track, and a track with
// unknown duration doesn't constrain it.
func (fr *FileReader) computeClipDuration() {
	fr.duration = -1
	for _, tr := range fr.tracks {
		if !tr.Info.DurationKnown() {
			continue
		}
		clipDur := fr.toClipDuration(tr)
		if fr.duration < 0 || clipDur < fr.duration {
			fr.duration = clipDur
		}
	}
}

// toClipDuration converts tr's own-rate duration to the clip's edit
// rate, using the cached rational.Sequence for tr's rate.
func (fr *FileReader) toClipDuration(tr *TrackReader) int64 {
	if tr.Info.EditRate == fr.clipEditRate {
		return tr.Info.Duration
	}
	seq := fr.sequenceFor(tr.Info.EditRate)
	if seq == nil {
		return tr.Info.Duration
	}
	return seq.ConvertPosLower(tr.Info.Duration)
}

// selectClipEditRate picks fr.clipEditRate per spec §3 "Clip timeline
// invariants": if at least one internal track exists, the clip runs at
// the internal file-source-package tracks' edit rate, and they must all
// agree on it; otherwise the clip runs at the lowest edit rate among the
// external tracks.
func (fr *FileReader) selectClipEditRate() error {
	var internalRate rational.Rational
	haveInternal := false
	var lowestExternal rational.Rational
	haveExternal := false

	for _, tr := range fr.tracks {
		if tr.Internal {
			if !haveInternal {
				internalRate = tr.Info.EditRate
				haveInternal = true
			} else if tr.Info.EditRate != internalRate {
				return fmt.Errorf("%w: internal tracks disagree on edit rate (%s vs %s)",
					ErrNotSupported, tr.Info.EditRate, internalRate)
			}
			continue
		}
		if !haveExternal || tr.Info.EditRate.Float64() < lowestExternal.Float64() {
			lowestExternal = tr.Info.EditRate
			haveExternal = true
		}
	}

	switch {
	case haveInternal:
		fr.clipEditRate = internalRate
	case haveExternal:
		fr.clipEditRate = lowestExternal
	default:
		return fmt.Errorf("%w: no internal or external track to derive a clip edit rate from", ErrNotSupported)
	}
	return nil
}

// zeroSortsLast maps a track-number/track-ID field to its sort key for
// fr.tracks' ordering, per spec §4.2 "Track ordering": 0 is the "unset"
// sentinel for both fields and sorts after every real value rather than
// before it.
func zeroSortsLast(v uint32) uint64 {
	if v == 0 {
		return math.MaxUint64
	}
	return uint64(v)
}

// sequenceFor returns (building and caching if necessary) the
// rational.Sequence relating the clip's edit rate to otherRate.
func (fr *FileReader) sequenceFor(otherRate rational.Rational) *rational.Sequence {
	if seq, ok := fr.seqCache[otherRate]; ok {
		return seq
	}
	seq, err := rational.NewSequence(fr.clipEditRate, otherRate)
	if err != nil {
		fr.logger.Printf("mxfreader: WARN: no sample sequence for clip rate %s / track rate %s: %v",
			fr.clipEditRate, otherRate, err)
		return nil
	}
	fr.seqCache[otherRate] = seq
	return seq
}
