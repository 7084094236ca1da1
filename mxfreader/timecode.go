package mxfreader

import (
	"fmt"

	"github.com/mxfclip/mxfclip/metadata"
	"github.com/mxfclip/mxfclip/resolver"
	"github.com/mxfclip/mxfclip/umid"
)

// TimecodeInfo is a decoded TimecodeComponent, aggregated back to the
// point in the SourceClip chain the caller asked about.
type TimecodeInfo struct {
	RoundedTimecodeBase uint16
	StartFrame          int64
	DropFrame           bool
}

// PhysicalSourceTimecode walks materialTrackID's SourceClip chain down
// through its FileSourcePackage looking for a TimecodeComponent,
// following one more SourceClip hop to a PhysicalSourcePackage when the
// file source package's own track doesn't carry timecode directly (the
// usual case: digitized tape media carries timecode on the physical
// source, and the file source package's matching track just points at
// it). Per SPEC_FULL.md §6.1 "Physical-source timecode aggregation",
// grounded on MXFFileReader::GetPhysicalSourceStartTimecodes. The
// physical source track is the one the file track's SourceClip names; no
// separate selection of track number 1 or of a sole timecode track is
// made.
func (fr *FileReader) PhysicalSourceTimecode(materialTrackID uint32) (*TimecodeInfo, error) {
	owner, filePkgUID, fileTrackID, startPos, err := fr.externalTimecodeOrigin(materialTrackID)
	if err != nil {
		return nil, err
	}
	return owner.timecodeFor(filePkgUID, fileTrackID, startPos)
}

// AvidAuxTimecode returns one of up to five Avid auxiliary timecodes
// carried on materialTrackID's PhysicalSourcePackage (track numbers
// 3..7, addressed here as slot 0..4), per SPEC_FULL.md §6.1. Each aux
// timecode carries its own lead-filler offset on its own Sequence,
// which must be subtracted from the converted start offset before the
// result is considered valid; an aux timecode whose accumulated filler
// exceeds that offset is dropped (an error), not clamped to zero.
func (fr *FileReader) AvidAuxTimecode(materialTrackID uint32, slot int) (*TimecodeInfo, error) {
	if slot < 0 || slot > 4 {
		return nil, fmt.Errorf("mxfreader: aux timecode slot %d out of range [0,4]", slot)
	}
	auxTrackID := uint32(3 + slot)

	owner, filePkgUID, fileTrackID, startPos, err := fr.externalTimecodeOrigin(materialTrackID)
	if err != nil {
		return nil, err
	}

	physOwner, physPkgUID, offset, err := owner.physicalSourcePackage(filePkgUID, fileTrackID, startPos)
	if err != nil {
		return nil, err
	}

	_, seq, err := physOwner.trackSequence(physPkgUID, auxTrackID)
	if err != nil {
		return nil, fmt.Errorf("mxfreader: aux timecode slot %d unavailable: %w", slot, err)
	}
	leadFiller := physOwner.arena.LeadingFillerOffset(seq)
	comp, ok := physOwner.arena.FirstNonFillerComponent(seq)
	if !ok || comp.Kind != metadata.ComponentTimecodeComponent {
		return nil, fmt.Errorf("mxfreader: aux timecode slot %d carries no TimecodeComponent", slot)
	}
	if leadFiller > offset {
		return nil, fmt.Errorf("mxfreader: aux timecode slot %d dropped: lead-filler %d exceeds offset %d", slot, leadFiller, offset)
	}
	effectiveOffset := offset - leadFiller

	return &TimecodeInfo{
		RoundedTimecodeBase: comp.RoundedTimecodeBase,
		StartFrame:          comp.StartTimecode + effectiveOffset,
		DropFrame:           comp.DropFrame,
	}, nil
}

// externalTimecodeOrigin resolves materialTrackID to the FileReader
// that actually owns its FileSourcePackage reference, the package/track
// identifying it there, and the SourceClip start-position offset to
// apply, shared by both PhysicalSourceTimecode and AvidAuxTimecode.
func (fr *FileReader) externalTimecodeOrigin(materialTrackID uint32) (owner *FileReader, pkgUID umid.UMID, trackID uint32, startPos int64, err error) {
	tr := fr.TrackByMaterialTrackID(materialTrackID)
	if tr == nil {
		return nil, umid.UMID{}, 0, 0, fmt.Errorf("mxfreader: unknown material track %d", materialTrackID)
	}
	owner = fr
	pkgUID = tr.Info.FilePackageUID
	trackID = tr.Info.FileTrackID
	if !tr.Internal {
		if !tr.external.isFileSourcePackage {
			return nil, umid.UMID{}, 0, 0, fmt.Errorf("mxfreader: timecode aggregation not supported across a nested MaterialPackage reference")
		}
		owner = tr.external.reader
		startPos = tr.external.startPos
	}
	return owner, pkgUID, trackID, startPos, nil
}

// physicalSourcePackage follows SourceClip hops from pkgUID/trackID
// (bounded, to tolerate malformed cyclic references per spec §9 "Cyclic
// package references") until it reaches a PhysicalSourcePackage,
// accumulating the SourceClip start_position offsets along the way.
func (fr *FileReader) physicalSourcePackage(pkgUID umid.UMID, trackID uint32, offset int64) (*FileReader, umid.UMID, int64, error) {
	owner := fr
	for hop := 0; hop < 8; hop++ {
		pkgID, ok := owner.arena.PackageByUMID(pkgUID)
		if !ok {
			return nil, umid.UMID{}, 0, fmt.Errorf("mxfreader: package %s not found while resolving physical source", pkgUID)
		}
		pkg := owner.arena.Package(pkgID)
		if pkg != nil && pkg.Kind == metadata.PhysicalSourcePackage {
			return owner, pkgUID, offset, nil
		}

		_, seq, err := owner.trackSequence(pkgUID, trackID)
		if err != nil {
			return nil, umid.UMID{}, 0, err
		}
		comp, ok := owner.arena.FirstNonFillerComponent(seq)
		if !ok || comp.Kind != metadata.ComponentSourceClip {
			return nil, umid.UMID{}, 0, fmt.Errorf("mxfreader: no SourceClip hop toward a PhysicalSourcePackage from %s track %d", pkgUID, trackID)
		}

		// A PhysicalSourcePackage is conventionally carried in the same
		// file as the FileSourcePackage that references it, and
		// Resolver.ExtractPackages never registers one (only Material and
		// FileSource packages, per spec §4.1): check owner's own arena
		// directly before falling back to cross-file resolution.
		if _, ok := owner.arena.PackageByUMID(comp.SourcePackageID); ok {
			pkgUID = comp.SourcePackageID
			trackID = comp.SourceTrackID
			offset += comp.StartPosition
			continue
		}

		locators := owner.localLocatorsFor(comp.SourcePackageID)
		resolved := owner.resolver.ResolveSourceClip(owner.id, resolver.SourceClipRef{
			SourcePackageID: comp.SourcePackageID,
			SourceTrackID:   comp.SourceTrackID,
			StartPosition:   comp.StartPosition,
		}, locators)
		if len(resolved) == 0 {
			return nil, umid.UMID{}, 0, fmt.Errorf("mxfreader: could not resolve SourceClip toward physical source from %s track %d", pkgUID, trackID)
		}
		rp := resolved[0]
		peer, ok := rp.FileReader.(*FileReader)
		if !ok {
			return nil, umid.UMID{}, 0, fmt.Errorf("mxfreader: resolved physical-source FileReaderHandle is not a *FileReader")
		}
		owner = peer
		pkgUID = comp.SourcePackageID
		trackID = comp.SourceTrackID
		offset += comp.StartPosition
	}
	return nil, umid.UMID{}, 0, fmt.Errorf("mxfreader: too many SourceClip hops resolving physical source for %s", pkgUID)
}

// timecodeFor resolves pkgUID/trackID's own Sequence for a directly
// attached TimecodeComponent, or follows one SourceClip hop toward a
// PhysicalSourcePackage.
func (fr *FileReader) timecodeFor(pkgUID umid.UMID, trackID uint32, startPos int64) (*TimecodeInfo, error) {
	_, seq, err := fr.trackSequence(pkgUID, trackID)
	if err != nil {
		return nil, err
	}

	comp, ok := fr.arena.FirstNonFillerComponent(seq)
	if !ok {
		return fr.avidAuxTimecode(pkgUID, startPos)
	}

	switch comp.Kind {
	case metadata.ComponentTimecodeComponent:
		return &TimecodeInfo{
			RoundedTimecodeBase: comp.RoundedTimecodeBase,
			StartFrame:          comp.StartTimecode + startPos,
			DropFrame:           comp.DropFrame,
		}, nil

	case metadata.ComponentSourceClip:
		// A PhysicalSourcePackage hop stays local: Resolver.ExtractPackages
		// never registers one (only Material and FileSource packages, per
		// spec §4.1), so check fr's own arena before trying cross-file
		// resolution.
		if _, ok := fr.arena.PackageByUMID(comp.SourcePackageID); ok {
			return fr.timecodeFor(comp.SourcePackageID, comp.SourceTrackID, startPos+comp.StartPosition)
		}

		locators := fr.localLocatorsFor(comp.SourcePackageID)
		resolved := fr.resolver.ResolveSourceClip(fr.id, resolver.SourceClipRef{
			SourcePackageID: comp.SourcePackageID,
			SourceTrackID:   comp.SourceTrackID,
			StartPosition:   comp.StartPosition,
		}, locators)
		if len(resolved) == 0 {
			return fr.avidAuxTimecode(pkgUID, startPos)
		}
		rp := resolved[0]
		peer, ok := rp.FileReader.(*FileReader)
		if !ok {
			return nil, fmt.Errorf("mxfreader: resolved timecode source's FileReaderHandle is not a *FileReader")
		}
		return peer.timecodeFor(comp.SourcePackageID, comp.SourceTrackID, startPos+comp.StartPosition)

	default:
		return fr.avidAuxTimecode(pkgUID, startPos)
	}
}

// avidAuxTimecode falls back to the legacy Avid convention of storing
// edgecode/keycode timecode on fixed auxiliary track IDs 3-7 of a
// PhysicalSourcePackage, when the package's primary matching track
// didn't carry a TimecodeComponent directly. Grounded on BMX's handling
// of Avid physical source packages with multiple aux timecode tracks.
func (fr *FileReader) avidAuxTimecode(pkgUID umid.UMID, startPos int64) (*TimecodeInfo, error) {
	pkgID, ok := fr.arena.PackageByUMID(pkgUID)
	if !ok {
		return nil, fmt.Errorf("mxfreader: package %s not found while searching for Avid aux timecode", pkgUID)
	}
	pkg := fr.arena.Package(pkgID)
	if pkg == nil || pkg.Kind != metadata.PhysicalSourcePackage {
		return nil, fmt.Errorf("mxfreader: no TimecodeComponent found and package %s is not a PhysicalSourcePackage", pkgUID)
	}

	for auxTrackID := uint32(3); auxTrackID <= 7; auxTrackID++ {
		_, seq, err := fr.trackSequence(pkgUID, auxTrackID)
		if err != nil {
			continue
		}
		comp, ok := fr.arena.FirstNonFillerComponent(seq)
		if !ok || comp.Kind != metadata.ComponentTimecodeComponent {
			continue
		}
		return &TimecodeInfo{
			RoundedTimecodeBase: comp.RoundedTimecodeBase,
			StartFrame:          comp.StartTimecode + startPos,
			DropFrame:           comp.DropFrame,
		}, nil
	}
	return nil, fmt.Errorf("mxfreader: no TimecodeComponent found on package %s, including Avid aux slots 3-7", pkgUID)
}

func (fr *FileReader) trackSequence(pkgUID umid.UMID, trackID uint32) (*metadata.GenericTrack, *metadata.Sequence, error) {
	tID, ok := fr.arena.TrackByID(pkgUID, trackID)
	if !ok {
		return nil, nil, fmt.Errorf("mxfreader: track %d not found on package %s", trackID, pkgUID)
	}
	gt := fr.arena.Track(tID)
	if gt == nil {
		return nil, nil, fmt.Errorf("mxfreader: track %d missing from arena", trackID)
	}
	seq := fr.arena.Sequence(gt.Sequence)
	if seq == nil {
		return nil, nil, fmt.Errorf("mxfreader: track %d has no Sequence", trackID)
	}
	return gt, seq, nil
}
