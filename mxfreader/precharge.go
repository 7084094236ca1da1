package mxfreader

import (
	"fmt"
	"math"

	"github.com/mxfclip/mxfclip/essencereader"
	"github.com/mxfclip/mxfclip/indextable"
)

// trackIndexTable returns materialTrackID's TrackReader and the
// indextable.MultiSegment that actually covers its essence: this file's
// own index table for an internal track, or the owning FileReader's
// index table when the track resolved straight to a FileSourcePackage on
// another file. Precharge/rollout queries on a track that resolved to a
// nested MaterialPackage aren't supported, since there's no longer a
// single index table to anchor against (per §4.2's scope: precharge and
// rollout are essence-level, not compound-clip-level, concepts).
func (fr *FileReader) trackIndexTable(materialTrackID uint32) (*TrackReader, *indextable.MultiSegment, error) {
	tr := fr.TrackByMaterialTrackID(materialTrackID)
	if tr == nil {
		return nil, nil, fmt.Errorf("mxfreader: unknown material track %d", materialTrackID)
	}
	if tr.Internal {
		if fr.indexTable == nil {
			return nil, nil, fmt.Errorf("%w: track %d", ErrNoIndexTable, materialTrackID)
		}
		return tr, fr.indexTable, nil
	}
	ext := tr.external
	if !ext.isFileSourcePackage {
		return nil, nil, fmt.Errorf("mxfreader: precharge/rollout not supported across a nested MaterialPackage reference (track %d)", materialTrackID)
	}
	if ext.reader.indexTable == nil {
		return nil, nil, fmt.Errorf("%w: track %d", ErrNoIndexTable, materialTrackID)
	}
	return tr, ext.reader.indexTable, nil
}

// trackEssenceReader returns the essencereader.Reader that actually
// serves tr's essence (this file's own for an internal track, or the
// owning peer's for a track resolved directly to a FileSourcePackage),
// plus that reader's own fileOrigin, so callers can translate between
// the clip's own-rate addressing and TO_ESS_READER_POS space (spec §4.2)
// the way readEssence does.
func (fr *FileReader) trackEssenceReader(tr *TrackReader) (essencereader.Reader, int64, error) {
	if tr.Internal {
		if fr.essence == nil {
			return nil, 0, fmt.Errorf("%w: track %d", ErrNoEssence, tr.Info.MaterialTrackID)
		}
		return fr.essence, fr.fileOrigin, nil
	}
	ext := tr.external
	if !ext.isFileSourcePackage {
		return nil, 0, fmt.Errorf("mxfreader: precharge/rollout not supported across a nested MaterialPackage reference (track %d)", tr.Info.MaterialTrackID)
	}
	if ext.reader.essence == nil {
		return nil, 0, fmt.Errorf("%w: track %d", ErrNoEssence, tr.Info.MaterialTrackID)
	}
	return ext.reader.essence, ext.reader.fileOrigin, nil
}

// ownStartPosition converts the clip's own position-0 to materialTrackID's
// underlying index table's addressing, accounting for an external track's
// SourceClip start_position offset.
func (fr *FileReader) ownStartPosition(tr *TrackReader) int64 {
	pos := fr.toOwnPosition(tr, 0)
	if !tr.Internal {
		pos += tr.external.startPos
	}
	return pos
}

// RequiredPrecharge reports how many edit units before the clip's
// position 0 must be decoded to correctly present frame 0, per spec §4.2
// "Required precharge" / scenarios S4-S5. The index entry at the target
// position is inspected directly when it isn't a B-frame
// (temporal_offset == 0); otherwise the entry's decode anchor
// (temporal_offset away) is looked up and its key_frame_offset combined
// with the target's own temporal_offset. The result is always <= 0
// (spec §8 invariant 5) — positive combinations are advisory and
// clamped to 0.
func (fr *FileReader) RequiredPrecharge(materialTrackID uint32) (int64, error) {
	tr, it, err := fr.trackIndexTable(materialTrackID)
	if err != nil {
		return 0, err
	}
	pos := fr.ownStartPosition(tr)
	entry, err := it.Lookup(pos)
	if err != nil {
		return 0, err
	}

	var offset int64
	if entry.TemporalOffset != 0 {
		anchor, err := it.AnchorPosition(pos)
		if err != nil {
			return 0, err
		}
		anchorEntry, err := it.Lookup(anchor)
		if err != nil {
			return 0, err
		}
		offset = int64(entry.TemporalOffset) + int64(anchorEntry.KeyFrameOffset)
	} else {
		offset = int64(entry.KeyFrameOffset)
	}
	if offset > 0 {
		fr.logger.Printf("mxfreader: WARN: positive required precharge (%d) at track %d position %d clamped to 0", offset, materialTrackID, pos)
		offset = 0
	}
	return offset, nil
}

// AvailablePrecharge reports how many edit units before the clip's
// position 0 are physically present and actually readable, per spec
// §4.2 "limit_to_available": clamped to the essence reader's own
// LegitimisePosition bound, not the raw index table extent, since the
// reader (not the index table) is the authority on the legal essence
// range it can serve.
func (fr *FileReader) AvailablePrecharge(materialTrackID uint32) (int64, error) {
	tr, _, err := fr.trackIndexTable(materialTrackID)
	if err != nil {
		return 0, err
	}
	essence, origin, err := fr.trackEssenceReader(tr)
	if err != nil {
		return 0, err
	}
	legitMin := essence.LegitimisePosition(math.MinInt64) - origin
	avail := fr.ownStartPosition(tr) - legitMin
	if avail < 0 {
		avail = 0
	}
	return avail, nil
}

// RequiredRollout reports how many edit units past the track's last
// index-table-covered position must be decoded to correctly present that
// last position, per spec §4.2 "Required rollout": the mirror image of
// RequiredPrecharge, using temporal_offset instead of key_frame_offset —
// a positive temporal_offset on the last entry means its presentation
// position sits behind frames that were encoded, and must be decoded,
// after it.
func (fr *FileReader) RequiredRollout(materialTrackID uint32) (int64, error) {
	_, it, err := fr.trackIndexTable(materialTrackID)
	if err != nil {
		return 0, err
	}
	last := it.LastPosition()
	if last < 0 {
		return 0, nil
	}
	anchor, err := it.AnchorPosition(last)
	if err != nil {
		return 0, err
	}
	if anchor > last {
		return anchor - last, nil
	}
	return 0, nil
}

// AvailableRollout reports how many edit units past the clip's declared
// duration are physically present and actually readable for
// materialTrackID, clamped to the essence reader's own LegitimisePosition
// bound rather than the raw index table extent, matching
// AvailablePrecharge.
func (fr *FileReader) AvailableRollout(materialTrackID uint32) (int64, error) {
	tr, _, err := fr.trackIndexTable(materialTrackID)
	if err != nil {
		return 0, err
	}
	if fr.duration < 0 {
		return 0, nil
	}
	essence, origin, err := fr.trackEssenceReader(tr)
	if err != nil {
		return 0, err
	}
	legitMax := essence.LegitimisePosition(math.MaxInt64) - origin
	durOwn := fr.toOwnDuration(tr, 0, fr.duration)
	lastNeeded := fr.ownStartPosition(tr) + durOwn - 1
	avail := legitMax - lastNeeded
	if avail < 0 {
		avail = 0
	}
	return avail, nil
}

// Precharge reports the precharge to apply for materialTrackID: the
// required amount, clamped to what's actually available when
// limitToAvailable is set (spec §4.2 "limit_to_available").
func (fr *FileReader) Precharge(materialTrackID uint32, limitToAvailable bool) (int64, error) {
	required, err := fr.RequiredPrecharge(materialTrackID)
	if err != nil {
		return 0, err
	}
	if !limitToAvailable {
		return required, nil
	}
	available, err := fr.AvailablePrecharge(materialTrackID)
	if err != nil {
		return 0, err
	}
	// required is <= 0 (magnitude of precharge needed); available is the
	// nonnegative count of edit units actually present before position 0.
	// Clamp the magnitude, not a naive numeric minimum.
	if -required > available {
		return -available, nil
	}
	return required, nil
}

// Rollout reports the rollout to apply for materialTrackID, mirroring
// Precharge.
func (fr *FileReader) Rollout(materialTrackID uint32, limitToAvailable bool) (int64, error) {
	required, err := fr.RequiredRollout(materialTrackID)
	if err != nil {
		return 0, err
	}
	if !limitToAvailable {
		return required, nil
	}
	available, err := fr.AvailableRollout(materialTrackID)
	if err != nil {
		return 0, err
	}
	if available < required {
		return available, nil
	}
	return required, nil
}

// clipWideRequired aggregates required(materialTrackID, limitToAvailable)
// over every track with its own index table, per spec §4.2 "Cross-file
// aggregation" (spec.md:124): a contributor whose own edit rate doesn't
// equal the clip's contributes the neutral value 0 to the pool instead of
// being consulted at all — so a single mismatched-rate contributor can
// never itself force the clip to take on more precharge/rollout than its
// rate-matching contributors need, because 0 already sits on the "no
// precharge/rollout needed" side of required()'s range for both
// quantities. Under the minimum kept here that 0 leaves precharge (<= 0)
// unchanged but can lower the clip-wide rollout (>= 0) to 0.
// required must be one of fr.RequiredPrecharge/Precharge or
// fr.RequiredRollout/Rollout, already bound to limitToAvailable.
func (fr *FileReader) clipWideRequired(required func(uint32, bool) (int64, error), limitToAvailable bool) (int64, error) {
	haveContributor := false
	var result int64

	for _, tr := range fr.tracks {
		if _, _, err := fr.trackIndexTable(tr.Info.MaterialTrackID); err != nil {
			continue
		}
		v := int64(0)
		if tr.Info.EditRate == fr.clipEditRate {
			var err error
			v, err = required(tr.Info.MaterialTrackID, limitToAvailable)
			if err != nil {
				return 0, err
			}
		} else {
			fr.logger.Printf("mxfreader: WARN: track %d edit rate %v does not match clip edit rate %v; contributing zero to clip-wide precharge/rollout", tr.Info.MaterialTrackID, tr.Info.EditRate, fr.clipEditRate)
		}
		if !haveContributor || v < result {
			result = v
		}
		haveContributor = true
	}
	if !haveContributor {
		return 0, nil
	}
	return result, nil
}

// ClipPrecharge reports the clip-wide precharge to apply, aggregating
// every contributing track's own Precharge per spec §4.2 "Cross-file
// aggregation": the minimum (most negative) across contributors.
func (fr *FileReader) ClipPrecharge(limitToAvailable bool) (int64, error) {
	return fr.clipWideRequired(fr.Precharge, limitToAvailable)
}

// ClipRollout reports the clip-wide rollout to apply, aggregating every
// contributing track's own Rollout per spec §4.2 "Cross-file
// aggregation": the minimum across contributors.
func (fr *FileReader) ClipRollout(limitToAvailable bool) (int64, error) {
	return fr.clipWideRequired(fr.Rollout, limitToAvailable)
}
