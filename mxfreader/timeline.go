package mxfreader

import (
	"fmt"

	"github.com/mxfclip/mxfclip/essencereader"
	"github.com/mxfclip/mxfclip/metadata"
	"github.com/mxfclip/mxfclip/rational"
)

// ClipEditRate returns the edit rate the clip's Position/Seek/Read
// operate in, per spec §3 "Clip timeline invariants": the internal
// tracks' shared edit rate if any internal track exists, otherwise the
// lowest edit rate among the external tracks.
func (fr *FileReader) ClipEditRate() rational.Rational { return fr.clipEditRate }

// Duration returns the clip's duration in clip edit-rate units, or -1 if
// unknown (spec §4.2 "Clip duration").
func (fr *FileReader) Duration() int64 { return fr.duration }

// IsComplete reports whether the Preface declared its header metadata
// set complete. An incomplete set (common for a file still being
// captured) means Duration and track counts may grow in a later
// partition this FileReader hasn't seen.
func (fr *FileReader) IsComplete() bool { return fr.complete }

// Position returns the clip's current read position, in clip edit-rate
// units.
func (fr *FileReader) Position() int64 { return fr.position }

// Tracks returns the clip's track set, in the stable order established
// during Open (by kind, then MaterialTrackNumber, then MaterialTrackID,
// with 0 sorting last on the two numbers).
func (fr *FileReader) Tracks() []*TrackReader { return fr.tracks }

// TextObjects returns the decoded static-track TextBasedDMFrameworks
// found while processing metadata, per spec §4.2 "Text objects".
func (fr *FileReader) TextObjects() []*metadata.TextObject {
	out := make([]*metadata.TextObject, 0, len(fr.textObjects))
	for _, id := range fr.textObjects {
		if t := fr.arena.TextObject(id); t != nil {
			out = append(out, t)
		}
	}
	return out
}

// TrackByMaterialTrackID returns the TrackReader for materialTrackID, or
// nil if no such track exists.
func (fr *FileReader) TrackByMaterialTrackID(materialTrackID uint32) *TrackReader {
	for _, tr := range fr.tracks {
		if tr.Info.MaterialTrackID == materialTrackID {
			return tr
		}
	}
	return nil
}

// Seek repositions the clip to p, clamped to [0, Duration()] when the
// duration is known, per spec §4.2 "GetPosition/Seek": Seek never fails
// on an out-of-range position, it clamps instead, matching the original
// reader's tolerant behavior for scrub/preview callers.
func (fr *FileReader) Seek(p int64) error {
	if p < 0 {
		p = 0
	}
	if fr.duration >= 0 && p > fr.duration {
		p = fr.duration
	}
	fr.position = p
	return nil
}

// toOwnPosition converts a clip-rate position to tr's own edit rate.
func (fr *FileReader) toOwnPosition(tr *TrackReader, clipPos int64) int64 {
	if tr.Info.EditRate == fr.clipEditRate {
		return clipPos
	}
	seq := fr.sequenceFor(tr.Info.EditRate)
	if seq == nil {
		return clipPos
	}
	return seq.ConvertPosHigher(clipPos)
}

// toOwnDuration converts a clip-rate duration, starting at clipPos, to
// tr's own edit rate.
func (fr *FileReader) toOwnDuration(tr *TrackReader, clipPos, clipDur int64) int64 {
	if tr.Info.EditRate == fr.clipEditRate {
		return clipDur
	}
	seq := fr.sequenceFor(tr.Info.EditRate)
	if seq == nil {
		return clipDur
	}
	return seq.ConvertDurationHigher(clipDur, clipPos)
}

// toClipDurationFromOwn converts a duration of ownDur units in tr's own
// edit rate, starting at ownPos (also in tr's own rate), back to the
// clip's edit rate.
func (fr *FileReader) toClipDurationFromOwn(tr *TrackReader, ownPos, ownDur int64) int64 {
	if tr.Info.EditRate == fr.clipEditRate {
		return ownDur
	}
	seq := fr.sequenceFor(tr.Info.EditRate)
	if seq == nil {
		return ownDur
	}
	return seq.ConvertDurationLower(ownDur, ownPos)
}

// ReadResult is one enabled track's contribution to a clip-level Read
// call.
type ReadResult struct {
	MaterialTrackID uint32
	Pulls           []essencereader.SamplePull
}

// SetTrackEnabled controls whether materialTrackID participates in Read,
// per spec §4.2 "enabled tracks": a disabled track is skipped entirely,
// contributing neither samples nor to max_num_read.
func (fr *FileReader) SetTrackEnabled(materialTrackID uint32, enabled bool) {
	if tr := fr.TrackByMaterialTrackID(materialTrackID); tr != nil {
		tr.Enabled = enabled
	}
}

// Read pulls up to n clip-rate edit units from every enabled track,
// starting at one shared snapshot of the clip's current position, per
// spec §4.2/§5 "Read": one pull per enabled internal track against this
// file's own EssenceReader, one per enabled track resolved directly to
// an external FileSourcePackage against that package's FileReader, and
// one recursive pull per distinct enabled external *FileReader reached
// through a nested MaterialPackage (grouped, not one per track). max_num_read
// is the largest number of clip-rate units any contributor actually
// returned, capped to n; the clip position advances by exactly that
// amount, once, only after every contributor has succeeded. isTop
// distinguishes the caller-facing call from this method's own recursive
// calls into external peers, for callers that want to tell the two apart
// (e.g. AbortRead only needs to re-seek a top-level call).
func (fr *FileReader) Read(n int, isTop bool) (int, []ReadResult, error) {
	if n <= 0 {
		return 0, nil, nil
	}
	if fr.frameInfoPending {
		// Spec §4.2 "Read" step 1: a deferred ExtractFrameInfo pass that
		// couldn't run at Open time gets one more chance here, before
		// anything else; failure is fatal to this call but leaves the
		// clip's position untouched.
		if err := fr.extractFrameInfo(); err != nil {
			return 0, nil, fmt.Errorf("mxfreader: ReadError: failed to extract information from frame(s): %w", err)
		}
	}
	pos := fr.position
	maxNumRead := 0
	clamp := func(clipUnits int64) {
		c := int(clipUnits)
		if c < 0 {
			c = 0
		}
		if c > n {
			c = n
		}
		if c > maxNumRead {
			maxNumRead = c
		}
	}

	var results []ReadResult

	// Internal tracks and tracks resolved directly to a FileSourcePackage
	// share this file's own EssenceReader (or a peer's, for the latter),
	// so each is still pulled one track at a time, but all against this
	// single position snapshot.
	for _, tr := range fr.tracks {
		if !tr.Enabled || (!tr.Internal && !tr.external.isFileSourcePackage) {
			continue
		}
		ownPos := fr.toOwnPosition(tr, pos)
		ownN := fr.toOwnDuration(tr, pos, int64(n))
		if ownN <= 0 {
			ownN = 1
		}

		var pulls []essencereader.SamplePull
		var err error
		if tr.Internal {
			pulls, err = fr.readEssence(tr.Info.FileTrackNumber, ownPos, int(ownN))
		} else {
			ext := tr.external
			pulls, err = ext.reader.readEssence(ext.fileTrackNumber, ownPos+ext.startPos, int(ownN))
		}
		if err != nil {
			return 0, nil, err
		}
		results = append(results, ReadResult{MaterialTrackID: tr.Info.MaterialTrackID, Pulls: pulls})
		clamp(fr.toClipDurationFromOwn(tr, ownPos, int64(len(pulls))))
	}

	// Tracks resolved to a nested MaterialPackage are grouped by the
	// external *FileReader backing them, so that reader gets exactly one
	// recursive Read covering every one of this clip's tracks it backs.
	var peerOrder []*FileReader
	peerTracks := make(map[*FileReader][]*TrackReader)
	for _, tr := range fr.tracks {
		if !tr.Enabled || tr.Internal || tr.external.isFileSourcePackage {
			continue
		}
		peer := tr.external.reader
		if _, seen := peerTracks[peer]; !seen {
			peerOrder = append(peerOrder, peer)
		}
		peerTracks[peer] = append(peerTracks[peer], tr)
	}

	for _, peer := range peerOrder {
		trs := peerTracks[peer]
		rep := trs[0]
		peerPos := fr.toOwnPosition(rep, pos) + rep.external.startPos
		peerN := fr.toOwnDuration(rep, pos, int64(n))
		if peerN <= 0 {
			peerN = 1
		}
		if err := peer.Seek(peerPos); err != nil {
			return 0, nil, err
		}
		_, peerResults, err := peer.Read(int(peerN), false)
		if err != nil {
			return 0, nil, err
		}
		for _, tr := range trs {
			var pulls []essencereader.SamplePull
			for _, pr := range peerResults {
				if pr.MaterialTrackID == tr.external.materialTrackID {
					pulls = pr.Pulls
					break
				}
			}
			results = append(results, ReadResult{MaterialTrackID: tr.Info.MaterialTrackID, Pulls: pulls})
			clamp(fr.toClipDurationFromOwn(tr, fr.toOwnPosition(tr, pos), int64(len(pulls))))
		}
	}

	fr.position += int64(maxNumRead)
	return maxNumRead, results, nil
}

// ReadTrack is a convenience wrapper over Read for callers that only
// need one track's samples; it still issues a full clip-level Read (and
// so still advances the clip position by every enabled track's rules),
// returning just materialTrackID's contribution.
func (fr *FileReader) ReadTrack(materialTrackID uint32, n int) ([]essencereader.SamplePull, error) {
	if fr.TrackByMaterialTrackID(materialTrackID) == nil {
		return nil, fmt.Errorf("mxfreader: unknown material track %d", materialTrackID)
	}
	_, results, err := fr.Read(n, true)
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		if r.MaterialTrackID == materialTrackID {
			return r.Pulls, nil
		}
	}
	return nil, nil
}
