package mxfreader

import "fmt"

// extractFrameInfo implements spec §4.2 step 6's "ExtractFrameInfo"
// pass: pull the leading frameInfoCount samples of every internal track
// so the essence reader's per-sample parser populates whatever side-band
// state it only discovers by actually decoding (AVC-Intra sequence
// headers, VBI/ANC manifests, D10 AES3 validity flags), then restore the
// essence reader to clip position 0 (fr.fileOrigin in the essence
// reader's own addressing).
//
// Per spec §9's open question on RequireFrameInfoCount truncation, a
// short read here (a track supplying fewer than frameInfoCount frames)
// is tolerated and logged at WARN with the counts obtained and required —
// only an actual read error aborts the pass.
func (fr *FileReader) extractFrameInfo() error {
	if fr.essence == nil {
		return fmt.Errorf("mxfreader: ExtractFrameInfo requires an essence reader")
	}
	defer func() { fr.frameInfoPending = false }()

	for _, tr := range fr.tracks {
		if !tr.Internal {
			continue
		}
		ownPos := fr.toOwnPosition(tr, 0)
		pulls, err := fr.readEssence(tr.Info.FileTrackNumber, ownPos, fr.frameInfoCount)
		if err != nil {
			return fmt.Errorf("mxfreader: ExtractFrameInfo: track %d: %w", tr.Info.MaterialTrackID, err)
		}
		if len(pulls) < fr.frameInfoCount {
			fr.logger.Printf("mxfreader: WARN: ExtractFrameInfo: track %d supplied %d of %d required frame(s)", tr.Info.MaterialTrackID, len(pulls), fr.frameInfoCount)
		}
	}
	return fr.essence.Seek(fr.fileOrigin)
}
