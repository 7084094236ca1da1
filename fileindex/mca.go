package fileindex

import (
	"sync"

	"github.com/mxfclip/mxfclip/umid"
)

// MCALabel is a decoded SMPTE ST 377-4 audio-channel sub-descriptor, as
// handed back by the external descriptor decoder (spec §6 treats the
// decode itself as external; this is the shape the core consumes).
type MCALabel struct {
	MCALabelDictionaryID umid.UMID
	MCALinkID            umid.UMID
	MCATagSymbol          string
	MCATagName            string
	RFC5646SpokenLanguage string
	SoundfieldGroupLinkID umid.UMID
}

// MCALabelIndex maps label UMIDs to their sub-descriptor objects so that
// channel labels can dereference their soundfield-group parent, per spec
// §3 MCALabelIndex and §6.2.
type MCALabelIndex struct {
	mu     sync.Mutex
	labels map[umid.UMID]*MCALabel
	// indexed tracks which file-source packages have already had their
	// MCA labels indexed, avoiding duplicate work when multiple tracks
	// reference the same package — mirrors the original's
	// mMCALabelIndexedPackages dedup set.
	indexed map[umid.UMID]bool
}

// NewMCALabelIndex returns an empty index.
func NewMCALabelIndex() *MCALabelIndex {
	return &MCALabelIndex{
		labels:  make(map[umid.UMID]*MCALabel),
		indexed: make(map[umid.UMID]bool),
	}
}

// AlreadyIndexed reports whether packageID's MCA labels have already
// been added to this index.
func (idx *MCALabelIndex) AlreadyIndexed(packageID umid.UMID) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.indexed[packageID]
}

// Add registers labels as having been sourced from packageID.
func (idx *MCALabelIndex) Add(packageID umid.UMID, labels []*MCALabel) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.indexed[packageID] = true
	for _, l := range labels {
		if !l.MCALinkID.IsZero() {
			idx.labels[l.MCALinkID] = l
		}
	}
}

// Resolve dereferences a soundfield-group parent link by UMID.
func (idx *MCALabelIndex) Resolve(linkID umid.UMID) *MCALabel {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.labels[linkID]
}
