// Package fileindex implements the process-wide FileIndex and
// MCALabelIndex registries (spec §3), plus a memory-pressure diagnostic
// used by the raw essence reader's growable buffer.
package fileindex

import (
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
)

// FileId is the numeric handle peers use to resolve external references
// through the FileIndex.
type FileId uint32

// FileEntry is a registered file's identity, per spec §3 FileIndex.
type FileEntry struct {
	ID          FileId
	AbsoluteURI string
	RelativeURI string
	Filename    string

	// Session tags this open with a per-registration UUID, mirroring
	// deepch-vdk's per-output-file uuid.New() tagging in
	// format/nvr/muxer.go, so overlapping opens of the same physical
	// path are distinguishable in logs.
	Session uuid.UUID
}

// FileIndex is a process-wide registry mapping FileId to FileEntry.
// Logically append-only during open, read-only thereafter (spec §5
// "Shared resources"); callers opening unrelated clips concurrently must
// provide their own synchronization or use distinct indices.
type FileIndex struct {
	mu      sync.Mutex
	entries map[FileId]*FileEntry
	next    FileId
	logger  *log.Logger
}

// New returns an empty FileIndex. logger may be nil to use log.Default().
func New(logger *log.Logger) *FileIndex {
	if logger == nil {
		logger = log.Default()
	}
	return &FileIndex{entries: make(map[FileId]*FileEntry), next: 1, logger: logger}
}

// RegisterFile assigns a new FileId to (absoluteURI, relativeURI,
// filename) and tags it with a fresh session UUID.
func (idx *FileIndex) RegisterFile(absoluteURI, relativeURI, filename string) *FileEntry {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	e := &FileEntry{
		ID:          idx.next,
		AbsoluteURI: absoluteURI,
		RelativeURI: relativeURI,
		Filename:    filename,
		Session:     uuid.New(),
	}
	idx.entries[e.ID] = e
	idx.next++
	idx.logger.Printf("fileindex: registered file %d (session %s): %s", e.ID, e.Session, absoluteURI)
	return e
}

// Lookup returns the entry for id, or nil if not registered.
func (idx *FileIndex) Lookup(id FileId) *FileEntry {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.entries[id]
}

// FindByURI returns the entry whose AbsoluteURI matches uri, if any —
// used by the resolver to detect a companion file that is already open
// before opening it a second time.
func (idx *FileIndex) FindByURI(uri string) *FileEntry {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, e := range idx.entries {
		if e.AbsoluteURI == uri {
			return e
		}
	}
	return nil
}

func (e *FileEntry) String() string {
	return fmt.Sprintf("FileEntry{id=%d session=%s uri=%s}", e.ID, e.Session, e.AbsoluteURI)
}
