// Package metadata implements the MXF header-metadata object graph as
// an arena of nodes plus sparse indices, per spec §9 "Ownership graphs":
// the source library maintains this graph with bare pointers; this
// reimplementation uses non-owning arena indices for cross-references so
// ownership is unambiguous and cycles are detectable.
package metadata

import (
	"fmt"

	"github.com/mxfclip/mxfclip/umid"
)

// NodeID is a non-owning reference into an Arena. NilNode (-1) means "no
// reference"; the zero value refers to the Arena's first node.
type NodeID int

// NilNode is the absence of a reference.
const NilNode NodeID = -1

// Arena owns every decoded header-metadata object for one file's
// HeaderMetadata. Cross-references between objects (e.g. a Track's
// Sequence, a SourceClip's referenced package) are NodeIDs into this
// same Arena, never pointers — the object that created them is the only
// owner, and the Arena's single nodes slice destroys everything together.
type Arena struct {
	nodes []interface{}

	byUMID        map[umid.UMID]NodeID
	byPackageTrack map[packageTrackKey]NodeID
}

type packageTrackKey struct {
	pkg     umid.UMID
	trackID uint32
}

// NewArena returns an empty Arena.
func NewArena() *Arena {
	return &Arena{
		byUMID:         make(map[umid.UMID]NodeID),
		byPackageTrack: make(map[packageTrackKey]NodeID),
	}
}

// add appends obj and returns its new NodeID.
func (a *Arena) add(obj interface{}) NodeID {
	id := NodeID(len(a.nodes))
	a.nodes = append(a.nodes, obj)
	return id
}

// get returns the raw object stored at id, or nil if id is NilNode or
// out of range.
func (a *Arena) get(id NodeID) interface{} {
	if id == NilNode || int(id) < 0 || int(id) >= len(a.nodes) {
		return nil
	}
	return a.nodes[id]
}

// IndexPackageByUMID registers id as the package identified by u, so
// later lookups by UMID (the common cross-file case: a SourceClip in one
// file refers to a package UMID that may live in another file) resolve
// in O(1).
func (a *Arena) IndexPackageByUMID(u umid.UMID, id NodeID) {
	a.byUMID[u] = id
}

// PackageByUMID looks up a package previously indexed by
// IndexPackageByUMID.
func (a *Arena) PackageByUMID(u umid.UMID) (NodeID, bool) {
	id, ok := a.byUMID[u]
	return id, ok
}

// IndexTrackByID registers id as the track numbered trackID within
// package pkg, so GetTrack(pkg, trackID) lookups (spec §4.2's
// GetReferencedPackage / ResolveSourceClip) resolve in O(1).
func (a *Arena) IndexTrackByID(pkg umid.UMID, trackID uint32, id NodeID) {
	a.byPackageTrack[packageTrackKey{pkg, trackID}] = id
}

// TrackByID looks up a track previously indexed by IndexTrackByID.
func (a *Arena) TrackByID(pkg umid.UMID, trackID uint32) (NodeID, bool) {
	id, ok := a.byPackageTrack[packageTrackKey{pkg, trackID}]
	return id, ok
}

// AllPackageUMIDs returns every UMID currently indexed by
// IndexPackageByUMID, for resolver.ExtractPackages to walk when
// registering a file's packages.
func (a *Arena) AllPackageUMIDs() map[umid.UMID]NodeID {
	return a.byUMID
}

// ErrCycle is returned when a traversal revisits a node it has already
// visited, per spec §9 "Cyclic package references".
type ErrCycle struct {
	Node NodeID
}

func (e ErrCycle) Error() string {
	return fmt.Sprintf("metadata: cycle detected at node %d", e.Node)
}
