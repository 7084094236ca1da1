// Package resolver implements PackageResolver (spec §4.1): resolving a
// SourceClip's source-package/track reference across the set of
// currently-open FileReaders, opening companion files from locators when
// the reference isn't satisfied by anything open yet.
package resolver

import (
	"log"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mxfclip/mxfclip/fileindex"
	"github.com/mxfclip/mxfclip/metadata"
	"github.com/mxfclip/mxfclip/umid"
)

// FileReaderHandle is the capability interface resolver needs from a
// FileReader, kept minimal to avoid a resolver<->mxfreader import cycle
// (spec §9 "Polymorphism over components" names PackageResolver and
// FileFactory as exactly this kind of capability interface).
type FileReaderHandle interface {
	ID() fileindex.FileId
	Arena() *metadata.Arena
	Directory() string
}

// FileFactory opens a companion file referenced by a locator and returns
// it as a FileReaderHandle, without resolver needing to know how a
// FileReader actually constructs itself.
type FileFactory interface {
	OpenFile(uri string) (FileReaderHandle, error)
}

// SourceClipRef is the subset of a metadata.StructuralComponent the
// resolver needs to resolve, per spec §4.1's SourceClip shape.
type SourceClipRef struct {
	SourcePackageID umid.UMID
	SourceTrackID   uint32
	StartPosition   int64
}

// Locator is a possibly-relative URI from a descriptor's locator list.
type Locator struct {
	URI string
}

// ResolvedPackage is the result record, per spec §3.
type ResolvedPackage struct {
	FileReader          FileReaderHandle
	Package             metadata.NodeID
	GenericTrack        metadata.NodeID
	TrackID             uint32
	IsFileSourcePackage bool
	ExternalEssence     bool
}

// Resolver is the PackageResolver: a registry of known packages across
// every FileReader it has seen, plus the machinery to open companion
// files named by locators on demand.
type Resolver struct {
	mu sync.Mutex

	factory   FileFactory
	originDir string
	logger    *log.Logger

	readers      map[fileindex.FileId]FileReaderHandle
	packageOwner map[umid.UMID]FileReaderHandle
}

// New returns a Resolver that opens companion files via factory,
// resolving relative locators against originDir (the directory of the
// file that first opened this resolver).
func New(factory FileFactory, originDir string, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.Default()
	}
	return &Resolver{
		factory:      factory,
		originDir:    originDir,
		logger:       logger,
		readers:      make(map[fileindex.FileId]FileReaderHandle),
		packageOwner: make(map[umid.UMID]FileReaderHandle),
	}
}

// ExtractPackages registers fr's material and file-source packages, per
// spec §4.1 "extract_packages(file_reader)". The first reader to
// register a given package UMID owns it in this resolver's view.
func (r *Resolver) ExtractPackages(fr FileReaderHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.readers[fr.ID()] = fr
	arena := fr.Arena()
	for u, pkgID := range arena.AllPackageUMIDs() {
		pkg := arena.Package(pkgID)
		if pkg == nil {
			continue
		}
		if pkg.Kind != metadata.MaterialPackage && pkg.Kind != metadata.FileSourcePackage {
			continue
		}
		if _, exists := r.packageOwner[u]; !exists {
			r.packageOwner[u] = fr
		}
	}
}

// ResolveSourceClip looks up clip's source package/track across every
// known FileReader first; if not found and locators are non-empty, it
// opens each locator as a companion file in turn, registers it, and
// retries. callerID is the FileReader issuing the resolution, used to
// set ExternalEssence.
func (r *Resolver) ResolveSourceClip(callerID fileindex.FileId, clip SourceClipRef, locators []Locator) []ResolvedPackage {
	if result := r.lookup(callerID, clip); result != nil {
		return []ResolvedPackage{*result}
	}

	for _, loc := range locators {
		uri := r.resolveLocatorURI(loc.URI)
		fr, err := r.factory.OpenFile(uri)
		if err != nil {
			r.logger.Printf("resolver: WARN: failed to open companion file %s: %v", uri, err)
			continue
		}
		r.ExtractPackages(fr)
		if result := r.lookup(callerID, clip); result != nil {
			return []ResolvedPackage{*result}
		}
	}

	// Unresolvable: spec §4.1 "Failure" — return an empty list, letting
	// the caller decide whether to skip the track or fail.
	return nil
}

func (r *Resolver) lookup(callerID fileindex.FileId, clip SourceClipRef) *ResolvedPackage {
	r.mu.Lock()
	owner, ok := r.packageOwner[clip.SourcePackageID]
	caller := r.readers[callerID]
	r.mu.Unlock()
	if !ok {
		return nil
	}

	arena := owner.Arena()
	pkgID, ok := arena.PackageByUMID(clip.SourcePackageID)
	if !ok {
		return nil
	}
	pkg := arena.Package(pkgID)
	if pkg == nil {
		return nil
	}

	// Spec §7 "Unsupported...Fatal for open": a top-level reference to an
	// external FileSourcePackage is only legitimate when the caller's own
	// arena also carries a local placeholder for that package (the
	// low-res-proxy pattern, where the placeholder's NetworkLocators are
	// what should be opened instead). Without one, this isn't a
	// legitimate cross-file reference; fall through so the caller's
	// locator-based resolution path runs (and ultimately fails cleanly).
	if pkg.Kind == metadata.FileSourcePackage && owner.ID() != callerID && caller != nil {
		if _, ok := caller.Arena().PackageByUMID(clip.SourcePackageID); !ok {
			return nil
		}
	}

	trackID, ok := arena.TrackByID(clip.SourcePackageID, clip.SourceTrackID)
	if !ok {
		return nil
	}

	return &ResolvedPackage{
		FileReader:          owner,
		Package:             pkgID,
		GenericTrack:        trackID,
		TrackID:             clip.SourceTrackID,
		IsFileSourcePackage: pkg.Kind == metadata.FileSourcePackage,
		ExternalEssence:     owner.ID() != callerID,
	}
}

// IsKnownExternalFileSourcePackage reports whether pkgUID is a package
// this resolver has already seen, owned by a FileReader other than
// callerID, and is itself a FileSourcePackage — the "external top-level
// FileSourcePackage" condition spec §7 treats as fatal for open unless
// the caller also carries a local placeholder for it.
func (r *Resolver) IsKnownExternalFileSourcePackage(callerID fileindex.FileId, pkgUID umid.UMID) bool {
	r.mu.Lock()
	owner, ok := r.packageOwner[pkgUID]
	r.mu.Unlock()
	if !ok || owner.ID() == callerID {
		return false
	}
	pkgID, ok := owner.Arena().PackageByUMID(pkgUID)
	if !ok {
		return false
	}
	pkg := owner.Arena().Package(pkgID)
	return pkg != nil && pkg.Kind == metadata.FileSourcePackage
}

// resolveLocatorURI resolves a possibly-relative locator URI against
// the resolver's origin directory, per spec §6 "Locators".
func (r *Resolver) resolveLocatorURI(uri string) string {
	if strings.Contains(uri, "://") || filepath.IsAbs(uri) {
		return uri
	}
	return filepath.Join(r.originDir, uri)
}
