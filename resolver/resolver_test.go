package resolver

import (
	"testing"

	"github.com/mxfclip/mxfclip/fileindex"
	"github.com/mxfclip/mxfclip/metadata"
	"github.com/mxfclip/mxfclip/umid"
)

type fakeReader struct {
	id    fileindex.FileId
	arena *metadata.Arena
	dir   string
}

func (f *fakeReader) ID() fileindex.FileId      { return f.id }
func (f *fakeReader) Arena() *metadata.Arena    { return f.arena }
func (f *fakeReader) Directory() string         { return f.dir }

func newReaderWithPackage(id fileindex.FileId, kind metadata.PackageKind, pkgUID umid.UMID, trackID uint32) *fakeReader {
	a := metadata.NewArena()
	a.AddPackage(metadata.Package{Kind: kind, UID: pkgUID})
	a.AddTrack(pkgUID, metadata.GenericTrack{TrackID: trackID})
	return &fakeReader{id: id, arena: a, dir: "/clips"}
}

type fakeFactory struct {
	byURI map[string]FileReaderHandle
	calls []string
}

func (f *fakeFactory) OpenFile(uri string) (FileReaderHandle, error) {
	f.calls = append(f.calls, uri)
	if r, ok := f.byURI[uri]; ok {
		return r, nil
	}
	return nil, errNotFoundForTest
}

var errNotFoundForTest = &fakeErr{"not found"}

type fakeErr struct{ msg string }

func (e *fakeErr) Error() string { return e.msg }

func TestResolveSourceClipAlreadyOpen(t *testing.T) {
	var pkgUID umid.UMID
	pkgUID[0] = 1
	caller := newReaderWithPackage(1, metadata.MaterialPackage, pkgUID, 1)

	var fspUID umid.UMID
	fspUID[0] = 2
	fsp := newReaderWithPackage(1, metadata.FileSourcePackage, fspUID, 7)

	// both packages live in the same (caller's) file: register a single
	// reader that owns both UMIDs.
	a := metadata.NewArena()
	a.AddPackage(metadata.Package{Kind: metadata.MaterialPackage, UID: pkgUID})
	a.AddPackage(metadata.Package{Kind: metadata.FileSourcePackage, UID: fspUID})
	a.AddTrack(fspUID, metadata.GenericTrack{TrackID: 7})
	combined := &fakeReader{id: 1, arena: a, dir: "/clips"}

	r := New(&fakeFactory{}, "/clips", nil)
	r.ExtractPackages(combined)
	_ = caller
	_ = fsp

	results := r.ResolveSourceClip(1, SourceClipRef{SourcePackageID: fspUID, SourceTrackID: 7}, nil)
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	rp := results[0]
	if !rp.IsFileSourcePackage {
		t.Error("expected IsFileSourcePackage = true")
	}
	if rp.ExternalEssence {
		t.Error("expected ExternalEssence = false for same-file resolution")
	}
}

func TestResolveSourceClipViaLocator(t *testing.T) {
	var fspUID umid.UMID
	fspUID[0] = 9
	companion := newReaderWithPackage(2, metadata.FileSourcePackage, fspUID, 3)

	factory := &fakeFactory{byURI: map[string]FileReaderHandle{
		"/clips/companion.mxf": companion,
	}}
	r := New(factory, "/clips", nil)

	results := r.ResolveSourceClip(1, SourceClipRef{SourcePackageID: fspUID, SourceTrackID: 3}, []Locator{{URI: "companion.mxf"}})
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if !results[0].ExternalEssence {
		t.Error("expected ExternalEssence = true for a resolved-via-locator companion file")
	}
	if len(factory.calls) != 1 || factory.calls[0] != "/clips/companion.mxf" {
		t.Errorf("factory calls = %v, want [/clips/companion.mxf]", factory.calls)
	}
}

func TestResolveSourceClipUnresolvable(t *testing.T) {
	r := New(&fakeFactory{}, "/clips", nil)
	var missing umid.UMID
	missing[0] = 0xff
	results := r.ResolveSourceClip(1, SourceClipRef{SourcePackageID: missing, SourceTrackID: 1}, nil)
	if results != nil {
		t.Errorf("got %v, want nil", results)
	}
}
