package metadata

import (
	"testing"

	"github.com/mxfclip/mxfclip/umid"
)

func TestPackageAndTrackIndexing(t *testing.T) {
	a := NewArena()

	var pkgUID umid.UMID
	pkgUID[0] = 0xaa
	pkgID := a.AddPackage(Package{Kind: MaterialPackage, UID: pkgUID})

	trackID := a.AddTrack(pkgUID, GenericTrack{TrackID: 1, TrackNumber: 1})

	gotPkgID, ok := a.PackageByUMID(pkgUID)
	if !ok || gotPkgID != pkgID {
		t.Fatalf("PackageByUMID = %d, %v, want %d, true", gotPkgID, ok, pkgID)
	}

	gotTrackID, ok := a.TrackByID(pkgUID, 1)
	if !ok || gotTrackID != trackID {
		t.Fatalf("TrackByID = %d, %v, want %d, true", gotTrackID, ok, trackID)
	}

	if _, ok := a.TrackByID(pkgUID, 2); ok {
		t.Error("TrackByID(2) should not resolve")
	}
}

func TestLeadingFillerOffset(t *testing.T) {
	a := NewArena()
	filler1 := a.AddComponent(StructuralComponent{Kind: ComponentFiller, Duration: 10})
	filler2 := a.AddComponent(StructuralComponent{Kind: ComponentFiller, Duration: 5})
	clip := a.AddComponent(StructuralComponent{Kind: ComponentSourceClip, Duration: 100})

	seq := Sequence{Components: []NodeID{filler1, filler2, clip}}
	if got := a.LeadingFillerOffset(&seq); got != 15 {
		t.Errorf("LeadingFillerOffset = %d, want 15", got)
	}

	first, ok := a.FirstNonFillerComponent(&seq)
	if !ok || first.Kind != ComponentSourceClip {
		t.Fatalf("FirstNonFillerComponent = %v, %v, want SourceClip, true", first, ok)
	}
}

func TestNilNodeLookupsReturnNil(t *testing.T) {
	a := NewArena()
	if a.Package(NilNode) != nil {
		t.Error("Package(NilNode) should be nil")
	}
	if a.Track(999) != nil {
		t.Error("Track(out of range) should be nil")
	}
}
