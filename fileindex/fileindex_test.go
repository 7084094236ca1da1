package fileindex

import (
	"testing"

	"github.com/mxfclip/mxfclip/umid"
)

func TestRegisterAndLookup(t *testing.T) {
	idx := New(nil)
	e1 := idx.RegisterFile("/abs/a.mxf", "a.mxf", "a.mxf")
	e2 := idx.RegisterFile("/abs/b.mxf", "b.mxf", "b.mxf")

	if e1.ID == e2.ID {
		t.Error("expected distinct FileIds")
	}
	if e1.Session == e2.Session {
		t.Error("expected distinct session UUIDs")
	}
	if got := idx.Lookup(e1.ID); got != e1 {
		t.Errorf("Lookup(%d) = %v, want %v", e1.ID, got, e1)
	}
	if got := idx.FindByURI("/abs/b.mxf"); got != e2 {
		t.Errorf("FindByURI = %v, want %v", got, e2)
	}
	if got := idx.FindByURI("/abs/missing.mxf"); got != nil {
		t.Errorf("FindByURI(missing) = %v, want nil", got)
	}
}

func TestMCALabelIndexDedup(t *testing.T) {
	idx := NewMCALabelIndex()
	var pkg umid.UMID
	pkg[0] = 1

	if idx.AlreadyIndexed(pkg) {
		t.Fatal("fresh index should not report already indexed")
	}

	var linkID umid.UMID
	linkID[1] = 2
	idx.Add(pkg, []*MCALabel{{MCALinkID: linkID, MCATagSymbol: "L"}})

	if !idx.AlreadyIndexed(pkg) {
		t.Error("Add should mark package as indexed")
	}
	got := idx.Resolve(linkID)
	if got == nil || got.MCATagSymbol != "L" {
		t.Errorf("Resolve(linkID) = %v, want MCATagSymbol L", got)
	}
}
