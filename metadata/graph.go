package metadata

import "github.com/mxfclip/mxfclip/umid"

// AddPreface stores p and returns its NodeID.
func (a *Arena) AddPreface(p Preface) NodeID { return a.add(&p) }

// Preface returns the Preface at id.
func (a *Arena) Preface(id NodeID) *Preface {
	v, _ := a.get(id).(*Preface)
	return v
}

// AddContentStorage stores cs and returns its NodeID.
func (a *Arena) AddContentStorage(cs ContentStorage) NodeID { return a.add(&cs) }

// ContentStorage returns the ContentStorage at id.
func (a *Arena) ContentStorage(id NodeID) *ContentStorage {
	v, _ := a.get(id).(*ContentStorage)
	return v
}

// AddPackage stores pkg, returns its NodeID, and indexes it by UMID.
func (a *Arena) AddPackage(pkg Package) NodeID {
	id := a.add(&pkg)
	a.IndexPackageByUMID(pkg.UID, id)
	return id
}

// Package returns the Package at id.
func (a *Arena) Package(id NodeID) *Package {
	v, _ := a.get(id).(*Package)
	return v
}

// AddTrack stores t on behalf of package pkg, returns its NodeID, and
// indexes it by (pkg, TrackID) for ResolveSourceClip lookups.
func (a *Arena) AddTrack(pkg umid.UMID, t GenericTrack) NodeID {
	id := a.add(&t)
	a.IndexTrackByID(pkg, t.TrackID, id)
	return id
}

// Track returns the GenericTrack at id.
func (a *Arena) Track(id NodeID) *GenericTrack {
	v, _ := a.get(id).(*GenericTrack)
	return v
}

// AddSequence stores s and returns its NodeID.
func (a *Arena) AddSequence(s Sequence) NodeID { return a.add(&s) }

// Sequence returns the Sequence at id.
func (a *Arena) Sequence(id NodeID) *Sequence {
	v, _ := a.get(id).(*Sequence)
	return v
}

// AddComponent stores c and returns its NodeID.
func (a *Arena) AddComponent(c StructuralComponent) NodeID { return a.add(&c) }

// Component returns the StructuralComponent at id.
func (a *Arena) Component(id NodeID) *StructuralComponent {
	v, _ := a.get(id).(*StructuralComponent)
	return v
}

// AddDescriptor stores d and returns its NodeID.
func (a *Arena) AddDescriptor(d Descriptor) NodeID { return a.add(&d) }

// Descriptor returns the Descriptor at id.
func (a *Arena) Descriptor(id NodeID) *Descriptor {
	v, _ := a.get(id).(*Descriptor)
	return v
}

// AddTextObject stores t and returns its NodeID.
func (a *Arena) AddTextObject(t TextObject) NodeID { return a.add(&t) }

// TextObject returns the TextObject at id.
func (a *Arena) TextObject(id NodeID) *TextObject {
	v, _ := a.get(id).(*TextObject)
	return v
}

// AddEssenceContainerDataEntry stores e and returns its NodeID.
func (a *Arena) AddEssenceContainerDataEntry(e EssenceContainerDataEntry) NodeID { return a.add(&e) }

// EssenceContainerDataEntry returns the entry at id.
func (a *Arena) EssenceContainerDataEntry(id NodeID) *EssenceContainerDataEntry {
	v, _ := a.get(id).(*EssenceContainerDataEntry)
	return v
}

// LeadingFillerOffset sums the durations of any leading Filler
// components in seq's Component list, per spec §4.2 "accumulated into
// lead_filler_offset". Stops at the first non-Filler component.
func (a *Arena) LeadingFillerOffset(seq *Sequence) int64 {
	var offset int64
	for _, cid := range seq.Components {
		c := a.Component(cid)
		if c == nil || c.Kind != ComponentFiller {
			break
		}
		if c.Duration < 0 {
			break
		}
		offset += c.Duration
	}
	return offset
}

// FirstNonFillerComponent returns the first component in seq that is not
// a Filler, and whether one was found. Rejecting a kind other than
// EssenceGroup/SourceClip is left to the caller.
func (a *Arena) FirstNonFillerComponent(seq *Sequence) (*StructuralComponent, bool) {
	for _, cid := range seq.Components {
		c := a.Component(cid)
		if c == nil {
			continue
		}
		if c.Kind == ComponentFiller {
			continue
		}
		return c, true
	}
	return nil, false
}
