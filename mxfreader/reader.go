package mxfreader

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"

	"github.com/mxfclip/mxfclip/byteio"
	"github.com/mxfclip/mxfclip/essencereader"
	"github.com/mxfclip/mxfclip/fileindex"
	"github.com/mxfclip/mxfclip/indextable"
	"github.com/mxfclip/mxfclip/klv"
	"github.com/mxfclip/mxfclip/metadata"
	"github.com/mxfclip/mxfclip/rational"
	"github.com/mxfclip/mxfclip/resolver"
	"github.com/mxfclip/mxfclip/track"
)

// TrackReader is a single track on the clip timeline: either backed by
// this file's own internal essence, or by a track on another FileReader
// reached through a SourceClip, per spec §4.2's internal/external track
// split.
type TrackReader struct {
	Info     *track.Info
	Internal bool

	// Enabled controls whether this track participates in Read, per spec
	// §4.2 "enabled tracks". Defaults to true.
	Enabled bool

	external *externalTrack
}

type externalTrack struct {
	reader   *FileReader
	startPos int64 // this track's SourceClip start_position, in the external file's edit rate

	// isFileSourcePackage selects how reads are issued against reader:
	// true means the SourceClip resolved straight to a FileSourcePackage
	// track, read via reader's own internal essencereader.Reader keyed by
	// fileTrackNumber; false means it resolved to another MaterialPackage
	// (a nested compound clip), read via reader's own clip-level Read
	// keyed by materialTrackID.
	isFileSourcePackage bool
	fileTrackNumber     uint32
	materialTrackID     uint32
}

// FileReader is the clip coordinator: spec §4.2 FileReader.
type FileReader struct {
	id  fileindex.FileId
	uri string
	dir string

	source byteio.Source

	klvReaderFactory     KLVReaderFactory
	metadataDecoder      MetadataDecoder
	indexTableDecoder    IndexTableDecoder
	essenceReaderFactory EssenceReaderFactory

	fileIndex *fileindex.FileIndex
	mcaIndex  *fileindex.MCALabelIndex
	resolver  *resolver.Resolver
	logger    *log.Logger

	state   OpenState
	openErr error

	arena              *metadata.Arena
	prefaceID          metadata.NodeID
	materialPackageID  metadata.NodeID
	operationalPattern klv.UL

	clipEditRate rational.Rational
	duration     int64 // -1 == unknown
	complete     bool

	// fileOrigin is this file's essence-level origin (spec §4.2
	// "file_origin"), unified across every internal track during
	// processMetadata and applied by readEssence as
	// TO_ESS_READER_POS(p) = p + file_origin.
	fileOrigin    int64
	fileOriginSet bool

	// indexFileEnabled selects the partition-scan strategy of spec §4.2
	// step 3, per WithIndexFileEnabled. Defaults to true.
	indexFileEnabled bool

	// frameInfoCount and frameInfoPending implement spec §4.2 step 6's
	// deferred "ExtractFrameInfo" pass: frameInfoCount is how many
	// leading frames to pull per internal track, frameInfoPending is set
	// when the pass fails at Open, so the next Read retries it, and is
	// cleared whenever the pass runs.
	frameInfoCount   int
	frameInfoPending bool

	tracks []*TrackReader

	partitions []klv.PartitionPack
	bodySID    uint32
	indexSID   uint32
	indexTable *indextable.MultiSegment
	essence    essencereader.Reader

	// headerSets caches the property sets decoded from the chosen
	// header-metadata partition during scanPartitions, per spec §4.2
	// step 3/4: decoding happens there, in lockstep with the partition
	// scan itself, rather than from a reconstructed reader afterward.
	headerSets []klv.PropertySet

	textObjects []metadata.NodeID

	position int64

	seqCache map[rational.Rational]*rational.Sequence
}

// New returns an unopened FileReader configured by opts.
func New(opts ...Option) *FileReader {
	fr := &FileReader{
		state:            Uninitialized,
		duration:         -1,
		seqCache:         make(map[rational.Rational]*rational.Sequence),
		indexFileEnabled: true,
	}
	for _, opt := range opts {
		opt(fr)
	}
	if fr.logger == nil {
		fr.logger = log.Default()
	}
	if fr.fileIndex == nil {
		fr.fileIndex = fileindex.New(fr.logger)
	}
	if fr.mcaIndex == nil {
		fr.mcaIndex = fileindex.NewMCALabelIndex()
	}
	return fr
}

// Close releases the FileReader's underlying byte source. It does not
// close any external FileReaders the resolver opened on its behalf —
// those are owned by whoever shares this FileReader's Resolver.
func (fr *FileReader) Close() error {
	if fr.source == nil {
		return nil
	}
	return fr.source.Close()
}

// ID satisfies resolver.FileReaderHandle.
func (fr *FileReader) ID() fileindex.FileId { return fr.id }

// Arena satisfies resolver.FileReaderHandle.
func (fr *FileReader) Arena() *metadata.Arena { return fr.arena }

// Directory satisfies resolver.FileReaderHandle.
func (fr *FileReader) Directory() string { return fr.dir }

// State reports the FileReader's current Open protocol state.
func (fr *FileReader) State() OpenState { return fr.state }

// OpenFile satisfies resolver.FileFactory: it opens uri as a companion
// file sharing this FileReader's collaborators, fileindex, and resolver,
// per spec §4.1 "opening companion files named by locators on demand".
func (fr *FileReader) OpenFile(uri string) (resolver.FileReaderHandle, error) {
	if existing := fr.fileIndex.FindByURI(uri); existing != nil {
		// Already registered by some other FileReader in this family;
		// the resolver tracks ownership itself, so nothing further to do
		// here other than report the failure to open a second handle for
		// the same URI is unnecessary — the resolver's ExtractPackages
		// call after a fresh OpenFile is what matters, and a fresh parse
		// is still the simplest correct behavior.
		fr.logger.Printf("mxfreader: INFO: reopening already-registered companion file %s", uri)
	}
	companion := New(
		withSharedCollaborators(fr)...,
	)
	if err := companion.Open(uri); err != nil {
		return nil, err
	}
	return companion, nil
}

// withSharedCollaborators returns the Options needed to construct a
// sibling FileReader that shares fr's injected decoders, fileindex,
// MCA index, resolver, and logger.
func withSharedCollaborators(fr *FileReader) []Option {
	return []Option{
		WithKLVReaderFactory(fr.klvReaderFactory),
		WithMetadataDecoder(fr.metadataDecoder),
		WithIndexTableDecoder(fr.indexTableDecoder),
		WithEssenceReaderFactory(fr.essenceReaderFactory),
		WithFileIndex(fr.fileIndex),
		WithMCALabelIndex(fr.mcaIndex),
		WithResolver(fr.resolver),
		WithLogger(fr.logger),
	}
}

// Open implements spec §4.2's Open protocol. On return, State() is Ready
// (essence and index table usable), Incomplete (header metadata and
// tracks are usable but essence access is restricted), or Failed, in
// which case the returned error is one of the ErrXxx sentinels wrapped
// with context.
func (fr *FileReader) Open(uri string) error {
	fr.uri = uri
	fr.dir = filepath.Dir(uri)

	if fr.klvReaderFactory == nil || fr.metadataDecoder == nil {
		return fr.fail(ErrNotSupported, fmt.Errorf("mxfreader: Open requires a KLVReaderFactory and MetadataDecoder"))
	}

	source, err := openSource(uri)
	if err != nil {
		return fr.fail(ErrInvalidFile, err)
	}
	fr.source = source

	entry := fr.fileIndex.RegisterFile(uri, uri, filepath.Base(uri))
	fr.id = entry.ID

	if fr.resolver == nil {
		fr.resolver = resolver.New(fr, fr.dir, fr.logger)
	}

	if err := fr.scanPartitions(); err != nil {
		return fr.fail(ErrInvalidFile, err)
	}
	fr.state = HeaderParsed

	sets, err := fr.readHeaderMetadataSets()
	if err != nil {
		return fr.fail(ErrNoHeaderMetadata, err)
	}
	if len(sets) == 0 {
		return fr.fail(ErrNoHeaderMetadata, fmt.Errorf("mxfreader: no header metadata partition found"))
	}

	arena, prefaceID, err := fr.metadataDecoder.Decode(sets)
	if err != nil {
		return fr.fail(ErrInvalidHeaderMetadata, err)
	}
	fr.arena = arena
	fr.prefaceID = prefaceID
	fr.resolver.ExtractPackages(fr)
	fr.state = MetadataProcessed

	if err := fr.processMetadata(); err != nil {
		if errors.Is(err, ErrNotSupported) {
			return fr.fail(ErrNotSupported, err)
		}
		return fr.fail(ErrInvalidHeaderMetadata, err)
	}
	fr.state = TracksBuilt

	incomplete := false
	if fr.indexTableDecoder != nil {
		idx, err := fr.indexTableDecoder.Decode(fr.klvReaderFactory(fr.source), fr.partitions)
		if err != nil {
			fr.logger.Printf("mxfreader: WARN: index table decode failed for %s: %v", uri, err)
			incomplete = true
		} else {
			fr.indexTable = idx
		}
	} else {
		incomplete = true
	}

	if fr.essenceReaderFactory != nil && fr.bodySID != 0 {
		essence, err := fr.essenceReaderFactory.NewReader(fr.source, fr.partitions, fr.indexTable)
		if err != nil {
			fr.logger.Printf("mxfreader: WARN: essence reader unavailable for %s: %v", uri, err)
			incomplete = true
		} else {
			fr.essence = essence
		}
	} else {
		incomplete = true
	}

	if fr.essence != nil && fr.frameInfoCount > 0 {
		// Spec §4.2 step 6: run ExtractFrameInfo now rather than leaving
		// it pending, since the essence reader is already available; a
		// failure here is advisory (the first real Read will retry it
		// and fail hard if it's still broken).
		if err := fr.extractFrameInfo(); err != nil {
			fr.logger.Printf("mxfreader: WARN: ExtractFrameInfo failed for %s, deferring to first Read: %v", uri, err)
			fr.frameInfoPending = true
		}
	}

	if incomplete {
		fr.state = Incomplete
	} else {
		fr.state = Ready
	}
	return nil
}

// fail transitions the FileReader to Failed and returns sentinel wrapped
// with cause, per spec §7 "Error handling design" (Success is simply a
// nil error from Open).
func (fr *FileReader) fail(sentinel error, cause error) error {
	fr.state = Failed
	fr.openErr = fmt.Errorf("%w: %v", sentinel, cause)
	return fr.openErr
}

// scanPartitions implements spec §4.2 step 3: "If seekable and
// index-file enabled, scan all partitions; pick the last partition that
// carries non-empty header metadata. If not enabled, attempt the footer
// partition first; fall back to the header partition." A non-seekable
// source always takes the header-only path, per the Design Notes
// "Non-seekable sources" fallback.
//
// Whichever partition is chosen, its header metadata is decoded
// immediately, in lockstep with the same klv.Reader that just read that
// partition's pack — per klv.Reader's own ReadHeaderMetadata contract
// (klv.go: "decodes the set following the current partition pack"),
// never from a reader reconstructed after the fact once the source's
// cursor has moved on. The result is cached in fr.headerSets for
// readHeaderMetadataSets to return.
func (fr *FileReader) scanPartitions() error {
	seekable := fr.source.IsSeekable()

	header, r, err := fr.readPartitionPackAt(0, seekable)
	if err != nil {
		return fmt.Errorf("mxfreader: no partition packs found: %w", err)
	}
	fr.partitions = []klv.PartitionPack{header}
	fr.operationalPattern = header.OperationalPattern
	chosen := header
	sets := fr.decodeHeaderMetadata(r)

	switch {
	case !seekable:
		// Header-only, forward-only open; nothing more to scan.

	case fr.indexFileEnabled:
		// Keep walking forward on the very same reader: it already knows
		// how to skip from one partition to the next regardless of
		// whether ReadHeaderMetadata was just called on it, so this
		// still visits every partition in the file exactly once.
		for {
			pp, err := r.ReadPartitionPack()
			if err != nil {
				break
			}
			fr.partitions = append(fr.partitions, pp)
			if pp.HasHeaderMetadata() {
				chosen = pp
				sets = fr.decodeHeaderMetadata(r)
			}
		}

	case header.FooterPartition > 0 && header.FooterPartition != header.ThisPartition:
		footer, fr2, err := fr.readPartitionPackAt(header.FooterPartition, true)
		if err != nil {
			fr.logger.Printf("mxfreader: WARN: could not read footer partition: %v", err)
			break
		}
		fr.partitions = append(fr.partitions, footer)
		if footer.HasHeaderMetadata() {
			chosen = footer
			sets = fr.decodeHeaderMetadata(fr2)
		}
	}

	if chosen.BodySID != 0 {
		fr.bodySID = chosen.BodySID
	}
	if chosen.IndexSID != 0 {
		fr.indexSID = chosen.IndexSID
	}
	fr.headerSets = sets
	return nil
}

// readPartitionPackAt seeks fr.source to offset (when seekable) and
// decodes the partition pack found there with a freshly built
// klv.Reader, returning that reader so the caller can keep using it
// (e.g. to decode the header metadata immediately following, in
// lockstep, per ReadHeaderMetadata's contract).
func (fr *FileReader) readPartitionPackAt(offset int64, seekable bool) (klv.PartitionPack, klv.Reader, error) {
	if seekable {
		if err := fr.source.Seek(offset); err != nil {
			return klv.PartitionPack{}, nil, err
		}
	}
	r := fr.klvReaderFactory(fr.source)
	pp, err := r.ReadPartitionPack()
	return pp, r, err
}

// decodeHeaderMetadata drains r's header metadata sets, assuming r has
// just read the partition pack they follow.
func (fr *FileReader) decodeHeaderMetadata(r klv.Reader) []klv.PropertySet {
	var sets []klv.PropertySet
	for {
		set, err := r.ReadHeaderMetadata()
		if err != nil {
			break
		}
		sets = append(sets, set)
	}
	return sets
}

// readHeaderMetadataSets returns the property sets scanPartitions
// decoded from the chosen header-metadata partition.
func (fr *FileReader) readHeaderMetadataSets() ([]klv.PropertySet, error) {
	return fr.headerSets, nil
}

// readEssence pulls n samples of fileTrackNumber from this FileReader's
// own internal essence reader, starting at ownPos (this file's own edit
// rate, before file_origin). Used both for this file's own internal
// tracks and, from a peer FileReader, when a SourceClip resolves
// directly to a FileSourcePackage track rather than a nested
// MaterialPackage. ownPos is translated to the essence reader's own
// addressing via TO_ESS_READER_POS(p) = p + file_origin (spec §4.2)
// before the seek.
func (fr *FileReader) readEssence(fileTrackNumber uint32, ownPos int64, n int) ([]essencereader.SamplePull, error) {
	if fr.essence == nil {
		return nil, fmt.Errorf("mxfreader: essence reader unavailable for %s (opened %s)", fr.uri, fr.state)
	}
	if err := fr.essence.Seek(ownPos + fr.fileOrigin); err != nil {
		return nil, err
	}
	return fr.essence.Read(fileTrackNumber, n)
}

func openSource(uri string) (byteio.Source, error) {
	if isHTTPURI(uri) {
		return byteio.OpenHTTP(uri, nil)
	}
	return byteio.OpenFile(uri)
}

func isHTTPURI(uri string) bool {
	return len(uri) >= 7 && (uri[:7] == "http://" || (len(uri) >= 8 && uri[:8] == "https://"))
}
