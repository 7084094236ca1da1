package mxfreader

import (
	"log"

	"github.com/mxfclip/mxfclip/byteio"
	"github.com/mxfclip/mxfclip/essencereader"
	"github.com/mxfclip/mxfclip/fileindex"
	"github.com/mxfclip/mxfclip/indextable"
	"github.com/mxfclip/mxfclip/klv"
	"github.com/mxfclip/mxfclip/metadata"
	"github.com/mxfclip/mxfclip/resolver"
)

// KLVReaderFactory binds a klv.Reader to a freshly opened byteio.Source.
// The actual KLV/partition-pack decode is an external collaborator (spec
// §1); FileReader only ever calls through the klv.Reader interface this
// factory hands back.
type KLVReaderFactory func(byteio.Source) klv.Reader

// MetadataDecoder turns the property sets a klv.Reader handed back for a
// header metadata partition into a populated metadata.Arena. Another
// out-of-scope external collaborator — UL-to-property-name resolution
// and primer handling live here, not in FileReader.
type MetadataDecoder interface {
	Decode(sets []klv.PropertySet) (arena *metadata.Arena, preface metadata.NodeID, err error)
}

// IndexTableDecoder decodes the index table segments found across a
// file's partitions into a position-addressable indextable.MultiSegment.
type IndexTableDecoder interface {
	Decode(r klv.Reader, partitions []klv.PartitionPack) (*indextable.MultiSegment, error)
}

// EssenceReaderFactory builds the internal essencereader.Reader for a
// file once its partition layout and index table are known.
type EssenceReaderFactory interface {
	NewReader(source byteio.Source, partitions []klv.PartitionPack, index *indextable.MultiSegment) (essencereader.Reader, error)
}

// Option configures a FileReader at construction using the same
// functional-option style as deepch-vdk's format/* constructors.
type Option func(*FileReader)

// WithKLVReaderFactory supplies the KLV/partition-pack decoder. Required:
// Open fails with ErrNotSupported if this is unset.
func WithKLVReaderFactory(f KLVReaderFactory) Option {
	return func(fr *FileReader) { fr.klvReaderFactory = f }
}

// WithMetadataDecoder supplies the header-metadata decoder. Required.
func WithMetadataDecoder(d MetadataDecoder) Option {
	return func(fr *FileReader) { fr.metadataDecoder = d }
}

// WithIndexTableDecoder supplies the index-table decoder. If unset, Open
// proceeds without an index table and leaves the FileReader in the
// Incomplete state for essence-reading purposes (header metadata alone
// is still usable).
func WithIndexTableDecoder(d IndexTableDecoder) Option {
	return func(fr *FileReader) { fr.indexTableDecoder = d }
}

// WithEssenceReaderFactory supplies the internal essence reader factory.
// If unset, Open still succeeds but leaves the FileReader Incomplete
// (header metadata alone is usable), and Read on internal tracks fails.
func WithEssenceReaderFactory(f EssenceReaderFactory) Option {
	return func(fr *FileReader) { fr.essenceReaderFactory = f }
}

// WithFileIndex shares a process-wide fileindex.FileIndex across several
// FileReaders, so companion opens made via the resolver register into the
// same registry rather than each FileReader keeping its own.
func WithFileIndex(idx *fileindex.FileIndex) Option {
	return func(fr *FileReader) { fr.fileIndex = idx }
}

// WithMCALabelIndex shares a process-wide fileindex.MCALabelIndex.
func WithMCALabelIndex(idx *fileindex.MCALabelIndex) Option {
	return func(fr *FileReader) { fr.mcaIndex = idx }
}

// WithResolver shares a resolver.Resolver across a family of FileReaders
// opened from the same entry point, so SourceClip references crossing
// file boundaries resolve against everything already open. If unset,
// Open constructs a private Resolver, using fr itself as the FileFactory,
// rooted at the opened file's directory.
func WithResolver(r *resolver.Resolver) Option {
	return func(fr *FileReader) { fr.resolver = r }
}

// WithLogger sets the logger used for open-time and read-time advisory
// messages. Defaults to log.Default().
func WithLogger(logger *log.Logger) Option {
	return func(fr *FileReader) { fr.logger = logger }
}

// WithIndexFileEnabled controls the partition scan strategy of spec
// §4.2 step 3: when enabled (the default) and the source is seekable,
// Open scans every partition and picks the last one carrying non-empty
// header metadata. When disabled, Open instead attempts the footer
// partition first and falls back to the header partition, without
// walking the rest of the file. A non-seekable source always uses the
// header-only path regardless of this setting.
func WithIndexFileEnabled(enabled bool) Option {
	return func(fr *FileReader) { fr.indexFileEnabled = enabled }
}

// WithFrameInfoCount configures the number of leading frames Open pulls
// through the internal EssenceReader before reporting Ready, per spec
// §4.2 step 6 "ExtractFrameInfo": side-band state some parsers populate
// (AVC-Intra sequence headers, VBI/ANC manifests, D10 AES3 validity
// flags) only becomes available after at least one frame has actually
// been decoded. 0 (default) disables the pass.
func WithFrameInfoCount(n int) Option {
	return func(fr *FileReader) { fr.frameInfoCount = n }
}
