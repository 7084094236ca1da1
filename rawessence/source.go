// Package rawessence implements RawEssenceReader (spec §4.3): turning a
// bare, unstructured essence byte stream into sized samples via a
// pluggable essenceparser.Parser, with incremental, resumable parsing
// over a growable buffer.
package rawessence

// EssenceSource is the abstract byte source RawEssenceReader pulls from,
// per spec §4.3. The original's HaveError()/GetStrError() accessor pair
// is folded into Go's usual error-return convention here — Read reports
// its own error directly — but Reader still exposes HaveError/
// GetStrError itself (tracking the last error it saw), so callers that
// want the original's "check a flag after the fact" style can.
type EssenceSource interface {
	// Read pulls up to len(dest) bytes. Returns (0, io.EOF) at end of
	// stream, matching io.Reader.
	Read(dest []byte) (int, error)

	// SeekStart rewinds the source to its beginning, used when a
	// non-seekable-aware caller needs a from-scratch rescan.
	SeekStart() error
}
