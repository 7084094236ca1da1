// Package byteio abstracts the underlying byte-addressable storage a
// FileReader reads from: a local file, an in-memory buffer for tests, or
// an http(s) range-reading source. Not every source can seek; callers
// must check IsSeekable before relying on Seek/Tell semantics.
package byteio

import (
	"errors"
	"io"
)

// ErrNotSeekable is returned by Seek on a source that reports
// IsSeekable() == false, and by Tell on a source that cannot report a
// position.
var ErrNotSeekable = errors.New("byteio: source is not seekable")

// Source is a byte-addressable input. Frame-wrapped/clip-wrapped MXF
// reading needs random access for partition/index scanning; non-seekable
// sources (e.g. a plain pipe, or an http source without range support)
// restrict the reader to a header-only, forward-only open.
type Source interface {
	io.Reader

	// Tell returns the current read offset. Returns ErrNotSeekable if
	// the source cannot report a position.
	Tell() (int64, error)

	// Seek repositions to an absolute byte offset. Returns
	// ErrNotSeekable if the source cannot seek.
	Seek(offset int64) error

	// IsSeekable reports whether Seek/Tell are usable.
	IsSeekable() bool

	// Size returns the total size in bytes, or -1 if unknown (e.g. a
	// streaming, non-seekable source with no declared length).
	Size() int64

	// Close releases any underlying resource.
	Close() error
}
