// Package mxfreader implements FileReader (spec §4.2): the top-level
// clip coordinator that processes header metadata, builds the internal
// and external track set, and owns the clip timeline's rate-conversion
// arithmetic.
package mxfreader

import "errors"

// OpenState is the Open protocol's state machine, per spec §4.2 "Open
// protocol (states)".
type OpenState int

const (
	Uninitialized OpenState = iota
	HeaderParsed
	MetadataProcessed
	TracksBuilt
	Ready
	Incomplete
	Failed
)

func (s OpenState) String() string {
	switch s {
	case Uninitialized:
		return "Uninitialized"
	case HeaderParsed:
		return "HeaderParsed"
	case MetadataProcessed:
		return "MetadataProcessed"
	case TracksBuilt:
		return "TracksBuilt"
	case Ready:
		return "Ready"
	case Incomplete:
		return "Incomplete"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Open result sentinel errors, per spec §7 "Error handling design". Open returns
// exactly one of these (wrapped with further context via %w) on
// failure; success is a nil error with the FileReader in Ready or
// Incomplete state.
var (
	ErrOpenFail              = errors.New("mxfreader: open failed")
	ErrInvalidFile           = errors.New("mxfreader: invalid file")
	ErrNotSupported          = errors.New("mxfreader: not supported")
	ErrNoHeaderMetadata      = errors.New("mxfreader: no header metadata")
	ErrInvalidHeaderMetadata = errors.New("mxfreader: invalid header metadata")
	ErrNoEssence             = errors.New("mxfreader: no essence")
	ErrNoIndexTable          = errors.New("mxfreader: no index table")
	ErrIncompleteIndexTable  = errors.New("mxfreader: incomplete index table")
	ErrGeneralFail           = errors.New("mxfreader: general failure")
)
