package essenceparser

// Parser is the codec-specific frame-boundary detector RawEssenceReader
// drives, per spec §4.3 "EssenceParser contract". Implementations must
// be resumable: repeated ParseFrameSize calls with progressively larger
// buffers continue where the last call left off, using whatever private
// state ResetParseFrameSize discards.
type Parser interface {
	// ParseFrameStart locates the byte offset of the first recognizable
	// frame within buf. Returns NullOffset if none is found in the
	// provided window; rawessence.Reader then treats the essence as
	// exhausted and sets its last-sample-read flag.
	ParseFrameStart(buf []byte) uint32

	// ResetParseFrameSize clears any incremental parser state before a
	// fresh ParseFrameSize scan begins (one call per sample).
	ResetParseFrameSize()

	// ParseFrameSize inspects buf (from the start of the current
	// candidate frame) and reports Unknown if more bytes are needed,
	// Null if the data is not a valid frame, or a Complete result.
	ParseFrameSize(buf []byte) ParsedFrameSize

	// ParseFrameInfo optionally populates codec-dependent side-band
	// fields once size is Complete; implementations that don't need
	// this may no-op.
	ParseFrameInfo(buf []byte, size ParsedFrameSize)
}

// FixedSizeParser is a degenerate Parser for essence whose sample size
// never varies (e.g. PCM audio, uncompressed fixed-raster video): every
// frame starts at offset 0 and is exactly Size bytes.
type FixedSizeParser struct {
	Size uint32
}

func (p *FixedSizeParser) ParseFrameStart(buf []byte) uint32 { return 0 }
func (p *FixedSizeParser) ResetParseFrameSize()              {}

func (p *FixedSizeParser) ParseFrameSize(buf []byte) ParsedFrameSize {
	if uint32(len(buf)) < p.Size {
		return Unknown()
	}
	return Frame(p.Size)
}

func (p *FixedSizeParser) ParseFrameInfo(buf []byte, size ParsedFrameSize) {}
