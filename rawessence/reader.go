package rawessence

import (
	"fmt"
	"io"
	"log"

	"github.com/mxfclip/mxfclip/essenceparser"
	"github.com/mxfclip/mxfclip/fileindex"
)

const (
	defaultFrameStartSize = 4096
	defaultReadBlockSize  = 4096

	// highWaterMarkBytes is the growable buffer size above which Reader
	// takes a memory snapshot before growing further, per SPEC_FULL.md
	// §4's fileindex.TakeMemorySnapshot wiring.
	highWaterMarkBytes = 16 << 20
)

// Option configures a Reader at construction using the same
// functional-option style as format/raw.NewMuxer and
// format/mkv.NewDemuxer.
type Option func(*Reader)

// WithFixedSampleSize configures the fast path for essence whose sample
// size never varies (PCM audio, etc.): ReadSamples pulls whole multiples
// of size directly instead of invoking the parser per sample.
func WithFixedSampleSize(size uint32) Option {
	return func(r *Reader) { r.fixedSampleSize = size }
}

// WithFrameStartSize sets how many bytes are pulled before the first
// ParseFrameStart call. Default 4096.
func WithFrameStartSize(size uint32) Option {
	return func(r *Reader) { r.frameStartSize = size }
}

// WithReadBlockSize sets how many additional bytes are pulled each time
// ParseFrameSize returns Unknown. Default 4096.
func WithReadBlockSize(size uint32) Option {
	return func(r *Reader) { r.readBlockSize = size }
}

// WithMaxSampleSize caps how large a single sample's data may grow
// before ParseFrameSize must resolve; exceeding it is fatal. 0 (default)
// means unlimited.
func WithMaxSampleSize(size uint32) Option {
	return func(r *Reader) { r.maxSampleSize = size }
}

// WithMaxReadLength caps the cumulative bytes ReadBytes will ever pull
// from source, per spec §4.3 "ReadBytes" — distinct from
// WithMaxSampleSize, which bounds a single sample rather than the whole
// stream. Once the cap is reached, readBytes behaves as though source
// hit EOF rather than returning an error. 0 (default) means unlimited.
func WithMaxReadLength(limit int64) Option {
	return func(r *Reader) { r.maxReadLength = limit }
}

// WithLogger sets where the high-water-mark memory diagnostic (and any
// other advisory logging) is reported. Defaults to nil (silent).
func WithLogger(logger *log.Logger) Option {
	return func(r *Reader) { r.logger = logger }
}

// Reader is RawEssenceReader: owns a growable byte buffer, an
// EssenceSource, and a pluggable essenceparser.Parser.
type Reader struct {
	source EssenceSource
	parser essenceparser.Parser

	buf    []byte
	bufLen int

	// sampleDataSize is the count of bytes at the front of buf that
	// constitute samples already recognized during the current
	// ReadSamples call.
	sampleDataSize int

	started        bool
	fixedSampleSize uint32
	frameStartSize  uint32
	readBlockSize   uint32
	maxSampleSize   uint32

	numSamples     int
	lastSampleRead bool

	totalBytesRead int64
	maxReadLength  int64
	lastErr        error

	logger *log.Logger
}

// NewReader returns a Reader pulling from source and framing samples
// with parser.
func NewReader(source EssenceSource, parser essenceparser.Parser, opts ...Option) *Reader {
	r := &Reader{
		source:         source,
		parser:         parser,
		frameStartSize: defaultFrameStartSize,
		readBlockSize:  defaultReadBlockSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// HaveError reports whether the last ReadSamples call recorded an error.
func (r *Reader) HaveError() bool { return r.lastErr != nil }

// GetStrError returns the last error's message, or "" if none.
func (r *Reader) GetStrError() string {
	if r.lastErr == nil {
		return ""
	}
	return r.lastErr.Error()
}

// LastSampleRead reports whether the most recent ReadSamples call ended
// because the source was exhausted (as opposed to filling the request).
func (r *Reader) LastSampleRead() bool { return r.lastSampleRead }

// ReadSamples implements spec §4.3's ReadSamples(n) algorithm.
func (r *Reader) ReadSamples(n int) (int, error) {
	r.shiftBuffer(r.sampleDataSize)
	r.sampleDataSize = 0
	r.numSamples = 0
	r.lastSampleRead = false
	r.lastErr = nil

	if r.fixedSampleSize > 0 {
		return r.readFixedSizeSamples(n)
	}

	for i := 0; i < n; i++ {
		ok, err := r.readAndParseSample()
		if err != nil {
			r.lastErr = err
			return r.numSamples, err
		}
		if !ok {
			break
		}
	}
	return r.numSamples, nil
}

func (r *Reader) readFixedSizeSamples(n int) (int, error) {
	want := int(r.fixedSampleSize)*n - r.bufLen
	if want > 0 {
		got, err := r.readBytes(want)
		if err != nil && err != io.EOF {
			r.lastErr = err
			return 0, err
		}
		if got < want {
			r.lastSampleRead = true
		}
	}
	whole := r.bufLen / int(r.fixedSampleSize)
	if whole > n {
		whole = n
	}
	r.sampleDataSize = whole * int(r.fixedSampleSize)
	r.numSamples = whole
	return r.numSamples, nil
}

// readAndParseSample implements spec §4.3's ReadAndParseSample.
func (r *Reader) readAndParseSample() (bool, error) {
	if !r.started {
		want := int(r.frameStartSize) - r.bufLen
		if want > 0 {
			if _, err := r.readBytes(want); err != nil && err != io.EOF {
				return false, err
			}
		}
		off := r.parser.ParseFrameStart(r.buf[:r.bufLen])
		if off == essenceparser.NullOffset {
			r.lastSampleRead = true
			return false, nil
		}
		r.shiftBuffer(int(off))
		r.started = true
	}

	r.parser.ResetParseFrameSize()

	var result essenceparser.ParsedFrameSize
	for {
		result = r.parser.ParseFrameSize(r.buf[r.sampleDataSize:r.bufLen])
		if !result.IsUnknown() {
			break
		}
		got, err := r.readBytes(int(r.readBlockSize))
		if err != nil && err != io.EOF {
			return false, err
		}
		if got == 0 {
			break // EOF mid-parse
		}
		if r.maxSampleSize > 0 && uint32(r.bufLen-r.sampleDataSize) > r.maxSampleSize {
			return false, fmt.Errorf("rawessence: sample exceeds configured max sample size (%d bytes)", r.maxSampleSize)
		}
	}

	if result.IsUnknown() {
		available := uint32(r.bufLen - r.sampleDataSize)
		if !result.CompleteSize(available) {
			r.lastSampleRead = true
			return false, nil
		}
	} else if result.IsNull() {
		r.lastSampleRead = true
		return false, nil
	}

	size := result.GetSize()
	have := uint32(r.bufLen - r.sampleDataSize)
	if have < size {
		need := int(size - have)
		got, err := r.readBytes(need)
		if err != nil && err != io.EOF {
			return false, err
		}
		if uint32(got) < uint32(need) {
			r.lastSampleRead = true
			return false, nil
		}
	}

	r.parser.ParseFrameInfo(r.buf[r.sampleDataSize:r.bufLen], result)
	r.sampleDataSize += int(size)
	r.numSamples++
	return true, nil
}

// readBytes pulls up to want bytes from the source and appends them to
// buf. Returns the number of bytes actually appended; an io.EOF error is
// returned alongside any bytes that were read before EOF.
func (r *Reader) readBytes(want int) (int, error) {
	if want <= 0 {
		return 0, nil
	}
	if r.maxReadLength > 0 {
		remaining := r.maxReadLength - r.totalBytesRead
		if remaining <= 0 {
			return 0, io.EOF
		}
		if int64(want) > remaining {
			want = int(remaining)
		}
	}
	r.growBuffer(r.bufLen + want)
	n, err := r.source.Read(r.buf[r.bufLen : r.bufLen+want])
	r.bufLen += n
	r.totalBytesRead += int64(n)
	return n, err
}

func (r *Reader) growBuffer(needed int) {
	if cap(r.buf) >= needed {
		r.buf = r.buf[:cap(r.buf)]
		return
	}
	crossedHighWaterMark := cap(r.buf) < highWaterMarkBytes && needed >= highWaterMarkBytes
	newBuf := make([]byte, needed*2)
	copy(newBuf, r.buf[:r.bufLen])
	r.buf = newBuf
	if crossedHighWaterMark {
		if _, err := fileindex.TakeMemorySnapshot(r.logger); err != nil && r.logger != nil {
			r.logger.Printf("rawessence: WARN: memory snapshot unavailable while growing essence buffer: %v", err)
		}
	}
}

func (r *Reader) shiftBuffer(offset int) {
	if offset <= 0 {
		return
	}
	copy(r.buf, r.buf[offset:r.bufLen])
	r.bufLen -= offset
	r.sampleDataSize -= offset
	if r.sampleDataSize < 0 {
		r.sampleDataSize = 0
	}
}
