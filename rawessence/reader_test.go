package rawessence

import (
	"bytes"
	"io"
	"testing"

	"github.com/mxfclip/mxfclip/essenceparser"
)

// trackingSource wraps a byte slice, serving reads in bounded chunks
// (to exercise the incremental read-block loop) and recording the total
// number of bytes handed out, so tests can assert no byte is read twice.
type trackingSource struct {
	data      []byte
	pos       int
	chunkSize int
	totalRead int
}

func (s *trackingSource) Read(dest []byte) (int, error) {
	if s.pos >= len(s.data) {
		return 0, io.EOF
	}
	n := len(dest)
	if s.chunkSize > 0 && n > s.chunkSize {
		n = s.chunkSize
	}
	if s.pos+n > len(s.data) {
		n = len(s.data) - s.pos
	}
	copy(dest[:n], s.data[s.pos:s.pos+n])
	s.pos += n
	s.totalRead += n
	return n, nil
}

func (s *trackingSource) SeekStart() error {
	s.pos = 0
	return nil
}

// fixedFrameParser declares every frame to be exactly size bytes,
// exercising the general (non-fixed-sample) ReadAndParseSample path
// rather than the fixed-sample fast path.
type fixedFrameParser struct {
	size uint32
}

func (p *fixedFrameParser) ParseFrameStart(buf []byte) uint32 { return 0 }
func (p *fixedFrameParser) ResetParseFrameSize()              {}

func (p *fixedFrameParser) ParseFrameSize(buf []byte) essenceparser.ParsedFrameSize {
	if uint32(len(buf)) < p.size {
		return essenceparser.Unknown()
	}
	return essenceparser.Frame(p.size)
}

func (p *fixedFrameParser) ParseFrameInfo(buf []byte, size essenceparser.ParsedFrameSize) {}

func TestReadSamplesScenarioS6(t *testing.T) {
	frameSize := 2500
	data := bytes.Repeat([]byte{0xab}, frameSize*4)
	src := &trackingSource{data: data, chunkSize: 1024}

	r := NewReader(src, &fixedFrameParser{size: uint32(frameSize)}, WithReadBlockSize(1024))

	n, err := r.ReadSamples(4)
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Errorf("ReadSamples(4) = %d, want 4", n)
	}
	if src.totalRead != len(data) {
		t.Errorf("totalRead = %d, want %d (no byte read twice, all read)", src.totalRead, len(data))
	}
}

func TestReadSamplesFixedSizeFastPath(t *testing.T) {
	frameSize := 100
	data := bytes.Repeat([]byte{0x42}, frameSize*10)
	src := &trackingSource{data: data}
	r := NewReader(src, &fixedFrameParser{size: uint32(frameSize)}, WithFixedSampleSize(uint32(frameSize)))

	total := 0
	for {
		n, err := r.ReadSamples(3)
		if err != nil {
			t.Fatal(err)
		}
		total += n
		if r.LastSampleRead() {
			break
		}
		if n == 0 {
			t.Fatal("ReadSamples returned 0 without LastSampleRead")
		}
	}
	if total != 10 {
		t.Errorf("total samples = %d, want 10", total)
	}
}

func TestReadSamplesNeverExceedsRequested(t *testing.T) {
	frameSize := 10
	data := bytes.Repeat([]byte{0x01}, frameSize*20)
	src := &trackingSource{data: data, chunkSize: 7}
	r := NewReader(src, &fixedFrameParser{size: uint32(frameSize)}, WithReadBlockSize(5))

	n, err := r.ReadSamples(3)
	if err != nil {
		t.Fatal(err)
	}
	if n > 3 {
		t.Errorf("ReadSamples(3) returned %d, want <= 3", n)
	}
}

func TestReadSamplesTruncatedLastFrame(t *testing.T) {
	frameSize := 100
	// one and a half frames worth of data: the second frame is truncated.
	data := bytes.Repeat([]byte{0x09}, frameSize+frameSize/2)
	src := &trackingSource{data: data}
	r := NewReader(src, &fixedFrameParser{size: uint32(frameSize)}, WithReadBlockSize(32))

	n, err := r.ReadSamples(2)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("ReadSamples(2) over 1.5 frames worth of data = %d, want 1", n)
	}
	if !r.LastSampleRead() {
		t.Error("expected LastSampleRead after a truncated final frame")
	}
}

func TestMaxSampleSizeEnforced(t *testing.T) {
	// a parser that never completes, forcing the read-block loop to
	// keep pulling until it exceeds the configured max sample size.
	p := &neverCompleteParser{}
	data := bytes.Repeat([]byte{0x00}, 1<<20)
	src := &trackingSource{data: data, chunkSize: 64}
	r := NewReader(src, p, WithMaxSampleSize(1024), WithReadBlockSize(256))

	if _, err := r.ReadSamples(1); err == nil {
		t.Error("expected an error once the sample exceeds max sample size")
	}
}

func TestMaxReadLengthCapsCumulativeRead(t *testing.T) {
	frameSize := 100
	data := bytes.Repeat([]byte{0x42}, frameSize*10)
	src := &trackingSource{data: data}
	r := NewReader(src, &fixedFrameParser{size: uint32(frameSize)},
		WithFixedSampleSize(uint32(frameSize)), WithMaxReadLength(int64(frameSize*4)))

	total := 0
	for {
		n, err := r.ReadSamples(3)
		if err != nil {
			t.Fatal(err)
		}
		total += n
		if r.LastSampleRead() {
			break
		}
		if n == 0 {
			t.Fatal("ReadSamples returned 0 without LastSampleRead")
		}
	}
	if total != 4 {
		t.Errorf("total samples = %d, want 4 (capped by max_read_length before the source itself was exhausted)", total)
	}
	if src.totalRead > frameSize*4 {
		t.Errorf("totalRead = %d, exceeded the configured max_read_length of %d", src.totalRead, frameSize*4)
	}
}

type neverCompleteParser struct{}

func (p *neverCompleteParser) ParseFrameStart(buf []byte) uint32 { return 0 }
func (p *neverCompleteParser) ResetParseFrameSize()              {}
func (p *neverCompleteParser) ParseFrameSize(buf []byte) essenceparser.ParsedFrameSize {
	return essenceparser.Unknown()
}
func (p *neverCompleteParser) ParseFrameInfo(buf []byte, size essenceparser.ParsedFrameSize) {}
