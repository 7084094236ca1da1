package essenceparser

import "testing"

func TestParsedFrameSizeStates(t *testing.T) {
	u := Unknown()
	if !u.IsUnknown() || u.IsComplete() {
		t.Error("Unknown() should be IsUnknown and not IsComplete")
	}

	n := Null()
	if !n.IsNull() {
		t.Error("Null() should be IsNull")
	}

	f := Frame(100)
	if !f.IsFrame() || !f.IsComplete() || f.GetSize() != 100 {
		t.Errorf("Frame(100): IsFrame=%v IsComplete=%v GetSize=%d", f.IsFrame(), f.IsComplete(), f.GetSize())
	}

	flds := Fields(40, 60)
	if !flds.IsFields() || !flds.IsComplete() || flds.GetSize() != 100 {
		t.Errorf("Fields(40,60): IsFields=%v IsComplete=%v GetSize=%d", flds.IsFields(), flds.IsComplete(), flds.GetSize())
	}
	if flds.GetFirstFieldSize() != 40 || flds.GetSecondFieldSize() != 60 {
		t.Errorf("field sizes = %d/%d, want 40/60", flds.GetFirstFieldSize(), flds.GetSecondFieldSize())
	}
}

func TestGetSizePanicsOnIncomplete(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("GetSize on Unknown() should panic")
		}
	}()
	Unknown().GetSize()
}

func TestCompleteSize(t *testing.T) {
	var p ParsedFrameSize
	if p.CompleteSize(0) {
		t.Error("CompleteSize(0) should fail")
	}
	if !p.CompleteSize(42) || p.GetSize() != 42 {
		t.Errorf("CompleteSize(42) = %v, GetSize=%d", true, p.GetSize())
	}
}

func TestFixedSizeParser(t *testing.T) {
	p := &FixedSizeParser{Size: 10}
	if got := p.ParseFrameSize(make([]byte, 5)); !got.IsUnknown() {
		t.Error("short buffer should be Unknown")
	}
	got := p.ParseFrameSize(make([]byte, 10))
	if !got.IsComplete() || got.GetSize() != 10 {
		t.Error("full buffer should be a complete 10-byte frame")
	}
}

func buildMJPEGFrame(dataLen int) []byte {
	buf := []byte{0xff, 0xd8} // SOI
	buf = append(buf, 0xff, 0xe0, 0x00, 0x04, 0x01, 0x02)  // APP0, length 4, 2 payload bytes
	buf = append(buf, make([]byte, dataLen)...)
	buf = append(buf, 0xff, 0xd9) // EOI
	return buf
}

func TestMJPEGParserSingleField(t *testing.T) {
	frame := buildMJPEGFrame(100)
	p := NewMJPEGParser(true)
	p.ResetParseFrameSize()

	result := p.ParseFrameSize(frame)
	if !result.IsComplete() || result.GetSize() != uint32(len(frame)) {
		t.Fatalf("ParseFrameSize over full buffer = %+v, want complete frame of size %d", result, len(frame))
	}
}

func TestMJPEGParserResumability(t *testing.T) {
	frame := buildMJPEGFrame(100)
	split := len(frame) / 2

	// one shot
	full := NewMJPEGParser(true)
	full.ResetParseFrameSize()
	wantResult := full.ParseFrameSize(frame)

	// two shots over accumulating prefixes, per spec invariant 8
	resumed := NewMJPEGParser(true)
	resumed.ResetParseFrameSize()
	firstPass := resumed.ParseFrameSize(frame[:split])
	if !firstPass.IsUnknown() {
		t.Fatalf("partial buffer should be Unknown, got %+v", firstPass)
	}
	secondPass := resumed.ParseFrameSize(frame)
	if secondPass != wantResult {
		t.Errorf("resumed parse = %+v, want %+v", secondPass, wantResult)
	}
}

func TestMJPEGParserTwoFields(t *testing.T) {
	field1 := buildMJPEGFrame(50)
	field2 := buildMJPEGFrame(60)
	stream := append(append([]byte{}, field1...), field2...)

	p := NewMJPEGParser(false)
	p.ResetParseFrameSize()
	result := p.ParseFrameSize(stream)
	if !result.IsFields() || !result.IsComplete() {
		t.Fatalf("two-field stream should yield a complete Fields result, got %+v", result)
	}
	if result.GetFirstFieldSize() != uint32(len(field1)) {
		t.Errorf("first field size = %d, want %d", result.GetFirstFieldSize(), len(field1))
	}
	if result.GetSecondFieldSize() != uint32(len(field2)) {
		t.Errorf("second field size = %d, want %d", result.GetSecondFieldSize(), len(field2))
	}
}

func TestMJPEGParserFrameStart(t *testing.T) {
	p := NewMJPEGParser(true)
	garbage := []byte{0x00, 0x01, 0x02}
	frame := buildMJPEGFrame(10)
	buf := append(append([]byte{}, garbage...), frame...)

	off := p.ParseFrameStart(buf)
	if off != uint32(len(garbage)) {
		t.Errorf("ParseFrameStart = %d, want %d", off, len(garbage))
	}

	if p.ParseFrameStart([]byte{0x01, 0x02}) != NullOffset {
		t.Error("ParseFrameStart over garbage should return NullOffset")
	}
}
