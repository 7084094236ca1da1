package track

import (
	"testing"

	"github.com/mxfclip/mxfclip/rational"
)

func TestCorrectLegacyAvidPictureDV25(t *testing.T) {
	p := &PictureExtra{FrameLayout: MixedFields, HorizontalSubsampling: 2, VerticalSubsampling: 2}
	CorrectLegacyAvidPicture(AvidResolutionDV25DVBased, p)

	if p.FrameLayout != SeparateFields {
		t.Errorf("FrameLayout = %v, want SeparateFields", p.FrameLayout)
	}
	if p.HorizontalSubsampling != 4 || p.VerticalSubsampling != 1 {
		t.Errorf("subsampling = %d/%d, want 4/1", p.HorizontalSubsampling, p.VerticalSubsampling)
	}
}

func TestCorrectLegacyAvidPictureNoOp(t *testing.T) {
	p := &PictureExtra{FrameLayout: FullFrame, HorizontalSubsampling: 2, VerticalSubsampling: 2}
	CorrectLegacyAvidPicture(0, p)
	if p.FrameLayout != FullFrame {
		t.Error("non-legacy resolution ID should not change FrameLayout")
	}
	if p.HorizontalSubsampling != 2 || p.VerticalSubsampling != 2 {
		t.Error("non-legacy resolution ID should not change subsampling")
	}
}

func TestApplyFrameHeightFactor(t *testing.T) {
	sh, dh := ApplyFrameHeightFactor(SeparateFields, 288, 288)
	if sh != 576 || dh != 576 {
		t.Errorf("got %d/%d, want 576/576", sh, dh)
	}
	sh, dh = ApplyFrameHeightFactor(FullFrame, 576, 576)
	if sh != 576 || dh != 576 {
		t.Errorf("got %d/%d, want 576/576", sh, dh)
	}
}

func TestDecodeAFD(t *testing.T) {
	afd, ratio := DecodeAFD(0x84, 0)
	if afd != 0x04 {
		t.Errorf("afd = %#x, want 0x04", afd)
	}
	if ratio != rational.New(16, 9) {
		t.Errorf("ratio = %v, want 16/9", ratio)
	}
}

func TestDecodeAFDUnknownCode(t *testing.T) {
	afd, ratio := DecodeAFD(0x01, 0)
	if afd != 0x01 {
		t.Errorf("afd = %#x, want 0x01", afd)
	}
	if ratio != rational.Zero {
		t.Errorf("unknown AFD code should imply no ratio, got %v", ratio)
	}
}
