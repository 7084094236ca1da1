package rational

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in, want Rational
	}{
		{Rational{25000, 1000}, Rational{25, 1}},
		{Rational{30000, 1001}, Rational{30000, 1001}},
		{Rational{-48000, -1}, Rational{48000, 1}},
		{Rational{48000, -1}, Rational{-48000, 1}},
	}
	for _, c := range cases {
		got := c.in.Normalize()
		if got != c.want {
			t.Errorf("Normalize(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestSequenceIdentity(t *testing.T) {
	rate := New(25, 1)
	seq, err := NewSequence(rate, rate)
	if err != nil {
		t.Fatal(err)
	}
	want := []int64{1}
	if !reflect.DeepEqual(seq.Elements, want) {
		t.Errorf("Elements = %v, want %v", seq.Elements, want)
	}
}

func TestSequencePALAudio(t *testing.T) {
	clipRate := New(25, 1)
	audioRate := New(48000, 1)
	seq, err := NewSequence(clipRate, audioRate)
	if err != nil {
		t.Fatal(err)
	}
	want := []int64{1920}
	if !reflect.DeepEqual(seq.Elements, want) {
		t.Errorf("Elements = %v, want %v", seq.Elements, want)
	}
}

func TestSequenceNTSCAudio(t *testing.T) {
	clipRate := New(30000, 1001)
	audioRate := New(48000, 1)
	seq, err := NewSequence(clipRate, audioRate)
	if err != nil {
		t.Fatal(err)
	}
	want := []int64{1602, 1601, 1602, 1601, 1602}
	if !reflect.DeepEqual(seq.Elements, want) {
		t.Errorf("Elements = %v, want %v", seq.Elements, want)
	}
	if seq.PeriodSum != 8008 {
		t.Errorf("PeriodSum = %d, want 8008", seq.PeriodSum)
	}
}

func TestSequenceInvalidRate(t *testing.T) {
	if _, err := NewSequence(New(0, 1), New(48000, 1)); err == nil {
		t.Error("expected error for zero clip rate")
	}
	if _, err := NewSequence(New(25, 1), New(-1, 1)); err == nil {
		t.Error("expected error for negative external rate")
	}
}

func TestSequenceRoundTrip(t *testing.T) {
	clipRate := New(30000, 1001)
	audioRate := New(48000, 1)
	seq, err := NewSequence(clipRate, audioRate)
	if err != nil {
		t.Fatal(err)
	}
	for p := int64(0); p < 500; p++ {
		hi := seq.ConvertPosHigher(p)
		lo := seq.ConvertPosLower(hi)
		if lo != p {
			t.Fatalf("round trip failed at p=%d: higher=%d, back to lower=%d", p, hi, lo)
		}
	}
}

func TestConvertDurationRelative(t *testing.T) {
	clipRate := New(30000, 1001)
	audioRate := New(48000, 1)
	seq, err := NewSequence(clipRate, audioRate)
	if err != nil {
		t.Fatal(err)
	}
	// five whole frames of audio, from frame 0, is exactly one period.
	dur := seq.ConvertDurationHigher(5, 0)
	if dur != 8008 {
		t.Errorf("ConvertDurationHigher(5, 0) = %d, want 8008", dur)
	}
	// starting at frame 1 instead of frame 0 shifts which samples count,
	// but five whole frames is still exactly one period.
	dur2 := seq.ConvertDurationHigher(5, 1)
	if dur2 != 8008 {
		t.Errorf("ConvertDurationHigher(5, 1) = %d, want 8008", dur2)
	}
}

func TestConvertPosition(t *testing.T) {
	pal := New(25, 1)
	doublePal := New(50, 1)
	if got := ConvertPosition(pal, 10, doublePal, RoundAuto); got != 20 {
		t.Errorf("ConvertPosition = %d, want 20", got)
	}
	if got := ConvertPosition(doublePal, 21, pal, RoundDown); got != 10 {
		t.Errorf("ConvertPosition = %d, want 10", got)
	}
	if got := ConvertPosition(doublePal, 21, pal, RoundUp); got != 11 {
		t.Errorf("ConvertPosition = %d, want 11", got)
	}
}
