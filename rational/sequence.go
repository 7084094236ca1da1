package rational

import "fmt"

// Sequence is the repeating integer pattern that relates a position or
// duration expressed in a "lower" edit rate (fewer, larger edit units —
// typically video) to the equivalent position/duration in a "higher" edit
// rate (more, smaller edit units — typically audio). One period of the
// sequence covers exactly PeriodSum higher-rate units and len(Elements)
// lower-rate units.
type Sequence struct {
	Elements   []int64
	PeriodSum  int64
	cumulative []int64 // len(Elements)+1, cumulative[0] == 0
}

// NewSequence computes the sample sequence relating clipRate (lower) to
// otherRate (higher). It fails if either rate is non-positive — per
// spec, computing the sequence is mandatory and open must fail if no
// integer pattern exists, which in practice means an invalid edit rate.
func NewSequence(clipRate, otherRate Rational) (*Sequence, error) {
	if clipRate.Num <= 0 || clipRate.Den <= 0 {
		return nil, fmt.Errorf("rational: invalid clip edit rate %s", clipRate)
	}
	if otherRate.Num <= 0 || otherRate.Den <= 0 {
		return nil, fmt.Errorf("rational: invalid external edit rate %s", otherRate)
	}

	// ratio = otherRate / clipRate, reduced to lowest terms S/P
	ratio := New(otherRate.Num*clipRate.Den, otherRate.Den*clipRate.Num)
	s, p := ratio.Num, ratio.Den
	if s <= 0 || p <= 0 {
		return nil, fmt.Errorf("rational: no integer sample sequence for clip rate %s and external rate %s",
			clipRate, otherRate)
	}

	cumulative := make([]int64, p+1)
	for i := int64(0); i <= p; i++ {
		cumulative[i] = roundNearestFrac(s*i, p)
	}

	elements := make([]int64, p)
	for i := int64(0); i < p; i++ {
		elements[i] = cumulative[i+1] - cumulative[i]
		if elements[i] <= 0 {
			return nil, fmt.Errorf("rational: degenerate sample sequence element at index %d for clip rate %s "+
				"and external rate %s", i, clipRate, otherRate)
		}
	}

	return &Sequence{Elements: elements, PeriodSum: s, cumulative: cumulative}, nil
}

// roundNearestFrac rounds n/d (n, d > 0) to the nearest integer, with .5
// rounding up — this is the convention that reproduces the canonical
// 48kHz-over-NTSC 1602/1601/1602/1601/1602 pattern.
func roundNearestFrac(n, d int64) int64 {
	return (2*n + d) / (2 * d)
}

func (s *Sequence) period() int64 {
	return int64(len(s.Elements))
}

// ConvertPosLower converts a position expressed in higher-rate units to
// the equivalent position in lower-rate units.
func (s *Sequence) ConvertPosLower(posHigher int64) int64 {
	p := s.period()
	periods := floorDiv(posHigher, s.PeriodSum)
	remainder := posHigher - periods*s.PeriodSum

	// find j such that cumulative[j] <= remainder < cumulative[j+1]
	j := int64(0)
	for j < p-1 && s.cumulative[j+1] <= remainder {
		j++
	}
	return periods*p + j
}

// ConvertPosHigher converts a position expressed in lower-rate units to
// the equivalent position in higher-rate units.
func (s *Sequence) ConvertPosHigher(posLower int64) int64 {
	p := s.period()
	periods := floorDiv(posLower, p)
	remIdx := posLower - periods*p
	return periods*s.PeriodSum + s.cumulative[remIdx]
}

// ConvertDurationLower converts a duration of durHigher higher-rate units,
// starting at startPosHigher (a higher-rate position), to the equivalent
// duration in lower-rate units. The result depends on the starting phase
// within the sequence, not just the duration's magnitude.
func (s *Sequence) ConvertDurationLower(durHigher, startPosHigher int64) int64 {
	return s.ConvertPosLower(startPosHigher+durHigher) - s.ConvertPosLower(startPosHigher)
}

// ConvertDurationHigher converts a duration of durLower lower-rate units,
// starting at startPosLower (a lower-rate position), to the equivalent
// duration in higher-rate units.
func (s *Sequence) ConvertDurationHigher(durLower, startPosLower int64) int64 {
	return s.ConvertPosHigher(startPosLower+durLower) - s.ConvertPosHigher(startPosLower)
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
