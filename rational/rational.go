// Package rational implements edit-rate arithmetic: normalized rationals,
// position/duration conversion between edit rates, and the repeating
// sample-sequence pattern used to align an external essence stream with a
// clip running at a different edit rate.
package rational

import "fmt"

// Rational is an edit rate or other ratio, always kept normalized by
// Normalize so that equality comparisons (==) are meaningful.
type Rational struct {
	Num int64
	Den int64
}

// Zero is the not-yet-set sentinel: a numerator of 0 means "unknown"
// (e.g. FileReader's clip edit rate before any track has set it).
var Zero = Rational{}

func gcd(a, b int64) int64 {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

// New returns a normalized Rational num/den.
func New(num, den int64) Rational {
	return Rational{Num: num, Den: den}.Normalize()
}

// Normalize reduces r to lowest terms with a positive denominator, e.g.
// 25000/1000 -> 25/1.
func (r Rational) Normalize() Rational {
	if r.Den == 0 {
		return r
	}
	if r.Den < 0 {
		r.Num, r.Den = -r.Num, -r.Den
	}
	g := gcd(r.Num, r.Den)
	return Rational{Num: r.Num / g, Den: r.Den / g}
}

// IsZero reports whether r is the unset sentinel.
func (r Rational) IsZero() bool {
	return r.Num == 0
}

// Float64 returns r as a float64, for ordering comparisons only (never for
// exact arithmetic).
func (r Rational) Float64() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// RoundMode controls how ConvertPosition/ConvertDuration round a
// fractional result.
type RoundMode int

const (
	RoundAuto RoundMode = iota // round to nearest, .5 rounds away from zero
	RoundUp
	RoundDown
)

// ConvertPosition converts a position expressed in edit units of `from` to
// the equivalent position in edit units of `to`, per BMX's convert_position.
func ConvertPosition(from Rational, pos int64, to Rational, mode RoundMode) int64 {
	if from == to {
		return pos
	}
	// pos_to = pos_from * (to.Num/to.Den) / (from.Num/from.Den)
	//        = pos_from * to.Num * from.Den / (to.Den * from.Num)
	num := pos * to.Num * from.Den
	den := to.Den * from.Num
	return divRound(num, den, mode)
}

// ConvertDuration is identical in arithmetic to ConvertPosition; the split
// mirrors the source library's separate entry points (durations are
// conceptually position-relative, though the formula here is rate-only).
func ConvertDuration(from Rational, dur int64, to Rational, mode RoundMode) int64 {
	return ConvertPosition(from, dur, to, mode)
}

func divRound(num, den int64, mode RoundMode) int64 {
	if den < 0 {
		num, den = -num, -den
	}
	q := num / den
	rem := num % den
	if rem == 0 {
		return q
	}
	switch mode {
	case RoundUp:
		if num > 0 {
			return q + 1
		}
		return q
	case RoundDown:
		if num < 0 {
			return q - 1
		}
		return q
	default: // RoundAuto: nearest, ties away from zero
		twiceRem := rem * 2
		if twiceRem < 0 {
			twiceRem = -twiceRem
		}
		if twiceRem >= den {
			if num > 0 {
				return q + 1
			}
			return q - 1
		}
		return q
	}
}
