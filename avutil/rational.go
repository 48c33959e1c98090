//go:build !ios && !android && (amd64 || arm64)

package avutil

import "math/big"

// Rational represents a rational number (fraction) as used by FFmpeg (AVRational).
type Rational struct {
	Num int32 // Numerator
	Den int32 // Denominator
}

// NewRational creates a new Rational with the given numerator and denominator.
func NewRational(num, den int32) Rational {
	return Rational{Num: num, Den: den}
}

// Float64 converts the rational to a float64.
// Returns 0 if the denominator is 0.
func (r Rational) Float64() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

// IsValid reports whether both terms are positive.
func (r Rational) IsValid() bool {
	return r.Num > 0 && r.Den > 0
}

// TimeBaseQ is FFmpeg's internal time base (AV_TIME_BASE_Q).
var TimeBaseQ = NewRational(1, 1000000)

// RescaleQ rescales a from time base bq to time base cq, rounding to nearest
// with halfway cases away from zero, like av_rescale_q.
// av_rescale_q is not bound because purego cannot pass AVRational by value
// on every platform.
func RescaleQ(a int64, bq, cq Rational) int64 {
	if bq.Den == 0 || cq.Num == 0 {
		return 0
	}
	b := int64(bq.Num) * int64(cq.Den)
	c := int64(bq.Den) * int64(cq.Num)
	if c < 0 {
		b, c = -b, -c
	}

	// a*b can overflow int64 for microsecond timestamps of long files.
	num := new(big.Int).Mul(big.NewInt(a), big.NewInt(b))
	half := big.NewInt(c / 2)
	if num.Sign() >= 0 {
		num.Add(num, half)
	} else {
		num.Sub(num, half)
	}
	return num.Quo(num, big.NewInt(c)).Int64()
}
