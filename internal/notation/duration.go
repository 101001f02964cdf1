package notation

import (
	"fmt"
	"strconv"
)

// Duration is a length expressed as a fraction of the tune's unit note length.
type Duration struct {
	Num int
	Den int
}

// Units returns a whole number of unit lengths.
func Units(n int) Duration { return Duration{Num: n, Den: 1} }

// Frac builds a reduced duration.
func Frac(num, den int) Duration { return Duration{Num: num, Den: den}.reduce() }

func (d Duration) normalized() Duration {
	if d.Den == 0 {
		return Duration{Num: 0, Den: 1}
	}
	return d
}

func (d Duration) reduce() Duration {
	d = d.normalized()
	if d.Den < 0 {
		d.Num, d.Den = -d.Num, -d.Den
	}
	g := gcd(abs(d.Num), d.Den)
	if g > 1 {
		d.Num /= g
		d.Den /= g
	}
	return d
}

// Add returns d + o.
func (d Duration) Add(o Duration) Duration {
	d, o = d.normalized(), o.normalized()
	return Duration{Num: d.Num*o.Den + o.Num*d.Den, Den: d.Den * o.Den}.reduce()
}

// Sub returns d - o.
func (d Duration) Sub(o Duration) Duration {
	o = o.normalized()
	return d.Add(Duration{Num: -o.Num, Den: o.Den})
}

// Mul scales d by a whole number.
func (d Duration) Mul(n int) Duration {
	d = d.normalized()
	return Duration{Num: d.Num * n, Den: d.Den}.reduce()
}

// Div divides d by a whole number.
func (d Duration) Div(n int) Duration {
	d = d.normalized()
	return Duration{Num: d.Num, Den: d.Den * n}.reduce()
}

// Cmp returns -1, 0, or +1.
func (d Duration) Cmp(o Duration) int {
	d, o = d.reduce(), o.reduce()
	l := d.Num * o.Den
	r := o.Num * d.Den
	switch {
	case l < r:
		return -1
	case l > r:
		return 1
	default:
		return 0
	}
}

// Positive reports whether d is greater than zero.
func (d Duration) Positive() bool { return d.Cmp(Duration{Num: 0, Den: 1}) > 0 }

// Zero reports whether d is zero.
func (d Duration) Zero() bool { return d.normalized().Num == 0 }

// Multiple reports whether d is a whole multiple of step.
func (d Duration) Multiple(step Duration) bool {
	step = step.reduce()
	if step.Num == 0 {
		return false
	}
	d = d.normalized()
	q := Duration{Num: d.Num * step.Den, Den: d.Den * step.Num}.reduce()
	return q.Den == 1
}

// ABC renders the length suffix: "" for one unit, "2", "/2", "3/2".
func (d Duration) ABC() string {
	d = d.reduce()
	switch {
	case d.Den == 1 && d.Num == 1:
		return ""
	case d.Den == 1:
		return strconv.Itoa(d.Num)
	case d.Num == 1:
		return "/" + strconv.Itoa(d.Den)
	default:
		return strconv.Itoa(d.Num) + "/" + strconv.Itoa(d.Den)
	}
}

func (d Duration) String() string {
	d = d.reduce()
	if d.Den == 1 {
		return strconv.Itoa(d.Num)
	}
	return fmt.Sprintf("%d/%d", d.Num, d.Den)
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
