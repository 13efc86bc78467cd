package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// KolmogorovSmirnovUniform returns the two-sided one-sample statistic D of
// sample against the continuous uniform distribution on [0,1].
func KolmogorovSmirnovUniform(sample []float64) float64 {
	xs := append([]float64(nil), sample...)
	sort.Float64s(xs)
	n := float64(len(xs))

	d := 0.0
	for i, x := range xs {
		f := math.Max(0, math.Min(1, x))
		d = math.Max(d, float64(i+1)/n-f)
		d = math.Max(d, f-float64(i)/n)
	}
	return d
}

// kolmogorovCDF is P(D_n < d) for the two-sided statistic, computed exactly
// with the Durbin matrix method of Marsaglia, Tsang and Wang (2003).
func kolmogorovCDF(n int, d float64) float64 {
	if d <= 0 {
		return 0
	}
	if d >= 1 {
		return 1
	}

	nf := float64(n)
	if s := d * d * nf; s > 7.24 || (s > 3.76 && n > 99) {
		return 1 - 2*math.Exp(-(2.000071+0.331/math.Sqrt(nf)+1.409/nf)*s)
	}

	nd := nf * d
	k := int(nd) + 1
	m := 2*k - 1
	h := float64(k) - nd

	H := mat.NewDense(m, m, nil)
	for i := 0; i < m; i++ {
		for j := 0; j < m; j++ {
			if i-j+1 >= 0 {
				H.Set(i, j, 1)
			}
		}
	}
	for i := 0; i < m; i++ {
		H.Set(i, 0, H.At(i, 0)-math.Pow(h, float64(i+1)))
		H.Set(m-1, i, H.At(m-1, i)-math.Pow(h, float64(m-i)))
	}
	if 2*h-1 > 0 {
		H.Set(m-1, 0, H.At(m-1, 0)+math.Pow(2*h-1, float64(m)))
	}
	for i := 0; i < m; i++ {
		for j := 0; j < m; j++ {
			if i-j+1 > 0 {
				v := H.At(i, j)
				for g := 1; g <= i-j+1; g++ {
					v /= float64(g)
				}
				H.Set(i, j, v)
			}
		}
	}

	Q, exp := durbinPower(H, n, k)
	s := Q.At(k-1, k-1)
	for i := 1; i <= n; i++ {
		s = s * float64(i) / nf
		if s < 1e-140 {
			s *= 1e140
			exp -= 140
		}
	}
	return s * math.Pow(10, float64(exp))
}

// durbinPower raises a to the n-th power, rescaling by 1e-140 whenever the
// tracked element grows past 1e140. The returned exponent is base 10.
func durbinPower(a *mat.Dense, n, k int) (*mat.Dense, int) {
	if n == 1 {
		return mat.DenseCopyOf(a), 0
	}
	half, exp := durbinPower(a, n/2, k)
	m, _ := a.Dims()

	b := mat.NewDense(m, m, nil)
	b.Mul(half, half)
	exp *= 2
	if n%2 == 1 {
		c := mat.NewDense(m, m, nil)
		c.Mul(a, b)
		b = c
	}
	if b.At(k-1, k-1) > 1e140 {
		b.Scale(1e-140, b)
		exp += 140
	}
	return b, exp
}

// KolmogorovSmirnovPValue is the exact two-sided p-value for statistic d on
// a sample of size n.
func KolmogorovSmirnovPValue(n int, d float64) float64 {
	p := 1 - kolmogorovCDF(n, d)
	return math.Max(0, math.Min(1, p))
}
