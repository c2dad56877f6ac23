/*
 * kernel.go, part of goITRE.
 *
 * Copyright 2026 The goITRE authors.
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package bias

import "math"

//Gaussian returns the overlap exp(-0.5*|(a-b)/c|^2) between the points a and b,
//given the diagonal covariance c. The three slices must have the same length.
func Gaussian(a, b, c []float64) float64 {
	var d2 float64
	for i, v := range a {
		d := (v - b[i]) / c[i]
		d2 += d * d
	}
	return math.Exp(-0.5 * d2)
}

//Periodic is like Gaussian, but each component of a-b is taken with the
//minimum image convention on a domain of the corresponding length. If lengths is
//nil, it is the same as Gaussian.
func Periodic(a, b, c, lengths []float64) float64 {
	if lengths == nil {
		return Gaussian(a, b, c)
	}
	var d2 float64
	for i, v := range a {
		d := minImage(v-b[i], lengths[i]) / c[i]
		d2 += d * d
	}
	return math.Exp(-0.5 * d2)
}

//Residual returns the overlap between a and b plus w times the overlap between a and
//the reflection of b, which is b with its last coordinate sign-flipped.
//The result is not divided by 1+w. lengths can be nil.
func Residual(a, b, c, lengths []float64, w float64) float64 {
	var d1, d2 float64
	last := len(a) - 1
	for i, v := range a {
		x := v - b[i]
		y := x
		if i == last {
			y = v + b[i]
		}
		if lengths != nil {
			x = minImage(x, lengths[i])
			y = minImage(y, lengths[i])
		}
		x /= c[i]
		y /= c[i]
		d1 += x * x
		d2 += y * y
	}
	return math.Exp(-0.5*d1) + w*math.Exp(-0.5*d2)
}

//minImage subtracts from d the multiple of l closest to it.
func minImage(d, l float64) float64 {
	return d - l*math.Round(d/l)
}

//flatKernel is the kernel used by the compiled schemes. a, b and inv are
//contiguous blocks of the same length, inv contains the inverted sigmas.
//lengths and invlengths are nil for non-periodic CVs. If w is not zero,
//the reflected term is added as in Residual.
func flatKernel(a, b, inv, lengths, invlengths []float64, w float64) float64 {
	var d1, d2 float64
	last := len(a) - 1
	if w == 0 {
		for i, v := range a {
			x := v - b[i]
			if lengths != nil {
				x -= lengths[i] * math.Round(x*invlengths[i])
			}
			x *= inv[i]
			d1 += x * x
		}
		return math.Exp(-0.5 * d1)
	}
	for i, v := range a {
		x := v - b[i]
		y := x
		if i == last {
			y = v + b[i]
		}
		if lengths != nil {
			x -= lengths[i] * math.Round(x*invlengths[i])
			y -= lengths[i] * math.Round(y*invlengths[i])
		}
		x *= inv[i]
		y *= inv[i]
		d1 += x * x
		d2 += y * y
	}
	return math.Exp(-0.5*d1) + w*math.Exp(-0.5*d2)
}
