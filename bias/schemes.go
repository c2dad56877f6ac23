/*
 * schemes.go, part of goITRE.
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

import "gonum.org/v1/gonum/mat"

//Metadynamics is the scheme for a plain (well-tempered or not) metadynamics run,
//where every hill acts on the whole CV space.
type Metadynamics struct{}

func (Metadynamics) Name() string { return "metadynamics" }

func (Metadynamics) Norm(in *Input) float64 { return 1 }

func (Metadynamics) Overlap(in *Input, ref, k int) float64 {
	return Periodic(in.Colvars.RawRowView(ref), in.Colvars.RawRowView(k), in.Sigmas.RawRowView(k), in.Lengths)
}

func (Metadynamics) Compile(in *Input) func(ref, k int) float64 {
	f := flatten(in)
	d := f.dims
	return func(ref, k int) float64 {
		return flatKernel(f.cv[ref*d:ref*d+d], f.cv[k*d:k*d+d], f.inv[k*d:k*d+d], f.lengths, f.invlengths, 0)
	}
}

//Atlas is the scheme for multi-basin (ATLAS) runs. The CVs are split in as
//many contiguous blocks of the same size as basins (columns of Input.Thetas),
//and each basin's kernel is switched by the product of the activations
//of that basin at both steps.
type Atlas struct{}

func (Atlas) Name() string { return "atlas" }

//Norm is 1+Residual, so the kernel with its reflected image keeps the height of the hill.
func (Atlas) Norm(in *Input) float64 {
	return 1 + in.Residual
}

func (Atlas) Overlap(in *Input, ref, k int) float64 {
	_, nb := in.Thetas.Dims()
	dims := in.Dims() / nb
	a := in.Colvars.RawRowView(ref)
	b := in.Colvars.RawRowView(k)
	c := in.Sigmas.RawRowView(k)
	var sum float64
	for m := 0; m < nb; m++ {
		start, end := m*dims, m*dims+dims
		var l []float64
		if in.Lengths != nil {
			l = in.Lengths[start:end]
		}
		switcher := in.Thetas.At(ref, m) * in.Thetas.At(k, m)
		var kv float64
		if in.Residual != 0 {
			kv = Residual(a[start:end], b[start:end], c[start:end], l, in.Residual)
		} else {
			kv = Periodic(a[start:end], b[start:end], c[start:end], l)
		}
		sum += kv * switcher
	}
	return sum
}

func (Atlas) Compile(in *Input) func(ref, k int) float64 {
	f := flatten(in)
	d := f.dims
	_, nb := in.Thetas.Dims()
	dims := d / nb
	th := denseCopy(in.Thetas)
	w := in.Residual
	return func(ref, k int) float64 {
		var sum float64
		a := f.cv[ref*d : ref*d+d]
		b := f.cv[k*d : k*d+d]
		inv := f.inv[k*d : k*d+d]
		tr := th[ref*nb : ref*nb+nb]
		tk := th[k*nb : k*nb+nb]
		for m := 0; m < nb; m++ {
			switcher := tr[m] * tk[m]
			if switcher == 0 {
				continue
			}
			start, end := m*dims, m*dims+dims
			var l, il []float64
			if f.lengths != nil {
				l = f.lengths[start:end]
				il = f.invlengths[start:end]
			}
			sum += flatKernel(a[start:end], b[start:end], inv[start:end], l, il, w) * switcher
		}
		return sum
	}
}

//flat holds contiguous copies of the CVs, the inverted sigmas and the
//domain lengths.
type flat struct {
	dims       int
	cv         []float64
	inv        []float64
	lengths    []float64
	invlengths []float64
}

func flatten(in *Input) *flat {
	f := &flat{dims: in.Dims()}
	f.cv = denseCopy(in.Colvars)
	f.inv = denseCopy(in.Sigmas)
	for i, v := range f.inv {
		f.inv[i] = 1 / v
	}
	if in.Lengths != nil {
		f.lengths = make([]float64, len(in.Lengths))
		f.invlengths = make([]float64, len(in.Lengths))
		for i, v := range in.Lengths {
			f.lengths[i] = v
			f.invlengths[i] = 1 / v
		}
	}
	return f
}

//denseCopy returns the elements of A in a new row-major slice.
func denseCopy(A *mat.Dense) []float64 {
	r, c := A.Dims()
	ret := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		ret = append(ret, A.RawRowView(i)...)
	}
	return ret
}
