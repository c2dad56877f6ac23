/*
 * builders.go, part of goITRE.
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

import (
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

//Reference builds the matrix with plain loops over Scheme.Overlap, in a single goroutine.
//It is slow, but it is the easiest one to check.
type Reference struct{}

func (Reference) Name() string { return "reference" }

func (Reference) Build(s Scheme, in *Input) *mat.Dense {
	if err := in.Check(); err != nil {
		panic(ErrInput)
	}
	n := in.NEvals
	stride := in.Stride
	M := mat.NewDense(n, n, nil)
	//instantaneous bias
	for i := 0; i < n; i++ {
		ref := i * stride
		var sum float64
		for k := 0; k < ref; k++ {
			sum += s.Overlap(in, ref, k) * in.Heights[k]
		}
		M.Set(i, i, sum)
	}
	//lagged bias, each element from the previous one.
	for i := 0; i < n; i++ {
		ref := i * stride
		for j := i; j < n-1; j++ {
			var sum float64
			for t := j * stride; t < (j+1)*stride; t++ {
				sum += s.Overlap(in, ref, t) * in.Heights[t]
			}
			M.Set(j+1, i, M.At(j, i)+sum)
		}
	}
	finish(M, s.Norm(in), in)
	return M
}

//Accelerated builds the matrix with the compiled form of the scheme,
//computing the columns (one per reference step) concurrently.
//Each element is still accumulated in the same order as in Reference.
type Accelerated struct {
	Cpus int //goroutines to use. If <1, all logical CPUs are used.
}

func (Accelerated) Name() string { return "accelerated" }

func (A Accelerated) Build(s Scheme, in *Input) *mat.Dense {
	if err := in.Check(); err != nil {
		panic(ErrInput)
	}
	n := in.NEvals
	stride := in.Stride
	h := in.Heights
	overlap := s.Compile(in)
	M := mat.NewDense(n, n, nil)
	raw := M.RawMatrix()
	data, rs := raw.Data, raw.Stride
	//The work per column is about (n-1)*stride kernels for every column, so
	//no special scheduling is needed.
	column := func(i int) {
		ref := i * stride
		var sum float64
		for k := 0; k < ref; k++ {
			sum += overlap(ref, k) * h[k]
		}
		data[i*rs+i] = sum
		prev := sum
		for j := i; j < n-1; j++ {
			sum = 0
			for t := j * stride; t < (j+1)*stride; t++ {
				sum += overlap(ref, t) * h[t]
			}
			prev += sum
			data[(j+1)*rs+i] = prev
		}
	}
	cpus := A.Cpus
	if cpus < 1 {
		cpus = runtime.NumCPU()
	}
	if cpus == 1 {
		for i := 0; i < n; i++ {
			column(i)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(cpus)
		for i := 0; i < n; i++ {
			g.Go(func() error {
				column(i)
				return nil
			})
		}
		g.Wait()
	}
	finish(M, s.Norm(in), in)
	return M
}
