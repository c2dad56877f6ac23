/*
 * bias.go, part of goITRE.
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

/*Package bias builds the lagged bias matrix of a metadynamics-like simulation.

The matrix M has one row and one column per evaluation point. Evaluation point i
corresponds to the trajectory step i*stride. M[i,i] is the bias felt at step i*stride
from all the hills deposited before it, and, for j>i, M[j,i] is the bias that
the hills deposited before step j*stride exert on the position the system had at
step i*stride. Only the lower triangle (j>=i) is filled.

The lagged entries are obtained recursively, M[j+1,i] = M[j,i] + the bias
deposited between steps j*stride and (j+1)*stride, so each evaluation point
costs O(T) kernel evaluations instead of O(T^2/stride).

How a pair of steps is weighted is decided by a Scheme (Metadynamics or Atlas),
and how the loops are run by a Builder (Reference or Accelerated). All
combinations give the same matrix, up to floating point noise.*/
package bias

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

//Input contains read-only views of the data needed to build a bias matrix.
//Colvars and Sigmas have one row per trajectory step and one column per CV.
type Input struct {
	Colvars *mat.Dense
	Sigmas  *mat.Dense
	Heights []float64
	Wall    []float64  //nil means no restraint.
	Thetas  *mat.Dense //one column per basin. Only used by Atlas.
	Lengths []float64  //domain length for each CV. nil means no periodicity.

	Residual float64 //weight of the reflected image. 0 disables it. Only used by Atlas.
	NEvals   int
	Stride   int
}

//Steps returns the number of trajectory steps in the input.
func (in *Input) Steps() int {
	r, _ := in.Colvars.Dims()
	return r
}

//Dims returns the number of collective variables.
func (in *Input) Dims() int {
	_, c := in.Colvars.Dims()
	return c
}

//Check returns an error if the input can't be used to build a matrix.
func (in *Input) Check() error {
	if in.Colvars == nil || in.Sigmas == nil {
		return Error{"nil colvars or sigmas", []string{"Check"}, true}
	}
	T, D := in.Colvars.Dims()
	sr, sc := in.Sigmas.Dims()
	if sr != T || sc != D {
		return Error{fmt.Sprintf("colvars are %dx%d but sigmas are %dx%d", T, D, sr, sc), []string{"Check"}, true}
	}
	if len(in.Heights) != T {
		return Error{fmt.Sprintf("%d heights for %d steps", len(in.Heights), T), []string{"Check"}, true}
	}
	if in.Wall != nil && len(in.Wall) != T {
		return Error{fmt.Sprintf("%d wall values for %d steps", len(in.Wall), T), []string{"Check"}, true}
	}
	if in.Lengths != nil && len(in.Lengths) != D {
		return Error{fmt.Sprintf("%d domain lengths for %d CVs", len(in.Lengths), D), []string{"Check"}, true}
	}
	if in.Thetas != nil {
		tr, tc := in.Thetas.Dims()
		if tr != T {
			return Error{fmt.Sprintf("%d thetas for %d steps", tr, T), []string{"Check"}, true}
		}
		if tc == 0 || D%tc != 0 {
			return Error{fmt.Sprintf("%d CVs can't be split among %d basins", D, tc), []string{"Check"}, true}
		}
	}
	if in.Stride < 1 || in.NEvals < 1 {
		return Error{fmt.Sprintf("invalid stride (%d) or number of evaluations (%d)", in.Stride, in.NEvals), []string{"Check"}, true}
	}
	if (in.NEvals-1)*in.Stride >= T {
		return Error{fmt.Sprintf("%d evaluations every %d steps don't fit in %d steps", in.NEvals, in.Stride, T), []string{"Check"}, true}
	}
	return nil
}

//Scheme tells how much bias a hill deposited at one step puts on the position of
//the system at another step.
type Scheme interface {
	Name() string

	//Overlap returns the kernel overlap, not multiplied by the height, between the hill
	//deposited at step k and the position at step ref.
	Overlap(in *Input, ref, k int) float64

	//Compile returns a function that gives the same values as Overlap, but which
	//works on a flattened copy of the input prepared once.
	Compile(in *Input) func(ref, k int) float64

	//Norm is the number by which the kernel sums are divided.
	Norm(in *Input) float64
}

//Builder runs the three passes (diagonal, recursive lagged and wall) that produce
//the bias matrix.
type Builder interface {
	Name() string

	//Build returns a new NEvals x NEvals matrix. It panics if the input fails Check.
	Build(s Scheme, in *Input) *mat.Dense
}

//Direct computes the M[j,i] element of the bias matrix (j>=i) by brute
//force, summing over all the steps before j*stride.
func Direct(s Scheme, in *Input, i, j int) float64 {
	if j < i {
		return 0
	}
	ref := i * in.Stride
	var sum float64
	for k := 0; k < j*in.Stride; k++ {
		sum += s.Overlap(in, ref, k) * in.Heights[k]
	}
	if n := s.Norm(in); n != 1 {
		sum /= n
	}
	if in.Wall != nil {
		sum += in.Wall[ref]
	}
	return sum
}

//finish divides the lower triangle by norm, if needed, and adds the wall
//potential at each reference step to its column.
func finish(M *mat.Dense, norm float64, in *Input) {
	n := in.NEvals
	for i := 0; i < n; i++ {
		w := 0.0
		if in.Wall != nil {
			w = in.Wall[i*in.Stride]
		}
		for j := i; j < n; j++ {
			v := M.At(j, i)
			if norm != 1 {
				v /= norm
			}
			M.Set(j, i, v+w)
		}
	}
}

//Errors

//Error is the error type for this package.
type Error struct {
	message  string
	deco     []string
	critical bool
}

func (err Error) Error() string {
	return fmt.Sprintf("bias: %s", err.message)
}

//Decorate will add the dec string to the decoration slice of strings of the error,
//and return the resulting slice.
func (err Error) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

//Critical returns true if the error is critical, false otherwise
func (err Error) Critical() bool { return err.critical }

//PanicMsg is a message used for panics, even though it does satisfy the error interface.
//for errors use Error.
type PanicMsg string

func (v PanicMsg) Error() string { return string(v) }

const ErrInput = PanicMsg("goITRE/bias: Input not valid for building a matrix")
