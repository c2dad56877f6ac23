/*
 * itre.go, part of goITRE.
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

package itre

import (
	"io"
	"log"
	"math"
	"sync"

	"github.com/rmera/itre/bias"
	"github.com/rmera/itre/boundary"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

//Input contains the time series of a biased run. Colvars and Sigmas have one
//row per step and one column per CV, Heights and Wall one element per step. Thetas,
//the basin activations of an ATLAS run, has one row per step and one column per
//basin. Wall and Thetas are optional.
type Input struct {
	Colvars *mat.Dense
	Sigmas  *mat.Dense
	Heights []float64
	Wall    []float64
	Thetas  *mat.Dense
}

//Engine reweights one biased trajectory. It is created, and fully validated, by New,
//and does not change afterwards, except for the bias matrix, which is built
//the first time it is needed. An Engine can be used from several goroutines.
type Engine struct {
	in         bias.Input
	bounds     *boundary.Set
	scheme     bias.Scheme
	builder    bias.Builder
	kT         float64
	iterations int
	logger     *log.Logger
	cache      *matrixCache
}

//matrixCache holds the bias matrix. It is shared by all the engines derived from the
//same New call, as the matrix doesn't depend on the temperature.
type matrixCache struct {
	once sync.Once
	m    *mat.Dense
}

//New checks the input and the options and returns an Engine ready to
//calculate c(t). The input data are copied.
func New(in Input, o Options) (*Engine, error) {
	if err := o.check(); err != nil {
		return nil, err
	}
	if in.Colvars == nil {
		return nil, newError(ErrMissing, "New", "no collective variables given")
	}
	if in.Sigmas == nil {
		return nil, newError(ErrMissing, "New", "no sigmas given")
	}
	if in.Heights == nil {
		return nil, newError(ErrMissing, "New", "no heights given")
	}
	T, D := in.Colvars.Dims()
	if sr, sc := in.Sigmas.Dims(); sr != T || sc != D {
		return nil, newError(ErrShape, "New", "colvars are %dx%d but sigmas are %dx%d", T, D, sr, sc)
	}
	if len(in.Heights) != T {
		return nil, newError(ErrShape, "New", "%d heights for %d colvars", len(in.Heights), T)
	}
	if in.Wall != nil && len(in.Wall) != T {
		return nil, newError(ErrShape, "New", "%d wall values for %d colvars", len(in.Wall), T)
	}
	if in.Thetas != nil {
		tr, tc := in.Thetas.Dims()
		if tr != T {
			return nil, newError(ErrShape, "New", "%d thetas for %d colvars", tr, T)
		}
		if tc == 0 || D%tc != 0 {
			return nil, newError(ErrShape, "New", "%d CVs can't be split among %d basins", D, tc)
		}
	} else if o.Residual {
		return nil, newError(ErrOption, "New", "the residual term is only available for ATLAS runs")
	}
	nevals := T / o.Stride
	if nevals < 1 {
		return nil, newError(ErrShape, "New", "%d steps are not enough for a stride of %d", T, o.Stride)
	}
	bounds, err := boundary.Resolve(in.Colvars, o.Boundaries)
	if err != nil {
		return nil, wrapError(ErrBoundary, err, "New")
	}

	heights := make([]float64, T)
	copy(heights, in.Heights)
	if o.StartingHeight > 0 {
		if heights[0] == 0 {
			return nil, newError(ErrOption, "New", "can't rescale heights to %g, the first height is zero", o.StartingHeight)
		}
		floats.Scale(o.StartingHeight/heights[0], heights)
	}
	wall := make([]float64, T)
	if in.Wall != nil {
		copy(wall, in.Wall)
	}
	E := &Engine{
		bounds:     bounds,
		kT:         o.KT,
		iterations: o.Iterations,
		logger:     o.Logger,
		cache:      new(matrixCache),
	}
	E.in = bias.Input{
		Colvars: mat.DenseCopyOf(in.Colvars),
		Sigmas:  mat.DenseCopyOf(in.Sigmas),
		Heights: heights,
		Wall:    wall,
		NEvals:  nevals,
		Stride:  o.Stride,
	}
	//A non-periodic CV is given a domain large enough for the wrapping to do nothing,
	//so the wrapping is only done if some CV is periodic.
	if bounds.AnyPeriodic() {
		E.in.Lengths = bounds.Lengths()
	}
	E.scheme = bias.Metadynamics{}
	if in.Thetas != nil {
		E.in.Thetas = mat.DenseCopyOf(in.Thetas)
		E.scheme = bias.Atlas{}
		if o.Residual {
			E.in.Residual = o.ResidualWeight
		}
	}
	E.builder = bias.Reference{}
	if o.Accelerated {
		E.builder = bias.Accelerated{Cpus: o.Cpus}
	}
	if E.logger == nil {
		E.logger = log.New(io.Discard, "", 0)
	}
	return E, nil
}

//WithKT returns an Engine identical to the receiver, but at the temperature kT. Both
//engines share the bias matrix, which is independent of the temperature.
func (E *Engine) WithKT(kT float64) (*Engine, error) {
	if !(kT > 0) || math.IsInf(kT, 1) {
		return nil, newError(ErrOption, "WithKT", "kT must be positive and finite, got %g", kT)
	}
	ret := *E
	ret.kT = kT
	return &ret, nil
}

//Steps returns the number of trajectory steps.
func (E *Engine) Steps() int { return E.in.Steps() }

//NEvals returns the number of evaluation points, i.e. floor(steps/stride).
func (E *Engine) NEvals() int { return E.in.NEvals }

func (E *Engine) Stride() int     { return E.in.Stride }
func (E *Engine) KT() float64     { return E.kT }
func (E *Engine) Iterations() int { return E.iterations }

//Boundaries returns the domains resolved for the CVs.
func (E *Engine) Boundaries() *boundary.Set { return E.bounds }

//Scheme returns the bias scheme used: Metadynamics if no thetas were given, Atlas otherwise.
func (E *Engine) Scheme() bias.Scheme { return E.scheme }

func (E *Engine) Builder() bias.Builder { return E.builder }

//EvalIndices returns the trajectory step of each evaluation point.
func (E *Engine) EvalIndices() []int {
	ret := make([]int, E.in.NEvals)
	for i := range ret {
		ret[i] = i * E.in.Stride
	}
	return ret
}

//matrix builds the bias matrix, the first time it is called, and returns it.
//The returned matrix must not be modified.
func (E *Engine) matrix() *mat.Dense {
	E.cache.once.Do(func() {
		E.logger.Printf("Reweighting a %s calculation, %d evaluations every %d steps, with the %s builder", E.scheme.Name(), E.in.NEvals, E.in.Stride, E.builder.Name())
		E.cache.m = E.builder.Build(E.scheme, &E.in)
		E.logger.Printf("Bias matrix calculated")
	})
	return E.cache.m
}

//BiasMatrix returns a copy of the lagged bias matrix, an NEvals x NEvals matrix where
//the element j,i, for j>=i, is the bias at time j*stride on the position the
//system had at time i*stride. Elements above the diagonal are zero.
func (E *Engine) BiasMatrix() *mat.Dense {
	return mat.DenseCopyOf(E.matrix())
}

//InstantaneousBias returns the diagonal of the bias matrix: the bias felt
//at each evaluation point.
func (E *Engine) InstantaneousBias() []float64 {
	M := E.matrix()
	ret := make([]float64, E.in.NEvals)
	for i := range ret {
		ret[i] = M.At(i, i)
	}
	return ret
}

//CT solves iteratively the self-consistent equation for c(t). It returns
//an Iterations x NEvals matrix with the result of each iteration in a row. The
//first row is zero, and the last one is the final estimate.
//The number of iterations is fixed. No test for convergence is done, so
//the caller should check that the last rows don't change anymore.
func (E *Engine) CT() *mat.Dense {
	M := E.matrix()
	n := E.in.NEvals
	kT := E.kT
	beta := 1 / kT
	ibias := E.InstantaneousBias()
	ct := mat.NewDense(E.iterations, n, nil)
	//Only the lagged elements, where the later time sees the earlier
	//position, enter.
	W := mat.NewTriDense(n, mat.Lower, nil)
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			W.SetTri(i, j, math.Exp(-beta*M.At(i, j)))
		}
	}
	vec := mat.NewVecDense(n, nil)
	res := mat.NewVecDense(n, nil)
	norm := make([]float64, n)
	for it := 1; it < E.iterations; it++ {
		prev := ct.RawRowView(it - 1)
		for i := 0; i < n; i++ {
			vec.SetVec(i, math.Exp(beta*(ibias[i]-prev[i])))
		}
		res.MulVec(W, vec)
		floats.CumSum(norm, vec.RawVector().Data)
		row := ct.RawRowView(it)
		for i := range row {
			row[i] = -kT * math.Log(res.AtVec(i)/norm[i])
		}
		E.logger.Printf("Done iteration n %d", it)
	}
	E.logger.Printf("Finished, c(t) calculated!")
	return ct
}

//Weights returns the weight exp((V(t)-c(t))/kT) that unbiases the configuration
//at each evaluation point, where V is the instantaneous bias. c is a row of the
//table returned by CT, usually the last one. It panics if c doesn't have
//NEvals elements.
func (E *Engine) Weights(c []float64) []float64 {
	if len(c) != E.in.NEvals {
		panic(ErrCTLength)
	}
	beta := 1 / E.kT
	ret := E.InstantaneousBias()
	for i, v := range ret {
		ret[i] = math.Exp(beta * (v - c[i]))
	}
	return ret
}

//PanicMsg is a message used for panics, even though it does satisfy the error interface.
//for errors use Error.
type PanicMsg string

func (v PanicMsg) Error() string { return string(v) }

const ErrCTLength = PanicMsg("goITRE: c(t) must have one element per evaluation point")
