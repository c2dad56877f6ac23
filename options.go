/*
 * options.go, part of goITRE.
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
	"runtime"

	"github.com/rmera/itre/boundary"
)

//Options contains the scalar settings of a reweighting. They are copied by New,
//so changing an Options value after that has no effect on the Engine.
type Options struct {
	KT         float64 //kT, in the energy units of the heights and wall.
	Stride     int     //steps between two evaluation points.
	Iterations int     //rows of the c(t) table, including the initial one of zeros.

	//If >0, the heights are rescaled so the first one equals StartingHeight.
	StartingHeight float64

	//Residual adds, for ATLAS runs, the kernel of the reflected last coordinate of each basin,
	//with weight ResidualWeight.
	Residual       bool
	ResidualWeight float64

	Accelerated bool //Use the compiled, concurrent, builder for the bias matrix.
	Cpus        int  //goroutines for the accelerated builder.

	//Two edges (lower, upper) per CV, or nil, in which case all CVs are non-periodic.
	Boundaries []boundary.Edge

	//Progress messages are written here. Nothing is logged if nil.
	Logger *log.Logger
}

//DefaultOptions returns kT=1, a stride of 10 steps and 20 iterations, with
//no height rescaling and the reference builder.
func DefaultOptions() Options {
	return Options{
		KT:             1.0,
		Stride:         10,
		Iterations:     20,
		ResidualWeight: 1.0,
		Cpus:           runtime.NumCPU(),
	}
}

//check returns an error for options that can never be valid, regardless of the input.
func (o *Options) check() error {
	switch {
	case !(o.KT > 0) || math.IsInf(o.KT, 1):
		return newError(ErrOption, "check", "kT must be positive and finite, got %g", o.KT)
	case o.Stride < 1:
		return newError(ErrOption, "check", "stride must be at least 1, got %d", o.Stride)
	case o.Iterations < 1:
		return newError(ErrOption, "check", "at least 1 iteration is needed, got %d", o.Iterations)
	case o.StartingHeight < 0 || math.IsNaN(o.StartingHeight):
		return newError(ErrOption, "check", "invalid starting height %g", o.StartingHeight)
	case o.Residual && !(o.ResidualWeight > 0):
		return newError(ErrOption, "check", "the residual weight must be positive, got %g", o.ResidualWeight)
	}
	return nil
}

//newLogger returns the logger used for progress messages written to w.
func newLogger(w io.Writer) *log.Logger {
	return log.New(w, "itre: ", log.LstdFlags)
}
