/*
 * main.go, part of goITRE.
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

//itre reweights a metadynamics or ATLAS run described by a JSON directives file,
//and writes c(t), and optionally the bias, the weights and a free energy profile.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"os"

	"github.com/rmera/itre"
	"github.com/rmera/itre/colfile"
	"github.com/rmera/itre/histo"
	"github.com/rmera/itre/store"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var verb int

//LogV prints the d arguments to stderr if v>=vref.
func LogV(v int, vref int, d ...interface{}) {
	if v >= vref {
		fmt.Fprintln(os.Stderr, d...)
	}
}

func CErr(err error, info string) {
	if err != nil {
		log.Fatal(err, " ", info)
	}
}

func main() {
	ctname := flag.String("ct", "ct.dat", "file where the c(t) table, one iteration per row, is written")
	biasname := flag.String("bias", "", "if given, the instantaneous bias is written to this file")
	matrixname := flag.String("matrix", "", "if given, the lagged bias matrix is written to this file")
	weightsname := flag.String("weights", "", "if given, the reweighting factor of each evaluation point is written to this file")
	fescol := flag.Int("fes", -1, "if >=0, a free energy profile along this CV is written to fes.dat")
	bins := flag.Int("bins", 50, "bins for the free energy profile")
	dbname := flag.String("db", "", "if given, the run is archived in this SQLite database")
	kT := flag.Float64("kT", 0, "if >0, overrides the kT in the directives")
	verbose := flag.Int("verbose", 0, "Level of verbosity, the higher, the more verbose.")
	accel := flag.Bool("accelerated", false, "use the accelerated builder even if the directives don't ask for it")
	cpus := flag.Int("cpus", -1, "goroutines for the accelerated builder. If a number <0 is given, the value from the directives, or all logical CPUs, is used")
	flag.Parse()
	verb = *verbose
	args := flag.Args()
	if len(args) < 1 {
		fmt.Printf("Use:\n  itre [FLAGS] directives.json\n")
		flag.PrintDefaults()
		os.Exit(1)
	}
	d, err := itre.DirectivesFile(args[0])
	CErr(err, "main")
	o, err := d.Options()
	CErr(err, "main")
	in, err := d.Load()
	CErr(err, "main")
	if *kT > 0 {
		o.KT = *kT
	}
	if *accel {
		o.Accelerated = true
	}
	if *cpus > 0 {
		o.Cpus = *cpus
	}
	if verb > 0 {
		o.Logger = log.New(os.Stderr, "itre: ", log.LstdFlags)
	}
	E, err := itre.New(in, o)
	CErr(err, "main")
	LogV(verb, 1, "Boundaries:", E.Boundaries().String())

	ct := E.CT()
	CErr(colfile.WriteFile(*ctname, ct, fmt.Sprintf("c(t), kT=%g stride=%d\none iteration per row", E.KT(), E.Stride())), "main")
	LogV(verb, 1, "c(t) written to", *ctname)
	last := ct.RawRowView(E.Iterations() - 1)
	if E.Iterations() > 1 {
		LogV(verb, 1, "Largest change in the last iteration:", maxDiff(last, ct.RawRowView(E.Iterations()-2)))
	}
	ib := E.InstantaneousBias()
	if *biasname != "" {
		CErr(colfile.WriteVector(*biasname, ib, "instantaneous bias"), "main")
	}
	if *matrixname != "" {
		CErr(colfile.WriteFile(*matrixname, E.BiasMatrix(), "lagged bias matrix, row j is the bias at evaluation j"), "main")
	}
	w := E.Weights(last)
	if *weightsname != "" {
		CErr(colfile.WriteVector(*weightsname, w, "reweighting factors"), "main")
	}
	var fes *histo.Data
	if *fescol >= 0 {
		fes, err = freeEnergy(E, in.Colvars, *fescol, *bins, w)
		CErr(err, "main")
	}
	if *dbname != "" {
		ctx := context.Background()
		s, err := store.Open(ctx, *dbname)
		CErr(err, "main")
		defer s.Close()
		id, err := s.Save(ctx, store.Run{
			Label:             args[0],
			Scheme:            E.Scheme().Name(),
			Builder:           E.Builder().Name(),
			KT:                E.KT(),
			Stride:            E.Stride(),
			Iterations:        E.Iterations(),
			NEvals:            E.NEvals(),
			InstantaneousBias: ib,
			CT:                last,
			FES:               fes,
		})
		CErr(err, "main")
		LogV(verb, 0, "Run archived with ID", id)
	}
}

//freeEnergy histograms the CV col at the evaluation points, with the weights w, and
//writes the profile to fes.dat.
func freeEnergy(E *itre.Engine, colvars *mat.Dense, col, bins int, w []float64) (*histo.Data, error) {
	if _, c := colvars.Dims(); col >= c {
		return nil, fmt.Errorf("CV %d requested for the free energy, but there are %d", col, c)
	}
	x := make([]float64, 0, E.NEvals())
	for _, i := range E.EvalIndices() {
		x = append(x, colvars.At(i, col))
	}
	min, max := floats.Min(x), floats.Max(x)
	if max == min {
		min, max = min-0.5, max+0.5
	}
	//the last divider is excluded, so it is moved a little beyond the largest value.
	max += (max - min) * 1e-6
	D := histo.NewData(histo.Dividers(min, max, bins), x, w)
	F := D.FreeEnergy(E.KT())
	out := mat.NewDense(bins, 2, nil)
	out.SetCol(0, D.Centers())
	out.SetCol(1, F)
	if err := colfile.WriteFile("fes.dat", out, fmt.Sprintf("CV%d free energy, kT=%g", col, E.KT())); err != nil {
		return nil, err
	}
	LogV(verb, 1, "Free energy profile written to fes.dat")
	return D, nil
}

func maxDiff(a, b []float64) float64 {
	d := make([]float64, len(a))
	floats.SubTo(d, a, b)
	return floats.Norm(d, math.Inf(1))
}
