/*
 * directives.go, part of goITRE.
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
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/rmera/itre/boundary"
	"github.com/rmera/itre/colfile"
	"gonum.org/v1/gonum/mat"
)

//Directives describes a reweighting in JSON. The data are read from column files
//(see the colfile package). Relative file names are taken from the directory of the
//directives file, if it was read with DirectivesFile.
//
//An example:
//
//	{
//	  "colvars_file": "COLVAR.zst",
//	  "sigmas_file": "SIGMAS",
//	  "heights_file": "HEIGHTS",
//	  "thetas_file": "THETA",
//	  "kT": 2.49,
//	  "stride": 20,
//	  "iterations": 30,
//	  "boundaries": [-3.141592653589793, 3.141592653589793, "bounded", "bounded"]
//	}
type Directives struct {
	ColvarsFile string `json:"colvars_file"`
	HeightsFile string `json:"heights_file"`
	SigmasFile  string `json:"sigmas_file"`
	ThetasFile  string `json:"thetas_file,omitempty"`
	WallFile    string `json:"wall_file,omitempty"`

	KT             *float64      `json:"kT,omitempty"`
	Stride         *int          `json:"stride,omitempty"`
	Iterations     *int          `json:"iterations,omitempty"`
	StartingHeight *float64      `json:"starting_height,omitempty"` //1.0 if not given
	Boundaries     []interface{} `json:"boundaries,omitempty"`
	HasResidual    bool          `json:"has_residual,omitempty"`
	ResidualWeight *float64      `json:"residual_weight,omitempty"`
	Accelerated    bool          `json:"accelerated,omitempty"`
	Cpus           int           `json:"cpus,omitempty"`

	dir string
}

//ReadDirectives decodes directives from r. Unknown keys are an error.
func ReadDirectives(r io.Reader) (*Directives, error) {
	d := new(Directives)
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(d); err != nil {
		return nil, wrapError(ErrIO, err, "ReadDirectives")
	}
	return d, nil
}

//DirectivesFile reads the directives in the file name.
func DirectivesFile(name string) (*Directives, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, wrapError(ErrIO, err, "DirectivesFile")
	}
	defer f.Close()
	d, err := ReadDirectives(f)
	if err != nil {
		return nil, err
	}
	d.dir = filepath.Dir(name)
	return d, nil
}

func (d *Directives) path(name string) string {
	if d.dir == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(d.dir, name)
}

//Options returns the options given in the directives, with the defaults
//for the ones not given. The Logger is left nil.
func (d *Directives) Options() (Options, error) {
	o := DefaultOptions()
	o.StartingHeight = 1.0
	if d.KT != nil {
		o.KT = *d.KT
	}
	if d.Stride != nil {
		o.Stride = *d.Stride
	}
	if d.Iterations != nil {
		o.Iterations = *d.Iterations
	}
	if d.StartingHeight != nil {
		o.StartingHeight = *d.StartingHeight
	}
	if d.ResidualWeight != nil {
		o.ResidualWeight = *d.ResidualWeight
	}
	o.Residual = d.HasResidual
	o.Accelerated = d.Accelerated
	if d.Cpus > 0 {
		o.Cpus = d.Cpus
	}
	if d.Boundaries != nil {
		b, err := boundary.ParseEdges(d.Boundaries)
		if err != nil {
			return o, wrapError(ErrBoundary, err, "Options")
		}
		o.Boundaries = b
	}
	return o, o.check()
}

//Load reads all the files named in the directives.
func (d *Directives) Load() (Input, error) {
	var in Input
	switch {
	case d.ColvarsFile == "":
		return in, newError(ErrMissing, "Load", "no colvars_file given")
	case d.SigmasFile == "":
		return in, newError(ErrMissing, "Load", "no sigmas_file given")
	case d.HeightsFile == "":
		return in, newError(ErrMissing, "Load", "no heights_file given")
	}
	var err error
	if in.Colvars, err = d.matrix(d.ColvarsFile); err != nil {
		return in, err
	}
	if in.Sigmas, err = d.matrix(d.SigmasFile); err != nil {
		return in, err
	}
	if in.Heights, err = colfile.ReadVector(d.path(d.HeightsFile)); err != nil {
		return in, wrapError(ErrIO, err, "Load")
	}
	if d.ThetasFile != "" {
		if in.Thetas, err = d.matrix(d.ThetasFile); err != nil {
			return in, err
		}
	}
	if d.WallFile != "" {
		if in.Wall, err = colfile.ReadVector(d.path(d.WallFile)); err != nil {
			return in, wrapError(ErrIO, err, "Load")
		}
	}
	return in, nil
}

func (d *Directives) matrix(name string) (*mat.Dense, error) {
	T, err := colfile.ReadFile(d.path(name), nil)
	if err != nil {
		return nil, wrapError(ErrIO, err, "Load")
	}
	return T.Data, nil
}

//Engine reads the files in the directives and returns an Engine built with them
//and with the options in the directives. logger can be nil.
func (d *Directives) Engine(logger io.Writer) (*Engine, error) {
	o, err := d.Options()
	if err != nil {
		return nil, err
	}
	in, err := d.Load()
	if err != nil {
		return nil, err
	}
	if logger != nil {
		o.Logger = newLogger(logger)
	}
	return New(in, o)
}
