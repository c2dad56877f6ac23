/*
 * boundary.go, part of goITRE.
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

//Package boundary derives, for each collective variable, the domain on which
//periodic distances are measured.
//
//Each CV has two edges, a lower and an upper one. An edge can be an explicit
//value, can be taken from the data (the observed minimum or maximum), or can
//be marked as non-periodic. A non-periodic CV still gets a finite domain, 5 times
//its observed range, so that the minimum-image correction never changes a distance.
package boundary

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

//NonPeriodicFactor is the ratio between the domain given to a non-periodic CV and
//its observed range.
const NonPeriodicFactor = 5.0

//Kind tells how an edge is obtained.
type Kind int

const (
	Explicit    Kind = iota //The edge is given as a number
	FromData                //The observed minimum or maximum of the CV
	NonPeriodic             //The CV is not periodic
)

func (k Kind) String() string {
	switch k {
	case Explicit:
		return "explicit"
	case FromData:
		return "bounded"
	case NonPeriodic:
		return "unbounded"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

//Edge is one of the two limits of a CV domain.
type Edge struct {
	Kind  Kind
	Value float64 //only meaningful for Explicit edges
}

//Value returns an explicit edge at v.
func Value(v float64) Edge {
	return Edge{Kind: Explicit, Value: v}
}

var (
	Bounded   = Edge{Kind: FromData}
	Unbounded = Edge{Kind: NonPeriodic}
)

func (e Edge) String() string {
	if e.Kind == Explicit {
		return strconv.FormatFloat(e.Value, 'g', -1, 64)
	}
	return e.Kind.String()
}

//ParseEdge reads an edge from the "bounded" and "unbounded" tokens, or from a number.
func ParseEdge(s string) (Edge, error) {
	t := strings.ToLower(strings.TrimSpace(s))
	switch t {
	case "bounded":
		return Bounded, nil
	case "unbounded":
		return Unbounded, nil
	}
	v, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return Edge{}, Error{fmt.Sprintf("Can't parse boundary '%s'", s), []string{"ParseEdge"}, true}
	}
	return Value(v), nil
}

//ParseEdges takes a list where each element is either a number or a token string,
//as obtained from decoding a JSON array, and returns the corresponding edges.
func ParseEdges(raw []interface{}) ([]Edge, error) {
	ret := make([]Edge, 0, len(raw))
	for i, v := range raw {
		switch t := v.(type) {
		case float64:
			ret = append(ret, Value(t))
		case int:
			ret = append(ret, Value(float64(t)))
		case string:
			e, err := ParseEdge(t)
			if err != nil {
				return nil, errDecorate(err, fmt.Sprintf("ParseEdges: element %d", i))
			}
			ret = append(ret, e)
		default:
			return nil, Error{fmt.Sprintf("Boundary element %d has unsupported type %T", i, v), []string{"ParseEdges"}, true}
		}
	}
	return ret, nil
}

//Set contains the resolved domain for each CV dimension. It is not
//modified after Resolve returns it.
type Set struct {
	min      []float64
	max      []float64
	length   []float64
	periodic []bool
}

//Dims returns the number of CV dimensions in the set.
func (S *Set) Dims() int {
	return len(S.length)
}

func (S *Set) Min(i int) float64    { return S.min[i] }
func (S *Set) Max(i int) float64    { return S.max[i] }
func (S *Set) Length(i int) float64 { return S.length[i] }

//Periodic returns true if the ith dimension was given a periodic domain.
func (S *Set) Periodic(i int) bool { return S.periodic[i] }

//AnyPeriodic returns true if at least one dimension is periodic.
func (S *Set) AnyPeriodic() bool {
	for _, v := range S.periodic {
		if v {
			return true
		}
	}
	return false
}

//Lengths returns a copy of the domain lengths, one per dimension.
func (S *Set) Lengths() []float64 {
	ret := make([]float64, len(S.length))
	copy(ret, S.length)
	return ret
}

//Bounds returns the lower and upper limits as a 2*D slice, lower first
//for each dimension, i.e. the same layout used to specify them.
func (S *Set) Bounds() []float64 {
	ret := make([]float64, 0, 2*len(S.min))
	for i := range S.min {
		ret = append(ret, S.min[i], S.max[i])
	}
	return ret
}

func (S *Set) String() string {
	t := make([]string, 0, len(S.min))
	for i := range S.min {
		p := "np"
		if S.periodic[i] {
			p = "p"
		}
		t = append(t, fmt.Sprintf("[%g,%g](%g,%s)", S.min[i], S.max[i], S.length[i], p))
	}
	return strings.Join(t, " ")
}

//Resolve computes the domain of each column of colvars from edges, which must
//contain either nothing, in which case every dimension is non-periodic, or
//a lower and an upper edge for each column.
//A CV can't have a non-periodic edge together with a bounded or explicit one.
func Resolve(colvars mat.Matrix, edges []Edge) (*Set, error) {
	if colvars == nil {
		return nil, Error{ErrNoColvars, []string{"Resolve"}, true}
	}
	rows, dims := colvars.Dims()
	if rows == 0 || dims == 0 {
		return nil, Error{ErrNoColvars, []string{"Resolve"}, true}
	}
	if len(edges) == 0 {
		edges = make([]Edge, 2*dims)
		for i := range edges {
			edges[i] = Unbounded
		}
	}
	if len(edges) != 2*dims {
		return nil, Error{fmt.Sprintf("%d boundaries given for %d CVs, %d needed", len(edges), dims, 2*dims), []string{"Resolve"}, true}
	}
	S := &Set{
		min:      make([]float64, dims),
		max:      make([]float64, dims),
		length:   make([]float64, dims),
		periodic: make([]bool, dims),
	}
	col := make([]float64, rows)
	for i := 0; i < dims; i++ {
		lo, hi := edges[2*i], edges[2*i+1]
		if (lo.Kind == NonPeriodic) != (hi.Kind == NonPeriodic) {
			return nil, Error{fmt.Sprintf("CV %d mixes an unbounded edge (%v) with a bounded one (%v)", i, lo, hi), []string{"Resolve"}, true}
		}
		mat.Col(col, i, colvars)
		omin := floats.Min(col)
		omax := floats.Max(col)
		if lo.Kind == NonPeriodic {
			S.min[i] = omin
			S.length[i] = NonPeriodicFactor * (omax - omin)
			if S.length[i] == 0 {
				S.length[i] = NonPeriodicFactor
			}
			S.max[i] = S.min[i] + S.length[i]
			continue
		}
		S.min[i] = edgeValue(lo, omin)
		S.max[i] = edgeValue(hi, omax)
		S.length[i] = S.max[i] - S.min[i]
		if !(S.length[i] > 0) || math.IsInf(S.length[i], 0) {
			return nil, Error{fmt.Sprintf("CV %d has an invalid periodic domain [%g, %g]", i, S.min[i], S.max[i]), []string{"Resolve"}, true}
		}
		S.periodic[i] = true
	}
	return S, nil
}

func edgeValue(e Edge, observed float64) float64 {
	if e.Kind == FromData {
		return observed
	}
	return e.Value
}

//Errors

//errDecorate adds the caller's name to a boundary Error. Other errors are returned as they are.
func errDecorate(err error, caller string) error {
	err2, ok := err.(Error)
	if !ok {
		return err
	}
	err2.deco = append(err2.deco, caller)
	return err2
}

//Error is the error type returned by this package. All boundary errors are
//configuration errors, detected before any bias is computed.
type Error struct {
	message  string
	deco     []string
	critical bool
}

func (err Error) Error() string {
	return fmt.Sprintf("boundary error: %s", err.message)
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

const ErrNoColvars = "Boundaries requested but no collective variables given"
