/*
 * histo.go, part of goITRE.
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

//Package histo builds weighted histograms of a CV, and the free energy profiles
//obtained from them, from the samples of a biased run and their reweighting factors.
package histo

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

//Dividers returns the bins+1 dividers of bins equally spaced bins between min and max.
func Dividers(min, max float64, bins int) []float64 {
	if bins < 1 || !(max > min) {
		panic(fmt.Sprintf("goITRE/histo.Dividers: can't divide [%g, %g] in %d bins", min, max, bins))
	}
	return floats.Span(make([]float64, bins+1), min, max)
}

//Data is a histogram where each sample can carry a weight.
type Data struct {
	id         int
	normalized bool
	total      float64 //sum of the weights of the samples in the histogram
	dividers   []float64
	histo      []float64
}

type jsonData struct {
	ID         int       `json:"id"`
	Normalized bool      `json:"normalized"`
	Total      float64   `json:"total"`
	Dividers   []float64 `json:"dividers"`
	Histo      []float64 `json:"histo"`
}

func (D *Data) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonData{
		ID:         D.id,
		Normalized: D.normalized,
		Total:      D.total,
		Dividers:   D.dividers,
		Histo:      D.histo,
	})
}

func (D *Data) UnmarshalJSON(b []byte) error {
	var a jsonData
	err := json.Unmarshal(b, &a)
	if err != nil {
		return err
	}
	if len(a.Dividers) != len(a.Histo)+1 {
		return fmt.Errorf("goITRE/histo: %d dividers for %d bins", len(a.Dividers), len(a.Histo))
	}
	D.id = a.ID
	D.normalized = a.Normalized
	D.total = a.Total
	D.dividers = a.Dividers
	D.histo = a.Histo
	return nil
}

//ID returns the ID of the histogram
func (D *Data) ID() int {
	return D.id
}

//String returns the bins and their contents in 3 lines of text.
func (D *Data) String() string {
	ret := fmt.Sprintf("ID: %d, Normalized: %v, TotalWeight: %g\n", D.id, D.normalized, D.total)
	d := make([]string, 0, len(D.histo))
	h := make([]string, 0, len(D.histo))
	for i, v := range D.histo {
		d = append(d, fmt.Sprintf("%4.2f-%4.2f", D.dividers[i], D.dividers[i+1]))
		h = append(h, fmt.Sprintf("%9.3f", v))
	}
	return ret + fmt.Sprintf("%s\n%s", strings.Join(d, " "), strings.Join(h, " "))
}

//NewData returns a new histogram with the given dividers, filled with rawdata.
//weights can be nil, in which case all samples have weight 1. Otherwise, it must
//have one element per sample. rawdata can also be nil, giving an empty histogram.
//The ID is -1 unless given.
func NewData(dividers []float64, rawdata, weights []float64, ID ...int) *Data {
	if len(dividers) < 2 || !sort.Float64sAreSorted(dividers) {
		panic("goITRE/histo.NewData: at least 2 sorted dividers are needed")
	}
	d := new(Data)
	d.dividers = make([]float64, len(dividers))
	copy(d.dividers, dividers)
	d.histo = make([]float64, len(dividers)-1)
	if rawdata != nil {
		d.ReHisto(rawdata, weights)
	}
	d.id = -1
	if len(ID) > 0 {
		d.id = ID[0]
	}
	return d
}

//AddData adds the given data point(s), with weight 1, to the histogram.
func (D *Data) AddData(point ...float64) {
	D.AddWeighted(point, nil)
}

//AddWeighted adds the points to the histogram, each with the corresponding weight.
//weights can be nil, in which case all weights are 1. Points outside
//the dividers are ignored.
func (D *Data) AddWeighted(points, weights []float64) {
	if weights != nil && len(weights) != len(points) {
		panic("goITRE/histo.Data.AddWeighted: one weight per point is needed")
	}
	norma := D.normalized
	if norma {
		D.UnNormalize()
	}
	last := len(D.dividers) - 1
	for i, v := range points {
		if v < D.dividers[0] || v >= D.dividers[last] {
			continue
		}
		//the first divider larger than v closes the bin of v
		j := sort.Search(last+1, func(k int) bool { return D.dividers[k] > v }) - 1
		w := 1.0
		if weights != nil {
			w = weights[i]
		}
		D.histo[j] += w
		D.total += w
	}
	if norma {
		D.Normalize()
	}
}

//Normalized Returns true if the histogram is normalized
func (D *Data) Normalized() bool {
	return D.normalized
}

//Normalize scales the histogram so its bins add to 1.
func (D *Data) Normalize() {
	D.normaunnorma(true)
}

//UnNormalize returns a normalized histogram to the original weights.
func (D *Data) UnNormalize() {
	D.normaunnorma(false)
}

func (D *Data) normaunnorma(normalize bool) {
	if D.total <= 0 || D.normalized == normalize {
		return
	}
	n := D.total
	if normalize {
		n = 1 / D.total
	}
	D.normalized = normalize
	floats.Scale(n, D.histo)
}

//Total returns the sum of the weights of the samples added to the histogram.
func (D *Data) Total() float64 {
	return D.total
}

//CopyDividers returns a copy of the dividers of the histogram.
func (D *Data) CopyDividers() []float64 {
	return append([]float64(nil), D.dividers...)
}

//Copy returns a copy of the contents of the bins.
func (D *Data) Copy() []float64 {
	return append([]float64(nil), D.histo...)
}

//View returns the contents of the bins, not a copy.
func (D *Data) View() []float64 {
	return D.histo
}

//Centers returns the center of each bin.
func (D *Data) Centers() []float64 {
	ret := make([]float64, len(D.histo))
	for i := range ret {
		ret[i] = (D.dividers[i] + D.dividers[i+1]) / 2
	}
	return ret
}

func (D *Data) Sum() float64 {
	return floats.Sum(D.histo)
}

//FreeEnergy returns -kT ln(p) for each bin, where p is the probability of the bin,
//shifted so the lowest value is zero. Empty bins get +Inf.
func (D *Data) FreeEnergy(kT float64) []float64 {
	ret := make([]float64, len(D.histo))
	sum := D.Sum()
	for i, v := range D.histo {
		if v <= 0 || sum <= 0 {
			ret[i] = math.Inf(1)
			continue
		}
		ret[i] = -kT * math.Log(v/sum)
	}
	min := floats.Min(ret)
	if math.IsInf(min, 1) {
		return ret
	}
	floats.AddConst(-min, ret)
	return ret
}

//ReHisto replaces the contents of the histogram with rawdata, each sample with the
//corresponding weight, or with weight 1 if weights is nil. Neither slice is modified.
func (D *Data) ReHisto(rawdata, weights []float64) {
	if weights != nil && len(weights) != len(rawdata) {
		panic("goITRE/histo.Data.ReHisto: one weight per point is needed")
	}
	//stat.Histogram panics instead of omitting the values that are off limits,
	//and needs sorted data, so we filter and sort a copy first.
	last := D.dividers[len(D.dividers)-1]
	x := make([]float64, 0, len(rawdata))
	var w []float64
	if weights != nil {
		w = make([]float64, 0, len(rawdata))
	}
	for i, v := range rawdata {
		if v < D.dividers[0] || v >= last {
			continue
		}
		x = append(x, v)
		if weights != nil {
			w = append(w, weights[i])
		}
	}
	if w != nil {
		sort.Sort(byValue{x, w})
	} else {
		sort.Float64s(x)
	}
	D.normalized = false
	D.histo = stat.Histogram(nil, D.dividers, x, w)
	D.total = floats.Sum(D.histo)
}

//byValue sorts samples keeping each weight with its sample.
type byValue struct {
	x, w []float64
}

func (b byValue) Len() int           { return len(b.x) }
func (b byValue) Less(i, j int) bool { return b.x[i] < b.x[j] }
func (b byValue) Swap(i, j int) {
	b.x[i], b.x[j] = b.x[j], b.x[i]
	b.w[i], b.w[j] = b.w[j], b.w[i]
}
