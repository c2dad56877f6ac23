package histo

import (
	"encoding/json"
	"fmt"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
)

func TestHistoIO(Te *testing.T) {
	fmt.Println("Histogram JSON output test!")
	rawdata := []float64{1, 6, 3, 2, 4, 5, 7, 6, 3.5, 3, 5, 1, 1, 0, 0, 5, 8, 1, 2, 3, 44, 3, 7, 3, 1, 3, 5, 32, 1}
	D := NewData([]float64{0, 1, 2, 3, 4, 8}, rawdata, nil, 4)
	fmt.Println(D.String())
	j, err := json.Marshal(D)
	if err != nil {
		Te.Fatal(err)
	}
	D2 := new(Data)
	if err := json.Unmarshal(j, D2); err != nil {
		Te.Fatal(err)
	}
	if D2.ID() != 4 || !floats.Equal(D2.View(), D.View()) || D2.Total() != D.Total() {
		Te.Errorf("histograms differ after JSON round trip:\n%v\n%v", D, D2)
	}
	if err := json.Unmarshal([]byte(`{"dividers":[0,1],"histo":[1,2]}`), D2); err == nil {
		Te.Error("inconsistent JSON histogram accepted")
	}
}

func TestWeighted(Te *testing.T) {
	div := Dividers(0, 4, 4)
	if !floats.Equal(div, []float64{0, 1, 2, 3, 4}) {
		Te.Fatalf("wrong dividers %v", div)
	}
	x := []float64{3.5, 0.5, 1.5, -1, 0.2, 4, 2.5}
	w := []float64{1, 2, 3, 100, 0.5, 100, 4}
	D := NewData(div, x, w)
	if !floats.Equal(D.View(), []float64{2.5, 3, 4, 1}) {
		Te.Errorf("wrong weighted histogram %v", D.View())
	}
	if x[0] != 3.5 || w[3] != 100 {
		Te.Error("NewData modified its arguments")
	}
	if D.Total() != 10.5 {
		Te.Errorf("wrong total %g", D.Total())
	}
	//the same histogram, one point at a time
	A := NewData(div, nil, nil)
	for i := range x {
		A.AddWeighted(x[i:i+1], w[i:i+1])
	}
	if !floats.Equal(A.View(), D.View()) {
		Te.Errorf("AddWeighted gives %v, ReHisto %v", A.View(), D.View())
	}
	D.Normalize()
	if math.Abs(D.Sum()-1) > 1e-12 || !D.Normalized() {
		Te.Errorf("normalized histogram adds to %g", D.Sum())
	}
	D.AddData(0.1)
	if !D.Normalized() || math.Abs(D.View()[0]-3.5/11.5) > 1e-12 {
		Te.Errorf("adding to a normalized histogram: %v", D.View())
	}
	D.UnNormalize()
	if math.Abs(D.View()[0]-3.5) > 1e-12 {
		Te.Errorf("wrong un-normalized histogram %v", D.View())
	}
	if !floats.Equal(D.Centers(), []float64{0.5, 1.5, 2.5, 3.5}) {
		Te.Errorf("wrong centers %v", D.Centers())
	}
}

func TestFreeEnergy(Te *testing.T) {
	D := NewData(Dividers(0, 3, 3), []float64{0.5, 0.5, 0.5, 0.5, 1.5, 1.5}, nil)
	kT := 2.0
	F := D.FreeEnergy(kT)
	if F[0] != 0 {
		Te.Errorf("the most populated bin should be at zero, got %v", F)
	}
	if math.Abs(F[1]-kT*math.Log(2)) > 1e-12 {
		Te.Errorf("wrong free energy difference %g, expected %g", F[1], kT*math.Log(2))
	}
	if !math.IsInf(F[2], 1) {
		Te.Errorf("empty bins should have infinite free energy, got %g", F[2])
	}
	E := NewData(Dividers(0, 1, 2), nil, nil)
	for _, v := range E.FreeEnergy(kT) {
		if !math.IsInf(v, 1) {
			Te.Errorf("an empty histogram should give +Inf everywhere")
		}
	}
}
