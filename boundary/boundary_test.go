package boundary

import (
	"fmt"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func testColvars() *mat.Dense {
	return mat.NewDense(4, 2, []float64{
		0.0, -1.0,
		1.0, 0.5,
		2.0, 2.0,
		-1.0, 1.0,
	})
}

func TestResolveDefault(Te *testing.T) {
	fmt.Println("Boundary default test!")
	S, err := Resolve(testColvars(), nil)
	if err != nil {
		Te.Fatal(err)
	}
	if S.Dims() != 2 {
		Te.Errorf("expected 2 dimensions, got %d", S.Dims())
	}
	if S.AnyPeriodic() {
		Te.Error("default boundaries should be non-periodic")
	}
	//observed ranges are 3 and 3
	for i, wantmin := range []float64{-1, -1} {
		if S.Min(i) != wantmin {
			Te.Errorf("dim %d: min %g, expected %g", i, S.Min(i), wantmin)
		}
		if S.Length(i) != 15 {
			Te.Errorf("dim %d: length %g, expected 15", i, S.Length(i))
		}
		if S.Max(i) != S.Min(i)+S.Length(i) {
			Te.Errorf("dim %d: max %g inconsistent with min and length", i, S.Max(i))
		}
	}
	fmt.Println(S)
}

func TestResolveMixed(Te *testing.T) {
	S, err := Resolve(testColvars(), []Edge{Value(-math.Pi), Value(math.Pi), Bounded, Bounded})
	if err != nil {
		Te.Fatal(err)
	}
	if !S.Periodic(0) || !S.Periodic(1) {
		Te.Error("both dimensions should be periodic")
	}
	if math.Abs(S.Length(0)-2*math.Pi) > 1e-12 {
		Te.Errorf("length 0 is %g", S.Length(0))
	}
	if S.Min(1) != -1 || S.Max(1) != 2 || S.Length(1) != 3 {
		Te.Errorf("derived bounds for dim 1 are wrong: %v", S)
	}
	b := S.Bounds()
	if len(b) != 4 || b[2] != -1 || b[3] != 2 {
		Te.Errorf("unexpected bounds %v", b)
	}
	l := S.Lengths()
	l[0] = 0
	if S.Length(0) == 0 {
		Te.Error("Lengths should return a copy")
	}
}

func TestResolveZeroRange(Te *testing.T) {
	S, err := Resolve(mat.NewDense(3, 1, []float64{2, 2, 2}), nil)
	if err != nil {
		Te.Fatal(err)
	}
	if S.Length(0) != NonPeriodicFactor {
		Te.Errorf("constant CV should get a domain of %g, got %g", NonPeriodicFactor, S.Length(0))
	}
}

func TestResolveErrors(Te *testing.T) {
	cases := map[string][]Edge{
		"odd count":        {Value(0), Value(1), Value(2)},
		"too many":         {Value(0), Value(1), Value(0), Value(1), Value(0), Value(1)},
		"mixed unbounded":  {Unbounded, Value(1), Bounded, Bounded},
		"mixed unbounded2": {Bounded, Bounded, Bounded, Unbounded},
		"empty domain":     {Value(1), Value(1), Bounded, Bounded},
		"reversed domain":  {Value(1), Value(0), Bounded, Bounded},
	}
	for name, edges := range cases {
		_, err := Resolve(testColvars(), edges)
		if err == nil {
			Te.Errorf("%s: expected an error", name)
			continue
		}
		if _, ok := err.(Error); !ok {
			Te.Errorf("%s: expected a boundary.Error, got %T", name, err)
		}
	}
	if _, err := Resolve(nil, nil); err == nil {
		Te.Error("nil colvars should fail")
	}
}

func TestParseEdges(Te *testing.T) {
	e, err := ParseEdges([]interface{}{-3.0, "bounded", " Unbounded", "2.5"})
	if err != nil {
		Te.Fatal(err)
	}
	want := []Edge{Value(-3), Bounded, Unbounded, Value(2.5)}
	for i, v := range want {
		if e[i] != v {
			Te.Errorf("edge %d: got %v, expected %v", i, e[i], v)
		}
	}
	if _, err := ParseEdges([]interface{}{"periodic"}); err == nil {
		Te.Error("unknown token should fail")
	}
	if _, err := ParseEdges([]interface{}{true}); err == nil {
		Te.Error("unsupported type should fail")
	}
}
