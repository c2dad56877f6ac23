package bias

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"
)

//randomInput returns a reproducible input with steps steps, dims CVs and basins basins
//(no thetas if basins is 0).
func randomInput(seed int64, steps, dims, basins, stride int) *Input {
	r := rand.New(rand.NewSource(seed))
	cv := mat.NewDense(steps, dims, nil)
	sig := mat.NewDense(steps, dims, nil)
	for i := 0; i < steps; i++ {
		for j := 0; j < dims; j++ {
			cv.Set(i, j, 2*math.Sin(0.05*float64(i*(j+1)))+0.3*r.NormFloat64())
			sig.Set(i, j, 0.3+0.2*r.Float64())
		}
	}
	heights := make([]float64, steps)
	wall := make([]float64, steps)
	for i := range heights {
		heights[i] = 1.2 * math.Exp(-float64(i)/150)
		wall[i] = 0.1 * r.Float64()
	}
	in := &Input{
		Colvars: cv,
		Sigmas:  sig,
		Heights: heights,
		Wall:    wall,
		NEvals:  steps / stride,
		Stride:  stride,
	}
	if basins > 0 {
		th := mat.NewDense(steps, basins, nil)
		for i := 0; i < steps; i++ {
			for m := 0; m < basins; m++ {
				v := r.Float64()
				if v < 0.2 {
					v = 0
				}
				th.Set(i, m, v)
			}
		}
		in.Thetas = th
	}
	return in
}

func sameMatrix(Te *testing.T, name string, A, B mat.Matrix, tol float64) {
	Te.Helper()
	ar, ac := A.Dims()
	br, bc := B.Dims()
	if ar != br || ac != bc {
		Te.Fatalf("%s: dimensions differ %dx%d vs %dx%d", name, ar, ac, br, bc)
	}
	for i := 0; i < ar; i++ {
		for j := 0; j < ac; j++ {
			a, b := A.At(i, j), B.At(i, j)
			if !scalar.EqualWithinAbsOrRel(a, b, 1e-12, tol) {
				Te.Fatalf("%s: element %d,%d differs: %g vs %g", name, i, j, a, b)
			}
		}
	}
}

func TestKernels(Te *testing.T) {
	a := []float64{0.2, -1.0}
	b := []float64{0.5, 0.5}
	c := []float64{0.5, 2.0}
	//|d|^2 = 0.36+0.5625
	want := math.Exp(-0.5 * (0.36 + 0.5625))
	if g := Gaussian(a, b, c); math.Abs(g-want) > 1e-15 {
		Te.Errorf("Gaussian: got %g, expected %g", g, want)
	}
	if g := Periodic(a, b, c, nil); g != Gaussian(a, b, c) {
		Te.Error("Periodic with nil lengths should be Gaussian")
	}
	L := []float64{2 * math.Pi, 3}
	p := Periodic(a, b, c, L)
	for _, shift := range []float64{-2, -1, 1, 3} {
		as := []float64{a[0] + shift*L[0], a[1] - shift*L[1]}
		if q := Periodic(as, b, c, L); math.Abs(p-q) > 1e-12 {
			Te.Errorf("periodic kernel changed after shifting by %g domains: %g vs %g", shift, p, q)
		}
	}
	//wrapping makes far images close
	far := []float64{0.5 + L[0], 0.5}
	if q := Periodic(far, b, c, L); math.Abs(q-1) > 1e-12 {
		Te.Errorf("image of b should overlap fully, got %g", q)
	}
	r := Residual(a, b, c, nil, 0.5)
	bflip := []float64{b[0], -b[1]}
	want = Gaussian(a, b, c) + 0.5*Gaussian(a, bflip, c)
	if math.Abs(r-want) > 1e-15 {
		Te.Errorf("Residual: got %g, expected %g", r, want)
	}
	if r0 := Residual(a, b, c, L, 0); math.Abs(r0-p) > 1e-15 {
		Te.Errorf("Residual with zero weight should equal Periodic: %g vs %g", r0, p)
	}
	inv := []float64{1 / c[0], 1 / c[1]}
	il := []float64{1 / L[0], 1 / L[1]}
	if f := flatKernel(a, b, inv, L, il, 0.5); !scalar.EqualWithinRel(f, Residual(a, b, c, L, 0.5), 1e-12) {
		Te.Errorf("flatKernel and Residual disagree: %g vs %g", f, Residual(a, b, c, L, 0.5))
	}
}

func TestBuildersAgree(Te *testing.T) {
	fmt.Println("Reference vs accelerated builders")
	for _, basins := range []int{0, 2} {
		for _, periodic := range []bool{false, true} {
			for _, res := range []float64{0, 0.7} {
				if basins == 0 && res != 0 {
					continue
				}
				in := randomInput(3, 120, 4, basins, 7)
				in.Residual = res
				if periodic {
					in.Lengths = []float64{2 * math.Pi, 2 * math.Pi, 3, 4}
				}
				var s Scheme = Metadynamics{}
				if basins > 0 {
					s = Atlas{}
				}
				name := fmt.Sprintf("%s periodic:%v residual:%g", s.Name(), periodic, res)
				R := Reference{}.Build(s, in)
				for _, cpus := range []int{1, 3} {
					A := Accelerated{Cpus: cpus}.Build(s, in)
					sameMatrix(Te, name, R, A, 1e-9)
				}
			}
		}
	}
}

func TestRecursionMatchesDirect(Te *testing.T) {
	for _, basins := range []int{0, 2} {
		in := randomInput(11, 90, 2, basins, 9)
		in.Lengths = []float64{5, 5}
		if basins > 0 {
			in.Residual = 0.3
		}
		var s Scheme = Metadynamics{}
		if basins > 0 {
			s = Atlas{}
		}
		M := Reference{}.Build(s, in)
		for i := 0; i < in.NEvals; i++ {
			for j := 0; j < in.NEvals; j++ {
				got := M.At(j, i)
				want := Direct(s, in, i, j)
				if j < i {
					if got != 0 {
						Te.Errorf("%s: upper triangle element %d,%d is %g", s.Name(), j, i, got)
					}
					continue
				}
				if !scalar.EqualWithinAbsOrRel(got, want, 1e-12, 1e-9) {
					Te.Errorf("%s: M[%d,%d]=%g, brute force gives %g", s.Name(), j, i, got, want)
				}
			}
		}
	}
}

func TestDiagonal(Te *testing.T) {
	//100 steps, 1 CV, heights and sigmas 1, stride 10.
	steps := 100
	cv := mat.NewDense(steps, 1, nil)
	sig := mat.NewDense(steps, 1, nil)
	h := make([]float64, steps)
	for i := 0; i < steps; i++ {
		cv.Set(i, 0, float64(i)/float64(steps))
		sig.Set(i, 0, 1)
		h[i] = 1
	}
	in := &Input{Colvars: cv, Sigmas: sig, Heights: h, NEvals: 10, Stride: 10}
	M := Accelerated{Cpus: 2}.Build(Metadynamics{}, in)
	prev := -1.0
	for i := 0; i < in.NEvals; i++ {
		d := M.At(i, i)
		if d < 0 {
			Te.Errorf("negative diagonal at %d: %g", i, d)
		}
		if d < prev {
			Te.Errorf("diagonal decreases at %d: %g < %g", i, d, prev)
		}
		prev = d
	}
	if M.At(0, 0) != 0 {
		Te.Errorf("nothing was deposited before the first step, but M[0,0]=%g", M.At(0, 0))
	}
}

func TestZeroHeights(Te *testing.T) {
	in := randomInput(5, 60, 2, 0, 6)
	for i := range in.Heights {
		in.Heights[i] = 0
	}
	M := Reference{}.Build(Metadynamics{}, in)
	for i := 0; i < in.NEvals; i++ {
		for j := 0; j < in.NEvals; j++ {
			want := 0.0
			if j >= i {
				want = in.Wall[i*in.Stride]
			}
			if M.At(j, i) != want {
				Te.Errorf("M[%d,%d]=%g, expected only the wall (%g)", j, i, M.At(j, i), want)
			}
		}
	}
}

func TestSingleBasinIsMetadynamics(Te *testing.T) {
	in := randomInput(7, 80, 3, 0, 8)
	in.Lengths = []float64{4, 4, 4}
	plainR := Reference{}.Build(Metadynamics{}, in)
	plainA := Accelerated{Cpus: 2}.Build(Metadynamics{}, in)
	th := mat.NewDense(in.Steps(), 1, nil)
	for i := 0; i < in.Steps(); i++ {
		th.Set(i, 0, 1)
	}
	in.Thetas = th
	atlasR := Reference{}.Build(Atlas{}, in)
	atlasA := Accelerated{Cpus: 2}.Build(Atlas{}, in)
	if !mat.Equal(plainR, atlasR) {
		Te.Error("single-basin ATLAS differs from metadynamics (reference builder)")
	}
	if !mat.Equal(plainA, atlasA) {
		Te.Error("single-basin ATLAS differs from metadynamics (accelerated builder)")
	}
}

func TestCheck(Te *testing.T) {
	in := randomInput(1, 50, 2, 0, 5)
	if err := in.Check(); err != nil {
		Te.Fatal(err)
	}
	bad := *in
	bad.Heights = bad.Heights[:10]
	if bad.Check() == nil {
		Te.Error("short heights should fail")
	}
	bad = *in
	bad.NEvals = 11
	if bad.Check() == nil {
		Te.Error("too many evaluations should fail")
	}
	bad = *in
	bad.Thetas = mat.NewDense(50, 3, nil)
	if bad.Check() == nil {
		Te.Error("2 CVs can't be split among 3 basins")
	}
	defer func() {
		if r := recover(); r != ErrInput {
			Te.Errorf("expected a panic with ErrInput, got %v", r)
		}
	}()
	bad.Thetas = nil
	bad.Wall = []float64{1}
	Reference{}.Build(Metadynamics{}, &bad)
}
