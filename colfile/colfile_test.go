package colfile

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"
)

const plumed = `#! FIELDS time cv1 cv2 height
#! SET min_cv1 -pi
0.0 0.25 -1.5 1.2
1.0 0.50 -1.0 1.1
# a comment
2.0 0.75 -0.5 1.0

#! FIELDS time cv1 cv2 height
3.0 1.00 0.0 0.9
`

func TestParsePlumed(Te *testing.T) {
	T, err := Parse(strings.NewReader(plumed), nil)
	if err != nil {
		Te.Fatal(err)
	}
	r, c := T.Data.Dims()
	if r != 4 || c != 4 {
		Te.Fatalf("expected 4x4, got %dx%d", r, c)
	}
	if strings.Join(T.Fields, ",") != "time,cv1,cv2,height" {
		Te.Errorf("wrong fields %v", T.Fields)
	}
	if T.Data.At(3, 3) != 0.9 || T.Data.At(1, 2) != -1.0 {
		Te.Errorf("wrong data\n%v", mat.Formatted(T.Data))
	}
	T, err = Parse(strings.NewReader(plumed), &ReadOptions{Fields: []string{"cv2", "cv1"}, Discard: 1, Keep: 3})
	if err != nil {
		Te.Fatal(err)
	}
	r, c = T.Data.Dims()
	if r != 2 || c != 2 {
		Te.Fatalf("expected 2x2, got %dx%d", r, c)
	}
	if T.Data.At(0, 0) != -1.0 || T.Data.At(1, 1) != 0.75 {
		Te.Errorf("wrong selection\n%v", mat.Formatted(T.Data))
	}
	if T.Fields[0] != "cv2" {
		Te.Errorf("wrong selected fields %v", T.Fields)
	}
	T, err = Parse(strings.NewReader(plumed), &ReadOptions{Columns: []int{3}})
	if err != nil {
		Te.Fatal(err)
	}
	h := T.Column(0)
	if len(h) != 4 || h[0] != 1.2 {
		Te.Errorf("wrong column %v", h)
	}
}

func TestParseErrors(Te *testing.T) {
	cases := map[string]string{
		"ragged":         "1 2\n3\n",
		"not a number":   "1 2\n3 x\n",
		"empty":          "# nothing here\n",
		"changed fields": "#! FIELDS a b\n1 2\n#! FIELDS a c\n3 4\n",
	}
	for name, s := range cases {
		if _, err := Parse(strings.NewReader(s), nil); err == nil {
			Te.Errorf("%s: expected an error", name)
		}
	}
	if _, err := Parse(strings.NewReader("1 2\n"), &ReadOptions{Columns: []int{2}}); err == nil {
		Te.Error("out of range column should fail")
	}
	if _, err := Parse(strings.NewReader("1 2\n"), &ReadOptions{Fields: []string{"a"}}); err == nil {
		Te.Error("fields without header should fail")
	}
	_, err := Parse(strings.NewReader("1 2\n3 4 5\n"), nil)
	if e, ok := err.(Error); !ok || e.Line() != 2 {
		Te.Errorf("expected an error at line 2, got %v", err)
	}
}

func TestRoundTrip(Te *testing.T) {
	dir := Te.TempDir()
	m := mat.NewDense(3, 2, []float64{1.5, -2, 3.25e-9, 4, 1e10, -0.125})
	for _, ext := range []string{".dat", ".zst", ".gz", ".lzw", ".deflate"} {
		name := filepath.Join(dir, "m"+ext)
		if err := WriteFile(name, m, "c(t)\nsecond line"); err != nil {
			Te.Fatalf("%s: %v", ext, err)
		}
		T, err := ReadFile(name, nil)
		if err != nil {
			Te.Fatalf("%s: %v", ext, err)
		}
		if !mat.Equal(m, T.Data) {
			Te.Errorf("%s: read\n%v\nwritten\n%v", ext, mat.Formatted(T.Data), mat.Formatted(m))
		}
	}
	name := filepath.Join(dir, "v.gz")
	if err := WriteVector(name, []float64{1, 2, 3}, ""); err != nil {
		Te.Fatal(err)
	}
	v, err := ReadVector(name)
	if err != nil {
		Te.Fatal(err)
	}
	if fmt.Sprint(v) != "[1 2 3]" {
		Te.Errorf("wrong vector %v", v)
	}
	if _, err := ReadVector(filepath.Join(dir, "m.dat")); err == nil {
		Te.Error("ReadVector should refuse a 2-column file")
	}
	if _, err := ReadFile(filepath.Join(dir, "missing.dat"), nil); err == nil {
		Te.Error("missing file should fail")
	}
}
