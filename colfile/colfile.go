/*
 * colfile.go, part of goITRE.
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

/*Package colfile reads and writes files of whitespace-separated numeric columns,
such as the COLVAR and HILLS files written by PLUMED.

Lines starting with '#' are comments. The exception is a "#! FIELDS" line,
which gives the name of each column. PLUMED repeats the header when a run is
restarted; repeated FIELDS lines are accepted as long as they don't change.

Files are decompressed, and compressed when written, according to their
extension: .zst (zstd), .gz (gzip), .lzw (LZW) and .deflate (raw deflate). Any other
extension is taken as plain text.*/
package colfile

import (
	"bufio"
	"compress/flate"
	"compress/gzip"
	"compress/lzw"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
	"gonum.org/v1/gonum/mat"
)

const lzwLitwidth int = 8

//ReadOptions selects part of a file. The zero value reads everything.
type ReadOptions struct {
	Columns []int    //indexes of the columns to keep, in order. nil keeps all of them.
	Fields  []string //names of the columns to keep. Needs a FIELDS header. Ignored if Columns is given.
	Discard int      //data rows before this one are dropped.
	Keep    int      //if >0, data rows from this one on are dropped.
}

//Table is the content of a column file.
type Table struct {
	Fields []string //names of the columns read, or nil if the file had no FIELDS header
	Data   *mat.Dense
}

//Column returns a copy of the ith column of the table.
func (T *Table) Column(i int) []float64 {
	r, _ := T.Data.Dims()
	return mat.Col(make([]float64, r), i, T.Data)
}

//Parse reads a table from r. o can be nil.
func Parse(r io.Reader, o *ReadOptions) (*Table, error) {
	if o == nil {
		o = new(ReadOptions)
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	var fields []string
	var keep []int
	var data []float64
	ncols := -1
	row := 0
	line := 0
	for sc.Scan() {
		line++
		s := strings.TrimSpace(sc.Text())
		if s == "" {
			continue
		}
		if s[0] == '#' {
			f := strings.Fields(strings.TrimPrefix(s, "#!"))
			if !strings.HasPrefix(s, "#!") || len(f) == 0 || f[0] != "FIELDS" {
				continue
			}
			if fields != nil {
				if strings.Join(fields, " ") != strings.Join(f[1:], " ") {
					return nil, Error{"FIELDS header changed within the file", "", line, []string{"Parse"}}
				}
				continue
			}
			if ncols >= 0 {
				return nil, Error{"FIELDS header found after the data started", "", line, []string{"Parse"}}
			}
			fields = f[1:]
			continue
		}
		words := strings.Fields(s)
		if ncols < 0 {
			ncols = len(words)
			var err error
			keep, err = o.columns(ncols, fields)
			if err != nil {
				return nil, Error{err.Error(), "", line, []string{"Parse"}}
			}
		}
		if len(words) != ncols {
			return nil, Error{fmt.Sprintf("%d columns, %d expected", len(words), ncols), "", line, []string{"Parse"}}
		}
		row++
		if row-1 < o.Discard || (o.Keep > 0 && row-1 >= o.Keep) {
			continue
		}
		for _, c := range keep {
			v, err := strconv.ParseFloat(words[c], 64)
			if err != nil {
				return nil, Error{fmt.Sprintf("can't parse '%s' in column %d", words[c], c), "", line, []string{"Parse"}}
			}
			data = append(data, v)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, Error{err.Error(), "", line, []string{"Parse"}}
	}
	if len(data) == 0 {
		return nil, Error{"no data", "", line, []string{"Parse"}}
	}
	T := &Table{Data: mat.NewDense(len(data)/len(keep), len(keep), data)}
	if fields != nil && len(fields) == ncols {
		T.Fields = make([]string, 0, len(keep))
		for _, c := range keep {
			T.Fields = append(T.Fields, fields[c])
		}
	}
	return T, nil
}

//columns returns the indexes of the columns to keep from a file with ncols columns.
func (o *ReadOptions) columns(ncols int, fields []string) ([]int, error) {
	if o.Columns != nil {
		for _, c := range o.Columns {
			if c < 0 || c >= ncols {
				return nil, fmt.Errorf("column %d requested but the file has %d", c, ncols)
			}
		}
		return o.Columns, nil
	}
	if o.Fields != nil {
		if len(fields) != ncols {
			return nil, fmt.Errorf("fields requested but the file has no valid FIELDS header")
		}
		ret := make([]int, 0, len(o.Fields))
		for _, name := range o.Fields {
			i := indexOf(fields, name)
			if i < 0 {
				return nil, fmt.Errorf("field %s not found", name)
			}
			ret = append(ret, i)
		}
		return ret, nil
	}
	ret := make([]int, ncols)
	for i := range ret {
		ret[i] = i
	}
	return ret, nil
}

func indexOf(set []string, s string) int {
	for i, v := range set {
		if v == s {
			return i
		}
	}
	return -1
}

//ReadFile reads a table from the file name, decompressing it if needed. o can be nil.
func ReadFile(name string, o *ReadOptions) (*Table, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, Error{err.Error(), name, 0, []string{"os.Open", "ReadFile"}}
	}
	defer f.Close()
	r, err := newReader(name, bufio.NewReader(f))
	if err != nil {
		return nil, Error{err.Error(), name, 0, []string{"newReader", "ReadFile"}}
	}
	defer r.Close()
	T, err := Parse(r, o)
	if err != nil {
		if e, ok := err.(Error); ok {
			e.filename = name
			e.deco = append(e.deco, "ReadFile")
			return nil, e
		}
		return nil, err
	}
	return T, nil
}

//ReadVector reads a series from a file with a single column.
func ReadVector(name string) ([]float64, error) {
	T, err := ReadFile(name, nil)
	if err != nil {
		return nil, errDecorate(err, "ReadVector")
	}
	if _, c := T.Data.Dims(); c != 1 {
		return nil, Error{fmt.Sprintf("%d columns found, 1 expected", c), name, 0, []string{"ReadVector"}}
	}
	return T.Column(0), nil
}

//Write writes m to w, one row per line. header, if not empty, is written first
//as a comment, one comment line per line of the header.
func Write(w io.Writer, m mat.Matrix, header string) error {
	bw := bufio.NewWriter(w)
	if header != "" {
		for _, l := range strings.Split(strings.TrimRight(header, "\n"), "\n") {
			if _, err := fmt.Fprintf(bw, "# %s\n", l); err != nil {
				return err
			}
		}
	}
	r, c := m.Dims()
	buf := make([]byte, 0, 26*c)
	for i := 0; i < r; i++ {
		buf = buf[:0]
		for j := 0; j < c; j++ {
			if j > 0 {
				buf = append(buf, ' ')
			}
			buf = strconv.AppendFloat(buf, m.At(i, j), 'e', 18, 64)
		}
		buf = append(buf, '\n')
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	return bw.Flush()
}

//WriteFile writes m to the file name, compressing it if the extension requires it.
func WriteFile(name string, m mat.Matrix, header string) error {
	f, err := os.Create(name)
	if err != nil {
		return Error{err.Error(), name, 0, []string{"os.Create", "WriteFile"}}
	}
	w, err := newWriter(name, f)
	if err != nil {
		f.Close()
		return Error{err.Error(), name, 0, []string{"newWriter", "WriteFile"}}
	}
	if err = Write(w, m, header); err != nil {
		w.Close()
		f.Close()
		return Error{err.Error(), name, 0, []string{"Write", "WriteFile"}}
	}
	if err = w.Close(); err != nil {
		f.Close()
		return Error{err.Error(), name, 0, []string{"Close", "WriteFile"}}
	}
	if err = f.Close(); err != nil {
		return Error{err.Error(), name, 0, []string{"Close", "WriteFile"}}
	}
	return nil
}

//WriteVector writes v as a single column to the file name.
func WriteVector(name string, v []float64, header string) error {
	return WriteFile(name, mat.NewVecDense(len(v), v), header)
}

//zstdReadCloser is needed because *zstd.Decoder's Close doesn't return an error.
type zstdReadCloser struct {
	*zstd.Decoder
}

func (z zstdReadCloser) Close() error {
	z.Decoder.Close()
	return nil
}

//nopCloser doesn't close the underlying file, which is closed by the caller.
type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

func newReader(name string, r io.Reader) (io.ReadCloser, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".zst", ".zstd":
		d, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zstdReadCloser{d}, nil
	case ".gz":
		return gzip.NewReader(r)
	case ".lzw":
		return lzw.NewReader(r, lzw.MSB, lzwLitwidth), nil
	case ".deflate":
		return flate.NewReader(r), nil
	}
	return io.NopCloser(r), nil
}

func newWriter(name string, w io.Writer) (io.WriteCloser, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".zst", ".zstd":
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	case ".gz":
		return gzip.NewWriterLevel(w, gzip.BestCompression)
	case ".lzw":
		return lzw.NewWriter(w, lzw.MSB, lzwLitwidth), nil
	case ".deflate":
		return flate.NewWriter(w, flate.BestCompression)
	}
	return nopCloser{w}, nil
}

//Errors

//errDecorate adds the caller to the decoration of a colfile Error.
//Other errors are returned unchanged.
func errDecorate(err error, caller string) error {
	e, ok := err.(Error)
	if !ok {
		return err
	}
	e.deco = append(e.deco, caller)
	return e
}

//Error is the error type for this package.
type Error struct {
	message  string
	filename string //the file with problems, or empty string if none.
	line     int    //the line where the problem was found, or 0.
	deco     []string
}

func (err Error) Error() string {
	switch {
	case err.filename != "" && err.line > 0:
		return fmt.Sprintf("column file %s error at line %d: %s", err.filename, err.line, err.message)
	case err.filename != "":
		return fmt.Sprintf("column file %s error: %s", err.filename, err.message)
	case err.line > 0:
		return fmt.Sprintf("column file error at line %d: %s", err.line, err.message)
	}
	return fmt.Sprintf("column file error: %s", err.message)
}

//Decorate will add the dec string to the decoration slice of strings of the error,
//and return the resulting slice.
func (err Error) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

//FileName returns the file where the problem was found, if any.
func (err Error) FileName() string { return err.filename }

//Line returns the line where the problem was found, or 0.
func (err Error) Line() int { return err.line }

//Critical always returns true. A file that can't be read is never ignored.
func (err Error) Critical() bool { return true }
