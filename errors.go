/*
 * errors.go, part of goITRE.
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

import "fmt"

//ErrorKind classifies the configuration problems that stop a reweighting before
//it starts.
type ErrorKind int

const (
	ErrShape    ErrorKind = iota + 1 //input series of different lengths or shapes
	ErrBoundary                      //wrong boundary specification
	ErrMissing                       //a required input was not given
	ErrOption                        //an invalid scalar option
	ErrIO                            //a file given in the directives couldn't be read
)

func (k ErrorKind) String() string {
	switch k {
	case ErrShape:
		return "shape"
	case ErrBoundary:
		return "boundary"
	case ErrMissing:
		return "missing input"
	case ErrOption:
		return "option"
	case ErrIO:
		return "I/O"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

//Error is the error type returned by this package. All of them are critical:
//no partial result is ever produced after one.
type Error struct {
	message  string
	kind     ErrorKind
	deco     []string
	critical bool
	cause    error //the error from another package that caused this one, if any
}

func (err Error) Error() string {
	return fmt.Sprintf("itre %s error: %s", err.kind, err.message)
}

//Kind returns the kind of problem that caused the error.
func (err Error) Kind() ErrorKind { return err.kind }

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

//Unwrap returns the error, from another package, that caused this one, or nil.
func (err Error) Unwrap() error { return err.cause }

func newError(kind ErrorKind, caller string, format string, a ...interface{}) Error {
	return Error{message: fmt.Sprintf(format, a...), kind: kind, deco: []string{caller}, critical: true}
}

//wrapError turns err into an Error of the given kind, keeping it as the cause.
func wrapError(kind ErrorKind, err error, caller string) Error {
	return Error{message: err.Error(), kind: kind, deco: []string{caller}, critical: true, cause: err}
}
