/*
 * doc.go, part of goITRE.
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

/*Package itre implements the Iterative Trajectory Reweighting (ITRE) method, as
presented in

Giberti, F., Cheng, B., Tribello, G. A., & Ceriotti, M. (2019).
Iterative unbiasing of quasi-equilibrium sampling.
Journal of Chemical Theory and Computation.

ITRE obtains the time-dependent offset c(t) of a metadynamics (or ATLAS)
bias from the trajectory itself, so the biased configurations can be
given unbiasing weights exp((V(s(t),t)-c(t))/kT).


	**Capabilities**

    Builds the lagged bias matrix for plain metadynamics and for multi-basin
	(ATLAS) runs, with or without periodic CVs and, for ATLAS, with the
	reflected ("residual") kernel. The matrix can be built with a simple
	reference implementation, or with a compiled, concurrent one.

    Solves the self-consistent equation for c(t) for a fixed number of
	iterations.

    Reads the run from a JSON directives file pointing to plain or compressed
	column files (see the colfile package), in the same format PLUMED writes.

    Obtains weighted histograms and free energy profiles of the
	reweighted CVs (see the histo package), and archives runs in SQLite
	databases (see the store package).

The typical use is:

	E, err := itre.New(itre.Input{Colvars: cv, Sigmas: sig, Heights: h}, itre.DefaultOptions())
	if err != nil {
		log.Fatal(err)
	}
	ct := E.CT()
	last := ct.RawRowView(ct.RawMatrix().Rows - 1)
	w := E.Weights(last)

All the configuration errors (series of different lengths, wrong boundaries,
and so on) are returned by New, before any bias is computed.*/
package itre
