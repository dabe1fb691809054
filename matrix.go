// seehuhn.de/go/icc - read and write ICC profiles
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package icc

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Throughout this package, a 3x3 colour matrix is stored row-major as a
// 9-element slice and multiplies a column vector on its right:
// dst[i] = sum_j M[3*i+j] * src[j]. This matches the layout already used
// by [DeviceTransform]'s matrix/TRC path, so the two can share code.

// deriveMatrix computes the RGB-to-XYZ matrix for the given primaries,
// following the Hoffmann formulation: build the colorant chromaticity
// matrix P and the white point column W, solve P*U = W for the per-channel
// scale factors, and scale P's columns accordingly.
func deriveMatrix(p Primaries) ([9]float64, error) {
	xr, yr := p.Rx, p.Ry
	xg, yg := p.Gx, p.Gy
	xb, yb := p.Bx, p.By
	xw, yw := p.Wx, p.Wy

	pData := mat.NewDense(3, 3, []float64{
		xr, xg, xb,
		yr, yg, yb,
		1 - xr - yr, 1 - xg - yg, 1 - xb - yb,
	})
	w := mat.NewVecDense(3, []float64{xw, yw, 1 - xw - yw})

	var u mat.VecDense
	if err := u.SolveVec(pData, w); err != nil {
		return [9]float64{}, errors.Wrap(err, "icc: primaries are degenerate (collinear or singular)")
	}

	d := mat.NewDiagDense(3, []float64{u.AtVec(0) / yw, u.AtVec(1) / yw, u.AtVec(2) / yw})

	var m mat.Dense
	m.Mul(pData, d)

	var out [9]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[3*i+j] = m.At(i, j)
		}
	}
	return out, nil
}

// identityMatrix is the 3x3 identity, used when no colour conversion is
// required (pass-through XYZ or reformat-only kernels).
var identityMatrix = [9]float64{
	1, 0, 0,
	0, 1, 0,
	0, 0, 1,
}

func invert3x3(m [9]float64) ([9]float64, error) {
	inv := invertMatrix3x3(m[:])
	if inv == nil {
		return [9]float64{}, errors.New("icc: singular colour matrix")
	}
	var out [9]float64
	copy(out[:], inv)
	return out, nil
}

func mul3x3(a, b [9]float64) [9]float64 {
	var out [9]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += a[3*i+k] * b[3*k+j]
			}
			out[3*i+j] = sum
		}
	}
	return out
}
