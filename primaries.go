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
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var primariesValidate = validator.New()

// Primaries holds the CIE xy chromaticities of a display's red, green, and
// blue reference stimuli and its white point.
type Primaries struct {
	Rx float64 `validate:"gte=0,lte=1"`
	Ry float64 `validate:"gte=0,lte=1"`
	Gx float64 `validate:"gte=0,lte=1"`
	Gy float64 `validate:"gte=0,lte=1"`
	Bx float64 `validate:"gte=0,lte=1"`
	By float64 `validate:"gte=0,lte=1"`
	Wx float64 `validate:"gte=0,lte=1"`
	Wy float64 `validate:"gte=0,lte=1"`
}

// Validate checks that every chromaticity component lies in [0,1] and that
// the three RGB points are not collinear (a degenerate triangle has no
// invertible colorant matrix, so it could never come back out of
// [deriveMatrix]).
func (p Primaries) Validate() error {
	if err := primariesValidate.Struct(p); err != nil {
		return errors.Wrap(err, "icc: invalid primaries")
	}
	// cross product of (G-R) and (B-R): zero means the three points are
	// collinear.
	gx, gy := p.Gx-p.Rx, p.Gy-p.Ry
	bx, by := p.Bx-p.Rx, p.By-p.Ry
	if gx*by-gy*bx == 0 {
		return errors.New("icc: primaries are collinear")
	}
	return nil
}

// derivePrimaries reads a profile's colorant matrix (preferring the
// rXYZ/gXYZ/bXYZ tags, falling back to the A2B0 matrix), adapts it
// through the inverse chromatic-adaptation matrix when present, and
// converts the adapted colorants and white point to xy chromaticities.
func derivePrimaries(p *RawProfile) (Primaries, error) {
	m, err := colorantMatrix(p)
	if err != nil {
		return Primaries{}, err
	}

	chad, hasChad := parseChad(p)
	if hasChad {
		inv := invertMatrix3x3(chad[:])
		if inv != nil {
			m = mul3x3([9]float64(inv), m)
		}
	}

	white, err := whitePointXYZ(p, hasChad, chad)
	if err != nil {
		return Primaries{}, err
	}

	rx, ry := xyzToXy(m[0], m[3], m[6])
	gx, gy := xyzToXy(m[1], m[4], m[7])
	bx, by := xyzToXy(m[2], m[5], m[8])
	wx, wy := xyzToXy(white[0], white[1], white[2])

	return Primaries{Rx: rx, Ry: ry, Gx: gx, Gy: gy, Bx: bx, By: by, Wx: wx, Wy: wy}, nil
}

// colorantMatrix reads the rXYZ/gXYZ/bXYZ tags if all three are present;
// otherwise it falls back to the 3x3 matrix embedded in the A2B0 LUT tag.
func colorantMatrix(p *RawProfile) ([9]float64, error) {
	rData, rOK := p.TagData[RedMatrixColumn]
	gData, gOK := p.TagData[GreenMatrixColumn]
	bData, bOK := p.TagData[BlueMatrixColumn]
	if rOK && gOK && bOK {
		r, err := parseXYZ(rData)
		if err != nil {
			return [9]float64{}, err
		}
		g, err := parseXYZ(gData)
		if err != nil {
			return [9]float64{}, err
		}
		b, err := parseXYZ(bData)
		if err != nil {
			return [9]float64{}, err
		}
		return [9]float64{
			r[0], g[0], b[0],
			r[1], g[1], b[1],
			r[2], g[2], b[2],
		}, nil
	}

	a2b0, ok := p.TagData[AToB0]
	if !ok {
		return [9]float64{}, errors.New("icc: no colorant matrix and no A2B0 tag")
	}
	if len(a2b0) < 16+4 {
		return [9]float64{}, errInvalidTagData
	}
	matrixOffset := getUint32(a2b0, 16)
	if matrixOffset == 0 || uint64(matrixOffset)+36 > uint64(len(a2b0)) {
		return [9]float64{}, errors.New("icc: invalid A2B0 matrix offset")
	}
	var m [9]float64
	for i := 0; i < 9; i++ {
		m[i] = getS15Fixed16(a2b0, int(matrixOffset)+i*4)
	}
	return m, nil
}

// parseChad reads the "chad" tag (an sf32Array of nine s15Fixed16 values)
// if present.
func parseChad(p *RawProfile) ([9]float64, bool) {
	data, ok := p.TagData[ChromaticAdaptation]
	if !ok || len(data) < 8+9*4 {
		return [9]float64{}, false
	}
	var m [9]float64
	for i := 0; i < 9; i++ {
		m[i] = getS15Fixed16(data, 8+i*4)
	}
	return m, true
}

// whitePointXYZ returns the media white point, adapted through chad^-1 when
// the profile is version 4 or later, or when it explicitly carries a chad
// tag.
func whitePointXYZ(p *RawProfile, hasChad bool, chad [9]float64) ([3]float64, error) {
	data, ok := p.TagData[MediaWhitePoint]
	if !ok {
		return [3]float64{}, errMissingTag
	}
	xyz, err := parseXYZ(data)
	if err != nil {
		return [3]float64{}, err
	}

	if p.Version>>24 >= 4 || hasChad {
		if inv := invertMatrix3x3(chad[:]); inv != nil {
			return [3]float64{
				inv[0]*xyz[0] + inv[1]*xyz[1] + inv[2]*xyz[2],
				inv[3]*xyz[0] + inv[4]*xyz[1] + inv[5]*xyz[2],
				inv[6]*xyz[0] + inv[7]*xyz[1] + inv[8]*xyz[2],
			}, nil
		}
	}
	return xyz, nil
}

// xyzToXy converts an XYZ triple to CIE xy chromaticity coordinates.
func xyzToXy(x, y, z float64) (float64, float64) {
	sum := x + y + z
	if sum == 0 {
		return 0, 0
	}
	return x / sum, y / sum
}
