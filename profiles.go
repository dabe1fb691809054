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

// Well-known primaries used by the stock profile constructors below. Rather
// than embedding pre-built ICC files, profiles for standard colour spaces
// are synthesized from their published chromaticities so that the
// colorant tags are always self-consistent with the requested white point
// and rendering gamma.

// sRGBPrimaries holds the BT.709/sRGB primaries and the D65 white point,
// as specified by IEC 61966-2-1.
var sRGBPrimaries = Primaries{
	Rx: 0.64, Ry: 0.33,
	Gx: 0.30, Gy: 0.60,
	Bx: 0.15, By: 0.06,
	Wx: 0.3127, Wy: 0.3290,
}

const (
	sRGBGamma     = 2.4
	sRGBLuminance = 300
	sRGBDescr     = "sRGB"
)
