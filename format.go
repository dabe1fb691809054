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

import "fmt"

// PixelFormat identifies the channel layout of a pixel buffer passed to a
// [Transform].
type PixelFormat int

const (
	// FormatXYZ is three channels of PCS XYZ; valid only at depth 32.
	FormatXYZ PixelFormat = iota
	// FormatRGB is three channels of device RGB.
	FormatRGB
	// FormatRGBA is four channels of device RGB plus alpha.
	FormatRGBA
)

func (f PixelFormat) String() string {
	switch f {
	case FormatXYZ:
		return "XYZ"
	case FormatRGB:
		return "RGB"
	case FormatRGBA:
		return "RGBA"
	default:
		return fmt.Sprintf("PixelFormat(%d)", int(f))
	}
}

func (f PixelFormat) channels() int {
	switch f {
	case FormatXYZ, FormatRGB:
		return 3
	case FormatRGBA:
		return 4
	default:
		return 0
	}
}

func (f PixelFormat) hasAlpha() bool {
	return f == FormatRGBA
}

// pixelKind classifies the wire representation of a single channel value.
type pixelKind int

const (
	kindFloat32 pixelKind = iota
	kindU8
	kindU16 // 9-16 bit, packed into 16-bit lanes
)

func depthKind(depth int) (pixelKind, error) {
	switch {
	case depth == 32:
		return kindFloat32, nil
	case depth == 8:
		return kindU8, nil
	case depth >= 9 && depth <= 16:
		return kindU16, nil
	default:
		return 0, fmt.Errorf("icc: unsupported pixel depth %d", depth)
	}
}

func (k pixelKind) bytesPerChannel() int {
	switch k {
	case kindFloat32:
		return 4
	case kindU8:
		return 1
	default:
		return 2
	}
}

// TransformFormatToPixelBytes returns the number of bytes a single pixel
// occupies for the given format and depth: XYZ only at depth 32 (12
// bytes), RGB at 8/9-16/32 (3/6/12 bytes), RGBA at 8/9-16/32 (4/8/16
// bytes).
func TransformFormatToPixelBytes(format PixelFormat, depth int) int {
	kind, err := depthKind(depth)
	if err != nil {
		return 0
	}
	if format == FormatXYZ && kind != kindFloat32 {
		return 0
	}
	return format.channels() * kind.bytesPerChannel()
}
