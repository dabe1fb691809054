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
	"encoding/binary"
	"math"
)

// Rather than a fully-duplicated kernel body for every (source kind,
// destination kind, RGB/RGBA) combination, dispatch here always runs the
// same per-pixel body operating on float64 internally; decodeChannel and
// encodeChannel are the only places that vary by pixel kind. This keeps
// the 2-axis dispatch matrix (reformat-only vs. transform, times
// float/u8/u16, times RGB/RGBA) to a single code path instead of ~24
// near-identical ones.

func maxChannel(kind pixelKind, depth int) float64 {
	switch kind {
	case kindFloat32:
		return 1
	case kindU8:
		return 255
	default:
		return float64((uint32(1) << uint(depth)) - 1)
	}
}

// decodeChannel reads one channel value at data[offset:] and normalises
// it to a nominal [0,1] range (integers are divided by their max channel
// value; floats are used as-is, and may legitimately exceed 1 for HDR
// content).
func decodeChannel(kind pixelKind, data []byte, offset int, max float64) float64 {
	switch kind {
	case kindFloat32:
		bits := binary.LittleEndian.Uint32(data[offset:])
		return float64(math.Float32frombits(bits))
	case kindU8:
		return float64(data[offset]) / max
	default:
		return float64(binary.LittleEndian.Uint16(data[offset:])) / max
	}
}

// encodeChannel writes a normalised channel value to data[offset:].
// Integer encodings round half-away-from-zero (math.Round's behaviour in
// Go) and clamp to the representable range.
func encodeChannel(kind pixelKind, data []byte, offset int, value, max float64) {
	switch kind {
	case kindFloat32:
		binary.LittleEndian.PutUint32(data[offset:], math.Float32bits(float32(value)))
	case kindU8:
		v := clamp(math.Round(value*max), 0, max)
		data[offset] = byte(v)
	default:
		v := clamp(math.Round(value*max), 0, max)
		binary.LittleEndian.PutUint16(data[offset:], uint16(v))
	}
}

// applyEOTF linearises a normalised channel value per the given transfer
// function.
func applyEOTF(kind TransferKind, gamma, v float64) float64 {
	switch kind {
	case TransferGamma:
		if v <= 0 {
			return 0
		}
		return math.Pow(v, gamma)
	case TransferPQ:
		return pqEOTF(v)
	case TransferHLG:
		return hlgEOTFChannel(v)
	default:
		return v
	}
}

// applyOETF re-encodes a linear channel value per the given transfer
// function. invGamma is 1/g, already inverted by Prepare.
func applyOETF(kind TransferKind, invGamma, v float64) float64 {
	switch kind {
	case TransferGamma:
		if v <= 0 {
			return 0
		}
		return math.Pow(v, invGamma)
	case TransferPQ:
		return pqOETF(v)
	case TransferHLG:
		return hlgOETF(v)
	default:
		return v
	}
}

// runRange processes pixels [start, start+count) of a slab, dispatching
// to the reformat-only path, the built-in CCMM math, or the external-CMM
// fallback according to how t was prepared.
func runRange(t *Transform, src, dst []byte, start, count int) {
	srcKind, _ := depthKind(t.srcDepth)
	dstKind, _ := depthKind(t.dstDepth)
	srcBPP := TransformFormatToPixelBytes(t.srcFormat, t.srcDepth)
	dstBPP := TransformFormatToPixelBytes(t.dstFormat, t.dstDepth)
	srcMax := maxChannel(srcKind, t.srcDepth)
	dstMax := maxChannel(dstKind, t.dstDepth)
	srcHasAlpha := t.srcFormat.hasAlpha()
	dstHasAlpha := t.dstFormat.hasAlpha()
	srcStride := srcKind.bytesPerChannel()
	dstStride := dstKind.bytesPerChannel()

	for i := start; i < start+count; i++ {
		so := i * srcBPP
		do := i * dstBPP

		var rgb [3]float64
		for c := 0; c < 3; c++ {
			rgb[c] = decodeChannel(srcKind, src, so+c*srcStride, srcMax)
		}
		alpha := 1.0
		if srcHasAlpha {
			alpha = decodeChannel(srcKind, src, so+3*srcStride, srcMax)
		}

		var out [3]float64
		switch {
		case t.externalCMM():
			out = t.applyExternalCMM(rgb)
		case t.reformatOnly:
			out = rgb
		default:
			lin := [3]float64{
				applyEOTF(t.srcTransfer, t.srcGamma, rgb[0]),
				applyEOTF(t.srcTransfer, t.srcGamma, rgb[1]),
				applyEOTF(t.srcTransfer, t.srcGamma, rgb[2]),
			}
			if t.srcTransfer == TransferHLG {
				// hlgEOTFChannel only inverts the per-channel OETF; the
				// system gamma OOTF that turns the result into
				// display-linear light depends on all three channels, so
				// it is applied here rather than in applyEOTF.
				lin = hlgOOTF(lin, t.srcPeakLuminance)
			}

			mixed := mulVec3(t.matrix, lin)

			if t.dstTransfer == TransferHLG {
				mixed = hlgInverseOOTF(mixed, t.dstPeakLuminance)
			}
			out = [3]float64{
				applyOETF(t.dstTransfer, t.dstInvGamma, mixed[0]),
				applyOETF(t.dstTransfer, t.dstInvGamma, mixed[1]),
				applyOETF(t.dstTransfer, t.dstInvGamma, mixed[2]),
			}
		}

		for c := 0; c < 3; c++ {
			encodeChannel(dstKind, dst, do+c*dstStride, out[c], dstMax)
		}
		if dstHasAlpha {
			a := 1.0
			if srcHasAlpha {
				a = alpha
			}
			encodeChannel(dstKind, dst, do+3*dstStride, a, dstMax)
		}
	}
}

func mulVec3(m [9]float64, v [3]float64) [3]float64 {
	return [3]float64{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2],
		m[3]*v[0] + m[4]*v[1] + m[5]*v[2],
		m[6]*v[0] + m[7]*v[1] + m[8]*v[2],
	}
}
