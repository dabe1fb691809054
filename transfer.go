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

import "math"

// TransferKind is the transform engine's view of a channel's transfer
// function, distinct from [ToneCurve]: the engine only needs to know which
// built-in math to run, not how a profile's curve was classified.
type TransferKind int

const (
	// TransferNone is the identity transfer function (linear light).
	TransferNone TransferKind = iota
	// TransferGamma is a pure power-law transfer function.
	TransferGamma
	// TransferPQ is the SMPTE ST.2084 perceptual quantizer.
	TransferPQ
	// TransferHLG is the ARIB STD-B67 Hybrid Log-Gamma transfer function.
	TransferHLG
)

func (k TransferKind) String() string {
	switch k {
	case TransferGamma:
		return "Gamma"
	case TransferPQ:
		return "PQ"
	case TransferHLG:
		return "HLG"
	default:
		return "None"
	}
}

// transferKindFor maps a profile's classified tone curve to the engine's
// transfer-function selector. Complex and Unknown curves have no built-in
// math and must go through the external-CMM fallback; they map to
// TransferNone here only as a harmless default that is never actually
// evaluated on that path.
func transferKindFor(tc ToneCurve) TransferKind {
	switch tc.Kind {
	case ToneCurveGamma:
		return TransferGamma
	case ToneCurvePQ:
		return TransferPQ
	case ToneCurveHLG:
		return TransferHLG
	default:
		return TransferNone
	}
}

// SMPTE ST.2084 (PQ) constants, reproduced as exact rationals.
const (
	pqC1 = 3424.0 / 4096.0
	pqC2 = 32.0 * 2413.0 / 4096.0
	pqC3 = 32.0 * 2392.0 / 4096.0
	pqM1 = (2610.0 / 4096.0) / 4.0
	pqM2 = 128.0 * 2523.0 / 4096.0
)

// pqEOTF converts a PQ-encoded code value N in [0,1] to display light L
// (nominally in [0,1], corresponding to 0-10000 cd/m^2).
func pqEOTF(n float64) float64 {
	if n < 0 {
		n = 0
	}
	np := math.Pow(n, 1/pqM2)
	num := math.Max(np-pqC1, 0)
	den := pqC2 - pqC3*np
	if den <= 0 {
		return 0
	}
	return math.Pow(num/den, 1/pqM1)
}

// pqOETF converts display light L (nominally in [0,1]) to a PQ-encoded
// code value N in [0,1].
func pqOETF(l float64) float64 {
	if l < 0 {
		l = 0
	}
	lm1 := math.Pow(l, pqM1)
	num := pqC1 + pqC2*lm1
	den := 1 + pqC3*lm1
	return math.Pow(num/den, pqM2)
}

// HLG (ARIB STD-B67 / BT.2100) constants.
const (
	hlgA = 0.17883277
	hlgB = 1 - 4*hlgA

	// hlgSystemGamma is the fixed HLG system gamma. hlgOOTF applies it at
	// every peak luminance; the peak luminance only scales the result.
	hlgSystemGamma = 1.2

	// hlgDefaultPeakLuminance is the nominal peak luminance (cd/m^2)
	// assumed when a profile does not specify one, per ARIB STD-B67
	// guidance.
	hlgDefaultPeakLuminance = 1000
)

// hlgC involves math.Log, which Go cannot evaluate at const-initialization
// time, so it is a var rather than folded into the const block above.
var hlgC = 0.5 - hlgA*math.Log(4*hlgA)

// hlgLuma computes the BT.2100 luma of a linear RGB triple.
func hlgLuma(rgb [3]float64) float64 {
	return 0.2627*rgb[0] + 0.6780*rgb[1] + 0.0593*rgb[2]
}

// hlgOOTF applies the HLG system gamma that converts scene light to
// display light, scaled to the given nominal peak luminance.
func hlgOOTF(sceneLinear [3]float64, peakLuminance float64) [3]float64 {
	ys := hlgLuma(sceneLinear)
	var scale float64
	if ys > 0 {
		scale = math.Pow(ys, hlgSystemGamma-1)
	}
	factor := peakLuminance / 1000 * scale
	return [3]float64{
		sceneLinear[0] * factor,
		sceneLinear[1] * factor,
		sceneLinear[2] * factor,
	}
}

// hlgInverseOOTF inverts hlgOOTF. Since display luma
// Yd = Ys^systemGamma * peakLuminance/1000 exactly (by construction of
// hlgOOTF), Ys is recovered in closed form from Yd without needing to
// solve for it iteratively.
func hlgInverseOOTF(displayLinear [3]float64, peakLuminance float64) [3]float64 {
	k := peakLuminance / 1000
	yd := hlgLuma(displayLinear)
	if yd <= 0 || k <= 0 {
		return [3]float64{0, 0, 0}
	}
	factor := math.Pow(yd/k, (hlgSystemGamma-1)/hlgSystemGamma) * k
	if factor <= 0 {
		return [3]float64{0, 0, 0}
	}
	return [3]float64{
		displayLinear[0] / factor,
		displayLinear[1] / factor,
		displayLinear[2] / factor,
	}
}

// hlgOETF converts scene-linear light e in [0,1] to an HLG code value.
func hlgOETF(e float64) float64 {
	if e < 0 {
		e = 0
	}
	if e <= 1.0/12.0 {
		return math.Sqrt(3 * e)
	}
	return hlgA*math.Log(12*e-hlgB) + hlgC
}

// hlgEOTFChannel converts an HLG code value e' in [0,1] back to
// scene-linear light, the per-channel inverse of hlgOETF. Display-referred
// conversion (including the OOTF) happens at the image level in
// hlgOOTF, since it depends on all three channels.
func hlgEOTFChannel(ep float64) float64 {
	if ep < 0 {
		ep = 0
	}
	if ep <= 0.5 {
		return (ep * ep) / 3
	}
	return (math.Exp((ep-hlgC)/hlgA) + hlgB) / 12
}
