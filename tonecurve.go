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
	"math"
	"slices"
	"strings"
)

// ToneCurveKind classifies a profile's tone response curve. It is named
// ToneCurve (rather than plain Curve, as in the source spec this package
// implements) to avoid colliding with [Curve], the ICC-tag-level TRC
// decoder that this type is built on top of.
type ToneCurveKind int

const (
	// ToneCurveUnknown means the tone curve could not be classified.
	ToneCurveUnknown ToneCurveKind = iota
	// ToneCurveGamma is a pure power-law curve: y = x^Gamma.
	ToneCurveGamma
	// ToneCurvePQ is the SMPTE ST.2084 perceptual quantizer.
	ToneCurvePQ
	// ToneCurveHLG is the ARIB STD-B67 / BT.2100 Hybrid Log-Gamma curve.
	ToneCurveHLG
	// ToneCurveComplex is any other parametric or sampled curve; Gamma
	// carries the best estimate of its exponent, or
	// EstimatedGammaUnknown if none could be derived.
	ToneCurveComplex
)

// EstimatedGammaUnknown is the sentinel stored in ToneCurve.Gamma for a
// ToneCurveComplex curve whose exponent could not be estimated.
const EstimatedGammaUnknown = -1

// ToneCurve describes a profile's tone reproduction curve at the level of
// abstraction the transform engine needs, rather than as raw ICC tag
// bytes.
type ToneCurve struct {
	Kind ToneCurveKind

	// Gamma is the exponent for ToneCurveGamma, or the estimated exponent
	// for ToneCurveComplex (EstimatedGammaUnknown if it could not be
	// estimated). Unused for ToneCurvePQ, ToneCurveHLG, ToneCurveUnknown.
	Gamma float64

	// MatrixCurveScale records a^g computed from the first two
	// parameters of an A2B0 "para" matrix-curve tag of parametric type
	// 1-4, when present. Zero if not derived.
	MatrixCurveScale float64
}

func (k ToneCurveKind) String() string {
	switch k {
	case ToneCurveGamma:
		return "Gamma"
	case ToneCurvePQ:
		return "PQ"
	case ToneCurveHLG:
		return "HLG"
	case ToneCurveComplex:
		return "Complex"
	default:
		return "Unknown"
	}
}

// deriveToneCurve reads the red TRC tag (or the A2B0 matrix-curve's
// curves when no red TRC is present), classifies it, and checks whether
// the profile declares ST.2084 or HLG semantics, either through its
// description or through a red TRC equal to the sampled PQ/HLG curve that
// encodeToneCurve writes.
func deriveToneCurve(p *RawProfile, pqHint bool) ToneCurve {
	if pqHint || declaresPQ(p) {
		return ToneCurve{Kind: ToneCurvePQ}
	}
	if declaresHLG(p) {
		return ToneCurve{Kind: ToneCurveHLG}
	}

	rtrcData, hasRTRC := p.TagData[RedTRC]
	if !hasRTRC {
		if _, hasA2B0 := p.TagData[AToB0]; hasA2B0 {
			tc := ToneCurve{Kind: ToneCurveComplex, Gamma: EstimatedGammaUnknown}
			if scale, ok := matrixCurveScale(p); ok {
				tc.MatrixCurveScale = scale
			}
			return tc
		}
		return ToneCurve{Kind: ToneCurveUnknown, Gamma: EstimatedGammaUnknown}
	}

	curve, err := DecodeCurve(rtrcData)
	if err != nil {
		return ToneCurve{Kind: ToneCurveUnknown, Gamma: EstimatedGammaUnknown}
	}

	if curve.Table != nil {
		switch {
		case slices.Equal(curve.Table, sampleCurve(pqEOTFNormalized)):
			return ToneCurve{Kind: ToneCurvePQ}
		case slices.Equal(curve.Table, sampleCurve(hlgEOTFChannel)):
			return ToneCurve{Kind: ToneCurveHLG}
		}
	}

	if isPureGamma(curve) {
		return ToneCurve{Kind: ToneCurveGamma, Gamma: pureGammaValue(curve)}
	}

	return ToneCurve{Kind: ToneCurveComplex, Gamma: estimateGamma(curve)}
}

// isPureGamma reports whether c is LCMS parametric type 1 (curveType with
// a single gamma sample, or parametricCurveType 0: y = x^g).
func isPureGamma(c *Curve) bool {
	if c.Table != nil {
		return false
	}
	if c.Params != nil {
		return c.FuncType == 0
	}
	return c.Gamma != 0
}

// pureGammaValue returns the exponent of a curve for which isPureGamma
// reported true, whether it came from a curveType gamma sample (Curve.Gamma)
// or a parametricCurveType FuncType 0 (Curve.Params[0]).
func pureGammaValue(c *Curve) float64 {
	if c.Params != nil {
		return c.Params[0]
	}
	return c.Gamma
}

// estimateGamma samples a non-pure-gamma curve at a representative input
// and solves for the exponent that would produce the same output, giving
// callers a usable approximation for complex curves.
func estimateGamma(c *Curve) float64 {
	const probe = 0.5
	y := c.Evaluate(probe)
	if y <= 0 || y >= 1 {
		return EstimatedGammaUnknown
	}
	return math.Log(y) / math.Log(probe)
}

// matrixCurveScale computes a^g from the first "para" matrix curve
// (parametric type 1-4) referenced by the A2B0 tag's M-curve section, if
// present.
func matrixCurveScale(p *RawProfile) (float64, bool) {
	a2b0, ok := p.TagData[AToB0]
	if !ok {
		return 0, false
	}
	lut, err := DecodeLut(a2b0)
	if err != nil {
		return 0, false
	}
	ab, ok := lut.(*LutAToB)
	if !ok || len(ab.mCurves) == 0 {
		return 0, false
	}
	c := ab.mCurves[0]
	if c.Params == nil || c.FuncType < 1 || c.FuncType > 4 || len(c.Params) < 3 {
		return 0, false
	}
	g, a := c.Params[0], c.Params[1]
	return math.Pow(a, g), true
}

// declaresPQ inspects the profile description for a non-standard marker
// that this implementation recognises as declaring ST.2084 semantics. A
// real reference CMM typically also accepts an explicit caller hint (see
// deriveToneCurve's pqHint parameter) for profiles that carry no textual
// marker at all.
func declaresPQ(p *RawProfile) bool {
	return descriptionContains(p, "pq") || descriptionContains(p, "st2084") || descriptionContains(p, "2084")
}

// declaresHLG is the HLG analogue of declaresPQ.
func declaresHLG(p *RawProfile) bool {
	return descriptionContains(p, "hlg") || descriptionContains(p, "b67")
}

func descriptionContains(p *RawProfile, marker string) bool {
	data, ok := p.TagData[ProfileDescription]
	if !ok {
		return false
	}
	mlu, err := decodeMLUC(data)
	if err == nil {
		for _, lu := range mlu {
			if strings.Contains(strings.ToLower(lu.Value), marker) {
				return true
			}
		}
		return false
	}
	s, err := decodeText(data)
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(s), marker)
}
