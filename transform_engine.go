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
	"github.com/color-core/ccmm/internal/taskpool"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var transformValidate = validator.New()

type transformParams struct {
	SrcDepth int `validate:"oneof=8 9 10 11 12 13 14 15 16 32"`
	DstDepth int `validate:"oneof=8 9 10 11 12 13 14 15 16 32"`
}

// Transform converts pixel buffers between two [Profile]s' colour spaces.
// A nil Profile on either side means "PCS XYZ", and the corresponding
// format must be [FormatXYZ].
//
// Create a Transform with [NewTransform], call [Transform.Prepare] (or let
// the first [Transform.Run] do it implicitly), then call Run as many
// times as needed. A Transform is safe for concurrent [Transform.Run]
// calls once prepared, but Prepare itself is not safe to race against Run.
type Transform struct {
	src, dst             *Profile
	srcFormat, dstFormat PixelFormat
	srcDepth, dstDepth   int

	forceExternalCMM bool
	logger           *zap.Logger

	prepared       bool
	reformatOnly   bool
	useExternalCMM bool

	matrix                             [9]float64
	srcTransfer, dstTransfer           TransferKind
	srcGamma, dstInvGamma              float64
	srcPeakLuminance, dstPeakLuminance float64

	srcDeviceCMM, dstDeviceCMM *DeviceTransform
}

// TransformOption configures optional behaviour of a [Transform].
type TransformOption func(*Transform)

// WithExternalCMM forces every pixel through the [DeviceTransform]
// device<->PCS fallback path (absolute colorimetric, full LUT evaluation)
// instead of the built-in matrix/TRC math, even when both profiles would
// otherwise qualify for the fast path. Useful for validating the fast
// path against the general one.
func WithExternalCMM(force bool) TransformOption {
	return func(t *Transform) {
		t.forceExternalCMM = force
	}
}

// WithTransformLogger attaches a structured logger for diagnostics. The
// default is a no-op logger.
func WithTransformLogger(logger *zap.Logger) TransformOption {
	return func(t *Transform) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// NewTransform validates the requested pixel formats and depths and
// returns an unprepared Transform. src and/or dst may be nil to mean PCS
// XYZ, in which case the matching format must be [FormatXYZ].
func NewTransform(src, dst *Profile, srcFormat, dstFormat PixelFormat, srcDepth, dstDepth int, opts ...TransformOption) (*Transform, error) {
	params := transformParams{SrcDepth: srcDepth, DstDepth: dstDepth}
	if err := transformValidate.Struct(params); err != nil {
		return nil, errors.Wrap(err, "icc: invalid transform pixel depth")
	}
	if TransformFormatToPixelBytes(srcFormat, srcDepth) == 0 {
		return nil, errors.Errorf("icc: source format %s is incompatible with depth %d", srcFormat, srcDepth)
	}
	if TransformFormatToPixelBytes(dstFormat, dstDepth) == 0 {
		return nil, errors.Errorf("icc: destination format %s is incompatible with depth %d", dstFormat, dstDepth)
	}
	if src == nil && srcFormat != FormatXYZ {
		return nil, errors.New("icc: nil source profile requires FormatXYZ")
	}
	if dst == nil && dstFormat != FormatXYZ {
		return nil, errors.New("icc: nil destination profile requires FormatXYZ")
	}

	t := &Transform{
		src: src, dst: dst,
		srcFormat: srcFormat, dstFormat: dstFormat,
		srcDepth: srcDepth, dstDepth: dstDepth,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// profileToPCS derives the RGB-to-XYZ matrix, transfer kind and gamma a
// profile uses on its way to (or from) PCS XYZ. A nil profile stands for
// XYZ itself: identity matrix, no transfer function.
func profileToPCS(p *Profile) (matrix [9]float64, transfer TransferKind, curve ToneCurve, err error) {
	if p == nil {
		return identityMatrix, TransferNone, ToneCurve{Kind: ToneCurveGamma, Gamma: 1}, nil
	}
	prim, curve, _ := p.Query()
	transfer = transferKindFor(curve)
	matrix, err = deriveMatrix(prim)
	return matrix, transfer, curve, err
}

// profilesEqualForTransform reports whether src and dst describe the same
// colour space (same derived primaries, tone curve, and luminance), in
// which case no EOTF/matrix/OETF step is needed and only channel
// reformatting applies. Luminance matters even when primaries and curve
// match: two HLG profiles with the same primaries differing only in peak
// luminance still need their OOTF/inverse-OOTF rescale applied.
func profilesEqualForTransform(a, b *Profile) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	pa, ca, la := a.Query()
	pb, cb, lb := b.Query()
	return pa == pb && ca == cb && la == lb
}

// peakLuminanceFor returns the nominal peak luminance (cd/m^2) used to
// scale a profile's HLG OOTF: the profile's own luminance if set, else the
// ARIB STD-B67 default.
func peakLuminanceFor(p *Profile) float64 {
	if p == nil {
		return hlgDefaultPeakLuminance
	}
	_, _, luminance := p.Query()
	if luminance > 0 {
		return float64(luminance)
	}
	return hlgDefaultPeakLuminance
}

// needsExternalCMM reports whether p's tone curve can't be modelled by the
// built-in Gamma/PQ/HLG math and must instead be run through the general
// [DeviceTransform] LUT/TRC evaluator.
func needsExternalCMM(p *Profile) bool {
	if p == nil {
		return false
	}
	_, curve, _ := p.Query()
	return curve.Kind == ToneCurveComplex || curve.Kind == ToneCurveUnknown
}

// Prepare derives the matrix and transfer functions used by Run. It is
// idempotent and is called automatically by the first Run if not called
// explicitly.
func (t *Transform) Prepare() error {
	if t.prepared {
		return nil
	}

	if !t.forceExternalCMM && profilesEqualForTransform(t.src, t.dst) {
		t.reformatOnly = true
		t.matrix = identityMatrix
		t.srcTransfer, t.dstTransfer = TransferNone, TransferNone
		t.prepared = true
		return nil
	}

	t.useExternalCMM = t.forceExternalCMM || needsExternalCMM(t.src) || needsExternalCMM(t.dst)
	if t.useExternalCMM {
		if t.src != nil {
			cmm, err := NewDeviceTransform(t.src.raw, DeviceToPCS, AbsoluteColorimetric)
			if err != nil {
				return errors.Wrap(err, "icc: prepare source external CMM")
			}
			t.srcDeviceCMM = cmm
		}
		if t.dst != nil {
			cmm, err := NewDeviceTransform(t.dst.raw, PCSToDevice, AbsoluteColorimetric)
			if err != nil {
				return errors.Wrap(err, "icc: prepare destination external CMM")
			}
			t.dstDeviceCMM = cmm
			// FromXYZ builds each sampled TRC's inverse table on first
			// use; build them here so that Run's concurrent slabs only
			// read them.
			cmm.FromXYZ(0, 0, 0)
		}
		t.prepared = true
		return nil
	}

	srcMatrix, srcTransfer, srcCurve, err := profileToPCS(t.src)
	if err != nil {
		return errors.Wrap(err, "icc: derive source matrix")
	}
	dstMatrix, dstTransfer, dstCurve, err := profileToPCS(t.dst)
	if err != nil {
		return errors.Wrap(err, "icc: derive destination matrix")
	}
	dstInv, err := invert3x3(dstMatrix)
	if err != nil {
		return errors.Wrap(err, "icc: invert destination matrix")
	}

	t.matrix = mul3x3(dstInv, srcMatrix)
	t.srcTransfer, t.dstTransfer = srcTransfer, dstTransfer
	t.srcGamma = srcCurve.Gamma
	if dstCurve.Gamma != 0 {
		t.dstInvGamma = 1 / dstCurve.Gamma
	}
	t.srcPeakLuminance = peakLuminanceFor(t.src)
	t.dstPeakLuminance = peakLuminanceFor(t.dst)
	t.prepared = true
	return nil
}

func (t *Transform) externalCMM() bool {
	return t.useExternalCMM
}

// applyExternalCMM routes one pixel through the general device<->PCS
// evaluator instead of the built-in matrix/TRC math.
func (t *Transform) applyExternalCMM(rgb [3]float64) [3]float64 {
	x, y, z := rgb[0], rgb[1], rgb[2]
	if t.srcDeviceCMM != nil {
		x, y, z = t.srcDeviceCMM.ToXYZ(rgb[:])
	}
	if t.dstDeviceCMM != nil {
		out := t.dstDeviceCMM.FromXYZ(x, y, z)
		var result [3]float64
		for i := 0; i < 3 && i < len(out); i++ {
			result[i] = out[i]
		}
		return result
	}
	return [3]float64{x, y, z}
}

// Run converts pixelCount pixels from src to dst, sharding the work
// across taskCount goroutines via the internal task pool. taskCount < 1
// means "choose for me": Run falls back to [taskpool.DefaultParallelism].
// Slabs are disjoint contiguous pixel ranges: the first taskCount-1 slabs
// each get floor(pixelCount/taskCount) pixels, and the last absorbs the
// remainder. Run(n, ...) and Run(1, ...) over the same buffers produce
// identical output; only wall-clock time differs.
func (t *Transform) Run(taskCount int, src, dst []byte, pixelCount int) error {
	if !t.prepared {
		if err := t.Prepare(); err != nil {
			return err
		}
	}
	if pixelCount < 0 {
		return errors.New("icc: negative pixel count")
	}
	if pixelCount == 0 {
		return nil
	}

	srcBPP := TransformFormatToPixelBytes(t.srcFormat, t.srcDepth)
	dstBPP := TransformFormatToPixelBytes(t.dstFormat, t.dstDepth)
	if len(src) < pixelCount*srcBPP {
		return errors.Errorf("icc: source buffer too short: need %d bytes, have %d", pixelCount*srcBPP, len(src))
	}
	if len(dst) < pixelCount*dstBPP {
		return errors.Errorf("icc: destination buffer too short: need %d bytes, have %d", pixelCount*dstBPP, len(dst))
	}

	if taskCount < 1 {
		taskCount = taskpool.DefaultParallelism()
	}
	if taskCount > pixelCount {
		taskCount = pixelCount
	}
	if taskCount == 1 {
		runRange(t, src, dst, 0, pixelCount)
		return nil
	}

	slab := pixelCount / taskCount
	tasks := make([]*taskpool.Task, taskCount)
	for i := 0; i < taskCount; i++ {
		start := i * slab
		count := slab
		if i == taskCount-1 {
			count = pixelCount - start
		}
		s, c := start, count
		tasks[i] = taskpool.Create(func(arg any) {
			runRange(t, src, dst, s, c)
		}, nil)
	}

	var firstErr error
	for _, task := range tasks {
		task.Destroy()
		if err := task.Err(); err != nil && firstErr == nil {
			firstErr = errors.Wrap(err, "icc: transform slab")
		}
	}
	return firstErr
}

// Destroy releases the Transform's cached external-CMM handles. It does
// not need to be called before letting a Transform go out of scope, but
// makes the release point explicit for callers that prepare many
// short-lived transforms.
func (t *Transform) Destroy() {
	t.srcDeviceCMM = nil
	t.dstDeviceCMM = nil
}
