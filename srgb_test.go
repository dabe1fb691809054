package icc

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fastrand"
)

func TestStockSRGBQuery(t *testing.T) {
	p := CreateStockSRGB()
	primaries, curve, luminance := p.Query()

	const eps = 1e-6
	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"Rx", primaries.Rx, 0.64}, {"Ry", primaries.Ry, 0.33},
		{"Gx", primaries.Gx, 0.30}, {"Gy", primaries.Gy, 0.60},
		{"Bx", primaries.Bx, 0.15}, {"By", primaries.By, 0.06},
		{"Wx", primaries.Wx, 0.3127}, {"Wy", primaries.Wy, 0.3290},
	}
	for _, c := range checks {
		if math.Abs(c.got-c.want) > eps {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
	if curve.Kind != ToneCurveGamma {
		t.Errorf("curve kind = %v, want ToneCurveGamma", curve.Kind)
	}
	if math.Abs(curve.Gamma-2.4) > eps {
		t.Errorf("curve gamma = %v, want 2.4", curve.Gamma)
	}
	if luminance != 300 {
		t.Errorf("luminance = %v, want 300", luminance)
	}
}

func TestStockSRGBPackParseRoundTrip(t *testing.T) {
	p := CreateStockSRGB()
	data, err := Pack(p)
	require.NoError(t, err)

	q, err := ParseProfile(data, "")
	require.NoError(t, err)

	wantPrim, wantCurve, wantLum := p.Query()
	gotPrim, gotCurve, gotLum := q.Query()

	// Primaries round-trip through s15Fixed16 XYZ tags and back through
	// xyY, and gamma round-trips through an s15Fixed16 parametric curve
	// parameter: neither is bit-exact, only exact to the tolerances a
	// colour-managed pipeline actually cares about.
	const chromaTol = 1e-4
	const gammaTol = 1e-3
	if diff := cmp.Diff(wantPrim, gotPrim, cmpopts.EquateApprox(0, chromaTol)); diff != "" {
		t.Errorf("primaries mismatch after round trip (-want +got):\n%s", diff)
	}
	if gotCurve.Kind != wantCurve.Kind || math.Abs(gotCurve.Gamma-wantCurve.Gamma) > gammaTol {
		t.Errorf("curve mismatch after round trip: got %+v, want %+v", gotCurve, wantCurve)
	}
	if gotLum != wantLum {
		t.Errorf("luminance mismatch after round trip: got %v, want %v", gotLum, wantLum)
	}
}

func TestStockSRGBDeviceTransform(t *testing.T) {
	p := CreateStockSRGB()
	tr, err := NewDeviceTransform(p.raw, DeviceToPCS, Perceptual)
	require.NoError(t, err)

	X, Y, Z := tr.ToXYZ([]float64{1, 1, 1})
	if math.Abs(X-0.9642) > 0.02 || math.Abs(Y-1.0) > 0.02 || math.Abs(Z-0.8249) > 0.02 {
		t.Errorf("white -> XYZ = (%v, %v, %v), want D50 white point", X, Y, Z)
	}

	X, Y, Z = tr.ToXYZ([]float64{0, 0, 0})
	if math.Abs(X) > 0.01 || math.Abs(Y) > 0.01 || math.Abs(Z) > 0.01 {
		t.Errorf("black -> XYZ = (%v, %v, %v), want near zero", X, Y, Z)
	}

	_, yR, _ := tr.ToXYZ([]float64{1, 0, 0})
	_, yG, _ := tr.ToXYZ([]float64{0, 1, 0})
	if yR >= yG {
		t.Errorf("red luminance (%v) >= green luminance (%v)", yR, yG)
	}
}

// TestStockSRGBPrimariesXYZ checks that the sRGB primaries map to the
// expected XYZ coordinates in the D50 profile connection space. The
// reference values are the sRGB-to-XYZ(D65) matrix columns, adapted to
// D50 using the Bradford transform.
func TestStockSRGBPrimariesXYZ(t *testing.T) {
	type xyz struct{ X, Y, Z float64 }
	cases := []struct {
		name  string
		input []float64
		want  xyz
	}{
		{"red", []float64{1, 0, 0}, xyz{0.4361, 0.2225, 0.0139}},
		{"green", []float64{0, 1, 0}, xyz{0.3851, 0.7169, 0.0971}},
		{"blue", []float64{0, 0, 1}, xyz{0.1431, 0.0606, 0.7141}},
	}

	p := CreateStockSRGB()
	tr, err := NewDeviceTransform(p.raw, DeviceToPCS, Perceptual)
	require.NoError(t, err)

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			X, Y, Z := tr.ToXYZ(c.input)
			const eps = 0.005
			if math.Abs(X-c.want.X) > eps || math.Abs(Y-c.want.Y) > eps || math.Abs(Z-c.want.Z) > eps {
				t.Errorf("XYZ = (%.4f, %.4f, %.4f), want (%.4f, %.4f, %.4f)",
					X, Y, Z, c.want.X, c.want.Y, c.want.Z)
			}
		})
	}
}

func TestStockSRGBDeviceRoundTrip(t *testing.T) {
	p := CreateStockSRGB()
	fwd, err := NewDeviceTransform(p.raw, DeviceToPCS, Perceptual)
	require.NoError(t, err)
	inv, err := NewDeviceTransform(p.raw, PCSToDevice, Perceptual)
	require.NoError(t, err)

	// Sample a spread of colours via go-colorful's HSV space rather than a
	// hand-picked list, so the round trip is checked across hue/saturation
	// combinations in addition to the primaries and grey axis.
	inputs := [][]float64{{0, 0, 0}, {1, 1, 1}, {0.5, 0.5, 0.5}}
	for h := 0.0; h < 360; h += 45 {
		c := colorful.Hsv(h, 0.8, 0.7)
		inputs = append(inputs, []float64{c.R, c.G, c.B})
	}

	for _, rgb := range inputs {
		X, Y, Z := fwd.ToXYZ(rgb)
		back := inv.FromXYZ(X, Y, Z)
		for i := range rgb {
			if math.Abs(back[i]-rgb[i]) > 0.02 {
				t.Errorf("round-trip %v -> XYZ(%v,%v,%v) -> %v", rgb, X, Y, Z, back)
				break
			}
		}
	}
}

func TestTransformIdentityReformatOnly(t *testing.T) {
	p := CreateStockSRGB()
	tr, err := NewTransform(p, p, FormatRGB, FormatRGBA, 8, 8)
	require.NoError(t, err)
	require.NoError(t, tr.Prepare())
	if !tr.reformatOnly {
		t.Fatal("expected identical source/destination profiles to select the reformat-only path")
	}

	src := []byte{10, 20, 30, 200, 201, 202}
	dst := make([]byte, 8)
	require.NoError(t, tr.Run(1, src, dst, 2))

	want := []byte{10, 20, 30, 255, 200, 201, 202, 255}
	if diff := cmp.Diff(want, dst); diff != "" {
		t.Errorf("reformat-only output mismatch (-want +got):\n%s", diff)
	}
}

func TestTransformParallelDeterminism(t *testing.T) {
	p := CreateStockSRGB()
	linear := CreateLinear(p)
	tr, err := NewTransform(p, linear, FormatRGB, FormatRGB, 8, 8)
	require.NoError(t, err)

	const pixelCount = 1000003
	src := make([]byte, pixelCount*3)
	for i := range src {
		src[i] = byte(fastrand.Uint32())
	}

	var reference []byte
	// taskCount 0 exercises Run's fall back to taskpool.DefaultParallelism.
	for _, taskCount := range []int{1, 3, 7, 0} {
		dst := make([]byte, pixelCount*3)
		require.NoError(t, tr.Run(taskCount, src, dst, pixelCount))
		if reference == nil {
			reference = dst
			continue
		}
		if diff := cmp.Diff(reference, dst); diff != "" {
			t.Errorf("taskCount=%d produced different output than taskCount=1 (-want +got):\n%s", taskCount, diff)
		}
	}
}
