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
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// LuminanceUnspecified can be passed to [Create] or [Profile.SetLuminance]
// to omit the lumi tag, as 0 can. A profile read back from bytes without a
// lumi tag reports a luminance of 0, not LuminanceUnspecified.
const LuminanceUnspecified = -1

// Profile is the higher-level handle the rest of this package works with:
// cached primaries, tone curve, and luminance alongside the byte-exact ICC
// profile they were derived from. Use [ParseProfile], [Create],
// [CreateStockSRGB], or [CreateLinear] to obtain one.
//
// A Profile is not safe for concurrent mutation: concurrent [Transform.Run]
// calls on a [Transform] referencing it are fine, but SetGamma,
// SetLuminance, and SetMLU must not race with them or with each other.
type Profile struct {
	raw *RawProfile

	primaries   Primaries
	toneCurve   ToneCurve
	luminance   int
	description string

	logger *zap.Logger
}

// ProfileOption configures optional collaborators of a [Profile].
type ProfileOption func(*Profile)

// WithLogger attaches a structured logger used for diagnostics. Parsing
// logs a warning, alongside the returned error, when the profile's
// primaries cannot be derived. The default is a no-op logger, so using
// this package never requires configuring logging.
func WithLogger(logger *zap.Logger) ProfileOption {
	return func(p *Profile) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// ParseProfile loads ICC profile bytes and derives its primaries, tone
// curve, and luminance. description overrides the tag-derived description
// when non-empty; otherwise the profile's desc tag is used, falling back
// to the literal "Unknown".
func ParseProfile(data []byte, description string, opts ...ProfileOption) (*Profile, error) {
	owned := make([]byte, len(data))
	copy(owned, data)

	raw, err := Decode(owned)
	if err != nil {
		return nil, errors.Wrap(err, "icc: parse profile")
	}
	return newProfile(raw, description, opts...)
}

// Unpack is an alias for [ParseProfile] with no description override,
// matching [Pack]'s naming.
func Unpack(data []byte) (*Profile, error) {
	return ParseProfile(data, "")
}

func newProfile(raw *RawProfile, description string, opts ...ProfileOption) (*Profile, error) {
	p := &Profile{raw: raw, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}

	if description != "" {
		p.description = description
	} else {
		p.description = readDescription(raw)
	}

	primaries, err := derivePrimaries(raw)
	if err != nil {
		p.logger.Warn("icc: could not derive primaries",
			zap.String("description", p.description), zap.Error(err))
		return nil, errors.Wrap(err, "icc: query profile")
	}
	p.primaries = primaries
	p.toneCurve = deriveToneCurve(raw, false)
	p.luminance = readLuminance(raw)

	return p, nil
}

func readDescription(raw *RawProfile) string {
	data, ok := raw.TagData[ProfileDescription]
	if !ok {
		return "Unknown"
	}
	if mlu, err := decodeMLUC(data); err == nil && len(mlu) > 0 {
		return mlu[0].Value
	}
	if s, err := decodeText(data); err == nil {
		return s
	}
	return "Unknown"
}

func readLuminance(raw *RawProfile) int {
	data, ok := raw.TagData[Luminance]
	if !ok {
		return 0
	}
	xyz, err := parseXYZ(data)
	if err != nil {
		return 0
	}
	return int(xyz[1])
}

// Pack serialises a profile to byte-exact ICC bytes.
func Pack(p *Profile) ([]byte, error) {
	data, err := p.raw.Encode()
	if err != nil {
		return nil, errors.Wrap(err, "icc: pack profile")
	}
	return data, nil
}

// Clone returns an independent copy of p by packing and re-parsing it, so
// that mutating setters on the clone never affect the original.
func (p *Profile) Clone() (*Profile, error) {
	data, err := Pack(p)
	if err != nil {
		return nil, err
	}
	return ParseProfile(data, p.description, WithLogger(p.logger))
}

// Create synthesizes a display-RGB profile from primaries, a tone curve,
// a luminance (cd/m^2, or [LuminanceUnspecified]/0 to omit the lumi tag),
// and a description. The colorant tags are computed from primaries via
// the Hoffmann-formulation matrix derivation, so the resulting profile's
// rXYZ/gXYZ/bXYZ tags are self-consistent with its white point.
func Create(primaries Primaries, curve ToneCurve, luminance int, description string, opts ...ProfileOption) (*Profile, error) {
	if err := primaries.Validate(); err != nil {
		return nil, err
	}

	m, err := deriveMatrix(primaries)
	if err != nil {
		return nil, err
	}

	raw := &RawProfile{
		Version:         currentVersion,
		Class:           DisplayDeviceProfile,
		ColorSpace:      RGBSpace,
		PCS:             PCSXYZSpace,
		CreationDate:    time.Now().UTC(),
		RenderingIntent: Perceptual,
		TagData:         make(map[TagType][]byte),
	}

	raw.TagData[RedMatrixColumn] = encodeXYZ(m[0], m[3], m[6])
	raw.TagData[GreenMatrixColumn] = encodeXYZ(m[1], m[4], m[7])
	raw.TagData[BlueMatrixColumn] = encodeXYZ(m[2], m[5], m[8])

	wx, wy := primaries.Wx, primaries.Wy
	raw.TagData[MediaWhitePoint] = encodeXYZ(wx/wy, 1, (1-wx-wy)/wy)

	trcData := encodeToneCurve(curve)
	raw.TagData[RedTRC] = trcData
	raw.TagData[GreenTRC] = trcData
	raw.TagData[BlueTRC] = trcData

	if luminance > 0 {
		raw.TagData[Luminance] = encodeXYZ(0, float64(luminance), 0)
	}

	raw.TagData[ProfileDescription] = encodeMLUC(MultiLocalizedUnicode{
		{Language: "en", Country: "US", Value: description},
	})

	p := &Profile{
		raw:         raw,
		primaries:   primaries,
		toneCurve:   curve,
		luminance:   luminance,
		description: description,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// CreateStockSRGB returns the reference sRGB profile: BT.709 primaries,
// Gamma(2.4), 300 cd/m^2.
func CreateStockSRGB(opts ...ProfileOption) *Profile {
	p, err := Create(sRGBPrimaries, ToneCurve{Kind: ToneCurveGamma, Gamma: sRGBGamma}, sRGBLuminance, sRGBDescr, opts...)
	if err != nil {
		// sRGBPrimaries are a fixed, known-good triangle; this can only
		// fail if that constant is corrupted.
		panic(errors.Wrap(err, "icc: stock sRGB profile"))
	}
	return p
}

// CreateLinear returns a profile with the same primaries and luminance as
// source, but with curve = Gamma(1.0) and description = source's
// description plus " (Linear)".
func CreateLinear(source *Profile, opts ...ProfileOption) *Profile {
	p, err := Create(source.primaries, ToneCurve{Kind: ToneCurveGamma, Gamma: 1.0}, source.luminance, source.description+" (Linear)", opts...)
	if err != nil {
		panic(errors.Wrap(err, "icc: linearised profile"))
	}
	return p
}

// Query returns the profile's cached primaries, tone curve, and
// luminance.
func (p *Profile) Query() (Primaries, ToneCurve, int) {
	return p.primaries, p.toneCurve, p.luminance
}

// Description returns the profile's cached description.
func (p *Profile) Description() string {
	return p.description
}

// SetGamma rewrites the profile's R/G/B tone curves to a pure power-law
// curve with the given exponent.
func (p *Profile) SetGamma(g float64) error {
	if g <= 0 {
		return errors.New("icc: gamma must be positive")
	}
	curve := ToneCurve{Kind: ToneCurveGamma, Gamma: g}
	data := encodeToneCurve(curve)
	p.raw.TagData[RedTRC] = data
	p.raw.TagData[GreenTRC] = data
	p.raw.TagData[BlueTRC] = data
	p.toneCurve = curve
	return nil
}

// SetLuminance rewrites the profile's lumi tag.
func (p *Profile) SetLuminance(lum int) {
	if lum <= 0 {
		delete(p.raw.TagData, Luminance)
	} else {
		p.raw.TagData[Luminance] = encodeXYZ(0, float64(lum), 0)
	}
	p.luminance = lum
}

// GetMLU reads a single language/country record from a multi-localized
// Unicode tag. tagName is a 4-character ICC tag signature (e.g. "desc",
// "cprt") read in ICC byte order.
func (p *Profile) GetMLU(tagName, lang, country string) (string, error) {
	data, ok := p.raw.TagData[tagSigFromName(tagName)]
	if !ok {
		return "", errors.Wrapf(errMissingTag, "icc: tag %q", tagName)
	}
	mlu, err := decodeMLUC(data)
	if err != nil {
		if s, terr := decodeText(data); terr == nil {
			return s, nil
		}
		return "", errors.Wrapf(err, "icc: decode MLU tag %q", tagName)
	}
	for _, lu := range mlu {
		if lu.Language == lang && lu.Country == country {
			return lu.Value, nil
		}
	}
	return "", errors.Errorf("icc: no %s_%s record in tag %q", lang, country, tagName)
}

// SetMLU writes (or replaces) a single language/country record in a
// multi-localized Unicode tag. lang and country are validated as BCP-47
// base language and region subtags before the tag is touched, so a
// malformed locale never makes it into an unreadable on-disk tag.
func (p *Profile) SetMLU(tagName, lang, country, value string) error {
	if _, err := language.ParseBase(lang); err != nil {
		return errors.Wrapf(err, "icc: invalid language %q", lang)
	}
	if _, err := language.ParseRegion(country); err != nil {
		return errors.Wrapf(err, "icc: invalid country %q", country)
	}

	sig := tagSigFromName(tagName)
	var mlu MultiLocalizedUnicode
	if data, ok := p.raw.TagData[sig]; ok {
		if existing, err := decodeMLUC(data); err == nil {
			mlu = existing
		}
	}

	replaced := false
	for i := range mlu {
		if mlu[i].Language == lang && mlu[i].Country == country {
			mlu[i].Value = value
			replaced = true
			break
		}
	}
	if !replaced {
		mlu = append(mlu, LocalizedUnicode{Language: lang, Country: country, Value: value})
	}

	p.raw.TagData[sig] = encodeMLUC(mlu)
	return nil
}

// tagSigFromName builds a TagType from a 4-character ICC tag name, read in
// ICC byte order (big-endian, left to right).
func tagSigFromName(name string) TagType {
	var b [4]byte
	copy(b[:], name)
	return TagType(uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]))
}

// encodeXYZ encodes an XYZType tag (the wire format used by wtpt,
// rXYZ/gXYZ/bXYZ, and lumi).
func encodeXYZ(x, y, z float64) []byte {
	buf := make([]byte, 20)
	copy(buf[0:4], "XYZ ")
	putS15Fixed16(buf, 8, x)
	putS15Fixed16(buf, 12, y)
	putS15Fixed16(buf, 16, z)
	return buf
}

// encodeToneCurve encodes a ToneCurve as ICC tag data, mirrored onto each
// of R/G/B. Gamma curves become a parametricCurveType FuncType 0 (s15Fixed16
// precision, 1/65536) rather than a curveType gamma sample (u8Fixed8Number,
// only 1/256), so that round-tripping a profile through Pack/ParseProfile
// preserves the gamma to much tighter tolerance. PQ and HLG become a sampled
// curveType approximating the EOTF, so that the written profile round-trips
// through decode/classify without requiring the caller to pre-pack an
// equivalent curve externally.
func encodeToneCurve(tc ToneCurve) []byte {
	switch tc.Kind {
	case ToneCurveGamma:
		return (&Curve{FuncType: 0, Params: []float64{tc.Gamma}}).Encode()
	case ToneCurvePQ:
		return (&Curve{Table: sampleCurve(pqEOTFNormalized)}).Encode()
	case ToneCurveHLG:
		return (&Curve{Table: sampleCurve(hlgEOTFChannel)}).Encode()
	default:
		return (&Curve{Gamma: 1.0}).Encode()
	}
}

// pqEOTFNormalized clamps pqEOTF's output (where 1 stands for
// 10000 cd/m^2) into [0,1] so it can be stored in a standard ICC sampled
// curve.
func pqEOTFNormalized(n float64) float64 {
	return clamp(pqEOTF(n), 0, 1)
}

const toneCurveTableSize = 1024

func sampleCurve(eotf func(float64) float64) []uint16 {
	table := make([]uint16, toneCurveTableSize)
	for i := range table {
		x := float64(i) / float64(toneCurveTableSize-1)
		table[i] = uint16(clamp(eotf(x), 0, 1) * 65535.0)
	}
	return table
}
