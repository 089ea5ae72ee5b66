// Package noise provides the scalar noise primitives terrain generation is
// built from: layered 2D, ridged 2D, and a deliberately cheap approximate 3D.
package noise

import (
	"math"

	"github.com/aquilax/go-perlin"

	"voxelforge.dev/internal/mathx"
)

// minScale guards against division by zero in frequency math.
const minScale = 1e-4

// maxOctaves bounds the per-source offset table.
const maxOctaves = 8

// Params tunes one noise field.
type Params struct {
	Scale       float64 // input wavelength in blocks
	Octaves     int
	Persistence float64 // amplitude decay per octave
	Lacunarity  float64 // frequency growth per octave
}

// Source is a deterministic noise generator for one seed. All methods are
// pure: for a fixed seed and inputs they always return the same value.
type Source struct {
	p       *perlin.Perlin
	offsets [maxOctaves][2]float64
}

// NewSource builds a source. The seed both seeds the underlying gradient
// table and perturbs per-octave input offsets so that two sources with
// different seeds decorrelate even at equal coordinates.
func NewSource(seed int64) *Source {
	s := &Source{
		// Single internal iteration; octave layering is done here so that
		// persistence and lacunarity stay caller-controlled.
		p: perlin.NewPerlin(2, 2, 1, seed),
	}
	for i := 0; i < maxOctaves; i++ {
		h := mathx.Hash2(seed, i, 0x5eed)
		s.offsets[i][0] = float64(h%100000)/10.0 - 5000
		s.offsets[i][1] = float64((h>>20)%100000)/10.0 - 5000
	}
	return s
}

func clampScale(scale float64) float64 {
	if scale < minScale {
		return minScale
	}
	return scale
}

// Layered2D sums octaves of bipolar coherent noise at decreasing amplitude
// and increasing frequency. Output is normalized to roughly [-1, 1].
func (s *Source) Layered2D(x, z float64, p Params) float64 {
	scale := clampScale(p.Scale)
	amp := 1.0
	freq := 1.0
	sum := 0.0
	norm := 0.0
	for i := 0; i < p.Octaves && i < maxOctaves; i++ {
		off := s.offsets[i]
		sum += s.p.Noise2D((x+off[0])/scale*freq, (z+off[1])/scale*freq) * amp
		norm += amp
		amp *= p.Persistence
		freq *= p.Lacunarity
	}
	if norm == 0 {
		return 0
	}
	return sum / norm
}

// Unit2D is Layered2D remapped to [0, 1].
func (s *Source) Unit2D(x, z float64, p Params) float64 {
	return mathx.Clamp01((s.Layered2D(x, z, p) + 1) * 0.5)
}

// Ridged2D produces sharp ridgelines in [0, 1]. Per octave the bipolar sample
// n becomes 1-|n| (the fold), is squared, and is attenuated by a running
// weight that decays by clamp01(value*persistence) each octave.
func (s *Source) Ridged2D(x, z float64, p Params) float64 {
	scale := clampScale(p.Scale)
	amp := 1.0
	freq := 1.0
	weight := 1.0
	sum := 0.0
	norm := 0.0
	for i := 0; i < p.Octaves && i < maxOctaves; i++ {
		off := s.offsets[i]
		n := s.p.Noise2D((x+off[0])/scale*freq, (z+off[1])/scale*freq)
		r := 1 - math.Abs(n)
		r *= r
		r *= weight
		weight = mathx.Clamp01(r * p.Persistence)
		sum += r * amp
		norm += amp
		amp *= p.Persistence
		freq *= p.Lacunarity
	}
	if norm == 0 {
		return 0
	}
	return mathx.Clamp01(sum / norm)
}

// Approx3D is a stand-in for true 3D coherent noise: it averages 2D
// evaluations over the three axis pairs and their reverses. Cheap, but with
// visible axis-aligned bias; callers accept that trade. Output in [0, 1].
func (s *Source) Approx3D(x, y, z float64, p Params) float64 {
	scale := clampScale(p.Scale)
	xs := x / scale
	ys := y / scale
	zs := z / scale
	sum := s.p.Noise2D(xs, ys) +
		s.p.Noise2D(ys, zs) +
		s.p.Noise2D(xs, zs) +
		s.p.Noise2D(ys, xs) +
		s.p.Noise2D(zs, ys) +
		s.p.Noise2D(zs, xs)
	return mathx.Clamp01((sum/6 + 1) * 0.5)
}
