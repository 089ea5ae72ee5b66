package noise

import "testing"

var testParams = Params{Scale: 64, Octaves: 4, Persistence: 0.5, Lacunarity: 2}

func TestSource_Deterministic(t *testing.T) {
	a := NewSource(99)
	b := NewSource(99)
	for i := 0; i < 50; i++ {
		x, z := float64(i*13), float64(i*-7)
		if a.Layered2D(x, z, testParams) != b.Layered2D(x, z, testParams) {
			t.Fatalf("Layered2D diverges at (%v,%v)", x, z)
		}
		if a.Ridged2D(x, z, testParams) != b.Ridged2D(x, z, testParams) {
			t.Fatalf("Ridged2D diverges at (%v,%v)", x, z)
		}
		if a.Approx3D(x, 40, z, testParams) != b.Approx3D(x, 40, z, testParams) {
			t.Fatalf("Approx3D diverges at (%v,%v)", x, z)
		}
	}
}

func TestSource_SeedsDecorrelate(t *testing.T) {
	a := NewSource(1)
	b := NewSource(2)
	same := 0
	const n = 100
	for i := 0; i < n; i++ {
		x, z := float64(i*31), float64(i*17)
		if a.Layered2D(x, z, testParams) == b.Layered2D(x, z, testParams) {
			same++
		}
	}
	if same > n/10 {
		t.Fatalf("seeds 1 and 2 agree at %d/%d samples", same, n)
	}
}

func TestUnit2D_Range(t *testing.T) {
	s := NewSource(7)
	for i := 0; i < 200; i++ {
		x, z := float64(i*23-1000), float64(i*41-2000)
		v := s.Unit2D(x, z, testParams)
		if v < 0 || v > 1 {
			t.Fatalf("Unit2D(%v,%v) = %v outside [0,1]", x, z, v)
		}
	}
}

func TestRidged2D_Range(t *testing.T) {
	s := NewSource(7)
	for i := 0; i < 200; i++ {
		x, z := float64(i*19-500), float64(i*37-900)
		v := s.Ridged2D(x, z, testParams)
		if v < 0 || v > 1 {
			t.Fatalf("Ridged2D(%v,%v) = %v outside [0,1]", x, z, v)
		}
	}
}

func TestApprox3D_Range(t *testing.T) {
	s := NewSource(7)
	for i := 0; i < 200; i++ {
		x := float64(i*11 - 700)
		y := float64(i % 128)
		z := float64(i*29 - 300)
		v := s.Approx3D(x, y, z, testParams)
		if v < 0 || v > 1 {
			t.Fatalf("Approx3D(%v,%v,%v) = %v outside [0,1]", x, y, z, v)
		}
	}
}

func TestLayered2D_ZeroOctaves(t *testing.T) {
	s := NewSource(7)
	if v := s.Layered2D(10, 10, Params{Scale: 64}); v != 0 {
		t.Fatalf("zero-octave noise = %v, want 0", v)
	}
}

func TestLayered2D_TinyScaleDoesNotPanic(t *testing.T) {
	s := NewSource(7)
	_ = s.Layered2D(3, 4, Params{Scale: 0, Octaves: 2, Persistence: 0.5, Lacunarity: 2})
}
