package montecarlo

import (
	"math"
	"testing"
)

func TestNewRand_SameSeedSameStream(t *testing.T) {
	a := NewRand(42)
	b := NewRand(42)

	for i := 0; i < 1000; i++ {
		if a.Float64() != b.Float64() {
			t.Fatalf("streams diverged at draw %d", i)
		}
	}
}

func TestNewRand_DifferentSeedsDiverge(t *testing.T) {
	a := NewRand(42)
	b := NewRand(43)

	same := 0
	for i := 0; i < 100; i++ {
		if a.Float64() == b.Float64() {
			same++
		}
	}
	if same == 100 {
		t.Error("different seeds produced identical streams")
	}
}

func TestNewRand_FreshGeneratorRestartsStream(t *testing.T) {
	// The seed-per-call discipline depends on a fresh generator
	// reproducing the stream from the start.
	first := NewRand(7)
	var prefix [10]float64
	for i := range prefix {
		prefix[i] = first.NormFloat64()
	}

	second := NewRand(7)
	for i := range prefix {
		if got := second.NormFloat64(); got != prefix[i] {
			t.Fatalf("draw %d: expected %g, got %g", i, prefix[i], got)
		}
	}
}

func TestNormal_LocationAndScale(t *testing.T) {
	rng := NewRand(123)

	const n = 200_000
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = Normal(rng, 40.0, 8.0)
	}

	mean := Mean(samples)
	if math.Abs(mean-40.0) > 0.1 {
		t.Errorf("expected mean near 40.0, got %g", mean)
	}
	stddev := SampleStddev(samples)
	if math.Abs(stddev-8.0) > 0.1 {
		t.Errorf("expected stddev near 8.0, got %g", stddev)
	}
}
