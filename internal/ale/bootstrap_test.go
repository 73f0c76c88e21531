package ale

import (
	"context"
	"math"
	"testing"

	"gonum.org/v1/gonum/stat"

	"mintpy/domain/core"
	"mintpy/internal/sampling"
	"mintpy/internal/testkit"
)

func TestBootstrapRejectsZeroReplicates(t *testing.T) {
	ds := testkit.UniformDataset(1, 100, 0, 1, "x")
	engine := New(core.OutputRaw)
	_, _, err := engine.Bootstrap(context.Background(), &testkit.LinearModel{Weights: []float64{1}}, ds, "x", BootstrapOptions{NBootstrap: 0})
	if !core.IsConfiguration(err) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestBootstrapSingleReplicateEqualsPlainCurve(t *testing.T) {
	ds := testkit.UniformDataset(2, 400, 0, 5, "x")
	model := &testkit.LinearModel{Weights: []float64{2}}
	engine := New(core.OutputRaw)

	curves, edges, err := engine.Bootstrap(context.Background(), model, ds, "x", BootstrapOptions{NBootstrap: 1})
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if len(curves) != 1 {
		t.Fatalf("got %d curves, want 1", len(curves))
	}
	plain, _, err := engine.FirstOrder(context.Background(), model, ds, "x", edges)
	if err != nil {
		t.Fatalf("FirstOrder: %v", err)
	}
	for i := range plain {
		if curves[0][i] != plain[i] {
			t.Fatalf("bin %d: bootstrap %v != plain %v", i, curves[0][i], plain[i])
		}
	}
}

func TestBootstrapSharesOneGrid(t *testing.T) {
	ds := testkit.UniformDataset(4, 600, 0, 10, "x")
	model := &testkit.LinearModel{Weights: []float64{1}}
	engine := New(core.OutputRaw)

	curves, edges, err := engine.Bootstrap(context.Background(), model, ds, "x", BootstrapOptions{
		NBootstrap: 8,
		RNG:        sampling.NewRNG(),
		Seed:       42,
	})
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if len(curves) != 8 {
		t.Fatalf("got %d curves, want 8", len(curves))
	}
	for i, c := range curves {
		if len(c) != len(edges)-1 {
			t.Fatalf("replicate %d has %d bins, grid implies %d", i, len(c), len(edges)-1)
		}
	}
}

func TestBootstrapDeterministicForFixedSeed(t *testing.T) {
	ds := testkit.UniformDataset(9, 300, 0, 1, "x")
	model := &testkit.LinearModel{Weights: []float64{3}}
	engine := New(core.OutputRaw)
	opts := BootstrapOptions{NBootstrap: 5, Seed: 7, RNG: sampling.NewRNG()}

	a, _, err := engine.Bootstrap(context.Background(), model, ds, "x", opts)
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	b, _, err := engine.Bootstrap(context.Background(), model, ds, "x", opts)
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	for i := range a {
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				t.Fatalf("replicate %d bin %d differs across identical runs", i, j)
			}
		}
	}
}

func TestBootstrapMeanTracksPlainCurve(t *testing.T) {
	ds := testkit.UniformDataset(6, 1000, 0, 10, "x")
	model := &testkit.LinearModel{Weights: []float64{2}}
	engine := New(core.OutputRaw)

	curves, edges, err := engine.Bootstrap(context.Background(), model, ds, "x", BootstrapOptions{
		NBootstrap: 50,
		Seed:       3,
		RNG:        sampling.NewRNG(),
	})
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	plain, _, err := engine.FirstOrder(context.Background(), model, ds, "x", edges)
	if err != nil {
		t.Fatalf("FirstOrder: %v", err)
	}

	for j := range plain {
		col := make([]float64, len(curves))
		for i := range curves {
			col[i] = curves[i][j]
		}
		if diff := math.Abs(stat.Mean(col, nil) - plain[j]); diff > 0.5 {
			t.Errorf("bin %d: ensemble mean off by %v", j, diff)
		}
	}
}
