package permutation

import (
	"context"
	"testing"

	"mintpy/domain/core"
	"mintpy/internal/sampling"
	"mintpy/internal/testkit"
	"mintpy/ports"
)

func signalFixture() (*testkit.LogisticModel, Config) {
	model := &testkit.LogisticModel{Weights: []float64{2, 0, 0}}
	cfg := Config{
		EvaluationFn: "auc",
		NBootstrap:   10,
		RNG:          sampling.NewRNG(),
		Seed:         42,
	}
	return model, cfg
}

func TestSinglePassRanksSignalFirst(t *testing.T) {
	ds := testkit.SignalNoiseDataset(1, 600, 2)
	model, cfg := signalFixture()
	engine := New(core.OutputProbability)

	res, err := engine.SinglePass(context.Background(), model, ds, cfg)
	if err != nil {
		t.Fatalf("SinglePass: %v", err)
	}
	if res.SinglePassRanking[0] != "signal" {
		t.Errorf("top feature = %s, want signal", res.SinglePassRanking[0])
	}
	if len(res.Original) != 10 {
		t.Errorf("baseline has %d replicates, want 10", len(res.Original))
	}
	for f, scores := range res.SinglePass {
		if len(scores) != 10 {
			t.Errorf("feature %s has %d replicates, want 10", f, len(scores))
		}
	}
}

func TestMultiPassFirstRoundMatchesSinglePass(t *testing.T) {
	ds := testkit.SignalNoiseDataset(2, 400, 2)
	model, cfg := signalFixture()
	engine := New(core.OutputProbability)

	multi, err := engine.MultiPass(context.Background(), model, ds, cfg)
	if err != nil {
		t.Fatalf("MultiPass: %v", err)
	}
	single, err := engine.SinglePass(context.Background(), model, ds, cfg)
	if err != nil {
		t.Fatalf("SinglePass: %v", err)
	}

	// Fixed shuffle streams make the first multi-pass round identical to
	// the single pass, not merely close.
	for f, scores := range single.SinglePass {
		for b, s := range scores {
			if multi.SinglePass[f][b] != s {
				t.Fatalf("feature %s replicate %d: multi %v != single %v", f, b, multi.SinglePass[f][b], s)
			}
		}
	}
	if multi.MultiPassRanking[0] != single.SinglePassRanking[0] {
		t.Errorf("first multi-pass selection %s != single-pass top %s", multi.MultiPassRanking[0], single.SinglePassRanking[0])
	}
}

func TestMultiPassRankingIsComplete(t *testing.T) {
	ds := testkit.SignalNoiseDataset(3, 300, 2)
	model, cfg := signalFixture()
	engine := New(core.OutputProbability)

	res, err := engine.MultiPass(context.Background(), model, ds, cfg)
	if err != nil {
		t.Fatalf("MultiPass: %v", err)
	}
	if len(res.MultiPassRanking) != 3 {
		t.Fatalf("ranking has %d features, want 3", len(res.MultiPassRanking))
	}
	seen := map[core.FeatureKey]bool{}
	for _, f := range res.MultiPassRanking {
		if seen[f] {
			t.Fatalf("feature %s selected twice", f)
		}
		seen[f] = true
	}
}

func TestNVarsCapsRanking(t *testing.T) {
	ds := testkit.SignalNoiseDataset(4, 300, 3)
	model, cfg := signalFixture()
	cfg.NVars = 2
	engine := New(core.OutputProbability)

	res, err := engine.MultiPass(context.Background(), model, ds, cfg)
	if err != nil {
		t.Fatalf("MultiPass: %v", err)
	}
	if len(res.MultiPassRanking) != 2 {
		t.Errorf("ranking has %d features, want 2", len(res.MultiPassRanking))
	}
}

func TestDeterministicAcrossRuns(t *testing.T) {
	ds := testkit.SignalNoiseDataset(5, 300, 2)
	model, cfg := signalFixture()
	engine := New(core.OutputProbability)

	a, err := engine.SinglePass(context.Background(), model, ds, cfg)
	if err != nil {
		t.Fatalf("SinglePass: %v", err)
	}
	b, err := engine.SinglePass(context.Background(), model, ds, cfg)
	if err != nil {
		t.Fatalf("SinglePass: %v", err)
	}
	for f, scores := range a.SinglePass {
		for i, s := range scores {
			if b.SinglePass[f][i] != s {
				t.Fatalf("feature %s replicate %d differs across identical runs", f, i)
			}
		}
	}
}

func TestParallelMatchesSerial(t *testing.T) {
	ds := testkit.SignalNoiseDataset(6, 300, 3)
	model, cfg := signalFixture()
	engine := New(core.OutputProbability)

	serial, err := engine.SinglePass(context.Background(), model, ds, cfg)
	if err != nil {
		t.Fatalf("serial SinglePass: %v", err)
	}
	cfg.NJobs = 4
	parallel, err := engine.SinglePass(context.Background(), model, ds, cfg)
	if err != nil {
		t.Fatalf("parallel SinglePass: %v", err)
	}
	for f, scores := range serial.SinglePass {
		for i, s := range scores {
			if parallel.SinglePass[f][i] != s {
				t.Fatalf("feature %s replicate %d: parallel differs from serial", f, i)
			}
		}
	}
}

func TestForwardDirection(t *testing.T) {
	ds := testkit.SignalNoiseDataset(7, 500, 2)
	model, cfg := signalFixture()
	cfg.Direction = core.DirectionForward
	engine := New(core.OutputProbability)

	res, err := engine.SinglePass(context.Background(), model, ds, cfg)
	if err != nil {
		t.Fatalf("SinglePass forward: %v", err)
	}
	if res.Direction != core.DirectionForward {
		t.Errorf("direction = %s", res.Direction)
	}
	// Restoring the signal feature recovers the most skill.
	if res.SinglePassRanking[0] != "signal" {
		t.Errorf("forward top feature = %s, want signal", res.SinglePassRanking[0])
	}
}

func TestCustomScorerRequiresStrategy(t *testing.T) {
	ds := testkit.SignalNoiseDataset(8, 100, 1)
	engine := New(core.OutputRaw)
	cfg := Config{
		Scorer: ports.Scorer(func(targets, preds []float64) float64 { return 0 }),
	}
	_, err := engine.SinglePass(context.Background(), &testkit.LinearModel{Weights: []float64{1, 1}}, ds, cfg)
	if !core.IsConfiguration(err) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestMissingEvaluationFn(t *testing.T) {
	ds := testkit.SignalNoiseDataset(9, 100, 1)
	engine := New(core.OutputRaw)
	_, err := engine.SinglePass(context.Background(), &testkit.LinearModel{Weights: []float64{1, 1}}, ds, Config{})
	if !core.IsConfiguration(err) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestRequiresTargets(t *testing.T) {
	ds := testkit.UniformDataset(10, 100, 0, 1, "x")
	engine := New(core.OutputRaw)
	cfg := Config{EvaluationFn: "mse"}
	_, err := engine.SinglePass(context.Background(), &testkit.LinearModel{Weights: []float64{1}}, ds, cfg)
	if !core.IsConfiguration(err) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestSubsampleShrinksScoringSet(t *testing.T) {
	ds := testkit.SignalNoiseDataset(11, 400, 2)
	model, cfg := signalFixture()
	cfg.Subsample = 0.25
	engine := New(core.OutputProbability)

	res, err := engine.SinglePass(context.Background(), model, ds, cfg)
	if err != nil {
		t.Fatalf("SinglePass: %v", err)
	}
	// Still ranks and scores; the subsample is shared, so results stay
	// deterministic.
	res2, err := engine.SinglePass(context.Background(), model, ds, cfg)
	if err != nil {
		t.Fatalf("SinglePass: %v", err)
	}
	for f := range res.SinglePass {
		for i := range res.SinglePass[f] {
			if res.SinglePass[f][i] != res2.SinglePass[f][i] {
				t.Fatal("subsampled runs must be deterministic")
			}
		}
	}
}
