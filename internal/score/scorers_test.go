package score

import (
	"math"
	"testing"

	"mintpy/domain/core"
)

func almostEqual(t *testing.T, got, want, tol float64, name string) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func TestAUCPerfectSeparation(t *testing.T) {
	targets := []float64{0, 0, 1, 1}
	preds := []float64{0.1, 0.2, 0.8, 0.9}
	almostEqual(t, AUC(targets, preds), 1.0, 1e-12, "AUC")
}

func TestAUCInvertedSeparation(t *testing.T) {
	targets := []float64{1, 1, 0, 0}
	preds := []float64{0.1, 0.2, 0.8, 0.9}
	almostEqual(t, AUC(targets, preds), 0.0, 1e-12, "AUC")
}

func TestAUCMidrankTies(t *testing.T) {
	// All predictions equal: no discrimination, AUC is 0.5 exactly.
	targets := []float64{0, 1, 0, 1}
	preds := []float64{0.5, 0.5, 0.5, 0.5}
	almostEqual(t, AUC(targets, preds), 0.5, 1e-12, "AUC")
}

func TestAUCDegenerateClasses(t *testing.T) {
	almostEqual(t, AUC([]float64{1, 1}, []float64{0.1, 0.9}), 0.5, 1e-12, "AUC")
}

func TestAveragePrecisionPerfect(t *testing.T) {
	targets := []float64{0, 1, 0, 1}
	preds := []float64{0.2, 0.9, 0.1, 0.8}
	almostEqual(t, AveragePrecision(targets, preds), 1.0, 1e-12, "AP")
}

func TestAveragePrecisionWorstFirst(t *testing.T) {
	// One positive ranked last of four: AP = 1/4.
	targets := []float64{1, 0, 0, 0}
	preds := []float64{0.1, 0.9, 0.8, 0.7}
	almostEqual(t, AveragePrecision(targets, preds), 0.25, 1e-12, "AP")
}

func TestNormalizedAUPDC(t *testing.T) {
	// Perfect ranking: AP = 1, so normalization maps it to 1 regardless
	// of the base rate.
	targets := []float64{0, 0, 0, 1}
	preds := []float64{0.1, 0.2, 0.3, 0.9}
	almostEqual(t, NormalizedAUPDC(targets, preds), 1.0, 1e-12, "norm_aupdc")
}

func TestBrierSkillScore(t *testing.T) {
	targets := []float64{0, 1, 0, 1}
	perfect := []float64{0, 1, 0, 1}
	almostEqual(t, BrierSkillScore(targets, perfect), 1.0, 1e-12, "BSS perfect")

	climo := []float64{0.5, 0.5, 0.5, 0.5}
	almostEqual(t, BrierSkillScore(targets, climo), 0.0, 1e-12, "BSS climatology")
}

func TestMSE(t *testing.T) {
	almostEqual(t, MSE([]float64{0, 1}, []float64{0, 0}), 0.5, 1e-12, "MSE")
	almostEqual(t, MSE([]float64{1, 1}, []float64{1, 1}), 0.0, 1e-12, "MSE")
}

func TestLookupStrategies(t *testing.T) {
	cases := map[string]core.ScoringStrategy{
		"auc":        core.ArgminOfMean,
		"auprc":      core.ArgminOfMean,
		"norm_aupdc": core.ArgminOfMean,
		"bss":        core.ArgminOfMean,
		"mse":        core.ArgmaxOfMean,
	}
	for name, want := range cases {
		b, err := Lookup(name)
		if err != nil {
			t.Fatalf("Lookup(%s): %v", name, err)
		}
		if b.Strategy != want {
			t.Errorf("Lookup(%s).Strategy = %s, want %s", name, b.Strategy, want)
		}
	}
}

func TestLookupCaseInsensitive(t *testing.T) {
	if _, err := Lookup("AUC"); err != nil {
		t.Errorf("Lookup should be case-insensitive: %v", err)
	}
}

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup("f1")
	if !core.IsConfiguration(err) {
		t.Errorf("expected configuration error, got %v", err)
	}
}
