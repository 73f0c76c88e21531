package interaction

import (
	"context"

	"gonum.org/v1/gonum/stat"

	"mintpy/domain/core"
	"mintpy/domain/dataset"
	"mintpy/ports"
)

// InteractionStrength computes the IAS statistic: the fraction of the
// model's prediction variance left unexplained by the additive
// reconstruction from first-order ALE curves. 0 means the model is
// purely additive over the supplied curves; larger values mean more of
// the behavior lives in interactions.
//
// Curves for every feature of the dataset are required; they are the
// precursor this statistic is built on. Summing squared residuals over
// the observed examples weights each bin by its local data density.
func InteractionStrength(ctx context.Context, model ports.Model, ds *dataset.Dataset, output core.ModelOutput, curves []Curve) (float64, error) {
	byFeature := make(map[core.FeatureKey]Curve, len(curves))
	for _, c := range curves {
		byFeature[c.Feature] = c
	}
	for _, f := range ds.Features() {
		if _, ok := byFeature[f]; !ok {
			return 0, core.NewMissingPrecursorError(core.MethodInteractionStrength, core.MethodALE)
		}
	}

	preds, err := ports.Score(model, ds.Matrix(), output)
	if err != nil {
		return 0, err
	}
	if output == core.OutputProbability {
		// Match the percentage-point scale of the ALE curves.
		for i := range preds {
			preds[i] *= 100
		}
	}
	mean := stat.Mean(preds, nil)

	columns := make(map[core.FeatureKey][]float64, len(byFeature))
	for _, f := range ds.Features() {
		col, err := ds.Column(f)
		if err != nil {
			return 0, err
		}
		columns[f] = col
	}

	features := ds.Features()
	var residual, total float64
	for i, p := range preds {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		additive := mean
		for _, f := range features {
			additive += byFeature[f].At(columns[f][i])
		}
		residual += (p - additive) * (p - additive)
		total += (p - mean) * (p - mean)
	}
	if total == 0 {
		return 0, nil
	}
	return residual / total, nil
}
