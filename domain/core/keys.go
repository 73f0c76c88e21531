package core

import "fmt"

// FeatureKey identifies a feature column in a dataset.
type FeatureKey string

func (k FeatureKey) String() string { return string(k) }

// ModelKey identifies a model within a ModelSet.
type ModelKey string

func (k ModelKey) String() string { return string(k) }

// FeaturePair is an unordered pair of features used by second-order
// ALE, 2D partial dependence, and interaction statistics.
type FeaturePair struct {
	First  FeatureKey `json:"first"`
	Second FeatureKey `json:"second"`
}

func (p FeaturePair) String() string {
	return fmt.Sprintf("%s__%s", p.First, p.Second)
}

// Method names a diagnostic computation. Stored in result metadata and
// used as the cache key for "last result of this method" chaining.
type Method string

const (
	MethodALE                   Method = "ale"
	MethodPD                    Method = "pd"
	MethodICE                   Method = "ice"
	MethodPermutationImportance Method = "permutation_importance"
	MethodALEVariance           Method = "ale_variance"
	MethodHStatistic            Method = "hstat"
	MethodInteractionStrength   Method = "ias"
	MethodPerformanceBased      Method = "perm_based"
	MethodMainEffectComplexity  Method = "mec"
	MethodContributions         Method = "contributions"
)

// ModelOutput selects which model capability the engines invoke.
// Fixed for a whole toolkit session.
type ModelOutput string

const (
	// OutputRaw scores through the raw regression/decision capability.
	OutputRaw ModelOutput = "raw"
	// OutputProbability scores through the positive-class probability.
	OutputProbability ModelOutput = "probability"
)

// Valid reports whether the output mode is one of the two known modes.
func (m ModelOutput) Valid() bool {
	return m == OutputRaw || m == OutputProbability
}

// Direction controls how permutation importance interprets permutations:
// backward leaves the candidate permuted against an intact baseline,
// forward progressively restores features from a fully permuted state.
type Direction string

const (
	DirectionBackward Direction = "backward"
	DirectionForward  Direction = "forward"
)

func (d Direction) Valid() bool {
	return d == DirectionBackward || d == DirectionForward
}

// ScoringStrategy turns a set of mean scores into a selection rule.
type ScoringStrategy string

const (
	// ArgminOfMean selects the feature with the lowest mean score.
	// Used with positively oriented metrics (higher is better).
	ArgminOfMean ScoringStrategy = "argmin_of_mean"
	// ArgmaxOfMean selects the feature with the highest mean score.
	// Used with negatively oriented metrics (lower is better).
	ArgmaxOfMean ScoringStrategy = "argmax_of_mean"
	// StrategyNone marks a caller who declined to declare a strategy.
	// Only legal with a built-in evaluation function.
	StrategyNone ScoringStrategy = ""
)

func (s ScoringStrategy) Valid() bool {
	return s == ArgminOfMean || s == ArgmaxOfMean
}

// Invert flips the selection rule, used when the forward direction
// reverses the meaning of "most damaged" into "most restored".
func (s ScoringStrategy) Invert() ScoringStrategy {
	if s == ArgminOfMean {
		return ArgmaxOfMean
	}
	return ArgminOfMean
}

// Dimension tags a result as a curve or a surface.
type Dimension string

const (
	Dimension1D Dimension = "1D"
	Dimension2D Dimension = "2D"
)
