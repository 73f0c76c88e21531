package result

import (
	"fmt"

	"mintpy/domain/core"
)

// Metadata is the typed attribute record attached to every result store.
// The fields are the enumerated set consumed by downstream plotting and
// serialization; the engines themselves never interpret it.
type Metadata struct {
	ModelOutput  core.ModelOutput `json:"model_output"`
	ModelsUsed   []core.ModelKey  `json:"models_used"`
	Method       core.Method      `json:"method"`
	Dimension    core.Dimension   `json:"dimension,omitempty"`
	Direction    core.Direction   `json:"direction,omitempty"`
	EvaluationFn string           `json:"evaluation_fn,omitempty"`
}

var knownMetadataKeys = map[string]struct{}{
	"model_output":  {},
	"models_used":   {},
	"method":        {},
	"dimension":     {},
	"direction":     {},
	"evaluation_fn": {},
}

// MetadataFromMap converts a flat attribute map into a Metadata record,
// rejecting unknown keys at construction instead of permitting silent
// typos to ride along.
func MetadataFromMap(attrs map[string]any) (Metadata, error) {
	var md Metadata
	for key, value := range attrs {
		if _, ok := knownMetadataKeys[key]; !ok {
			return Metadata{}, core.NewConfigurationError(fmt.Sprintf("unknown metadata key %q", key))
		}
		switch key {
		case "model_output":
			s, ok := value.(string)
			if !ok || !core.ModelOutput(s).Valid() {
				return Metadata{}, core.NewConfigurationError(fmt.Sprintf("invalid model_output %v", value))
			}
			md.ModelOutput = core.ModelOutput(s)
		case "models_used":
			switch v := value.(type) {
			case []string:
				for _, m := range v {
					md.ModelsUsed = append(md.ModelsUsed, core.ModelKey(m))
				}
			case []core.ModelKey:
				md.ModelsUsed = append(md.ModelsUsed, v...)
			case []any:
				for _, m := range v {
					s, ok := m.(string)
					if !ok {
						return Metadata{}, core.NewConfigurationError(fmt.Sprintf("invalid models_used entry %v", m))
					}
					md.ModelsUsed = append(md.ModelsUsed, core.ModelKey(s))
				}
			default:
				return Metadata{}, core.NewConfigurationError(fmt.Sprintf("invalid models_used %v", value))
			}
		case "method":
			s, ok := value.(string)
			if !ok {
				return Metadata{}, core.NewConfigurationError(fmt.Sprintf("invalid method %v", value))
			}
			md.Method = core.Method(s)
		case "dimension":
			s, ok := value.(string)
			if !ok {
				return Metadata{}, core.NewConfigurationError(fmt.Sprintf("invalid dimension %v", value))
			}
			md.Dimension = core.Dimension(s)
		case "direction":
			s, ok := value.(string)
			if !ok {
				return Metadata{}, core.NewConfigurationError(fmt.Sprintf("invalid direction %v", value))
			}
			md.Direction = core.Direction(s)
		case "evaluation_fn":
			s, ok := value.(string)
			if !ok {
				return Metadata{}, core.NewConfigurationError(fmt.Sprintf("invalid evaluation_fn %v", value))
			}
			md.EvaluationFn = s
		}
	}
	return md, nil
}
