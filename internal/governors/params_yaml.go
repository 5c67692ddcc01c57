package governors

import "gopkg.in/yaml.v3"

// ToYAML encodes AdaptiveParams as the YAML payload the adaptive
// governor stores in the persistence layer's tuning blob, giving the
// pack's yaml.v3 indirect dependency a direct, exercised home.
func (p AdaptiveParams) ToYAML() ([]byte, error) {
	return yaml.Marshal(p)
}

// UnmarshalAdaptiveParams decodes a YAML-encoded tuning blob back into
// an AdaptiveParams.
func UnmarshalAdaptiveParams(data []byte) (AdaptiveParams, error) {
	var p AdaptiveParams
	if err := yaml.Unmarshal(data, &p); err != nil {
		return AdaptiveParams{}, err
	}
	return p, nil
}
