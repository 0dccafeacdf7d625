package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/solatis/vizconf/internal/types"
)

// parseCriteria combines --criteria-json with --criteria key=value pairs.
// Pairs are strings and override keys from the JSON object.
func parseCriteria(pairs map[string]string, raw string) (types.Criteria, error) {
	criteria := types.Criteria{}
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &criteria); err != nil {
			return nil, fmt.Errorf("invalid --criteria-json: %w", err)
		}
		if criteria == nil {
			criteria = types.Criteria{}
		}
	}
	for k, v := range pairs {
		criteria[k] = v
	}
	return criteria, nil
}
