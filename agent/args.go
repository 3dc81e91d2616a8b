package agent

import (
	"encoding/json"
	"fmt"
)

// decodeArgs deserializes a JSON argument payload into the map form tools
// accept. An empty payload decodes to an empty map.
func decodeArgs(args string) (map[string]any, error) {
	if args == "" {
		return map[string]any{}, nil
	}
	argMap := make(map[string]any)
	if err := json.Unmarshal([]byte(args), &argMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal args: %w", err)
	}
	return argMap, nil
}
