package media

import (
	"encoding/json"
	"fmt"
)

// probeOutput mirrors the top level of `ffprobe -of json` output.
type probeOutput struct {
	Format  map[string]any   `json:"format"`
	Streams []map[string]any `json:"streams"`
}

// parseProbeOutput flattens ffprobe JSON into media properties: container
// format fields at the top level, streams kept as a nested value.
func parseProbeOutput(data []byte) (map[string]any, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFFprobeOutput, err)
	}

	props := make(map[string]any, len(out.Format)+1)
	for k, v := range out.Format {
		props[k] = v
	}
	if len(out.Streams) > 0 {
		props["streams"] = out.Streams
	}
	return props, nil
}

// FormatProperty renders a property value for display: strings unchanged,
// everything else JSON encoded.
func FormatProperty(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
