package finding

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Decode parses findings given either as a JSON array of Finding or as a
// module -> gate -> result Set object.
func Decode(data []byte) ([]Finding, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	switch trimmed[0] {
	case '[':
		var out []Finding
		if err := json.Unmarshal(trimmed, &out); err != nil {
			return nil, fmt.Errorf("decode findings: %w", err)
		}
		return out, nil
	case '{':
		var s Set
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, fmt.Errorf("decode finding set: %w", err)
		}
		return s.Flatten(), nil
	default:
		return nil, fmt.Errorf("decode findings: expected array or object, got %q", trimmed[0])
	}
}
