package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONMap holds opaque JSON payloads such as gateway responses, stored in a
// jsonb column.
type JSONMap map[string]any

// Value marshals the map for the driver. A nil map stores SQL NULL.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("json map: marshal: %w", err)
	}
	return b, nil
}

// Scan decodes a jsonb column back into the map.
func (m *JSONMap) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("json map: unsupported scan type %T", value)
	}

	if len(raw) == 0 {
		*m = nil
		return nil
	}

	decoded := JSONMap{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("json map: unmarshal: %w", err)
	}
	*m = decoded
	return nil
}
