// Package valueobject holds small value types shared between entities and
// the storage layer.
package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

var ErrScanValueNotBytes = errors.New("valueobject: cannot scan JSONMap from non-text value")

// JSONMap is a free-form JSON object stored in a jsonb column.
type JSONMap map[string]any

func (j JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return []byte("{}"), nil
	}

	return json.Marshal(j)
}

func (j *JSONMap) Scan(src any) error {
	var raw []byte

	switch v := src.(type) {
	case nil:
		*j = JSONMap{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	case map[string]any:
		*j = v
		return nil
	default:
		return ErrScanValueNotBytes
	}

	m := JSONMap{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return err
	}
	*j = m

	return nil
}

// GetString returns the string stored at key, or "" when absent or not a string.
func (j JSONMap) GetString(key string) string {
	s, _ := j[key].(string)
	return s
}
