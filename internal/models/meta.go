package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// MetaMap is structured caller context attached to a history row,
// stored as jsonb.
type MetaMap map[string]string

// Value implements the driver.Valuer interface
func (m MetaMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements the sql.Scanner interface
func (m *MetaMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("meta: unsupported scan source")
	}
	return json.Unmarshal(bytes, m)
}

// Clean returns a copy with empty keys and empty values dropped.
// It returns nil when nothing remains, so empty maps persist as SQL NULL.
func (m MetaMap) Clean() MetaMap {
	if len(m) == 0 {
		return nil
	}
	out := make(MetaMap, len(m))
	for k, v := range m {
		if k == "" || v == "" {
			continue
		}
		out[k] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
