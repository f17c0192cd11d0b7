package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// StringSlice represents a slice of strings that can be stored in the database
type StringSlice []string

// Value converts the slice to a JSON string for storage
func (s StringSlice) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	return json.Marshal(s)
}

// Scan converts the database value back to a slice
func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = StringSlice{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return errors.New("unsupported type for StringSlice")
	}
}

// ItemsMap maps a free-text menu category to the dishes served under it.
// Category keys come straight from the parsed menu ("עיקרית", "סלטים", ...),
// so no enumeration is enforced here.
type ItemsMap map[string][]string

// Value converts the map to a JSON string for storage
func (m ItemsMap) Value() (driver.Value, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	return json.Marshal(m)
}

// Scan converts the database value back to a map
func (m *ItemsMap) Scan(value interface{}) error {
	if value == nil {
		*m = ItemsMap{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return errors.New("unsupported type for ItemsMap")
	}
}

// TotalItems returns the number of dishes across all categories.
func (m ItemsMap) TotalItems() int {
	n := 0
	for _, dishes := range m {
		n += len(dishes)
	}
	return n
}

// JSONMap is a generic JSON object column, used for result evidence bags.
type JSONMap map[string]interface{}

// Value converts the map to a JSON string for storage
func (m JSONMap) Value() (driver.Value, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	return json.Marshal(m)
}

// Scan converts the database value back to a map
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = JSONMap{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return errors.New("unsupported type for JSONMap")
	}
}
