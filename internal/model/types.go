package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringList is stored as a JSON array in a text column
type StringList []string

func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *StringList) Scan(src any) error {
	return scanJSON(src, (*[]string)(s))
}

// OrderItems is stored as a JSON array in a text column
type OrderItems []OrderItem

func (o OrderItems) Value() (driver.Value, error) {
	if o == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]OrderItem(o))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (o *OrderItems) Scan(src any) error {
	return scanJSON(src, (*[]OrderItem)(o))
}

func (p Preferences) Value() (driver.Value, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (p *Preferences) Scan(src any) error {
	if src == nil {
		*p = DefaultPreferences()
		return nil
	}
	return scanJSON(src, p)
}

func scanJSON(src any, dst any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported JSON column type %T", src)
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}
