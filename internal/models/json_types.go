package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// StringList is a []string stored as a JSON column.
type StringList []string

// FloatList is a []float64 stored as a JSON column.
type FloatList []float64

// JSONMap is a free-form JSON object column (bot config, audit payloads).
type JSONMap map[string]interface{}

func (l StringList) Value() (driver.Value, error) { return marshalJSON(l, "[]") }
func (l *StringList) Scan(src interface{}) error  { return unmarshalJSON(src, l) }
func (StringList) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	return jsonDataType(db)
}

func (l FloatList) Value() (driver.Value, error) { return marshalJSON(l, "[]") }
func (l *FloatList) Scan(src interface{}) error  { return unmarshalJSON(src, l) }
func (FloatList) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	return jsonDataType(db)
}

func (m JSONMap) Value() (driver.Value, error) { return marshalJSON(m, "{}") }
func (m *JSONMap) Scan(src interface{}) error  { return unmarshalJSON(src, m) }
func (JSONMap) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	return jsonDataType(db)
}

func jsonDataType(db *gorm.DB) string {
	if db.Dialector.Name() == "postgres" {
		return "jsonb"
	}
	return "text"
}

func marshalJSON(v interface{}, empty string) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(b) == "null" {
		return empty, nil
	}
	return string(b), nil
}

func unmarshalJSON(src interface{}, dst interface{}) error {
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
