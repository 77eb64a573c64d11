package model

import (
	"database/sql/driver"
	"fmt"

	"github.com/kart-io/loan-advisor/pkg/utils/json"
)

// Document is a free-form JSON object column, used for product FAQs and terms.
// nil 序列化为 {}。
type Document map[string]any

// Value implements driver.Valuer.
func (d Document) Value() (driver.Value, error) {
	if d == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]any(d))
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (d *Document) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*d = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported document column type %T", src)
	}

	if len(raw) == 0 {
		*d = nil
		return nil
	}
	m := map[string]any{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return fmt.Errorf("unmarshal document: %w", err)
	}
	*d = m
	return nil
}

// GormDataType 所有驱动统一使用 text 列。
func (Document) GormDataType() string {
	return "text"
}
