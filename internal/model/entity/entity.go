package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
)

// AutoMigrate migrates all portal tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&ParentPart{},
		&ChildPart{},
		&Document{},
		&AuditLog{},
	)
}

// StringArray string slice stored as a jsonb column
type StringArray []string

func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal(a)
}

func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to scan StringArray: %v", value)
	}
	return json.Unmarshal(bytes, a)
}

// Contains reports whether the array holds id.
func (a StringArray) Contains(id string) bool {
	for _, v := range a {
		if v == id {
			return true
		}
	}
	return false
}

// Remove returns a copy of the array without id.
func (a StringArray) Remove(id string) StringArray {
	out := make(StringArray, 0, len(a))
	for _, v := range a {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
