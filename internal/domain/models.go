// Package domain defines the persistence models of the employee service.
// These types are mapped with GORM and form the core data layer of the
// application.
package domain

import "time"

// Employee is the single business entity managed by the API.
//
// Fields:
//   - ID: integer primary key assigned by SQLite (AUTOINCREMENT, never reused).
//   - Name, Phone, Position, Address: required, non-empty.
//   - Email: required, non-empty, unique across all rows (case-sensitive).
//
// The table itself is created by the ordered schema steps in package repo,
// not by AutoMigrate, so the column definitions below only describe the
// mapping.
type Employee struct {
	ID       int64  `json:"id"       gorm:"column:id;primaryKey;autoIncrement" example:"1"`
	Name     string `json:"name"     gorm:"column:name;type:text;not null" example:"Ada Lovelace"`
	Email    string `json:"email"    gorm:"column:email;type:text;not null;uniqueIndex" example:"ada@example.com"`
	Phone    string `json:"phone"    gorm:"column:phone;type:text;not null;default:''" example:"5551234567"`
	Position string `json:"position" gorm:"column:position;type:text;not null" example:"Engineer"`
	Address  string `json:"address"  gorm:"column:address;type:text;not null;default:''" example:"12 Analytical St"`
}

// TableName returns the database table name for Employee.
func (Employee) TableName() string { return "employees" }

// SchemaVersion records a schema step that has been applied to the database.
type SchemaVersion struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"type:TEXT NOT NULL"`
	AppliedAt time.Time `gorm:"type:DATETIME NOT NULL"`
}

// TableName returns the database table name for SchemaVersion.
func (SchemaVersion) TableName() string { return "schema_versions" }
