// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Employee
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions. They follow the "thin repository"
// approach: no business logic, only persistence and query composition.
//
// Error semantics:
//   - When an employee is not found, functions return ErrNotFound
//     (an alias of gorm.ErrRecordNotFound).
//   - When a write violates the UNIQUE(email) constraint, ErrDuplicate.
//   - Any other DB error is propagated unchanged.
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/go-employee-backend/internal/domain"
)

// ListEmployees returns all employees ordered by id. It returns an empty,
// non-nil slice when the table has no rows.
func ListEmployees(ctx context.Context, db *gorm.DB) ([]domain.Employee, error) {
	out := []domain.Employee{}
	err := db.WithContext(ctx).
		Order("id asc").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetEmployee fetches a single employee by id, or ErrNotFound.
func GetEmployee(ctx context.Context, db *gorm.DB, id int64) (*domain.Employee, error) {
	var e domain.Employee
	if err := db.WithContext(ctx).Where("id = ?", id).First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

// FindEmployeeByEmail fetches the employee owning email (exact, case-sensitive
// match), or ErrNotFound.
func FindEmployeeByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.Employee, error) {
	var e domain.Employee
	if err := db.WithContext(ctx).Where("email = ?", email).First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

// CreateEmployee inserts e and sets e.ID to the generated key. Any ID already
// present on e is ignored.
func CreateEmployee(ctx context.Context, db *gorm.DB, e *domain.Employee) error {
	e.ID = 0
	if err := db.WithContext(ctx).Create(e).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// UpdateEmployee overwrites every mutable column of the row identified by
// e.ID. It returns ErrNotFound when no row matched.
func UpdateEmployee(ctx context.Context, db *gorm.DB, e *domain.Employee) error {
	res := db.WithContext(ctx).
		Model(&domain.Employee{}).
		Where("id = ?", e.ID).
		Updates(map[string]any{
			"name":     e.Name,
			"email":    e.Email,
			"phone":    e.Phone,
			"position": e.Position,
			"address":  e.Address,
		})
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return ErrDuplicate
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteEmployee removes the row identified by id. It returns ErrNotFound
// when no row matched.
func DeleteEmployee(ctx context.Context, db *gorm.DB, id int64) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Employee{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearEmployees removes every employee and returns the number of deleted
// rows. AUTOINCREMENT keeps counting, so ids are not reused afterwards.
func ClearEmployees(ctx context.Context, db *gorm.DB) (int64, error) {
	res := db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&domain.Employee{})
	return res.RowsAffected, res.Error
}

// IsNotFound reports whether err is the repository not-found sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
