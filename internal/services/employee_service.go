// Package services – EmployeeService
//
// This file implements the EmployeeService, the persistence boundary of the
// API. It owns the employees table through an EmployeeRepo, runs every
// check-then-write inside one transaction, and reports outcomes through the
// typed errors in errors.go:
//
//   - nil error: the returned value is set
//   - ErrEmployeeNotFound / ErrEmailTaken: expected business outcomes
//   - *StorageError: anything else; logged here, reported generically upstream
package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"github.com/tbourn/go-employee-backend/internal/domain"
	"github.com/tbourn/go-employee-backend/internal/metrics"
	"github.com/tbourn/go-employee-backend/internal/repo"
)

// IdempotencyScope namespaces idempotency keys used by CreateOnce.
const IdempotencyScope = "employees"

// EmployeeRepo defines the repository contract required by EmployeeService.
// Every method receives the handle to run on, which may be a transaction.
type EmployeeRepo interface {
	// Migrate applies the ordered schema steps.
	Migrate(ctx context.Context, db *gorm.DB) error

	ListEmployees(ctx context.Context, db *gorm.DB) ([]domain.Employee, error)
	GetEmployee(ctx context.Context, db *gorm.DB, id int64) (*domain.Employee, error)
	FindEmployeeByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.Employee, error)
	CreateEmployee(ctx context.Context, db *gorm.DB, e *domain.Employee) error
	UpdateEmployee(ctx context.Context, db *gorm.DB, e *domain.Employee) error
	DeleteEmployee(ctx context.Context, db *gorm.DB, id int64) error
	ClearEmployees(ctx context.Context, db *gorm.DB) (int64, error)

	GetIdempotency(ctx context.Context, db *gorm.DB, scope, key string, now time.Time) (*domain.Idempotency, error)
	CreateIdempotency(ctx context.Context, db *gorm.DB, scope, key string, employeeID int64, status int, ttl time.Duration) (*domain.Idempotency, error)
	DeleteIdempotency(ctx context.Context, db *gorm.DB, scope, key string) error
}

// EmployeeInput carries the five caller-supplied fields of an employee.
type EmployeeInput struct {
	Name     string
	Email    string
	Phone    string
	Position string
	Address  string
}

// MissingFields returns the JSON names of empty fields in declaration order.
func (in EmployeeInput) MissingFields() []string {
	var out []string
	for _, f := range []struct{ name, val string }{
		{"name", in.Name},
		{"email", in.Email},
		{"phone", in.Phone},
		{"position", in.Position},
		{"address", in.Address},
	} {
		if f.val == "" {
			out = append(out, f.name)
		}
	}
	return out
}

// normalized returns a copy with every field in Unicode NFC, so that
// canonically equivalent emails collide on the unique index.
func (in EmployeeInput) normalized() EmployeeInput {
	return EmployeeInput{
		Name:     norm.NFC.String(in.Name),
		Email:    norm.NFC.String(in.Email),
		Phone:    norm.NFC.String(in.Phone),
		Position: norm.NFC.String(in.Position),
		Address:  norm.NFC.String(in.Address),
	}
}

func (in EmployeeInput) toEmployee(id int64) *domain.Employee {
	return &domain.Employee{
		ID:       id,
		Name:     in.Name,
		Email:    in.Email,
		Phone:    in.Phone,
		Position: in.Position,
		Address:  in.Address,
	}
}

// EmployeeService provides the list/create/update/delete use-cases.
type EmployeeService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the employee repository used by this service.
	Repo EmployeeRepo
	// Metrics is optional.
	Metrics *metrics.Metrics
	// IdempotencyTTL bounds how long CreateOnce replays a key.
	IdempotencyTTL time.Duration
}

// NewEmployeeService constructs an EmployeeService with a 24h idempotency window.
func NewEmployeeService(db *gorm.DB, r EmployeeRepo, m *metrics.Metrics) *EmployeeService {
	return &EmployeeService{
		DB:             db,
		Repo:           r,
		Metrics:        m,
		IdempotencyTTL: 24 * time.Hour,
	}
}

// Initialize ensures the schema exists and is current. It is idempotent.
func (s *EmployeeService) Initialize(ctx context.Context) error {
	if err := s.Repo.Migrate(ctx, s.DB); err != nil {
		return s.fault(ctx, "initialize", err)
	}
	return nil
}

// List returns every employee ordered by id; an empty slice when there are none.
func (s *EmployeeService) List(ctx context.Context) ([]domain.Employee, error) {
	start := time.Now()
	out, err := s.Repo.ListEmployees(ctx, s.DB)
	if err != nil {
		s.Metrics.Observe("list", metrics.OutcomeError, start)
		return nil, s.fault(ctx, "list", err)
	}
	if out == nil {
		out = []domain.Employee{}
	}
	s.Metrics.Observe("list", metrics.OutcomeOK, start)
	if s.Metrics != nil {
		s.Metrics.Employees.Set(float64(len(out)))
	}
	return out, nil
}

// Create inserts a new employee. The email check and the insert share one
// transaction, and a UNIQUE violation from the insert is reported as
// ErrEmailTaken as well.
func (s *EmployeeService) Create(ctx context.Context, in EmployeeInput) (*domain.Employee, error) {
	start := time.Now()
	if err := validate(in); err != nil {
		return nil, err
	}
	in = in.normalized()

	var created *domain.Employee
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		e, err := s.insert(ctx, tx, in)
		created = e
		return err
	})
	return created, s.outcome(ctx, "create", start, err)
}

// CreateOnce behaves like Create, but remembers the result under key. A
// repeated call with the same key inside IdempotencyTTL returns the employee
// created by the first call and replayed=true instead of ErrEmailTaken.
func (s *EmployeeService) CreateOnce(ctx context.Context, key string, in EmployeeInput) (e *domain.Employee, replayed bool, err error) {
	start := time.Now()
	if err := validate(in); err != nil {
		return nil, false, err
	}
	in = in.normalized()

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := s.Repo.GetIdempotency(ctx, tx, IdempotencyScope, key, time.Now().UTC())
		switch {
		case err == nil:
			prev, gerr := s.Repo.GetEmployee(ctx, tx, rec.EmployeeID)
			if gerr == nil {
				e, replayed = prev, true
				return nil
			}
			if !repo.IsNotFound(gerr) {
				return gerr
			}
			// The employee created under this key has since been deleted;
			// forget the key and create again.
			if derr := s.Repo.DeleteIdempotency(ctx, tx, IdempotencyScope, key); derr != nil {
				return derr
			}
		case !repo.IsNotFound(err):
			return err
		}

		created, err := s.insert(ctx, tx, in)
		if err != nil {
			return err
		}
		if _, err := s.Repo.CreateIdempotency(ctx, tx, IdempotencyScope, key, created.ID, 201, s.ttl()); err != nil {
			return err
		}
		e = created
		return nil
	})
	if err = s.outcome(ctx, "create", start, err); err != nil {
		return nil, false, err
	}
	return e, replayed, nil
}

// Update overwrites all five fields of employee id. It returns
// ErrEmployeeNotFound for an unknown id and ErrEmailTaken when the new email
// belongs to another employee.
func (s *EmployeeService) Update(ctx context.Context, id int64, in EmployeeInput) (*domain.Employee, error) {
	start := time.Now()
	if err := validate(in); err != nil {
		return nil, err
	}
	in = in.normalized()

	var updated *domain.Employee
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.Repo.GetEmployee(ctx, tx, id); err != nil {
			if repo.IsNotFound(err) {
				return ErrEmployeeNotFound
			}
			return err
		}
		owner, err := s.Repo.FindEmployeeByEmail(ctx, tx, in.Email)
		switch {
		case err == nil && owner.ID != id:
			return ErrEmailTaken
		case err != nil && !repo.IsNotFound(err):
			return err
		}

		e := in.toEmployee(id)
		if err := s.Repo.UpdateEmployee(ctx, tx, e); err != nil {
			switch {
			case errors.Is(err, repo.ErrDuplicate):
				return ErrEmailTaken
			case repo.IsNotFound(err):
				return ErrEmployeeNotFound
			}
			return err
		}
		updated = e
		return nil
	})
	return updated, s.outcome(ctx, "update", start, err)
}

// Delete removes employee id, or returns ErrEmployeeNotFound.
func (s *EmployeeService) Delete(ctx context.Context, id int64) error {
	start := time.Now()
	err := s.Repo.DeleteEmployee(ctx, s.DB, id)
	if repo.IsNotFound(err) {
		err = ErrEmployeeNotFound
	}
	return s.outcome(ctx, "delete", start, err)
}

// Clear removes every employee. It exists for tests and tooling and is not
// exposed over HTTP.
func (s *EmployeeService) Clear(ctx context.Context) error {
	start := time.Now()
	_, err := s.Repo.ClearEmployees(ctx, s.DB)
	return s.outcome(ctx, "clear", start, err)
}

// insert runs the uniqueness check and the insert on tx.
func (s *EmployeeService) insert(ctx context.Context, tx *gorm.DB, in EmployeeInput) (*domain.Employee, error) {
	if _, err := s.Repo.FindEmployeeByEmail(ctx, tx, in.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !repo.IsNotFound(err) {
		return nil, err
	}

	e := in.toEmployee(0)
	if err := s.Repo.CreateEmployee(ctx, tx, e); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return e, nil
}

// outcome records metrics for op and converts unexpected errors into a
// logged *StorageError. Business outcomes pass through unchanged.
func (s *EmployeeService) outcome(ctx context.Context, op string, start time.Time, err error) error {
	switch {
	case err == nil:
		s.Metrics.Observe(op, metrics.OutcomeOK, start)
		return nil
	case errors.Is(err, ErrEmailTaken):
		s.Metrics.Observe(op, metrics.OutcomeConflict, start)
		return ErrEmailTaken
	case errors.Is(err, ErrEmployeeNotFound):
		s.Metrics.Observe(op, metrics.OutcomeNotFound, start)
		return ErrEmployeeNotFound
	default:
		s.Metrics.Observe(op, metrics.OutcomeError, start)
		return s.fault(ctx, op, err)
	}
}

// fault logs err with full detail and wraps it as a *StorageError.
func (s *EmployeeService) fault(ctx context.Context, op string, err error) error {
	var se *StorageError
	if errors.As(err, &se) {
		return se
	}
	loggerFrom(ctx).Error().Err(err).Str("op", op).Msg("employee store failure")
	return &StorageError{Op: op, Err: err}
}

func (s *EmployeeService) ttl() time.Duration {
	if s.IdempotencyTTL > 0 {
		return s.IdempotencyTTL
	}
	return 24 * time.Hour
}

func validate(in EmployeeInput) error {
	if missing := in.MissingFields(); len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

// loggerFrom returns the request-scoped logger stored in ctx, or the global
// logger when none was attached.
func loggerFrom(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &log.Logger
}
