package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/tbourn/go-employee-backend/internal/domain"
)

func newEmployee(name, email string) *domain.Employee {
	return &domain.Employee{Name: name, Email: email, Phone: "555", Position: "Eng", Address: "Somewhere"}
}

func TestListEmployees_EmptyIsNonNil(t *testing.T) {
	db := newRepoDB(t, true)
	list, err := ListEmployees(context.Background(), db)
	if err != nil {
		t.Fatalf("ListEmployees: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", list)
	}
}

func TestListEmployees_Error_NoTable(t *testing.T) {
	db := newRepoDB(t, false)
	if _, err := ListEmployees(context.Background(), db); err == nil {
		t.Fatalf("expected error when table missing")
	}
}

func TestCreateEmployee_AssignsIncreasingIDs(t *testing.T) {
	db := newRepoDB(t, true)
	ctx := context.Background()

	a := newEmployee("A", "a@x.com")
	a.ID = 42 // caller-supplied ids are ignored
	if err := CreateEmployee(ctx, db, a); err != nil {
		t.Fatalf("create a: %v", err)
	}
	b := newEmployee("B", "b@x.com")
	if err := CreateEmployee(ctx, db, b); err != nil {
		t.Fatalf("create b: %v", err)
	}
	if a.ID != 1 || b.ID != 2 {
		t.Fatalf("expected ids 1,2; got %d,%d", a.ID, b.ID)
	}

	list, err := ListEmployees(ctx, db)
	if err != nil {
		t.Fatalf("ListEmployees: %v", err)
	}
	if len(list) != 2 || list[0].ID != 1 || list[1].ID != 2 {
		t.Fatalf("unexpected list order: %+v", list)
	}
	if list[0] != *a {
		t.Fatalf("round-trip mismatch: got %+v want %+v", list[0], *a)
	}
}

func TestCreateEmployee_DuplicateEmail(t *testing.T) {
	db := newRepoDB(t, true)
	ctx := context.Background()

	if err := CreateEmployee(ctx, db, newEmployee("A", "dup@x.com")); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := CreateEmployee(ctx, db, newEmployee("B", "dup@x.com"))
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	// Email comparison is case-sensitive as stored.
	if err := CreateEmployee(ctx, db, newEmployee("C", "DUP@x.com")); err != nil {
		t.Fatalf("case-variant email should insert: %v", err)
	}
}

func TestIDsAreNotReused(t *testing.T) {
	db := newRepoDB(t, true)
	ctx := context.Background()

	a := newEmployee("A", "a@x.com")
	if err := CreateEmployee(ctx, db, a); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := DeleteEmployee(ctx, db, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := ClearEmployees(ctx, db); err != nil {
		t.Fatalf("clear: %v", err)
	}
	b := newEmployee("B", "b@x.com")
	if err := CreateEmployee(ctx, db, b); err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.ID <= a.ID {
		t.Fatalf("expected id > %d after delete, got %d", a.ID, b.ID)
	}
}

func TestGetAndFindEmployee(t *testing.T) {
	db := newRepoDB(t, true)
	ctx := context.Background()

	if _, err := GetEmployee(ctx, db, 99); !IsNotFound(err) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := FindEmployeeByEmail(ctx, db, "nobody@x.com"); !IsNotFound(err) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	e := newEmployee("A", "a@x.com")
	if err := CreateEmployee(ctx, db, e); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := GetEmployee(ctx, db, e.ID)
	if err != nil || got.Email != "a@x.com" {
		t.Fatalf("GetEmployee: got=%+v err=%v", got, err)
	}
	got, err = FindEmployeeByEmail(ctx, db, "a@x.com")
	if err != nil || got.ID != e.ID {
		t.Fatalf("FindEmployeeByEmail: got=%+v err=%v", got, err)
	}
}

func TestUpdateEmployee_FullReplace_NotFound_Duplicate(t *testing.T) {
	db := newRepoDB(t, true)
	ctx := context.Background()

	a := newEmployee("A", "a@x.com")
	b := newEmployee("B", "b@x.com")
	for _, e := range []*domain.Employee{a, b} {
		if err := CreateEmployee(ctx, db, e); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	upd := &domain.Employee{ID: a.ID, Name: "A2", Email: "a@x.com", Phone: "2", Position: "Lead", Address: "Y"}
	if err := UpdateEmployee(ctx, db, upd); err != nil {
		t.Fatalf("UpdateEmployee: %v", err)
	}
	got, err := GetEmployee(ctx, db, a.ID)
	if err != nil {
		t.Fatalf("GetEmployee: %v", err)
	}
	if *got != *upd {
		t.Fatalf("expected full replace, got %+v want %+v", *got, *upd)
	}

	missing := &domain.Employee{ID: 999, Name: "x", Email: "x@x.com", Phone: "x", Position: "x", Address: "x"}
	if err := UpdateEmployee(ctx, db, missing); !IsNotFound(err) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	clash := &domain.Employee{ID: a.ID, Name: "A", Email: "b@x.com", Phone: "1", Position: "p", Address: "a"}
	if err := UpdateEmployee(ctx, db, clash); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestDeleteEmployee_ThenNotFound(t *testing.T) {
	db := newRepoDB(t, true)
	ctx := context.Background()

	e := newEmployee("A", "a@x.com")
	if err := CreateEmployee(ctx, db, e); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := DeleteEmployee(ctx, db, e.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := DeleteEmployee(ctx, db, e.ID); !IsNotFound(err) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestClearEmployees(t *testing.T) {
	db := newRepoDB(t, true)
	ctx := context.Background()

	for _, email := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		if err := CreateEmployee(ctx, db, newEmployee("n", email)); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	n, err := ClearEmployees(ctx, db)
	if err != nil {
		t.Fatalf("ClearEmployees: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 deleted rows, got %d", n)
	}
	list, _ := ListEmployees(ctx, db)
	if len(list) != 0 {
		t.Fatalf("expected empty table, got %+v", list)
	}
}
