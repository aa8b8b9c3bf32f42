// Employee HTTP handlers.
//
// This file exposes the REST endpoints for employee records:
//   - GET    /                        (liveness)
//   - GET    /api/employees           (list)
//   - POST   /api/employees           (create, optional Idempotency-Key)
//   - PUT    /api/employees/{id}      (full replace)
//   - DELETE /api/employees/{id}      (delete)
//
// Handlers are transport-thin: they parse and validate the body, call the
// EmployeeService and translate its typed outcomes into status codes.
package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/tbourn/go-employee-backend/internal/domain"
	"github.com/tbourn/go-employee-backend/internal/http/middleware"
	"github.com/tbourn/go-employee-backend/internal/services"
)

// EmployeeService defines the operations consumed by the handlers.
//
// Implementations must be safe for concurrent use and return only the typed
// errors from the services package.
type EmployeeService interface {
	List(ctx context.Context) ([]domain.Employee, error)
	Create(ctx context.Context, in services.EmployeeInput) (*domain.Employee, error)
	CreateOnce(ctx context.Context, key string, in services.EmployeeInput) (*domain.Employee, bool, error)
	Update(ctx context.Context, id int64, in services.EmployeeInput) (*domain.Employee, error)
	Delete(ctx context.Context, id int64) error
}

// Handlers groups the HTTP endpoints of the employee API.
type Handlers struct {
	svc EmployeeService
}

// New constructs Handlers bound to svc.
func New(svc EmployeeService) *Handlers {
	useJSONFieldNames()
	return &Handlers{svc: svc}
}

//
// DTOs
//

// EmployeeRequest is the JSON payload for create and update. Every field is
// required; an empty string counts as missing.
type EmployeeRequest struct {
	Name     string `json:"name" binding:"required" example:"Jane Doe"`
	Email    string `json:"email" binding:"required" example:"jane@example.com"`
	Phone    string `json:"phone" binding:"required" example:"555-0100"`
	Position string `json:"position" binding:"required" example:"Engineer"`
	Address  string `json:"address" binding:"required" example:"1 Main St"`
}

func (r EmployeeRequest) input() services.EmployeeInput {
	return services.EmployeeInput{
		Name:     r.Name,
		Email:    r.Email,
		Phone:    r.Phone,
		Position: r.Position,
		Address:  r.Address,
	}
}

//
// Helpers
//

var jsonNamesOnce sync.Once

// useJSONFieldNames makes validator report fields by their json tag, so
// missing-field messages match the request body.
func useJSONFieldNames() {
	jsonNamesOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

// bindEmployee parses the body. It writes the error response itself and
// returns false when the body is not usable. Anything but a JSON object
// (including null, arrays and scalars) is invalid JSON, checked before
// required fields.
func bindEmployee(c *gin.Context) (EmployeeRequest, bool) {
	var req EmployeeRequest
	if c.Request.Body == nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, MsgInvalidJSON, nil)
		return req, false
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(c, http.StatusRequestEntityTooLarge, ErrCodeTooLarge, MsgBodyTooLarge, nil)
			return req, false
		}
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, MsgInvalidJSON, nil)
		return req, false
	}
	if !bytes.HasPrefix(bytes.TrimSpace(body), []byte("{")) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, MsgInvalidJSON, nil)
		return req, false
	}

	err = binding.JSON.BindBody(body, &req)
	if err == nil {
		return req, true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Field())
		}
		failFields(c, fields, missingFieldsMsg(fields))
		return req, false
	}
	fail(c, http.StatusBadRequest, ErrCodeBadRequest, MsgInvalidJSON, nil)
	return req, false
}

func missingFieldsMsg(fields []string) string {
	return "Missing required fields: " + strings.Join(fields, ", ")
}

// employeeID parses the {id} path segment. Anything but a positive integer
// written in plain digits (no sign, no spaces) is answered as an unmatched
// route.
func employeeID(c *gin.Context) (int64, bool) {
	raw := c.Param("id")
	if raw == "" || raw[0] < '0' || raw[0] > '9' {
		fail(c, http.StatusNotFound, ErrCodeNotFound, MsgEndpointNotFound, nil)
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		fail(c, http.StatusNotFound, ErrCodeNotFound, MsgEndpointNotFound, nil)
		return 0, false
	}
	return id, true
}

// serviceError maps a service outcome to a response.
func serviceError(c *gin.Context, err error) {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		failFields(c, ve.Fields, missingFieldsMsg(ve.Fields))
	case errors.Is(err, services.ErrEmailTaken):
		fail(c, http.StatusConflict, ErrCodeConflict, MsgEmailTaken, nil)
	case errors.Is(err, services.ErrEmployeeNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, MsgEmployeeNotFound, nil)
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, MsgInternal, err)
	}
}

//
// Handlers
//

// Home godoc
// @ID          home
// @Summary     Liveness check
// @Description Reports that the API is running. Does not touch storage.
// @Tags        Health
// @Produce     json
// @Success     200  {object}  handlers.MessageResponse
// @Router      / [get]
func (h *Handlers) Home(c *gin.Context) {
	ok(c, http.StatusOK, MessageResponse{Message: "Employee Management API is running!", Status: "ok"})
}

// ListEmployees godoc
// @ID          listEmployees
// @Summary     List employees
// @Description Returns every employee ordered by id. An empty array when there are none.
// @Tags        Employees
// @Produce     json
// @Success     200  {array}   domain.Employee
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /employees [get]
func (h *Handlers) ListEmployees(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		serviceError(c, err)
		return
	}
	if items == nil {
		items = []domain.Employee{}
	}
	ok(c, http.StatusOK, items)
}

// CreateEmployee godoc
// @ID          createEmployee
// @Summary     Create an employee
// @Description Creates an employee. With an Idempotency-Key header, a retried request returns the original employee.
// @Tags        Employees
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string                    false  "Idempotency key"  example(4c1f0d3e-create-1)
// @Param       body             body    handlers.EmployeeRequest  true   "Employee"
//
// @Success     201  {object}  domain.Employee
// @Header      201  {string}  Idempotency-Replayed  "true when served from a previous request"
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid JSON or missing fields"
// @Failure     409  {object}  handlers.ErrorResponse  "Email already exists"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /employees [post]
func (h *Handlers) CreateEmployee(c *gin.Context) {
	req, good := bindEmployee(c)
	if !good {
		return
	}
	ctx := c.Request.Context()

	var (
		e        *domain.Employee
		replayed bool
		err      error
	)
	if key, has := middleware.GetIdempotencyKey(c); has {
		e, replayed, err = h.svc.CreateOnce(ctx, key, req.input())
	} else {
		e, err = h.svc.Create(ctx, req.input())
	}
	if err != nil {
		serviceError(c, err)
		return
	}
	if replayed {
		c.Header(middleware.HeaderIdempotencyReplayed, "true")
	}
	ok(c, http.StatusCreated, e)
}

// UpdateEmployee godoc
// @ID          updateEmployee
// @Summary     Replace an employee
// @Description Overwrites all five fields of an existing employee.
// @Tags        Employees
// @Accept      json
// @Produce     json
//
// @Param       id    path  int                       true  "Employee ID"  minimum(1)  example(1)
// @Param       body  body  handlers.EmployeeRequest  true  "Employee"
//
// @Success     200  {object}  domain.Employee
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid JSON or missing fields"
// @Failure     404  {object}  handlers.ErrorResponse  "Employee not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Email belongs to another employee"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /employees/{id} [put]
func (h *Handlers) UpdateEmployee(c *gin.Context) {
	id, found := employeeID(c)
	if !found {
		return
	}
	req, good := bindEmployee(c)
	if !good {
		return
	}
	e, err := h.svc.Update(c.Request.Context(), id, req.input())
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, e)
}

// DeleteEmployee godoc
// @ID          deleteEmployee
// @Summary     Delete an employee
// @Tags        Employees
// @Produce     json
// @Param       id  path  int  true  "Employee ID"  minimum(1)  example(1)
// @Success     200  {object}  handlers.MessageResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Employee not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /employees/{id} [delete]
func (h *Handlers) DeleteEmployee(c *gin.Context) {
	id, found := employeeID(c)
	if !found {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, MessageResponse{Message: fmt.Sprintf("Employee with ID %d deleted successfully", id)})
}
