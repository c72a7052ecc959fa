package employee

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	employeeerrors "go-ees/internal/employee/errors"
	"go-ees/internal/mediator"
	"go-ees/internal/shared/pagination"
	"go-ees/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const hireDateLayout = "2006-01-02"

// Handler translates HTTP requests into mediator requests. Errors are attached
// to the gin context and rendered by the exception boundary.
type Handler struct {
	sender mediator.Sender
	logger *zap.Logger
}

func NewHandler(sender mediator.Sender, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("employee.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("employee.handler")
	}
	return &Handler{sender: sender, logger: l}
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug("http create employee bad body", zap.Error(err))
		_ = c.Error(fmt.Errorf("%w: %w", employeeerrors.ErrMalformedBody, err))
		return
	}

	hireDate, parsed := parseHireDate(req.HireDate)

	id, err := mediator.SendAs[int](c.Request.Context(), h.sender, CreateEmployeeCommand{
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		Email:              req.Email,
		JobTitle:           req.JobTitle,
		HireDate:           hireDate,
		HireDateUnparsable: !parsed,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.Success(c, http.StatusCreated, CreateEmployeeResponse{ID: id})
}

func (h *Handler) GetAll(c *gin.Context) {
	pageNumber, err := queryInt(c, "pageNumber", pagination.DefaultPageNumber)
	if err != nil {
		_ = c.Error(err)
		return
	}
	pageSize, err := queryInt(c, "pageSize", pagination.DefaultPageSize)
	if err != nil {
		_ = c.Error(err)
		return
	}

	result, err := mediator.SendAs[pagination.PaginatedResult[EmployeeDto]](c.Request.Context(), h.sender, GetEmployeesQuery{
		PageNumber: pageNumber,
		PageSize:   pageSize,
		SearchTerm: c.Query("searchTerm"),
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

func (h *Handler) Update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var req UpdateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug("http update employee bad body", zap.Error(err))
		_ = c.Error(fmt.Errorf("%w: %w", employeeerrors.ErrMalformedBody, err))
		return
	}
	if req.ID != id {
		_ = c.Error(employeeerrors.ErrIDMismatch)
		return
	}

	updated, err := mediator.SendAs[bool](c.Request.Context(), h.sender, UpdateEmployeeCommand{
		ID:        req.ID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		JobTitle:  req.JobTitle,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	if !updated {
		_ = c.Error(employeeerrors.ErrEmployeeNotFound)
		return
	}

	response.NoContent(c)
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	deleted, err := mediator.SendAs[bool](c.Request.Context(), h.sender, DeleteEmployeeCommand{ID: id})
	if err != nil {
		_ = c.Error(err)
		return
	}
	if !deleted {
		_ = c.Error(employeeerrors.ErrEmployeeNotFound)
		return
	}

	response.NoContent(c)
}

func pathID(c *gin.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, employeeerrors.ErrInvalidEmployeeID
	}
	return id, nil
}

func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, employeeerrors.ErrInvalidPaging
	}
	return n, nil
}

// parseHireDate accepts a calendar date or an RFC 3339 timestamp. An empty
// value yields the zero time, which the validation stage reports as missing.
// ok is false only for a non-empty value in neither layout.
func parseHireDate(raw string) (t time.Time, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, true
	}
	if t, err := time.Parse(hireDateLayout, raw); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}
