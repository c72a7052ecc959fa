package employee_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go-ees/internal/employee"
	employeeMock "go-ees/internal/employee/mock"
	"go-ees/internal/mediator"
	"go-ees/internal/middleware"
	"go-ees/internal/notification"
	notificationMock "go-ees/internal/notification/mock"
	"go-ees/internal/validation"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"
)

type apiEnvelope struct {
	Ok    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error struct {
		Code    string               `json:"code"`
		Message string               `json:"message"`
		Details []validation.Failure `json:"details"`
	} `json:"error"`
}

type apiDeps struct {
	router  *gin.Engine
	sqlMock sqlmock.Sqlmock
	repo    *employeeMock.MockRepository
	sink    *notificationMock.MockSink
}

// setupAPI wires the real stage, mediator and handlers over a mocked
// repository and transaction source.
func setupAPI(t *testing.T) *apiDeps {
	ctrl := gomock.NewController(t)

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := employeeMock.NewMockRepository(ctrl)
	sink := notificationMock.NewMockSink(ctrl)

	stage := validation.NewStage(validation.WithClock(func() time.Time { return now }))
	employee.RegisterRules(stage)

	b := mediator.NewBuilder().Use(
		mediator.LoggingBehavior(),
		mediator.ValidationBehavior(stage),
	)
	employee.RegisterHandlers(b, employee.Dependencies{DB: db, Repo: repo})
	m, err := b.Build(employee.Requests()...)
	assert.NoError(t, err)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.ExceptionBoundary(sink, time.Second))
	employee.RegisterRoutes(r.Group("/api/v1"), employee.NewHandler(m), 1000, 1000)

	return &apiDeps{router: r, sqlMock: sqlMock, repo: repo, sink: sink}
}

func (d *apiDeps) do(method, path, body string) (*httptest.ResponseRecorder, apiEnvelope) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	d.router.ServeHTTP(w, req)

	var env apiEnvelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func TestEmployeeAPI_Create(t *testing.T) {
	t.Run("valid employee is created", func(t *testing.T) {
		deps := setupAPI(t)
		deps.sink.EXPECT().SendAlert(gomock.Any(), gomock.Any()).Times(0)

		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectCommit()
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().
			Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, e *employee.Employee) error {
				assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), e.HireDate)
				e.ID = 42
				return nil
			})

		w, env := deps.do(http.MethodPost, "/api/v1/employees",
			`{"firstName":"Ann","lastName":"Lee","email":"ann@x.com","jobTitle":"Dev","hireDate":"2024-01-01"}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.True(t, env.Ok)
		assert.JSONEq(t, `{"id":42}`, string(env.Data))
	})

	t.Run("hire date tomorrow is rejected without persisting", func(t *testing.T) {
		deps := setupAPI(t)
		deps.sink.EXPECT().SendAlert(gomock.Any(), gomock.Any()).Times(0)
		deps.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)

		tomorrow := now.Add(24 * time.Hour).Format("2006-01-02")
		w, env := deps.do(http.MethodPost, "/api/v1/employees",
			`{"firstName":"Ann","lastName":"Lee","email":"ann@x.com","jobTitle":"Dev","hireDate":"`+tomorrow+`"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
		assert.Equal(t, []validation.Failure{{Field: "hireDate", Message: "cannot be in the future"}}, env.Error.Details)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("invalid email is rejected without persisting", func(t *testing.T) {
		deps := setupAPI(t)
		deps.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)

		w, env := deps.do(http.MethodPost, "/api/v1/employees",
			`{"firstName":"Ann","lastName":"Lee","email":"ann","jobTitle":"Dev","hireDate":"2024-01-01"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, []validation.Failure{{Field: "email", Message: "must be a valid email address with a domain"}}, env.Error.Details)
	})

	t.Run("three violations yield three failures", func(t *testing.T) {
		deps := setupAPI(t)

		w, env := deps.do(http.MethodPost, "/api/v1/employees",
			`{"firstName":"","lastName":"Lee","email":"nope","jobTitle":"Dev","hireDate":"2999-01-01"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Len(t, env.Error.Details, 3)
	})

	t.Run("unparsable hire date", func(t *testing.T) {
		deps := setupAPI(t)
		deps.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)

		w, env := deps.do(http.MethodPost, "/api/v1/employees",
			`{"firstName":"Ann","lastName":"Lee","email":"ann@x.com","jobTitle":"Dev","hireDate":"01/02/2024"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, []validation.Failure{
			{Field: "hireDate", Message: "must be a date in YYYY-MM-DD or RFC 3339 format"},
		}, env.Error.Details)
	})

	t.Run("unparsable hire date is reported with the other violations", func(t *testing.T) {
		deps := setupAPI(t)
		deps.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)

		w, env := deps.do(http.MethodPost, "/api/v1/employees",
			`{"firstName":"","lastName":"","email":"nope","jobTitle":"Dev","hireDate":"01/02/2024"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
		assert.Equal(t, []validation.Failure{
			{Field: "firstName", Message: "is required"},
			{Field: "lastName", Message: "is required"},
			{Field: "email", Message: "must be a valid email address with a domain"},
			{Field: "hireDate", Message: "must be a date in YYYY-MM-DD or RFC 3339 format"},
		}, env.Error.Details)
	})

	t.Run("rfc 3339 hire date is accepted", func(t *testing.T) {
		deps := setupAPI(t)
		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectCommit()
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().
			Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, e *employee.Employee) error {
				assert.Equal(t, time.Date(2024, 1, 1, 7, 0, 0, 0, time.UTC), e.HireDate)
				e.ID = 43
				return nil
			})

		w, _ := deps.do(http.MethodPost, "/api/v1/employees",
			`{"firstName":"Ann","lastName":"Lee","email":"ann@x.com","jobTitle":"Dev","hireDate":"2024-01-01T09:00:00+02:00"}`)

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("malformed json", func(t *testing.T) {
		deps := setupAPI(t)
		deps.sink.EXPECT().SendAlert(gomock.Any(), gomock.Any()).Times(0)

		w, env := deps.do(http.MethodPost, "/api/v1/employees", `{"firstName":`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_INPUT", env.Error.Code)
	})

	t.Run("store failure answers 500 and alerts once", func(t *testing.T) {
		deps := setupAPI(t)

		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectRollback()
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))
		deps.sink.EXPECT().
			SendAlert(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, a notification.Alert) error {
				assert.Equal(t, "disk full", a.Message)
				assert.Equal(t, "/api/v1/employees", a.Path)
				return nil
			}).
			Times(1)

		w, env := deps.do(http.MethodPost, "/api/v1/employees",
			`{"firstName":"Ann","lastName":"Lee","email":"ann@x.com","jobTitle":"Dev","hireDate":"2024-01-01"}`)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "INTERNAL_ERROR", env.Error.Code)
		assert.Equal(t, "Internal server error. The technical team has been notified.", env.Error.Message)
		assert.NotContains(t, w.Body.String(), "disk full")
	})
}

func TestEmployeeAPI_GetAll(t *testing.T) {
	t.Run("returns a page", func(t *testing.T) {
		deps := setupAPI(t)

		deps.repo.EXPECT().Count(gomock.Any(), employee.ListFilter{SearchTerm: "lee"}).Return(int64(1), nil)
		deps.repo.EXPECT().
			List(gomock.Any(), employee.ListFilter{SearchTerm: "lee"}, 0, 5).
			Return([]employee.Employee{{ID: 1, FirstName: "Ann", LastName: "Lee", Email: "ann@x.com", JobTitle: "Dev", HireDate: hired}}, nil)

		w, env := deps.do(http.MethodGet, "/api/v1/employees?pageNumber=1&pageSize=5&searchTerm=lee", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{
			"items":[{"id":1,"fullName":"Ann Lee","email":"ann@x.com","jobTitle":"Dev","hireDate":"2023-06-01T00:00:00Z"}],
			"pageNumber":1,"totalPages":1,"totalCount":1,"hasPreviousPage":false,"hasNextPage":false
		}`, string(env.Data))
	})

	t.Run("missing paging parameters use defaults", func(t *testing.T) {
		deps := setupAPI(t)

		deps.repo.EXPECT().Count(gomock.Any(), gomock.Any()).Return(int64(0), nil)
		deps.repo.EXPECT().List(gomock.Any(), gomock.Any(), 0, 10).Return(nil, nil)

		w, _ := deps.do(http.MethodGet, "/api/v1/employees", "")

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("non-numeric page number", func(t *testing.T) {
		deps := setupAPI(t)

		w, env := deps.do(http.MethodGet, "/api/v1/employees?pageNumber=abc", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_INPUT", env.Error.Code)
	})
}

func TestEmployeeAPI_Update(t *testing.T) {
	t.Run("success answers 204", func(t *testing.T) {
		deps := setupAPI(t)

		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectCommit()
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().FindByID(gomock.Any(), 5).Return(&employee.Employee{ID: 5}, nil)
		deps.repo.EXPECT().UpdateProfile(gomock.Any(), gomock.Any()).Return(int64(1), nil)

		w, _ := deps.do(http.MethodPut, "/api/v1/employees/5",
			`{"id":5,"firstName":"Anna","lastName":"Lee","jobTitle":"Lead"}`)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})

	t.Run("path and body id mismatch", func(t *testing.T) {
		deps := setupAPI(t)
		deps.repo.EXPECT().FindByID(gomock.Any(), gomock.Any()).Times(0)

		w, env := deps.do(http.MethodPut, "/api/v1/employees/5",
			`{"id":6,"firstName":"Anna","lastName":"Lee","jobTitle":"Lead"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "ID mismatch between URL and request body.", env.Error.Message)
	})

	t.Run("unknown employee answers 404", func(t *testing.T) {
		deps := setupAPI(t)
		deps.sink.EXPECT().SendAlert(gomock.Any(), gomock.Any()).Times(0)

		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectRollback()
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().FindByID(gomock.Any(), 99).Return(nil, gorm.ErrRecordNotFound)

		w, env := deps.do(http.MethodPut, "/api/v1/employees/99",
			`{"id":99,"firstName":"Anna","lastName":"Lee","jobTitle":"Lead"}`)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "NOT_FOUND", env.Error.Code)
	})

	t.Run("invalid fields are rejected before lookup", func(t *testing.T) {
		deps := setupAPI(t)
		deps.repo.EXPECT().FindByID(gomock.Any(), gomock.Any()).Times(0)

		w, env := deps.do(http.MethodPut, "/api/v1/employees/5",
			`{"id":5,"firstName":"","lastName":"Lee","jobTitle":"Lead"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, []validation.Failure{{Field: "firstName", Message: "is required"}}, env.Error.Details)
	})
}

func TestEmployeeAPI_Delete(t *testing.T) {
	t.Run("deleting twice answers 204 then 404", func(t *testing.T) {
		deps := setupAPI(t)
		deps.sink.EXPECT().SendAlert(gomock.Any(), gomock.Any()).Times(0)

		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectCommit()
		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectRollback()
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo).Times(2)
		gomock.InOrder(
			deps.repo.EXPECT().FindByID(gomock.Any(), 3).Return(&employee.Employee{ID: 3}, nil),
			deps.repo.EXPECT().FindByID(gomock.Any(), 3).Return(nil, gorm.ErrRecordNotFound),
		)
		deps.repo.EXPECT().Delete(gomock.Any(), 3).Return(int64(1), nil)

		first, _ := deps.do(http.MethodDelete, "/api/v1/employees/3", "")
		second, _ := deps.do(http.MethodDelete, "/api/v1/employees/3", "")

		assert.Equal(t, http.StatusNoContent, first.Code)
		assert.Equal(t, http.StatusNotFound, second.Code)
	})

	t.Run("non-numeric id", func(t *testing.T) {
		deps := setupAPI(t)

		w, env := deps.do(http.MethodDelete, "/api/v1/employees/abc", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_INPUT", env.Error.Code)
	})
}
