package employee_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go-ees/internal/employee"
	employeeerrors "go-ees/internal/employee/errors"
	employeeMock "go-ees/internal/employee/mock"
	"go-ees/internal/events"
	"go-ees/internal/messaging/kafka"
	kafkaMock "go-ees/internal/messaging/kafka/mock"
	"go-ees/internal/shared/apperror"
	"go-ees/internal/shared/contextutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"
)

type commandDeps struct {
	db        *sql.DB
	sqlMock   sqlmock.Sqlmock
	repo      *employeeMock.MockRepository
	outbox    *kafkaMock.MockOutboxRepository
	redismock redismock.ClientMock
	cache     *employee.ListCache
}

func setupCommandTest(t *testing.T) *commandDeps {
	ctrl := gomock.NewController(t)

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	rdb, redisMock := redismock.NewClientMock()

	return &commandDeps{
		db:        db,
		sqlMock:   sqlMock,
		repo:      employeeMock.NewMockRepository(ctrl),
		outbox:    kafkaMock.NewMockOutboxRepository(ctrl),
		redismock: redisMock,
		cache:     employee.NewListCache(rdb, time.Minute),
	}
}

func expectTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func annLee() employee.CreateEmployeeCommand {
	return employee.CreateEmployeeCommand{
		FirstName: "Ann",
		LastName:  "Lee",
		Email:     "ann@x.com",
		JobTitle:  "Dev",
		HireDate:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreateHandler_Handle(t *testing.T) {
	t.Run("success returns the assigned id and retires the list cache", func(t *testing.T) {
		deps := setupCommandTest(t)
		h := employee.NewCreateHandler(deps.db, deps.repo, nil, deps.cache)
		cmd := annLee()

		expectTx(t, deps.sqlMock, true)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().
			Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, e *employee.Employee) error {
				assert.Zero(t, e.ID)
				assert.Equal(t, "Ann", e.FirstName)
				assert.Equal(t, "Lee", e.LastName)
				assert.Equal(t, "ann@x.com", e.Email)
				assert.Equal(t, "Dev", e.JobTitle)
				assert.Equal(t, cmd.HireDate, e.HireDate)
				e.ID = 42
				return nil
			})
		deps.redismock.ExpectIncr(employee.EmployeeListVersionKey).SetVal(1)

		id, err := h.Handle(context.Background(), cmd)

		assert.NoError(t, err)
		assert.Equal(t, 42, id)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
		assert.NoError(t, deps.redismock.ExpectationsWereMet())
	})

	t.Run("success queues an employee_created outbox event in the same transaction", func(t *testing.T) {
		deps := setupCommandTest(t)
		h := employee.NewCreateHandler(deps.db, deps.repo, deps.outbox, nil)
		ctx := contextutil.WithRequestID(context.Background(), "req-123")

		expectTx(t, deps.sqlMock, true)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().
			Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, e *employee.Employee) error {
				e.ID = 7
				return nil
			})
		deps.outbox.EXPECT().WithTx(gomock.Any()).Return(deps.outbox)
		deps.outbox.EXPECT().
			Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, ev kafka.OutboxEvent) error {
				assert.Equal(t, "req-123", ev.RequestID)
				assert.Equal(t, "employee", ev.AggregateType)
				assert.Equal(t, "7", ev.AggregateID)
				assert.Equal(t, events.EmployeeCreatedType, ev.EventType)
				assert.Equal(t, events.EmployeeCreatedTopic, ev.Topic)
				assert.Equal(t, kafka.OutboxStatusPending, ev.Status)
				assert.NotEmpty(t, ev.ID)

				var payload events.EmployeeCreatedEvent
				assert.NoError(t, json.Unmarshal(ev.Payload, &payload))
				assert.Equal(t, 7, payload.EmployeeID)
				assert.Equal(t, "ann@x.com", payload.Email)
				assert.Equal(t, "req-123", payload.RequestID)
				return nil
			})

		id, err := h.Handle(ctx, annLee())

		assert.NoError(t, err)
		assert.Equal(t, 7, id)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("duplicate email is a system failure and rolls back", func(t *testing.T) {
		deps := setupCommandTest(t)
		h := employee.NewCreateHandler(deps.db, deps.repo, deps.outbox, deps.cache)

		expectTx(t, deps.sqlMock, false)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().
			Create(gomock.Any(), gomock.Any()).
			Return(&pgconn.PgError{Code: "23505", ConstraintName: "uq_employee_email"})
		deps.outbox.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)

		id, err := h.Handle(context.Background(), annLee())

		assert.Zero(t, id)
		assert.ErrorIs(t, err, employeeerrors.ErrEmployeeEmailTaken)
		assert.False(t, apperror.IsClientError(err))
		var pgErr *pgconn.PgError
		assert.True(t, errors.As(err, &pgErr))
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
		assert.NoError(t, deps.redismock.ExpectationsWereMet())
	})

	t.Run("outbox failure rolls back", func(t *testing.T) {
		deps := setupCommandTest(t)
		h := employee.NewCreateHandler(deps.db, deps.repo, deps.outbox, deps.cache)

		expectTx(t, deps.sqlMock, false)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		deps.outbox.EXPECT().WithTx(gomock.Any()).Return(deps.outbox)
		deps.outbox.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("outbox down"))

		_, err := h.Handle(context.Background(), annLee())

		assert.EqualError(t, err, "outbox down")
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("begin failure", func(t *testing.T) {
		deps := setupCommandTest(t)
		h := employee.NewCreateHandler(deps.db, deps.repo, nil, deps.cache)

		deps.sqlMock.ExpectBegin().WillReturnError(errors.New("pool exhausted"))

		_, err := h.Handle(context.Background(), annLee())

		assert.EqualError(t, err, "pool exhausted")
	})

	t.Run("commit failure", func(t *testing.T) {
		deps := setupCommandTest(t)
		h := employee.NewCreateHandler(deps.db, deps.repo, nil, deps.cache)

		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectCommit().WillReturnError(errors.New("commit lost"))
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

		_, err := h.Handle(context.Background(), annLee())

		assert.EqualError(t, err, "commit lost")
		assert.NoError(t, deps.redismock.ExpectationsWereMet())
	})
}

func TestUpdateHandler_Handle(t *testing.T) {
	cmd := employee.UpdateEmployeeCommand{ID: 5, FirstName: "Anna", LastName: "Lee", JobTitle: "Lead"}

	t.Run("success overwrites only the profile fields", func(t *testing.T) {
		deps := setupCommandTest(t)
		h := employee.NewUpdateHandler(deps.db, deps.repo, deps.cache)
		hireDate := time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC)

		expectTx(t, deps.sqlMock, true)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().
			FindByID(gomock.Any(), 5).
			Return(&employee.Employee{ID: 5, FirstName: "Ann", LastName: "Lee", Email: "ann@x.com", JobTitle: "Dev", HireDate: hireDate}, nil)
		deps.repo.EXPECT().
			UpdateProfile(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, e *employee.Employee) (int64, error) {
				assert.Equal(t, "Anna", e.FirstName)
				assert.Equal(t, "Lee", e.LastName)
				assert.Equal(t, "Lead", e.JobTitle)
				assert.Equal(t, "ann@x.com", e.Email)
				assert.Equal(t, hireDate, e.HireDate)
				return 1, nil
			})
		deps.redismock.ExpectIncr(employee.EmployeeListVersionKey).SetVal(2)

		ok, err := h.Handle(context.Background(), cmd)

		assert.NoError(t, err)
		assert.True(t, ok)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
		assert.NoError(t, deps.redismock.ExpectationsWereMet())
	})

	t.Run("not found returns false without mutating", func(t *testing.T) {
		deps := setupCommandTest(t)
		h := employee.NewUpdateHandler(deps.db, deps.repo, deps.cache)

		expectTx(t, deps.sqlMock, false)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().FindByID(gomock.Any(), 5).Return(nil, gorm.ErrRecordNotFound)
		deps.repo.EXPECT().UpdateProfile(gomock.Any(), gomock.Any()).Times(0)

		ok, err := h.Handle(context.Background(), cmd)

		assert.NoError(t, err)
		assert.False(t, ok)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
		assert.NoError(t, deps.redismock.ExpectationsWereMet())
	})

	t.Run("zero affected rows returns false", func(t *testing.T) {
		deps := setupCommandTest(t)
		h := employee.NewUpdateHandler(deps.db, deps.repo, nil)

		expectTx(t, deps.sqlMock, true)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().FindByID(gomock.Any(), 5).Return(&employee.Employee{ID: 5}, nil)
		deps.repo.EXPECT().UpdateProfile(gomock.Any(), gomock.Any()).Return(int64(0), nil)

		ok, err := h.Handle(context.Background(), cmd)

		assert.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("lookup failure propagates", func(t *testing.T) {
		deps := setupCommandTest(t)
		h := employee.NewUpdateHandler(deps.db, deps.repo, nil)

		expectTx(t, deps.sqlMock, false)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().FindByID(gomock.Any(), 5).Return(nil, errors.New("connection reset"))

		ok, err := h.Handle(context.Background(), cmd)

		assert.False(t, ok)
		assert.EqualError(t, err, "connection reset")
	})
}

func TestDeleteHandler_Handle(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		deps := setupCommandTest(t)
		h := employee.NewDeleteHandler(deps.db, deps.repo, deps.cache)

		expectTx(t, deps.sqlMock, true)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().FindByID(gomock.Any(), 9).Return(&employee.Employee{ID: 9}, nil)
		deps.repo.EXPECT().Delete(gomock.Any(), 9).Return(int64(1), nil)
		deps.redismock.ExpectIncr(employee.EmployeeListVersionKey).SetVal(3)

		ok, err := h.Handle(context.Background(), employee.DeleteEmployeeCommand{ID: 9})

		assert.NoError(t, err)
		assert.True(t, ok)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
		assert.NoError(t, deps.redismock.ExpectationsWereMet())
	})

	t.Run("second delete of the same id returns false", func(t *testing.T) {
		deps := setupCommandTest(t)
		h := employee.NewDeleteHandler(deps.db, deps.repo, nil)

		expectTx(t, deps.sqlMock, true)
		expectTx(t, deps.sqlMock, false)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo).Times(2)
		gomock.InOrder(
			deps.repo.EXPECT().FindByID(gomock.Any(), 9).Return(&employee.Employee{ID: 9}, nil),
			deps.repo.EXPECT().FindByID(gomock.Any(), 9).Return(nil, gorm.ErrRecordNotFound),
		)
		deps.repo.EXPECT().Delete(gomock.Any(), 9).Return(int64(1), nil).Times(1)

		first, err := h.Handle(context.Background(), employee.DeleteEmployeeCommand{ID: 9})
		assert.NoError(t, err)
		assert.True(t, first)

		second, err := h.Handle(context.Background(), employee.DeleteEmployeeCommand{ID: 9})
		assert.NoError(t, err)
		assert.False(t, second)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("delete failure propagates", func(t *testing.T) {
		deps := setupCommandTest(t)
		h := employee.NewDeleteHandler(deps.db, deps.repo, nil)

		expectTx(t, deps.sqlMock, false)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().FindByID(gomock.Any(), 9).Return(&employee.Employee{ID: 9}, nil)
		deps.repo.EXPECT().Delete(gomock.Any(), 9).Return(int64(0), errors.New("lock timeout"))

		ok, err := h.Handle(context.Background(), employee.DeleteEmployeeCommand{ID: 9})

		assert.False(t, ok)
		assert.EqualError(t, err, "lock timeout")
	})
}
