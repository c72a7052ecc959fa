package employee

import (
	"context"
	"database/sql"
	"errors"
	"time"

	employeeerrors "go-ees/internal/employee/errors"
	"go-ees/internal/events"
	"go-ees/internal/messaging/kafka"
	"go-ees/internal/shared/contextutil"

	"go.uber.org/zap"
)

// commandDeps is what every write handler needs: a transaction source, the
// repository, an optional outbox and the list cache to retire on success.
type commandDeps struct {
	db     *sql.DB
	repo   Repository
	outbox kafka.OutboxRepository
	cache  *ListCache
	logger *zap.Logger
}

func newCommandDeps(name string, db *sql.DB, repo Repository, outbox kafka.OutboxRepository, cache *ListCache, logger []*zap.Logger) commandDeps {
	l := zap.L().Named(name)
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named(name)
	}
	return commandDeps{db: db, repo: repo, outbox: outbox, cache: cache, logger: l}
}

type CreateHandler struct {
	commandDeps
	now func() time.Time
}

func NewCreateHandler(
	db *sql.DB,
	repo Repository,
	outboxRepo kafka.OutboxRepository,
	cache *ListCache,
	logger ...*zap.Logger,
) *CreateHandler {
	return &CreateHandler{
		commandDeps: newCommandDeps("employee.create", db, repo, outboxRepo, cache, logger),
		now:         time.Now,
	}
}

// Handle inserts the employee and returns the store-assigned ID.
func (h *CreateHandler) Handle(ctx context.Context, cmd CreateEmployeeCommand) (int, error) {
	rid := contextutil.GetRequestID(ctx)
	h.logger.Debug("create employee requested",
		zap.String("request_id", rid),
		zap.String("email", cmd.Email),
	)

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		h.logger.Error("create employee begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return 0, err
	}
	defer tx.Rollback()

	empl := &Employee{
		FirstName: cmd.FirstName,
		LastName:  cmd.LastName,
		Email:     cmd.Email,
		JobTitle:  cmd.JobTitle,
		HireDate:  cmd.HireDate,
	}
	if err := h.repo.WithTx(tx).Create(ctx, empl); err != nil {
		h.logger.Error("create employee persist failed", zap.String("request_id", rid), zap.Error(err))
		return 0, mapRepositoryError(err)
	}

	if h.outbox != nil {
		if err := h.queueCreated(ctx, tx, rid, empl); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		h.logger.Error("create employee commit failed", zap.String("request_id", rid), zap.Error(err))
		return 0, err
	}

	h.cache.Invalidate(ctx)

	h.logger.Info("create employee success",
		zap.String("request_id", rid),
		zap.Int("employee_id", empl.ID),
	)
	return empl.ID, nil
}

func (h *CreateHandler) queueCreated(ctx context.Context, tx *sql.Tx, rid string, empl *Employee) error {
	event, err := kafka.EmployeeCreated(events.EmployeeCreatedEvent{
		RequestID:  rid,
		EmployeeID: empl.ID,
		Email:      empl.Email,
		HireDate:   empl.HireDate,
		OccurredAt: h.now().UTC(),
	})
	if err != nil {
		h.logger.Error("build employee created event failed", zap.String("request_id", rid), zap.Error(err))
		return err
	}

	if err := h.outbox.WithTx(tx).Create(ctx, event); err != nil {
		h.logger.Error("create employee outbox persist failed",
			zap.Int("employee_id", empl.ID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

type UpdateHandler struct {
	commandDeps
}

func NewUpdateHandler(db *sql.DB, repo Repository, cache *ListCache, logger ...*zap.Logger) *UpdateHandler {
	return &UpdateHandler{commandDeps: newCommandDeps("employee.update", db, repo, nil, cache, logger)}
}

// Handle overwrites the mutable profile fields. It reports false, with no
// error, when the employee does not exist.
func (h *UpdateHandler) Handle(ctx context.Context, cmd UpdateEmployeeCommand) (bool, error) {
	rid := contextutil.GetRequestID(ctx)
	h.logger.Debug("update employee requested",
		zap.String("request_id", rid),
		zap.Int("employee_id", cmd.ID),
	)

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		h.logger.Error("update employee begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return false, err
	}
	defer tx.Rollback()

	qtx := h.repo.WithTx(tx)
	empl, err := qtx.FindByID(ctx, cmd.ID)
	if err != nil {
		return false, h.notFoundOrError("update", rid, cmd.ID, err)
	}

	empl.FirstName = cmd.FirstName
	empl.LastName = cmd.LastName
	empl.JobTitle = cmd.JobTitle

	affected, err := qtx.UpdateProfile(ctx, empl)
	if err != nil {
		h.logger.Error("update employee persist failed", zap.String("request_id", rid), zap.Error(err))
		return false, mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		h.logger.Error("update employee commit failed", zap.String("request_id", rid), zap.Error(err))
		return false, err
	}

	if affected > 0 {
		h.cache.Invalidate(ctx)
	}

	h.logger.Info("update employee success",
		zap.String("request_id", rid),
		zap.Int("employee_id", cmd.ID),
		zap.Int64("affected", affected),
	)
	return affected > 0, nil
}

type DeleteHandler struct {
	commandDeps
}

func NewDeleteHandler(db *sql.DB, repo Repository, cache *ListCache, logger ...*zap.Logger) *DeleteHandler {
	return &DeleteHandler{commandDeps: newCommandDeps("employee.delete", db, repo, nil, cache, logger)}
}

// Handle removes the employee. It reports false, with no error, when the
// employee does not exist.
func (h *DeleteHandler) Handle(ctx context.Context, cmd DeleteEmployeeCommand) (bool, error) {
	rid := contextutil.GetRequestID(ctx)
	h.logger.Debug("delete employee requested",
		zap.String("request_id", rid),
		zap.Int("employee_id", cmd.ID),
	)

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		h.logger.Error("delete employee begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return false, err
	}
	defer tx.Rollback()

	qtx := h.repo.WithTx(tx)
	if _, err := qtx.FindByID(ctx, cmd.ID); err != nil {
		return false, h.notFoundOrError("delete", rid, cmd.ID, err)
	}

	affected, err := qtx.Delete(ctx, cmd.ID)
	if err != nil {
		h.logger.Error("delete employee persist failed", zap.String("request_id", rid), zap.Error(err))
		return false, mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		h.logger.Error("delete employee commit failed", zap.String("request_id", rid), zap.Error(err))
		return false, err
	}

	if affected > 0 {
		h.cache.Invalidate(ctx)
	}

	h.logger.Info("delete employee success",
		zap.String("request_id", rid),
		zap.Int("employee_id", cmd.ID),
		zap.Int64("affected", affected),
	)
	return affected > 0, nil
}

// notFoundOrError turns a missing row into a nil error so the handler can
// report false. Any other lookup failure is returned as is.
func (d commandDeps) notFoundOrError(op, rid string, id int, err error) error {
	mapped := mapRepositoryError(err)
	if errors.Is(mapped, employeeerrors.ErrEmployeeNotFound) {
		d.logger.Info(op+" employee not found",
			zap.String("request_id", rid),
			zap.Int("employee_id", id),
		)
		return nil
	}

	d.logger.Error(op+" employee lookup failed", zap.String("request_id", rid), zap.Error(err))
	return mapped
}
