package employee

import (
	"database/sql"

	"go-ees/internal/mediator"
	"go-ees/internal/messaging/kafka"
	"go-ees/internal/shared/pagination"

	"go.uber.org/zap"
)

// Dependencies are the shared resources behind the employee handlers. Outbox
// and Cache may be nil.
type Dependencies struct {
	DB     *sql.DB
	Repo   Repository
	Outbox kafka.OutboxRepository
	Cache  *ListCache
	Logger *zap.Logger
}

// RegisterHandlers adds one handler per employee request to the builder.
func RegisterHandlers(b *mediator.Builder, d Dependencies) {
	mediator.Register[CreateEmployeeCommand, int](b,
		NewCreateHandler(d.DB, d.Repo, d.Outbox, d.Cache, d.Logger).Handle)
	mediator.Register[UpdateEmployeeCommand, bool](b,
		NewUpdateHandler(d.DB, d.Repo, d.Cache, d.Logger).Handle)
	mediator.Register[DeleteEmployeeCommand, bool](b,
		NewDeleteHandler(d.DB, d.Repo, d.Cache, d.Logger).Handle)
	mediator.Register[GetEmployeesQuery, pagination.PaginatedResult[EmployeeDto]](b,
		NewListHandler(d.Repo, d.Cache, d.Logger).Handle)
}

// Requests lists every request type the HTTP handler sends. Pass it to
// Builder.Build so a missing registration fails at startup.
func Requests() []any {
	return []any{
		CreateEmployeeCommand{},
		UpdateEmployeeCommand{},
		DeleteEmployeeCommand{},
		GetEmployeesQuery{},
	}
}
