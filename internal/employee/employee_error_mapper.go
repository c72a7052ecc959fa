package employee

import (
	"errors"
	"fmt"
	"strings"

	employeeerrors "go-ees/internal/employee/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation     = "23505"
	emailUniqueConstraint = "uq_employee_email"
)

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return employeeerrors.ErrEmployeeNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == emailUniqueConstraint {
			return fmt.Errorf("%w: %w", employeeerrors.ErrEmployeeEmailTaken, err)
		}
		return err
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "duplicate key value") && strings.Contains(errMsg, emailUniqueConstraint) {
		return fmt.Errorf("%w: %w", employeeerrors.ErrEmployeeEmailTaken, err)
	}

	return err
}
