package employeeerrors

import (
	"errors"
	"go-ees/internal/shared/apperror"
	"net/http"
)

var (
	ErrEmployeeNotFound = apperror.New(
		apperror.CodeNotFound,
		"Employee not found",
		http.StatusNotFound,
	)
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid employee ID",
		http.StatusBadRequest,
	)
	ErrIDMismatch = apperror.New(
		apperror.CodeInvalidInput,
		"ID mismatch between URL and request body.",
		http.StatusBadRequest,
	)
	ErrMalformedBody = apperror.New(
		apperror.CodeInvalidInput,
		"Malformed request body",
		http.StatusBadRequest,
	)
)

// ErrEmployeeEmailTaken marks a unique-constraint violation on email. It is a
// store failure, not a client error: it is answered with 500 and alerted.
var ErrEmployeeEmailTaken = errors.New("employee email already exists")

var ErrInvalidPaging = apperror.New(
	apperror.CodeInvalidInput,
	"pageNumber and pageSize must be integers",
	http.StatusBadRequest,
)
