package apperror

import "errors"

// HTTPError is the client-facing view of an error.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Details any
}

// ToHTTP classifies err for the response writer. Client AppErrors keep their
// own status and message; everything else collapses into ErrInternal so no
// internal detail leaks to the caller.
func ToHTTP(err error) HTTPError {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.IsClientError() {
		return HTTPError{
			Status:  appErr.HTTPStatus,
			Code:    appErr.Code,
			Message: appErr.Message,
		}
	}

	return HTTPError{
		Status:  ErrInternal.HTTPStatus,
		Code:    ErrInternal.Code,
		Message: ErrInternal.Message,
	}
}

// IsClientError reports whether err carries a 4xx AppError anywhere in its chain.
func IsClientError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.IsClientError()
}
