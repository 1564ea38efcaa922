package errors

import "errors"

const (
	NotFound              = "NotFound"
	notFoundMessage       = "record not found"
	ValidationError       = "ValidationError"
	validationMessage     = "validation error"
	ResourceAlreadyExists = "ResourceAlreadyExists"
	alreadyExistsMessage  = "resource already exists"
	RepositoryError       = "RepositoryError"
	repositoryMessage     = "error in repository operation"
	NotAuthenticated      = "NotAuthenticated"
	notAuthenticatedMsg   = "not authenticated"
	NotAuthorized         = "NotAuthorized"
	notAuthorizedMessage  = "not authorized"
	Conflict              = "Conflict"
	conflictMessage       = "resource is busy"
	UnknownError          = "UnknownError"
	unknownMessage        = "something went wrong"
)

// AppError carries an error together with a type the transport layer maps to a status code.
type AppError struct {
	Err  error
	Type string
}

func NewAppError(err error, errType string) *AppError {
	return &AppError{
		Err:  err,
		Type: errType,
	}
}

func NewAppErrorWithType(errType string) *AppError {
	var err error

	switch errType {
	case NotFound:
		err = errors.New(notFoundMessage)
	case ValidationError:
		err = errors.New(validationMessage)
	case ResourceAlreadyExists:
		err = errors.New(alreadyExistsMessage)
	case RepositoryError:
		err = errors.New(repositoryMessage)
	case NotAuthenticated:
		err = errors.New(notAuthenticatedMsg)
	case NotAuthorized:
		err = errors.New(notAuthorizedMessage)
	case Conflict:
		err = errors.New(conflictMessage)
	default:
		err = errors.New(unknownMessage)
	}

	return &AppError{
		Err:  err,
		Type: errType,
	}
}

func (appErr *AppError) Error() string {
	return appErr.Err.Error()
}

func (appErr *AppError) Unwrap() error {
	return appErr.Err
}

// IsType reports whether err is an AppError of the given type.
func IsType(err error, errType string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}

// GormErr is the shape of driver errors serialized by gorm's TranslateError.
type GormErr struct {
	Number  int    `json:"Number"`
	Message string `json:"Message"`
}
