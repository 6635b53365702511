package errs

import "errors"

var (
	ErrRecordNotFound = errors.New("record not found")

	// auth
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrEmailTaken         = errors.New("email already exists")
	ErrNotAllowed         = errors.New("operation not allowed")

	// upload validation
	ErrFileTooLarge        = errors.New("file size exceeds maximum allowed size")
	ErrExtensionNotAllowed = errors.New("file extension is not allowed")
	ErrInvalidImage        = errors.New("invalid image file")
	ErrUploadQuotaExceeded = errors.New("upload limit reached")
)
