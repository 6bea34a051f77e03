package models

import "errors"

// Error taxonomy shared by the message and statement engines.
var (
	// ErrNoMatch means the input does not resemble any registered format.
	ErrNoMatch = errors.New("no registered format matches the input")

	// ErrExtractionFailed means a format matched but a required field
	// (the amount) could not be converted.
	ErrExtractionFailed = errors.New("format matched but a required field could not be extracted")

	// ErrPasswordRequired is returned for encrypted files read without a password.
	ErrPasswordRequired = errors.New("statement is password protected")

	// ErrPasswordInvalid is returned when the supplied password does not open the file.
	ErrPasswordInvalid = errors.New("statement password is invalid")

	// ErrInvalidInput is a contract violation: missing file name, type or data.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedFile means no layout is registered for the file type or bank.
	ErrUnsupportedFile = errors.New("unsupported statement file")

	// ErrDecode wraps decoder failures that are not credential problems.
	ErrDecode = errors.New("statement could not be decoded")
)

// IsNoMatch reports whether err is a "not a known format" failure.
func IsNoMatch(err error) bool {
	return errors.Is(err, ErrNoMatch)
}

// IsPasswordError reports whether the caller should prompt for a password.
func IsPasswordError(err error) bool {
	return errors.Is(err, ErrPasswordRequired) || errors.Is(err, ErrPasswordInvalid)
}

// ClassifyError returns a short label for metrics and API responses.
func ClassifyError(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNoMatch):
		return "no_match"
	case errors.Is(err, ErrExtractionFailed):
		return "extraction_failed"
	case errors.Is(err, ErrPasswordRequired):
		return "password_required"
	case errors.Is(err, ErrPasswordInvalid):
		return "password_invalid"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrUnsupportedFile):
		return "unsupported_file"
	case errors.Is(err, ErrDecode):
		return "decode_error"
	}
	return "internal_error"
}
