package ledger

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why an imported document was rejected.
type ErrorKind string

const (
	KindWrongType       ErrorKind = "wrong_type"
	KindMissingField    ErrorKind = "missing_field"
	KindEmptyCollection ErrorKind = "empty_collection"
)

// ErrInvalidImport is wrapped by every *ImportError.
var ErrInvalidImport = errors.New("invalid import")

// ImportError is returned by ValidateImport. Message is meant for display.
type ImportError struct {
	Kind    ErrorKind
	Field   string
	Message string
}

func (e *ImportError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Field)
}

func (e *ImportError) Unwrap() error { return ErrInvalidImport }

// IsKind reports whether err is an *ImportError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var ie *ImportError
	return errors.As(err, &ie) && ie.Kind == kind
}
