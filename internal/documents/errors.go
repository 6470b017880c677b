package documents

import (
	"errors"
	"strings"
)

var (
	ErrNoItems             = errors.New("document has no line items")
	ErrMissingSettings     = errors.New("missing required settings")
	ErrUnknownDocType      = errors.New("unknown document type")
	ErrUnsupportedCurrency = errors.New("unsupported currency")
)

// MissingSettingsError lists the settings fields a document cannot be issued without.
type MissingSettingsError struct {
	Fields []string
}

func (e *MissingSettingsError) Error() string {
	return ErrMissingSettings.Error() + ": " + strings.Join(e.Fields, ", ")
}

// Is lets errors.Is match ErrMissingSettings.
func (e *MissingSettingsError) Is(target error) bool {
	return target == ErrMissingSettings
}

// IsStructural reports whether err means the document cannot be produced from
// its inputs, as opposed to an I/O or rendering failure.
func IsStructural(err error) bool {
	return errors.Is(err, ErrNoItems) ||
		errors.Is(err, ErrMissingSettings) ||
		errors.Is(err, ErrUnknownDocType) ||
		errors.Is(err, ErrUnsupportedCurrency)
}
