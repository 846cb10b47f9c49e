package segment

import (
	"errors"
	"fmt"
)

// ErrMarkerNotFound is wrapped by ExtractionError.
var ErrMarkerNotFound = errors.New("marker not found")

// ExtractionError reports a marker missing from the page the index pointed to.
type ExtractionError struct {
	Kind      Kind
	Number    int
	PageIndex int
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s %d not found on page %d", e.Kind, e.Number, e.PageIndex)
}

func (e *ExtractionError) Unwrap() error {
	return ErrMarkerNotFound
}
