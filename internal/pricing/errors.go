package pricing

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a fully specified selection matches no
// catalog row.
var ErrNotFound = errors.New("no matching price entry")

// ErrInvalidDate is returned when a usage date is not in DateLayout.
var ErrInvalidDate = errors.New("invalid usage date")

// ErrUnknownTable and ErrUnknownAttribute reject names outside the
// registry before any query is built.
var (
	ErrUnknownTable     = errors.New("unknown price table")
	ErrUnknownAttribute = errors.New("unknown price attribute")
)

// AmbiguousMatchError reports a catalog integrity problem: one attribute
// tuple maps to several codes.
type AmbiguousMatchError struct {
	Table string
	Codes []string
}

func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("%s: %d rows match one selection (%s)", e.Table, len(e.Codes), strings.Join(e.Codes, ", "))
}
