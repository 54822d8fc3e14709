// Package booking turns resolved catalog selections into persisted quote
// items and reservation details.  It owns the write path: validation,
// price re-reads, delete-then-insert of reservation details and the
// post-commit hooks.
package booking

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// ErrAuthRequired is returned by every write path when no authenticated
// user is present.  It is never retried.
var ErrAuthRequired = errors.New("authentication required")

// User is the identity handed over by the session collaborator.
type User struct {
	ID    uuid.UUID
	Email string
}

func requireUser(u *User) error {
	if u == nil || u.ID == uuid.Nil {
		return ErrAuthRequired
	}
	return nil
}

// ValidationError lists the fields that block a submission.  It is always
// returned before any write is attempted.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// add records a field problem; the first message per field wins.
func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

func (e *ValidationError) orNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// RowError is the failure of one row of a multi-row write: a reservation
// detail, or a quote item with its service record.
type RowError struct {
	Index int
	Kind  string
	Code  string
	Err   error
}

func (r RowError) Error() string {
	return fmt.Sprintf("row %d (%s %s): %v", r.Index, r.Kind, r.Code, r.Err)
}

func (r RowError) Unwrap() error { return r.Err }

// PartialWriteError reports rows that failed while others were written.
// Rows already inserted are left in place.
type PartialWriteError struct {
	Written  int
	Failures []RowError
}

func (e *PartialWriteError) Error() string {
	msgs := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		msgs = append(msgs, f.Error())
	}
	return fmt.Sprintf("%d of %d rows failed: %s",
		len(e.Failures), len(e.Failures)+e.Written, strings.Join(msgs, "; "))
}

// Unwrap exposes the row causes so that errors.Is can see, e.g., a store
// timeout behind a partial write.
func (e *PartialWriteError) Unwrap() []error {
	out := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		out = append(out, f.Err)
	}
	return out
}
