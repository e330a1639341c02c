package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"bookstore/pkg/models"
)

// ErrInFlight is returned when the same action is already running.
var ErrInFlight = errors.New("action already in progress")

// ValidationError blocks a submission; Fields maps field name to message.
type ValidationError struct {
	Fields FieldErrors
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

// NotFoundError reports a book id the store does not hold.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("book %d not found", e.ID)
}

// NetworkError reports an unreachable store or a non-2xx response.
// StatusCode is 0 when no response was received.
type NetworkError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// AuthorizationError reports a mutating action attempted without the admin role.
type AuthorizationError struct {
	Action string
	Role   models.Role
}

func (e *AuthorizationError) Error() string {
	role := e.Role
	if role == "" {
		role = models.RoleGuest
	}
	return fmt.Sprintf("%s requires admin role (have %s)", e.Action, role)
}
