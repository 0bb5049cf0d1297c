// Package engine implements the document lifecycle and assignment engine:
// reference number allocation, the status workflow, atomic department
// assignment with notification fanout, the per-user seen ledger and the
// append-only activity log.
package engine

import (
	"fmt"
	"strings"

	"github.com/diwanhq/murasalat/backend/internal/models"
)

// ValidationError rejects malformed input before any write happens.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NotFoundError reports an absent document, department or user.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// ForbiddenError reports that the actor lacks the capability for the
// requested action.
type ForbiddenError struct {
	Action string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("not allowed to %s", e.Action)
}

// InvalidTransitionError reports an illegal status transition together with
// the full set of legal next states, never a bare rejection.
type InvalidTransitionError struct {
	Current models.DocumentStatus
	Allowed []models.DocumentStatus
}

func (e *InvalidTransitionError) Error() string {
	if len(e.Allowed) == 0 {
		return fmt.Sprintf("cannot leave terminal status %s", e.Current)
	}
	names := make([]string, len(e.Allowed))
	for i, s := range e.Allowed {
		names[i] = string(s)
	}
	return fmt.Sprintf("invalid transition from %s; allowed: %s", e.Current, strings.Join(names, ", "))
}

// DepartmentNotFoundError lists every requested department id that does not
// exist. No writes happen when it is returned.
type DepartmentNotFoundError struct {
	Missing []string
}

func (e *DepartmentNotFoundError) Error() string {
	return fmt.Sprintf("departments not found: %s", strings.Join(e.Missing, ", "))
}

// ConflictError reports a unique-constraint violation, e.g. a reference
// number collision detected at insert time. The allocator retries these;
// callers only see one after retries are exhausted.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }
