package constraint

import (
	"errors"
	"fmt"

	"github.com/yudis/h2database/internal/record"
)

// ErrDuplicateConstraintName rejects registering two constraints with the
// same name within a schema.
var ErrDuplicateConstraintName = errors.New("constraint: duplicate constraint name")

// Violation reports a row that fails a constraint. It aborts the mutating
// statement; the enclosing transaction may continue.
type Violation struct {
	Constraint string
	Kind       Kind
	Table      string
	Detail     string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("constraint: %s constraint %q violated on table %s: %s",
		v.Kind, v.Constraint, v.Table, v.Detail)
}

func violation(c Constraint, detail string) *Violation {
	return &Violation{
		Constraint: c.Name(),
		Kind:       c.Kind(),
		Table:      c.Table().Name(),
		Detail:     detail,
	}
}

// BulkValidationError reports pre-existing data failing a newly added rule.
// The add-constraint DDL aborts; nothing is registered.
type BulkValidationError struct {
	Constraint string
	Err        error
}

func (e *BulkValidationError) Error() string {
	return fmt.Sprintf("constraint: existing data fails new constraint %q: %v",
		e.Constraint, e.Err)
}

func (e *BulkValidationError) Unwrap() error { return e.Err }

// UnresolvableReferenceError reports that Rebuild (or a referential probe)
// could not re-resolve a table or column.
type UnresolvableReferenceError struct {
	Constraint string
	Ref        string
}

func (e *UnresolvableReferenceError) Error() string {
	return fmt.Sprintf("constraint: constraint %q references unresolvable %s",
		e.Constraint, e.Ref)
}

// RefAction is the configured reaction to deleting or updating a referenced
// row while referencing rows still point at it.
type RefAction uint8

const (
	Restrict RefAction = iota
	Cascade
	SetNull
)

func (a RefAction) String() string {
	switch a {
	case Cascade:
		return "CASCADE"
	case SetNull:
		return "SET NULL"
	default:
		return "RESTRICT"
	}
}

// CascadeRequiredError signals that referencing rows require a cascading
// action. The constraint layer never mutates rows itself; the caller (the
// transaction layer) executes the action and retries the original change.
type CascadeRequiredError struct {
	Constraint string
	Action     RefAction
	Rows       []record.TID
	OldKey     []any
	Update     bool
}

func (e *CascadeRequiredError) Error() string {
	return fmt.Sprintf("constraint: constraint %q requires %s for %d referencing row(s)",
		e.Constraint, e.Action, len(e.Rows))
}
