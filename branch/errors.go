package branch

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is matching against the typed errors below.
var (
	ErrInvalidName       = errors.New("invalid branch name")
	ErrAlreadyExists     = errors.New("branch already exists")
	ErrNotFound          = errors.New("no such branch")
	ErrPersistence       = errors.New("persistence failure")
	ErrInconsistentState = errors.New("inconsistent state")
)

// Kind classifies an error into one of the domain error kinds.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidName
	KindAlreadyExists
	KindNotFound
	KindPersistence
	KindInconsistentState
)

// String returns a snake_case identifier suitable for machine consumers.
func (k Kind) String() string {
	switch k {
	case KindInvalidName:
		return "invalid_name"
	case KindAlreadyExists:
		return "already_exists"
	case KindNotFound:
		return "not_found"
	case KindPersistence:
		return "persistence_failure"
	case KindInconsistentState:
		return "inconsistent_state"
	default:
		return "unknown"
	}
}

// KindOf returns the kind of the first domain error found in err's chain.
// Inconsistent state is checked first since it wraps a persistence failure.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrInconsistentState):
		return KindInconsistentState
	case errors.Is(err, ErrInvalidName):
		return KindInvalidName
	case errors.Is(err, ErrAlreadyExists):
		return KindAlreadyExists
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrPersistence):
		return KindPersistence
	default:
		return KindUnknown
	}
}

// InvalidNameError is returned when a name is reserved or contains a
// forbidden character.
type InvalidNameError struct {
	Name   string
	Reason string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid branch name %q: %s", e.Name, e.Reason)
}

// Is matches ErrInvalidName.
func (e *InvalidNameError) Is(target error) bool {
	return target == ErrInvalidName
}

// GetName returns the rejected name.
func (e *InvalidNameError) GetName() string {
	return e.Name
}

// AlreadyExistsError is returned when a sibling with the same name exists.
type AlreadyExistsError struct {
	Parent Path
	Name   string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s: branch %q already exists", e.Parent, e.Name)
}

// Is matches ErrAlreadyExists.
func (e *AlreadyExistsError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// GetPath returns the path the colliding branch would have had.
func (e *AlreadyExistsError) GetPath() Path {
	return e.Parent.Join(e.Name)
}

// NotFoundError is returned when path resolution fails.
type NotFoundError struct {
	From Path
	Spec string
}

func (e *NotFoundError) Error() string {
	if len(e.From) == 0 {
		return fmt.Sprintf("no such branch %q", e.Spec)
	}
	return fmt.Sprintf("%s: no such branch %q", e.From, e.Spec)
}

// Is matches ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// GetPath returns the branch resolution started from.
func (e *NotFoundError) GetPath() Path {
	return e.From
}

// PersistenceError wraps a read or write failure of a durable store.
// Target names the store ("tree" or "ledger").
type PersistenceError struct {
	Op     string
	Target string
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %s store: %v", e.Op, e.Target, e.Err)
}

// Is matches ErrPersistence.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// InconsistentStateError reports that a cascade step failed partway and the
// attempt to undo the earlier steps failed as well. Cause is the failure that
// triggered the rollback, Err the failure of the rollback itself.
type InconsistentStateError struct {
	Op    string
	Step  string
	Cause error
	Err   error
}

func (e *InconsistentStateError) Error() string {
	return fmt.Sprintf("%s: stores left inconsistent at %s: %v (rollback failed: %v)", e.Op, e.Step, e.Cause, e.Err)
}

// Is matches ErrInconsistentState.
func (e *InconsistentStateError) Is(target error) bool {
	return target == ErrInconsistentState
}

func (e *InconsistentStateError) Unwrap() []error {
	return []error{e.Cause, e.Err}
}
