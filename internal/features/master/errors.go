package master

import (
	"fmt"
	"strings"
)

// NotFoundError signals an unknown master type key.
type NotFoundError struct {
	Master string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("unknown master type: %s", e.Master)
}

// CyclicDependencyError is a catalog misconfiguration detected at startup.
// It is not recoverable at runtime.
type CyclicDependencyError struct {
	Cycle []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("cyclic master dependency: %s", strings.Join(e.Cycle, " -> "))
}

// DependencyBlockedError is returned when an import may not start because
// prerequisite masters have not completed.
type DependencyBlockedError struct {
	Master  string
	Missing []string
}

func (e *DependencyBlockedError) Error() string {
	return fmt.Sprintf("cannot import %s: dependencies not completed: %s", e.Master, strings.Join(e.Missing, ", "))
}

// StoreError wraps a storage failure during publish. The session that hit it
// stays open so the caller can retry.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
