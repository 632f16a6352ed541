// Package repository declares the persistence contracts of the service.
// Implementations hold no business rules beyond the conditional writes that
// make status changes and assignments race-free.
package repository

import (
	"database/sql"
	"errors"
)

var (
	// ErrCandidateTaken means the candidate already holds an active assignment.
	ErrCandidateTaken = errors.New("candidate already assigned")
	// ErrContractNotAssignable means the contract left open/reviewing before the write.
	ErrContractNotAssignable = errors.New("contract not assignable")
	// ErrStaleStatus means the row no longer holds the status the caller observed.
	ErrStaleStatus = errors.New("status changed concurrently")
	// ErrAssignmentNotActive means there is no unreleased assignment to release.
	ErrAssignmentNotActive = errors.New("no active assignment")
)

// IsNotFound reports whether err means the requested row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
