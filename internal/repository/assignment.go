package repository

import (
	"context"
	"time"

	"crewops/internal/model"
)

// AssignParams describes binding a candidate to a one-off contract.
type AssignParams struct {
	ContractID  string
	CandidateID string
	ActorID     string
	At          time.Time
}

// ReleaseParams describes unbinding the active assignment of a contract.
type ReleaseParams struct {
	ContractID string
	Intent     model.ReleaseIntent
	Target     model.ContractStatus
	ActorID    string
	At         time.Time
}

// AssignmentRepository performs the exclusive assignment writes. Each call is
// a single transaction.
type AssignmentRepository interface {
	// Assign moves the contract from open/reviewing to assigned, claims the
	// candidate and records the assignment. It returns
	// ErrContractNotAssignable or ErrCandidateTaken when a precondition no
	// longer holds at write time.
	Assign(ctx context.Context, p AssignParams) (*model.Assignment, error)

	// Release closes the active assignment, frees the candidate and moves
	// the contract to p.Target. It returns ErrAssignmentNotActive when
	// nothing is assigned.
	Release(ctx context.Context, p ReleaseParams) (*model.Assignment, error)

	// ActiveForContract returns sql.ErrNoRows when the contract has no active assignment.
	ActiveForContract(ctx context.Context, contractID string) (*model.Assignment, error)
}
