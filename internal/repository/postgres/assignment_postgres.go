package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"crewops/internal/model"
	"crewops/internal/repository"
)

const assignmentsTable = "assignments"

var assignmentColumns = []string{
	"id", "contract_id", "candidate_id", "assigned_at", "assigned_by",
	"released_at", "released_by", "release_reason",
}

// AssignmentPostgres is a PostgreSQL implementation of repository.AssignmentRepository.
//
// Assign locks the contract row, then claims the candidate with
// UPDATE ... WHERE current_assignment IS NULL. Two transactions racing for one
// candidate serialize on its row lock; the loser re-evaluates the predicate,
// matches zero rows and gets ErrCandidateTaken. The partial unique index on
// assignments(candidate_id) backs the same invariant.
type AssignmentPostgres struct {
	db *sql.DB
}

func NewAssignmentPostgres(db *sql.DB) *AssignmentPostgres {
	return &AssignmentPostgres{db: db}
}

var _ repository.AssignmentRepository = (*AssignmentPostgres)(nil)

func (r *AssignmentPostgres) Assign(ctx context.Context, p repository.AssignParams) (*model.Assignment, error) {
	if !validID(p.ContractID) || !validID(p.CandidateID) {
		return nil, sql.ErrNoRows
	}
	var out model.Assignment
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		state, err := lockContract(ctx, tx, p.ContractID)
		if err != nil {
			return err
		}
		if state.Kind != model.KindOneOff || state.Approval != model.ApprovalApproved ||
			(state.Status != model.StatusOpen && state.Status != model.StatusReviewing) {
			return repository.ErrContractNotAssignable
		}

		claim := psql().Update(candidatesTable).
			Set("current_assignment", p.ContractID).
			Set("status", model.CandidateOnContract).
			Set("updated_at", p.At).
			Where(sq.Eq{"id": p.CandidateID, "current_assignment": nil})
		n, err := exec(ctx, tx, claim)
		if err != nil {
			return fmt.Errorf("claim candidate: %w", err)
		}
		if n == 0 {
			found, err := exists(ctx, tx, candidatesTable, p.CandidateID)
			if err != nil {
				return fmt.Errorf("check candidate: %w", err)
			}
			if !found {
				return sql.ErrNoRows
			}
			return repository.ErrCandidateTaken
		}

		contract := psql().Update(contractsTable).
			Set("status", model.StatusAssigned).
			Set("assigned_candidate_id", p.CandidateID).
			Set("status_updated_at", p.At).
			Set("status_updated_by", p.ActorID).
			Set("updated_at", p.At).
			Where(sq.Eq{"id": p.ContractID})
		if _, err := exec(ctx, tx, contract); err != nil {
			return fmt.Errorf("update contract: %w", err)
		}

		ins := psql().Insert(assignmentsTable).
			Columns("id", "contract_id", "candidate_id", "assigned_at", "assigned_by").
			Values(uuid.NewString(), p.ContractID, p.CandidateID, p.At, p.ActorID).
			Suffix("RETURNING " + strings.Join(assignmentColumns, ", "))
		if err := getOne(ctx, tx, &out, ins); err != nil {
			if isUniqueViolation(err) {
				return repository.ErrCandidateTaken
			}
			return fmt.Errorf("insert assignment: %w", err)
		}

		return insertHistory(ctx, tx, model.StatusChange{
			ContractID: p.ContractID,
			Field:      model.FieldStatus,
			From:       string(state.Status),
			To:         string(model.StatusAssigned),
			ActorID:    p.ActorID,
			ChangedAt:  p.At,
		})
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *AssignmentPostgres) Release(ctx context.Context, p repository.ReleaseParams) (*model.Assignment, error) {
	if !validID(p.ContractID) {
		return nil, sql.ErrNoRows
	}
	var out model.Assignment
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		state, err := lockContract(ctx, tx, p.ContractID)
		if err != nil {
			return err
		}
		if state.Status != model.StatusAssigned {
			return repository.ErrStaleStatus
		}

		closeAssignment := psql().Update(assignmentsTable).
			Set("released_at", p.At).
			Set("released_by", p.ActorID).
			Set("release_reason", p.Intent).
			Where(sq.Eq{"contract_id": p.ContractID, "released_at": nil}).
			Suffix("RETURNING " + strings.Join(assignmentColumns, ", "))
		if err := getOne(ctx, tx, &out, closeAssignment); err != nil {
			if IsNoRowsError(err) {
				return repository.ErrAssignmentNotActive
			}
			return fmt.Errorf("close assignment: %w", err)
		}

		free := psql().Update(candidatesTable).
			Set("current_assignment", nil).
			Set("status", model.CandidateAvailable).
			Set("updated_at", p.At).
			Where(sq.Eq{"id": out.CandidateID, "current_assignment": p.ContractID})
		if _, err := exec(ctx, tx, free); err != nil {
			return fmt.Errorf("free candidate: %w", err)
		}

		contract := psql().Update(contractsTable).
			Set("status", p.Target).
			Set("assigned_candidate_id", nil).
			Set("status_updated_at", p.At).
			Set("status_updated_by", p.ActorID).
			Set("updated_at", p.At).
			Where(sq.Eq{"id": p.ContractID})
		if _, err := exec(ctx, tx, contract); err != nil {
			return fmt.Errorf("update contract: %w", err)
		}

		return insertHistory(ctx, tx, model.StatusChange{
			ContractID: p.ContractID,
			Field:      model.FieldStatus,
			From:       string(model.StatusAssigned),
			To:         string(p.Target),
			ActorID:    p.ActorID,
			ChangedAt:  p.At,
		})
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *AssignmentPostgres) ActiveForContract(ctx context.Context, contractID string) (*model.Assignment, error) {
	if !validID(contractID) {
		return nil, sql.ErrNoRows
	}
	b := psql().Select(assignmentColumns...).From(assignmentsTable).
		Where(sq.Eq{"contract_id": contractID, "released_at": nil})

	var a model.Assignment
	if err := getOne(ctx, r.db, &a, b); err != nil {
		return nil, err
	}
	return &a, nil
}
