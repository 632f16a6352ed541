package memory

import (
	"context"

	"github.com/google/uuid"

	"crewops/internal/model"
	"crewops/internal/repository"
)

type AssignmentRepository struct {
	s *Store
}

// Assign performs the check-then-set under the store mutex.
func (r *AssignmentRepository) Assign(_ context.Context, p repository.AssignParams) (*model.Assignment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.contracts[p.ContractID]
	if !ok {
		return nil, errNotFound
	}
	cand, ok := r.s.candidates[p.CandidateID]
	if !ok {
		return nil, errNotFound
	}
	if c.Kind != model.KindOneOff || c.ApprovalStatus != model.ApprovalApproved ||
		(c.Status != model.StatusOpen && c.Status != model.StatusReviewing) {
		return nil, repository.ErrContractNotAssignable
	}
	if cand.Assigned() {
		return nil, repository.ErrCandidateTaken
	}

	a := model.Assignment{
		ID:          uuid.NewString(),
		ContractID:  p.ContractID,
		CandidateID: p.CandidateID,
		AssignedAt:  p.At,
		AssignedBy:  p.ActorID,
	}
	r.s.assignments[a.ID] = a

	cand.CurrentAssignment = strPtr(p.ContractID)
	cand.Status = model.CandidateOnContract
	cand.UpdatedAt = p.At
	r.s.candidates[cand.ID] = cand

	from := c.Status
	c.Status = model.StatusAssigned
	c.AssignedCandidateID = strPtr(p.CandidateID)
	c.StatusUpdatedAt = p.At
	c.StatusUpdatedBy = strPtr(p.ActorID)
	c.UpdatedAt = p.At
	r.s.contracts[c.ID] = c

	r.s.appendHistory(model.StatusChange{
		ContractID: c.ID, Field: model.FieldStatus, From: string(from), To: string(model.StatusAssigned),
		ActorID: p.ActorID, ChangedAt: p.At,
	})
	return &a, nil
}

func (r *AssignmentRepository) Release(_ context.Context, p repository.ReleaseParams) (*model.Assignment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.contracts[p.ContractID]
	if !ok {
		return nil, errNotFound
	}
	if c.Status != model.StatusAssigned {
		return nil, repository.ErrStaleStatus
	}
	a, ok := r.activeLocked(p.ContractID)
	if !ok {
		return nil, repository.ErrAssignmentNotActive
	}

	at := p.At
	intent := p.Intent
	a.ReleasedAt = &at
	a.ReleasedBy = strPtr(p.ActorID)
	a.ReleaseReason = &intent
	r.s.assignments[a.ID] = a

	if cand, ok := r.s.candidates[a.CandidateID]; ok && cand.CurrentAssignment != nil && *cand.CurrentAssignment == p.ContractID {
		cand.CurrentAssignment = nil
		cand.Status = model.CandidateAvailable
		cand.UpdatedAt = p.At
		r.s.candidates[cand.ID] = cand
	}

	c.Status = p.Target
	c.AssignedCandidateID = nil
	c.StatusUpdatedAt = p.At
	c.StatusUpdatedBy = strPtr(p.ActorID)
	c.UpdatedAt = p.At
	r.s.contracts[c.ID] = c

	r.s.appendHistory(model.StatusChange{
		ContractID: c.ID, Field: model.FieldStatus, From: string(model.StatusAssigned), To: string(p.Target),
		ActorID: p.ActorID, ChangedAt: p.At,
	})
	return &a, nil
}

func (r *AssignmentRepository) ActiveForContract(_ context.Context, contractID string) (*model.Assignment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.activeLocked(contractID)
	if !ok {
		return nil, errNotFound
	}
	return &a, nil
}

func (r *AssignmentRepository) activeLocked(contractID string) (model.Assignment, bool) {
	for _, a := range r.s.assignments {
		if a.ContractID == contractID && a.Active() {
			return a, true
		}
	}
	return model.Assignment{}, false
}
