package repository

import (
	"context"

	"crewops/internal/model"
)

// CandidateFilter narrows candidate listings.
type CandidateFilter struct {
	Status model.CandidateStatus
	Rank   string
}

// CandidateRepository persists candidate profiles.
type CandidateRepository interface {
	Create(ctx context.Context, c *model.Candidate) (*model.Candidate, error)

	// FindByID returns sql.ErrNoRows when the id is unknown.
	FindByID(ctx context.Context, id string) (*model.Candidate, error)

	List(ctx context.Context, f CandidateFilter, pq PageQuery) (*PageResult[model.Candidate], error)

	// ListUnassigned returns every candidate without an active assignment.
	ListUnassigned(ctx context.Context) ([]model.Candidate, error)
}
