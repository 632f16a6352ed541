package mocks

import (
	"context"

	"crewops/internal/model"
	"crewops/internal/repository"

	"github.com/stretchr/testify/mock"
)

type MockCandidateRepository struct {
	mock.Mock
}

var _ repository.CandidateRepository = (*MockCandidateRepository)(nil)

func (m *MockCandidateRepository) Create(ctx context.Context, c *model.Candidate) (*model.Candidate, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Candidate), args.Error(1)
}

func (m *MockCandidateRepository) FindByID(ctx context.Context, id string) (*model.Candidate, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Candidate), args.Error(1)
}

func (m *MockCandidateRepository) List(ctx context.Context, f repository.CandidateFilter, pq repository.PageQuery) (*repository.PageResult[model.Candidate], error) {
	args := m.Called(ctx, f, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Candidate]), args.Error(1)
}

func (m *MockCandidateRepository) ListUnassigned(ctx context.Context) ([]model.Candidate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Candidate), args.Error(1)
}
