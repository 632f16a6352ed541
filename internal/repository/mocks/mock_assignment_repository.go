package mocks

import (
	"context"

	"crewops/internal/model"
	"crewops/internal/repository"

	"github.com/stretchr/testify/mock"
)

type MockAssignmentRepository struct {
	mock.Mock
}

var _ repository.AssignmentRepository = (*MockAssignmentRepository)(nil)

func (m *MockAssignmentRepository) Assign(ctx context.Context, p repository.AssignParams) (*model.Assignment, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Assignment), args.Error(1)
}

func (m *MockAssignmentRepository) Release(ctx context.Context, p repository.ReleaseParams) (*model.Assignment, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Assignment), args.Error(1)
}

func (m *MockAssignmentRepository) ActiveForContract(ctx context.Context, contractID string) (*model.Assignment, error) {
	args := m.Called(ctx, contractID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Assignment), args.Error(1)
}
