package mocks

import (
	"context"
	"time"

	"crewops/internal/model"
	"crewops/internal/repository"

	"github.com/stretchr/testify/mock"
)

type MockContractRepository struct {
	mock.Mock
}

var _ repository.ContractRepository = (*MockContractRepository)(nil)

func (m *MockContractRepository) Create(ctx context.Context, c *model.Contract) (*model.Contract, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Contract), args.Error(1)
}

func (m *MockContractRepository) FindByID(ctx context.Context, id string) (*model.Contract, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Contract), args.Error(1)
}

func (m *MockContractRepository) List(ctx context.Context, f repository.ContractFilter, pq repository.PageQuery) (*repository.PageResult[model.Contract], error) {
	args := m.Called(ctx, f, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Contract]), args.Error(1)
}

func (m *MockContractRepository) ApplyTransition(ctx context.Context, t repository.Transition) (*model.Contract, error) {
	args := m.Called(ctx, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Contract), args.Error(1)
}

func (m *MockContractRepository) History(ctx context.Context, contractID string) ([]model.StatusChange, error) {
	args := m.Called(ctx, contractID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.StatusChange), args.Error(1)
}

func (m *MockContractRepository) Archive(ctx context.Context, id string, at time.Time) (*model.Contract, error) {
	args := m.Called(ctx, id, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Contract), args.Error(1)
}
