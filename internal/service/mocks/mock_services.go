package mocks

import (
	"context"
	"io"
	"time"

	"crewops/internal/events"
	"crewops/internal/model"
	"crewops/internal/service"

	"github.com/stretchr/testify/mock"
)

var (
	_ service.VerificationService  = (*MockVerificationService)(nil)
	_ service.ContractService      = (*MockContractService)(nil)
	_ service.CandidateService     = (*MockCandidateService)(nil)
	_ service.MatchingService      = (*MockMatchingService)(nil)
	_ service.AssignmentService    = (*MockAssignmentService)(nil)
	_ service.DocumentationTracker = (*MockDocumentationTracker)(nil)
)

func document(args mock.Arguments) (*model.Document, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func contract(args mock.Arguments) (*model.Contract, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Contract), args.Error(1)
}

type MockVerificationService struct {
	mock.Mock
}

func (m *MockVerificationService) Submit(ctx context.Context, in service.SubmitInput) (*model.Document, error) {
	return document(m.Called(ctx, in))
}

func (m *MockVerificationService) Upload(ctx context.Context, r io.Reader, in service.UploadInput) (*model.Document, error) {
	return document(m.Called(ctx, r, in))
}

func (m *MockVerificationService) Approve(ctx context.Context, documentID, adminID string) (*model.Document, error) {
	return document(m.Called(ctx, documentID, adminID))
}

func (m *MockVerificationService) Reject(ctx context.Context, documentID, adminID, note string) (*model.Document, error) {
	return document(m.Called(ctx, documentID, adminID, note))
}

func (m *MockVerificationService) Get(ctx context.Context, id string) (*model.Document, error) {
	return document(m.Called(ctx, id))
}

func (m *MockVerificationService) List(ctx context.Context, q service.DocumentListQuery) (*service.DocumentListResult, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DocumentListResult), args.Error(1)
}

func (m *MockVerificationService) DownloadURL(ctx context.Context, id string) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

type MockContractService struct {
	mock.Mock
}

func (m *MockContractService) Create(ctx context.Context, spec model.ContractSpec, shipowner model.Actor) (*model.Contract, error) {
	return contract(m.Called(ctx, spec, shipowner))
}

func (m *MockContractService) Transition(ctx context.Context, id, target string, actor model.Actor, note string) (*model.Contract, error) {
	return contract(m.Called(ctx, id, target, actor, note))
}

func (m *MockContractService) Get(ctx context.Context, id string) (*model.Contract, error) {
	return contract(m.Called(ctx, id))
}

func (m *MockContractService) List(ctx context.Context, q service.ContractListQuery) (*service.ContractListResult, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ContractListResult), args.Error(1)
}

func (m *MockContractService) History(ctx context.Context, id string) ([]model.StatusChange, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.StatusChange), args.Error(1)
}

func (m *MockContractService) Archive(ctx context.Context, id string, actor model.Actor) (*model.Contract, error) {
	return contract(m.Called(ctx, id, actor))
}

func (m *MockContractService) RefreshDerived(ctx context.Context, now time.Time) (int, error) {
	args := m.Called(ctx, now)
	return args.Int(0), args.Error(1)
}

func (m *MockContractService) MarkReviewing(ctx context.Context, id string, actor model.Actor) (*model.Contract, error) {
	return contract(m.Called(ctx, id, actor))
}

type MockCandidateService struct {
	mock.Mock
}

func (m *MockCandidateService) Register(ctx context.Context, in service.CandidateInput) (*model.Candidate, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Candidate), args.Error(1)
}

func (m *MockCandidateService) Get(ctx context.Context, id string) (*model.Candidate, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Candidate), args.Error(1)
}

func (m *MockCandidateService) List(ctx context.Context, q service.CandidateListQuery) (*service.CandidateListResult, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CandidateListResult), args.Error(1)
}

type MockMatchingService struct {
	mock.Mock
}

func (m *MockMatchingService) RankForContract(ctx context.Context, contractID string, positionIndex int, actor model.Actor) ([]model.MatchResult, error) {
	args := m.Called(ctx, contractID, positionIndex, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.MatchResult), args.Error(1)
}

type MockAssignmentService struct {
	mock.Mock
}

func (m *MockAssignmentService) Assign(ctx context.Context, contractID, candidateID string, admin model.Actor) (*model.Contract, error) {
	return contract(m.Called(ctx, contractID, candidateID, admin))
}

func (m *MockAssignmentService) Release(ctx context.Context, contractID string, intent model.ReleaseIntent, admin model.Actor) (*model.Contract, error) {
	return contract(m.Called(ctx, contractID, intent, admin))
}

type MockDocumentationTracker struct {
	mock.Mock
}

func (m *MockDocumentationTracker) Status(ctx context.Context, seafarerID string) (*model.DocumentationStatus, error) {
	args := m.Called(ctx, seafarerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentationStatus), args.Error(1)
}

func (m *MockDocumentationTracker) HandleEvent(ctx context.Context, e events.Event) error {
	return m.Called(ctx, e).Error(0)
}
