package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"crewops/internal/apperr"
	"crewops/internal/lifecycle"
	"crewops/internal/model"
	tracing "crewops/internal/otel"
	"crewops/internal/repository"
)

var tracer = tracing.Tracer("crewops/internal/service")

// Assignment outcomes recorded by crewops_assignments_total.
const (
	OutcomeAssigned     = "assigned"
	OutcomeUnavailable  = "unavailable"
	OutcomeInvalidState = "invalid_state"
	OutcomeNotFound     = "not_found"
	OutcomeError        = "error"
	OutcomeReleased     = "released"
)

// AssignmentService is the only writer of the assigned status. Both
// operations run as one repository transaction.
type AssignmentService interface {
	Assign(ctx context.Context, contractID, candidateID string, admin model.Actor) (*model.Contract, error)
	Release(ctx context.Context, contractID string, intent model.ReleaseIntent, admin model.Actor) (*model.Contract, error)
}

type assignmentService struct {
	contracts   repository.ContractRepository
	candidates  repository.CandidateRepository
	assignments repository.AssignmentRepository
	outcomes    *prometheus.CounterVec
	log         logrus.FieldLogger
	now         func() time.Time
}

// NewAssignmentService registers the assignment counter on reg.
func NewAssignmentService(
	contracts repository.ContractRepository,
	candidates repository.CandidateRepository,
	assignments repository.AssignmentRepository,
	reg prometheus.Registerer,
	log logrus.FieldLogger,
) (AssignmentService, error) {
	outcomes := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crewops_assignments_total",
			Help: "Assignment and release attempts by outcome.",
		},
		[]string{"outcome"},
	)
	if reg != nil {
		if err := reg.Register(outcomes); err != nil {
			return nil, err
		}
	}
	return &assignmentService{
		contracts:   contracts,
		candidates:  candidates,
		assignments: assignments,
		outcomes:    outcomes,
		log:         log,
		now:         utcNow,
	}, nil
}

func (s *assignmentService) Assign(ctx context.Context, contractID, candidateID string, admin model.Actor) (*model.Contract, error) {
	ctx, span := tracer.Start(ctx, "AssignmentService.Assign", trace.WithAttributes(
		attribute.String("contract.id", contractID),
		attribute.String("candidate.id", candidateID),
	))
	defer span.End()

	c, err := s.assign(ctx, contractID, candidateID, admin)
	s.record(span, OutcomeAssigned, err)
	if err == nil {
		s.log.WithFields(logrus.Fields{
			"contract_id":  contractID,
			"candidate_id": candidateID,
			"actor_id":     admin.ID,
		}).Info("candidate assigned")
	}
	return c, err
}

func (s *assignmentService) assign(ctx context.Context, contractID, candidateID string, admin model.Actor) (*model.Contract, error) {
	if strings.TrimSpace(candidateID) == "" {
		ve := &apperr.ValidationError{}
		ve.Add("candidateId", "is required")
		return nil, ve
	}
	c, err := s.findContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	cand, err := s.candidates.FindByID(ctx, candidateID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.NotFound("candidate", candidateID)
		}
		return nil, fmt.Errorf("find candidate: %w", err)
	}
	if !lifecycle.Assignable(c) {
		return nil, notAssignable(c)
	}
	if cand.Assigned() {
		return nil, apperr.CandidateUnavailable(candidateID, contractID)
	}
	if err := lifecycle.CheckCoordinatorEdge(c, model.StatusAssigned); err != nil {
		return nil, err
	}

	_, err = s.assignments.Assign(ctx, repository.AssignParams{
		ContractID:  contractID,
		CandidateID: candidateID,
		ActorID:     admin.ID,
		At:          s.now(),
	})
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrCandidateTaken):
		return nil, apperr.CandidateUnavailable(candidateID, contractID)
	case errors.Is(err, repository.ErrContractNotAssignable):
		fresh, ferr := s.findContract(ctx, contractID)
		if ferr != nil {
			return nil, ferr
		}
		return nil, notAssignable(fresh)
	case repository.IsNotFound(err):
		return nil, apperr.NotFound("contract", contractID)
	default:
		return nil, fmt.Errorf("assign candidate: %w", err)
	}
	return s.findContract(ctx, contractID)
}

func notAssignable(c *model.Contract) error {
	current := string(c.Status)
	if c.Kind != model.KindOneOff {
		current = string(c.Kind)
	} else if c.ApprovalStatus != model.ApprovalApproved {
		current = string(c.ApprovalStatus)
	}
	return apperr.InvalidState("contract", c.ID, current, "assign")
}

func (s *assignmentService) Release(ctx context.Context, contractID string, intent model.ReleaseIntent, admin model.Actor) (*model.Contract, error) {
	ctx, span := tracer.Start(ctx, "AssignmentService.Release", trace.WithAttributes(
		attribute.String("contract.id", contractID),
		attribute.String("release.intent", string(intent)),
	))
	defer span.End()

	c, err := s.release(ctx, contractID, intent, admin)
	s.record(span, OutcomeReleased, err)
	if err == nil {
		s.log.WithFields(logrus.Fields{
			"contract_id": contractID,
			"intent":      intent,
			"actor_id":    admin.ID,
		}).Info("assignment released")
	}
	return c, err
}

func (s *assignmentService) release(ctx context.Context, contractID string, intent model.ReleaseIntent, admin model.Actor) (*model.Contract, error) {
	target, ok := intent.TargetStatus()
	if !ok {
		ve := &apperr.ValidationError{}
		ve.Add("intent", "must be reopen, cancel or complete")
		return nil, ve
	}
	c, err := s.findContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if c.Status != model.StatusAssigned {
		return nil, apperr.InvalidState("contract", contractID, string(c.Status), "release")
	}
	if err := lifecycle.CheckCoordinatorEdge(c, target); err != nil {
		return nil, err
	}

	_, err = s.assignments.Release(ctx, repository.ReleaseParams{
		ContractID: contractID,
		Intent:     intent,
		Target:     target,
		ActorID:    admin.ID,
		At:         s.now(),
	})
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrStaleStatus), errors.Is(err, repository.ErrAssignmentNotActive):
		fresh, ferr := s.findContract(ctx, contractID)
		if ferr != nil {
			return nil, ferr
		}
		return nil, apperr.InvalidState("contract", contractID, string(fresh.Status), "release")
	case repository.IsNotFound(err):
		return nil, apperr.NotFound("contract", contractID)
	default:
		return nil, fmt.Errorf("release assignment: %w", err)
	}
	return s.findContract(ctx, contractID)
}

func (s *assignmentService) findContract(ctx context.Context, id string) (*model.Contract, error) {
	c, err := s.contracts.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.NotFound("contract", id)
		}
		return nil, fmt.Errorf("find contract: %w", err)
	}
	return c, nil
}

// record counts one attempt and tags its span. success names the outcome of
// a nil err.
func (s *assignmentService) record(span trace.Span, success string, err error) {
	outcome := success
	if err != nil {
		switch apperr.CodeOf(err) {
		case apperr.CodeCandidateUnavailable:
			outcome = OutcomeUnavailable
		case apperr.CodeInvalidState, apperr.CodeIllegalTransition:
			outcome = OutcomeInvalidState
		case apperr.CodeNotFound:
			outcome = OutcomeNotFound
		default:
			outcome = OutcomeError
		}
	}
	s.outcomes.WithLabelValues(outcome).Inc()
	span.SetAttributes(attribute.String("assignment.outcome", outcome))
	if outcome == OutcomeError {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
