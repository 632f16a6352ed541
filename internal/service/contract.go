package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/sirupsen/logrus"

	"crewops/internal/apperr"
	"crewops/internal/lifecycle"
	"crewops/internal/model"
	"crewops/internal/repository"
)

const (
	contractNumberAlphabet = "0123456789ABCDEFGHJKLMNPQRSTUVWXYZ"
	contractNumberLength   = 10
)

// ContractListQuery filters and pages contract listings. Status matches the
// projected status, so renewal_due and expired include contracts the
// refresher has not persisted yet.
type ContractListQuery struct {
	Kind            model.ContractKind
	Status          model.ContractStatus
	ApprovalStatus  model.ApprovalStatus
	ShipownerID     string
	IncludeArchived bool
	Limit           int
	Offset          int
}

type ContractListResult struct {
	Items  []model.Contract `json:"data"`
	Total  int              `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

// ContractService drives contracts through the approval gate and their
// operational pipelines.
type ContractService interface {
	Create(ctx context.Context, spec model.ContractSpec, shipowner model.Actor) (*model.Contract, error)

	// Transition moves the approval (targets approved/rejected) or the
	// operational status. Lost races surface as IllegalTransitionError
	// against the fresh status.
	Transition(ctx context.Context, id, target string, actor model.Actor, note string) (*model.Contract, error)

	// Get returns the contract with its derived status projected.
	Get(ctx context.Context, id string) (*model.Contract, error)
	List(ctx context.Context, q ContractListQuery) (*ContractListResult, error)
	History(ctx context.Context, id string) ([]model.StatusChange, error)

	// Archive hides a terminal contract from default listings.
	Archive(ctx context.Context, id string, actor model.Actor) (*model.Contract, error)

	// RefreshDerived persists every full-crew projection that differs from
	// storage and returns how many contracts moved.
	RefreshDerived(ctx context.Context, now time.Time) (int, error)

	// MarkReviewing moves an open one-off contract to reviewing.
	MarkReviewing(ctx context.Context, id string, actor model.Actor) (*model.Contract, error)
}

type contractService struct {
	repo   repository.ContractRepository
	window time.Duration
	log    logrus.FieldLogger
	now    func() time.Time
}

// NewContractService uses lifecycle.DefaultRenewalWindow when window is zero.
func NewContractService(repo repository.ContractRepository, window time.Duration, log logrus.FieldLogger) ContractService {
	if window <= 0 {
		window = lifecycle.DefaultRenewalWindow
	}
	return &contractService{repo: repo, window: window, log: log, now: utcNow}
}

func (s *contractService) Create(ctx context.Context, spec model.ContractSpec, shipowner model.Actor) (*model.Contract, error) {
	if err := lifecycle.ValidateSpec(spec); err != nil {
		return nil, err
	}
	number, err := contractNumber(spec.Kind)
	if err != nil {
		return nil, err
	}

	now := s.now()
	positions := make([]model.Position, len(spec.Positions))
	for i, p := range spec.Positions {
		p.Rank = strings.TrimSpace(p.Rank)
		if p.RequiredCertifications == nil {
			p.RequiredCertifications = []string{}
		}
		positions[i] = p
	}

	c := &model.Contract{
		ID:                 uuid.NewString(),
		ContractNumber:     number,
		Kind:               spec.Kind,
		ApprovalStatus:     model.ApprovalSubmitted,
		Status:             lifecycle.InitialStatus(spec.Kind),
		ShipownerID:        shipowner.ID,
		Vessel:             spec.Vessel,
		OperationalZone:    spec.OperationalZone,
		StartDate:          spec.StartDate.UTC(),
		DurationDays:       spec.DurationDays,
		JoiningPort:        spec.JoiningPort,
		DisembarkationPort: spec.DisembarkationPort,
		Positions:          positions,
		AdminNotes:         spec.AdminNotes,
		StatusUpdatedAt:    now,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	stored, err := s.repo.Create(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("create contract: %w", err)
	}
	return s.project(stored), nil
}

// contractNumber is FC- or OO- followed by ten unambiguous characters.
func contractNumber(kind model.ContractKind) (string, error) {
	prefix := "FC-"
	if kind == model.KindOneOff {
		prefix = "OO-"
	}
	id, err := gonanoid.Generate(contractNumberAlphabet, contractNumberLength)
	if err != nil {
		return "", fmt.Errorf("generate contract number: %w", err)
	}
	return prefix + id, nil
}

func (s *contractService) Transition(ctx context.Context, id, target string, actor model.Actor, note string) (*model.Contract, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		ve := &apperr.ValidationError{}
		ve.Add("status", "is required")
		return nil, ve
	}
	c, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	plan, err := lifecycle.PlanTransition(c, target, actor)
	if err != nil {
		return nil, err
	}
	updated, err := s.apply(ctx, c, plan, actor, optionalNote(note))
	if err != nil {
		return nil, err
	}
	return s.project(updated), nil
}

func (s *contractService) apply(ctx context.Context, c *model.Contract, plan lifecycle.Plan, actor model.Actor, note *string) (*model.Contract, error) {
	updated, err := s.repo.ApplyTransition(ctx, repository.Transition{
		ContractID: c.ID,
		Field:      plan.Field,
		From:       plan.From,
		To:         plan.To,
		NextStatus: plan.NextStatus,
		NextFrom:   c.Status,
		ActorID:    actor.ID,
		Note:       note,
		At:         s.now(),
	})
	switch {
	case err == nil:
		return updated, nil
	case errors.Is(err, repository.ErrStaleStatus):
		fresh, ferr := s.find(ctx, c.ID)
		if ferr != nil {
			return nil, ferr
		}
		current := string(fresh.Status)
		if plan.Field == model.FieldApproval {
			current = string(fresh.ApprovalStatus)
		}
		return nil, apperr.IllegalTransition(c.ID, current, plan.To, "status changed concurrently")
	case repository.IsNotFound(err):
		return nil, apperr.NotFound("contract", c.ID)
	default:
		return nil, fmt.Errorf("apply transition: %w", err)
	}
}

func (s *contractService) Get(ctx context.Context, id string) (*model.Contract, error) {
	c, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.project(c), nil
}

func (s *contractService) find(ctx context.Context, id string) (*model.Contract, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperr.NotFound("contract", id)
	}
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.NotFound("contract", id)
		}
		return nil, fmt.Errorf("find contract: %w", err)
	}
	return c, nil
}

// project replaces Status with the time-derived projection and keeps the
// persisted value in StoredStatus.
func (s *contractService) project(c *model.Contract) *model.Contract {
	c.StoredStatus = c.Status
	c.Status = lifecycle.ComputeDerivedStatus(c, s.now(), s.window)
	return c
}

func isTimeDerived(st model.ContractStatus) bool {
	return st == model.StatusActive || st == model.StatusRenewalDue || st == model.StatusExpired
}

func (s *contractService) List(ctx context.Context, q ContractListQuery) (*ContractListResult, error) {
	ve := &apperr.ValidationError{}
	if q.Kind != "" && !q.Kind.Valid() {
		ve.Add("kind", "must be full_crew or one_off")
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	page := pageQuery(q.Limit, q.Offset)
	f := repository.ContractFilter{
		Kind:            q.Kind,
		ApprovalStatus:  q.ApprovalStatus,
		ShipownerID:     q.ShipownerID,
		IncludeArchived: q.IncludeArchived,
	}

	if !isTimeDerived(q.Status) {
		if q.Status != "" {
			f.Statuses = []model.ContractStatus{q.Status}
		}
		res, err := s.repo.List(ctx, f, page)
		if err != nil {
			return nil, fmt.Errorf("list contracts: %w", err)
		}
		for i := range res.Items {
			s.project(&res.Items[i])
		}
		return &ContractListResult{Items: res.Items, Total: res.Total, Limit: page.Limit, Offset: page.Offset}, nil
	}

	// The stored status may lag the projection, so load every candidate
	// row, filter on the projection and page here.
	f.Statuses = []model.ContractStatus{model.StatusActive, model.StatusRenewalDue, model.StatusExpired}
	res, err := s.repo.List(ctx, f, repository.PageQuery{})
	if err != nil {
		return nil, fmt.Errorf("list contracts: %w", err)
	}
	matched := make([]model.Contract, 0, len(res.Items))
	for i := range res.Items {
		c := s.project(&res.Items[i])
		if c.Status == q.Status {
			matched = append(matched, *c)
		}
	}
	total := len(matched)
	if page.Offset >= total {
		matched = []model.Contract{}
	} else {
		matched = matched[page.Offset:]
		if len(matched) > page.Limit {
			matched = matched[:page.Limit]
		}
	}
	return &ContractListResult{Items: matched, Total: total, Limit: page.Limit, Offset: page.Offset}, nil
}

func (s *contractService) History(ctx context.Context, id string) ([]model.StatusChange, error) {
	if _, err := s.find(ctx, id); err != nil {
		return nil, err
	}
	h, err := s.repo.History(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("contract history: %w", err)
	}
	return h, nil
}

func (s *contractService) Archive(ctx context.Context, id string, actor model.Actor) (*model.Contract, error) {
	c, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		return nil, apperr.IllegalTransition(id, string(c.Status), "archived", "only an admin may archive a contract")
	}
	if !lifecycle.IsTerminal(c) {
		return nil, apperr.InvalidState("contract", id, string(c.Status), "archive")
	}
	archived, err := s.repo.Archive(ctx, id, s.now())
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.NotFound("contract", id)
		}
		return nil, fmt.Errorf("archive contract: %w", err)
	}
	return s.project(archived), nil
}

func (s *contractService) RefreshDerived(ctx context.Context, now time.Time) (int, error) {
	res, err := s.repo.List(ctx, repository.ContractFilter{
		Kind:           model.KindFullCrew,
		ApprovalStatus: model.ApprovalApproved,
		Statuses:       []model.ContractStatus{model.StatusActive, model.StatusRenewalDue},
	}, repository.PageQuery{})
	if err != nil {
		return 0, fmt.Errorf("list full crew contracts: %w", err)
	}
	sort.Slice(res.Items, func(i, j int) bool { return res.Items[i].ID < res.Items[j].ID })

	updated := 0
	for i := range res.Items {
		if err := ctx.Err(); err != nil {
			return updated, err
		}
		c := &res.Items[i]
		derived := lifecycle.ComputeDerivedStatus(c, now, s.window)
		if derived == c.Status {
			continue
		}
		plan, err := lifecycle.PlanTransition(c, string(derived), model.SystemActor)
		if err != nil {
			s.log.WithError(err).WithField("contract_id", c.ID).Warn("derived transition rejected")
			continue
		}
		if _, err := s.apply(ctx, c, plan, model.SystemActor, nil); err != nil {
			if apperr.CodeOf(err) == apperr.CodeIllegalTransition || apperr.IsNotFound(err) {
				// moved by an admin meanwhile
				s.log.WithError(err).WithField("contract_id", c.ID).Info("skip derived transition")
				continue
			}
			return updated, err
		}
		updated++
		s.log.WithFields(logrus.Fields{
			"contract_id": c.ID,
			"from":        c.Status,
			"to":          derived,
		}).Info("derived status persisted")
	}
	return updated, nil
}

func (s *contractService) MarkReviewing(ctx context.Context, id string, actor model.Actor) (*model.Contract, error) {
	c, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status == model.StatusReviewing {
		return s.project(c), nil
	}
	plan, err := lifecycle.PlanTransition(c, string(model.StatusReviewing), actor)
	if err != nil {
		return nil, err
	}
	updated, err := s.apply(ctx, c, plan, actor, nil)
	if err != nil {
		return nil, err
	}
	return s.project(updated), nil
}
