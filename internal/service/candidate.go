package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"crewops/internal/apperr"
	"crewops/internal/model"
	"crewops/internal/repository"
)

// CandidateInput registers a seafarer profile for one-off matching.
type CandidateInput struct {
	SeafarerID      string           `json:"seafarer_id"`
	Name            string           `json:"name"`
	Rank            string           `json:"rank"`
	ExperienceYears float64          `json:"experience_years"`
	Location        string           `json:"location"`
	Nationality     string           `json:"nationality"`
	AvailableFrom   *time.Time       `json:"available_from"`
	AvailableTo     *time.Time       `json:"available_to"`
	Certifications  []string         `json:"certifications"`
	VisaStatus      model.VisaStatus `json:"visa_status"`
}

type CandidateListQuery struct {
	Status model.CandidateStatus
	Rank   string
	Limit  int
	Offset int
}

type CandidateListResult struct {
	Items  []model.Candidate `json:"data"`
	Total  int               `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

type CandidateService interface {
	Register(ctx context.Context, in CandidateInput) (*model.Candidate, error)
	Get(ctx context.Context, id string) (*model.Candidate, error)
	List(ctx context.Context, q CandidateListQuery) (*CandidateListResult, error)
}

type candidateService struct {
	repo repository.CandidateRepository
	now  func() time.Time
}

func NewCandidateService(repo repository.CandidateRepository) CandidateService {
	return &candidateService{repo: repo, now: utcNow}
}

func (s *candidateService) Register(ctx context.Context, in CandidateInput) (*model.Candidate, error) {
	ve := &apperr.ValidationError{}
	if strings.TrimSpace(in.Name) == "" {
		ve.Add("name", "is required")
	}
	if strings.TrimSpace(in.Rank) == "" {
		ve.Add("rank", "is required")
	}
	if in.ExperienceYears < 0 {
		ve.Add("experience_years", "must not be negative")
	}
	if in.AvailableFrom == nil || in.AvailableFrom.IsZero() {
		ve.Add("available_from", "is required")
	} else if in.AvailableTo != nil && in.AvailableTo.Before(*in.AvailableFrom) {
		ve.Add("available_to", "must not be before available_from")
	}
	if in.VisaStatus == "" {
		in.VisaStatus = model.VisaNone
	} else if !in.VisaStatus.Valid() {
		ve.Add("visa_status", "must be valid, pending, expired or none")
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	certs := make([]string, 0, len(in.Certifications))
	for _, c := range in.Certifications {
		if c = strings.TrimSpace(c); c != "" {
			certs = append(certs, c)
		}
	}
	now := s.now()
	c := &model.Candidate{
		ID:              uuid.NewString(),
		SeafarerID:      in.SeafarerID,
		Name:            strings.TrimSpace(in.Name),
		Rank:            strings.TrimSpace(in.Rank),
		ExperienceYears: in.ExperienceYears,
		Location:        in.Location,
		Nationality:     in.Nationality,
		AvailableFrom:   in.AvailableFrom.UTC(),
		AvailableTo:     in.AvailableTo,
		Certifications:  certs,
		VisaStatus:      in.VisaStatus,
		Status:          model.CandidateAvailable,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	stored, err := s.repo.Create(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("create candidate: %w", err)
	}
	return stored, nil
}

func (s *candidateService) Get(ctx context.Context, id string) (*model.Candidate, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.NotFound("candidate", id)
		}
		return nil, fmt.Errorf("find candidate: %w", err)
	}
	return c, nil
}

func (s *candidateService) List(ctx context.Context, q CandidateListQuery) (*CandidateListResult, error) {
	if q.Status != "" && q.Status != model.CandidateAvailable && q.Status != model.CandidateOnContract {
		ve := &apperr.ValidationError{}
		ve.Add("status", "must be available or on_contract")
		return nil, ve
	}
	page := pageQuery(q.Limit, q.Offset)
	res, err := s.repo.List(ctx, repository.CandidateFilter{Status: q.Status, Rank: q.Rank}, page)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	return &CandidateListResult{Items: res.Items, Total: res.Total, Limit: page.Limit, Offset: page.Offset}, nil
}
