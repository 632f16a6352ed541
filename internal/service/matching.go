package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"crewops/internal/apperr"
	"crewops/internal/lifecycle"
	"crewops/internal/matching"
	"crewops/internal/model"
	"crewops/internal/repository"
)

// MatchingService ranks the candidate pool for one-off openings.
type MatchingService interface {
	// RankForContract scores unassigned candidates against position
	// positionIndex of the contract. Presenting a non-empty ranking for an
	// open contract moves it to reviewing.
	RankForContract(ctx context.Context, contractID string, positionIndex int, actor model.Actor) ([]model.MatchResult, error)
}

type matchingService struct {
	contracts  ContractService
	candidates repository.CandidateRepository
	log        logrus.FieldLogger
}

func NewMatchingService(contracts ContractService, candidates repository.CandidateRepository, log logrus.FieldLogger) MatchingService {
	return &matchingService{contracts: contracts, candidates: candidates, log: log}
}

func (s *matchingService) RankForContract(ctx context.Context, contractID string, positionIndex int, actor model.Actor) ([]model.MatchResult, error) {
	c, err := s.contracts.Get(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if !lifecycle.Assignable(c) {
		current := string(c.Status)
		if c.Kind != model.KindOneOff {
			current = string(c.Kind)
		}
		return nil, apperr.InvalidState("contract", contractID, current, "rank candidates")
	}
	req, err := matching.RequirementsFor(c, positionIndex)
	if err != nil {
		return nil, err
	}

	pool, err := s.candidates.ListUnassigned(ctx)
	if err != nil {
		return nil, fmt.Errorf("load candidate pool: %w", err)
	}
	results := matching.Rank(req, pool)

	if len(results) > 0 && c.Status == model.StatusOpen {
		if _, err := s.contracts.MarkReviewing(ctx, contractID, actor); err != nil {
			// the ranking stays valid even if the status moved meanwhile
			s.log.WithError(err).WithField("contract_id", contractID).Warn("mark contract reviewing failed")
		}
	}
	return results, nil
}
