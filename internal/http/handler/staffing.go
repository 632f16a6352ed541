package handler

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"crewops/internal/apperr"
	"crewops/internal/model"
	"crewops/internal/service"
)

type assignRequest struct {
	CandidateID string `json:"candidateId"`
}

type releaseRequest struct {
	Intent model.ReleaseIntent `json:"intent" enums:"reopen,cancel,complete"`
}

// RegisterCandidate godoc
//
//	@Summary	Register a candidate profile
//	@Tags		candidates
//	@Security	BearerAuth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		service.CandidateInput	true	"candidate"
//	@Success	201		{object}	model.Candidate
//	@Failure	400		{object}	errorPayload
//	@Router		/api/v1/candidates [post]
func RegisterCandidate(svc service.CandidateService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.CandidateInput
		if err := c.BodyParser(&in); err != nil {
			return invalidInput("INVALID_BODY", "request body must be a JSON candidate")
		}
		cand, err := svc.Register(c.UserContext(), in)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(cand)
	}
}

// ListCandidates godoc
//
//	@Summary	List candidates
//	@Tags		candidates
//	@Security	BearerAuth
//	@Produce	json
//	@Param		status	query		string	false	"available or on_contract"
//	@Param		rank	query		string	false	"rank, case-insensitive"
//	@Param		limit	query		int		false	"page size"
//	@Param		offset	query		int		false	"page offset"
//	@Success	200		{object}	service.CandidateListResult
//	@Router		/api/v1/candidates [get]
func ListCandidates(svc service.CandidateService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, offset, err := pagination(c)
		if err != nil {
			return err
		}
		res, err := svc.List(c.UserContext(), service.CandidateListQuery{
			Status: model.CandidateStatus(c.Query("status")),
			Rank:   c.Query("rank"),
			Limit:  limit,
			Offset: offset,
		})
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// GetCandidate godoc
//
//	@Summary	Get a candidate
//	@Tags		candidates
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		string	true	"candidate id"
//	@Success	200	{object}	model.Candidate
//	@Failure	404	{object}	errorPayload
//	@Router		/api/v1/candidates/{id} [get]
func GetCandidate(svc service.CandidateService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c, "candidate")
		if err != nil {
			return err
		}
		cand, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(cand)
	}
}

// RankCandidates scores the unassigned pool against one position of a one-off
// contract, best first.
//
//	@Summary	Ranked candidates for a one-off contract
//	@Tags		staffing
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id			path		string	true	"contract id"
//	@Param		position	query		int		false	"position index, default 0"
//	@Success	200			{array}		model.MatchResult
//	@Failure	404			{object}	errorPayload
//	@Failure	409			{object}	errorPayload
//	@Router		/api/v1/one-off-contracts/{id}/candidates [get]
func RankCandidates(svc service.MatchingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		a, err := actor(c)
		if err != nil {
			return err
		}
		id, err := pathID(c, "contract")
		if err != nil {
			return err
		}
		pos, err := strconv.Atoi(c.Query("position", "0"))
		if err != nil || pos < 0 {
			return invalidInput("INVALID_POSITION", "position must be a non-negative index")
		}
		results, err := svc.RankForContract(c.UserContext(), id, pos, a)
		if err != nil {
			return err
		}
		return c.JSON(results)
	}
}

// AssignCandidate places a candidate on an approved one-off contract.
// A candidate already on another contract yields 409 CANDIDATE_UNAVAILABLE.
//
//	@Summary	Assign a candidate
//	@Tags		staffing
//	@Security	BearerAuth
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string			true	"contract id"
//	@Param		body	body		assignRequest	true	"candidate"
//	@Success	200		{object}	model.Contract
//	@Failure	400		{object}	errorPayload
//	@Failure	404		{object}	errorPayload
//	@Failure	409		{object}	errorPayload
//	@Router		/api/v1/one-off-contracts/{id}/assign [post]
func AssignCandidate(svc service.AssignmentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		a, err := actor(c)
		if err != nil {
			return err
		}
		id, err := pathID(c, "contract")
		if err != nil {
			return err
		}
		var req assignRequest
		if err := c.BodyParser(&req); err != nil {
			return invalidInput("INVALID_BODY", "request body must be JSON")
		}
		req.CandidateID = strings.TrimSpace(req.CandidateID)
		if req.CandidateID != "" && !validID(req.CandidateID) {
			return apperr.NotFound("candidate", req.CandidateID)
		}
		ct, err := svc.Assign(c.UserContext(), id, req.CandidateID, a)
		if err != nil {
			return err
		}
		return c.JSON(ct)
	}
}

// ReleaseContract ends the active assignment and reopens, cancels or
// completes the contract.
//
//	@Summary	Release an assignment
//	@Tags		staffing
//	@Security	BearerAuth
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string			true	"contract id"
//	@Param		body	body		releaseRequest	true	"what happens to the contract"
//	@Success	200		{object}	model.Contract
//	@Failure	400		{object}	errorPayload
//	@Failure	409		{object}	errorPayload
//	@Router		/api/v1/one-off-contracts/{id}/release [post]
func ReleaseContract(svc service.AssignmentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		a, err := actor(c)
		if err != nil {
			return err
		}
		id, err := pathID(c, "contract")
		if err != nil {
			return err
		}
		var req releaseRequest
		if err := c.BodyParser(&req); err != nil {
			return invalidInput("INVALID_BODY", "request body must be JSON")
		}
		ct, err := svc.Release(c.UserContext(), id, req.Intent, a)
		if err != nil {
			return err
		}
		return c.JSON(ct)
	}
}
