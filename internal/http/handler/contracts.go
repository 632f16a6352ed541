package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"crewops/internal/apperr"
	"crewops/internal/model"
	"crewops/internal/service"
)

// contractRequest mirrors model.ContractSpec but takes start_date as either a
// calendar date or an RFC 3339 timestamp.
type contractRequest struct {
	Kind               model.ContractKind `json:"kind"`
	Vessel             model.Vessel       `json:"vessel"`
	OperationalZone    string             `json:"operational_zone"`
	StartDate          string             `json:"start_date" example:"2026-11-01"`
	DurationDays       int                `json:"duration_days"`
	JoiningPort        string             `json:"joining_port"`
	DisembarkationPort string             `json:"disembarkation_port"`
	Positions          []model.Position   `json:"positions"`
	AdminNotes         *string            `json:"admin_notes,omitempty"`
}

func (r contractRequest) spec() (model.ContractSpec, error) {
	spec := model.ContractSpec{
		Kind:               r.Kind,
		Vessel:             r.Vessel,
		OperationalZone:    r.OperationalZone,
		DurationDays:       r.DurationDays,
		JoiningPort:        r.JoiningPort,
		DisembarkationPort: r.DisembarkationPort,
		Positions:          r.Positions,
		AdminNotes:         r.AdminNotes,
	}
	raw := strings.TrimSpace(r.StartDate)
	if raw == "" {
		// left nil so validation reports it with the other fields
		return spec, nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			spec.StartDate = &t
			return spec, nil
		}
	}
	ve := &apperr.ValidationError{}
	ve.Add("start_date", "must be YYYY-MM-DD or RFC 3339")
	return spec, ve
}

type transitionRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

// CreateContract submits a contract for admin approval. Shipowners own what
// they create; an admin creating on someone's behalf owns it too.
//
//	@Summary	Create a contract
//	@Tags		contracts
//	@Security	BearerAuth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		contractRequest	true	"contract"
//	@Success	201		{object}	model.Contract
//	@Failure	400		{object}	errorPayload
//	@Router		/api/v1/contracts [post]
func CreateContract(svc service.ContractService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		a, err := actor(c)
		if err != nil {
			return err
		}
		var req contractRequest
		if err := c.BodyParser(&req); err != nil {
			return invalidInput("INVALID_BODY", "request body must be a JSON contract")
		}
		spec, err := req.spec()
		if err != nil {
			return err
		}
		ct, err := svc.Create(c.UserContext(), spec, a)
		if err != nil {
			return err
		}
		c.Location("/api/v1/contracts/" + ct.ID)
		return c.Status(fiber.StatusCreated).JSON(ct)
	}
}

// ListContracts pages contracts. Shipowners only see their own.
//
//	@Summary	List contracts
//	@Tags		contracts
//	@Security	BearerAuth
//	@Produce	json
//	@Param		kind				query		string	false	"full_crew or one_off"
//	@Param		status				query		string	false	"operational status"
//	@Param		approval_status		query		string	false	"submitted, approved or rejected"
//	@Param		include_archived	query		bool	false	"include archived contracts"
//	@Param		limit				query		int		false	"page size"
//	@Param		offset				query		int		false	"page offset"
//	@Success	200					{object}	service.ContractListResult
//	@Failure	400					{object}	errorPayload
//	@Router		/api/v1/contracts [get]
func ListContracts(svc service.ContractService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		a, err := actor(c)
		if err != nil {
			return err
		}
		limit, offset, err := pagination(c)
		if err != nil {
			return err
		}
		archived, err := strconv.ParseBool(c.Query("include_archived", "false"))
		if err != nil {
			return invalidInput("INVALID_INCLUDE_ARCHIVED", "include_archived must be a boolean")
		}

		q := service.ContractListQuery{
			Kind:            model.ContractKind(c.Query("kind")),
			Status:          model.ContractStatus(c.Query("status")),
			ApprovalStatus:  model.ApprovalStatus(c.Query("approval_status")),
			IncludeArchived: archived,
			Limit:           limit,
			Offset:          offset,
		}
		if a.Role == model.RoleShipowner {
			q.ShipownerID = a.ID
		}

		res, err := svc.List(c.UserContext(), q)
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// visibleContract loads a contract and hides other shipowners' contracts.
func visibleContract(c *fiber.Ctx, svc service.ContractService, a model.Actor) (*model.Contract, error) {
	id, err := pathID(c, "contract")
	if err != nil {
		return nil, err
	}
	ct, err := svc.Get(c.UserContext(), id)
	if err != nil {
		return nil, err
	}
	if a.Role == model.RoleShipowner && ct.ShipownerID != a.ID {
		return nil, apperr.NotFound("contract", id)
	}
	return ct, nil
}

// GetContract returns the contract with its positions and derived status.
//
//	@Summary	Get a contract
//	@Tags		contracts
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		string	true	"contract id"
//	@Success	200	{object}	model.Contract
//	@Failure	404	{object}	errorPayload
//	@Router		/api/v1/contracts/{id} [get]
func GetContract(svc service.ContractService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		a, err := actor(c)
		if err != nil {
			return err
		}
		ct, err := visibleContract(c, svc, a)
		if err != nil {
			return err
		}
		return c.JSON(ct)
	}
}

// ContractHistory lists every recorded status change, oldest first.
//
//	@Summary	Contract status audit trail
//	@Tags		contracts
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		string	true	"contract id"
//	@Success	200	{array}		model.StatusChange
//	@Failure	404	{object}	errorPayload
//	@Router		/api/v1/contracts/{id}/history [get]
func ContractHistory(svc service.ContractService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		a, err := actor(c)
		if err != nil {
			return err
		}
		id, err := pathID(c, "contract")
		if err != nil {
			return err
		}
		if a.Role == model.RoleShipowner {
			if _, err := visibleContract(c, svc, a); err != nil {
				return err
			}
		}
		h, err := svc.History(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(h)
	}
}

// TransitionContract moves the approval gate (approved, rejected) or the
// operational status.
//
//	@Summary	Transition a contract
//	@Tags		contracts
//	@Security	BearerAuth
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string				true	"contract id"
//	@Param		body	body		transitionRequest	true	"target status"
//	@Success	200		{object}	model.Contract
//	@Failure	400		{object}	errorPayload
//	@Failure	409		{object}	errorPayload
//	@Router		/api/v1/contracts/{id}/transition [post]
func TransitionContract(svc service.ContractService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		a, err := actor(c)
		if err != nil {
			return err
		}
		id, err := pathID(c, "contract")
		if err != nil {
			return err
		}
		var req transitionRequest
		if err := c.BodyParser(&req); err != nil {
			return invalidInput("INVALID_BODY", "request body must be JSON")
		}
		if strings.TrimSpace(req.Status) == "" {
			ve := &apperr.ValidationError{}
			ve.Add("status", "is required")
			return ve
		}
		ct, err := svc.Transition(c.UserContext(), id, strings.TrimSpace(req.Status), a, req.Note)
		if err != nil {
			return err
		}
		return c.JSON(ct)
	}
}

// ArchiveContract hides a completed, cancelled or expired contract from default listings.
//
//	@Summary	Archive a terminal contract
//	@Tags		contracts
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		string	true	"contract id"
//	@Success	200	{object}	model.Contract
//	@Failure	409	{object}	errorPayload
//	@Router		/api/v1/contracts/{id}/archive [post]
func ArchiveContract(svc service.ContractService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		a, err := actor(c)
		if err != nil {
			return err
		}
		id, err := pathID(c, "contract")
		if err != nil {
			return err
		}
		ct, err := svc.Archive(c.UserContext(), id, a)
		if err != nil {
			return err
		}
		return c.JSON(ct)
	}
}
