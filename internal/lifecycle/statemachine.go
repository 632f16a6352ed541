// Package lifecycle holds the contract state machine. Everything here is pure:
// callers load a contract, ask for a plan, and persist it themselves.
package lifecycle

import (
	"time"

	"crewops/internal/apperr"
	"crewops/internal/model"
)

// DefaultRenewalWindow is how long before the end date a full-crew contract
// is projected as renewal_due.
const DefaultRenewalWindow = 30 * 24 * time.Hour

// edgeOwner says who may drive an edge.
type edgeOwner int

const (
	ownerAdmin edgeOwner = iota
	ownerSystem
	ownerCoordinator
)

type edge struct {
	from model.ContractStatus
	to   model.ContractStatus
}

var fullCrewEdges = map[edge]edgeOwner{
	{model.StatusPending, model.StatusActive}:       ownerAdmin,
	{model.StatusActive, model.StatusCompleted}:     ownerAdmin,
	{model.StatusRenewalDue, model.StatusCompleted}: ownerAdmin,
	{model.StatusPending, model.StatusCancelled}:    ownerAdmin,
	{model.StatusActive, model.StatusCancelled}:     ownerAdmin,
	{model.StatusRenewalDue, model.StatusCancelled}: ownerAdmin,
	{model.StatusActive, model.StatusRenewalDue}:    ownerSystem,
	{model.StatusRenewalDue, model.StatusExpired}:   ownerSystem,
	{model.StatusActive, model.StatusExpired}:       ownerSystem,
	{model.StatusRenewalDue, model.StatusActive}:    ownerSystem,
}

var oneOffEdges = map[edge]edgeOwner{
	{model.StatusOpen, model.StatusReviewing}:      ownerAdmin,
	{model.StatusReviewing, model.StatusOpen}:      ownerAdmin,
	{model.StatusOpen, model.StatusCancelled}:      ownerAdmin,
	{model.StatusReviewing, model.StatusCancelled}: ownerAdmin,
	{model.StatusOpen, model.StatusAssigned}:       ownerCoordinator,
	{model.StatusReviewing, model.StatusAssigned}:  ownerCoordinator,
	{model.StatusAssigned, model.StatusOpen}:       ownerCoordinator,
	{model.StatusAssigned, model.StatusCancelled}:  ownerCoordinator,
	{model.StatusAssigned, model.StatusCompleted}:  ownerCoordinator,
}

// Plan is a validated status mutation ready to be persisted.
type Plan struct {
	Field model.StatusField
	From  string
	To    string
	// NextStatus is set when an approval also moves the operational status
	// (approving a one-off contract opens it).
	NextStatus *model.ContractStatus
}

// InitialStatus is the operational status a newly submitted contract starts in.
func InitialStatus(kind model.ContractKind) model.ContractStatus {
	if kind == model.KindOneOff {
		return model.StatusDraft
	}
	return model.StatusPending
}

// IsApprovalTarget reports whether target names an approval status.
func IsApprovalTarget(target string) bool {
	switch model.ApprovalStatus(target) {
	case model.ApprovalSubmitted, model.ApprovalApproved, model.ApprovalRejected:
		return true
	}
	return false
}

// PlanTransition validates moving c to target on behalf of actor. Targets
// "approved" and "rejected" act on the approval gate; anything else is an
// operational status. c.Status must hold the stored (not derived) status.
func PlanTransition(c *model.Contract, target string, actor model.Actor) (Plan, error) {
	if IsApprovalTarget(target) {
		return planApproval(c, model.ApprovalStatus(target), actor)
	}
	return planStatus(c, model.ContractStatus(target), actor)
}

func planApproval(c *model.Contract, target model.ApprovalStatus, actor model.Actor) (Plan, error) {
	from := string(c.ApprovalStatus)
	if !actor.IsAdmin() {
		return Plan{}, apperr.IllegalTransition(c.ID, from, string(target), "only an admin may review a contract")
	}
	if c.ApprovalStatus != model.ApprovalSubmitted || target == model.ApprovalSubmitted {
		return Plan{}, apperr.IllegalTransition(c.ID, from, string(target), "approval edge not allowed")
	}
	p := Plan{Field: model.FieldApproval, From: from, To: string(target)}
	if target == model.ApprovalApproved && c.Kind == model.KindOneOff && c.Status == model.StatusDraft {
		next := model.StatusOpen
		p.NextStatus = &next
	}
	return p, nil
}

func planStatus(c *model.Contract, target model.ContractStatus, actor model.Actor) (Plan, error) {
	from := string(c.Status)
	if c.ApprovalStatus != model.ApprovalApproved {
		return Plan{}, apperr.IllegalTransition(c.ID, from, string(target), "contract is not approved")
	}
	owner, ok := edgesFor(c.Kind)[edge{c.Status, target}]
	if !ok {
		return Plan{}, apperr.IllegalTransition(c.ID, from, string(target), "edge not allowed")
	}
	switch owner {
	case ownerSystem:
		if actor.Role != model.RoleSystem {
			return Plan{}, apperr.IllegalTransition(c.ID, from, string(target), "derived status is computed, not set")
		}
	case ownerCoordinator:
		return Plan{}, apperr.IllegalTransition(c.ID, from, string(target), "requires the assignment coordinator")
	default:
		if !actor.IsAdmin() && actor.Role != model.RoleSystem {
			return Plan{}, apperr.IllegalTransition(c.ID, from, string(target), "only an admin may change contract status")
		}
	}
	return Plan{Field: model.FieldStatus, From: from, To: string(target)}, nil
}

// CheckCoordinatorEdge validates an edge driven by the assignment coordinator.
func CheckCoordinatorEdge(c *model.Contract, target model.ContractStatus) error {
	owner, ok := edgesFor(c.Kind)[edge{c.Status, target}]
	if !ok || owner != ownerCoordinator {
		return apperr.IllegalTransition(c.ID, string(c.Status), string(target), "edge not allowed")
	}
	return nil
}

// Assignable reports whether a one-off contract can take a candidate now.
func Assignable(c *model.Contract) bool {
	return c.Kind == model.KindOneOff &&
		c.ApprovalStatus == model.ApprovalApproved &&
		(c.Status == model.StatusOpen || c.Status == model.StatusReviewing)
}

// IsTerminal reports whether c accepts no further operational transitions.
func IsTerminal(c *model.Contract) bool {
	if c.ApprovalStatus == model.ApprovalRejected {
		return true
	}
	switch c.Status {
	case model.StatusCompleted, model.StatusCancelled, model.StatusExpired:
		return true
	}
	return false
}

// ComputeDerivedStatus projects the renewal_due and expired statuses of
// full-crew contracts from elapsed time. It never mutates c.
func ComputeDerivedStatus(c *model.Contract, now time.Time, window time.Duration) model.ContractStatus {
	if c.Kind != model.KindFullCrew {
		return c.Status
	}
	if c.Status != model.StatusActive && c.Status != model.StatusRenewalDue {
		return c.Status
	}
	end := c.EndDate()
	switch {
	case !now.Before(end):
		return model.StatusExpired
	case !now.Before(end.Add(-window)):
		return model.StatusRenewalDue
	default:
		return model.StatusActive
	}
}

func edgesFor(kind model.ContractKind) map[edge]edgeOwner {
	if kind == model.KindOneOff {
		return oneOffEdges
	}
	return fullCrewEdges
}
