package model

import (
	"time"

	"github.com/lib/pq"
)

// ContractKind distinguishes standing crew management from spot placements.
type ContractKind string

const (
	KindFullCrew ContractKind = "full_crew"
	KindOneOff   ContractKind = "one_off"
)

func (k ContractKind) Valid() bool {
	return k == KindFullCrew || k == KindOneOff
}

// ApprovalStatus is the admin review gate every contract passes before it
// enters its operational pipeline.
type ApprovalStatus string

const (
	ApprovalSubmitted ApprovalStatus = "submitted"
	ApprovalApproved  ApprovalStatus = "approved"
	ApprovalRejected  ApprovalStatus = "rejected"
)

// ContractStatus is the operational status. Full-crew and one-off contracts
// use disjoint subsets, except for completed and cancelled.
type ContractStatus string

const (
	// full crew
	StatusPending    ContractStatus = "pending"
	StatusActive     ContractStatus = "active"
	StatusRenewalDue ContractStatus = "renewal_due"
	StatusExpired    ContractStatus = "expired"

	// one-off
	StatusDraft     ContractStatus = "draft"
	StatusOpen      ContractStatus = "open"
	StatusReviewing ContractStatus = "reviewing"
	StatusAssigned  ContractStatus = "assigned"

	// shared
	StatusCompleted ContractStatus = "completed"
	StatusCancelled ContractStatus = "cancelled"
)

// Vessel describes the ship a contract crews.
type Vessel struct {
	Name      string `json:"name"`
	IMONumber string `json:"imo_number,omitempty"`
	Type      string `json:"type,omitempty"`
	Flag      string `json:"flag,omitempty"`
}

// Position is one rank requested by a contract.
type Position struct {
	Rank                   string         `json:"rank"`
	Quantity               int            `json:"quantity"`
	MinExperienceYears     float64        `json:"min_experience_years"`
	NationalityPreference  string         `json:"nationality_preference,omitempty"`
	RequiredCertifications pq.StringArray `json:"required_certifications,omitempty" swaggertype:"array,string"`
}

// Contract is a shipowner's crew request.
type Contract struct {
	ID                  string         `json:"id"`
	ContractNumber      string         `json:"contract_number"`
	Kind                ContractKind   `json:"kind"`
	ApprovalStatus      ApprovalStatus `json:"approval_status"`
	Status              ContractStatus `json:"status"`
	StoredStatus        ContractStatus `json:"stored_status,omitempty"`
	ShipownerID         string         `json:"shipowner_id"`
	Vessel              Vessel         `json:"vessel"`
	OperationalZone     string         `json:"operational_zone,omitempty"`
	StartDate           time.Time      `json:"start_date"`
	DurationDays        int            `json:"duration_days"`
	JoiningPort         string         `json:"joining_port,omitempty"`
	DisembarkationPort  string         `json:"disembarkation_port,omitempty"`
	Positions           []Position     `json:"positions"`
	AdminNotes          *string        `json:"admin_notes,omitempty"`
	AssignedCandidateID *string        `json:"assigned_candidate_id,omitempty"`
	StatusUpdatedAt     time.Time      `json:"status_updated_at"`
	StatusUpdatedBy     *string        `json:"status_updated_by,omitempty"`
	ArchivedAt          *time.Time     `json:"archived_at,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

// EndDate is derived from the start date and duration.
func (c *Contract) EndDate() time.Time {
	return c.StartDate.AddDate(0, 0, c.DurationDays)
}

// StatusField names which status column a StatusChange touched.
type StatusField string

const (
	FieldApproval StatusField = "approval"
	FieldStatus   StatusField = "status"
)

// StatusChange is an append-only audit row for a contract status mutation.
type StatusChange struct {
	ID         int64       `json:"id" db:"id"`
	ContractID string      `json:"contract_id" db:"contract_id"`
	Field      StatusField `json:"field" db:"field"`
	From       string      `json:"from" db:"from_status"`
	To         string      `json:"to" db:"to_status"`
	ActorID    string      `json:"actor_id" db:"actor_id"`
	Note       *string     `json:"note,omitempty" db:"note"`
	ChangedAt  time.Time   `json:"changed_at" db:"changed_at"`
}

// ContractSpec is a shipowner's submission before it becomes a Contract.
type ContractSpec struct {
	Kind               ContractKind `json:"kind"`
	Vessel             Vessel       `json:"vessel"`
	OperationalZone    string       `json:"operational_zone"`
	StartDate          *time.Time   `json:"start_date"`
	DurationDays       int          `json:"duration_days"`
	JoiningPort        string       `json:"joining_port"`
	DisembarkationPort string       `json:"disembarkation_port"`
	Positions          []Position   `json:"positions"`
	AdminNotes         *string      `json:"admin_notes,omitempty"`
}
