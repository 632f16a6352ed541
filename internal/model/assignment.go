package model

import "time"

// ReleaseIntent says where a released one-off contract goes next.
type ReleaseIntent string

const (
	ReleaseReopen   ReleaseIntent = "reopen"
	ReleaseCancel   ReleaseIntent = "cancel"
	ReleaseComplete ReleaseIntent = "complete"
)

// TargetStatus maps the intent to the contract status after release.
func (i ReleaseIntent) TargetStatus() (ContractStatus, bool) {
	switch i {
	case ReleaseReopen:
		return StatusOpen, true
	case ReleaseCancel:
		return StatusCancelled, true
	case ReleaseComplete:
		return StatusCompleted, true
	}
	return "", false
}

// Assignment binds a candidate to a one-off contract. It is active until
// ReleasedAt is set.
type Assignment struct {
	ID            string         `json:"id" db:"id"`
	ContractID    string         `json:"contract_id" db:"contract_id"`
	CandidateID   string         `json:"candidate_id" db:"candidate_id"`
	AssignedAt    time.Time      `json:"assigned_at" db:"assigned_at"`
	AssignedBy    string         `json:"assigned_by" db:"assigned_by"`
	ReleasedAt    *time.Time     `json:"released_at,omitempty" db:"released_at"`
	ReleasedBy    *string        `json:"released_by,omitempty" db:"released_by"`
	ReleaseReason *ReleaseIntent `json:"release_reason,omitempty" db:"release_reason"`
}

func (a *Assignment) Active() bool { return a.ReleasedAt == nil }

// MatchResult is a candidate's fitness for one opening. It is computed per
// request and never stored.
type MatchResult struct {
	CandidateID   string        `json:"candidate_id"`
	CandidateName string        `json:"candidate_name"`
	ContractID    string        `json:"contract_id"`
	Score         int           `json:"score"`
	Criteria      MatchCriteria `json:"criteria"`
}

type MatchCriteria struct {
	Experience     bool `json:"experience"`
	Certifications bool `json:"certifications"`
	Availability   bool `json:"availability"`
	Visa           bool `json:"visa"`
}
