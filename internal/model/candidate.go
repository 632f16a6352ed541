package model

import (
	"time"

	"github.com/lib/pq"
)

type CandidateStatus string

const (
	CandidateAvailable  CandidateStatus = "available"
	CandidateOnContract CandidateStatus = "on_contract"
)

type VisaStatus string

const (
	VisaValid   VisaStatus = "valid"
	VisaPending VisaStatus = "pending"
	VisaExpired VisaStatus = "expired"
	VisaNone    VisaStatus = "none"
)

func (v VisaStatus) Valid() bool {
	switch v {
	case VisaValid, VisaPending, VisaExpired, VisaNone:
		return true
	}
	return false
}

// Candidate is a seafarer profile considered for one-off openings.
// CurrentAssignment is a lookup pointer to the contract the candidate is bound
// to; it does not own the contract.
type Candidate struct {
	ID                string          `json:"id" db:"id"`
	SeafarerID        string          `json:"seafarer_id" db:"seafarer_id"`
	Name              string          `json:"name" db:"name"`
	Rank              string          `json:"rank" db:"rank"`
	ExperienceYears   float64         `json:"experience_years" db:"experience_years"`
	Location          string          `json:"location,omitempty" db:"location"`
	Nationality       string          `json:"nationality,omitempty" db:"nationality"`
	AvailableFrom     time.Time       `json:"available_from" db:"available_from"`
	AvailableTo       *time.Time      `json:"available_to,omitempty" db:"available_to"`
	Certifications    pq.StringArray  `json:"certifications" db:"certifications" swaggertype:"array,string"`
	VisaStatus        VisaStatus      `json:"visa_status" db:"visa_status"`
	Status            CandidateStatus `json:"status" db:"status"`
	CurrentAssignment *string         `json:"current_assignment,omitempty" db:"current_assignment"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
}

// Assigned reports whether the candidate holds an active assignment.
func (c *Candidate) Assigned() bool {
	return c.CurrentAssignment != nil && *c.CurrentAssignment != ""
}
