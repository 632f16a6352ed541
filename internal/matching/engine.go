// Package matching scores candidates against a one-off opening. It is pure:
// no I/O, no clock, no shared state.
package matching

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"crewops/internal/apperr"
	"crewops/internal/model"
)

// CriterionWeight is the score contributed by each satisfied criterion.
const CriterionWeight = 25

// AnyNationality accepts every candidate on the visa criterion.
const AnyNationality = "Any"

// Requirements is the bundle one opening is matched against.
type Requirements struct {
	ContractID             string
	Rank                   string
	MinExperienceYears     float64
	NationalityPreference  string
	RequiredCertifications []string
	From                   time.Time
	To                     time.Time
}

// RequirementsFor builds the bundle of position idx of c. The date window
// runs from the start date to the derived end date.
func RequirementsFor(c *model.Contract, idx int) (Requirements, error) {
	if idx < 0 || idx >= len(c.Positions) {
		ve := &apperr.ValidationError{}
		ve.Add("position", fmt.Sprintf("must be between 0 and %d", len(c.Positions)-1))
		return Requirements{}, ve
	}
	p := c.Positions[idx]
	return Requirements{
		ContractID:             c.ID,
		Rank:                   p.Rank,
		MinExperienceYears:     p.MinExperienceYears,
		NationalityPreference:  p.NationalityPreference,
		RequiredCertifications: p.RequiredCertifications,
		From:                   c.StartDate,
		To:                     c.EndDate(),
	}, nil
}

// Rank scores every eligible candidate in pool and orders the results by
// score descending, then candidate id ascending. Candidates holding an
// active assignment, or of another rank when one is required, are left out.
func Rank(req Requirements, pool []model.Candidate) []model.MatchResult {
	out := make([]model.MatchResult, 0, len(pool))
	for i := range pool {
		c := &pool[i]
		if !eligible(req, c) {
			continue
		}
		criteria := Evaluate(req, c)
		out = append(out, model.MatchResult{
			CandidateID:   c.ID,
			CandidateName: c.Name,
			ContractID:    req.ContractID,
			Score:         Score(criteria),
			Criteria:      criteria,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].CandidateID < out[j].CandidateID
	})
	return out
}

func eligible(req Requirements, c *model.Candidate) bool {
	if c.Assigned() {
		return false
	}
	if strings.TrimSpace(req.Rank) != "" && !strings.EqualFold(strings.TrimSpace(c.Rank), strings.TrimSpace(req.Rank)) {
		return false
	}
	return true
}

// Evaluate computes the four criteria for one candidate.
func Evaluate(req Requirements, c *model.Candidate) model.MatchCriteria {
	return model.MatchCriteria{
		Experience:     c.ExperienceYears >= req.MinExperienceYears,
		Certifications: holdsAll(c.Certifications, req.RequiredCertifications),
		Availability:   covers(c, req.From, req.To),
		Visa:           visaSatisfied(req.NationalityPreference, c),
	}
}

// Score sums CriterionWeight per satisfied criterion.
func Score(m model.MatchCriteria) int {
	score := 0
	for _, ok := range []bool{m.Experience, m.Certifications, m.Availability, m.Visa} {
		if ok {
			score += CriterionWeight
		}
	}
	return score
}

func holdsAll(held, required []string) bool {
	set := make(map[string]struct{}, len(held))
	for _, h := range held {
		set[strings.ToLower(strings.TrimSpace(h))] = struct{}{}
	}
	for _, r := range required {
		if _, ok := set[strings.ToLower(strings.TrimSpace(r))]; !ok {
			return false
		}
	}
	return true
}

// covers reports whether the candidate is available for the whole window.
// A missing end date means open-ended availability.
func covers(c *model.Candidate, from, to time.Time) bool {
	if c.AvailableFrom.After(from) {
		return false
	}
	return c.AvailableTo == nil || !c.AvailableTo.Before(to)
}

func visaSatisfied(pref string, c *model.Candidate) bool {
	pref = strings.TrimSpace(pref)
	if pref == "" || strings.EqualFold(pref, AnyNationality) {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(c.Nationality), pref) || c.VisaStatus == model.VisaValid
}
