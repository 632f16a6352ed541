package lifecycle

import (
	"fmt"
	"strings"

	"crewops/internal/apperr"
	"crewops/internal/model"
)

// ValidateSpec checks a contract submission and reports every violated field.
func ValidateSpec(spec model.ContractSpec) error {
	ve := &apperr.ValidationError{}

	if !spec.Kind.Valid() {
		ve.Add("kind", "must be one of full_crew, one_off")
	}
	if strings.TrimSpace(spec.Vessel.Name) == "" {
		ve.Add("vessel.name", "is required")
	}
	if spec.StartDate == nil || spec.StartDate.IsZero() {
		ve.Add("start_date", "is required")
	}
	if spec.DurationDays < 1 {
		ve.Add("duration_days", "must be at least 1")
	}
	if spec.Kind == model.KindOneOff {
		if strings.TrimSpace(spec.JoiningPort) == "" {
			ve.Add("joining_port", "is required for one-off contracts")
		}
		if strings.TrimSpace(spec.DisembarkationPort) == "" {
			ve.Add("disembarkation_port", "is required for one-off contracts")
		}
	}

	if len(spec.Positions) == 0 {
		ve.Add("positions", "must not be empty")
	}
	for i, p := range spec.Positions {
		if strings.TrimSpace(p.Rank) == "" {
			ve.Add(fmt.Sprintf("positions[%d].rank", i), "is required")
		}
		if p.Quantity < 1 {
			ve.Add(fmt.Sprintf("positions[%d].quantity", i), "must be at least 1")
		}
		if p.MinExperienceYears < 0 {
			ve.Add(fmt.Sprintf("positions[%d].min_experience_years", i), "must not be negative")
		}
	}

	return ve.OrNil()
}
