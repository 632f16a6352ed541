package matching

import (
	"testing"
	"time"

	"crewops/internal/apperr"
	"crewops/internal/model"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	start = time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	end   = start.AddDate(0, 0, 60)
)

func opening() Requirements {
	return Requirements{
		ContractID:             "c-1",
		Rank:                   "2nd Engineer",
		MinExperienceYears:     3,
		NationalityPreference:  "Any",
		RequiredCertifications: []string{"STCW", "ERS"},
		From:                   start,
		To:                     end,
	}
}

func fit(id string) model.Candidate {
	return model.Candidate{
		ID:              id,
		Name:            "Candidate " + id,
		Rank:            "2nd Engineer",
		ExperienceYears: 5,
		Nationality:     "Philippines",
		AvailableFrom:   start.AddDate(0, -1, 0),
		Certifications:  pq.StringArray{"stcw", "ERS", "GMDSS"},
		VisaStatus:      model.VisaNone,
		Status:          model.CandidateAvailable,
	}
}

func TestRank_ScenarioTwoFullMatchesAndOneMissingCertification(t *testing.T) {
	c3 := fit("cand-c")
	c3.Certifications = pq.StringArray{"STCW"}

	results := Rank(opening(), []model.Candidate{c3, fit("cand-b"), fit("cand-a")})

	require.Len(t, results, 3)
	scores := []int{results[0].Score, results[1].Score, results[2].Score}
	assert.Equal(t, []int{100, 100, 75}, scores)
	assert.Equal(t, "cand-a", results[0].CandidateID)
	assert.Equal(t, "cand-b", results[1].CandidateID)
	assert.Equal(t, "cand-c", results[2].CandidateID)
	assert.False(t, results[2].Criteria.Certifications)
	assert.Equal(t, "c-1", results[0].ContractID)
}

func TestRank_Eligibility(t *testing.T) {
	assigned := fit("cand-a")
	contractID := "c-9"
	assigned.CurrentAssignment = &contractID

	otherRank := fit("cand-b")
	otherRank.Rank = "Cook"

	caseInsensitive := fit("cand-c")
	caseInsensitive.Rank = "2ND ENGINEER"

	results := Rank(opening(), []model.Candidate{assigned, otherRank, caseInsensitive})

	require.Len(t, results, 1)
	assert.Equal(t, "cand-c", results[0].CandidateID)
}

func TestRank_NoRankFilterWhenBundleHasNone(t *testing.T) {
	req := opening()
	req.Rank = ""
	cook := fit("cand-a")
	cook.Rank = "Cook"

	assert.Len(t, Rank(req, []model.Candidate{cook}), 1)
}

func TestRank_EmptyPool(t *testing.T) {
	results := Rank(opening(), nil)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestRank_Deterministic(t *testing.T) {
	pool := []model.Candidate{fit("z"), fit("m"), fit("a")}
	first := Rank(opening(), pool)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Rank(opening(), []model.Candidate{pool[2], pool[0], pool[1]}))
	}
}

func TestEvaluate(t *testing.T) {
	closedWindow := end.AddDate(0, 0, -1)
	laterStart := start.AddDate(0, 0, 1)
	exactEnd := end

	tests := []struct {
		name   string
		mutate func(r *Requirements, c *model.Candidate)
		want   model.MatchCriteria
	}{
		{
			name:   "all criteria",
			mutate: func(*Requirements, *model.Candidate) {},
			want:   model.MatchCriteria{Experience: true, Certifications: true, Availability: true, Visa: true},
		},
		{
			name:   "too junior",
			mutate: func(_ *Requirements, c *model.Candidate) { c.ExperienceYears = 2.5 },
			want:   model.MatchCriteria{Experience: false, Certifications: true, Availability: true, Visa: true},
		},
		{
			name:   "availability ends before the opening",
			mutate: func(_ *Requirements, c *model.Candidate) { c.AvailableTo = &closedWindow },
			want:   model.MatchCriteria{Experience: true, Certifications: true, Availability: false, Visa: true},
		},
		{
			name:   "availability ending exactly at the end covers it",
			mutate: func(_ *Requirements, c *model.Candidate) { c.AvailableTo = &exactEnd },
			want:   model.MatchCriteria{Experience: true, Certifications: true, Availability: true, Visa: true},
		},
		{
			name:   "available only after the start",
			mutate: func(_ *Requirements, c *model.Candidate) { c.AvailableFrom = laterStart },
			want:   model.MatchCriteria{Experience: true, Certifications: true, Availability: false, Visa: true},
		},
		{
			name:   "nationality preference met",
			mutate: func(r *Requirements, _ *model.Candidate) { r.NationalityPreference = "philippines" },
			want:   model.MatchCriteria{Experience: true, Certifications: true, Availability: true, Visa: true},
		},
		{
			name:   "nationality preference missed without a visa",
			mutate: func(r *Requirements, _ *model.Candidate) { r.NationalityPreference = "Norway" },
			want:   model.MatchCriteria{Experience: true, Certifications: true, Availability: true, Visa: false},
		},
		{
			name: "valid visa satisfies a foreign preference",
			mutate: func(r *Requirements, c *model.Candidate) {
				r.NationalityPreference = "Norway"
				c.VisaStatus = model.VisaValid
			},
			want: model.MatchCriteria{Experience: true, Certifications: true, Availability: true, Visa: true},
		},
		{
			name:   "empty preference is any",
			mutate: func(r *Requirements, _ *model.Candidate) { r.NationalityPreference = "" },
			want:   model.MatchCriteria{Experience: true, Certifications: true, Availability: true, Visa: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := opening()
			c := fit("cand-a")
			tt.mutate(&r, &c)
			assert.Equal(t, tt.want, Evaluate(r, &c))
		})
	}
}

func TestScore(t *testing.T) {
	assert.Equal(t, 0, Score(model.MatchCriteria{}))
	assert.Equal(t, 50, Score(model.MatchCriteria{Experience: true, Visa: true}))
	assert.Equal(t, 100, Score(model.MatchCriteria{Experience: true, Certifications: true, Availability: true, Visa: true}))
}

func TestRequirementsFor(t *testing.T) {
	c := &model.Contract{
		ID:           "c-1",
		StartDate:    start,
		DurationDays: 60,
		Positions: []model.Position{
			{Rank: "2nd Engineer", Quantity: 2, MinExperienceYears: 3},
			{Rank: "Cook", Quantity: 1},
		},
	}

	req, err := RequirementsFor(c, 1)
	require.NoError(t, err)
	assert.Equal(t, "Cook", req.Rank)
	assert.Equal(t, end, req.To)

	_, err = RequirementsFor(c, 2)
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
}
