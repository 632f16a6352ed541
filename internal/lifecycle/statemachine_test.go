package lifecycle

import (
	"testing"
	"time"

	"crewops/internal/apperr"
	"crewops/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	admin     = model.Actor{ID: "admin-1", Role: model.RoleAdmin}
	shipowner = model.Actor{ID: "owner-1", Role: model.RoleShipowner}
)

func approved(kind model.ContractKind, status model.ContractStatus) *model.Contract {
	return &model.Contract{ID: "c1", Kind: kind, ApprovalStatus: model.ApprovalApproved, Status: status}
}

func TestPlanTransition_Approval(t *testing.T) {
	t.Run("approving a one-off contract opens it", func(t *testing.T) {
		c := &model.Contract{ID: "c1", Kind: model.KindOneOff, ApprovalStatus: model.ApprovalSubmitted, Status: model.StatusDraft}
		p, err := PlanTransition(c, "approved", admin)
		require.NoError(t, err)
		assert.Equal(t, model.FieldApproval, p.Field)
		assert.Equal(t, "submitted", p.From)
		assert.Equal(t, "approved", p.To)
		require.NotNil(t, p.NextStatus)
		assert.Equal(t, model.StatusOpen, *p.NextStatus)
	})

	t.Run("approving a full-crew contract keeps it pending", func(t *testing.T) {
		c := &model.Contract{ID: "c1", Kind: model.KindFullCrew, ApprovalStatus: model.ApprovalSubmitted, Status: model.StatusPending}
		p, err := PlanTransition(c, "approved", admin)
		require.NoError(t, err)
		assert.Nil(t, p.NextStatus)
	})

	t.Run("rejected is final", func(t *testing.T) {
		c := &model.Contract{ID: "c1", Kind: model.KindFullCrew, ApprovalStatus: model.ApprovalRejected, Status: model.StatusPending}
		for _, target := range []string{"submitted", "approved", "rejected"} {
			_, err := PlanTransition(c, target, admin)
			var ite *apperr.IllegalTransitionError
			assert.ErrorAs(t, err, &ite, target)
		}
	})

	t.Run("shipowner cannot approve", func(t *testing.T) {
		c := &model.Contract{ID: "c1", Kind: model.KindFullCrew, ApprovalStatus: model.ApprovalSubmitted, Status: model.StatusPending}
		_, err := PlanTransition(c, "approved", shipowner)
		assert.Equal(t, apperr.CodeIllegalTransition, apperr.CodeOf(err))
	})
}

func TestPlanTransition_Operational(t *testing.T) {
	tests := []struct {
		name    string
		kind    model.ContractKind
		from    model.ContractStatus
		to      model.ContractStatus
		actor   model.Actor
		allowed bool
	}{
		{"full crew activate", model.KindFullCrew, model.StatusPending, model.StatusActive, admin, true},
		{"full crew complete", model.KindFullCrew, model.StatusActive, model.StatusCompleted, admin, true},
		{"full crew cancel from renewal due", model.KindFullCrew, model.StatusRenewalDue, model.StatusCancelled, admin, true},
		{"full crew renewal due is derived", model.KindFullCrew, model.StatusActive, model.StatusRenewalDue, admin, false},
		{"full crew expiry by system", model.KindFullCrew, model.StatusRenewalDue, model.StatusExpired, model.SystemActor, true},
		{"full crew pending to completed", model.KindFullCrew, model.StatusPending, model.StatusCompleted, admin, false},
		{"full crew cancelled is terminal", model.KindFullCrew, model.StatusCancelled, model.StatusActive, admin, false},
		{"one-off review", model.KindOneOff, model.StatusOpen, model.StatusReviewing, admin, true},
		{"one-off back to open", model.KindOneOff, model.StatusReviewing, model.StatusOpen, admin, true},
		{"one-off cancel open", model.KindOneOff, model.StatusOpen, model.StatusCancelled, admin, true},
		{"one-off assign by edit", model.KindOneOff, model.StatusReviewing, model.StatusAssigned, admin, false},
		{"one-off complete by edit", model.KindOneOff, model.StatusAssigned, model.StatusCompleted, admin, false},
		{"one-off draft to open by edit", model.KindOneOff, model.StatusDraft, model.StatusOpen, admin, false},
		{"one-off uses full crew vocabulary", model.KindOneOff, model.StatusOpen, model.StatusActive, admin, false},
		{"shipowner cannot cancel", model.KindOneOff, model.StatusOpen, model.StatusCancelled, shipowner, false},
		{"self loop", model.KindOneOff, model.StatusOpen, model.StatusOpen, admin, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := approved(tt.kind, tt.from)
			p, err := PlanTransition(c, string(tt.to), tt.actor)
			if tt.allowed {
				require.NoError(t, err)
				assert.Equal(t, model.FieldStatus, p.Field)
				assert.Equal(t, string(tt.from), p.From)
				assert.Equal(t, string(tt.to), p.To)
				return
			}
			var ite *apperr.IllegalTransitionError
			require.ErrorAs(t, err, &ite)
			assert.Equal(t, string(tt.from), ite.From)
			assert.Equal(t, string(tt.to), ite.To)
			// the contract is never touched by planning
			assert.Equal(t, tt.from, c.Status)
		})
	}
}

func TestPlanTransition_ApprovalGate(t *testing.T) {
	c := &model.Contract{ID: "c1", Kind: model.KindFullCrew, ApprovalStatus: model.ApprovalSubmitted, Status: model.StatusPending}
	_, err := PlanTransition(c, "active", admin)
	var ite *apperr.IllegalTransitionError
	require.ErrorAs(t, err, &ite)
	assert.Equal(t, "contract is not approved", ite.Reason)
}

func TestCheckCoordinatorEdge(t *testing.T) {
	assert.NoError(t, CheckCoordinatorEdge(approved(model.KindOneOff, model.StatusOpen), model.StatusAssigned))
	assert.NoError(t, CheckCoordinatorEdge(approved(model.KindOneOff, model.StatusAssigned), model.StatusCompleted))
	assert.Error(t, CheckCoordinatorEdge(approved(model.KindOneOff, model.StatusOpen), model.StatusReviewing))
	assert.Error(t, CheckCoordinatorEdge(approved(model.KindFullCrew, model.StatusActive), model.StatusAssigned))
}

func TestComputeDerivedStatus(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := approved(model.KindFullCrew, model.StatusActive)
	c.StartDate = start
	c.DurationDays = 180
	end := c.EndDate()

	tests := []struct {
		name string
		now  time.Time
		want model.ContractStatus
	}{
		{"well before end", start.AddDate(0, 1, 0), model.StatusActive},
		{"inside renewal window", end.Add(-10 * 24 * time.Hour), model.StatusRenewalDue},
		{"window boundary", end.Add(-DefaultRenewalWindow), model.StatusRenewalDue},
		{"at end", end, model.StatusExpired},
		{"after end", end.AddDate(0, 2, 0), model.StatusExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeDerivedStatus(c, tt.now, DefaultRenewalWindow))
			assert.Equal(t, model.StatusActive, c.Status)
		})
	}

	t.Run("non-active statuses are untouched", func(t *testing.T) {
		p := approved(model.KindFullCrew, model.StatusPending)
		p.StartDate = start
		p.DurationDays = 1
		assert.Equal(t, model.StatusPending, ComputeDerivedStatus(p, end.AddDate(1, 0, 0), DefaultRenewalWindow))
	})

	t.Run("one-off contracts are never derived", func(t *testing.T) {
		o := approved(model.KindOneOff, model.StatusAssigned)
		o.StartDate = start
		o.DurationDays = 1
		assert.Equal(t, model.StatusAssigned, ComputeDerivedStatus(o, end.AddDate(1, 0, 0), DefaultRenewalWindow))
	})

	t.Run("monotone in time", func(t *testing.T) {
		rank := map[model.ContractStatus]int{model.StatusActive: 0, model.StatusRenewalDue: 1, model.StatusExpired: 2}
		prev := -1
		for d := 0; d <= 200; d += 5 {
			got := rank[ComputeDerivedStatus(c, start.AddDate(0, 0, d), DefaultRenewalWindow)]
			assert.GreaterOrEqual(t, got, prev)
			prev = got
		}
	})
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(approved(model.KindOneOff, model.StatusCompleted)))
	assert.True(t, IsTerminal(approved(model.KindFullCrew, model.StatusExpired)))
	assert.False(t, IsTerminal(approved(model.KindOneOff, model.StatusAssigned)))
	assert.True(t, IsTerminal(&model.Contract{ApprovalStatus: model.ApprovalRejected, Status: model.StatusDraft}))
}
