package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"crewops/internal/apperr"
	"crewops/internal/model"
	"crewops/internal/repository"
	"crewops/internal/repository/memory"
	repoMocks "crewops/internal/repository/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newContracts(repo repository.ContractRepository, now *time.Time) *contractService {
	svc := NewContractService(repo, 0, quietLogger()).(*contractService)
	svc.now = func() time.Time { return *now }
	return svc
}

func TestContractService_Create(t *testing.T) {
	ctx := context.Background()
	now := fixedNow
	svc := newContracts(memory.NewStore().Contracts(), &now)

	oneOff, err := svc.Create(ctx, oneOffSpec(now.AddDate(0, 1, 0)), shipowner)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^OO-[0-9A-HJ-NP-Z]{10}$`), oneOff.ContractNumber)
	assert.Equal(t, model.ApprovalSubmitted, oneOff.ApprovalStatus)
	assert.Equal(t, model.StatusDraft, oneOff.Status)
	assert.Equal(t, "owner-1", oneOff.ShipownerID)
	assert.NotEmpty(t, oneOff.ID)

	full, err := svc.Create(ctx, fullCrewSpec(now, 180), shipowner)
	require.NoError(t, err)
	assert.Regexp(t, `^FC-[0-9A-HJ-NP-Z]{10}$`, full.ContractNumber)
	assert.Equal(t, model.StatusPending, full.Status)
	assert.Len(t, full.Positions, 2)
}

func TestContractService_CreateListsEveryViolation(t *testing.T) {
	now := fixedNow
	svc := newContracts(memory.NewStore().Contracts(), &now)

	_, err := svc.Create(context.Background(), model.ContractSpec{
		Kind:      model.KindOneOff,
		Positions: []model.Position{{Quantity: 0, MinExperienceYears: -1}},
	}, shipowner)

	var ve *apperr.ValidationError
	require.ErrorAs(t, err, &ve)
	fields := []string{}
	for _, f := range ve.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{
		"vessel.name", "start_date", "duration_days", "joining_port", "disembarkation_port",
		"positions[0].rank", "positions[0].quantity", "positions[0].min_experience_years",
	}, fields)
}

func TestContractService_OneOffPipeline(t *testing.T) {
	ctx := context.Background()
	now := fixedNow
	store := memory.NewStore()
	svc := newContracts(store.Contracts(), &now)

	c, err := svc.Create(ctx, oneOffSpec(now.AddDate(0, 1, 0)), shipowner)
	require.NoError(t, err)

	_, err = svc.Transition(ctx, c.ID, "open", admin, "")
	var ite *apperr.IllegalTransitionError
	require.ErrorAs(t, err, &ite)
	assert.Equal(t, "contract is not approved", ite.Reason)

	_, err = svc.Transition(ctx, c.ID, "approved", shipowner, "")
	assert.Equal(t, apperr.CodeIllegalTransition, apperr.CodeOf(err))

	approved, err := svc.Transition(ctx, c.ID, "approved", admin, "looks good")
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalApproved, approved.ApprovalStatus)
	assert.Equal(t, model.StatusOpen, approved.Status)

	reviewing, err := svc.MarkReviewing(ctx, c.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, model.StatusReviewing, reviewing.Status)

	again, err := svc.MarkReviewing(ctx, c.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, model.StatusReviewing, again.Status)

	_, err = svc.Transition(ctx, c.ID, "assigned", admin, "")
	require.ErrorAs(t, err, &ite)
	assert.Equal(t, "requires the assignment coordinator", ite.Reason)

	history, err := svc.History(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, model.FieldApproval, history[0].Field)
	assert.Equal(t, "draft", history[1].From)
	assert.Equal(t, "open", history[1].To)
	assert.Equal(t, "reviewing", history[2].To)
	require.NotNil(t, history[0].Note)
	assert.Equal(t, "looks good", *history[0].Note)

	_, err = svc.Archive(ctx, c.ID, admin)
	assert.Equal(t, apperr.CodeInvalidState, apperr.CodeOf(err))

	_, err = svc.Transition(ctx, c.ID, "cancelled", admin, "")
	require.NoError(t, err)
	archived, err := svc.Archive(ctx, c.ID, admin)
	require.NoError(t, err)
	assert.NotNil(t, archived.ArchivedAt)

	listed, err := svc.List(ctx, ContractListQuery{})
	require.NoError(t, err)
	assert.Equal(t, 0, listed.Total)
}

func TestContractService_RejectedIsTerminal(t *testing.T) {
	ctx := context.Background()
	now := fixedNow
	svc := newContracts(memory.NewStore().Contracts(), &now)

	c, err := svc.Create(ctx, fullCrewSpec(now, 90), shipowner)
	require.NoError(t, err)
	_, err = svc.Transition(ctx, c.ID, "rejected", admin, "missing manning plan")
	require.NoError(t, err)

	_, err = svc.Transition(ctx, c.ID, "approved", admin, "")
	assert.Equal(t, apperr.CodeIllegalTransition, apperr.CodeOf(err))
	_, err = svc.Transition(ctx, c.ID, "active", admin, "")
	assert.Equal(t, apperr.CodeIllegalTransition, apperr.CodeOf(err))

	_, err = svc.Archive(ctx, c.ID, admin)
	assert.NoError(t, err)
}

func TestContractService_DerivedStatusAndRefresh(t *testing.T) {
	ctx := context.Background()
	now := fixedNow
	svc := newContracts(memory.NewStore().Contracts(), &now)

	c, err := svc.Create(ctx, fullCrewSpec(now, 40), shipowner)
	require.NoError(t, err)
	_, err = svc.Transition(ctx, c.ID, "approved", admin, "")
	require.NoError(t, err)
	_, err = svc.Transition(ctx, c.ID, "active", admin, "")
	require.NoError(t, err)

	_, err = svc.Transition(ctx, c.ID, "renewal_due", admin, "")
	var ite *apperr.IllegalTransitionError
	require.ErrorAs(t, err, &ite)
	assert.Equal(t, "derived status is computed, not set", ite.Reason)

	now = fixedNow.AddDate(0, 0, 15)
	got, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRenewalDue, got.Status)
	assert.Equal(t, model.StatusActive, got.StoredStatus)

	due, err := svc.List(ctx, ContractListQuery{Status: model.StatusRenewalDue})
	require.NoError(t, err)
	require.Equal(t, 1, due.Total)
	assert.Equal(t, c.ID, due.Items[0].ID)

	n, err := svc.RefreshDerived(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = svc.RefreshDerived(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	now = fixedNow.AddDate(0, 0, 41)
	n, err = svc.RefreshDerived(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err = svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusExpired, got.Status)
	assert.Equal(t, model.StatusExpired, got.StoredStatus)

	history, err := svc.History(ctx, c.ID)
	require.NoError(t, err)
	last := history[len(history)-1]
	assert.Equal(t, model.SystemActor.ID, last.ActorID)
	assert.Equal(t, "renewal_due", last.From)
	assert.Equal(t, "expired", last.To)
}

func TestContractService_LostRaceReportsFreshStatus(t *testing.T) {
	ctx := context.Background()
	now := fixedNow
	mRepo := new(repoMocks.MockContractRepository)
	svc := newContracts(mRepo, &now)

	open := &model.Contract{ID: "c-1", Kind: model.KindOneOff, ApprovalStatus: model.ApprovalApproved, Status: model.StatusOpen}
	cancelled := &model.Contract{ID: "c-1", Kind: model.KindOneOff, ApprovalStatus: model.ApprovalApproved, Status: model.StatusCancelled}

	mRepo.On("FindByID", ctx, "c-1").Return(open, nil).Once()
	mRepo.On("ApplyTransition", ctx, mock.MatchedBy(func(tr repository.Transition) bool {
		return tr.From == "open" && tr.To == "reviewing" && tr.ActorID == "admin-1"
	})).Return(nil, repository.ErrStaleStatus)
	mRepo.On("FindByID", ctx, "c-1").Return(cancelled, nil).Once()

	_, err := svc.Transition(ctx, "c-1", "reviewing", admin, "")
	var ite *apperr.IllegalTransitionError
	require.ErrorAs(t, err, &ite)
	assert.Equal(t, "cancelled", ite.From)
	assert.Equal(t, "reviewing", ite.To)
	mRepo.AssertExpectations(t)
}

func TestContractService_NotFound(t *testing.T) {
	ctx := context.Background()
	now := fixedNow
	svc := newContracts(memory.NewStore().Contracts(), &now)

	_, err := svc.Get(ctx, "missing")
	assert.True(t, apperr.IsNotFound(err))
	_, err = svc.Transition(ctx, "missing", "cancelled", admin, "")
	assert.True(t, apperr.IsNotFound(err))
	_, err = svc.History(ctx, "missing")
	assert.True(t, apperr.IsNotFound(err))
	_, err = svc.Transition(ctx, "missing", " ", admin, "")
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
}
