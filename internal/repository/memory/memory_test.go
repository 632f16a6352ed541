package memory

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"crewops/internal/model"
	"crewops/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

var now = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func seedOpening(t *testing.T, s *Store, id string) {
	t.Helper()
	_, err := s.Contracts().Create(context.Background(), &model.Contract{
		ID: id, Kind: model.KindOneOff, ApprovalStatus: model.ApprovalApproved, Status: model.StatusOpen,
		Positions: []model.Position{{Rank: "Bosun", Quantity: 1}}, CreatedAt: now,
	})
	require.NoError(t, err)
}

func seedCandidate(t *testing.T, s *Store, id string) {
	t.Helper()
	_, err := s.Candidates().Create(context.Background(), &model.Candidate{
		ID: id, Name: id, Rank: "Bosun", Status: model.CandidateAvailable, AvailableFrom: now,
	})
	require.NoError(t, err)
}

func TestAssign_ConcurrentClaimsOnOneCandidate(t *testing.T) {
	s := NewStore()
	const openings = 16
	for i := 0; i < openings; i++ {
		seedOpening(t, s, fmt.Sprintf("c-%02d", i))
	}
	seedCandidate(t, s, "cand-1")

	var wins, taken atomic.Int32
	var g errgroup.Group
	for i := 0; i < openings; i++ {
		id := fmt.Sprintf("c-%02d", i)
		g.Go(func() error {
			_, err := s.Assignments().Assign(context.Background(), repository.AssignParams{
				ContractID: id, CandidateID: "cand-1", ActorID: "admin-1", At: now,
			})
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, repository.ErrCandidateTaken):
				taken.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, int32(openings-1), taken.Load())

	cand, err := s.Candidates().FindByID(context.Background(), "cand-1")
	require.NoError(t, err)
	assert.Equal(t, model.CandidateOnContract, cand.Status)

	assigned, err := s.Contracts().List(context.Background(),
		repository.ContractFilter{Statuses: []model.ContractStatus{model.StatusAssigned}}, repository.PageQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, assigned.Total)
	assert.Equal(t, cand.CurrentAssignment, &assigned.Items[0].ID)
}

func TestAssign_ConcurrentClaimsOnOneContract(t *testing.T) {
	s := NewStore()
	seedOpening(t, s, "c-1")
	for i := 0; i < 8; i++ {
		seedCandidate(t, s, fmt.Sprintf("cand-%d", i))
	}

	var wins atomic.Int32
	var g errgroup.Group
	for i := 0; i < 8; i++ {
		id := fmt.Sprintf("cand-%d", i)
		g.Go(func() error {
			_, err := s.Assignments().Assign(context.Background(), repository.AssignParams{
				ContractID: "c-1", CandidateID: id, ActorID: "admin-1", At: now,
			})
			if err == nil {
				wins.Add(1)
				return nil
			}
			if errors.Is(err, repository.ErrContractNotAssignable) {
				return nil
			}
			return err
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int32(1), wins.Load())

	free, err := s.Candidates().ListUnassigned(context.Background())
	require.NoError(t, err)
	assert.Len(t, free, 7)
}

func TestReleaseFreesCandidate(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedOpening(t, s, "c-1")
	seedOpening(t, s, "c-2")
	seedCandidate(t, s, "cand-1")

	_, err := s.Assignments().Assign(ctx, repository.AssignParams{ContractID: "c-1", CandidateID: "cand-1", ActorID: "admin-1", At: now})
	require.NoError(t, err)

	_, err = s.Assignments().Assign(ctx, repository.AssignParams{ContractID: "c-2", CandidateID: "cand-1", ActorID: "admin-1", At: now})
	assert.ErrorIs(t, err, repository.ErrCandidateTaken)

	a, err := s.Assignments().Release(ctx, repository.ReleaseParams{
		ContractID: "c-1", Intent: model.ReleaseReopen, Target: model.StatusOpen, ActorID: "admin-1", At: now,
	})
	require.NoError(t, err)
	assert.False(t, a.Active())

	c, err := s.Contracts().FindByID(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusOpen, c.Status)
	assert.Nil(t, c.AssignedCandidateID)

	_, err = s.Assignments().Assign(ctx, repository.AssignParams{ContractID: "c-2", CandidateID: "cand-1", ActorID: "admin-1", At: now})
	assert.NoError(t, err)

	_, err = s.Assignments().Release(ctx, repository.ReleaseParams{ContractID: "c-1", Intent: model.ReleaseCancel, Target: model.StatusCancelled})
	assert.ErrorIs(t, err, repository.ErrStaleStatus)

	history, err := s.Contracts().History(ctx, "c-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "assigned", history[0].To)
	assert.Equal(t, "open", history[1].To)
	assert.Less(t, history[0].ID, history[1].ID)
}

func TestApplyTransition_ConditionalOnObservedStatus(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedOpening(t, s, "c-1")

	tr := repository.Transition{ContractID: "c-1", Field: model.FieldStatus, From: "open", To: "reviewing", ActorID: "admin-1", At: now}
	_, err := s.Contracts().ApplyTransition(ctx, tr)
	require.NoError(t, err)

	_, err = s.Contracts().ApplyTransition(ctx, tr)
	assert.ErrorIs(t, err, repository.ErrStaleStatus)

	_, err = s.Contracts().ApplyTransition(ctx, repository.Transition{ContractID: "nope", Field: model.FieldStatus})
	assert.True(t, repository.IsNotFound(err))
}

func TestDocuments_LatestPerType(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	docs := []model.Document{
		{ID: "d1", OwnerID: "s1", Type: model.DocumentPassport, Status: model.DocumentRejected, UploadedAt: now.Add(-2 * time.Hour)},
		{ID: "d2", OwnerID: "s1", Type: model.DocumentPassport, Status: model.DocumentPending, UploadedAt: now.Add(-time.Hour)},
		{ID: "d3", OwnerID: "s1", Type: model.DocumentVisa, Status: model.DocumentApproved, UploadedAt: now},
		{ID: "d4", OwnerID: "s2", Type: model.DocumentVisa, Status: model.DocumentApproved, UploadedAt: now},
	}
	for i := range docs {
		_, err := s.Documents().Create(ctx, &docs[i])
		require.NoError(t, err)
	}

	latest, err := s.Documents().LatestPerType(ctx, "s1")
	require.NoError(t, err)
	ids := []string{}
	for _, d := range latest {
		ids = append(ids, d.ID)
	}
	assert.ElementsMatch(t, []string{"d2", "d3"}, ids)

	res, err := s.Documents().List(ctx, repository.DocumentFilter{OwnerID: "s1"}, repository.PageQuery{Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "d2", res.Items[0].ID)
}
