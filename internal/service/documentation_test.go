package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"crewops/internal/cache"
	"crewops/internal/events"
	"crewops/internal/model"
	"crewops/internal/repository/memory"
	repoMocks "crewops/internal/repository/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeDocumentation(t *testing.T) {
	latest := []model.Document{
		{Type: model.DocumentPassport, Status: model.DocumentApproved},
		{Type: model.DocumentSeamansBook, Status: model.DocumentApproved},
		{Type: model.DocumentSTCWCertificate, Status: model.DocumentPending},
		{Type: model.DocumentVisa, Status: model.DocumentPending},
	}
	st := ComputeDocumentation("sea-1", latest, fixedNow)

	assert.False(t, st.Complete)
	assert.Equal(t, []model.DocumentType{model.DocumentPassport, model.DocumentSeamansBook}, st.ApprovedTypes)
	assert.Equal(t, []model.DocumentType{model.DocumentSTCWCertificate, model.DocumentMedicalCertificate}, st.MissingTypes)
	assert.Equal(t, 2, st.PendingCount)
	assert.Equal(t, fixedNow, st.ComputedAt)

	empty := ComputeDocumentation("sea-2", nil, fixedNow)
	assert.NotNil(t, empty.ApprovedTypes)
	assert.Len(t, empty.MissingTypes, 4)
}

func TestDocumentationTracker_CompletesOnApprovalEvents(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	bus := events.NewBus()
	tracker := NewDocumentationTracker(store.Documents(), cache.NewMemoryCache(), bus, quietLogger())
	verification := NewVerificationService(store.Documents(), nil, bus, quietLogger()).(*verificationService)
	clock := fixedNow
	verification.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	st, err := tracker.Status(ctx, "sea-1")
	require.NoError(t, err)
	assert.False(t, st.Complete)

	for _, typ := range model.RequiredDocumentTypes {
		doc, err := verification.Submit(ctx, SubmitInput{
			OwnerID: "sea-1", Type: typ, FileRef: "documents/sea-1/" + string(typ) + ".pdf",
		})
		require.NoError(t, err)
		_, err = verification.Approve(ctx, doc.ID, "admin-1")
		require.NoError(t, err)
	}

	st, err = tracker.Status(ctx, "sea-1")
	require.NoError(t, err)
	assert.True(t, st.Complete)
	assert.Empty(t, st.MissingTypes)

	// a rejected re-upload supersedes the approved passport
	doc, err := verification.Submit(ctx, SubmitInput{OwnerID: "sea-1", Type: model.DocumentPassport, FileRef: "documents/sea-1/passport-2.pdf"})
	require.NoError(t, err)
	_, err = verification.Reject(ctx, doc.ID, "admin-1", "expired")
	require.NoError(t, err)

	st, err = tracker.Status(ctx, "sea-1")
	require.NoError(t, err)
	assert.False(t, st.Complete)
	assert.Equal(t, []model.DocumentType{model.DocumentPassport}, st.MissingTypes)
}

func TestDocumentationTracker_ServesFromCache(t *testing.T) {
	ctx := context.Background()
	mRepo := new(repoMocks.MockDocumentRepository)
	c := cache.NewMemoryCache()
	tracker := NewDocumentationTracker(mRepo, c, nil, quietLogger())

	mRepo.On("LatestPerType", ctx, "sea-1").Return([]model.Document{}, nil).Once()

	_, err := tracker.Status(ctx, "sea-1")
	require.NoError(t, err)
	_, err = tracker.Status(ctx, "sea-1")
	require.NoError(t, err)
	mRepo.AssertNumberOfCalls(t, "LatestPerType", 1)

	mRepo.On("LatestPerType", ctx, "sea-2").Return(nil, errors.New("db down"))
	_, err = tracker.Status(ctx, "sea-2")
	assert.Error(t, err)
}
