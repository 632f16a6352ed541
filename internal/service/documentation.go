package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"crewops/internal/cache"
	"crewops/internal/events"
	"crewops/internal/model"
	"crewops/internal/repository"
)

// DocumentationTTL bounds how long a cached DocumentationStatus is served.
const DocumentationTTL = 10 * time.Minute

// DocumentationTracker answers whether a seafarer holds every required
// approved document. Results are cached and refreshed on review events.
type DocumentationTracker interface {
	Status(ctx context.Context, seafarerID string) (*model.DocumentationStatus, error)
	// HandleEvent recomputes the owner's status after a review.
	HandleEvent(ctx context.Context, e events.Event) error
}

type documentationTracker struct {
	docs  repository.DocumentRepository
	cache cache.Cache
	log   logrus.FieldLogger
	now   func() time.Time
}

// NewDocumentationTracker subscribes the tracker to bus when bus is non-nil.
func NewDocumentationTracker(docs repository.DocumentRepository, c cache.Cache, bus *events.Bus, log logrus.FieldLogger) DocumentationTracker {
	t := &documentationTracker{docs: docs, cache: c, log: log, now: utcNow}
	if bus != nil {
		bus.Subscribe(events.TypeDocumentStatusChanged, t.HandleEvent)
	}
	return t
}

func documentationKey(seafarerID string) string {
	return "crewops:documentation:" + seafarerID
}

func (t *documentationTracker) Status(ctx context.Context, seafarerID string) (*model.DocumentationStatus, error) {
	var cached model.DocumentationStatus
	hit, err := t.cache.GetJSON(ctx, documentationKey(seafarerID), &cached)
	if err != nil {
		t.log.WithError(err).WithField("seafarer_id", seafarerID).Warn("documentation cache read failed")
	}
	if hit {
		return &cached, nil
	}
	return t.refresh(ctx, seafarerID)
}

func (t *documentationTracker) HandleEvent(ctx context.Context, e events.Event) error {
	if e.Type != events.TypeDocumentStatusChanged || e.OwnerID == "" {
		return nil
	}
	_, err := t.refresh(ctx, e.OwnerID)
	return err
}

func (t *documentationTracker) refresh(ctx context.Context, seafarerID string) (*model.DocumentationStatus, error) {
	latest, err := t.docs.LatestPerType(ctx, seafarerID)
	if err != nil {
		return nil, fmt.Errorf("latest documents: %w", err)
	}
	st := ComputeDocumentation(seafarerID, latest, t.now())
	if err := t.cache.SetJSON(ctx, documentationKey(seafarerID), st, DocumentationTTL); err != nil {
		t.log.WithError(err).WithField("seafarer_id", seafarerID).Warn("documentation cache write failed")
	}
	return st, nil
}

// ComputeDocumentation summarizes the latest document of each type. Only the
// latest upload counts, so a pending re-upload hides an older approval.
func ComputeDocumentation(seafarerID string, latest []model.Document, at time.Time) *model.DocumentationStatus {
	byType := make(map[model.DocumentType]model.Document, len(latest))
	for _, d := range latest {
		byType[d.Type] = d
	}

	st := &model.DocumentationStatus{
		SeafarerID:    seafarerID,
		ApprovedTypes: []model.DocumentType{},
		MissingTypes:  []model.DocumentType{},
		ComputedAt:    at,
	}
	for _, d := range latest {
		if d.Status == model.DocumentPending {
			st.PendingCount++
		}
	}
	for _, t := range model.RequiredDocumentTypes {
		if d, ok := byType[t]; ok && d.Status == model.DocumentApproved {
			st.ApprovedTypes = append(st.ApprovedTypes, t)
			continue
		}
		st.MissingTypes = append(st.MissingTypes, t)
	}
	st.Complete = len(st.MissingTypes) == 0
	return st
}
