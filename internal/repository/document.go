package repository

import (
	"context"
	"time"

	"crewops/internal/model"
)

// DocumentFilter narrows document listings. Empty fields match everything.
type DocumentFilter struct {
	OwnerID string
	Status  model.DocumentStatus
	Type    model.DocumentType
}

// DocumentReview is the admin decision written by UpdateStatus.
type DocumentReview struct {
	Status     model.DocumentStatus
	AdminNote  *string
	VerifiedBy string
	VerifiedAt time.Time
}

// DocumentRepository persists document metadata. Documents are never
// deleted, only superseded by a newer upload.
type DocumentRepository interface {
	// Create inserts a new document record and returns the stored row.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns sql.ErrNoRows when the id is unknown.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// LatestByOwnerType returns the most recent upload of one type, or sql.ErrNoRows.
	LatestByOwnerType(ctx context.Context, ownerID string, t model.DocumentType) (*model.Document, error)

	// LatestPerType returns each type's most recent upload for an owner.
	LatestPerType(ctx context.Context, ownerID string) ([]model.Document, error)

	// List returns a paginated list of documents and the total count for the filter.
	List(ctx context.Context, f DocumentFilter, pq PageQuery) (*PageResult[model.Document], error)

	// UpdateStatus applies review only while the document is still pending.
	// It returns ErrStaleStatus when the stored status is no longer pending.
	UpdateStatus(ctx context.Context, id string, review DocumentReview) (*model.Document, error)
}
