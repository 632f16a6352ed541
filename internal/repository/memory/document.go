package memory

import (
	"context"

	"crewops/internal/model"
	"crewops/internal/repository"
)

type DocumentRepository struct {
	s *Store
}

func (r *DocumentRepository) Create(_ context.Context, doc *model.Document) (*model.Document, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored := *doc
	r.s.documents[stored.ID] = stored
	return &stored, nil
}

func (r *DocumentRepository) FindByID(_ context.Context, id string) (*model.Document, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	d, ok := r.s.documents[id]
	if !ok {
		return nil, errNotFound
	}
	return &d, nil
}

func (r *DocumentRepository) LatestByOwnerType(_ context.Context, ownerID string, t model.DocumentType) (*model.Document, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	items := r.filterLocked(repository.DocumentFilter{OwnerID: ownerID, Type: t})
	if len(items) == 0 {
		return nil, errNotFound
	}
	return &items[0], nil
}

func (r *DocumentRepository) LatestPerType(_ context.Context, ownerID string) ([]model.Document, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	seen := make(map[model.DocumentType]bool)
	out := make([]model.Document, 0)
	for _, d := range r.filterLocked(repository.DocumentFilter{OwnerID: ownerID}) {
		if seen[d.Type] {
			continue
		}
		seen[d.Type] = true
		out = append(out, d)
	}
	return out, nil
}

func (r *DocumentRepository) List(_ context.Context, f repository.DocumentFilter, pq repository.PageQuery) (*repository.PageResult[model.Document], error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	items := r.filterLocked(f)
	return &repository.PageResult[model.Document]{Items: page(items, pq), Total: len(items)}, nil
}

func (r *DocumentRepository) UpdateStatus(_ context.Context, id string, review repository.DocumentReview) (*model.Document, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	d, ok := r.s.documents[id]
	if !ok {
		return nil, errNotFound
	}
	if d.Status != model.DocumentPending {
		return nil, repository.ErrStaleStatus
	}
	at := review.VerifiedAt
	d.Status = review.Status
	d.AdminNote = review.AdminNote
	d.VerifiedBy = strPtr(review.VerifiedBy)
	d.VerifiedAt = &at
	r.s.documents[id] = d
	return &d, nil
}

// filterLocked returns matching documents, newest first.
func (r *DocumentRepository) filterLocked(f repository.DocumentFilter) []model.Document {
	out := make([]model.Document, 0)
	for _, d := range r.s.documents {
		if f.OwnerID != "" && d.OwnerID != f.OwnerID {
			continue
		}
		if f.Status != "" && d.Status != f.Status {
			continue
		}
		if f.Type != "" && d.Type != f.Type {
			continue
		}
		out = append(out, d)
	}
	sortDocuments(out)
	return out
}
