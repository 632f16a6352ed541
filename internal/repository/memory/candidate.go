package memory

import (
	"context"
	"sort"

	"crewops/internal/model"
	"crewops/internal/repository"
)

type CandidateRepository struct {
	s *Store
}

func (r *CandidateRepository) Create(_ context.Context, c *model.Candidate) (*model.Candidate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored := cloneCandidate(*c)
	r.s.candidates[stored.ID] = stored
	out := cloneCandidate(stored)
	return &out, nil
}

func (r *CandidateRepository) FindByID(_ context.Context, id string) (*model.Candidate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.candidates[id]
	if !ok {
		return nil, errNotFound
	}
	out := cloneCandidate(c)
	return &out, nil
}

func (r *CandidateRepository) List(_ context.Context, f repository.CandidateFilter, pq repository.PageQuery) (*repository.PageResult[model.Candidate], error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	items := make([]model.Candidate, 0)
	for _, c := range r.s.candidates {
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		if f.Rank != "" && !equalFold(c.Rank, f.Rank) {
			continue
		}
		items = append(items, cloneCandidate(c))
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].ID < items[j].ID
	})
	return &repository.PageResult[model.Candidate]{Items: page(items, pq), Total: len(items)}, nil
}

func (r *CandidateRepository) ListUnassigned(_ context.Context) ([]model.Candidate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	items := make([]model.Candidate, 0)
	for _, c := range r.s.candidates {
		if c.Assigned() {
			continue
		}
		items = append(items, cloneCandidate(c))
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}
