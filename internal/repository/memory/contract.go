package memory

import (
	"context"
	"sort"
	"time"

	"crewops/internal/model"
	"crewops/internal/repository"
)

type ContractRepository struct {
	s *Store
}

func (r *ContractRepository) Create(_ context.Context, c *model.Contract) (*model.Contract, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored := cloneContract(*c)
	r.s.contracts[stored.ID] = stored
	out := cloneContract(stored)
	return &out, nil
}

func (r *ContractRepository) FindByID(_ context.Context, id string) (*model.Contract, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.contracts[id]
	if !ok {
		return nil, errNotFound
	}
	out := cloneContract(c)
	return &out, nil
}

func (r *ContractRepository) List(_ context.Context, f repository.ContractFilter, pq repository.PageQuery) (*repository.PageResult[model.Contract], error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	statuses := make(map[model.ContractStatus]bool, len(f.Statuses))
	for _, st := range f.Statuses {
		statuses[st] = true
	}

	items := make([]model.Contract, 0)
	for _, c := range r.s.contracts {
		if f.Kind != "" && c.Kind != f.Kind {
			continue
		}
		if len(statuses) > 0 && !statuses[c.Status] {
			continue
		}
		if f.ApprovalStatus != "" && c.ApprovalStatus != f.ApprovalStatus {
			continue
		}
		if f.ShipownerID != "" && c.ShipownerID != f.ShipownerID {
			continue
		}
		if !f.IncludeArchived && c.ArchivedAt != nil {
			continue
		}
		items = append(items, cloneContract(c))
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID > items[j].ID
	})

	return &repository.PageResult[model.Contract]{Items: page(items, pq), Total: len(items)}, nil
}

func (r *ContractRepository) ApplyTransition(_ context.Context, t repository.Transition) (*model.Contract, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.contracts[t.ContractID]
	if !ok {
		return nil, errNotFound
	}

	changes := []model.StatusChange{{
		ContractID: t.ContractID, Field: t.Field, From: t.From, To: t.To,
		ActorID: t.ActorID, Note: t.Note, ChangedAt: t.At,
	}}
	switch t.Field {
	case model.FieldApproval:
		if string(c.ApprovalStatus) != t.From {
			return nil, repository.ErrStaleStatus
		}
		if t.NextStatus != nil && c.Status != t.NextFrom {
			return nil, repository.ErrStaleStatus
		}
		c.ApprovalStatus = model.ApprovalStatus(t.To)
		if t.NextStatus != nil {
			c.Status = *t.NextStatus
			changes = append(changes, model.StatusChange{
				ContractID: t.ContractID, Field: model.FieldStatus, From: string(t.NextFrom), To: string(*t.NextStatus),
				ActorID: t.ActorID, Note: t.Note, ChangedAt: t.At,
			})
		}
	default:
		if string(c.Status) != t.From {
			return nil, repository.ErrStaleStatus
		}
		c.Status = model.ContractStatus(t.To)
	}

	c.StatusUpdatedAt = t.At
	c.StatusUpdatedBy = strPtr(t.ActorID)
	c.UpdatedAt = t.At
	r.s.contracts[c.ID] = c
	r.s.appendHistory(changes...)

	out := cloneContract(c)
	return &out, nil
}

func (r *ContractRepository) History(_ context.Context, contractID string) ([]model.StatusChange, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]model.StatusChange, 0)
	for _, h := range r.s.history {
		if h.ContractID == contractID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (r *ContractRepository) Archive(_ context.Context, id string, at time.Time) (*model.Contract, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.contracts[id]
	if !ok {
		return nil, errNotFound
	}
	if c.ArchivedAt == nil {
		c.ArchivedAt = &at
		c.UpdatedAt = at
		r.s.contracts[id] = c
	}
	out := cloneContract(c)
	return &out, nil
}
