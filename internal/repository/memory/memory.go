// Package memory is an in-process implementation of the repository
// interfaces, used for local runs (REPOSITORY_DRIVER=memory) and tests. One
// mutex guards every table, so each method is linearizable.
package memory

import (
	"database/sql"
	"sort"
	"strings"
	"sync"

	"crewops/internal/model"
	"crewops/internal/repository"
)

// Store holds all tables. Use the accessor methods to obtain repositories.
type Store struct {
	mu          sync.Mutex
	documents   map[string]model.Document
	contracts   map[string]model.Contract
	candidates  map[string]model.Candidate
	assignments map[string]model.Assignment
	history     []model.StatusChange
	historySeq  int64
}

func NewStore() *Store {
	return &Store{
		documents:   make(map[string]model.Document),
		contracts:   make(map[string]model.Contract),
		candidates:  make(map[string]model.Candidate),
		assignments: make(map[string]model.Assignment),
	}
}

func (s *Store) Documents() *DocumentRepository     { return &DocumentRepository{s: s} }
func (s *Store) Contracts() *ContractRepository     { return &ContractRepository{s: s} }
func (s *Store) Candidates() *CandidateRepository   { return &CandidateRepository{s: s} }
func (s *Store) Assignments() *AssignmentRepository { return &AssignmentRepository{s: s} }

var (
	_ repository.DocumentRepository   = (*DocumentRepository)(nil)
	_ repository.ContractRepository   = (*ContractRepository)(nil)
	_ repository.CandidateRepository  = (*CandidateRepository)(nil)
	_ repository.AssignmentRepository = (*AssignmentRepository)(nil)
)

// page slices items by limit/offset. A non-positive limit returns everything
// from offset.
func page[T any](items []T, q repository.PageQuery) []T {
	if q.Offset >= len(items) {
		return []T{}
	}
	items = items[q.Offset:]
	if q.Limit > 0 && q.Limit < len(items) {
		items = items[:q.Limit]
	}
	out := make([]T, len(items))
	copy(out, items)
	return out
}

func (s *Store) appendHistory(changes ...model.StatusChange) {
	for _, c := range changes {
		s.historySeq++
		c.ID = s.historySeq
		s.history = append(s.history, c)
	}
}

func cloneContract(c model.Contract) model.Contract {
	ps := make([]model.Position, len(c.Positions))
	for i, p := range c.Positions {
		p.RequiredCertifications = append([]string(nil), p.RequiredCertifications...)
		ps[i] = p
	}
	c.Positions = ps
	return c
}

func cloneCandidate(c model.Candidate) model.Candidate {
	c.Certifications = append([]string(nil), c.Certifications...)
	return c
}

func strPtr(s string) *string { return &s }

var errNotFound = sql.ErrNoRows

func sortDocuments(items []model.Document) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].UploadedAt.Equal(items[j].UploadedAt) {
			return items[i].UploadedAt.After(items[j].UploadedAt)
		}
		return items[i].ID > items[j].ID
	})
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
