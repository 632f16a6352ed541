package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"crewops/internal/model"
	"crewops/internal/repository"
)

const candidatesTable = "candidates"

var candidateColumns = []string{
	"id", "seafarer_id", "name", "rank", "experience_years", "location", "nationality",
	"available_from", "available_to", "certifications", "visa_status", "status",
	"current_assignment", "created_at", "updated_at",
}

// CandidatePostgres is a PostgreSQL implementation of repository.CandidateRepository.
type CandidatePostgres struct {
	db *sql.DB
}

func NewCandidatePostgres(db *sql.DB) *CandidatePostgres {
	return &CandidatePostgres{db: db}
}

var _ repository.CandidateRepository = (*CandidatePostgres)(nil)

func (r *CandidatePostgres) Create(ctx context.Context, c *model.Candidate) (*model.Candidate, error) {
	certs := c.Certifications
	if certs == nil {
		certs = pq.StringArray{}
	}
	b := psql().Insert(candidatesTable).
		Columns(candidateColumns...).
		Values(
			c.ID, c.SeafarerID, c.Name, c.Rank, c.ExperienceYears, c.Location, c.Nationality,
			c.AvailableFrom, c.AvailableTo, certs, c.VisaStatus, c.Status,
			c.CurrentAssignment, c.CreatedAt, c.UpdatedAt,
		).
		Suffix("RETURNING " + strings.Join(candidateColumns, ", "))

	var out model.Candidate
	if err := getOne(ctx, r.db, &out, b); err != nil {
		return nil, fmt.Errorf("insert candidate: %w", err)
	}
	return &out, nil
}

func (r *CandidatePostgres) FindByID(ctx context.Context, id string) (*model.Candidate, error) {
	if !validID(id) {
		return nil, sql.ErrNoRows
	}
	var c model.Candidate
	if err := getOne(ctx, r.db, &c, psql().Select(candidateColumns...).From(candidatesTable).Where(sq.Eq{"id": id})); err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns candidates ordered by name. Rank matches case-insensitively.
func (r *CandidatePostgres) List(ctx context.Context, f repository.CandidateFilter, page repository.PageQuery) (*repository.PageResult[model.Candidate], error) {
	where := sq.And{}
	if f.Status != "" {
		where = append(where, sq.Eq{"status": f.Status})
	}
	if f.Rank != "" {
		where = append(where, sq.Expr("lower(rank) = lower(?)", f.Rank))
	}

	total, err := count(ctx, r.db, psql().Select("COUNT(*)").From(candidatesTable).Where(where))
	if err != nil {
		return nil, fmt.Errorf("count candidates: %w", err)
	}

	b := psql().Select(candidateColumns...).From(candidatesTable).
		Where(where).
		OrderBy("name", "id")
	if page.Limit > 0 {
		b = b.Limit(uint64(page.Limit)).Offset(uint64(page.Offset))
	}

	items := make([]model.Candidate, 0)
	if err := selectAll(ctx, r.db, &items, b); err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	return &repository.PageResult[model.Candidate]{Items: items, Total: total}, nil
}

// ListUnassigned returns the matching pool.
func (r *CandidatePostgres) ListUnassigned(ctx context.Context) ([]model.Candidate, error) {
	b := psql().Select(candidateColumns...).From(candidatesTable).
		Where(sq.Eq{"current_assignment": nil}).
		OrderBy("id")

	items := make([]model.Candidate, 0)
	if err := selectAll(ctx, r.db, &items, b); err != nil {
		return nil, fmt.Errorf("list unassigned candidates: %w", err)
	}
	return items, nil
}
