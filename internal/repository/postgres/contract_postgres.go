package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"crewops/internal/model"
	"crewops/internal/repository"
)

const (
	contractsTable = "contracts"
	positionsTable = "contract_positions"
	historyTable   = "contract_status_history"
)

var contractColumns = []string{
	"id", "contract_number", "kind", "approval_status", "status", "shipowner_id",
	"vessel_name", "vessel_imo_number", "vessel_type", "vessel_flag",
	"operational_zone", "start_date", "duration_days", "joining_port", "disembarkation_port",
	"admin_notes", "assigned_candidate_id", "status_updated_at", "status_updated_by",
	"archived_at", "created_at", "updated_at",
}

var positionColumns = []string{
	"contract_id", "idx", "rank", "quantity", "min_experience_years",
	"nationality_preference", "required_certifications",
}

var historyColumns = []string{"id", "contract_id", "field", "from_status", "to_status", "actor_id", "note", "changed_at"}

type contractRow struct {
	ID                  string               `db:"id"`
	ContractNumber      string               `db:"contract_number"`
	Kind                model.ContractKind   `db:"kind"`
	ApprovalStatus      model.ApprovalStatus `db:"approval_status"`
	Status              model.ContractStatus `db:"status"`
	ShipownerID         string               `db:"shipowner_id"`
	VesselName          string               `db:"vessel_name"`
	VesselIMONumber     string               `db:"vessel_imo_number"`
	VesselType          string               `db:"vessel_type"`
	VesselFlag          string               `db:"vessel_flag"`
	OperationalZone     string               `db:"operational_zone"`
	StartDate           time.Time            `db:"start_date"`
	DurationDays        int                  `db:"duration_days"`
	JoiningPort         string               `db:"joining_port"`
	DisembarkationPort  string               `db:"disembarkation_port"`
	AdminNotes          *string              `db:"admin_notes"`
	AssignedCandidateID *string              `db:"assigned_candidate_id"`
	StatusUpdatedAt     time.Time            `db:"status_updated_at"`
	StatusUpdatedBy     *string              `db:"status_updated_by"`
	ArchivedAt          *time.Time           `db:"archived_at"`
	CreatedAt           time.Time            `db:"created_at"`
	UpdatedAt           time.Time            `db:"updated_at"`
}

func (r contractRow) toModel() model.Contract {
	return model.Contract{
		ID:             r.ID,
		ContractNumber: r.ContractNumber,
		Kind:           r.Kind,
		ApprovalStatus: r.ApprovalStatus,
		Status:         r.Status,
		ShipownerID:    r.ShipownerID,
		Vessel: model.Vessel{
			Name:      r.VesselName,
			IMONumber: r.VesselIMONumber,
			Type:      r.VesselType,
			Flag:      r.VesselFlag,
		},
		OperationalZone:     r.OperationalZone,
		StartDate:           r.StartDate,
		DurationDays:        r.DurationDays,
		JoiningPort:         r.JoiningPort,
		DisembarkationPort:  r.DisembarkationPort,
		Positions:           []model.Position{},
		AdminNotes:          r.AdminNotes,
		AssignedCandidateID: r.AssignedCandidateID,
		StatusUpdatedAt:     r.StatusUpdatedAt,
		StatusUpdatedBy:     r.StatusUpdatedBy,
		ArchivedAt:          r.ArchivedAt,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
}

type positionRow struct {
	ContractID             string         `db:"contract_id"`
	Idx                    int            `db:"idx"`
	Rank                   string         `db:"rank"`
	Quantity               int            `db:"quantity"`
	MinExperienceYears     float64        `db:"min_experience_years"`
	NationalityPreference  string         `db:"nationality_preference"`
	RequiredCertifications pq.StringArray `db:"required_certifications"`
}

// ContractPostgres is a PostgreSQL implementation of repository.ContractRepository.
type ContractPostgres struct {
	db *sql.DB
}

func NewContractPostgres(db *sql.DB) *ContractPostgres {
	return &ContractPostgres{db: db}
}

var _ repository.ContractRepository = (*ContractPostgres)(nil)

// Create inserts the contract row and its positions in one transaction.
func (r *ContractPostgres) Create(ctx context.Context, c *model.Contract) (*model.Contract, error) {
	var out *model.Contract
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		b := psql().Insert(contractsTable).
			Columns(contractColumns...).
			Values(
				c.ID, c.ContractNumber, c.Kind, c.ApprovalStatus, c.Status, c.ShipownerID,
				c.Vessel.Name, c.Vessel.IMONumber, c.Vessel.Type, c.Vessel.Flag,
				c.OperationalZone, c.StartDate, c.DurationDays, c.JoiningPort, c.DisembarkationPort,
				c.AdminNotes, c.AssignedCandidateID, c.StatusUpdatedAt, c.StatusUpdatedBy,
				c.ArchivedAt, c.CreatedAt, c.UpdatedAt,
			)
		if _, err := exec(ctx, tx, b); err != nil {
			return fmt.Errorf("insert contract: %w", err)
		}

		pb := psql().Insert(positionsTable).Columns(positionColumns...)
		for i, p := range c.Positions {
			certs := p.RequiredCertifications
			if certs == nil {
				certs = pq.StringArray{}
			}
			pb = pb.Values(c.ID, i, p.Rank, p.Quantity, p.MinExperienceYears, p.NationalityPreference, certs)
		}
		if _, err := exec(ctx, tx, pb); err != nil {
			return fmt.Errorf("insert positions: %w", err)
		}

		var err error
		out, err = findContract(ctx, tx, c.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FindByID returns the contract with its positions.
func (r *ContractPostgres) FindByID(ctx context.Context, id string) (*model.Contract, error) {
	if !validID(id) {
		return nil, sql.ErrNoRows
	}
	return findContract(ctx, r.db, id)
}

// List returns a page of contracts, newest first.
func (r *ContractPostgres) List(ctx context.Context, f repository.ContractFilter, page repository.PageQuery) (*repository.PageResult[model.Contract], error) {
	where := sq.And{}
	if f.Kind != "" {
		where = append(where, sq.Eq{"kind": f.Kind})
	}
	if len(f.Statuses) > 0 {
		where = append(where, sq.Eq{"status": f.Statuses})
	}
	if f.ApprovalStatus != "" {
		where = append(where, sq.Eq{"approval_status": f.ApprovalStatus})
	}
	if f.ShipownerID != "" {
		where = append(where, sq.Eq{"shipowner_id": f.ShipownerID})
	}
	if !f.IncludeArchived {
		where = append(where, sq.Eq{"archived_at": nil})
	}

	total, err := count(ctx, r.db, psql().Select("COUNT(*)").From(contractsTable).Where(where))
	if err != nil {
		return nil, fmt.Errorf("count contracts: %w", err)
	}

	b := psql().Select(contractColumns...).From(contractsTable).
		Where(where).
		OrderBy("created_at DESC", "id DESC")
	if page.Limit > 0 {
		b = b.Limit(uint64(page.Limit)).Offset(uint64(page.Offset))
	}

	rows := make([]contractRow, 0)
	if err := selectAll(ctx, r.db, &rows, b); err != nil {
		return nil, fmt.Errorf("list contracts: %w", err)
	}

	items, err := attachPositions(ctx, r.db, rows)
	if err != nil {
		return nil, err
	}
	return &repository.PageResult[model.Contract]{Items: items, Total: total}, nil
}

// ApplyTransition performs the conditional status update and appends the
// audit rows in one transaction.
func (r *ContractPostgres) ApplyTransition(ctx context.Context, t repository.Transition) (*model.Contract, error) {
	if !validID(t.ContractID) {
		return nil, sql.ErrNoRows
	}
	column := "status"
	if t.Field == model.FieldApproval {
		column = "approval_status"
	}

	var out *model.Contract
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		where := sq.Eq{"id": t.ContractID, column: t.From}
		b := psql().Update(contractsTable).
			Set(column, t.To).
			Set("status_updated_at", t.At).
			Set("status_updated_by", t.ActorID).
			Set("updated_at", t.At)
		if t.NextStatus != nil {
			b = b.Set("status", *t.NextStatus)
			where["status"] = t.NextFrom
		}
		b = b.Where(where)

		n, err := exec(ctx, tx, b)
		if err != nil {
			return fmt.Errorf("update contract status: %w", err)
		}
		if n == 0 {
			found, err := exists(ctx, tx, contractsTable, t.ContractID)
			if err != nil {
				return fmt.Errorf("check contract: %w", err)
			}
			if !found {
				return sql.ErrNoRows
			}
			return repository.ErrStaleStatus
		}

		changes := []model.StatusChange{{
			ContractID: t.ContractID, Field: t.Field, From: t.From, To: t.To,
			ActorID: t.ActorID, Note: t.Note, ChangedAt: t.At,
		}}
		if t.NextStatus != nil {
			changes = append(changes, model.StatusChange{
				ContractID: t.ContractID, Field: model.FieldStatus, From: string(t.NextFrom), To: string(*t.NextStatus),
				ActorID: t.ActorID, Note: t.Note, ChangedAt: t.At,
			})
		}
		if err := insertHistory(ctx, tx, changes...); err != nil {
			return err
		}

		out, err = findContract(ctx, tx, t.ContractID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// History returns the audit trail of a contract, oldest first.
func (r *ContractPostgres) History(ctx context.Context, contractID string) ([]model.StatusChange, error) {
	if !validID(contractID) {
		return nil, sql.ErrNoRows
	}
	b := psql().Select(historyColumns...).From(historyTable).
		Where(sq.Eq{"contract_id": contractID}).
		OrderBy("id ASC")

	items := make([]model.StatusChange, 0)
	if err := selectAll(ctx, r.db, &items, b); err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return items, nil
}

// Archive sets archived_at once and returns the stored contract.
func (r *ContractPostgres) Archive(ctx context.Context, id string, at time.Time) (*model.Contract, error) {
	if !validID(id) {
		return nil, sql.ErrNoRows
	}
	b := psql().Update(contractsTable).
		Set("archived_at", sq.Expr("COALESCE(archived_at, ?)", at)).
		Set("updated_at", at).
		Where(sq.Eq{"id": id})

	n, err := exec(ctx, r.db, b)
	if err != nil {
		return nil, fmt.Errorf("archive contract: %w", err)
	}
	if n == 0 {
		return nil, sql.ErrNoRows
	}
	return findContract(ctx, r.db, id)
}

func findContract(ctx context.Context, q querier, id string) (*model.Contract, error) {
	var row contractRow
	if err := getOne(ctx, q, &row, psql().Select(contractColumns...).From(contractsTable).Where(sq.Eq{"id": id})); err != nil {
		return nil, err
	}
	items, err := attachPositions(ctx, q, []contractRow{row})
	if err != nil {
		return nil, err
	}
	return &items[0], nil
}

func attachPositions(ctx context.Context, q querier, rows []contractRow) ([]model.Contract, error) {
	items := make([]model.Contract, 0, len(rows))
	if len(rows) == 0 {
		return items, nil
	}

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}

	b := psql().Select(positionColumns...).From(positionsTable).
		Where(sq.Eq{"contract_id": ids}).
		OrderBy("contract_id", "idx")

	positions := make([]positionRow, 0)
	if err := selectAll(ctx, q, &positions, b); err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}

	byContract := make(map[string][]model.Position, len(rows))
	for _, p := range positions {
		byContract[p.ContractID] = append(byContract[p.ContractID], model.Position{
			Rank:                   p.Rank,
			Quantity:               p.Quantity,
			MinExperienceYears:     p.MinExperienceYears,
			NationalityPreference:  p.NationalityPreference,
			RequiredCertifications: p.RequiredCertifications,
		})
	}

	for _, r := range rows {
		c := r.toModel()
		if ps, ok := byContract[r.ID]; ok {
			c.Positions = ps
		}
		items = append(items, c)
	}
	return items, nil
}

func insertHistory(ctx context.Context, q querier, changes ...model.StatusChange) error {
	if len(changes) == 0 {
		return nil
	}
	b := psql().Insert(historyTable).
		Columns("contract_id", "field", "from_status", "to_status", "actor_id", "note", "changed_at")
	for _, c := range changes {
		b = b.Values(c.ContractID, c.Field, c.From, c.To, c.ActorID, c.Note, c.ChangedAt)
	}
	if _, err := exec(ctx, q, b); err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

// lockContract reads the contract's status columns under a row lock.
func lockContract(ctx context.Context, q querier, id string) (contractState, error) {
	var s contractState
	err := q.QueryRowContext(ctx,
		`SELECT kind, approval_status, status FROM `+contractsTable+` WHERE id = $1 FOR UPDATE`, id).
		Scan(&s.Kind, &s.Approval, &s.Status)
	return s, err
}

type contractState struct {
	Kind     model.ContractKind
	Approval model.ApprovalStatus
	Status   model.ContractStatus
}
