package repository

import (
	"context"
	"time"

	"crewops/internal/model"
)

// ContractFilter narrows contract listings. Empty fields match everything.
type ContractFilter struct {
	Kind            model.ContractKind
	Statuses        []model.ContractStatus
	ApprovalStatus  model.ApprovalStatus
	ShipownerID     string
	IncludeArchived bool
}

// Transition is a validated status change to persist. The write only lands
// when the stored value of Field still equals From.
type Transition struct {
	ContractID string
	Field      model.StatusField
	From       string
	To         string
	// NextStatus additionally moves the operational status, observed as
	// NextFrom, when an approval opens a contract.
	NextStatus *model.ContractStatus
	NextFrom   model.ContractStatus
	ActorID    string
	Note       *string
	At         time.Time
}

// ContractRepository persists contracts, their positions and status history.
type ContractRepository interface {
	// Create inserts the contract and its positions atomically.
	Create(ctx context.Context, c *model.Contract) (*model.Contract, error)

	// FindByID returns sql.ErrNoRows when the id is unknown.
	FindByID(ctx context.Context, id string) (*model.Contract, error)

	List(ctx context.Context, f ContractFilter, pq PageQuery) (*PageResult[model.Contract], error)

	// ApplyTransition updates the status and appends history rows in one
	// transaction. It returns ErrStaleStatus when the observed value moved.
	ApplyTransition(ctx context.Context, t Transition) (*model.Contract, error)

	// History returns status changes oldest first.
	History(ctx context.Context, contractID string) ([]model.StatusChange, error)

	// Archive stamps archived_at once; archiving twice returns the stored row.
	Archive(ctx context.Context, id string, at time.Time) (*model.Contract, error)
}
