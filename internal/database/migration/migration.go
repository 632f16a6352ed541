package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_table_documents",
		SQL: `CREATE TABLE IF NOT EXISTS documents (
  id            UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  owner_id      TEXT        NOT NULL,
  type          TEXT        NOT NULL,
  file_ref      TEXT        NOT NULL UNIQUE,
  filename      TEXT        NOT NULL,
  size          BIGINT      NOT NULL CHECK (size >= 0),
  content_type  TEXT        NOT NULL,
  status        TEXT        NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved', 'rejected')),
  admin_note    TEXT,
  verified_at   TIMESTAMPTZ,
  verified_by   TEXT,
  supersedes_id UUID        REFERENCES documents (id),
  uploaded_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_documents_owner_type",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_owner_type ON documents (owner_id, type, uploaded_at DESC);`,
	},
	{
		Name: "create_index_documents_status",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_status ON documents (status);`,
	},
	{
		Name: "create_table_contracts",
		SQL: `CREATE TABLE IF NOT EXISTS contracts (
  id                    UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  contract_number       TEXT        NOT NULL UNIQUE,
  kind                  TEXT        NOT NULL CHECK (kind IN ('full_crew', 'one_off')),
  approval_status       TEXT        NOT NULL DEFAULT 'submitted',
  status                TEXT        NOT NULL,
  shipowner_id          TEXT        NOT NULL,
  vessel_name           TEXT        NOT NULL,
  vessel_imo_number     TEXT        NOT NULL DEFAULT '',
  vessel_type           TEXT        NOT NULL DEFAULT '',
  vessel_flag           TEXT        NOT NULL DEFAULT '',
  operational_zone      TEXT        NOT NULL DEFAULT '',
  start_date            TIMESTAMPTZ NOT NULL,
  duration_days         INTEGER     NOT NULL CHECK (duration_days >= 1),
  joining_port          TEXT        NOT NULL DEFAULT '',
  disembarkation_port   TEXT        NOT NULL DEFAULT '',
  admin_notes           TEXT,
  assigned_candidate_id UUID,
  status_updated_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
  status_updated_by     TEXT,
  archived_at           TIMESTAMPTZ,
  created_at            TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at            TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_contracts_kind_status",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_contracts_kind_status ON contracts (kind, status);`,
	},
	{
		Name: "create_index_contracts_shipowner",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_contracts_shipowner ON contracts (shipowner_id, created_at DESC);`,
	},
	{
		Name: "create_table_contract_positions",
		SQL: `CREATE TABLE IF NOT EXISTS contract_positions (
  contract_id             UUID             NOT NULL REFERENCES contracts (id),
  idx                     INTEGER          NOT NULL,
  rank                    TEXT             NOT NULL,
  quantity                INTEGER          NOT NULL CHECK (quantity >= 1),
  min_experience_years    DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (min_experience_years >= 0),
  nationality_preference  TEXT             NOT NULL DEFAULT '',
  required_certifications TEXT[]           NOT NULL DEFAULT '{}',
  PRIMARY KEY (contract_id, idx)
);`,
	},
	{
		Name: "create_table_candidates",
		SQL: `CREATE TABLE IF NOT EXISTS candidates (
  id                 UUID             PRIMARY KEY DEFAULT uuid_generate_v4(),
  seafarer_id        TEXT             NOT NULL,
  name               TEXT             NOT NULL,
  rank               TEXT             NOT NULL,
  experience_years   DOUBLE PRECISION NOT NULL DEFAULT 0,
  location           TEXT             NOT NULL DEFAULT '',
  nationality        TEXT             NOT NULL DEFAULT '',
  available_from     TIMESTAMPTZ      NOT NULL,
  available_to       TIMESTAMPTZ,
  certifications     TEXT[]           NOT NULL DEFAULT '{}',
  visa_status        TEXT             NOT NULL DEFAULT 'none',
  status             TEXT             NOT NULL DEFAULT 'available',
  current_assignment UUID             REFERENCES contracts (id),
  created_at         TIMESTAMPTZ      NOT NULL DEFAULT now(),
  updated_at         TIMESTAMPTZ      NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_assignments",
		SQL: `CREATE TABLE IF NOT EXISTS assignments (
  id             UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  contract_id    UUID        NOT NULL REFERENCES contracts (id),
  candidate_id   UUID        NOT NULL REFERENCES candidates (id),
  assigned_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
  assigned_by    TEXT        NOT NULL,
  released_at    TIMESTAMPTZ,
  released_by    TEXT,
  release_reason TEXT CHECK (release_reason IN ('reopen', 'cancel', 'complete'))
);`,
	},
	{
		Name: "create_index_assignments_active_candidate",
		SQL:  `CREATE UNIQUE INDEX IF NOT EXISTS uq_assignments_active_candidate ON assignments (candidate_id) WHERE released_at IS NULL;`,
	},
	{
		Name: "create_index_assignments_active_contract",
		SQL:  `CREATE UNIQUE INDEX IF NOT EXISTS uq_assignments_active_contract ON assignments (contract_id) WHERE released_at IS NULL;`,
	},
	{
		Name: "create_table_contract_status_history",
		SQL: `CREATE TABLE IF NOT EXISTS contract_status_history (
  id          BIGSERIAL   PRIMARY KEY,
  contract_id UUID        NOT NULL REFERENCES contracts (id),
  field       TEXT        NOT NULL CHECK (field IN ('approval', 'status')),
  from_status TEXT        NOT NULL,
  to_status   TEXT        NOT NULL,
  actor_id    TEXT        NOT NULL,
  note        TEXT,
  changed_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_contract_status_history_contract",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_contract_status_history_contract ON contract_status_history (contract_id, id);`,
	},
}

const createMigrationsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
  name       TEXT        PRIMARY KEY,
  applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// Names lists the migration steps in application order.
func Names() []string {
	out := make([]string, 0, len(steps))
	for _, s := range steps {
		out = append(out, s.Name)
	}
	return out
}

// EnsureMigrated applies every step not yet recorded in schema_migrations.
// Each step runs in its own transaction together with its bookkeeping row.
func EnsureMigrated(ctx context.Context, db *sql.DB, log logrus.FieldLogger, dbHost string) error {
	start := time.Now()
	log = log.WithFields(logrus.Fields{"component": "database", "db_host": dbHost})

	log.WithField("event", "db_migration_check").Info("checking schema")

	if _, err := db.ExecContext(ctx, createMigrationsTable); err != nil {
		log.WithError(err).WithFields(logrus.Fields{
			"event":       "db_migration_failed",
			"duration_ms": time.Since(start).Milliseconds(),
		}).Error("failed to create migrations table")
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := appliedSteps(ctx, db)
	if err != nil {
		log.WithError(err).WithField("event", "db_migration_failed").Error("failed to read applied migrations")
		return err
	}

	pending := 0
	for _, step := range steps {
		if applied[step.Name] {
			continue
		}
		pending++

		stepStart := time.Now()
		if err := applyStep(ctx, db, step); err != nil {
			log.WithError(err).WithFields(logrus.Fields{
				"event":            "db_migration_failed",
				"migration_step":   step.Name,
				"duration_ms":      time.Since(start).Milliseconds(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			}).Error("migration step failed")
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		log.WithFields(logrus.Fields{
			"event":            "db_migration_step",
			"migration_step":   step.Name,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		}).Info("migration step applied")
	}

	if pending == 0 {
		log.WithFields(logrus.Fields{
			"event":       "db_migration_skip",
			"duration_ms": time.Since(start).Milliseconds(),
		}).Info("schema up to date, skipping migration")
		return nil
	}

	log.WithFields(logrus.Fields{
		"event":       "db_migration_success",
		"steps":       pending,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("schema migrated")
	return nil
}

func appliedSteps(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, `SELECT name FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("failed to list applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		applied[name] = true
	}
	return applied, rows.Err()
}

func applyStep(ctx context.Context, db *sql.DB, step migrationStep) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, step.SQL); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, step.Name); err != nil {
		return err
	}
	return tx.Commit()
}
