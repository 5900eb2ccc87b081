package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/erp-document-processor/internal/core/domain"
)

const schemaLockID int64 = 2024112201

// ERPOutboxRepository stages accepted or rejected documents for the ERP loader.
type ERPOutboxRepository struct {
	db *sql.DB
}

func NewERPOutboxRepository(db *sql.DB) *ERPOutboxRepository {
	return &ERPOutboxRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *ERPOutboxRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockID); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS erp_outbox (
	id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	filename TEXT NOT NULL,
	decision TEXT NOT NULL,
	erp_status TEXT NOT NULL,
	document_type TEXT,
	transformed_data JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL,
	loaded_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_erp_outbox_decision ON erp_outbox(decision);
CREATE INDEX IF NOT EXISTS idx_erp_outbox_created_at ON erp_outbox(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// Deliver inserts the dispatch. Redelivered ids are ignored.
func (r *ERPOutboxRepository) Deliver(ctx context.Context, dispatch domain.ERPDispatch) error {
	data := []byte(dispatch.TransformedData)
	if len(data) == 0 {
		data = []byte("{}")
	}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO erp_outbox (
	id, run_id, filename, decision, erp_status, document_type, transformed_data, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO NOTHING
`,
		dispatch.ID, dispatch.RunID, dispatch.Filename, string(dispatch.Decision), string(dispatch.ERPStatus),
		dispatch.DocumentType, data, dispatch.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert erp dispatch: %w", err)
	}
	return nil
}

// CountByDecision reports how many staged dispatches carry each decision.
func (r *ERPOutboxRepository) CountByDecision(ctx context.Context) (map[domain.ERPDecision]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT decision, COUNT(*) FROM erp_outbox GROUP BY decision`)
	if err != nil {
		return nil, fmt.Errorf("count erp dispatches: %w", err)
	}
	defer rows.Close()

	out := make(map[domain.ERPDecision]int)
	for rows.Next() {
		var decision string
		var count int
		if err := rows.Scan(&decision, &count); err != nil {
			return nil, fmt.Errorf("scan erp dispatch count: %w", err)
		}
		out[domain.ERPDecision(decision)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate erp dispatch counts: %w", err)
	}
	return out, nil
}
