package audit

import (
	"context"
	"database/sql"
	"fmt"
)

const insertEventSQL = `INSERT INTO call_audit_events
	(id, type, room, call_log_id, lead_id, campaign_id, action, message, metadata, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, '')::jsonb, $10)`

// PostgresRepo appends events through database/sql (pgx stdlib driver). INSERT only.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	_, err := r.db.ExecContext(ctx, insertEventSQL,
		e.ID,
		string(e.Type),
		e.Room,
		e.CallLogID,
		e.LeadID,
		e.CampaignID,
		e.Action,
		e.Message,
		e.Metadata,
		e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("audit: insert event: %w", err)
	}
	return nil
}
