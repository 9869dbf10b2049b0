package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/safesite/service-compliance-core/internal/protocol/entity"
	"github.com/safesite/service-compliance-core/pkg/database"
)

const logColumns = `id, protocol_id, completion_date, note, created_at`

// ComplianceLogRepo provides data access for the compliance_logs table.
type ComplianceLogRepo struct {
	q database.Queryer
}

func NewComplianceLogRepo(q database.Queryer) *ComplianceLogRepo {
	return &ComplianceLogRepo{q: q}
}

func (r *ComplianceLogRepo) Insert(ctx context.Context, l *entity.ComplianceLog) error {
	const q = `INSERT INTO compliance_logs (id, protocol_id, completion_date, note, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.ExecContext(ctx, q, l.ID, l.ProtocolID, l.CompletionDate, l.Note, l.CreatedAt)
	return err
}

// ListByProtocol returns every log for the protocol, most recent completion
// first.
func (r *ComplianceLogRepo) ListByProtocol(ctx context.Context, protocolID string) ([]entity.ComplianceLog, error) {
	const q = `SELECT ` + logColumns + ` FROM compliance_logs WHERE protocol_id = $1 ORDER BY completion_date DESC`
	logs := []entity.ComplianceLog{}
	if err := sqlx.SelectContext(ctx, r.q, &logs, q, protocolID); err != nil {
		return nil, err
	}
	return logs, nil
}

// RecentByProtocol returns at most limit logs, most recent completion first.
func (r *ComplianceLogRepo) RecentByProtocol(ctx context.Context, protocolID string, limit int) ([]entity.ComplianceLog, error) {
	const q = `SELECT ` + logColumns + ` FROM compliance_logs WHERE protocol_id = $1 ORDER BY completion_date DESC LIMIT $2`
	logs := []entity.ComplianceLog{}
	if err := sqlx.SelectContext(ctx, r.q, &logs, q, protocolID, limit); err != nil {
		return nil, err
	}
	return logs, nil
}
