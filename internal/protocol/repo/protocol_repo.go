package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	zoneentity "github.com/safesite/service-compliance-core/internal/hazardzone/entity"
	"github.com/safesite/service-compliance-core/internal/protocol/entity"
	"github.com/safesite/service-compliance-core/pkg/database"
	"github.com/safesite/service-compliance-core/pkg/utilities"
)

const protocolColumns = `id, user_id, name, description, frequency, target_count, is_active, created_at, updated_at`

// ProtocolRepo provides data access for protocols and their zone links.
// Construct it over *sqlx.DB for single reads, or over *sqlx.Tx so the
// multi-table writes stay inside one transaction.
type ProtocolRepo struct {
	q database.Queryer
}

func NewProtocolRepo(q database.Queryer) *ProtocolRepo { return &ProtocolRepo{q: q} }

func (r *ProtocolRepo) Insert(ctx context.Context, p *entity.Protocol) error {
	const q = `INSERT INTO protocols (id, user_id, name, description, frequency, target_count, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.ExecContext(ctx, q,
		p.ID, p.UserID, p.Name, p.Description, p.Frequency, p.TargetCount, p.IsActive, p.CreatedAt, p.UpdatedAt)
	return err
}

// UpdateFields carries the optional field changes for a protocol update.
// Nil fields keep their current value.
type UpdateFields struct {
	Name        *string
	Description *string
	Frequency   *string
	TargetCount *int
	IsActive    *bool
}

// UpdateForUser applies the field update filtered by (id, user_id) and
// returns the updated row. sql.ErrNoRows covers both "absent" and "owned by
// someone else" so neither case is distinguishable to the caller.
func (r *ProtocolRepo) UpdateForUser(ctx context.Context, id, userID string, f UpdateFields) (*entity.Protocol, error) {
	const q = `UPDATE protocols SET
			name = COALESCE($3, name),
			description = COALESCE($4, description),
			frequency = COALESCE($5, frequency),
			target_count = COALESCE($6, target_count),
			is_active = COALESCE($7, is_active),
			updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + protocolColumns
	var p entity.Protocol
	if err := sqlx.GetContext(ctx, r.q, &p, q, id, userID, f.Name, f.Description, f.Frequency, f.TargetCount, f.IsActive); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetForUser returns the protocol scoped by ownership, or sql.ErrNoRows.
func (r *ProtocolRepo) GetForUser(ctx context.Context, id, userID string) (*entity.Protocol, error) {
	const q = `SELECT ` + protocolColumns + ` FROM protocols WHERE id = $1 AND user_id = $2`
	var p entity.Protocol
	if err := sqlx.GetContext(ctx, r.q, &p, q, id, userID); err != nil {
		return nil, err
	}
	return &p, nil
}

// ExistsForUser reports whether the protocol exists and is owned by userID.
func (r *ProtocolRepo) ExistsForUser(ctx context.Context, id, userID string) (bool, error) {
	const q = `SELECT 1 FROM protocols WHERE id = $1 AND user_id = $2`
	var one int
	if err := sqlx.GetContext(ctx, r.q, &one, q, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ListByUser returns all protocols owned by userID, newest first.
func (r *ProtocolRepo) ListByUser(ctx context.Context, userID string) ([]entity.Protocol, error) {
	const q = `SELECT ` + protocolColumns + ` FROM protocols WHERE user_id = $1 ORDER BY created_at DESC`
	protocols := []entity.Protocol{}
	if err := sqlx.SelectContext(ctx, r.q, &protocols, q, userID); err != nil {
		return nil, err
	}
	return protocols, nil
}

// Delete removes the protocol; the schema cascade drops its zone links and
// compliance logs atomically.
func (r *ProtocolRepo) Delete(ctx context.Context, id string) (bool, error) {
	const q = `DELETE FROM protocols WHERE id = $1`
	res, err := r.q.ExecContext(ctx, q, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteZoneLinks drops every protocol_zones row for the protocol.
func (r *ProtocolRepo) DeleteZoneLinks(ctx context.Context, protocolID string) error {
	const q = `DELETE FROM protocol_zones WHERE protocol_id = $1`
	_, err := r.q.ExecContext(ctx, q, protocolID)
	return err
}

// InsertZoneLinks writes one link row per zone id. A zone id that does not
// exist fails the statement with a foreign-key violation, which aborts the
// surrounding transaction.
func (r *ProtocolRepo) InsertZoneLinks(ctx context.Context, protocolID string, zoneIDs []string) error {
	const q = `INSERT INTO protocol_zones (id, protocol_id, zone_id, created_at) VALUES ($1, $2, $3, $4)`
	now := time.Now().UTC()
	for _, zoneID := range zoneIDs {
		if _, err := r.q.ExecContext(ctx, q, utilities.NewKSUID(), protocolID, zoneID, now); err != nil {
			return err
		}
	}
	return nil
}

// ZonesByIDs resolves zone rows for the given ids.
func (r *ProtocolRepo) ZonesByIDs(ctx context.Context, ids []string) ([]zoneentity.HazardZone, error) {
	const q = `SELECT id, name, color, created_at, updated_at FROM hazard_zones WHERE id = ANY($1)`
	zones := []zoneentity.HazardZone{}
	if err := sqlx.SelectContext(ctx, r.q, &zones, q, pq.Array(ids)); err != nil {
		return nil, err
	}
	return zones, nil
}

// ZonesByProtocol returns the zones currently linked to the protocol.
func (r *ProtocolRepo) ZonesByProtocol(ctx context.Context, protocolID string) ([]zoneentity.HazardZone, error) {
	const q = `SELECT z.id, z.name, z.color, z.created_at, z.updated_at
		FROM hazard_zones z
		JOIN protocol_zones pz ON pz.zone_id = z.id
		WHERE pz.protocol_id = $1
		ORDER BY pz.created_at`
	zones := []zoneentity.HazardZone{}
	if err := sqlx.SelectContext(ctx, r.q, &zones, q, protocolID); err != nil {
		return nil, err
	}
	return zones, nil
}

// ZonesByProtocolIDs returns the linked zones for a set of protocols in one
// query, keyed by protocol id.
func (r *ProtocolRepo) ZonesByProtocolIDs(ctx context.Context, protocolIDs []string) (map[string][]zoneentity.HazardZone, error) {
	const q = `SELECT pz.protocol_id, z.id, z.name, z.color, z.created_at, z.updated_at
		FROM hazard_zones z
		JOIN protocol_zones pz ON pz.zone_id = z.id
		WHERE pz.protocol_id = ANY($1)
		ORDER BY pz.created_at`
	var rows []struct {
		ProtocolID string `db:"protocol_id"`
		zoneentity.HazardZone
	}
	if err := sqlx.SelectContext(ctx, r.q, &rows, q, pq.Array(protocolIDs)); err != nil {
		return nil, err
	}
	out := make(map[string][]zoneentity.HazardZone, len(protocolIDs))
	for _, row := range rows {
		out[row.ProtocolID] = append(out[row.ProtocolID], row.HazardZone)
	}
	return out, nil
}
