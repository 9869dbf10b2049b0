package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/safesite/service-compliance-core/internal/hazardzone/entity"
	protoentity "github.com/safesite/service-compliance-core/internal/protocol/entity"
	"github.com/safesite/service-compliance-core/pkg/database"
)

const zoneColumns = `id, name, color, created_at, updated_at`

// ZoneRepo provides data access for the hazard_zones table.
type ZoneRepo struct {
	q database.Queryer
}

func NewZoneRepo(q database.Queryer) *ZoneRepo { return &ZoneRepo{q: q} }

func (r *ZoneRepo) Insert(ctx context.Context, z *entity.HazardZone) error {
	const q = `INSERT INTO hazard_zones (id, name, color, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.ExecContext(ctx, q, z.ID, z.Name, z.Color, z.CreatedAt, z.UpdatedAt)
	return err
}

// List returns all zones, most recently created first.
func (r *ZoneRepo) List(ctx context.Context) ([]entity.HazardZone, error) {
	const q = `SELECT ` + zoneColumns + ` FROM hazard_zones ORDER BY created_at DESC`
	zones := []entity.HazardZone{}
	if err := sqlx.SelectContext(ctx, r.q, &zones, q); err != nil {
		return nil, err
	}
	return zones, nil
}

// GetByID returns the zone or sql.ErrNoRows.
func (r *ZoneRepo) GetByID(ctx context.Context, id string) (*entity.HazardZone, error) {
	const q = `SELECT ` + zoneColumns + ` FROM hazard_zones WHERE id = $1`
	var z entity.HazardZone
	if err := sqlx.GetContext(ctx, r.q, &z, q, id); err != nil {
		return nil, err
	}
	return &z, nil
}

// Update applies a partial update (nil fields keep their value) and returns
// the updated row, or sql.ErrNoRows when the id is absent.
func (r *ZoneRepo) Update(ctx context.Context, id string, name, color *string) (*entity.HazardZone, error) {
	const q = `UPDATE hazard_zones
		SET name = COALESCE($2, name), color = COALESCE($3, color), updated_at = NOW()
		WHERE id = $1
		RETURNING ` + zoneColumns
	var z entity.HazardZone
	if err := sqlx.GetContext(ctx, r.q, &z, q, id, name, color); err != nil {
		return nil, err
	}
	return &z, nil
}

// Delete removes the zone and reports whether a row was deleted. The
// protocol_zones cascade drops its links; protocols themselves are untouched.
func (r *ZoneRepo) Delete(ctx context.Context, id string) (bool, error) {
	const q = `DELETE FROM hazard_zones WHERE id = $1`
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

// ProtocolsByZone returns the protocols currently linked to the zone.
func (r *ZoneRepo) ProtocolsByZone(ctx context.Context, zoneID string) ([]protoentity.Protocol, error) {
	const q = `SELECT p.id, p.user_id, p.name, p.description, p.frequency, p.target_count, p.is_active, p.created_at, p.updated_at
		FROM protocols p
		JOIN protocol_zones pz ON pz.protocol_id = p.id
		WHERE pz.zone_id = $1
		ORDER BY p.created_at DESC`
	protocols := []protoentity.Protocol{}
	if err := sqlx.SelectContext(ctx, r.q, &protocols, q, zoneID); err != nil {
		return nil, err
	}
	return protocols, nil
}
