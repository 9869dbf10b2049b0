// Package hazardzone implements the hazard-zone store: shared, unowned risk
// category tags with race-safe name uniqueness.
package hazardzone

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/safesite/service-compliance-core/internal/apperror"
	"github.com/safesite/service-compliance-core/internal/hazardzone/entity"
	zonerepo "github.com/safesite/service-compliance-core/internal/hazardzone/repo"
	protoentity "github.com/safesite/service-compliance-core/internal/protocol/entity"
	"github.com/safesite/service-compliance-core/pkg/database"
	"github.com/safesite/service-compliance-core/pkg/utilities"
)

var hexColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// ZoneService encapsulates hazard-zone business rules over the repo.
type ZoneService struct {
	repo *zonerepo.ZoneRepo
}

func NewZoneService(db *sqlx.DB) *ZoneService {
	return &ZoneService{repo: zonerepo.NewZoneRepo(db)}
}

func validateName(name string) error {
	if n := len(name); n < 3 || n > 50 {
		return apperror.Validation("zone name must be between 3 and 50 characters")
	}
	return nil
}

func validateColor(color string) error {
	if !hexColorPattern.MatchString(color) {
		return apperror.Validation("invalid color format, use hex code (e.g., #dc2626)")
	}
	return nil
}

// Create inserts a new zone. Color defaults to the low-risk green when
// absent. Duplicate names surface as a conflict via the unique constraint,
// even under concurrent creation.
func (s *ZoneService) Create(ctx context.Context, name string, color *string) (*entity.HazardZone, error) {
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return nil, err
	}
	c := entity.DefaultColor
	if color != nil {
		if err := validateColor(*color); err != nil {
			return nil, err
		}
		c = *color
	}

	now := time.Now().UTC()
	z := &entity.HazardZone{
		ID:        utilities.NewKSUID(),
		Name:      name,
		Color:     c,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, z); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperror.Conflict("hazard zone with this name already exists")
		}
		return nil, apperror.Internal(err)
	}
	return z, nil
}

// List returns all zones, newest first.
func (s *ZoneService) List(ctx context.Context) ([]entity.HazardZone, error) {
	zones, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return zones, nil
}

// GetByID returns the zone plus the protocols currently associated with it.
func (s *ZoneService) GetByID(ctx context.Context, id string) (*entity.HazardZone, []protoentity.Protocol, error) {
	z, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, apperror.NotFound("hazard zone not found")
		}
		return nil, nil, apperror.Internal(err)
	}
	protocols, err := s.repo.ProtocolsByZone(ctx, id)
	if err != nil {
		return nil, nil, apperror.Internal(err)
	}
	return z, protocols, nil
}

// Update applies a partial update with the same validation rules as Create.
func (s *ZoneService) Update(ctx context.Context, id string, name, color *string) (*entity.HazardZone, error) {
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if err := validateName(trimmed); err != nil {
			return nil, err
		}
		name = &trimmed
	}
	if color != nil {
		if err := validateColor(*color); err != nil {
			return nil, err
		}
	}

	z, err := s.repo.Update(ctx, id, name, color)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("hazard zone not found")
		}
		if database.IsUniqueViolation(err) {
			return nil, apperror.Conflict("hazard zone with this name already exists")
		}
		return nil, apperror.Internal(err)
	}
	return z, nil
}

// Delete removes the zone; the schema cascade drops its protocol links.
func (s *ZoneService) Delete(ctx context.Context, id string) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return apperror.Internal(err)
	}
	if !deleted {
		return apperror.NotFound("hazard zone not found")
	}
	return nil
}
