// Package protocol implements the protocol service: ownership-scoped CRUD
// over protocols, the transactional sync of their hazard-zone links, and
// compliance-log admission.
package protocol

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/safesite/service-compliance-core/internal/apperror"
	zoneentity "github.com/safesite/service-compliance-core/internal/hazardzone/entity"
	"github.com/safesite/service-compliance-core/internal/protocol/entity"
	protorepo "github.com/safesite/service-compliance-core/internal/protocol/repo"
	"github.com/safesite/service-compliance-core/pkg/database"
	"github.com/safesite/service-compliance-core/pkg/utilities"
)

// recentLogLimit caps the compliance logs nested in a protocol detail read.
const recentLogLimit = 10

const maxNoteLength = 500

// ProtocolService orchestrates the protocol store, the zone-link sync, and
// the compliance-log store behind ownership checks. Multi-table writes run
// inside a single transaction so a protocol is never observable with a
// half-written zone set.
type ProtocolService struct {
	db *sqlx.DB
}

func NewProtocolService(db *sqlx.DB) *ProtocolService {
	return &ProtocolService{db: db}
}

func validateProtocolName(name string) error {
	if n := len(name); n < 3 || n > 200 {
		return apperror.Validation("protocol name must be between 3 and 200 characters")
	}
	return nil
}

// CreateInput carries the create payload. ZoneIDs may be empty.
type CreateInput struct {
	Name        string
	Description *string
	Frequency   string
	TargetCount int
	ZoneIDs     []string
}

// Create inserts the protocol and its zone links as one atomic unit and
// returns the protocol with its resolved zone set. Zone ids are resolved
// inside the same transaction, so a stale id rolls the whole create back.
func (s *ProtocolService) Create(ctx context.Context, ownerID string, in CreateInput) (*entity.ProtocolWithZones, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateProtocolName(in.Name); err != nil {
		return nil, err
	}
	if !entity.ValidFrequency(in.Frequency) {
		return nil, apperror.Validation("frequency must be one of DAILY, WEEKLY, MONTHLY, SHIFT_START, SHIFT_END")
	}
	if in.TargetCount == 0 {
		in.TargetCount = 1
	}
	if in.TargetCount < 1 {
		return nil, apperror.Validation("target count must be at least 1")
	}

	now := time.Now().UTC()
	p := &entity.Protocol{
		ID:          utilities.NewKSUID(),
		UserID:      ownerID,
		Name:        in.Name,
		Description: in.Description,
		Frequency:   in.Frequency,
		TargetCount: in.TargetCount,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	zones := []zoneentity.HazardZone{}
	err := database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		repo := protorepo.NewProtocolRepo(tx)
		if err := repo.Insert(ctx, p); err != nil {
			return err
		}
		if len(in.ZoneIDs) == 0 {
			return nil
		}
		if err := repo.InsertZoneLinks(ctx, p.ID, in.ZoneIDs); err != nil {
			return err
		}
		var err error
		zones, err = repo.ZonesByIDs(ctx, in.ZoneIDs)
		return err
	})
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, apperror.Validation("one or more zone ids do not exist")
		}
		return nil, apperror.Internal(err)
	}
	return &entity.ProtocolWithZones{Protocol: *p, Zones: zones}, nil
}

// UpdateInput carries the patch payload. Nil fields are left untouched.
// ZoneIDs is tri-state: nil keeps the current association set, a non-nil
// empty slice clears it, and a non-empty slice replaces it entirely.
type UpdateInput struct {
	Name        *string
	Description *string
	Frequency   *string
	TargetCount *int
	IsActive    *bool
	ZoneIDs     *[]string
}

// Update applies the field update filtered by ownership and, when ZoneIDs is
// present, replaces the zone-link set (delete all, re-insert) in the same
// transaction. A protocol that is absent or owned by someone else yields the
// same not-found outcome.
func (s *ProtocolService) Update(ctx context.Context, ownerID, protocolID string, in UpdateInput) (*entity.ProtocolWithZones, error) {
	if in.Name != nil {
		trimmed := strings.TrimSpace(*in.Name)
		if err := validateProtocolName(trimmed); err != nil {
			return nil, err
		}
		in.Name = &trimmed
	}
	if in.Frequency != nil && !entity.ValidFrequency(*in.Frequency) {
		return nil, apperror.Validation("frequency must be one of DAILY, WEEKLY, MONTHLY, SHIFT_START, SHIFT_END")
	}
	if in.TargetCount != nil && *in.TargetCount < 1 {
		return nil, apperror.Validation("target count must be at least 1")
	}

	var p *entity.Protocol
	zones := []zoneentity.HazardZone{}
	err := database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		repo := protorepo.NewProtocolRepo(tx)
		var err error
		p, err = repo.UpdateForUser(ctx, protocolID, ownerID, protorepo.UpdateFields{
			Name:        in.Name,
			Description: in.Description,
			Frequency:   in.Frequency,
			TargetCount: in.TargetCount,
			IsActive:    in.IsActive,
		})
		if err != nil {
			return err
		}

		if in.ZoneIDs != nil {
			// full replace, not a diff: drop the set, re-insert exactly
			// what was submitted
			if err := repo.DeleteZoneLinks(ctx, protocolID); err != nil {
				return err
			}
			if len(*in.ZoneIDs) == 0 {
				return nil
			}
			if err := repo.InsertZoneLinks(ctx, protocolID, *in.ZoneIDs); err != nil {
				return err
			}
			zones, err = repo.ZonesByIDs(ctx, *in.ZoneIDs)
			return err
		}

		zones, err = repo.ZonesByProtocol(ctx, protocolID)
		return err
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("protocol not found")
		}
		if database.IsForeignKeyViolation(err) {
			return nil, apperror.Validation("one or more zone ids do not exist")
		}
		return nil, apperror.Internal(err)
	}
	return &entity.ProtocolWithZones{Protocol: *p, Zones: zones}, nil
}

// Delete verifies ownership, then removes the protocol. The schema cascade
// drops its zone links and compliance logs with it.
func (s *ProtocolService) Delete(ctx context.Context, ownerID, protocolID string) error {
	repo := protorepo.NewProtocolRepo(s.db)
	ok, err := repo.ExistsForUser(ctx, protocolID, ownerID)
	if err != nil {
		return apperror.Internal(err)
	}
	if !ok {
		return apperror.NotFound("protocol not found")
	}
	if _, err := repo.Delete(ctx, protocolID); err != nil {
		return apperror.Internal(err)
	}
	return nil
}

// GetByID returns the owned protocol with its zone set and the most recent
// compliance logs.
func (s *ProtocolService) GetByID(ctx context.Context, ownerID, protocolID string) (*entity.ProtocolDetail, error) {
	repo := protorepo.NewProtocolRepo(s.db)
	p, err := repo.GetForUser(ctx, protocolID, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("protocol not found")
		}
		return nil, apperror.Internal(err)
	}
	zones, err := repo.ZonesByProtocol(ctx, protocolID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	logs, err := protorepo.NewComplianceLogRepo(s.db).RecentByProtocol(ctx, protocolID, recentLogLimit)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &entity.ProtocolDetail{Protocol: *p, Zones: zones, ComplianceLogs: logs}, nil
}

// List returns every protocol owned by ownerID with its resolved zone set,
// newest first.
func (s *ProtocolService) List(ctx context.Context, ownerID string) ([]entity.ProtocolWithZones, error) {
	repo := protorepo.NewProtocolRepo(s.db)
	protocols, err := repo.ListByUser(ctx, ownerID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	out := make([]entity.ProtocolWithZones, 0, len(protocols))
	if len(protocols) == 0 {
		return out, nil
	}

	ids := make([]string, len(protocols))
	for i, p := range protocols {
		ids[i] = p.ID
	}
	zonesByProtocol, err := repo.ZonesByProtocolIDs(ctx, ids)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	for _, p := range protocols {
		zones := zonesByProtocol[p.ID]
		if zones == nil {
			zones = []zoneentity.HazardZone{}
		}
		out = append(out, entity.ProtocolWithZones{Protocol: p, Zones: zones})
	}
	return out, nil
}

// LogInput carries the compliance-log payload.
type LogInput struct {
	CompletionDate *time.Time
	Note           *string
}

// CreateLog admits a compliance log after re-checking that the protocol is
// visible to ownerID. The completion date defaults to now and must not lie
// in the future.
func (s *ProtocolService) CreateLog(ctx context.Context, ownerID, protocolID string, in LogInput) (*entity.ComplianceLog, error) {
	ok, err := protorepo.NewProtocolRepo(s.db).ExistsForUser(ctx, protocolID, ownerID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if !ok {
		return nil, apperror.NotFound("protocol not found")
	}

	now := time.Now().UTC()
	completion := now
	if in.CompletionDate != nil {
		completion = in.CompletionDate.UTC()
	}
	if completion.After(now) {
		return nil, apperror.Validation("cannot log future compliance checks")
	}
	if in.Note != nil && len(*in.Note) > maxNoteLength {
		return nil, apperror.Validation("note must be 500 characters or fewer")
	}

	l := &entity.ComplianceLog{
		ID:             utilities.NewKSUID(),
		ProtocolID:     protocolID,
		CompletionDate: completion,
		Note:           in.Note,
		CreatedAt:      now,
	}
	if err := protorepo.NewComplianceLogRepo(s.db).Insert(ctx, l); err != nil {
		return nil, apperror.Internal(err)
	}
	return l, nil
}

// ListLogs returns the protocol's logs newest first, after the same
// ownership re-check as CreateLog. A protocol without logs yields an empty
// list, not an error.
func (s *ProtocolService) ListLogs(ctx context.Context, ownerID, protocolID string) ([]entity.ComplianceLog, error) {
	ok, err := protorepo.NewProtocolRepo(s.db).ExistsForUser(ctx, protocolID, ownerID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if !ok {
		return nil, apperror.NotFound("protocol not found")
	}
	logs, err := protorepo.NewComplianceLogRepo(s.db).ListByProtocol(ctx, protocolID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return logs, nil
}
