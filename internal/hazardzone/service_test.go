package hazardzone

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/safesite/service-compliance-core/internal/apperror"
	"github.com/safesite/service-compliance-core/internal/hazardzone/entity"
)

func newMockService(t *testing.T) (*ZoneService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewZoneService(sqlx.NewDb(db, "sqlmock")), mock
}

func strptr(s string) *string { return &s }

func TestCreate_DefaultsColor(t *testing.T) {
	svc, mock := newMockService(t)
	mock.ExpectExec("INSERT INTO hazard_zones").WillReturnResult(sqlmock.NewResult(0, 1))

	z, err := svc.Create(context.Background(), "High Voltage Area", nil)
	require.NoError(t, err)
	require.NotEmpty(t, z.ID)
	require.Equal(t, entity.DefaultColor, z.Color)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_InvalidColor(t *testing.T) {
	svc, _ := newMockService(t)

	for _, color := range []string{"red", "#12345", "#1234567", "16a34a", "#16a34g"} {
		_, err := svc.Create(context.Background(), "Chemical Storage", strptr(color))
		require.Error(t, err)
		require.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	}
}

func TestCreate_NameLength(t *testing.T) {
	svc, _ := newMockService(t)

	_, err := svc.Create(context.Background(), "ab", nil)
	require.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	long := make([]byte, 51)
	for i := range long {
		long[i] = 'x'
	}
	_, err = svc.Create(context.Background(), string(long), nil)
	require.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestCreate_DuplicateNameIsConflict(t *testing.T) {
	svc, mock := newMockService(t)
	mock.ExpectExec("INSERT INTO hazard_zones").WillReturnError(&pq.Error{Code: "23505"})

	_, err := svc.Create(context.Background(), "High Voltage Area", strptr("#dc2626"))
	require.Error(t, err)
	require.Equal(t, apperror.KindConflict, apperror.KindOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_ReturnsZoneAndProtocols(t *testing.T) {
	svc, mock := newMockService(t)
	now := time.Now()
	mock.ExpectQuery("SELECT id, name, color, created_at, updated_at FROM hazard_zones WHERE id").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "color", "created_at", "updated_at"}).
			AddRow("z1", "High Voltage Area", "#dc2626", now, now))
	mock.ExpectQuery("FROM protocols p").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "description", "frequency", "target_count", "is_active", "created_at", "updated_at"}).
			AddRow("p1", "u1", "Voltage Detector Test", nil, "DAILY", 1, true, now, now))

	z, protocols, err := svc.GetByID(context.Background(), "z1")
	require.NoError(t, err)
	require.Equal(t, "High Voltage Area", z.Name)
	require.Len(t, protocols, 1)
	require.Equal(t, "Voltage Detector Test", protocols[0].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_NotFound(t *testing.T) {
	svc, mock := newMockService(t)
	mock.ExpectQuery("FROM hazard_zones WHERE id").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "color", "created_at", "updated_at"}))

	_, _, err := svc.GetByID(context.Background(), "missing")
	require.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestUpdate_NotFound(t *testing.T) {
	svc, mock := newMockService(t)
	mock.ExpectQuery("UPDATE hazard_zones").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "color", "created_at", "updated_at"}))

	_, err := svc.Update(context.Background(), "missing", strptr("New Name"), nil)
	require.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestUpdate_DuplicateNameIsConflict(t *testing.T) {
	svc, mock := newMockService(t)
	mock.ExpectQuery("UPDATE hazard_zones").WillReturnError(&pq.Error{Code: "23505"})

	_, err := svc.Update(context.Background(), "z1", strptr("Taken Name"), nil)
	require.Equal(t, apperror.KindConflict, apperror.KindOf(err))
}

func TestUpdate_PartialReturnsRow(t *testing.T) {
	svc, mock := newMockService(t)
	now := time.Now()
	mock.ExpectQuery("UPDATE hazard_zones").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "color", "created_at", "updated_at"}).
			AddRow("z1", "Chemical Storage", "#eab308", now, now))

	z, err := svc.Update(context.Background(), "z1", nil, strptr("#eab308"))
	require.NoError(t, err)
	require.Equal(t, "#eab308", z.Color)
}

func TestDelete(t *testing.T) {
	svc, mock := newMockService(t)
	mock.ExpectExec("DELETE FROM hazard_zones").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, svc.Delete(context.Background(), "z1"))

	mock.ExpectExec("DELETE FROM hazard_zones").WillReturnResult(sqlmock.NewResult(0, 0))
	err := svc.Delete(context.Background(), "missing")
	require.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestList_Empty(t *testing.T) {
	svc, mock := newMockService(t)
	mock.ExpectQuery("FROM hazard_zones ORDER BY created_at DESC").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "color", "created_at", "updated_at"}))

	zones, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, zones)
}
