package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/safesite/service-compliance-core/internal/auth"
)

var (
	protocolCols = []string{"id", "user_id", "name", "description", "frequency", "target_count", "is_active", "created_at", "updated_at"}
	zoneCols     = []string{"id", "name", "color", "created_at", "updated_at"}
)

func newTestRouter(t *testing.T) (http.Handler, sqlmock.Sqlmock, auth.Config) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	cfg := auth.Config{Secret: []byte("router-test-secret"), TokenTTL: time.Hour}
	handler := RegisterRoutes(zap.NewNop().Sugar(), sqlx.NewDb(db, "sqlmock"), cfg)
	return handler, mock, cfg
}

func bearer(t *testing.T, cfg auth.Config, userID string) string {
	t.Helper()
	tok, err := auth.GenerateToken(userID, cfg.Secret, cfg.TokenTTL)
	require.NoError(t, err)
	return "Bearer " + tok
}

func TestHealth(t *testing.T) {
	handler, _, _ := newTestRouter(t)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	handler, _, _ := newTestRouter(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/protocols"},
		{http.MethodPost, "/protocols"},
		{http.MethodGet, "/hazard-zones"},
		{http.MethodDelete, "/hazard-zones/z1"},
		{http.MethodPost, "/protocols/p1/compliance-logs"},
	} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(route.method, route.path, nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", route.method, route.path)
	}
}

func TestCreateProtocol_201WithZones(t *testing.T) {
	handler, mock, cfg := newTestRouter(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO protocols").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO protocol_zones").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("FROM hazard_zones WHERE id = ANY").
		WillReturnRows(sqlmock.NewRows(zoneCols).AddRow("z1", "High Voltage Area", "#dc2626", now, now))
	mock.ExpectCommit()

	body := `{"name":"Daily Safety Check","frequency":"DAILY","targetCount":1,"zoneIds":["z1"]}`
	req := httptest.NewRequest(http.MethodPost, "/protocols", strings.NewReader(body))
	req.Header.Set("Authorization", bearer(t, cfg, "u1"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Contains(t, rec.Body.String(), `"zones"`)
	require.Contains(t, rec.Body.String(), `"z1"`)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPatchProtocol_NotOwned404(t *testing.T) {
	handler, mock, cfg := newTestRouter(t)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE protocols").WillReturnRows(sqlmock.NewRows(protocolCols))
	mock.ExpectRollback()

	req := httptest.NewRequest(http.MethodPatch, "/protocols/p1", strings.NewReader(`{"name":"Hijacked Name"}`))
	req.Header.Set("Authorization", bearer(t, cfg, "intruder"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateComplianceLog_FutureDate400(t *testing.T) {
	handler, mock, cfg := newTestRouter(t)

	mock.ExpectQuery("SELECT 1 FROM protocols").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	future := time.Now().Add(7 * 24 * time.Hour).Format(time.RFC3339)
	req := httptest.NewRequest(http.MethodPost, "/protocols/p1/compliance-logs",
		strings.NewReader(`{"completionDate":"`+future+`"}`))
	req.Header.Set("Authorization", bearer(t, cfg, "u1"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "future")
}

func TestCreateHazardZone_Conflict409(t *testing.T) {
	handler, mock, cfg := newTestRouter(t)

	mock.ExpectExec("INSERT INTO hazard_zones").WillReturnError(&pq.Error{Code: "23505"})

	req := httptest.NewRequest(http.MethodPost, "/hazard-zones",
		strings.NewReader(`{"name":"High Voltage Area"}`))
	req.Header.Set("Authorization", bearer(t, cfg, "u1"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateHazardZone_BadColor400(t *testing.T) {
	handler, _, cfg := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/hazard-zones",
		strings.NewReader(`{"name":"Chemical Storage","color":"yellow"}`))
	req.Header.Set("Authorization", bearer(t, cfg, "u1"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListProtocols_EmptyArrayBody(t *testing.T) {
	handler, mock, cfg := newTestRouter(t)

	mock.ExpectQuery("FROM protocols WHERE user_id").WillReturnRows(sqlmock.NewRows(protocolCols))

	req := httptest.NewRequest(http.MethodGet, "/protocols", nil)
	req.Header.Set("Authorization", bearer(t, cfg, "u1"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "[]\n", rec.Body.String())
}

func TestRegister_OpenRoute(t *testing.T) {
	handler, mock, _ := newTestRouter(t)

	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(0, 1))

	body := `{"email":"tech@safesite.example","username":"tech1","password":"secret"}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Contains(t, rec.Body.String(), `"token"`)
	require.NotContains(t, rec.Body.String(), "password", "credential hash must never be exposed")
}
