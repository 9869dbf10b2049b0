package user

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/safesite/service-compliance-core/internal/apperror"
	"github.com/safesite/service-compliance-core/internal/auth"
)

func testAuthCfg() auth.Config {
	return auth.Config{Secret: []byte("test-secret"), TokenTTL: time.Hour}
}

func newMockService(t *testing.T) (*UserService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	svc := NewUserService(sqlx.NewDb(db, "sqlmock"), BcryptHasher{Cost: bcrypt.MinCost}, testAuthCfg())
	return svc, mock
}

func TestRegister_Success(t *testing.T) {
	svc, mock := newMockService(t)
	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(0, 1))

	u, token, err := svc.Register(context.Background(), RegisterInput{
		Email:    "Tech@SafeSite.example",
		Username: "tech1",
		Password: "secret",
	})
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)
	require.Equal(t, "tech@safesite.example", u.Email, "email is normalized to lower case")
	require.NotEmpty(t, u.PasswordHash, "hash must be set")

	uid, err := auth.GetUserIDFromToken(token, testAuthCfg().Secret)
	require.NoError(t, err)
	require.Equal(t, u.ID, uid)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_InvalidEmail(t *testing.T) {
	svc, _ := newMockService(t)

	for _, email := range []string{"", "plain", "a@b", "a b@c.d"} {
		_, _, err := svc.Register(context.Background(), RegisterInput{Email: email, Username: "u", Password: "p"})
		require.Equal(t, apperror.KindValidation, apperror.KindOf(err), "email %q", email)
	}
}

func TestRegister_Duplicate(t *testing.T) {
	svc, mock := newMockService(t)
	mock.ExpectExec("INSERT INTO users").WillReturnError(&pq.Error{Code: "23505"})

	_, _, err := svc.Register(context.Background(), RegisterInput{
		Email:    "tech@safesite.example",
		Username: "tech1",
		Password: "secret",
	})
	require.Equal(t, apperror.KindConflict, apperror.KindOf(err))
}

func userRow(t *testing.T, password string) *sqlmock.Rows {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "email", "username", "password_hash", "first_name", "last_name", "created_at", "updated_at"}).
		AddRow("u1", "tech@safesite.example", "tech1", string(hash), nil, nil, now, now)
}

func TestLogin_Success(t *testing.T) {
	svc, mock := newMockService(t)
	mock.ExpectQuery("FROM users WHERE username").WillReturnRows(userRow(t, "secret"))

	u, token, err := svc.Login(context.Background(), "tech1", "secret")
	require.NoError(t, err)
	require.Equal(t, "u1", u.ID)

	uid, err := auth.GetUserIDFromToken(token, testAuthCfg().Secret)
	require.NoError(t, err)
	require.Equal(t, "u1", uid)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, mock := newMockService(t)
	mock.ExpectQuery("FROM users WHERE username").WillReturnRows(userRow(t, "secret"))

	_, _, err := svc.Login(context.Background(), "tech1", "not-it")
	require.Equal(t, apperror.KindAuthentication, apperror.KindOf(err))
}

func TestLogin_UnknownUser_SameError(t *testing.T) {
	svc, mock := newMockService(t)
	mock.ExpectQuery("FROM users WHERE username").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "username", "password_hash", "first_name", "last_name", "created_at", "updated_at"}))

	_, _, unknownErr := svc.Login(context.Background(), "ghost", "whatever")
	require.Equal(t, apperror.KindAuthentication, apperror.KindOf(unknownErr))

	mock.ExpectQuery("FROM users WHERE username").WillReturnRows(userRow(t, "secret"))
	_, _, wrongErr := svc.Login(context.Background(), "tech1", "not-it")
	require.Equal(t, apperror.MessageOf(unknownErr), apperror.MessageOf(wrongErr),
		"unknown user and wrong password must be indistinguishable")
}
