package credentials

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAddRequest() *AddCredentialsRequest {
	return &AddCredentialsRequest{
		Label:      "front-desk",
		Cookie:     "JSESSIONID=abc123",
		CSRFToken:  "csrf-token-xyz",
		SessionDID: "9917",
		TrUserID:   "452",
	}
}

func TestStoreCreate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("INSERT INTO ecw_credentials").
		WithArgs(pgxmock.AnyArg(), "front-desk", "JSESSIONID=abc123", "csrf-token-xyz", "9917", "452", StatusAuthorized).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	store := NewStore(mock)
	cred, err := store.Create(context.Background(), testAddRequest(), StatusAuthorized)
	require.NoError(t, err)

	assert.NotEmpty(t, cred.ID)
	assert.Equal(t, StatusAuthorized, cred.Status)
	assert.Equal(t, now, cred.CreatedAt)
	assert.True(t, cred.Tokens().Valid())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreGetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New().String()
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT id, label, cookie").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "label", "cookie", "csrf_token", "session_did", "tr_user_id", "status", "created_at", "updated_at",
		}).AddRow(id, "front-desk", "JSESSIONID=abc123", "csrf-token-xyz", "9917", "452", StatusAuthorized, now, now))

	store := NewStore(mock)
	cred, err := store.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, cred.ID)
	assert.Equal(t, "9917", cred.SessionDID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreGetByIDNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New().String()
	mock.ExpectQuery("SELECT id, label, cookie").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "label", "cookie", "csrf_token", "session_did", "tr_user_id", "status", "created_at", "updated_at",
		}))

	store := NewStore(mock)
	_, err = store.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, ErrCredentialNotFound)
}

func TestStoreUpdateStatus(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New().String()
	mock.ExpectExec("UPDATE ecw_credentials").
		WithArgs(id, StatusFailed).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	store := NewStore(mock)
	require.NoError(t, store.UpdateStatus(context.Background(), id, StatusFailed))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreUpdateStatusNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New().String()
	mock.ExpectExec("UPDATE ecw_credentials").
		WithArgs(id, StatusFailed).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	store := NewStore(mock)
	assert.ErrorIs(t, store.UpdateStatus(context.Background(), id, StatusFailed), ErrCredentialNotFound)
}
