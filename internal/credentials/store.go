package credentials

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxPool is the slice of pgxpool.Pool the store needs.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists ECW credentials in Postgres.
type Store struct {
	pool PgxPool
}

// NewStore initializes a credential store backed by pgx.
func NewStore(pool PgxPool) *Store {
	if pool == nil {
		panic("credentials: pgx pool required")
	}
	return &Store{pool: pool}
}

// Create inserts a credential record and returns it with generated fields.
func (s *Store) Create(ctx context.Context, req *AddCredentialsRequest, status string) (*Credential, error) {
	id := uuid.New()
	query := `
		INSERT INTO ecw_credentials (id, label, cookie, csrf_token, session_did, tr_user_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`
	var createdAt, updatedAt time.Time
	if err := s.pool.QueryRow(ctx, query,
		id,
		req.Label,
		req.Cookie,
		req.CSRFToken,
		req.SessionDID,
		req.TrUserID,
		status,
	).Scan(&createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("credentials: insert failed: %w", err)
	}

	return &Credential{
		ID:         id.String(),
		Label:      req.Label,
		Cookie:     req.Cookie,
		CSRFToken:  req.CSRFToken,
		SessionDID: req.SessionDID,
		TrUserID:   req.TrUserID,
		Status:     status,
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
	}, nil
}

// GetByID fetches one credential.
func (s *Store) GetByID(ctx context.Context, id string) (*Credential, error) {
	query := `
		SELECT id, label, cookie, csrf_token, session_did, tr_user_id, status, created_at, updated_at
		FROM ecw_credentials
		WHERE id = $1
	`
	row := s.pool.QueryRow(ctx, query, id)
	var cred Credential
	if err := row.Scan(
		&cred.ID,
		&cred.Label,
		&cred.Cookie,
		&cred.CSRFToken,
		&cred.SessionDID,
		&cred.TrUserID,
		&cred.Status,
		&cred.CreatedAt,
		&cred.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCredentialNotFound
		}
		return nil, fmt.Errorf("credentials: select failed: %w", err)
	}
	return &cred, nil
}

// UpdateStatus flips a credential between authorized and failed.
func (s *Store) UpdateStatus(ctx context.Context, id, status string) error {
	query := `
		UPDATE ecw_credentials
		SET status = $2, updated_at = now()
		WHERE id = $1
	`
	tag, err := s.pool.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("credentials: update status failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCredentialNotFound
	}
	return nil
}
