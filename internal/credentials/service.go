package credentials

import (
	"context"
	"errors"
	"fmt"

	"github.com/carebridge/ecw-bridge/internal/ecw"
	"github.com/carebridge/ecw-bridge/internal/observability/metrics"
	"github.com/carebridge/ecw-bridge/pkg/logging"
)

// Repository is the persistence surface the service needs.
type Repository interface {
	Create(ctx context.Context, req *AddCredentialsRequest, status string) (*Credential, error)
	GetByID(ctx context.Context, id string) (*Credential, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

// Cache is the token cache surface the service needs.
type Cache interface {
	Save(ctx context.Context, credentialID string, tokens ecw.AuthTokens) error
	Load(ctx context.Context, credentialID string) (ecw.AuthTokens, error)
	Invalidate(ctx context.Context, credentialID string) error
}

// Verifier proves a token set against the EMR, typically by listing
// facilities with it.
type Verifier func(ctx context.Context, tokens ecw.AuthTokens) error

// Service registers and resolves ECW credentials.
type Service struct {
	repo    Repository
	cache   Cache
	verify  Verifier
	logger  *logging.Logger
	metrics *metrics.UpstreamMetrics
}

// NewService wires the credential service.
func NewService(repo Repository, cache Cache, verify Verifier, logger *logging.Logger, m *metrics.UpstreamMetrics) *Service {
	if repo == nil {
		panic("credentials: repository required")
	}
	if verify == nil {
		panic("credentials: verifier required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{repo: repo, cache: cache, verify: verify, logger: logger, metrics: m}
}

// Add verifies the submitted session against the EMR and persists it. A
// failed verification is persisted too, with status failed, and the stored
// record is returned alongside ErrAuthorizationFailed.
func (s *Service) Add(ctx context.Context, req *AddCredentialsRequest) (*Credential, error) {
	if !req.Tokens().Valid() {
		return nil, fmt.Errorf("credentials: incomplete token set")
	}

	if err := s.verify(ctx, req.Tokens()); err != nil {
		s.logger.Warn("credential verification failed", "label", req.Label, "error", err)
		s.metrics.ObserveAuthorization("failed")

		cred, storeErr := s.repo.Create(ctx, req, StatusFailed)
		if storeErr != nil {
			return nil, storeErr
		}
		return cred, ErrAuthorizationFailed
	}

	cred, err := s.repo.Create(ctx, req, StatusAuthorized)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveAuthorization("authorized")
	s.logger.Info("credential registered", "credential_id", cred.ID, "label", cred.Label)

	if s.cache != nil {
		if err := s.cache.Save(ctx, cred.ID, cred.Tokens()); err != nil {
			s.logger.Warn("failed to cache tokens", "credential_id", cred.ID, "error", err)
		}
	}
	return cred, nil
}

// Resolve returns the session tokens for a credential id, from cache when
// possible, falling back to Postgres and re-warming the cache.
func (s *Service) Resolve(ctx context.Context, credentialID string) (ecw.AuthTokens, error) {
	if credentialID == "" {
		return ecw.AuthTokens{}, ErrMissingCredentialID
	}

	if s.cache != nil {
		tokens, err := s.cache.Load(ctx, credentialID)
		if err == nil {
			return tokens, nil
		}
		if !errors.Is(err, ErrCredentialNotFound) {
			s.logger.Warn("token cache lookup failed", "credential_id", credentialID, "error", err)
		}
	}

	cred, err := s.repo.GetByID(ctx, credentialID)
	if err != nil {
		return ecw.AuthTokens{}, err
	}
	if cred.Status != StatusAuthorized {
		return ecw.AuthTokens{}, ErrAuthorizationFailed
	}

	if s.cache != nil {
		if err := s.cache.Save(ctx, cred.ID, cred.Tokens()); err != nil {
			s.logger.Warn("failed to re-warm token cache", "credential_id", cred.ID, "error", err)
		}
	}
	return cred.Tokens(), nil
}

// MarkFailed records that the EMR rejected a credential's session and drops
// it from the cache so later requests fail fast.
func (s *Service) MarkFailed(ctx context.Context, credentialID string) error {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, credentialID); err != nil {
			s.logger.Warn("failed to invalidate token cache", "credential_id", credentialID, "error", err)
		}
	}
	return s.repo.UpdateStatus(ctx, credentialID, StatusFailed)
}
