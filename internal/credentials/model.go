package credentials

import (
	"time"

	"github.com/carebridge/ecw-bridge/internal/ecw"
)

// Credential statuses. A credential is authorized once its tokens have been
// verified against the EMR, and failed once a verification attempt bounced.
const (
	StatusAuthorized = "authorized"
	StatusFailed     = "failed"
)

// Credential is one stored ECW session credential set.
type Credential struct {
	ID         string    `json:"id"`
	Label      string    `json:"label"`
	Cookie     string    `json:"-"`
	CSRFToken  string    `json:"-"`
	SessionDID string    `json:"-"`
	TrUserID   string    `json:"-"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Tokens returns the credential's session material in the client's shape.
func (c *Credential) Tokens() ecw.AuthTokens {
	return ecw.AuthTokens{
		Cookie:     c.Cookie,
		CSRFToken:  c.CSRFToken,
		SessionDID: c.SessionDID,
		TrUserID:   c.TrUserID,
	}
}

// AddCredentialsRequest carries a freshly captured browser session.
type AddCredentialsRequest struct {
	Label      string `json:"label,omitempty"`
	Cookie     string `json:"cookie" validate:"required"`
	CSRFToken  string `json:"csrf_token" validate:"required"`
	SessionDID string `json:"session_did" validate:"required"`
	TrUserID   string `json:"tr_user_id" validate:"required"`
}

// Tokens returns the request's session material in the client's shape.
func (r *AddCredentialsRequest) Tokens() ecw.AuthTokens {
	return ecw.AuthTokens{
		Cookie:     r.Cookie,
		CSRFToken:  r.CSRFToken,
		SessionDID: r.SessionDID,
		TrUserID:   r.TrUserID,
	}
}
