// Package schema defines the data contracts shared across the auth
// subsystem: the stored credential record, the GitHub token, and the user
// profile shapes. Validation is driven by struct tags so that every record
// crossing a storage or network boundary is checked the same way.
package schema

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Token is a GitHub OAuth access token with lifecycle metadata.
// ExpiresAt is nil for tokens that never expire (personal access token
// semantics); GitHub OAuth app tokens only carry an expiry when the app has
// token expiration enabled.
type Token struct {
	AccessToken string     `json:"access_token" validate:"required"`
	TokenType   string     `json:"token_type"   validate:"required,eq=bearer"`
	Scope       string     `json:"scope"`
	CreatedAt   time.Time  `json:"created_at"   validate:"required"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the token is expired at the given instant.
// A token without an expiry never expires.
func (t *Token) Expired(now time.Time) bool {
	if t.ExpiresAt == nil {
		return false
	}
	return !t.ExpiresAt.After(now)
}

// ExpiresWithin reports whether the token expires on or before now+d.
// Always false for non-expiring tokens.
func (t *Token) ExpiresWithin(now time.Time, d time.Duration) bool {
	if t.ExpiresAt == nil {
		return false
	}
	return !t.ExpiresAt.After(now.Add(d))
}

// UserSummary is the reduced profile projection stored inside the
// credential record. Name and Email are nullable on GitHub's side.
type UserSummary struct {
	Login     string  `json:"login"      validate:"required"`
	ID        int64   `json:"id"         validate:"required"`
	AvatarURL string  `json:"avatar_url" validate:"required,url"`
	Name      *string `json:"name"`
	Email     *string `json:"email"      validate:"omitempty,email"`
}

// AuthState is the persisted credential record. It is owned by the
// credential store; everything else reads and writes it through the store.
//
// Invariant: IsAuthenticated implies Token and User are present. The
// invariant is enforced by struct-level validation, not by construction.
type AuthState struct {
	IsAuthenticated bool         `json:"isAuthenticated"`
	Token           *Token       `json:"token,omitempty"`
	User            *UserSummary `json:"user,omitempty"`
	LastValidated   *time.Time   `json:"lastValidated,omitempty"`
}

// Profile is the full authenticated-user response from GET /user, reduced
// to the fields the CLI surfaces. Nullable GitHub fields are pointers.
type Profile struct {
	Login       string     `json:"login"      validate:"required"`
	ID          int64      `json:"id"         validate:"required"`
	NodeID      string     `json:"node_id"`
	AvatarURL   string     `json:"avatar_url" validate:"required,url"`
	HTMLURL     string     `json:"html_url"`
	Type        string     `json:"type"`
	Name        *string    `json:"name"`
	Company     *string    `json:"company"`
	Blog        *string    `json:"blog"`
	Location    *string    `json:"location"`
	Email       *string    `json:"email"`
	Bio         *string    `json:"bio"`
	PublicRepos int        `json:"public_repos"`
	PublicGists int        `json:"public_gists"`
	Followers   int        `json:"followers"`
	Following   int        `json:"following"`
	CreatedAt   *time.Time `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

// Summary reduces the full profile to the projection stored in the
// credential record.
func (p *Profile) Summary() *UserSummary {
	return &UserSummary{
		Login:     p.Login,
		ID:        p.ID,
		AvatarURL: p.AvatarURL,
		Name:      p.Name,
		Email:     p.Email,
	}
}

// CachedProfile is a profile cache entry. An entry is only served while it
// is inside its TTL and its TokenHash matches the hash of the current
// access token.
type CachedProfile struct {
	User      Profile   `json:"user"       validate:"required"`
	Timestamp time.Time `json:"timestamp"  validate:"required"`
	TokenHash string    `json:"token_hash" validate:"required"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterStructValidation(authStateLevel, AuthState{})
}

// authStateLevel enforces the cross-field invariant on AuthState.
func authStateLevel(sl validator.StructLevel) {
	st := sl.Current().Interface().(AuthState)
	if st.IsAuthenticated {
		if st.Token == nil {
			sl.ReportError(st.Token, "Token", "token", "required_if_authenticated", "")
		}
		if st.User == nil {
			sl.ReportError(st.User, "User", "user", "required_if_authenticated", "")
		}
	}
}
