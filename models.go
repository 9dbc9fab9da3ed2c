package accounts

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Account is the persisted account model. Email is unique
// case-insensitively; ResetToken holds the latest outstanding password
// reset token and is empty when no reset is pending.
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:acc"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	ResetToken    string     `bun:"reset_token,default:''" json:"-"`
	EmailVerified bool       `bun:"is_email_verified" json:"is_email_verified,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// NormalizeEmail lowercases and trims an email address so lookups and
// uniqueness behave case-insensitively regardless of dialect.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func prepareAccountDefaults(record *Account) {
	if record == nil {
		return
	}
	record.Email = NormalizeEmail(record.Email)
	record.Name = strings.TrimSpace(record.Name)
}

// RegistrationStatus describes the outcome stages of the account flows.
type RegistrationStatus = string

const (
	// StatusPending means the registration is carried by an activation
	// token and no account row exists yet.
	StatusPending RegistrationStatus = "pending"
	// StatusActivated means the account row has been created.
	StatusActivated RegistrationStatus = "activated"
	// StatusAuthenticated means credentials verified on login.
	StatusAuthenticated RegistrationStatus = "authenticated"
	// StatusPasswordChanged means a reset completed and the stored reset
	// token was cleared.
	StatusPasswordChanged RegistrationStatus = "password-changed"
)
