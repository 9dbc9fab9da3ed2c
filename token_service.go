package accounts

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// TokenPurpose tags signed claims with the flow they authorize.
type TokenPurpose string

const (
	// TokenPurposeActivation authorizes materializing a pending registration.
	TokenPurposeActivation TokenPurpose = "account.activation"
	// TokenPurposeReset authorizes a single password change.
	TokenPurposeReset TokenPurpose = "account.password_reset"
)

// ActivationClaims carry a pending registration. The password travels as
// its bcrypt hash, never as plaintext: activation links move through
// email and logs.
type ActivationClaims struct {
	jwt.RegisteredClaims
	Purpose      TokenPurpose `json:"purpose"`
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"password_hash"`
}

// ResetClaims identify the account a password reset was issued for.
type ResetClaims struct {
	jwt.RegisteredClaims
	Purpose   TokenPurpose `json:"purpose"`
	AccountID string       `json:"account_id"`
}

// TokenService issues and verifies signed, time-limited claim bundles
// for a single purpose. Activation and reset use independent instances
// with independent secrets; a token issued by one must never verify
// against the other, even when a misconfiguration shares the secret,
// which is why the purpose tag is checked on verify as well.
type TokenService struct {
	signingKey []byte
	ttl        time.Duration
	issuer     string
	purpose    TokenPurpose
	logger     Logger
}

// NewTokenService creates a TokenService bound to one purpose.
func NewTokenService(signingKey []byte, ttl time.Duration, issuer string, purpose TokenPurpose, logger Logger) *TokenService {
	if logger == nil {
		logger = defLogger{}
	}
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{
		signingKey: signingKey,
		ttl:        ttl,
		issuer:     issuer,
		purpose:    purpose,
		logger:     logger,
	}
}

// NewActivationTokenService builds the issuer for activation tokens from configuration.
func NewActivationTokenService(cfg Config, logger Logger) *TokenService {
	return NewTokenService(
		[]byte(cfg.GetActivationSecret()),
		cfg.GetActivationTTL(),
		cfg.GetIssuer(),
		TokenPurposeActivation,
		logger,
	)
}

// NewResetTokenService builds the issuer for password reset tokens from configuration.
func NewResetTokenService(cfg Config, logger Logger) *TokenService {
	return NewTokenService(
		[]byte(cfg.GetResetSecret()),
		cfg.GetResetTTL(),
		cfg.GetIssuer(),
		TokenPurposeReset,
		logger,
	)
}

// Purpose returns the purpose this service signs for.
func (ts *TokenService) Purpose() TokenPurpose {
	return ts.purpose
}

// IssueActivation signs a pending registration into an activation token.
func (ts *TokenService) IssueActivation(name, email, passwordHash string) (string, error) {
	if ts.purpose != TokenPurposeActivation {
		return "", errors.New("token service is not configured for activation", errors.CategoryInternal)
	}

	claims := &ActivationClaims{
		RegisteredClaims: ts.registeredClaims(email),
		Purpose:          TokenPurposeActivation,
		Name:             name,
		Email:            email,
		PasswordHash:     passwordHash,
	}

	return ts.signClaims(claims)
}

// IssueReset signs a reset token over the account id.
func (ts *TokenService) IssueReset(accountID uuid.UUID) (string, error) {
	if ts.purpose != TokenPurposeReset {
		return "", errors.New("token service is not configured for password reset", errors.CategoryInternal)
	}

	claims := &ResetClaims{
		RegisteredClaims: ts.registeredClaims(accountID.String()),
		Purpose:          TokenPurposeReset,
		AccountID:        accountID.String(),
	}

	return ts.signClaims(claims)
}

// VerifyActivation checks signature, expiry, and purpose, returning the
// pending registration claims. Failures never partially trust the token.
func (ts *TokenService) VerifyActivation(tokenString string) (*ActivationClaims, error) {
	claims := &ActivationClaims{}
	if err := ts.verify(tokenString, claims); err != nil {
		return nil, err
	}

	if claims.Purpose != TokenPurposeActivation {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}

// VerifyReset checks signature, expiry, and purpose, returning the reset claims.
func (ts *TokenService) VerifyReset(tokenString string) (*ResetClaims, error) {
	claims := &ResetClaims{}
	if err := ts.verify(tokenString, claims); err != nil {
		return nil, err
	}

	if claims.Purpose != TokenPurposeReset {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}

func (ts *TokenService) registeredClaims(subject string) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    ts.issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ts.ttl)),
	}
}

func (ts *TokenService) signClaims(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign token")
	}

	return signedString, nil
}

func (ts *TokenService) verify(tokenString string, claims jwt.Claims) error {
	parserOptions := make([]jwt.ParserOption, 0, 1)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService verify encountered unexpected signing method: %v", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).WithTextCode(ErrTokenMalformed.TextCode)
	}

	if !token.Valid {
		ts.logger.Error("TokenService verify could not validate claims")
		return ErrTokenMalformed
	}

	return nil
}
