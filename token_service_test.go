package accounts_test

import (
	"testing"
	"time"

	"github.com/goliatone/go-accounts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenServiceActivationRoundTrip(t *testing.T) {
	cfg := testConfig()
	service := accounts.NewActivationTokenService(cfg, testLogger{})

	hash, err := accounts.HashPassword("Passw0rd!")
	require.NoError(t, err)

	token, err := service.IssueActivation("alice1", "a@x.com", hash)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := service.VerifyActivation(token)
	require.NoError(t, err)

	assert.Equal(t, "alice1", claims.Name)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, hash, claims.PasswordHash)
	assert.Equal(t, accounts.TokenPurposeActivation, claims.Purpose)
	assert.NotNil(t, claims.ExpiresAt)

	// The claims carry the hash, never the plaintext.
	assert.NotContains(t, claims.PasswordHash, "Passw0rd!")
}

func TestTokenServiceResetRoundTrip(t *testing.T) {
	cfg := testConfig()
	service := accounts.NewResetTokenService(cfg, testLogger{})

	accountID := uuid.New()

	token, err := service.IssueReset(accountID)
	require.NoError(t, err)

	claims, err := service.VerifyReset(token)
	require.NoError(t, err)

	assert.Equal(t, accountID.String(), claims.AccountID)
	assert.Equal(t, accounts.TokenPurposeReset, claims.Purpose)
}

func TestTokenServiceRejectsExpiredToken(t *testing.T) {
	service := accounts.NewTokenService(
		[]byte("activation-secret"),
		-time.Minute, // already expired when issued
		"go-accounts-test",
		accounts.TokenPurposeActivation,
		testLogger{},
	)

	token, err := service.IssueActivation("alice1", "a@x.com", "hash")
	require.NoError(t, err)

	_, err = service.VerifyActivation(token)
	require.Error(t, err)
	assert.True(t, accounts.IsTokenExpiredError(err))
	assert.True(t, accounts.IsInvalidToken(err))
}

func TestTokenServiceRejectsWrongSecret(t *testing.T) {
	issuer := accounts.NewTokenService(
		[]byte("one-secret"),
		time.Minute,
		"go-accounts-test",
		accounts.TokenPurposeActivation,
		testLogger{},
	)
	verifier := accounts.NewTokenService(
		[]byte("another-secret"),
		time.Minute,
		"go-accounts-test",
		accounts.TokenPurposeActivation,
		testLogger{},
	)

	token, err := issuer.IssueActivation("alice1", "a@x.com", "hash")
	require.NoError(t, err)

	_, err = verifier.VerifyActivation(token)
	require.Error(t, err)
	assert.True(t, accounts.IsInvalidToken(err))
}

func TestTokenServicePurposesAreNotInterchangeable(t *testing.T) {
	cfg := testConfig()
	activation := accounts.NewActivationTokenService(cfg, testLogger{})
	reset := accounts.NewResetTokenService(cfg, testLogger{})

	activationToken, err := activation.IssueActivation("alice1", "a@x.com", "hash")
	require.NoError(t, err)

	resetToken, err := reset.IssueReset(uuid.New())
	require.NoError(t, err)

	// Independent secrets: each fails the other's signature check.
	_, err = reset.VerifyReset(activationToken)
	assert.True(t, accounts.IsInvalidToken(err))

	_, err = activation.VerifyActivation(resetToken)
	assert.True(t, accounts.IsInvalidToken(err))
}

func TestTokenServicePurposeCheckSurvivesSharedSecret(t *testing.T) {
	// A misconfigured deployment can share the secret between purposes;
	// the purpose tag still keeps the tokens apart.
	shared := accounts.FlowConfig{
		ActivationSecret: "same-secret",
		ResetSecret:      "same-secret",
		Issuer:           "go-accounts-test",
	}

	activation := accounts.NewActivationTokenService(shared, testLogger{})
	reset := accounts.NewResetTokenService(shared, testLogger{})

	resetToken, err := reset.IssueReset(uuid.New())
	require.NoError(t, err)

	_, err = activation.VerifyActivation(resetToken)
	require.Error(t, err)
	assert.True(t, accounts.IsInvalidToken(err))
}

func TestTokenServiceRejectsGarbage(t *testing.T) {
	service := accounts.NewActivationTokenService(testConfig(), testLogger{})

	for _, tokenString := range []string{"", "not-a-token", "aaa.bbb.ccc"} {
		_, err := service.VerifyActivation(tokenString)
		require.Error(t, err, "token %q should not verify", tokenString)
		assert.True(t, accounts.IsInvalidToken(err))
	}
}

func TestTokenServiceRejectsTamperedToken(t *testing.T) {
	service := accounts.NewActivationTokenService(testConfig(), testLogger{})

	token, err := service.IssueActivation("alice1", "a@x.com", "hash")
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"

	_, err = service.VerifyActivation(tampered)
	require.Error(t, err)
	assert.True(t, accounts.IsInvalidToken(err))
}

func TestTokenServiceIssueGuardsPurpose(t *testing.T) {
	activation := accounts.NewActivationTokenService(testConfig(), testLogger{})
	reset := accounts.NewResetTokenService(testConfig(), testLogger{})

	_, err := activation.IssueReset(uuid.New())
	assert.Error(t, err)

	_, err = reset.IssueActivation("alice1", "a@x.com", "hash")
	assert.Error(t, err)
}
