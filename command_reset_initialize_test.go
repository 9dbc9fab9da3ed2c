package accounts_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/goliatone/go-accounts"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestInitializePasswordResetHandler(t *testing.T) {
	cfg := testConfig()
	tokens := accounts.NewResetTokenService(cfg, testLogger{})

	account := &accounts.Account{
		ID:    uuid.New(),
		Name:  "alice1",
		Email: "a@x.com",
	}

	t.Run("persists the token before dispatching the link", func(t *testing.T) {
		accountsRepo := &MockAccounts{}
		repo := &MockRepositoryManager{}
		repo.On("Accounts").Return(accountsRepo)

		accountsRepo.On("GetByEmail", mock.Anything, "a@x.com").Return(account, nil)

		var storedToken string
		accountsRepo.On("SetResetTokenTx", mock.Anything, mock.Anything, account.ID, mock.AnythingOfType("string")).
			Run(func(args mock.Arguments) {
				storedToken = args.String(3)
			}).
			Return(nil)

		notifier := &MockNotifier{}
		notifier.On("Send", mock.Anything, "a@x.com", mock.Anything, mock.MatchedBy(func(html string) bool {
			// The persisted token is the one the link carries.
			return storedToken != "" && strings.Contains(html, storedToken)
		})).Return(nil)

		sink := &MockActivitySink{}
		sink.On("Record", mock.Anything, mock.MatchedBy(func(event accounts.ActivityEvent) bool {
			return event.EventType == accounts.ActivityEventPasswordResetRequest
		})).Return(nil)

		var resp *accounts.InitializePasswordResetResponse
		handler := accounts.NewInitializePasswordResetHandler(repo, tokens).
			WithNotifier(notifier).
			WithActivitySink(sink).
			WithLogger(testLogger{}).
			WithBaseURL(cfg.GetBaseURL())

		err := handler.Execute(context.Background(), accounts.InitializePasswordResetMessage{
			Email: "a@x.com",
			OnResponse: func(r *accounts.InitializePasswordResetResponse) {
				resp = r
			},
		})
		require.NoError(t, err)

		require.NotNil(t, resp)
		assert.True(t, resp.Success)
		assert.Equal(t, "a@x.com", resp.Email)
		assert.Equal(t, storedToken, resp.Token)

		claims, err := tokens.VerifyReset(storedToken)
		require.NoError(t, err)
		assert.Equal(t, account.ID.String(), claims.AccountID)

		accountsRepo.AssertExpectations(t)
		notifier.AssertExpectations(t)
		sink.AssertExpectations(t)
	})

	t.Run("unknown email reports email not found", func(t *testing.T) {
		accountsRepo := &MockAccounts{}
		repo := &MockRepositoryManager{}
		repo.On("Accounts").Return(accountsRepo)

		accountsRepo.On("GetByEmail", mock.Anything, "nobody@x.com").
			Return(nil, repository.NewRecordNotFound())

		notifier := &MockNotifier{}

		handler := accounts.NewInitializePasswordResetHandler(repo, tokens).
			WithNotifier(notifier).
			WithLogger(testLogger{})

		err := handler.Execute(context.Background(), accounts.InitializePasswordResetMessage{
			Email: "nobody@x.com",
		})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "email not found")
		notifier.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("notification failure leaves the stored token in place", func(t *testing.T) {
		accountsRepo := &MockAccounts{}
		repo := &MockRepositoryManager{}
		repo.On("Accounts").Return(accountsRepo)

		accountsRepo.On("GetByEmail", mock.Anything, "a@x.com").Return(account, nil)
		accountsRepo.On("SetResetTokenTx", mock.Anything, mock.Anything, account.ID, mock.AnythingOfType("string")).
			Return(nil)

		notifier := &MockNotifier{}
		notifier.On("Send", mock.Anything, "a@x.com", mock.Anything, mock.Anything).
			Return(errors.New("mailgun unavailable"))

		var resp *accounts.InitializePasswordResetResponse
		handler := accounts.NewInitializePasswordResetHandler(repo, tokens).
			WithNotifier(notifier).
			WithLogger(testLogger{})

		err := handler.Execute(context.Background(), accounts.InitializePasswordResetMessage{
			Email: "a@x.com",
			OnResponse: func(r *accounts.InitializePasswordResetResponse) {
				resp = r
			},
		})

		require.Error(t, err)
		assert.True(t, accounts.IsNotificationFailed(err))

		// The token was stored before dispatch and remains valid.
		accountsRepo.AssertCalled(t, "SetResetTokenTx", mock.Anything, mock.Anything, account.ID, mock.AnythingOfType("string"))
		require.NotNil(t, resp)
		assert.False(t, resp.Success)
		assert.NotEmpty(t, resp.Token)
	})

	t.Run("invalid email never reaches the store", func(t *testing.T) {
		repo := &MockRepositoryManager{}

		handler := accounts.NewInitializePasswordResetHandler(repo, tokens).
			WithLogger(testLogger{})

		err := handler.Execute(context.Background(), accounts.InitializePasswordResetMessage{
			Email: "not-an-email",
		})

		require.Error(t, err)
		assert.True(t, accounts.IsValidationError(err))
		repo.AssertNotCalled(t, "Accounts")
	})
}

