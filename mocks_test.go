package accounts_test

import (
	"context"
	"database/sql"

	"github.com/goliatone/go-accounts"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

// MockRepositoryManager implements accounts.RepositoryManager
type MockRepositoryManager struct {
	mock.Mock
}

func (m *MockRepositoryManager) Validate() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockRepositoryManager) MustValidate() {
	m.Called()
}

// RunInTx executes the closure with a zero tx handle: the mocked
// repositories ignore it, and the closure's error surfaces exactly as
// the real manager would surface it.
func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		var tx bun.Tx
		return f(ctx, tx)
	}
}

func (m *MockRepositoryManager) Accounts() accounts.Accounts {
	args := m.Called()
	return args.Get(0).(accounts.Accounts)
}

// MockAccounts implements accounts.Accounts. The embedded interface
// satisfies the repository methods the tests never exercise.
type MockAccounts struct {
	mock.Mock
	accounts.Accounts
}

func (m *MockAccounts) GetByEmail(ctx context.Context, email string) (*accounts.Account, error) {
	args := m.Called(ctx, email)
	if record := args.Get(0); record != nil {
		return record.(*accounts.Account), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccounts) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*accounts.Account, error) {
	args := m.Called(ctx, tx, email)
	if record := args.Get(0); record != nil {
		return record.(*accounts.Account), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccounts) GetByResetToken(ctx context.Context, token string) (*accounts.Account, error) {
	args := m.Called(ctx, token)
	if record := args.Get(0); record != nil {
		return record.(*accounts.Account), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccounts) GetByResetTokenTx(ctx context.Context, tx bun.IDB, token string) (*accounts.Account, error) {
	args := m.Called(ctx, tx, token)
	if record := args.Get(0); record != nil {
		return record.(*accounts.Account), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccounts) Create(ctx context.Context, record *accounts.Account, criteria ...repository.InsertCriteria) (*accounts.Account, error) {
	args := m.Called(ctx, record)
	if created := args.Get(0); created != nil {
		return created.(*accounts.Account), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccounts) CreateTx(ctx context.Context, tx bun.IDB, record *accounts.Account, criteria ...repository.InsertCriteria) (*accounts.Account, error) {
	args := m.Called(ctx, tx, record)
	if created := args.Get(0); created != nil {
		return created.(*accounts.Account), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccounts) SetResetToken(ctx context.Context, id uuid.UUID, token string) error {
	args := m.Called(ctx, id, token)
	return args.Error(0)
}

func (m *MockAccounts) SetResetTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token string) error {
	args := m.Called(ctx, tx, id, token)
	return args.Error(0)
}

func (m *MockAccounts) ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *MockAccounts) ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, tx, id, passwordHash)
	return args.Error(0)
}

// MockNotifier implements accounts.Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Send(ctx context.Context, toAddress, subject, htmlBody string) error {
	args := m.Called(ctx, toAddress, subject, htmlBody)
	return args.Error(0)
}

// MockActivitySink implements accounts.ActivitySink
type MockActivitySink struct {
	mock.Mock
}

func (m *MockActivitySink) Record(ctx context.Context, event accounts.ActivityEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Warn(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

func testConfig() accounts.FlowConfig {
	return accounts.FlowConfig{
		ActivationSecret: "activation-secret",
		ResetSecret:      "reset-secret",
		Issuer:           "go-accounts-test",
		BaseURL:          "http://localhost:3000/api",
	}
}
