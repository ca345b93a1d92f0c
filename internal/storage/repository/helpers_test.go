package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/watchhub/internal/migrations"
	"github.com/magabrotheeeer/watchhub/internal/models"
)

// TestDataFactory содержит методы для создания тестовых данных
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateAccount создает учетную запись с профилем
func (f *TestDataFactory) CreateAccount(t *testing.T, handle string, planID *int) uuid.UUID {
	ctx := context.Background()
	id, err := f.storage.CreateIdentity(ctx, handle+"@example.com", "hash")
	require.NoError(t, err)
	err = f.storage.CreateProfile(ctx, &models.Profile{
		ID:     id,
		Name:   "Test " + handle,
		Handle: handle,
		Email:  handle + "@example.com",
		Role:   models.RoleUser,
		PlanID: planID,
	})
	require.NoError(t, err)
	return id
}

// CreatePendingTransaction создает транзакцию в статусе pendiente
func (f *TestDataFactory) CreatePendingTransaction(t *testing.T, id string, planID int) *models.Transaction {
	tx := &models.Transaction{
		ID:             id,
		PlanID:         planID,
		Amount:         decimal.RequireFromString("9.99"),
		PaymentMethod:  models.MethodPayPal,
		IdempotencyKey: uuid.New(),
	}
	created, err := f.storage.CreatePendingTransaction(context.Background(), tx)
	require.NoError(t, err)
	require.True(t, created)
	return tx
}

// CreateAdminCode создает неиспользованный код администратора
func (f *TestDataFactory) CreateAdminCode(t *testing.T, code string) {
	_, err := f.storage.DB.Exec(`INSERT INTO admin_codes (code) VALUES ($1)`, code)
	require.NoError(t, err)
}

// TestVerification содержит общие функции для проверки результатов тестов
type TestVerification struct {
	storage *Storage
}

// NewTestVerification создает новый объект для проверки результатов
func NewTestVerification(storage *Storage) *TestVerification {
	return &TestVerification{storage: storage}
}

// VerifyIdentityCount проверяет количество учетных записей с почтой
func (v *TestVerification) VerifyIdentityCount(t *testing.T, email string, expected int) {
	var count int
	err := v.storage.DB.QueryRow("SELECT COUNT(*) FROM identities WHERE email = $1", email).Scan(&count)
	require.NoError(t, err)
	require.Equal(t, expected, count)
}

// VerifySubscriptionCount проверяет количество подписок по транзакции
func (v *TestVerification) VerifySubscriptionCount(t *testing.T, transactionID string, expected int) {
	var count int
	err := v.storage.DB.QueryRow("SELECT COUNT(*) FROM subscriptions WHERE transaction_id = $1", transactionID).Scan(&count)
	require.NoError(t, err)
	require.Equal(t, expected, count)
}

// VerifyTransactionStatus проверяет статус транзакции
func (v *TestVerification) VerifyTransactionStatus(t *testing.T, transactionID, expected string) {
	var status string
	err := v.storage.DB.QueryRow("SELECT status FROM transactions WHERE id = $1", transactionID).Scan(&status)
	require.NoError(t, err)
	require.Equal(t, expected, status)
}

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции
func setupTestDatabase(t *testing.T) (*Storage, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("watchhub"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start container")

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	var storage *Storage
	for range 10 {
		storage, err = New(connStr)
		if err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	require.NoError(t, err, "failed to create storage after retries")

	root, err := filepath.Abs("../../..")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, filepath.Join(root, "migrations")))

	cleanup := func() {
		_ = storage.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}
	return storage, cleanup
}
