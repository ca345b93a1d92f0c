package registration

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/watchhub/internal/cache"
	"github.com/magabrotheeeer/watchhub/internal/models"
	"github.com/magabrotheeeer/watchhub/internal/storage/repository"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

// fakeRepo хранилище в памяти с теми же гарантиями уникальности и CAS, что и PostgreSQL.
type fakeRepo struct {
	mu         sync.Mutex
	identities map[uuid.UUID]string
	emails     map[string]uuid.UUID
	profiles   map[uuid.UUID]*models.Profile
	handles    map[string]uuid.UUID
	txs        map[string]*models.Transaction
	subs       map[string]*models.Subscription
	codes      map[string]bool
	codeOwner  map[string]uuid.UUID

	profileErr  error
	subErr      error
	completeErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		identities: map[uuid.UUID]string{},
		emails:     map[string]uuid.UUID{},
		profiles:   map[uuid.UUID]*models.Profile{},
		handles:    map[string]uuid.UUID{},
		txs:        map[string]*models.Transaction{},
		subs:       map[string]*models.Subscription{},
		codes:      map[string]bool{},
		codeOwner:  map[string]uuid.UUID{},
	}
}

func (f *fakeRepo) EmailExists(_ context.Context, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.emails[email]
	return ok, nil
}

func (f *fakeRepo) CreateIdentity(_ context.Context, email, _ string) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.emails[email]; ok {
		return uuid.Nil, repository.ErrEmailTaken
	}
	id := uuid.New()
	f.identities[id] = email
	f.emails[email] = id
	return id, nil
}

func (f *fakeRepo) DeleteIdentity(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	email, ok := f.identities[id]
	if !ok {
		return repository.ErrNotFound
	}
	delete(f.identities, id)
	delete(f.emails, email)
	if p, ok := f.profiles[id]; ok {
		delete(f.handles, p.Handle)
		delete(f.profiles, id)
	}
	return nil
}

func (f *fakeRepo) HandleExists(_ context.Context, handle string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.handles[handle]
	return ok, nil
}

func (f *fakeRepo) CreateProfile(_ context.Context, p *models.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.profileErr != nil {
		return f.profileErr
	}
	if _, ok := f.handles[p.Handle]; ok {
		return repository.ErrHandleTaken
	}
	cp := *p
	f.profiles[p.ID] = &cp
	f.handles[p.Handle] = p.ID
	return nil
}

func (f *fakeRepo) CreatePendingTransaction(_ context.Context, t *models.Transaction) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.txs[t.ID]; ok {
		return false, nil
	}
	cp := *t
	cp.Status = models.TransactionPending
	f.txs[t.ID] = &cp
	return true, nil
}

func (f *fakeRepo) GetTransaction(_ context.Context, id string) (*models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.txs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeRepo) CompleteTransaction(_ context.Context, id string, userID *uuid.UUID, ref string, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.completeErr != nil {
		return false, f.completeErr
	}
	t, ok := f.txs[id]
	if !ok || t.Status != models.TransactionPending {
		return false, nil
	}
	t.Status = models.TransactionCompleted
	if userID != nil {
		u := *userID
		t.UserID = &u
	}
	if ref != "" {
		t.ProviderRef = &ref
	}
	t.CompletedAt = &at
	return true, nil
}

func (f *fakeRepo) FailTransaction(_ context.Context, id, ref string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.txs[id]
	if !ok || t.Status != models.TransactionPending {
		return false, nil
	}
	t.Status = models.TransactionFailed
	if ref != "" {
		t.ProviderRef = &ref
	}
	return true, nil
}

func (f *fakeRepo) AttachTransactionUser(_ context.Context, id string, userID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.txs[id]
	if !ok || t.UserID != nil {
		return false, nil
	}
	t.UserID = &userID
	return true, nil
}

func (f *fakeRepo) CreateSubscription(_ context.Context, sub *models.Subscription) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subErr != nil {
		return false, f.subErr
	}
	if _, ok := f.subs[sub.TransactionID]; ok {
		return false, nil
	}
	cp := *sub
	cp.ID = len(f.subs) + 1
	f.subs[sub.TransactionID] = &cp
	return true, nil
}

func (f *fakeRepo) ClaimAdminCode(_ context.Context, code string, _ time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	used, ok := f.codes[code]
	if !ok || used {
		return false, nil
	}
	f.codes[code] = true
	return true, nil
}

func (f *fakeRepo) ReleaseAdminCode(_ context.Context, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes[code] = false
	return nil
}

func (f *fakeRepo) AssignAdminCode(_ context.Context, code string, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codeOwner[code] = userID
	return nil
}

func (f *fakeRepo) counts() (identities, profiles, subs int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.identities), len(f.profiles), len(f.subs)
}

type fakePlans map[int]*models.Plan

func (p fakePlans) GetPlan(_ context.Context, id int) (*models.Plan, error) {
	plan, ok := p[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return plan, nil
}

func testPlans() fakePlans {
	return fakePlans{
		1: {ID: 1, Name: "Estándar", Price: decimal.RequireFromString("9.99"), MaxReproductions: 5},
		2: {ID: 2, Name: "Premium", Price: decimal.RequireFromString("19.99"), MaxReproductions: 10},
	}
}

// fakePending копирует записи, как это делает сериализация в Redis.
type fakePending struct {
	mu   sync.Mutex
	regs map[string]models.PendingRegistration
}

func newFakePending() *fakePending {
	return &fakePending{regs: map[string]models.PendingRegistration{}}
}

func (p *fakePending) Save(_ context.Context, reg *models.PendingRegistration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.regs[reg.TransactionID] = *reg
	return nil
}

func (p *fakePending) Get(_ context.Context, id string) (*models.PendingRegistration, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	reg, ok := p.regs[id]
	if !ok {
		return nil, nil
	}
	return &reg, nil
}

func (p *fakePending) Delete(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.regs, id)
	return nil
}

type fakeLocker struct {
	mu     sync.Mutex
	held   map[string]string
	called int
}

func newFakeLocker() *fakeLocker { return &fakeLocker{held: map[string]string{}} }

func (l *fakeLocker) TryLock(_ context.Context, key string, _ time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.called++
	if _, ok := l.held[key]; ok {
		return "", cache.ErrLocked
	}
	token := uuid.NewString()
	l.held[key] = token
	return token, nil
}

func (l *fakeLocker) Unlock(_ context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
	}
	return nil
}

type MockPublisher struct{ mock.Mock }

func (m *MockPublisher) Publish(ctx context.Context, routingKey string, message any) error {
	return m.Called(ctx, routingKey, message).Error(0)
}

type fixture struct {
	svc     *Service
	repo    *fakeRepo
	pending *fakePending
	locker  *fakeLocker
	pub     *MockPublisher
}

func newFixture() *fixture {
	f := &fixture{
		repo:    newFakeRepo(),
		pending: newFakePending(),
		locker:  newFakeLocker(),
		pub:     new(MockPublisher),
	}
	f.pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	f.svc = New(newNoopLogger(), f.repo, testPlans(), f.pending, f.locker, f.pub, time.Second)
	return f
}

func userForm() Form {
	return Form{
		Name:            "Ana Torres",
		Handle:          " CineFan ",
		Email:           "Ana@Example.com",
		Password:        "secreto1",
		ConfirmPassword: "secreto1",
		PlanID:          1,
		PaymentMethod:   models.MethodPayPal,
	}
}
