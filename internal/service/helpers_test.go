package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/calories/internal/auth"
	"github.com/mmynk/calories/internal/calculator"
	"github.com/mmynk/calories/internal/lookup"
	"github.com/mmynk/calories/internal/models"
	"github.com/mmynk/calories/internal/storage/sqlstore"
)

type stubLookup struct {
	result lookup.Result
	err    error
	calls  []string
}

func (l *stubLookup) Lookup(_ context.Context, name string) (lookup.Result, error) {
	l.calls = append(l.calls, name)
	return l.result, l.err
}

type recordingObserver struct {
	mu      sync.Mutex
	created []bool
	lookups []string
	logins  []string
}

func (o *recordingObserver) FoodRecordCreated(exceeded, _ bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.created = append(o.created, exceeded)
}

func (o *recordingObserver) CalorieLookup(provider string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err != nil {
		provider = "error"
	}
	o.lookups = append(o.lookups, provider)
}

func (o *recordingObserver) Login(outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.logins = append(o.logins, outcome)
}

type testEnv struct {
	store    *sqlstore.SQLStore
	authn    *auth.PasswordAuthenticator
	jwt      *auth.JWTManager
	lookup   *stubLookup
	observer *recordingObserver
	now      time.Time

	accounts *AccountService
	food     *FoodService
	login    *AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlstore.New(context.Background(), "sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	env := &testEnv{
		store:    store,
		authn:    auth.NewPasswordAuthenticator(store, bcrypt.MinCost),
		jwt:      auth.NewJWTManager("test-secret", 0),
		lookup:   &stubLookup{result: lookup.Result{Calories: 95, Provider: "stub"}},
		observer: &recordingObserver{},
		now:      time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return env.now }

	env.accounts = NewAccountService(store, env.authn, env.jwt, nil)
	env.food = NewFoodService(store, calculator.NewDailyLimit(time.UTC), env.lookup, nil,
		WithObserver(env.observer), WithClock(clock))
	env.login = NewAuthService(env.authn, env.jwt, store, env.observer, nil)
	return env
}

// seed stores an account directly, bypassing the service's permission checks.
func (e *testEnv) seed(t *testing.T, username string, role models.Role, max int) *models.Account {
	t.Helper()
	hash, err := e.authn.HashCredential("pw-" + username)
	require.NoError(t, err)
	a := &models.Account{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
		Profile:      models.Profile{MaxDailyCalories: max},
	}
	require.NoError(t, e.store.CreateAccount(context.Background(), a))
	return a
}

// logAt stores a food record at a fixed time.
func (e *testEnv) logAt(t *testing.T, owner *models.Account, name string, calories int, at time.Time) *models.FoodRecord {
	t.Helper()
	r := &models.FoodRecord{OwnerID: owner.ID, Name: name, Calories: calories, CreatedAt: at}
	require.NoError(t, e.store.CreateFoodRecord(context.Background(), r))
	return r
}

func validationFields(t *testing.T, err error) map[string][]string {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
	return verr.Fields
}

func ptr[T any](v T) *T { return &v }
