package service

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/calories/internal/auth"
	"github.com/mmynk/calories/internal/models"
)

func newAccountInput(username, role string, max int) AccountInput {
	return AccountInput{
		Username: ptr(username),
		Password: ptr("pw-" + username),
		Groups:   []string{role},
		Profile:  &ProfileInput{MaxDailyCalories: ptr(max)},
	}
}

func TestCreateAccount(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin := env.seed(t, "admin", models.RoleAdministrator, 2000)

	t.Run("valid account", func(t *testing.T) {
		a, err := env.accounts.CreateAccount(ctx, admin, newAccountInput("carol", "Normal_User", 1920))
		require.NoError(t, err)
		assert.Equal(t, models.RoleNormalUser, a.Role)
		assert.Equal(t, 1920, a.Profile.MaxDailyCalories)
		assert.True(t, a.Active)
		assert.NotEqual(t, "pw-carol", a.PasswordHash)

		stored, err := env.store.GetAccount(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, 1920, stored.Profile.MaxDailyCalories)

		_, err = env.authn.Authenticate(ctx, "carol", "pw-carol")
		assert.NoError(t, err)
	})

	t.Run("zero or many roles", func(t *testing.T) {
		in := newAccountInput("dave", "Normal_User", 2000)
		in.Groups = []string{}
		_, err := env.accounts.CreateAccount(ctx, admin, in)
		assert.Contains(t, validationFields(t, err), "groups")

		in.Groups = []string{"Normal_User", "User_Manager"}
		_, err = env.accounts.CreateAccount(ctx, admin, in)
		assert.Contains(t, validationFields(t, err), "groups")

		in.Groups = nil
		_, err = env.accounts.CreateAccount(ctx, admin, in)
		assert.Contains(t, validationFields(t, err), "groups")

		in.Groups = []string{"Superuser"}
		_, err = env.accounts.CreateAccount(ctx, admin, in)
		assert.Contains(t, validationFields(t, err), "groups")
	})

	t.Run("max daily calories must be at least one", func(t *testing.T) {
		_, err := env.accounts.CreateAccount(ctx, admin, newAccountInput("erin", "Normal_User", 0))
		assert.Contains(t, validationFields(t, err), "profile.max_daily_calories")

		_, err = env.store.GetAccountByUsername(ctx, "erin")
		assert.Error(t, err, "no partial account may be left behind")
	})

	t.Run("max daily calories has a ceiling", func(t *testing.T) {
		_, err := env.accounts.CreateAccount(ctx, admin, newAccountInput("frank", "Normal_User", math.MaxInt64))
		assert.Contains(t, validationFields(t, err), "profile.max_daily_calories")

		a, err := env.accounts.CreateAccount(ctx, admin, newAccountInput("frank", "Normal_User", models.MaxCalories))
		require.NoError(t, err)
		assert.Equal(t, models.MaxCalories, a.Profile.MaxDailyCalories)
	})

	t.Run("errors are collected", func(t *testing.T) {
		_, err := env.accounts.CreateAccount(ctx, admin, AccountInput{Username: ptr("bad name"), Groups: []string{}})
		fields := validationFields(t, err)
		assert.Contains(t, fields, "username")
		assert.Contains(t, fields, "password")
		assert.Contains(t, fields, "groups")
		assert.Contains(t, fields, "profile")
	})

	t.Run("duplicate username", func(t *testing.T) {
		_, err := env.accounts.CreateAccount(ctx, admin, newAccountInput("carol", "Normal_User", 2000))
		assert.Contains(t, validationFields(t, err), "username")

		// NFKC folds fullwidth letters onto the existing name.
		_, err = env.accounts.CreateAccount(ctx, admin, newAccountInput("ｃａｒｏｌ", "Normal_User", 2000))
		assert.Contains(t, validationFields(t, err), "username")
	})

	t.Run("only managers may create accounts", func(t *testing.T) {
		alice := env.seed(t, "alice", models.RoleNormalUser, 2000)
		_, err := env.accounts.CreateAccount(ctx, alice, newAccountInput("frank", "Normal_User", 2000))
		assert.ErrorIs(t, err, ErrForbidden)

		_, err = env.accounts.CreateAccount(ctx, &models.Account{ID: "x"}, newAccountInput("frank", "Normal_User", 2000))
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("user manager cannot create administrators", func(t *testing.T) {
		manager := env.seed(t, "manager", models.RoleUserManager, 2000)
		_, err := env.accounts.CreateAccount(ctx, manager, newAccountInput("gina", "Administrator", 2000))
		assert.ErrorIs(t, err, ErrForbidden)

		a, err := env.accounts.CreateAccount(ctx, manager, newAccountInput("gina", "User_Manager", 2000))
		require.NoError(t, err)
		assert.Equal(t, models.RoleUserManager, a.Role)
	})
}

func TestCreateAccountConcurrentUsername(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin := env.seed(t, "admin", models.RoleAdministrator, 2000)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.accounts.CreateAccount(ctx, admin, newAccountInput("race", "Normal_User", 2000))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.Contains(t, validationFields(t, err), "username")
	}
	assert.Equal(t, 1, succeeded)
}

func TestAccountVisibility(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	root, err := env.accounts.Bootstrap(ctx, "root", "rootpw", 2000)
	require.NoError(t, err)
	admin := env.seed(t, "admin", models.RoleAdministrator, 2000)
	manager := env.seed(t, "manager", models.RoleUserManager, 2000)
	alice := env.seed(t, "alice", models.RoleNormalUser, 2000)
	bob := env.seed(t, "bob", models.RoleNormalUser, 2000)

	t.Run("managers list every non-staff account", func(t *testing.T) {
		for _, caller := range []*models.Account{admin, manager} {
			list, err := env.accounts.ListAccounts(ctx, caller)
			require.NoError(t, err)
			assert.Len(t, list, 4)
			for _, a := range list {
				assert.NotEqual(t, root.ID, a.ID)
			}
		}
	})

	t.Run("normal user lists only itself", func(t *testing.T) {
		list, err := env.accounts.ListAccounts(ctx, alice)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, alice.ID, list[0].ID)
	})

	t.Run("role-less caller cannot list", func(t *testing.T) {
		_, err := env.accounts.ListAccounts(ctx, &models.Account{ID: alice.ID})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("object access", func(t *testing.T) {
		_, err := env.accounts.GetAccount(ctx, alice, bob.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		got, err := env.accounts.GetAccount(ctx, alice, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", got.Username)

		_, err = env.accounts.GetAccount(ctx, manager, bob.ID)
		assert.NoError(t, err)

		_, err = env.accounts.GetAccount(ctx, admin, root.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = env.accounts.GetAccount(ctx, root, root.ID)
		assert.NoError(t, err)

		_, err = env.accounts.GetAccount(ctx, admin, "does-not-exist")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestUpdateAccount(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin := env.seed(t, "admin", models.RoleAdministrator, 2000)
	manager := env.seed(t, "manager", models.RoleUserManager, 2000)
	alice := env.seed(t, "alice", models.RoleNormalUser, 2000)
	bob := env.seed(t, "bob", models.RoleNormalUser, 2000)

	t.Run("partial update merges the profile", func(t *testing.T) {
		got, err := env.accounts.UpdateAccount(ctx, alice, alice.ID, AccountInput{
			Profile: &ProfileInput{MaxDailyCalories: ptr(1800)},
		}, true)
		require.NoError(t, err)
		assert.Equal(t, 1800, got.Profile.MaxDailyCalories)
		assert.Equal(t, "alice", got.Username)
		assert.Equal(t, models.RoleNormalUser, got.Role)
	})

	t.Run("full update requires fields", func(t *testing.T) {
		_, err := env.accounts.UpdateAccount(ctx, alice, alice.ID, AccountInput{Username: ptr("alice")}, false)
		fields := validationFields(t, err)
		assert.Contains(t, fields, "password")
		assert.Contains(t, fields, "profile")
	})

	t.Run("role is replaced, not added", func(t *testing.T) {
		got, err := env.accounts.UpdateAccount(ctx, admin, bob.ID, AccountInput{Groups: []string{"User_Manager"}}, true)
		require.NoError(t, err)
		assert.Equal(t, models.RoleUserManager, got.Role)

		stored, err := env.store.GetAccount(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, models.RoleUserManager, stored.Role)

		_, err = env.accounts.UpdateAccount(ctx, admin, bob.ID, AccountInput{Groups: []string{"User_Manager", "Normal_User"}}, true)
		assert.Contains(t, validationFields(t, err), "groups")
	})

	t.Run("normal user cannot promote itself", func(t *testing.T) {
		_, err := env.accounts.UpdateAccount(ctx, alice, alice.ID, AccountInput{Groups: []string{"Administrator"}}, true)
		assert.ErrorIs(t, err, ErrForbidden)

		// Re-sending the current role is harmless.
		_, err = env.accounts.UpdateAccount(ctx, alice, alice.ID, AccountInput{Groups: []string{"Normal_User"}}, true)
		assert.NoError(t, err)
	})

	t.Run("user manager cannot touch administrators' roles", func(t *testing.T) {
		_, err := env.accounts.UpdateAccount(ctx, manager, admin.ID, AccountInput{Groups: []string{"Normal_User"}}, true)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("suspension is reserved to managers", func(t *testing.T) {
		_, err := env.accounts.UpdateAccount(ctx, alice, alice.ID, AccountInput{Active: ptr(false)}, true)
		assert.ErrorIs(t, err, ErrForbidden)

		got, err := env.accounts.UpdateAccount(ctx, manager, alice.ID, AccountInput{Active: ptr(false)}, true)
		require.NoError(t, err)
		assert.False(t, got.Active)

		_, err = env.authn.Authenticate(ctx, "alice", "pw-alice")
		assert.ErrorIs(t, err, auth.ErrAccountSuspended)

		_, err = env.accounts.UpdateAccount(ctx, manager, alice.ID, AccountInput{Active: ptr(true)}, true)
		require.NoError(t, err)
	})

	t.Run("password change rotates the session key", func(t *testing.T) {
		before, err := env.login.Login(ctx, "alice", "pw-alice")
		require.NoError(t, err)

		_, err = env.accounts.UpdateAccount(ctx, alice, alice.ID, AccountInput{Password: ptr("new-pw")}, true)
		require.NoError(t, err)

		after, err := env.login.Login(ctx, "alice", "new-pw")
		require.NoError(t, err)
		assert.NotEqual(t, before, after)

		_, err = env.login.Login(ctx, "alice", "pw-alice")
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("duplicate username", func(t *testing.T) {
		_, err := env.accounts.UpdateAccount(ctx, admin, alice.ID, AccountInput{Username: ptr("bob")}, true)
		assert.Contains(t, validationFields(t, err), "username")
	})

	t.Run("other user's account is not found", func(t *testing.T) {
		_, err := env.accounts.UpdateAccount(ctx, alice, bob.ID, AccountInput{Profile: &ProfileInput{MaxDailyCalories: ptr(5)}}, true)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestDeleteAccountKeepsFoodRecords(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin := env.seed(t, "admin", models.RoleAdministrator, 2000)
	alice := env.seed(t, "alice", models.RoleNormalUser, 2000)
	bob := env.seed(t, "bob", models.RoleNormalUser, 2000)

	record, err := env.food.CreateFoodRecord(ctx, alice, FoodInput{Name: ptr("Apple"), Calories: ptr(95)})
	require.NoError(t, err)

	assert.ErrorIs(t, env.accounts.DeleteAccount(ctx, bob, alice.ID), ErrNotFound)
	require.NoError(t, env.accounts.DeleteAccount(ctx, admin, alice.ID))

	_, err = env.accounts.GetAccount(ctx, admin, alice.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	orphan, err := env.food.GetFoodRecord(ctx, admin, record.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, orphan.OwnerID)
	assert.Empty(t, orphan.OwnerUsername)
}

func TestBootstrap(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	root, err := env.accounts.Bootstrap(ctx, "root", "rootpw", 2000)
	require.NoError(t, err)
	assert.True(t, root.Staff)
	assert.Equal(t, models.RoleAdministrator, root.Role)

	_, err = env.accounts.Bootstrap(ctx, "root", "rootpw", 2000)
	assert.Contains(t, validationFields(t, err), "username")

	_, err = env.accounts.Bootstrap(ctx, "other", "", 0)
	fields := validationFields(t, err)
	assert.Contains(t, fields, "password")
	assert.Contains(t, fields, "profile.max_daily_calories")
}
