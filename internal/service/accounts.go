package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mmynk/calories/internal/access"
	"github.com/mmynk/calories/internal/auth"
	"github.com/mmynk/calories/internal/models"
	"github.com/mmynk/calories/internal/storage"
)

// TokenIssuer signs new session keys.
type TokenIssuer interface {
	Generate(account *models.Account) (string, error)
}

// ProfileInput carries profile fields of a request. Nil fields were omitted.
type ProfileInput struct {
	MaxDailyCalories *int
}

// AccountInput carries account fields of a create or update request.
// Nil pointers were omitted by the client. Groups is nil when omitted and
// non-nil, possibly empty, when sent.
type AccountInput struct {
	Username *string
	Password *string
	Groups   []string
	Profile  *ProfileInput
	Active   *bool
}

// AccountService implements account management.
type AccountService struct {
	store         storage.Store
	authenticator auth.Authenticator
	tokens        TokenIssuer
	logger        *slog.Logger
}

// NewAccountService creates a new AccountService.
func NewAccountService(store storage.Store, authenticator auth.Authenticator, tokens TokenIssuer, logger *slog.Logger) *AccountService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountService{
		store:         store,
		authenticator: authenticator,
		tokens:        tokens,
		logger:        logger,
	}
}

// CreateAccount registers a new account with its profile.
// Only administrators and user managers may create accounts.
func (s *AccountService) CreateAccount(ctx context.Context, caller *models.Account, in AccountInput) (*models.Account, error) {
	if !access.CanCreateAccount(caller).Allowed() {
		return nil, ErrForbidden
	}

	account, err := s.newAccount(in)
	if err != nil {
		return nil, err
	}
	if !access.CanAssignRole(caller, nil, account.Role).Allowed() {
		return nil, ErrForbidden
	}
	if in.Active != nil {
		account.Active = *in.Active
	}

	if err := s.persistNew(ctx, account, *in.Password); err != nil {
		return nil, err
	}

	s.logger.Info("Account created", "account_id", account.ID, "role", account.Role, "created_by", caller.ID)
	return account, nil
}

// Bootstrap creates a staff administrator without a caller. It backs the
// create-admin command and is not reachable over the network.
func (s *AccountService) Bootstrap(ctx context.Context, username, password string, maxDailyCalories int) (*models.Account, error) {
	account, err := s.newAccount(AccountInput{
		Username: &username,
		Password: &password,
		Groups:   []string{string(models.RoleAdministrator)},
		Profile:  &ProfileInput{MaxDailyCalories: &maxDailyCalories},
	})
	if err != nil {
		return nil, err
	}
	account.Staff = true

	if err := s.persistNew(ctx, account, password); err != nil {
		return nil, err
	}

	s.logger.Info("Staff administrator created", "account_id", account.ID, "username", account.Username)
	return account, nil
}

// newAccount validates a create request and builds the unsaved account.
func (s *AccountService) newAccount(in AccountInput) (*models.Account, error) {
	verr := &ValidationError{}
	account := &models.Account{Active: true}

	if in.Username == nil {
		verr.Add("username", msgRequired)
	} else {
		account.Username = validateUsername(verr, *in.Username)
	}

	if in.Password == nil {
		verr.Add("password", msgRequired)
	} else if *in.Password == "" {
		verr.Add("password", msgBlank)
	}

	account.Role = validateGroups(verr, in.Groups)

	if in.Profile == nil {
		verr.Add("profile", msgRequired)
	} else if in.Profile.MaxDailyCalories == nil {
		verr.Add("profile.max_daily_calories", msgRequired)
	} else {
		account.Profile.MaxDailyCalories = validateMaxDailyCalories(verr, *in.Profile.MaxDailyCalories)
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return account, nil
}

func (s *AccountService) persistNew(ctx context.Context, account *models.Account, password string) error {
	hash, err := s.authenticator.HashCredential(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	account.PasswordHash = hash

	if err := s.store.CreateAccount(ctx, account); err != nil {
		return translateAccountWriteError(err)
	}
	return nil
}

// ListAccounts returns the non-staff accounts the caller may see: every one
// for managers, only its own for normal users.
func (s *AccountService) ListAccounts(ctx context.Context, caller *models.Account) ([]*models.Account, error) {
	scope, err := access.AccountListScope(caller)
	if errors.Is(err, access.ErrNoRole) {
		return nil, ErrForbidden
	}
	if err != nil {
		return nil, err
	}

	q := storage.AccountQuery{}
	if !scope.All {
		q.AccountID = scope.AccountID
	}
	accounts, err := s.store.ListAccounts(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

// GetAccount returns one account. Accounts the caller may not read are
// reported as ErrNotFound.
func (s *AccountService) GetAccount(ctx context.Context, caller *models.Account, id string) (*models.Account, error) {
	return s.loadAuthorized(ctx, caller, access.OpRead, id)
}

// UpdateAccount modifies an account. With partial set, omitted fields keep
// their values; otherwise username, password and profile are required.
func (s *AccountService) UpdateAccount(ctx context.Context, caller *models.Account, id string, in AccountInput, partial bool) (*models.Account, error) {
	account, err := s.loadAuthorized(ctx, caller, access.OpUpdate, id)
	if err != nil {
		return nil, err
	}

	verr := &ValidationError{}
	if !partial {
		if in.Username == nil {
			verr.Add("username", msgRequired)
		}
		if in.Password == nil {
			verr.Add("password", msgRequired)
		}
		if in.Profile == nil {
			verr.Add("profile", msgRequired)
		}
	}

	updated := *account
	if in.Username != nil {
		updated.Username = validateUsername(verr, *in.Username)
	}
	if in.Password != nil && *in.Password == "" {
		verr.Add("password", msgBlank)
	}
	if in.Groups != nil {
		updated.Role = validateGroups(verr, in.Groups)
	}
	if in.Profile != nil {
		if in.Profile.MaxDailyCalories != nil {
			updated.Profile.MaxDailyCalories = validateMaxDailyCalories(verr, *in.Profile.MaxDailyCalories)
		} else if !partial {
			verr.Add("profile.max_daily_calories", msgRequired)
		}
	}
	if in.Active != nil {
		updated.Active = *in.Active
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if updated.Role != account.Role && !access.CanAssignRole(caller, account, updated.Role).Allowed() {
		return nil, ErrForbidden
	}
	if updated.Active != account.Active && !access.CanChangeStatus(caller, account).Allowed() {
		return nil, ErrForbidden
	}

	passwordChanged := false
	if in.Password != nil {
		hash, err := s.authenticator.HashCredential(*in.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		updated.PasswordHash = hash
		passwordChanged = true
	}

	err = s.store.WithTx(ctx, func(tx storage.Store) error {
		if err := tx.UpdateAccount(ctx, &updated); err != nil {
			return err
		}
		if !passwordChanged {
			return nil
		}
		// Existing sessions end with the old password.
		key, err := s.tokens.Generate(&updated)
		if err != nil {
			return err
		}
		return tx.ReplaceToken(ctx, updated.ID, key)
	})
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, translateAccountWriteError(err)
	}

	s.logger.Info("Account updated", "account_id", updated.ID, "updated_by", caller.ID, "partial", partial)
	return &updated, nil
}

// DeleteAccount removes an account with its profile and session token.
// Food records of the account are kept.
func (s *AccountService) DeleteAccount(ctx context.Context, caller *models.Account, id string) error {
	account, err := s.loadAuthorized(ctx, caller, access.OpDelete, id)
	if err != nil {
		return err
	}

	if err := s.store.DeleteAccount(ctx, account.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete account: %w", err)
	}

	s.logger.Info("Account deleted", "account_id", account.ID, "deleted_by", caller.ID)
	return nil
}

func (s *AccountService) loadAuthorized(ctx context.Context, caller *models.Account, op access.Operation, id string) (*models.Account, error) {
	account, err := s.store.GetAccount(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	if !access.Authorize(caller, op, access.AccountTarget(account)).Allowed() {
		return nil, ErrNotFound
	}
	return account, nil
}

func validateUsername(verr *ValidationError, raw string) string {
	name := models.NormalizeUsername(raw)
	if err := models.ValidateUsername(name); err != nil {
		verr.Add("username", sentence(err))
	}
	return name
}

func validateGroups(verr *ValidationError, groups []string) models.Role {
	if len(groups) != 1 {
		verr.Add("groups", "Exactly one role must be assigned.")
		return models.RoleNone
	}
	role, ok := models.ParseRole(groups[0])
	if !ok {
		verr.Addf("groups", "Object with name=%s does not exist.", groups[0])
	}
	return role
}

func validateMaxDailyCalories(verr *ValidationError, v int) int {
	switch {
	case v < models.MinDailyCalories:
		verr.Addf("profile.max_daily_calories", "Ensure this value is greater than or equal to %d.", models.MinDailyCalories)
	case v > models.MaxCalories:
		verr.Addf("profile.max_daily_calories", msgTooLarge, models.MaxCalories)
	}
	return v
}

func translateAccountWriteError(err error) error {
	switch {
	case errors.Is(err, storage.ErrDuplicate):
		return fieldError("username", "A user with that username already exists.")
	case errors.Is(err, storage.ErrConstraint):
		return fieldError(NonFieldErrors, "The account could not be saved.")
	default:
		return fmt.Errorf("failed to save account: %w", err)
	}
}

// sentence capitalises an error message and ends it with a period.
func sentence(err error) string {
	msg := err.Error()
	if msg == "" {
		return msg
	}
	b := []byte(msg)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	if b[len(b)-1] != '.' {
		b = append(b, '.')
	}
	return string(b)
}
