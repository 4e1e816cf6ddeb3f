package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/ledgerhouse/internal/common"
	"github.com/dmitrijs2005/ledgerhouse/internal/cryptox"
	"github.com/dmitrijs2005/ledgerhouse/internal/ledger"
	"github.com/dmitrijs2005/ledgerhouse/internal/logging"
	"github.com/dmitrijs2005/ledgerhouse/internal/server/audit"
	"github.com/dmitrijs2005/ledgerhouse/internal/server/models"
	"github.com/dmitrijs2005/ledgerhouse/internal/server/policy"
	"github.com/dmitrijs2005/ledgerhouse/internal/server/session"
)

const (
	minUsernameLen = 3
	minPasswordLen = 8
)

// RegisterRequest carries the fields of one signup.
type RegisterRequest struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Tier      policy.Tier
}

// Service is the user registry. All users live in the users ledger table;
// every mutation commits a new version of the full table.
type Service struct {
	store    ledger.Store
	sessions *session.Manager
	audit    *audit.Service
	logger   logging.Logger

	now   func() time.Time
	newID func() string
}

func NewService(store ledger.Store, sessions *session.Manager, auditSvc *audit.Service, logger logging.Logger) *Service {
	return &Service{
		store:    store,
		sessions: sessions,
		audit:    auditSvc,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Register validates the request, enforces username and email uniqueness
// and appends the new account in the pending role. The returned user never
// carries the password digest.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	if err := validateRegistration(req); err != nil {
		return nil, err
	}

	_, users, err := s.scanUsers(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.Username == req.Username {
			return nil, fmt.Errorf("%w: username already taken", common.ErrValidation)
		}
		if u.Email == req.Email {
			return nil, fmt.Errorf("%w: email already registered", common.ErrValidation)
		}
	}

	hash, err := cryptox.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	tier := req.Tier
	if tier == "" {
		tier = policy.TierFree
	}

	user := models.User{
		ID:           s.newID(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         policy.RolePending,
		Tier:         tier,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		IsActive:     true,
		CreatedAt:    s.now().UTC().Format(time.RFC3339),
	}

	rows, err := ledger.EncodeRows([]models.User{user})
	if err != nil {
		return nil, err
	}
	if _, err := s.store.Append(ctx, models.TableUsers, rows); err != nil {
		return nil, fmt.Errorf("storing user: %w", err)
	}

	s.audit.Log(ctx, user.ID, user.Username, policy.ActionRegister, "",
		fmt.Sprintf("registered with tier %s", tier), "")

	return user.Sanitized(), nil
}

// Login checks the credentials and issues a session token. An unknown
// username and a wrong password are indistinguishable to the caller; only
// a disabled account gets its own error.
func (s *Service) Login(ctx context.Context, username, password string, rememberMe bool) (string, *models.User, error) {
	_, users, err := s.scanUsers(ctx)
	if err != nil {
		return "", nil, err
	}

	var user *models.User
	for i := range users {
		if users[i].Username == username {
			user = &users[i]
			break
		}
	}
	if user == nil || !cryptox.VerifyPassword(user.PasswordHash, password) {
		return "", nil, common.ErrUnauthorized
	}
	if !user.IsActive {
		return "", nil, common.ErrAccountDisabled
	}

	token, err := s.sessions.Issue(ctx, user, rememberMe)
	if err != nil {
		return "", nil, err
	}

	// The last-login stamp is informational; a concurrent commit on the
	// users table must not fail an otherwise valid login.
	loginAt := s.now().UTC().Format(time.RFC3339)
	if _, err := s.replaceUserRow(ctx, user.ID, func(u models.User) models.User {
		u.LastLogin = loginAt
		return u
	}); err != nil {
		s.logger.Warn(ctx, "last login stamp failed", "user", user.ID, "error", err)
	}
	user.LastLogin = loginAt

	s.audit.Log(ctx, user.ID, user.Username, policy.ActionLogin, "", "login ok", "")

	return token, user.Sanitized(), nil
}

// Approve moves a pending account into the default role of the given tier.
func (s *Service) Approve(ctx context.Context, userID string, tier policy.Tier) (*models.User, error) {
	user, err := s.replaceUserRow(ctx, userID, func(u models.User) models.User {
		u.Role = tier.DefaultRole()
		u.Tier = tier
		return u
	})
	if err != nil {
		return nil, err
	}

	s.audit.Log(ctx, user.ID, user.Username, policy.ActionUserApproved, "",
		fmt.Sprintf("approved into tier %s as %s", tier, user.Role), "")

	return user.Sanitized(), nil
}

// Reject removes a pending account. The rejection is audited before the
// row disappears so the event still names the account. It reports whether
// a row was removed.
func (s *Service) Reject(ctx context.Context, userID string) (bool, error) {
	snap, users, err := s.scanUsers(ctx)
	if err != nil {
		return false, err
	}

	for _, u := range users {
		if u.ID == userID {
			s.audit.Log(ctx, u.ID, u.Username, policy.ActionUserRejected, "", "registration rejected", "")
			break
		}
	}

	kept, dropped := ledger.FilterRows(users, func(u models.User) bool {
		return u.ID != userID
	})
	if dropped == 0 {
		return false, nil
	}

	rows, err := ledger.EncodeRows(kept)
	if err != nil {
		return false, err
	}
	if _, err := s.store.Overwrite(ctx, models.TableUsers, rows, snap.Version); err != nil {
		return false, err
	}

	return true, nil
}

// ChangePassword verifies the current password before storing a new digest.
func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", common.ErrValidation, minPasswordLen)
	}

	_, users, err := s.scanUsers(ctx)
	if err != nil {
		return err
	}

	var user *models.User
	for i := range users {
		if users[i].ID == userID {
			user = &users[i]
			break
		}
	}
	if user == nil {
		return common.ErrNotFound
	}
	if !cryptox.VerifyPassword(user.PasswordHash, oldPassword) {
		return common.ErrUnauthorized
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	if _, err := s.replaceUserRow(ctx, userID, func(u models.User) models.User {
		u.PasswordHash = hash
		return u
	}); err != nil {
		return err
	}

	s.audit.Log(ctx, user.ID, user.Username, policy.ActionPasswordChange, "", "password changed", "")
	return nil
}

// SetActive enables or disables an account without removing it.
func (s *Service) SetActive(ctx context.Context, userID string, active bool) (*models.User, error) {
	user, err := s.replaceUserRow(ctx, userID, func(u models.User) models.User {
		u.IsActive = active
		return u
	})
	if err != nil {
		return nil, err
	}

	detail := "account disabled"
	if active {
		detail = "account enabled"
	}
	s.audit.Log(ctx, user.ID, user.Username, policy.ActionAdminAction, "", detail, "")

	return user.Sanitized(), nil
}

// GetUser returns one account by id.
func (s *Service) GetUser(ctx context.Context, userID string) (*models.User, error) {
	_, users, err := s.scanUsers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].ID == userID {
			return users[i].Sanitized(), nil
		}
	}
	return nil, common.ErrNotFound
}

// ListPending returns all accounts still awaiting approval.
func (s *Service) ListPending(ctx context.Context) ([]models.User, error) {
	return s.listWhere(ctx, func(u models.User) bool {
		return u.Role == policy.RolePending
	})
}

// ListActive returns all enabled accounts, pending ones included.
func (s *Service) ListActive(ctx context.Context) ([]models.User, error) {
	return s.listWhere(ctx, func(u models.User) bool {
		return u.IsActive
	})
}

// UsersAtVersion reads the users table as of a past commit.
func (s *Service) UsersAtVersion(ctx context.Context, version int64) ([]models.User, error) {
	snap, err := s.store.ReadVersion(ctx, models.TableUsers, version)
	if err != nil {
		return nil, err
	}
	return sanitizedUsers(snap)
}

// UsersAtTimestamp reads the users table as it stood at a point in time.
func (s *Service) UsersAtTimestamp(ctx context.Context, at time.Time) ([]models.User, error) {
	snap, err := s.store.ReadTimestamp(ctx, models.TableUsers, at)
	if err != nil {
		return nil, err
	}
	return sanitizedUsers(snap)
}

func (s *Service) listWhere(ctx context.Context, keep func(models.User) bool) ([]models.User, error) {
	_, users, err := s.scanUsers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.User, 0, len(users))
	for _, u := range users {
		if keep(u) {
			out = append(out, *u.Sanitized())
		}
	}
	return out, nil
}

// replaceUserRow is the one row-mutation primitive: it partitions the
// current snapshot around the key, rebuilds the matching row and commits
// the whole table back under the snapshot's version.
func (s *Service) replaceUserRow(ctx context.Context, userID string, mutate func(models.User) models.User) (*models.User, error) {
	snap, users, err := s.scanUsers(ctx)
	if err != nil {
		return nil, err
	}

	var updated *models.User
	rebuilt, found := ledger.ReplaceByKey(users,
		func(u models.User) bool { return u.ID == userID },
		func(u models.User) models.User {
			next := mutate(u)
			updated = &next
			return next
		})
	if !found {
		return nil, common.ErrNotFound
	}

	rows, err := ledger.EncodeRows(rebuilt)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.Overwrite(ctx, models.TableUsers, rows, snap.Version); err != nil {
		return nil, err
	}

	return updated, nil
}

func (s *Service) scanUsers(ctx context.Context) (*ledger.Snapshot, []models.User, error) {
	snap, err := s.store.Scan(ctx, models.TableUsers)
	if err != nil {
		return nil, nil, fmt.Errorf("scanning users: %w", err)
	}
	users, err := ledger.DecodeRows[models.User](snap)
	if err != nil {
		return nil, nil, err
	}
	return snap, users, nil
}

func sanitizedUsers(snap *ledger.Snapshot) ([]models.User, error) {
	users, err := ledger.DecodeRows[models.User](snap)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

func validateRegistration(req RegisterRequest) error {
	if len(req.Username) < minUsernameLen {
		return fmt.Errorf("%w: username must be at least %d characters", common.ErrValidation, minUsernameLen)
	}
	if !strings.Contains(req.Email, "@") {
		return fmt.Errorf("%w: invalid email address", common.ErrValidation)
	}
	if len(req.Password) < minPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", common.ErrValidation, minPasswordLen)
	}
	return nil
}
