package session

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/ledgerhouse/internal/ledger"
	"github.com/dmitrijs2005/ledgerhouse/internal/logging"
	"github.com/dmitrijs2005/ledgerhouse/internal/server/audit"
	"github.com/dmitrijs2005/ledgerhouse/internal/server/models"
	"github.com/dmitrijs2005/ledgerhouse/internal/server/policy"
)

// Manager issues, verifies and revokes bearer sessions. Tokens are signed
// JWTs handed to the caller; the ledger only ever sees their SHA-256 hash.
type Manager struct {
	store       ledger.Store
	audit       *audit.Service
	logger      logging.Logger
	secret      []byte
	sessionTTL  time.Duration
	rememberTTL time.Duration

	now func() time.Time
}

func NewManager(store ledger.Store, auditSvc *audit.Service, logger logging.Logger, secret []byte, sessionTTL, rememberTTL time.Duration) *Manager {
	return &Manager{
		store:       store,
		audit:       auditSvc,
		logger:      logger,
		secret:      secret,
		sessionTTL:  sessionTTL,
		rememberTTL: rememberTTL,
		now:         time.Now,
	}
}

// Issue signs a token for the user and appends the matching session row.
func (m *Manager) Issue(ctx context.Context, user *models.User, rememberMe bool) (string, error) {
	validity := m.sessionTTL
	if rememberMe {
		validity = m.rememberTTL
	}

	issuedAt := m.now().UTC()
	token, err := GenerateToken(user, m.secret, issuedAt, validity)
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}

	sess := models.Session{
		TokenHash: HashToken(token),
		UserID:    user.ID,
		Username:  user.Username,
		Role:      user.Role,
		CreatedAt: issuedAt.Format(time.RFC3339),
		ExpiresAt: issuedAt.Add(validity).Format(time.RFC3339),
		IsRevoked: false,
	}

	rows, err := ledger.EncodeRows([]models.Session{sess})
	if err != nil {
		return "", err
	}
	if _, err := m.store.Append(ctx, models.TableSessions, rows); err != nil {
		return "", fmt.Errorf("recording session: %w", err)
	}

	return token, nil
}

// Verify resolves a presented token to its current user. Every failure
// mode collapses to (nil, false): bad signature, expired token, no
// matching session row, revoked session, or a user that no longer exists.
func (m *Manager) Verify(ctx context.Context, token string) (*models.User, bool) {
	claims, err := ParseToken(token, m.secret)
	if err != nil {
		return nil, false
	}

	snap, err := m.store.Scan(ctx, models.TableSessions)
	if err != nil {
		m.logger.Warn(ctx, "session scan failed", "error", err)
		return nil, false
	}
	sessions, err := ledger.DecodeRows[models.Session](snap)
	if err != nil {
		m.logger.Warn(ctx, "session decode failed", "error", err)
		return nil, false
	}

	hash := HashToken(token)
	found := false
	for _, s := range sessions {
		if s.TokenHash == hash {
			if s.IsRevoked {
				return nil, false
			}
			found = true
			break
		}
	}
	if !found {
		return nil, false
	}

	user, err := m.lookupUser(ctx, claims.Subject)
	if err != nil || user == nil {
		return nil, false
	}

	return user.Sanitized(), true
}

// Revoke hashes the token and removes its session row. It reports whether
// a row was removed; revoking an unknown token is not an error.
func (m *Manager) Revoke(ctx context.Context, token string) (bool, error) {
	hash := HashToken(token)

	snap, err := m.store.Scan(ctx, models.TableSessions)
	if err != nil {
		return false, err
	}
	sessions, err := ledger.DecodeRows[models.Session](snap)
	if err != nil {
		return false, err
	}

	kept, dropped := ledger.FilterRows(sessions, func(s models.Session) bool {
		return s.TokenHash != hash
	})
	if dropped == 0 {
		return false, nil
	}

	rows, err := ledger.EncodeRows(kept)
	if err != nil {
		return false, err
	}
	if _, err := m.store.Overwrite(ctx, models.TableSessions, rows, snap.Version); err != nil {
		return false, err
	}

	if claims, err := ParseToken(token, m.secret); err == nil {
		m.audit.Log(ctx, claims.Subject, claims.Username, policy.ActionLogout, "", "session revoked", "")
	}

	return true, nil
}

func (m *Manager) lookupUser(ctx context.Context, userID string) (*models.User, error) {
	snap, err := m.store.Scan(ctx, models.TableUsers)
	if err != nil {
		return nil, err
	}
	users, err := ledger.DecodeRows[models.User](snap)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].ID == userID {
			return &users[i], nil
		}
	}
	return nil, nil
}
