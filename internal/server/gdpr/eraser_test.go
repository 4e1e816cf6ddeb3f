package gdpr

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/ledgerhouse/internal/common"
	"github.com/dmitrijs2005/ledgerhouse/internal/ledger"
	"github.com/dmitrijs2005/ledgerhouse/internal/logging"
	"github.com/dmitrijs2005/ledgerhouse/internal/server/audit"
	"github.com/dmitrijs2005/ledgerhouse/internal/server/identity"
	"github.com/dmitrijs2005/ledgerhouse/internal/server/models"
	"github.com/dmitrijs2005/ledgerhouse/internal/server/policy"
	"github.com/dmitrijs2005/ledgerhouse/internal/server/session"
)

func TestErase_RemovesEveryTrace(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	store, err := ledger.NewSQLiteStore(ctx, ":memory:", logger, models.AllTables()...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	auditSvc := audit.NewService(store, logger)
	sessions := session.NewManager(store, auditSvc, logger, []byte("secret"), time.Hour, time.Hour)
	users := identity.NewService(store, sessions, auditSvc, logger)

	register := func(name string) *models.User {
		u, err := users.Register(ctx, identity.RegisterRequest{
			Username: name,
			Email:    name + "@example.com",
			Password: "password-123",
		})
		require.NoError(t, err)
		return u
	}

	target := register("target")
	bystander := register("bystander")

	_, _, err = users.Login(ctx, "target", "password-123", false)
	require.NoError(t, err)
	_, _, err = users.Login(ctx, "bystander", "password-123", false)
	require.NoError(t, err)
	auditSvc.Log(ctx, target.ID, "target", policy.ActionQueryExecuted, "", "", "")

	usersVersionBefore, err := store.Version(ctx, models.TableUsers)
	require.NoError(t, err)

	eraser := NewEraser(store, logger)
	require.NoError(t, eraser.Erase(ctx, target.ID))

	assertNoTrace := func(table string) {
		t.Helper()
		snap, err := store.Scan(ctx, table)
		require.NoError(t, err)
		for _, row := range snap.Rows {
			assert.NotContains(t, string(row), target.ID, "table %s still references the user", table)
		}
	}
	assertNoTrace(models.TableUsers)
	assertNoTrace(models.TableSessions)
	assertNoTrace(models.TableAuditLog)

	// History that contained the user is gone too.
	_, err = store.ReadVersion(ctx, models.TableUsers, usersVersionBefore)
	assert.ErrorIs(t, err, common.ErrVersionNotFound)

	// The other account is untouched.
	kept, err := users.GetUser(ctx, bystander.ID)
	require.NoError(t, err)
	assert.Equal(t, "bystander", kept.Username)
}

func TestErase_UnknownUserIsANoOp(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	store, err := ledger.NewSQLiteStore(ctx, ":memory:", logger, models.AllTables()...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	eraser := NewEraser(store, logger)
	assert.NoError(t, eraser.Erase(ctx, "ghost"))
}
