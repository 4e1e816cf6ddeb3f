package admincli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/ledgerhouse/internal/server/models"
	"github.com/dmitrijs2005/ledgerhouse/internal/server/policy"
)

func (a *App) ListPending(ctx context.Context) error {
	users, err := a.backend.Identity.ListPending(ctx)
	if err != nil {
		return err
	}
	a.printUsers(users)
	return nil
}

func (a *App) ListActive(ctx context.Context) error {
	users, err := a.backend.Identity.ListActive(ctx)
	if err != nil {
		return err
	}
	a.printUsers(users)
	return nil
}

func (a *App) Approve(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: approve <user-id> <tier>")
	}

	user, err := a.backend.Identity.Approve(ctx, args[0], policy.ParseTier(args[1]))
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "approved %s as %s (tier %s, %d cents/month)\n",
		user.Username, user.Role, user.Tier, user.Tier.MonthlyPriceCents())
	return nil
}

func (a *App) Reject(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: reject <user-id>")
	}

	removed, err := a.backend.Identity.Reject(ctx, args[0])
	if err != nil {
		return err
	}
	if !removed {
		fmt.Fprintln(a.out, "no such user")
		return nil
	}

	fmt.Fprintln(a.out, "rejected")
	return nil
}

func (a *App) SetActive(ctx context.Context, args []string, active bool) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: activate|deactivate <user-id>")
	}

	user, err := a.backend.Identity.SetActive(ctx, args[0], active)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%s active=%v\n", user.Username, user.IsActive)
	return nil
}

func (a *App) printUsers(users []models.User) {
	if len(users) == 0 {
		fmt.Fprintln(a.out, "no users")
		return
	}
	for _, u := range users {
		fmt.Fprintf(a.out, "%s  %-16s %-24s role=%-10s tier=%-12s active=%v\n",
			u.ID, u.Username, u.Email, u.Role, u.Tier, u.IsActive)
	}
}
