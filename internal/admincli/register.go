package admincli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/ledgerhouse/internal/common"
	"github.com/dmitrijs2005/ledgerhouse/internal/server/identity"
	"github.com/dmitrijs2005/ledgerhouse/internal/server/policy"
)

// Register interactively collects the account fields and creates the
// account in the pending role.
func (a *App) Register(ctx context.Context) error {
	username, err := GetSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	firstName, err := GetSimpleText(a.reader, "Enter first name (optional)", a.out)
	if err != nil {
		return err
	}
	lastName, err := GetSimpleText(a.reader, "Enter last name (optional)", a.out)
	if err != nil {
		return err
	}
	tier, err := GetSimpleText(a.reader, "Enter subscription tier (free/hobbyist/pioneer/professional)", a.out)
	if err != nil {
		return err
	}

	password, err := GetPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	user, err := a.backend.Identity.Register(ctx, identity.RegisterRequest{
		Username:  username,
		Email:     email,
		Password:  string(password),
		FirstName: firstName,
		LastName:  lastName,
		Tier:      policy.ParseTier(tier),
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "registered %s (%s), awaiting approval\n", user.Username, user.ID)
	return nil
}
