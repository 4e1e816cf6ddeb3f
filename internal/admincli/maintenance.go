package admincli

import (
	"context"
	"fmt"
)

func (a *App) Erase(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: erase <user-id>")
	}

	confirm, err := GetSimpleText(a.reader,
		fmt.Sprintf("This permanently removes all data for %s. Type the user id to confirm", args[0]), a.out)
	if err != nil {
		return err
	}
	if confirm != args[0] {
		fmt.Fprintln(a.out, "aborted")
		return nil
	}

	if err := a.backend.Eraser.Erase(ctx, args[0]); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "erased")
	return nil
}

func (a *App) Maintain(ctx context.Context) error {
	if err := a.backend.Maintenance.RunOnce(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "maintenance pass complete")
	return nil
}
