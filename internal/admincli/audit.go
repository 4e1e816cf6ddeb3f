package admincli

import (
	"context"
	"fmt"
	"strconv"
)

const defaultActivityLimit = 20

func (a *App) Activity(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("usage: activity <user-id> [limit]")
	}

	limit := defaultActivityLimit
	if len(args) == 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid limit %q", args[1])
		}
		limit = n
	}

	entries, err := a.backend.Audit.Activity(ctx, args[0], limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "no events")
		return nil
	}

	for _, e := range entries {
		fmt.Fprintf(a.out, "%s  %-20s %-24s %s\n", e.Timestamp, e.Action, e.Resource, e.Detail)
	}
	return nil
}

func (a *App) Billing(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: billing <user-id> <from> <to> (dates as YYYY-MM-DD)")
	}

	s, err := a.backend.Audit.BillingSummary(ctx, args[0], args[1], args[2])
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "billing for %s, %s .. %s\n", s.UserID, s.PeriodStart, s.PeriodEnd)
	fmt.Fprintf(a.out, "  queries:     %d\n", s.TotalQueries)
	fmt.Fprintf(a.out, "  uploads:     %d\n", s.TotalUploads)
	fmt.Fprintf(a.out, "  exports:     %d\n", s.TotalExports)
	fmt.Fprintf(a.out, "  backtests:   %d\n", s.TotalBacktests)
	fmt.Fprintf(a.out, "  live trades: %d\n", s.TotalLiveTrades)
	fmt.Fprintf(a.out, "  all actions: %d\n", s.TotalActions)
	return nil
}

func (a *App) ExportBilling(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: export <user-id> <from> <to> (dates as YYYY-MM-DD)")
	}

	key, url, err := a.backend.Exporter.ExportBilling(ctx, args[0], args[1], args[2])
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "uploaded %s\n%s\n", key, url)
	return nil
}

func (a *App) History(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: history <table>")
	}

	commits, err := a.backend.Store().History(ctx, args[0], 0)
	if err != nil {
		return err
	}

	for _, c := range commits {
		fmt.Fprintf(a.out, "v%-6d %s  %s\n", c.Version, c.Timestamp.UTC().Format("2006-01-02 15:04:05"), c.Operation)
	}
	return nil
}
