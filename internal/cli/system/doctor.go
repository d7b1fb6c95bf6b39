package system

import (
	"errors"
	"fmt"

	"github.com/julianstephens/sqirvy-health/internal/cli"
	"github.com/julianstephens/sqirvy-health/internal/constants"
	apperrors "github.com/julianstephens/sqirvy-health/internal/errors"
	"github.com/julianstephens/sqirvy-health/internal/storage"
	"github.com/julianstephens/sqirvy-health/internal/validation"
)

// skipped marks a check that does not apply to the active backend
type skipped string

func (s skipped) Error() string { return string(s) }

type DoctorCmd struct {
	Fix bool `help:"Recompute cached day totals that do not match their items."`
}

type check struct {
	name  string
	warn  bool
	needs bool // requires a reachable database
	run   func(ctx *cli.Context) error
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	checks := []check{
		{name: "Database reachable", run: checkDBReachable},
		{name: "Schema version", needs: true, run: checkSchemaVersion},
		{name: "Day totals", needs: true, run: cmd.checkTotals},
		{name: "Active goal", needs: true, run: checkActiveGoals},
		{name: "Date formats", needs: true, run: checkDateFormats},
		{name: "Backups present", warn: true, run: checkBackupsPresent},
	}

	var (
		failed    bool
		invariant bool
		reachable = true
	)
	for _, c := range checks {
		if c.needs && !reachable {
			ctx.Printf("⊘ %s: SKIPPED (database not reachable)\n", c.name)
			continue
		}
		err := c.run(ctx)
		switch {
		case err == nil:
			ctx.Printf("✓ %s: OK\n", c.name)
		case isSkipped(err):
			ctx.Printf("⊘ %s: SKIPPED (%v)\n", c.name, err)
		case c.warn:
			ctx.Printf("⚠ %s: WARNING\n", c.name)
			ctx.Printf("   %v\n", err)
		default:
			ctx.Printf("❌ %s: FAIL\n", c.name)
			ctx.Printf("   Error: %v\n", err)
			failed = true
			if errors.Is(err, apperrors.ErrInvariantBreach) {
				invariant = true
			}
			if c.name == "Database reachable" {
				reachable = false
			}
		}
	}

	ctx.Println()
	if !failed {
		ctx.Println("All checks passed.")
		return nil
	}
	if invariant {
		return fmt.Errorf("%w: diagnostics found data problems", apperrors.ErrInvariantBreach)
	}
	return errors.New("diagnostics found problems")
}

func isSkipped(err error) bool {
	var s skipped
	return errors.As(err, &s)
}

func checkDBReachable(ctx *cli.Context) error {
	db, err := ctx.DB.Acquire(ctx.Ctx)
	if err != nil {
		return err
	}
	return db.PingContext(ctx.Ctx)
}

func checkSchemaVersion(ctx *cli.Context) error {
	current, latest, err := ctx.DB.SchemaVersion(ctx.Ctx)
	if err != nil {
		return err
	}
	if current < latest {
		return fmt.Errorf("schema version %d is behind %d; run '%s migrate'", current, latest, constants.BinaryName)
	}
	if current > latest {
		return fmt.Errorf("schema version %d is newer than this binary supports (%d)", current, latest)
	}
	return nil
}

func (cmd *DoctorCmd) checkTotals(ctx *cli.Context) error {
	checker := storage.NewChecker(ctx.Meals, ctx.Weights)
	report, err := checker.Check(ctx.Ctx)
	if err != nil {
		return err
	}
	if len(report.Mismatches) == 0 {
		return nil
	}
	if !cmd.Fix {
		return fmt.Errorf("%w: %d day(s) with stale totals; run '%s doctor --fix'",
			apperrors.ErrInvariantBreach, len(report.Mismatches), constants.BinaryName)
	}

	ctx.PerformAutomaticBackup()
	fixed, err := checker.RepairTotals(ctx.Ctx)
	if err != nil {
		return err
	}
	ctx.Printf("  Repaired %d day total(s)\n", fixed)
	return nil
}

func checkActiveGoals(ctx *cli.Context) error {
	n, err := ctx.Weights.CountActiveGoals(ctx.Ctx)
	if err != nil {
		return err
	}
	if n > 1 {
		return fmt.Errorf("%w: %d active goals", apperrors.ErrInvariantBreach, n)
	}
	return nil
}

func checkDateFormats(ctx *cli.Context) error {
	days, err := ctx.Meals.ListAllDays(ctx.Ctx)
	if err != nil {
		return err
	}
	var bad []string
	for _, day := range days {
		if validation.Date(day.Record.Date) != nil {
			bad = append(bad, day.Record.Date)
		}
	}
	entries, err := ctx.Weights.ListAll(ctx.Ctx)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if validation.Date(e.Date) != nil {
			bad = append(bad, e.Date)
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("%d invalid date(s): %v", len(bad), bad)
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	mgr := ctx.Backups()
	if mgr == nil {
		return skipped("backups are only kept for SQLite")
	}
	backups, err := mgr.List()
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found in %s; run '%s backup create'", mgr.Dir(), constants.BinaryName)
	}
	return nil
}
