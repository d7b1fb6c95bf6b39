package weights

import (
	"fmt"

	"github.com/julianstephens/sqirvy-health/internal/cli"
)

type WeightLogCmd struct {
	Weight float64 `arg:"" help:"Body weight."`
	Date   string  `help:"Date of the measurement (YYYY-MM-DD). Defaults to today." short:"d"`
}

func (c *WeightLogCmd) Run(ctx *cli.Context) error {
	entry, err := ctx.Tracker.LogWeight(ctx.Ctx, ctx.DateOrToday(c.Date), c.Weight)
	if err != nil {
		return err
	}
	ctx.Printf("✓ Logged %g on %s\n", entry.Weight, entry.Date)
	return nil
}

type WeightDeleteCmd struct {
	Date string `arg:"" help:"Date of the entry to delete (YYYY-MM-DD)."`
}

func (c *WeightDeleteCmd) Run(ctx *cli.Context) error {
	if err := ctx.Tracker.DeleteWeight(ctx.Ctx, c.Date); err != nil {
		return err
	}
	ctx.Printf("✓ Deleted weight entry for %s\n", c.Date)
	return nil
}

type WeightListCmd struct {
	Limit int `help:"Show at most this many entries (0 for all)." default:"0" short:"n"`
}

func (c *WeightListCmd) Run(ctx *cli.Context) error {
	summary, err := ctx.Tracker.WeightSummary(ctx.Ctx)
	if err != nil {
		return err
	}
	entries, err := ctx.Tracker.Weights(ctx.Ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		ctx.Println("No weight entries yet.")
		return nil
	}

	ctx.Println(cli.HeaderStyle.Render(fmt.Sprintf("Weight (%d entries)", summary.Entries)))
	for i, e := range entries {
		if c.Limit > 0 && i >= c.Limit {
			break
		}
		ctx.Printf("  %s  %g\n", e.Date, e.Weight)
	}

	ctx.Println()
	ctx.Printf("Change since first entry: %+g\n", summary.Change)
	if summary.Goal != nil {
		ctx.Printf("Goal: %g (%+g to go)\n", summary.Goal.GoalWeight, summary.ToGoal)
	}
	return nil
}
