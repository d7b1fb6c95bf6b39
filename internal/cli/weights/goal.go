package weights

import (
	"fmt"

	"github.com/julianstephens/sqirvy-health/internal/cli"
	"github.com/julianstephens/sqirvy-health/internal/constants"
)

type GoalSetCmd struct {
	Weight float64 `arg:"" help:"Goal weight."`
}

func (c *GoalSetCmd) Run(ctx *cli.Context) error {
	goal, err := ctx.Tracker.SetGoal(ctx.Ctx, c.Weight)
	if err != nil {
		return err
	}
	ctx.Printf("✓ Goal weight set to %g\n", goal.GoalWeight)
	return nil
}

type GoalShowCmd struct{}

func (c *GoalShowCmd) Run(ctx *cli.Context) error {
	summary, err := ctx.Tracker.WeightSummary(ctx.Ctx)
	if err != nil {
		return err
	}
	if summary.Goal == nil {
		ctx.Printf("No goal set. Use '%s goal set WEIGHT'.\n", constants.BinaryName)
		return nil
	}
	ctx.Printf("Goal: %g (set %s)\n", summary.Goal.GoalWeight, summary.Goal.CreatedAt.Local().Format(constants.DateFormat))
	if summary.Latest != nil {
		ctx.Printf("Latest: %g on %s, %+g to go\n", summary.Latest.Weight, summary.Latest.Date, summary.ToGoal)
	}
	return nil
}

type GoalHistoryCmd struct{}

func (c *GoalHistoryCmd) Run(ctx *cli.Context) error {
	goals, err := ctx.Tracker.GoalHistory(ctx.Ctx)
	if err != nil {
		return err
	}
	if len(goals) == 0 {
		ctx.Println("No goals set yet.")
		return nil
	}
	ctx.Println(cli.HeaderStyle.Render(fmt.Sprintf("Goal history (%d)", len(goals))))
	for _, g := range goals {
		marker := " "
		if g.IsActive {
			marker = "*"
		}
		ctx.Printf("%s %s  %g\n", marker, g.CreatedAt.Local().Format("2006-01-02 15:04"), g.GoalWeight)
	}
	return nil
}
