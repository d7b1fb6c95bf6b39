package meals

import (
	"github.com/julianstephens/sqirvy-health/internal/cli"
)

type DayCmd struct {
	Date    string `arg:"" optional:"" help:"Date to show (YYYY-MM-DD). Defaults to today."`
	Compact bool   `help:"Hide empty meal slots."`
}

func (c *DayCmd) Run(ctx *cli.Context) error {
	day, err := ctx.Tracker.Day(ctx.Ctx, ctx.DateOrToday(c.Date))
	if err != nil {
		return err
	}
	ctx.Printf("%s", cli.RenderDay(day, c.Compact))
	return nil
}
