package meals

import (
	"fmt"

	"github.com/julianstephens/sqirvy-health/internal/cli"
	"github.com/julianstephens/sqirvy-health/internal/tracker"
	"github.com/julianstephens/sqirvy-health/internal/validation"
)

type FoodAddCmd struct {
	Name     string  `arg:"" help:"Food name."`
	Slot     string  `help:"Meal slot: breakfast, morning_snack, lunch, afternoon_snack, dinner or evening_snack." required:"" short:"s"`
	Unit     string  `help:"Serving unit." default:"serving" short:"u"`
	Kcal     float64 `help:"Calories per serving." required:"" short:"k"`
	Quantity float64 `help:"Number of servings." default:"1" short:"q"`
	Date     string  `help:"Date to log against (YYYY-MM-DD). Defaults to today." short:"d"`
}

func (c *FoodAddCmd) Run(ctx *cli.Context) error {
	slot, err := validation.Slot(c.Slot)
	if err != nil {
		return err
	}
	date := ctx.DateOrToday(c.Date)
	item, err := ctx.Tracker.LogFood(ctx.Ctx, date, slot, tracker.FoodInput{
		Name:     c.Name,
		Unit:     c.Unit,
		Kcal:     c.Kcal,
		Quantity: c.Quantity,
	})
	if err != nil {
		return err
	}
	ctx.Printf("✓ Logged %s to %s on %s\n", cli.FormatItem(item), cli.SlotTitle(slot), date)
	return nil
}

type FoodEditCmd struct {
	ID   int64   `arg:"" help:"Item id shown by 'sqirvy day'."`
	Name string  `help:"New food name."`
	Unit string  `help:"New serving unit." short:"u"`
	Kcal float64 `help:"New calories per serving." short:"k"`
	Date string  `help:"Date the item was logged on (YYYY-MM-DD). Defaults to today." short:"d"`
}

func (c *FoodEditCmd) Run(ctx *cli.Context) error {
	if c.Name == "" && c.Unit == "" && c.Kcal == 0 {
		return fmt.Errorf("nothing to change: pass --name, --unit or --kcal")
	}
	item, err := ctx.Tracker.UpdateFood(ctx.Ctx, ctx.DateOrToday(c.Date), c.ID, tracker.FoodPatch{
		Name: c.Name,
		Unit: c.Unit,
		Kcal: c.Kcal,
	})
	if err != nil {
		return err
	}
	ctx.Printf("✓ Updated %s\n", cli.FormatItem(item))
	return nil
}

type FoodDeleteCmd struct {
	ID   int64  `arg:"" help:"Item id shown by 'sqirvy day'."`
	Date string `help:"Date the item was logged on (YYYY-MM-DD). Defaults to today." short:"d"`
}

func (c *FoodDeleteCmd) Run(ctx *cli.Context) error {
	date := ctx.DateOrToday(c.Date)
	if err := ctx.Tracker.DeleteFood(ctx.Ctx, date, c.ID); err != nil {
		return err
	}
	ctx.Printf("✓ Deleted item #%d from %s\n", c.ID, date)
	return nil
}

type FoodSearchCmd struct {
	Query string `arg:"" help:"At least two characters of a food name."`
	Limit int    `help:"Maximum number of results." default:"10" short:"n"`
}

func (c *FoodSearchCmd) Run(ctx *cli.Context) error {
	foods, err := ctx.Tracker.SearchFoods(ctx.Ctx, c.Query, c.Limit)
	if err != nil {
		return err
	}
	if len(foods) == 0 {
		ctx.Println("No matching foods.")
		return nil
	}
	for _, f := range foods {
		ctx.Printf("  %s (%s)  %s\n", f.Name, f.Unit, cli.MutedStyle.Render(cli.FormatKcal(f.Kcal)))
	}
	return nil
}

type FoodListCmd struct{}

func (c *FoodListCmd) Run(ctx *cli.Context) error {
	foods, err := ctx.Tracker.Foods(ctx.Ctx)
	if err != nil {
		return err
	}
	if len(foods) == 0 {
		ctx.Println("The food catalog is empty. Foods are added as you log them.")
		return nil
	}
	ctx.Println(cli.HeaderStyle.Render(fmt.Sprintf("Food catalog (%d)", len(foods))))
	for _, f := range foods {
		ctx.Printf("  %s (%s)  %s\n", f.Name, f.Unit, cli.MutedStyle.Render(cli.FormatKcal(f.Kcal)))
	}
	return nil
}
