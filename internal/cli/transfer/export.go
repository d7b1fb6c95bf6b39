package transfer

import (
	"fmt"

	"github.com/julianstephens/sqirvy-health/internal/cli"
	"github.com/julianstephens/sqirvy-health/internal/compat"
)

type ExportMealsCmd struct {
	Out string `help:"Write to this file instead of stdout." short:"o" type:"path"`
}

func (c *ExportMealsCmd) Run(ctx *cli.Context) error {
	doc, err := ctx.Projector.ExportMeals(ctx.Ctx)
	if err != nil {
		return err
	}
	return write(ctx, c.Out, doc)
}

type ExportWeightCmd struct {
	Out string `help:"Write to this file instead of stdout." short:"o" type:"path"`
}

func (c *ExportWeightCmd) Run(ctx *cli.Context) error {
	doc, err := ctx.Projector.ExportWeight(ctx.Ctx)
	if err != nil {
		return err
	}
	return write(ctx, c.Out, doc)
}

func write(ctx *cli.Context, path string, doc any) error {
	data, err := compat.Encode(doc)
	if err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	if path == "" {
		_, err := ctx.Out.Write(data)
		return err
	}
	if err := compat.WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	ctx.Printf("✓ Exported to %s\n", path)
	return nil
}
