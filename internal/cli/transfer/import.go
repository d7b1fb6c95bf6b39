package transfer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/sqirvy-health/internal/cli"
	"github.com/julianstephens/sqirvy-health/internal/compat"
	"github.com/julianstephens/sqirvy-health/internal/constants"
	"github.com/julianstephens/sqirvy-health/internal/logger"
)

var errCancelled = errors.New("import cancelled")

type ImportLegacyCmd struct {
	Meals     string `help:"Legacy meals file. Defaults to meals.json in the config directory." type:"path"`
	Weight    string `help:"Legacy weight file. Defaults to weight.json in the config directory." type:"path"`
	BackupDir string `help:"Where copies of the legacy files are kept. Defaults to legacy-backup in the config directory." type:"path"`
}

func (c *ImportLegacyCmd) Run(ctx *cli.Context) error {
	files := compat.LegacyFiles{
		MealsPath:  orDefault(c.Meals, filepath.Join(ctx.Config.Dir, constants.LegacyMealsFile)),
		WeightPath: orDefault(c.Weight, filepath.Join(ctx.Config.Dir, constants.LegacyWeightFile)),
		BackupRoot: orDefault(c.BackupDir, filepath.Join(ctx.Config.Dir, constants.LegacyBackupDir)),
	}

	ok, err := ctx.Ask("Import legacy data?",
		fmt.Sprintf("All meals, foods and weight entries will be replaced with the contents of %s and %s.", files.MealsPath, files.WeightPath))
	if err != nil {
		return err
	}
	if !ok {
		return errCancelled
	}

	ctx.PerformAutomaticBackup()
	report, err := compat.NewMigrator(ctx.Projector).Run(ctx.Ctx, files)
	if err != nil {
		return fmt.Errorf("legacy import failed: %w", err)
	}
	logger.Info("Legacy import complete", "run", report.RunID, "days", report.Days, "weights", report.WeightEntries)

	ctx.Println("✓ Legacy import complete")
	if report.BackupDir != "" {
		ctx.Printf("  Originals copied to: %s\n", report.BackupDir)
	}
	if report.MealsImported {
		ctx.Printf("  Days: %d, foods: %d\n", report.Days, report.FoodItems)
	} else {
		ctx.Println("  No meal data found; meals left untouched")
	}
	ctx.Printf("  Weight entries: %d, goal: %g\n", report.WeightEntries, report.Goal)
	return nil
}

type ImportMealsCmd struct {
	File string `arg:"" help:"Meals document to import." type:"existingfile"`
}

func (c *ImportMealsCmd) Run(ctx *cli.Context) error {
	data, err := os.ReadFile(c.File)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", c.File, err)
	}
	doc, err := compat.DecodeMeals(data)
	if err != nil {
		return err
	}

	ok, err := ctx.Ask("Replace all meals?", "Every day and the whole food catalog will be replaced with "+c.File+".")
	if err != nil {
		return err
	}
	if !ok {
		return errCancelled
	}

	ctx.PerformAutomaticBackup()
	if err := ctx.Projector.ImportMeals(ctx.Ctx, doc); err != nil {
		return fmt.Errorf("meals import failed: %w", err)
	}
	ctx.Printf("✓ Imported %d days and %d foods\n", len(doc.Meals), len(doc.FoodDatabase))
	return nil
}

type ImportWeightCmd struct {
	File string `arg:"" help:"Weight document to import." type:"existingfile"`
}

func (c *ImportWeightCmd) Run(ctx *cli.Context) error {
	data, err := os.ReadFile(c.File)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", c.File, err)
	}
	doc, err := compat.DecodeWeight(data)
	if err != nil {
		return err
	}

	ok, err := ctx.Ask("Replace all weight data?", "The goal and every weight entry will be replaced with "+c.File+".")
	if err != nil {
		return err
	}
	if !ok {
		return errCancelled
	}

	ctx.PerformAutomaticBackup()
	if err := ctx.Projector.ImportWeight(ctx.Ctx, doc); err != nil {
		return fmt.Errorf("weight import failed: %w", err)
	}
	ctx.Printf("✓ Imported %d weight entries\n", len(doc.Weight.Daily))
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
