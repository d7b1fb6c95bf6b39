package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/sqirvy-health/internal/cli"
	"github.com/julianstephens/sqirvy-health/internal/cli/backups"
	"github.com/julianstephens/sqirvy-health/internal/cli/meals"
	"github.com/julianstephens/sqirvy-health/internal/cli/system"
	"github.com/julianstephens/sqirvy-health/internal/cli/transfer"
	"github.com/julianstephens/sqirvy-health/internal/cli/weights"
	"github.com/julianstephens/sqirvy-health/internal/config"
	"github.com/julianstephens/sqirvy-health/internal/constants"
	"github.com/julianstephens/sqirvy-health/internal/database"
	apperrors "github.com/julianstephens/sqirvy-health/internal/errors"
	"github.com/julianstephens/sqirvy-health/internal/lockfile"
	"github.com/julianstephens/sqirvy-health/internal/logger"
)

var CLI struct {
	Version   kong.VersionFlag
	ConfigDir string `help:"Configuration directory." default:"${config_dir}" type:"path"`
	Database  string `help:"SQLite database path or PostgreSQL connection string. PostgreSQL connection strings must NOT embed a password; use SQIRVY_DB_CONNECTION, .pgpass or the OS keyring instead."`
	Backend   string `help:"Storage backend (sqlite or postgres)."`
	Debug     bool   `help:"Log debug output to stderr."`
	Yes       bool   `help:"Answer yes to every confirmation." short:"y"`

	Init    system.InitCmd    `cmd:"" help:"Initialize storage."`
	Migrate system.MigrateCmd `cmd:"" help:"Run database migrations."`
	Doctor  system.DoctorCmd  `cmd:"" help:"Run health checks and diagnostics."`
	Import  struct {
		Legacy transfer.ImportLegacyCmd `cmd:"" help:"One-time import of the legacy meals.json and weight.json files."`
		Meals  transfer.ImportMealsCmd  `cmd:"" help:"Replace all meals with a meals document."`
		Weight transfer.ImportWeightCmd `cmd:"" help:"Replace all weight data with a weight document."`
	} `cmd:"" help:"Import documents."`
	Export struct {
		Meals  transfer.ExportMealsCmd  `cmd:"" help:"Export all meals as a meals document."`
		Weight transfer.ExportWeightCmd `cmd:"" help:"Export all weight data as a weight document."`
	} `cmd:"" help:"Export documents."`
	Day  meals.DayCmd `cmd:"" help:"Show the meals logged on a day." default:"withargs"`
	Food struct {
		Add    meals.FoodAddCmd    `cmd:"" help:"Log a food to a meal slot."`
		Edit   meals.FoodEditCmd   `cmd:"" help:"Edit a logged food."`
		Delete meals.FoodDeleteCmd `cmd:"" help:"Delete a logged food."`
		Search meals.FoodSearchCmd `cmd:"" help:"Search the food catalog."`
		List   meals.FoodListCmd   `cmd:"" help:"List the food catalog."`
	} `cmd:"" help:"Log and manage foods."`
	Weight struct {
		Log    weights.WeightLogCmd    `cmd:"" help:"Log a weight measurement."`
		Delete weights.WeightDeleteCmd `cmd:"" help:"Delete a weight measurement."`
		List   weights.WeightListCmd   `cmd:"" help:"List weight measurements." default:"1"`
	} `cmd:"" help:"Track body weight."`
	Goal struct {
		Set     weights.GoalSetCmd     `cmd:"" help:"Set the goal weight."`
		Show    weights.GoalShowCmd    `cmd:"" help:"Show the active goal." default:"1"`
		History weights.GoalHistoryCmd `cmd:"" help:"Show every goal ever set."`
	} `cmd:"" help:"Manage the goal weight."`
	Backup struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage SQLite database backups."`
	Keyring struct {
		Set    system.KeyringSetCmd    `cmd:"" help:"Store the PostgreSQL connection string in the OS keyring."`
		Get    system.KeyringGetCmd    `cmd:"" help:"Show the stored connection string."`
		Delete system.KeyringDeleteCmd `cmd:"" help:"Remove the stored connection string."`
		Status system.KeyringStatusCmd `cmd:"" help:"Show keyring availability." default:"1"`
	} `cmd:"" help:"Manage the PostgreSQL connection string in the OS keyring."`
}

// commands that run before or without a current schema
var skipSchemaCheck = map[string]bool{
	"init":           true,
	"migrate":        true,
	"doctor":         true,
	"keyring":        true,
	"backup restore": true,
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name(constants.BinaryName),
		kong.Description("Calorie and body-weight tracker"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":    constants.Version,
			"config_dir": constants.DefaultConfigDir,
		},
	)

	cfg, err := config.Load(CLI.ConfigDir)
	if err != nil {
		apperrors.Fatal(err)
	}
	if CLI.Backend != "" {
		cfg.Backend = CLI.Backend
	}
	if CLI.Database != "" {
		cfg.Database = CLI.Database
	}
	cfg.Debug = cfg.Debug || CLI.Debug

	if err := logger.Init(logger.Config{Debug: cfg.Debug, ConfigDir: cfg.Dir}); err != nil {
		apperrors.Fatal(err)
	}

	command := commandPath(kctx.Command())
	if strings.HasPrefix(command, "keyring") {
		// keyring commands never touch the database
		apperrors.Fatal(runWithoutDB(kctx, cfg))
		return
	}

	opts, err := cfg.DatabaseOptions()
	if err != nil {
		apperrors.Fatal(err)
	}
	db, err := database.Open(opts)
	if err != nil {
		apperrors.Fatal(err)
	}

	path := lockPath(cfg, db)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		apperrors.Fatal(err)
	}
	lock, err := lockfile.Acquire(path)
	if err != nil {
		apperrors.Fatalf("%v. Close the other %s process and try again", err, constants.BinaryName)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err = run(ctx, kctx, cfg, db, command)
	stop()

	if cerr := db.Release(); cerr != nil {
		logger.Warn("Failed to close database", "error", cerr)
	}
	if lerr := lock.Release(); lerr != nil {
		logger.Warn("Failed to release lockfile", "error", lerr)
	}
	apperrors.Fatal(err)
	logger.Close()
}

func run(ctx context.Context, kctx *kong.Context, cfg *config.Config, db *database.DB, command string) error {
	if !skipSchemaCheck[command] && !skipSchemaCheck[strings.Fields(command)[0]] {
		if err := db.ValidateSchema(ctx); err != nil {
			return err
		}
	}
	appCtx := cli.New(ctx, cfg, db)
	appCtx.AssumeYes = CLI.Yes
	return kctx.Run(appCtx)
}

func runWithoutDB(kctx *kong.Context, cfg *config.Config) error {
	appCtx := &cli.Context{
		Ctx:       context.Background(),
		Config:    cfg,
		Out:       os.Stdout,
		Confirm:   cli.ConfirmPrompt,
		AssumeYes: CLI.Yes,
	}
	return kctx.Run(appCtx)
}

// commandPath strips positional placeholders from a kong command string,
// turning "backup restore <backup-file>" into "backup restore"
func commandPath(command string) string {
	var parts []string
	for _, f := range strings.Fields(command) {
		if strings.HasPrefix(f, "<") {
			break
		}
		parts = append(parts, f)
	}
	if len(parts) == 0 {
		return "day"
	}
	return strings.Join(parts, " ")
}

func lockPath(cfg *config.Config, db *database.DB) string {
	if path := db.Path(); path != "" {
		return filepath.Join(filepath.Dir(path), constants.LockfileName)
	}
	return filepath.Join(cfg.Dir, constants.LockfileName)
}
