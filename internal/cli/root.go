package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/julianstephens/sqirvy-health/internal/backup"
	"github.com/julianstephens/sqirvy-health/internal/compat"
	"github.com/julianstephens/sqirvy-health/internal/config"
	"github.com/julianstephens/sqirvy-health/internal/constants"
	"github.com/julianstephens/sqirvy-health/internal/database"
	"github.com/julianstephens/sqirvy-health/internal/logger"
	"github.com/julianstephens/sqirvy-health/internal/storage"
	"github.com/julianstephens/sqirvy-health/internal/tracker"
)

// Context is handed to every command's Run method
type Context struct {
	Ctx    context.Context
	Config *config.Config
	DB     *database.DB

	Foods     *storage.FoodStore
	Meals     *storage.MealStore
	Weights   *storage.WeightStore
	Tracker   *tracker.Service
	Projector *compat.Projector

	Out io.Writer
	// Confirm asks a yes/no question; AssumeYes skips it
	Confirm   func(title, description string) (bool, error)
	AssumeYes bool
	// Now is the clock used for the default date
	Now func() time.Time
}

// New wires the stores and services over db
func New(ctx context.Context, cfg *config.Config, db *database.DB) *Context {
	foods := storage.NewFoodStore(db)
	meals := storage.NewMealStore(db)
	weights := storage.NewWeightStore(db)
	return &Context{
		Ctx:       ctx,
		Config:    cfg,
		DB:        db,
		Foods:     foods,
		Meals:     meals,
		Weights:   weights,
		Tracker:   tracker.New(db, foods, meals, weights),
		Projector: compat.NewProjector(db, foods, meals, weights),
		Out:       os.Stdout,
		Confirm:   ConfirmPrompt,
		Now:       time.Now,
	}
}

// Printf writes to the command output
func (c *Context) Printf(format string, args ...any) {
	fmt.Fprintf(c.Out, format, args...)
}

// Println writes a line to the command output
func (c *Context) Println(args ...any) {
	fmt.Fprintln(c.Out, args...)
}

// Today returns the local calendar date
func (c *Context) Today() string {
	return c.Now().Format(constants.DateFormat)
}

// DateOrToday returns date, or today when it is empty
func (c *Context) DateOrToday(date string) string {
	if date == "" {
		return c.Today()
	}
	return date
}

// Ask confirms a destructive action unless AssumeYes is set
func (c *Context) Ask(title, description string) (bool, error) {
	if c.AssumeYes {
		return true, nil
	}
	return c.Confirm(title, description)
}

// Backups returns the backup manager, or nil when the backend is not SQLite
func (c *Context) Backups() *backup.Manager {
	if c.DB.Driver() != database.SQLite {
		return nil
	}
	keep := constants.MaxBackups
	if c.Config != nil {
		keep = c.Config.BackupKeep
	}
	return backup.NewManager(c.DB.Path(), backup.WithKeep(keep))
}

// PerformAutomaticBackup creates a backup before a bulk change and only
// logs when it fails
func (c *Context) PerformAutomaticBackup() {
	mgr := c.Backups()
	if mgr == nil {
		return
	}
	if _, err := os.Stat(c.DB.Path()); err != nil {
		return
	}
	if _, err := mgr.Create(c.Ctx); err != nil {
		logger.Warn("Automatic backup failed", "error", err)
	}
}
