package system

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/sqirvy-health/internal/cli"
	"github.com/julianstephens/sqirvy-health/internal/database"
)

type InitCmd struct {
	Force bool `help:"Delete the existing SQLite database before initializing."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		if ctx.DB.Driver() != database.SQLite {
			return errors.New("--force is only supported for SQLite databases")
		}
		if err := c.reset(ctx); err != nil {
			return err
		}
	}

	if path := ctx.DB.Path(); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	applied, err := ctx.DB.Migrate(ctx.Ctx, func(msg string) { ctx.Println(msg) })
	if err != nil {
		return err
	}

	where := ctx.DB.Path()
	if where == "" {
		where = "PostgreSQL schema " + database.PostgresSchema
	}
	if applied == 0 {
		ctx.Printf("Storage already initialized at: %s\n", where)
	} else {
		ctx.Printf("Initialized storage at: %s\n", where)
	}
	return nil
}

func (c *InitCmd) reset(ctx *cli.Context) error {
	path := ctx.DB.Path()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return fmt.Errorf("failed to access existing database: %w", err)
	}

	ok, err := ctx.Ask("Delete the existing database?", path+" and everything in it will be removed. Backups are kept.")
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("init cancelled")
	}

	ctx.PerformAutomaticBackup()
	if err := ctx.DB.Release(); err != nil {
		return fmt.Errorf("failed to close existing database: %w", err)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete existing database: %w", err)
	}
	ctx.Printf("Deleted existing database at: %s\n", path)
	return nil
}
