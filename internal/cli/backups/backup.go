package backups

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/sqirvy-health/internal/backup"
	"github.com/julianstephens/sqirvy-health/internal/cli"
	"github.com/julianstephens/sqirvy-health/internal/constants"
	apperrors "github.com/julianstephens/sqirvy-health/internal/errors"
)

var errUnsupported = errors.New("backups are only supported for SQLite databases")

func manager(ctx *cli.Context) (*backup.Manager, error) {
	mgr := ctx.Backups()
	if mgr == nil {
		return nil, errUnsupported
	}
	return mgr, nil
}

type BackupCreateCmd struct{}

func (c *BackupCreateCmd) Run(ctx *cli.Context) error {
	mgr, err := manager(ctx)
	if err != nil {
		return err
	}
	info, err := mgr.Create(ctx.Ctx)
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}
	ctx.Printf("✓ Backup created: %s\n", filepath.Base(info.Path))
	return nil
}

type BackupListCmd struct{}

func (c *BackupListCmd) Run(ctx *cli.Context) error {
	mgr, err := manager(ctx)
	if err != nil {
		return err
	}
	backups, err := mgr.List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}

	if len(backups) == 0 {
		ctx.Println("No backups found.")
		ctx.Printf("Backups are stored in: %s\n", mgr.Dir())
		return nil
	}

	keep := constants.MaxBackups
	if ctx.Config != nil {
		keep = ctx.Config.BackupKeep
	}
	ctx.Printf("Available backups (%d total, keeping most recent %d):\n\n", len(backups), keep)
	for _, b := range backups {
		sizeKB := float64(b.Size) / 1024.0
		ctx.Printf("  %s  %s  (%.1f KB)\n", b.Timestamp.Local().Format("2006-01-02 15:04:05"), filepath.Base(b.Path), sizeKB)
	}
	ctx.Printf("\nBackup directory: %s\n", mgr.Dir())
	return nil
}

type BackupRestoreCmd struct {
	BackupFile string `arg:"" help:"Path or filename of the backup to restore."`
}

func (c *BackupRestoreCmd) Run(ctx *cli.Context) error {
	mgr, err := manager(ctx)
	if err != nil {
		return err
	}
	path, err := resolve(c.BackupFile, mgr.Dir())
	if err != nil {
		return err
	}

	ok, err := ctx.Ask("Restore "+filepath.Base(path)+"?",
		"The current database will be replaced. A backup of it is taken first. Stop every other sqirvy process before continuing.")
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("restore cancelled")
	}

	if err := ctx.DB.Release(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}
	previous, err := mgr.Restore(ctx.Ctx, path)
	if err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}

	ctx.Println("✓ Database restored successfully!")
	if previous.Path != "" {
		ctx.Printf("  Previous database saved as: %s\n", filepath.Base(previous.Path))
	}
	return nil
}

// resolve finds a backup given as an absolute path, a path relative to the
// working directory, or a file name inside the backup directory
func resolve(name, dir string) (string, error) {
	if filepath.IsAbs(name) {
		if _, err := os.Stat(name); err != nil {
			return "", fmt.Errorf("%w: backup file %s", apperrors.ErrNotFound, name)
		}
		return name, nil
	}
	if _, err := os.Stat(name); err == nil {
		return filepath.Abs(name)
	}
	candidate := filepath.Join(dir, name)
	if _, err := os.Stat(candidate); err == nil {
		return candidate, nil
	}
	return "", fmt.Errorf("%w: backup file %s (tried current directory and %s)", apperrors.ErrNotFound, name, dir)
}
