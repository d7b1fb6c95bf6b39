package system

import (
	"errors"
	"fmt"

	"github.com/julianstephens/sqirvy-health/internal/cli"
	"github.com/julianstephens/sqirvy-health/internal/constants"
	"github.com/julianstephens/sqirvy-health/internal/database"
	"github.com/julianstephens/sqirvy-health/internal/keyring"
)

// KeyringSetCmd stores the PostgreSQL connection string in the OS keyring
type KeyringSetCmd struct {
	ConnectionString string `arg:"" help:"PostgreSQL connection string to store in keyring (no password)."`
}

func (cmd *KeyringSetCmd) Run(ctx *cli.Context) error {
	if !database.IsPostgresConnString(cmd.ConnectionString) {
		return errors.New("connection string must be a valid PostgreSQL connection string")
	}
	if err := keyring.SetConnectionString(cmd.ConnectionString); err != nil {
		if errors.Is(err, database.ErrEmbeddedCredentials) {
			return fmt.Errorf("%w: keep the password in ~/.pgpass or PGPASSWORD instead", err)
		}
		return err
	}

	ctx.Println("✓ Connection string stored successfully in OS keyring")
	ctx.Printf("  Set backend: postgres in %s to use it\n", ctx.Config.Path())
	return nil
}

// KeyringGetCmd prints the stored connection string
type KeyringGetCmd struct{}

func (cmd *KeyringGetCmd) Run(ctx *cli.Context) error {
	connStr, err := keyring.GetConnectionString()
	if errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("no connection string found in keyring. Use '%s keyring set' to store one", constants.BinaryName)
	}
	if err != nil {
		return err
	}
	ctx.Println("Connection string retrieved from keyring:")
	ctx.Println(connStr)
	return nil
}

// KeyringDeleteCmd removes the stored connection string
type KeyringDeleteCmd struct{}

func (cmd *KeyringDeleteCmd) Run(ctx *cli.Context) error {
	if err := keyring.DeleteConnectionString(); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return errors.New("no connection string found in keyring")
		}
		return err
	}
	ctx.Println("✓ Connection string deleted from OS keyring")
	return nil
}

// KeyringStatusCmd reports whether the keyring is usable
type KeyringStatusCmd struct{}

func (cmd *KeyringStatusCmd) Run(ctx *cli.Context) error {
	status := keyring.GetStatus()
	if !status.Available {
		ctx.Println("❌ OS keyring is not available on this system")
		return keyring.ErrKeyringUnavailable
	}
	ctx.Println("✓ OS keyring is available")
	if status.Stored {
		ctx.Println("✓ Connection string is stored in keyring")
	} else {
		ctx.Println("ℹ No connection string stored in keyring")
	}
	return nil
}
